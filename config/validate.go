package config

import (
	"fmt"
	"strings"
	"time"
)

var (
	MinBlockInterval = time.Second
)

// Validate rejects inconsistent settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir must be set")
	}
	if _, err := c.BlockIntervalDuration(); err != nil {
		return err
	}
	if err := c.Bank.Validate(); err != nil {
		return err
	}
	if c.Gateway.RateLimitPerSecond < 0 {
		return fmt.Errorf("gateway: RateLimitPerSecond must not be negative")
	}
	if c.Gateway.RateLimitBurst < 0 {
		return fmt.Errorf("gateway: RateLimitBurst must not be negative")
	}
	switch strings.ToLower(strings.TrimSpace(c.Indexer.Driver)) {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("indexer: unsupported driver %q", c.Indexer.Driver)
	}
	if c.Indexer.Driver != "" && strings.TrimSpace(c.Indexer.DSN) == "" {
		return fmt.Errorf("indexer: DSN required for driver %q", c.Indexer.Driver)
	}
	return nil
}

// BlockIntervalDuration parses BlockInterval.
func (c *Config) BlockIntervalDuration() (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(c.BlockInterval))
	if err != nil {
		return 0, fmt.Errorf("config: invalid BlockInterval %q: %w", c.BlockInterval, err)
	}
	if d < MinBlockInterval {
		return 0, fmt.Errorf("config: BlockInterval %s below %s", d, MinBlockInterval)
	}
	return d, nil
}
