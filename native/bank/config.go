package bank

import (
	"fmt"
	"math/big"
)

// Config captures the runtime limits for the bank module. Amount bounds are
// decoded from quoted decimal strings.
type Config struct {
	MinFDAmount         *big.Int `toml:"MinFDAmount"`
	MaxFDAmount         *big.Int `toml:"MaxFDAmount"`
	MaxFDMaturityPeriod uint64   `toml:"MaxFDMaturityPeriod"`
	MinLockAmount       *big.Int `toml:"MinLockAmount"`
	MaxLockAmount       *big.Int `toml:"MaxLockAmount"`
}

// DefaultConfig mirrors the limits of the reference runtime: deposits between
// 50 and 200,000 units for at most five years, DAO locks between 20 and
// 100,000 units.
func DefaultConfig() Config {
	return Config{
		MinFDAmount:         big.NewInt(50),
		MaxFDAmount:         big.NewInt(200_000),
		MaxFDMaturityPeriod: 5 * BlocksPerYear,
		MinLockAmount:       big.NewInt(20),
		MaxLockAmount:       big.NewInt(100_000),
	}
}

// EnsureDefaults populates nil fields from DefaultConfig.
func (c *Config) EnsureDefaults() {
	def := DefaultConfig()
	if c.MinFDAmount == nil {
		c.MinFDAmount = def.MinFDAmount
	}
	if c.MaxFDAmount == nil {
		c.MaxFDAmount = def.MaxFDAmount
	}
	if c.MaxFDMaturityPeriod == 0 {
		c.MaxFDMaturityPeriod = def.MaxFDMaturityPeriod
	}
	if c.MinLockAmount == nil {
		c.MinLockAmount = def.MinLockAmount
	}
	if c.MaxLockAmount == nil {
		c.MaxLockAmount = def.MaxLockAmount
	}
}

// Validate checks that every bound is positive, ordered, and representable.
func (c Config) Validate() error {
	check := func(name string, v *big.Int) error {
		if v == nil || v.Sign() <= 0 {
			return fmt.Errorf("bank config: %s must be positive", name)
		}
		if v.Cmp(MaxBalance) > 0 {
			return fmt.Errorf("bank config: %s exceeds native balance range", name)
		}
		return nil
	}
	for _, field := range []struct {
		name  string
		value *big.Int
	}{
		{"MinFDAmount", c.MinFDAmount},
		{"MaxFDAmount", c.MaxFDAmount},
		{"MinLockAmount", c.MinLockAmount},
		{"MaxLockAmount", c.MaxLockAmount},
	} {
		if err := check(field.name, field.value); err != nil {
			return err
		}
	}
	if c.MinFDAmount.Cmp(c.MaxFDAmount) > 0 {
		return fmt.Errorf("bank config: MinFDAmount %s exceeds MaxFDAmount %s", c.MinFDAmount, c.MaxFDAmount)
	}
	if c.MinLockAmount.Cmp(c.MaxLockAmount) > 0 {
		return fmt.Errorf("bank config: MinLockAmount %s exceeds MaxLockAmount %s", c.MinLockAmount, c.MaxLockAmount)
	}
	if c.MaxFDMaturityPeriod == 0 {
		return fmt.Errorf("bank config: MaxFDMaturityPeriod must be positive")
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c Config) Clone() Config {
	clone := Config{MaxFDMaturityPeriod: c.MaxFDMaturityPeriod}
	if c.MinFDAmount != nil {
		clone.MinFDAmount = new(big.Int).Set(c.MinFDAmount)
	}
	if c.MaxFDAmount != nil {
		clone.MaxFDAmount = new(big.Int).Set(c.MaxFDAmount)
	}
	if c.MinLockAmount != nil {
		clone.MinLockAmount = new(big.Int).Set(c.MinLockAmount)
	}
	if c.MaxLockAmount != nil {
		clone.MaxLockAmount = new(big.Int).Set(c.MaxLockAmount)
	}
	return clone
}
