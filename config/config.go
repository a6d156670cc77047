package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"fdchain/native/bank"
)

// Config is the node configuration decoded from TOML.
type Config struct {
	DataDir       string      `toml:"DataDir"`
	GenesisFile   string      `toml:"GenesisFile"`
	Env           string      `toml:"Env"`
	LogFile       string      `toml:"LogFile"`
	BlockInterval string      `toml:"BlockInterval"`
	Bank          bank.Config `toml:"bank"`
	Gateway       Gateway     `toml:"gateway"`
	Indexer       Indexer     `toml:"indexer"`
	Telemetry     Telemetry   `toml:"telemetry"`
}

// Gateway configures the HTTP API.
type Gateway struct {
	ListenAddress      string   `toml:"ListenAddress"`
	JWTSecretEnv       string   `toml:"JWTSecretEnv"`
	JWTIssuer          string   `toml:"JWTIssuer"`
	JWTAudience        string   `toml:"JWTAudience"`
	RateLimitPerSecond float64  `toml:"RateLimitPerSecond"`
	RateLimitBurst     int      `toml:"RateLimitBurst"`
	AllowedOrigins     []string `toml:"AllowedOrigins"`
}

// Indexer configures the event indexer. An empty driver disables it.
type Indexer struct {
	Driver string `toml:"Driver"`
	DSN    string `toml:"DSN"`
}

// Telemetry configures OTLP export. Both exporters are off by default.
type Telemetry struct {
	Endpoint string `toml:"Endpoint"`
	Insecure bool   `toml:"Insecure"`
	Headers  string `toml:"Headers"`
	Metrics  bool   `toml:"Metrics"`
	Traces   bool   `toml:"Traces"`
}

const (
	defaultBlockInterval = "6s"
	defaultJWTSecretEnv  = "FD_GATEWAY_JWT_SECRET"
)

// Load loads the configuration from the given path, writing a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration written on first start.
func Default() *Config {
	return &Config{
		DataDir:       "./fd-data",
		GenesisFile:   "",
		Env:           "dev",
		BlockInterval: defaultBlockInterval,
		Bank:          bank.DefaultConfig(),
		Gateway: Gateway{
			ListenAddress:      ":8080",
			JWTSecretEnv:       defaultJWTSecretEnv,
			JWTIssuer:          "fdchain",
			RateLimitPerSecond: 20,
			RateLimitBurst:     40,
			AllowedOrigins:     []string{},
		},
		Indexer:   Indexer{Driver: "sqlite", DSN: "indexer.db"},
		Telemetry: Telemetry{Endpoint: "localhost:4318", Insecure: true},
	}
}

func (c *Config) applyDefaults() {
	def := Default()
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = def.DataDir
	}
	if strings.TrimSpace(c.Env) == "" {
		c.Env = def.Env
	}
	if strings.TrimSpace(c.BlockInterval) == "" {
		c.BlockInterval = def.BlockInterval
	}
	c.Bank.EnsureDefaults()
	if strings.TrimSpace(c.Gateway.JWTSecretEnv) == "" {
		c.Gateway.JWTSecretEnv = def.Gateway.JWTSecretEnv
	}
	if c.Gateway.RateLimitPerSecond == 0 {
		c.Gateway.RateLimitPerSecond = def.Gateway.RateLimitPerSecond
	}
	if c.Gateway.RateLimitBurst == 0 {
		c.Gateway.RateLimitBurst = def.Gateway.RateLimitBurst
	}
	if c.Gateway.AllowedOrigins == nil {
		c.Gateway.AllowedOrigins = []string{}
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// ResolvePath anchors relative paths at the data directory.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}
