// Package config provides configuration loading and validation for oracle-go.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Load loads configuration from YAML file and environment variables.
func Load(path string) (*Config, error) {
	// Validate and sanitize path
	cleanPath := filepath.Clean(path)
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	data, err := os.ReadFile(absPath) // #nosec G304 -- Path sanitized with filepath.Clean and filepath.Abs
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse expands environment variables in data, decodes it and applies defaults.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// applyDefaults sets default values for optional fields.
func applyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.HTTP.Addr == "" {
		cfg.Server.HTTP.Addr = ":8080"
	}
	if cfg.Server.WebSocket.Enabled && cfg.Server.WebSocket.Addr == "" {
		cfg.Server.WebSocket.Addr = ":8081"
	}
	if cfg.Server.RequestTimeout.ToDuration() == 0 {
		cfg.Server.RequestTimeout = Duration(10 * time.Second)
	}

	if cfg.EVM.Timeout.ToDuration() == 0 {
		cfg.EVM.Timeout = Duration(15 * time.Second)
	}

	for i := range cfg.Feeds {
		if cfg.Feeds[i].Kind == "" {
			cfg.Feeds[i].Kind = KindStatic
		}
		cfg.Feeds[i].Kind = strings.ToLower(cfg.Feeds[i].Kind)
	}

	for i := range cfg.Factories {
		if cfg.Factories[i].Name == "" {
			cfg.Factories[i].Name = cfg.Factories[i].BaseSymbol
		}
	}

	// Metrics defaults
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9091"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Logging.File.Path != "" {
		if cfg.Logging.File.MaxSize == 0 {
			cfg.Logging.File.MaxSize = 100
		}
		if cfg.Logging.File.MaxBackups == 0 {
			cfg.Logging.File.MaxBackups = 3
		}
		if cfg.Logging.File.MaxAge == 0 {
			cfg.Logging.File.MaxAge = 28
		}
	}
}

// OwnerAddress returns the configured owner account.
func (c *Config) OwnerAddress() common.Address {
	return common.HexToAddress(c.Owner)
}

// PauserAddress returns the configured pauser account, or the zero address.
func (c *Config) PauserAddress() common.Address {
	if c.Pauser == "" {
		return common.Address{}
	}
	return common.HexToAddress(c.Pauser)
}

// NeedsEVM reports whether any feed reads a chainlink contract.
func (c *Config) NeedsEVM() bool {
	for _, f := range c.Feeds {
		if f.Kind == KindChainlink {
			return true
		}
	}
	return false
}

// HasScales reports whether explicit precision was configured for the feed.
func (f *FeedConfig) HasScales() bool {
	return f.ScaleBase != nil && f.ScaleQuote != nil
}

// AggregatorConfig renders the feed as a generic map for the aggregator kind registry.
func (f *FeedConfig) AggregatorConfig() map[string]interface{} {
	out := map[string]interface{}{
		"label": f.Base + "/" + f.Quote,
	}
	if f.Address != "" {
		out["address"] = f.Address
	}
	if f.Answer != "" {
		out["answer"] = f.Answer
	}
	if f.UpdatedAt != 0 {
		out["updated_at"] = f.UpdatedAt
	}
	switch {
	case f.Decimals != nil:
		out["decimals"] = *f.Decimals
	case f.ScaleQuote != nil:
		out["decimals"] = *f.ScaleQuote
	}
	return out
}
