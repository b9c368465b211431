package config

import "time"

// Feed kinds understood by the loader.
const (
	KindStatic    = "static"
	KindChainlink = "chainlink"
)

// Config is the root configuration structure
type Config struct {
	Owner       string           `yaml:"owner"`
	Pauser      string           `yaml:"pauser"`
	Server      ServerConfig     `yaml:"server"`
	EVM         EVMConfig        `yaml:"evm"`
	Feeds       []FeedConfig     `yaml:"feeds"`
	Multipliers map[string]uint8 `yaml:"multipliers"` // per-symbol decimals, applied after feeds
	Factories   []FactoryConfig  `yaml:"factories"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Logging     LoggingConfig    `yaml:"logging"`
}

// ServerConfig configures the read-only API
type ServerConfig struct {
	HTTP           HTTPConfig `yaml:"http"`
	WebSocket      WSConfig   `yaml:"websocket"`
	RequestTimeout Duration   `yaml:"request_timeout"`
}

// HTTPConfig configures the HTTP server
type HTTPConfig struct {
	Addr string    `yaml:"addr"`
	TLS  TLSConfig `yaml:"tls"`
}

// WSConfig configures the WebSocket event stream
type WSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// TLSConfig holds TLS certificate configuration
type TLSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cert    string `yaml:"cert"`
	Key     string `yaml:"key"`
}

// EVMConfig configures the JSON-RPC endpoint used by chainlink feeds
type EVMConfig struct {
	RPCURL  string   `yaml:"rpc_url"`
	ChainID uint64   `yaml:"chain_id"`
	Timeout Duration `yaml:"timeout"`
}

// FeedConfig binds one aggregator to a symbol pair.
// When ScaleBase and ScaleQuote are omitted the aggregator's own decimals are used for both.
type FeedConfig struct {
	Base       string `yaml:"base"`
	Quote      string `yaml:"quote"`
	Kind       string `yaml:"kind"`
	Address    string `yaml:"address"`
	ScaleBase  *uint8 `yaml:"scale_base"`
	ScaleQuote *uint8 `yaml:"scale_quote"`

	// static feeds only
	Decimals  *uint8 `yaml:"decimals"`
	Answer    string `yaml:"answer"`
	UpdatedAt uint64 `yaml:"updated_at"`
}

// FactoryConfig describes an oracle factory and the oracles it creates at startup
type FactoryConfig struct {
	Name         string         `yaml:"name"`
	BaseSymbol   string         `yaml:"base_symbol"`
	BaseDecimals uint8          `yaml:"base_decimals"`
	Oracles      []OracleConfig `yaml:"oracles"`
}

// OracleConfig describes one oracle instance
type OracleConfig struct {
	Symbol      string   `yaml:"symbol"`
	Name        string   `yaml:"name"`
	Decimals    uint8    `yaml:"decimals"`
	Maintainer  string   `yaml:"maintainer"`
	Metadata    string   `yaml:"metadata"`
	MetadataRef string   `yaml:"metadata_ref"`
	Path        []string `yaml:"path"`
}

// MetricsConfig configures Prometheus metrics
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string        `yaml:"level"`
	Format string        `yaml:"format"`
	Output string        `yaml:"output"`
	File   LogFileConfig `yaml:"file"`
}

// LogFileConfig configures log file rotation
type LogFileConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Duration is a wrapper around time.Duration for YAML parsing
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	td, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(td)
	return nil
}

// ToDuration converts Duration to time.Duration
func (d Duration) ToDuration() time.Duration {
	return time.Duration(d)
}
