package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
owner: "0x00000000000000000000000000000000000000a1"
pauser: "${TEST_ORACLE_PAUSER}"
evm:
  rpc_url: "http://localhost:8545"
feeds:
  - base: RCN
    quote: BTC
    scale_base: 18
    scale_quote: 18
    answer: "5770000000000"
    updated_at: 1598500000
  - base: ETH
    quote: USD
    kind: Chainlink
    address: "0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419"
factories:
  - base_symbol: RCN
    base_decimals: 18
    oracles:
      - symbol: ARS
        decimals: 2
        path: [RCN, BTC, ARS]
`

func TestParse_Defaults(t *testing.T) {
	t.Setenv("TEST_ORACLE_PAUSER", "0x00000000000000000000000000000000000000b2")

	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))

	assert.Equal(t, ":8080", cfg.Server.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout.ToDuration())
	assert.Equal(t, 15*time.Second, cfg.EVM.Timeout.ToDuration())
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)

	assert.Equal(t, KindStatic, cfg.Feeds[0].Kind)
	assert.Equal(t, KindChainlink, cfg.Feeds[1].Kind)
	assert.True(t, cfg.NeedsEVM())
	assert.Equal(t, "RCN", cfg.Factories[0].Name)

	assert.Equal(t, common.HexToAddress("0xa1"), cfg.OwnerAddress())
	assert.Equal(t, common.HexToAddress("0xb2"), cfg.PauserAddress())
}

func TestFeedConfig_AggregatorConfig(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	feed := cfg.Feeds[0]
	assert.True(t, feed.HasScales())
	agg := feed.AggregatorConfig()
	assert.Equal(t, "RCN/BTC", agg["label"])
	assert.Equal(t, "5770000000000", agg["answer"])
	assert.Equal(t, uint8(18), agg["decimals"])
	assert.Equal(t, uint64(1598500000), agg["updated_at"])

	assert.False(t, cfg.Feeds[1].HasScales())
	assert.Equal(t, "0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419", cfg.Feeds[1].AggregatorConfig()["address"])
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Feeds, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_ExampleConfig(t *testing.T) {
	t.Setenv("ETH_RPC_URL", "http://localhost:8545")
	t.Setenv("ORACLE_PAUSER", "")

	cfg, err := Load("../../config/config.example.yaml")
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))
	assert.Len(t, cfg.Factories, 2)
	assert.Equal(t, common.Address{}, cfg.PauserAddress())
}

func TestValidate_Errors(t *testing.T) {
	u8 := func(v uint8) *uint8 { return &v }
	valid := func() *Config {
		cfg, err := Parse([]byte(`owner: "0x00000000000000000000000000000000000000a1"`))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"missing owner", func(c *Config) { c.Owner = "" }, ErrOwnerRequired},
		{"bad owner", func(c *Config) { c.Owner = "alice" }, ErrInvalidAddress},
		{"zero owner", func(c *Config) { c.Owner = "0x0000000000000000000000000000000000000000" }, ErrInvalidAddress},
		{"bad pauser", func(c *Config) { c.Pauser = "0x12" }, ErrInvalidAddress},
		{"tls incomplete", func(c *Config) { c.Server.HTTP.TLS.Enabled = true }, ErrTLSConfigIncomplete},
		{"feed without quote", func(c *Config) {
			c.Feeds = []FeedConfig{{Base: "RCN", Kind: KindStatic}}
		}, ErrFeedSymbolRequired},
		{"feed same pair", func(c *Config) {
			c.Feeds = []FeedConfig{{Base: "RCN", Quote: "RCN", Kind: KindStatic}}
		}, ErrFeedSamePair},
		{"feed base with whitespace", func(c *Config) {
			c.Feeds = []FeedConfig{{Base: " BTC", Quote: "ARS", Kind: KindStatic}}
		}, ErrFeedSymbolWhitespace},
		{"feed quote with whitespace", func(c *Config) {
			c.Feeds = []FeedConfig{{Base: "BTC", Quote: "ARS\t", Kind: KindStatic}}
		}, ErrFeedSymbolWhitespace},
		{"padded multiplier symbol", func(c *Config) {
			c.Multipliers = map[string]uint8{"USD ": 8}
		}, ErrMultiplierSymbol},
		{"half scales", func(c *Config) {
			c.Feeds = []FeedConfig{{Base: "RCN", Quote: "BTC", Kind: KindStatic, ScaleBase: u8(18)}}
		}, ErrScalesIncomplete},
		{"duplicate pair", func(c *Config) {
			c.Feeds = []FeedConfig{
				{Base: "RCN", Quote: "BTC", Kind: KindStatic},
				{Base: "BTC", Quote: "RCN", Kind: KindStatic},
			}
		}, ErrDuplicateFeed},
		{"unknown kind", func(c *Config) {
			c.Feeds = []FeedConfig{{Base: "RCN", Quote: "BTC", Kind: "uniswap"}}
		}, ErrUnknownFeedKind},
		{"chainlink without address", func(c *Config) {
			c.EVM.RPCURL = "http://localhost:8545"
			c.Feeds = []FeedConfig{{Base: "ETH", Quote: "USD", Kind: KindChainlink}}
		}, ErrFeedAddressRequired},
		{"chainlink without rpc", func(c *Config) {
			c.Feeds = []FeedConfig{{Base: "ETH", Quote: "USD", Kind: KindChainlink, Address: "0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419"}}
		}, ErrRPCURLRequired},
		{"factory without base", func(c *Config) {
			c.Factories = []FactoryConfig{{Name: "x"}}
		}, ErrFactoryNameRequired},
		{"duplicate factory", func(c *Config) {
			c.Factories = []FactoryConfig{{Name: "x", BaseSymbol: "RCN"}, {Name: "x", BaseSymbol: "USDC"}}
		}, ErrDuplicateFactory},
		{"oracle without symbol", func(c *Config) {
			c.Factories = []FactoryConfig{{Name: "x", BaseSymbol: "RCN", Oracles: []OracleConfig{{Path: []string{"RCN", "BTC"}}}}}
		}, ErrOracleSymbolRequired},
		{"oracle short path", func(c *Config) {
			c.Factories = []FactoryConfig{{Name: "x", BaseSymbol: "RCN", Oracles: []OracleConfig{{Symbol: "BTC", Path: []string{"RCN"}}}}}
		}, ErrOraclePathTooShort},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, ErrInvalidLogLevel},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, ErrInvalidLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			require.NoError(t, Validate(cfg))
			tt.mutate(cfg)
			assert.ErrorIs(t, Validate(cfg), tt.want)
		})
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	cfg, err := Parse([]byte("server:\n  request_timeout: 250ms\n"))
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Server.RequestTimeout.ToDuration())

	_, err = Parse([]byte("server:\n  request_timeout: soon\n"))
	assert.Error(t, err)
}
