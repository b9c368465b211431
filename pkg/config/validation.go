package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Validate checks configuration for errors
func Validate(cfg *Config) error {
	if cfg.Owner == "" {
		return ErrOwnerRequired
	}
	if err := validateAddress("owner", cfg.Owner); err != nil {
		return err
	}
	if common.HexToAddress(cfg.Owner) == (common.Address{}) {
		return fmt.Errorf("%w: owner cannot be the zero address", ErrInvalidAddress)
	}
	if cfg.Pauser != "" {
		if err := validateAddress("pauser", cfg.Pauser); err != nil {
			return err
		}
	}

	if err := validateServerConfig(&cfg.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	seen := make(map[string]int, len(cfg.Feeds))
	for i := range cfg.Feeds {
		feed := &cfg.Feeds[i]
		if err := validateFeedConfig(feed, &cfg.EVM); err != nil {
			return fmt.Errorf("feed %d (%s/%s): %w", i, feed.Base, feed.Quote, err)
		}
		key := pairKey(feed.Base, feed.Quote)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("feed %d (%s/%s): %w, first defined at feed %d", i, feed.Base, feed.Quote, ErrDuplicateFeed, prev)
		}
		seen[key] = i
	}

	for sym := range cfg.Multipliers {
		if sym == "" || strings.TrimSpace(sym) != sym {
			return fmt.Errorf("%w: %q", ErrMultiplierSymbol, sym)
		}
	}

	names := make(map[string]struct{}, len(cfg.Factories))
	for i := range cfg.Factories {
		factory := &cfg.Factories[i]
		if err := validateFactoryConfig(factory); err != nil {
			return fmt.Errorf("factory %d (%s): %w", i, factory.Name, err)
		}
		if _, ok := names[factory.Name]; ok {
			return fmt.Errorf("factory %d: %w: %s", i, ErrDuplicateFactory, factory.Name)
		}
		names[factory.Name] = struct{}{}
	}

	if err := validateLoggingConfig(&cfg.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

func validateAddress(field, value string) error {
	if !common.IsHexAddress(value) {
		return fmt.Errorf("%w: %s %q", ErrInvalidAddress, field, value)
	}
	return nil
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "/" + b
}

func validateServerConfig(cfg *ServerConfig) error {
	if cfg.HTTP.TLS.Enabled {
		if cfg.HTTP.TLS.Cert == "" || cfg.HTTP.TLS.Key == "" {
			return ErrTLSConfigIncomplete
		}
		if _, err := os.Stat(cfg.HTTP.TLS.Cert); err != nil {
			return fmt.Errorf("%w: %s", ErrTLSCertNotFound, cfg.HTTP.TLS.Cert)
		}
		if _, err := os.Stat(cfg.HTTP.TLS.Key); err != nil {
			return fmt.Errorf("%w: %s", ErrTLSKeyNotFound, cfg.HTTP.TLS.Key)
		}
	}
	return nil
}

func validateFeedConfig(cfg *FeedConfig, evm *EVMConfig) error {
	if strings.TrimSpace(cfg.Base) == "" || strings.TrimSpace(cfg.Quote) == "" {
		return ErrFeedSymbolRequired
	}
	if strings.TrimSpace(cfg.Base) != cfg.Base || strings.TrimSpace(cfg.Quote) != cfg.Quote {
		return fmt.Errorf("%w: %q/%q", ErrFeedSymbolWhitespace, cfg.Base, cfg.Quote)
	}
	if cfg.Base == cfg.Quote {
		return ErrFeedSamePair
	}
	if (cfg.ScaleBase == nil) != (cfg.ScaleQuote == nil) {
		return ErrScalesIncomplete
	}
	if cfg.Address != "" {
		if err := validateAddress("address", cfg.Address); err != nil {
			return err
		}
	}

	switch cfg.Kind {
	case KindStatic:
	case KindChainlink:
		if cfg.Address == "" {
			return ErrFeedAddressRequired
		}
		if evm.RPCURL == "" {
			return ErrRPCURLRequired
		}
	default:
		return fmt.Errorf("%w: %s (must be 'static' or 'chainlink')", ErrUnknownFeedKind, cfg.Kind)
	}
	return nil
}

func validateFactoryConfig(cfg *FactoryConfig) error {
	if cfg.Name == "" || cfg.BaseSymbol == "" {
		return ErrFactoryNameRequired
	}
	for i, o := range cfg.Oracles {
		if o.Symbol == "" {
			return fmt.Errorf("oracle %d: %w", i, ErrOracleSymbolRequired)
		}
		if len(o.Path) < 2 {
			return fmt.Errorf("oracle %d (%s): %w", i, o.Symbol, ErrOraclePathTooShort)
		}
		if o.MetadataRef != "" {
			if err := validateAddress("metadata_ref", o.MetadataRef); err != nil {
				return fmt.Errorf("oracle %d (%s): %w", i, o.Symbol, err)
			}
		}
	}
	return nil
}

func validateLoggingConfig(cfg *LoggingConfig) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	levelValid := false
	for _, l := range validLevels {
		if strings.ToLower(cfg.Level) == l {
			levelValid = true
			break
		}
	}
	if !levelValid {
		return fmt.Errorf("%w: %s (must be one of: %s)", ErrInvalidLogLevel, cfg.Level, strings.Join(validLevels, ", "))
	}

	formatValid := strings.ToLower(cfg.Format) == "json" || strings.ToLower(cfg.Format) == "text"
	if !formatValid {
		return fmt.Errorf("%w: %s (must be 'json' or 'text')", ErrInvalidLogFormat, cfg.Format)
	}

	return nil
}
