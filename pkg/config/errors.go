// Package config provides configuration loading and validation for oracle-go.
package config

import "errors"

var (
	// ErrOwnerRequired indicates that the owner address is missing.
	ErrOwnerRequired = errors.New("owner address is required")
	// ErrInvalidAddress indicates a malformed hex address.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrTLSConfigIncomplete indicates that TLS config is incomplete.
	ErrTLSConfigIncomplete = errors.New("TLS cert and key must be specified when TLS is enabled")
	// ErrTLSCertNotFound indicates that the TLS cert file was not found.
	ErrTLSCertNotFound = errors.New("TLS cert file not found")
	// ErrTLSKeyNotFound indicates that the TLS key file was not found.
	ErrTLSKeyNotFound = errors.New("TLS key file not found")
	// ErrRPCURLRequired indicates that evm.rpc_url must be set for chainlink feeds.
	ErrRPCURLRequired = errors.New("evm.rpc_url is required for chainlink feeds")
	// ErrFeedSymbolRequired indicates a feed without base or quote.
	ErrFeedSymbolRequired = errors.New("feed base and quote are required")
	// ErrFeedSymbolWhitespace indicates a feed symbol with leading or trailing whitespace.
	ErrFeedSymbolWhitespace = errors.New("feed symbol has surrounding whitespace")
	// ErrMultiplierSymbol indicates a multiplier entry with an empty or padded symbol.
	ErrMultiplierSymbol = errors.New("multiplier symbol must be non-empty without surrounding whitespace")
	// ErrFeedSamePair indicates a feed whose base equals its quote.
	ErrFeedSamePair = errors.New("feed base and quote must differ")
	// ErrDuplicateFeed indicates two feeds for the same unordered pair.
	ErrDuplicateFeed = errors.New("duplicate feed for pair")
	// ErrUnknownFeedKind indicates an unsupported feed kind.
	ErrUnknownFeedKind = errors.New("unknown feed kind")
	// ErrFeedAddressRequired indicates a chainlink feed without an address.
	ErrFeedAddressRequired = errors.New("chainlink feed address is required")
	// ErrScalesIncomplete indicates only one of scale_base and scale_quote was set.
	ErrScalesIncomplete = errors.New("scale_base and scale_quote must be set together")
	// ErrFactoryNameRequired indicates a factory without a name or base symbol.
	ErrFactoryNameRequired = errors.New("factory name or base_symbol is required")
	// ErrDuplicateFactory indicates two factories with the same name.
	ErrDuplicateFactory = errors.New("duplicate factory name")
	// ErrOracleSymbolRequired indicates an oracle without a symbol.
	ErrOracleSymbolRequired = errors.New("oracle symbol is required")
	// ErrOraclePathTooShort indicates an oracle path with fewer than two symbols.
	ErrOraclePathTooShort = errors.New("oracle path must contain at least two symbols")
	// ErrInvalidLogLevel indicates that the log level is invalid.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat indicates that the log format is invalid.
	ErrInvalidLogFormat = errors.New("invalid log format")
)
