// Package symbol provides fixed-width currency identifiers and conversion paths.
package symbol

import "errors"

var (
	// ErrEmptySymbol indicates an empty currency code.
	ErrEmptySymbol = errors.New("symbol cannot be empty")
	// ErrSymbolTooLong indicates a currency code that does not fit in 32 bytes.
	ErrSymbolTooLong = errors.New("symbol longer than 32 bytes")
	// ErrInvalidSymbol indicates a currency code containing a NUL byte.
	ErrInvalidSymbol = errors.New("symbol contains NUL byte")
	// ErrInvalidHex indicates a malformed hex encoded symbol.
	ErrInvalidHex = errors.New("invalid hex symbol")
	// ErrPathTooShort indicates a path with fewer than two symbols.
	ErrPathTooShort = errors.New("path must contain at least two symbols")
	// ErrDuplicateSymbol indicates a path visiting the same symbol twice.
	ErrDuplicateSymbol = errors.New("path contains duplicate symbol")
)
