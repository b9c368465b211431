// Package oracle exposes a fixed conversion path as a pausable rate oracle.
package oracle

import "errors"

var (
	// ErrPaused indicates a read while the oracle or its factory is paused.
	ErrPaused = errors.New("oracle is paused")
	// ErrNoSource indicates an oracle without a hop source.
	ErrNoSource = errors.New("oracle requires a hop source")
	// ErrNoBaseUnits indicates an oracle without a positive base unit.
	ErrNoBaseUnits = errors.New("oracle requires positive base units")
)
