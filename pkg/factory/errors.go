// Package factory creates oracle instances and controls their pause state.
package factory

import "errors"

var (
	// ErrNotAuthorizedToPause indicates a pause toggle by neither the owner nor the pauser.
	ErrNotAuthorizedToPause = errors.New("not authorized to pause")
	// ErrUnknownOracle indicates an oracle that was not created by this factory.
	ErrUnknownOracle = errors.New("oracle not created by this factory")
	// ErrNoRegistry indicates a missing feed registry reference.
	ErrNoRegistry = errors.New("feed registry is required")
)
