// Package feeds provides the pairwise feed registry and the aggregator capability it reads.
package feeds

import "errors"

var (
	// ErrInvalidAggregator indicates a null aggregator reference.
	ErrInvalidAggregator = errors.New("aggregator 0x0 is not valid")
	// ErrAlreadyRegistered indicates that the pair already has a binding.
	ErrAlreadyRegistered = errors.New("aggregator is already set")
	// ErrNotRegistered indicates that the pair has no binding to remove.
	ErrNotRegistered = errors.New("aggregator not set")
	// ErrPathNotResolved indicates that a requested hop has no binding in either orientation.
	ErrPathNotResolved = errors.New("aggregator not set, path not resolved")
	// ErrSamePair indicates a binding from a symbol to itself.
	ErrSamePair = errors.New("pair symbols must differ")
	// ErrNegativeAnswer indicates an aggregator reported a negative rate.
	ErrNegativeAnswer = errors.New("aggregator returned negative answer")
	// ErrZeroAnswer indicates a zero rate that cannot be inverted.
	ErrZeroAnswer = errors.New("cannot invert zero answer")
	// ErrNilAnswer indicates an aggregator returned no value.
	ErrNilAnswer = errors.New("aggregator returned nil answer")
	// ErrUnknownKind indicates an unregistered aggregator kind.
	ErrUnknownKind = errors.New("unknown aggregator kind")
	// ErrInvalidConfig indicates invalid aggregator configuration.
	ErrInvalidConfig = errors.New("invalid aggregator configuration")
)
