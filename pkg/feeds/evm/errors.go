// Package evm provides aggregators backed by Chainlink AggregatorV3 contracts.
package evm

import "errors"

var (
	// ErrRPCURLRequired indicates that rpc_url configuration is required.
	ErrRPCURLRequired = errors.New("rpc_url is required")
	// ErrAddressRequired indicates that a feed contract address is required.
	ErrAddressRequired = errors.New("aggregator address is required")
	// ErrClientRequired indicates that no contract caller was supplied.
	ErrClientRequired = errors.New("contract caller is required")
	// ErrCallFailed indicates that a contract call failed.
	ErrCallFailed = errors.New("contract call failed")
	// ErrUnpack indicates that a contract response could not be decoded.
	ErrUnpack = errors.New("failed to unpack contract response")
)
