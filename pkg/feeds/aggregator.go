package feeds

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Aggregator is an external source publishing one pairwise rate.
type Aggregator interface {
	// LatestAnswer returns the latest rate, scaled by 10^Decimals.
	LatestAnswer(ctx context.Context) (*big.Int, error)

	// LatestTimestamp returns the unix time of the latest update.
	LatestTimestamp(ctx context.Context) (uint64, error)

	// Decimals returns the fixed precision of the answer.
	Decimals(ctx context.Context) (uint8, error)

	// Address identifies the aggregator. The zero address is the null reference.
	Address() common.Address
}

// IsNull reports whether agg is a null aggregator reference.
func IsNull(agg Aggregator) bool {
	if agg == nil {
		return true
	}
	return agg.Address() == (common.Address{})
}

// StaticAggregator is an in-memory aggregator whose answer is set explicitly.
// It backs fixed pegs and tests.
type StaticAggregator struct {
	mu        sync.RWMutex
	address   common.Address
	label     string
	decimals  uint8
	answer    *big.Int
	timestamp uint64
}

// Ensure StaticAggregator implements Aggregator.
var _ Aggregator = (*StaticAggregator)(nil)

// NewStaticAggregator creates a static aggregator. Its address is derived from label.
func NewStaticAggregator(label string, decimals uint8) *StaticAggregator {
	return NewStaticAggregatorAt(StaticAddress(label), label, decimals)
}

// NewStaticAggregatorAt creates a static aggregator with an explicit address.
func NewStaticAggregatorAt(addr common.Address, label string, decimals uint8) *StaticAggregator {
	return &StaticAggregator{
		address:  addr,
		label:    label,
		decimals: decimals,
		answer:   new(big.Int),
	}
}

// StaticAddress derives a deterministic address for a static feed label.
func StaticAddress(label string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte("static-aggregator:" + label)))
}

// SetLatestAnswer replaces the answer. A nil v resets it to zero.
func (a *StaticAggregator) SetLatestAnswer(v *big.Int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if v == nil {
		a.answer = new(big.Int)
		return
	}
	a.answer = new(big.Int).Set(v)
}

// SetLatestTimestamp replaces the update timestamp.
func (a *StaticAggregator) SetLatestTimestamp(ts uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.timestamp = ts
}

// LatestAnswer implements Aggregator.
func (a *StaticAggregator) LatestAnswer(_ context.Context) (*big.Int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return new(big.Int).Set(a.answer), nil
}

// LatestTimestamp implements Aggregator.
func (a *StaticAggregator) LatestTimestamp(_ context.Context) (uint64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.timestamp, nil
}

// Decimals implements Aggregator.
func (a *StaticAggregator) Decimals(_ context.Context) (uint8, error) {
	return a.decimals, nil
}

// Address implements Aggregator.
func (a *StaticAggregator) Address() common.Address {
	return a.address
}

// Label returns the human readable name of the feed.
func (a *StaticAggregator) Label() string {
	return a.label
}
