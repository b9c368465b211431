// Package events defines the control-plane events emitted by the feed registry
// and oracle factories, and the sinks that receive them.
package events

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/StrathCole/chainlink-oracle-go/pkg/symbol"
)

// Kind names an event type.
type Kind string

const (
	KindBindingRegistered Kind = "binding_registered"
	KindBindingRemoved    Kind = "binding_removed"
	KindMultiplierSet     Kind = "multiplier_set"
	KindOracleCreated     Kind = "oracle_created"
	KindFactoryPaused     Kind = "factory_paused"
	KindFactoryStarted    Kind = "factory_started"
	KindOraclePaused      Kind = "oracle_paused"
	KindOracleStarted     Kind = "oracle_started"
	KindPauserSet         Kind = "pauser_set"
	KindMetadataUpdated   Kind = "metadata_updated"
)

// Event is a single registry or factory state change.
type Event struct {
	Kind       Kind      `json:"kind"`
	Time       time.Time `json:"time"`
	SymbolA    string    `json:"symbol_a,omitempty"`
	SymbolB    string    `json:"symbol_b,omitempty"`
	Aggregator string    `json:"aggregator,omitempty"`
	ScaleA     *uint8    `json:"scale_a,omitempty"`
	ScaleB     *uint8    `json:"scale_b,omitempty"`
	Factory    string    `json:"factory,omitempty"`
	Oracle     string    `json:"oracle,omitempty"`
	Path       []string  `json:"path,omitempty"`
	Decimals   *uint8    `json:"decimals,omitempty"`
	Account    string    `json:"account,omitempty"`
	Maintainer string    `json:"maintainer,omitempty"`
	Metadata   string    `json:"metadata,omitempty"`
}

// Sink receives events.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Discard is a Sink that drops every event.
var Discard Sink = SinkFunc(func(Event) {})

type multi []Sink

func (m multi) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// Multi fans an event out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func u8(v uint8) *uint8 { return &v }

// BindingRegistered describes a new pairwise feed binding.
func BindingRegistered(a, b symbol.Symbol, aggregator common.Address, scaleA, scaleB uint8) Event {
	return Event{
		Kind:       KindBindingRegistered,
		Time:       time.Now().UTC(),
		SymbolA:    a.String(),
		SymbolB:    b.String(),
		Aggregator: aggregator.Hex(),
		ScaleA:     u8(scaleA),
		ScaleB:     u8(scaleB),
	}
}

// BindingRemoved describes the removal of a binding and the aggregator it used.
func BindingRemoved(a, b symbol.Symbol, aggregator common.Address) Event {
	return Event{
		Kind:       KindBindingRemoved,
		Time:       time.Now().UTC(),
		SymbolA:    a.String(),
		SymbolB:    b.String(),
		Aggregator: aggregator.Hex(),
	}
}

// MultiplierSet describes an owner override of a symbol's decimal multiplier.
func MultiplierSet(sym symbol.Symbol, decimals uint8) Event {
	return Event{
		Kind:     KindMultiplierSet,
		Time:     time.Now().UTC(),
		SymbolA:  sym.String(),
		Decimals: u8(decimals),
	}
}

// OracleCreated describes a new oracle instance.
func OracleCreated(factory, oracle string, path symbol.Path, decimals uint8) Event {
	return Event{
		Kind:     KindOracleCreated,
		Time:     time.Now().UTC(),
		Factory:  factory,
		Oracle:   oracle,
		Path:     path.Strings(),
		Decimals: u8(decimals),
	}
}

// FactoryToggled describes a change of the factory-wide pause flag.
func FactoryToggled(factory string, paused bool) Event {
	kind := KindFactoryStarted
	if paused {
		kind = KindFactoryPaused
	}
	return Event{Kind: kind, Time: time.Now().UTC(), Factory: factory}
}

// OracleToggled describes a change of an oracle's own pause flag.
func OracleToggled(factory, oracle string, caller common.Address, paused bool) Event {
	kind := KindOracleStarted
	if paused {
		kind = KindOraclePaused
	}
	return Event{Kind: kind, Time: time.Now().UTC(), Factory: factory, Oracle: oracle, Account: caller.Hex()}
}

// PauserSet describes a new pauser account.
func PauserSet(factory string, pauser common.Address) Event {
	return Event{Kind: KindPauserSet, Time: time.Now().UTC(), Factory: factory, Account: pauser.Hex()}
}

// MetadataUpdated describes changed oracle metadata.
func MetadataUpdated(factory, oracle, maintainer, metadata string) Event {
	return Event{
		Kind:       KindMetadataUpdated,
		Time:       time.Now().UTC(),
		Factory:    factory,
		Oracle:     oracle,
		Maintainer: maintainer,
		Metadata:   metadata,
	}
}
