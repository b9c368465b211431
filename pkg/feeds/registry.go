package feeds

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/StrathCole/chainlink-oracle-go/pkg/access"
	"github.com/StrathCole/chainlink-oracle-go/pkg/events"
	"github.com/StrathCole/chainlink-oracle-go/pkg/fixed"
	"github.com/StrathCole/chainlink-oracle-go/pkg/logging"
	"github.com/StrathCole/chainlink-oracle-go/pkg/metrics"
	"github.com/StrathCole/chainlink-oracle-go/pkg/symbol"
)

// Binding ties an aggregator to a symbol pair in the orientation it was registered with.
// The aggregator answer is Quote per Base, scaled by 10^ScaleQuote.
type Binding struct {
	Base       symbol.Symbol
	Quote      symbol.Symbol
	Aggregator Aggregator
	ScaleBase  uint8
	ScaleQuote uint8
}

// pairKey identifies an unordered pair.
type pairKey struct {
	lo, hi symbol.Symbol
}

func keyOf(a, b symbol.Symbol) pairKey {
	if b.Less(a) {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// Registry stores one binding per unordered symbol pair and serves both orientations.
type Registry struct {
	*access.Ownable

	mu          sync.RWMutex
	bindings    map[pairKey]Binding
	multipliers map[symbol.Symbol]uint8

	sink   events.Sink
	logger *logging.Logger
}

// NewRegistry creates an empty registry owned by owner.
func NewRegistry(owner common.Address, sink events.Sink, logger *logging.Logger) *Registry {
	if sink == nil {
		sink = events.Discard
	}
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	return &Registry{
		Ownable:     access.NewOwnable(owner),
		bindings:    make(map[pairKey]Binding),
		multipliers: make(map[symbol.Symbol]uint8),
		sink:        sink,
		logger:      logger.With("component", "feed_registry"),
	}
}

// Register binds agg to the pair (a, b). The aggregator reports b per a with
// scaleB decimals; scaleA is the precision of a used when the pair is read inverted.
// Both scales also become the multipliers of a and b.
func (r *Registry) Register(caller common.Address, a, b symbol.Symbol, agg Aggregator, scaleA, scaleB uint8) error {
	if err := r.OnlyOwner(caller); err != nil {
		return err
	}
	if IsNull(agg) {
		return ErrInvalidAggregator
	}
	if a.IsZero() || b.IsZero() {
		return symbol.ErrEmptySymbol
	}
	if a == b {
		return fmt.Errorf("%w: %s", ErrSamePair, a)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := keyOf(a, b)
	if existing, ok := r.bindings[key]; ok {
		return fmt.Errorf("%w: %s/%s -> %s", ErrAlreadyRegistered, existing.Base, existing.Quote, existing.Aggregator.Address().Hex())
	}

	r.bindings[key] = Binding{
		Base:       a,
		Quote:      b,
		Aggregator: agg,
		ScaleBase:  scaleA,
		ScaleQuote: scaleB,
	}
	r.multipliers[a] = scaleA
	r.multipliers[b] = scaleB
	metrics.SetFeedBindings(len(r.bindings))

	r.sink.Emit(events.BindingRegistered(a, b, agg.Address(), scaleA, scaleB))
	r.logger.Info("Registered feed",
		"base", a.String(),
		"quote", b.String(),
		"aggregator", agg.Address().Hex(),
		"scale_base", scaleA,
		"scale_quote", scaleB)
	return nil
}

// RegisterFromFeed registers agg using the precision the aggregator itself reports
// for both sides of the pair.
func (r *Registry) RegisterFromFeed(ctx context.Context, caller common.Address, a, b symbol.Symbol, agg Aggregator) error {
	if err := r.OnlyOwner(caller); err != nil {
		return err
	}
	if IsNull(agg) {
		return ErrInvalidAggregator
	}
	decimals, err := agg.Decimals(ctx)
	if err != nil {
		return fmt.Errorf("read decimals of %s: %w", agg.Address().Hex(), err)
	}
	return r.Register(caller, a, b, agg, decimals, decimals)
}

// Remove deletes the binding of the pair (a, b), given in either orientation.
func (r *Registry) Remove(caller common.Address, a, b symbol.Symbol) error {
	if err := r.OnlyOwner(caller); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := keyOf(a, b)
	existing, ok := r.bindings[key]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotRegistered, a, b)
	}
	delete(r.bindings, key)
	metrics.SetFeedBindings(len(r.bindings))

	r.sink.Emit(events.BindingRemoved(a, b, existing.Aggregator.Address()))
	r.logger.Info("Removed feed",
		"base", existing.Base.String(),
		"quote", existing.Quote.String(),
		"aggregator", existing.Aggregator.Address().Hex())
	return nil
}

// SetMultiplier overrides the decimal multiplier recorded for sym. Hop rates keep
// using the scales of their binding; the multiplier is what AddedDecimals reports.
func (r *Registry) SetMultiplier(caller common.Address, sym symbol.Symbol, decimals uint8) error {
	if err := r.OnlyOwner(caller); err != nil {
		return err
	}
	if sym.IsZero() {
		return symbol.ErrEmptySymbol
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.multipliers[sym] = decimals
	r.sink.Emit(events.MultiplierSet(sym, decimals))
	r.logger.Info("Set multiplier", "symbol", sym.String(), "decimals", decimals)
	return nil
}

// Multiplier returns the decimals recorded for sym, zero when none is known.
func (r *Registry) Multiplier(sym symbol.Symbol) uint8 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.multipliers[sym]
}

// AddedDecimals returns 10^Multiplier(sym), the factor a rate ending in sym
// carries on top of its plain value.
func (r *Registry) AddedDecimals(sym symbol.Symbol) *big.Int {
	return fixed.Pow10(uint(r.Multiplier(sym)))
}

// lookup returns the binding for (a, b) and whether the request is the inverse of
// the registered orientation.
func (r *Registry) lookup(a, b symbol.Symbol) (Binding, bool, error) {
	r.mu.RLock()
	binding, ok := r.bindings[keyOf(a, b)]
	r.mu.RUnlock()
	if !ok || a == b {
		return Binding{}, false, fmt.Errorf("%w: %s/%s", ErrPathNotResolved, a, b)
	}
	return binding, binding.Base != a, nil
}

// HopRate returns the rate of b per a and its decimals. Inverted reads are computed
// in fixed point as 10^(scaleA+scaleB) / answer.
func (r *Registry) HopRate(ctx context.Context, a, b symbol.Symbol) (*big.Int, uint8, error) {
	binding, inverse, err := r.lookup(a, b)
	if err != nil {
		return nil, 0, err
	}

	answer, err := readAnswer(ctx, binding)
	if err != nil {
		return nil, 0, err
	}

	if !inverse {
		return answer, binding.ScaleQuote, nil
	}

	if answer.Sign() == 0 {
		return nil, 0, fmt.Errorf("%w: %s/%s", ErrZeroAnswer, binding.Base, binding.Quote)
	}
	scale := uint(binding.ScaleBase) + uint(binding.ScaleQuote)
	return fixed.Invert(answer, scale), binding.ScaleBase, nil
}

// HopTimestamp returns the last update time of the feed bound to (a, b).
func (r *Registry) HopTimestamp(ctx context.Context, a, b symbol.Symbol) (uint64, error) {
	binding, _, err := r.lookup(a, b)
	if err != nil {
		return 0, err
	}
	ts, err := binding.Aggregator.LatestTimestamp(ctx)
	if err != nil {
		return 0, fmt.Errorf("read timestamp %s/%s: %w", binding.Base, binding.Quote, err)
	}
	return ts, nil
}

// PairRate returns the raw answer of the feed registered exactly as (a, b).
func (r *Registry) PairRate(ctx context.Context, a, b symbol.Symbol) (*big.Int, error) {
	binding, inverse, err := r.lookup(a, b)
	if err != nil {
		return nil, err
	}
	if inverse {
		return nil, fmt.Errorf("%w: %s/%s is registered as %s/%s", ErrPathNotResolved, a, b, binding.Base, binding.Quote)
	}
	return readAnswer(ctx, binding)
}

func readAnswer(ctx context.Context, binding Binding) (*big.Int, error) {
	answer, err := binding.Aggregator.LatestAnswer(ctx)
	if err != nil {
		return nil, fmt.Errorf("read answer %s/%s: %w", binding.Base, binding.Quote, err)
	}
	if answer == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrNilAnswer, binding.Base, binding.Quote)
	}
	if answer.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s/%s = %s", ErrNegativeAnswer, binding.Base, binding.Quote, answer)
	}
	return answer, nil
}

// Binding returns the binding for the pair in either orientation.
func (r *Registry) Binding(a, b symbol.Symbol) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	binding, ok := r.bindings[keyOf(a, b)]
	return binding, ok
}

// Bindings returns all bindings ordered by base then quote.
func (r *Registry) Bindings() []Binding {
	r.mu.RLock()
	out := make([]Binding, 0, len(r.bindings))
	for _, b := range r.bindings {
		out = append(out, b)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Base != out[j].Base {
			return out[i].Base.Less(out[j].Base)
		}
		return out[i].Quote.Less(out[j].Quote)
	})
	return out
}

// Len returns the number of bindings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}
