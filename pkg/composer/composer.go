// Package composer chains pairwise feed rates along a path of symbols.
package composer

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/StrathCole/chainlink-oracle-go/pkg/fixed"
	"github.com/StrathCole/chainlink-oracle-go/pkg/symbol"
)

// HopSource resolves single hops. feeds.Registry satisfies it.
type HopSource interface {
	HopRate(ctx context.Context, a, b symbol.Symbol) (*big.Int, uint8, error)
	HopTimestamp(ctx context.Context, a, b symbol.Symbol) (uint64, error)
}

// Rate is a fixed-point rate: Value / 10^Decimals.
type Rate struct {
	Value    *big.Int
	Decimals uint8
}

// Combine chains a (X per W) with b (Y per X). The running scale of a cancels,
// leaving b's decimals. Division truncates.
func Combine(a, b Rate) Rate {
	return Rate{
		Value:    fixed.MulDivPow10(a.Value, b.Value, uint(a.Decimals)),
		Decimals: b.Decimals,
	}
}

// Decimal returns the rate as a decimal number.
func (r Rate) Decimal() decimal.Decimal {
	return fixed.ToDecimal(r.Value, r.Decimals)
}

// String renders the human readable rate.
func (r Rate) String() string {
	if r.Value == nil {
		return "<nil>"
	}
	return r.Decimal().String()
}

// Composer resolves paths against a HopSource.
type Composer struct {
	src HopSource
}

// New creates a composer over src.
func New(src HopSource) *Composer {
	return &Composer{src: src}
}

// Rate returns the combined rate of path[len-1] per path[0].
func (c *Composer) Rate(ctx context.Context, path symbol.Path) (Rate, error) {
	if len(path) < 2 {
		return Rate{}, fmt.Errorf("%w: got %d", symbol.ErrPathTooShort, len(path))
	}

	var running Rate
	for i, hop := range path.Hops() {
		value, decimals, err := c.src.HopRate(ctx, hop.From, hop.To)
		if err != nil {
			return Rate{}, fmt.Errorf("hop %d %s: %w", i, hop, err)
		}
		next := Rate{Value: value, Decimals: decimals}
		if i == 0 {
			running = next
			continue
		}
		running = Combine(running, next)
	}
	return running, nil
}

// Timestamp returns the oldest update time across the hops of path.
func (c *Composer) Timestamp(ctx context.Context, path symbol.Path) (uint64, error) {
	if len(path) < 2 {
		return 0, fmt.Errorf("%w: got %d", symbol.ErrPathTooShort, len(path))
	}

	var oldest uint64
	for i, hop := range path.Hops() {
		ts, err := c.src.HopTimestamp(ctx, hop.From, hop.To)
		if err != nil {
			return 0, fmt.Errorf("hop %d %s: %w", i, hop, err)
		}
		if i == 0 || ts < oldest {
			oldest = ts
		}
	}
	return oldest, nil
}
