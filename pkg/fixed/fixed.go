// Package fixed holds the integer fixed-point helpers shared by the registry,
// the path composer and the oracle instances.
package fixed

import (
	"math/big"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	pow10Mu    sync.RWMutex
	pow10Cache = map[uint]*big.Int{}
)

// Pow10 returns a fresh 10^n.
func Pow10(n uint) *big.Int {
	pow10Mu.RLock()
	v, ok := pow10Cache[n]
	pow10Mu.RUnlock()
	if ok {
		return new(big.Int).Set(v)
	}

	v = new(big.Int).Exp(big.NewInt(10), new(big.Int).SetUint64(uint64(n)), nil)
	pow10Mu.Lock()
	pow10Cache[n] = v
	pow10Mu.Unlock()
	return new(big.Int).Set(v)
}

// MulPow10 returns v * 10^n without modifying v.
func MulPow10(v *big.Int, n uint) *big.Int {
	return new(big.Int).Mul(v, Pow10(n))
}

// MulDivPow10 returns v * m / 10^n, truncating toward zero.
func MulDivPow10(v, m *big.Int, n uint) *big.Int {
	out := new(big.Int).Mul(v, m)
	return out.Quo(out, Pow10(n))
}

// Invert returns 10^n / v, truncating toward zero. v must be non-zero.
func Invert(v *big.Int, n uint) *big.Int {
	return new(big.Int).Quo(Pow10(n), v)
}

// ToDecimal interprets v as a fixed-point number with the given decimals.
func ToDecimal(v *big.Int, decimals uint8) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -int32(decimals))
}

// FromDecimal scales d to an integer with the given decimals, truncating extra digits.
func FromDecimal(d decimal.Decimal, decimals uint8) *big.Int {
	return d.Shift(int32(decimals)).Truncate(0).BigInt()
}
