package symbol

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Size is the width of a Symbol in bytes.
const Size = 32

// Symbol identifies a currency or asset. The code is packed left-aligned into
// 32 bytes, so two distinct codes never share a Symbol.
type Symbol [Size]byte

// FromString packs a currency code into a Symbol.
func FromString(code string) (Symbol, error) {
	var s Symbol
	if code == "" {
		return s, ErrEmptySymbol
	}
	if len(code) > Size {
		return s, fmt.Errorf("%w: %q", ErrSymbolTooLong, code)
	}
	if strings.IndexByte(code, 0) >= 0 {
		return s, fmt.Errorf("%w: %q", ErrInvalidSymbol, code)
	}
	copy(s[:], code)
	return s, nil
}

// MustFromString is FromString that panics on error. Intended for constants and tests.
func MustFromString(code string) Symbol {
	s, err := FromString(code)
	if err != nil {
		panic(err)
	}
	return s
}

// FromHex decodes a 0x-prefixed 32 byte hex string.
func FromHex(h string) (Symbol, error) {
	var s Symbol
	raw, err := hexutil.Decode(h)
	if err != nil {
		return s, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	if len(raw) != Size {
		return s, fmt.Errorf("%w: got %d bytes", ErrInvalidHex, len(raw))
	}
	copy(s[:], raw)
	if s.IsZero() {
		return s, ErrEmptySymbol
	}
	return s, nil
}

// String returns the currency code.
func (s Symbol) String() string {
	return string(bytes.TrimRight(s[:], "\x00"))
}

// Hex returns the 0x-prefixed hex encoding of all 32 bytes.
func (s Symbol) Hex() string {
	return hexutil.Encode(s[:])
}

// IsZero reports whether s is the zero Symbol.
func (s Symbol) IsZero() bool {
	return s == Symbol{}
}

// Less orders symbols bytewise.
func (s Symbol) Less(o Symbol) bool {
	return bytes.Compare(s[:], o[:]) < 0
}

// MarshalText implements encoding.TextMarshaler.
func (s Symbol) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Accepts a currency code
// or, when prefixed with 0x and 66 characters long, the hex form.
func (s *Symbol) UnmarshalText(text []byte) error {
	str := string(text)
	var (
		parsed Symbol
		err    error
	)
	if strings.HasPrefix(str, "0x") && len(str) == 2+2*Size {
		parsed, err = FromHex(str)
	} else {
		parsed, err = FromString(str)
	}
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
