package symbol

import (
	"fmt"
	"strings"
)

// Path is an ordered sequence of symbols describing a multi-hop conversion.
type Path []Symbol

// Hop is one consecutive pair of a Path.
type Hop struct {
	From Symbol
	To   Symbol
}

// String renders the hop as FROM/TO.
func (h Hop) String() string {
	return h.From.String() + "/" + h.To.String()
}

// NewPath builds and validates a path from currency codes.
func NewPath(codes ...string) (Path, error) {
	p := make(Path, 0, len(codes))
	for _, code := range codes {
		s, err := FromString(strings.TrimSpace(code))
		if err != nil {
			return nil, err
		}
		p = append(p, s)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// MustPath is NewPath that panics on error.
func MustPath(codes ...string) Path {
	p, err := NewPath(codes...)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePath parses a comma or arrow separated list such as "RCN,BTC,ARS" or "RCN->BTC->ARS".
func ParsePath(s string) (Path, error) {
	s = strings.ReplaceAll(s, "->", ",")
	if strings.TrimSpace(s) == "" {
		return nil, ErrPathTooShort
	}
	return NewPath(strings.Split(s, ",")...)
}

// Validate checks that the path has at least two distinct, non-empty symbols.
func (p Path) Validate() error {
	if len(p) < 2 {
		return fmt.Errorf("%w: got %d", ErrPathTooShort, len(p))
	}
	seen := make(map[Symbol]struct{}, len(p))
	for _, s := range p {
		if s.IsZero() {
			return ErrEmptySymbol
		}
		if _, ok := seen[s]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateSymbol, s)
		}
		seen[s] = struct{}{}
	}
	return nil
}

// Hops returns the consecutive pairs of the path.
func (p Path) Hops() []Hop {
	if len(p) < 2 {
		return nil
	}
	hops := make([]Hop, 0, len(p)-1)
	for i := 0; i+1 < len(p); i++ {
		hops = append(hops, Hop{From: p[i], To: p[i+1]})
	}
	return hops
}

// Source returns the first symbol of the path.
func (p Path) Source() Symbol {
	if len(p) == 0 {
		return Symbol{}
	}
	return p[0]
}

// Target returns the last symbol of the path.
func (p Path) Target() Symbol {
	if len(p) == 0 {
		return Symbol{}
	}
	return p[len(p)-1]
}

// Clone returns a copy of the path.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Strings returns the currency codes of the path.
func (p Path) Strings() []string {
	out := make([]string, len(p))
	for i, s := range p {
		out[i] = s.String()
	}
	return out
}

// String renders the path as A->B->C.
func (p Path) String() string {
	return strings.Join(p.Strings(), "->")
}
