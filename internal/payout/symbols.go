package payout

import (
	"fmt"
	"math"
	"sort"
)

// Symbol is one entry of a weighted symbol table.
type Symbol struct {
	Name       string  `json:"name" yaml:"name"`
	Multiplier float64 `json:"multiplier" yaml:"multiplier"`
	Weight     int     `json:"weight" yaml:"weight"`
}

// Pays reports whether landing this symbol on a payline is a win.
func (s Symbol) Pays() bool { return s.Multiplier > 0 }

// SymbolTable is the static symbol -> multiplier -> weight configuration of a
// reel game. Its order is the base symbol order used by the reels.
type SymbolTable []Symbol

// Validate checks the table can back a payout vector.
func (t SymbolTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: no symbols", ErrInvalidSymbolTable)
	}
	seen := make(map[string]struct{}, len(t))
	paying := 0
	for i, s := range t {
		if s.Name == "" {
			return fmt.Errorf("%w: symbol %d has no name", ErrInvalidSymbolTable, i)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("%w: duplicate symbol %q", ErrInvalidSymbolTable, s.Name)
		}
		seen[s.Name] = struct{}{}
		if s.Weight <= 0 {
			return fmt.Errorf("%w: symbol %q has weight %d", ErrInvalidSymbolTable, s.Name, s.Weight)
		}
		if s.Multiplier < 0 || math.IsNaN(s.Multiplier) || math.IsInf(s.Multiplier, 0) {
			return fmt.Errorf("%w: symbol %q has multiplier %v", ErrInvalidSymbolTable, s.Name, s.Multiplier)
		}
		if s.Pays() {
			paying++
		}
	}
	if paying == 0 {
		return fmt.Errorf("%w: no paying symbol", ErrInvalidSymbolTable)
	}
	return nil
}

// TotalWeight is the sum of all weights, which is also the vector length.
func (t SymbolTable) TotalWeight() int {
	n := 0
	for _, s := range t {
		n += s.Weight
	}
	return n
}

// SymbolAt maps a result slot of the expanded vector back to its symbol.
func (t SymbolTable) SymbolAt(slot int) (Symbol, bool) {
	if slot < 0 {
		return Symbol{}, false
	}
	for _, s := range t {
		if slot < s.Weight {
			return s, true
		}
		slot -= s.Weight
	}
	return Symbol{}, false
}

// ByMultiplier finds the paying symbol whose multiplier matches m.
func (t SymbolTable) ByMultiplier(m float64) (Symbol, bool) {
	for _, s := range t {
		if s.Pays() && math.Abs(s.Multiplier-m) < 1e-9 {
			return s, true
		}
	}
	return Symbol{}, false
}

// Index returns the position of the named symbol, or -1.
func (t SymbolTable) Index(name string) int {
	for i, s := range t {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// LowestPaying returns the paying symbol with the smallest multiplier.
// Ties keep table order.
func (t SymbolTable) LowestPaying() (Symbol, bool) {
	paying := make([]Symbol, 0, len(t))
	for _, s := range t {
		if s.Pays() {
			paying = append(paying, s)
		}
	}
	if len(paying) == 0 {
		return Symbol{}, false
	}
	sort.SliceStable(paying, func(i, j int) bool { return paying[i].Multiplier < paying[j].Multiplier })
	return paying[0], true
}

// FromSymbols expands a symbol table into its payout vector: each symbol
// contributes Weight slots carrying its multiplier, in table order.
func FromSymbols(t SymbolTable) (Vector, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	v := make(Vector, 0, t.TotalWeight())
	for _, s := range t {
		for i := 0; i < s.Weight; i++ {
			v = append(v, s.Multiplier)
		}
	}
	return v, nil
}
