package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrNoPool         = errors.New("no pool configured for game")
	ErrInvalidPoolCap = errors.New("invalid pool cap")
)

// Source reports the largest single payout the bankroll currently accepts
// for a game. Callers read it once per offer; the value is a snapshot.
type Source interface {
	MaxPayout(ctx context.Context, gameID string) (decimal.Decimal, error)
}

// Static serves fixed caps, with an optional default for unlisted games.
// Set updates a cap in place, which is how tests and the admin surface
// shrink a pool between offers.
type Static struct {
	mu         sync.RWMutex
	caps       map[string]decimal.Decimal
	def        decimal.Decimal
	hasDefault bool
}

// NewStatic creates a source returning def for every game.
func NewStatic(def decimal.Decimal) *Static {
	return &Static{caps: make(map[string]decimal.Decimal), def: def, hasDefault: true}
}

// NewStaticMap creates a source with per-game caps and no default.
func NewStaticMap(caps map[string]decimal.Decimal) *Static {
	s := &Static{caps: make(map[string]decimal.Decimal, len(caps))}
	for k, v := range caps {
		s.caps[k] = v
	}
	return s
}

// Set replaces the cap of one game.
func (s *Static) Set(gameID string, limit decimal.Decimal) error {
	if limit.IsNegative() {
		return fmt.Errorf("%w: %s", ErrInvalidPoolCap, limit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caps[gameID] = limit
	return nil
}

// MaxPayout implements Source.
func (s *Static) MaxPayout(_ context.Context, gameID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.caps[gameID]; ok {
		return v, nil
	}
	if s.hasDefault {
		return s.def, nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s", ErrNoPool, gameID)
}
