package mines

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MJE43/outcome-engine-go/internal/cascade"
	"github.com/MJE43/outcome-engine-go/internal/payout"
)

// DefaultRTP is the return applied to the fair reveal odds.
const DefaultRTP = 0.97

// Game is a hidden-hazard board: GridSize cells, MineCount of them mines.
// Each level reveals one more cell.
type Game struct {
	GridSize  int     `json:"gridSize" yaml:"grid_size"`
	MineCount int     `json:"mineCount" yaml:"mine_count"`
	RTP       float64 `json:"rtp" yaml:"rtp"`
	Columns   int     `json:"columns,omitempty" yaml:"columns,omitempty"`
}

func (g Game) rtp() float64 {
	if g.RTP == 0 {
		return DefaultRTP
	}
	return g.RTP
}

// Validate rejects boards that cannot be offered.
func (g Game) Validate() error {
	if err := ValidateConfig(g.MineCount, g.GridSize); err != nil {
		return err
	}
	if r := g.rtp(); r <= 0 || r > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidRTP, r)
	}
	if m := g.Multiplier(0); m < 1 {
		return fmt.Errorf("%w: %d mines on %d cells pays %.4f", ErrBelowBreakeven, g.MineCount, g.GridSize, m)
	}
	return nil
}

// LevelCount is the number of safe cells, i.e. the tallest ladder.
func (g Game) LevelCount() int {
	return g.GridSize - g.MineCount
}

// Multiplier pays the inverse odds of picking a safe cell with level cells
// already revealed, scaled by the RTP.
func (g Game) Multiplier(level int) float64 {
	remaining := g.GridSize - level
	safe := remaining - g.MineCount
	if level < 0 || safe <= 0 {
		return 0
	}
	return float64(remaining) / float64(safe) * g.rtp()
}

// Bet is the vector offered at level: one slot per unrevealed cell, the
// first MineCount of them losing.
func (g Game) Bet(level int) payout.Vector {
	remaining := g.GridSize - level
	if remaining <= 0 {
		return payout.Vector{}
	}
	m := g.Multiplier(level)
	v := make(payout.Vector, remaining)
	for i := g.MineCount; i < remaining; i++ {
		v[i] = m
	}
	return v
}

// Levels computes the cap-respecting ladder for a stake.
func (g Game) Levels(wager, maxPayout decimal.Decimal) ([]cascade.Level, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return cascade.Compute(cascade.Request{
		InitialWager: wager,
		LevelCount:   g.LevelCount(),
		Multiplier:   func(level int) (float64, error) { return g.Multiplier(level), nil },
		Bet:          func(level int, _ float64) payout.Vector { return g.Bet(level) },
		MaxPayout:    maxPayout,
	})
}
