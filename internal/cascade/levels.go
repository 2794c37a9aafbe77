package cascade

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/MJE43/outcome-engine-go/internal/payout"
)

// MultiplierFunc returns the multiplier paid for clearing a level.
type MultiplierFunc func(level int) (float64, error)

// BetFunc returns the payout vector offered at a level. When nil the level
// is offered as the single-slot vector [multiplier].
type BetFunc func(level int, multiplier float64) payout.Vector

// Request describes one ladder computation.
type Request struct {
	InitialWager decimal.Decimal
	LevelCount   int
	Multiplier   MultiplierFunc
	Bet          BetFunc
	MaxPayout    decimal.Decimal
}

// Level is one rung of an escalating ladder. Wager of level i+1 is the
// Balance of level i.
type Level struct {
	Index            int             `json:"index"`
	Wager            decimal.Decimal `json:"wager"`
	Multiplier       float64         `json:"multiplier"`
	Profit           decimal.Decimal `json:"profit"`
	CumulativeProfit decimal.Decimal `json:"cumulativeProfit"`
	Balance          decimal.Decimal `json:"balance"`
	Bet              payout.Vector   `json:"bet"`
}

// MaxWin is the largest single-round payout the level can produce.
func (l Level) MaxWin() decimal.Decimal {
	return decimal.NewFromFloat(l.Bet.Max()).Mul(l.Wager)
}

// Constant returns a MultiplierFunc paying m on every level.
func Constant(m float64) MultiplierFunc {
	return func(int) (float64, error) { return m, nil }
}

// Table returns a MultiplierFunc reading from a fixed per-level table.
func Table(ms []float64) MultiplierFunc {
	return func(level int) (float64, error) {
		if level < 0 || level >= len(ms) {
			return 0, fmt.Errorf("no multiplier for level %d of %d", level, len(ms))
		}
		return ms[level], nil
	}
}

// preallocLevels caps the initial capacity; most ladders stop at the pool
// cap after a few rungs whatever LevelCount says.
const preallocLevels = 64

// Compute builds the ladder and keeps the longest prefix whose levels all
// satisfy max(bet) * wager <= MaxPayout. An empty prefix is a capacity error.
func Compute(req Request) ([]Level, error) {
	if req.LevelCount <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevelCount, req.LevelCount)
	}
	if req.Multiplier == nil {
		return nil, ErrNoMultiplier
	}
	if !req.InitialWager.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWager, req.InitialWager)
	}
	if req.MaxPayout.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMaxPayout, req.MaxPayout)
	}

	levels := make([]Level, 0, min(req.LevelCount, preallocLevels))
	wager := req.InitialWager
	cumulative := decimal.Zero

	for i := 0; i < req.LevelCount; i++ {
		m, err := req.Multiplier(i)
		if err != nil {
			return nil, fmt.Errorf("level %d multiplier: %w", i, err)
		}
		if math.IsNaN(m) || math.IsInf(m, 0) || m < 0 {
			return nil, fmt.Errorf("%w: level %d = %v", ErrMultiplierBelowOne, i, m)
		}

		bet := payout.Vector{m}
		if req.Bet != nil {
			bet = req.Bet(i, m)
		}

		level := Level{Index: i, Wager: wager, Multiplier: m, Bet: bet}
		if level.MaxWin().GreaterThan(req.MaxPayout) {
			break
		}
		if m < 1 {
			return nil, fmt.Errorf("%w: level %d = %v", ErrMultiplierBelowOne, i, m)
		}

		mult := decimal.NewFromFloat(m)
		level.Profit = wager.Mul(mult.Sub(decimal.NewFromInt(1)))
		cumulative = cumulative.Add(level.Profit)
		level.CumulativeProfit = cumulative
		level.Balance = wager.Add(level.Profit)

		levels = append(levels, level)
		wager = level.Balance
	}

	if len(levels) == 0 {
		return levels, fmt.Errorf("%w: stake %s against cap %s", ErrGameUnavailable, req.InitialWager, req.MaxPayout)
	}
	return levels, nil
}

// Next returns the level offered after i, if any.
func Next(levels []Level, i int) (Level, bool) {
	if i+1 < 0 || i+1 >= len(levels) {
		return Level{}, false
	}
	return levels[i+1], true
}

// CashOut returns what a player walks away with after clearing level i.
// Before the first level (i < 0) it is zero.
func CashOut(levels []Level, i int) decimal.Decimal {
	if i < 0 || len(levels) == 0 {
		return decimal.Zero
	}
	if i >= len(levels) {
		i = len(levels) - 1
	}
	return levels[i].Balance
}

// TotalProfit is the cumulative profit of a fully cleared ladder.
func TotalProfit(levels []Level) decimal.Decimal {
	if len(levels) == 0 {
		return decimal.Zero
	}
	return levels[len(levels)-1].CumulativeProfit
}
