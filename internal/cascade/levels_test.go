package cascade

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/MJE43/outcome-engine-go/internal/payout"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestComputeDoublingStopsAtCap(t *testing.T) {
	levels, err := Compute(Request{
		InitialWager: d(100),
		LevelCount:   20,
		Multiplier:   Constant(2),
		MaxPayout:    d(10_000),
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	// 100 -> 200 -> 400 -> 800 -> 1600 -> 3200 -> 6400; the next rung would pay 12800.
	if len(levels) != 6 {
		t.Fatalf("expected 6 levels, got %d", len(levels))
	}
	wantWagers := []int64{100, 200, 400, 800, 1600, 3200}
	for i, l := range levels {
		if !l.Wager.Equal(d(wantWagers[i])) {
			t.Errorf("level %d wager %s, want %d", i, l.Wager, wantWagers[i])
		}
		if l.MaxWin().GreaterThan(d(10_000)) {
			t.Errorf("level %d pays %s over the cap", i, l.MaxWin())
		}
	}
	last := levels[len(levels)-1]
	if !last.Balance.Equal(d(6400)) {
		t.Errorf("last balance %s, want 6400", last.Balance)
	}
	if !TotalProfit(levels).Equal(d(6300)) {
		t.Errorf("total profit %s, want 6300", TotalProfit(levels))
	}
}

func TestComputeCapIsInclusive(t *testing.T) {
	levels, err := Compute(Request{
		InitialWager: d(100),
		LevelCount:   3,
		Multiplier:   Constant(2),
		MaxPayout:    d(400),
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if len(levels) != 2 {
		t.Fatalf("expected 2 levels with a cap equal to the second payout, got %d", len(levels))
	}
}

func TestComputeInvariants(t *testing.T) {
	mines := func(level int) (float64, error) {
		remaining := 16 - level
		return float64(remaining) / float64(remaining-3) * 0.94, nil
	}
	bet := func(level int, m float64) payout.Vector {
		v := make(payout.Vector, 16-level)
		for i := 3; i < len(v); i++ {
			v[i] = m
		}
		return v
	}

	for _, maxPayout := range []int64{150, 1_000, 25_000, 1_000_000} {
		levels, err := Compute(Request{
			InitialWager: d(10),
			LevelCount:   13,
			Multiplier:   mines,
			Bet:          bet,
			MaxPayout:    d(maxPayout),
		})
		if err != nil {
			t.Fatalf("cap %d: %v", maxPayout, err)
		}
		for i, l := range levels {
			if l.Index != i {
				t.Errorf("cap %d: level %d has index %d", maxPayout, i, l.Index)
			}
			if l.MaxWin().GreaterThan(d(maxPayout)) {
				t.Errorf("cap %d: level %d exceeds cap", maxPayout, i)
			}
			if i == 0 {
				continue
			}
			prev := levels[i-1]
			if !prev.Balance.Equal(l.Wager) {
				t.Errorf("cap %d: balance[%d]=%s != wager[%d]=%s", maxPayout, i-1, prev.Balance, i, l.Wager)
			}
			if l.CumulativeProfit.LessThan(prev.CumulativeProfit) {
				t.Errorf("cap %d: cumulative profit decreased at level %d", maxPayout, i)
			}
		}
		if len(levels) < 13 {
			next := levels[len(levels)-1].Balance
			m, _ := mines(len(levels))
			if decimal.NewFromFloat(m).Mul(next).LessThanOrEqual(d(maxPayout)) {
				t.Errorf("cap %d: ladder truncated at %d although the next level fits", maxPayout, len(levels))
			}
		}
	}
}

func TestComputeBreakeven(t *testing.T) {
	levels, err := Compute(Request{
		InitialWager: d(50),
		LevelCount:   3,
		Multiplier:   Constant(1),
		MaxPayout:    d(1000),
	})
	if err != nil {
		t.Fatalf("breakeven ladder rejected: %v", err)
	}
	if len(levels) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(levels))
	}
	for _, l := range levels {
		if !l.Profit.IsZero() || !l.Balance.Equal(d(50)) {
			t.Errorf("level %d: profit %s balance %s", l.Index, l.Profit, l.Balance)
		}
	}
}

func TestComputeErrors(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{
			name:    "zero levels",
			req:     Request{InitialWager: d(1), LevelCount: 0, Multiplier: Constant(2), MaxPayout: d(10)},
			wantErr: ErrInvalidLevelCount,
		},
		{
			name:    "no multiplier",
			req:     Request{InitialWager: d(1), LevelCount: 1, MaxPayout: d(10)},
			wantErr: ErrNoMultiplier,
		},
		{
			name:    "zero wager",
			req:     Request{InitialWager: d(0), LevelCount: 1, Multiplier: Constant(2), MaxPayout: d(10)},
			wantErr: ErrInvalidWager,
		},
		{
			name:    "negative cap",
			req:     Request{InitialWager: d(1), LevelCount: 1, Multiplier: Constant(2), MaxPayout: d(-1)},
			wantErr: ErrInvalidMaxPayout,
		},
		{
			name:    "below one",
			req:     Request{InitialWager: d(1), LevelCount: 2, Multiplier: Table([]float64{1.5, 0.8}), MaxPayout: d(10)},
			wantErr: ErrMultiplierBelowOne,
		},
		{
			name:    "short table",
			req:     Request{InitialWager: d(1), LevelCount: 3, Multiplier: Table([]float64{1.5}), MaxPayout: d(10)},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.req)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestComputeEmptyPool(t *testing.T) {
	levels, err := Compute(Request{
		InitialWager: d(100),
		LevelCount:   5,
		Multiplier:   Constant(2),
		MaxPayout:    decimal.Zero,
	})
	if !errors.Is(err, ErrGameUnavailable) {
		t.Fatalf("expected ErrGameUnavailable, got %v", err)
	}
	if levels == nil || len(levels) != 0 {
		t.Errorf("expected an empty, non-nil ladder, got %v", levels)
	}
}

func TestNextAndCashOut(t *testing.T) {
	levels, err := Compute(Request{
		InitialWager: d(10),
		LevelCount:   3,
		Multiplier:   Constant(2),
		MaxPayout:    d(1000),
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if n, ok := Next(levels, -1); !ok || n.Index != 0 {
		t.Errorf("Next(-1) = %v, %v", n.Index, ok)
	}
	if n, ok := Next(levels, 1); !ok || !n.Wager.Equal(d(40)) {
		t.Errorf("Next(1) wager %s, %v", n.Wager, ok)
	}
	if _, ok := Next(levels, 2); ok {
		t.Error("Next past the top rung should report false")
	}

	if !CashOut(levels, -1).IsZero() {
		t.Error("cash out before the first level should be zero")
	}
	if !CashOut(levels, 0).Equal(d(20)) {
		t.Errorf("CashOut(0) = %s", CashOut(levels, 0))
	}
	if !CashOut(levels, 9).Equal(d(80)) {
		t.Errorf("CashOut(9) = %s", CashOut(levels, 9))
	}
}

func TestComputeHugeLevelCount(t *testing.T) {
	levels, err := Compute(Request{
		InitialWager: d(100),
		LevelCount:   math.MaxInt64 / 2,
		Multiplier:   Constant(2),
		MaxPayout:    d(10_000),
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if len(levels) != 6 {
		t.Errorf("expected the cap to stop the ladder at 6 levels, got %d", len(levels))
	}
}
