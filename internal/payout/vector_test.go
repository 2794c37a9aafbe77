package payout

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTargetScenario(t *testing.T) {
	v, err := Target(1.5)
	if err != nil {
		t.Fatalf("Target(1.5) failed: %v", err)
	}

	if v.Len() != 2 {
		t.Fatalf("expected 2 slots, got %d (%v)", v.Len(), v)
	}
	if math.Abs(v[0]-1.425) > 1e-12 {
		t.Errorf("expected adjusted multiplier 1.425, got %v", v[0])
	}
	if v[1] != 0 {
		t.Errorf("expected zero padding, got %v", v[1])
	}
	if want := 1.425 / float64(v.Len()); math.Abs(v.Mean()-want) > 1e-12 {
		t.Errorf("mean %v, want %v", v.Mean(), want)
	}
}

func TestTargetFractionRepeats(t *testing.T) {
	tests := []struct {
		target     float64
		wantRepeat int
		wantLen    int
	}{
		{target: 2.25, wantRepeat: 4, wantLen: 10},
		{target: 2.5, wantRepeat: 2, wantLen: 6},
		{target: 2.75, wantRepeat: 4, wantLen: 12},
		{target: 3, wantRepeat: 1, wantLen: 4},
		{target: 1.9, wantRepeat: 1, wantLen: 2},
	}

	for _, tt := range tests {
		v, err := Target(tt.target, WithHouseFactor(1))
		if err != nil {
			t.Errorf("Target(%v) failed: %v", tt.target, err)
			continue
		}
		if got := v.NonZero(); got != tt.wantRepeat {
			t.Errorf("Target(%v): %d paying slots, want %d", tt.target, got, tt.wantRepeat)
		}
		if v.Len() != tt.wantLen {
			t.Errorf("Target(%v): length %d, want %d", tt.target, v.Len(), tt.wantLen)
		}
		for i := 0; i < tt.wantRepeat; i++ {
			if v[i] != tt.target {
				t.Errorf("Target(%v): slot %d = %v", tt.target, i, v[i])
			}
		}
	}
}

func TestTargetRTPBound(t *testing.T) {
	for target := 1.06; target <= 250; target += 0.37 {
		v, err := Target(target)
		if err != nil {
			t.Fatalf("Target(%v) failed: %v", target, err)
		}
		mean := v.Mean()
		if mean <= 0 {
			t.Errorf("Target(%v): mean %v must be positive", target, mean)
		}
		if mean > DefaultRTPCeiling+1e-9 {
			t.Errorf("Target(%v): mean %v exceeds ceiling", target, mean)
		}
		if err := Validate(v, Limits{RTPCeiling: DefaultRTPCeiling}); err != nil {
			t.Errorf("Target(%v) produced an invalid vector: %v", target, err)
		}
	}
}

func TestTargetDegenerate(t *testing.T) {
	for _, target := range []float64{0, -2, 0.5, 1, 1.05, math.NaN(), math.Inf(1)} {
		if _, err := Target(target); !errors.Is(err, ErrDegenerateVector) {
			t.Errorf("Target(%v): expected ErrDegenerateVector, got %v", target, err)
		}
	}

	if _, err := Target(1e9); !errors.Is(err, ErrVectorTooLong) {
		t.Errorf("expected ErrVectorTooLong, got %v", err)
	}

	if _, err := Target(2, WithRTPCeiling(0)); !errors.Is(err, ErrDegenerateVector) {
		t.Errorf("expected ErrDegenerateVector for zero ceiling, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		v       Vector
		limits  Limits
		wantErr error
	}{
		{name: "ok", v: Vector{1.9, 0}, limits: Limits{RTPCeiling: 0.97}},
		{name: "empty", v: Vector{}, wantErr: ErrEmptyVector},
		{name: "all zero", v: Vector{0, 0, 0}, wantErr: ErrAllZero},
		{name: "negative", v: Vector{-1, 2}, wantErr: ErrNegativeMultiplier},
		{name: "nan", v: Vector{math.NaN(), 2}, wantErr: ErrNegativeMultiplier},
		{name: "rtp exceeded", v: Vector{1}, limits: Limits{RTPCeiling: 0.97}, wantErr: ErrRTPExceeded},
		{
			name:    "over cap",
			v:       Vector{1.9, 0},
			limits:  Limits{Wager: decimal.NewFromInt(100), MaxPayout: decimal.NewFromInt(150)},
			wantErr: ErrExceedsPoolCap,
		},
		{
			name:   "at cap",
			v:      Vector{1.9, 0},
			limits: Limits{Wager: decimal.NewFromInt(100), MaxPayout: decimal.NewFromInt(190)},
		},
		{
			name:    "empty pool",
			v:       Vector{1.9, 0},
			limits:  Limits{Wager: decimal.NewFromInt(1), MaxPayout: decimal.Zero},
			wantErr: ErrExceedsPoolCap,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.v, tt.limits)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSignature(t *testing.T) {
	a := Signature(Vector{1.425, 0})
	b := Signature(Vector{1.425, 0})
	if a != b {
		t.Errorf("signature not stable: %s != %s", a, b)
	}
	if len(a) != 16 {
		t.Errorf("expected 16 hex chars, got %q", a)
	}
	if Signature(Vector{1.425, 0, 0}) == a {
		t.Error("padding change should change the signature")
	}
	if Signature(Vector{0, 1.425}) == a {
		t.Error("slot order should change the signature")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	v := Vector{1, 2, 3}
	c := v.Clone()
	c[0] = 9
	if v[0] != 1 {
		t.Error("Clone shares backing storage")
	}
}
