package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/MJE43/outcome-engine-go/internal/config"
	"github.com/MJE43/outcome-engine-go/internal/payout"
)

func testCatalog(t *testing.T) *config.Catalog {
	t.Helper()
	c, err := config.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return c
}

func TestRunSlots(t *testing.T) {
	s := New(testCatalog(t), nil, WithWorkers(4))
	for _, game := range []string{"slots", "slots-5x3"} {
		t.Run(game, func(t *testing.T) {
			rep, err := s.Run(context.Background(), Request{GameID: game, Rounds: 10_000})
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if rep.Rounds != 10_000 {
				t.Fatalf("simulated %d rounds", rep.Rounds)
			}
			if rep.OrphanRate >= 0.001 {
				t.Errorf("orphan rate %.5f (%d rounds)", rep.OrphanRate, rep.Orphans)
			}
			if rep.Wins == 0 {
				t.Error("expected some wins")
			}
			if math.Abs(rep.EmpiricalRTP-rep.TheoreticalRTP) > 0.15 {
				t.Errorf("empirical rtp %.4f far from %.4f", rep.EmpiricalRTP, rep.TheoreticalRTP)
			}
		})
	}
}

func TestRunDeterministic(t *testing.T) {
	c := testCatalog(t)
	a, err := New(c, nil, WithWorkers(1)).Run(context.Background(), Request{GameID: "slots", Rounds: 3000})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	b, err := New(c, nil, WithWorkers(8)).Run(context.Background(), Request{GameID: "slots", Rounds: 3000})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if a.Wins != b.Wins || a.Orphans != b.Orphans || a.Exhausted != b.Exhausted {
		t.Errorf("worker count changed the outcome: %+v vs %+v", a, b)
	}
	if math.Abs(a.EmpiricalRTP-b.EmpiricalRTP) > 1e-9 {
		t.Errorf("rtp %v vs %v", a.EmpiricalRTP, b.EmpiricalRTP)
	}
}

func TestRunWheels(t *testing.T) {
	s := New(testCatalog(t), nil)

	rep, err := s.Run(context.Background(), Request{GameID: "wheel", Rounds: 5000})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if rep.Misses != 0 {
		t.Errorf("%d spins stopped off their pocket", rep.Misses)
	}

	v, err := payout.Roulette("red", nil, 0.97)
	if err != nil {
		t.Fatalf("Roulette failed: %v", err)
	}
	rep, err = s.Run(context.Background(), Request{GameID: "roulette", Vector: v, Rounds: 5000})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if rep.Misses != 0 {
		t.Errorf("%d roulette spins stopped off their pocket", rep.Misses)
	}
	if math.Abs(rep.TheoreticalRTP-0.97) > 1e-9 {
		t.Errorf("theoretical rtp %v", rep.TheoreticalRTP)
	}
}

func TestRunErrors(t *testing.T) {
	s := New(testCatalog(t), nil)
	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{name: "unknown game", req: Request{GameID: "baccarat", Rounds: 1}, wantErr: ErrGameNotFound},
		{name: "no rounds", req: Request{GameID: "slots"}, wantErr: ErrInvalidRounds},
		{name: "no vector", req: Request{GameID: "crypto-chart", Rounds: 1}, wantErr: ErrVectorRequired},
		{name: "over ceiling", req: Request{GameID: "crypto-chart", Rounds: 1, Vector: payout.Vector{2, 0}}, wantErr: payout.ErrRTPExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Run(context.Background(), tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := New(testCatalog(t), nil).Run(ctx, Request{GameID: "slots", Rounds: 1_000_000})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !rep.TimedOut {
		t.Error("expected a timed out report")
	}
	if rep.Rounds >= 1_000_000 {
		t.Errorf("cancelled run simulated every round")
	}
}
