package sim

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MJE43/outcome-engine-go/internal/config"
	"github.com/MJE43/outcome-engine-go/internal/engine"
	"github.com/MJE43/outcome-engine-go/internal/payout"
	"github.com/MJE43/outcome-engine-go/internal/reconstruct"
)

// Request describes one Monte Carlo run.
type Request struct {
	GameID     string        `json:"game"`
	Vector     payout.Vector `json:"vector,omitempty"` // overrides the game's fixed vector
	Rounds     uint64        `json:"rounds"`
	SeedPrefix string        `json:"seed_prefix,omitempty"`
	TimeoutMs  int           `json:"timeout_ms,omitempty"`
}

// Report aggregates a run. Orphans are reel displays showing a paying line
// the settlement did not pay; Misses are wheel spins stopping off their
// pocket.
type Report struct {
	Game           string        `json:"game"`
	Rounds         uint64        `json:"rounds"`
	Wins           uint64        `json:"wins"`
	Orphans        uint64        `json:"orphans"`
	Exhausted      uint64        `json:"exhausted"`
	Misses         uint64        `json:"misses"`
	OrphanRate     float64       `json:"orphan_rate"`
	EmpiricalRTP   float64       `json:"empirical_rtp"`
	TheoreticalRTP float64       `json:"theoretical_rtp"`
	TimedOut       bool          `json:"timed_out,omitempty"`
	Elapsed        time.Duration `json:"elapsed"`
}

// job is a batch of round indices to simulate
type job struct {
	start, end uint64
}

// tally is the per-worker accumulator, merged once per batch.
type tally struct {
	rounds, wins, orphans, exhausted, misses uint64
	paid                                     float64
}

// Simulator runs reconstruction and settlement draws across all cores.
type Simulator struct {
	catalog     *config.Catalog
	recon       *reconstruct.Reconstructor
	log         *zap.Logger
	workerCount int
	batchSize   uint64
}

// Option customises a Simulator.
type Option func(*Simulator)

// WithWorkers overrides the worker count.
func WithWorkers(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.workerCount = n
		}
	}
}

// New creates a simulator with one worker per available CPU. Reconstruction
// warnings are not logged during a run; they show up in the report.
func New(catalog *config.Catalog, log *zap.Logger, opts ...Option) *Simulator {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Simulator{
		catalog:     catalog,
		recon:       reconstruct.New(nil),
		log:         log,
		workerCount: runtime.GOMAXPROCS(0),
		batchSize:   1024,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run simulates req.Rounds settlements of the game's vector, each drawn
// uniformly from a seeded stream, and reconstructs every display.
func (s *Simulator) Run(ctx context.Context, req Request) (*Report, error) {
	g, ok := s.catalog.Game(req.GameID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, req.GameID)
	}
	if req.Rounds == 0 {
		return nil, ErrInvalidRounds
	}
	v := req.Vector
	if len(v) == 0 {
		v = g.Vector
	}
	if len(v) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrVectorRequired, req.GameID)
	}
	if err := payout.Validate(v, payout.Limits{RTPCeiling: s.catalog.RTPCeiling}); err != nil {
		return nil, err
	}
	prefix := req.SeedPrefix
	if prefix == "" {
		prefix = "sim:" + g.Config.ID
	}

	if req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	started := time.Now()
	jobs := make(chan job, s.workerCount*2)
	var total tally
	var paidBits atomic.Uint64 // float64 bits, updated by CAS

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer close(jobs)
		for start := uint64(0); start < req.Rounds; start += s.batchSize {
			end := start + s.batchSize
			if end > req.Rounds {
				end = req.Rounds
			}
			select {
			case jobs <- job{start: start, end: end}:
			case <-egCtx.Done():
				return nil
			}
		}
		return nil
	})

	for i := 0; i < s.workerCount; i++ {
		eg.Go(func() error {
			for j := range jobs {
				t := s.process(egCtx, g, v, prefix, j)
				atomic.AddUint64(&total.rounds, t.rounds)
				atomic.AddUint64(&total.wins, t.wins)
				atomic.AddUint64(&total.orphans, t.orphans)
				atomic.AddUint64(&total.exhausted, t.exhausted)
				atomic.AddUint64(&total.misses, t.misses)
				addFloat(&paidBits, t.paid)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	rep := &Report{
		Game:           g.Config.ID,
		Rounds:         total.rounds,
		Wins:           total.wins,
		Orphans:        total.orphans,
		Exhausted:      total.exhausted,
		Misses:         total.misses,
		TheoreticalRTP: v.Mean(),
		TimedOut:       ctx.Err() != nil,
		Elapsed:        time.Since(started),
	}
	if rep.Rounds > 0 {
		rep.OrphanRate = float64(rep.Orphans) / float64(rep.Rounds)
		rep.EmpiricalRTP = floatFromBits(paidBits.Load()) / float64(rep.Rounds)
	}

	s.log.Info("simulation finished",
		zap.String("game", rep.Game),
		zap.Uint64("rounds", rep.Rounds),
		zap.Uint64("orphans", rep.Orphans),
		zap.Float64("empirical_rtp", rep.EmpiricalRTP),
		zap.Bool("timed_out", rep.TimedOut),
		zap.Duration("elapsed", rep.Elapsed))
	return rep, nil
}

// process simulates one batch. A cancelled context ends the batch early;
// the rounds done so far still count.
func (s *Simulator) process(ctx context.Context, g *config.Game, v payout.Vector, prefix string, j job) tally {
	var t tally
	buf := make([]byte, 0, len(prefix)+24)
	for i := j.start; i < j.end; i++ {
		if ctx.Err() != nil {
			return t
		}
		buf = strconv.AppendUint(append(append(buf[:0], prefix...), ':'), i, 10)
		seed := string(buf)

		idx := engine.New(engine.Child(seed, "settle")).Intn(len(v))
		m := v[idx]
		t.rounds++
		t.paid += m
		if m > 0 {
			t.wins++
		}

		switch {
		case g.Layout != nil && len(v) == g.Layout.Symbols.TotalWeight():
			grid := s.recon.Reels(seed, idx, m, g.Layout)
			if grid.Exhausted {
				t.exhausted++
			}
			if orphaned(g.Layout, grid, m > 0) {
				t.orphans++
			}
		case g.Wheel != nil && len(v) == g.Wheel.Segments():
			spin := s.recon.Wheel(seed, idx, g.Wheel)
			if g.Wheel.PocketAt(spin.Rotation) != idx {
				t.misses++
			}
		}
	}
	return t
}

// orphaned reports whether a grid shows a paying line besides the one the
// settlement paid.
func orphaned(l *reconstruct.Layout, grid reconstruct.Grid, won bool) bool {
	for _, line := range l.ScanLines(grid.Cells) {
		if !won || line != l.WinLine {
			return true
		}
	}
	return false
}
