package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MJE43/outcome-engine-go/internal/engine"
	"github.com/MJE43/outcome-engine-go/internal/mines"
	"github.com/MJE43/outcome-engine-go/internal/payout"
	"github.com/MJE43/outcome-engine-go/internal/reconstruct"
	"github.com/MJE43/outcome-engine-go/internal/script"
)

//go:embed default.yaml
var defaultYAML []byte

var (
	ErrInvalidConfig  = errors.New("invalid game configuration")
	ErrDuplicateGame  = errors.New("duplicate game id")
	ErrUnknownFamily  = errors.New("unknown game family")
	ErrMissingSection = errors.New("missing game section")
)

// Catalog is the validated, immutable set of games. Share it freely.
type Catalog struct {
	Version     string
	RTPCeiling  float64
	HouseFactor float64

	games map[string]*Game
	order []string
}

// Game is a validated game with everything derivable at load time
// precomputed.
type Game struct {
	Config GameConfig

	Layout *reconstruct.Layout      // slots
	Vector payout.Vector            // slots, wheel
	Wheel  *reconstruct.WheelLayout // roulette, wheel
	Ladder []float64                // ladder multipliers per level
	Boards map[int]mines.Game       // mines, keyed by mine count
}

// Spec returns the public description of the game.
func (g *Game) Spec() engine.GameSpec {
	return engine.GameSpec{ID: g.Config.ID, Name: g.Config.Name, Family: string(g.Config.Family)}
}

// RTP returns the configured RTP or the catalog ceiling.
func (g *Game) RTP(c *Catalog) float64 {
	if g.Config.RTP > 0 {
		return g.Config.RTP
	}
	return c.RTPCeiling
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultYAML)
}

// Load reads and validates a catalog file. An empty path loads the
// embedded default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(b)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return Build(f)
}

// Build validates a decoded file and precomputes every game.
func Build(f File) (*Catalog, error) {
	c := &Catalog{
		Version:     f.Version,
		RTPCeiling:  f.RTPCeiling,
		HouseFactor: f.HouseFactor,
		games:       make(map[string]*Game, len(f.Games)),
	}
	if c.RTPCeiling == 0 {
		c.RTPCeiling = payout.DefaultRTPCeiling
	}
	if c.HouseFactor == 0 {
		c.HouseFactor = payout.DefaultHouseFactor
	}
	if c.RTPCeiling < 0 || c.RTPCeiling > 1 {
		return nil, fmt.Errorf("%w: rtp ceiling %v", ErrInvalidConfig, c.RTPCeiling)
	}
	if c.HouseFactor <= 0 || c.HouseFactor > 1 {
		return nil, fmt.Errorf("%w: house factor %v", ErrInvalidConfig, c.HouseFactor)
	}
	if len(f.Games) == 0 {
		return nil, fmt.Errorf("%w: no games", ErrInvalidConfig)
	}

	for _, gc := range f.Games {
		if gc.ID == "" {
			return nil, fmt.Errorf("%w: game without id", ErrInvalidConfig)
		}
		if _, dup := c.games[gc.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateGame, gc.ID)
		}
		if gc.Name == "" {
			gc.Name = gc.ID
		}
		g, err := c.build(gc)
		if err != nil {
			return nil, fmt.Errorf("game %s: %w", gc.ID, err)
		}
		c.games[gc.ID] = g
		c.order = append(c.order, gc.ID)
	}
	return c, nil
}

func (c *Catalog) build(gc GameConfig) (*Game, error) {
	g := &Game{Config: gc}
	limits := payout.Limits{RTPCeiling: c.RTPCeiling}
	rtp := g.RTP(c)
	if rtp <= 0 || rtp > c.RTPCeiling {
		return nil, fmt.Errorf("%w: rtp %v above ceiling %v", ErrInvalidConfig, rtp, c.RTPCeiling)
	}

	switch gc.Family {
	case FamilyTarget:
		if gc.Target == nil {
			g.Config.Target = &TargetConfig{}
		}
		t := g.Config.Target
		if t.Min == 0 {
			t.Min = 1.1
		}
		if t.Max == 0 {
			t.Max = 1000
		}
		if t.Min > t.Max {
			return nil, fmt.Errorf("%w: target range %v..%v", ErrInvalidConfig, t.Min, t.Max)
		}
		for _, m := range []float64{t.Min, t.Max} {
			if _, err := payout.Target(m, payout.WithHouseFactor(c.HouseFactor), payout.WithRTPCeiling(c.RTPCeiling)); err != nil {
				return nil, err
			}
		}

	case FamilySlots:
		if gc.Slots == nil {
			return nil, fmt.Errorf("%w: slots", ErrMissingSection)
		}
		layout, err := reconstruct.NewLayout(*gc.Slots)
		if err != nil {
			return nil, err
		}
		v, err := payout.FromSymbols(layout.Symbols)
		if err != nil {
			return nil, err
		}
		if err := payout.Validate(v, limits); err != nil {
			return nil, err
		}
		g.Layout, g.Vector = layout, v

	case FamilyMines:
		if gc.Mines == nil || len(gc.Mines.MineCounts) == 0 {
			return nil, fmt.Errorf("%w: mines", ErrMissingSection)
		}
		g.Boards = make(map[int]mines.Game, len(gc.Mines.MineCounts))
		for _, n := range gc.Mines.MineCounts {
			board := mines.Game{GridSize: gc.Mines.GridSize, MineCount: n, RTP: gc.Mines.RTP, Columns: gc.Mines.Columns}
			if err := board.Validate(); err != nil {
				return nil, err
			}
			if board.RTP > c.RTPCeiling {
				return nil, fmt.Errorf("%w: mines rtp %v above ceiling", ErrInvalidConfig, board.RTP)
			}
			g.Boards[n] = board
		}

	case FamilyDouble:
		if len(gc.Modes) == 0 {
			g.Config.Modes = payout.DoubleOrNothingModes
		}
		for _, m := range g.Config.Modes {
			if err := payout.Validate(m.Bet, limits); err != nil {
				return nil, fmt.Errorf("mode %s: %w", m.Label, err)
			}
		}

	case FamilyRoulette:
		v, err := payout.Roulette("red", nil, rtp)
		if err != nil {
			return nil, err
		}
		if err := payout.Validate(v, limits); err != nil {
			return nil, err
		}
		g.Wheel = reconstruct.EuropeanWheel()

	case FamilyWheel:
		if gc.Wheel == nil {
			return nil, fmt.Errorf("%w: wheel", ErrMissingSection)
		}
		v := payout.Vector(append([]float64(nil), gc.Wheel.Payouts...))
		if err := payout.Validate(v, limits); err != nil {
			return nil, err
		}
		order := make([]int, len(v))
		for i := range order {
			order[i] = i
		}
		minTurns := gc.Wheel.MinTurns
		if minTurns == 0 {
			minTurns = 3
		}
		w, err := reconstruct.NewWheel(order, minTurns, gc.Wheel.ExtraTurns)
		if err != nil {
			return nil, err
		}
		g.Vector, g.Wheel = v, w

	case FamilyRace:
		if gc.Race == nil || gc.Race.Runners < 2 {
			return nil, fmt.Errorf("%w: race needs at least 2 runners", ErrMissingSection)
		}
		v, err := payout.PickOne(gc.Race.Runners, 0, rtp)
		if err != nil {
			return nil, err
		}
		if err := payout.Validate(v, limits); err != nil {
			return nil, err
		}

	case FamilyDice:
		v, err := payout.RollUnder(50, rtp)
		if err != nil {
			return nil, err
		}
		if err := payout.Validate(v, limits); err != nil {
			return nil, err
		}

	case FamilyLadder:
		if gc.Ladder == nil || gc.Ladder.Levels <= 0 {
			return nil, fmt.Errorf("%w: ladder", ErrMissingSection)
		}
		expr, err := script.Compile(gc.Ladder.Multiplier)
		if err != nil {
			return nil, err
		}
		if gc.Ladder.TimeoutMS > 0 {
			expr = expr.WithTimeout(time.Duration(gc.Ladder.TimeoutMS) * time.Millisecond)
		}
		ms, err := expr.Multipliers(context.Background(), gc.Ladder.Levels)
		if err != nil {
			return nil, err
		}
		for i, m := range ms {
			if m < 1 {
				return nil, fmt.Errorf("%w: ladder level %d pays %v", ErrInvalidConfig, i, m)
			}
			if _, err := LadderBet(m, rtp); err != nil {
				return nil, fmt.Errorf("ladder level %d: %w", i, err)
			}
		}
		g.Ladder = ms

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, gc.Family)
	}
	return g, nil
}

// LadderBet is the vector offered for one ladder level paying m.
func LadderBet(m, rtp float64) (payout.Vector, error) {
	return payout.Target(m, payout.WithHouseFactor(1), payout.WithRTPCeiling(rtp))
}

// Game looks a game up by id.
func (c *Catalog) Game(id string) (*Game, bool) {
	g, ok := c.games[id]
	return g, ok
}

// Games returns every game in file order.
func (c *Catalog) Games() []*Game {
	out := make([]*Game, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.games[id])
	}
	return out
}

// Specs lists the public descriptions in file order.
func (c *Catalog) Specs() []engine.GameSpec {
	out := make([]engine.GameSpec, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.games[id].Spec())
	}
	return out
}
