package reconstruct

import (
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/MJE43/outcome-engine-go/internal/engine"
	"github.com/MJE43/outcome-engine-go/internal/payout"
)

// Grid is a reconstructed reel display.
type Grid struct {
	Reels        [][]string `json:"reels"` // [reel][row]
	Cells        []string   `json:"cells"` // reel-major
	WinningLines []int      `json:"winningLines"`
	Symbol       string     `json:"symbol,omitempty"`
	Retries      int        `json:"retries"`
	Exhausted    bool       `json:"exhausted,omitempty"`
	Fallback     bool       `json:"fallback,omitempty"`
}

// Reconstructor turns settled results into displays. It holds no per-round
// state and is safe for concurrent use.
type Reconstructor struct {
	log *zap.Logger
}

// New creates a Reconstructor. A nil logger disables logging.
func New(log *zap.Logger) *Reconstructor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconstructor{log: log}
}

// reelsLabel folds the settlement into the draw stream so every argument of
// Reels reaches the grid, including on losing rounds.
func reelsLabel(resultIndex int, multiplier float64) string {
	return "reels:" + strconv.Itoa(resultIndex) + ":" + strconv.FormatFloat(multiplier, 'f', -1, 64)
}

// Reels rebuilds the reel grid for a settled round. When multiplier > 0 the
// winning symbol is written onto every cell of the win line; all other cells
// come from seeded weighted draws. Extra paying lines are removed by
// re-rolling the free cells of one reel per offending line, at most
// MaxRetries times. Identical inputs always yield an identical grid.
func (r *Reconstructor) Reels(seed string, resultIndex int, multiplier float64, layout *Layout) Grid {
	g := engine.New(engine.Child(seed, reelsLabel(resultIndex, multiplier)))
	n := layout.Cells()
	cells := make([]int, n)
	fixed := make([]bool, n)

	grid := Grid{}
	winLine := -1
	if multiplier > 0 {
		sym, fallback := r.resolve(seed, resultIndex, multiplier, layout.Symbols)
		grid.Symbol = layout.Symbols[sym].Name
		grid.Fallback = fallback
		winLine = layout.WinLine
		for _, c := range layout.Paylines[winLine] {
			cells[c] = sym
			fixed[c] = true
		}
	}

	for c := 0; c < n; c++ {
		if !fixed[c] {
			cells[c] = layout.draw(g, c/layout.Rows)
		}
	}

	for {
		extra := layout.scan(cells, winLine)
		if len(extra) == 0 {
			break
		}
		if grid.Retries >= layout.MaxRetries {
			grid.Exhausted = true
			r.log.Warn("extra winning line survived re-rolls",
				zap.String("seed", seed),
				zap.Int("result_index", resultIndex),
				zap.Ints("lines", extra),
				zap.Int("retries", grid.Retries))
			break
		}
		grid.Retries++

		rerolled := make(map[int]bool, len(extra))
		for _, line := range extra {
			reel := lastFreeReel(layout, layout.Paylines[line], fixed)
			if reel < 0 || rerolled[reel] {
				continue
			}
			rerolled[reel] = true
			for row := 0; row < layout.Rows; row++ {
				c := reel*layout.Rows + row
				if !fixed[c] {
					cells[c] = layout.draw(g, reel)
				}
			}
		}
	}

	grid.Cells = make([]string, n)
	grid.Reels = make([][]string, layout.Reels)
	for reel := 0; reel < layout.Reels; reel++ {
		grid.Reels[reel] = make([]string, layout.Rows)
		for row := 0; row < layout.Rows; row++ {
			c := reel*layout.Rows + row
			name := layout.Symbols[cells[c]].Name
			grid.Cells[c] = name
			grid.Reels[reel][row] = name
		}
	}
	grid.WinningLines = layout.scan(cells, -1)
	if grid.WinningLines == nil {
		grid.WinningLines = []int{}
	}
	return grid
}

// resolve picks the symbol for a win. The slot's own symbol is used when it
// pays the settled multiplier; otherwise a symbol with that multiplier;
// otherwise the lowest paying symbol.
func (r *Reconstructor) resolve(seed string, resultIndex int, multiplier float64, symbols payout.SymbolTable) (int, bool) {
	if s, ok := symbols.SymbolAt(resultIndex); ok && s.Pays() && math.Abs(s.Multiplier-multiplier) < 1e-9 {
		return symbols.Index(s.Name), false
	}
	if s, ok := symbols.ByMultiplier(multiplier); ok {
		r.log.Warn("result index does not match settled multiplier",
			zap.String("seed", seed),
			zap.Int("result_index", resultIndex),
			zap.Float64("multiplier", multiplier),
			zap.String("symbol", s.Name))
		return symbols.Index(s.Name), false
	}

	s, _ := symbols.LowestPaying()
	r.log.Warn("settled multiplier matches no symbol, using fallback",
		zap.String("seed", seed),
		zap.Int("result_index", resultIndex),
		zap.Float64("multiplier", multiplier),
		zap.String("fallback", s.Name))
	return symbols.Index(s.Name), true
}

// draw picks a weighted symbol walking reel's static order.
func (l *Layout) draw(g *engine.Generator, reel int) int {
	x := g.Intn(l.totalWeight)
	order := l.orders[reel]
	for _, idx := range order {
		x -= l.Symbols[idx].Weight
		if x < 0 {
			return idx
		}
	}
	return order[len(order)-1]
}

func lastFreeReel(l *Layout, line []int, fixed []bool) int {
	for i := len(line) - 1; i >= 0; i-- {
		if !fixed[line[i]] {
			return line[i] / l.Rows
		}
	}
	return -1
}
