package reconstruct

import (
	"fmt"

	"github.com/MJE43/outcome-engine-go/internal/payout"
)

// DefaultMaxRetries bounds the anti-contamination re-roll loop.
const DefaultMaxRetries = 10

// LayoutConfig is the declarative form of a reel layout. Paylines are row
// patterns, one row index per reel; nil means one straight line per row.
type LayoutConfig struct {
	Reels      int                `json:"reels" yaml:"reels"`
	Rows       int                `json:"rows" yaml:"rows"`
	Symbols    payout.SymbolTable `json:"symbols" yaml:"symbols"`
	Paylines   [][]int            `json:"paylines,omitempty" yaml:"paylines,omitempty"`
	WinLine    *int               `json:"winLine,omitempty" yaml:"win_line,omitempty"`
	MaxRetries int                `json:"maxRetries,omitempty" yaml:"max_retries,omitempty"`
}

// Layout is the immutable geometry a reconstruction runs against. Cells are
// indexed reel-major: cell = reel*Rows + row.
type Layout struct {
	Reels      int
	Rows       int
	Symbols    payout.SymbolTable
	Paylines   [][]int
	WinLine    int
	MaxRetries int

	orders      [][]int // per-reel symbol order, static
	totalWeight int
}

// NewLayout validates cfg and precomputes the per-reel symbol orders.
func NewLayout(cfg LayoutConfig) (*Layout, error) {
	if cfg.Reels < 2 || cfg.Rows < 1 {
		return nil, fmt.Errorf("%w: %d reels x %d rows", ErrInvalidLayout, cfg.Reels, cfg.Rows)
	}
	if err := cfg.Symbols.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}

	patterns := cfg.Paylines
	if len(patterns) == 0 {
		patterns = make([][]int, cfg.Rows)
		for row := range patterns {
			patterns[row] = StraightLine(cfg.Reels, row)
		}
	}

	lines := make([][]int, len(patterns))
	seen := make(map[string]bool, len(patterns))
	for i, p := range patterns {
		if len(p) != cfg.Reels {
			return nil, fmt.Errorf("%w: line %d has %d positions for %d reels", ErrInvalidPayline, i, len(p), cfg.Reels)
		}
		key := fmt.Sprint(p)
		if seen[key] {
			return nil, fmt.Errorf("%w: line %d duplicates %v", ErrInvalidPayline, i, p)
		}
		seen[key] = true

		line := make([]int, cfg.Reels)
		for reel, row := range p {
			if row < 0 || row >= cfg.Rows {
				return nil, fmt.Errorf("%w: line %d row %d out of range", ErrInvalidPayline, i, row)
			}
			line[reel] = reel*cfg.Rows + row
		}
		lines[i] = line
	}

	winLine := cfg.Rows / 2
	if cfg.WinLine != nil {
		winLine = *cfg.WinLine
	}
	if winLine < 0 || winLine >= len(lines) {
		return nil, fmt.Errorf("%w: win line %d of %d", ErrInvalidPayline, winLine, len(lines))
	}

	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = DefaultMaxRetries
	}

	symbols := make(payout.SymbolTable, len(cfg.Symbols))
	copy(symbols, cfg.Symbols)

	return &Layout{
		Reels:       cfg.Reels,
		Rows:        cfg.Rows,
		Symbols:     symbols,
		Paylines:    lines,
		WinLine:     winLine,
		MaxRetries:  retries,
		orders:      reelOrders(len(symbols), cfg.Reels),
		totalWeight: symbols.TotalWeight(),
	}, nil
}

// StraightLine is the row pattern of a horizontal payline.
func StraightLine(reels, row int) []int {
	p := make([]int, reels)
	for i := range p {
		p[i] = row
	}
	return p
}

// Cells is the number of cells on the grid.
func (l *Layout) Cells() int { return l.Reels * l.Rows }

// Order returns reel's static symbol order as symbol names.
func (l *Layout) Order(reel int) []string {
	out := make([]string, len(l.orders[reel]))
	for i, idx := range l.orders[reel] {
		out[i] = l.Symbols[idx].Name
	}
	return out
}

// reelOrders rotates the base order by the reel index and reverses it on
// odd reels.
func reelOrders(symbols, reels int) [][]int {
	orders := make([][]int, reels)
	for r := 0; r < reels; r++ {
		order := make([]int, symbols)
		for i := range order {
			order[i] = (i + r) % symbols
		}
		if r%2 == 1 {
			for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
				order[i], order[j] = order[j], order[i]
			}
		}
		orders[r] = order
	}
	return orders
}

// ScanLines returns the indices of every payline whose cells all hold the
// same paying symbol.
func (l *Layout) ScanLines(cells []string) []int {
	idx := make([]int, len(cells))
	for i, name := range cells {
		idx[i] = l.Symbols.Index(name)
	}
	return l.scan(idx, -1)
}

// scan works on symbol indices and skips the line at skip.
func (l *Layout) scan(cells []int, skip int) []int {
	var hits []int
	for i, line := range l.Paylines {
		if i == skip {
			continue
		}
		first := cells[line[0]]
		if first < 0 || !l.Symbols[first].Pays() {
			continue
		}
		match := true
		for _, c := range line[1:] {
			if cells[c] != first {
				match = false
				break
			}
		}
		if match {
			hits = append(hits, i)
		}
	}
	return hits
}
