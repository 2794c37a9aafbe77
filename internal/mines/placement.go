package mines

import (
	"fmt"
	"sort"

	"github.com/MJE43/outcome-engine-go/internal/engine"
)

// CellSet is the hazard layout of one board. Mines are sorted ascending.
type CellSet struct {
	Total  int   `json:"total"`
	Mines  []int `json:"mines"`
	Losing int   `json:"losing"` // -1 when the round was cashed out
}

// Len returns the number of hazards.
func (c CellSet) Len() int { return len(c.Mines) }

// Contains reports whether cell holds a mine.
func (c CellSet) Contains(cell int) bool {
	i := sort.SearchInts(c.Mines, cell)
	return i < len(c.Mines) && c.Mines[i] == cell
}

// Grid renders the board row by row as "mine"/"gem".
func (c CellSet) Grid(cols int) [][]string {
	if cols <= 0 {
		cols = c.Total
	}
	rows := (c.Total + cols - 1) / cols
	grid := make([][]string, rows)
	for r := 0; r < rows; r++ {
		width := cols
		if rem := c.Total - r*cols; rem < width {
			width = rem
		}
		grid[r] = make([]string, width)
		for col := 0; col < width; col++ {
			if c.Contains(r*cols + col) {
				grid[r][col] = "mine"
			} else {
				grid[r][col] = "gem"
			}
		}
	}
	return grid
}

// ValidateConfig checks a board configuration before any round is offered.
func ValidateConfig(mineCount, totalCells int) error {
	if mineCount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMineCount, mineCount)
	}
	if mineCount >= totalCells {
		return fmt.Errorf("%w: %d mines on %d cells", ErrTooManyMines, mineCount, totalCells)
	}
	return nil
}

// PlaceMines returns the hazards of a lost round. The losing cell is always a
// mine; the other mineCount-1 come from a seeded Fisher-Yates selection over
// the remaining cells.
func PlaceMines(seed string, losingCell, mineCount, totalCells int) (CellSet, error) {
	return PlaceMinesAround(seed, losingCell, nil, mineCount, totalCells)
}

// PlaceMinesAround is PlaceMines for a board where some cells were already
// revealed as safe; those never receive a mine.
func PlaceMinesAround(seed string, losingCell int, safe []int, mineCount, totalCells int) (CellSet, error) {
	if err := ValidateConfig(mineCount, totalCells); err != nil {
		return CellSet{}, err
	}
	if losingCell < 0 || losingCell >= totalCells {
		return CellSet{}, fmt.Errorf("%w: losing cell %d of %d", ErrInvalidCell, losingCell, totalCells)
	}

	exclude, err := cellMask(safe, totalCells)
	if err != nil {
		return CellSet{}, err
	}
	if exclude[losingCell] {
		return CellSet{}, fmt.Errorf("%w: losing cell %d was revealed safe", ErrInvalidCell, losingCell)
	}
	exclude[losingCell] = true

	picked, err := selectCells(engine.New(seed), exclude, mineCount-1)
	if err != nil {
		return CellSet{}, err
	}
	picked = append(picked, losingCell)
	sort.Ints(picked)
	return CellSet{Total: totalCells, Mines: picked, Losing: losingCell}, nil
}

// PlaceMinesAvoiding returns the hazards of a cashed-out board: every mine
// lies among the cells the player did not reveal.
func PlaceMinesAvoiding(seed string, revealed []int, mineCount, totalCells int) (CellSet, error) {
	if err := ValidateConfig(mineCount, totalCells); err != nil {
		return CellSet{}, err
	}
	exclude, err := cellMask(revealed, totalCells)
	if err != nil {
		return CellSet{}, err
	}

	picked, err := selectCells(engine.New(seed), exclude, mineCount)
	if err != nil {
		return CellSet{}, err
	}
	sort.Ints(picked)
	return CellSet{Total: totalCells, Mines: picked, Losing: -1}, nil
}

func cellMask(cells []int, total int) ([]bool, error) {
	mask := make([]bool, total)
	for _, c := range cells {
		if c < 0 || c >= total {
			return nil, fmt.Errorf("%w: %d of %d", ErrInvalidCell, c, total)
		}
		mask[c] = true
	}
	return mask, nil
}

// selectCells draws n distinct cells outside exclude, one generator draw per
// pick, removing each pick from the pool.
func selectCells(g *engine.Generator, exclude []bool, n int) ([]int, error) {
	pool := make([]int, 0, len(exclude))
	for i, skip := range exclude {
		if !skip {
			pool = append(pool, i)
		}
	}
	if n > len(pool) {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrNotEnoughCells, n, len(pool))
	}

	picked := make([]int, 0, n+1)
	for i := 0; i < n; i++ {
		idx := g.Intn(len(pool))
		picked = append(picked, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return picked, nil
}
