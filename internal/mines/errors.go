package mines

import "errors"

var (
	ErrInvalidMineCount = errors.New("mine count must be positive")
	ErrTooManyMines     = errors.New("mine count must be below the cell count")
	ErrInvalidCell      = errors.New("cell index out of range")
	ErrNotEnoughCells   = errors.New("not enough free cells for the requested mines")
	ErrInvalidRTP       = errors.New("rtp must be in (0, 1]")
	ErrBelowBreakeven   = errors.New("first level multiplier below 1")
)
