package cascade

import "errors"

var (
	ErrInvalidLevelCount  = errors.New("level count must be positive")
	ErrInvalidWager       = errors.New("initial wager must be positive")
	ErrInvalidMaxPayout   = errors.New("max payout must not be negative")
	ErrNoMultiplier       = errors.New("multiplier function is required")
	ErrMultiplierBelowOne = errors.New("offered level multiplier below 1")
	ErrGameUnavailable    = errors.New("game unavailable at this wager")
)
