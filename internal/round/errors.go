package round

import "errors"

var (
	ErrUnknownGame   = errors.New("unknown game")
	ErrInvalidParams = errors.New("invalid round parameters")
	ErrInvalidReveal = errors.New("invalid reveal request")
	ErrInvalidWager  = errors.New("wager must be positive")
	ErrNotSettled    = errors.New("round not settled")
)
