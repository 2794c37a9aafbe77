package sim

import "errors"

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrInvalidRounds  = errors.New("invalid round count")
	ErrVectorRequired = errors.New("game has no fixed vector, supply one")
)
