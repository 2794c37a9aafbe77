package reconstruct

import "errors"

var (
	ErrInvalidLayout  = errors.New("invalid reel layout")
	ErrInvalidPayline = errors.New("invalid payline")
	ErrInvalidWheel   = errors.New("invalid wheel layout")
	ErrInvalidRace    = errors.New("invalid race")
)
