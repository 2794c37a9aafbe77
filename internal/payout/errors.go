package payout

import "errors"

var (
	ErrDegenerateVector   = errors.New("degenerate payout vector")
	ErrVectorTooLong      = errors.New("payout vector exceeds maximum length")
	ErrEmptyVector        = errors.New("payout vector is empty")
	ErrAllZero            = errors.New("payout vector has no paying slot")
	ErrNegativeMultiplier = errors.New("payout vector has a negative or non-finite multiplier")
	ErrRTPExceeded        = errors.New("payout vector mean exceeds RTP ceiling")
	ErrExceedsPoolCap     = errors.New("maximum payout exceeds pool cap")
	ErrInvalidSymbolTable = errors.New("invalid symbol table")
	ErrUnknownMode        = errors.New("unknown game mode")
	ErrUnknownBetType     = errors.New("unknown bet type")
)
