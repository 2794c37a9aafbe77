package engine

import (
	"strconv"
	"strings"
)

// RoundSeed identifies the visual reconstruction of one settled round.
// It carries no secret and no trust obligation: the financial outcome is
// already fixed before this seed is used.
type RoundSeed struct {
	GameID       string
	Wager        string // canonical decimal string, e.g. "1.5"
	BetSignature string // see payout.Signature
	ResultIndex  int
	Multiplier   float64
	Nonce        string
}

// String renders the canonical seed text. Field order is fixed; changing it
// changes every reconstructed board.
func (s RoundSeed) String() string {
	var b strings.Builder
	b.Grow(len(s.GameID) + len(s.Wager) + len(s.BetSignature) + len(s.Nonce) + 32)
	b.WriteString(s.GameID)
	b.WriteByte(':')
	b.WriteString(s.Wager)
	b.WriteByte(':')
	b.WriteString(s.BetSignature)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(s.ResultIndex))
	b.WriteByte(':')
	b.WriteString(strconv.FormatFloat(s.Multiplier, 'f', -1, 64))
	b.WriteByte(':')
	b.WriteString(s.Nonce)
	return b.String()
}

// Generator returns a fresh stream for this seed.
func (s RoundSeed) Generator() *Generator {
	return New(s.String())
}

// Child derives a labelled sub-seed so independent parts of one display
// (candles vs. final multiplier, pace vs. order) never share draws.
func Child(seed, label string) string {
	return seed + "/" + label
}
