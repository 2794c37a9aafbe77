package engine

import "github.com/shopspring/decimal"

// Settlement is what the external settlement authority reports for a
// submitted payout vector. The engine treats it as already final.
type Settlement struct {
	ResultIndex int             `json:"result_index"`
	Payout      decimal.Decimal `json:"payout"`
	Multiplier  float64         `json:"multiplier"`
}

// Won reports whether the settlement paid anything.
func (s Settlement) Won() bool {
	return s.Multiplier > 0 || s.Payout.IsPositive()
}

// GameSpec describes a game exposed by the catalog.
type GameSpec struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Family string `json:"family"` // target, symbols, cascade, mines, wheel, race, fixed
}
