package round

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MJE43/outcome-engine-go/internal/cascade"
	"github.com/MJE43/outcome-engine-go/internal/config"
	"github.com/MJE43/outcome-engine-go/internal/engine"
	"github.com/MJE43/outcome-engine-go/internal/mines"
	"github.com/MJE43/outcome-engine-go/internal/payout"
	"github.com/MJE43/outcome-engine-go/internal/reconstruct"
)

// Params are the player's choices for a round. Only the fields of the
// game's family are read.
type Params struct {
	Target    float64 `json:"target,omitempty"`    // target
	MineCount int     `json:"mineCount,omitempty"` // mines
	Mode      string  `json:"mode,omitempty"`      // double
	BetType   string  `json:"betType,omitempty"`   // roulette
	Numbers   []int   `json:"numbers,omitempty"`   // roulette inside bets
	Runner    int     `json:"runner,omitempty"`    // race
	RollUnder int     `json:"rollUnder,omitempty"` // dice
}

// OfferRequest asks for the payout vector of a new round.
type OfferRequest struct {
	GameID string          `json:"gameId"`
	Wager  decimal.Decimal `json:"wager"`
	Params Params          `json:"params"`
}

// Offer is what gets submitted to the settlement authority. Single-round
// games carry Vector; ladder games carry one bet per level in Levels.
type Offer struct {
	ID        string          `json:"id"`
	GameID    string          `json:"gameId"`
	Family    config.Family   `json:"family"`
	Wager     decimal.Decimal `json:"wager"`
	MaxPayout decimal.Decimal `json:"maxPayout"`
	Nonce     string          `json:"nonce"`
	Params    Params          `json:"params"`
	Vector    payout.Vector   `json:"vector,omitempty"`
	Signature string          `json:"signature,omitempty"`
	Levels    []cascade.Level `json:"levels,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Ladder reports whether the offer is a multi-level cascade.
func (o *Offer) Ladder() bool {
	return o.Family == config.FamilyMines || o.Family == config.FamilyLadder
}

// RevealRequest carries the settlement of a round plus the player actions
// a display needs.
type RevealRequest struct {
	Settlement engine.Settlement `json:"settlement"`
	// Level is the ladder level the settlement applies to.
	Level int `json:"level,omitempty"`
	// Cell is the mines cell picked on the settled level.
	Cell *int `json:"cell,omitempty"`
	// Revealed are the mines cells uncovered safely before it.
	Revealed []int `json:"revealed,omitempty"`
}

// DiceRoll is the displayed roll of a dice round.
type DiceRoll struct {
	Value int `json:"value"`
	Under int `json:"under"`
}

// LadderStep is the displayed end state of a ladder round.
type LadderStep struct {
	Level      int             `json:"level"`
	Multiplier float64         `json:"multiplier"`
	Busted     bool            `json:"busted"`
	Balance    decimal.Decimal `json:"balance"`
}

// Artifact is the reconstructed display of a round. Exactly the fields of
// the game's family are set.
type Artifact struct {
	Slot     int                      `json:"slot"`
	Fallback bool                     `json:"fallback,omitempty"`
	Reels    *reconstruct.Grid        `json:"reels,omitempty"`
	Board    *mines.CellSet           `json:"board,omitempty"`
	Cells    [][]string               `json:"cells,omitempty"`
	Wheel    *reconstruct.WheelSpin   `json:"wheel,omitempty"`
	Race     *reconstruct.RaceResult  `json:"race,omitempty"`
	Chart    *reconstruct.ChartResult `json:"chart,omitempty"`
	Dice     *DiceRoll                `json:"dice,omitempty"`
	Ladder   *LadderStep              `json:"ladder,omitempty"`
}

// Reveal is a settled round and its reconstruction.
type Reveal struct {
	RoundID       string        `json:"roundId"`
	Request       RevealRequest `json:"request"`
	Seed          string        `json:"seed"`
	Artifact      Artifact      `json:"artifact"`
	EngineVersion string        `json:"engineVersion"`
	SettledAt     time.Time     `json:"settledAt"`
}

// Record is a journaled round as read back.
type Record struct {
	Offer  *Offer  `json:"offer"`
	Reveal *Reveal `json:"reveal,omitempty"`
}

// ReplayResult compares a stored reconstruction with a fresh one.
type ReplayResult struct {
	RoundID  string   `json:"roundId"`
	Seed     string   `json:"seed"`
	Match    bool     `json:"match"`
	Stored   Artifact `json:"stored"`
	Replayed Artifact `json:"replayed"`
}
