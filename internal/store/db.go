package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("round not found")
	ErrAlreadySettled = errors.New("round already settled")
)

// Round statuses.
const (
	StatusOffered = "offered"
	StatusSettled = "settled"
)

// DB is the round audit journal. It records what was offered and what was
// shown; nothing in it feeds a later round.
type DB interface {
	Close() error
	Migrate() error
	SaveRound(ctx context.Context, round *Round) error
	SettleRound(ctx context.Context, round *Round) error
	GetRound(ctx context.Context, id string) (*Round, error)
	ListRounds(ctx context.Context, query RoundsQuery) (*RoundsList, error)
}

// RoundsQuery represents query parameters for listing rounds
type RoundsQuery struct {
	Game    string `json:"game,omitempty"`
	Status  string `json:"status,omitempty"`
	Page    int    `json:"page"`
	PerPage int    `json:"perPage"`
}

// RoundsList represents a paginated rounds response
type RoundsList struct {
	Rounds     []Round `json:"rounds"`
	TotalCount int     `json:"totalCount"`
	Page       int     `json:"page"`
	PerPage    int     `json:"perPage"`
	TotalPages int     `json:"totalPages"`
}

// Round is one offered round and, once settled, its reconstruction.
// Money columns hold canonical decimal strings.
type Round struct {
	ID            string     `json:"id" db:"id"`
	Game          string     `json:"game" db:"game"`
	Family        string     `json:"family" db:"family"`
	Wager         string     `json:"wager" db:"wager"`
	MaxPayout     string     `json:"max_payout" db:"max_payout"`
	Nonce         string     `json:"nonce" db:"nonce"`
	Signature     string     `json:"signature" db:"signature"`
	ParamsJSON    string     `json:"params_json" db:"params_json"`
	OfferJSON     string     `json:"offer_json" db:"offer_json"` // vector or ladder
	Status        string     `json:"status" db:"status"`
	RevealJSON    string     `json:"reveal_json,omitempty" db:"reveal_json"`
	ResultIndex   *int       `json:"result_index,omitempty" db:"result_index"`
	Multiplier    *float64   `json:"multiplier,omitempty" db:"multiplier"`
	Payout        string     `json:"payout,omitempty" db:"payout"`
	Seed          string     `json:"seed,omitempty" db:"seed"`
	ArtifactJSON  string     `json:"artifact_json,omitempty" db:"artifact_json"`
	EngineVersion string     `json:"engine_version" db:"engine_version"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	SettledAt     *time.Time `json:"settled_at,omitempty" db:"settled_at"`
}

func normalizeQuery(q RoundsQuery) RoundsQuery {
	if q.PerPage <= 0 {
		q.PerPage = 50
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return q
}
