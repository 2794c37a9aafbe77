package api

import (
	"github.com/shopspring/decimal"

	"github.com/MJE43/outcome-engine-go/internal/cascade"
	"github.com/MJE43/outcome-engine-go/internal/config"
	"github.com/MJE43/outcome-engine-go/internal/engine"
	"github.com/MJE43/outcome-engine-go/internal/payout"
)

// EngineError represents a structured error response with context
type EngineError struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e EngineError) Error() string {
	return e.Message
}

// Error types
const (
	// Input validation errors
	ErrTypeInvalidParams = "invalid_params"
	ErrTypeValidation    = "validation_error"

	// Capacity errors
	ErrTypeCapacity = "capacity_exceeded"

	// Game and round errors
	ErrTypeGameNotFound  = "game_not_found"
	ErrTypeRoundNotFound = "round_not_found"
	ErrTypeRoundConflict = "round_conflict"

	// System errors
	ErrTypeTimeout            = "timeout"
	ErrTypeInternal           = "internal_error"
	ErrTypeServiceUnavailable = "service_unavailable"
)

// ErrorCategory represents error categories for monitoring
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryCapacity   ErrorCategory = "capacity"
	CategoryGame       ErrorCategory = "game"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeInvalidParams, ErrTypeValidation:
		return CategoryValidation
	case ErrTypeCapacity:
		return CategoryCapacity
	case ErrTypeGameNotFound, ErrTypeRoundNotFound, ErrTypeRoundConflict:
		return CategoryGame
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// VersionInfo contains engine version information
type VersionInfo struct {
	EngineVersion string `json:"engine_version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
	GoVersion     string `json:"go_version"`
}

// GameInfo describes one catalog game
type GameInfo struct {
	engine.GameSpec
	Config config.GameConfig `json:"config"`
}

// GamesResponse represents the games metadata response
type GamesResponse struct {
	Games         []GameInfo `json:"games"`
	CatalogVer    string     `json:"catalog_version"`
	RTPCeiling    float64    `json:"rtp_ceiling"`
	HouseFactor   float64    `json:"house_factor"`
	EngineVersion string     `json:"engine_version"`
}

// TargetRequest asks for a pick-a-multiplier vector
type TargetRequest struct {
	Target      float64 `json:"target"`
	HouseFactor float64 `json:"house_factor,omitempty"`
	RTPCeiling  float64 `json:"rtp_ceiling,omitempty"`
}

// TargetResponse is the built vector
type TargetResponse struct {
	Vector        payout.Vector `json:"vector"`
	Signature     string        `json:"signature"`
	Adjusted      float64       `json:"adjusted"`
	Mean          float64       `json:"mean"`
	EngineVersion string        `json:"engine_version"`
	Echo          TargetRequest `json:"echo"`
}

// CascadeRequest describes a ladder. Exactly one multiplier source is
// read: Expression, then Multipliers, then the constant Multiplier.
type CascadeRequest struct {
	InitialWager decimal.Decimal `json:"initial_wager"`
	LevelCount   int             `json:"level_count"`
	Multiplier   float64         `json:"multiplier,omitempty"`
	Multipliers  []float64       `json:"multipliers,omitempty"`
	Expression   string          `json:"expression,omitempty"`
	MaxPayout    decimal.Decimal `json:"max_payout"`
}

// CascadeResponse is the computed ladder
type CascadeResponse struct {
	Levels        []cascade.Level `json:"levels"`
	TotalProfit   decimal.Decimal `json:"total_profit"`
	EngineVersion string          `json:"engine_version"`
}

// MinesPlaceRequest asks for a hazard layout
type MinesPlaceRequest struct {
	Seed       string `json:"seed"`
	LosingCell *int   `json:"losing_cell,omitempty"`
	Revealed   []int  `json:"revealed,omitempty"`
	MineCount  int    `json:"mine_count"`
	GridSize   int    `json:"grid_size"`
	Columns    int    `json:"columns,omitempty"`
}

// MinesPlaceResponse is the placed board
type MinesPlaceResponse struct {
	Mines         []int      `json:"mines"`
	Losing        int        `json:"losing"`
	Cells         [][]string `json:"cells"`
	EngineVersion string     `json:"engine_version"`
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status        string            `json:"status"`
	EngineVersion string            `json:"engine_version"`
	GitCommit     string            `json:"git_commit,omitempty"`
	Uptime        string            `json:"uptime"`
	Games         int               `json:"games"`
	Checks        map[string]string `json:"checks"`
	Timestamp     string            `json:"timestamp"`
	RequestID     string            `json:"request_id,omitempty"`
}
