package config

import (
	"github.com/MJE43/outcome-engine-go/internal/payout"
	"github.com/MJE43/outcome-engine-go/internal/reconstruct"
)

// Family groups games sharing a vector builder and a reconstructor.
type Family string

const (
	FamilyTarget   Family = "target"
	FamilySlots    Family = "slots"
	FamilyMines    Family = "mines"
	FamilyDouble   Family = "double"
	FamilyRoulette Family = "roulette"
	FamilyWheel    Family = "wheel"
	FamilyRace     Family = "race"
	FamilyDice     Family = "dice"
	FamilyLadder   Family = "ladder"
)

// File is the YAML document as written on disk.
type File struct {
	Version     string       `yaml:"version"`
	RTPCeiling  float64      `yaml:"rtp_ceiling"`
	HouseFactor float64      `yaml:"house_factor"`
	Games       []GameConfig `yaml:"games"`
}

// GameConfig declares one game. Exactly the section matching Family is read.
type GameConfig struct {
	ID     string  `yaml:"id" json:"id"`
	Name   string  `yaml:"name" json:"name"`
	Family Family  `yaml:"family" json:"family"`
	RTP    float64 `yaml:"rtp,omitempty" json:"rtp,omitempty"`

	Target *TargetConfig             `yaml:"target,omitempty" json:"target,omitempty"`
	Slots  *reconstruct.LayoutConfig `yaml:"slots,omitempty" json:"slots,omitempty"`
	Mines  *MinesConfig              `yaml:"mines,omitempty" json:"mines,omitempty"`
	Modes  []payout.Mode             `yaml:"modes,omitempty" json:"modes,omitempty"`
	Wheel  *WheelConfig              `yaml:"wheel,omitempty" json:"wheel,omitempty"`
	Race   *RaceConfig               `yaml:"race,omitempty" json:"race,omitempty"`
	Ladder *LadderConfig             `yaml:"ladder,omitempty" json:"ladder,omitempty"`
}

// TargetConfig bounds the multiplier a player may pick.
type TargetConfig struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// MinesConfig is a hazard board offered with several mine counts.
type MinesConfig struct {
	GridSize   int     `yaml:"grid_size" json:"gridSize"`
	Columns    int     `yaml:"columns" json:"columns"`
	RTP        float64 `yaml:"rtp" json:"rtp"`
	MineCounts []int   `yaml:"mine_counts" json:"mineCounts"`
}

// WheelConfig is a fixed-payout wheel; payouts are listed clockwise.
type WheelConfig struct {
	Payouts    []float64 `yaml:"payouts" json:"payouts"`
	MinTurns   int       `yaml:"min_turns" json:"minTurns"`
	ExtraTurns int       `yaml:"extra_turns" json:"extraTurns"`
}

// RaceConfig is a pick-the-winner race.
type RaceConfig struct {
	Runners int `yaml:"runners" json:"runners"`
}

// LadderConfig is a cascade whose multipliers come from a script expression
// of level.
type LadderConfig struct {
	Levels     int    `yaml:"levels" json:"levels"`
	Multiplier string `yaml:"multiplier" json:"multiplier"`
	TimeoutMS  int    `yaml:"timeout_ms,omitempty" json:"timeoutMs,omitempty"`
}
