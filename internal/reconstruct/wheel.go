package reconstruct

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/MJE43/outcome-engine-go/internal/engine"
)

// europeanOrder is the pocket sequence clockwise from zero on a single-zero
// wheel.
var europeanOrder = []int{
	0, 32, 15, 19, 4, 21, 2, 25, 17, 34, 6, 27, 13, 36, 11, 30, 8, 23, 10,
	5, 24, 16, 33, 1, 20, 14, 31, 9, 22, 18, 29, 7, 28, 12, 35, 3, 26,
}

// WheelLayout describes a spinning wheel. Order lists result indices
// clockwise starting at angle 0.
type WheelLayout struct {
	Order       []int `json:"order" yaml:"order"`
	MinTurns    int   `json:"minTurns" yaml:"min_turns"`
	ExtraTurns  int   `json:"extraTurns" yaml:"extra_turns"`
	position    map[int]int
	segmentSize float64
}

// EuropeanWheel is the 37-pocket roulette wheel.
func EuropeanWheel() *WheelLayout {
	w, _ := NewWheel(europeanOrder, 4, 3)
	return w
}

// UniformWheel numbers n segments 0..n-1 clockwise.
func UniformWheel(n int) (*WheelLayout, error) {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return NewWheel(order, 3, 2)
}

// NewWheel validates the pocket order and turn counts.
func NewWheel(order []int, minTurns, extraTurns int) (*WheelLayout, error) {
	if len(order) < 2 {
		return nil, fmt.Errorf("%w: %d segments", ErrInvalidWheel, len(order))
	}
	if minTurns < 1 || extraTurns < 0 {
		return nil, fmt.Errorf("%w: turns %d+%d", ErrInvalidWheel, minTurns, extraTurns)
	}
	pos := make(map[int]int, len(order))
	for i, idx := range order {
		if _, dup := pos[idx]; dup {
			return nil, fmt.Errorf("%w: result %d appears twice", ErrInvalidWheel, idx)
		}
		pos[idx] = i
	}
	return &WheelLayout{
		Order:       append([]int(nil), order...),
		MinTurns:    minTurns,
		ExtraTurns:  extraTurns,
		position:    pos,
		segmentSize: 360 / float64(len(order)),
	}, nil
}

// Segments is the number of pockets.
func (w *WheelLayout) Segments() int { return len(w.Order) }

// PocketAt returns the result index under the pointer after the wheel has
// turned rotation degrees clockwise.
func (w *WheelLayout) PocketAt(rotation float64) int {
	back := math.Mod(-rotation, 360)
	if back < 0 {
		back += 360
	}
	p := int(math.Round(back/w.segmentSize)) % len(w.Order)
	return w.Order[p]
}

// WheelSpin is the reconstructed motion of one spin.
type WheelSpin struct {
	ResultIndex int     `json:"resultIndex"`
	Position    int     `json:"position"`
	Turns       int     `json:"turns"`
	Offset      float64 `json:"offset"` // degrees from the pocket centre
	Rotation    float64 `json:"rotation"`
	Fallback    bool    `json:"fallback,omitempty"`
}

// Wheel computes the final rotation landing the pointer inside the pocket
// of resultIndex. An unknown result index lands on the first pocket and is
// logged.
func (r *Reconstructor) Wheel(seed string, resultIndex int, w *WheelLayout) WheelSpin {
	g := engine.New(seed)

	spin := WheelSpin{ResultIndex: resultIndex}
	pos, ok := w.position[resultIndex]
	if !ok {
		r.log.Warn("result index not on wheel, using first pocket",
			zap.String("seed", seed),
			zap.Int("result_index", resultIndex))
		spin.Fallback = true
		spin.ResultIndex = w.Order[0]
	}
	spin.Position = pos

	spin.Turns = w.MinTurns
	if w.ExtraTurns > 0 {
		spin.Turns += g.Intn(w.ExtraTurns + 1)
	}
	spin.Offset = (g.Float64() - 0.5) * 0.9 * w.segmentSize

	target := math.Mod(360-float64(pos)*w.segmentSize, 360)
	spin.Rotation = float64(spin.Turns)*360 + target + spin.Offset
	return spin
}
