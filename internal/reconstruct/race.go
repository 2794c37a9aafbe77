package reconstruct

import (
	"fmt"
	"sort"

	"github.com/MJE43/outcome-engine-go/internal/engine"
)

// RaceResult is the reconstructed finish of a race. Order[0] is the winner;
// Times holds each runner's finishing time in seconds, indexed by runner.
type RaceResult struct {
	Winner int       `json:"winner"`
	Order  []int     `json:"order"`
	Times  []float64 `json:"times"`
}

const (
	raceBaseTime  = 58.0
	raceSpread    = 6.0
	raceMinMargin = 0.05
	raceMaxMargin = 0.8
)

// Race builds a finishing order for a settled winner. The other runners get
// seeded times; the winner finishes a seeded margin ahead of the fastest.
func Race(seed string, winner, runners int) (RaceResult, error) {
	if runners < 2 {
		return RaceResult{}, fmt.Errorf("%w: %d runners", ErrInvalidRace, runners)
	}
	if winner < 0 || winner >= runners {
		return RaceResult{}, fmt.Errorf("%w: winner %d of %d", ErrInvalidRace, winner, runners)
	}

	g := engine.New(seed)
	times := make([]float64, runners)
	fastest := raceBaseTime + raceSpread
	for i := range times {
		if i == winner {
			continue
		}
		times[i] = raceBaseTime + g.Float64()*raceSpread
		if times[i] < fastest {
			fastest = times[i]
		}
	}
	times[winner] = fastest - (raceMinMargin + g.Float64()*(raceMaxMargin-raceMinMargin))

	order := make([]int, runners)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return times[order[a]] < times[order[b]] })

	return RaceResult{Winner: winner, Order: order, Times: times}, nil
}
