package reconstruct

import (
	"math"

	"github.com/MJE43/outcome-engine-go/internal/engine"
)

// Candle is one bar of the price chart.
type Candle struct {
	Open   float64 `json:"open"`
	Close  float64 `json:"close"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume float64 `json:"volume"`
	Red    bool    `json:"red"`
}

// ChartResult is the reconstructed price run of a target-multiplier round.
type ChartResult struct {
	Final   float64  `json:"final"`
	Candles []Candle `json:"candles"`
}

const (
	chartBasePrice  = 100.0
	chartMinCandles = 12
	chartMaxCandles = 120
)

// ChartFinal derives the displayed end multiplier from the result index. A
// win ends at or above target; a loss ends strictly below it.
func ChartFinal(resultIndex int, target float64, won bool) float64 {
	n := float64(((resultIndex%1000)+1000)%1000) / 1000

	if won {
		if n < 0.5 {
			return round2(target + n*target*2)
		}
		return target
	}

	var final float64
	if n < 0.5 {
		final = 1 + n*math.Max(0.5, target-1.5)
	} else {
		limit := math.Min(target, 12)
		exp := 6.0
		switch {
		case n > 0.95:
			exp = 2.8
		case target > 10:
			exp = 5
		}
		final = 1 + math.Pow(n, exp)*(limit-1)
	}
	final = round2(final)
	if final >= target {
		final = math.Max(1, round2(target-0.01))
	}
	return final
}

// Chart reconstructs the chart for a settled round: the final multiplier
// from ChartFinal and a seeded candle path from 1x to it.
func Chart(seed string, resultIndex int, target float64, won bool) ChartResult {
	final := ChartFinal(resultIndex, target, won)
	g := engine.New(engine.Child(seed, "candles"))

	steps := int(final * 10)
	if steps < chartMinCandles {
		steps = chartMinCandles
	}
	if steps > chartMaxCandles {
		steps = chartMaxCandles
	}

	end := chartBasePrice * final
	candles := make([]Candle, steps)
	prev := chartBasePrice
	for i := 0; i < steps; i++ {
		// trend toward the end price with noise that shrinks near the end
		remaining := float64(steps - i)
		trend := (end - prev) / remaining
		noise := (g.Float64() - 0.5) * 1.5 * (remaining / float64(steps)) * math.Max(1, prev/chartBasePrice)
		next := prev + trend + noise
		if i == steps-1 {
			next = end
		}
		if next < 1 {
			next = 1
		}
		c := Candle{
			Open:   prev,
			Close:  next,
			High:   math.Max(prev, next) + g.Float64()*0.5,
			Low:    math.Max(0, math.Min(prev, next)-g.Float64()*0.5),
			Volume: g.Float64() * 100,
			Red:    next < prev,
		}
		candles[i] = c
		prev = next
	}
	return ChartResult{Final: final, Candles: candles}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
