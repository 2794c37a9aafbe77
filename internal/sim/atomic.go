package sim

import (
	"math"
	"sync/atomic"
)

func addFloat(bits *atomic.Uint64, delta float64) {
	for {
		old := bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if bits.CompareAndSwap(old, next) {
			return
		}
	}
}

func floatFromBits(b uint64) float64 { return math.Float64frombits(b) }
