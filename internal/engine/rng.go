package engine

// State is the full state of a mulberry32 stream. It is a plain value so a
// stream can be checkpointed, copied and resumed without shared memory.
type State uint32

// HashSeed folds an arbitrary string into a 32-bit seed using a
// multiplicative string hash followed by an avalanche mix so that short
// seeds differing in one character land far apart. The hash runs over the
// raw bytes, so distinct byte strings, invalid UTF-8 included, fold
// distinctly. Total over all inputs, including the empty string.
func HashSeed(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*31 + uint32(s[i])
	}

	// murmur3 finalizer
	h ^= h >> 16
	h *= 0x85EBCA6B
	h ^= h >> 13
	h *= 0xC2B2AE35
	h ^= h >> 16
	return h
}

// Seed returns the initial generator state for a string seed.
func Seed(s string) State {
	return State(HashSeed(s))
}

// Next advances the state by one step and returns a float in [0, 1)
// together with the new state.
func Next(st State) (float64, State) {
	next, v := mix(st)
	return float64(v) / 4294967296.0, next
}

// mix is one mulberry32 step with the JS reference constants. A browser
// replays a board from the same seed string as long as the seed is ASCII,
// where UTF-16 code units and bytes coincide.
func mix(st State) (State, uint32) {
	s := uint32(st) + 0x6D2B79F5
	t := s
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return State(s), t ^ (t >> 14)
}

// Generator is a mutable convenience wrapper around State.
// It is not safe for concurrent use; give every round its own Generator.
type Generator struct {
	state State
	drawn uint64
}

// New creates a generator seeded from a string.
func New(seed string) *Generator {
	return &Generator{state: Seed(seed)}
}

// NewFromState resumes a generator from a previously captured state.
func NewFromState(st State) *Generator {
	return &Generator{state: st}
}

// Uint32 returns the next raw 32-bit output.
func (g *Generator) Uint32() uint32 {
	var v uint32
	g.state, v = mix(g.state)
	g.drawn++
	return v
}

// Float64 returns the next float in [0, 1).
func (g *Generator) Float64() float64 {
	return float64(g.Uint32()) / 4294967296.0
}

// Intn returns an index in [0, n) using the same floor(f*n) selection the
// Fisher-Yates boards use. n <= 0 returns 0.
func (g *Generator) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	idx := int(g.Float64() * float64(n))
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// State returns the current state. Resuming from it continues the stream.
func (g *Generator) State() State {
	return g.state
}

// Drawn reports how many values have been produced so far.
func (g *Generator) Drawn() uint64 {
	return g.drawn
}

// Floats generates count floats from the start of the stream for seed.
func Floats(seed string, count int) []float64 {
	return FloatsInto(nil, seed, count)
}

// FloatsInto fills dst with floats, avoiding allocation when dst is large enough.
func FloatsInto(dst []float64, seed string, count int) []float64 {
	if count <= 0 {
		return dst[:0]
	}
	if cap(dst) < count {
		dst = make([]float64, count)
	}
	dst = dst[:count]

	st := Seed(seed)
	for i := 0; i < count; i++ {
		dst[i], st = Next(st)
	}
	return dst
}
