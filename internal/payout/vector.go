package payout

import (
	"fmt"
	"hash/fnv"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

const (
	// DefaultHouseFactor is applied to a requested target multiplier.
	DefaultHouseFactor = 0.95
	// DefaultRTPCeiling bounds the mean of every offered vector.
	DefaultRTPCeiling = 0.97
	// DefaultMaxLength guards against absurd targets allocating huge vectors.
	DefaultMaxLength = 100_000

	rtpTolerance = 1e-9
)

// Vector holds one multiplier per result slot. Once submitted to settlement
// it must not be modified; builders always return a fresh slice.
type Vector []float64

// Len returns the number of result slots.
func (v Vector) Len() int { return len(v) }

// Sum returns the total of all multipliers.
func (v Vector) Sum() float64 {
	var s float64
	for _, m := range v {
		s += m
	}
	return s
}

// Mean returns the expected multiplier of a uniformly drawn slot.
func (v Vector) Mean() float64 {
	if len(v) == 0 {
		return 0
	}
	return v.Sum() / float64(len(v))
}

// Max returns the largest multiplier in the vector.
func (v Vector) Max() float64 {
	var m float64
	for _, x := range v {
		if x > m {
			m = x
		}
	}
	return m
}

// NonZero counts the paying slots.
func (v Vector) NonZero() int {
	n := 0
	for _, x := range v {
		if x > 0 {
			n++
		}
	}
	return n
}

// Clone returns an independent copy.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Signature returns a short stable fingerprint of the vector used when
// composing round seeds.
func Signature(v Vector) string {
	h := fnv.New64a()
	var buf []byte
	for i, m := range v {
		if i > 0 {
			buf = append(buf[:0], ',')
			h.Write(buf)
		}
		buf = strconv.AppendFloat(buf[:0], m, 'f', -1, 64)
		h.Write(buf)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

type options struct {
	houseFactor decimal.Decimal
	rtpCeiling  decimal.Decimal
	maxLength   int64
}

// Option customises Target.
type Option func(*options)

// WithHouseFactor overrides the multiplier applied to the requested target.
func WithHouseFactor(f float64) Option {
	return func(o *options) { o.houseFactor = decimal.NewFromFloat(f) }
}

// WithRTPCeiling overrides the maximum allowed vector mean.
func WithRTPCeiling(c float64) Option {
	return func(o *options) { o.rtpCeiling = decimal.NewFromFloat(c) }
}

// WithMaxLength overrides the maximum vector length.
func WithMaxLength(n int) Option {
	return func(o *options) { o.maxLength = int64(n) }
}

// Target builds the vector for a pick-a-multiplier game. The requested target
// is scaled by the house factor; the result is repeated 1, 2 or 4 times so
// quarter and half fractions stay exact, then zero padded to the shortest
// length whose mean stays under the RTP ceiling.
func Target(target float64, opts ...Option) (Vector, error) {
	o := options{
		houseFactor: decimal.NewFromFloat(DefaultHouseFactor),
		rtpCeiling:  decimal.NewFromFloat(DefaultRTPCeiling),
		maxLength:   DefaultMaxLength,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if math.IsNaN(target) || math.IsInf(target, 0) {
		return nil, fmt.Errorf("%w: target %v is not finite", ErrDegenerateVector, target)
	}
	if !o.rtpCeiling.IsPositive() || o.rtpCeiling.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: rtp ceiling %s outside (0, 1]", ErrDegenerateVector, o.rtpCeiling)
	}

	adjusted := decimal.NewFromFloat(target).Mul(o.houseFactor)
	if adjusted.LessThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: adjusted multiplier %s below 1", ErrDegenerateVector, adjusted)
	}

	repeat := repeatFor(adjusted)
	total := adjusted.Mul(decimal.NewFromInt(repeat))
	length := total.Div(o.rtpCeiling).Ceil().IntPart()
	if length < repeat {
		length = repeat
	}
	if length > o.maxLength {
		return nil, fmt.Errorf("%w: %d slots for target %v", ErrVectorTooLong, length, target)
	}

	m := adjusted.InexactFloat64()
	v := make(Vector, length)
	for i := int64(0); i < repeat; i++ {
		v[i] = m
	}
	return v, nil
}

// AdjustedTarget returns the multiplier actually paid for a requested target.
func AdjustedTarget(target, houseFactor float64) float64 {
	return decimal.NewFromFloat(target).Mul(decimal.NewFromFloat(houseFactor)).InexactFloat64()
}

func repeatFor(adjusted decimal.Decimal) int64 {
	frac := adjusted.Sub(adjusted.Floor()).Round(2)
	switch {
	case frac.Equal(decimal.RequireFromString("0.25")), frac.Equal(decimal.RequireFromString("0.75")):
		return 4
	case frac.Equal(decimal.RequireFromString("0.5")):
		return 2
	default:
		return 1
	}
}

// Limits are the checks applied before a vector is offered.
type Limits struct {
	RTPCeiling float64
	Wager      decimal.Decimal
	MaxPayout  decimal.Decimal
}

// Validate rejects vectors that must never be offered. The pool cap is only
// checked when a positive wager is supplied.
func Validate(v Vector, l Limits) error {
	if len(v) == 0 {
		return ErrEmptyVector
	}
	for i, m := range v {
		if m < 0 || math.IsNaN(m) || math.IsInf(m, 0) {
			return fmt.Errorf("%w: slot %d = %v", ErrNegativeMultiplier, i, m)
		}
	}
	if v.NonZero() == 0 {
		return ErrAllZero
	}

	ceiling := l.RTPCeiling
	if ceiling <= 0 {
		ceiling = DefaultRTPCeiling
	}
	if mean := v.Mean(); mean > ceiling+rtpTolerance {
		return fmt.Errorf("%w: mean %.6f > %.4f", ErrRTPExceeded, mean, ceiling)
	}

	if l.Wager.IsPositive() {
		maxWin := decimal.NewFromFloat(v.Max()).Mul(l.Wager)
		if maxWin.GreaterThan(l.MaxPayout) {
			return fmt.Errorf("%w: %s > %s", ErrExceedsPoolCap, maxWin.StringFixed(6), l.MaxPayout)
		}
	}
	return nil
}
