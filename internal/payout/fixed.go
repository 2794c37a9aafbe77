package payout

import (
	"fmt"
	"sort"
)

// Mode is a fixed-vector game choice such as double-or-nothing "3x".
type Mode struct {
	Label  string   `json:"label" yaml:"label"`
	Bet    Vector   `json:"bet" yaml:"bet"`
	Labels []string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// DoubleOrNothingModes are the three stock modes, 5% under fair odds.
var DoubleOrNothingModes = []Mode{
	{Label: "2x", Bet: Vector{1.9, 0}, Labels: []string{"Double!", "Nothing"}},
	{Label: "3x", Bet: Vector{0, 0, 2.85}, Labels: []string{"Triple!", "Nothing"}},
	{Label: "10x", Bet: Vector{0, 0, 0, 0, 0, 0, 0, 0, 0, 9.5}, Labels: []string{"Degen!", "Nothing"}},
}

// FindMode returns a copy of the vector for the labelled mode.
func FindMode(modes []Mode, label string) (Vector, error) {
	for _, m := range modes {
		if m.Label == label {
			return m.Bet.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMode, label)
}

// RollUnder builds a 100-slot dice vector winning on results below n.
func RollUnder(n int, rtp float64) (Vector, error) {
	const outcomes = 100
	if n <= 0 || n >= outcomes {
		return nil, fmt.Errorf("%w: roll under %d", ErrDegenerateVector, n)
	}
	m := float64(outcomes) / float64(n) * rtp
	v := make(Vector, outcomes)
	for i := 0; i < n; i++ {
		v[i] = m
	}
	return v, nil
}

// European single-zero roulette layout.
const rouletteNumbers = 37

var rouletteRed = []int{1, 3, 5, 7, 9, 12, 14, 16, 18, 19, 21, 23, 25, 27, 30, 32, 34, 36}

// rouletteBets maps an outside bet to the numbers it covers.
var rouletteBets = map[string]func() []int{
	"red":     func() []int { return append([]int(nil), rouletteRed...) },
	"black":   rouletteBlack,
	"odd":     func() []int { return rouletteStep(1, 36, 2) },
	"even":    func() []int { return rouletteStep(2, 36, 2) },
	"low":     func() []int { return rouletteStep(1, 18, 1) },
	"high":    func() []int { return rouletteStep(19, 36, 1) },
	"dozen1":  func() []int { return rouletteStep(1, 12, 1) },
	"dozen2":  func() []int { return rouletteStep(13, 24, 1) },
	"dozen3":  func() []int { return rouletteStep(25, 36, 1) },
	"column1": func() []int { return rouletteStep(1, 34, 3) },
	"column2": func() []int { return rouletteStep(2, 35, 3) },
	"column3": func() []int { return rouletteStep(3, 36, 3) },
}

// rouletteInside lists the inside bets and how many numbers each must name.
var rouletteInside = map[string]int{
	"straight": 1,
	"split":    2,
	"street":   3,
	"corner":   4,
	"sixline":  6,
}

func rouletteStep(from, to, step int) []int {
	out := make([]int, 0, (to-from)/step+1)
	for i := from; i <= to; i += step {
		out = append(out, i)
	}
	return out
}

func rouletteBlack() []int {
	red := make(map[int]bool, len(rouletteRed))
	for _, n := range rouletteRed {
		red[n] = true
	}
	out := make([]int, 0, 18)
	for i := 1; i <= 36; i++ {
		if !red[i] {
			out = append(out, i)
		}
	}
	return out
}

// RouletteBetTypes lists the supported bet types in stable order.
func RouletteBetTypes() []string {
	out := make([]string, 0, len(rouletteBets)+len(rouletteInside))
	for k := range rouletteBets {
		out = append(out, k)
	}
	for k := range rouletteInside {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Roulette builds the 37-slot vector for a bet. Inside bets take the covered
// numbers explicitly; outside bets ignore numbers. Every covered pocket pays
// (37 / coverage) * rtp, stake included.
func Roulette(betType string, numbers []int, rtp float64) (Vector, error) {
	var covered []int
	if gen, ok := rouletteBets[betType]; ok {
		covered = gen()
	} else if want, ok := rouletteInside[betType]; ok {
		if len(numbers) != want {
			return nil, fmt.Errorf("%w: %s needs %d numbers, got %d", ErrDegenerateVector, betType, want, len(numbers))
		}
		seen := make(map[int]bool, len(numbers))
		for _, n := range numbers {
			if n < 0 || n >= rouletteNumbers || seen[n] {
				return nil, fmt.Errorf("%w: invalid number %d for %s", ErrDegenerateVector, n, betType)
			}
			seen[n] = true
		}
		covered = numbers
	} else {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBetType, betType)
	}

	m := float64(rouletteNumbers) / float64(len(covered)) * rtp
	v := make(Vector, rouletteNumbers)
	for _, n := range covered {
		v[n] = m
	}
	return v, nil
}

// PickOne builds the vector of a pick-one-of-n game such as a race: slot i
// is outcome i, and only the picked one pays n * rtp.
func PickOne(n, pick int, rtp float64) (Vector, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: %d outcomes", ErrDegenerateVector, n)
	}
	if pick < 0 || pick >= n {
		return nil, fmt.Errorf("%w: pick %d of %d", ErrDegenerateVector, pick, n)
	}
	v := make(Vector, n)
	v[pick] = float64(n) * rtp
	return v, nil
}
