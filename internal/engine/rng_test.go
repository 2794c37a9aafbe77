package engine

import (
	"testing"
)

func TestFloats(t *testing.T) {
	tests := []struct {
		name    string
		seed    string
		count   int
		wantLen int
	}{
		{name: "single float", seed: "test_seed", count: 1, wantLen: 1},
		{name: "multiple floats", seed: "test_seed", count: 64, wantLen: 64},
		{name: "empty seed", seed: "", count: 8, wantLen: 8},
		{name: "unicode seed", seed: "slots:1.5:ab12:3:2.11:ünïcode", count: 8, wantLen: 8},
		{name: "zero count", seed: "test_seed", count: 0, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			floats := Floats(tt.seed, tt.count)

			if len(floats) != tt.wantLen {
				t.Errorf("Floats() returned %d floats, want %d", len(floats), tt.wantLen)
			}

			for i, f := range floats {
				if f < 0 || f >= 1 {
					t.Errorf("Float %d is out of range [0, 1): %f", i, f)
				}
			}
		})
	}
}

func TestFloatsInto(t *testing.T) {
	dst := make([]float64, 10)
	result := FloatsInto(dst, "seed", 5)
	if len(result) != 5 {
		t.Errorf("FloatsInto() returned %d floats, want 5", len(result))
	}
	if &result[0] != &dst[0] {
		t.Error("FloatsInto() should reuse the provided buffer")
	}

	small := make([]float64, 2)
	result2 := FloatsInto(small, "seed", 5)
	if len(result2) != 5 {
		t.Errorf("FloatsInto() with small buffer returned %d floats, want 5", len(result2))
	}

	for i := range result {
		if result[i] != result2[i] {
			t.Errorf("FloatsInto() mismatch at %d: %f != %f", i, result[i], result2[i])
		}
	}
}

func TestDeterminism(t *testing.T) {
	a := Floats("round-42", 100)
	b := Floats("round-42", 100)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different floats at %d: %f != %f", i, a[i], b[i])
		}
	}

	c := Floats("round-43", 100)
	same := 0
	for i := range a {
		if a[i] == c[i] {
			same++
		}
	}
	if same > 2 {
		t.Errorf("adjacent seeds share %d of 100 floats", same)
	}
}

func TestGeneratorMatchesFunctionalContract(t *testing.T) {
	g := New("contract")
	st := Seed("contract")

	for i := 0; i < 50; i++ {
		var f float64
		f, st = Next(st)
		if got := g.Float64(); got != f {
			t.Fatalf("step %d: generator %f, Next %f", i, got, f)
		}
	}
	if g.State() != st {
		t.Errorf("state diverged: %d != %d", g.State(), st)
	}
	if g.Drawn() != 50 {
		t.Errorf("expected 50 draws, got %d", g.Drawn())
	}
}

func TestGeneratorResume(t *testing.T) {
	g := New("resume")
	for i := 0; i < 10; i++ {
		g.Float64()
	}

	resumed := NewFromState(g.State())
	for i := 0; i < 10; i++ {
		if a, b := g.Float64(), resumed.Float64(); a != b {
			t.Fatalf("resumed stream diverged at %d: %f != %f", i, a, b)
		}
	}
}

func TestIntn(t *testing.T) {
	g := New("intn")
	counts := make([]int, 5)
	for i := 0; i < 10000; i++ {
		n := g.Intn(5)
		if n < 0 || n >= 5 {
			t.Fatalf("Intn(5) out of range: %d", n)
		}
		counts[n]++
	}
	for i, c := range counts {
		if c < 1700 || c > 2300 {
			t.Errorf("bucket %d has %d hits, expected roughly 2000", i, c)
		}
	}

	if g.Intn(0) != 0 || g.Intn(-3) != 0 {
		t.Error("Intn with non-positive n should return 0")
	}
}

func TestHashSeedSpread(t *testing.T) {
	seen := make(map[uint32]string)
	for _, s := range []string{"", "a", "b", "ab", "ba", "round:1", "round:2", "round:10"} {
		h := HashSeed(s)
		if prev, ok := seen[h]; ok {
			t.Errorf("HashSeed collision between %q and %q", prev, s)
		}
		seen[h] = s
	}
}

func TestRoundSeedString(t *testing.T) {
	s := RoundSeed{
		GameID:       "slots",
		Wager:        "1.5",
		BetSignature: "ab12cd34",
		ResultIndex:  7,
		Multiplier:   2.11,
		Nonce:        "n1",
	}

	want := "slots:1.5:ab12cd34:7:2.11:n1"
	if got := s.String(); got != want {
		t.Errorf("RoundSeed.String() = %q, want %q", got, want)
	}

	changed := s
	changed.ResultIndex = 8
	if changed.String() == s.String() {
		t.Error("changing the result index should change the seed")
	}

	a := s.Generator().Float64()
	b := New(want).Float64()
	if a != b {
		t.Errorf("RoundSeed.Generator() diverges from New(String()): %f != %f", a, b)
	}
}

func TestChildStreamsAreIndependent(t *testing.T) {
	seed := "slots:1:ab:0:0:n"
	if Child(seed, "pace") != Child(seed, "pace") {
		t.Fatal("Child is not stable")
	}
	pace := Floats(Child(seed, "pace"), 4)
	order := Floats(Child(seed, "order"), 4)
	parent := Floats(seed, 4)
	if pace[0] == order[0] || pace[0] == parent[0] {
		t.Errorf("child streams share draws: %v %v %v", pace, order, parent)
	}
}

func TestHashSeedRawBytes(t *testing.T) {
	if HashSeed("\xff") == HashSeed("\xfe") {
		t.Error("invalid UTF-8 bytes should hash distinctly")
	}
	if HashSeed("\xff\xfe") == HashSeed("\xfe\xff") {
		t.Error("byte order should change the hash")
	}
}
