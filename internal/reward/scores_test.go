package reward

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/jmylchreest/hueforge/internal/colour"
	"github.com/jmylchreest/hueforge/internal/roles"
)

func randomLabs(rng *rand.Rand, k int) []colour.Lab {
	labs := make([]colour.Lab, k)
	for i := range labs {
		labs[i] = colour.Lab{
			L: rng.Float64() * 100,
			A: rng.Float64()*255 - 128,
			B: rng.Float64()*255 - 128,
		}
	}
	return labs
}

func TestHarmony(t *testing.T) {
	tests := []struct {
		name string
		labs []colour.Lab
		want float64
	}{
		{name: "single colour", labs: []colour.Lab{{L: 50, A: 10}}, want: Neutral},
		{name: "empty", labs: nil, want: Neutral},
		{name: "identical hues", labs: []colour.Lab{{L: 50, A: 10}, {L: 70, A: 40}}, want: 0},
		{name: "opposite hues", labs: []colour.Lab{{L: 50, A: 10}, {L: 50, A: -10}}, want: 1},
		// 65 degrees apart sits midway in the [20, 110] window.
		{name: "mid window", labs: []colour.Lab{{L: 50, A: 10}, {L: 50, A: 10 * math.Cos(65*math.Pi/180), B: 10 * math.Sin(65*math.Pi/180)}}, want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Harmony(tt.labs); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Harmony() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHarmonyWrapAround(t *testing.T) {
	// 350 and 10 degrees are 20 apart, the bottom of the window.
	rad := func(d float64) (float64, float64) { return 10 * math.Cos(d*math.Pi/180), 10 * math.Sin(d*math.Pi/180) }
	a1, b1 := rad(350)
	a2, b2 := rad(10)
	got := Harmony([]colour.Lab{{L: 50, A: a1, B: b1}, {L: 50, A: a2, B: b2}})
	if got > 1e-9 {
		t.Errorf("Harmony() = %v, want 0", got)
	}
}

func TestDistinctness(t *testing.T) {
	tests := []struct {
		name string
		labs []colour.Lab
		want float64
	}{
		{name: "single colour", labs: []colour.Lab{{L: 50}}, want: 0},
		{name: "below window", labs: []colour.Lab{{L: 50}, {L: 53}}, want: 0},
		{name: "mid window", labs: []colour.Lab{{L: 50}, {L: 73}}, want: 0.5},
		{name: "above window", labs: []colour.Lab{{L: 0}, {L: 100}}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distinctness(tt.labs); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Distinctness() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCohesion(t *testing.T) {
	// Two colours 20 apart in a,b: matrix mean is (0+20+20+0)/4 = 10.
	got := Cohesion([]colour.Lab{{L: 10, A: 0, B: 0}, {L: 90, A: 12, B: 16}})
	if want := math.Exp(-0.5); math.Abs(got-want) > 1e-12 {
		t.Errorf("Cohesion() = %v, want %v", got, want)
	}

	// L does not matter.
	if got := Cohesion([]colour.Lab{{L: 0}, {L: 100}}); got != 1 {
		t.Errorf("Cohesion(achromatic) = %v, want 1", got)
	}
}

func TestCohesionNonIncreasingInSpread(t *testing.T) {
	prev := math.Inf(1)
	for spread := 0.0; spread <= 120; spread += 10 {
		labs := []colour.Lab{{L: 50, A: -spread / 2}, {L: 50, A: spread / 2}, {L: 50}}
		got := Cohesion(labs)
		if got > prev {
			t.Errorf("Cohesion increased at spread %v: %v > %v", spread, got, prev)
		}
		prev = got
	}
}

func TestWeightBalance(t *testing.T) {
	tests := []struct {
		name string
		a    roles.Assignment
		k    int
		want float64
	}{
		{
			name: "five colours",
			a:    roles.Assignment{Primary: []int{0}, Secondary: []int{1, 2}, Accent: []int{3, 4}},
			k:    5,
			// (1-0.4) + (1-0.15) + (1-0.25) over 3
			want: (0.6 + 0.85 + 0.75) / 3,
		},
		{
			name: "single colour",
			a:    roles.Assignment{Primary: []int{0}},
			k:    1,
			want: (0.6 + 0.75 + 0.85) / 3,
		},
		{name: "zero size", a: roles.Assignment{}, k: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeightBalance(tt.a, tt.k); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("WeightBalance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContrast(t *testing.T) {
	black := colour.RGBToLab(colour.RGB{})
	white := colour.RGBToLab(colour.RGB{R: 255, G: 255, B: 255})

	tests := []struct {
		name string
		labs []colour.Lab
		a    roles.Assignment
		want float64
	}{
		{name: "no primary", labs: []colour.Lab{black}, a: roles.Assignment{}, want: Neutral},
		{name: "no others", labs: []colour.Lab{black}, a: roles.Assignment{Primary: []int{0}}, want: 1},
		{
			name: "black and white",
			labs: []colour.Lab{black, white},
			a:    roles.Assignment{Primary: []int{0}, Secondary: []int{1}},
			want: ContrastLogistic(21),
		},
		{
			name: "same colour",
			labs: []colour.Lab{white, white},
			a:    roles.Assignment{Primary: []int{0}, Accent: []int{1}},
			want: ContrastLogistic(1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Contrast(tt.labs, tt.a); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Contrast() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContrastLogisticMonotone(t *testing.T) {
	if got := ContrastLogistic(4.5); got != 0.5 {
		t.Errorf("ContrastLogistic(4.5) = %v, want 0.5", got)
	}
	prev := -1.0
	for r := 1.0; r <= 21; r += 0.25 {
		got := ContrastLogistic(r)
		if got < prev {
			t.Errorf("ContrastLogistic decreased at %v", r)
		}
		prev = got
	}
}

func TestNovelty(t *testing.T) {
	labs := []colour.Lab{{L: 50}, {L: 60}}

	if got := Novelty(labs, nil); got != Neutral {
		t.Errorf("Novelty(no refs) = %v, want %v", got, Neutral)
	}

	refs := [][]colour.Lab{
		{{L: 0}, {L: 10}},  // mean distance 50 -> 1
		{{L: 40}, {L: 50}}, // mean distance 10 -> 0.2
	}
	if got := Novelty(labs, refs); math.Abs(got-0.2) > 1e-12 {
		t.Errorf("Novelty() = %v, want 0.2", got)
	}

	if got := Novelty(labs, [][]colour.Lab{{{L: 50}, {L: 60}}}); got != 0 {
		t.Errorf("Novelty(identical ref) = %v, want 0", got)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name   string
		a, b   []float64
		want   float64
		wantOK bool
	}{
		{name: "parallel", a: []float64{1, 2}, b: []float64{2, 4}, want: 1, wantOK: true},
		{name: "orthogonal", a: []float64{1, 0}, b: []float64{0, 3}, want: 0, wantOK: true},
		{name: "opposite", a: []float64{1, 0}, b: []float64{-1, 0}, want: -1, wantOK: true},
		{name: "length mismatch", a: []float64{1}, b: []float64{1, 2}},
		{name: "zero vector", a: []float64{0, 0}, b: []float64{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CosineSimilarity(tt.a, tt.b)
			if ok != tt.wantOK {
				t.Fatalf("CosineSimilarity() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubScoresInRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for trial := 0; trial < 200; trial++ {
		k := 1 + rng.IntN(8)
		labs := randomLabs(rng, k)
		a, err := roles.Assign(labs)
		if err != nil {
			t.Fatal(err)
		}
		refs := [][]colour.Lab{randomLabs(rng, k), randomLabs(rng, k)}

		for name, v := range map[string]float64{
			"H": Harmony(labs),
			"D": Distinctness(labs),
			"P": Cohesion(labs),
			"W": WeightBalance(a, k),
			"C": Contrast(labs, a),
			"N": Novelty(labs, refs),
		} {
			if v < 0 || v > 1 || math.IsNaN(v) {
				t.Fatalf("trial %d: %s = %v outside [0,1]", trial, name, v)
			}
		}
	}
}
