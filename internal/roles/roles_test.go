package roles

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/jmylchreest/hueforge/internal/colour"
)

func TestAssignScenario(t *testing.T) {
	a, err := AssignHex([]string{"#FF6F61", "#FFD662", "#6B5B95", "#88B04B", "#F7CAC9"})
	if err != nil {
		t.Fatalf("AssignHex() error = %v", err)
	}

	// #FF6F61 has the highest chroma (~64.4); #88B04B and #6B5B95 are the
	// furthest from it; #FFD662 and #F7CAC9 are what remains.
	want := Assignment{
		Primary:   []int{0},
		Secondary: []int{3, 2},
		Accent:    []int{1, 4},
	}
	if !slices.Equal(a.Primary, want.Primary) || !slices.Equal(a.Secondary, want.Secondary) || !slices.Equal(a.Accent, want.Accent) {
		t.Errorf("AssignHex() = %v, want %v", a, want)
	}
}

func TestAssignPrimaryIsMaxChroma(t *testing.T) {
	hexes := []string{"#FF6F61", "#FFD662", "#6B5B95", "#88B04B", "#F7CAC9"}
	p, err := colour.ParsePalette(hexes)
	if err != nil {
		t.Fatal(err)
	}
	labs := p.Lab()

	best := 0
	for i, c := range labs {
		if c.Chroma() > labs[best].Chroma() {
			best = i
		}
	}

	a, err := Assign(labs)
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if a.Primary[0] != best {
		t.Errorf("primary = %d, want %d", a.Primary[0], best)
	}
}

func TestAssignSizes(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for k := 1; k <= 8; k++ {
		labs := make([]colour.Lab, k)
		for i := range labs {
			labs[i] = colour.Lab{
				L: rng.Float64() * 100,
				A: rng.Float64()*255 - 128,
				B: rng.Float64()*255 - 128,
			}
		}

		a, err := Assign(labs)
		if err != nil {
			t.Fatalf("k=%d: Assign() error = %v", k, err)
		}
		if err := a.Validate(k); err != nil {
			t.Errorf("k=%d: %v", k, err)
		}

		wantSecondary := min(2, k-1)
		wantAccent := min(2, max(0, k-1-wantSecondary))
		if len(a.Secondary) != wantSecondary {
			t.Errorf("k=%d: len(secondary) = %d, want %d", k, len(a.Secondary), wantSecondary)
		}
		if len(a.Accent) != wantAccent {
			t.Errorf("k=%d: len(accent) = %d, want %d", k, len(a.Accent), wantAccent)
		}
	}
}

func TestAssignSingleColour(t *testing.T) {
	a, err := Assign([]colour.Lab{{L: 50, A: 10, B: 10}})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if len(a.Primary) != 1 || a.Primary[0] != 0 {
		t.Errorf("primary = %v, want [0]", a.Primary)
	}
	if len(a.Secondary) != 0 || len(a.Accent) != 0 {
		t.Errorf("secondary/accent = %v/%v, want empty", a.Secondary, a.Accent)
	}
}

func TestAssignEmpty(t *testing.T) {
	if _, err := Assign(nil); !errors.Is(err, colour.ErrEmptyPalette) {
		t.Errorf("Assign(nil) error = %v, want ErrEmptyPalette", err)
	}
	if _, err := AssignHex([]string{}); !errors.Is(err, colour.ErrEmptyPalette) {
		t.Errorf("AssignHex([]) error = %v, want ErrEmptyPalette", err)
	}
}

func TestAssignTiesKeepIndexOrder(t *testing.T) {
	// Identical greys: every chroma and distance ties.
	grey := colour.Lab{L: 50}
	a, err := Assign([]colour.Lab{grey, grey, grey, grey, grey, grey})
	if err != nil {
		t.Fatal(err)
	}

	if a.Primary[0] != 0 {
		t.Errorf("primary = %v, want [0]", a.Primary)
	}
	if !slices.Equal(a.Secondary, []int{1, 2}) {
		t.Errorf("secondary = %v, want [1 2]", a.Secondary)
	}
	if !slices.Equal(a.Accent, []int{3, 4}) {
		t.Errorf("accent = %v, want [3 4]", a.Accent)
	}
	if a.RoleOf(5) != RoleNeutral {
		t.Errorf("RoleOf(5) = %s, want neutral", a.RoleOf(5))
	}
}

func TestAssignmentHelpers(t *testing.T) {
	a := Assignment{Primary: []int{2}, Secondary: []int{0, 4}, Accent: []int{1}}

	tests := []struct {
		index int
		want  Role
	}{
		{0, RoleSecondary},
		{1, RoleAccent},
		{2, RolePrimary},
		{3, RoleNeutral},
		{4, RoleSecondary},
	}
	for _, tt := range tests {
		if got := a.RoleOf(tt.index); got != tt.want {
			t.Errorf("RoleOf(%d) = %s, want %s", tt.index, got, tt.want)
		}
	}

	if got := a.Others(); !slices.Equal(got, []int{0, 4, 1}) {
		t.Errorf("Others() = %v, want [0 4 1]", got)
	}
	if a.Count(RoleSecondary) != 2 || a.Count(RoleNeutral) != 0 {
		t.Errorf("Count() returned unexpected values")
	}
}

func TestAssignmentValidate(t *testing.T) {
	tests := []struct {
		name    string
		a       Assignment
		k       int
		wantErr bool
	}{
		{name: "valid", a: Assignment{Primary: []int{0}, Secondary: []int{1}}, k: 3},
		{name: "missing primary", a: Assignment{}, k: 2, wantErr: true},
		{name: "overlap", a: Assignment{Primary: []int{0}, Accent: []int{0}}, k: 2, wantErr: true},
		{name: "out of range", a: Assignment{Primary: []int{5}}, k: 3, wantErr: true},
		{name: "too many secondary", a: Assignment{Primary: []int{0}, Secondary: []int{1, 2, 3}}, k: 4, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.a.Validate(tt.k)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
