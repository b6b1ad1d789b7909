// Package roles assigns structural roles (primary, secondary, accent, neutral)
// to the entries of a palette.
package roles

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jmylchreest/hueforge/internal/colour"
)

// Role is the structural classification of a palette entry.
type Role string

const (
	RolePrimary   Role = "primary"
	RoleSecondary Role = "secondary"
	RoleAccent    Role = "accent"
	RoleNeutral   Role = "neutral"
)

// maxPerRole caps the number of secondary and accent entries.
const maxPerRole = 2

// Assignment maps roles to palette indices. Indices absent from every slice
// are neutral.
type Assignment struct {
	Primary   []int `json:"primary"`
	Secondary []int `json:"secondary"`
	Accent    []int `json:"accent"`
}

// Assign classifies a Lab-encoded palette:
//  1. primary is the most chromatic entry (first wins on ties),
//  2. secondary are the two remaining entries furthest from primary in Lab,
//  3. accent are the two still-unassigned entries with the highest chroma,
//  4. everything else is neutral.
func Assign(labs []colour.Lab) (Assignment, error) {
	if len(labs) == 0 {
		return Assignment{}, colour.ErrEmptyPalette
	}

	chroma := make([]float64, len(labs))
	primary := 0
	for i, c := range labs {
		chroma[i] = c.Chroma()
		if chroma[i] > chroma[primary] {
			primary = i
		}
	}

	remaining := make([]int, 0, len(labs)-1)
	for i := range labs {
		if i != primary {
			remaining = append(remaining, i)
		}
	}

	dist := make([]float64, len(labs))
	for _, i := range remaining {
		dist[i] = colour.LabDistance(labs[i], labs[primary])
	}
	secondary := topN(remaining, dist, maxPerRole)

	unassigned := make([]int, 0, len(remaining))
	for _, i := range remaining {
		if !contains(secondary, i) {
			unassigned = append(unassigned, i)
		}
	}
	accent := topN(unassigned, chroma, maxPerRole)

	return Assignment{
		Primary:   []int{primary},
		Secondary: secondary,
		Accent:    accent,
	}, nil
}

// AssignPalette converts the palette to Lab and assigns roles.
func AssignPalette(p *colour.Palette) (Assignment, error) {
	if p == nil {
		return Assignment{}, colour.ErrEmptyPalette
	}
	return Assign(p.Lab())
}

// AssignHex parses hex colours and assigns roles.
func AssignHex(hexes []string) (Assignment, error) {
	p, err := colour.ParsePalette(hexes)
	if err != nil {
		return Assignment{}, err
	}
	return AssignPalette(p)
}

// topN returns up to n candidates ordered by descending key; equal keys keep
// candidate order.
func topN(candidates []int, key []float64, n int) []int {
	sorted := append([]int(nil), candidates...)
	sort.SliceStable(sorted, func(a, b int) bool {
		return key[sorted[a]] > key[sorted[b]]
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func contains(indices []int, i int) bool {
	for _, v := range indices {
		if v == i {
			return true
		}
	}
	return false
}

// RoleOf returns the role of palette index i.
func (a Assignment) RoleOf(i int) Role {
	switch {
	case contains(a.Primary, i):
		return RolePrimary
	case contains(a.Secondary, i):
		return RoleSecondary
	case contains(a.Accent, i):
		return RoleAccent
	default:
		return RoleNeutral
	}
}

// Others returns the secondary indices followed by the accent indices.
func (a Assignment) Others() []int {
	out := make([]int, 0, len(a.Secondary)+len(a.Accent))
	out = append(out, a.Secondary...)
	return append(out, a.Accent...)
}

// Count returns how many indices hold the given role. Neutral is not tracked.
func (a Assignment) Count(r Role) int {
	switch r {
	case RolePrimary:
		return len(a.Primary)
	case RoleSecondary:
		return len(a.Secondary)
	case RoleAccent:
		return len(a.Accent)
	default:
		return 0
	}
}

// Validate checks the structural invariants for a palette of size k.
func (a Assignment) Validate(k int) error {
	if k >= 1 && len(a.Primary) != 1 {
		return fmt.Errorf("primary must hold exactly one index, got %d", len(a.Primary))
	}
	if len(a.Secondary) > maxPerRole || len(a.Accent) > maxPerRole {
		return fmt.Errorf("secondary/accent hold at most %d indices", maxPerRole)
	}

	seen := make(map[int]Role)
	for _, group := range []struct {
		role    Role
		indices []int
	}{
		{RolePrimary, a.Primary},
		{RoleSecondary, a.Secondary},
		{RoleAccent, a.Accent},
	} {
		for _, i := range group.indices {
			if i < 0 || i >= k {
				return fmt.Errorf("%s index %d out of range for %d colours", group.role, i, k)
			}
			if prev, ok := seen[i]; ok {
				return fmt.Errorf("index %d assigned to both %s and %s", i, prev, group.role)
			}
			seen[i] = group.role
		}
	}
	return nil
}

// String renders the assignment as "primary=[0] secondary=[2 3] accent=[1]".
func (a Assignment) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "primary=%v secondary=%v accent=%v", a.Primary, a.Secondary, a.Accent)
	return sb.String()
}
