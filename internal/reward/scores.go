package reward

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/jmylchreest/hueforge/internal/colour"
	"github.com/jmylchreest/hueforge/internal/roles"
)

// Neutral is the fallback value for sub-scores whose inputs are unavailable.
const Neutral = 0.5

// Scoring windows.
const (
	harmonyLow       = 20.0
	harmonyHigh      = 110.0
	distinctLow      = 6.0
	distinctHigh     = 40.0
	cohesionScale    = 20.0
	noveltyScale     = 50.0
	contrastMidpoint = 4.5
	contrastSlope    = 1.5
)

// Target share of the palette per role.
var roleTargets = []struct {
	role   roles.Role
	target float64
}{
	{roles.RolePrimary, 0.6},
	{roles.RoleSecondary, 0.25},
	{roles.RoleAccent, 0.15},
}

// Harmony maps the mean pairwise hue difference from [20°, 110°] onto [0, 1].
// Fewer than two colours score Neutral.
func Harmony(labs []colour.Lab) float64 {
	if len(labs) < 2 {
		return Neutral
	}
	diffs := make([]float64, 0, len(labs)*(len(labs)-1)/2)
	for i := range labs {
		for j := i + 1; j < len(labs); j++ {
			diffs = append(diffs, colour.HueDistance(labs[i].Hue(), labs[j].Hue()))
		}
	}
	return window(stat.Mean(diffs, nil), harmonyLow, harmonyHigh)
}

// Distinctness maps the mean pairwise Lab distance from [6, 40] onto [0, 1].
// Fewer than two colours score 0.
func Distinctness(labs []colour.Lab) float64 {
	if len(labs) < 2 {
		return 0
	}
	dists := make([]float64, 0, len(labs)*(len(labs)-1)/2)
	for i := range labs {
		for j := i + 1; j < len(labs); j++ {
			dists = append(dists, colour.LabDistance(labs[i], labs[j]))
		}
	}
	return window(stat.Mean(dists, nil), distinctLow, distinctHigh)
}

// Cohesion is exp(-m/20), where m is the mean of the full K×K distance matrix
// in the a,b plane, zero diagonal included. It decreases as chroma spreads.
func Cohesion(labs []colour.Lab) float64 {
	if len(labs) == 0 {
		return 1
	}
	var sum float64
	for i := range labs {
		for j := range labs {
			sum += math.Hypot(labs[i].A-labs[j].A, labs[i].B-labs[j].B)
		}
	}
	mean := sum / float64(len(labs)*len(labs))
	return clamp01(math.Exp(-mean / cohesionScale))
}

// WeightBalance compares each role's share of the k-colour palette with its
// target and averages max(0, 1-|share-target|) over the three roles.
func WeightBalance(a roles.Assignment, k int) float64 {
	if k <= 0 {
		return 0
	}
	var score float64
	for _, rt := range roleTargets {
		share := float64(a.Count(rt.role)) / float64(k)
		score += math.Max(0, 1-math.Abs(share-rt.target))
	}
	return clamp01(score / float64(len(roleTargets)))
}

// ContrastLogistic maps a WCAG contrast ratio through 1/(1+exp(-1.5(r-4.5))).
func ContrastLogistic(ratio float64) float64 {
	return 1 / (1 + math.Exp(-contrastSlope*(ratio-contrastMidpoint)))
}

// Contrast averages ContrastLogistic over the primary paired with each
// secondary and accent colour. Without a primary it returns Neutral; with a
// primary but no other roles it returns 1.
func Contrast(labs []colour.Lab, a roles.Assignment) float64 {
	if len(a.Primary) == 0 {
		return Neutral
	}
	others := a.Others()
	if len(others) == 0 {
		return 1
	}

	primary := colour.LabToRGB(labs[a.Primary[0]])
	scores := make([]float64, len(others))
	for i, idx := range others {
		ratio := colour.ContrastRatioRGB(primary, colour.LabToRGB(labs[idx]))
		scores[i] = ContrastLogistic(ratio)
	}
	return clamp01(stat.Mean(scores, nil))
}

// Novelty is the smallest mean per-colour Lab distance between the palette
// and any reference palette, divided by 50. Without references it returns
// Neutral. References shorter than the palette are compared on their common
// prefix.
func Novelty(labs []colour.Lab, references [][]colour.Lab) float64 {
	best := math.Inf(1)
	for _, ref := range references {
		n := min(len(ref), len(labs))
		if n == 0 {
			continue
		}
		var sum float64
		for i := 0; i < n; i++ {
			sum += colour.LabDistance(labs[i], ref[i])
		}
		best = math.Min(best, sum/float64(n))
	}
	if math.IsInf(best, 1) {
		return Neutral
	}
	return clamp01(best / noveltyScale)
}

// CosineSimilarity returns the cosine of the angle between two vectors. The
// second result is false when the vectors differ in length or either has zero
// norm.
func CosineSimilarity(a, b []float64) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0, false
	}
	return floats.Dot(a, b) / (na * nb), true
}

// window linearly maps v from [lo, hi] onto [0, 1], clamped.
func window(v, lo, hi float64) float64 {
	return clamp01((v - lo) / (hi - lo))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
