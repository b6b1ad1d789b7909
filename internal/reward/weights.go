package reward

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Component keys.
const (
	KeyHarmony      = "H"
	KeyDistinctness = "D"
	KeyCohesion     = "P"
	KeyWeight       = "W"
	KeyContrast     = "C"
	KeyNovelty      = "N"
	KeySemantic     = "S"
	KeyLearned      = "L"
)

// AllKeys lists every component key in display order.
var AllKeys = []string{
	KeyHarmony, KeyContrast, KeyDistinctness, KeyWeight,
	KeySemantic, KeyNovelty, KeyCohesion, KeyLearned,
}

var componentNames = map[string]string{
	KeyHarmony:      "harmony",
	KeyDistinctness: "distinctness",
	KeyCohesion:     "cohesion",
	KeyWeight:       "role balance",
	KeyContrast:     "contrast",
	KeyNovelty:      "novelty",
	KeySemantic:     "semantic",
	KeyLearned:      "learned",
}

// ComponentName returns the long name of a component key, or the key itself
// when unknown.
func ComponentName(key string) string {
	if n, ok := componentNames[key]; ok {
		return n
	}
	return key
}

// Preset names accepted by PresetWeights.
const (
	PresetStandard = "standard"
	PresetExtended = "extended"
)

// Weights maps component keys to their coefficient in the reward sum. The
// coefficients are used as given; they need not sum to one.
type Weights map[string]float64

// StandardWeights returns the six-term preset. It is the default.
func StandardWeights() Weights {
	return Weights{
		KeyHarmony:      0.25,
		KeyContrast:     0.25,
		KeyDistinctness: 0.2,
		KeyWeight:       0.1,
		KeyCohesion:     0.1,
		KeyLearned:      0.1,
	}
}

// ExtendedWeights returns the eight-term preset that adds novelty and
// semantic relevance.
func ExtendedWeights() Weights {
	return Weights{
		KeyHarmony:      0.2,
		KeyContrast:     0.25,
		KeyDistinctness: 0.15,
		KeyWeight:       0.15,
		KeySemantic:     0.05,
		KeyNovelty:      0.1,
		KeyCohesion:     0.05,
		KeyLearned:      0.05,
	}
}

// PresetWeights returns the named preset.
func PresetWeights(name string) (Weights, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PresetStandard:
		return StandardWeights(), nil
	case PresetExtended:
		return ExtendedWeights(), nil
	default:
		return nil, fmt.Errorf("unknown weight preset %q (valid: %s, %s)", name, PresetStandard, PresetExtended)
	}
}

// ParseWeights parses a comma-separated "KEY=value" list, e.g. "H=0.3,C=0.3,L=0.4".
func ParseWeights(s string) (Weights, error) {
	w := make(Weights)
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid weight %q: expected KEY=value", part)
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", part, err)
		}
		w[key] = v
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// Validate checks that every key is known and every coefficient is a finite,
// non-negative number.
func (w Weights) Validate() error {
	if len(w) == 0 {
		return fmt.Errorf("weights are empty")
	}
	for key, v := range w {
		if !slices.Contains(AllKeys, key) {
			return fmt.Errorf("unknown component %q", key)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight %s is not finite", key)
		}
		if v < 0 {
			return fmt.Errorf("weight %s is negative: %v", key, v)
		}
	}
	return nil
}

// Has reports whether the weights reference the component key.
func (w Weights) Has(key string) bool {
	_, ok := w[key]
	return ok
}

// Clone returns a copy.
func (w Weights) Clone() Weights {
	return maps.Clone(w)
}

// String renders the weights in AllKeys order.
func (w Weights) String() string {
	parts := make([]string, 0, len(w))
	for _, key := range AllKeys {
		if v, ok := w[key]; ok {
			parts = append(parts, fmt.Sprintf("%s=%g", key, v))
		}
	}
	return strings.Join(parts, ",")
}
