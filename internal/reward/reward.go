// Package reward computes the composite aesthetic score of a palette.
//
// The score is a weighted sum of independent sub-scores, each in [0, 1]:
// harmony (H), distinctness (D), cohesion (P), role-weight balance (W), WCAG
// contrast (C), novelty against reference palettes (N), semantic relevance to
// a prompt (S) and a learned-aesthetic estimate (L). Inputs that are missing
// or fail degrade the affected sub-score to a neutral value instead of
// failing the whole computation.
package reward

import (
	"errors"
	"fmt"
	"math"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/hueforge/internal/colour"
	"github.com/jmylchreest/hueforge/internal/roles"
)

// DefaultPaletteSize is the K palettes are normalised to when no size is given.
const DefaultPaletteSize = 8

// Components holds the individual sub-scores keyed by component key.
type Components map[string]float64

// Evaluation is the result of scoring a palette from scratch.
type Evaluation struct {
	Palette    *colour.Palette
	Roles      roles.Assignment
	Score      float64
	Components Components
}

// Hex returns the evaluated palette as upper-case hex strings.
func (e *Evaluation) Hex() []string {
	return e.Palette.Hex()
}

// Scorer computes composite rewards. It is immutable after construction and
// safe for concurrent use.
type Scorer struct {
	k          int
	weights    Weights
	predictor  Predictor
	references [][]colour.Lab
	embedder   Embedder
	prompt     []float64
	logger     hclog.Logger
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithPredictor injects the learned-aesthetic predictor. Without one, L is
// Neutral.
func WithPredictor(p Predictor) Option {
	return func(s *Scorer) { s.predictor = p }
}

// WithReferences sets the reference palettes used for novelty.
func WithReferences(refs [][]colour.Lab) Option {
	return func(s *Scorer) { s.references = refs }
}

// WithEmbedder sets the palette embedder used for semantic relevance.
func WithEmbedder(e Embedder) Option {
	return func(s *Scorer) { s.embedder = e }
}

// WithPromptEmbedding sets the target embedding palettes are compared to.
func WithPromptEmbedding(v []float64) Option {
	return func(s *Scorer) { s.prompt = append([]float64(nil), v...) }
}

// WithWeights replaces the default StandardWeights.
func WithWeights(w Weights) Option {
	return func(s *Scorer) { s.weights = w.Clone() }
}

// WithLogger sets the logger used to report recovered failures.
func WithLogger(l hclog.Logger) Option {
	return func(s *Scorer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPaletteSize sets K, the length palettes are normalised to.
func WithPaletteSize(k int) Option {
	return func(s *Scorer) { s.k = k }
}

// NewScorer builds a Scorer. Weights default to StandardWeights and K to
// DefaultPaletteSize.
func NewScorer(opts ...Option) (*Scorer, error) {
	s := &Scorer{
		k:       DefaultPaletteSize,
		weights: StandardWeights(),
		logger:  hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.k < 1 {
		return nil, fmt.Errorf("palette size must be at least 1, got %d", s.k)
	}
	if err := s.weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weights: %w", err)
	}
	return s, nil
}

// PaletteSize returns K.
func (s *Scorer) PaletteSize() int {
	return s.k
}

// Weights returns a copy of the configured weights.
func (s *Scorer) Weights() Weights {
	return s.weights.Clone()
}

// Normalize pads or truncates p to K colours.
func (s *Scorer) Normalize(p *colour.Palette) (*colour.Palette, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p.Normalize(s.k), nil
}

// Evaluate normalises p to K colours, assigns roles and scores it.
func (s *Scorer) Evaluate(p *colour.Palette) (*Evaluation, error) {
	norm, err := s.Normalize(p)
	if err != nil {
		return nil, err
	}
	assignment, err := roles.AssignPalette(norm)
	if err != nil {
		return nil, err
	}
	score, comps := s.score(norm.Lab(), assignment)
	return &Evaluation{
		Palette:    norm,
		Roles:      assignment,
		Score:      score,
		Components: comps,
	}, nil
}

// EvaluateHex parses hex colours and evaluates them.
func (s *Scorer) EvaluateHex(hexes []string) (*Evaluation, error) {
	p, err := colour.ParsePalette(hexes)
	if err != nil {
		return nil, err
	}
	return s.Evaluate(p)
}

// Score normalises p to K colours and scores it under the given roles. The
// roles must index into the normalised palette.
func (s *Scorer) Score(p *colour.Palette, a roles.Assignment) (float64, Components, error) {
	norm, err := s.Normalize(p)
	if err != nil {
		return 0, nil, err
	}
	if err := a.Validate(s.k); err != nil {
		return 0, nil, fmt.Errorf("invalid roles: %w", err)
	}
	score, comps := s.score(norm.Lab(), a)
	return score, comps, nil
}

func (s *Scorer) score(labs []colour.Lab, a roles.Assignment) (float64, Components) {
	comps := Components{
		KeyHarmony:      Harmony(labs),
		KeyDistinctness: Distinctness(labs),
		KeyCohesion:     Cohesion(labs),
		KeyWeight:       WeightBalance(a, len(labs)),
		KeyContrast:     Contrast(labs, a),
		KeyLearned:      s.learned(labs),
	}
	if s.weights.Has(KeyNovelty) {
		comps[KeyNovelty] = Novelty(labs, s.references)
	}
	if s.weights.Has(KeySemantic) {
		comps[KeySemantic] = s.semantic(labs)
	}

	// Fixed key order keeps the float sum reproducible.
	var total float64
	for _, key := range AllKeys {
		if w, ok := s.weights[key]; ok {
			total += w * comps[key]
		}
	}
	return total, comps
}

// learned asks the predictor for L. A missing predictor, an error or a
// non-finite answer all yield Neutral.
func (s *Scorer) learned(labs []colour.Lab) float64 {
	if s.predictor == nil {
		return Neutral
	}
	v, err := s.predictor.Predict(labs)
	if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
		err = fmt.Errorf("%w: non-finite prediction %v", ErrPredictorUnavailable, v)
	}
	if err != nil {
		if !errors.Is(err, ErrPredictorUnavailable) {
			err = fmt.Errorf("%w: %w", ErrPredictorUnavailable, err)
		}
		s.logger.Debug("learned-aesthetic fallback", "value", Neutral, "error", err)
		return Neutral
	}
	return clamp01(v)
}

// semantic compares the palette embedding with the prompt embedding. Missing
// inputs, embedder errors and degenerate vectors yield Neutral.
func (s *Scorer) semantic(labs []colour.Lab) float64 {
	if s.embedder == nil || len(s.prompt) == 0 {
		return Neutral
	}
	v, err := s.embedder.EmbedPalette(labs)
	if err != nil {
		s.logger.Debug("semantic fallback", "value", Neutral, "error", err)
		return Neutral
	}
	sim, ok := CosineSimilarity(v, s.prompt)
	if !ok {
		s.logger.Debug("semantic fallback: degenerate embedding", "value", Neutral, "dims", len(v), "prompt_dims", len(s.prompt))
		return Neutral
	}
	return clamp01(sim)
}
