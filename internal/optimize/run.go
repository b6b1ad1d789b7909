// Package optimize searches for palettes that maximise the composite reward.
//
// Two strategies are provided: a greedy stochastic hill-climber and a
// REINFORCE policy-gradient optimiser. Both are deterministic for a given
// seed, initial palette, budget and predictor, independent of Parallelism.
package optimize

import (
	"context"
	"fmt"

	"github.com/jmylchreest/hueforge/internal/colour"
	"github.com/jmylchreest/hueforge/internal/reward"
)

// Strategy is a palette search algorithm.
type Strategy interface {
	Name() string
	Optimize(ctx context.Context, scorer *reward.Scorer, initial *colour.Palette) (*Result, error)
}

// Config bundles everything Run needs: the strategy, its budget and the
// inputs of the reward function. Zero values select defaults.
type Config struct {
	// Strategy is StrategyHillClimb (default) or StrategyPolicy.
	Strategy string
	// Options overrides the strategy's defaults when non-nil.
	Options *Options

	PaletteSize     int
	Weights         reward.Weights
	Predictor       reward.Predictor
	References      [][]colour.Lab
	Embedder        reward.Embedder
	PromptEmbedding []float64
}

// NewStrategy returns the named strategy configured with opts.
func NewStrategy(name string, opts Options) (Strategy, error) {
	switch name {
	case StrategyHillClimb:
		return NewHillClimber(opts), nil
	case StrategyPolicy:
		return NewPolicyGradient(opts), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (valid: %s, %s)", name, StrategyHillClimb, StrategyPolicy)
	}
}

// NewScorer builds the scorer described by cfg.
func (cfg Config) NewScorer() (*reward.Scorer, error) {
	opts := []reward.Option{
		reward.WithPredictor(cfg.Predictor),
		reward.WithReferences(cfg.References),
		reward.WithEmbedder(cfg.Embedder),
		reward.WithPromptEmbedding(cfg.PromptEmbedding),
	}
	if cfg.PaletteSize > 0 {
		opts = append(opts, reward.WithPaletteSize(cfg.PaletteSize))
	}
	if cfg.Weights != nil {
		opts = append(opts, reward.WithWeights(cfg.Weights))
	}
	if cfg.Options != nil && cfg.Options.Logger != nil {
		opts = append(opts, reward.WithLogger(cfg.Options.Logger.Named("reward")))
	}
	return reward.NewScorer(opts...)
}

// Run parses the initial hex palette, builds the scorer and runs the
// configured strategy.
func Run(ctx context.Context, initialHex []string, cfg Config) (*Result, error) {
	initial, err := colour.ParsePalette(initialHex)
	if err != nil {
		return nil, err
	}
	if initial.Len() == 0 {
		return nil, colour.ErrEmptyPalette
	}

	name := cfg.Strategy
	if name == "" {
		name = StrategyHillClimb
	}
	opts, err := DefaultOptions(name)
	if err != nil {
		return nil, err
	}
	if cfg.Options != nil {
		opts = *cfg.Options
	}

	strategy, err := NewStrategy(name, opts)
	if err != nil {
		return nil, err
	}
	scorer, err := cfg.NewScorer()
	if err != nil {
		return nil, err
	}

	return strategy.Optimize(ctx, scorer, initial)
}
