package cli

import (
	"context"
	"fmt"

	"github.com/jmylchreest/hueforge/internal/aesthetic"
	"github.com/jmylchreest/hueforge/internal/aesthetic/plugin"
	"github.com/jmylchreest/hueforge/internal/colour"
	"github.com/jmylchreest/hueforge/internal/dataset"
	"github.com/jmylchreest/hueforge/internal/genai"
	"github.com/jmylchreest/hueforge/internal/optimize"
	"github.com/jmylchreest/hueforge/internal/reward"
)

// scoring gathers the reward inputs a command needs. Close releases any
// predictor process it started.
type scoring struct {
	k          int
	weights    reward.Weights
	predictor  reward.Predictor
	references [][]colour.Lab
	embedder   reward.Embedder
	prompt     []float64

	closers []func()
}

func (s *scoring) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// newScoring resolves the predictor, reference palettes and, when prompt is
// set, the semantic embedder from the resolved configuration.
func (a *app) newScoring(ctx context.Context, prompt string) (_ *scoring, err error) {
	s := &scoring{k: a.cfg.PaletteSize}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	if s.weights, err = a.cfg.ScoringWeights(); err != nil {
		return nil, err
	}
	if err := a.loadPredictor(s); err != nil {
		return nil, err
	}

	if path := a.cfg.Refs.Path; path != "" {
		refs, err := dataset.Load(path, dataset.Options{
			K:           s.k,
			Limit:       a.cfg.Refs.Limit,
			SkipInvalid: true,
			Logger:      a.logger.Named("dataset"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load reference palettes: %w", err)
		}
		s.references = refs
		a.logger.Debug("loaded reference palettes", "path", path, "count", len(refs))
	}

	if prompt != "" {
		if !s.weights.Has(reward.KeySemantic) {
			a.logger.Warn("prompt ignored: semantic weight S is not set", "weights", s.weights.String())
			return s, nil
		}
		client, err := genai.NewClient(ctx, a.genaiConfig())
		if err != nil {
			return nil, err
		}
		if s.prompt, err = client.EmbedPrompt(ctx, prompt); err != nil {
			return nil, fmt.Errorf("failed to embed prompt: %w", err)
		}
		s.embedder = client.Embedder(ctx)
	}
	return s, nil
}

// loadPredictor starts the configured predictor. A plugin binary takes
// precedence over an in-process weights file.
func (a *app) loadPredictor(s *scoring) error {
	switch {
	case a.cfg.Predictor.Plugin != "":
		client, err := plugin.Launch(a.cfg.Predictor.Plugin, a.cfg.Predictor.Args, a.logger.Named("predictor"))
		if err != nil {
			return fmt.Errorf("failed to start predictor plugin: %w", err)
		}
		s.closers = append(s.closers, client.Close)

		k, err := client.PaletteSize()
		if err != nil {
			return fmt.Errorf("failed to query predictor palette size: %w", err)
		}
		if k > 0 && k != s.k {
			return fmt.Errorf("predictor expects %d colours but palette size is %d", k, s.k)
		}
		s.predictor = client

	case a.cfg.Predictor.Model != "":
		mlp, err := aesthetic.Load(a.cfg.Predictor.Model)
		if err != nil {
			return err
		}
		if mlp.PaletteSize() != s.k {
			return fmt.Errorf("predictor model expects %d colours but palette size is %d", mlp.PaletteSize(), s.k)
		}
		s.predictor = mlp
	}
	return nil
}

func (a *app) genaiConfig() genai.Config {
	return genai.Config{
		Backend:        a.cfg.GenAI.Backend,
		EmbeddingModel: a.cfg.GenAI.EmbeddingModel,
		ImageModel:     a.cfg.GenAI.ImageModel,
		CacheDir:       a.cfg.GenAI.CacheDir,
		Logger:         a.logger,
	}
}

// scorer builds a reward.Scorer from the gathered inputs.
func (s *scoring) scorer(a *app) (*reward.Scorer, error) {
	opts := []reward.Option{
		reward.WithPaletteSize(s.k),
		reward.WithWeights(s.weights),
		reward.WithReferences(s.references),
		reward.WithPromptEmbedding(s.prompt),
		reward.WithLogger(a.logger.Named("reward")),
	}
	if s.predictor != nil {
		opts = append(opts, reward.WithPredictor(s.predictor))
	}
	if s.embedder != nil {
		opts = append(opts, reward.WithEmbedder(s.embedder))
	}
	return reward.NewScorer(opts...)
}

// optimizeConfig builds the optimize.Config for a strategy and budget.
func (s *scoring) optimizeConfig(strategy string, opts optimize.Options) optimize.Config {
	return optimize.Config{
		Strategy:        strategy,
		Options:         &opts,
		PaletteSize:     s.k,
		Weights:         s.weights,
		Predictor:       s.predictor,
		References:      s.references,
		Embedder:        s.embedder,
		PromptEmbedding: s.prompt,
	}
}
