package optimize

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/jmylchreest/hueforge/internal/colour"
	"github.com/jmylchreest/hueforge/internal/reward"
)

// HillClimber is a greedy stochastic search: every step perturbs the current
// best palette several times and keeps a candidate only if it scores
// strictly higher. The returned score never falls below the initial one.
type HillClimber struct {
	Options Options
}

// NewHillClimber returns a HillClimber with the given options.
func NewHillClimber(opts Options) *HillClimber {
	return &HillClimber{Options: opts}
}

// Name returns StrategyHillClimb.
func (h *HillClimber) Name() string {
	return StrategyHillClimb
}

// Optimize searches from initial under scorer.
func (h *HillClimber) Optimize(ctx context.Context, scorer *reward.Scorer, initial *colour.Palette) (*Result, error) {
	opts := h.Options
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := opts.logger().Named(StrategyHillClimb)

	best, err := scorer.Evaluate(initial)
	if err != nil {
		return nil, err
	}
	result := newResult(StrategyHillClimb, best)
	result.History = make([]float64, 0, opts.Steps)

	logger.Debug("starting", "steps", opts.Steps, "episodes", opts.EpisodesPerStep, "initial_score", best.Score)

	for step := range opts.Steps {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		// Every episode starts from the best palette as it stood at the
		// beginning of the step.
		base := best
		baseLab := base.Palette.Lab()

		episodes, err := runEpisodes(ctx, opts.EpisodesPerStep, opts.parallelism(), func(e int) episode {
			rng := newStream(opts.Seed, episodeStream(step, opts.EpisodesPerStep, e))
			candidate := colour.PaletteFromLab(perturb(rng, baseLab), base.Palette)
			ev, err := scorer.Evaluate(candidate)
			if err != nil {
				return episode{err: fmt.Errorf("step %d episode %d: %w", step, e, err)}
			}
			return episode{eval: ev}
		})
		if err != nil {
			return result, err
		}

		for _, ep := range episodes {
			if ep.eval.Score > best.Score {
				best = ep.eval
			}
		}
		if best != base {
			result.setBest(best)
			logger.Debug("improved", "step", step, "score", best.Score)
		}

		result.History = append(result.History, best.Score)
		result.Steps = step + 1
		result.Episodes += len(episodes)
	}

	logger.Debug("finished", "score", result.Score, "improvement", result.Improvement())
	return result, nil
}

// perturb adds independent Gaussian noise to every Lab channel and clamps
// the result to the valid range.
func perturb(rng *rand.Rand, labs []colour.Lab) []colour.Lab {
	out := make([]colour.Lab, len(labs))
	for i, c := range labs {
		out[i] = colour.ClampLab(colour.Lab{
			L: c.L + rng.NormFloat64()*SigmaL,
			A: c.A + rng.NormFloat64()*SigmaA,
			B: c.B + rng.NormFloat64()*SigmaB,
		})
	}
	return out
}
