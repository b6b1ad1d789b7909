package optimize

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/jmylchreest/hueforge/internal/colour"
	"github.com/jmylchreest/hueforge/internal/reward"
)

// PolicyGradient trains a Gaussian policy over Lab perturbations of the
// initial palette with REINFORCE and a moving-average baseline, then keeps
// the best of a final batch of samples.
//
// The policy mean is linear in the normalised Lab encoding of the palette,
// so the score-function gradient is available in closed form.
type PolicyGradient struct {
	Options Options
}

// NewPolicyGradient returns a PolicyGradient with the given options.
func NewPolicyGradient(opts Options) *PolicyGradient {
	return &PolicyGradient{Options: opts}
}

// Name returns StrategyPolicy.
func (pg *PolicyGradient) Name() string {
	return StrategyPolicy
}

// gaussianPolicy samples a = μ + σ·ε with μ = W·x + b and σ = exp(logStd).
type gaussianPolicy struct {
	x      *mat.VecDense
	w      *mat.Dense
	b      *mat.VecDense
	logStd []float64
}

// encodeLab flattens a palette to (L/100, a/128, b/128) per colour.
func encodeLab(labs []colour.Lab) *mat.VecDense {
	x := mat.NewVecDense(3*len(labs), nil)
	for i, c := range labs {
		x.SetVec(3*i, c.L/100)
		x.SetVec(3*i+1, c.A/128)
		x.SetVec(3*i+2, c.B/128)
	}
	return x
}

func newGaussianPolicy(labs []colour.Lab, rng *rand.Rand) *gaussianPolicy {
	x := encodeLab(labs)
	dim := x.Len()

	bound := 1 / math.Sqrt(float64(dim))
	init := distuv.Uniform{Min: -bound, Max: bound, Src: rng}

	w := mat.NewDense(dim, dim, nil)
	for i := range dim {
		for j := range dim {
			w.Set(i, j, init.Rand())
		}
	}
	b := mat.NewVecDense(dim, nil)
	for i := range dim {
		b.SetVec(i, init.Rand())
	}

	logStd := make([]float64, dim)
	for i := range logStd {
		logStd[i] = initialLogStd
	}

	return &gaussianPolicy{x: x, w: w, b: b, logStd: logStd}
}

func (p *gaussianPolicy) mean() *mat.VecDense {
	mu := mat.NewVecDense(p.x.Len(), nil)
	mu.MulVec(p.w, p.x)
	mu.AddVec(mu, p.b)
	return mu
}

// sample draws an action and returns it with its log-probability.
func (p *gaussianPolicy) sample(rng *rand.Rand, mu *mat.VecDense) ([]float64, float64) {
	action := make([]float64, mu.Len())
	var logProb float64
	for d := range action {
		dist := distuv.Normal{Mu: mu.AtVec(d), Sigma: math.Exp(p.logStd[d]), Src: rng}
		action[d] = dist.Rand()
		logProb += dist.LogProb(action[d])
	}
	return action, logProb
}

// apply adds the action to the base palette, clamps and converts back.
// Colours that cannot be converted keep their base value.
func apply(base *colour.Palette, baseLab []colour.Lab, action []float64) *colour.Palette {
	labs := make([]colour.Lab, len(baseLab))
	for i, c := range baseLab {
		labs[i] = colour.ClampLab(colour.Lab{
			L: c.L + action[3*i],
			A: c.A + action[3*i+1],
			B: c.B + action[3*i+2],
		})
	}
	return colour.PaletteFromLab(labs, base)
}

// movingBaseline is an exponential moving average of batch mean rewards,
// seeded with the first batch.
type movingBaseline struct {
	value   float64
	started bool
}

// update folds in a batch mean and returns the new baseline.
func (m *movingBaseline) update(batchMean float64) float64 {
	if !m.started {
		m.value = batchMean
		m.started = true
		return m.value
	}
	m.value = baselineDecay*m.value + (1-baselineDecay)*batchMean
	return m.value
}

// gradient returns ∂J/∂μ and ∂J/∂logσ for J = mean((R-baseline)·log π(a)).
func (p *gaussianPolicy) gradient(mu *mat.VecDense, episodes []episode, baseline float64) (*mat.VecDense, []float64) {
	dim := mu.Len()
	gMu := mat.NewVecDense(dim, nil)
	gLogStd := make([]float64, dim)
	n := float64(len(episodes))

	for _, ep := range episodes {
		adv := (ep.eval.Score - baseline) / n
		for d := range dim {
			sigma := math.Exp(p.logStd[d])
			z := (ep.action[d] - mu.AtVec(d)) / sigma
			gMu.SetVec(d, gMu.AtVec(d)+adv*z/sigma)
			gLogStd[d] += adv * (z*z - 1)
		}
	}
	return gMu, gLogStd
}

// learner applies REINFORCE updates to a policy with Adam.
type learner struct {
	policy   *gaussianPolicy
	adam     *adam
	baseline movingBaseline
	gW       *mat.Dense
}

func newLearner(policy *gaussianPolicy, lr float64) *learner {
	dim := len(policy.logStd)
	return &learner{
		policy: policy,
		adam:   newAdam(lr, policy.w.RawMatrix().Data, policy.b.RawVector().Data, policy.logStd),
		gW:     mat.NewDense(dim, dim, nil),
	}
}

// update takes one ascent step from a batch sampled around mu and returns
// the batch mean reward and the baseline it was compared against.
func (l *learner) update(mu *mat.VecDense, episodes []episode) (batchMean, baseline float64) {
	rewards := make([]float64, len(episodes))
	for i, ep := range episodes {
		rewards[i] = ep.eval.Score
	}
	batchMean = stat.Mean(rewards, nil)
	baseline = l.baseline.update(batchMean)

	p := l.policy
	gMu, gLogStd := p.gradient(mu, episodes, baseline)
	l.gW.Outer(1, gMu, p.x)
	l.adam.ascend(
		[][]float64{p.w.RawMatrix().Data, p.b.RawVector().Data, p.logStd},
		[][]float64{l.gW.RawMatrix().Data, gMu.RawVector().Data, gLogStd},
	)
	return batchMean, baseline
}

// Optimize trains the policy from initial under scorer and returns the better
// of the best final sample and the initial palette.
func (pg *PolicyGradient) Optimize(ctx context.Context, scorer *reward.Scorer, initial *colour.Palette) (*Result, error) {
	opts := pg.Options
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.LearningRate == 0 {
		opts.LearningRate = DefaultLearningRate
	}
	logger := opts.logger().Named(StrategyPolicy)

	start, err := scorer.Evaluate(initial)
	if err != nil {
		return nil, err
	}
	result := newResult(StrategyPolicy, start)
	result.History = make([]float64, 0, opts.Steps)

	base := start.Palette
	baseLab := base.Lab()
	policy := newGaussianPolicy(baseLab, newStream(opts.Seed, 0))
	learner := newLearner(policy, opts.LearningRate)

	logger.Debug("starting", "steps", opts.Steps, "episodes", opts.EpisodesPerStep, "dims", len(policy.logStd), "initial_score", start.Score)

	for step := range opts.Steps {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		mu := policy.mean()
		episodes, err := runEpisodes(ctx, opts.EpisodesPerStep, opts.parallelism(), func(e int) episode {
			rng := newStream(opts.Seed, episodeStream(step, opts.EpisodesPerStep, e))
			action, logProb := policy.sample(rng, mu)
			ev, err := scorer.Evaluate(apply(base, baseLab, action))
			if err != nil {
				return episode{err: fmt.Errorf("step %d episode %d: %w", step, e, err)}
			}
			return episode{eval: ev, action: action, logProb: logProb}
		})
		if err != nil {
			return result, err
		}

		batchMean, baseline := learner.update(mu, episodes)

		result.History = append(result.History, batchMean)
		result.Steps = step + 1
		result.Episodes += len(episodes)

		if step%50 == 0 {
			logger.Debug("step", "step", step, "batch_mean", batchMean, "baseline", baseline)
		}
	}

	best, err := pg.bestSample(ctx, scorer, policy, base, baseLab, opts)
	if err != nil {
		return result, err
	}
	if best != nil && best.Score > start.Score {
		result.setBest(best)
	}

	logger.Debug("finished", "score", result.Score, "improvement", result.Improvement())
	return result, nil
}

// bestSample draws FinalSamples palettes from the trained policy and returns
// the highest scoring one, first wins on ties. It returns nil when no samples
// are requested.
func (pg *PolicyGradient) bestSample(ctx context.Context, scorer *reward.Scorer, policy *gaussianPolicy, base *colour.Palette, baseLab []colour.Lab, opts Options) (*reward.Evaluation, error) {
	if opts.FinalSamples == 0 {
		return nil, nil
	}

	mu := policy.mean()
	offset := episodeStream(opts.Steps, opts.EpisodesPerStep, 0)
	samples, err := runEpisodes(ctx, opts.FinalSamples, opts.parallelism(), func(e int) episode {
		rng := newStream(opts.Seed, offset+uint64(e))
		action, _ := policy.sample(rng, mu)
		ev, err := scorer.Evaluate(apply(base, baseLab, action))
		if err != nil {
			return episode{err: fmt.Errorf("final sample %d: %w", e, err)}
		}
		return episode{eval: ev}
	})
	if err != nil {
		return nil, err
	}

	best := samples[0].eval
	for _, s := range samples[1:] {
		if s.eval.Score > best.Score {
			best = s.eval
		}
	}
	return best, nil
}
