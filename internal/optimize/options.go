package optimize

import (
	"fmt"
	"runtime"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/hueforge/internal/colour"
	"github.com/jmylchreest/hueforge/internal/reward"
	"github.com/jmylchreest/hueforge/internal/roles"
)

// Strategy names accepted by Run.
const (
	StrategyHillClimb = "hillclimb"
	StrategyPolicy    = "policy"
)

// Hill-climb perturbation standard deviations per Lab channel.
const (
	SigmaL = 5.0
	SigmaA = 10.0
	SigmaB = 10.0
)

// Policy-gradient defaults.
const (
	DefaultLearningRate = 1e-3
	DefaultFinalSamples = 100
	initialLogStd       = -3.0
	baselineDecay       = 0.9
)

// Options holds the search budget and execution settings shared by both
// strategies.
type Options struct {
	// Steps is the number of optimisation steps.
	Steps int
	// EpisodesPerStep is the number of candidates sampled per step.
	EpisodesPerStep int
	// Seed drives every random stream. Equal seeds give equal results.
	Seed uint64
	// Parallelism bounds concurrent episode evaluations. It never affects
	// results.
	Parallelism int
	// LearningRate is the Adam step size (policy gradient only). Zero means
	// DefaultLearningRate.
	LearningRate float64
	// FinalSamples is the size of the closing best-of-N draw (policy gradient
	// only). Unlike LearningRate, zero is not replaced by a default: it skips
	// the draw, so the trained policy is never sampled and the result is the
	// input palette. DefaultPolicyOptions sets DefaultFinalSamples.
	FinalSamples int
	// Logger receives per-step progress at debug level.
	Logger hclog.Logger
}

// DefaultHillClimbOptions returns the hill-climb budget: 100 steps of 4
// episodes.
func DefaultHillClimbOptions() Options {
	return Options{
		Steps:           100,
		EpisodesPerStep: 4,
		Seed:            42,
		Parallelism:     runtime.GOMAXPROCS(0),
	}
}

// DefaultPolicyOptions returns the policy-gradient budget: 200 steps of 8
// episodes followed by 100 final samples.
func DefaultPolicyOptions() Options {
	return Options{
		Steps:           200,
		EpisodesPerStep: 8,
		Seed:            42,
		Parallelism:     runtime.GOMAXPROCS(0),
		LearningRate:    DefaultLearningRate,
		FinalSamples:    DefaultFinalSamples,
	}
}

// DefaultOptions returns the defaults for the named strategy.
func DefaultOptions(strategy string) (Options, error) {
	switch strategy {
	case StrategyHillClimb:
		return DefaultHillClimbOptions(), nil
	case StrategyPolicy:
		return DefaultPolicyOptions(), nil
	default:
		return Options{}, fmt.Errorf("unknown strategy %q (valid: %s, %s)", strategy, StrategyHillClimb, StrategyPolicy)
	}
}

// Validate rejects negative budgets and rates.
func (o Options) Validate() error {
	if o.Steps < 0 {
		return fmt.Errorf("steps must be non-negative, got %d", o.Steps)
	}
	if o.EpisodesPerStep < 1 {
		return fmt.Errorf("episodes per step must be at least 1, got %d", o.EpisodesPerStep)
	}
	if o.Parallelism < 0 {
		return fmt.Errorf("parallelism must be non-negative, got %d", o.Parallelism)
	}
	if o.LearningRate < 0 {
		return fmt.Errorf("learning rate must be non-negative, got %v", o.LearningRate)
	}
	if o.FinalSamples < 0 {
		return fmt.Errorf("final samples must be non-negative, got %d", o.FinalSamples)
	}
	return nil
}

func (o Options) logger() hclog.Logger {
	if o.Logger == nil {
		return hclog.NewNullLogger()
	}
	return o.Logger
}

func (o Options) parallelism() int {
	if o.Parallelism < 1 {
		return 1
	}
	return o.Parallelism
}

// Result is the outcome of an optimisation run.
type Result struct {
	Palette    *colour.Palette
	Roles      roles.Assignment
	Score      float64
	Components reward.Components

	Strategy     string
	InitialScore float64
	Steps        int
	Episodes     int
	// History holds one entry per completed step: the best score so far for
	// hill-climb, the mean batch reward for policy gradient.
	History []float64
}

// Hex returns the best palette as upper-case hex strings.
func (r *Result) Hex() []string {
	return r.Palette.Hex()
}

// Improvement returns Score minus InitialScore.
func (r *Result) Improvement() float64 {
	return r.Score - r.InitialScore
}

func newResult(strategy string, ev *reward.Evaluation) *Result {
	r := &Result{Strategy: strategy, InitialScore: ev.Score}
	r.setBest(ev)
	return r
}

func (r *Result) setBest(ev *reward.Evaluation) {
	r.Palette = ev.Palette
	r.Roles = ev.Roles
	r.Score = ev.Score
	r.Components = ev.Components
}
