package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hueforge/internal/optimize"
	"github.com/jmylchreest/hueforge/internal/reward"
)

// optimizeFlags are the search settings shared by optimize and generate.
type optimizeFlags struct {
	strategy     string
	steps        int
	episodes     int
	seed         uint64
	parallelism  int
	learningRate float64
	finalSamples int
	prompt       string
	timeout      time.Duration
	output       string
}

func (f *optimizeFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.strategy, "strategy", "s", optimize.StrategyHillClimb, "search strategy (hillclimb, policy)")
	fl.IntVar(&f.steps, "steps", 0, "optimisation steps (default: strategy default)")
	fl.IntVar(&f.episodes, "episodes", 0, "candidates per step (default: strategy default)")
	fl.Uint64Var(&f.seed, "seed", 42, "random seed")
	fl.IntVarP(&f.parallelism, "parallelism", "j", 0, "concurrent episode evaluations (default: GOMAXPROCS)")
	fl.Float64Var(&f.learningRate, "learning-rate", optimize.DefaultLearningRate, "Adam step size (policy only)")
	fl.IntVar(&f.finalSamples, "final-samples", optimize.DefaultFinalSamples, "closing best-of-N draw (policy only)")
	fl.StringVar(&f.prompt, "prompt", "", "text the semantic sub-score compares palettes to")
	fl.DurationVar(&f.timeout, "timeout", 0, "stop searching after this long and keep the best so far")
	fl.StringVarP(&f.output, "output", "o", "", "write the optimised hex palette to a file")
}

// options resolves the strategy and budget: strategy defaults, then config,
// then flags that were set.
func (f *optimizeFlags) options(cmd *cobra.Command, a *app) (string, optimize.Options, error) {
	cfg := a.cfg
	fl := cmd.Flags()
	if fl.Changed("strategy") {
		cfg.Optimizer.Strategy = f.strategy
	}
	strategy := cfg.Strategy()
	opts, err := cfg.OptimizeOptions()
	if err != nil {
		return "", optimize.Options{}, err
	}

	if fl.Changed("steps") {
		opts.Steps = f.steps
	}
	if fl.Changed("episodes") {
		opts.EpisodesPerStep = f.episodes
	}
	if fl.Changed("seed") {
		opts.Seed = f.seed
	}
	if fl.Changed("parallelism") {
		opts.Parallelism = f.parallelism
	}
	if fl.Changed("learning-rate") {
		opts.LearningRate = f.learningRate
	}
	if fl.Changed("final-samples") {
		opts.FinalSamples = f.finalSamples
	}
	opts.Logger = a.logger.Named("optimize")
	if err := opts.Validate(); err != nil {
		return "", optimize.Options{}, err
	}
	return strategy, opts, nil
}

func (a *app) newOptimizeCmd() *cobra.Command {
	var f optimizeFlags

	cmd := &cobra.Command{
		Use:   "optimize <hex>...",
		Short: "Search for a better palette",
		Long: `Improve a palette under the composite reward.

The hillclimb strategy perturbs the best palette in Lab space and keeps any
candidate that scores higher. The policy strategy trains a Gaussian policy
over Lab palettes with REINFORCE and returns the best of a final batch of
samples, or the input when nothing sampled beats it.

Results are deterministic for a given seed and budget regardless of
--parallelism. Ctrl-C or --timeout stops the search early and prints the best
palette found so far.

Examples:
  # Hill-climb with the default budget
  hueforge optimize "#264653" "#2A9D8F" "#E9C46A" "#F4A261" "#E76F51"

  # Policy gradient with a learned-aesthetic plugin
  hueforge optimize -s policy --predictor-plugin ./hueforge-predictor "#112233"

  # Longer search, saving the result
  hueforge optimize --steps 500 --seed 7 -o best.txt "#808080" "#FF6600"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runOptimize(cmd, &f, args)
		},
	}

	f.register(cmd)
	return cmd
}

// runOptimize scores the initial palette, searches and prints the result.
func (a *app) runOptimize(cmd *cobra.Command, f *optimizeFlags, initial []string) error {
	strategy, opts, err := f.options(cmd, a)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	s, err := a.newScoring(ctx, f.prompt)
	if err != nil {
		return err
	}
	defer s.Close()

	a.info(cmd, "Optimising %d colours with %s (%d steps x %d episodes, seed %d)",
		s.k, strategy, opts.Steps, opts.EpisodesPerStep, opts.Seed)

	start := time.Now()
	result, err := optimize.Run(ctx, initial, s.optimizeConfig(strategy, opts))
	interrupted := false
	if err != nil {
		if result == nil || !isStop(err) {
			return err
		}
		interrupted = true
		a.info(cmd, "Warning: search stopped after %d of %d steps: %v", result.Steps, opts.Steps, err)
	}
	a.logger.Debug("optimisation finished", "elapsed", time.Since(start), "score", result.Score)

	if f.output != "" {
		if err := writeHexFile(f.output, result.Hex()); err != nil {
			return err
		}
		a.info(cmd, "Palette written to: %s", f.output)
	}
	return a.writeResult(cmd.OutOrStdout(), result, s.weights, interrupted)
}

func isStop(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func writeHexFile(path string, hexes []string) error {
	data := strings.Join(hexes, "\n") + "\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// writeResult prints an optimisation result in the selected format.
func (a *app) writeResult(w io.Writer, r *optimize.Result, weights reward.Weights, interrupted bool) error {
	if a.format == formatJSON {
		return writeJSON(w, newResultJSON(r, weights, interrupted))
	}
	fmt.Fprint(w, paletteTable(r.Palette, r.Roles, a.showPreview(w)).Render())
	fmt.Fprintln(w)
	fmt.Fprint(w, componentsTable(r.Components, weights, r.Score).Render())
	fmt.Fprintln(w)
	fmt.Fprintf(w, "strategy %s, %d steps, %d episodes: %s -> %s (%+.4f)\n",
		r.Strategy, r.Steps, r.Episodes, formatFloat(r.InitialScore), formatFloat(r.Score), r.Improvement())
	return nil
}
