// Package cli provides the command-line interface for hueforge.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/hueforge/internal/config"
	"github.com/jmylchreest/hueforge/internal/reward"
	"github.com/jmylchreest/hueforge/internal/version"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
)

// Preview modes.
const (
	previewAuto   = "auto"
	previewAlways = "always"
	previewNever  = "never"
)

// app holds the global flags and the state resolved from them before any
// subcommand runs.
type app struct {
	verbose    bool
	quiet      bool
	configPath string
	format     string
	preview    string

	paletteSize     int
	preset          string
	weights         string
	predictorModel  string
	predictorPlugin string
	references      string

	cfg    config.Config
	logger hclog.Logger
}

// NewRootCmd builds the hueforge command tree.
func NewRootCmd() *cobra.Command {
	a := &app{logger: hclog.NewNullLogger()}

	root := &cobra.Command{
		Use:   "hueforge",
		Short: "Score and optimise colour palettes",
		Long: `hueforge scores the aesthetic quality of a colour palette and searches for
better palettes under that score.

A palette is normalised to a fixed size K, its entries are given structural
roles (primary, secondary, accent), and a composite reward combines harmony,
distinctness, cohesion, role balance, WCAG contrast and, when configured,
novelty against reference palettes, semantic fit to a prompt and a learned
aesthetic model. Two optimisers, a stochastic hill-climber and a REINFORCE
policy gradient, use the reward as their objective.`,
		Version:           version.Short(),
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "suppress non-error output")
	pf.StringVar(&a.configPath, "config", "", "config file (default: "+config.DefaultPath()+")")
	pf.StringVarP(&a.format, "format", "f", formatText, "output format (text, json)")
	pf.StringVar(&a.preview, "preview", previewAuto, "colour previews (auto, always, never)")

	pf.IntVarP(&a.paletteSize, "palette-size", "k", reward.DefaultPaletteSize, "palette size K")
	pf.StringVar(&a.preset, "preset", reward.PresetStandard, "weight preset (standard, extended)")
	pf.StringVar(&a.weights, "weights", "", `custom weights, e.g. "H=0.3,C=0.3,L=0.4"`)
	pf.StringVar(&a.predictorModel, "predictor-model", "", "learned-aesthetic MLP weights (.json or .json.xz)")
	pf.StringVar(&a.predictorPlugin, "predictor-plugin", "", "learned-aesthetic predictor plugin binary")
	pf.StringVar(&a.references, "references", "", "reference palette CSV for novelty (.csv or .csv.xz)")

	root.SetVersionTemplate(version.String() + "\n")

	root.AddCommand(
		a.newScoreCmd(),
		a.newRolesCmd(),
		a.newOptimizeCmd(),
		a.newExtractCmd(),
		a.newGenerateCmd(),
		a.newConvertCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// setup builds the logger and resolves configuration: defaults, then the
// config file, then HUEFORGE_* variables, then flags that were set.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.verbose && a.quiet {
		return fmt.Errorf("--verbose and --quiet are mutually exclusive")
	}
	switch a.format {
	case formatText, formatJSON:
	default:
		return fmt.Errorf("unsupported format: %s (supported: %s, %s)", a.format, formatText, formatJSON)
	}
	switch a.preview {
	case previewAuto, previewAlways, previewNever:
	default:
		return fmt.Errorf("invalid preview mode: %s (valid: %s, %s, %s)", a.preview, previewAuto, previewAlways, previewNever)
	}

	a.logger = newLogger(cmd.ErrOrStderr(), a.verbose)

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("palette-size") {
		cfg.PaletteSize = a.paletteSize
	}
	if flags.Changed("preset") {
		cfg.Preset = a.preset
		cfg.Weights = nil
	}
	if flags.Changed("weights") {
		w, err := reward.ParseWeights(a.weights)
		if err != nil {
			return fmt.Errorf("invalid --weights: %w", err)
		}
		cfg.Weights = w
	}
	if flags.Changed("predictor-model") {
		cfg.Predictor.Model = a.predictorModel
	}
	if flags.Changed("predictor-plugin") {
		cfg.Predictor.Plugin = a.predictorPlugin
	}
	if flags.Changed("references") {
		cfg.Refs.Path = a.references
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger.Debug("configuration resolved", "palette_size", cfg.PaletteSize, "strategy", cfg.Strategy())
	return nil
}

// newLogger returns the CLI logger: debug output on w when verbose, silent
// otherwise.
func newLogger(w io.Writer, verbose bool) hclog.Logger {
	if !verbose {
		return hclog.New(&hclog.LoggerOptions{
			Name:   "hueforge",
			Output: io.Discard,
			Level:  hclog.Off,
		})
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "hueforge",
		Output: w,
		Level:  hclog.Debug,
	})
}

// info prints a progress message to stderr unless --quiet is set.
func (a *app) info(cmd *cobra.Command, format string, args ...any) {
	if a.quiet {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
