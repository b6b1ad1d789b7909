// Package config loads hueforge settings from a YAML (or JSON) file and
// HUEFORGE_* environment variables. Command-line flags are applied on top by
// the CLI, giving the precedence flags > environment > file > defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/hueforge/internal/optimize"
	"github.com/jmylchreest/hueforge/internal/reward"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HUEFORGE_"

// Config is the file and environment configuration.
type Config struct {
	PaletteSize int `yaml:"palette_size" json:"palette_size"`
	// Preset names a weight preset; ignored when Weights is set.
	Preset    string             `yaml:"preset" json:"preset"`
	Weights   map[string]float64 `yaml:"weights,omitempty" json:"weights,omitempty"`
	Optimizer Optimizer          `yaml:"optimizer" json:"optimizer"`
	Predictor Predictor          `yaml:"predictor" json:"predictor"`
	Refs      References         `yaml:"references" json:"references"`
	GenAI     GenAI              `yaml:"genai" json:"genai"`
}

// Optimizer overrides strategy defaults. Unset fields keep the strategy's
// own defaults.
type Optimizer struct {
	Strategy     string   `yaml:"strategy" json:"strategy"`
	Steps        *int     `yaml:"steps,omitempty" json:"steps,omitempty"`
	Episodes     *int     `yaml:"episodes,omitempty" json:"episodes,omitempty"`
	Seed         *uint64  `yaml:"seed,omitempty" json:"seed,omitempty"`
	Parallelism  *int     `yaml:"parallelism,omitempty" json:"parallelism,omitempty"`
	LearningRate *float64 `yaml:"learning_rate,omitempty" json:"learning_rate,omitempty"`
	FinalSamples *int     `yaml:"final_samples,omitempty" json:"final_samples,omitempty"`
}

// Predictor selects the learned-aesthetic model: an MLP weights file run
// in-process, or a go-plugin binary. Plugin wins when both are set.
type Predictor struct {
	Model  string   `yaml:"model" json:"model"`
	Plugin string   `yaml:"plugin" json:"plugin"`
	Args   []string `yaml:"args,omitempty" json:"args,omitempty"`
}

// References points at the reference palette dataset for novelty.
type References struct {
	Path  string `yaml:"path" json:"path"`
	Limit int    `yaml:"limit" json:"limit"`
}

// GenAI configures the Google Gen AI collaborator.
type GenAI struct {
	Backend        string `yaml:"backend" json:"backend"`
	EmbeddingModel string `yaml:"embedding_model" json:"embedding_model"`
	ImageModel     string `yaml:"image_model" json:"image_model"`
	CacheDir       string `yaml:"cache_dir" json:"cache_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		PaletteSize: reward.DefaultPaletteSize,
		Preset:      reward.PresetStandard,
		Optimizer:   Optimizer{Strategy: optimize.StrategyHillClimb},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/hueforge/config.yaml or its platform
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "hueforge", "config.yaml")
}

// Load reads path over the defaults and applies environment overrides. An
// empty path tries DefaultPath and tolerates it being absent.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		err := cfg.readFile(expandPath(path))
		switch {
		case err == nil:
		case !explicit && errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 - User-specified config file, intended to be read
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse JSON config %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse YAML config %s: %w", path, err)
		}
	}

	c.Predictor.Model = expandPath(c.Predictor.Model)
	c.Predictor.Plugin = expandPath(c.Predictor.Plugin)
	c.Refs.Path = expandPath(c.Refs.Path)
	c.GenAI.CacheDir = expandPath(c.GenAI.CacheDir)
	return nil
}

// ApplyEnv applies HUEFORGE_* overrides read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(name string, set func(string) error) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			if err := set(v); err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			}
		}
	}

	num("PALETTE_SIZE", func(v string) (err error) { c.PaletteSize, err = strconv.Atoi(v); return })
	if v, ok := lookup(EnvPrefix + "PRESET"); ok && v != "" {
		// An env preset replaces weights read from the file.
		c.Preset = v
		c.Weights = nil
	}
	num("WEIGHTS", func(v string) error {
		w, err := reward.ParseWeights(v)
		c.Weights = w
		return err
	})

	str("STRATEGY", &c.Optimizer.Strategy)
	num("STEPS", intPtr(&c.Optimizer.Steps))
	num("EPISODES", intPtr(&c.Optimizer.Episodes))
	num("PARALLELISM", intPtr(&c.Optimizer.Parallelism))
	num("FINAL_SAMPLES", intPtr(&c.Optimizer.FinalSamples))
	num("SEED", func(v string) error {
		n, err := strconv.ParseUint(v, 10, 64)
		c.Optimizer.Seed = &n
		return err
	})
	num("LEARNING_RATE", func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		c.Optimizer.LearningRate = &f
		return err
	})

	str("PREDICTOR_MODEL", &c.Predictor.Model)
	str("PREDICTOR_PLUGIN", &c.Predictor.Plugin)
	str("REFERENCES", &c.Refs.Path)
	str("GENAI_BACKEND", &c.GenAI.Backend)
	str("EMBEDDING_MODEL", &c.GenAI.EmbeddingModel)
	str("IMAGE_MODEL", &c.GenAI.ImageModel)
	str("CACHE_DIR", &c.GenAI.CacheDir)

	return errors.Join(errs...)
}

func intPtr(dst **int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		*dst = &n
		return err
	}
}

// Validate checks values the rest of hueforge would reject later.
func (c Config) Validate() error {
	if c.PaletteSize < 1 {
		return fmt.Errorf("palette_size must be at least 1, got %d", c.PaletteSize)
	}
	if _, err := c.ScoringWeights(); err != nil {
		return err
	}
	opts, err := c.OptimizeOptions()
	if err != nil {
		return err
	}
	return opts.Validate()
}

// ScoringWeights returns the custom weights when set, otherwise the preset.
func (c Config) ScoringWeights() (reward.Weights, error) {
	if len(c.Weights) > 0 {
		w := reward.Weights(c.Weights).Clone()
		for k, v := range c.Weights {
			if up := strings.ToUpper(k); up != k {
				delete(w, k)
				w[up] = v
			}
		}
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("weights: %w", err)
		}
		return w, nil
	}
	return reward.PresetWeights(c.Preset)
}

// Strategy returns the configured strategy name, defaulting to hill-climb.
func (c Config) Strategy() string {
	if c.Optimizer.Strategy == "" {
		return optimize.StrategyHillClimb
	}
	return c.Optimizer.Strategy
}

// OptimizeOptions overlays the optimizer section on the strategy defaults.
func (c Config) OptimizeOptions() (optimize.Options, error) {
	opts, err := optimize.DefaultOptions(c.Strategy())
	if err != nil {
		return optimize.Options{}, err
	}

	o := c.Optimizer
	if o.Steps != nil {
		opts.Steps = *o.Steps
	}
	if o.Episodes != nil {
		opts.EpisodesPerStep = *o.Episodes
	}
	if o.Seed != nil {
		opts.Seed = *o.Seed
	}
	if o.Parallelism != nil {
		opts.Parallelism = *o.Parallelism
	}
	if o.LearningRate != nil {
		opts.LearningRate = *o.LearningRate
	}
	if o.FinalSamples != nil {
		opts.FinalSamples = *o.FinalSamples
	}
	return opts, nil
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
