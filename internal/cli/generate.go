package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hueforge/internal/genai"
)

// generateFlags configures prompt-to-palette generation.
type generateFlags struct {
	optimizeFlags

	model            string
	backend          string
	aspectRatio      string
	cacheDir         string
	overwrite        bool
	noExtendedPrompt bool
	optimize         bool
}

func (a *app) newGenerateCmd() *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a palette from a text prompt",
		Long: `Generate an image from a prompt with Google Gen AI, extract a palette from
it and score it. With --optimize the extracted palette seeds a search, and
the prompt also drives the semantic sub-score when S is weighted.

Generated images are cached by prompt and model; use --overwrite to
regenerate.

Requires GOOGLE_API_KEY for the Gemini API backend. The Vertex AI backend
uses application default credentials with GOOGLE_CLOUD_PROJECT and
GOOGLE_CLOUD_LOCATION.

Examples:
  # Generate and score a palette
  hueforge generate --prompt "misty pine forest at dawn"

  # Generate, then optimise towards the prompt
  hueforge generate --prompt "neon arcade" --optimize --weights "H=0.3,C=0.3,S=0.4"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runGenerate(cmd, &f)
		},
	}

	f.register(cmd)
	fl := cmd.Flags()
	fl.StringVar(&f.model, "model", "", "image model (default: "+genai.DefaultImageModel+")")
	fl.StringVar(&f.backend, "backend", "", "Gen AI backend (gemini-api, vertex-ai)")
	fl.StringVar(&f.aspectRatio, "aspect-ratio", "1:1", "image aspect ratio")
	fl.StringVar(&f.cacheDir, "cache-dir", "", "image cache directory (default: "+genai.DefaultCacheDir()+")")
	fl.BoolVar(&f.overwrite, "overwrite", false, "regenerate even when a cached image exists")
	fl.BoolVar(&f.noExtendedPrompt, "no-extended-prompt", false, "send the prompt to the image model unchanged")
	fl.BoolVar(&f.optimize, "optimize", false, "optimise the extracted palette")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, f *generateFlags) error {
	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := a.genaiConfig()
	cfg.AspectRatio = f.aspectRatio
	cfg.NoExtendedPrompt = f.noExtendedPrompt
	if f.model != "" {
		cfg.ImageModel = f.model
	}
	if f.backend != "" {
		cfg.Backend = f.backend
	}
	switch {
	case f.cacheDir != "":
		cfg.CacheDir = f.cacheDir
	case cfg.CacheDir == "":
		cfg.CacheDir = genai.DefaultCacheDir()
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return err
	}

	a.info(cmd, "Generating image for: %s", f.prompt)
	path, err := client.GenerateImage(ctx, f.prompt, f.overwrite)
	if err != nil {
		return err
	}
	a.info(cmd, "Image: %s", path)

	p, err := a.extractPalette(ctx, &extractFlags{seed: f.seed}, path)
	if err != nil {
		return err
	}

	if f.optimize {
		return a.runOptimize(cmd, &f.optimizeFlags, p.Hex())
	}
	return a.scoreGenerated(ctx, cmd, f.prompt, p.Hex())
}

func (a *app) scoreGenerated(ctx context.Context, cmd *cobra.Command, prompt string, hexes []string) error {
	s, err := a.newScoring(ctx, prompt)
	if err != nil {
		return err
	}
	defer s.Close()

	scorer, err := s.scorer(a)
	if err != nil {
		return err
	}
	ev, err := scorer.EvaluateHex(hexes)
	if err != nil {
		return fmt.Errorf("failed to score generated palette: %w", err)
	}
	return a.writeEvaluation(cmd.OutOrStdout(), ev, scorer.Weights())
}
