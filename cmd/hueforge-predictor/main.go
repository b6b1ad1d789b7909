// Command hueforge-predictor serves a learned-aesthetic MLP over the
// hueforge predictor plugin protocol. It is started by hueforge when
// --predictor-plugin points at it and is not meant to be run directly.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/jmylchreest/hueforge/internal/aesthetic"
	"github.com/jmylchreest/hueforge/internal/aesthetic/plugin"
)

const modelEnv = "HUEFORGE_PREDICTOR_MODEL"

func main() {
	flags := pflag.NewFlagSet("hueforge-predictor", pflag.ExitOnError)
	model := flags.StringP("model", "m", os.Getenv(modelEnv), "MLP weights file (.json, .json.xz, .json.gz)")
	verbose := flags.BoolP("verbose", "v", false, "log to stderr")
	_ = flags.Parse(os.Args[1:])

	if *model == "" {
		fmt.Fprintf(os.Stderr, "hueforge-predictor: --model or %s is required\n", modelEnv)
		os.Exit(1)
	}

	mlp, err := aesthetic.Load(*model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hueforge-predictor: %v\n", err)
		os.Exit(1)
	}

	logger := plugin.NewLogger(*verbose, os.Stderr)
	logger.Debug("serving predictor", "model", *model, "palette_size", mlp.PaletteSize())
	plugin.Serve(mlp, logger)
}
