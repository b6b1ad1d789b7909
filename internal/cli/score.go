package cli

import (
	"github.com/spf13/cobra"
)

func (a *app) newScoreCmd() *cobra.Command {
	var prompt string

	cmd := &cobra.Command{
		Use:   "score <hex>...",
		Short: "Score a palette",
		Long: `Score a palette given as hex colours.

The palette is padded with white or truncated to the palette size, roles are
assigned, and every sub-score is printed alongside its weight and its
contribution to the total.

Examples:
  # Score a palette with the standard weights
  hueforge score "#264653" "#2A9D8F" "#E9C46A" "#F4A261" "#E76F51"

  # Score with the extended preset and a learned-aesthetic model
  hueforge score --preset extended --predictor-model mlp.json.xz "#112233" "#FFEEDD"

  # Score semantic fit to a prompt (needs GOOGLE_API_KEY)
  hueforge score --weights "H=0.4,C=0.3,S=0.3" --prompt "autumn forest" "#5B3A29" "#A0522D"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.newScoring(contextOf(cmd), prompt)
			if err != nil {
				return err
			}
			defer s.Close()

			scorer, err := s.scorer(a)
			if err != nil {
				return err
			}
			ev, err := scorer.EvaluateHex(args)
			if err != nil {
				return err
			}
			a.logger.Debug("palette scored", "score", ev.Score, "roles", ev.Roles.String())
			return a.writeEvaluation(cmd.OutOrStdout(), ev, scorer.Weights())
		},
	}

	cmd.Flags().StringVar(&prompt, "prompt", "", "text the semantic sub-score compares the palette to")
	return cmd
}
