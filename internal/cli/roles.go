package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hueforge/internal/colour"
	"github.com/jmylchreest/hueforge/internal/roles"
)

func (a *app) newRolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roles <hex>...",
		Short: "Show the structural role of each colour",
		Long: `Assign roles to a palette without scoring it.

The most chromatic colour is primary, the two colours furthest from it are
secondary, the two most chromatic of the rest are accents and everything else
is neutral. The palette is used as given, without padding.

Example:
  hueforge roles "#FF0000" "#00FF00" "#0000FF" "#808080"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := colour.ParsePalette(args)
			if err != nil {
				return err
			}
			assignment, err := roles.AssignPalette(p)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.format == formatJSON {
				return writeJSON(out, struct {
					Palette []colourJSON     `json:"palette"`
					Roles   roles.Assignment `json:"roles"`
				}{paletteJSON(p, assignment), assignment})
			}
			fmt.Fprint(out, paletteTable(p, assignment, a.showPreview(out)).Render())
			return nil
		},
	}
}
