package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hueforge/internal/colour"
)

func (a *app) newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <colour>...",
		Short: "Convert colours between hex, RGB, HSL and Lab",
		Long: `Convert colours given as hex ("#FF6600", "FF6600") or CIELAB ("lab(52.5,40,60)").

Lab values outside the sRGB gamut are clamped to the nearest representable
colour.

Example:
  hueforge convert "#264653" "lab(60,-20,35)"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			colours := make([]colour.RGB, len(args))
			for i, arg := range args {
				c, err := parseColour(arg)
				if err != nil {
					return err
				}
				colours[i] = c
			}

			out := cmd.OutOrStdout()
			if a.format == formatJSON {
				entries := make([]colour.ColorJSON, len(colours))
				for i, c := range colours {
					entries[i] = colour.ColorJSON{Hex: c.HexUpper(), RGB: c, Lab: colour.RGBToLab(c)}
				}
				return writeJSON(out, entries)
			}

			preview := a.showPreview(out)
			headers := []string{"Input", "Hex", "RGB", "HSL", "Lab"}
			if preview {
				headers = append(headers, "Swatch")
			}
			t := NewTable(headers)
			for i, c := range colours {
				row := []string{args[i], c.HexUpper(), fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B), formatHSL(c), formatLab(colour.RGBToLab(c))}
				if preview {
					row = append(row, colour.ColourPreview(c, swatchWidth))
				}
				t.AddRow(row...)
			}
			fmt.Fprint(out, t.Render())
			return nil
		},
	}
}

// parseColour accepts a hex colour or lab(L,a,b).
func parseColour(s string) (colour.RGB, error) {
	lower := strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(lower, "lab(") {
		return colour.ParseHex(s)
	}
	if !strings.HasSuffix(lower, ")") {
		return colour.RGB{}, fmt.Errorf("invalid Lab colour %q: missing closing parenthesis", s)
	}

	parts := strings.Split(lower[len("lab("):len(lower)-1], ",")
	if len(parts) != 3 {
		return colour.RGB{}, fmt.Errorf("invalid Lab colour %q: want 3 components, got %d", s, len(parts))
	}
	var v [3]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return colour.RGB{}, fmt.Errorf("invalid Lab colour %q: %w", s, err)
		}
		v[i] = f
	}

	lab := colour.Lab{L: v[0], A: v[1], B: v[2]}
	if !lab.IsFinite() {
		return colour.RGB{}, fmt.Errorf("invalid Lab colour %q: %w", s, colour.ErrConversionOverflow)
	}
	return colour.LabToRGB(colour.ClampLab(lab)), nil
}
