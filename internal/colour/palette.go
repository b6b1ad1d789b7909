package colour

import (
	"fmt"
	"image/color"
	"strings"
)

// PadColour is appended when a palette is shorter than the requested size.
var PadColour = RGB{R: 255, G: 255, B: 255}

// Palette is an ordered list of colours. Order is significant: roles are
// assigned by index.
type Palette struct {
	Colours []RGB
	// Weights holds optional relative cluster sizes from extraction; it is either
	// empty or the same length as Colours.
	Weights []float64
}

// NewPalette creates a new Palette with the given colours.
func NewPalette(colours []RGB) *Palette {
	return &Palette{Colours: colours}
}

// NewPaletteWithWeights creates a Palette carrying per-colour weights.
func NewPaletteWithWeights(colours []RGB, weights []float64) *Palette {
	return &Palette{Colours: colours, Weights: weights}
}

// ParsePalette parses a list of hex strings. The first malformed entry is
// reported as a *ColorFormatError.
func ParsePalette(hexes []string) (*Palette, error) {
	colours := make([]RGB, len(hexes))
	for i, h := range hexes {
		rgb, err := ParseHex(h)
		if err != nil {
			return nil, fmt.Errorf("colour %d: %w", i, err)
		}
		colours[i] = rgb
	}
	return NewPalette(colours), nil
}

// Len returns the number of colours in the palette.
func (p *Palette) Len() int {
	return len(p.Colours)
}

// Normalize returns a copy with exactly k colours: padded with PadColour when
// short, truncated to the first k entries when long.
func (p *Palette) Normalize(k int) *Palette {
	if k < 0 {
		k = 0
	}

	colours := make([]RGB, k)
	n := copy(colours, p.Colours)
	for i := n; i < k; i++ {
		colours[i] = PadColour
	}

	var weights []float64
	if len(p.Weights) > 0 {
		weights = make([]float64, k)
		copy(weights, p.Weights)
	}

	return &Palette{Colours: colours, Weights: weights}
}

// Validate reports an empty palette and weights that do not match the
// colours.
func (p *Palette) Validate() error {
	if p == nil || len(p.Colours) == 0 {
		return ErrEmptyPalette
	}
	if len(p.Weights) > 0 && len(p.Weights) != len(p.Colours) {
		return fmt.Errorf("palette has %d weights for %d colours", len(p.Weights), len(p.Colours))
	}
	return nil
}

// PaletteToLab parses hex colours straight to CIELAB.
func PaletteToLab(hexes []string) ([]Lab, error) {
	p, err := ParsePalette(hexes)
	if err != nil {
		return nil, err
	}
	return p.Lab(), nil
}

// Lab converts every colour to CIELAB.
func (p *Palette) Lab() []Lab {
	labs := make([]Lab, len(p.Colours))
	for i, c := range p.Colours {
		labs[i] = RGBToLab(c)
	}
	return labs
}

// Hex returns the colours as upper-case "#RRGGBB" strings.
func (p *Palette) Hex() []string {
	hexColours := make([]string, len(p.Colours))
	for i, c := range p.Colours {
		hexColours[i] = c.HexUpper()
	}
	return hexColours
}

// Clone returns a deep copy of the palette.
func (p *Palette) Clone() *Palette {
	out := &Palette{Colours: append([]RGB(nil), p.Colours...)}
	if len(p.Weights) > 0 {
		out.Weights = append([]float64(nil), p.Weights...)
	}
	return out
}

// PaletteFromLab converts Lab colours to a palette. Each colour is clamped to
// the valid Lab range first; a colour that still cannot be converted keeps the
// corresponding entry of fallback (when provided) or becomes PadColour.
func PaletteFromLab(labs []Lab, fallback *Palette) *Palette {
	colours := make([]RGB, len(labs))
	for i, lab := range labs {
		lab = ClampLab(lab)
		if !lab.IsFinite() {
			if fallback != nil && i < fallback.Len() {
				colours[i] = fallback.Colours[i]
			} else {
				colours[i] = PadColour
			}
			continue
		}
		colours[i] = LabToRGB(lab)
	}
	return NewPalette(colours)
}

// RGB represents a colour in RGB format.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String returns the RGB colour as a string in the format "rgb(r, g, b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the RGB colour as a lower-case hex string (e.g., "#1a2b3c").
func (rgb RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}

// HexUpper returns the RGB colour as an upper-case hex string (e.g., "#1A2B3C").
func (rgb RGB) HexUpper() string {
	return fmt.Sprintf("#%02X%02X%02X", rgb.R, rgb.G, rgb.B)
}

// ToRGB converts a color.Color to RGB.
func ToRGB(c color.Color) RGB {
	r, g, b, _ := c.RGBA()
	// RGBA returns values in the range [0, 65535], convert to [0, 255]
	return RGB{
		R: uint8(r >> 8),
		G: uint8(g >> 8),
		B: uint8(b >> 8),
	}
}

// ColorJSON represents a colour in JSON output format.
type ColorJSON struct {
	Hex    string  `json:"hex"`
	RGB    RGB     `json:"rgb"`
	Lab    Lab     `json:"lab"`
	Weight float64 `json:"weight,omitempty"`
}

// String returns a human-readable string representation of the palette.
func (p *Palette) String() string {
	if len(p.Colours) == 0 {
		return "Empty palette"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Palette with %d colours:\n", len(p.Colours))
	for i, c := range p.Colours {
		fmt.Fprintf(&sb, "  %2d: %s (%s)\n", i+1, c.HexUpper(), c.String())
	}
	return sb.String()
}
