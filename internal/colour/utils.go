// Package colour provides colour-space conversions, WCAG contrast metrics and
// palette utilities used by the scoring and optimisation packages.
package colour

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// D65 reference white used for XYZ <-> Lab.
const (
	whiteX = 0.95047
	whiteY = 1.0
	whiteZ = 1.08883

	labEpsilon = 0.008856
	labKappa   = 7.787
	labOffset  = 16.0 / 116.0
)

// Lab channel bounds.
const (
	MinL  = 0.0
	MaxL  = 100.0
	MinAB = -128.0
	MaxAB = 127.0
)

// XYZ is a CIE 1931 XYZ triple relative to Y=1 for the reference white.
type XYZ struct {
	X, Y, Z float64
}

// Lab is a CIELAB colour under the D65 white point.
type Lab struct {
	L float64 `json:"l"`
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// Chroma returns the distance from the neutral axis, sqrt(a²+b²).
func (c Lab) Chroma() float64 {
	return math.Hypot(c.A, c.B)
}

// Hue returns the hue angle atan2(b, a) in degrees, in [0, 360).
func (c Lab) Hue() float64 {
	h := math.Atan2(c.B, c.A) * 180 / math.Pi
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// Array returns the channels as a fixed-size array in L, a, b order.
func (c Lab) Array() [3]float64 {
	return [3]float64{c.L, c.A, c.B}
}

// IsFinite reports whether every channel is a finite number.
func (c Lab) IsFinite() bool {
	for _, v := range c.Array() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ClampLab limits L to [0,100] and a, b to [-128,127].
func ClampLab(c Lab) Lab {
	return Lab{
		L: clamp(c.L, MinL, MaxL),
		A: clamp(c.A, MinAB, MaxAB),
		B: clamp(c.B, MinAB, MaxAB),
	}
}

// LabDistance returns the Euclidean distance between two Lab colours.
func LabDistance(c1, c2 Lab) float64 {
	dl := c1.L - c2.L
	da := c1.A - c2.A
	db := c1.B - c2.B
	return math.Sqrt(dl*dl + da*da + db*db)
}

// ParseHex parses "#RRGGBB" or "RRGGBB" into an RGB triple.
func ParseHex(hex string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) != 6 {
		return RGB{}, &ColorFormatError{Value: hex, Reason: fmt.Sprintf("expected 6 hex digits, got %d", len(h))}
	}

	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, &ColorFormatError{Value: hex, Reason: "contains non-hex characters"}
	}

	return RGB{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, nil
}

// srgbToLinear decodes an 8-bit sRGB channel to linear light.
func srgbToLinear(v uint8) float64 {
	c := float64(v) / 255.0
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// linearToSRGB gamma-encodes linear light and quantises it to 8 bits.
func linearToSRGB(u float64) uint8 {
	var v float64
	if u <= 0.0031308 {
		v = 12.92 * u
	} else {
		v = 1.055*math.Pow(u, 1/2.4) - 0.055
	}
	return uint8(math.Round(clamp(v, 0, 1) * 255))
}

// RGBToXYZ converts an sRGB colour to XYZ using the D65 sRGB matrix.
func RGBToXYZ(c RGB) XYZ {
	r := srgbToLinear(c.R)
	g := srgbToLinear(c.G)
	b := srgbToLinear(c.B)

	return XYZ{
		X: r*0.4124564 + g*0.3575761 + b*0.1804375,
		Y: r*0.2126729 + g*0.7151522 + b*0.0721750,
		Z: r*0.0193339 + g*0.1191920 + b*0.9503041,
	}
}

// XYZToRGB converts XYZ back to sRGB, clamping out-of-gamut values.
func XYZToRGB(c XYZ) RGB {
	r := 3.2404542*c.X - 1.5371385*c.Y - 0.4985314*c.Z
	g := -0.9692660*c.X + 1.8760108*c.Y + 0.0415560*c.Z
	b := 0.0556434*c.X - 0.2040259*c.Y + 1.0572252*c.Z

	return RGB{R: linearToSRGB(r), G: linearToSRGB(g), B: linearToSRGB(b)}
}

func labF(t float64) float64 {
	if t > labEpsilon {
		return math.Cbrt(t)
	}
	return labKappa*t + labOffset
}

func labFInv(t float64) float64 {
	if t3 := t * t * t; t3 > labEpsilon {
		return t3
	}
	return (t - labOffset) / labKappa
}

// XYZToLab converts XYZ to CIELAB.
func XYZToLab(c XYZ) Lab {
	fx := labF(c.X / whiteX)
	fy := labF(c.Y / whiteY)
	fz := labF(c.Z / whiteZ)

	return Lab{
		L: 116*fy - 16,
		A: 500 * (fx - fy),
		B: 200 * (fy - fz),
	}
}

// LabToXYZ converts CIELAB to XYZ.
func LabToXYZ(c Lab) XYZ {
	fy := (c.L + 16) / 116
	fx := c.A/500 + fy
	fz := fy - c.B/200

	return XYZ{
		X: labFInv(fx) * whiteX,
		Y: labFInv(fy) * whiteY,
		Z: labFInv(fz) * whiteZ,
	}
}

// RGBToLab converts an sRGB colour to CIELAB.
func RGBToLab(c RGB) Lab {
	return XYZToLab(RGBToXYZ(c))
}

// LabToRGB converts CIELAB to 8-bit sRGB.
func LabToRGB(c Lab) RGB {
	return XYZToRGB(LabToXYZ(c))
}

// HexToLab parses a hex string and converts it to CIELAB.
func HexToLab(hex string) (Lab, error) {
	rgb, err := ParseHex(hex)
	if err != nil {
		return Lab{}, err
	}
	return RGBToLab(rgb), nil
}

// LabToHex converts CIELAB to an upper-case "#RRGGBB" string.
// Non-finite input returns ErrConversionOverflow.
func LabToHex(c Lab) (string, error) {
	if !c.IsFinite() {
		return "", fmt.Errorf("%w: %+v", ErrConversionOverflow, c)
	}
	return LabToRGB(c).HexUpper(), nil
}

// RelativeLuminance calculates the relative luminance of a colour according to WCAG 2.0.
// Returns a value between 0 (darkest) and 1 (lightest).
// https://www.w3.org/TR/WCAG20/#relativeluminancedef.
func RelativeLuminance(c RGB) float64 {
	r := gammaCorrect(float64(c.R) / 255.0)
	g := gammaCorrect(float64(c.G) / 255.0)
	b := gammaCorrect(float64(c.B) / 255.0)

	return 0.2126*r + 0.7152*g + 0.0722*b
}

// gammaCorrect linearises a colour component using the WCAG threshold.
func gammaCorrect(v float64) float64 {
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// ContrastRatioRGB calculates the contrast ratio between two colours according to WCAG 2.0.
// Returns a value between 1 and 21, where 21 is maximum contrast (black vs white).
// https://www.w3.org/TR/WCAG20/#contrast-ratiodef.
func ContrastRatioRGB(c1, c2 RGB) float64 {
	l1 := RelativeLuminance(c1)
	l2 := RelativeLuminance(c2)

	// Ensure l1 is the lighter colour.
	if l1 < l2 {
		l1, l2 = l2, l1
	}

	return (l1 + 0.05) / (l2 + 0.05)
}

// ContrastRatio parses two hex colours and returns their WCAG contrast ratio.
func ContrastRatio(hex1, hex2 string) (float64, error) {
	c1, err := ParseHex(hex1)
	if err != nil {
		return 0, err
	}
	c2, err := ParseHex(hex2)
	if err != nil {
		return 0, err
	}
	return ContrastRatioRGB(c1, c2), nil
}

// HueDistance calculates the angular distance between two hues on the colour wheel.
// Returns a value between 0 and 180 degrees (shortest path around the wheel).
func HueDistance(h1, h2 float64) float64 {
	diff := math.Abs(h1 - h2)
	if diff > 180 {
		diff = 360 - diff // Handle wraparound
	}
	return diff
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
