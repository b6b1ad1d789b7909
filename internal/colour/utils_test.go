package colour

import (
	"errors"
	"math"
	"testing"
)

func nan() float64 { return math.NaN() }

func TestParseHex(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RGB
		wantErr bool
	}{
		{name: "with hash", input: "#FF6F61", want: RGB{R: 255, G: 111, B: 97}},
		{name: "without hash", input: "88b04b", want: RGB{R: 136, G: 176, B: 75}},
		{name: "surrounding space", input: " #000000 ", want: RGB{}},
		{name: "too short", input: "#FFF", wantErr: true},
		{name: "too long", input: "#FFFFFFF", wantErr: true},
		{name: "non hex", input: "#GG0000", wantErr: true},
		{name: "sign prefix", input: "+12345", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHex(tt.input)
			if tt.wantErr {
				var formatErr *ColorFormatError
				if !errors.As(err, &formatErr) {
					t.Fatalf("ParseHex(%q) error = %v, want *ColorFormatError", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHex(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseHex(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRGBToLabReferencePoints(t *testing.T) {
	tests := []struct {
		name string
		rgb  RGB
		want Lab
	}{
		{name: "black", rgb: RGB{}, want: Lab{L: 0, A: 0, B: 0}},
		{name: "white", rgb: RGB{R: 255, G: 255, B: 255}, want: Lab{L: 100, A: 0, B: 0}},
		{name: "red", rgb: RGB{R: 255}, want: Lab{L: 53.24, A: 80.09, B: 67.20}},
		{name: "blue", rgb: RGB{B: 255}, want: Lab{L: 32.30, A: 79.19, B: -107.86}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RGBToLab(tt.rgb)
			if math.Abs(got.L-tt.want.L) > 0.05 || math.Abs(got.A-tt.want.A) > 0.05 || math.Abs(got.B-tt.want.B) > 0.05 {
				t.Errorf("RGBToLab(%+v) = %+v, want ~%+v", tt.rgb, got, tt.want)
			}
		})
	}
}

func TestLabRoundTrip(t *testing.T) {
	for r := 0; r <= 255; r += 15 {
		for g := 0; g <= 255; g += 15 {
			for b := 0; b <= 255; b += 15 {
				in := RGB{R: uint8(r), G: uint8(g), B: uint8(b)}
				hex := in.HexUpper()

				lab, err := HexToLab(hex)
				if err != nil {
					t.Fatalf("HexToLab(%s) error = %v", hex, err)
				}
				outHex, err := LabToHex(lab)
				if err != nil {
					t.Fatalf("LabToHex(%+v) error = %v", lab, err)
				}
				out, _ := ParseHex(outHex)

				if absDiff(in.R, out.R) > 2 || absDiff(in.G, out.G) > 2 || absDiff(in.B, out.B) > 2 {
					t.Errorf("round trip %s -> %s exceeds tolerance", hex, outHex)
				}
			}
		}
	}
}

func absDiff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}

func TestLabToHexOverflow(t *testing.T) {
	_, err := LabToHex(Lab{L: math.Inf(1)})
	if !errors.Is(err, ErrConversionOverflow) {
		t.Errorf("LabToHex(+Inf) error = %v, want ErrConversionOverflow", err)
	}

	_, err = LabToHex(Lab{A: nan()})
	if !errors.Is(err, ErrConversionOverflow) {
		t.Errorf("LabToHex(NaN) error = %v, want ErrConversionOverflow", err)
	}
}

func TestLabToRGBClampsOutOfGamut(t *testing.T) {
	// Extreme chroma is far outside sRGB; conversion must clamp, not wrap.
	got := LabToRGB(Lab{L: 50, A: 127, B: -128})
	if got.G != 0 {
		t.Errorf("LabToRGB() G = %d, want clamped 0", got.G)
	}
	if got.B != 255 {
		t.Errorf("LabToRGB() B = %d, want clamped 255", got.B)
	}
}

func TestClampLab(t *testing.T) {
	got := ClampLab(Lab{L: 120, A: -200, B: 300})
	want := Lab{L: 100, A: -128, B: 127}
	if got != want {
		t.Errorf("ClampLab() = %+v, want %+v", got, want)
	}
}

func TestLabDistance(t *testing.T) {
	d := LabDistance(Lab{L: 0, A: 0, B: 0}, Lab{L: 3, A: 4, B: 12})
	if d != 13 {
		t.Errorf("LabDistance() = %v, want 13", d)
	}
}

func TestLabChromaAndHue(t *testing.T) {
	tests := []struct {
		lab        Lab
		wantChroma float64
		wantHue    float64
	}{
		{Lab{A: 3, B: 4}, 5, 53.130102},
		{Lab{A: -1, B: 0}, 1, 180},
		{Lab{A: 0, B: -2}, 2, 270},
		{Lab{A: 0, B: 0}, 0, 0},
	}

	for _, tt := range tests {
		if got := tt.lab.Chroma(); math.Abs(got-tt.wantChroma) > 1e-9 {
			t.Errorf("Chroma(%+v) = %v, want %v", tt.lab, got, tt.wantChroma)
		}
		if got := tt.lab.Hue(); math.Abs(got-tt.wantHue) > 1e-5 {
			t.Errorf("Hue(%+v) = %v, want %v", tt.lab, got, tt.wantHue)
		}
	}
}

func TestRelativeLuminance(t *testing.T) {
	if got := RelativeLuminance(RGB{}); got != 0 {
		t.Errorf("RelativeLuminance(black) = %v, want 0", got)
	}
	if got := RelativeLuminance(RGB{R: 255, G: 255, B: 255}); math.Abs(got-1) > 1e-12 {
		t.Errorf("RelativeLuminance(white) = %v, want 1", got)
	}
	// Below the 0.03928 threshold the curve is linear.
	if got, want := RelativeLuminance(RGB{R: 10, G: 10, B: 10}), (10.0/255.0)/12.92; math.Abs(got-want) > 1e-12 {
		t.Errorf("RelativeLuminance(#0A0A0A) = %v, want %v", got, want)
	}
}

func TestContrastRatio(t *testing.T) {
	tests := []struct {
		name string
		c1   string
		c2   string
		want float64
	}{
		{name: "black on white", c1: "#000000", c2: "#FFFFFF", want: 21},
		{name: "white on black", c1: "#FFFFFF", c2: "#000000", want: 21},
		{name: "same colour", c1: "#6B5B95", c2: "#6B5B95", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ContrastRatio(tt.c1, tt.c2)
			if err != nil {
				t.Fatalf("ContrastRatio() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ContrastRatio() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := ContrastRatio("#XYZ", "#000000"); err == nil {
		t.Error("ContrastRatio() expected error for malformed hex")
	}
}

func TestContrastRatioAtLeastOne(t *testing.T) {
	samples := []RGB{{}, {R: 255}, {G: 128}, {B: 64}, {R: 200, G: 200, B: 200}, {R: 17, G: 240, B: 99}}
	for _, a := range samples {
		for _, b := range samples {
			if r := ContrastRatioRGB(a, b); r < 1 {
				t.Errorf("ContrastRatioRGB(%+v, %+v) = %v, want >= 1", a, b, r)
			}
		}
	}
}

func TestHueDistance(t *testing.T) {
	tests := []struct {
		h1, h2 float64
		want   float64
	}{
		{10, 20, 10},
		{350, 10, 20},
		{0, 180, 180},
		{90, 300, 150},
	}

	for _, tt := range tests {
		if got := HueDistance(tt.h1, tt.h2); got != tt.want {
			t.Errorf("HueDistance(%v, %v) = %v, want %v", tt.h1, tt.h2, got, tt.want)
		}
	}
}
