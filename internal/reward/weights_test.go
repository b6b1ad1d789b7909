package reward

import (
	"math"
	"testing"
)

func TestPresetWeights(t *testing.T) {
	tests := []struct {
		name    string
		want    Weights
		wantErr bool
	}{
		{name: "", want: StandardWeights()},
		{name: "standard", want: StandardWeights()},
		{name: "EXTENDED", want: ExtendedWeights()},
		{name: "bogus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PresetWeights(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PresetWeights(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.String() != tt.want.String() {
				t.Errorf("PresetWeights(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}

func TestPresetContents(t *testing.T) {
	std := StandardWeights()
	if len(std) != 6 || std.Has(KeyNovelty) || std.Has(KeySemantic) {
		t.Errorf("StandardWeights() = %s, want six terms without N and S", std)
	}

	ext := ExtendedWeights()
	if len(ext) != 8 {
		t.Errorf("ExtendedWeights() has %d terms, want 8", len(ext))
	}

	var sum float64
	for _, v := range ext {
		sum += v
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("ExtendedWeights() sum = %v, want 1", sum)
	}
}

func TestParseWeights(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "simple", input: "H=0.5,L=0.5", want: "H=0.5,L=0.5"},
		{name: "lower case and spaces", input: " h = 0.3 , c=0.7 ", want: "H=0.3,C=0.7"},
		{name: "unknown key", input: "Q=1", wantErr: true},
		{name: "missing value", input: "H", wantErr: true},
		{name: "not a number", input: "H=abc", wantErr: true},
		{name: "negative", input: "H=-0.1", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWeights(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWeights(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got.String() != tt.want {
				t.Errorf("ParseWeights(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestWeightsValidateRejectsNonFinite(t *testing.T) {
	if err := (Weights{KeyHarmony: math.Inf(1)}).Validate(); err == nil {
		t.Error("Validate() expected error for +Inf")
	}
	if err := (Weights{KeyHarmony: math.NaN()}).Validate(); err == nil {
		t.Error("Validate() expected error for NaN")
	}
}

func TestWeightsCloneIsIndependent(t *testing.T) {
	w := StandardWeights()
	c := w.Clone()
	c[KeyHarmony] = 9
	if w[KeyHarmony] == 9 {
		t.Error("Clone() shares storage with the original")
	}
}

func TestComponentName(t *testing.T) {
	for _, key := range AllKeys {
		if ComponentName(key) == key {
			t.Errorf("ComponentName(%q) has no long name", key)
		}
	}
	if got := ComponentName("Z"); got != "Z" {
		t.Errorf("ComponentName(Z) = %q, want Z", got)
	}
}
