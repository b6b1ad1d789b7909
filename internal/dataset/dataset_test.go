package dataset

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ulikunitz/xz"

	"github.com/jmylchreest/hueforge/internal/colour"
)

const sample = `c1,c2,c3,c4
#FF6F61,#FFD662,#6B5B95,#88B04B
#000000, #FFFFFF
6B5B95,88B04B,F7CAC9,92A8D1,955251
`

func TestRead(t *testing.T) {
	refs, err := Read(strings.NewReader(sample), Options{K: 4})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(refs) != 3 {
		t.Fatalf("Read() returned %d palettes, want 3", len(refs))
	}
	for i, r := range refs {
		if len(r) != 4 {
			t.Errorf("palette %d has %d colours, want 4", i, len(r))
		}
	}

	// Short rows are padded with white.
	if l := refs[1][3].L; math.Abs(l-100) > 0.01 {
		t.Errorf("padded colour L = %v, want 100", l)
	}
	// Long rows are truncated.
	want, _ := colour.HexToLab("#92A8D1")
	if refs[2][3] != want {
		t.Errorf("truncated row last colour = %v, want %v", refs[2][3], want)
	}
}

func TestReadOptions(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		opts    Options
		want    int
		wantErr error
	}{
		{name: "limit", input: sample, opts: Options{K: 3, Limit: 2}, want: 2},
		{name: "no header", input: "#111111,#222222\n#333333\n", opts: Options{K: 2}, want: 2},
		{name: "blank lines", input: "\n#111111\n\n#222222\n", opts: Options{K: 1}, want: 2},
		{name: "skip invalid", input: "#111111\n#12345Z,#000000\n#222222\n", opts: Options{K: 2, SkipInvalid: true}, want: 2},
		{name: "header only", input: "a,b,c\n", opts: Options{K: 2}, wantErr: ErrNoPalettes},
		{name: "trailing comma", input: "#112233,#445566,\n#778899,,\n", opts: Options{K: 2}, want: 2},
		{name: "interior empty cell", input: "#112233,,#445566\n", opts: Options{K: 3}, wantErr: ErrEmptyCell},
		{name: "interior empty cell skipped", input: "#112233,,#445566\n#778899\n", opts: Options{K: 3, SkipInvalid: true}, want: 1},
		{name: "empty", input: "", opts: Options{K: 2}, wantErr: ErrNoPalettes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs, err := Read(strings.NewReader(tt.input), tt.opts)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Read() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if len(refs) != tt.want {
				t.Errorf("Read() returned %d palettes, want %d", len(refs), tt.want)
			}
		})
	}
}

func TestReadMalformedRow(t *testing.T) {
	_, err := Read(strings.NewReader("#111111\n#12345Z\n"), Options{K: 2})
	var cfe *colour.ColorFormatError
	if !errors.As(err, &cfe) {
		t.Fatalf("Read() error = %v, want *ColorFormatError", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q does not name the line", err)
	}
}

func TestReadEmptyCellKeepsColumns(t *testing.T) {
	refs, err := Read(strings.NewReader("#FF0000, ,#0000FF\n#FF0000,#00FF00,#0000FF\n"), Options{K: 3, SkipInvalid: true})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("Read() returned %d palettes, want 1", len(refs))
	}
	green := colour.RGBToLab(colour.RGB{G: 255})
	if refs[0][1] != green {
		t.Errorf("second colour = %+v, want %+v", refs[0][1], green)
	}
}

func TestReadErrorLineNumbers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "after blank lines", input: "\n#111111\n\n#12345Z\n", want: "line 4:"},
		{name: "after header", input: "c1,c2\n#111111,#222222\n#333333,,#444444\n", want: "line 3:"},
		{name: "first row", input: "#111111,#XYZXYZ\n", want: "line 1:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), Options{K: 2})
			if err == nil {
				t.Fatal("Read() expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestReadInvalidSize(t *testing.T) {
	if _, err := Read(strings.NewReader(sample), Options{}); err == nil {
		t.Error("Read() expected error for K=0")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "refs.csv")
	if err := os.WriteFile(plain, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, sample); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	compressed := filepath.Join(dir, "refs.csv.xz")
	if err := os.WriteFile(compressed, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{plain, compressed} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			refs, err := Load(path, Options{K: 8})
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(refs) != 3 || len(refs[0]) != 8 {
				t.Errorf("Load() shape = %d x %d, want 3 x 8", len(refs), len(refs[0]))
			}
		})
	}

	if _, err := Load(filepath.Join(dir, "missing.csv"), Options{K: 8}); err == nil {
		t.Error("Load() expected error for missing file")
	}
}
