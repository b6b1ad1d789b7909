package compression

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ulikunitz/xz"
)

const payload = "#FF6F61,#FFD662,#6B5B95\n#88B04B,#F7CAC9,#92A8D1\n"

func xzBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatalf("xz.NewWriter() error = %v", err)
	}
	if _, err := io.WriteString(w, s); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := io.WriteString(w, s); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"palettes.csv.xz", FormatXz},
		{"model.json.GZ", FormatGzip},
		{"data.bz2", FormatBzip2},
		{"palettes.csv", FormatNone},
		{"noext", FormatNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.name); got != tt.want {
				t.Errorf("DetectFormat(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		file string
		data func(t *testing.T) []byte
	}{
		{name: "plain", file: "p.csv", data: func(*testing.T) []byte { return []byte(payload) }},
		{name: "xz by extension", file: "p.csv.xz", data: func(t *testing.T) []byte { return xzBytes(t, payload) }},
		{name: "gzip by extension", file: "p.csv.gz", data: func(t *testing.T) []byte { return gzipBytes(t, payload) }},
		{name: "xz sniffed", file: "p.dat", data: func(t *testing.T) []byte { return xzBytes(t, payload) }},
		{name: "gzip sniffed", file: "q.dat", data: func(t *testing.T) []byte { return gzipBytes(t, payload) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, tt.data(t), 0o600); err != nil {
				t.Fatal(err)
			}

			got, err := ReadFile(path, 0)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if string(got) != payload {
				t.Errorf("ReadFile() = %q, want %q", got, payload)
			}
		})
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "absent.csv"), 0); err == nil {
		t.Error("ReadFile() expected error for missing file")
	}
}

func TestNewReaderLimit(t *testing.T) {
	big := strings.Repeat("a", 4096)
	rc, err := NewReader(bytes.NewReader(xzBytes(t, big)), FormatXz, 1024)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer rc.Close()

	if _, err := io.ReadAll(rc); err == nil {
		t.Error("ReadAll() expected size limit error")
	}
}

func TestNewReaderCorruptXz(t *testing.T) {
	if _, err := NewReader(strings.NewReader("definitely not xz"), FormatXz, 0); err == nil {
		t.Error("NewReader() expected error for corrupt xz stream")
	}
}
