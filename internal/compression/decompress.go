// Package compression opens data files that may be gzip, bzip2 or xz
// compressed.
package compression

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/jmylchreest/hueforge/internal/security"
)

// DefaultLimit caps the decompressed size of a single file.
const DefaultLimit = 100 * 1024 * 1024

// Format identifies a compression container.
type Format string

const (
	FormatNone  Format = "none"
	FormatGzip  Format = "gzip"
	FormatBzip2 Format = "bzip2"
	FormatXz    Format = "xz"
)

var magic = []struct {
	format Format
	prefix []byte
}{
	{FormatXz, []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}},
	{FormatGzip, []byte{0x1F, 0x8B}},
	{FormatBzip2, []byte("BZh")},
}

// DetectFormat guesses the format from a file name's extension.
func DetectFormat(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xz":
		return FormatXz
	case ".gz":
		return FormatGzip
	case ".bz2":
		return FormatBzip2
	default:
		return FormatNone
	}
}

// sniff inspects the leading bytes of a stream.
func sniff(br *bufio.Reader) Format {
	head, _ := br.Peek(6)
	for _, m := range magic {
		if bytes.HasPrefix(head, m.prefix) {
			return m.format
		}
	}
	return FormatNone
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var first error
	for _, c := range rc.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewReader wraps r with a decompressor for format. FormatNone sniffs the
// stream and falls back to passing it through unchanged. The returned reader
// fails once more than limit bytes have been produced.
func NewReader(r io.Reader, format Format, limit int64) (io.ReadCloser, error) {
	rc, err := newReader(r, format, limit)
	if err != nil {
		return nil, err
	}
	return rc, nil
}

func newReader(r io.Reader, format Format, limit int64) (*readCloser, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	br := bufio.NewReader(r)
	if format == FormatNone {
		format = sniff(br)
	}

	rc := &readCloser{}
	switch format {
	case FormatXz:
		xzr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		rc.Reader = xzr
	case FormatGzip:
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		rc.Reader = gzr
		rc.closers = append(rc.closers, gzr)
	case FormatBzip2:
		rc.Reader = bzip2.NewReader(br)
	case FormatNone:
		rc.Reader = br
	default:
		return nil, fmt.Errorf("unsupported compression format: %s", format)
	}

	rc.Reader = security.NewLimitedReader(rc.Reader, limit)
	return rc, nil
}

// Open opens path for reading, decompressing it when the extension or the
// content says it is compressed.
func Open(path string, limit int64) (io.ReadCloser, error) {
	f, err := os.Open(path) // #nosec G304 - User-specified data file, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	rc, err := newReader(f, DetectFormat(path), limit)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rc.closers = append(rc.closers, f)
	return rc, nil
}

// ReadFile reads and decompresses the whole of path.
func ReadFile(path string, limit int64) ([]byte, error) {
	rc, err := Open(path, limit)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
