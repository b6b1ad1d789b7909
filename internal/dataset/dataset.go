// Package dataset loads reference palettes used by the novelty sub-score.
//
// A dataset is CSV with one palette per row and one hex colour per cell. A
// header row is skipped when its first cell is not a colour. Files may be
// xz, gzip or bzip2 compressed.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/hueforge/internal/colour"
	"github.com/jmylchreest/hueforge/internal/compression"
)

var (
	// ErrNoPalettes is returned when a dataset holds no usable rows.
	ErrNoPalettes = errors.New("dataset contains no palettes")

	// ErrEmptyCell reports a blank cell between two colours.
	ErrEmptyCell = errors.New("empty cell inside palette row")
)

// Options controls how rows become palettes.
type Options struct {
	// K is the palette size every row is normalised to.
	K int
	// Limit stops after this many palettes; zero reads everything.
	Limit int
	// SkipInvalid drops malformed rows instead of failing.
	SkipInvalid bool
	// MaxBytes caps the decompressed size; zero uses compression.DefaultLimit.
	MaxBytes int64
	Logger   hclog.Logger
}

// Load reads the dataset at path.
func Load(path string, opts Options) ([][]colour.Lab, error) {
	rc, err := compression.Open(path, opts.MaxBytes)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	refs, err := Read(rc, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return refs, nil
}

// Read parses palettes from r.
func Read(r io.Reader, opts Options) ([][]colour.Lab, error) {
	if opts.K < 1 {
		return nil, fmt.Errorf("palette size must be at least 1, got %d", opts.K)
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var refs [][]colour.Lab
	records := 0
	skipped := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		records++
		line, _ := cr.FieldPos(0)
		if records == 1 && isHeader(strings.TrimSpace(rec[0])) {
			continue
		}

		cells, err := cleanCells(rec)
		if err != nil {
			if opts.SkipInvalid {
				skipped++
				logger.Debug("skipping row", "line", line, "error", err)
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(cells) == 0 {
			continue
		}

		p, err := colour.ParsePalette(cells)
		if err != nil {
			if opts.SkipInvalid {
				skipped++
				logger.Debug("skipping row", "line", line, "error", err)
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		refs = append(refs, p.Normalize(opts.K).Lab())

		if opts.Limit > 0 && len(refs) >= opts.Limit {
			break
		}
	}

	if len(refs) == 0 {
		return nil, ErrNoPalettes
	}
	logger.Debug("loaded reference palettes", "count", len(refs), "skipped", skipped, "k", opts.K)
	return refs, nil
}

// cleanCells trims every cell and drops trailing empty ones. An empty cell
// before the last colour is ErrEmptyCell.
func cleanCells(rec []string) ([]string, error) {
	cells := make([]string, len(rec))
	for i, c := range rec {
		cells[i] = strings.TrimSpace(c)
	}
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	for i, c := range cells {
		if c == "" {
			return nil, fmt.Errorf("%w: column %d", ErrEmptyCell, i+1)
		}
	}
	return cells, nil
}

func isHeader(cell string) bool {
	_, err := colour.ParseHex(cell)
	return err != nil
}
