package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hueforge/internal/colour"
	"github.com/jmylchreest/hueforge/internal/image"
	"github.com/jmylchreest/hueforge/internal/roles"
)

// extractFlags configures k-means palette extraction.
type extractFlags struct {
	colours  int
	seed     uint64
	output   string
	cacheDir string
}

func (a *app) newExtractCmd() *cobra.Command {
	var f extractFlags

	cmd := &cobra.Command{
		Use:   "extract <image|directory|url>",
		Short: "Extract a starting palette from an image",
		Long: `Extract a palette from an image with k-means clustering in Lab space.

A single image (or HTTPS URL) prints its palette with roles. A directory
produces one CSV row of hex colours per image, in file name order, which can
be used directly as a --references dataset.

Supported image formats: JPEG, PNG, GIF, WebP

Examples:
  # Extract the default palette size from a wallpaper
  hueforge extract wallpaper.jpg

  # Extract 5 colours from a remote image, caching the download
  hueforge extract -c 5 --cache-dir ~/.cache/hueforge/images https://example.com/photo.png

  # Build a reference dataset from a directory of images
  hueforge extract -o references.csv ~/Pictures/palettes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExtract(cmd, &f, args[0])
		},
	}

	cmd.Flags().IntVarP(&f.colours, "colours", "c", 0, "number of colours to extract (default: palette size)")
	cmd.Flags().Uint64Var(&f.seed, "seed", colour.DefaultExtractorConfig().Seed, "k-means seed")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&f.cacheDir, "cache-dir", "", "cache downloaded images in this directory")
	return cmd
}

func (a *app) runExtract(cmd *cobra.Command, f *extractFlags, target string) error {
	if err := image.ValidateImagePath(target); err != nil {
		return fmt.Errorf("invalid image path: %w", err)
	}

	out := cmd.OutOrStdout()
	if f.output != "" {
		file, err := os.Create(f.output) // #nosec G304 - User-specified output path
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	if !image.IsURL(target) {
		if info, err := os.Stat(target); err == nil && info.IsDir() {
			return a.extractDataset(cmd, f, target, out)
		}
	}

	p, err := a.extractPalette(contextOf(cmd), f, target)
	if err != nil {
		return err
	}
	assignment, err := roles.AssignPalette(p)
	if err != nil {
		return err
	}

	if a.format == formatJSON {
		return writeJSON(out, struct {
			Source  string           `json:"source"`
			Palette []colourJSON     `json:"palette"`
			Roles   roles.Assignment `json:"roles"`
		}{target, paletteJSON(p, assignment), assignment})
	}
	_, err = fmt.Fprint(out, paletteTable(p, assignment, f.output == "" && a.showPreview(out)).Render())
	return err
}

// extractDataset writes one CSV row per image in dir. Images that fail to
// load are skipped with a warning.
func (a *app) extractDataset(cmd *cobra.Command, f *extractFlags, dir string, out io.Writer) error {
	files, err := image.ScanDirectoryForImages(dir)
	if err != nil {
		return err
	}

	w := csv.NewWriter(out)
	written := 0
	for _, path := range files {
		p, err := a.extractPalette(contextOf(cmd), f, path)
		if err != nil {
			a.info(cmd, "Warning: skipping %s: %v", path, err)
			continue
		}
		if err := w.Write(p.Hex()); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
		written++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	a.info(cmd, "Extracted %d of %d images", written, len(files))
	return nil
}

// extractPalette loads one image and clusters it.
func (a *app) extractPalette(ctx context.Context, f *extractFlags, path string) (*colour.Palette, error) {
	count := f.colours
	if count == 0 {
		count = a.cfg.PaletteSize
	}
	cfg := colour.ExtractorConfig{
		Algorithm:  colour.AlgorithmKMeans,
		ColorCount: count,
		Seed:       f.seed,
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	loader := image.NewSmartLoader()
	loader.CacheDir = f.cacheDir
	loader.Logger = a.logger.Named("image")

	a.logger.Debug("loading image", "path", path)
	img, err := loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	bounds := img.Bounds()
	a.logger.Debug("image loaded", "width", bounds.Dx(), "height", bounds.Dy())

	extractor, err := colour.NewExtractor(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}
	p, err := extractor.Extract(img, count)
	if err != nil {
		return nil, fmt.Errorf("failed to extract colours: %w", err)
	}
	a.logger.Debug("extracted palette", "colours", p.Len(), "hex", p.Hex())
	return p, nil
}
