package genai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/hueforge/internal/colour"
)

// EmbedFunc embeds one piece of text.
type EmbedFunc func(ctx context.Context, text string) ([]float64, error)

// Embedder turns palettes into text descriptions and embeds them. Results
// are cached by description, since optimisation revisits similar palettes
// and many of them describe identically. It satisfies reward.Embedder.
type Embedder struct {
	ctx    context.Context
	embed  EmbedFunc
	logger hclog.Logger

	mu    sync.Mutex
	cache map[string][]float64
}

// NewEmbedder builds an embedder around fn.
func NewEmbedder(ctx context.Context, fn EmbedFunc, logger hclog.Logger) *Embedder {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Embedder{
		ctx:    ctx,
		embed:  fn,
		logger: logger,
		cache:  make(map[string][]float64),
	}
}

// EmbedPalette embeds the description of labs.
func (e *Embedder) EmbedPalette(labs []colour.Lab) ([]float64, error) {
	text := Describe(labs)

	e.mu.Lock()
	v, ok := e.cache[text]
	e.mu.Unlock()
	if ok {
		return v, nil
	}

	v, err := e.embed(e.ctx, text)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[text] = v
	e.mu.Unlock()
	e.logger.Trace("embedded palette", "text", text, "dims", len(v))
	return v, nil
}

// CacheSize returns the number of cached embeddings.
func (e *Embedder) CacheSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cache)
}

// Describe renders a palette as text, e.g.
// "colour palette: dark blue, light yellow, grey".
func Describe(labs []colour.Lab) string {
	names := make([]string, len(labs))
	for i, l := range labs {
		names[i] = ColourName(l)
	}
	return fmt.Sprintf("colour palette: %s", strings.Join(names, ", "))
}

// ColourName gives a coarse English name for a Lab colour.
func ColourName(l colour.Lab) string {
	var family string
	switch h := l.Hue(); {
	case l.Chroma() < 10:
		switch {
		case l.L < 15:
			return "black"
		case l.L > 92:
			return "white"
		default:
			family = "grey"
		}
	case h < 20 || h >= 345:
		family = "pink"
	case h < 55:
		family = "red"
	case h < 85:
		family = "orange"
	case h < 115:
		family = "yellow"
	case h < 170:
		family = "green"
	case h < 235:
		family = "cyan"
	case h < 310:
		family = "blue"
	default:
		family = "purple"
	}

	switch {
	case l.L < 35:
		return "dark " + family
	case l.L > 75:
		return "light " + family
	default:
		return family
	}
}
