package reward

import (
	"errors"

	"github.com/jmylchreest/hueforge/internal/colour"
)

// ErrPredictorUnavailable reports that no learned-aesthetic predictor could
// serve a request. The scorer recovers from it by substituting Neutral.
var ErrPredictorUnavailable = errors.New("learned-aesthetic predictor unavailable")

// Predictor estimates the aesthetic quality of a Lab palette as a value in
// [0, 1]. Implementations must be safe for concurrent use.
type Predictor interface {
	Predict(labs []colour.Lab) (float64, error)
}

// PredictorFunc adapts a function to the Predictor interface.
type PredictorFunc func(labs []colour.Lab) (float64, error)

// Predict calls f.
func (f PredictorFunc) Predict(labs []colour.Lab) (float64, error) {
	return f(labs)
}

// Embedder maps a Lab palette into the same vector space as the prompt
// embedding used for semantic scoring. Implementations must be safe for
// concurrent use.
type Embedder interface {
	EmbedPalette(labs []colour.Lab) ([]float64, error)
}

// EmbedderFunc adapts a function to the Embedder interface.
type EmbedderFunc func(labs []colour.Lab) ([]float64, error)

// EmbedPalette calls f.
func (f EmbedderFunc) EmbedPalette(labs []colour.Lab) ([]float64, error) {
	return f(labs)
}
