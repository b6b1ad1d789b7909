// Package aesthetic runs the learned-aesthetic network in pure Go.
//
// The network maps a K-colour Lab palette, flattened to 3K inputs, through
// two ReLU hidden layers to a single sigmoid output in [0, 1]. Weights are
// trained offline and loaded from JSON in the layout of a PyTorch state_dict
// (weight matrices stored [out][in]).
package aesthetic

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"
	"gonum.org/v1/gonum/mat"

	"github.com/jmylchreest/hueforge/internal/colour"
	"github.com/jmylchreest/hueforge/internal/compression"
)

// ErrShape reports weights or inputs whose dimensions do not fit the network.
var ErrShape = errors.New("shape mismatch")

// Layer is one fully connected layer.
type Layer struct {
	Weight [][]float64 `json:"weight"`
	Bias   []float64   `json:"bias"`
}

// Weights is the serialised form of the network.
type Weights struct {
	K      int   `json:"k"`
	Hidden int   `json:"hidden"`
	FC1    Layer `json:"fc1"`
	FC2    Layer `json:"fc2"`
	Out    Layer `json:"out"`
}

type dense struct {
	w *mat.Dense
	b *mat.VecDense
}

func newDense(l Layer, in, out int, name string) (dense, error) {
	if len(l.Weight) != out || len(l.Bias) != out {
		return dense{}, fmt.Errorf("%w: %s expects %d output rows, got %d weights / %d biases", ErrShape, name, out, len(l.Weight), len(l.Bias))
	}
	data := make([]float64, 0, out*in)
	for i, row := range l.Weight {
		if len(row) != in {
			return dense{}, fmt.Errorf("%w: %s row %d has %d inputs, want %d", ErrShape, name, i, len(row), in)
		}
		data = append(data, row...)
	}
	return dense{
		w: mat.NewDense(out, in, data),
		b: mat.NewVecDense(out, append([]float64(nil), l.Bias...)),
	}, nil
}

func (d dense) forward(x *mat.VecDense) *mat.VecDense {
	r, _ := d.w.Dims()
	y := mat.NewVecDense(r, nil)
	y.MulVec(d.w, x)
	y.AddVec(y, d.b)
	return y
}

// MLP is an immutable, concurrency-safe forward pass of the network.
type MLP struct {
	k            int
	fc1, fc2, ot dense
}

// New builds the network from weights, checking every dimension.
func New(w Weights) (*MLP, error) {
	if w.K < 1 || w.Hidden < 1 {
		return nil, fmt.Errorf("%w: k=%d hidden=%d", ErrShape, w.K, w.Hidden)
	}
	in := 3 * w.K

	fc1, err := newDense(w.FC1, in, w.Hidden, "fc1")
	if err != nil {
		return nil, err
	}
	fc2, err := newDense(w.FC2, w.Hidden, w.Hidden, "fc2")
	if err != nil {
		return nil, err
	}
	out, err := newDense(w.Out, w.Hidden, 1, "out")
	if err != nil {
		return nil, err
	}
	return &MLP{k: w.K, fc1: fc1, fc2: fc2, ot: out}, nil
}

// PaletteSize returns the K the network was trained for.
func (m *MLP) PaletteSize() int {
	return m.k
}

// Predict scores a palette of exactly K colours.
func (m *MLP) Predict(labs []colour.Lab) (float64, error) {
	if len(labs) != m.k {
		return 0, fmt.Errorf("%w: network expects %d colours, got %d", ErrShape, m.k, len(labs))
	}

	x := mat.NewVecDense(3*m.k, nil)
	for i, c := range labs {
		x.SetVec(3*i, c.L)
		x.SetVec(3*i+1, c.A)
		x.SetVec(3*i+2, c.B)
	}

	h := relu(m.fc1.forward(x))
	h = relu(m.fc2.forward(h))
	return sigmoid(m.ot.forward(h).AtVec(0)), nil
}

func relu(v *mat.VecDense) *mat.VecDense {
	for i := range v.Len() {
		if v.AtVec(i) < 0 {
			v.SetVec(i, 0)
		}
	}
	return v
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Load reads network weights from a JSON file, optionally xz, gzip or bzip2
// compressed.
func Load(path string) (*MLP, error) {
	rc, err := compression.Open(path, compression.DefaultLimit)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var w Weights
	if err := json.NewDecoder(rc).Decode(&w); err != nil {
		return nil, fmt.Errorf("failed to decode weights %s: %w", path, err)
	}
	m, err := New(w)
	if err != nil {
		return nil, fmt.Errorf("invalid weights %s: %w", path, err)
	}
	return m, nil
}

// Save writes weights as JSON, xz compressed when path ends in ".xz".
func Save(path string, w Weights) (err error) {
	f, err := os.Create(path) // #nosec G304 - User-specified output path
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if filepath.Ext(path) != ".xz" {
		return json.NewEncoder(f).Encode(w)
	}

	xzw, err := xz.NewWriter(f)
	if err != nil {
		return fmt.Errorf("failed to create xz writer: %w", err)
	}
	if err := json.NewEncoder(xzw).Encode(w); err != nil {
		xzw.Close()
		return fmt.Errorf("failed to encode weights: %w", err)
	}
	return xzw.Close()
}
