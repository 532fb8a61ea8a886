package simple

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// ErrModelUnavailable wraps failures to load or use a fitted model.
var ErrModelUnavailable = errors.New("model unavailable")

// Config holds the architecture of the MLP.
type Config struct {
	// HiddenSizes is the list of hidden layer sizes. Example: []int{64, 32}
	// If empty, a single hidden layer of size 64 will be used.
	HiddenSizes []int `json:"hidden_sizes"`

	// InputDim is the dimensionality of the encoded feature vector.
	InputDim int `json:"input_dim"`

	// Seed controls weight initialisation for freshly created models.
	Seed uint64 `json:"seed,omitempty"`
}

// Model is a small MLP regressing the yards gained on a play from an encoded
// game situation. Hidden layers use ReLU, the single output is linear.
//
// Weights are never mutated after construction or loading so a Model may be
// shared by concurrent simulations.
type Model struct {
	Config Config

	// layerSizes includes input size, hidden sizes, then output size.
	layerSizes []int

	// weights[l] is a matrix of shape [out][in] for layer l -> l+1
	weights [][][]float32

	// biases[l] is a vector of length out for layer l -> l+1
	biases [][]float32
}

// NewModel creates a Model with small random weights. Fitted weights are
// normally loaded with LoadRegressor instead.
func NewModel(cfg Config) (*Model, error) {
	if len(cfg.HiddenSizes) == 0 {
		cfg.HiddenSizes = []int{64}
	}
	if cfg.InputDim <= 0 {
		return nil, fmt.Errorf("input dim must be > 0, got %d", cfg.InputDim)
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	m := &Model{Config: cfg}
	m.layerSizes = layerSizes(cfg)

	L := len(m.layerSizes) - 1
	m.weights = make([][][]float32, L)
	m.biases = make([][]float32, L)
	for l := 0; l < L; l++ {
		in := m.layerSizes[l]
		out := m.layerSizes[l+1]
		// Xavier/Glorot uniform initialization heuristic
		limit := float32(math.Sqrt(6.0 / float64(in+out)))
		mat := make([][]float32, out)
		for j := 0; j < out; j++ {
			row := make([]float32, in)
			for i := 0; i < in; i++ {
				row[i] = (rng.Float32()*2.0 - 1.0) * limit * 0.5
			}
			mat[j] = row
		}
		m.weights[l] = mat
		m.biases[l] = make([]float32, out)
	}
	return m, nil
}

// newModelWithWeights builds a Model from stored parameters, validating every
// layer against the configured architecture.
func newModelWithWeights(cfg Config, weights [][][]float32, biases [][]float32) (*Model, error) {
	if cfg.InputDim <= 0 {
		return nil, fmt.Errorf("input dim must be > 0, got %d", cfg.InputDim)
	}
	sizes := layerSizes(cfg)
	L := len(sizes) - 1
	if len(weights) != L || len(biases) != L {
		return nil, fmt.Errorf("expected %d layers, got %d weight and %d bias layers", L, len(weights), len(biases))
	}
	for l := 0; l < L; l++ {
		in, out := sizes[l], sizes[l+1]
		if len(weights[l]) != out || len(biases[l]) != out {
			return nil, fmt.Errorf("layer %d: expected %d outputs, got weights=%d biases=%d", l, out, len(weights[l]), len(biases[l]))
		}
		for j, row := range weights[l] {
			if len(row) != in {
				return nil, fmt.Errorf("layer %d row %d: expected %d inputs, got %d", l, j, in, len(row))
			}
		}
	}
	return &Model{Config: cfg, layerSizes: sizes, weights: weights, biases: biases}, nil
}

func layerSizes(cfg Config) []int {
	hidden := cfg.HiddenSizes
	if len(hidden) == 0 {
		hidden = []int{64}
	}
	const outputDim = 1
	sizes := make([]int, 0, 2+len(hidden))
	sizes = append(sizes, cfg.InputDim)
	sizes = append(sizes, hidden...)
	sizes = append(sizes, outputDim)
	return sizes
}

// activationReLU applies ReLU in-place over the slice.
func activationReLU(x []float32) {
	for i := range x {
		if x[i] < 0 {
			x[i] = 0
		}
	}
}

// forward runs a single input vector through the network and returns the
// output activation.
func (m *Model) forward(input []float32) ([]float32, error) {
	if len(input) != m.layerSizes[0] {
		return nil, fmt.Errorf("input has dimension %d, model expects %d", len(input), m.layerSizes[0])
	}
	act := make([]float32, len(input))
	copy(act, input)

	L := len(m.weights)
	for l := 0; l < L; l++ {
		W := m.weights[l]
		b := m.biases[l]
		next := make([]float32, len(b))
		for j := range next {
			sum := b[j]
			row := W[j]
			for i, v := range act {
				sum += row[i] * v
			}
			next[j] = sum
		}
		// ReLU for hidden, linear for last layer
		if l < L-1 {
			activationReLU(next)
		}
		act = next
	}
	return act, nil
}

// PredictBatch returns one yards prediction per input vector.
func (m *Model) PredictBatch(inputs [][]float32) ([]float32, error) {
	out := make([]float32, len(inputs))
	for i, in := range inputs {
		act, err := m.forward(in)
		if err != nil {
			return nil, fmt.Errorf("example %d: %w", i, err)
		}
		out[i] = act[0]
	}
	return out, nil
}

// PredictTensor runs a [batch][inputDim] float32 gomlx tensor through the
// model.
func (m *Model) PredictTensor(t *tensors.Tensor) ([]float32, error) {
	if t == nil {
		return nil, errors.New("tensor is nil")
	}
	inputs, ok := t.Value().([][]float32)
	if !ok {
		return nil, fmt.Errorf("expected a [batch][features] float32 tensor, got %T", t.Value())
	}
	return m.PredictBatch(inputs)
}
