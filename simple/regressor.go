package simple

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Noofbiz/scoresim/playcaller"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// NumericFeatures is the number of scaled numeric columns at the start of
// every encoded vector: down, seconds remaining, yards to go, field
// position, possession score, defense score.
const NumericFeatures = 6

// Encoder turns playcaller.Features into the vector layout the model was
// fitted on: scaled numerics followed by one-hot blocks for the possession,
// defense, home and away teams.
type Encoder struct {
	Teams []string                 `json:"teams"`
	Mean  [NumericFeatures]float64 `json:"mean"`
	Scale [NumericFeatures]float64 `json:"scale"`

	teamIndex map[string]int
}

// NewEncoder builds an encoder over a team vocabulary. A zero scale entry is
// treated as 1.
func NewEncoder(teams []string, mean, scale [NumericFeatures]float64) *Encoder {
	e := &Encoder{Teams: teams, Mean: mean, Scale: scale}
	e.index()
	return e
}

func (e *Encoder) index() {
	e.teamIndex = make(map[string]int, len(e.Teams))
	for i, t := range e.Teams {
		e.teamIndex[t] = i
	}
}

// Dim is the length of an encoded vector.
func (e *Encoder) Dim() int {
	return NumericFeatures + 4*len(e.Teams)
}

// Encode lays out f as a model input. Teams outside the vocabulary encode as
// all zeros in their block.
func (e *Encoder) Encode(f playcaller.Features) []float32 {
	out := make([]float32, e.Dim())
	numeric := [NumericFeatures]int{
		f.Down,
		f.SecondsRemaining,
		f.YardsToGo,
		f.FieldPosition,
		f.PossessionScore,
		f.DefenseScore,
	}
	for i, v := range numeric {
		scale := e.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = float32((float64(v) - e.Mean[i]) / scale)
	}

	n := len(e.Teams)
	for block, team := range []string{f.PossessionTeam, f.DefenseTeam, f.HomeTeam, f.AwayTeam} {
		if idx, ok := e.teamIndex[team]; ok {
			out[NumericFeatures+block*n+idx] = 1
		}
	}
	return out
}

// Regressor pairs a Model with the Encoder it was fitted with. It implements
// playcaller.Predictor.
type Regressor struct {
	Model   *Model
	Encoder *Encoder
}

// NewRegressor checks that model and encoder agree on the input width.
func NewRegressor(model *Model, enc *Encoder) (*Regressor, error) {
	if model == nil || enc == nil {
		return nil, fmt.Errorf("%w: model and encoder are required", ErrModelUnavailable)
	}
	if model.Config.InputDim != enc.Dim() {
		return nil, fmt.Errorf("%w: model expects %d inputs, encoder produces %d",
			ErrModelUnavailable, model.Config.InputDim, enc.Dim())
	}
	return &Regressor{Model: model, Encoder: enc}, nil
}

// Predict returns the expected yards for the situation in f.
func (r *Regressor) Predict(f playcaller.Features) (float64, error) {
	in := tensors.FromAnyValue([][]float32{r.Encoder.Encode(f)})
	out, err := r.Model.PredictTensor(in)
	if err != nil {
		return 0, err
	}
	return float64(out[0]), nil
}

// modelFile is the on-disk JSON representation of a fitted Regressor.
type modelFile struct {
	Config  Config        `json:"config"`
	Encoder *Encoder      `json:"encoder"`
	Weights [][][]float32 `json:"weights"`
	Biases  [][]float32   `json:"biases"`
}

// LoadRegressor reads a fitted model from a JSON file.
func LoadRegressor(path string) (*Regressor, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty model path", ErrModelUnavailable)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrModelUnavailable, path, err)
	}
	var mf modelFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrModelUnavailable, path, err)
	}
	if mf.Encoder == nil {
		return nil, fmt.Errorf("%w: %s has no encoder", ErrModelUnavailable, path)
	}
	mf.Encoder.index()

	model, err := newModelWithWeights(mf.Config, mf.Weights, mf.Biases)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelUnavailable, path, err)
	}
	return NewRegressor(model, mf.Encoder)
}

// Fingerprint identifies the model file at path by a SHA-256 of its
// contents, so samples simulated with one model are never mistaken for
// another's.
func Fingerprint(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty model path", ErrModelUnavailable)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", ErrModelUnavailable, path, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Save writes the regressor in the format read by LoadRegressor.
func (r *Regressor) Save(path string) error {
	data, err := json.Marshal(modelFile{
		Config:  r.Model.Config,
		Encoder: r.Encoder,
		Weights: r.Model.weights,
		Biases:  r.Model.biases,
	})
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write model %s: %w", path, err)
	}
	return nil
}

// NewFactory builds the provider factory for method, loading the model at
// modelPath when the method needs one. The loaded model is shared by every
// game.
func NewFactory(method playcaller.Method, modelPath string) (playcaller.Factory, error) {
	if method != playcaller.MethodModel {
		return playcaller.NewFactory(method, nil)
	}
	reg, err := LoadRegressor(modelPath)
	if err != nil {
		return nil, err
	}
	return playcaller.NewFactory(method, reg)
}
