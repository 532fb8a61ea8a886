// Package evaluation turns Monte Carlo samples into score predictions and
// compares them against real results.
package evaluation

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/Noofbiz/scoresim/monte"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmptySample is returned when a prediction is requested from no
	// simulated games.
	ErrEmptySample = errors.New("cannot predict from an empty sample")

	// ErrUnknownMethod is returned for an aggregation method name that is not
	// supported.
	ErrUnknownMethod = errors.New("unknown prediction method")
)

type methodKind int

const (
	kindMedian methodKind = iota
	kindMean
	kindQuantile
)

// Method aggregates a sample of scores into a single prediction.
type Method struct {
	kind methodKind
	p    float64
}

var (
	// Median is the middle score, or the mean of the two middle scores for
	// an even sample.
	Median = Method{kind: kindMedian}

	// Mean is the arithmetic mean score.
	Mean = Method{kind: kindMean}
)

// Quantile returns the method predicting the p-quantile of the sample,
// linearly interpolated. p must lie in [0, 1].
func Quantile(p float64) (Method, error) {
	if !(p >= 0 && p <= 1) {
		return Method{}, fmt.Errorf("%w: quantile %v outside [0, 1]", ErrUnknownMethod, p)
	}
	return Method{kind: kindQuantile, p: p}, nil
}

// ParseMethod parses "median", "mean" or "quantile:<p>".
func ParseMethod(s string) (Method, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch {
	case name == "median":
		return Median, nil
	case name == "mean":
		return Mean, nil
	case strings.HasPrefix(name, "quantile:"):
		p, err := strconv.ParseFloat(strings.TrimPrefix(name, "quantile:"), 64)
		if err != nil {
			return Method{}, fmt.Errorf("%w: %q: %w", ErrUnknownMethod, s, err)
		}
		return Quantile(p)
	default:
		return Method{}, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

func (m Method) String() string {
	switch m.kind {
	case kindMean:
		return "mean"
	case kindQuantile:
		return "quantile:" + strconv.FormatFloat(m.p, 'g', -1, 64)
	default:
		return "median"
	}
}

// aggregate expects a non-empty sorted sample.
func (m Method) aggregate(sorted []float64) float64 {
	switch m.kind {
	case kindMean:
		return stat.Mean(sorted, nil)
	case kindQuantile:
		return stat.Quantile(m.p, stat.LinInterp, sorted, nil)
	default:
		n := len(sorted)
		if n%2 == 1 {
			return sorted[n/2]
		}
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
}

// Prediction is the predicted final score of one matchup.
type Prediction struct {
	Home   float64
	Away   float64
	Method string
}

// Predict aggregates each side of the sample independently.
func Predict(results []monte.SimulationResult, method Method) (Prediction, error) {
	if len(results) == 0 {
		return Prediction{}, ErrEmptySample
	}
	home := make([]float64, len(results))
	away := make([]float64, len(results))
	for i, r := range results {
		home[i] = float64(r.HomeScore)
		away[i] = float64(r.AwayScore)
	}
	slices.Sort(home)
	slices.Sort(away)

	return Prediction{
		Home:   method.aggregate(home),
		Away:   method.aggregate(away),
		Method: method.String(),
	}, nil
}

// Residuals returns actual minus predicted for each side.
func Residuals(actualHome, actualAway int, p Prediction) (home, away float64) {
	return float64(actualHome) - p.Home, float64(actualAway) - p.Away
}
