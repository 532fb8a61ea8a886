// Package playcaller decides what happens on the next play of a simulated
// game. Providers are selected once, when the simulation is configured, and
// each game gets its own provider seeded from that game's random stream.
package playcaller

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/Noofbiz/scoresim/game"
)

var (
	// ErrUnknownMethod is returned by ParseMethod for unsupported playcallers.
	ErrUnknownMethod = errors.New("unknown playcaller method")

	// ErrProvider wraps every failure to produce a play outcome.
	ErrProvider = errors.New("play outcome provider failed")
)

// OutcomeProvider returns the yards gained on the next play given the
// current state of the game.
type OutcomeProvider interface {
	Outcome(ctx context.Context, s game.Snapshot) (int, error)
}

// Method names a playcaller implementation.
type Method string

const (
	// MethodRandom samples yards from a normal distribution fitted to
	// league-wide play results.
	MethodRandom Method = "random"

	// MethodModel asks a fitted regression model for the expected yards.
	MethodModel Method = "nn"
)

// ParseMethod maps a configuration string onto a Method.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodRandom, MethodModel:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// Factory builds a fresh provider for one game, drawing any randomness it
// needs from src.
type Factory func(src rand.Source) (OutcomeProvider, error)

// NewFactory returns the factory for method. predictor is required for
// MethodModel and ignored otherwise.
func NewFactory(method Method, predictor Predictor) (Factory, error) {
	switch method {
	case MethodRandom:
		return func(src rand.Source) (OutcomeProvider, error) {
			return NewStochastic(src), nil
		}, nil
	case MethodModel:
		if predictor == nil {
			return nil, fmt.Errorf("%w: %s requires a predictor", ErrUnknownMethod, method)
		}
		m := NewModel(predictor)
		return func(rand.Source) (OutcomeProvider, error) {
			return m, nil
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}
