package playcaller

import (
	"context"
	"math/rand/v2"

	"github.com/Noofbiz/scoresim/game"
	"gonum.org/v1/gonum/stat/distuv"
)

// League-wide mean and standard deviation of yards gained per play.
const (
	DefaultYardsMean   = 3.945493
	DefaultYardsStdDev = 7.746565
)

// Stochastic ignores the game situation and draws yards from a normal
// distribution.
type Stochastic struct {
	dist distuv.Normal
}

// NewStochastic returns a sampler with the league-wide distribution drawing
// from src.
func NewStochastic(src rand.Source) *Stochastic {
	return NewStochasticWith(src, DefaultYardsMean, DefaultYardsStdDev)
}

// NewStochasticWith returns a sampler with a custom distribution.
func NewStochasticWith(src rand.Source, mean, stddev float64) *Stochastic {
	return &Stochastic{
		dist: distuv.Normal{Mu: mean, Sigma: stddev, Src: src},
	}
}

// Outcome samples one play. The draw is truncated toward zero.
func (s *Stochastic) Outcome(ctx context.Context, _ game.Snapshot) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return int(s.dist.Rand()), nil
}
