package monte

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/Noofbiz/scoresim/game"
	"github.com/Noofbiz/scoresim/playcaller"
)

const (
	// PlayDuration is the clock time every simulated play consumes.
	PlayDuration = 20

	// MaxPlays bounds the number of plays in one game.
	MaxPlays = (game.GameSeconds + PlayDuration - 1) / PlayDuration

	// MaxAbsYards is the largest gain or loss a provider may report.
	MaxAbsYards = 100
)

var (
	// ErrProviderFailed aborts a game when the provider cannot produce a play.
	ErrProviderFailed = errors.New("play outcome unavailable")

	// ErrInvalidOutcome aborts a game when the provider returns a yardage no
	// play could produce.
	ErrInvalidOutcome = errors.New("invalid play outcome")
)

// SimulationResult is the final score of one simulated game.
type SimulationResult struct {
	HomeScore int
	AwayScore int
}

// SimulateGame plays one game between home and away from kickoff to the
// final whistle. Any provider failure aborts the game; no default yardage is
// substituted.
func SimulateGame(ctx context.Context, home, away string, provider playcaller.OutcomeProvider, rng *rand.Rand) (SimulationResult, error) {
	if provider == nil {
		return SimulationResult{}, fmt.Errorf("%w: provider is nil", ErrProviderFailed)
	}
	g, err := game.New(home, away, rng)
	if err != nil {
		return SimulationResult{}, err
	}
	g.StartGame()

	for plays := 0; !g.Over(); plays++ {
		if plays >= MaxPlays {
			// unreachable while every play takes PlayDuration off the clock
			return SimulationResult{}, fmt.Errorf("%w: game exceeded %d plays", game.ErrInvariantViolation, MaxPlays)
		}
		if err := ctx.Err(); err != nil {
			return SimulationResult{}, err
		}
		s := g.Snapshot()
		yards, err := provider.Outcome(ctx, s)
		if err != nil {
			return SimulationResult{}, fmt.Errorf("%w: play %d (%d left, %d&%d at %d): %w",
				ErrProviderFailed, plays+1, s.ClockSeconds, s.Down, s.YardsToGo, s.FieldPosition, err)
		}
		if yards < -MaxAbsYards || yards > MaxAbsYards {
			return SimulationResult{}, fmt.Errorf("%w: %d yards on play %d", ErrInvalidOutcome, yards, plays+1)
		}
		g.RunPlay(yards, PlayDuration)
	}

	s := g.Snapshot()
	return SimulationResult{HomeScore: s.HomeScore, AwayScore: s.AwayScore}, nil
}
