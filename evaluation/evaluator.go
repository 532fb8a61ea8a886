package evaluation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Noofbiz/scoresim/datasets"
	"github.com/Noofbiz/scoresim/logger"
	"github.com/Noofbiz/scoresim/monte"
	"github.com/sirupsen/logrus"
)

// Simulator produces a Monte Carlo sample for one matchup. *monte.Monte
// implements it.
type Simulator interface {
	Simulate(ctx context.Context, home, away string, numSims int, src *rand.Rand) ([]monte.SimulationResult, error)
}

// Row is the prediction for one scheduled game and, once it has been
// played, how far off it was.
type Row struct {
	GameID   string
	Season   int
	Week     int
	HomeTeam string
	AwayTeam string

	Prediction Prediction
	// Samples is the number of simulated games behind the prediction. It is
	// below the configured iterations when a budget cut the run short.
	Samples int

	Played       bool
	HomeScore    int
	AwayScore    int
	HomeResidual float64
	AwayResidual float64
}

// Evaluator predicts every game of a schedule.
type Evaluator struct {
	Runner     Simulator
	Iterations int
	Method     Method
	Seed       uint64

	log *logrus.Entry
}

// NewEvaluator creates an Evaluator running iterations games per matchup.
func NewEvaluator(runner Simulator, iterations int, method Method, seed uint64) (*Evaluator, error) {
	if runner == nil {
		return nil, errors.New("simulator cannot be nil")
	}
	if iterations < 0 {
		return nil, fmt.Errorf("iterations must be >= 0, got %d", iterations)
	}
	return &Evaluator{
		Runner:     runner,
		Iterations: iterations,
		Method:     method,
		Seed:       seed,
		log:        logger.Discard(),
	}, nil
}

// SetLogger sets the entry per-matchup progress is logged to.
func (e *Evaluator) SetLogger(l *logrus.Entry) {
	if e == nil || l == nil {
		return
	}
	e.log = l
}

// Evaluate simulates games in order with one random stream seeded from
// Seed, so the same schedule and seed always give the same rows. The first
// failing matchup aborts the evaluation.
func (e *Evaluator) Evaluate(ctx context.Context, games []datasets.Game) ([]Row, error) {
	samples, err := e.Simulate(ctx, games)
	if err != nil {
		return nil, err
	}
	return BuildRows(games, samples, e.Method)
}

// Simulate returns one Monte Carlo sample per game, in schedule order.
func (e *Evaluator) Simulate(ctx context.Context, games []datasets.Game) ([][]monte.SimulationResult, error) {
	if e == nil || e.Runner == nil {
		return nil, errors.New("evaluator is not initialised")
	}
	rng := monte.NewRand(e.Seed)

	samples := make([][]monte.SimulationResult, len(games))
	for i, g := range games {
		start := time.Now()
		results, err := e.Runner.Simulate(ctx, g.HomeTeam, g.AwayTeam, e.Iterations, rng)
		if err != nil {
			return nil, fmt.Errorf("game %s (%s at %s): %w", g.GameID, g.AwayTeam, g.HomeTeam, err)
		}
		samples[i] = results

		e.log.WithFields(logrus.Fields{
			"game_id": g.GameID,
			"home":    g.HomeTeam,
			"away":    g.AwayTeam,
			"samples": len(results),
			"elapsed": time.Since(start).Round(time.Millisecond),
		}).Info("matchup simulated")
	}
	return samples, nil
}

// BuildRows predicts each game from its sample with method and compares the
// prediction to the result of games already played.
func BuildRows(games []datasets.Game, samples [][]monte.SimulationResult, method Method) ([]Row, error) {
	if len(games) != len(samples) {
		return nil, fmt.Errorf("%d games but %d samples", len(games), len(samples))
	}
	rows := make([]Row, 0, len(games))
	for i, g := range games {
		pred, err := Predict(samples[i], method)
		if err != nil {
			return nil, fmt.Errorf("game %s (%s at %s): %w", g.GameID, g.AwayTeam, g.HomeTeam, err)
		}

		row := Row{
			GameID:     g.GameID,
			Season:     g.Season,
			Week:       g.Week,
			HomeTeam:   g.HomeTeam,
			AwayTeam:   g.AwayTeam,
			Prediction: pred,
			Samples:    len(samples[i]),
			Played:     g.Played,
		}
		if g.Played {
			row.HomeScore = g.HomeScore
			row.AwayScore = g.AwayScore
			row.HomeResidual, row.AwayResidual = Residuals(g.HomeScore, g.AwayScore, pred)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
