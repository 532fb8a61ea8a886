package monte

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/Noofbiz/scoresim/logger"
	"github.com/Noofbiz/scoresim/playcaller"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrBudgetExceeded is returned when the wall-clock budget ran out before a
// single game finished.
var ErrBudgetExceeded = errors.New("simulation budget exceeded")

// streamSeed is the second PCG seed paired with a configured seed.
const streamSeed = 0xda3e39cb94b95bdb

// NewRand returns the random source a configured seed stands for.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, streamSeed))
}

// Monte runs Monte Carlo simulations of a single matchup. Every game is
// played with its own random stream derived from the caller's source, so a
// seeded source gives the same sample regardless of how many workers run.
type Monte struct {
	// Factory builds a fresh outcome provider for each game.
	Factory playcaller.Factory

	// Workers is the number of games played concurrently. Zero means one per
	// CPU.
	Workers int

	// Budget bounds the wall-clock time of one Simulate call. Zero means no
	// limit.
	Budget time.Duration

	log *logrus.Entry
}

// NewMonte creates a new Monte object. factory must be non-nil.
func NewMonte(factory playcaller.Factory) (*Monte, error) {
	if factory == nil {
		return nil, errors.New("provider factory cannot be nil")
	}
	return &Monte{
		Factory: factory,
		log:     logger.Discard(),
	}, nil
}

// SetWorkers sets how many games are simulated concurrently.
func (m *Monte) SetWorkers(n int) {
	if m == nil {
		return
	}
	m.Workers = n
}

// SetBudget sets the wall-clock limit for one Simulate call.
func (m *Monte) SetBudget(d time.Duration) {
	if m == nil {
		return
	}
	m.Budget = d
}

// SetLogger sets the entry progress and warnings are logged to.
func (m *Monte) SetLogger(l *logrus.Entry) {
	if m == nil || l == nil {
		return
	}
	m.log = l
}

// Simulate plays numSims games of away at home and returns their final
// scores in iteration order.
//
// The algorithm:
//  1. Draw two seeds per game from src, serially and in iteration order.
//  2. Hand game indices to a pool of workers.
//  3. Each worker builds a PCG stream from the game's seeds, a fresh
//     provider from the factory, and plays the game to completion.
//  4. Results land in the slot of their iteration index.
//
// The first failing game cancels the rest and its error is returned. If the
// budget runs out, the games finished so far are returned in iteration
// order.
func (m *Monte) Simulate(ctx context.Context, home, away string, numSims int, src *rand.Rand) ([]SimulationResult, error) {
	if m == nil {
		return nil, errors.New("Monte object is nil")
	}
	if numSims < 0 {
		return nil, fmt.Errorf("numSims must be >= 0, got %d", numSims)
	}
	if numSims == 0 {
		return []SimulationResult{}, nil
	}
	if src == nil {
		return nil, errors.New("random source cannot be nil")
	}

	// Precompute independent seeds using the caller's source (serial access).
	seeds := make([][2]uint64, numSims)
	for i := range seeds {
		seeds[i] = [2]uint64{src.Uint64(), src.Uint64()}
	}

	runCtx := ctx
	if m.Budget > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, m.Budget)
		defer cancel()
	}

	workerCount := m.Workers
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	if workerCount > numSims {
		workerCount = numSims
	}

	results := make([]SimulationResult, numSims)
	done := make([]bool, numSims)
	jobs := make(chan int, numSims)
	for i := 0; i < numSims; i++ {
		jobs <- i
	}
	close(jobs)

	start := time.Now()
	g, gctx := errgroup.WithContext(runCtx)
	for w := 0; w < workerCount; w++ {
		g.Go(func() error {
			for sim := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}
				pcg := rand.NewPCG(seeds[sim][0], seeds[sim][1])
				provider, err := m.Factory(pcg)
				if err != nil {
					return fmt.Errorf("game %d: build provider: %w", sim, err)
				}
				res, err := SimulateGame(gctx, home, away, provider, rand.New(pcg))
				if err != nil {
					return fmt.Errorf("game %d: %w", sim, err)
				}
				results[sim] = res
				done[sim] = true
			}
			return nil
		})
	}
	err := g.Wait()

	log := m.log.WithFields(logrus.Fields{
		"home":    home,
		"away":    away,
		"sims":    numSims,
		"workers": workerCount,
		"elapsed": time.Since(start).Round(time.Millisecond),
	})

	if err == nil {
		log.Debug("matchup simulated")
		return results, nil
	}
	if ctx.Err() != nil || m.Budget <= 0 || !errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	completed := make([]SimulationResult, 0, numSims)
	for i, ok := range done {
		if ok {
			completed = append(completed, results[i])
		}
	}
	if len(completed) == 0 {
		return nil, fmt.Errorf("%w: no game finished within %s", ErrBudgetExceeded, m.Budget)
	}
	log.WithField("completed", len(completed)).Warn("simulation budget exceeded, returning partial sample")
	return completed, nil
}
