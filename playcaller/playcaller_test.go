package playcaller

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/Noofbiz/scoresim/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPredictor struct {
	yards float64
	err   error
	seen  []Features
}

func (p *fixedPredictor) Predict(f Features) (float64, error) {
	p.seen = append(p.seen, f)
	return p.yards, p.err
}

func snapshot() game.Snapshot {
	return game.Snapshot{
		HomeTeam:      "KC",
		AwayTeam:      "BUF",
		ClockSeconds:  1800,
		HomeScore:     17,
		AwayScore:     10,
		Possession:    "BUF",
		Down:          3,
		YardsToGo:     4,
		FieldPosition: 61,
	}
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("random")
	require.NoError(t, err)
	assert.Equal(t, MethodRandom, m)

	m, err = ParseMethod(" NN ")
	require.NoError(t, err)
	assert.Equal(t, MethodModel, m)

	_, err = ParseMethod("xgboost")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestFeaturesFromSnapshot(t *testing.T) {
	f := FeaturesFromSnapshot(snapshot())

	assert.Equal(t, Features{
		Down:             3,
		PossessionTeam:   "BUF",
		DefenseTeam:      "KC",
		HomeTeam:         "KC",
		AwayTeam:         "BUF",
		SecondsRemaining: 1800,
		YardsToGo:        4,
		FieldPosition:    61,
		PossessionScore:  10,
		DefenseScore:     17,
	}, f)
}

func TestStochasticIsDeterministicPerSeed(t *testing.T) {
	a := NewStochastic(rand.NewPCG(3, 9))
	b := NewStochastic(rand.NewPCG(3, 9))

	for range 50 {
		ya, err := a.Outcome(context.Background(), snapshot())
		require.NoError(t, err)
		yb, err := b.Outcome(context.Background(), snapshot())
		require.NoError(t, err)
		assert.Equal(t, ya, yb)
	}
}

func meanStd(xs []float64) (float64, float64) {
	var sum, sumSq float64
	for _, x := range xs {
		sum += x
		sumSq += x * x
	}
	n := float64(len(xs))
	mean := sum / n
	return mean, math.Sqrt(sumSq/n - mean*mean)
}

func TestStochasticMatchesLeagueDistribution(t *testing.T) {
	const n = 20000

	raw := NewStochastic(rand.NewPCG(11, 12))
	draws := make([]float64, n)
	for i := range draws {
		draws[i] = raw.dist.Rand()
	}
	mean, std := meanStd(draws)
	assert.InDelta(t, DefaultYardsMean, mean, 0.2)
	assert.InDelta(t, DefaultYardsStdDev, std, 0.15)

	s := NewStochastic(rand.NewPCG(11, 12))
	plays := make([]float64, n)
	for i := range plays {
		y, err := s.Outcome(context.Background(), snapshot())
		require.NoError(t, err)
		plays[i] = float64(y)
	}
	mean, std = meanStd(plays)

	// truncation toward zero pulls the mean down by about a fifth of a yard
	// and narrows the spread to about 7.4
	assert.InDelta(t, DefaultYardsMean-0.2, mean, 0.25)
	assert.InDelta(t, 7.40, std, 0.15)
}

func TestStochasticHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStochastic(rand.NewPCG(1, 1)).Outcome(ctx, snapshot())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestModelTruncatesPrediction(t *testing.T) {
	p := &fixedPredictor{yards: 4.8}
	m := NewModel(p)

	y, err := m.Outcome(context.Background(), snapshot())
	require.NoError(t, err)
	assert.Equal(t, 4, y)

	p.yards = -2.7
	y, err = m.Outcome(context.Background(), snapshot())
	require.NoError(t, err)
	assert.Equal(t, -2, y)

	require.Len(t, p.seen, 2)
	assert.Equal(t, "KC", p.seen[0].DefenseTeam)
}

func TestModelFailures(t *testing.T) {
	boom := errors.New("boom")
	m := NewModel(&fixedPredictor{err: boom})

	_, err := m.Outcome(context.Background(), snapshot())
	assert.ErrorIs(t, err, ErrProvider)
	assert.ErrorIs(t, err, boom)

	m = NewModel(&fixedPredictor{yards: math.NaN()})
	_, err = m.Outcome(context.Background(), snapshot())
	assert.ErrorIs(t, err, ErrProvider)
}

func TestNewFactory(t *testing.T) {
	f, err := NewFactory(MethodRandom, nil)
	require.NoError(t, err)
	p, err := f(rand.NewPCG(1, 2))
	require.NoError(t, err)
	assert.IsType(t, &Stochastic{}, p)

	_, err = NewFactory(MethodModel, nil)
	assert.ErrorIs(t, err, ErrUnknownMethod)

	pred := &fixedPredictor{yards: 1}
	f, err = NewFactory(MethodModel, pred)
	require.NoError(t, err)
	p1, err := f(rand.NewPCG(1, 2))
	require.NoError(t, err)
	p2, err := f(rand.NewPCG(3, 4))
	require.NoError(t, err)
	assert.Same(t, p1, p2)

	_, err = NewFactory(Method("bogus"), nil)
	assert.ErrorIs(t, err, ErrUnknownMethod)
}
