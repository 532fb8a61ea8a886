package main

import (
	"testing"

	"github.com/Noofbiz/scoresim/config"
	"github.com/Noofbiz/scoresim/evaluation"
	"github.com/Noofbiz/scoresim/monte"
	"github.com/Noofbiz/scoresim/playcaller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlaycallers(t *testing.T) {
	got, err := parsePlaycallers("", "random")
	require.NoError(t, err)
	assert.Equal(t, []playcaller.Method{playcaller.MethodRandom}, got)

	got, err = parsePlaycallers("random, nn", "random")
	require.NoError(t, err)
	assert.Equal(t, []playcaller.Method{playcaller.MethodRandom, playcaller.MethodModel}, got)

	_, err = parsePlaycallers("coin", "random")
	assert.Error(t, err)
}

func TestParseMethods(t *testing.T) {
	got, err := parseMethods("median,,quantile:0.9")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, evaluation.Median, got[0])
	assert.Equal(t, "quantile:0.9", got[1].String())

	_, err = parseMethods(" , ")
	assert.Error(t, err)

	_, err = parseMethods("median,mode")
	assert.ErrorIs(t, err, evaluation.ErrUnknownMethod)
}

func TestTruncated(t *testing.T) {
	full := [][]monte.SimulationResult{make([]monte.SimulationResult, 3), make([]monte.SimulationResult, 3)}
	assert.False(t, truncated(full, 3))

	full[1] = full[1][:2]
	assert.True(t, truncated(full, 3))
}

func TestCacheFileNameIncludesModel(t *testing.T) {
	cfg := &config.Config{PredictionYear: 2023, PredictionGameweekStart: 1, PredictionGameweekEnd: 4, Iterations: 500, RandomSeed: 42}

	assert.Equal(t, "2023_w01-04_random_n500_s42.gob", cacheFileName(cfg, playcaller.MethodRandom, ""))

	a := cacheFileName(cfg, playcaller.MethodModel, "0123456789abcdef0123")
	b := cacheFileName(cfg, playcaller.MethodModel, "fedcba98765432100123")
	assert.Equal(t, "2023_w01-04_nn_n500_s42_0123456789ab.gob", a)
	assert.NotEqual(t, a, b)
}
