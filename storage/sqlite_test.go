package storage_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/Noofbiz/scoresim/evaluation"
	"github.com/Noofbiz/scoresim/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRows() []evaluation.Row {
	return []evaluation.Row{
		{
			GameID: "2023_01_DET_KC", Season: 2023, Week: 1, HomeTeam: "KC", AwayTeam: "DET",
			Prediction: evaluation.Prediction{Home: 20.5, Away: 17, Method: "median"},
			Samples:    1000, Played: true, HomeScore: 20, AwayScore: 21,
			HomeResidual: -0.5, AwayResidual: 4,
		},
		{
			GameID: "2023_02_GB_ATL", Season: 2023, Week: 2, HomeTeam: "ATL", AwayTeam: "GB",
			Prediction: evaluation.Prediction{Home: 14, Away: 13.5, Method: "median"},
			Samples:    1000,
		},
	}
}

func TestSQLiteStore_SaveAndReadRun(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	run := storage.NewRun(2023, 1, 2, 1000, "random", "median", math.MaxUint64)
	require.NotEqual(t, uuid.Nil, run.ID)

	require.NoError(t, db.SaveRun(context.Background(), run, makeRows()))

	runs, err := db.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, uint64(math.MaxUint64), runs[0].Seed)
	assert.True(t, run.CreatedAt.Equal(runs[0].CreatedAt))
	assert.Equal(t, "random", runs[0].Playcaller)

	rows, err := db.Rows(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, makeRows(), rows)
}

func TestSQLiteStore_RunsNewestFirst(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	older := storage.NewRun(2022, 1, 18, 100, "random", "mean", 1)
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := storage.NewRun(2023, 1, 1, 100, "nn", "median", 2)

	require.NoError(t, db.SaveRun(context.Background(), older, nil))
	require.NoError(t, db.SaveRun(context.Background(), newer, makeRows()))

	runs, err := db.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)
	assert.Equal(t, older.ID, runs[1].ID)

	rows, err := db.Rows(context.Background(), older.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSQLiteStore_Errors(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Rows(context.Background(), uuid.New())
	assert.ErrorIs(t, err, storage.ErrRunNotFound)

	assert.Error(t, db.SaveRun(context.Background(), storage.Run{}, nil))

	run := storage.NewRun(2023, 1, 1, 10, "random", "median", 3)
	require.NoError(t, db.SaveRun(context.Background(), run, nil))
	assert.Error(t, db.SaveRun(context.Background(), run, nil), "duplicate run id")
}

func TestSQLiteStore_FailedSaveLeavesNothing(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	run := storage.NewRun(2023, 1, 1, 10, "random", "median", 4)
	assert.Error(t, db.SaveRun(ctx, run, makeRows()))

	runs, err := db.Runs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestSQLiteStore_RunsOrderedBySubSecondTime(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	base := time.Date(2024, 9, 8, 12, 0, 5, 0, time.UTC)
	stamps := []time.Duration{
		0,
		100 * time.Millisecond,
		120 * time.Millisecond,
		500 * time.Millisecond,
	}
	ids := make([]uuid.UUID, len(stamps))
	for i, d := range stamps {
		r := storage.NewRun(2023, 1, 1, 10, "random", "median", uint64(i))
		r.CreatedAt = base.Add(d)
		ids[i] = r.ID
		require.NoError(t, db.SaveRun(context.Background(), r, nil))
	}

	runs, err := db.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, len(stamps))
	for i, r := range runs {
		want := len(stamps) - 1 - i
		assert.Equal(t, ids[want], r.ID, "position %d", i)
		assert.True(t, base.Add(stamps[want]).Equal(r.CreatedAt))
	}
}
