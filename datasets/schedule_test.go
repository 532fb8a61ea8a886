package datasets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCSV writes a CSV file with the given header and rows to path.
func writeCSV(t *testing.T, path, header string, rows []string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err, "failed to create csv %s", path)
	defer f.Close()

	_, err = f.WriteString(header + "\n")
	require.NoError(t, err)
	for _, r := range rows {
		_, err := f.WriteString(r + "\n")
		require.NoError(t, err)
	}
}

const scheduleHeader = "game_id,season,game_type,week,gameday,away_team,away_score,home_team,home_score,result"

var scheduleRows = []string{
	"2022_18_LAC_DEN,2022,REG,18,2023-01-08,LAC,28,DEN,31,3",
	"2023_01_DET_KC,2023,REG,1,2023-09-07,DET,21,KC,20,-1",
	"2023_01_CAR_ATL,2023,REG,1,2023-09-10,CAR,10,ATL,24,14",
	"2023_02_GB_ATL,2023,REG,2,2023-09-17,GB,24,ATL,25,1",
	"2023_03_NYG_SF,2023,REG,3,2023-09-21,NYG,NA,SF,NA,NA",
}

func TestScheduleDatasetFiltersSeasonAndWeeks(t *testing.T) {
	tmp := t.TempDir()
	writeCSV(t, filepath.Join(tmp, "games.csv"), scheduleHeader, scheduleRows)

	ds, err := NewScheduleDataset(filepath.Join(tmp, "*.csv"))
	require.NoError(t, err)
	assert.Equal(t, 5, ds.Len())

	games, err := ds.Games(context.Background(), 2023, 1, 2)
	require.NoError(t, err)
	require.Len(t, games, 3)
	assert.Equal(t, Game{
		GameID: "2023_01_DET_KC", Season: 2023, Week: 1,
		AwayTeam: "DET", AwayScore: 21, HomeTeam: "KC", HomeScore: 20, Played: true,
	}, games[0])
	assert.Equal(t, "2023_02_GB_ATL", games[2].GameID)

	games, err = ds.Games(context.Background(), 2023, 3, 3)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.False(t, games[0].Played)
	assert.Zero(t, games[0].HomeScore)

	games, err = ds.Games(context.Background(), 2019, 1, 17)
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestScheduleDatasetRejectsBadRanges(t *testing.T) {
	tmp := t.TempDir()
	writeCSV(t, filepath.Join(tmp, "games.csv"), scheduleHeader, scheduleRows)
	ds, err := NewScheduleDataset(filepath.Join(tmp, "games.csv"))
	require.NoError(t, err)

	for _, r := range [][3]int{{2023, 0, 2}, {2023, 5, 2}, {0, 1, 1}} {
		_, err := ds.Games(context.Background(), r[0], r[1], r[2])
		assert.ErrorIs(t, err, ErrInvalidWeeks, "%v", r)
	}
}

func TestScheduleDatasetSpansFiles(t *testing.T) {
	tmp := t.TempDir()
	writeCSV(t, filepath.Join(tmp, "a.csv"), scheduleHeader, scheduleRows[:2])
	writeCSV(t, filepath.Join(tmp, "b.csv"), scheduleHeader, scheduleRows[2:])

	ds, err := NewScheduleDataset(filepath.Join(tmp, "*.csv"))
	require.NoError(t, err)
	assert.Equal(t, 5, ds.Len())
}

func TestScheduleDatasetErrors(t *testing.T) {
	tmp := t.TempDir()

	_, err := NewScheduleDataset(filepath.Join(tmp, "*.csv"))
	assert.ErrorIs(t, err, ErrDataUnavailable)

	missing := filepath.Join(tmp, "missing.csv")
	writeCSV(t, missing, "game_id,season,week,away_team,home_team", []string{"x,2023,1,A,B"})
	_, err = NewScheduleDataset(missing)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.Contains(t, err.Error(), "away_score")

	bad := filepath.Join(tmp, "bad.csv")
	writeCSV(t, bad, scheduleHeader, []string{"2023_01_A_B,2023,REG,one,2023-09-07,A,1,B,2,1"})
	_, err = NewScheduleDataset(bad)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.Contains(t, err.Error(), "week")
}

func TestResolveSchedulePattern(t *testing.T) {
	tmp := t.TempDir()
	writeCSV(t, filepath.Join(tmp, "games.csv"), scheduleHeader, scheduleRows)

	p, err := ResolveSchedulePattern(tmp)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmp, "games.csv"), p)

	p, err = ResolveSchedulePattern("some/*.csv")
	require.NoError(t, err)
	assert.Equal(t, "some/*.csv", p)

	_, err = ResolveSchedulePattern(t.TempDir())
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestParseScore(t *testing.T) {
	v, ok, err := parseScore(" 27 ")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 27, v)

	for _, empty := range []string{"", "NA", "na"} {
		_, ok, err := parseScore(empty)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	_, _, err = parseScore("twenty")
	assert.Error(t, err)
}

func TestOpenSchedule(t *testing.T) {
	tmp := t.TempDir()
	writeCSV(t, filepath.Join(tmp, "games.csv"), scheduleHeader, scheduleRows)

	s, err := OpenSchedule(tmp, "", nil)
	require.NoError(t, err)
	assert.IsType(t, &ScheduleDataset{}, s)

	s, err = OpenSchedule("", "http://example.test/games.csv", nil)
	require.NoError(t, err)
	require.IsType(t, &ScheduleClient{}, s)
	assert.Equal(t, "http://example.test/games.csv", s.(*ScheduleClient).URL)

	_, err = OpenSchedule(filepath.Join(tmp, "nothing*.csv"), "", nil)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}
