package datasets

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidWeeks is returned for a season or week range no schedule can
// contain.
var ErrInvalidWeeks = errors.New("invalid season or week range")

var requiredColumns = []string{
	"game_id", "season", "week", "away_team", "away_score", "home_team", "home_score",
}

// ScheduleDataset is a schedule read from CSV files on disk. Files are
// loaded once, in the lexical order filepath.Glob returns them.
type ScheduleDataset struct {
	// Pattern used to find CSV files (e.g., "assets/games.csv")
	Pattern string

	// List of CSV file paths matching the pattern
	csvPaths []string

	games []Game
}

// NewScheduleDataset loads every CSV file matching pattern.
func NewScheduleDataset(pattern string) (*ScheduleDataset, error) {
	csvPaths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to glob pattern %s: %w", ErrDataUnavailable, pattern, err)
	}
	if len(csvPaths) == 0 {
		return nil, fmt.Errorf("%w: no CSV files found matching pattern: %s", ErrDataUnavailable, pattern)
	}

	ds := &ScheduleDataset{
		Pattern:  pattern,
		csvPaths: csvPaths,
	}
	for _, path := range csvPaths {
		games, err := readScheduleFile(path)
		if err != nil {
			return nil, err
		}
		ds.games = append(ds.games, games...)
	}
	return ds, nil
}

// Len returns the number of games across all files.
func (d *ScheduleDataset) Len() int {
	return len(d.games)
}

// Games returns the games of season played in weeks [weekStart, weekEnd].
func (d *ScheduleDataset) Games(ctx context.Context, season, weekStart, weekEnd int) ([]Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return filterGames(d.games, season, weekStart, weekEnd)
}

func readScheduleFile(path string) ([]Game, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open CSV %s: %w", ErrDataUnavailable, path, err)
	}
	defer file.Close()

	games, err := parseSchedule(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return games, nil
}

// parseSchedule reads a schedule CSV, locating columns by header name.
func parseSchedule(r io.Reader) ([]Game, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %w", ErrDataUnavailable, err)
	}
	colIndex := make(map[string]int, len(header))
	for i, col := range header {
		colIndex[strings.TrimSpace(strings.ToLower(col))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("%w: required column %q not found in CSV", ErrDataUnavailable, col)
		}
	}

	var games []Game
	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read row %d: %w", ErrDataUnavailable, row, err)
		}
		g, err := parseGame(record, colIndex)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrDataUnavailable, row, err)
		}
		games = append(games, g)
	}
	return games, nil
}

func parseGame(record []string, colIndex map[string]int) (Game, error) {
	field := func(col string) string {
		return strings.TrimSpace(record[colIndex[col]])
	}

	g := Game{
		GameID:   field("game_id"),
		AwayTeam: field("away_team"),
		HomeTeam: field("home_team"),
	}
	if g.GameID == "" || g.AwayTeam == "" || g.HomeTeam == "" {
		return Game{}, fmt.Errorf("missing game id or team")
	}

	var err error
	if g.Season, err = parseInt(field("season")); err != nil {
		return Game{}, fmt.Errorf("failed to parse season: %w", err)
	}
	if g.Week, err = parseInt(field("week")); err != nil {
		return Game{}, fmt.Errorf("failed to parse week: %w", err)
	}

	away, awayOK, err := parseScore(field("away_score"))
	if err != nil {
		return Game{}, fmt.Errorf("failed to parse away_score: %w", err)
	}
	home, homeOK, err := parseScore(field("home_score"))
	if err != nil {
		return Game{}, fmt.Errorf("failed to parse home_score: %w", err)
	}
	if awayOK && homeOK {
		g.AwayScore, g.HomeScore, g.Played = away, home, true
	}
	return g, nil
}

func filterGames(games []Game, season, weekStart, weekEnd int) ([]Game, error) {
	if season <= 0 || weekStart < 1 || weekEnd < weekStart {
		return nil, fmt.Errorf("%w: season %d weeks %d-%d", ErrInvalidWeeks, season, weekStart, weekEnd)
	}
	out := make([]Game, 0)
	for _, g := range games {
		if g.Season == season && g.Week >= weekStart && g.Week <= weekEnd {
			out = append(out, g)
		}
	}
	return out, nil
}
