package datasets

import (
	"context"
	"errors"
)

// This package provides the schedule of games to predict. Two sources
// implement Schedule:
//
// ScheduleDataset
//   - Reads CSV files matching a glob pattern from disk.
//   - Columns are discovered from the header, so the nflverse games.csv
//     layout works as-is: game_id, season, week, away_team, away_score,
//     home_team, home_score. Extra columns are ignored.
//
// ScheduleClient
//   - Downloads the same CSV layout over HTTP with rate limiting, retries
//     and a circuit breaker, then filters it like ScheduleDataset.
//
// Games that have not been played yet have empty score cells and come back
// with Played set to false.

// ErrDataUnavailable wraps every failure to fetch or parse schedule data.
var ErrDataUnavailable = errors.New("schedule data unavailable")

// Game is one scheduled matchup.
type Game struct {
	GameID    string
	Season    int
	Week      int
	AwayTeam  string
	AwayScore int
	HomeTeam  string
	HomeScore int
	Played    bool
}

// Schedule returns the games of a season within an inclusive week range,
// in schedule order.
type Schedule interface {
	Games(ctx context.Context, season, weekStart, weekEnd int) ([]Game, error)
}
