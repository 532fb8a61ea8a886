// Package storage persists evaluation runs so predictions can be compared
// across seeds, methods and model versions.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Noofbiz/scoresim/evaluation"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
-- One row per evaluation run
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    created_at  TEXT    NOT NULL,
    season      INTEGER NOT NULL,
    week_start  INTEGER NOT NULL,
    week_end    INTEGER NOT NULL,
    iterations  INTEGER NOT NULL,
    playcaller  TEXT    NOT NULL,
    method      TEXT    NOT NULL,
    seed        TEXT    NOT NULL
);

-- One row per predicted game, in schedule order
CREATE TABLE IF NOT EXISTS predictions (
    run_id        TEXT    NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    position      INTEGER NOT NULL,
    game_id       TEXT    NOT NULL,
    season        INTEGER NOT NULL,
    week          INTEGER NOT NULL,
    home_team     TEXT    NOT NULL,
    away_team     TEXT    NOT NULL,
    home_pred     REAL    NOT NULL,
    away_pred     REAL    NOT NULL,
    method        TEXT    NOT NULL,
    samples       INTEGER NOT NULL,
    played        INTEGER NOT NULL DEFAULT 0,
    home_score    INTEGER NOT NULL DEFAULT 0,
    away_score    INTEGER NOT NULL DEFAULT 0,
    home_residual REAL    NOT NULL DEFAULT 0,
    away_residual REAL    NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_pred_game    ON predictions(game_id);
`

// createdAtLayout is fixed width so created_at sorts as text in time order.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned when a run id is not in the store.
var ErrRunNotFound = errors.New("run not found")

// Run describes one evaluation: which games were predicted and how.
type Run struct {
	ID         uuid.UUID
	CreatedAt  time.Time
	Season     int
	WeekStart  int
	WeekEnd    int
	Iterations int
	Playcaller string
	Method     string
	Seed       uint64
}

// NewRun stamps a run with a fresh id and the current time.
func NewRun(season, weekStart, weekEnd, iterations int, playcaller, method string, seed uint64) Run {
	return Run{
		ID:         uuid.New(),
		CreatedAt:  time.Now().UTC(),
		Season:     season,
		WeekStart:  weekStart,
		WeekEnd:    weekEnd,
		Iterations: iterations,
		Playcaller: playcaller,
		Method:     method,
		Seed:       seed,
	}
}

// SQLiteStore keeps runs in SQLite (pure Go, no cgo).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dsn and applies the
// schema. ":memory:" gives a throwaway store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", dsn, err)
	}
	db.SetMaxOpenConns(1) // single writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// SaveRun stores run and its rows in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run Run, rows []evaluation.Row) error {
	if run.ID == uuid.Nil {
		return errors.New("storage.SaveRun: run has no id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs
			(id, created_at, season, week_start, week_end, iterations, playcaller, method, seed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(),
		run.CreatedAt.UTC().Format(createdAtLayout),
		run.Season,
		run.WeekStart,
		run.WeekEnd,
		run.Iterations,
		run.Playcaller,
		run.Method,
		strconv.FormatUint(run.Seed, 10),
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO predictions
			(run_id, position, game_id, season, week, home_team, away_team,
			 home_pred, away_pred, method, samples, played,
			 home_score, away_score, home_residual, away_residual)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: prepare: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		played := 0
		if r.Played {
			played = 1
		}
		if _, err := stmt.ExecContext(ctx,
			run.ID.String(),
			i,
			r.GameID,
			r.Season,
			r.Week,
			r.HomeTeam,
			r.AwayTeam,
			r.Prediction.Home,
			r.Prediction.Away,
			r.Prediction.Method,
			r.Samples,
			played,
			r.HomeScore,
			r.AwayScore,
			r.HomeResidual,
			r.AwayResidual,
		); err != nil {
			return fmt.Errorf("storage.SaveRun: insert %s: %w", r.GameID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRun: commit: %w", err)
	}
	return nil
}

// Runs returns every stored run, newest first.
func (s *SQLiteStore) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, season, week_start, week_end, iterations, playcaller, method, seed
		FROM runs
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.Runs: query: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var id, createdAt, seed string
		if err := rows.Scan(
			&id,
			&createdAt,
			&run.Season,
			&run.WeekStart,
			&run.WeekEnd,
			&run.Iterations,
			&run.Playcaller,
			&run.Method,
			&seed,
		); err != nil {
			return nil, fmt.Errorf("storage.Runs: scan row: %w", err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("storage.Runs: run id %q: %w", id, err)
		}
		if run.CreatedAt, err = time.Parse(createdAtLayout, createdAt); err != nil {
			return nil, fmt.Errorf("storage.Runs: created_at %q: %w", createdAt, err)
		}
		if run.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
			return nil, fmt.Errorf("storage.Runs: seed %q: %w", seed, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Rows returns the predictions of one run in schedule order.
func (s *SQLiteStore) Rows(ctx context.Context, runID uuid.UUID) ([]evaluation.Row, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID.String()).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage.Rows: %w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("storage.Rows: lookup run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT game_id, season, week, home_team, away_team,
		       home_pred, away_pred, method, samples, played,
		       home_score, away_score, home_residual, away_residual
		FROM predictions
		WHERE run_id = ?
		ORDER BY position
	`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("storage.Rows: query: %w", err)
	}
	defer rows.Close()

	out := make([]evaluation.Row, 0)
	for rows.Next() {
		var r evaluation.Row
		var played int
		if err := rows.Scan(
			&r.GameID,
			&r.Season,
			&r.Week,
			&r.HomeTeam,
			&r.AwayTeam,
			&r.Prediction.Home,
			&r.Prediction.Away,
			&r.Prediction.Method,
			&r.Samples,
			&played,
			&r.HomeScore,
			&r.AwayScore,
			&r.HomeResidual,
			&r.AwayResidual,
		); err != nil {
			return nil, fmt.Errorf("storage.Rows: scan row: %w", err)
		}
		r.Played = played == 1
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
