package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Noofbiz/scoresim/evaluation"
	"github.com/Noofbiz/scoresim/storage"
	"github.com/olekukonko/tablewriter"
)

var csvHeader = []string{
	"game_id", "season", "week", "away_team", "home_team",
	"away_score_prediction", "home_score_prediction", "method", "samples",
	"played", "away_score", "home_score", "away_residual", "home_residual",
}

// WriteCSV writes rows for downstream tools such as residual plots.
// Actual scores and residuals are left empty for unplayed games.
func WriteCSV(w io.Writer, rows []evaluation.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("report.WriteCSV: header: %w", err)
	}
	for _, r := range rows {
		awayScore, homeScore, awayRes, homeRes := "", "", "", ""
		if r.Played {
			awayScore = strconv.Itoa(r.AwayScore)
			homeScore = strconv.Itoa(r.HomeScore)
			awayRes = formatFloat(r.AwayResidual)
			homeRes = formatFloat(r.HomeResidual)
		}
		record := []string{
			r.GameID,
			strconv.Itoa(r.Season),
			strconv.Itoa(r.Week),
			r.AwayTeam,
			r.HomeTeam,
			formatFloat(r.Prediction.Away),
			formatFloat(r.Prediction.Home),
			r.Prediction.Method,
			strconv.Itoa(r.Samples),
			strconv.FormatBool(r.Played),
			awayScore,
			homeScore,
			awayRes,
			homeRes,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("report.WriteCSV: %s: %w", r.GameID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteRuns lists stored evaluation runs.
func WriteRuns(w io.Writer, runs []storage.Run) error {
	table := tablewriter.NewWriter(w)
	table.Header("Run", "Created", "Season", "Weeks", "Sims", "Playcaller", "Method", "Seed")
	for _, run := range runs {
		table.Append(
			run.ID.String(),
			run.CreatedAt.Local().Format("2006-01-02 15:04"),
			strconv.Itoa(run.Season),
			fmt.Sprintf("%d-%d", run.WeekStart, run.WeekEnd),
			strconv.Itoa(run.Iterations),
			run.Playcaller,
			run.Method,
			strconv.FormatUint(run.Seed, 10),
		)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("report.WriteRuns: %w", err)
	}
	return nil
}
