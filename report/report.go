// Package report renders evaluation results as console tables.
package report

import (
	"fmt"
	"io"

	"github.com/Noofbiz/scoresim/evaluation"
	"github.com/olekukonko/tablewriter"
)

// WriteTable writes one line per predicted game. Unplayed games show a dash
// for the actual score and residuals.
func WriteTable(w io.Writer, rows []evaluation.Row) error {
	table := tablewriter.NewWriter(w)
	table.Header("Game", "Week", "Matchup", "Predicted", "Actual", "Home Res", "Away Res", "Sims")

	for _, r := range rows {
		actual, homeRes, awayRes := "-", "-", "-"
		if r.Played {
			actual = fmt.Sprintf("%d-%d", r.AwayScore, r.HomeScore)
			homeRes = fmt.Sprintf("%+.1f", r.HomeResidual)
			awayRes = fmt.Sprintf("%+.1f", r.AwayResidual)
		}
		table.Append(
			r.GameID,
			fmt.Sprintf("%d", r.Week),
			fmt.Sprintf("%s @ %s", r.AwayTeam, r.HomeTeam),
			fmt.Sprintf("%.1f-%.1f", r.Prediction.Away, r.Prediction.Home),
			actual,
			homeRes,
			awayRes,
			fmt.Sprintf("%d", r.Samples),
		)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("report.WriteTable: %w", err)
	}
	return nil
}

// WriteSummary writes the error metrics of an evaluation.
func WriteSummary(w io.Writer, s evaluation.Summary) error {
	fmt.Fprintf(w, "\nPlayed games: %d  Unplayed: %d\n", s.Games, s.Unplayed)
	if s.Games == 0 {
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("Side", "MAE", "RMSE", "Bias")
	table.Append("Home", fmt.Sprintf("%.2f", s.HomeMAE), fmt.Sprintf("%.2f", s.HomeRMSE), fmt.Sprintf("%+.2f", s.HomeBias))
	table.Append("Away", fmt.Sprintf("%.2f", s.AwayMAE), fmt.Sprintf("%.2f", s.AwayRMSE), fmt.Sprintf("%+.2f", s.AwayBias))
	table.Append("All", fmt.Sprintf("%.2f", s.MAE), fmt.Sprintf("%.2f", s.RMSE), fmt.Sprintf("%+.2f", s.Bias))
	if err := table.Render(); err != nil {
		return fmt.Errorf("report.WriteSummary: %w", err)
	}
	return nil
}

// Comparison is the summary of one play caller and prediction method pair
// over the same schedule.
type Comparison struct {
	Playcaller string
	Method     string
	Summary    evaluation.Summary
}

// WriteComparison writes one line per compared pair, in the order given.
func WriteComparison(w io.Writer, comps []Comparison) error {
	table := tablewriter.NewWriter(w)
	table.Header("Play Caller", "Method", "Games", "MAE", "RMSE", "Bias", "Home MAE", "Away MAE")

	for _, c := range comps {
		s := c.Summary
		if s.Games == 0 {
			table.Append(c.Playcaller, c.Method, "0", "-", "-", "-", "-", "-")
			continue
		}
		table.Append(
			c.Playcaller,
			c.Method,
			fmt.Sprintf("%d", s.Games),
			fmt.Sprintf("%.2f", s.MAE),
			fmt.Sprintf("%.2f", s.RMSE),
			fmt.Sprintf("%+.2f", s.Bias),
			fmt.Sprintf("%.2f", s.HomeMAE),
			fmt.Sprintf("%.2f", s.AwayMAE),
		)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("report.WriteComparison: %w", err)
	}
	return nil
}
