package evaluation

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Summary describes prediction error over the played games of an
// evaluation. Residuals are actual minus predicted, so a positive bias means
// the simulator under-predicts.
type Summary struct {
	Games    int
	Unplayed int

	HomeMAE  float64
	AwayMAE  float64
	MAE      float64
	HomeRMSE float64
	AwayRMSE float64
	RMSE     float64
	HomeBias float64
	AwayBias float64
	Bias     float64
}

// Summarize computes error metrics over rows. Unplayed games are only
// counted.
func Summarize(rows []Row) Summary {
	var s Summary
	var home, away []float64
	for _, r := range rows {
		if !r.Played {
			s.Unplayed++
			continue
		}
		home = append(home, r.HomeResidual)
		away = append(away, r.AwayResidual)
	}
	s.Games = len(home)
	if s.Games == 0 {
		return s
	}
	both := append(append(make([]float64, 0, 2*len(home)), home...), away...)

	s.HomeMAE, s.HomeRMSE, s.HomeBias = errorStats(home)
	s.AwayMAE, s.AwayRMSE, s.AwayBias = errorStats(away)
	s.MAE, s.RMSE, s.Bias = errorStats(both)
	return s
}

func errorStats(residuals []float64) (mae, rmse, bias float64) {
	abs := make([]float64, len(residuals))
	sq := make([]float64, len(residuals))
	for i, r := range residuals {
		abs[i] = math.Abs(r)
		sq[i] = r * r
	}
	return stat.Mean(abs, nil), math.Sqrt(stat.Mean(sq, nil)), stat.Mean(residuals, nil)
}
