package playcaller

import (
	"context"
	"fmt"
	"math"

	"github.com/Noofbiz/scoresim/game"
)

// Features is the situation vector a fitted model is evaluated on. Field
// names follow the play-by-play columns the model was fitted against.
type Features struct {
	Down             int
	PossessionTeam   string
	DefenseTeam      string
	HomeTeam         string
	AwayTeam         string
	SecondsRemaining int
	YardsToGo        int
	FieldPosition    int
	PossessionScore  int
	DefenseScore     int
}

// FeaturesFromSnapshot builds the model features for the play about to be
// run.
func FeaturesFromSnapshot(s game.Snapshot) Features {
	return Features{
		Down:             s.Down,
		PossessionTeam:   s.Possession,
		DefenseTeam:      s.DefenseTeam(),
		HomeTeam:         s.HomeTeam,
		AwayTeam:         s.AwayTeam,
		SecondsRemaining: s.ClockSeconds,
		YardsToGo:        s.YardsToGo,
		FieldPosition:    s.FieldPosition,
		PossessionScore:  s.PossessionScore(),
		DefenseScore:     s.DefenseScore(),
	}
}

// Predictor is a loaded model returning expected yards for a situation.
// Implementations must be safe for concurrent use.
type Predictor interface {
	Predict(f Features) (float64, error)
}

// Model calls a Predictor for every play. It holds no per-game state so a
// single value is shared by all games.
type Model struct {
	predictor Predictor
}

// NewModel wraps predictor as an OutcomeProvider.
func NewModel(predictor Predictor) *Model {
	return &Model{predictor: predictor}
}

// Outcome asks the model for the next play and truncates the prediction
// toward zero.
func (m *Model) Outcome(ctx context.Context, s game.Snapshot) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	yards, err := m.predictor.Predict(FeaturesFromSnapshot(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrProvider, err)
	}
	if math.IsNaN(yards) || math.IsInf(yards, 0) {
		return 0, fmt.Errorf("%w: non-finite prediction %v", ErrProvider, yards)
	}
	return int(yards), nil
}
