package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

const (
	// GameSeconds is the length of regulation in seconds.
	GameSeconds = 3600

	// KickoffSpot is the field position a drive starts from after a kickoff.
	KickoffSpot = 25

	// FirstDownDistance is the distance needed for a fresh set of downs.
	FirstDownDistance = 10

	TouchdownPoints       = 6
	ExtraPointProbability = 0.95
	FieldGoalPoints       = 3
)

var (
	// ErrInvalidTeams is returned by New when the matchup cannot be played.
	ErrInvalidTeams = errors.New("invalid teams")

	// ErrUnknownTeam is returned when a score is credited to a team that is
	// not playing in the game.
	ErrUnknownTeam = errors.New("unknown team")

	// ErrInvariantViolation marks an impossible game state. It is only ever
	// raised through a panic since it indicates a bug in the state machine.
	ErrInvariantViolation = errors.New("game invariant violated")
)

// GameState is the mutable state of a single game in progress. It is owned
// by exactly one simulation run and is not safe for concurrent use.
type GameState struct {
	homeTeam string
	awayTeam string

	clockSeconds int
	homeScore    int
	awayScore    int

	possession    string
	down          int
	yardsToGo     int
	fieldPosition int

	// rng drives the extra point trial after a touchdown.
	rng *rand.Rand
}

// New creates a game between home and away with a full clock. StartGame must
// be called before the first play is run.
func New(home, away string, rng *rand.Rand) (*GameState, error) {
	if home == "" || away == "" {
		return nil, fmt.Errorf("%w: home=%q away=%q", ErrInvalidTeams, home, away)
	}
	if home == away {
		return nil, fmt.Errorf("%w: %q cannot play itself", ErrInvalidTeams, home)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is nil", ErrInvalidTeams)
	}
	return &GameState{
		homeTeam:     home,
		awayTeam:     away,
		clockSeconds: GameSeconds,
		rng:          rng,
	}, nil
}

// StartGame puts the home team in possession at the typical spot after the
// opening kickoff.
func (g *GameState) StartGame() {
	g.possession = g.homeTeam
	g.down = 1
	g.yardsToGo = FirstDownDistance
	g.fieldPosition = KickoffSpot
	g.checkInvariants()
}

// RunPlay applies the outcome of one play that gained yardsGained yards and
// took elapsed seconds off the clock.
//
// The ball is spotted where the play ended before possession changes, so a
// failed fourth down hands the opponent the ball at the end of the run.
func (g *GameState) RunPlay(yardsGained, elapsed int) {
	g.fieldPosition += yardsGained

	switch {
	case g.fieldPosition >= 100:
		g.scoreTouchdown(g.possession)
	case g.fieldPosition <= 0:
		g.Turnover()
	case g.down == 4 && yardsGained < g.yardsToGo:
		g.Turnover()
	case yardsGained >= g.yardsToGo:
		g.down = 1
		g.yardsToGo = FirstDownDistance
	default:
		g.down++
		g.yardsToGo -= yardsGained
	}

	g.clockSeconds -= elapsed
	g.checkInvariants()
}

// Turnover hands the ball to the other team, mirroring the field position so
// it is measured from the new offense's own goal line.
func (g *GameState) Turnover() {
	g.possession = g.opponent(g.possession)
	g.down = 1
	g.yardsToGo = FirstDownDistance
	g.fieldPosition = clamp(100-g.fieldPosition, 1, 99)
}

// ScoreTouchdown credits team with a touchdown plus the extra point when the
// kick is good, then kicks off to the other team.
func (g *GameState) ScoreTouchdown(team string) error {
	if err := g.checkTeam(team); err != nil {
		return err
	}
	g.scoreTouchdown(team)
	return nil
}

func (g *GameState) scoreTouchdown(team string) {
	points := TouchdownPoints
	if g.rng.Float64() < ExtraPointProbability {
		points++
	}
	g.addPoints(team, points)
	g.Kickoff()
}

// ScoreFieldGoal credits team with a field goal. Possession and the spot of
// the ball are left alone.
func (g *GameState) ScoreFieldGoal(team string) error {
	if err := g.checkTeam(team); err != nil {
		return err
	}
	g.addPoints(team, FieldGoalPoints)
	return nil
}

// Kickoff gives the ball to the team that did not just have it at the
// standard spot.
func (g *GameState) Kickoff() {
	g.possession = g.opponent(g.possession)
	g.down = 1
	g.yardsToGo = FirstDownDistance
	g.fieldPosition = KickoffSpot
}

// Over reports whether the clock has run out.
func (g *GameState) Over() bool {
	return g.clockSeconds <= 0
}

// Snapshot returns a copy of the current state.
func (g *GameState) Snapshot() Snapshot {
	return Snapshot{
		HomeTeam:      g.homeTeam,
		AwayTeam:      g.awayTeam,
		ClockSeconds:  g.clockSeconds,
		HomeScore:     g.homeScore,
		AwayScore:     g.awayScore,
		Possession:    g.possession,
		Down:          g.down,
		YardsToGo:     g.yardsToGo,
		FieldPosition: g.fieldPosition,
	}
}

func (g *GameState) checkTeam(team string) error {
	if team != g.homeTeam && team != g.awayTeam {
		return fmt.Errorf("%w: %q is not in %s@%s", ErrUnknownTeam, team, g.awayTeam, g.homeTeam)
	}
	return nil
}

// addPoints credits the home team when team names it and the away team
// otherwise.
func (g *GameState) addPoints(team string, points int) {
	if team == g.homeTeam {
		g.homeScore += points
		return
	}
	g.awayScore += points
}

func (g *GameState) opponent(team string) string {
	if team == g.homeTeam {
		return g.awayTeam
	}
	return g.homeTeam
}

func (g *GameState) checkInvariants() {
	var msg string
	switch {
	case g.possession != g.homeTeam && g.possession != g.awayTeam:
		msg = fmt.Sprintf("possession %q", g.possession)
	case g.down < 1 || g.down > 4:
		msg = fmt.Sprintf("down %d", g.down)
	case g.yardsToGo <= 0:
		msg = fmt.Sprintf("yards to go %d", g.yardsToGo)
	case g.fieldPosition <= 0 || g.fieldPosition >= 100:
		msg = fmt.Sprintf("field position %d", g.fieldPosition)
	case g.homeScore < 0 || g.awayScore < 0:
		msg = fmt.Sprintf("score %d-%d", g.homeScore, g.awayScore)
	default:
		return
	}
	panic(fmt.Errorf("%w: %s", ErrInvariantViolation, msg))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
