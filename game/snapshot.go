package game

// Snapshot is a read-only view of a GameState at one instant. It is what
// outcome providers see when asked for the next play.
type Snapshot struct {
	HomeTeam      string
	AwayTeam      string
	ClockSeconds  int
	HomeScore     int
	AwayScore     int
	Possession    string
	Down          int
	YardsToGo     int
	FieldPosition int
}

// DefenseTeam is the team without the ball.
func (s Snapshot) DefenseTeam() string {
	if s.Possession == s.HomeTeam {
		return s.AwayTeam
	}
	return s.HomeTeam
}

// PossessionScore is the score of the team with the ball.
func (s Snapshot) PossessionScore() int {
	if s.Possession == s.HomeTeam {
		return s.HomeScore
	}
	return s.AwayScore
}

// DefenseScore is the score of the team without the ball.
func (s Snapshot) DefenseScore() int {
	if s.Possession == s.HomeTeam {
		return s.AwayScore
	}
	return s.HomeScore
}
