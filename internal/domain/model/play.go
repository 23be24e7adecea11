package model

// Participant is one PLAYERn slot of a play-by-play row.
type Participant struct {
	ID   string
	Name string
	Team string
}

// Empty reports whether the slot names no player. Team-level slots carry an
// id but no name.
func (p Participant) Empty() bool {
	return p.Name == ""
}

// Play is one parsed play-by-play row on its way to the graph writer.
// Score is the raw "visitor - home" text and may be empty, in which case the
// last known score of the game applies.
type Play struct {
	Line        int
	GameID      string
	Num         int
	MsgType     int
	Period      int
	SecondsLeft int
	HomeDesc    *string
	NeutralDesc *string
	VisitDesc   *string
	Score       string
	Players     [3]Participant

	// HomeTeam and VisitorTeam are derived per game by the reader.
	HomeTeam    string
	VisitorTeam string
}

// Description returns the first non-empty description, home first.
func (p Play) Description() string {
	for _, d := range []*string{p.HomeDesc, p.VisitDesc, p.NeutralDesc} {
		if d != nil && *d != "" {
			return *d
		}
	}
	return ""
}
