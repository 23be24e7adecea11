// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Game is a single NBA game. Team tricodes may be empty when the source
// rows did not carry them.
type Game struct {
	ID          string
	HomeTeam    string
	VisitorTeam string
}

// Player is a person who performs events.
type Player struct {
	ID   string
	Name string
}

// Score is the running score after an event.
type Score struct {
	Home    int `json:"home"`
	Visitor int `json:"visitor"`
}

// Margin returns home minus visitor.
func (s Score) Margin() int { return s.Home - s.Visitor }

// String renders the score the way broadcasts do: "home-visitor".
func (s Score) String() string { return fmt.Sprintf("%d-%d", s.Home, s.Visitor) }

// Event is one play-by-play action inside a game.
type Event struct {
	ID          string // "<game_id>-<event_num>"
	GameID      string
	Num         int
	Type        EventType
	Period      int
	SecondsLeft int // seconds left in the period
	Score       Score
	Margin      int // always Score.Home - Score.Visitor
	HomeDesc    *string
	VisitDesc   *string
	IsClutch    bool
}

// EventID builds the canonical event id.
func EventID(gameID string, num int) string {
	return fmt.Sprintf("%s-%d", gameID, num)
}

// EventType mirrors the NBA stats EVENTMSGTYPE code, with free throws split
// into made and missed.
type EventType int

const (
	EventOther EventType = iota
	EventShotMade
	EventShotMissed
	EventFreeThrowMade
	EventFreeThrowMissed
	EventRebound
	EventTurnover
	EventFoul
	EventViolation
	EventSubstitution
	EventTimeout
	EventJumpBall
	EventEjection
	EventPeriodStart
	EventPeriodEnd
)

var eventTypeNames = [...]string{
	EventOther:           "other",
	EventShotMade:        "shot_made",
	EventShotMissed:      "shot_missed",
	EventFreeThrowMade:   "free_throw_made",
	EventFreeThrowMissed: "free_throw_missed",
	EventRebound:         "rebound",
	EventTurnover:        "turnover",
	EventFoul:            "foul",
	EventViolation:       "violation",
	EventSubstitution:    "substitution",
	EventTimeout:         "timeout",
	EventJumpBall:        "jump_ball",
	EventEjection:        "ejection",
	EventPeriodStart:     "period_start",
	EventPeriodEnd:       "period_end",
}

func (t EventType) String() string {
	if t < 0 || int(t) >= len(eventTypeNames) {
		return eventTypeNames[EventOther]
	}
	return eventTypeNames[t]
}

// ParseEventType is the inverse of EventType.String. Unknown names map to
// EventOther with ok=false.
func ParseEventType(s string) (EventType, bool) {
	for i, name := range eventTypeNames {
		if name == s {
			return EventType(i), true
		}
	}
	return EventOther, false
}

// EventTypeFromMsg maps an EVENTMSGTYPE code. Free throws (3) are made unless
// the description mentions a miss.
func EventTypeFromMsg(code int, description string) EventType {
	switch code {
	case 1:
		return EventShotMade
	case 2:
		return EventShotMissed
	case 3:
		if strings.Contains(strings.ToUpper(description), "MISS") {
			return EventFreeThrowMissed
		}
		return EventFreeThrowMade
	case 4:
		return EventRebound
	case 5:
		return EventTurnover
	case 6:
		return EventFoul
	case 7:
		return EventViolation
	case 8:
		return EventSubstitution
	case 9:
		return EventTimeout
	case 10:
		return EventJumpBall
	case 11:
		return EventEjection
	case 12:
		return EventPeriodStart
	case 13:
		return EventPeriodEnd
	default:
		return EventOther
	}
}
