// Package schema is the write side of the clutch graph.
//
// The graph is append-only: games, players and events are created once and
// PERFORMED edges are linked once per (event, role). Every write is validated
// here before it reaches a Writer, so stores never hold events that break the
// margin or period-clock invariants.
package schema

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/clutch/internal/domain/clutch"
	"github.com/okian/clutch/internal/domain/model"
)

const (
	// RegulationPeriodSeconds is the length of quarters 1-4.
	RegulationPeriodSeconds = 720
	// DefaultOvertimeSeconds is the length of each overtime period.
	DefaultOvertimeSeconds = 300
	regulationPeriods      = 4
)

// Writer persists validated graph elements. PutEvent also records the
// IN_GAME edge to ev.GameID. Implementations must be idempotent for
// identical input.
type Writer interface {
	PutGame(ctx context.Context, g model.Game) error
	PutPlayer(ctx context.Context, p model.Player) error
	PutEvent(ctx context.Context, ev model.Event) error
	PutPerformed(ctx context.Context, playerID, eventID string, role model.Role) error
}

// GameRef refers to a created game.
type GameRef struct{ game model.Game }

// ID returns the game id, empty for the zero ref.
func (r GameRef) ID() string { return r.game.ID }

// PlayerRef refers to a created player.
type PlayerRef struct{ id string }

// ID returns the player id, empty for the zero ref.
func (r PlayerRef) ID() string { return r.id }

// EventRef refers to a created event.
type EventRef struct{ ev model.Event }

// ID returns the event id, empty for the zero ref.
func (r EventRef) ID() string { return r.ev.ID }

// Event returns the stored event.
func (r EventRef) Event() model.Event { return r.ev }

// EventAttrs are the caller-supplied attributes of a new event. Margin and
// clutch flag are derived.
type EventAttrs struct {
	Num         int
	Type        model.EventType
	Period      int
	SecondsLeft int
	Score       model.Score
	HomeDesc    *string
	VisitDesc   *string
}

// Graph validates writes and forwards them to a Writer.
type Graph struct {
	w               Writer
	classifier      *clutch.Classifier
	periodSeconds   int
	overtimeSeconds int

	mu     sync.Mutex
	linked map[string]map[model.Role]string // event id -> role -> player id
}

// New creates a Graph writing through w.
func New(w Writer, opts ...Option) *Graph {
	g := &Graph{
		w:               w,
		classifier:      clutch.New(),
		periodSeconds:   RegulationPeriodSeconds,
		overtimeSeconds: DefaultOvertimeSeconds,
		linked:          make(map[string]map[model.Role]string),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CreateGame persists a game node.
func (g *Graph) CreateGame(ctx context.Context, game model.Game) (GameRef, error) {
	if game.ID == "" {
		return GameRef{}, violation(model.PropGameID, "required")
	}
	if err := g.w.PutGame(ctx, game); err != nil {
		return GameRef{}, fmt.Errorf("put game %s: %w", game.ID, err)
	}
	return GameRef{game: game}, nil
}

// CreatePlayer persists a player node.
func (g *Graph) CreatePlayer(ctx context.Context, p model.Player) (PlayerRef, error) {
	switch {
	case p.ID == "":
		return PlayerRef{}, violation(model.PropPlayerID, "required")
	case p.Name == "":
		return PlayerRef{}, violation(model.PropName, "required")
	}
	if err := g.w.PutPlayer(ctx, p); err != nil {
		return PlayerRef{}, fmt.Errorf("put player %s: %w", p.ID, err)
	}
	return PlayerRef{id: p.ID}, nil
}

// CreateEvent validates attrs, classifies the event and persists it inside
// the referenced game.
func (g *Graph) CreateEvent(ctx context.Context, game GameRef, attrs EventAttrs) (EventRef, error) {
	if game.ID() == "" {
		return EventRef{}, violation(model.PropGameID, "unknown game reference")
	}
	if err := g.validateEvent(attrs); err != nil {
		return EventRef{}, err
	}

	ev := model.Event{
		ID:          model.EventID(game.ID(), attrs.Num),
		GameID:      game.ID(),
		Num:         attrs.Num,
		Type:        attrs.Type,
		Period:      attrs.Period,
		SecondsLeft: attrs.SecondsLeft,
		Score:       attrs.Score,
		HomeDesc:    attrs.HomeDesc,
		VisitDesc:   attrs.VisitDesc,
	}
	res := g.classifier.Classify(ev, clutch.GameContext{
		GameID:      game.game.ID,
		HomeTeam:    game.game.HomeTeam,
		VisitorTeam: game.game.VisitorTeam,
	})
	ev.IsClutch = res.IsClutch
	ev.Margin = res.ScoreMargin

	if err := g.w.PutEvent(ctx, ev); err != nil {
		return EventRef{}, fmt.Errorf("put event %s: %w", ev.ID, err)
	}
	return EventRef{ev: ev}, nil
}

// LinkPerformed records that a player performed an event in the given role.
// Linking the same player to the same role again is a no-op; a different
// player in an occupied role is a violation.
func (g *Graph) LinkPerformed(ctx context.Context, p PlayerRef, ev EventRef, role model.Role) error {
	switch {
	case p.ID() == "":
		return violation(model.PropPlayerID, "unknown player reference")
	case ev.ID() == "":
		return violation(model.PropEventID, "unknown event reference")
	case !role.Valid():
		return violation(model.PropRole, fmt.Sprintf("invalid role %q", role))
	}

	g.mu.Lock()
	roles := g.linked[ev.ID()]
	if holder, ok := roles[role]; ok {
		g.mu.Unlock()
		if holder == p.ID() {
			return nil
		}
		return violation(model.PropRole, fmt.Sprintf("%s already linked on event %s", role, ev.ID()))
	}
	if roles == nil {
		roles = make(map[model.Role]string, len(model.Roles))
		g.linked[ev.ID()] = roles
	}
	roles[role] = p.ID()
	g.mu.Unlock()

	if err := g.w.PutPerformed(ctx, p.ID(), ev.ID(), role); err != nil {
		g.mu.Lock()
		delete(roles, role)
		g.mu.Unlock()
		return fmt.Errorf("put performed %s->%s: %w", p.ID(), ev.ID(), err)
	}
	return nil
}

// MaxSecondsLeft returns the clock length of a period.
func (g *Graph) MaxSecondsLeft(period int) int {
	if period > regulationPeriods {
		return g.overtimeSeconds
	}
	return g.periodSeconds
}

func (g *Graph) validateEvent(a EventAttrs) error {
	switch {
	case a.Num < 0:
		return violation(model.PropEventNum, "must not be negative")
	case a.Period < 1:
		return violation(model.PropPeriod, "required")
	case a.SecondsLeft < 0:
		return violation(model.PropSecondsLeft, "must not be negative")
	case a.SecondsLeft > g.MaxSecondsLeft(a.Period):
		return violation(model.PropSecondsLeft,
			fmt.Sprintf("%d exceeds period %d length %d", a.SecondsLeft, a.Period, g.MaxSecondsLeft(a.Period)))
	case a.Score.Home < 0 || a.Score.Visitor < 0:
		return violation(model.PropScoreHome, "score must not be negative")
	}
	return nil
}
