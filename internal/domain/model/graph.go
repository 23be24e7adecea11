package model

// NodeKind labels graph nodes.
type NodeKind int

const (
	NodeGame NodeKind = iota + 1
	NodeEvent
	NodePlayer
)

func (k NodeKind) String() string {
	switch k {
	case NodeGame:
		return "Game"
	case NodeEvent:
		return "Event"
	case NodePlayer:
		return "Player"
	default:
		return "Unknown"
	}
}

// EdgeKind labels graph relationships.
type EdgeKind int

const (
	// EdgeInGame links Event -> Game.
	EdgeInGame EdgeKind = iota + 1
	// EdgePerformed links Player -> Event and carries a Role.
	EdgePerformed
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeInGame:
		return "IN_GAME"
	case EdgePerformed:
		return "PERFORMED"
	default:
		return "UNKNOWN"
	}
}

// Endpoints returns the node kinds an edge connects, source first.
func (k EdgeKind) Endpoints() (from, to NodeKind) {
	switch k {
	case EdgeInGame:
		return NodeEvent, NodeGame
	case EdgePerformed:
		return NodePlayer, NodeEvent
	default:
		return 0, 0
	}
}

// Role is the participation slot of a player in an event.
type Role string

const (
	RolePlayer1 Role = "PLAYER1_ID"
	RolePlayer2 Role = "PLAYER2_ID"
	RolePlayer3 Role = "PLAYER3_ID"
)

// Roles lists every valid role in slot order.
var Roles = []Role{RolePlayer1, RolePlayer2, RolePlayer3}

// Valid reports whether r is one of the three slots.
func (r Role) Valid() bool {
	switch r {
	case RolePlayer1, RolePlayer2, RolePlayer3:
		return true
	}
	return false
}

// Property names shared by every store.
const (
	PropGameID       = "game_id"
	PropHomeTeam     = "home_team"
	PropVisitorTeam  = "visitor_team"
	PropEventID      = "event_id"
	PropEventNum     = "event_num"
	PropEventType    = "event_type"
	PropPeriod       = "period"
	PropSecondsLeft  = "seconds_left"
	PropScoreHome    = "score_home"
	PropScoreVisitor = "score_visitor"
	PropScoreMargin  = "score_margin"
	PropHomeDesc     = "home_desc"
	PropVisitDesc    = "visit_desc"
	PropIsClutch     = "is_clutch"
	PropPlayerID     = "player_id"
	PropName         = "name"
	// PropRole is readable on a PERFORMED traversal variable.
	PropRole = "role"
)

// Props returns the property map stored for a game node.
func (g Game) Props() map[string]any {
	return map[string]any{
		PropGameID:      g.ID,
		PropHomeTeam:    g.HomeTeam,
		PropVisitorTeam: g.VisitorTeam,
	}
}

// Props returns the property map stored for a player node.
func (p Player) Props() map[string]any {
	return map[string]any{
		PropPlayerID: p.ID,
		PropName:     p.Name,
	}
}

// Props returns the property map stored for an event node. Nil descriptions
// are stored as nil.
func (e Event) Props() map[string]any {
	props := map[string]any{
		PropEventID:      e.ID,
		PropGameID:       e.GameID,
		PropEventNum:     e.Num,
		PropEventType:    e.Type.String(),
		PropPeriod:       e.Period,
		PropSecondsLeft:  e.SecondsLeft,
		PropScoreHome:    e.Score.Home,
		PropScoreVisitor: e.Score.Visitor,
		PropScoreMargin:  e.Margin,
		PropIsClutch:     e.IsClutch,
		PropHomeDesc:     nil,
		PropVisitDesc:    nil,
	}
	if e.HomeDesc != nil {
		props[PropHomeDesc] = *e.HomeDesc
	}
	if e.VisitDesc != nil {
		props[PropVisitDesc] = *e.VisitDesc
	}
	return props
}
