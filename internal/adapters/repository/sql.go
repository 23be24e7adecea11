package repository

import (
	"fmt"
	"strings"

	"github.com/okian/clutch/internal/domain/model"
	"github.com/okian/clutch/internal/domain/query"
)

var sqlTables = map[model.NodeKind]string{
	model.NodeGame:   "games",
	model.NodeEvent:  "events",
	model.NodePlayer: "players",
}

var sqlColumns = map[model.NodeKind]map[string]bool{
	model.NodeGame: {
		model.PropGameID: true, model.PropHomeTeam: true, model.PropVisitorTeam: true,
	},
	model.NodePlayer: {
		model.PropPlayerID: true, model.PropName: true,
	},
	model.NodeEvent: {
		model.PropEventID: true, model.PropGameID: true, model.PropEventNum: true,
		model.PropEventType: true, model.PropPeriod: true, model.PropSecondsLeft: true,
		model.PropScoreHome: true, model.PropScoreVisitor: true, model.PropScoreMargin: true,
		model.PropHomeDesc: true, model.PropVisitDesc: true, model.PropIsClutch: true,
	},
}

// RenderSQL translates q into a SELECT over the relational layout: one table
// per node kind, IN_GAME as events.game_id and PERFORMED as its own table.
// Unknown properties fail with ErrUnknownProperty.
func RenderSQL(q query.Query) (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	var args []any
	var from, where []string

	col := func(v, prop string) (string, error) {
		n, ok := q.Node(v)
		if !ok {
			return v + "." + model.PropRole, nil
		}
		if !sqlColumns[n.Kind][prop] {
			return "", fmt.Errorf("%w: %s.%s", ErrUnknownProperty, n.Kind, prop)
		}
		return v + "." + prop, nil
	}

	for _, n := range q.Nodes {
		if !reIdent.MatchString(n.Var) {
			return "", nil, fmt.Errorf("%w: variable %q", query.ErrInvalidQuery, n.Var)
		}
		from = append(from, sqlTables[n.Kind]+" AS "+n.Var)
		for _, p := range n.Where {
			ref, err := col(n.Var, p.Prop)
			if err != nil {
				return "", nil, err
			}
			cond, vals := sqlPredicate(ref, p)
			where = append(where, cond)
			args = append(args, vals...)
		}
	}
	for i, t := range q.Traversals {
		switch t.Edge {
		case model.EdgeInGame:
			where = append(where, fmt.Sprintf("%s.%s = %s.%s", t.From, model.PropGameID, t.To, model.PropGameID))
		case model.EdgePerformed:
			v := t.Var
			if v == "" {
				v = fmt.Sprintf("_t%d", i)
			} else if !reIdent.MatchString(v) {
				return "", nil, fmt.Errorf("%w: variable %q", query.ErrInvalidQuery, v)
			}
			from = append(from, "performed AS "+v)
			where = append(where,
				fmt.Sprintf("%s.player_id = %s.%s", v, t.From, model.PropPlayerID),
				fmt.Sprintf("%s.event_id = %s.%s", v, t.To, model.PropEventID))
			if t.Role != "" {
				where = append(where, v+".role = ?")
				args = append(args, string(t.Role))
			}
		}
	}

	ret := make([]string, len(q.Return))
	for i, p := range q.Return {
		if !reIdent.MatchString(p.Alias) {
			return "", nil, fmt.Errorf("%w: alias %q", query.ErrInvalidQuery, p.Alias)
		}
		ref, err := col(p.Var, p.Prop)
		if err != nil {
			return "", nil, err
		}
		ret[i] = ref + " AS " + p.Alias
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(ret, ", "))
	b.WriteString("\nFROM ")
	b.WriteString(strings.Join(from, ", "))
	if len(where) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	if len(q.OrderBy) > 0 {
		keys := make([]string, len(q.OrderBy))
		for i, o := range q.OrderBy {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			keys[i] = o.Alias + " " + dir
		}
		b.WriteString("\nORDER BY ")
		b.WriteString(strings.Join(keys, ", "))
	}
	return b.String(), args, nil
}

func sqlPredicate(ref string, p query.Predicate) (string, []any) {
	switch {
	case p.Op == query.OpEq && p.Value == nil:
		return ref + " IS NULL", nil
	case p.Op == query.OpNe && p.Value == nil:
		return ref + " IS NOT NULL", nil
	case p.Op == query.OpContainsFold:
		return fmt.Sprintf("instr(lower(%s), lower(?)) > 0", ref), []any{sqlValue(p.Value)}
	case p.Op == query.OpIn:
		list, _ := p.Value.([]any)
		if len(list) == 0 {
			return "0", nil
		}
		marks := make([]string, len(list))
		vals := make([]any, len(list))
		for i, v := range list {
			marks[i] = "?"
			vals[i] = sqlValue(v)
		}
		return fmt.Sprintf("%s IN (%s)", ref, strings.Join(marks, ", ")), vals
	}
	return fmt.Sprintf("%s %s ?", ref, p.Op), []any{sqlValue(p.Value)}
}

// sqlValue stores booleans as 0/1.
func sqlValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}
