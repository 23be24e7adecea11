package repository

import (
	"fmt"
	"strings"

	"github.com/okian/clutch/internal/domain/model"
	"github.com/okian/clutch/internal/domain/query"
)

// RenderCypher translates q into a parameterised Cypher statement. LIMIT is
// left to the ranker, which applies it after deduplication.
func RenderCypher(q query.Query) (string, map[string]any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	params := map[string]any{}
	bind := func(v any) string {
		name := fmt.Sprintf("p%d", len(params))
		params[name] = cypherValue(v)
		return "$" + name
	}

	var patterns, where []string
	for _, n := range q.Nodes {
		if !reIdent.MatchString(n.Var) {
			return "", nil, fmt.Errorf("%w: variable %q", query.ErrInvalidQuery, n.Var)
		}
		patterns = append(patterns, fmt.Sprintf("(%s:%s)", n.Var, n.Kind))
		for _, p := range n.Where {
			cond, err := cypherPredicate(n.Var, p, bind)
			if err != nil {
				return "", nil, err
			}
			where = append(where, cond)
		}
	}
	for i, t := range q.Traversals {
		v := t.Var
		if v == "" {
			v = fmt.Sprintf("_t%d", i)
		} else if !reIdent.MatchString(v) {
			return "", nil, fmt.Errorf("%w: variable %q", query.ErrInvalidQuery, v)
		}
		patterns = append(patterns, fmt.Sprintf("(%s)-[%s:%s]->(%s)", t.From, v, t.Edge, t.To))
		if t.Role != "" {
			where = append(where, fmt.Sprintf("%s.%s = %s", v, model.PropRole, bind(string(t.Role))))
		}
	}

	var b strings.Builder
	b.WriteString("MATCH ")
	b.WriteString(strings.Join(patterns, ", "))
	if len(where) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}

	ret := make([]string, len(q.Return))
	for i, p := range q.Return {
		if !reIdent.MatchString(p.Prop) || !reIdent.MatchString(p.Alias) {
			return "", nil, fmt.Errorf("%w: projection %s.%s", query.ErrInvalidQuery, p.Var, p.Prop)
		}
		ret[i] = fmt.Sprintf("%s.%s AS %s", p.Var, p.Prop, p.Alias)
	}
	b.WriteString("\nRETURN ")
	b.WriteString(strings.Join(ret, ", "))

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
	return b.String(), params, nil
}

func cypherPredicate(v string, p query.Predicate, bind func(any) string) (string, error) {
	if !reIdent.MatchString(p.Prop) {
		return "", fmt.Errorf("%w: %s.%s", ErrUnknownProperty, v, p.Prop)
	}
	ref := v + "." + p.Prop
	switch {
	case p.Op == query.OpEq && p.Value == nil:
		return ref + " IS NULL", nil
	case p.Op == query.OpNe && p.Value == nil:
		return ref + " IS NOT NULL", nil
	case p.Op == query.OpContainsFold:
		return fmt.Sprintf("toLower(%s) CONTAINS toLower(%s)", ref, bind(p.Value)), nil
	}
	return fmt.Sprintf("%s %s %s", ref, p.Op, bind(p.Value)), nil
}

// cypherValue widens ints to int64, the driver's integer type.
func cypherValue(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cypherValue(e)
		}
		return out
	}
	return v
}
