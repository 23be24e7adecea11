// Package query defines the store-agnostic structured query produced by the
// synthesizer and executed by graph stores.
//
// A Query is a conjunctive graph pattern: typed node variables with property
// predicates, edges between them, and a flat projection of properties.
package query

import (
	"fmt"

	"github.com/okian/clutch/internal/domain/model"
)

// Op is a predicate comparison operator.
type Op int

const (
	OpEq Op = iota + 1
	OpNe
	OpLt
	OpLte
	OpGt
	OpGte
	// OpIn matches when the property equals any element of a []any value.
	OpIn
	// OpContainsFold is a case-insensitive substring match on strings.
	OpContainsFold
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "="
	case OpNe:
		return "<>"
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpIn:
		return "IN"
	case OpContainsFold:
		return "CONTAINS"
	default:
		return "?"
	}
}

// Predicate filters a node by one property.
type Predicate struct {
	Prop  string
	Op    Op
	Value any
}

// NodePattern declares a node variable of a given kind.
type NodePattern struct {
	Var   string
	Kind  model.NodeKind
	Where []Predicate
}

// Traversal requires an edge From -> To. Var optionally names the edge so
// its role can be projected. An empty Role leaves PERFORMED unconstrained.
type Traversal struct {
	Var  string
	From string
	To   string
	Edge model.EdgeKind
	Role model.Role
}

// Projection copies Var.Prop into the result tuple under Alias.
type Projection struct {
	Alias string
	Var   string
	Prop  string
}

// Order sorts tuples by a projected alias.
type Order struct {
	Alias string
	Desc  bool
}

// Query is the structured form of a question.
type Query struct {
	// Template names the library entry that produced the query.
	Template string
	// Path records how the query was synthesized: "template" or "assisted".
	Path string
	// Params are the extracted template parameters.
	Params     map[string]any
	Nodes      []NodePattern
	Traversals []Traversal
	Return     []Projection
	OrderBy    []Order
	// Limit bounds the result rows; 0 means no limit.
	Limit int
}

// Tuple is one raw result, keyed by projection alias.
type Tuple map[string]any

// Result aliases every clutch template projects. Stores and the ranker agree
// on these names.
const (
	ColGame         = "game"
	ColPeriod       = "period"
	ColSecLeft      = "sec_left"
	ColScorer       = "scorer"
	ColScoreHome    = "score_home"
	ColScoreVisitor = "score_visitor"
	ColHomeDesc     = "home_desc"
	ColVisitDesc    = "visit_desc"
	ColRole         = "role"
)

// Node returns the pattern bound to v.
func (q Query) Node(v string) (NodePattern, bool) {
	for _, n := range q.Nodes {
		if n.Var == v {
			return n, true
		}
	}
	return NodePattern{}, false
}

// Validate checks that the query is well formed: variables are unique and
// declared, edges connect nodes of the right kinds and projections resolve.
func (q Query) Validate() error {
	if len(q.Nodes) == 0 {
		return fmt.Errorf("%w: no node patterns", ErrInvalidQuery)
	}
	if len(q.Return) == 0 {
		return fmt.Errorf("%w: empty projection", ErrInvalidQuery)
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidQuery)
	}

	kinds := make(map[string]model.NodeKind, len(q.Nodes))
	for _, n := range q.Nodes {
		if n.Var == "" {
			return fmt.Errorf("%w: node without variable", ErrInvalidQuery)
		}
		if _, dup := kinds[n.Var]; dup {
			return fmt.Errorf("%w: variable %q declared twice", ErrInvalidQuery, n.Var)
		}
		if n.Kind.String() == "Unknown" {
			return fmt.Errorf("%w: variable %q has unknown kind", ErrInvalidQuery, n.Var)
		}
		for _, p := range n.Where {
			if p.Prop == "" || p.Op.String() == "?" {
				return fmt.Errorf("%w: bad predicate on %q", ErrInvalidQuery, n.Var)
			}
			if p.Op == OpIn {
				if _, ok := p.Value.([]any); !ok {
					return fmt.Errorf("%w: IN on %s.%s needs a list", ErrInvalidQuery, n.Var, p.Prop)
				}
			}
		}
		kinds[n.Var] = n.Kind
	}

	edges := make(map[string]bool, len(q.Traversals))
	for _, t := range q.Traversals {
		from, to := t.Edge.Endpoints()
		if from == 0 {
			return fmt.Errorf("%w: unknown edge kind", ErrInvalidQuery)
		}
		if kinds[t.From] != from || kinds[t.To] != to {
			return fmt.Errorf("%w: %s must connect %s to %s", ErrInvalidQuery, t.Edge, from, to)
		}
		if t.Role != "" && (t.Edge != model.EdgePerformed || !t.Role.Valid()) {
			return fmt.Errorf("%w: invalid role %q on %s", ErrInvalidQuery, t.Role, t.Edge)
		}
		if t.Var != "" {
			if _, clash := kinds[t.Var]; clash || edges[t.Var] {
				return fmt.Errorf("%w: variable %q declared twice", ErrInvalidQuery, t.Var)
			}
			edges[t.Var] = true
		}
	}

	aliases := make(map[string]bool, len(q.Return))
	for _, p := range q.Return {
		if p.Alias == "" || p.Prop == "" {
			return fmt.Errorf("%w: incomplete projection", ErrInvalidQuery)
		}
		if aliases[p.Alias] {
			return fmt.Errorf("%w: alias %q projected twice", ErrInvalidQuery, p.Alias)
		}
		aliases[p.Alias] = true
		switch {
		case edges[p.Var]:
			if p.Prop != model.PropRole {
				return fmt.Errorf("%w: edge %q only exposes %s", ErrInvalidQuery, p.Var, model.PropRole)
			}
		case kinds[p.Var] == 0:
			return fmt.Errorf("%w: projection of undeclared %q", ErrInvalidQuery, p.Var)
		}
	}
	for _, o := range q.OrderBy {
		if !aliases[o.Alias] {
			return fmt.Errorf("%w: order by unknown alias %q", ErrInvalidQuery, o.Alias)
		}
	}
	return nil
}
