package query

import "github.com/okian/clutch/internal/domain/model"

// Builder assembles a Query step by step.
type Builder struct {
	q Query
}

// NewBuilder starts a query for the named template.
func NewBuilder(template string) *Builder {
	return &Builder{q: Query{Template: template, Params: map[string]any{}}}
}

// Match declares a node variable.
func (b *Builder) Match(v string, kind model.NodeKind, where ...Predicate) *Builder {
	b.q.Nodes = append(b.q.Nodes, NodePattern{Var: v, Kind: kind, Where: where})
	return b
}

// Where adds predicates to an already declared variable. Unknown variables
// are ignored and caught by Build.
func (b *Builder) Where(v string, preds ...Predicate) *Builder {
	for i := range b.q.Nodes {
		if b.q.Nodes[i].Var == v {
			b.q.Nodes[i].Where = append(b.q.Nodes[i].Where, preds...)
		}
	}
	return b
}

// InGame requires event variable ev to belong to game variable g.
func (b *Builder) InGame(ev, g string) *Builder {
	b.q.Traversals = append(b.q.Traversals, Traversal{From: ev, To: g, Edge: model.EdgeInGame})
	return b
}

// Performed requires player p to have performed event ev. edgeVar may be
// empty; role may be empty for any role.
func (b *Builder) Performed(edgeVar, p, ev string, role model.Role) *Builder {
	b.q.Traversals = append(b.q.Traversals, Traversal{
		Var: edgeVar, From: p, To: ev, Edge: model.EdgePerformed, Role: role,
	})
	return b
}

// Return projects v.prop under alias.
func (b *Builder) Return(alias, v, prop string) *Builder {
	b.q.Return = append(b.q.Return, Projection{Alias: alias, Var: v, Prop: prop})
	return b
}

// OrderBy appends a sort key.
func (b *Builder) OrderBy(alias string, desc bool) *Builder {
	b.q.OrderBy = append(b.q.OrderBy, Order{Alias: alias, Desc: desc})
	return b
}

// Limit sets the row limit.
func (b *Builder) Limit(n int) *Builder {
	b.q.Limit = n
	return b
}

// Param records an extracted template parameter.
func (b *Builder) Param(name string, v any) *Builder {
	b.q.Params[name] = v
	return b
}

// Build validates and returns the query.
func (b *Builder) Build() (Query, error) {
	if err := b.q.Validate(); err != nil {
		return Query{}, err
	}
	return b.q, nil
}
