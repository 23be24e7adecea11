package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/clutch/internal/domain/model"
	"github.com/okian/clutch/internal/domain/query"
	"github.com/okian/clutch/pkg/logger"
)

type memNode struct {
	key   string
	kind  model.NodeKind
	props map[string]any
}

type memEdge struct {
	kind model.EdgeKind
	from string
	to   string
	role model.Role
}

// MemStore is an in-memory property graph. Reads are matched by walking
// adjacency lists, binding node variables in declaration order.
type MemStore struct {
	mu    sync.RWMutex
	nodes map[string]*memNode
	order map[model.NodeKind][]*memNode
	out   map[string][]memEdge
	in    map[string][]memEdge
	log   logger.Logger
}

// NewMemStore creates an empty in-memory graph.
func NewMemStore(opts ...Option) *MemStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemStore{
		nodes: make(map[string]*memNode),
		order: make(map[model.NodeKind][]*memNode),
		out:   make(map[string][]memEdge),
		in:    make(map[string][]memEdge),
		log:   o.log,
	}
}

func nodeKey(kind model.NodeKind, id string) string {
	return kind.String() + ":" + id
}

// create stores a node unless one with the same key exists. Stored nodes are
// never rewritten. Must be called with s.mu held.
func (s *MemStore) create(kind model.NodeKind, id string, props map[string]any) {
	key := nodeKey(kind, id)
	if _, ok := s.nodes[key]; ok {
		return
	}
	n := &memNode{key: key, kind: kind, props: props}
	s.nodes[key] = n
	s.order[kind] = append(s.order[kind], n)
}

// link must be called with s.mu held.
func (s *MemStore) link(e memEdge) {
	for _, have := range s.out[e.from] {
		if have == e {
			return
		}
	}
	s.out[e.from] = append(s.out[e.from], e)
	s.in[e.to] = append(s.in[e.to], e)
}

func (s *MemStore) PutGame(ctx context.Context, g model.Game) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.create(model.NodeGame, g.ID, g.Props())
	return nil
}

func (s *MemStore) PutPlayer(ctx context.Context, p model.Player) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.create(model.NodePlayer, p.ID, p.Props())
	return nil
}

func (s *MemStore) PutEvent(ctx context.Context, ev model.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	game := nodeKey(model.NodeGame, ev.GameID)
	if _, ok := s.nodes[game]; !ok {
		return fmt.Errorf("event %s: game %s not stored", ev.ID, ev.GameID)
	}
	s.create(model.NodeEvent, ev.ID, ev.Props())
	s.link(memEdge{kind: model.EdgeInGame, from: nodeKey(model.NodeEvent, ev.ID), to: game})
	return nil
}

func (s *MemStore) PutPerformed(ctx context.Context, playerID, eventID string, role model.Role) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	from, to := nodeKey(model.NodePlayer, playerID), nodeKey(model.NodeEvent, eventID)
	if _, ok := s.nodes[from]; !ok {
		return fmt.Errorf("performed: player %s not stored", playerID)
	}
	if _, ok := s.nodes[to]; !ok {
		return fmt.Errorf("performed: event %s not stored", eventID)
	}
	s.link(memEdge{kind: model.EdgePerformed, from: from, to: to, role: role})
	return nil
}

// Len returns the number of nodes of a kind.
func (s *MemStore) Len(kind model.NodeKind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order[kind])
}

// Query matches q against the graph.
func (s *MemStore) Query(ctx context.Context, q query.Query) ([]query.Tuple, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	m := &matcher{ctx: ctx, s: s, q: q, nodes: map[string]*memNode{}, edges: map[string]memEdge{}}
	m.bindNode(0)
	if m.err != nil {
		return nil, m.err
	}
	sortTuples(m.out, q.OrderBy)
	s.log.Debug(ctx, "memory query", logger.String("template", q.Template), logger.Int("tuples", len(m.out)))
	return m.out, nil
}

func (s *MemStore) Close(context.Context) error { return nil }

type matcher struct {
	ctx   context.Context
	err   error
	s     *MemStore
	q     query.Query
	nodes map[string]*memNode
	edges map[string]memEdge
	out   []query.Tuple
}

func (m *matcher) bindNode(i int) {
	if i == len(m.q.Nodes) {
		m.bindEdge(0)
		return
	}
	pat := m.q.Nodes[i]
	for _, n := range m.candidates(pat) {
		if m.err = m.ctx.Err(); m.err != nil {
			return
		}
		if n.kind != pat.Kind || !matches(n, pat.Where) {
			continue
		}
		m.nodes[pat.Var] = n
		m.bindNode(i + 1)
		delete(m.nodes, pat.Var)
	}
}

// candidates walks from an already bound neighbour when a traversal allows
// it, and falls back to every node of the kind.
func (m *matcher) candidates(pat query.NodePattern) []*memNode {
	for _, t := range m.q.Traversals {
		switch {
		case t.From == pat.Var && m.nodes[t.To] != nil:
			var out []*memNode
			for _, e := range m.s.in[m.nodes[t.To].key] {
				if e.kind == t.Edge {
					out = append(out, m.s.nodes[e.from])
				}
			}
			return dedupeNodes(out)
		case t.To == pat.Var && m.nodes[t.From] != nil:
			var out []*memNode
			for _, e := range m.s.out[m.nodes[t.From].key] {
				if e.kind == t.Edge {
					out = append(out, m.s.nodes[e.to])
				}
			}
			return dedupeNodes(out)
		}
	}
	return m.s.order[pat.Kind]
}

func dedupeNodes(in []*memNode) []*memNode {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, n := range in {
		if !seen[n.key] {
			seen[n.key] = true
			out = append(out, n)
		}
	}
	return out
}

func (m *matcher) bindEdge(j int) {
	if j == len(m.q.Traversals) {
		m.emit()
		return
	}
	t := m.q.Traversals[j]
	from, to := m.nodes[t.From].key, m.nodes[t.To].key
	for _, e := range m.s.out[from] {
		if e.kind != t.Edge || e.to != to || (t.Role != "" && e.role != t.Role) {
			continue
		}
		if t.Var != "" {
			m.edges[t.Var] = e
		}
		m.bindEdge(j + 1)
	}
	if t.Var != "" {
		delete(m.edges, t.Var)
	}
}

func (m *matcher) emit() {
	tuple := make(query.Tuple, len(m.q.Return))
	for _, p := range m.q.Return {
		if e, ok := m.edges[p.Var]; ok {
			tuple[p.Alias] = string(e.role)
			continue
		}
		tuple[p.Alias] = m.nodes[p.Var].props[p.Prop]
	}
	m.out = append(m.out, tuple)
}

func matches(n *memNode, where []query.Predicate) bool {
	for _, p := range where {
		if !p.Match(n.props[p.Prop]) {
			return false
		}
	}
	return true
}
