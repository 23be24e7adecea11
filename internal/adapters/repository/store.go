// Package repository holds the graph stores: an in-memory graph, Neo4j and
// SQLite. Each one accepts validated writes from the schema layer and answers
// structured queries for the ranker.
package repository

import (
	"context"
	"regexp"
	"sort"

	"github.com/okian/clutch/internal/domain/query"
	"github.com/okian/clutch/internal/domain/ranking"
	"github.com/okian/clutch/internal/domain/schema"
)

// Store is a complete graph backend.
type Store interface {
	schema.Writer
	ranking.Querier
	Close(ctx context.Context) error
}

var (
	_ Store = (*MemStore)(nil)
	_ Store = (*Neo4jStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

var reIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// sortTuples applies the query ordering in place. Values compare with the
// predicate rules; incomparable values keep their relative order.
func sortTuples(tuples []query.Tuple, order []query.Order) {
	if len(order) == 0 {
		return
	}
	sort.SliceStable(tuples, func(i, j int) bool {
		for _, o := range order {
			a, b := tuples[i][o.Alias], tuples[j][o.Alias]
			if query.Lt("", b).Match(a) {
				return !o.Desc
			}
			if query.Gt("", b).Match(a) {
				return o.Desc
			}
		}
		return false
	})
}
