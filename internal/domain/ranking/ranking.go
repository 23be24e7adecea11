// Package ranking executes structured queries and shapes raw tuples into
// ordered, deduplicated result rows.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/okian/clutch/internal/domain/dedupe"
	"github.com/okian/clutch/internal/domain/model"
	"github.com/okian/clutch/internal/domain/query"
	"github.com/okian/clutch/internal/domain/timeout"
	"github.com/okian/clutch/pkg/logger"
	"github.com/okian/clutch/pkg/metrics"
)

// Querier is the read capability of a graph store.
type Querier interface {
	Query(ctx context.Context, q query.Query) ([]query.Tuple, error)
}

// Executor runs queries and ranks their results.
type Executor struct {
	store      Querier
	maxResults int
	timeout    time.Duration
	log        logger.Logger
}

// New creates an Executor over store.
func New(store Querier, opts ...Option) *Executor {
	e := &Executor{store: store, log: logger.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs q and returns ranked rows. Store failures wrap ErrExecution;
// a missed deadline is timeout.ErrTimeout. No partial results are returned.
func (e *Executor) Execute(ctx context.Context, q query.Query) ([]model.ResultRow, error) {
	start := time.Now()
	tuples, err := timeout.Do(ctx, e.timeout, func(ctx context.Context) ([]query.Tuple, error) {
		return e.store.Query(ctx, q)
	})
	metrics.RecordExecutionLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordExecutionError()
		if errors.Is(err, timeout.ErrTimeout) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrExecution, err)
	}

	rows, err := Rank(tuples, Limit(e.maxResults, q.Limit))
	if err != nil {
		metrics.RecordExecutionError()
		return nil, fmt.Errorf("%w: %w", ErrExecution, err)
	}
	metrics.RecordRowsDeduplicated(len(tuples) - len(rows))
	metrics.RecordRowsReturned(len(rows))
	e.log.Debug(ctx, "query executed",
		logger.String("template", q.Template),
		logger.Int("tuples", len(tuples)),
		logger.Int("rows", len(rows)))
	return rows, nil
}

// Limit combines the configured cap with a per-query limit; 0 means none.
func Limit(maxResults, queryLimit int) int {
	switch {
	case maxResults <= 0:
		return queryLimit
	case queryLimit <= 0:
		return maxResults
	}
	return min(maxResults, queryLimit)
}

// Rank projects, orders, deduplicates and caps tuples. limit <= 0 keeps
// every row. Tuples missing a required column fail with ErrMalformedResult.
func Rank(tuples []query.Tuple, limit int) ([]model.ResultRow, error) {
	rows := make([]model.ResultRow, 0, len(tuples))
	for i, t := range tuples {
		r, err := Project(t)
		if err != nil {
			return nil, fmt.Errorf("tuple %d: %w", i, err)
		}
		rows = append(rows, r)
	}

	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })

	seen := dedupe.NewInMemoryDeduper()
	out := rows[:0]
	for _, r := range rows {
		key := dedupe.Key(r.Game, strconv.Itoa(r.Period), strconv.Itoa(r.SecLeft), r.Scorer)
		if seen.SeenAndRecord(context.Background(), key) {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Project maps one tuple onto a ResultRow. The margin is recomputed from the
// score so it always equals home minus visitor.
func Project(t query.Tuple) (model.ResultRow, error) {
	var r model.ResultRow
	var err error

	if r.Game, err = str(t, query.ColGame, true); err != nil {
		return r, err
	}
	if r.Scorer, err = str(t, query.ColScorer, true); err != nil {
		return r, err
	}
	if r.Period, err = integer(t, query.ColPeriod); err != nil {
		return r, err
	}
	if r.SecLeft, err = integer(t, query.ColSecLeft); err != nil {
		return r, err
	}
	if r.Score.Home, err = integer(t, query.ColScoreHome); err != nil {
		return r, err
	}
	if r.Score.Visitor, err = integer(t, query.ColScoreVisitor); err != nil {
		return r, err
	}

	home, err := str(t, query.ColHomeDesc, false)
	if err != nil {
		return r, err
	}
	visit, err := str(t, query.ColVisitDesc, false)
	if err != nil {
		return r, err
	}
	switch {
	case home != "":
		r.Desc = home
	case visit != "":
		r.Desc = visit
	}

	role, err := str(t, query.ColRole, false)
	if err != nil {
		return r, err
	}
	r.Role = model.Role(role)

	r.Margin = r.Score.Margin()
	r.Lead = model.LeadFromMargin(r.Margin)
	return r, nil
}

func str(t query.Tuple, col string, required bool) (string, error) {
	v, ok := t[col]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("%w: missing %s", ErrMalformedResult, col)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T, want string", ErrMalformedResult, col, v)
	}
	return s, nil
}

func integer(t query.Tuple, col string) (int, error) {
	v, ok := t[col]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: missing %s", ErrMalformedResult, col)
	}
	f, ok := query.Number(v)
	if !ok || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s is %v (%T), want integer", ErrMalformedResult, col, v, v)
	}
	return int(f), nil
}

// less orders by game ascending, then seconds left ascending, with period
// and scorer as deterministic tie-breaks.
func less(a, b model.ResultRow) bool {
	if c := compareGame(a.Game, b.Game); c != 0 {
		return c < 0
	}
	if a.SecLeft != b.SecLeft {
		return a.SecLeft < b.SecLeft
	}
	if a.Period != b.Period {
		return a.Period < b.Period
	}
	return a.Scorer < b.Scorer
}

// compareGame compares numerically when both ids are integers, so
// "49600083" and "0049600087" order by value.
func compareGame(a, b string) int {
	x, errA := strconv.ParseUint(a, 10, 64)
	y, errB := strconv.ParseUint(b, 10, 64)
	if errA == nil && errB == nil {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
