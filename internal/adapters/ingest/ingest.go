// Package ingest loads NBA play-by-play CSV into the graph. A reader parses
// and orders the rows, a bounded queue hands them to one writer, and the
// writer applies them through the schema layer.
package ingest

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/clutch/internal/adapters/mq/queue"
	"github.com/okian/clutch/internal/adapters/mq/worker"
	"github.com/okian/clutch/internal/domain/dedupe"
	"github.com/okian/clutch/internal/domain/schema"
	"github.com/okian/clutch/pkg/logger"
	"github.com/okian/clutch/pkg/metrics"
)

const defaultQueueSize = 1024

// Report summarises one ingestion run.
type Report struct {
	Rows       int `json:"rows"`
	Events     int `json:"events"`
	Duplicates int `json:"duplicates"`
	Violations int `json:"violations"`
}

// Add accumulates o into r.
func (r *Report) Add(o Report) {
	r.Rows += o.Rows
	r.Events += o.Events
	r.Duplicates += o.Duplicates
	r.Violations += o.Violations
}

// Ingester writes batches through a schema graph. Batches run one at a time;
// re-ingesting unchanged input only produces duplicates.
type Ingester struct {
	graph     *schema.Graph
	seen      dedupe.Deduper
	queueSize int
	log       logger.Logger

	mu    sync.Mutex
	state *graphState
}

// New creates an Ingester writing through graph.
func New(graph *schema.Graph, opts ...Option) *Ingester {
	in := &Ingester{
		graph:     graph,
		queueSize: defaultQueueSize,
		log:       logger.Nop(),
		state:     newGraphState(),
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.seen == nil {
		in.seen = dedupe.NewInMemoryDeduper()
	}
	return in
}

// IngestFile ingests the CSV (or .csv.gz) at path.
func (in *Ingester) IngestFile(ctx context.Context, path string) (Report, error) {
	f, err := Open(path)
	if err != nil {
		return Report{}, err
	}
	defer f.Close()
	return in.Ingest(ctx, f)
}

// Ingest parses r and writes every play. Malformed rows and schema
// violations are counted, never fatal; store failures abort the batch.
func (in *Ingester) Ingest(ctx context.Context, r io.Reader) (Report, error) {
	src, err := Decompress(r)
	if err != nil {
		return Report{}, err
	}
	batch, err := ReadPlays(src)
	if err != nil {
		return Report{}, err
	}
	return in.Write(ctx, batch)
}

// Write applies an already parsed batch.
func (in *Ingester) Write(ctx context.Context, batch Batch) (Report, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	start := time.Now()
	report := Report{Rows: len(batch.Malformed), Violations: len(batch.Malformed)}
	for _, rerr := range batch.Malformed {
		metrics.RecordSchemaViolation(rerr.Column)
		in.log.Warn(ctx, "malformed row", logger.Error(rerr))
	}

	q := queue.NewInMemoryQueue(queue.WithCapacity(in.queueSize))
	w := worker.New(q, &batchWriter{
		graph:  in.graph,
		seen:   in.seen,
		state:  in.state,
		report: &report,
		log:    in.log,
	}, worker.WithName("ingest"), worker.WithLogger(in.log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx)
	})
	g.Go(func() error {
		defer q.Close()
		for _, p := range batch.Plays {
			if err := q.Enqueue(gctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("ingest: %w", err)
	}

	in.log.Info(ctx, "ingestion complete",
		logger.Int("rows", report.Rows),
		logger.Int("events", report.Events),
		logger.Int("duplicates", report.Duplicates),
		logger.Int("violations", report.Violations),
		logger.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}
