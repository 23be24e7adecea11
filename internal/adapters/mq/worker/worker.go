// Package worker runs the single graph writer that drains the ingestion
// queue. All schema writes of a batch happen on its goroutine.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/okian/clutch/internal/domain/model"
	"github.com/okian/clutch/pkg/logger"
)

// Handler applies one play to the graph. An error stops the worker; handlers
// absorb recoverable problems themselves.
type Handler interface {
	Handle(ctx context.Context, p model.Play) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, p model.Play) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, p model.Play) error { return f(ctx, p) } //nolint:gocritic // hugeParam

// Queue defines how the worker receives plays.
type Queue interface {
	Dequeue() <-chan model.Play
}

// Worker drains a queue through a handler.
type Worker struct {
	queue   Queue
	handler Handler
	name    string

	processed atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// New creates a worker reading from queue.
func New(queue Queue, handler Handler, opts ...Option) *Worker {
	w := &Worker{
		queue:    queue,
		handler:  handler,
		name:     "writer",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "writer" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run processes plays until the queue is drained, ctx ends or Shutdown is
// called. It returns the first handler error.
func (w *Worker) Run(ctx context.Context) error {
	defer close(w.done)

	plays := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.shutdown:
			return nil
		case p, ok := <-plays:
			if !ok {
				w.logger.Debug(ctx, "queue drained", logger.Int("processed", int(w.processed.Load())))
				return nil
			}
			if err := w.handler.Handle(ctx, p); err != nil {
				w.logger.Error(ctx, "error processing play",
					logger.String("game_id", p.GameID),
					logger.Int("event_num", p.Num),
					logger.Error(err),
				)
				return fmt.Errorf("play %s/%d: %w", p.GameID, p.Num, err)
			}
			w.processed.Add(1)
		}
	}
}

// Processed returns the number of plays handled without error.
func (w *Worker) Processed() int64 {
	return w.processed.Load()
}

// Shutdown stops the worker after the play in flight.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
