// Package queue is the bounded hand-off between the play-by-play reader and
// the single graph writer.
package queue

import (
	"context"
	"sync"

	"github.com/okian/clutch/internal/domain/model"
	"github.com/okian/clutch/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Play is the payload flowing through the queue.
type Play = model.Play

// Queue provides blocking enqueue and channel-based dequeue.
type Queue interface {
	// Enqueue waits for room, the queue to close or ctx to end.
	Enqueue(ctx context.Context, p Play) error

	// Dequeue returns the receive side. It is closed once the queue is
	// closed and drained.
	Dequeue() <-chan Play

	Len() int

	// Close stops further enqueues. Buffered plays remain readable.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	plays    chan Play
	capacity int

	mu        sync.RWMutex
	closed    bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.plays = make(chan Play, q.capacity)
	q.done = make(chan struct{})

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, p Play) error { //nolint:gocritic // hugeParam: Play is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}
	select {
	case q.plays <- p:
		metrics.UpdateQueueSize(len(q.plays))
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *InMemoryQueue) Dequeue() <-chan Play {
	return q.plays
}

func (q *InMemoryQueue) Len() int {
	size := len(q.plays)
	metrics.UpdateQueueSize(size)
	return size
}

// Close gracefully shuts down the queue. A producer blocked in Enqueue is
// released with ErrClosed before the channel is closed.
func (q *InMemoryQueue) Close() error {
	q.closeOnce.Do(func() {
		close(q.done)

		q.mu.Lock()
		defer q.mu.Unlock()
		close(q.plays)
		q.closed = true
	})
	return nil
}

func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
