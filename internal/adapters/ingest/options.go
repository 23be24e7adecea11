package ingest

import (
	"github.com/okian/clutch/internal/domain/dedupe"
	"github.com/okian/clutch/pkg/logger"
)

// Option applies a configuration option to the Ingester.
type Option func(*Ingester)

// WithQueueSize bounds the queue between reader and writer.
func WithQueueSize(n int) Option {
	return func(in *Ingester) {
		if n > 0 {
			in.queueSize = n
		}
	}
}

// WithDeduper replaces the (game, event number) deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(in *Ingester) {
		if d != nil {
			in.seen = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(in *Ingester) {
		if l != nil {
			in.log = l
		}
	}
}
