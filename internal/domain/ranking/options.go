package ranking

import (
	"time"

	"github.com/okian/clutch/pkg/logger"
)

// Option applies a configuration option to the Executor.
type Option func(*Executor)

// WithMaxResults caps the ranked rows. 0 means unbounded.
func WithMaxResults(n int) Option {
	return func(e *Executor) {
		if n >= 0 {
			e.maxResults = n
		}
	}
}

// WithTimeout bounds each store call. 0 keeps the caller deadline only.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d >= 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.log = l
		}
	}
}
