package narrate

import (
	"time"

	"github.com/okian/clutch/pkg/logger"
)

// Option applies a configuration option to the Narrator.
type Option func(*Narrator)

// WithTimeout bounds each model call.
func WithTimeout(d time.Duration) Option {
	return func(n *Narrator) {
		if d >= 0 {
			n.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(n *Narrator) {
		if l != nil {
			n.log = l
		}
	}
}
