package repository

import (
	"time"

	"github.com/okian/clutch/pkg/logger"
)

type options struct {
	log         logger.Logger
	timeout     time.Duration
	maxPoolSize int
	database    string
}

func defaultOptions() options {
	return options{
		log:         logger.Nop(),
		timeout:     10 * time.Second,
		maxPoolSize: 50,
	}
}

// Option applies a configuration option to a store.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithConnectTimeout bounds connection setup and health checks.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMaxPoolSize sets the Neo4j connection pool size.
func WithMaxPoolSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPoolSize = n
		}
	}
}

// WithDatabase selects a Neo4j database; empty uses the server default.
func WithDatabase(name string) Option {
	return func(o *options) {
		o.database = name
	}
}
