package service

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/okian/clutch/internal/domain/prompt"
	"github.com/okian/clutch/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLanguageModel sets the completer used for narration and, when
// WithAssisted is on, for translating unmatched questions.
func WithLanguageModel(m prompt.Completer) Option {
	return func(s *Service) {
		s.model = m
	}
}

// WithAssisted enables the language-model fallback of the synthesizer.
func WithAssisted(on bool) Option {
	return func(s *Service) {
		s.assisted = on
	}
}

// WithMatchThreshold sets the minimum template confidence.
func WithMatchThreshold(t float64) Option {
	return func(s *Service) {
		if t >= 0 && t <= 1 {
			s.threshold = t
		}
	}
}

// WithMaxResults caps ranked rows; 0 means unbounded.
func WithMaxResults(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxResults = n
		}
	}
}

// WithTimeouts sets the per-stage deadlines. Zero leaves a stage bounded by
// the caller's context only.
func WithTimeouts(query, llm, narrate time.Duration) Option {
	return func(s *Service) {
		s.queryTimeout = query
		s.llmTimeout = llm
		s.narrateTimeout = narrate
	}
}

// WithClutchWindow sets the classifier window in seconds.
func WithClutchWindow(seconds int) Option {
	return func(s *Service) {
		if seconds > 0 {
			s.window = seconds
		}
	}
}

// WithOvertimeSeconds sets the overtime period length.
func WithOvertimeSeconds(seconds int) Option {
	return func(s *Service) {
		if seconds > 0 {
			s.overtime = seconds
		}
	}
}

// WithQueueSize bounds the ingestion queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithTracer replaces the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}
