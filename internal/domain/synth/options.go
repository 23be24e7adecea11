package synth

import (
	"time"

	"github.com/okian/clutch/internal/domain/clutch"
	"github.com/okian/clutch/internal/domain/prompt"
	"github.com/okian/clutch/pkg/logger"
)

// Option applies a configuration option to the Synthesizer.
type Option func(*Synthesizer)

// WithThreshold sets the minimum template confidence in [0,1].
func WithThreshold(t float64) Option {
	return func(s *Synthesizer) {
		if t >= 0 && t <= 1 {
			s.threshold = t
		}
	}
}

// WithAssisted enables the language-model fallback through model.
// A nil model leaves the fallback disabled.
func WithAssisted(model prompt.Completer, timeout time.Duration) Option {
	return func(s *Synthesizer) {
		s.assisted = model != nil
		s.model = model
		s.llmTimeout = timeout
	}
}

// WithPolicy aligns generated queries with the classifier policy.
func WithPolicy(p clutch.Policy) Option {
	return func(s *Synthesizer) {
		s.policy = p
	}
}

// WithLibrary replaces the embedded template library.
func WithLibrary(lib []Template) Option {
	return func(s *Synthesizer) {
		if len(lib) > 0 {
			s.library = lib
		}
	}
}

// WithSuggestions sets how many nearest templates a NoMatchError carries.
func WithSuggestions(k int) Option {
	return func(s *Synthesizer) {
		if k > 0 {
			s.suggestions = k
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Synthesizer) {
		if l != nil {
			s.log = l
		}
	}
}
