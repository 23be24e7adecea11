package schema

import "github.com/okian/clutch/internal/domain/clutch"

// Option applies a configuration option to the Graph.
type Option func(*Graph)

// WithPeriodSeconds sets the regulation period length.
func WithPeriodSeconds(seconds int) Option {
	return func(g *Graph) {
		if seconds > 0 {
			g.periodSeconds = seconds
		}
	}
}

// WithOvertimeSeconds sets the overtime period length.
func WithOvertimeSeconds(seconds int) Option {
	return func(g *Graph) {
		if seconds > 0 {
			g.overtimeSeconds = seconds
		}
	}
}

// WithClassifier sets the classifier consulted by CreateEvent.
func WithClassifier(c *clutch.Classifier) Option {
	return func(g *Graph) {
		if c != nil {
			g.classifier = c
		}
	}
}
