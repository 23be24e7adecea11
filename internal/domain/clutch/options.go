package clutch

import "github.com/okian/clutch/internal/domain/model"

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithWindowSeconds sets the end-of-period window. Non-positive values are ignored.
func WithWindowSeconds(seconds int) Option {
	return func(c *Classifier) {
		if seconds > 0 {
			c.policy.WindowSeconds = seconds
		}
	}
}

// WithScoringTypes replaces the set of event types that count as scoring.
func WithScoringTypes(types ...model.EventType) Option {
	return func(c *Classifier) {
		if len(types) == 0 {
			return
		}
		c.policy.Scoring = make(map[model.EventType]bool, len(types))
		for _, t := range types {
			c.policy.Scoring[t] = true
		}
	}
}
