// Package clutch decides whether an event is a clutch moment.
//
// Classification is a pure function of the event attributes so that
// re-ingesting unchanged data yields identical flags.
package clutch

import (
	"github.com/okian/clutch/internal/domain/model"
)

const (
	// DefaultWindowSeconds is the end-of-period window.
	DefaultWindowSeconds = 30
	// FinalPeriod is the first period that can hold clutch moments. Every
	// overtime period qualifies as well.
	FinalPeriod = 4
)

// GameContext carries game-level facts available at classification time.
type GameContext struct {
	GameID      string
	HomeTeam    string
	VisitorTeam string
}

// Result of a classification.
type Result struct {
	IsClutch    bool
	ScoreMargin int
}

// Policy holds the classification thresholds.
type Policy struct {
	WindowSeconds int
	FinalPeriod   int
	Scoring       map[model.EventType]bool
}

// DefaultPolicy returns the standard clutch policy: period >= 4, at most 30
// seconds left, made shot or made free throw.
func DefaultPolicy() Policy {
	return Policy{
		WindowSeconds: DefaultWindowSeconds,
		FinalPeriod:   FinalPeriod,
		Scoring: map[model.EventType]bool{
			model.EventShotMade:      true,
			model.EventFreeThrowMade: true,
		},
	}
}

// Classifier applies a Policy.
type Classifier struct {
	policy Policy
}

// New creates a classifier with the default policy adjusted by opts.
func New(opts ...Option) *Classifier {
	c := &Classifier{policy: DefaultPolicy()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns a copy of the active policy.
func (c *Classifier) Policy() Policy {
	p := c.policy
	p.Scoring = make(map[model.EventType]bool, len(c.policy.Scoring))
	for k, v := range c.policy.Scoring {
		p.Scoring[k] = v
	}
	return p
}

// Classify reports whether ev is a clutch moment and its score margin.
func (c *Classifier) Classify(ev model.Event, _ GameContext) Result {
	return Result{
		IsClutch: ev.Period >= c.policy.FinalPeriod &&
			ev.SecondsLeft <= c.policy.WindowSeconds &&
			c.policy.Scoring[ev.Type],
		ScoreMargin: ev.Score.Home - ev.Score.Visitor,
	}
}

// Classify uses the default policy.
func Classify(ev model.Event, gc GameContext) Result {
	return defaultClassifier.Classify(ev, gc)
}

var defaultClassifier = New()
