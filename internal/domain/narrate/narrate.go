// Package narrate turns ranked rows into prose through the language model.
// It only assembles the prompt; the model does the writing.
package narrate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/clutch/internal/domain/model"
	"github.com/okian/clutch/internal/domain/prompt"
	"github.com/okian/clutch/internal/domain/timeout"
	"github.com/okian/clutch/pkg/logger"
	"github.com/okian/clutch/pkg/metrics"
)

var (
	// ErrNarrationUnavailable means the model could not narrate; callers may
	// fall back to the raw rows.
	ErrNarrationUnavailable = errors.New("narration unavailable")
	// ErrNoRows is returned for an empty row set. The model is not called.
	ErrNoRows = errors.New("no rows to narrate")
)

const system = `You are an NBA play-by-play analyst. Write a short, factual narration
of the clutch moments listed, in the order given. Use only the facts provided:
scores are home-visitor, seconds are left in the period.`

// Narrator narrates result rows.
type Narrator struct {
	model   prompt.Completer
	timeout time.Duration
	log     logger.Logger
}

// New creates a Narrator backed by model.
func New(model prompt.Completer, opts ...Option) *Narrator {
	n := &Narrator{model: model, log: logger.Nop()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Narrate returns prose for rows. A model failure wraps
// ErrNarrationUnavailable; a missed deadline wraps both it and
// timeout.ErrTimeout.
func (n *Narrator) Narrate(ctx context.Context, rows []model.ResultRow) (string, error) {
	if len(rows) == 0 {
		return "", ErrNoRows
	}
	if n.model == nil {
		return "", fmt.Errorf("%w: no language model configured", ErrNarrationUnavailable)
	}

	start := time.Now()
	text, err := timeout.Do(ctx, n.timeout, func(ctx context.Context) (string, error) {
		return n.model.Complete(ctx, Prompt(rows))
	})
	metrics.RecordNarrationLatency(float64(time.Since(start).Milliseconds()))
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty completion")
	}
	if err != nil {
		metrics.RecordNarrationFailure()
		n.log.Warn(ctx, "narration failed", logger.Error(err), logger.Int("rows", len(rows)))
		return "", fmt.Errorf("%w: %w", ErrNarrationUnavailable, err)
	}
	return strings.TrimSpace(text), nil
}

// Prompt renders rows into the narration prompt.
func Prompt(rows []model.ResultRow) prompt.Prompt {
	var b strings.Builder
	b.WriteString("Clutch moments:\n")
	for i, r := range rows {
		fmt.Fprintf(&b, "%d. game %s, period %d, %s left: %s scored, score %s (%s",
			i+1, r.Game, r.Period, clock(r.SecLeft), r.Scorer, r.Score, r.Lead)
		if r.Margin != 0 {
			fmt.Fprintf(&b, " by %d", abs(r.Margin))
		}
		b.WriteString(")")
		if r.Desc != "" {
			fmt.Fprintf(&b, ". %q", r.Desc)
		}
		b.WriteByte('\n')
	}
	return prompt.Prompt{System: system, User: b.String()}
}

func clock(sec int) string {
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
