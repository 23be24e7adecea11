package llm

import (
	"context"
	"sync"

	"github.com/okian/clutch/internal/domain/prompt"
)

// Static returns canned output. Replies are consumed in order and the last
// one repeats; Err, when set, is returned instead.
type Static struct {
	Replies []string
	Err     error

	mu    sync.Mutex
	calls []prompt.Prompt
}

var _ prompt.Completer = (*Static)(nil)

// NewStatic creates a Static completer with the given replies.
func NewStatic(replies ...string) *Static {
	return &Static{Replies: replies}
}

func (s *Static) Complete(ctx context.Context, p prompt.Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.calls)
	s.calls = append(s.calls, p)
	if s.Err != nil {
		return "", s.Err
	}
	if len(s.Replies) == 0 {
		return "", ErrServiceError
	}
	if n >= len(s.Replies) {
		n = len(s.Replies) - 1
	}
	return s.Replies[n], nil
}

// Calls returns the prompts received so far.
func (s *Static) Calls() []prompt.Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]prompt.Prompt(nil), s.calls...)
}
