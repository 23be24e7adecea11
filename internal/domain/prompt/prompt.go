// Package prompt is the text-in/text-out contract with the language model.
package prompt

import "context"

// Prompt is one completion request.
type Prompt struct {
	System string
	User   string
	// JSON asks the model for a single JSON object.
	JSON bool
}

// Completer generates text for a prompt.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, p Prompt) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, p Prompt) (string, error) { return f(ctx, p) }
