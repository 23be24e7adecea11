package synth

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoTemplateMatch means no template reached the confidence threshold
	// and the assisted path was disabled or not configured.
	ErrNoTemplateMatch = errors.New("no template match")
	// ErrTranslationFailure means the assisted path could not produce a
	// valid query.
	ErrTranslationFailure = errors.New("translation failure")
	// ErrInvalidLibrary is a malformed template library.
	ErrInvalidLibrary = errors.New("invalid template library")
	// ErrEmptyQuestion is a blank question. Nothing matches it, so it also
	// matches ErrNoTemplateMatch.
	ErrEmptyQuestion = fmt.Errorf("%w: empty question", ErrNoTemplateMatch)
)

// Suggestion is a template that came close to matching.
type Suggestion struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Confidence  float64  `json:"confidence"`
	Missing     []string `json:"missing,omitempty"`
	Example     string   `json:"example,omitempty"`
}

// NoMatchError carries the nearest templates for a question no template
// matched.
type NoMatchError struct {
	Question string
	Nearest  []Suggestion
}

func (e *NoMatchError) Error() string {
	if len(e.Nearest) == 0 {
		return "no template match"
	}
	names := make([]string, len(e.Nearest))
	for i, s := range e.Nearest {
		names[i] = s.Name
	}
	return fmt.Sprintf("no template match (nearest: %s)", strings.Join(names, ", "))
}

// Is lets errors.Is match ErrNoTemplateMatch.
func (e *NoMatchError) Is(target error) bool { return target == ErrNoTemplateMatch }
