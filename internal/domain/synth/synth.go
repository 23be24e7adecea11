// Package synth turns natural-language questions into structured queries.
//
// The template path scores every library template against the question and
// binds parameters extracted by regular expressions. When nothing clears the
// confidence threshold and the assisted path is enabled, the language model
// is asked to pick a template and fill its parameters; its answer is
// validated against the same parameter schema and never trusted blindly.
// Synthesis never touches the graph.
package synth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/clutch/internal/domain/clutch"
	"github.com/okian/clutch/internal/domain/prompt"
	"github.com/okian/clutch/internal/domain/query"
	"github.com/okian/clutch/internal/domain/timeout"
	"github.com/okian/clutch/pkg/logger"
)

// Synthesis paths recorded on Query.Path.
const (
	PathTemplate = "template"
	PathAssisted = "assisted"
)

const (
	defaultThreshold   = 0.5
	defaultSuggestions = 3
)

// Synthesizer maps questions to queries.
type Synthesizer struct {
	library     []Template
	threshold   float64
	assisted    bool
	model       prompt.Completer
	llmTimeout  time.Duration
	policy      clutch.Policy
	suggestions int
	log         logger.Logger
}

// New creates a Synthesizer over the embedded template library, or over the
// one given with WithLibrary. An invalid library fails with ErrInvalidLibrary.
func New(opts ...Option) (*Synthesizer, error) {
	s := &Synthesizer{
		threshold:   defaultThreshold,
		policy:      clutch.DefaultPolicy(),
		suggestions: defaultSuggestions,
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	var (
		lib []Template
		err error
	)
	if s.library == nil {
		lib, err = LoadLibrary(templatesYAML)
	} else {
		lib, err = validateLibrary(s.library)
	}
	if err != nil {
		return nil, err
	}
	s.library = lib
	return s, nil
}

// Library returns the template catalog in library order.
func (s *Synthesizer) Library() []Template {
	out := make([]Template, len(s.library))
	copy(out, s.library)
	return out
}

type candidate struct {
	tmpl       Template
	order      int
	confidence float64
	keyword    float64
	params     map[string]any
	used       int
	missing    []string
}

// rank scores every template, best first.
func (s *Synthesizer) rank(n normalized) []candidate {
	extracted := extract(n)
	out := make([]candidate, 0, len(s.library))
	for i, t := range s.library {
		params, used, missing, err := bind(t, extracted, false)
		if err != nil {
			s.log.Error(context.Background(), "template binding failed",
				logger.String("template", t.Name), logger.Error(err))
			continue
		}
		kw := keywordScore(t, n)
		c := candidate{tmpl: t, order: i, keyword: kw, confidence: kw, params: params, used: used, missing: missing}
		if len(missing) > 0 || rejects(t, extracted) || !covers(t, extracted) {
			c.confidence = 0
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.confidence != b.confidence {
			return a.confidence > b.confidence
		}
		if a.used != b.used {
			return a.used > b.used
		}
		return a.order < b.order
	})
	return out
}

// Nearest returns up to k templates ranked by keyword overlap, with the
// parameters each would still need.
func (s *Synthesizer) Nearest(question string, k int) []Suggestion {
	cands := s.rank(normalize(question))
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].keyword != cands[j].keyword {
			return cands[i].keyword > cands[j].keyword
		}
		return cands[i].order < cands[j].order
	})
	if k > len(cands) || k <= 0 {
		k = len(cands)
	}
	out := make([]Suggestion, 0, k)
	for _, c := range cands[:k] {
		sug := Suggestion{
			Name:        c.tmpl.Name,
			Description: c.tmpl.Description,
			Confidence:  c.keyword,
			Missing:     c.missing,
		}
		if len(c.tmpl.Examples) > 0 {
			sug.Example = c.tmpl.Examples[0]
		}
		out = append(out, sug)
	}
	return out
}

// Synthesize builds a query for question.
func (s *Synthesizer) Synthesize(ctx context.Context, question string) (query.Query, error) {
	if strings.TrimSpace(question) == "" {
		return query.Query{}, ErrEmptyQuestion
	}

	n := normalize(question)
	cands := s.rank(n)
	if len(cands) > 0 && cands[0].confidence >= s.threshold && cands[0].confidence > 0 {
		best := cands[0]
		q, err := builders[best.tmpl.Name](best.params, s.policy)
		if err != nil {
			return query.Query{}, fmt.Errorf("build %s: %w", best.tmpl.Name, err)
		}
		q.Path = PathTemplate
		s.log.Debug(ctx, "template matched",
			logger.String("template", best.tmpl.Name),
			logger.Float64("confidence", best.confidence),
			logger.Int("params", best.used))
		return q, nil
	}

	if !s.assisted || s.model == nil {
		return query.Query{}, &NoMatchError{Question: question, Nearest: s.Nearest(question, s.suggestions)}
	}
	return s.assist(ctx, question)
}

type assistedAnswer struct {
	Template string         `json:"template"`
	Params   map[string]any `json:"params"`
}

func (s *Synthesizer) assist(ctx context.Context, question string) (query.Query, error) {
	p, err := s.assistPrompt(question)
	if err != nil {
		return query.Query{}, fmt.Errorf("%w: %w", ErrTranslationFailure, err)
	}

	raw, err := timeout.Do(ctx, s.llmTimeout, func(ctx context.Context) (string, error) {
		return s.model.Complete(ctx, p)
	})
	if err != nil {
		if errors.Is(err, timeout.ErrTimeout) {
			return query.Query{}, err
		}
		return query.Query{}, fmt.Errorf("%w: %w", ErrTranslationFailure, err)
	}

	var ans assistedAnswer
	if err := json.Unmarshal([]byte(stripFence(raw)), &ans); err != nil {
		return query.Query{}, fmt.Errorf("%w: unparseable model output: %w", ErrTranslationFailure, err)
	}

	var tmpl *Template
	for i := range s.library {
		if s.library[i].Name == ans.Template {
			tmpl = &s.library[i]
			break
		}
	}
	if tmpl == nil {
		return query.Query{}, fmt.Errorf("%w: unknown template %q", ErrTranslationFailure, ans.Template)
	}

	params, _, missing, err := bind(*tmpl, ans.Params, true)
	if err != nil {
		return query.Query{}, fmt.Errorf("%w: %w", ErrTranslationFailure, err)
	}
	if len(missing) > 0 {
		return query.Query{}, fmt.Errorf("%w: %s missing %s", ErrTranslationFailure, tmpl.Name, strings.Join(missing, ", "))
	}

	q, err := builders[tmpl.Name](params, s.policy)
	if err != nil {
		return query.Query{}, fmt.Errorf("%w: %w", ErrTranslationFailure, err)
	}
	q.Path = PathAssisted
	s.log.Info(ctx, "assisted translation", logger.String("template", tmpl.Name))
	return q, nil
}

const assistSystem = `You translate basketball questions into one of a fixed set of query templates.
Reply with a single JSON object {"template": "<name>", "params": {...}} using only
the templates and parameters listed. Omit optional parameters you cannot infer.
If no template fits, reply {"template": ""}.`

func (s *Synthesizer) assistPrompt(question string) (prompt.Prompt, error) {
	catalog, err := json.MarshalIndent(s.library, "", "  ")
	if err != nil {
		return prompt.Prompt{}, err
	}
	return prompt.Prompt{
		System: assistSystem,
		User:   "Templates:\n" + string(catalog) + "\n\nQuestion: " + question,
		JSON:   true,
	}, nil
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
