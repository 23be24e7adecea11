// Package service wires the question pipeline (synthesize, execute,
// narrate) and batch ingestion over one graph store.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/clutch/internal/adapters/ingest"
	"github.com/okian/clutch/internal/adapters/repository"
	"github.com/okian/clutch/internal/domain/clutch"
	"github.com/okian/clutch/internal/domain/model"
	"github.com/okian/clutch/internal/domain/narrate"
	"github.com/okian/clutch/internal/domain/prompt"
	"github.com/okian/clutch/internal/domain/query"
	"github.com/okian/clutch/internal/domain/ranking"
	"github.com/okian/clutch/internal/domain/schema"
	"github.com/okian/clutch/internal/domain/synth"
	"github.com/okian/clutch/internal/domain/timeout"
	"github.com/okian/clutch/pkg/logger"
	"github.com/okian/clutch/pkg/metrics"
)

const tracerName = "github.com/okian/clutch/internal/app"

// AskRequest is one question.
type AskRequest struct {
	Question string
	Narrate  bool
	// Limit caps the rows of this answer; 0 keeps the query's own limit.
	Limit int
}

// Answer is the result of Ask. NarrationErr is set when narration was
// requested but failed; Rows are still valid then.
type Answer struct {
	RequestID    string
	Query        query.Query
	Rows         []model.ResultRow
	Narration    string
	NarrationErr error
}

// Service answers questions over a graph store and feeds it from
// play-by-play input.
type Service struct {
	store repository.Store

	synth    *synth.Synthesizer
	executor *ranking.Executor
	narrator *narrate.Narrator
	ingester *ingest.Ingester

	model          prompt.Completer
	assisted       bool
	threshold      float64
	maxResults     int
	queryTimeout   time.Duration
	llmTimeout     time.Duration
	narrateTimeout time.Duration
	window         int
	overtime       int
	queueSize      int

	tracer trace.Tracer
	logger logger.Logger

	closeOnce sync.Once
	closeErr  error
}

// New wires a Service over store.
func New(store repository.Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("service: nil store")
	}
	s := &Service{
		store:          store,
		threshold:      0.5,
		queryTimeout:   5 * time.Second,
		llmTimeout:     30 * time.Second,
		narrateTimeout: 30 * time.Second,
		window:         clutch.DefaultWindowSeconds,
		overtime:       schema.DefaultOvertimeSeconds,
		tracer:         otel.Tracer(tracerName),
		logger:         logger.Get(),
	}
	for _, opt := range opts {
		opt(s)
	}

	classifier := clutch.New(clutch.WithWindowSeconds(s.window))
	graph := schema.New(store,
		schema.WithClassifier(classifier),
		schema.WithOvertimeSeconds(s.overtime),
	)

	synthOpts := []synth.Option{
		synth.WithThreshold(s.threshold),
		synth.WithPolicy(classifier.Policy()),
		synth.WithLogger(s.logger.Named("synth")),
	}
	if s.assisted {
		synthOpts = append(synthOpts, synth.WithAssisted(s.model, s.llmTimeout))
	}
	sy, err := synth.New(synthOpts...)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	s.synth = sy

	s.executor = ranking.New(store,
		ranking.WithMaxResults(s.maxResults),
		ranking.WithTimeout(s.queryTimeout),
		ranking.WithLogger(s.logger.Named("ranking")),
	)
	s.narrator = narrate.New(s.model,
		narrate.WithTimeout(s.narrateTimeout),
		narrate.WithLogger(s.logger.Named("narrate")),
	)

	ingestOpts := []ingest.Option{ingest.WithLogger(s.logger.Named("ingest"))}
	if s.queueSize > 0 {
		ingestOpts = append(ingestOpts, ingest.WithQueueSize(s.queueSize))
	}
	s.ingester = ingest.New(graph, ingestOpts...)
	return s, nil
}

// Ask runs the pipeline for one question. Stages run in order, each under
// its own deadline; synthesis and execution errors are returned as is,
// narration errors only land on the Answer.
func (s *Service) Ask(ctx context.Context, req AskRequest) (Answer, error) {
	ans := Answer{RequestID: uuid.NewString()}
	ctx, span := s.tracer.Start(ctx, "clutch.ask", trace.WithAttributes(
		attribute.String("request_id", ans.RequestID),
		attribute.Bool("narrate", req.Narrate),
	))
	defer span.End()

	q, err := s.synthesize(ctx, req.Question)
	if err != nil {
		fail(span, err)
		return ans, err
	}
	if req.Limit > 0 {
		q.Limit = req.Limit
	}
	ans.Query = q
	span.SetAttributes(attribute.String("template", q.Template), attribute.String("path", q.Path))

	rows, err := s.execute(ctx, q)
	if err != nil {
		fail(span, err)
		return ans, err
	}
	ans.Rows = rows

	if req.Narrate && len(rows) > 0 {
		ans.Narration, ans.NarrationErr = s.narrate(ctx, rows)
	}

	s.logger.Info(ctx, "question answered",
		logger.String("request_id", ans.RequestID),
		logger.String("template", q.Template),
		logger.String("path", q.Path),
		logger.Int("rows", len(rows)),
		logger.Bool("narrated", ans.Narration != ""),
	)
	return ans, nil
}

func (s *Service) synthesize(ctx context.Context, question string) (query.Query, error) {
	ctx, span := s.tracer.Start(ctx, "clutch.synthesize")
	defer span.End()

	q, err := s.synth.Synthesize(ctx, question)
	if err != nil {
		metrics.RecordSynthesisFailure(failureKind(err))
		if errors.Is(err, timeout.ErrTimeout) {
			metrics.RecordTimeout("llm")
		}
		fail(span, err)
		return q, err
	}
	metrics.RecordQuestion(q.Path, q.Template)
	return q, nil
}

func (s *Service) execute(ctx context.Context, q query.Query) ([]model.ResultRow, error) {
	ctx, span := s.tracer.Start(ctx, "clutch.execute", trace.WithAttributes(
		attribute.String("template", q.Template),
	))
	defer span.End()

	rows, err := s.executor.Execute(ctx, q)
	if err != nil {
		if errors.Is(err, timeout.ErrTimeout) {
			metrics.RecordTimeout("store")
		}
		fail(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("rows", len(rows)))
	return rows, nil
}

func (s *Service) narrate(ctx context.Context, rows []model.ResultRow) (string, error) {
	ctx, span := s.tracer.Start(ctx, "clutch.narrate")
	defer span.End()

	text, err := s.narrator.Narrate(ctx, rows)
	if err != nil {
		if errors.Is(err, timeout.ErrTimeout) {
			metrics.RecordTimeout("narration")
		}
		fail(span, err)
		return "", err
	}
	return text, nil
}

// Ingest loads one play-by-play CSV (plain or gzip) into the store.
func (s *Service) Ingest(ctx context.Context, r io.Reader) (ingest.Report, error) {
	ctx, span := s.tracer.Start(ctx, "clutch.ingest")
	defer span.End()

	report, err := s.ingester.Ingest(ctx, r)
	span.SetAttributes(
		attribute.Int("rows", report.Rows),
		attribute.Int("events", report.Events),
		attribute.Int("violations", report.Violations),
	)
	if err != nil {
		fail(span, err)
	}
	return report, err
}

// IngestBatch writes plays that were parsed elsewhere, e.g. files read in
// parallel. Batches still go through the single writer one at a time.
func (s *Service) IngestBatch(ctx context.Context, batch ingest.Batch) (ingest.Report, error) {
	ctx, span := s.tracer.Start(ctx, "clutch.ingest_batch", trace.WithAttributes(
		attribute.Int("plays", len(batch.Plays)),
	))
	defer span.End()

	report, err := s.ingester.Write(ctx, batch)
	if err != nil {
		fail(span, err)
	}
	return report, err
}

// IngestFile loads the play-by-play file at path.
func (s *Service) IngestFile(ctx context.Context, path string) (ingest.Report, error) {
	f, err := ingest.Open(path)
	if err != nil {
		return ingest.Report{}, err
	}
	defer f.Close()
	return s.Ingest(ctx, f)
}

// Templates returns the template catalog.
func (s *Service) Templates() []synth.Template {
	return s.synth.Library()
}

// Suggest returns the templates closest to question.
func (s *Service) Suggest(question string, k int) []synth.Suggestion {
	return s.synth.Nearest(question, k)
}

// Synthesize exposes the synthesizer alone, for inspecting generated
// queries without touching the store.
func (s *Service) Synthesize(ctx context.Context, question string) (query.Query, error) {
	return s.synthesize(ctx, question)
}

// Close releases the store. It is safe to call more than once.
func (s *Service) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.store.Close(ctx)
	})
	return s.closeErr
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// failureKind labels synthesis failures for metrics.
func failureKind(err error) string {
	switch {
	case errors.Is(err, synth.ErrEmptyQuestion):
		return "empty_question"
	case errors.Is(err, synth.ErrNoTemplateMatch):
		return "no_template_match"
	case errors.Is(err, timeout.ErrTimeout):
		return "timeout"
	case errors.Is(err, synth.ErrTranslationFailure):
		return "translation_failure"
	default:
		return "other"
	}
}
