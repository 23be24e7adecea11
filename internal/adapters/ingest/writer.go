package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gosimple/slug"

	"github.com/okian/clutch/internal/domain/dedupe"
	"github.com/okian/clutch/internal/domain/model"
	"github.com/okian/clutch/internal/domain/schema"
	"github.com/okian/clutch/pkg/logger"
	"github.com/okian/clutch/pkg/metrics"
)

// graphState survives across batches so a game split over several inputs
// keeps its references and running score.
type graphState struct {
	games   map[string]schema.GameRef
	players map[string]schema.PlayerRef
	scores  map[string]model.Score
}

func newGraphState() *graphState {
	return &graphState{
		games:   make(map[string]schema.GameRef),
		players: make(map[string]schema.PlayerRef),
		scores:  make(map[string]model.Score),
	}
}

// batchWriter is the worker handler for one batch. It runs on the single
// writer goroutine only.
type batchWriter struct {
	graph  *schema.Graph
	seen   dedupe.Deduper
	state  *graphState
	report *Report
	log    logger.Logger
}

func (w *batchWriter) Handle(ctx context.Context, p model.Play) error { //nolint:gocritic // hugeParam
	w.report.Rows++
	metrics.RecordIngestRow()

	key := dedupe.Key(p.GameID, strconv.Itoa(p.Num))
	if w.seen.SeenAndRecord(ctx, key) {
		w.report.Duplicates++
		metrics.RecordIngestDuplicate()
		return nil
	}

	err := w.write(ctx, p)
	var v *schema.Violation
	switch {
	case err == nil:
		w.report.Events++
		metrics.RecordIngestEvent()
		return nil
	case errors.As(err, &v):
		w.seen.Unrecord(ctx, key)
		w.violation(ctx, p, v.Field, err)
		return nil
	default:
		w.seen.Unrecord(ctx, key)
		return err
	}
}

func (w *batchWriter) violation(ctx context.Context, p model.Play, field string, err error) { //nolint:gocritic // hugeParam
	w.report.Violations++
	metrics.RecordSchemaViolation(field)
	w.log.Warn(ctx, "skipping row",
		logger.Int("line", p.Line),
		logger.String("game_id", p.GameID),
		logger.Int("event_num", p.Num),
		logger.Error(err),
	)
}

func (w *batchWriter) write(ctx context.Context, p model.Play) error { //nolint:gocritic // hugeParam
	game, err := w.game(ctx, p)
	if err != nil {
		return err
	}

	score := w.state.scores[p.GameID]
	if p.Score != "" {
		if score, err = parseScore(p.Score); err != nil {
			return &schema.Violation{Field: model.PropScoreHome, Reason: err.Error()}
		}
	}

	// Participants are resolved first so a bad player leaves no event behind.
	type performer struct {
		ref  schema.PlayerRef
		role model.Role
	}
	performers := make([]performer, 0, len(p.Players))
	for i, part := range p.Players {
		if part.Empty() {
			continue
		}
		ref, err := w.player(ctx, part)
		if err != nil {
			return err
		}
		performers = append(performers, performer{ref: ref, role: model.Roles[i]})
	}

	ev, err := w.graph.CreateEvent(ctx, game, schema.EventAttrs{
		Num:         p.Num,
		Type:        model.EventTypeFromMsg(p.MsgType, p.Description()),
		Period:      p.Period,
		SecondsLeft: p.SecondsLeft,
		Score:       score,
		HomeDesc:    p.HomeDesc,
		VisitDesc:   p.VisitDesc,
	})
	if err != nil {
		return err
	}
	w.state.scores[p.GameID] = score

	for _, pf := range performers {
		if err := w.graph.LinkPerformed(ctx, pf.ref, ev, pf.role); err != nil {
			return err
		}
	}
	return nil
}

func (w *batchWriter) game(ctx context.Context, p model.Play) (schema.GameRef, error) { //nolint:gocritic // hugeParam
	if ref, ok := w.state.games[p.GameID]; ok {
		return ref, nil
	}
	ref, err := w.graph.CreateGame(ctx, model.Game{ID: p.GameID, HomeTeam: p.HomeTeam, VisitorTeam: p.VisitorTeam})
	if err != nil {
		return schema.GameRef{}, err
	}
	w.state.games[p.GameID] = ref
	return ref, nil
}

func (w *batchWriter) player(ctx context.Context, part model.Participant) (schema.PlayerRef, error) {
	id := PlayerID(part)
	if ref, ok := w.state.players[id]; ok {
		return ref, nil
	}
	ref, err := w.graph.CreatePlayer(ctx, model.Player{ID: id, Name: part.Name})
	if err != nil {
		return schema.PlayerRef{}, fmt.Errorf("player %q: %w", part.Name, err)
	}
	w.state.players[id] = ref
	return ref, nil
}

// PlayerID returns the row's player id, or a slug of the name when the id is
// missing or zero.
func PlayerID(part model.Participant) string {
	if part.ID != "" && part.ID != "0" {
		return part.ID
	}
	return slug.Make(part.Name)
}
