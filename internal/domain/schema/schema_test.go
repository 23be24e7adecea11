package schema_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/clutch/internal/domain/clutch"
	"github.com/okian/clutch/internal/domain/model"
	"github.com/okian/clutch/internal/domain/schema"
	. "github.com/smartystreets/goconvey/convey"
)

type recordingWriter struct {
	mu        sync.Mutex
	games     []model.Game
	players   []model.Player
	events    []model.Event
	performed []string
	fail      error
}

func (w *recordingWriter) PutGame(_ context.Context, g model.Game) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.games = append(w.games, g)
	return w.fail
}

func (w *recordingWriter) PutPlayer(_ context.Context, p model.Player) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.players = append(w.players, p)
	return w.fail
}

func (w *recordingWriter) PutEvent(_ context.Context, ev model.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, ev)
	return w.fail
}

func (w *recordingWriter) PutPerformed(_ context.Context, playerID, eventID string, role model.Role) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail != nil {
		return w.fail
	}
	w.performed = append(w.performed, playerID+"|"+eventID+"|"+string(role))
	return nil
}

func isViolation(err error, field string) bool {
	var v *schema.Violation
	return errors.Is(err, schema.ErrSchemaViolation) && errors.As(err, &v) && v.Field == field
}

func TestCreateEvent(t *testing.T) {
	Convey("Given a graph over a recording writer", t, func() {
		ctx := context.Background()
		w := &recordingWriter{}
		g := schema.New(w)
		game, err := g.CreateGame(ctx, model.Game{ID: "0049600088", HomeTeam: "UTA", VisitorTeam: "CHI"})
		So(err, ShouldBeNil)

		Convey("When creating a made shot with five seconds left in the fourth", func() {
			desc := "Kerr 17' Jump Shot (9 PTS)"
			ref, err := g.CreateEvent(ctx, game, schema.EventAttrs{
				Num: 466, Type: model.EventShotMade, Period: 4, SecondsLeft: 5,
				Score: model.Score{Home: 86, Visitor: 88}, VisitDesc: &desc,
			})

			Convey("Then the stored event is classified and carries the margin", func() {
				So(err, ShouldBeNil)
				So(ref.ID(), ShouldEqual, "0049600088-466")
				So(w.events, ShouldHaveLength, 1)
				stored := w.events[0]
				So(stored.IsClutch, ShouldBeTrue)
				So(stored.Margin, ShouldEqual, -2)
				So(stored.Margin, ShouldEqual, stored.Score.Home-stored.Score.Visitor)
				So(ref.Event(), ShouldResemble, stored)
			})
		})

		Convey("When the clock is outside the period", func() {
			_, errNeg := g.CreateEvent(ctx, game, schema.EventAttrs{Num: 1, Period: 4, SecondsLeft: -1})
			_, errReg := g.CreateEvent(ctx, game, schema.EventAttrs{Num: 2, Period: 4, SecondsLeft: 721})
			_, errOT := g.CreateEvent(ctx, game, schema.EventAttrs{Num: 3, Period: 5, SecondsLeft: 301})
			_, errValid := g.CreateEvent(ctx, game, schema.EventAttrs{Num: 4, Period: 5, SecondsLeft: 300})

			Convey("Then the write is rejected before reaching the store", func() {
				So(isViolation(errNeg, model.PropSecondsLeft), ShouldBeTrue)
				So(isViolation(errReg, model.PropSecondsLeft), ShouldBeTrue)
				So(isViolation(errOT, model.PropSecondsLeft), ShouldBeTrue)
				So(errValid, ShouldBeNil)
				So(w.events, ShouldHaveLength, 1)
			})
		})

		Convey("When required attributes are missing", func() {
			_, errPeriod := g.CreateEvent(ctx, game, schema.EventAttrs{Num: 1})
			_, errGame := g.CreateEvent(ctx, schema.GameRef{}, schema.EventAttrs{Num: 1, Period: 1})
			_, errID := g.CreateGame(ctx, model.Game{})
			_, errName := g.CreatePlayer(ctx, model.Player{ID: "893"})

			Convey("Then each names the offending field", func() {
				So(isViolation(errPeriod, model.PropPeriod), ShouldBeTrue)
				So(isViolation(errGame, model.PropGameID), ShouldBeTrue)
				So(isViolation(errID, model.PropGameID), ShouldBeTrue)
				So(isViolation(errName, model.PropName), ShouldBeTrue)
			})
		})

		Convey("When the overtime length is configured", func() {
			g := schema.New(w, schema.WithOvertimeSeconds(240), schema.WithPeriodSeconds(600))

			Convey("Then period maxima follow it", func() {
				So(g.MaxSecondsLeft(4), ShouldEqual, 600)
				So(g.MaxSecondsLeft(5), ShouldEqual, 240)
			})
		})

		Convey("When a custom classifier is configured", func() {
			g := schema.New(w, schema.WithClassifier(clutch.New(clutch.WithWindowSeconds(60))))
			ref, err := g.CreateEvent(ctx, game, schema.EventAttrs{
				Num: 400, Type: model.EventShotMade, Period: 4, SecondsLeft: 50,
			})

			Convey("Then it decides the clutch flag", func() {
				So(err, ShouldBeNil)
				So(ref.Event().IsClutch, ShouldBeTrue)
			})
		})

		Convey("When the writer fails", func() {
			w.fail = errors.New("down")
			_, err := g.CreateEvent(ctx, game, schema.EventAttrs{Num: 9, Period: 1, SecondsLeft: 700})

			Convey("Then the error is wrapped, not a violation", func() {
				So(errors.Is(err, w.fail), ShouldBeTrue)
				So(errors.Is(err, schema.ErrSchemaViolation), ShouldBeFalse)
			})
		})
	})
}

func TestLinkPerformed(t *testing.T) {
	Convey("Given an event and two players", t, func() {
		ctx := context.Background()
		w := &recordingWriter{}
		g := schema.New(w)
		game, _ := g.CreateGame(ctx, model.Game{ID: "0049600083"})
		ev, _ := g.CreateEvent(ctx, game, schema.EventAttrs{Num: 473, Type: model.EventShotMade, Period: 4, SecondsLeft: 6})
		jordan, _ := g.CreatePlayer(ctx, model.Player{ID: "893", Name: "Michael Jordan"})
		russell, _ := g.CreatePlayer(ctx, model.Player{ID: "1056", Name: "Bryon Russell"})

		Convey("When linking each role once", func() {
			So(g.LinkPerformed(ctx, jordan, ev, model.RolePlayer1), ShouldBeNil)
			So(g.LinkPerformed(ctx, russell, ev, model.RolePlayer2), ShouldBeNil)

			Convey("Then both edges are written", func() {
				So(w.performed, ShouldResemble, []string{
					"893|0049600083-473|PLAYER1_ID",
					"1056|0049600083-473|PLAYER2_ID",
				})
			})

			Convey("Then relinking the same player is a no-op", func() {
				So(g.LinkPerformed(ctx, jordan, ev, model.RolePlayer1), ShouldBeNil)
				So(w.performed, ShouldHaveLength, 2)
			})

			Convey("Then a second player in an occupied role is rejected", func() {
				err := g.LinkPerformed(ctx, russell, ev, model.RolePlayer1)
				So(isViolation(err, model.PropRole), ShouldBeTrue)
			})
		})

		Convey("When the role is outside the enum", func() {
			err := g.LinkPerformed(ctx, jordan, ev, model.Role("PLAYER4_ID"))

			Convey("Then it is a violation", func() {
				So(isViolation(err, model.PropRole), ShouldBeTrue)
			})
		})

		Convey("When the writer rejects the edge", func() {
			w.fail = errors.New("down")
			So(g.LinkPerformed(ctx, jordan, ev, model.RolePlayer3), ShouldNotBeNil)
			w.fail = nil

			Convey("Then the role stays free for a retry", func() {
				So(g.LinkPerformed(ctx, jordan, ev, model.RolePlayer3), ShouldBeNil)
			})
		})
	})
}
