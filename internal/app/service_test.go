package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	service "github.com/okian/clutch/internal/app"
	"github.com/okian/clutch/internal/adapters/llm"
	"github.com/okian/clutch/internal/adapters/repository"
	"github.com/okian/clutch/internal/config"
	"github.com/okian/clutch/internal/domain/model"
	"github.com/okian/clutch/internal/domain/narrate"
	"github.com/okian/clutch/internal/domain/prompt"
	"github.com/okian/clutch/internal/domain/synth"
	"github.com/okian/clutch/internal/domain/timeout"
	"github.com/okian/clutch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const finals = "GAME_ID,EVENTNUM,EVENTMSGTYPE,PERIOD,PCTIMESTRING,HOMEDESCRIPTION,NEUTRALDESCRIPTION,VISITORDESCRIPTION,SCORE,SCOREMARGIN," +
	"PLAYER1_ID,PLAYER1_NAME,PLAYER1_TEAM_ABBREVIATION,PLAYER2_ID,PLAYER2_NAME,PLAYER2_TEAM_ABBREVIATION,PLAYER3_ID,PLAYER3_NAME,PLAYER3_TEAM_ABBREVIATION\n" +
	"0049600083,560,1,4,0:00,Jordan 18' Jump Shot (31 PTS),,,82 - 84,2,893,Michael Jordan,CHI,,,,,,\n" +
	"0049600083,100,1,2,0:10,Jordan 10' Jump Shot (12 PTS),,,40 - 42,2,893,Michael Jordan,CHI,,,,,,\n" +
	"0049600087,470,1,4,0:06,,,Ostertag Dunk (4 PTS),90 - 88,-2,1076,Greg Ostertag,UTA,,,,,,\n" +
	"0049600087,475,2,4,0:03,,,MISS Malone 15' Jump Shot,,,252,Karl Malone,UTA,,,,,,\n" +
	"0049600088,490,1,4,0:05,Kerr 17' Jump Shot (9 PTS) (Jordan 4 AST),,,86 - 88,2,70,Steve Kerr,CHI,893,Michael Jordan,CHI,,,\n"

func newService(opts ...service.Option) *service.Service {
	svc, err := service.New(repository.NewMemStore(), append([]service.Option{service.WithLogger(logger.Nop())}, opts...)...)
	So(err, ShouldBeNil)
	report, err := svc.Ingest(context.Background(), strings.NewReader(finals))
	So(err, ShouldBeNil)
	So(report.Events, ShouldEqual, 5)
	return svc
}

func scorers(rows []model.ResultRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Scorer
	}
	return out
}

func TestService_New(t *testing.T) {
	Convey("Given no store", t, func() {
		_, err := service.New(nil)

		Convey("Then construction fails", func() {
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a memory store", t, func() {
		svc, err := service.New(repository.NewMemStore())

		Convey("Then the template catalog is available", func() {
			So(err, ShouldBeNil)
			names := make([]string, 0)
			for _, tmpl := range svc.Templates() {
				names = append(names, tmpl.Name)
			}
			So(names, ShouldContain, "clutch_scoring")
			So(names, ShouldContain, "player_clutch")
		})

		Convey("Then Close is idempotent", func() {
			So(svc.Close(context.Background()), ShouldBeNil)
			So(svc.Close(context.Background()), ShouldBeNil)
		})
	})
}

func TestService_Ask(t *testing.T) {
	ctx := context.Background()

	Convey("Given the 1997 Finals clutch plays", t, func() {
		svc := newService()

		Convey("When asking who scored late in two games", func() {
			ans, err := svc.Ask(ctx, service.AskRequest{
				Question: "Who scored in the final 30 seconds of games 49600083 and 49600087?",
			})

			Convey("Then rows come back ordered by game", func() {
				So(err, ShouldBeNil)
				So(ans.RequestID, ShouldNotBeEmpty)
				So(ans.Query.Template, ShouldEqual, "game_clutch")
				So(ans.Query.Path, ShouldEqual, synth.PathTemplate)
				So(scorers(ans.Rows), ShouldResemble, []string{"Michael Jordan", "Greg Ostertag"})
				So(ans.Rows[0].Score.Home, ShouldEqual, 84)
				So(ans.Rows[0].Lead, ShouldEqual, model.LeadHome)
				So(ans.Rows[1].Lead, ShouldEqual, model.LeadVisitor)
			})
		})

		Convey("When asking about one player", func() {
			ans, err := svc.Ask(ctx, service.AskRequest{
				Question: "Clutch baskets by Steve Kerr in the last 10 seconds of game 0049600088",
			})

			Convey("Then only the scorer is returned, never the assist", func() {
				So(err, ShouldBeNil)
				So(scorers(ans.Rows), ShouldResemble, []string{"Steve Kerr"})
				So(ans.Rows[0].Role, ShouldEqual, model.RolePlayer1)
			})
		})

		Convey("When asking across the whole database", func() {
			ans, err := svc.Ask(ctx, service.AskRequest{Question: "Clutch scoring in final 30 seconds"})

			Convey("Then every clutch basket is returned once", func() {
				So(err, ShouldBeNil)
				So(scorers(ans.Rows), ShouldResemble, []string{"Michael Jordan", "Greg Ostertag", "Steve Kerr"})
			})
		})

		Convey("When the request caps the rows", func() {
			ans, err := svc.Ask(ctx, service.AskRequest{Question: "Clutch scoring in final 30 seconds", Limit: 1})

			Convey("Then the cap wins over the template", func() {
				So(err, ShouldBeNil)
				So(ans.Rows, ShouldHaveLength, 1)
				So(ans.Query.Limit, ShouldEqual, 1)
			})
		})

		Convey("When no template matches", func() {
			_, err := svc.Ask(ctx, service.AskRequest{Question: "What is the capital of France?"})

			Convey("Then the nearest templates travel with the error", func() {
				So(errors.Is(err, synth.ErrNoTemplateMatch), ShouldBeTrue)
				var nm *synth.NoMatchError
				So(errors.As(err, &nm), ShouldBeTrue)
			})
		})

		Convey("When the question is blank", func() {
			_, err := svc.Ask(ctx, service.AskRequest{Question: "   "})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, synth.ErrEmptyQuestion), ShouldBeTrue)
			})
		})

		Convey("When narration is requested without a model", func() {
			ans, err := svc.Ask(ctx, service.AskRequest{Question: "Clutch scoring in final 30 seconds", Narrate: true})

			Convey("Then rows survive and the narration error is reported", func() {
				So(err, ShouldBeNil)
				So(ans.Rows, ShouldHaveLength, 3)
				So(ans.Narration, ShouldBeEmpty)
				So(errors.Is(ans.NarrationErr, narrate.ErrNarrationUnavailable), ShouldBeTrue)
			})
		})
	})

	Convey("Given a service with a language model", t, func() {
		lm := llm.NewStatic("Jordan hit the shot at the buzzer.")
		svc := newService(service.WithLanguageModel(lm))

		Convey("When narration is requested", func() {
			ans, err := svc.Ask(ctx, service.AskRequest{Question: "Clutch scoring in final 30 seconds", Narrate: true})

			Convey("Then the model narrates the rows", func() {
				So(err, ShouldBeNil)
				So(ans.Narration, ShouldEqual, "Jordan hit the shot at the buzzer.")
				So(ans.NarrationErr, ShouldBeNil)
				So(lm.Calls(), ShouldHaveLength, 1)
			})
		})

		Convey("When narration is not requested", func() {
			_, err := svc.Ask(ctx, service.AskRequest{Question: "Clutch scoring in final 30 seconds"})

			Convey("Then the model is not consulted", func() {
				So(err, ShouldBeNil)
				So(lm.Calls(), ShouldBeEmpty)
			})
		})

		Convey("When the question matches no template and assistance is off", func() {
			_, err := svc.Ask(ctx, service.AskRequest{Question: "Tell me about Karl Malone under pressure"})

			Convey("Then the model is still not consulted", func() {
				So(errors.Is(err, synth.ErrNoTemplateMatch), ShouldBeTrue)
				So(lm.Calls(), ShouldBeEmpty)
			})
		})
	})

	Convey("Given assisted synthesis", t, func() {
		reply := `{"template": "player_clutch", "params": {"player": "Ostertag"}}`
		lm := llm.NewStatic(reply)
		svc := newService(service.WithLanguageModel(lm), service.WithAssisted(true))

		Convey("When the template path matches", func() {
			ans, err := svc.Ask(ctx, service.AskRequest{Question: "Clutch scoring in final 30 seconds"})

			Convey("Then the answer equals the template-only answer", func() {
				So(err, ShouldBeNil)
				So(ans.Query.Path, ShouldEqual, synth.PathTemplate)
				So(lm.Calls(), ShouldBeEmpty)
			})
		})

		Convey("When only the model can translate", func() {
			ans, err := svc.Ask(ctx, service.AskRequest{Question: "Tell me about Greg Ostertag under pressure"})

			Convey("Then the validated translation runs", func() {
				So(err, ShouldBeNil)
				So(ans.Query.Path, ShouldEqual, synth.PathAssisted)
				So(scorers(ans.Rows), ShouldResemble, []string{"Greg Ostertag"})
			})
		})

		Convey("When the model outlives its deadline", func() {
			slow := prompt.CompleterFunc(func(ctx context.Context, _ prompt.Prompt) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			})
			svc := newService(
				service.WithLanguageModel(slow),
				service.WithAssisted(true),
				service.WithTimeouts(time.Second, 10*time.Millisecond, time.Second),
			)
			_, err := svc.Ask(ctx, service.AskRequest{Question: "Tell me about Greg Ostertag under pressure"})

			Convey("Then the question times out", func() {
				So(errors.Is(err, timeout.ErrTimeout), ShouldBeTrue)
			})
		})
	})
}

func TestService_Ingest(t *testing.T) {
	Convey("Given an ingested season", t, func() {
		svc := newService()

		Convey("When the same file is ingested again", func() {
			report, err := svc.Ingest(context.Background(), strings.NewReader(finals))

			Convey("Then every row is a duplicate", func() {
				So(err, ShouldBeNil)
				So(report.Rows, ShouldEqual, 5)
				So(report.Duplicates, ShouldEqual, 5)
				So(report.Events, ShouldEqual, 0)
			})
		})

		Convey("When the file does not exist", func() {
			_, err := svc.IngestFile(context.Background(), "/nonexistent/pbp.csv")

			Convey("Then the read fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()

	Convey("Given the default configuration", t, func() {
		cfg := config.New()

		Convey("When wiring the service", func() {
			svc, err := service.NewFromConfig(ctx, cfg, logger.Nop())

			Convey("Then a memory-backed service without a model is returned", func() {
				So(err, ShouldBeNil)
				So(svc, ShouldNotBeNil)
				So(svc.Close(ctx), ShouldBeNil)
			})
		})

		Convey("When the store is sqlite", func() {
			cfg.Store = config.StoreSQLite
			cfg.SQLitePath = ":memory:"
			svc, err := service.NewFromConfig(ctx, cfg, logger.Nop())
			So(err, ShouldBeNil)
			defer svc.Close(ctx)
			_, err = svc.Ingest(ctx, strings.NewReader(finals))
			So(err, ShouldBeNil)
			ans, err := svc.Ask(ctx, service.AskRequest{Question: "Clutch scoring in final 30 seconds"})

			Convey("Then answers match the memory store", func() {
				So(err, ShouldBeNil)
				So(scorers(ans.Rows), ShouldResemble, []string{"Michael Jordan", "Greg Ostertag", "Steve Kerr"})
			})
		})

		Convey("When the store is unknown", func() {
			cfg.Store = "redis"
			_, err := service.NewFromConfig(ctx, cfg, logger.Nop())

			Convey("Then configuration is rejected", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When the provider is unknown and a key is set", func() {
			cfg.LLMAPIKey = "sk-test"
			cfg.LLMProvider = "acme"
			_, err := service.NewFromConfig(ctx, cfg, logger.Nop())

			Convey("Then wiring fails", func() {
				So(errors.Is(err, llm.ErrUnknownProvider), ShouldBeTrue)
			})
		})
	})
}
