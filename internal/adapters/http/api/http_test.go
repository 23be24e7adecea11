package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/clutch/internal/adapters/http/api"
	"github.com/okian/clutch/internal/adapters/repository"
	service "github.com/okian/clutch/internal/app"
	"github.com/okian/clutch/internal/domain/model"
	"github.com/okian/clutch/internal/domain/narrate"
	"github.com/okian/clutch/internal/domain/query"
	"github.com/okian/clutch/internal/domain/ranking"
	"github.com/okian/clutch/internal/domain/synth"
	"github.com/okian/clutch/internal/domain/timeout"
	"github.com/okian/clutch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDependencies struct {
	answer service.Answer
	err    error
	got    service.AskRequest
}

func (m *mockDependencies) Ask(_ context.Context, req service.AskRequest) (service.Answer, error) {
	m.got = req
	m.answer.RequestID = "req-1"
	return m.answer, m.err
}

func (m *mockDependencies) Templates() []synth.Template {
	return []synth.Template{{Name: "clutch_scoring", Description: "Every clutch basket in the database."}}
}

func newMux(deps api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(&mockDependencies{})

		Convey("Then /healthz reports ok", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["status"], ShouldEqual, "ok")
		})

		Convey("Then /metrics serves the custom registry", func() {
			do(mux, http.MethodGet, "/healthz", "")
			w := do(mux, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "http_requests_total")
		})

		Convey("Then /templates lists the catalog", func() {
			w := do(mux, http.MethodGet, "/templates", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			tmpls := decode(w)["templates"].([]any)
			So(tmpls, ShouldHaveLength, 1)
			So(tmpls[0].(map[string]any)["name"], ShouldEqual, "clutch_scoring")
		})

		Convey("Then /templates rejects writes", func() {
			w := do(mux, http.MethodPost, "/templates", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestAskHandler(t *testing.T) {
	Convey("Given an ask handler", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When the pipeline answers", func() {
			deps.answer = service.Answer{
				Query: query.Query{Template: "player_clutch", Path: synth.PathTemplate, Params: map[string]any{"player": "Kerr"}},
				Rows: []model.ResultRow{{
					Game: "0049600088", Period: 4, SecLeft: 5, Scorer: "Steve Kerr",
					Score: model.Score{Home: 88, Visitor: 86}, Margin: 2, Lead: model.LeadHome,
				}},
				NarrationErr: narrate.ErrNarrationUnavailable,
			}
			w := do(mux, http.MethodPost, "/ask", `{"question":"Kerr clutch shots","narrate":true,"limit":5}`)

			Convey("Then the rows and metadata are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("X-Request-ID"), ShouldEqual, "req-1")
				body := decode(w)
				So(body["request_id"], ShouldEqual, "req-1")
				So(body["template"], ShouldEqual, "player_clutch")
				So(body["narration_error"], ShouldEqual, narrate.ErrNarrationUnavailable.Error())
				rows := body["rows"].([]any)
				So(rows, ShouldHaveLength, 1)
				So(rows[0].(map[string]any)["scorer"], ShouldEqual, "Steve Kerr")
				So(deps.got, ShouldResemble, service.AskRequest{Question: "Kerr clutch shots", Narrate: true, Limit: 5})
			})
		})

		Convey("When nothing matches the rows are an empty list", func() {
			w := do(mux, http.MethodPost, "/ask", `{"question":"clutch scoring"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["rows"], ShouldResemble, []any{})
		})

		Convey("When the body is invalid", func() {
			for _, body := range []string{``, `{`, `{"question":""}`, `{"question":"x","limit":-1}`, `{"question":"x","sql":"1=1"}`} {
				w := do(mux, http.MethodPost, "/ask", body)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["code"], ShouldEqual, "bad_request")
			}
		})

		Convey("When the method is wrong", func() {
			w := do(mux, http.MethodGet, "/ask", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("When no template matches", func() {
			deps.err = &synth.NoMatchError{
				Question: "capital of France",
				Nearest:  []synth.Suggestion{{Name: "clutch_scoring", Confidence: 0.2}},
			}
			w := do(mux, http.MethodPost, "/ask", `{"question":"capital of France"}`)

			Convey("Then suggestions come back with 422", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				body := decode(w)
				So(body["code"], ShouldEqual, "no_template_match")
				So(body["request_id"], ShouldEqual, "req-1")
				So(body["suggestions"], ShouldHaveLength, 1)
			})
		})

		Convey("When pipeline stages fail", func() {
			cases := []struct {
				err    error
				status int
				code   string
			}{
				{fmt.Errorf("%w: bad json", synth.ErrTranslationFailure), http.StatusUnprocessableEntity, "translation_failure"},
				{fmt.Errorf("store: %w", timeout.ErrTimeout), http.StatusGatewayTimeout, "timeout"},
				{fmt.Errorf("%w: %w", ranking.ErrExecution, errors.New("down")), http.StatusBadGateway, "execution_error"},
				{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
			}
			for _, c := range cases {
				deps.err = c.err
				w := do(mux, http.MethodPost, "/ask", `{"question":"clutch scoring"}`)
				So(w.Code, ShouldEqual, c.status)
				So(decode(w)["code"], ShouldEqual, c.code)
			}
		})
	})
}

func TestAskHandler_Service(t *testing.T) {
	Convey("Given the API over a seeded service", t, func() {
		csv := "GAME_ID,EVENTNUM,EVENTMSGTYPE,PERIOD,PCTIMESTRING,HOMEDESCRIPTION,NEUTRALDESCRIPTION,VISITORDESCRIPTION,SCORE,SCOREMARGIN," +
			"PLAYER1_ID,PLAYER1_NAME,PLAYER1_TEAM_ABBREVIATION,PLAYER2_ID,PLAYER2_NAME,PLAYER2_TEAM_ABBREVIATION,PLAYER3_ID,PLAYER3_NAME,PLAYER3_TEAM_ABBREVIATION\n" +
			"0049600088,490,1,4,0:05,Kerr 17' Jump Shot (9 PTS) (Jordan 4 AST),,,86 - 88,2,70,Steve Kerr,CHI,893,Michael Jordan,CHI,,,\n"
		svc, err := service.New(repository.NewMemStore(), service.WithLogger(logger.Nop()))
		So(err, ShouldBeNil)
		_, err = svc.Ingest(context.Background(), strings.NewReader(csv))
		So(err, ShouldBeNil)
		mux := newMux(svc)

		Convey("When asking a template question", func() {
			w := do(mux, http.MethodPost, "/ask", `{"question":"Who scored in the last 10 seconds?"}`)

			Convey("Then Kerr's shot is the answer", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["path"], ShouldEqual, synth.PathTemplate)
				rows := body["rows"].([]any)
				So(rows, ShouldHaveLength, 1)
				So(rows[0].(map[string]any)["lead"], ShouldEqual, "home")
			})
		})

		Convey("When asking an unanswerable question", func() {
			w := do(mux, http.MethodPost, "/ask", `{"question":"What is the capital of France?"}`)

			Convey("Then the service error maps to 422", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(decode(w)["code"], ShouldEqual, "no_template_match")
			})
		})
	})
}
