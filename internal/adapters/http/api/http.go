// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/clutch/internal/app"
	"github.com/okian/clutch/internal/domain/synth"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service.
type Dependencies interface {
	Ask(ctx context.Context, req service.AskRequest) (service.Answer, error)
	Templates() []synth.Template
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	askHandler       *AskHandler
	templatesHandler *TemplatesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		askHandler:       NewAskHandler(deps),
		templatesHandler: NewTemplatesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/ask", MetricsMiddleware(s.askHandler.HandleAsk, "ask"))
	mux.HandleFunc("/templates", MetricsMiddleware(s.templatesHandler.HandleTemplates, "templates"))
}

type errorResponse struct {
	Code        string             `json:"code"`
	Message     string             `json:"message"`
	RequestID   string             `json:"request_id,omitempty"`
	Suggestions []synth.Suggestion `json:"suggestions,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
