package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	service "github.com/okian/clutch/internal/app"
	"github.com/okian/clutch/internal/domain/model"
	"github.com/okian/clutch/internal/domain/ranking"
	"github.com/okian/clutch/internal/domain/synth"
	"github.com/okian/clutch/internal/domain/timeout"
)

const (
	maxAskBody = 64 << 10
	maxLimit   = 1000
)

// askRequest mirrors the OpenAPI schema for POST /ask.
type askRequest struct {
	Question string `json:"question"`
	Narrate  bool   `json:"narrate"`
	Limit    int    `json:"limit"`
}

func (a askRequest) validate() error {
	switch {
	case strings.TrimSpace(a.Question) == "":
		return errors.New("missing question")
	case a.Limit < 0 || a.Limit > maxLimit:
		return fmt.Errorf("limit must be within [0,%d]", maxLimit)
	}
	return nil
}

type askResponse struct {
	RequestID      string            `json:"request_id"`
	Template       string            `json:"template"`
	Path           string            `json:"path"`
	Params         map[string]any    `json:"params,omitempty"`
	Rows           []model.ResultRow `json:"rows"`
	Narration      string            `json:"narration,omitempty"`
	NarrationError string            `json:"narration_error,omitempty"`
}

// AskHandler answers questions.
type AskHandler struct {
	deps Dependencies
}

// NewAskHandler creates a new ask handler.
func NewAskHandler(deps Dependencies) *AskHandler {
	return &AskHandler{deps: deps}
}

// HandleAsk handles POST /ask requests.
func (h *AskHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethod)
		return
	}
	var req askRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAskBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	ans, err := h.deps.Ask(r.Context(), service.AskRequest{
		Question: req.Question,
		Narrate:  req.Narrate,
		Limit:    req.Limit,
	})
	if ans.RequestID != "" {
		w.Header().Set("X-Request-ID", ans.RequestID)
	}
	if err != nil {
		writeAskError(w, ans.RequestID, err)
		return
	}

	resp := askResponse{
		RequestID: ans.RequestID,
		Template:  ans.Query.Template,
		Path:      ans.Query.Path,
		Params:    ans.Query.Params,
		Rows:      ans.Rows,
		Narration: ans.Narration,
	}
	if resp.Rows == nil {
		resp.Rows = []model.ResultRow{}
	}
	if ans.NarrationErr != nil {
		resp.NarrationError = ans.NarrationErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeAskError maps pipeline failures onto status codes.
func writeAskError(w http.ResponseWriter, requestID string, err error) {
	resp := errorResponse{Message: err.Error(), RequestID: requestID}
	status := http.StatusInternalServerError
	var nm *synth.NoMatchError
	switch {
	case errors.Is(err, synth.ErrEmptyQuestion):
		status, resp.Code = http.StatusBadRequest, "bad_request"
	case errors.As(err, &nm):
		status, resp.Code, resp.Suggestions = http.StatusUnprocessableEntity, "no_template_match", nm.Nearest
	case errors.Is(err, synth.ErrNoTemplateMatch):
		status, resp.Code = http.StatusUnprocessableEntity, "no_template_match"
	case errors.Is(err, timeout.ErrTimeout):
		status, resp.Code = http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, synth.ErrTranslationFailure):
		status, resp.Code = http.StatusUnprocessableEntity, "translation_failure"
	case errors.Is(err, ranking.ErrExecution):
		status, resp.Code = http.StatusBadGateway, "execution_error"
	default:
		resp.Code = "internal_error"
	}
	writeJSON(w, status, resp)
}
