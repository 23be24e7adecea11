package api

import (
	"net/http"

	"github.com/okian/clutch/internal/domain/synth"
)

type templatesResponse struct {
	Templates []synth.Template `json:"templates"`
}

// TemplatesHandler lists the question templates.
type TemplatesHandler struct {
	deps Dependencies
}

// NewTemplatesHandler creates a new templates handler.
func NewTemplatesHandler(deps Dependencies) *TemplatesHandler {
	return &TemplatesHandler{deps: deps}
}

// HandleTemplates handles GET /templates requests.
func (h *TemplatesHandler) HandleTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethod)
		return
	}
	writeJSON(w, http.StatusOK, templatesResponse{Templates: h.deps.Templates()})
}
