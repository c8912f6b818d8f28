// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"

	"github.com/sahajlabs/mudra/internal/domain/model"
)

// ProgressHandler handles progress lookups.
type ProgressHandler struct {
	deps Dependencies
}

// NewProgressHandler creates a new progress handler.
func NewProgressHandler(deps Dependencies) *ProgressHandler {
	return &ProgressHandler{deps: deps}
}

// HandleGetProgress handles GET /progress/{userId}/{moduleId}/{signId}
// requests.
func (h *ProgressHandler) HandleGetProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/progress/"), "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		writeError(w, http.StatusBadRequest, model.CodeInvalidInput,
			"path must be /progress/{userId}/{moduleId}/{signId}", false)
		return
	}

	rec, err := h.deps.Progress(r.Context(), parts[0], parts[1], parts[2])
	if err != nil {
		writeError(w, http.StatusNotFound, "progress_not_found",
			"no progress recorded for this user, module, and sign", false)
		return
	}
	writeJSON(w, http.StatusOK, progressToPayload(rec))
}
