// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"

	"github.com/sahajlabs/mudra/internal/domain/model"
)

// CancelHandler handles request cancellation.
type CancelHandler struct {
	deps Dependencies
}

// NewCancelHandler creates a new cancel handler.
func NewCancelHandler(deps Dependencies) *CancelHandler {
	return &CancelHandler{deps: deps}
}

// HandleCancel handles DELETE /requests/{id} requests. Cancellation only
// succeeds while the request is still queued; a dispatched request runs
// to completion.
func (h *CancelHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}

	requestID := strings.TrimPrefix(r.URL.Path, "/requests/")
	if requestID == "" || strings.Contains(requestID, "/") {
		writeError(w, http.StatusBadRequest, model.CodeInvalidInput, "missing request id", false)
		return
	}

	if !h.deps.Cancel(r.Context(), requestID) {
		writeError(w, http.StatusNotFound, model.CodeRequestCanceled,
			"request not queued; it is unknown, already dispatched, or already resolved", false)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"requestId": requestID,
		"canceled":  true,
	})
}
