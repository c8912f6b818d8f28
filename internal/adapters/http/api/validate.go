// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sahajlabs/mudra/internal/domain/model"
)

// ValidateHandler handles gesture validation requests.
type ValidateHandler struct {
	deps        Dependencies
	waitTimeout time.Duration
}

// NewValidateHandler creates a new validate handler.
func NewValidateHandler(deps Dependencies, waitTimeout time.Duration) *ValidateHandler {
	return &ValidateHandler{deps: deps, waitTimeout: waitTimeout}
}

// HandleValidate handles POST /validate requests. The handler submits the
// frame into the pipeline and waits a bounded time for the resolution;
// when the pipeline is slower than the wait budget it answers with a
// retryable pending response instead of holding the connection open.
func (h *ValidateHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.CodeInvalidInput, "invalid JSON body: "+err.Error(), false)
		return
	}
	sub, err := req.toSubmission()
	if err != nil {
		writeError(w, http.StatusBadRequest, model.CodeInvalidInput, err.Error(), false)
		return
	}

	requestID, done, err := h.deps.Submit(r.Context(), sub)
	if err != nil {
		pe := model.AsPipelineError(err)
		writePipelineError(w, "", pe)
		return
	}

	select {
	case c := <-done:
		if c.Err != nil {
			writePipelineError(w, requestID, c.Err)
			return
		}
		writeJSON(w, http.StatusOK, outcomeToResponse(requestID, c.Outcome))
	case <-time.After(h.waitTimeout):
		// The request stays queued; the caller can retry or poll progress.
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Code:      model.CodeResultPending,
			Message:   "validation still in progress, retry shortly",
			Retryable: true,
			RequestID: requestID,
		})
	case <-r.Context().Done():
		// Client went away; the pipeline still resolves and reconciles.
	}
}

// toSubmission validates the wire payload and converts it to the pipeline
// submission shape.
func (v validateRequest) toSubmission() (Submission, error) {
	switch {
	case strings.TrimSpace(v.UserID) == "":
		return Submission{}, errors.New("missing userId")
	case strings.TrimSpace(v.SignID) == "":
		return Submission{}, errors.New("missing signId")
	case strings.TrimSpace(v.DialectModule) == "":
		return Submission{}, errors.New("missing dialectModule")
	case strings.TrimSpace(v.Language) == "":
		return Submission{}, errors.New("missing language")
	case strings.TrimSpace(v.Coordinates.Timestamp) == "":
		return Submission{}, errors.New("missing coordinates.timestamp")
	}

	capturedAt, err := time.Parse(time.RFC3339, v.Coordinates.Timestamp)
	if err != nil {
		return Submission{}, errors.New("invalid coordinates.timestamp; must be RFC3339")
	}

	points := make([]model.Point, len(v.Coordinates.Landmarks))
	for i, lm := range v.Coordinates.Landmarks {
		points[i] = model.Point{X: lm.X, Y: lm.Y, Z: lm.Z}
	}
	frame, err := model.FrameFromSlice(points, model.Handedness(v.Coordinates.Handedness), capturedAt)
	if err != nil {
		return Submission{}, fmt.Errorf("invalid coordinates: %w", err)
	}

	return Submission{
		UserID:   v.UserID,
		SignID:   v.SignID,
		ModuleID: v.DialectModule,
		Language: v.Language,
		Frame:    frame,
	}, nil
}
