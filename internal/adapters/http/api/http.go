// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	service "github.com/sahajlabs/mudra/internal/app"
	"github.com/sahajlabs/mudra/internal/domain/model"
)

// Submission mirrors the pipeline submission shape.
type Submission = service.Submission

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit enqueues a validation attempt and returns the request id plus
	// the channel delivering its single resolution.
	Submit(ctx context.Context, sub Submission) (string, <-chan model.Completion, error)

	// Cancel removes a still-queued request. Returns false when the
	// request is unknown or already dispatched.
	Cancel(ctx context.Context, requestID string) bool

	// Progress returns the persisted record for (user, module, sign).
	Progress(ctx context.Context, userID, moduleID, signID string) (model.ProgressRecord, error)
}

// defaultWaitTimeout bounds how long POST /validate blocks for a result
// before answering with a retryable pending response.
const defaultWaitTimeout = 5 * time.Second

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithRequestWaitTimeout sets how long the validate endpoint waits for a
// queued request to resolve.
func WithRequestWaitTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.waitTimeout = d
		}
	}
}

// Server wires HTTP routes for the validation API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	validateHandler *ValidateHandler
	cancelHandler   *CancelHandler
	progressHandler *ProgressHandler

	waitTimeout time.Duration
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		cancelHandler:   NewCancelHandler(deps),
		progressHandler: NewProgressHandler(deps),
		waitTimeout:     defaultWaitTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.validateHandler = NewValidateHandler(deps, s.waitTimeout)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.healthHandler.HandleHealth, "metrics"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/validate", MetricsMiddleware(s.validateHandler.HandleValidate, "validate"))
	mux.HandleFunc("/requests/", MetricsMiddleware(s.cancelHandler.HandleCancel, "requests"))
	mux.HandleFunc("/progress/", MetricsMiddleware(s.progressHandler.HandleGetProgress, "progress"))
}

// landmarkPayload mirrors the OpenAPI schema for one hand landmark.
type landmarkPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// coordinatesPayload mirrors the captured-frame wire shape.
type coordinatesPayload struct {
	Landmarks  []landmarkPayload `json:"landmarks"`
	Handedness string            `json:"handedness"`
	Timestamp  string            `json:"timestamp"`
}

// validateRequest mirrors the OpenAPI schema for POST /validate.
type validateRequest struct {
	UserID        string             `json:"userId"`
	SignID        string             `json:"signId"`
	DialectModule string             `json:"dialectModule"`
	Language      string             `json:"language"`
	Coordinates   coordinatesPayload `json:"coordinates"`
}

// feedbackPayload is the bilingual feedback wire shape.
type feedbackPayload struct {
	Text         string   `json:"text"`
	TextAlt      string   `json:"textAlt"`
	Type         string   `json:"type"`
	Instructions []string `json:"instructions"`
}

// deviationPayload mirrors one reported landmark deviation.
type deviationPayload struct {
	LandmarkIndex int     `json:"landmarkIndex"`
	Description   string  `json:"description"`
	Magnitude     float64 `json:"magnitude"`
}

// progressPayload mirrors a persisted progress record.
type progressPayload struct {
	UserID             string    `json:"userId"`
	ModuleID           string    `json:"moduleId"`
	SignID             string    `json:"signId"`
	Attempts           int       `json:"attempts"`
	SuccessfulAttempts int       `json:"successfulAttempts"`
	BestAccuracy       float64   `json:"bestAccuracy"`
	LastAttempt        time.Time `json:"lastAttempt"`
	Completed          bool      `json:"completed"`
}

// validateResponse mirrors the OpenAPI schema for a resolved validation.
type validateResponse struct {
	RequestID      string             `json:"requestId"`
	IsCorrect      bool               `json:"isCorrect"`
	Confidence     float64            `json:"confidence"`
	Feedback       feedbackPayload    `json:"feedback"`
	AudioAvailable bool               `json:"audioAvailable"`
	AudioRef       string             `json:"audioRef,omitempty"`
	Deviations     []deviationPayload `json:"deviations"`
	Progress       progressPayload    `json:"progress"`
}

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	RequestID string `json:"requestId,omitempty"`
}

func progressToPayload(rec model.ProgressRecord) progressPayload {
	return progressPayload{
		UserID:             rec.UserID,
		ModuleID:           rec.ModuleID,
		SignID:             rec.SignID,
		Attempts:           rec.Attempts,
		SuccessfulAttempts: rec.SuccessfulAttempts,
		BestAccuracy:       rec.BestAccuracy,
		LastAttempt:        rec.LastAttempt,
		Completed:          rec.Completed,
	}
}

func outcomeToResponse(requestID string, o *model.Outcome) validateResponse {
	deviations := make([]deviationPayload, 0, len(o.Result.Deviations))
	for _, d := range o.Result.Deviations {
		deviations = append(deviations, deviationPayload{
			LandmarkIndex: d.LandmarkIndex,
			Description:   d.Description,
			Magnitude:     d.Magnitude,
		})
	}
	return validateResponse{
		RequestID:  requestID,
		IsCorrect:  o.Result.Correct,
		Confidence: o.Result.Confidence,
		Feedback: feedbackPayload{
			Text:         o.Feedback.Text,
			TextAlt:      o.Feedback.TextAlt,
			Type:         string(o.Feedback.Kind),
			Instructions: o.Feedback.Instructions,
		},
		AudioAvailable: o.AudioAvailable,
		AudioRef:       o.AudioRef,
		Deviations:     deviations,
		Progress:       progressToPayload(o.Progress),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, retryable bool) {
	if message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: message, Retryable: retryable})
}

// writePipelineError maps a PipelineError to its HTTP representation.
func writePipelineError(w http.ResponseWriter, requestID string, pe *model.PipelineError) {
	writeJSON(w, statusForCode(pe.Code), errorResponse{
		Code:      pe.Code,
		Message:   pe.Message,
		Retryable: pe.Retryable,
		RequestID: requestID,
	})
}

// statusForCode maps pipeline error codes to HTTP status codes.
func statusForCode(code string) int {
	switch code {
	case model.CodeInvalidInput:
		return http.StatusBadRequest
	case model.CodeUnknownSign:
		return http.StatusNotFound
	case model.CodeRequestCanceled, model.CodeRequestSuperseded:
		return http.StatusConflict
	case model.CodeResultPending, model.CodeQueueClosed, model.CodeProgressPersist:
		return http.StatusServiceUnavailable
	case model.CodeScorerUnavailable, model.CodeScorerTimeout, model.CodeTerminalFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
