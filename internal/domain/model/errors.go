package model

import (
	"errors"
	"fmt"
)

// Sentinel kinds for domain errors.
var (
	ErrInvalidFrame = errors.New("invalid landmark frame")
	ErrUnknownSign  = errors.New("unknown sign identifier")
)

// Machine-readable error codes surfaced to callers.
const (
	CodeInvalidInput       = "invalid_input"
	CodeUnknownSign        = "unknown_sign"
	CodeScorerUnavailable  = "scorer_unavailable"
	CodeScorerTimeout      = "scorer_timeout"
	CodeTerminalFailure    = "terminal_failure"
	CodeRequestCanceled    = "request_canceled"
	CodeRequestSuperseded  = "request_superseded"
	CodeResultPending      = "result_pending"
	CodeFeedbackConfig     = "feedback_config"
	CodeQueueClosed        = "queue_closed"
	CodeSynthesisFailure   = "synthesis_failure"
	CodeProgressPersist    = "progress_persist_failure"
)

// PipelineError is the surfaced error shape for the validation pipeline:
// a machine-readable code, a user-facing message, and a retryable flag.
type PipelineError struct {
	Code      string
	Message   string
	Retryable bool
	Err       error // wrapped cause, may be nil
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause for errors.Is/As.
func (e *PipelineError) Unwrap() error { return e.Err }

// NewPipelineError builds a PipelineError wrapping cause (cause may be nil).
func NewPipelineError(code, message string, retryable bool, cause error) *PipelineError {
	return &PipelineError{Code: code, Message: message, Retryable: retryable, Err: cause}
}

// AsPipelineError extracts a PipelineError from err, or wraps err as a
// non-retryable terminal failure when it is of another type.
func AsPipelineError(err error) *PipelineError {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe
	}
	return NewPipelineError(CodeTerminalFailure, "validation failed", false, err)
}
