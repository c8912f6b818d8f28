// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// LandmarkCount is the fixed number of points in a hand landmark frame.
const LandmarkCount = 21

// Handedness tags which hand produced a frame.
type Handedness string

// Recognized handedness values.
const (
	HandednessLeft  Handedness = "left"
	HandednessRight Handedness = "right"
)

// Valid reports whether the tag is one of the recognized values.
func (h Handedness) Valid() bool {
	return h == HandednessLeft || h == HandednessRight
}

// Point is a single 3-D hand landmark coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// LandmarkFrame is one captured gesture sample: exactly LandmarkCount
// ordered points plus a handedness tag and capture timestamp. The fixed-size
// array makes the length invariant unrepresentable to violate once a frame
// has been constructed; callers decoding wire payloads must check the slice
// length before conversion.
type LandmarkFrame struct {
	Points     [LandmarkCount]Point
	Handedness Handedness
	CapturedAt time.Time
}

// FrameFromSlice converts a decoded point slice into a LandmarkFrame,
// rejecting any slice whose length is not exactly LandmarkCount.
func FrameFromSlice(points []Point, handedness Handedness, capturedAt time.Time) (LandmarkFrame, error) {
	var f LandmarkFrame
	if len(points) != LandmarkCount {
		return f, fmt.Errorf("%w: got %d landmarks, want %d", ErrInvalidFrame, len(points), LandmarkCount)
	}
	if !handedness.Valid() {
		return f, fmt.Errorf("%w: unknown handedness %q", ErrInvalidFrame, handedness)
	}
	copy(f.Points[:], points)
	f.Handedness = handedness
	f.CapturedAt = capturedAt
	return f, nil
}

// ValidationRequest is one queued unit of work. RequestID doubles as the
// idempotency key for progress reconciliation.
type ValidationRequest struct {
	RequestID string
	UserID    string
	SignID    string
	ModuleID  string // dialect-module identifier
	Language  string
	Frame     LandmarkFrame
	CreatedAt time.Time
	Attempt   int // dispatch attempts consumed so far
}

// Deviation describes how one landmark differs from the expected pattern.
type Deviation struct {
	LandmarkIndex int     `json:"landmarkIndex"`
	Description   string  `json:"description"`
	Magnitude     float64 `json:"magnitude"`
}

// ValidationResult is the scorer's judgment for one request. Immutable
// after creation.
type ValidationResult struct {
	Correct    bool
	Confidence float64 // in [0,1]
	Deviations []Deviation
	TraceID    string // opaque scorer-provided identifier
}

// FeedbackKind distinguishes affirming from corrective feedback.
type FeedbackKind string

// Feedback kinds.
const (
	FeedbackPositive   FeedbackKind = "positive"
	FeedbackCorrective FeedbackKind = "corrective"
)

// FeedbackMessage is bilingual feedback derived deterministically from a
// ValidationResult. Not persisted.
type FeedbackMessage struct {
	Kind         FeedbackKind
	Text         string // requested language
	TextAlt      string // parallel text in the alternate language
	Instructions []string
}

// ProgressRecord tracks per (user, module, sign) learning progress. Mutated
// only by the progress reconciler.
type ProgressRecord struct {
	UserID             string    `json:"user_id"`
	ModuleID           string    `json:"module_id"`
	SignID             string    `json:"sign_id"`
	Attempts           int       `json:"attempts"`
	SuccessfulAttempts int       `json:"successful_attempts"`
	BestAccuracy       float64   `json:"best_accuracy"`
	LastAttempt        time.Time `json:"last_attempt"`
	Completed          bool      `json:"completed"`
}

// Outcome is the composed end-to-end answer for one request.
type Outcome struct {
	Result         ValidationResult
	Feedback       FeedbackMessage
	AudioRef       string // reference to synthesized audio, empty when unavailable
	AudioAvailable bool
	Progress       ProgressRecord
}

// Completion is the single resolution of a ValidationRequest: either an
// Outcome or a terminal pipeline error, never both.
type Completion struct {
	Outcome *Outcome
	Err     *PipelineError
}
