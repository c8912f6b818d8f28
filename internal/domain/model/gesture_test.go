package model

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestFrameFromSlice(t *testing.T) {
	points := make([]Point, LandmarkCount)
	for i := range points {
		points[i] = Point{X: float64(i) * 0.03125, Y: 0.5}
	}
	at := time.Now()

	f, err := FrameFromSlice(points, HandednessRight, at)
	if err != nil {
		t.Fatalf("valid frame rejected: %v", err)
	}
	if f.Points[20].X != 0.625 || f.Handedness != HandednessRight || !f.CapturedAt.Equal(at) {
		t.Errorf("frame fields lost in conversion: %+v", f)
	}

	if _, err := FrameFromSlice(points[:20], HandednessRight, at); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("short slice must be rejected, got %v", err)
	}
	if _, err := FrameFromSlice(append(points, Point{}), HandednessLeft, at); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("long slice must be rejected, got %v", err)
	}
	if _, err := FrameFromSlice(points, "both", at); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("unknown handedness must be rejected, got %v", err)
	}
}

func TestHandedness_Valid(t *testing.T) {
	if !HandednessLeft.Valid() || !HandednessRight.Valid() {
		t.Error("recognized values must validate")
	}
	if Handedness("").Valid() || Handedness("ambidextrous").Valid() {
		t.Error("unknown values must not validate")
	}
}

func TestPipelineError(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	pe := NewPipelineError(CodeScorerUnavailable, "scorer unreachable", true, cause)

	if !errors.Is(pe, cause) {
		t.Error("wrapped cause must be reachable through errors.Is")
	}
	if pe.Error() != "scorer_unavailable: scorer unreachable: connection refused" {
		t.Errorf("unexpected error text: %s", pe.Error())
	}

	bare := NewPipelineError(CodeQueueClosed, "queue closed", true, nil)
	if bare.Error() != "queue_closed: queue closed" {
		t.Errorf("unexpected error text without cause: %s", bare.Error())
	}
}

func TestAsPipelineError(t *testing.T) {
	pe := NewPipelineError(CodeRequestCanceled, "canceled", false, nil)
	wrapped := fmt.Errorf("handler: %w", pe)

	if got := AsPipelineError(wrapped); got.Code != CodeRequestCanceled {
		t.Errorf("expected the wrapped pipeline error back, got %+v", got)
	}

	plain := errors.New("boom")
	got := AsPipelineError(plain)
	if got.Code != CodeTerminalFailure || got.Retryable {
		t.Errorf("plain errors must map to a non-retryable terminal failure, got %+v", got)
	}
	if !errors.Is(got, plain) {
		t.Error("the original error must stay reachable")
	}
}
