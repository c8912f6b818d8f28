package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/sahajlabs/mudra/internal/domain/dialect"
	"github.com/sahajlabs/mudra/internal/domain/model"
)

func referencePattern() dialect.Pattern {
	var p dialect.Pattern
	p.SignID = "letter_a"
	p.Handedness = model.HandednessRight
	for i := range p.Points {
		p.Points[i] = model.Point{X: float64(i) * 0.04, Y: 0.5, Z: 0.01}
	}
	return p
}

func frameFromPattern(p dialect.Pattern) model.LandmarkFrame {
	var f model.LandmarkFrame
	f.Points = p.Points
	f.Handedness = p.Handedness
	f.CapturedAt = time.Now()
	return f
}

func TestGeometricScorer_PerfectMatch(t *testing.T) {
	s := NewGeometricScorer()
	pattern := referencePattern()

	res, err := s.Score(context.Background(), Input{
		SignID:   pattern.SignID,
		Expected: pattern,
		Frame:    frameFromPattern(pattern),
	})
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}

	if !res.Correct {
		t.Error("a perfect reproduction should be correct")
	}
	if res.Confidence < 0.99 {
		t.Errorf("expected confidence near 1, got %f", res.Confidence)
	}
	if len(res.Deviations) != 0 {
		t.Errorf("expected no deviations, got %d", len(res.Deviations))
	}
	if res.TraceID == "" {
		t.Error("expected a trace id")
	}
}

func TestGeometricScorer_DisplacedLandmarks(t *testing.T) {
	s := NewGeometricScorer()
	pattern := referencePattern()

	frame := frameFromPattern(pattern)
	frame.Points[4].X += 0.2 // thumb tip far off
	frame.Points[8].Y += 0.1 // index tip off

	res, err := s.Score(context.Background(), Input{
		SignID:   pattern.SignID,
		Expected: pattern,
		Frame:    frame,
	})
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}

	if len(res.Deviations) != 2 {
		t.Fatalf("expected 2 deviations, got %d", len(res.Deviations))
	}
	if res.Deviations[0].LandmarkIndex != 4 || res.Deviations[1].LandmarkIndex != 8 {
		t.Errorf("deviations should reference the displaced landmarks, got %v", res.Deviations)
	}
	if res.Deviations[0].Magnitude < 0.19 || res.Deviations[0].Magnitude > 0.21 {
		t.Errorf("expected magnitude near 0.2, got %f", res.Deviations[0].Magnitude)
	}
	if res.Confidence >= 1 {
		t.Error("displaced landmarks should lower confidence")
	}
}

func TestGeometricScorer_FarOffPoseIsIncorrect(t *testing.T) {
	s := NewGeometricScorer()
	pattern := referencePattern()

	frame := frameFromPattern(pattern)
	for i := range frame.Points {
		frame.Points[i].X += 0.5
	}

	res, err := s.Score(context.Background(), Input{
		SignID:   pattern.SignID,
		Expected: pattern,
		Frame:    frame,
	})
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}

	if res.Correct {
		t.Error("a pose displaced by the full distance scale should be incorrect")
	}
	if res.Confidence > 0.1 {
		t.Errorf("expected near-zero confidence, got %f", res.Confidence)
	}
	if len(res.Deviations) != model.LandmarkCount {
		t.Errorf("every landmark should deviate, got %d", len(res.Deviations))
	}
}

func TestGeometricScorer_HandednessMismatchHalvesConfidence(t *testing.T) {
	s := NewGeometricScorer()
	pattern := referencePattern()

	frame := frameFromPattern(pattern)
	frame.Handedness = model.HandednessLeft

	res, err := s.Score(context.Background(), Input{
		SignID:   pattern.SignID,
		Expected: pattern,
		Frame:    frame,
	})
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}

	if res.Confidence < 0.49 || res.Confidence > 0.51 {
		t.Errorf("wrong hand should halve the confidence, got %f", res.Confidence)
	}
	if res.Correct {
		t.Error("halved confidence should fall below the correctness threshold")
	}
}

func TestGeometricScorer_CustomThresholds(t *testing.T) {
	s := NewGeometricScorer(
		WithDeviationEpsilon(0.5),
		WithCorrectnessThreshold(0.3),
	)
	pattern := referencePattern()

	frame := frameFromPattern(pattern)
	for i := range frame.Points {
		frame.Points[i].X += 0.2
	}

	res, err := s.Score(context.Background(), Input{
		SignID:   pattern.SignID,
		Expected: pattern,
		Frame:    frame,
	})
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}

	if len(res.Deviations) != 0 {
		t.Errorf("displacement below the custom epsilon should not deviate, got %d", len(res.Deviations))
	}
	if !res.Correct {
		t.Errorf("confidence %f should clear the lowered threshold", res.Confidence)
	}
}

func TestGeometricScorer_LatencyHonorsContext(t *testing.T) {
	s := NewGeometricScorer(WithLatency(time.Second))
	pattern := referencePattern()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.Score(ctx, Input{
		SignID:   pattern.SignID,
		Expected: pattern,
		Frame:    frameFromPattern(pattern),
	})
	if err == nil {
		t.Error("expected a context deadline error")
	}
}
