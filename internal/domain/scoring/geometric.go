package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/sahajlabs/mudra/internal/domain/model"
)

// Default geometric scorer configuration constants.
const (
	defaultDeviationEpsilon     = 0.08
	defaultCorrectnessThreshold = 0.8
	defaultDistanceScale        = 0.5 // distance at which per-landmark accuracy hits zero
)

// landmarkNames follows the standard 21-point hand landmark topology.
var landmarkNames = [model.LandmarkCount]string{
	"wrist",
	"thumb_cmc", "thumb_mcp", "thumb_ip", "thumb_tip",
	"index_mcp", "index_pip", "index_dip", "index_tip",
	"middle_mcp", "middle_pip", "middle_dip", "middle_tip",
	"ring_mcp", "ring_pip", "ring_dip", "ring_tip",
	"pinky_mcp", "pinky_pip", "pinky_dip", "pinky_tip",
}

// Option applies a configuration option to the GeometricScorer.
type Option func(*GeometricScorer)

// WithDeviationEpsilon sets the per-landmark distance above which a
// Deviation record is emitted.
func WithDeviationEpsilon(eps float64) Option {
	return func(s *GeometricScorer) {
		if eps > 0 {
			s.deviationEpsilon = eps
		}
	}
}

// WithCorrectnessThreshold sets the confidence at or above which the
// gesture is judged correct.
func WithCorrectnessThreshold(t float64) Option {
	return func(s *GeometricScorer) {
		if t > 0 && t <= 1 {
			s.correctnessThreshold = t
		}
	}
}

// WithLatency adds a fixed artificial latency per call, modeling a remote
// scoring service.
func WithLatency(d time.Duration) Option {
	return func(s *GeometricScorer) {
		if d >= 0 {
			s.latency = d
		}
	}
}

// GeometricScorer is a deterministic comparator: it measures per-landmark
// Euclidean distance between the captured frame and the expected pattern.
// It exists so the pipeline's correctness guarantees can be exercised
// without any model behind the scorer contract.
type GeometricScorer struct {
	deviationEpsilon     float64
	correctnessThreshold float64
	latency              time.Duration
}

// NewGeometricScorer creates a scorer with configuration options.
func NewGeometricScorer(opts ...Option) *GeometricScorer {
	s := &GeometricScorer{
		deviationEpsilon:     defaultDeviationEpsilon,
		correctnessThreshold: defaultCorrectnessThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score compares the frame against the expected pattern.
func (s *GeometricScorer) Score(ctx context.Context, in Input) (model.ValidationResult, error) {
	if s.latency > 0 {
		select {
		case <-ctx.Done():
			return model.ValidationResult{}, fmt.Errorf("scoring canceled: %w", ctx.Err())
		case <-time.After(s.latency):
		}
	}

	var deviations []model.Deviation
	var totalAccuracy float64
	for i := range in.Frame.Points {
		d := distance(in.Frame.Points[i], in.Expected.Points[i])
		acc := 1 - d/defaultDistanceScale
		if acc < 0 {
			acc = 0
		}
		totalAccuracy += acc
		if d > s.deviationEpsilon {
			deviations = append(deviations, model.Deviation{
				LandmarkIndex: i,
				Description:   fmt.Sprintf("%s (landmark %d) is displaced %.3f from the expected position", landmarkNames[i], i, d),
				Magnitude:     d,
			})
		}
	}

	confidence := totalAccuracy / model.LandmarkCount
	if in.Frame.Handedness != in.Expected.Handedness {
		// Wrong hand halves the confidence rather than zeroing it; the
		// deviations still point at the displaced landmarks.
		confidence /= 2
	}

	return model.ValidationResult{
		Correct:    confidence >= s.correctnessThreshold,
		Confidence: confidence,
		Deviations: deviations,
		TraceID:    uuid.NewString(),
	}, nil
}

func distance(a, b model.Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
