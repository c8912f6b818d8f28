// Package dialect defines the dialect-module collaborator: the source of
// expected sign patterns, completion thresholds, and voice profiles for
// one sign-language dialect.
package dialect

import (
	"context"

	"github.com/sahajlabs/mudra/internal/domain/model"
)

// Pattern is the expected landmark layout for one sign.
type Pattern struct {
	SignID     string
	Points     [model.LandmarkCount]model.Point
	Handedness model.Handedness
}

// Module exposes one dialect module's signs and parameters.
type Module interface {
	// LoadExpectedPattern returns the expected pattern for a sign, or
	// ErrSignNotFound.
	LoadExpectedPattern(ctx context.Context, signID string) (Pattern, error)

	// Version identifies the module content revision. Pattern caches are
	// invalidated when it changes.
	Version(ctx context.Context) string

	// CompletionThreshold is the accuracy in [0,1] at which a sign counts
	// as completed for progress tracking.
	CompletionThreshold() float64

	// VoiceProfile returns the speech-synthesis voice identifier for a
	// language, or false when the language has no spoken output.
	VoiceProfile(language string) (string, bool)
}
