// Package scoring defines the contract for the external gesture scorer
// and a deterministic in-process implementation.
//
// The scorer is modeled as a strictly typed capability: input is the sign
// identifier, the expected pattern, and the captured 21-point frame;
// output is a ValidationResult or a typed failure. Any implementation
// satisfying the contract can be plugged in, including a remote model.
package scoring

import (
	"context"

	"github.com/sahajlabs/mudra/internal/domain/dialect"
	"github.com/sahajlabs/mudra/internal/domain/model"
)

// Input carries everything a scorer needs for one judgment.
type Input struct {
	SignID   string
	Expected dialect.Pattern
	Frame    model.LandmarkFrame
}

// Scorer judges gesture correctness against an expected pattern. The
// implementation must honor ctx: responses arriving after the caller's
// deadline are discarded by the caller.
type Scorer interface {
	Score(ctx context.Context, in Input) (model.ValidationResult, error)
}
