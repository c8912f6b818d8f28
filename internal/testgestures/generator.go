package testgestures

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/sahajlabs/mudra/internal/domain/dialect"
	"github.com/sahajlabs/mudra/internal/domain/model"
	"github.com/sahajlabs/mudra/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	noiseProfileCount  = 4
)

// Constants for noise profiles. Noise is the per-landmark random offset
// added to the expected pose, so low noise produces correct attempts and
// high noise produces corrective feedback.
const (
	cleanNoise    = 0.01 // near-perfect reproduction
	slightNoise   = 0.05 // still correct for most thresholds
	sloppyNoise   = 0.15 // corrective with deviations
	wildNoise     = 0.40 // far off the expected pose
	caseClean     = 0
	caseSlight    = 1
	caseSloppy    = 2
	caseWild      = 3
	languageCount = 2
)

// testSigns are the demo signs seeded by the static dialect module.
var testSigns = []string{"letter_a", "letter_b", "letter_c", "namaste"}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// getRandomInt returns a random int in [0, max) using crypto/rand.
func getRandomInt(maxExclusive int64) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(maxExclusive))
	return int(n.Int64())
}

// generateAttempts creates the configured number of validation attempts
// spread over the simulated learners and demo signs.
func generateAttempts(ctx context.Context, config *Config, stats *Stats) ([]Attempt, error) {
	logger.Get().Info(ctx, "generating gesture attempts",
		logger.Int("numAttempts", config.NumAttempts),
		logger.Int("numUsers", config.NumUsers))

	// The static module holds the same expected poses the service scores
	// against, so noise levels translate into predictable outcomes.
	module := dialect.NewStaticModule()
	basePoses := make(map[string]dialect.Pattern, len(testSigns))
	for _, sign := range testSigns {
		p, err := module.LoadExpectedPattern(ctx, sign)
		if err != nil {
			return nil, fmt.Errorf("load expected pattern for %s: %w", sign, err)
		}
		basePoses[sign] = p
	}

	attempts := make([]Attempt, config.NumAttempts)
	for i := range attempts {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during attempt generation: %w", ctx.Err())
		default:
		}
		userID := "learner_" + strconv.Itoa(i%config.NumUsers)
		sign := testSigns[getRandomInt(int64(len(testSigns)))]
		attempts[i] = generateSingleAttempt(userID, sign, basePoses[sign])
	}

	stats.AttemptsGenerated = len(attempts)
	logger.Get().Info(ctx, "generated attempts successfully", logger.Int("count", len(attempts)))
	return attempts, nil
}

// generateSingleAttempt perturbs the expected pose with one of the noise
// profiles and wraps it in the wire shape.
func generateSingleAttempt(userID, sign string, base dialect.Pattern) Attempt {
	noise := pickNoiseLevel()

	landmarks := make([]Landmark, model.LandmarkCount)
	for i, p := range base.Points {
		landmarks[i] = Landmark{
			X: p.X + (getRandomFloat()-0.5)*2*noise,
			Y: p.Y + (getRandomFloat()-0.5)*2*noise,
			Z: p.Z + (getRandomFloat()-0.5)*2*noise,
		}
	}

	language := "en"
	if getRandomInt(languageCount) == 1 {
		language = "hi"
	}

	return Attempt{
		UserID:        userID,
		SignID:        sign,
		DialectModule: "isl-demo",
		Language:      language,
		Coordinates: Coordinates{
			Landmarks:  landmarks,
			Handedness: string(base.Handedness),
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
		},
	}
}

// pickNoiseLevel selects one of the noise profiles with equal weight.
func pickNoiseLevel() float64 {
	switch getRandomInt(noiseProfileCount) {
	case caseClean:
		return cleanNoise
	case caseSlight:
		return slightNoise
	case caseSloppy:
		return sloppyNoise
	case caseWild:
		return wildNoise
	default:
		return slightNoise
	}
}
