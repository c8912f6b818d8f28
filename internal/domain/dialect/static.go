package dialect

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/sahajlabs/mudra/internal/domain/model"
)

// Default static module parameters.
const (
	defaultCompletionThreshold = 0.9
	defaultVersion             = "v1"
)

// StaticOption applies a configuration option to the StaticModule.
type StaticOption func(*StaticModule)

// WithPatterns seeds the module with expected patterns.
func WithPatterns(patterns ...Pattern) StaticOption {
	return func(m *StaticModule) {
		for _, p := range patterns {
			m.patterns[p.SignID] = p
		}
	}
}

// WithCompletionThreshold sets the accuracy at which a sign is completed.
func WithCompletionThreshold(t float64) StaticOption {
	return func(m *StaticModule) {
		if t > 0 && t <= 1 {
			m.completionThreshold = t
		}
	}
}

// WithVoiceProfiles maps languages to synthesizer voice identifiers.
func WithVoiceProfiles(profiles map[string]string) StaticOption {
	return func(m *StaticModule) {
		for lang, profile := range profiles {
			m.voiceProfiles[lang] = profile
		}
	}
}

// WithVersion sets the module content revision.
func WithVersion(v string) StaticOption {
	return func(m *StaticModule) {
		if v != "" {
			m.version = v
		}
	}
}

// StaticModule is an in-memory Module seeded with a fixed sign set. It
// serves development and tests; production deployments replace it with a
// module backed by downloadable lesson packs.
type StaticModule struct {
	mu                  sync.RWMutex
	patterns            map[string]Pattern
	voiceProfiles       map[string]string
	version             string
	completionThreshold float64
}

// NewStaticModule creates a static module with configuration options.
// Without WithPatterns it is seeded with the built-in demo alphabet.
func NewStaticModule(opts ...StaticOption) *StaticModule {
	m := &StaticModule{
		patterns:            make(map[string]Pattern),
		voiceProfiles:       map[string]string{"en": "voice-en-1", "hi": "voice-hi-1"},
		version:             defaultVersion,
		completionThreshold: defaultCompletionThreshold,
	}
	for _, opt := range opts {
		opt(m)
	}
	if len(m.patterns) == 0 {
		for _, p := range builtinPatterns() {
			m.patterns[p.SignID] = p
		}
	}
	return m
}

// LoadExpectedPattern returns the expected pattern for signID.
func (m *StaticModule) LoadExpectedPattern(ctx context.Context, signID string) (Pattern, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.patterns[signID]
	if !ok {
		return Pattern{}, fmt.Errorf("%w: %s", ErrSignNotFound, signID)
	}
	return p, nil
}

// Version returns the module content revision.
func (m *StaticModule) Version(ctx context.Context) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// CompletionThreshold returns the module's completion accuracy.
func (m *StaticModule) CompletionThreshold() float64 {
	return m.completionThreshold
}

// VoiceProfile returns the synthesizer voice for a language.
func (m *StaticModule) VoiceProfile(language string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	profile, ok := m.voiceProfiles[language]
	return profile, ok
}

// ReplacePatterns swaps the sign set and bumps the version, simulating a
// lesson-pack update. Pattern caches keyed on Version pick this up.
func (m *StaticModule) ReplacePatterns(version string, patterns ...Pattern) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = make(map[string]Pattern, len(patterns))
	for _, p := range patterns {
		m.patterns[p.SignID] = p
	}
	m.version = version
}

// builtinPatterns returns a small deterministic demo sign set. Each sign
// places the 21 landmarks on a distinct curve so the geometric scorer can
// tell them apart.
func builtinPatterns() []Pattern {
	signs := []string{"letter_a", "letter_b", "letter_c", "namaste"}
	patterns := make([]Pattern, 0, len(signs))
	for si, sign := range signs {
		var p Pattern
		p.SignID = sign
		p.Handedness = model.HandednessRight
		for i := range p.Points {
			t := float64(i) / float64(model.LandmarkCount-1)
			p.Points[i] = model.Point{
				X: 0.5 + 0.3*math.Cos(t*math.Pi+float64(si)),
				Y: 0.5 + 0.3*math.Sin(t*math.Pi+float64(si)),
				Z: 0.05 * t,
			}
		}
		patterns = append(patterns, p)
	}
	return patterns
}
