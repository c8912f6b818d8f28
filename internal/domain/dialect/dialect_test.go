package dialect

import (
	"context"
	"errors"
	"testing"

	"github.com/sahajlabs/mudra/internal/domain/model"
)

func TestStaticModule_BuiltinPatterns(t *testing.T) {
	ctx := context.Background()
	m := NewStaticModule()

	for _, sign := range []string{"letter_a", "letter_b", "letter_c", "namaste"} {
		p, err := m.LoadExpectedPattern(ctx, sign)
		if err != nil {
			t.Fatalf("builtin sign %s missing: %v", sign, err)
		}
		if p.SignID != sign {
			t.Errorf("expected sign id %s, got %s", sign, p.SignID)
		}
		if !p.Handedness.Valid() {
			t.Errorf("builtin pattern %s has invalid handedness", sign)
		}
	}

	_, err := m.LoadExpectedPattern(ctx, "letter_z")
	if !errors.Is(err, ErrSignNotFound) {
		t.Errorf("expected ErrSignNotFound, got %v", err)
	}
}

func TestStaticModule_Options(t *testing.T) {
	ctx := context.Background()
	custom := Pattern{SignID: "hello", Handedness: model.HandednessLeft}
	m := NewStaticModule(
		WithPatterns(custom),
		WithCompletionThreshold(0.75),
		WithVersion("v7"),
		WithVoiceProfiles(map[string]string{"ta": "voice-ta-1"}),
	)

	if _, err := m.LoadExpectedPattern(ctx, "hello"); err != nil {
		t.Errorf("custom pattern missing: %v", err)
	}
	if _, err := m.LoadExpectedPattern(ctx, "letter_a"); err == nil {
		t.Error("builtin signs should not be seeded when patterns are provided")
	}
	if got := m.CompletionThreshold(); got != 0.75 {
		t.Errorf("expected threshold 0.75, got %f", got)
	}
	if got := m.Version(ctx); got != "v7" {
		t.Errorf("expected version v7, got %s", got)
	}
	if _, ok := m.VoiceProfile("ta"); !ok {
		t.Error("custom voice profile missing")
	}
	if _, ok := m.VoiceProfile("en"); !ok {
		t.Error("default voice profiles should survive custom additions")
	}
	if _, ok := m.VoiceProfile("fr"); ok {
		t.Error("unknown language should have no voice profile")
	}
}

func TestPatternCache_MemoizesUntilVersionChange(t *testing.T) {
	ctx := context.Background()
	m := NewStaticModule()
	c := NewPatternCache(m)

	p1, err := c.Expected(ctx, "letter_a")
	if err != nil {
		t.Fatalf("expected pattern: %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("expected one cached pattern, got %d", c.Len())
	}

	// Cached copy served while the version is stable.
	p2, err := c.Expected(ctx, "letter_a")
	if err != nil {
		t.Fatalf("cached lookup failed: %v", err)
	}
	if p1.SignID != p2.SignID {
		t.Error("cached pattern mismatch")
	}

	// A lesson-pack update bumps the version and replaces the sign set.
	replacement := Pattern{SignID: "letter_a", Handedness: model.HandednessLeft}
	m.ReplacePatterns("v2", replacement)

	p3, err := c.Expected(ctx, "letter_a")
	if err != nil {
		t.Fatalf("post-update lookup failed: %v", err)
	}
	if p3.Handedness != model.HandednessLeft {
		t.Error("version change must invalidate the cache")
	}
	if c.Len() != 1 {
		t.Errorf("stale entries should be gone after invalidation, got %d", c.Len())
	}

	// Signs dropped by the update are gone.
	if _, err := c.Expected(ctx, "letter_b"); !errors.Is(err, ErrSignNotFound) {
		t.Errorf("expected ErrSignNotFound after update, got %v", err)
	}
}
