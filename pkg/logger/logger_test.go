package logger

import (
	"context"
	"log/slog"
	"testing"
)

func TestInitAndGet(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	// Re-initialization replaces the global without error.
	if err := Init(); err != nil {
		t.Fatalf("failed to re-initialize logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after re-initialization")
	}
}

func TestNamedLoggers(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	worker := Named("worker")
	if worker == nil {
		t.Fatal("named logger is nil")
	}

	ctx := context.Background()
	worker.Info(ctx, "request enqueued",
		String("requestID", "req-1"),
		String("userID", "learner-1"),
		Int("attempt", 1),
	)
	worker.Named("scorer").Warn(ctx, "attempt failed", Float64("latencyMs", 12.5))
}

func TestFieldConstructors(t *testing.T) {
	cases := []struct {
		field Field
		key   string
	}{
		{String("signID", "letter_a"), "signID"},
		{Int("attempts", 3), "attempts"},
		{Float64("confidence", 0.9), "confidence"},
		{Any("stats", map[string]int{"queued": 2}), "stats"},
		{Error(context.Canceled), "error"},
	}
	for _, c := range cases {
		if c.field.Key != c.key {
			t.Errorf("expected key %q, got %q", c.key, c.field.Key)
		}
		if c.field.Value == nil {
			t.Errorf("field %q lost its value", c.key)
		}
	}
}

func TestSetLevelString(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	for _, level := range []string{"debug", "info", "warn", "Warning", "ERROR", ""} {
		if err := SetLevelString(level); err != nil {
			t.Errorf("level %q should be accepted: %v", level, err)
		}
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Error("unknown level must be rejected")
	}

	// Leave the level at info for other packages.
	SetLevel(slog.LevelInfo)
}
