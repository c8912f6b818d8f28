package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Addr != ":9080" {
		t.Errorf("expected default addr :9080, got %q", cfg.Addr)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("expected 3 max attempts, got %d", cfg.MaxAttempts)
	}
	if cfg.RetryBackoffBaseMS != 1000 || cfg.ScorerTimeoutMS != 1500 || cfg.SynthTimeoutMS != 1000 {
		t.Errorf("unexpected timing defaults: %+v", cfg)
	}
	if cfg.BreakerFailureThreshold != 5 || cfg.BreakerCooldownMS != 30_000 {
		t.Errorf("unexpected breaker defaults: %+v", cfg)
	}
	if cfg.CompletionThreshold != 0.9 || cfg.CorrectnessThreshold != 0.8 {
		t.Errorf("unexpected threshold defaults: %+v", cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MUDRA_ADDR", ":7070")
	t.Setenv("MUDRA_MAX_ATTEMPTS", "5")
	t.Setenv("MUDRA_COMPLETION_THRESHOLD", "0.75")
	t.Setenv("MUDRA_LOG_LEVEL", "debug")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Errorf("env addr not applied, got %q", cfg.Addr)
	}
	if cfg.MaxAttempts != 5 {
		t.Errorf("env max attempts not applied, got %d", cfg.MaxAttempts)
	}
	if cfg.CompletionThreshold != 0.75 {
		t.Errorf("env completion threshold not applied, got %f", cfg.CompletionThreshold)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("env log level not applied, got %q", cfg.LogLevel)
	}
	// Untouched fields keep their defaults.
	if cfg.QueuePerUserCapacity != 64 {
		t.Errorf("unrelated default lost, got %d", cfg.QueuePerUserCapacity)
	}
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mudra.yaml")
	yaml := "addr: \":6060\"\nmax_attempts: 7\nlog_level: warn\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("MUDRA_CONFIG", path)
	t.Setenv("MUDRA_MAX_ATTEMPTS", "2")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Addr != ":6060" {
		t.Errorf("file addr not applied, got %q", cfg.Addr)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("file log level not applied, got %q", cfg.LogLevel)
	}
	if cfg.MaxAttempts != 2 {
		t.Errorf("env must win over file, got %d", cfg.MaxAttempts)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("MUDRA_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load(context.Background())
	if !errors.Is(err, ErrLoadConfig) {
		t.Errorf("expected ErrLoadConfig for a missing file, got %v", err)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string][2]string{
		"zero attempts":    {"MUDRA_MAX_ATTEMPTS", "0"},
		"zero capacity":    {"MUDRA_QUEUE_PER_USER_CAPACITY", "0"},
		"threshold too hi": {"MUDRA_COMPLETION_THRESHOLD", "1.5"},
		"unknown level":    {"MUDRA_LOG_LEVEL", "verbose"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load(context.Background())
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestValidate_EmptyAddr(t *testing.T) {
	cfg := New()
	cfg.Addr = ""
	if err := cfg.validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
