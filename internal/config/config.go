// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueuePerUserCapacity bounds each user's pending-request FIFO.
	QueuePerUserCapacity int `koanf:"queue_per_user_capacity"`

	// OutboundConcurrency caps concurrent calls to the external scorer
	// and synthesizer across all users.
	OutboundConcurrency int `koanf:"outbound_concurrency"`

	// MaxAttempts is the dispatch attempt limit per request.
	MaxAttempts int `koanf:"max_attempts"`

	// RetryBackoffBaseMS is the first retry delay; the Nth retry waits
	// base * 2^(N-1).
	RetryBackoffBaseMS int `koanf:"retry_backoff_base_ms"`

	// ScorerTimeoutMS is the per-attempt scorer budget.
	ScorerTimeoutMS int `koanf:"scorer_timeout_ms"`

	// SynthTimeoutMS is the synthesizer call budget.
	SynthTimeoutMS int `koanf:"synth_timeout_ms"`

	// BreakerFailureThreshold opens a capability breaker after this many
	// consecutive failures.
	BreakerFailureThreshold int `koanf:"breaker_failure_threshold"`

	// BreakerCooldownMS is how long an open breaker waits before probing.
	BreakerCooldownMS int `koanf:"breaker_cooldown_ms"`

	// DedupeSize bounds the applied-request-id idempotency set.
	DedupeSize int `koanf:"dedupe_size"`

	// DedupeWindowMS is how long applied request ids are remembered.
	DedupeWindowMS int `koanf:"dedupe_window_ms"`

	// ShardCount configures the number of shards in the progress store.
	ShardCount int `koanf:"shard_count"`

	// RequestWaitTimeoutMS bounds how long the validate endpoint waits
	// for a queued request to resolve before answering retryable-pending.
	RequestWaitTimeoutMS int `koanf:"request_wait_timeout_ms"`

	// SignificanceThreshold is the minimum deviation magnitude that
	// contributes a corrective instruction.
	SignificanceThreshold float64 `koanf:"significance_threshold"`

	// CompletionThreshold is the accuracy at which a sign completes.
	CompletionThreshold float64 `koanf:"completion_threshold"`

	// CorrectnessThreshold is the confidence at which the geometric
	// scorer judges a gesture correct.
	CorrectnessThreshold float64 `koanf:"correctness_threshold"`

	// DeviationEpsilon is the per-landmark distance above which the
	// geometric scorer reports a deviation.
	DeviationEpsilon float64 `koanf:"deviation_epsilon"`

	// ScorerLatencyMS simulates external scorer latency for the
	// in-process scorer.
	ScorerLatencyMS int `koanf:"scorer_latency_ms"`

	// SynthLatencyMS simulates external synthesizer latency for the
	// in-process synthesizer.
	SynthLatencyMS int `koanf:"synth_latency_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":9080",
		QueuePerUserCapacity:    64,
		OutboundConcurrency:     64,
		MaxAttempts:             3,
		RetryBackoffBaseMS:      1000,
		ScorerTimeoutMS:         1500,
		SynthTimeoutMS:          1000,
		BreakerFailureThreshold: 5,
		BreakerCooldownMS:       30_000,
		DedupeSize:              50_000,
		DedupeWindowMS:          600_000,
		ShardCount:              8,
		RequestWaitTimeoutMS:    5000,
		SignificanceThreshold:   0.12,
		CompletionThreshold:     0.9,
		CorrectnessThreshold:    0.8,
		DeviationEpsilon:        0.08,
		ScorerLatencyMS:         0,
		SynthLatencyMS:          0,
	}
}
