package service

import (
	"time"

	"github.com/sahajlabs/mudra/internal/domain/dialect"
	"github.com/sahajlabs/mudra/internal/domain/feedback"
	"github.com/sahajlabs/mudra/internal/domain/scoring"
	"github.com/sahajlabs/mudra/internal/domain/speech"
	"github.com/sahajlabs/mudra/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithPerUserQueueCapacity bounds each user's pending-request FIFO.
func WithPerUserQueueCapacity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queuePerUserCapacity = n
		}
	}
}

// WithOutboundConcurrency caps concurrent outbound scorer and synthesizer
// calls across all users.
func WithOutboundConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.outboundConcurrency = n
		}
	}
}

// WithMaxAttempts sets the dispatch attempt limit per request.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithBackoffBase sets the first retry delay; the Nth retry waits
// base * 2^(N-1).
func WithBackoffBase(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.backoffBase = d
		}
	}
}

// WithScorerTimeout sets the per-attempt scorer budget.
func WithScorerTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.scorerTimeout = d
		}
	}
}

// WithSynthTimeout sets the synthesizer call budget.
func WithSynthTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.synthTimeout = d
		}
	}
}

// WithBreakerFailureThreshold sets how many consecutive failures open a
// capability breaker.
func WithBreakerFailureThreshold(n int32) Option {
	return func(s *Service) {
		if n > 0 {
			s.breakerFailureThreshold = n
		}
	}
}

// WithBreakerCooldown sets how long an open breaker waits before probing.
func WithBreakerCooldown(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.breakerCooldown = d
		}
	}
}

// WithDedupeSize bounds the applied-request-id idempotency set.
func WithDedupeSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.dedupeSize = n
		}
	}
}

// WithDedupeWindow sets how long applied request ids are remembered.
func WithDedupeWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.dedupeWindow = d
		}
	}
}

// WithShardCount sets the number of progress store shards.
func WithShardCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithSignificanceThreshold sets the minimum deviation magnitude that
// contributes a corrective instruction.
func WithSignificanceThreshold(t float64) Option {
	return func(s *Service) {
		if t > 0 {
			s.significanceThreshold = t
		}
	}
}

// WithCompletionThreshold sets the accuracy at which a sign completes.
func WithCompletionThreshold(t float64) Option {
	return func(s *Service) {
		if t > 0 && t <= 1 {
			s.completionThreshold = t
		}
	}
}

// WithCorrectnessThreshold sets the confidence at which the scorer judges
// a gesture correct.
func WithCorrectnessThreshold(t float64) Option {
	return func(s *Service) {
		if t > 0 && t <= 1 {
			s.correctnessThreshold = t
		}
	}
}

// WithDeviationEpsilon sets the per-landmark distance above which the
// scorer reports a deviation.
func WithDeviationEpsilon(eps float64) Option {
	return func(s *Service) {
		if eps > 0 {
			s.deviationEpsilon = eps
		}
	}
}

// WithScoringLatency sets the simulated scorer latency.
func WithScoringLatency(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.scorerLatency = d
		}
	}
}

// WithSynthesisLatency sets the simulated synthesizer latency.
func WithSynthesisLatency(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.synthLatency = d
		}
	}
}

// WithModule swaps in a custom dialect module.
func WithModule(m *dialect.StaticModule) Option {
	return func(s *Service) {
		if m != nil {
			s.module = m
		}
	}
}

// WithScorer swaps in a custom scorer implementation.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithSynthesizer swaps in a custom synthesizer implementation.
func WithSynthesizer(sy speech.Synthesizer) Option {
	return func(s *Service) {
		if sy != nil {
			s.synth = sy
		}
	}
}

// WithComposer swaps in a custom feedback composer.
func WithComposer(c *feedback.Composer) Option {
	return func(s *Service) {
		if c != nil {
			s.composer = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
