// Package worker runs the validation orchestrator.
package worker

import (
	"time"

	"github.com/sahajlabs/mudra/internal/domain/breaker"
	"github.com/sahajlabs/mudra/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithScorerTimeout sets the per-attempt scorer budget.
func WithScorerTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.scorerTimeout = d
		}
	}
}

// WithSynthTimeout sets the synthesizer call budget.
func WithSynthTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.synthTimeout = d
		}
	}
}

// WithMaxAttempts sets how many dispatch attempts a request gets before it
// is retired as a terminal failure.
func WithMaxAttempts(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithBackoffBase sets the first retry delay; the Nth retry waits
// base * 2^(N-1).
func WithBackoffBase(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.backoffBase = d
		}
	}
}

// WithOutboundConcurrency caps concurrent calls to the external scorer
// and synthesizer across all users.
func WithOutboundConcurrency(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.sem = make(chan struct{}, n)
		}
	}
}

// WithScorerBreaker injects the scorer capability breaker.
func WithScorerBreaker(b *breaker.Breaker) Option {
	return func(p *Pool) {
		if b != nil {
			p.scorerBreaker = b
		}
	}
}

// WithSynthBreaker injects the synthesizer capability breaker.
func WithSynthBreaker(b *breaker.Breaker) Option {
	return func(p *Pool) {
		if b != nil {
			p.synthBreaker = b
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}
