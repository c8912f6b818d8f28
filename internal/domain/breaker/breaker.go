// Package breaker implements a per-capability circuit breaker.
//
// State machine: closed -> open after a run of consecutive failures;
// open -> half-open once the cooldown elapses; half-open -> closed on the
// next success, half-open -> open on the next failure (cooldown restarts).
// While open, calls are rejected without contacting the remote capability.
package breaker

import (
	"sync/atomic"
	"time"

	"github.com/sahajlabs/mudra/pkg/metrics"
)

// State identifies the breaker position.
type State int32

// Breaker states.
const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String returns the canonical lowercase state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Default breaker configuration constants.
const (
	defaultFailureThreshold = 5
	defaultCooldown         = 30 * time.Second
)

// Option applies a configuration option to the Breaker.
type Option func(*Breaker)

// WithFailureThreshold sets how many consecutive failures open the breaker.
func WithFailureThreshold(n int32) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.threshold = n
		}
	}
}

// WithCooldown sets how long the breaker stays open before probing.
func WithCooldown(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

// Breaker tracks the health of one external capability. It is shared
// mutable state across all workers calling that capability; every update
// is a single atomic mutation so concurrent outcome reports never lose
// updates.
type Breaker struct {
	name      string
	threshold int32
	cooldown  time.Duration
	now       func() time.Time

	failures     atomic.Int32
	state        atomic.Int32
	transitionAt atomic.Int64 // unix nanos of the last state transition
}

// New creates a breaker for the named capability, starting closed.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:      name,
		threshold: defaultFailureThreshold,
		cooldown:  defaultCooldown,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.transitionAt.Store(b.now().UnixNano())
	metrics.UpdateBreakerState(name, StateClosed.String())
	return b
}

// Allow reports whether a call may proceed. When the cooldown of an open
// breaker has elapsed, exactly one caller wins the transition to half-open
// and gets the probe request; everyone else keeps being rejected until the
// probe outcome is reported.
func (b *Breaker) Allow() bool {
	for {
		switch State(b.state.Load()) {
		case StateOpen:
			opened := time.Unix(0, b.transitionAt.Load())
			if b.now().Sub(opened) < b.cooldown {
				return false
			}
			if b.transition(StateOpen, StateHalfOpen) {
				return true // this caller carries the probe
			}
			continue // lost the race, re-read state
		case StateHalfOpen:
			return false // probe already in flight
		default:
			return true
		}
	}
}

// RecordSuccess resets the failure run and closes the breaker.
func (b *Breaker) RecordSuccess() {
	b.failures.Store(0)
	if b.transition(StateHalfOpen, StateClosed) {
		return
	}
	b.transition(StateOpen, StateClosed)
}

// RecordFailure counts one failed call. A half-open probe failure reopens
// immediately; in closed state the breaker opens once the consecutive
// failure run reaches the threshold.
func (b *Breaker) RecordFailure() {
	failures := b.failures.Add(1)
	if b.transition(StateHalfOpen, StateOpen) {
		return
	}
	if failures >= b.threshold {
		b.transition(StateClosed, StateOpen)
	}
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	return State(b.state.Load())
}

// ConsecutiveFailures returns the current failure run length.
func (b *Breaker) ConsecutiveFailures() int {
	return int(b.failures.Load())
}

// RemainingCooldown returns how long until an open breaker will admit a
// probe, or zero when the breaker is not open.
func (b *Breaker) RemainingCooldown() time.Duration {
	if State(b.state.Load()) != StateOpen {
		return 0
	}
	opened := time.Unix(0, b.transitionAt.Load())
	remaining := b.cooldown - b.now().Sub(opened)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Name returns the capability name this breaker guards.
func (b *Breaker) Name() string { return b.name }

// transition CASes from one state to another and stamps the transition
// time on success.
func (b *Breaker) transition(from, to State) bool {
	if !b.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	b.transitionAt.Store(b.now().UnixNano())
	metrics.UpdateBreakerState(b.name, to.String())
	metrics.RecordBreakerTransition(b.name, to.String())
	return true
}
