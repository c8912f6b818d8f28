// Package speech defines the contract for the external text-to-speech
// capability and a local stub implementation.
//
// Synthesis is strictly best-effort in the pipeline: a failure degrades
// the outcome to text-only feedback and never blocks or fails validation.
package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Request is the synthesizer capability input.
type Request struct {
	Text         string
	VoiceProfile string
}

// AudioRef points at synthesized audio bytes.
type AudioRef struct {
	ID  string
	URI string
}

// Synthesizer converts text to spoken audio within the caller's budget.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (AudioRef, error)
}

// Option applies a configuration option to the LocalSynthesizer.
type Option func(*LocalSynthesizer)

// WithLatency adds a fixed artificial latency per call.
func WithLatency(d time.Duration) Option {
	return func(s *LocalSynthesizer) {
		if d >= 0 {
			s.latency = d
		}
	}
}

// LocalSynthesizer produces content-addressed audio references without any
// real synthesis backend. Deployments swap in a client for a managed
// text-to-speech service behind the same interface.
type LocalSynthesizer struct {
	latency time.Duration
}

// NewLocalSynthesizer creates a local synthesizer with options.
func NewLocalSynthesizer(opts ...Option) *LocalSynthesizer {
	s := &LocalSynthesizer{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize returns a deterministic reference derived from the text and
// voice profile.
func (s *LocalSynthesizer) Synthesize(ctx context.Context, req Request) (AudioRef, error) {
	if s.latency > 0 {
		select {
		case <-ctx.Done():
			return AudioRef{}, fmt.Errorf("synthesis canceled: %w", ctx.Err())
		case <-time.After(s.latency):
		}
	}
	sum := sha256.Sum256([]byte(req.VoiceProfile + "\x00" + req.Text))
	id := hex.EncodeToString(sum[:8])
	return AudioRef{
		ID:  id,
		URI: fmt.Sprintf("audio://%s/%s", req.VoiceProfile, id),
	}, nil
}
