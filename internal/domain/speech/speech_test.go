package speech

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestLocalSynthesizer_Deterministic(t *testing.T) {
	s := NewLocalSynthesizer()
	ctx := context.Background()

	ref1, err := s.Synthesize(ctx, Request{Text: "Well done", VoiceProfile: "voice-en-1"})
	if err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}
	ref2, err := s.Synthesize(ctx, Request{Text: "Well done", VoiceProfile: "voice-en-1"})
	if err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}

	if ref1.ID != ref2.ID || ref1.URI != ref2.URI {
		t.Error("the same text and voice should produce the same reference")
	}
	if !strings.HasPrefix(ref1.URI, "audio://voice-en-1/") {
		t.Errorf("unexpected uri shape: %s", ref1.URI)
	}

	ref3, err := s.Synthesize(ctx, Request{Text: "Well done", VoiceProfile: "voice-hi-1"})
	if err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}
	if ref3.ID == ref1.ID {
		t.Error("a different voice should produce a different reference")
	}
}

func TestLocalSynthesizer_LatencyHonorsContext(t *testing.T) {
	s := NewLocalSynthesizer(WithLatency(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := s.Synthesize(ctx, Request{Text: "hello", VoiceProfile: "voice-en-1"}); err == nil {
		t.Error("expected a context deadline error")
	}
}
