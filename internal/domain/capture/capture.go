// Package capture holds the freshest pending gesture sample per session.
//
// The buffer keeps at most one frame per session: a new Push overwrites any
// unconsumed prior sample so downstream dispatch always acts on the latest
// gesture. Take atomically removes and returns the current sample.
package capture

import (
	"context"
	"sync"

	"github.com/sahajlabs/mudra/internal/domain/model"
	"github.com/sahajlabs/mudra/pkg/metrics"
)

// Buffer is a latest-wins, per-session frame slot.
type Buffer struct {
	mu    sync.Mutex
	slots map[string]model.LandmarkFrame
}

// NewBuffer creates an empty capture buffer.
func NewBuffer() *Buffer {
	return &Buffer{
		slots: make(map[string]model.LandmarkFrame),
	}
}

// Push makes frame the session's current sample, overwriting any
// unconsumed prior sample.
func (b *Buffer) Push(ctx context.Context, sessionID string, frame model.LandmarkFrame) {
	b.mu.Lock()
	_, overwrote := b.slots[sessionID]
	b.slots[sessionID] = frame
	size := len(b.slots)
	b.mu.Unlock()

	if overwrote {
		metrics.RecordCaptureOverwrite()
	}
	metrics.UpdateCaptureBufferSize(size)
}

// Take atomically removes and returns the session's current sample.
// The second return value is false when no sample is pending.
func (b *Buffer) Take(ctx context.Context, sessionID string) (model.LandmarkFrame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	frame, ok := b.slots[sessionID]
	if !ok {
		return model.LandmarkFrame{}, false
	}
	delete(b.slots, sessionID)
	metrics.UpdateCaptureBufferSize(len(b.slots))
	return frame, true
}

// Size returns the number of sessions with a pending sample.
func (b *Buffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.slots)
}
