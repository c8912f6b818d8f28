// Package dedupe defines the interface for idempotency tracking.
//
// The reconciler uses it to remember which request identifiers have
// already been applied to progress records, so at-least-once redelivery
// from the queue layer never double-counts an attempt. The set is bounded
// and time-windowed: entries fall out after the window, oldest first when
// the size bound is hit.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Default deduper configuration constants.
const (
	defaultMaxSize = 50_000
	defaultWindow  = 10 * time.Minute
)

// Deduper records applied request IDs to ensure at-most-once application.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen inside the window and
	// records it if not. Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen set, allowing it to be applied
	// again. Used when an apply was recorded but failed to persist.
	Unrecord(ctx context.Context, id string)

	// Size returns the current number of tracked IDs.
	Size() int64
}

// entry is one tracked id with its record time.
type entry struct {
	id string
	at time.Time
}

// inMemoryDeduper implements Deduper with a map plus an insertion-ordered
// list for FIFO eviction and window expiry. The list holds the oldest
// entry at the front.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	maxSize int
	window  time.Duration
	now     func() time.Time
	size    atomic.Int64
}

// Option applies a configuration option to the inMemoryDeduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds the number of tracked IDs. Oldest entries are evicted
// first when the bound is reached.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		if maxSize > 0 {
			d.maxSize = maxSize
		}
	}
}

// WithWindow sets how long an applied ID is remembered.
func WithWindow(window time.Duration) Option {
	return func(d *inMemoryDeduper) {
		if window > 0 {
			d.window = window
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *inMemoryDeduper) {
		if now != nil {
			d.now = now
		}
	}
}

// NewInMemoryDeduper creates a deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		seen:    make(map[string]*list.Element),
		order:   list.New(),
		maxSize: defaultMaxSize,
		window:  defaultWindow,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SeenAndRecord atomically checks and records id.
func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	d.expireLocked(now)

	if _, exists := d.seen[id]; exists {
		return true
	}

	if len(d.seen) >= d.maxSize {
		if front := d.order.Front(); front != nil {
			d.removeLocked(front)
		}
	}

	d.seen[id] = d.order.PushBack(entry{id: id, at: now})
	d.size.Add(1)
	return false
}

// Unrecord removes id from the seen set.
func (d *inMemoryDeduper) Unrecord(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	el, exists := d.seen[id]
	if !exists {
		return
	}
	d.removeLocked(el)
}

// Size returns the current number of tracked IDs.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

// expireLocked drops entries older than the window. Must hold d.mu.
func (d *inMemoryDeduper) expireLocked(now time.Time) {
	cutoff := now.Add(-d.window)
	for front := d.order.Front(); front != nil; front = d.order.Front() {
		if !front.Value.(entry).at.Before(cutoff) {
			return
		}
		d.removeLocked(front)
	}
}

// removeLocked unlinks el and drops its id from the map. Must hold d.mu.
func (d *inMemoryDeduper) removeLocked(el *list.Element) {
	d.order.Remove(el)
	delete(d.seen, el.Value.(entry).id)
	d.size.Add(-1)
}
