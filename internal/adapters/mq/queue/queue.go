// Package queue defines the contract for enqueuing and consuming
// validation requests.
//
// Requests are kept in per-user FIFOs: a single user's requests are
// dispatched strictly in enqueue order, while different users' queues are
// independent and processed concurrently. Each user queue is bounded; on
// overflow the oldest pending request is dropped, never the newest, so
// memory stays bounded during prolonged offline periods.
package queue

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sahajlabs/mudra/internal/domain/model"
	"github.com/sahajlabs/mudra/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultPerUserCapacity    = 64
	defaultUserAnnounceBuffer = 4096
)

// Entry wraps a ValidationRequest with a queue-internal sequence number
// used to preserve per-user FIFO order.
type Entry struct {
	Seq     uint64
	Request model.ValidationRequest
}

// Queue provides per-user FIFO enqueue/dequeue with drop-oldest overflow.
type Queue interface {
	// Enqueue appends a request to the tail of the calling user's FIFO.
	// Returns false if the queue has been closed.
	Enqueue(ctx context.Context, req model.ValidationRequest) bool

	// DequeueNext removes and returns the oldest pending entry for the
	// user, or false when that user's queue is empty.
	DequeueNext(ctx context.Context, userID string) (Entry, bool)

	// Cancel removes a still-queued request by identifier without side
	// effects. Returns false if the request is unknown or already
	// dispatched.
	Cancel(ctx context.Context, requestID string) bool

	// Ready returns a signal channel that receives a token whenever a new
	// entry becomes available for the user. The channel is closed when the
	// queue closes.
	Ready(userID string) <-chan struct{}

	// Users returns a channel announcing each user id the first time a
	// request is enqueued for it. Consumers spawn one worker per user.
	Users(ctx context.Context) <-chan string

	// Len returns the number of queued entries for one user.
	Len(ctx context.Context, userID string) int

	// TotalLen returns the number of queued entries across all users.
	TotalLen(ctx context.Context) int

	// Close shuts the queue down. After closing, Enqueue returns false and
	// all ready channels are closed.
	Close() error

	// IsClosed reports whether the queue has been closed.
	IsClosed() bool
}

// userQueue holds one user's pending entries. Mutation is synchronized per
// user; cross-user queues share no locks beyond the registry map.
type userQueue struct {
	mu      sync.Mutex
	entries []Entry
	ready   chan struct{}
}

// InMemoryQueue implements Queue with an in-process per-user registry.
type InMemoryQueue struct {
	mu     sync.RWMutex
	users  map[string]*userQueue
	index  map[string]string // requestID -> userID, for cancellation
	userCh chan string
	closed bool

	perUserCapacity int
	onDrop          func(model.ValidationRequest)
	seq             atomic.Uint64
}

// NewInMemoryQueue creates a queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		users:           make(map[string]*userQueue),
		index:           make(map[string]string),
		userCh:          make(chan string, defaultUserAnnounceBuffer),
		perUserCapacity: defaultPerUserCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends req to the tail of the user's FIFO, dropping the oldest
// pending entry first when the user queue is full.
func (q *InMemoryQueue) Enqueue(ctx context.Context, req model.ValidationRequest) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		metrics.RecordQueueEnqueueError("closed")
		return false
	}

	uq, ok := q.users[req.UserID]
	if !ok {
		uq = &userQueue{ready: make(chan struct{}, 1)}
		q.users[req.UserID] = uq
		select {
		case q.userCh <- req.UserID:
		default:
			// Announcement buffer full; the consumer is far behind or
			// absent. The entries stay queued either way.
			metrics.RecordQueueEnqueueError("announce_overflow")
		}
	}

	var dropped *model.ValidationRequest
	uq.mu.Lock()
	if len(uq.entries) >= q.perUserCapacity {
		d := uq.entries[0].Request
		uq.entries = uq.entries[1:]
		dropped = &d
		delete(q.index, d.RequestID)
	}
	entry := Entry{Seq: q.seq.Add(1), Request: req}
	uq.entries = append(uq.entries, entry)
	q.index[req.RequestID] = req.UserID
	uq.mu.Unlock()

	// Signal the user's worker without blocking.
	select {
	case uq.ready <- struct{}{}:
	default:
	}
	q.mu.Unlock()

	metrics.RecordQueueEnqueue()
	if dropped != nil {
		metrics.RecordQueueDrop()
		if q.onDrop != nil {
			q.onDrop(*dropped)
		}
	}
	return true
}

// DequeueNext removes and returns the oldest pending entry for userID.
func (q *InMemoryQueue) DequeueNext(ctx context.Context, userID string) (Entry, bool) {
	q.mu.RLock()
	uq, ok := q.users[userID]
	q.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}

	uq.mu.Lock()
	if len(uq.entries) == 0 {
		uq.mu.Unlock()
		return Entry{}, false
	}
	entry := uq.entries[0]
	uq.entries = uq.entries[1:]
	uq.mu.Unlock()

	q.mu.Lock()
	delete(q.index, entry.Request.RequestID)
	q.mu.Unlock()

	metrics.RecordQueueDequeue()
	return entry, true
}

// Cancel removes a still-queued request by identifier.
func (q *InMemoryQueue) Cancel(ctx context.Context, requestID string) bool {
	q.mu.Lock()
	userID, ok := q.index[requestID]
	if !ok {
		q.mu.Unlock()
		return false
	}
	uq := q.users[userID]
	delete(q.index, requestID)
	q.mu.Unlock()

	uq.mu.Lock()
	defer uq.mu.Unlock()
	for i, e := range uq.entries {
		if e.Request.RequestID == requestID {
			uq.entries = append(uq.entries[:i], uq.entries[i+1:]...)
			metrics.RecordQueueCancel()
			return true
		}
	}
	return false
}

// Ready returns the user's signal channel, creating the user queue if it
// does not exist yet.
func (q *InMemoryQueue) Ready(userID string) <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	uq, ok := q.users[userID]
	if !ok {
		uq = &userQueue{ready: make(chan struct{}, 1)}
		q.users[userID] = uq
	}
	return uq.ready
}

// Users returns the channel announcing newly seen user ids.
func (q *InMemoryQueue) Users(ctx context.Context) <-chan string {
	return q.userCh
}

// Len returns the number of queued entries for one user.
func (q *InMemoryQueue) Len(ctx context.Context, userID string) int {
	q.mu.RLock()
	uq, ok := q.users[userID]
	q.mu.RUnlock()
	if !ok {
		return 0
	}
	uq.mu.Lock()
	defer uq.mu.Unlock()
	return len(uq.entries)
}

// TotalLen returns the number of queued entries across all users.
func (q *InMemoryQueue) TotalLen(ctx context.Context) int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	total := 0
	for _, uq := range q.users {
		uq.mu.Lock()
		total += len(uq.entries)
		uq.mu.Unlock()
	}
	return total
}

// Close shuts the queue down and closes all signal channels.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.userCh)
	for _, uq := range q.users {
		close(uq.ready)
	}
	return nil
}

// IsClosed reports whether the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
