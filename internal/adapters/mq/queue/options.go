// Package queue defines the contract for enqueuing and consuming
// validation requests.
package queue

import "github.com/sahajlabs/mudra/internal/domain/model"

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithPerUserCapacity bounds each user's FIFO. When a user queue is full
// the oldest pending request is dropped to admit the newest.
func WithPerUserCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.perUserCapacity = capacity
		}
	}
}

// WithDropHandler registers a callback invoked with each request dropped
// by the overflow policy, so its pending resolution can be completed with
// a user-visible error.
func WithDropHandler(fn func(model.ValidationRequest)) Option {
	return func(q *InMemoryQueue) {
		q.onDrop = fn
	}
}
