// Package reconcile merges validation outcomes into persisted per-user
// progress, idempotently.
//
// Each request identifier is applied at most once: the reconciler keeps a
// bounded, time-windowed set of already-applied IDs so duplicate
// deliveries caused by at-least-once redelivery are silently absorbed.
// Network retries must never inflate a user's score.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/sahajlabs/mudra/internal/domain/dedupe"
	"github.com/sahajlabs/mudra/internal/domain/model"
	"github.com/sahajlabs/mudra/pkg/logger"
	"github.com/sahajlabs/mudra/pkg/metrics"
)

// Store is the persistence collaborator. Get and Upsert are atomic per
// key; per-user worker serialization guarantees no concurrent mutation of
// the same record.
type Store interface {
	Get(ctx context.Context, userID, moduleID, signID string) (model.ProgressRecord, error)
	Upsert(ctx context.Context, record model.ProgressRecord) error
}

// Option applies a configuration option to the Reconciler.
type Option func(*Reconciler)

// WithDeduper sets the applied-request-id tracker.
func WithDeduper(d dedupe.Deduper) Option {
	return func(r *Reconciler) {
		if d != nil {
			r.applied = d
		}
	}
}

// WithCompletionThreshold sets the accuracy at which a sign completes.
func WithCompletionThreshold(t float64) Option {
	return func(r *Reconciler) {
		if t > 0 && t <= 1 {
			r.completionThreshold = t
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// Default reconciler configuration constants.
const defaultCompletionThreshold = 0.9

// Reconciler applies validation results to progress records.
type Reconciler struct {
	store               Store
	applied             dedupe.Deduper
	completionThreshold float64
	now                 func() time.Time
	logger              logger.Logger
}

// New creates a reconciler over the given store.
func New(store Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:               store,
		applied:             dedupe.NewInMemoryDeduper(),
		completionThreshold: defaultCompletionThreshold,
		now:                 time.Now,
		logger:              logger.Get().Named("reconcile"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply merges one result into the (user, module, sign) progress record.
// The returned bool is false when the request id was already applied and
// the call was absorbed as a duplicate.
func (r *Reconciler) Apply(ctx context.Context, req model.ValidationRequest, res model.ValidationResult) (model.ProgressRecord, bool, error) {
	if r.applied.SeenAndRecord(ctx, req.RequestID) {
		metrics.RecordReconcileDuplicate()
		r.logger.Debug(ctx, "duplicate delivery absorbed",
			logger.String("requestID", req.RequestID),
			logger.String("userID", req.UserID),
		)
		rec, err := r.store.Get(ctx, req.UserID, req.ModuleID, req.SignID)
		if err != nil {
			// Duplicate of a request whose record is gone; nothing to do.
			return model.ProgressRecord{}, false, nil
		}
		return rec, false, nil
	}

	rec, err := r.store.Get(ctx, req.UserID, req.ModuleID, req.SignID)
	if err != nil {
		rec = model.ProgressRecord{
			UserID:   req.UserID,
			ModuleID: req.ModuleID,
			SignID:   req.SignID,
		}
	}

	rec.Attempts++
	rec.LastAttempt = r.now()
	accuracy := res.Confidence
	if accuracy > rec.BestAccuracy {
		rec.BestAccuracy = accuracy
	}
	if res.Correct {
		rec.SuccessfulAttempts++
		if accuracy >= r.completionThreshold {
			rec.Completed = true
		}
	}

	if err := r.store.Upsert(ctx, rec); err != nil {
		// Roll back the applied mark so a redelivery can apply cleanly.
		r.applied.Unrecord(ctx, req.RequestID)
		return model.ProgressRecord{}, false, fmt.Errorf("persist progress for %s: %w", req.RequestID, err)
	}

	metrics.RecordReconcileApply()
	return rec, true, nil
}

// AppliedSize returns the number of request IDs in the idempotency window.
func (r *Reconciler) AppliedSize() int64 {
	return r.applied.Size()
}
