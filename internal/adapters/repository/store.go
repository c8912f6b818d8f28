// Package repository defines the progress store interface and errors.
package repository

import (
	"context"

	"github.com/sahajlabs/mudra/internal/domain/model"
)

// Store provides read/write access to per (user, module, sign) progress
// records. Get and Upsert are atomic per key.
type Store interface {
	// Get returns the progress record for a key.
	// Returns ErrNotFound if no record exists.
	Get(ctx context.Context, userID, moduleID, signID string) (model.ProgressRecord, error)

	// Upsert stores the record, replacing any existing record for its key.
	Upsert(ctx context.Context, record model.ProgressRecord) error

	// Count returns the number of progress records tracked.
	Count(ctx context.Context) int
}
