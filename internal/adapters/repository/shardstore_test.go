package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sahajlabs/mudra/internal/domain/model"
)

func record(userID, moduleID, signID string, attempts int) model.ProgressRecord {
	return model.ProgressRecord{
		UserID:   userID,
		ModuleID: moduleID,
		SignID:   signID,
		Attempts: attempts,
	}
}

func TestShardStore_GetMissing(t *testing.T) {
	ctx := context.Background()
	s := NewShardStore(ctx)

	_, err := s.Get(ctx, "learner-1", "isl-demo", "letter_a")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestShardStore_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewShardStore(ctx)

	if err := s.Upsert(ctx, record("learner-1", "isl-demo", "letter_a", 3)); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	rec, err := s.Get(ctx, "learner-1", "isl-demo", "letter_a")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if rec.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", rec.Attempts)
	}

	// Overwrite the same key.
	if err := s.Upsert(ctx, record("learner-1", "isl-demo", "letter_a", 4)); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	rec, err = s.Get(ctx, "learner-1", "isl-demo", "letter_a")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if rec.Attempts != 4 {
		t.Errorf("expected 4 attempts after overwrite, got %d", rec.Attempts)
	}
	if got := s.Count(ctx); got != 1 {
		t.Errorf("overwrite must not create a new record, count %d", got)
	}
}

func TestShardStore_KeysAreDistinct(t *testing.T) {
	ctx := context.Background()
	s := NewShardStore(ctx)

	// Same concatenated text, different field boundaries.
	_ = s.Upsert(ctx, record("ab", "c", "d", 1))
	_ = s.Upsert(ctx, record("a", "bc", "d", 2))
	_ = s.Upsert(ctx, record("a", "b", "cd", 3))

	if got := s.Count(ctx); got != 3 {
		t.Fatalf("expected 3 distinct records, got %d", got)
	}
	rec, err := s.Get(ctx, "a", "bc", "d")
	if err != nil || rec.Attempts != 2 {
		t.Errorf("field boundaries must be part of the key: %+v, %v", rec, err)
	}
}

func TestShardStore_ConcurrentUpserts(t *testing.T) {
	ctx := context.Background()
	s := NewShardStore(ctx, WithShardCount(4))

	const users = 16
	const signs = 20
	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		wg.Add(1)
		go func(u int) {
			defer wg.Done()
			for i := 0; i < signs; i++ {
				rec := record(fmt.Sprintf("learner-%d", u), "isl-demo", fmt.Sprintf("sign-%d", i), i)
				if err := s.Upsert(ctx, rec); err != nil {
					t.Errorf("upsert failed: %v", err)
				}
			}
		}(u)
	}
	wg.Wait()

	if got := s.Count(ctx); got != users*signs {
		t.Errorf("expected %d records, got %d", users*signs, got)
	}
}
