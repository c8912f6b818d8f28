package repository

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/sahajlabs/mudra/internal/domain/model"
	"github.com/sahajlabs/mudra/pkg/metrics"
)

// Default shard store configuration constants.
const (
	defaultShardCount = 8
)

// Option applies a configuration option to the ShardStore.
type Option func(*ShardStore)

// WithShardCount sets the number of shards.
func WithShardCount(n int) Option {
	return func(s *ShardStore) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// shard holds one partition of the record map with its own lock. Progress
// records are partitioned by user, so concurrent reconciliation across
// different users never contends on the same shard entry.
type shard struct {
	mu      sync.RWMutex
	records map[string]model.ProgressRecord
}

// ShardStore implements Store with sharded in-memory maps.
type ShardStore struct {
	shardCount int
	shards     []*shard
}

// NewShardStore creates a sharded in-memory progress store.
func NewShardStore(ctx context.Context, opts ...Option) *ShardStore {
	s := &ShardStore{
		shardCount: defaultShardCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{records: make(map[string]model.ProgressRecord)}
	}
	return s
}

// Get returns the record for (user, module, sign) or ErrNotFound.
func (s *ShardStore) Get(ctx context.Context, userID, moduleID, signID string) (model.ProgressRecord, error) {
	key := recordKey(userID, moduleID, signID)
	sh := s.shardFor(key)

	sh.mu.RLock()
	defer sh.mu.RUnlock()
	rec, ok := sh.records[key]
	if !ok {
		return model.ProgressRecord{}, ErrNotFound
	}
	return rec, nil
}

// Upsert stores the record under its (user, module, sign) key.
func (s *ShardStore) Upsert(ctx context.Context, record model.ProgressRecord) error {
	key := recordKey(record.UserID, record.ModuleID, record.SignID)
	sh := s.shardFor(key)

	sh.mu.Lock()
	_, existed := sh.records[key]
	sh.records[key] = record
	sh.mu.Unlock()

	if !existed {
		metrics.UpdateProgressRecords(s.Count(ctx))
	}
	return nil
}

// Count returns the total number of records across all shards.
func (s *ShardStore) Count(ctx context.Context) int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.records)
		sh.mu.RUnlock()
	}
	return total
}

func (s *ShardStore) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[int(h.Sum32())%s.shardCount]
}

func recordKey(userID, moduleID, signID string) string {
	return userID + "\x00" + moduleID + "\x00" + signID
}
