package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/getpup/shardmanager"
	"github.com/getpup/shardmanager/store"
)

type key struct {
	managerID string
	shardID   int
}

// Store is an in-memory implementation of ShardStore.
// It provides thread-safe access to shard records using a sync.RWMutex.
type Store struct {
	mu      sync.RWMutex
	records map[key]shardmanager.ShardRecord
}

var _ store.ShardStore = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		records: make(map[key]shardmanager.ShardRecord),
	}
}

// SaveShard inserts or replaces the record for (rec.ManagerID, rec.ShardID).
func (s *Store) SaveShard(ctx context.Context, rec shardmanager.ShardRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key{managerID: rec.ManagerID, shardID: rec.ShardID}] = rec
	return nil
}

// GetShard returns the record for a shard.
// Returns store.ErrShardNotFound if no record exists.
func (s *Store) GetShard(ctx context.Context, managerID string, shardID int) (shardmanager.ShardRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key{managerID: managerID, shardID: shardID}]
	if !ok {
		return shardmanager.ShardRecord{}, store.ErrShardNotFound
	}
	return rec, nil
}

// ListShards returns every record of a manager ordered by shard id.
func (s *Store) ListShards(ctx context.Context, managerID string) ([]shardmanager.ShardRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]shardmanager.ShardRecord, 0)
	for k, rec := range s.records {
		if k.managerID == managerID {
			out = append(out, rec)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ShardID < out[j].ShardID
	})
	return out, nil
}

// DeleteShards removes every record of a manager.
func (s *Store) DeleteShards(ctx context.Context, managerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.records {
		if k.managerID == managerID {
			delete(s.records, k)
		}
	}
	return nil
}
