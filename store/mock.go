package store

import (
	"context"
	"sync"

	"github.com/getpup/shardmanager"
)

// MockShardStore is a configurable mock implementation of ShardStore
// for use in tests. It records every call and delegates to the XxxFunc
// fields when they are set.
type MockShardStore struct {
	mu sync.Mutex

	// SaveShardFunc is called by SaveShard if set.
	SaveShardFunc func(ctx context.Context, rec shardmanager.ShardRecord) error

	// GetShardFunc is called by GetShard if set.
	GetShardFunc func(ctx context.Context, managerID string, shardID int) (shardmanager.ShardRecord, error)

	// ListShardsFunc is called by ListShards if set.
	ListShardsFunc func(ctx context.Context, managerID string) ([]shardmanager.ShardRecord, error)

	// DeleteShardsFunc is called by DeleteShards if set.
	DeleteShardsFunc func(ctx context.Context, managerID string) error

	// Call tracking
	SaveShardCalls    []shardmanager.ShardRecord
	GetShardCalls     []GetShardCall
	ListShardsCalls   []string
	DeleteShardsCalls []string
}

// GetShardCall records the parameters of a GetShard call.
type GetShardCall struct {
	ManagerID string
	ShardID   int
}

var _ ShardStore = (*MockShardStore)(nil)

// NewMockShardStore creates a new mock shard store.
func NewMockShardStore() *MockShardStore {
	return &MockShardStore{}
}

// SaveShard implements ShardStore.
func (m *MockShardStore) SaveShard(ctx context.Context, rec shardmanager.ShardRecord) error {
	m.mu.Lock()
	m.SaveShardCalls = append(m.SaveShardCalls, rec)
	m.mu.Unlock()

	if m.SaveShardFunc != nil {
		return m.SaveShardFunc(ctx, rec)
	}
	return nil
}

// GetShard implements ShardStore.
func (m *MockShardStore) GetShard(ctx context.Context, managerID string, shardID int) (shardmanager.ShardRecord, error) {
	m.mu.Lock()
	m.GetShardCalls = append(m.GetShardCalls, GetShardCall{ManagerID: managerID, ShardID: shardID})
	m.mu.Unlock()

	if m.GetShardFunc != nil {
		return m.GetShardFunc(ctx, managerID, shardID)
	}
	return shardmanager.ShardRecord{}, ErrShardNotFound
}

// ListShards implements ShardStore.
func (m *MockShardStore) ListShards(ctx context.Context, managerID string) ([]shardmanager.ShardRecord, error) {
	m.mu.Lock()
	m.ListShardsCalls = append(m.ListShardsCalls, managerID)
	m.mu.Unlock()

	if m.ListShardsFunc != nil {
		return m.ListShardsFunc(ctx, managerID)
	}
	return []shardmanager.ShardRecord{}, nil
}

// DeleteShards implements ShardStore.
func (m *MockShardStore) DeleteShards(ctx context.Context, managerID string) error {
	m.mu.Lock()
	m.DeleteShardsCalls = append(m.DeleteShardsCalls, managerID)
	m.mu.Unlock()

	if m.DeleteShardsFunc != nil {
		return m.DeleteShardsFunc(ctx, managerID)
	}
	return nil
}

// Saved returns a copy of the recorded SaveShard calls.
func (m *MockShardStore) Saved() []shardmanager.ShardRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]shardmanager.ShardRecord, len(m.SaveShardCalls))
	copy(out, m.SaveShardCalls)
	return out
}

// Reset clears the call history.
func (m *MockShardStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveShardCalls = nil
	m.GetShardCalls = nil
	m.ListShardsCalls = nil
	m.DeleteShardsCalls = nil
}
