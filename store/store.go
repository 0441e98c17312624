package store

import (
	"context"

	"github.com/getpup/shardmanager"
)

// ShardStore persists the last known status of the shards of a manager instance.
// Implementations must be safe for concurrent access.
type ShardStore interface {
	// SaveShard inserts or replaces the record for (rec.ManagerID, rec.ShardID).
	// A zero UpdatedAt is set to the current time.
	SaveShard(ctx context.Context, rec shardmanager.ShardRecord) error

	// GetShard returns the record for a shard.
	// Returns ErrShardNotFound if no record exists.
	GetShard(ctx context.Context, managerID string, shardID int) (shardmanager.ShardRecord, error)

	// ListShards returns every record of a manager ordered by shard id.
	// Returns an empty slice if none exist.
	ListShards(ctx context.Context, managerID string) ([]shardmanager.ShardRecord, error)

	// DeleteShards removes every record of a manager.
	DeleteShards(ctx context.Context, managerID string) error
}
