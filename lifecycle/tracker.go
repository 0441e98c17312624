// Package lifecycle tracks the status of every shard of a manager and owns the
// process shutdown hook.
package lifecycle

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/getpup/shardmanager"
	"github.com/getpup/shardmanager/metrics"
	"github.com/getpup/shardmanager/store"
)

// Config holds configuration for the Tracker.
type Config struct {
	// ManagerID identifies the manager instance in persisted records (required when Store is set).
	ManagerID string

	// Store persists every transition (optional).
	Store store.ShardStore

	// Metrics receives the shard status gauge (optional).
	Metrics *metrics.Collector

	// Logger is for observability (optional).
	Logger shardmanager.Logger

	// Now returns the current time (default: time.Now).
	Now func() time.Time
}

type entry struct {
	status    shardmanager.Status
	updatedAt time.Time
}

// Tracker records the lifecycle status of shards.
// It is safe for concurrent use.
type Tracker struct {
	config Config

	// writeMu orders transitions so the store sees them in tracker order.
	writeMu sync.Mutex

	mu          sync.RWMutex
	shards      map[int]entry
	shardsTotal int
	gatewayURL  string
}

// NewTracker creates a Tracker. Applies the default clock if not set.
func NewTracker(cfg Config) *Tracker {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Tracker{
		config:      cfg,
		shards:      make(map[int]entry),
		shardsTotal: shardmanager.UnknownShardsTotal,
	}
}

// SetGateway sets the shard total and gateway URL written into subsequent records.
func (t *Tracker) SetGateway(shardsTotal int, gatewayURL string) {
	t.mu.Lock()
	t.shardsTotal = shardsTotal
	t.gatewayURL = gatewayURL
	t.mu.Unlock()
}

// Transition moves a shard to status. cause is the error that triggered the
// transition, if any. Store failures are logged and otherwise ignored.
func (t *Tracker) Transition(ctx context.Context, shardID int, status shardmanager.Status, cause error) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	now := t.config.Now()

	t.mu.Lock()
	prev, known := t.shards[shardID]
	t.shards[shardID] = entry{status: status, updatedAt: now}
	total, url := t.shardsTotal, t.gatewayURL
	t.mu.Unlock()

	if t.config.Logger != nil {
		keyvals := []interface{}{"shardID", shardID, "status", status}
		if known {
			keyvals = append(keyvals, "previous", prev.status)
		}
		if cause != nil {
			keyvals = append(keyvals, "error", cause)
		}
		t.config.Logger.Debug(ctx, "shard status changed", keyvals...)
	}

	if t.config.Metrics != nil {
		t.config.Metrics.SetShardStatus(shardID, string(status), statusNames())
	}

	if t.config.Store == nil {
		return
	}

	rec := shardmanager.ShardRecord{
		ManagerID:   t.config.ManagerID,
		ShardID:     shardID,
		Status:      status,
		ShardsTotal: total,
		GatewayURL:  url,
		UpdatedAt:   now,
	}
	if cause != nil {
		rec.LastError = cause.Error()
	}

	if err := t.config.Store.SaveShard(ctx, rec); err != nil && t.config.Logger != nil {
		t.config.Logger.Error(ctx, "failed to persist shard status", "shardID", shardID, "status", status, "error", err)
	}
}

// Status returns the last status recorded for a shard.
func (t *Tracker) Status(shardID int) (shardmanager.Status, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.shards[shardID]
	return e.status, ok
}

// UpdatedAt returns when the shard last changed status.
func (t *Tracker) UpdatedAt(shardID int) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.shards[shardID]
	return e.updatedAt, ok
}

// Forget drops a shard from the tracker.
func (t *Tracker) Forget(shardID int) {
	t.mu.Lock()
	delete(t.shards, shardID)
	t.mu.Unlock()
}

// IDs returns the tracked shard ids in ascending order.
func (t *Tracker) IDs() []int {
	t.mu.RLock()
	ids := make([]int, 0, len(t.shards))
	for id := range t.shards {
		ids = append(ids, id)
	}
	t.mu.RUnlock()

	sort.Ints(ids)
	return ids
}

func statusNames() []string {
	names := make([]string, len(shardmanager.Statuses))
	for i, s := range shardmanager.Statuses {
		names[i] = string(s)
	}
	return names
}
