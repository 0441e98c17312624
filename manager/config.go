package manager

import (
	"fmt"
	"sort"
	"time"

	"github.com/getpup/shardmanager"
	"github.com/getpup/shardmanager/pool"
	"github.com/getpup/shardmanager/store"
	"github.com/google/uuid"
)

// RetryPolicy controls how long the worker waits before retrying a shard whose
// build failed with a transient error. Failed ids are never dropped.
type RetryPolicy struct {
	// InitialInterval is the first wait (default: 1s). A negative value retries immediately.
	InitialInterval time.Duration

	// MaxInterval caps the wait (default: 1m).
	MaxInterval time.Duration

	// Multiplier grows the wait after each consecutive failure (default: 2).
	Multiplier float64
}

// Immediate reports whether failed builds are retried without waiting.
func (p RetryPolicy) Immediate() bool {
	return p.InitialInterval < 0
}

// Config holds configuration for the shard Manager.
type Config struct {
	// Name labels metrics and the shutdown hook (default: "shardmanager").
	Name string

	// ID identifies this manager instance in persisted records (default: random UUID).
	ID string

	// ShardsTotal is the total shard count. Zero or UnknownShardsTotal means the
	// total is discovered from the remote service on the first connect.
	ShardsTotal int

	// ShardIDs restricts the manager to a subset of shards (optional).
	// Requires a known ShardsTotal.
	ShardIDs []int

	// Connector builds and logs in sessions (required).
	Connector shardmanager.Connector

	// Discoverer learns the gateway entry point (required).
	Discoverer shardmanager.Discoverer

	// PoolProviders supplies per-kind task pools. Kinds without a provider share
	// one default executor owned by the manager.
	PoolProviders map[pool.Kind]pool.Provider

	// DefaultPoolSize bounds each shared default executor (default: 4).
	DefaultPoolSize int

	Intents    shardmanager.Intents
	CacheFlags shardmanager.CacheFlags
	Chunking   shardmanager.ChunkingPolicy
	Presence   shardmanager.Presence

	// CacheIntents maps each cache flag to the intents it needs (optional).
	// Enabling a flag without its intents is rejected by Validate.
	CacheIntents map[shardmanager.CacheFlags]shardmanager.Intents

	// Listeners create the listeners of each session (optional).
	Listeners []shardmanager.ListenerFactory

	// ShutdownHook registers a SIGINT/SIGTERM hook on Login that shuts the manager down.
	ShutdownHook bool

	// ImmediateShutdown drops sessions instead of closing them gracefully.
	ImmediateShutdown bool

	// ShutdownTimeout bounds each graceful session shutdown (default: 10s).
	ShutdownTimeout time.Duration

	// LoginInterval is the minimum delay between two shard logins (default: 5s).
	// A negative value disables the limit.
	LoginInterval time.Duration

	// Retry controls waits between retries of a failed shard.
	Retry RetryPolicy

	// Store persists shard statuses (optional).
	Store store.ShardStore

	// Logger is for observability (optional).
	Logger shardmanager.Logger

	// MetricsEnabled enables Prometheus metrics collection (default: true).
	// Set to false explicitly to disable metrics.
	MetricsEnabled *bool
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "shardmanager"
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.ShardsTotal == 0 {
		c.ShardsTotal = shardmanager.UnknownShardsTotal
	}
	if c.DefaultPoolSize == 0 {
		c.DefaultPoolSize = 4
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.LoginInterval == 0 {
		c.LoginInterval = 5 * time.Second
	}
	if c.Retry.InitialInterval == 0 {
		c.Retry.InitialInterval = time.Second
	}
	if c.Retry.MaxInterval == 0 {
		c.Retry.MaxInterval = time.Minute
	}
	if c.Retry.Multiplier == 0 {
		c.Retry.Multiplier = 2
	}

	if len(c.ShardIDs) > 0 {
		ids := make([]int, len(c.ShardIDs))
		copy(ids, c.ShardIDs)
		sort.Ints(ids)
		c.ShardIDs = ids
	}
}

// Validate checks the configuration without any network activity.
// Defaults are applied to a copy first. Errors wrap shardmanager.ErrInvalidConfig
// or shardmanager.ErrInvalidShardID.
func (c Config) Validate() error {
	c.applyDefaults()

	if c.Connector == nil {
		return fmt.Errorf("%w: connector is required", shardmanager.ErrInvalidConfig)
	}
	if c.Discoverer == nil {
		return fmt.Errorf("%w: discoverer is required", shardmanager.ErrInvalidConfig)
	}

	if c.ShardsTotal != shardmanager.UnknownShardsTotal && c.ShardsTotal <= 0 {
		return fmt.Errorf("%w: shards total must be positive or %d, got %d",
			shardmanager.ErrInvalidConfig, shardmanager.UnknownShardsTotal, c.ShardsTotal)
	}

	if len(c.ShardIDs) > 0 {
		if c.ShardsTotal == shardmanager.UnknownShardsTotal {
			return fmt.Errorf("%w: explicit shard ids require a known shards total", shardmanager.ErrInvalidConfig)
		}
		for _, id := range c.ShardIDs {
			if id < 0 || id >= c.ShardsTotal {
				return fmt.Errorf("%w: %d not in [0, %d)", shardmanager.ErrInvalidShardID, id, c.ShardsTotal)
			}
		}
	}

	for flag, required := range c.CacheIntents {
		if c.CacheFlags&flag == flag && !c.Intents.Has(required) {
			return fmt.Errorf("%w: cache flag %#x requires intents %#x", shardmanager.ErrInvalidConfig, uint64(flag), uint64(required))
		}
	}

	if c.Retry.Multiplier < 1 {
		return fmt.Errorf("%w: retry multiplier must be at least 1", shardmanager.ErrInvalidConfig)
	}
	if !c.Retry.Immediate() && c.Retry.MaxInterval < c.Retry.InitialInterval {
		return fmt.Errorf("%w: retry max interval is below the initial interval", shardmanager.ErrInvalidConfig)
	}

	return nil
}
