// Package builder constructs and logs in one shard session at a time.
package builder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getpup/shardmanager"
	"github.com/getpup/shardmanager/metrics"
	"github.com/getpup/shardmanager/pool"
)

// State is the manager state a build reads and updates.
type State interface {
	// Gateway returns the cached gateway entry point, if any.
	Gateway() (shardmanager.GatewayInfo, bool)

	// LearnGateway caches a freshly discovered entry point and returns the value
	// builds must use, which is the already cached one if another build won the race.
	LearnGateway(info shardmanager.GatewayInfo) shardmanager.GatewayInfo

	// ShardsTotal returns the current shard total, or UnknownShardsTotal.
	ShardsTotal() int
}

// Config configures the Builder.
type Config struct {
	// Connector performs the login handshake (required).
	Connector shardmanager.Connector

	// Discoverer learns the gateway entry point (required).
	Discoverer shardmanager.Discoverer

	// Pools resolves the task pools of each shard (required).
	Pools *pool.Resolver

	Intents    shardmanager.Intents
	CacheFlags shardmanager.CacheFlags
	Chunking   shardmanager.ChunkingPolicy
	Presence   shardmanager.Presence

	// Listeners are invoked once per build to create the session listeners.
	Listeners []shardmanager.ListenerFactory

	// Metrics is optional.
	Metrics *metrics.Collector

	// Logger is for observability (optional).
	Logger shardmanager.Logger
}

// Builder builds shard sessions. It performs no retries: every call makes at
// most one discovery round trip and one handshake attempt.
type Builder struct {
	config Config
}

// New creates a new Builder with the given configuration.
func New(cfg Config) *Builder {
	return &Builder{
		config: cfg,
	}
}

// Build resolves pools and the gateway entry point for shardID, then builds and
// logs in its session. On failure every pool resolved for the shard is released.
// Errors caused by ctx being done wrap shardmanager.ErrInterrupted.
func (b *Builder) Build(ctx context.Context, shardID int, state State) (*shardmanager.ShardSession, error) {
	started := time.Now()

	gateway, err := b.gateway(ctx, state)
	if err != nil {
		return nil, b.fail(ctx, shardID, err)
	}

	total := state.ShardsTotal()
	if total > 0 && (shardID < 0 || shardID >= total) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", shardmanager.ErrInvalidShardID, shardID, total)
	}

	pools, err := b.config.Pools.Resolve(shardID)
	if err != nil {
		return nil, b.fail(ctx, shardID, fmt.Errorf("failed to resolve pools: %w", err))
	}

	cfg := shardmanager.SessionConfig{
		ShardID:     shardID,
		ShardsTotal: total,
		GatewayURL:  gateway.URL,
		Pools:       pools,
		Intents:     b.config.Intents,
		CacheFlags:  b.config.CacheFlags,
		Chunking:    b.config.Chunking,
		Presence:    b.config.Presence,
		Listeners:   b.listeners(shardID),
	}

	if b.config.Logger != nil {
		b.config.Logger.Debug(ctx, "logging in shard", "shardID", shardID, "shardsTotal", total, "gateway", gateway.URL)
	}

	session, err := b.config.Connector.BuildAndLogin(ctx, cfg)
	if err != nil {
		pools.Release()
		return nil, b.fail(ctx, shardID, err)
	}

	if b.config.Metrics != nil {
		b.config.Metrics.ObserveBuildDuration(time.Since(started).Seconds())
	}

	return shardmanager.NewShardSession(shardID, session, pools), nil
}

func (b *Builder) gateway(ctx context.Context, state State) (shardmanager.GatewayInfo, error) {
	if info, ok := state.Gateway(); ok {
		return info, nil
	}

	info, err := b.config.Discoverer.DiscoverGateway(ctx)
	if err != nil {
		return shardmanager.GatewayInfo{}, fmt.Errorf("failed to discover gateway: %w", err)
	}

	if b.config.Metrics != nil {
		b.config.Metrics.IncGatewayDiscoveries()
	}
	if b.config.Logger != nil {
		b.config.Logger.Info(ctx, "gateway discovered", "url", info.URL, "recommendedShards", info.RecommendedShards)
	}

	return state.LearnGateway(info), nil
}

func (b *Builder) listeners(shardID int) []shardmanager.Listener {
	if len(b.config.Listeners) == 0 {
		return nil
	}

	out := make([]shardmanager.Listener, 0, len(b.config.Listeners))
	for _, factory := range b.config.Listeners {
		if l := factory(shardID); l != nil {
			out = append(out, l)
		}
	}
	return out
}

func (b *Builder) fail(ctx context.Context, shardID int, err error) error {
	if ctx.Err() != nil && !errors.Is(err, shardmanager.ErrInterrupted) {
		err = errors.Join(shardmanager.ErrInterrupted, err)
	}
	return fmt.Errorf("failed to build shard %d: %w", shardID, err)
}
