package shardmanager

import (
	"context"
	"time"

	"github.com/getpup/shardmanager/pool"
)

// UnknownShardsTotal marks a shard total that is discovered from the remote service
// on the first connect.
const UnknownShardsTotal = -1

// Status represents the lifecycle state of a shard session.
type Status string

const (
	// StatusQueued indicates the shard is waiting in the queue to be (re)started.
	StatusQueued Status = "queued"

	// StatusConnecting indicates the shard is being built and logged in.
	StatusConnecting Status = "connecting"

	// StatusConnected indicates the shard completed its handshake and is registered.
	StatusConnected Status = "connected"

	// StatusShuttingDown indicates the shard session is being closed.
	StatusShuttingDown Status = "shutting_down"

	// StatusTerminated indicates the shard session is closed.
	StatusTerminated Status = "terminated"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusQueued, StatusConnecting, StatusConnected, StatusShuttingDown, StatusTerminated}

// GatewayInfo is the entry point learned from the remote service,
// shared by every shard of a drain burst.
type GatewayInfo struct {
	// URL is the connection target for shard sessions.
	URL string

	// RecommendedShards is the shard total suggested by the remote service.
	RecommendedShards int
}

// Intents is the gateway intent bitmask forwarded to every session.
type Intents uint64

// Has reports whether all bits of other are set.
func (i Intents) Has(other Intents) bool {
	return i&other == other
}

// CacheFlags is the entity cache bitmask forwarded to every session.
type CacheFlags uint64

// ChunkingPolicy controls member chunking for sessions.
type ChunkingPolicy struct {
	// LargeThreshold is the member count above which a guild is considered large.
	LargeThreshold int

	// ChunkOnStartup requests member chunks for every guild at login.
	ChunkOnStartup bool
}

// Presence is the initial presence a session announces at login.
type Presence struct {
	Status   string
	Activity string
	AFK      bool
}

// Listener receives dispatch events from a shard session.
type Listener interface {
	OnEvent(ctx context.Context, shardID int, event string, payload []byte)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, shardID int, event string, payload []byte)

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(ctx context.Context, shardID int, event string, payload []byte) {
	f(ctx, shardID, event, payload)
}

// ListenerFactory creates the listeners injected into the session of one shard.
type ListenerFactory func(shardID int) Listener

// ShardInfo is a point-in-time view of one managed shard.
type ShardInfo struct {
	ID         int
	Status     Status
	OwnedPools []pool.Kind
	UpdatedAt  time.Time
}

// ShardRecord is the persisted status of a shard for a manager instance.
type ShardRecord struct {
	// ManagerID identifies the manager instance owning the shard.
	ManagerID string

	// ShardID is the shard id.
	ShardID int

	// Status is the last recorded lifecycle status.
	Status Status

	// ShardsTotal is the shard total known when the status was recorded (-1 if unknown).
	ShardsTotal int

	// GatewayURL is the cached gateway entry point at the time, if any.
	GatewayURL string

	// LastError is the error message of the last failed transition, if any.
	LastError string

	// UpdatedAt is when the record was written.
	UpdatedAt time.Time
}
