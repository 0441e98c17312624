package shardmanager

import (
	"context"
	"sync"

	"github.com/getpup/shardmanager/pool"
)

// Logger is the logging contract used across the module.
// Arguments after msg are alternating key/value pairs.
type Logger interface {
	Debug(ctx context.Context, msg string, keyvals ...interface{})
	Info(ctx context.Context, msg string, keyvals ...interface{})
	Error(ctx context.Context, msg string, keyvals ...interface{})
}

// Session is a live connection for one shard, as produced by a Connector.
type Session interface {
	// ShardID returns the shard the session serves.
	ShardID() int

	// Shutdown closes the session gracefully.
	Shutdown(ctx context.Context) error

	// ShutdownNow drops the session immediately.
	ShutdownNow() error
}

// SessionConfig is everything a Connector needs to build and log in one shard.
type SessionConfig struct {
	ShardID     int
	ShardsTotal int
	GatewayURL  string

	Pools      pool.Set
	Intents    Intents
	CacheFlags CacheFlags
	Chunking   ChunkingPolicy
	Presence   Presence
	Listeners  []Listener
}

// Connector builds a session and performs its login handshake.
// Implementations must return an error wrapping ErrAuthentication when the remote
// service rejects the credentials, and must abandon the handshake when ctx is done.
type Connector interface {
	BuildAndLogin(ctx context.Context, cfg SessionConfig) (Session, error)
}

// Discoverer learns the gateway entry point and recommended shard total.
type Discoverer interface {
	DiscoverGateway(ctx context.Context) (GatewayInfo, error)
}

// ShardSession is a running shard together with the pools it was built on.
type ShardSession struct {
	id      int
	session Session
	pools   pool.Set

	closeOnce sync.Once
	closeErr  error
}

// NewShardSession wraps a session and the pools resolved for it.
func NewShardSession(id int, session Session, pools pool.Set) *ShardSession {
	return &ShardSession{
		id:      id,
		session: session,
		pools:   pools,
	}
}

// ID returns the shard id.
func (s *ShardSession) ID() int {
	return s.id
}

// Session returns the underlying session.
func (s *ShardSession) Session() Session {
	return s.session
}

// Pools returns the pools the session runs on.
func (s *ShardSession) Pools() pool.Set {
	return s.pools
}

// OwnedPools returns the kinds of pools released when the session closes.
func (s *ShardSession) OwnedPools() []pool.Kind {
	return s.pools.Owned()
}

// Close shuts the session down, gracefully unless immediate is set, then releases
// the pools it owns. Only the first call has any effect.
func (s *ShardSession) Close(ctx context.Context, immediate bool) error {
	s.closeOnce.Do(func() {
		if s.session != nil {
			if immediate {
				s.closeErr = s.session.ShutdownNow()
			} else {
				s.closeErr = s.session.Shutdown(ctx)
			}
		}
		s.pools.Release()
	})
	return s.closeErr
}
