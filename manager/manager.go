// Package manager brings up, restarts and shuts down the shard sessions of one
// process. Only one shard is ever being built at a time.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/getpup/shardmanager"
	"github.com/getpup/shardmanager/builder"
	"github.com/getpup/shardmanager/lifecycle"
	"github.com/getpup/shardmanager/metrics"
	"github.com/getpup/shardmanager/pool"
	"github.com/getpup/shardmanager/queue"
	"github.com/getpup/shardmanager/registry"
	"golang.org/x/time/rate"
)

// Manager coordinates the shard sessions of a process.
type Manager struct {
	config    Config
	builder   *builder.Builder
	pools     *pool.Resolver
	registry  *registry.Registry[*shardmanager.ShardSession]
	queue     *queue.Queue
	tracker   *lifecycle.Tracker
	collector *metrics.Collector
	limiter   *rate.Limiter
	hook      *lifecycle.Hook

	ctx    context.Context
	cancel context.CancelFunc

	// mu guards the worker flag, the gateway cache, the shard total and login state.
	mu           sync.Mutex
	workerActive bool
	gateway      shardmanager.GatewayInfo
	hasGateway   bool
	shardsTotal  int
	loginStarted bool
	loggedIn     bool

	// buildMu serializes every build.
	buildMu sync.Mutex

	// backoffs is owned by the active worker.
	backoffs map[int]*backoff.ExponentialBackOff

	workers sync.WaitGroup
	closed  atomic.Bool
	done    chan struct{}
}

// New creates a new Manager with the given configuration.
// Applies default values for all zero fields, then validates the result.
func New(cfg Config) (*Manager, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var collector *metrics.Collector
	metricsEnabled := true
	if cfg.MetricsEnabled != nil {
		metricsEnabled = *cfg.MetricsEnabled
	}
	if metricsEnabled {
		collector = metrics.NewCollector(cfg.Name)
	}

	var limiter *rate.Limiter
	if cfg.LoginInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.LoginInterval), 1)
	}

	resolver := pool.NewResolver(cfg.PoolProviders, cfg.DefaultPoolSize)

	tracker := lifecycle.NewTracker(lifecycle.Config{
		ManagerID: cfg.ID,
		Store:     cfg.Store,
		Metrics:   collector,
		Logger:    cfg.Logger,
	})
	tracker.SetGateway(cfg.ShardsTotal, "")

	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		config: cfg,
		builder: builder.New(builder.Config{
			Connector:  cfg.Connector,
			Discoverer: cfg.Discoverer,
			Pools:      resolver,
			Intents:    cfg.Intents,
			CacheFlags: cfg.CacheFlags,
			Chunking:   cfg.Chunking,
			Presence:   cfg.Presence,
			Listeners:  cfg.Listeners,
			Metrics:    collector,
			Logger:     cfg.Logger,
		}),
		pools:       resolver,
		registry:    registry.New[*shardmanager.ShardSession](),
		queue:       queue.New(),
		tracker:     tracker,
		collector:   collector,
		limiter:     limiter,
		ctx:         ctx,
		cancel:      cancel,
		shardsTotal: cfg.ShardsTotal,
		backoffs:    make(map[int]*backoff.ExponentialBackOff),
		done:        make(chan struct{}),
	}

	if cfg.ShutdownHook {
		m.hook = lifecycle.NewHook(cfg.Name+"/"+cfg.ID, m.Shutdown)
	}

	return m, nil
}

// ID returns the manager instance id.
func (m *Manager) ID() string {
	return m.config.ID
}

// Login brings up the first shard synchronously, then starts the worker for the
// remaining ones. The first shard is the lowest requested id, or 0 when the shard
// total is unknown. Any failure shuts the manager down and is returned.
func (m *Manager) Login(ctx context.Context) error {
	if m.closed.Load() {
		return shardmanager.ErrShutdown
	}

	m.mu.Lock()
	if m.loginStarted {
		m.mu.Unlock()
		return shardmanager.ErrAlreadyLoggedIn
	}
	m.loginStarted = true
	m.mu.Unlock()

	m.enqueue(ctx, m.initialIDs())

	first, ok := m.firstShard()
	if !ok {
		m.Shutdown()
		return fmt.Errorf("%w: no shards to start", shardmanager.ErrInvalidConfig)
	}

	if m.config.Logger != nil {
		m.config.Logger.Info(ctx, "logging in", "managerID", m.config.ID, "shardsTotal", m.ShardsTotal(), "firstShard", first)
	}

	buildCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(m.ctx, cancel)
	defer stop()

	if err := m.waitLoginSlot(buildCtx); err != nil {
		m.Shutdown()
		return fmt.Errorf("failed to log in shard %d: %w", first, errors.Join(shardmanager.ErrInterrupted, err))
	}

	if err := m.buildAndInstall(buildCtx, first); err != nil {
		m.Shutdown()
		return err
	}

	if m.hook != nil {
		if err := m.hook.Register(); err != nil && m.config.Logger != nil {
			m.config.Logger.Error(ctx, "failed to register shutdown hook", "error", err)
		}
	}

	m.mu.Lock()
	m.loggedIn = true
	m.mu.Unlock()

	m.trigger()
	return nil
}

func (m *Manager) initialIDs() []int {
	if len(m.config.ShardIDs) > 0 {
		return m.config.ShardIDs
	}

	total := m.ShardsTotal()
	if total == shardmanager.UnknownShardsTotal {
		return []int{0}
	}

	ids := make([]int, total)
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// firstShard returns 0 while the total is unknown, otherwise the lowest queued id.
func (m *Manager) firstShard() (int, bool) {
	if m.ShardsTotal() == shardmanager.UnknownShardsTotal {
		return 0, true
	}

	queued := m.queue.Snapshot()
	if len(queued) == 0 {
		return 0, false
	}
	first := queued[0]
	for _, id := range queued[1:] {
		if id < first {
			first = id
		}
	}
	return first, true
}

// Start queues a shard for startup. It is a no-op for a running shard.
// Before Login the id is only queued; Login starts it.
func (m *Manager) Start(id int) error {
	if m.closed.Load() {
		return shardmanager.ErrShutdown
	}
	if err := m.validateID(id); err != nil {
		return err
	}

	m.mu.Lock()
	if _, running := m.registry.Get(id); running {
		m.mu.Unlock()
		return nil
	}
	m.enqueue(m.ctx, []int{id})
	m.mu.Unlock()

	if m.closed.Load() {
		m.queue.Remove(id)
		return shardmanager.ErrShutdown
	}

	m.trigger()
	return nil
}

// Restart closes the session of a shard, if any, and queues the shard again.
func (m *Manager) Restart(ctx context.Context, id int) error {
	if m.closed.Load() {
		return shardmanager.ErrShutdown
	}
	if err := m.validateID(id); err != nil {
		return err
	}

	if ss, ok := m.registry.Remove(id); ok {
		m.updateGauges()
		m.closeSession(ctx, ss)
		if m.collector != nil {
			m.collector.IncRestarts()
		}
	}

	return m.Start(id)
}

// RestartAll restarts every running shard in ascending id order.
func (m *Manager) RestartAll(ctx context.Context) error {
	if m.closed.Load() {
		return shardmanager.ErrShutdown
	}

	var errs []error
	for _, id := range m.registry.IDs() {
		if err := m.Restart(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("failed to restart shard %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// ShutdownShard closes one shard and stops managing it. Unknown ids are ignored.
func (m *Manager) ShutdownShard(ctx context.Context, id int) {
	m.mu.Lock()
	queued := m.queue.Remove(id)
	ss, running := m.registry.Remove(id)
	m.mu.Unlock()
	if !queued && !running {
		return
	}
	m.updateGauges()

	if running {
		m.closeSession(ctx, ss)
	}
	m.tracker.Forget(id)
}

// Shutdown stops the worker and closes every session and the shared pools.
// Further calls are no-ops. Start, Restart, RestartAll and Login are rejected afterwards.
func (m *Manager) Shutdown() {
	m.shutdown(true)
}

// shutdown tears the manager down. wait is false when called by the worker itself.
func (m *Manager) shutdown(wait bool) {
	if !m.closed.CompareAndSwap(false, true) {
		return
	}

	ctx := context.Background()
	if m.config.Logger != nil {
		m.config.Logger.Info(ctx, "shutting down", "managerID", m.config.ID)
	}

	m.mu.Lock()
	m.cancel()
	m.mu.Unlock()

	if m.hook != nil {
		m.hook.Deregister()
	}

	if wait {
		m.workers.Wait()
	}

	for _, id := range m.queue.Clear() {
		m.tracker.Transition(ctx, id, shardmanager.StatusTerminated, shardmanager.ErrShutdown)
	}

	sessions := m.registry.RemoveAll()
	m.updateGauges()
	ids := make([]int, 0, len(sessions))
	for id := range sessions {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		m.closeSession(ctx, sessions[id])
	}

	m.pools.Close()
	close(m.done)

	if m.config.Logger != nil {
		m.config.Logger.Info(ctx, "shut down", "managerID", m.config.ID)
	}
}

// Done is closed once Shutdown has completed.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// IsShutdown reports whether Shutdown has been called.
func (m *Manager) IsShutdown() bool {
	return m.closed.Load()
}

// QueuedCount returns the number of shards waiting to be started.
func (m *Manager) QueuedCount() int {
	return m.queue.Len()
}

// RunningCount returns the number of registered sessions.
func (m *Manager) RunningCount() int {
	return m.registry.Size()
}

// TotalManaged returns the queued plus running shard count.
func (m *Manager) TotalManaged() int {
	return m.RunningCount() + m.QueuedCount()
}

// ForEach calls fn for every registered session in ascending id order, until fn
// returns false. It iterates a snapshot and never blocks writers.
func (m *Manager) ForEach(fn func(ss *shardmanager.ShardSession) bool) {
	m.registry.ForEach(func(_ int, ss *shardmanager.ShardSession) bool {
		return fn(ss)
	})
}

// Shard returns the session of a running shard.
func (m *Manager) Shard(id int) (*shardmanager.ShardSession, bool) {
	return m.registry.Get(id)
}

// Status returns the lifecycle status of a shard.
func (m *Manager) Status(id int) (shardmanager.Status, bool) {
	return m.tracker.Status(id)
}

// Shards returns a snapshot of every tracked shard sorted by id.
func (m *Manager) Shards() []shardmanager.ShardInfo {
	ids := m.tracker.IDs()
	infos := make([]shardmanager.ShardInfo, 0, len(ids))
	for _, id := range ids {
		status, ok := m.tracker.Status(id)
		if !ok {
			continue
		}
		info := shardmanager.ShardInfo{ID: id, Status: status}
		info.UpdatedAt, _ = m.tracker.UpdatedAt(id)
		if ss, running := m.registry.Get(id); running {
			info.OwnedPools = ss.OwnedPools()
		}
		infos = append(infos, info)
	}
	return infos
}

// ShardsTotal returns the shard total, or UnknownShardsTotal before discovery.
func (m *Manager) ShardsTotal() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shardsTotal
}

func (m *Manager) validateID(id int) error {
	if id < 0 {
		return fmt.Errorf("%w: %d", shardmanager.ErrInvalidShardID, id)
	}
	if total := m.ShardsTotal(); total != shardmanager.UnknownShardsTotal && id >= total {
		return fmt.Errorf("%w: %d not in [0, %d)", shardmanager.ErrInvalidShardID, id, total)
	}
	return nil
}

func (m *Manager) enqueue(ctx context.Context, ids []int) {
	added := m.queue.EnqueueAll(ids)
	for _, id := range added {
		m.tracker.Transition(ctx, id, shardmanager.StatusQueued, nil)
	}
	if len(added) > 0 {
		m.updateGauges()
	}
}

// buildAndInstall builds one shard and registers it. Holding buildMu keeps
// builds single-flight across Login and the worker.
func (m *Manager) buildAndInstall(ctx context.Context, id int) error {
	m.buildMu.Lock()
	defer m.buildMu.Unlock()

	m.tracker.Transition(ctx, id, shardmanager.StatusConnecting, nil)

	ss, err := m.safeBuild(ctx, id)
	if err != nil {
		if m.collector != nil {
			m.collector.IncBuildFailure(failureReason(err))
		}
		return err
	}

	if m.collector != nil {
		m.collector.IncBuilds()
	}
	return m.install(ss)
}

func (m *Manager) safeBuild(ctx context.Context, id int) (ss *shardmanager.ShardSession, err error) {
	defer func() {
		if r := recover(); r != nil {
			ss = nil
			err = fmt.Errorf("panic while building shard %d: %v", id, r)
		}
	}()
	return m.builder.Build(ctx, id, buildState{m})
}

// install registers a built session. The session is closed instead when the
// manager was shut down or the shard was dropped from the queue while it was
// being built.
func (m *Manager) install(ss *shardmanager.ShardSession) error {
	id := ss.ID()

	m.mu.Lock()
	if m.closed.Load() {
		m.mu.Unlock()
		_ = ss.Close(context.Background(), true)
		m.tracker.Transition(context.Background(), id, shardmanager.StatusTerminated, shardmanager.ErrShutdown)
		return fmt.Errorf("failed to install shard %d: %w", id, shardmanager.ErrInterrupted)
	}
	if !m.queue.Contains(id) || !m.registry.PutIfAbsent(id, ss) {
		m.mu.Unlock()
		m.discard(ss)
		return nil
	}
	m.queue.Remove(id)
	m.mu.Unlock()

	m.tracker.Transition(m.ctx, id, shardmanager.StatusConnected, nil)
	m.updateGauges()

	if m.config.Logger != nil {
		m.config.Logger.Info(m.ctx, "shard connected", "shardID", id, "ownedPools", ss.OwnedPools())
	}
	return nil
}

// discard closes a session built for a shard that is no longer wanted.
func (m *Manager) discard(ss *shardmanager.ShardSession) {
	ctx := context.Background()
	if m.config.Logger != nil {
		m.config.Logger.Info(ctx, "discarding shard stopped during build", "shardID", ss.ID())
	}
	_ = ss.Close(ctx, true)
	m.tracker.Transition(ctx, ss.ID(), shardmanager.StatusTerminated, nil)
	m.tracker.Forget(ss.ID())
}

func (m *Manager) closeSession(ctx context.Context, ss *shardmanager.ShardSession) {
	m.tracker.Transition(ctx, ss.ID(), shardmanager.StatusShuttingDown, nil)

	closeCtx, cancel := context.WithTimeout(ctx, m.config.ShutdownTimeout)
	err := ss.Close(closeCtx, m.config.ImmediateShutdown)
	cancel()

	if err != nil && m.config.Logger != nil {
		m.config.Logger.Error(ctx, "failed to close shard session", "shardID", ss.ID(), "error", err)
	}
	m.tracker.Transition(ctx, ss.ID(), shardmanager.StatusTerminated, err)
}

func (m *Manager) waitLoginSlot(ctx context.Context) error {
	if m.limiter == nil {
		return nil
	}
	return m.limiter.Wait(ctx)
}

func (m *Manager) updateGauges() {
	if m.collector == nil {
		return
	}
	m.collector.SetQueued(m.queue.Len())
	m.collector.SetRunning(m.registry.Size())
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, shardmanager.ErrAuthentication):
		return metrics.ReasonAuth
	case errors.Is(err, shardmanager.ErrInvalidConfig):
		return metrics.ReasonConfig
	case errors.Is(err, shardmanager.ErrInterrupted):
		return metrics.ReasonInterrupted
	default:
		return metrics.ReasonTransient
	}
}

// buildState exposes the gateway cache to the builder.
type buildState struct {
	m *Manager
}

func (s buildState) Gateway() (shardmanager.GatewayInfo, bool) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.gateway, s.m.hasGateway
}

// LearnGateway caches info. The first time the shard total is learned, every
// shard that is not already running is queued.
func (s buildState) LearnGateway(info shardmanager.GatewayInfo) shardmanager.GatewayInfo {
	m := s.m

	m.mu.Lock()
	if m.hasGateway {
		cached := m.gateway
		m.mu.Unlock()
		return cached
	}
	m.gateway = info
	m.hasGateway = true

	var learned []int
	if m.shardsTotal == shardmanager.UnknownShardsTotal && info.RecommendedShards > 0 {
		m.shardsTotal = info.RecommendedShards
		for id := 0; id < m.shardsTotal; id++ {
			if _, running := m.registry.Get(id); !running {
				learned = append(learned, id)
			}
		}
	}
	total := m.shardsTotal
	m.mu.Unlock()

	m.tracker.SetGateway(total, info.URL)
	if len(learned) > 0 {
		if m.config.Logger != nil {
			m.config.Logger.Info(m.ctx, "shards total learned", "shardsTotal", total)
		}
		m.enqueue(m.ctx, learned)
	}
	return info
}

func (s buildState) ShardsTotal() int {
	return s.m.ShardsTotal()
}

var _ builder.State = buildState{}

// backoffFor returns the retry backoff of a shard, creating it on first use.
func (m *Manager) backoffFor(id int) *backoff.ExponentialBackOff {
	if b, ok := m.backoffs[id]; ok {
		return b
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.config.Retry.InitialInterval
	b.MaxInterval = m.config.Retry.MaxInterval
	b.Multiplier = m.config.Retry.Multiplier
	b.MaxElapsedTime = 0
	b.Reset()

	m.backoffs[id] = b
	return b
}

// sleep waits for d or until the manager shuts down.
func (m *Manager) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-m.ctx.Done():
		return false
	}
}
