package manager

import (
	"context"
	"errors"

	"github.com/getpup/shardmanager"
)

// trigger starts the worker unless it is already running.
func (m *Manager) trigger() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed.Load() || !m.loggedIn || m.workerActive {
		return
	}

	m.workerActive = true
	m.workers.Add(1)
	go m.run()
}

// run drains the queue. When the queue empties it clears the gateway cache and,
// under mu, checks the queue again so work enqueued in between is not stranded.
func (m *Manager) run() {
	defer m.workers.Done()

	for {
		if !m.drain() {
			m.mu.Lock()
			m.workerActive = false
			m.mu.Unlock()
			return
		}

		m.mu.Lock()
		m.hasGateway = false
		m.gateway = shardmanager.GatewayInfo{}
		if m.queue.Len() > 0 && !m.closed.Load() {
			m.mu.Unlock()
			continue
		}
		m.workerActive = false
		m.mu.Unlock()
		return
	}
}

// drain builds queued shards one at a time. It returns true when the queue is
// empty and false when the worker must stop.
func (m *Manager) drain() bool {
	for {
		if m.ctx.Err() != nil {
			return false
		}

		id, ok := m.queue.Peek()
		if !ok {
			return true
		}

		if err := m.waitLoginSlot(m.ctx); err != nil {
			return false
		}

		err := m.buildAndInstall(m.ctx, id)
		if err == nil {
			delete(m.backoffs, id)
			continue
		}

		if !m.handleFailure(id, err) {
			return false
		}
	}
}

// handleFailure reacts to a failed build. It returns false when the worker must stop.
func (m *Manager) handleFailure(id int, err error) bool {
	ctx := context.Background()

	switch {
	case m.closed.Load() || errors.Is(err, shardmanager.ErrInterrupted):
		if m.config.Logger != nil {
			m.config.Logger.Debug(ctx, "shard build interrupted by shutdown", "shardID", id)
		}
		return false

	case errors.Is(err, shardmanager.ErrAuthentication), errors.Is(err, shardmanager.ErrInvalidConfig):
		if m.config.Logger != nil {
			m.config.Logger.Error(ctx, "shard build failed fatally, shutting down", "shardID", id, "error", err)
		}
		m.tracker.Transition(ctx, id, shardmanager.StatusTerminated, err)
		m.shutdown(false)
		return false

	case errors.Is(err, shardmanager.ErrInvalidShardID):
		if m.config.Logger != nil {
			m.config.Logger.Error(ctx, "dropping shard outside the shards total", "shardID", id, "error", err)
		}
		m.queue.Remove(id)
		m.tracker.Transition(ctx, id, shardmanager.StatusTerminated, err)
		m.updateGauges()
		return true
	}

	if m.config.Logger != nil {
		m.config.Logger.Error(ctx, "shard build failed, will retry", "shardID", id, "error", err)
	}
	if m.queue.Contains(id) {
		m.tracker.Transition(ctx, id, shardmanager.StatusQueued, err)
	}

	if m.config.Retry.Immediate() {
		return true
	}
	return m.sleep(m.backoffFor(id).NextBackOff())
}
