package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getpup/shardmanager"
	"github.com/getpup/shardmanager/metrics"
	"github.com/getpup/shardmanager/shardtest"
	"github.com/getpup/shardmanager/store"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition_RecordsStatus(t *testing.T) {
	tracker := NewTracker(Config{})
	ctx := context.Background()

	_, ok := tracker.Status(2)
	assert.False(t, ok)

	tracker.Transition(ctx, 2, shardmanager.StatusQueued, nil)
	tracker.Transition(ctx, 2, shardmanager.StatusConnecting, nil)

	status, ok := tracker.Status(2)
	require.True(t, ok)
	assert.Equal(t, shardmanager.StatusConnecting, status)
}

func TestTransition_StoreSeesTransitionsInOrder(t *testing.T) {
	var (
		mu      sync.Mutex
		written []shardmanager.Status
	)
	saving := make(chan struct{})
	mockStore := store.NewMockShardStore()
	mockStore.SaveShardFunc = func(ctx context.Context, rec shardmanager.ShardRecord) error {
		if rec.Status == shardmanager.StatusConnecting {
			close(saving)
			time.Sleep(20 * time.Millisecond)
		}
		mu.Lock()
		written = append(written, rec.Status)
		mu.Unlock()
		return nil
	}
	tracker := NewTracker(Config{ManagerID: "mgr-1", Store: mockStore})
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		tracker.Transition(ctx, 0, shardmanager.StatusConnecting, nil)
	}()
	<-saving
	tracker.Transition(ctx, 0, shardmanager.StatusConnected, nil)
	<-done

	status, ok := tracker.Status(0)
	require.True(t, ok)
	assert.Equal(t, shardmanager.StatusConnected, status)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []shardmanager.Status{shardmanager.StatusConnecting, shardmanager.StatusConnected}, written)
}

func TestTransition_PersistsRecord(t *testing.T) {
	mockStore := store.NewMockShardStore()
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tracker := NewTracker(Config{
		ManagerID: "mgr-1",
		Store:     mockStore,
		Now:       func() time.Time { return now },
	})
	tracker.SetGateway(4, "wss://gateway.test")

	cause := errors.New("dial failed")
	tracker.Transition(context.Background(), 1, shardmanager.StatusQueued, cause)

	require.Len(t, mockStore.SaveShardCalls, 1)
	rec := mockStore.SaveShardCalls[0]
	assert.Equal(t, "mgr-1", rec.ManagerID)
	assert.Equal(t, 1, rec.ShardID)
	assert.Equal(t, shardmanager.StatusQueued, rec.Status)
	assert.Equal(t, 4, rec.ShardsTotal)
	assert.Equal(t, "wss://gateway.test", rec.GatewayURL)
	assert.Equal(t, "dial failed", rec.LastError)
	assert.Equal(t, now, rec.UpdatedAt)

	updated, ok := tracker.UpdatedAt(1)
	require.True(t, ok)
	assert.Equal(t, now, updated)
}

func TestTransition_StoreFailureIsLoggedOnly(t *testing.T) {
	mockStore := store.NewMockShardStore()
	mockStore.SaveShardFunc = func(ctx context.Context, rec shardmanager.ShardRecord) error {
		return errors.New("db down")
	}
	logger := shardtest.NewMockLogger()

	tracker := NewTracker(Config{ManagerID: "mgr-1", Store: mockStore, Logger: logger})
	tracker.Transition(context.Background(), 0, shardmanager.StatusConnected, nil)

	status, ok := tracker.Status(0)
	require.True(t, ok)
	assert.Equal(t, shardmanager.StatusConnected, status)
	assert.Contains(t, logger.Messages("error"), "failed to persist shard status")
}

func TestTransition_UpdatesStatusGauge(t *testing.T) {
	collector := metrics.NewCollector("tracker-test")
	tracker := NewTracker(Config{Metrics: collector})

	tracker.Transition(context.Background(), 7, shardmanager.StatusConnected, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ShardStatus.WithLabelValues("tracker-test", "7", "connected")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.ShardStatus.WithLabelValues("tracker-test", "7", "queued")))
}

func TestForget_RemovesShard(t *testing.T) {
	tracker := NewTracker(Config{})
	ctx := context.Background()

	tracker.Transition(ctx, 3, shardmanager.StatusTerminated, nil)
	tracker.Transition(ctx, 1, shardmanager.StatusConnected, nil)
	assert.Equal(t, []int{1, 3}, tracker.IDs())

	tracker.Forget(3)

	_, ok := tracker.Status(3)
	assert.False(t, ok)
	assert.Equal(t, []int{1}, tracker.IDs())
}
