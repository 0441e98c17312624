package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewCollector_CreatesCollectorWithManager(t *testing.T) {
	collector := NewCollector("test-manager")

	assert.NotNil(t, collector)
	assert.Equal(t, "test-manager", collector.manager)
}

func TestCollector_SetQueuedAndRunning(t *testing.T) {
	collector := NewCollector("test-coll-1")

	collector.SetQueued(4)
	collector.SetRunning(2)

	assert.Equal(t, float64(4), testutil.ToFloat64(QueuedShards.WithLabelValues("test-coll-1")))
	assert.Equal(t, float64(2), testutil.ToFloat64(RunningShards.WithLabelValues("test-coll-1")))
}

func TestCollector_IncBuilds(t *testing.T) {
	collector := NewCollector("test-coll-2")

	before := testutil.ToFloat64(ShardBuildsTotal.WithLabelValues("test-coll-2"))
	collector.IncBuilds()
	after := testutil.ToFloat64(ShardBuildsTotal.WithLabelValues("test-coll-2"))

	assert.Equal(t, before+1, after)
}

func TestCollector_IncBuildFailure(t *testing.T) {
	collector := NewCollector("test-coll-3")

	collector.IncBuildFailure(ReasonTransient)
	collector.IncBuildFailure(ReasonTransient)
	collector.IncBuildFailure(ReasonAuth)

	assert.Equal(t, float64(2), testutil.ToFloat64(ShardBuildFailuresTotal.WithLabelValues("test-coll-3", ReasonTransient)))
	assert.Equal(t, float64(1), testutil.ToFloat64(ShardBuildFailuresTotal.WithLabelValues("test-coll-3", ReasonAuth)))
}

func TestCollector_IncGatewayDiscoveriesAndRestarts(t *testing.T) {
	collector := NewCollector("test-coll-4")

	collector.IncGatewayDiscoveries()
	collector.IncRestarts()
	collector.IncRestarts()

	assert.Equal(t, float64(1), testutil.ToFloat64(GatewayDiscoveriesTotal.WithLabelValues("test-coll-4")))
	assert.Equal(t, float64(2), testutil.ToFloat64(ShardRestartsTotal.WithLabelValues("test-coll-4")))
}

func TestCollector_SetShardStatus(t *testing.T) {
	collector := NewCollector("test-coll-5")
	all := []string{"queued", "connecting", "connected"}

	collector.SetShardStatus(3, "connecting", all)
	collector.SetShardStatus(3, "connected", all)

	assert.Equal(t, float64(1), testutil.ToFloat64(ShardStatus.WithLabelValues("test-coll-5", "3", "connected")))
	assert.Equal(t, float64(0), testutil.ToFloat64(ShardStatus.WithLabelValues("test-coll-5", "3", "connecting")))
	assert.Equal(t, float64(0), testutil.ToFloat64(ShardStatus.WithLabelValues("test-coll-5", "3", "queued")))
}

func TestCollector_ObserveBuildDuration(t *testing.T) {
	collector := NewCollector("test-coll-6")

	collector.ObserveBuildDuration(0.25)

	count := testutil.CollectAndCount(ShardBuildDuration)
	assert.Greater(t, count, 0)
}
