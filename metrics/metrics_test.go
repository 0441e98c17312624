package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestShardBuildsTotal_Increment(t *testing.T) {
	before := testutil.ToFloat64(ShardBuildsTotal.WithLabelValues("test-mgr"))
	ShardBuildsTotal.WithLabelValues("test-mgr").Inc()
	after := testutil.ToFloat64(ShardBuildsTotal.WithLabelValues("test-mgr"))

	assert.Equal(t, before+1, after)
}

func TestQueuedShards_SetValue(t *testing.T) {
	QueuedShards.WithLabelValues("test-mgr-2").Set(7)
	value := testutil.ToFloat64(QueuedShards.WithLabelValues("test-mgr-2"))

	assert.Equal(t, float64(7), value)
}

func TestMetrics_AreRegistered(t *testing.T) {
	collectors := []prometheus.Collector{
		QueuedShards,
		RunningShards,
		ShardBuildsTotal,
		ShardBuildFailuresTotal,
		GatewayDiscoveriesTotal,
		ShardRestartsTotal,
		ShardStatus,
		ShardBuildDuration,
	}

	for _, c := range collectors {
		err := prometheus.Register(c)
		assert.Error(t, err, "metric should already be registered by promauto")
		_, isAlready := err.(prometheus.AlreadyRegisteredError)
		assert.True(t, isAlready)
	}
}
