package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// QueuedShards tracks the number of shard ids waiting in the queue.
var QueuedShards = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "shardmanager_queued_shards",
		Help: "Shard ids waiting to be started",
	},
	[]string{"manager"},
)

// RunningShards tracks the number of registered shard sessions.
var RunningShards = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "shardmanager_running_shards",
		Help: "Shard sessions currently registered",
	},
	[]string{"manager"},
)

// ShardBuildsTotal tracks successful shard builds.
var ShardBuildsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "shardmanager_shard_builds_total",
		Help: "Total shard sessions built and logged in",
	},
	[]string{"manager"},
)

// ShardBuildFailuresTotal tracks failed shard builds by reason.
var ShardBuildFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "shardmanager_shard_build_failures_total",
		Help: "Total failed shard builds",
	},
	[]string{"manager", "reason"},
)

// GatewayDiscoveriesTotal tracks gateway entry point round trips.
var GatewayDiscoveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "shardmanager_gateway_discoveries_total",
		Help: "Total gateway entry point discoveries",
	},
	[]string{"manager"},
)

// ShardRestartsTotal tracks shard restarts requested through the manager.
var ShardRestartsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "shardmanager_shard_restarts_total",
		Help: "Total shard restarts requested",
	},
	[]string{"manager"},
)

// ShardStatus tracks shard status (value 1 for current status, 0 otherwise).
var ShardStatus = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "shardmanager_shard_status",
		Help: "Shard status (1 for current status, 0 otherwise)",
	},
	[]string{"manager", "shard", "status"},
)

// ShardBuildDuration tracks how long building and logging in one shard takes.
var ShardBuildDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "shardmanager_shard_build_duration_seconds",
		Help:    "Time spent building and logging in a shard",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"manager"},
)
