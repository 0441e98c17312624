package metrics

import "strconv"

// Failure reasons used with IncBuildFailure.
const (
	ReasonAuth        = "auth"
	ReasonConfig      = "config"
	ReasonTransient   = "transient"
	ReasonInterrupted = "interrupted"
)

// Collector wraps metrics and provides helper methods with pre-filled labels.
type Collector struct {
	manager string
}

// NewCollector creates a new Collector for the given manager name.
func NewCollector(manager string) *Collector {
	return &Collector{manager: manager}
}

// SetQueued sets the queued shards gauge.
func (c *Collector) SetQueued(count int) {
	QueuedShards.WithLabelValues(c.manager).Set(float64(count))
}

// SetRunning sets the running shards gauge.
func (c *Collector) SetRunning(count int) {
	RunningShards.WithLabelValues(c.manager).Set(float64(count))
}

// IncBuilds increments the successful builds counter.
func (c *Collector) IncBuilds() {
	ShardBuildsTotal.WithLabelValues(c.manager).Inc()
}

// IncBuildFailure increments the failed builds counter for a reason.
func (c *Collector) IncBuildFailure(reason string) {
	ShardBuildFailuresTotal.WithLabelValues(c.manager, reason).Inc()
}

// IncGatewayDiscoveries increments the gateway discoveries counter.
func (c *Collector) IncGatewayDiscoveries() {
	GatewayDiscoveriesTotal.WithLabelValues(c.manager).Inc()
}

// IncRestarts increments the restarts counter.
func (c *Collector) IncRestarts() {
	ShardRestartsTotal.WithLabelValues(c.manager).Inc()
}

// SetShardStatus sets the status gauge. Sets value to 1 for the given status, 0 for others.
func (c *Collector) SetShardStatus(shardID int, status string, all []string) {
	shard := strconv.Itoa(shardID)
	for _, s := range all {
		if s == status {
			ShardStatus.WithLabelValues(c.manager, shard, s).Set(1)
		} else {
			ShardStatus.WithLabelValues(c.manager, shard, s).Set(0)
		}
	}
}

// ObserveBuildDuration records a build duration observation.
func (c *Collector) ObserveBuildDuration(seconds float64) {
	ShardBuildDuration.WithLabelValues(c.manager).Observe(seconds)
}
