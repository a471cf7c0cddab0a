package episode

import (
	"github.com/san-kum/chasesim/internal/chase"
	"github.com/san-kum/chasesim/internal/metrics"
)

// DefaultMetrics is the metric set reported for every episode.
func DefaultMetrics() []Metric {
	return []Metric{
		metrics.NewKills(),
		metrics.NewFirstKill(),
		metrics.NewMaxStreak(),
		metrics.NewCollisions(),
		metrics.NewWallTime(0.9),
		metrics.NewMeanReward(chase.Wolf),
		metrics.NewMeanReward(chase.Sheep),
		metrics.NewActionEffort(),
	}
}
