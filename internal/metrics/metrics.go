package metrics

import (
	"time"

	"github.com/rs/zerolog"
)

// Metrics collector for evaluation runs
type Collector struct {
	logger zerolog.Logger
}

func NewCollector(logger zerolog.Logger) *Collector {
	return &Collector{
		logger: logger,
	}
}

// Track completed episodes
func (c *Collector) EpisodeCompleted(runID string, episode, steps int, reward float64, status string, duration time.Duration) {
	c.logger.Info().
		Str("metric", "episode_completed").
		Str("run_id", runID).
		Int("episode", episode).
		Int("steps", steps).
		Float64("reward", reward).
		Str("status", status).
		Dur("duration", duration).
		Msg("Episode metric")
}

// Track the end of a run
func (c *Collector) RunCompleted(runID string, episodes, totalSteps int, meanReward float64, duration time.Duration) {
	c.logger.Info().
		Str("metric", "run_completed").
		Str("run_id", runID).
		Int("episodes", episodes).
		Int("total_steps", totalSteps).
		Float64("mean_reward", meanReward).
		Dur("duration", duration).
		Msg("Run metric")
}
