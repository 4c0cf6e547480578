// Package recorder persists the outcome of evaluation runs.
package recorder

import (
	"context"
	"errors"
	"time"
)

// ErrRunExists is returned by Start when the output directory already holds
// a run with the same tag and overwrite was not requested.
var ErrRunExists = errors.New("run already recorded in output directory")

// ErrNotStarted is returned when recording before Start.
var ErrNotStarted = errors.New("recorder not started")

// EpisodeRecord represents a single finished episode
type EpisodeRecord struct {
	ID        string        `json:"id"`
	RunID     string        `json:"run_id"`
	Episode   int           `json:"episode"`
	Steps     int           `json:"steps"`
	Reward    float64       `json:"reward"`
	Status    string        `json:"status"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// Stats represents aggregate statistics over the recorded episodes
type Stats struct {
	RunID            string         `json:"run_id"`
	Episodes         int            `json:"episodes"`
	TotalSteps       int            `json:"total_steps"`
	TotalReward      float64        `json:"total_reward"`
	MeanReward       float64        `json:"mean_reward"`
	EpisodesByStatus map[string]int `json:"episodes_by_status"`
	OldestTimestamp  *time.Time     `json:"oldest_timestamp,omitempty"`
	NewestTimestamp  *time.Time     `json:"newest_timestamp,omitempty"`
}

// Recorder brackets an evaluation run
type Recorder interface {
	// Start begins a run writing under dir with the given tag
	Start(dir, tag string, overwrite bool) error

	// Record stores a finished episode
	Record(ctx context.Context, record *EpisodeRecord) error

	// RunID returns the identifier assigned by Start
	RunID() string

	// Close finishes the run and releases resources
	Close() error
}

// NoopRecorder records nothing; used when no output folder is configured.
type NoopRecorder struct{}

// Start satisfies Recorder.
func (NoopRecorder) Start(string, string, bool) error { return nil }

// Record satisfies Recorder.
func (NoopRecorder) Record(context.Context, *EpisodeRecord) error { return nil }

// RunID satisfies Recorder.
func (NoopRecorder) RunID() string { return "" }

// Close satisfies Recorder.
func (NoopRecorder) Close() error { return nil }

// stats aggregates records in insertion order.
func stats(runID string, records []*EpisodeRecord) *Stats {
	s := &Stats{
		RunID:            runID,
		Episodes:         len(records),
		EpisodesByStatus: make(map[string]int),
	}
	for _, r := range records {
		s.TotalSteps += r.Steps
		s.TotalReward += r.Reward
		s.EpisodesByStatus[r.Status]++
	}
	if len(records) > 0 {
		s.MeanReward = s.TotalReward / float64(len(records))
		oldest := records[0].Timestamp
		newest := records[len(records)-1].Timestamp
		s.OldestTimestamp = &oldest
		s.NewestTimestamp = &newest
	}
	return s
}
