// Package evaluator drives a policy through repeated episodes and reports
// the reward it earns.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/cartridge/evaluator/internal/config"
	"github.com/cartridge/evaluator/internal/env"
	"github.com/cartridge/evaluator/internal/history"
	"github.com/cartridge/evaluator/internal/metrics"
	"github.com/cartridge/evaluator/internal/policy"
	"github.com/cartridge/evaluator/internal/recorder"
)

// RunStatistics accumulates rewards at episode boundaries
type RunStatistics struct {
	Episodes    int
	TotalSteps  int
	TotalReward float64
	Rewards     []float64
	Done        int
	Timeouts    int
}

func (s *RunStatistics) add(r *EpisodeResult) {
	s.Episodes++
	s.TotalSteps += r.Steps
	s.TotalReward += r.Reward
	s.Rewards = append(s.Rewards, r.Reward)
	if r.Status == TerminatedDone {
		s.Done++
	} else {
		s.Timeouts++
	}
}

// Summary is the result of a completed run
type Summary struct {
	RunID        string
	Episodes     []*EpisodeResult
	Stats        RunStatistics
	MeanReward   float64
	RewardStdDev float64
	Duration     time.Duration
}

// Evaluator runs episodes of a policy against an environment
type Evaluator struct {
	cfg      *config.Config
	env      env.Environment
	policy   policy.Policy
	buffer   *history.Buffer
	recorder recorder.Recorder
	metrics  *metrics.Collector
	logger   zerolog.Logger
	out      io.Writer
}

// Option customises an Evaluator
type Option func(*Evaluator)

// WithRecorder records every episode with r
func WithRecorder(r recorder.Recorder) Option {
	return func(e *Evaluator) {
		e.recorder = r
	}
}

// WithLogger sets the structured logger
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// WithOutput sets where episode reports are written
func WithOutput(w io.Writer) Option {
	return func(e *Evaluator) {
		e.out = w
	}
}

// New creates an evaluator. The frame buffer is sized from cfg.
func New(cfg *config.Config, environment env.Environment, p policy.Policy, opts ...Option) (*Evaluator, error) {
	if environment == nil {
		return nil, errors.New("evaluator requires an environment")
	}
	if p == nil {
		return nil, errors.New("evaluator requires a policy")
	}
	buffer, err := history.New(cfg.HistoryLength, cfg.ScreenHeight, cfg.ScreenWidth, cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create frame buffer: %w", err)
	}

	e := &Evaluator{
		cfg:      cfg,
		env:      environment,
		policy:   p,
		buffer:   buffer,
		recorder: recorder.NoopRecorder{},
		logger:   zerolog.Nop(),
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.metrics = metrics.NewCollector(e.logger)
	return e, nil
}

// Run plays the configured number of episodes and reports the mean reward.
// Any environment, predictor or history error aborts the run.
func (e *Evaluator) Run(ctx context.Context) (summary *Summary, err error) {
	start := time.Now()

	if err := e.recorder.Start(e.cfg.OutputFolder, e.cfg.RunTag, e.cfg.Overwrite); err != nil {
		return nil, fmt.Errorf("failed to start recorder: %w", err)
	}
	defer func() {
		if closeErr := e.recorder.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close recorder: %w", closeErr))
		}
	}()

	runID := e.recorder.RunID()
	e.logger.Info().
		Str("run_id", runID).
		Int("episodes", e.cfg.NumEpisodes).
		Int("max_steps", e.cfg.MaxSteps).
		Msg("Starting evaluation")

	summary = &Summary{RunID: runID}
	for episode := 1; episode <= e.cfg.NumEpisodes; episode++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := e.runEpisode(ctx, episode)
		if err != nil {
			return nil, fmt.Errorf("episode %d: %w", episode, err)
		}

		summary.Episodes = append(summary.Episodes, result)
		summary.Stats.add(result)
		e.report(result)

		if err := e.recorder.Record(ctx, &recorder.EpisodeRecord{
			RunID:    runID,
			Episode:  result.Episode,
			Steps:    result.Steps,
			Reward:   result.Reward,
			Status:   result.Status.String(),
			Duration: result.Duration,
		}); err != nil {
			return nil, fmt.Errorf("failed to record episode %d: %w", episode, err)
		}
		e.metrics.EpisodeCompleted(runID, result.Episode, result.Steps, result.Reward, result.Status.String(), result.Duration)
	}

	summary.MeanReward = summary.Stats.TotalReward / float64(summary.Stats.Episodes)
	if len(summary.Stats.Rewards) > 1 {
		summary.RewardStdDev = stat.StdDev(summary.Stats.Rewards, nil)
	}
	summary.Duration = time.Since(start)

	fmt.Fprintf(e.out, "Avg reward %s\n", formatReward(summary.MeanReward))
	e.metrics.RunCompleted(runID, summary.Stats.Episodes, summary.Stats.TotalSteps, summary.MeanReward, summary.Duration)
	return summary, nil
}

func (e *Evaluator) report(r *EpisodeResult) {
	switch r.Status {
	case TerminatedDone:
		fmt.Fprintf(e.out, "Episode %d finished after %d timesteps with reward %s\n", r.Episode, r.Steps, formatReward(r.Reward))
	default:
		fmt.Fprintf(e.out, "Episode %d timed out after %d timesteps with reward %s\n", r.Episode, r.Steps, formatReward(r.Reward))
	}
}

// formatReward prints r in plain decimal notation.
func formatReward(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}
