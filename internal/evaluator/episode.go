package evaluator

import (
	"context"
	"fmt"
	"time"
)

// Status is the lifecycle state of an episode
type Status int

const (
	NotStarted Status = iota
	Running
	TerminatedDone
	TerminatedTimeout
)

func (s Status) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case TerminatedDone:
		return "done"
	case TerminatedTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// EpisodeResult is the outcome of one episode
type EpisodeResult struct {
	Episode  int
	Steps    int
	Reward   float64
	Status   Status
	Duration time.Duration
}

// runEpisode plays one episode until the environment reports done or the
// step budget runs out. Every step adds its observation before the policy
// acts, so a policy that waits Cap() steps never reads stale frames.
func (e *Evaluator) runEpisode(ctx context.Context, episode int) (*EpisodeResult, error) {
	start := time.Now()
	result := &EpisodeResult{Episode: episode, Status: NotStarted}

	observation, err := e.env.Reset(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reset environment: %w", err)
	}
	e.buffer.Reset()
	result.Status = Running

	for result.Steps < e.cfg.MaxSteps {
		if err := e.buffer.Add(observation); err != nil {
			return nil, fmt.Errorf("step %d: %w", result.Steps, err)
		}

		action, err := e.policy.SelectAction(ctx, e.buffer, result.Steps)
		if err != nil {
			return nil, fmt.Errorf("step %d: failed to select action: %w", result.Steps, err)
		}

		step, err := e.env.Step(ctx, action)
		if err != nil {
			return nil, fmt.Errorf("step %d: failed to step environment: %w", result.Steps, err)
		}

		result.Reward += step.Reward
		result.Steps++

		if step.Done {
			result.Status = TerminatedDone
			break
		}
		observation = step.Observation
	}

	if result.Status == Running {
		result.Status = TerminatedTimeout
	}
	result.Duration = time.Since(start)
	return result, nil
}
