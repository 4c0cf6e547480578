// Package env defines the environment contract the evaluator drives and a
// built-in pixel environment.
package env

import (
	"context"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Environment is a sequential decision process producing frame observations.
type Environment interface {
	// Reset starts a new episode and returns the first observation.
	Reset(ctx context.Context) (*mat.Dense, error)
	// Step applies action and advances the environment by one step.
	Step(ctx context.Context, action int) (StepResult, error)
	// ActionSpace describes the valid actions.
	ActionSpace() ActionSpace
}

// StepResult is the outcome of one environment step.
type StepResult struct {
	Observation *mat.Dense
	Reward      float64
	Done        bool
	Info        map[string]any
}

// ActionSpace is a discrete set of actions.
type ActionSpace interface {
	Sample() int
	Size() int
}

// Discrete is an action space of n actions sampled uniformly.
type Discrete struct {
	n   int
	rng *rand.Rand
}

// NewDiscrete creates a discrete action space sampling from rng.
func NewDiscrete(n int, rng *rand.Rand) (*Discrete, error) {
	if n <= 0 {
		return nil, fmt.Errorf("action space size must be positive (got %d)", n)
	}
	if rng == nil {
		return nil, fmt.Errorf("action space requires a random source")
	}
	return &Discrete{n: n, rng: rng}, nil
}

// Sample returns a uniformly random action.
func (d *Discrete) Sample() int {
	return d.rng.Intn(d.n)
}

// Size returns the number of actions.
func (d *Discrete) Size() int {
	return d.n
}

// New builds a built-in environment by id.
func New(id string, height, width int, rng *rand.Rand) (Environment, error) {
	switch id {
	case CartPoleID:
		return NewCartPole(height, width, rng)
	default:
		return nil, fmt.Errorf("unknown environment %q", id)
	}
}
