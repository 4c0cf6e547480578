package policy

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/cartridge/evaluator/internal/env"
	"github.com/cartridge/evaluator/internal/predictor"
)

// ErrNoValues is returned when the predictor yields no action values for the
// current state.
var ErrNoValues = errors.New("predictor returned no action values")

// EpsilonGreedy acts randomly until the history is warm and with probability
// epsilon afterwards; otherwise it takes the action with the highest
// predicted value.
type EpsilonGreedy struct {
	predictor predictor.Predictor
	space     env.ActionSpace
	rng       *rand.Rand
	epsilon   float64
}

// NewEpsilonGreedy creates an epsilon-greedy policy. rng drives only the
// exploration roll; random actions come from space.
func NewEpsilonGreedy(p predictor.Predictor, space env.ActionSpace, rng *rand.Rand, epsilon float64) (*EpsilonGreedy, error) {
	if p == nil {
		return nil, fmt.Errorf("epsilon-greedy policy requires a predictor")
	}
	if space == nil {
		return nil, fmt.Errorf("epsilon-greedy policy requires an action space")
	}
	if rng == nil {
		return nil, fmt.Errorf("epsilon-greedy policy requires a random source")
	}
	if epsilon < 0 || epsilon > 1 {
		return nil, fmt.Errorf("epsilon must be between 0 and 1 (got %.2f)", epsilon)
	}
	return &EpsilonGreedy{predictor: p, space: space, rng: rng, epsilon: epsilon}, nil
}

// SelectAction implements Policy interface
func (p *EpsilonGreedy) SelectAction(ctx context.Context, h History, step int) (int, error) {
	if step < h.Cap() || p.rng.Float64() < p.epsilon {
		return p.space.Sample(), nil
	}

	batch, err := h.Batch()
	if err != nil {
		return 0, err
	}
	values, err := p.predictor.Predict(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("failed to predict action values: %w", err)
	}
	if len(values) == 0 || len(values[0]) == 0 {
		return 0, ErrNoValues
	}

	// MaxIdx returns the first index on ties.
	return floats.MaxIdx(values[0]), nil
}
