package policy

import (
	"context"
	"fmt"

	"github.com/cartridge/evaluator/internal/env"
)

// RandomPolicy samples every action from the environment's action space
type RandomPolicy struct {
	space env.ActionSpace
}

// NewRandom creates a new random policy for the given action space
func NewRandom(space env.ActionSpace) (*RandomPolicy, error) {
	if space == nil {
		return nil, fmt.Errorf("random policy requires an action space")
	}
	return &RandomPolicy{space: space}, nil
}

// SelectAction implements Policy interface
func (p *RandomPolicy) SelectAction(ctx context.Context, h History, step int) (int, error) {
	return p.space.Sample(), nil
}
