// Package policy provides action selection strategies for the evaluator
package policy

import (
	"context"

	"github.com/cartridge/evaluator/internal/history"
)

// History is the view of the frame buffer a policy needs.
type History interface {
	// Batch returns the predictor input built from the current state
	Batch() (*history.Batch, error)
	// Cap returns the number of frames in a state
	Cap() int
}

// Policy interface for action selection
type Policy interface {
	// SelectAction chooses an action for the given step of the episode.
	// It never mutates the history.
	SelectAction(ctx context.Context, h History, step int) (int, error)
}
