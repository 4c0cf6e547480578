// Package predictor provides action-value estimators for multi-frame states.
package predictor

import (
	"context"

	"github.com/cartridge/evaluator/internal/history"
)

// Predictor estimates action values for every row of a batch.
type Predictor interface {
	// Predict returns one row of action values per batch row. Rows for
	// unpopulated batch slots are nil.
	Predict(ctx context.Context, batch *history.Batch) ([][]float64, error)
	// LoadWeights replaces the predictor parameters with the ones at path.
	LoadWeights(path string) error
}
