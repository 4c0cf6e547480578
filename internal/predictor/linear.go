package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cartridge/evaluator/internal/history"
)

// ErrInputSize is returned when a state does not flatten to the expected
// number of inputs.
var ErrInputSize = errors.New("state size does not match predictor inputs")

// Weights is the on-disk form of a linear predictor.
type Weights struct {
	Actions int         `json:"actions"`
	Inputs  int         `json:"inputs"`
	W       [][]float64 `json:"weights"` // shape: [actions][inputs]
	B       []float64   `json:"bias"`    // shape: [actions]
}

// Linear scores each action as bias[a] + w[a] . state, where state is the
// flattened stack of frames.
type Linear struct {
	actions int
	inputs  int
	w       *mat.Dense
	b       []float64
}

// NewLinear creates a linear predictor with all parameters zero.
func NewLinear(actions, inputs int) (*Linear, error) {
	if actions <= 0 || inputs <= 0 {
		return nil, fmt.Errorf("linear predictor needs positive dims (got %d actions, %d inputs)", actions, inputs)
	}
	return &Linear{
		actions: actions,
		inputs:  inputs,
		w:       mat.NewDense(actions, inputs, nil),
		b:       make([]float64, actions),
	}, nil
}

// SetWeights validates and installs weights.
func (l *Linear) SetWeights(weights Weights) error {
	if weights.Actions != l.actions || weights.Inputs != l.inputs {
		return fmt.Errorf("weights are %dx%d, predictor is %dx%d",
			weights.Actions, weights.Inputs, l.actions, l.inputs)
	}
	if len(weights.W) != l.actions || len(weights.B) != l.actions {
		return fmt.Errorf("weights must have %d rows and %d biases", l.actions, l.actions)
	}
	data := make([]float64, 0, l.actions*l.inputs)
	for a, row := range weights.W {
		if len(row) != l.inputs {
			return fmt.Errorf("weight row %d has %d inputs, want %d", a, len(row), l.inputs)
		}
		data = append(data, row...)
	}
	l.w = mat.NewDense(l.actions, l.inputs, data)
	l.b = append(l.b[:0], weights.B...)
	return nil
}

// LoadWeights implements Predictor.
func (l *Linear) LoadWeights(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read weights %s: %w", path, err)
	}
	var weights Weights
	if err := json.Unmarshal(raw, &weights); err != nil {
		return fmt.Errorf("failed to decode weights %s: %w", path, err)
	}
	if err := l.SetWeights(weights); err != nil {
		return fmt.Errorf("invalid weights %s: %w", path, err)
	}
	return nil
}

// Predict implements Predictor.
func (l *Linear) Predict(ctx context.Context, batch *history.Batch) ([][]float64, error) {
	out := make([][]float64, batch.Size())
	for i, state := range batch.Rows {
		if state == nil {
			continue
		}
		values, err := l.score(state)
		if err != nil {
			return nil, fmt.Errorf("batch row %d: %w", i, err)
		}
		out[i] = values
	}
	return out, nil
}

func (l *Linear) score(state history.State) ([]float64, error) {
	size := 0
	for _, frame := range state {
		r, c := frame.Dims()
		size += r * c
	}
	if size != l.inputs {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInputSize, size, l.inputs)
	}

	values := make([]float64, l.actions)
	copy(values, l.b)
	for a := range values {
		weights := l.w.RawRowView(a)
		offset := 0
		for _, frame := range state {
			r, c := frame.Dims()
			for row := 0; row < r; row++ {
				values[a] += floats.Dot(weights[offset:offset+c], frame.RawRowView(row))
				offset += c
			}
		}
	}
	return values, nil
}
