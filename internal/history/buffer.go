// Package history keeps the most recent observation frames of an episode and
// assembles them into the multi-frame states consumed by a predictor.
package history

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// MinFill is the number of writes required before any state can be read,
// independent of the configured history length.
const MinFill = 4

var (
	// ErrInsufficientHistory is returned when a state is requested before
	// enough frames were written since the last Reset.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrFrameShape is returned when a frame does not match the buffer dims.
	ErrFrameShape = errors.New("frame shape mismatch")
)

// State is an ordered stack of frames, oldest first.
type State []*mat.Dense

// Batch is the predictor input. Only Rows[0] carries the current state, the
// remaining rows are nil.
type Batch struct {
	Rows []State
}

// Size returns the batch width.
func (b *Batch) Size() int {
	return len(b.Rows)
}

// Buffer is a fixed-capacity circular history of frames.
//
// The write cursor grows without bound; slots are addressed modulo the
// capacity, so slot current%cap is always the oldest surviving frame once
// the buffer has been filled.
type Buffer struct {
	height  int
	width   int
	slots   []*mat.Dense
	state   State
	batch   *Batch
	current int
}

// New creates a buffer holding historyLength frames of height x width.
func New(historyLength, height, width, batchSize int) (*Buffer, error) {
	if historyLength <= 0 {
		return nil, fmt.Errorf("history length must be positive (got %d)", historyLength)
	}
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("frame dims must be positive (got %dx%d)", height, width)
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive (got %d)", batchSize)
	}

	slots := make([]*mat.Dense, historyLength)
	for i := range slots {
		slots[i] = mat.NewDense(height, width, nil)
	}

	return &Buffer{
		height: height,
		width:  width,
		slots:  slots,
		state:  make(State, historyLength),
		batch:  &Batch{Rows: make([]State, batchSize)},
	}, nil
}

// Add copies frame into the next slot.
func (b *Buffer) Add(frame mat.Matrix) error {
	r, c := frame.Dims()
	if r != b.height || c != b.width {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameShape, r, c, b.height, b.width)
	}
	b.slots[b.current%len(b.slots)].Copy(frame)
	b.current++
	return nil
}

// State returns the most recent frames in chronological order. The returned
// slice and its frames are reused and only valid until the next Add.
func (b *Buffer) State() (State, error) {
	need := len(b.slots)
	if need < MinFill {
		need = MinFill
	}
	if b.current < need {
		return nil, fmt.Errorf("%w: %d frames written, need %d", ErrInsufficientHistory, b.current, need)
	}
	for i := range b.slots {
		b.state[i] = b.slots[(b.current+i)%len(b.slots)]
	}
	return b.state, nil
}

// Batch places the current state in the first row of the predictor batch.
func (b *Buffer) Batch() (*Batch, error) {
	state, err := b.State()
	if err != nil {
		return nil, err
	}
	b.batch.Rows[0] = state
	return b.batch, nil
}

// Reset rewinds the write cursor without clearing the slots. Callers must
// Add at least Cap() frames before the next State call.
func (b *Buffer) Reset() {
	b.current = 0
}

// Cap returns the history length.
func (b *Buffer) Cap() int {
	return len(b.slots)
}

// Len returns the number of valid frames held.
func (b *Buffer) Len() int {
	if b.current < len(b.slots) {
		return b.current
	}
	return len(b.slots)
}

// Written returns the number of Add calls since the last Reset.
func (b *Buffer) Written() int {
	return b.current
}

// Dims returns the frame height and width.
func (b *Buffer) Dims() (int, int) {
	return b.height, b.width
}
