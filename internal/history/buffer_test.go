package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const (
	testHeight = 3
	testWidth  = 2
)

// labeled returns a frame whose every cell holds label.
func labeled(label float64) *mat.Dense {
	data := make([]float64, testHeight*testWidth)
	for i := range data {
		data[i] = label
	}
	return mat.NewDense(testHeight, testWidth, data)
}

func labels(state State) []float64 {
	out := make([]float64, len(state))
	for i, frame := range state {
		out[i] = frame.At(0, 0)
	}
	return out
}

func fill(t *testing.T, b *Buffer, from, to int) {
	t.Helper()
	for i := from; i < to; i++ {
		require.NoError(t, b.Add(labeled(float64(i))))
	}
}

func TestNew_InvalidArguments(t *testing.T) {
	_, err := New(0, testHeight, testWidth, 1)
	assert.Error(t, err)
	_, err = New(4, 0, testWidth, 1)
	assert.Error(t, err)
	_, err = New(4, testHeight, testWidth, 0)
	assert.Error(t, err)
}

func TestBuffer_StateAfterExactFill(t *testing.T) {
	for _, h := range []int{4, 5, 8} {
		b, err := New(h, testHeight, testWidth, 1)
		require.NoError(t, err)

		fill(t, b, 0, h)

		state, err := b.State()
		require.NoError(t, err)
		want := make([]float64, h)
		for i := range want {
			want[i] = float64(i)
		}
		assert.Equal(t, want, labels(state), "history length %d", h)
	}
}

func TestBuffer_StateAfterWraparound(t *testing.T) {
	const h = 4
	for _, k := range []int{1, 3, 4, 9} {
		b, err := New(h, testHeight, testWidth, 1)
		require.NoError(t, err)

		fill(t, b, 0, h+k)

		state, err := b.State()
		require.NoError(t, err)
		want := make([]float64, h)
		for i := range want {
			want[i] = float64(k + i)
		}
		assert.Equal(t, want, labels(state), "after %d extra adds", k)
		assert.Equal(t, h+k, b.Written())
		assert.Equal(t, h, b.Len())
	}
}

func TestBuffer_MinimumFill(t *testing.T) {
	// The four-frame minimum holds even when the capacity is smaller.
	for _, h := range []int{1, 2, 3, 4} {
		b, err := New(h, testHeight, testWidth, 1)
		require.NoError(t, err)

		for n := 0; n < MinFill; n++ {
			_, err := b.State()
			assert.ErrorIs(t, err, ErrInsufficientHistory, "history length %d after %d adds", h, n)
			require.NoError(t, b.Add(labeled(float64(n))))
		}

		state, err := b.State()
		require.NoError(t, err)
		assert.Len(t, state, h)
		assert.Equal(t, float64(MinFill-1), state[h-1].At(0, 0))
	}
}

func TestBuffer_ResetMatchesFreshBuffer(t *testing.T) {
	const h = 5

	used, err := New(h, testHeight, testWidth, 1)
	require.NoError(t, err)
	fill(t, used, 100, 100+h+2)
	used.Reset()
	assert.Equal(t, 0, used.Written())
	fill(t, used, 0, h)

	fresh, err := New(h, testHeight, testWidth, 1)
	require.NoError(t, err)
	fill(t, fresh, 0, h)

	got, err := used.State()
	require.NoError(t, err)
	gotLabels := labels(got)

	want, err := fresh.State()
	require.NoError(t, err)
	assert.Equal(t, labels(want), gotLabels)
}

func TestBuffer_ResetHidesStaleFrames(t *testing.T) {
	const h = 6

	b, err := New(h, testHeight, testWidth, 1)
	require.NoError(t, err)
	fill(t, b, 100, 100+h)
	b.Reset()

	// Fewer than h fresh frames: the previous episode's slots must not leak.
	fill(t, b, 0, h-1)
	_, err = b.State()
	assert.ErrorIs(t, err, ErrInsufficientHistory)

	fill(t, b, h-1, h)
	state, err := b.State()
	require.NoError(t, err)
	for _, label := range labels(state) {
		assert.Less(t, label, float64(100))
	}
}

func TestBuffer_AddCopiesFrame(t *testing.T) {
	b, err := New(4, testHeight, testWidth, 1)
	require.NoError(t, err)

	frame := labeled(7)
	require.NoError(t, b.Add(frame))
	fill(t, b, 1, 4)
	frame.Set(0, 0, -1)

	state, err := b.State()
	require.NoError(t, err)
	assert.Equal(t, float64(7), state[0].At(0, 0))
}

func TestBuffer_AddRejectsWrongShape(t *testing.T) {
	b, err := New(4, testHeight, testWidth, 1)
	require.NoError(t, err)

	err = b.Add(mat.NewDense(testWidth, testHeight, nil))
	assert.ErrorIs(t, err, ErrFrameShape)
	assert.Equal(t, 0, b.Written())
}

func TestBuffer_Batch(t *testing.T) {
	b, err := New(4, testHeight, testWidth, 32)
	require.NoError(t, err)

	_, err = b.Batch()
	require.ErrorIs(t, err, ErrInsufficientHistory)

	fill(t, b, 0, 6)
	batch, err := b.Batch()
	require.NoError(t, err)
	assert.Equal(t, 32, batch.Size())
	assert.Equal(t, []float64{2, 3, 4, 5}, labels(batch.Rows[0]))
	for _, row := range batch.Rows[1:] {
		assert.Nil(t, row)
	}
}
