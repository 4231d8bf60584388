package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequentialDataset returns a dataset of n examples of maxLength tokens, where example ii has all its
// input ids set to ii, sentiment ii%3 and emotion ii%5.
func sequentialDataset(t *testing.T, n, maxLength int) *Dataset {
	examples := make([]Example, n)
	sentiments := make([]int64, n)
	emotions := make([]int64, n)
	for ii := range n {
		examples[ii] = Example{InputIDs: make([]int64, maxLength), AttentionMask: make([]int64, maxLength)}
		for pos := range maxLength {
			examples[ii].InputIDs[pos] = int64(ii)
			examples[ii].AttentionMask[pos] = 1
		}
		sentiments[ii] = int64(ii % 3)
		emotions[ii] = int64(ii % 5)
	}
	ds, err := New(examples, sentiments, emotions)
	require.NoError(t, err)
	return ds
}

func TestNew(t *testing.T) {
	ds := sequentialDataset(t, 10, 4)
	assert.Equal(t, 10, ds.Len())
	assert.Equal(t, 4, ds.MaxLength())
	assert.Equal(t, "Dataset{examples=10, max_length=4}", ds.String())

	item, err := ds.At(7)
	require.NoError(t, err)
	assert.Equal(t, Item{
		InputIDs:      []int64{7, 7, 7, 7},
		AttentionMask: []int64{1, 1, 1, 1},
		Sentiment:     1,
		Emotion:       2,
	}, item)

	// Items are copies.
	item.InputIDs[0] = 1000
	item, err = ds.At(7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), item.InputIDs[0])

	_, err = ds.At(10)
	assert.Error(t, err)
	_, err = ds.At(-1)
	assert.Error(t, err)

	assert.Equal(t, []int64{0, 1, 2, 0, 1, 2, 0, 1, 2, 0}, ds.Sentiments())
	assert.Equal(t, []int64{0, 1, 2, 3, 4, 0, 1, 2, 3, 4}, ds.Emotions())
	assert.True(t, ds.Equal(sequentialDataset(t, 10, 4)))
	assert.False(t, ds.Equal(sequentialDataset(t, 9, 4)))
	assert.False(t, ds.Equal(nil))
}

func TestNewEmpty(t *testing.T) {
	ds, err := New(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Len())
	assert.Equal(t, 0, ds.MaxLength())
}

func TestShapeMismatch(t *testing.T) {
	ex := func(n int) Example { return Example{InputIDs: make([]int64, n), AttentionMask: make([]int64, n)} }

	_, err := New([]Example{ex(4), ex(4)}, []int64{1}, []int64{0, 1})
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = New([]Example{ex(4), ex(4)}, []int64{1, 0}, []int64{0})
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = New([]Example{ex(4), ex(3)}, []int64{1, 0}, []int64{0, 1})
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = FromColumns([][]int64{{1, 2}}, [][]int64{{1}}, []int64{0}, []int64{0})
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = FromColumns([][]int64{{1, 2}}, nil, []int64{0}, []int64{0})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
