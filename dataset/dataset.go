// Package dataset converts a labeled text corpus (a CSV file with the columns "text", "sentiment" and "emotion")
// into fixed-length tokenized examples ready for supervised training.
//
// The transformation is shared by two operations of a Pipeline:
//
//   - Pipeline.Loader returns a Loader, that iterates over shuffled batches of the encoded corpus.
//   - Pipeline.Prepare saves the encoded corpus to a file, to be read back with Load, saving the cost of
//     tokenizing it again.
//
// LoadData and PrepareAndSaveDataset do the same using the default pretrained tokenizer ("bert-base-uncased").
package dataset

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"
)

// Item is the tuple stored at each position of a Dataset.
type Item struct {
	InputIDs      []int64
	AttentionMask []int64
	Sentiment     int64
	Emotion       int64
}

// Dataset holds encoded examples with their labels, addressable by position.
//
// The token ids and attention masks are stored as row-major [N, MaxLength] tensors, and the labels as [N] tensors.
// A Dataset is immutable once built: accessors return copies.
type Dataset struct {
	numExamples, maxLength int
	inputIDs               []int64
	attentionMask          []int64
	sentiments             []int64
	emotions               []int64
}

// New packs the encoded examples and their labels into a Dataset.
//
// All three sequences must have the same length, and all examples the same number of tokens, otherwise it
// returns ErrShapeMismatch.
func New(examples []Example, sentiments, emotions []int64) (*Dataset, error) {
	inputIDs := make([][]int64, len(examples))
	masks := make([][]int64, len(examples))
	for ii, example := range examples {
		inputIDs[ii] = example.InputIDs
		masks[ii] = example.AttentionMask
	}
	return FromColumns(inputIDs, masks, sentiments, emotions)
}

// FromColumns packs the four parallel sequences into a Dataset. See New.
func FromColumns(inputIDs, attentionMasks [][]int64, sentiments, emotions []int64) (*Dataset, error) {
	n := len(inputIDs)
	if len(attentionMasks) != n || len(sentiments) != n || len(emotions) != n {
		return nil, errors.Wrapf(ErrShapeMismatch, "got %d input_ids, %d attention_masks, %d sentiments and %d emotions",
			n, len(attentionMasks), len(sentiments), len(emotions))
	}
	var maxLength int
	if n > 0 {
		maxLength = len(inputIDs[0])
	}
	ds := &Dataset{
		numExamples:   n,
		maxLength:     maxLength,
		inputIDs:      make([]int64, 0, n*maxLength),
		attentionMask: make([]int64, 0, n*maxLength),
		sentiments:    slices.Clone(sentiments),
		emotions:      slices.Clone(emotions),
	}
	for ii := range n {
		if len(inputIDs[ii]) != maxLength || len(attentionMasks[ii]) != maxLength {
			return nil, errors.Wrapf(ErrShapeMismatch, "example #%d has %d input_ids and %d attention_mask values, wanted %d",
				ii, len(inputIDs[ii]), len(attentionMasks[ii]), maxLength)
		}
		ds.inputIDs = append(ds.inputIDs, inputIDs[ii]...)
		ds.attentionMask = append(ds.attentionMask, attentionMasks[ii]...)
	}
	return ds, nil
}

// Len returns the number of examples.
func (ds *Dataset) Len() int { return ds.numExamples }

// MaxLength returns the number of tokens of every example.
func (ds *Dataset) MaxLength() int { return ds.maxLength }

// At returns a copy of the example at position idx, in [0, Len()).
func (ds *Dataset) At(idx int) (Item, error) {
	if idx < 0 || idx >= ds.numExamples {
		return Item{}, errors.Errorf("index %d out of range for dataset of length %d", idx, ds.numExamples)
	}
	return ds.item(idx), nil
}

// item returns a copy of the example at a valid idx.
func (ds *Dataset) item(idx int) Item {
	start, end := idx*ds.maxLength, (idx+1)*ds.maxLength
	item := Item{
		InputIDs:      make([]int64, ds.maxLength),
		AttentionMask: make([]int64, ds.maxLength),
		Sentiment:     ds.sentiments[idx],
		Emotion:       ds.emotions[idx],
	}
	copy(item.InputIDs, ds.inputIDs[start:end])
	copy(item.AttentionMask, ds.attentionMask[start:end])
	return item
}

// Sentiments returns a copy of the sentiment labels, in position order.
func (ds *Dataset) Sentiments() []int64 { return slices.Clone(ds.sentiments) }

// Emotions returns a copy of the emotion labels, in position order.
func (ds *Dataset) Emotions() []int64 { return slices.Clone(ds.emotions) }

// Equal returns whether both datasets hold the same examples in the same positions.
func (ds *Dataset) Equal(other *Dataset) bool {
	if ds == nil || other == nil {
		return ds == other
	}
	return ds.numExamples == other.numExamples && ds.maxLength == other.maxLength &&
		slices.Equal(ds.inputIDs, other.inputIDs) && slices.Equal(ds.attentionMask, other.attentionMask) &&
		slices.Equal(ds.sentiments, other.sentiments) && slices.Equal(ds.emotions, other.emotions)
}

// String implements fmt.Stringer.
func (ds *Dataset) String() string {
	return fmt.Sprintf("Dataset{examples=%d, max_length=%d}", ds.numExamples, ds.maxLength)
}
