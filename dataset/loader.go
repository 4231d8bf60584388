package dataset

import (
	"iter"
	"math/rand/v2"
	"sync"
)

// DefaultBatchSize is the number of examples per batch used by NewLoader.
const DefaultBatchSize = 32

// Batch is a group of examples for one training step.
//
// InputIDs and AttentionMask are row-major [Size, MaxLength] tensors; Sentiments and Emotions are [Size] tensors.
// Indices holds the Dataset position of each row.
type Batch struct {
	Size, MaxLength int
	Indices         []int
	InputIDs        []int64
	AttentionMask   []int64
	Sentiments      []int64
	Emotions        []int64
}

// Row returns the InputIDs and AttentionMask of row ii of the batch, sharing the batch storage.
func (b *Batch) Row(ii int) (inputIDs, attentionMask []int64) {
	start, end := ii*b.MaxLength, (ii+1)*b.MaxLength
	return b.InputIDs[start:end:end], b.AttentionMask[start:end:end]
}

// Loader iterates over a Dataset in batches. Create it with NewLoader and configure it with the With* methods
// before iterating.
//
// By default, each traversal of Loader.Batches visits every example exactly once, in a new random order,
// in batches of DefaultBatchSize. The last batch may be smaller, unless Loader.WithDropLast is set.
type Loader struct {
	ds        *Dataset
	batchSize int
	shuffle   bool
	dropLast  bool

	mu  sync.Mutex
	rng *rand.Rand
}

// NewLoader returns a Loader over ds with shuffling enabled and a random seed.
func NewLoader(ds *Dataset) *Loader {
	return (&Loader{
		ds:        ds,
		batchSize: DefaultBatchSize,
		shuffle:   true,
	}).WithSeed(rand.Uint64())
}

// WithBatchSize sets the number of examples per batch. Values <= 0 reset it to DefaultBatchSize.
func (l *Loader) WithBatchSize(batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	l.batchSize = batchSize
	return l
}

// WithSeed resets the random number generator used to shuffle, making the sequence of traversals reproducible.
func (l *Loader) WithSeed(seed uint64) *Loader {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return l
}

// WithShuffle enables or disables the shuffling of the examples. Defaults to true.
func (l *Loader) WithShuffle(shuffle bool) *Loader {
	l.shuffle = shuffle
	return l
}

// WithDropLast configures whether the last batch is dropped when it is smaller than the batch size. Defaults to false.
func (l *Loader) WithDropLast(dropLast bool) *Loader {
	l.dropLast = dropLast
	return l
}

// Dataset returns the underlying Dataset.
func (l *Loader) Dataset() *Dataset { return l.ds }

// BatchSize returns the configured number of examples per batch.
func (l *Loader) BatchSize() int { return l.batchSize }

// NumBatches returns the number of batches yielded by each traversal.
func (l *Loader) NumBatches() int {
	n := l.ds.Len() / l.batchSize
	if !l.dropLast && l.ds.Len()%l.batchSize != 0 {
		n++
	}
	return n
}

// order returns the order in which to visit the dataset in one traversal.
func (l *Loader) order() []int {
	n := l.ds.Len()
	if !l.shuffle {
		indices := make([]int, n)
		for ii := range indices {
			indices[ii] = ii
		}
		return indices
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Perm(n)
}

// Batches returns an iterator over the batches of one traversal (epoch) of the dataset.
// Each time the returned sequence is iterated, a new order is drawn, so it can be reused for every epoch.
func (l *Loader) Batches() iter.Seq[*Batch] {
	return func(yield func(*Batch) bool) {
		order := l.order()
		for start := 0; start < len(order); start += l.batchSize {
			end := min(start+l.batchSize, len(order))
			if l.dropLast && end-start < l.batchSize {
				return
			}
			if !yield(l.newBatch(order[start:end])) {
				return
			}
		}
	}
}

// newBatch gathers the examples at the given dataset positions.
func (l *Loader) newBatch(indices []int) *Batch {
	ds := l.ds
	size, maxLength := len(indices), ds.maxLength
	b := &Batch{
		Size:          size,
		MaxLength:     maxLength,
		Indices:       append([]int(nil), indices...),
		InputIDs:      make([]int64, 0, size*maxLength),
		AttentionMask: make([]int64, 0, size*maxLength),
		Sentiments:    make([]int64, size),
		Emotions:      make([]int64, size),
	}
	for ii, idx := range indices {
		start, end := idx*maxLength, (idx+1)*maxLength
		b.InputIDs = append(b.InputIDs, ds.inputIDs[start:end]...)
		b.AttentionMask = append(b.AttentionMask, ds.attentionMask[start:end]...)
		b.Sentiments[ii] = ds.sentiments[idx]
		b.Emotions[ii] = ds.emotions[idx]
	}
	return b
}
