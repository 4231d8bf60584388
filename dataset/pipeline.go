package dataset

import (
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/labeledtext/tokenizers/api"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

// Pipeline reads a labeled corpus, encodes it with a tokenizer and packs it into a Dataset.
//
// Create it with NewPipeline, and configure it with the With* methods. A configured Pipeline can be reused
// for any number of files; it doesn't keep state between calls.
type Pipeline struct {
	tokenizer      api.Tokenizer
	maxLength      int
	batchSize      int
	seed           *uint64
	dropLast       bool
	parallelism    int
	useProgressBar bool
}

// NewPipeline creates a Pipeline that encodes texts with tokenizer into sequences of DefaultMaxLength tokens,
// and batches them in DefaultBatchSize examples.
func NewPipeline(tokenizer api.Tokenizer) *Pipeline {
	return &Pipeline{
		tokenizer:   tokenizer,
		maxLength:   DefaultMaxLength,
		batchSize:   DefaultBatchSize,
		parallelism: 1,
	}
}

// WithMaxLength sets the number of tokens of each encoded example. See NewEncoder for the valid values.
func (p *Pipeline) WithMaxLength(maxLength int) *Pipeline {
	p.maxLength = maxLength
	return p
}

// WithBatchSize sets the batch size of the Loader created by Pipeline.Loader.
func (p *Pipeline) WithBatchSize(batchSize int) *Pipeline {
	p.batchSize = batchSize
	return p
}

// WithSeed makes the shuffling of the Loader created by Pipeline.Loader reproducible.
func (p *Pipeline) WithSeed(seed uint64) *Pipeline {
	p.seed = &seed
	return p
}

// WithDropLast configures the Loader created by Pipeline.Loader to drop the last incomplete batch.
func (p *Pipeline) WithDropLast(dropLast bool) *Pipeline {
	p.dropLast = dropLast
	return p
}

// WithParallelism sets the number of texts encoded concurrently. Defaults to 1 (sequential).
// The result doesn't depend on it.
func (p *Pipeline) WithParallelism(parallelism int) *Pipeline {
	p.parallelism = parallelism
	return p
}

// WithProgressBar configures the display of a progress bar while encoding. Defaults to false.
func (p *Pipeline) WithProgressBar(useProgressBar bool) *Pipeline {
	p.useProgressBar = useProgressBar
	return p
}

// Build reads the CSV file at filePath (see ReadColumns), encodes every text and returns the Dataset.
//
// The file is fully validated before any text is encoded.
func (p *Pipeline) Build(filePath string) (*Dataset, error) {
	encoder, err := NewEncoder(p.tokenizer, p.maxLength)
	if err != nil {
		return nil, err
	}
	columns, err := ReadColumns(filePath)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var onDone func()
	if p.useProgressBar {
		bar := progressbar.Default(int64(columns.Len()), "encoding")
		defer func() { _ = bar.Finish() }()
		onDone = func() { _ = bar.Add(1) }
	}
	examples := encoder.EncodeAll(columns.Texts, p.parallelism, onDone)
	ds, err := New(examples, columns.Sentiments, columns.Emotions)
	if err != nil {
		return nil, errors.WithMessagef(err, "while packing %q", filePath)
	}
	klog.V(1).Infof("encoded %d examples of %d tokens from %q in %s", ds.Len(), ds.MaxLength(), filePath, time.Since(start))
	return ds, nil
}

// Loader builds the Dataset for filePath (see Pipeline.Build) and returns a shuffling Loader over it.
func (p *Pipeline) Loader(filePath string) (*Loader, error) {
	ds, err := p.Build(filePath)
	if err != nil {
		return nil, err
	}
	loader := NewLoader(ds).WithBatchSize(p.batchSize).WithDropLast(p.dropLast)
	if p.seed != nil {
		loader.WithSeed(*p.seed)
	}
	return loader, nil
}

// Prepare builds the Dataset for filePath (see Pipeline.Build) and saves it to savePath (see Save),
// creating or overwriting it.
func (p *Pipeline) Prepare(filePath, savePath string) error {
	ds, err := p.Build(filePath)
	if err != nil {
		return err
	}
	if err := Save(ds, savePath); err != nil {
		return errors.WithMessagef(err, "while saving dataset built from %q", filePath)
	}
	if klog.V(1).Enabled() {
		if info, err := os.Stat(savePath); err == nil {
			klog.Infof("saved %s to %q (%s)", ds, savePath, humanize.Bytes(uint64(info.Size())))
		}
	}
	return nil
}
