package dataset

import (
	"sync"

	"github.com/gomlx/labeledtext/hub"
	"github.com/gomlx/labeledtext/tokenizers"
	"github.com/gomlx/labeledtext/tokenizers/api"
)

// DefaultTokenizerRepo is the HuggingFace repository of the tokenizer used by LoadData and PrepareAndSaveDataset.
var DefaultTokenizerRepo = "bert-base-uncased"

var (
	muDefaultTokenizer sync.Mutex
	defaultTokenizer   api.Tokenizer
)

// DefaultTokenizer returns the tokenizer of DefaultTokenizerRepo, downloading it to the HuggingFace cache
// if needed. It is created only once per process, and shared afterwards.
//
// Failures are returned as *tokenizers.LoadError, and are not cached: the next call tries again.
func DefaultTokenizer() (api.Tokenizer, error) {
	muDefaultTokenizer.Lock()
	defer muDefaultTokenizer.Unlock()
	if defaultTokenizer != nil {
		return defaultTokenizer, nil
	}
	tok, err := tokenizers.New(hub.New(DefaultTokenizerRepo))
	if err != nil {
		return nil, err
	}
	defaultTokenizer = tok
	return tok, nil
}

// LoadData reads the labeled corpus in filePath, encodes it with the DefaultTokenizer in sequences of maxLength
// tokens, and returns a Loader that yields shuffled batches of DefaultBatchSize examples.
func LoadData(filePath string, maxLength int) (*Loader, error) {
	tok, err := DefaultTokenizer()
	if err != nil {
		return nil, err
	}
	return NewPipeline(tok).WithMaxLength(maxLength).Loader(filePath)
}

// PrepareAndSaveDataset reads the labeled corpus in filePath, encodes it with the DefaultTokenizer in sequences
// of maxLength tokens, and saves the resulting Dataset to savePath. Read it back with Load.
func PrepareAndSaveDataset(filePath, savePath string, maxLength int) error {
	tok, err := DefaultTokenizer()
	if err != nil {
		return err
	}
	return NewPipeline(tok).WithMaxLength(maxLength).Prepare(filePath, savePath)
}
