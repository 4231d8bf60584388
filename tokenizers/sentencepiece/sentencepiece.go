// Package sentencepiece implements a tokenizers.Tokenizer based on SentencePiece tokenizer.
package sentencepiece

import (
	esentencepiece "github.com/eliben/go-sentencepiece"
	"github.com/gomlx/labeledtext/hub"
	"github.com/gomlx/labeledtext/tokenizers/api"
	"github.com/pkg/errors"
)

// ModelFile is the name of the SentencePiece model proto in HuggingFace repositories.
const ModelFile = "tokenizer.model"

// New creates a SentencePiece tokenizer based on the "tokenizer.model" file, which must be a
// SentencePiece Model proto.
//
// It implements a tokenizer.TokenizerConstructor function signature.
func New(config *api.Config, repo *hub.Repo) (api.Tokenizer, error) {
	if !repo.HasFile(ModelFile) {
		return nil, errors.Errorf("%q file not found in repo %q", ModelFile, repo.ID)
	}
	tokenizerFile, err := repo.DownloadFile(ModelFile)
	if err != nil {
		return nil, errors.WithMessagef(err, "can't download %s file", ModelFile)
	}
	return NewFromModel(tokenizerFile, config)
}

// NewFromModel creates a SentencePiece tokenizer from a local model proto file. config may be nil.
func NewFromModel(modelPath string, config *api.Config) (*Tokenizer, error) {
	proc, err := esentencepiece.NewProcessorFromPath(modelPath)
	if err != nil {
		return nil, errors.Wrapf(err, "can't create sentencepiece tokenizer from %q", modelPath)
	}
	return &Tokenizer{
		Processor: proc,
		Info:      proc.ModelInfo(),
		config:    config,
	}, nil
}

// Tokenizer implements tokenizers.Tokenizer interface based on SentencePiece tokenizer by Google.
type Tokenizer struct {
	*esentencepiece.Processor
	Info   *esentencepiece.ModelInfo
	config *api.Config
}

// Compile time assert that sentencepiece.Tokenizer implements tokenizers.Tokenizer interface.
var (
	_ api.Tokenizer  = &Tokenizer{}
	_ api.Configured = &Tokenizer{}
)

// Encode returns the text encoded into a sequence of ids.
func (p *Tokenizer) Encode(text string) []int {
	tokens := p.Processor.Encode(text)
	return sliceMap(tokens, func(t esentencepiece.Token) int { return t.ID })
}

// Decode returns the text from a sequence of ids.
func (p *Tokenizer) Decode(ids []int) string {
	return p.Processor.Decode(ids)
}

// SpecialTokenID returns the token for the given symbol, or an error if not known.
// SentencePiece models mark absent special tokens with a negative id.
func (p *Tokenizer) SpecialTokenID(token api.SpecialToken) (int, error) {
	id := -1
	switch token {
	case api.TokUnknown:
		id = p.Info.UnknownID
	case api.TokPad:
		id = p.Info.PadID
	case api.TokBeginningOfSentence:
		id = p.Info.BeginningOfSentenceID
	case api.TokEndOfSentence:
		id = p.Info.EndOfSentenceID
	}
	if id < 0 {
		return 0, errors.Errorf("unknown special token: %s (%d)", token, token)
	}
	return id, nil
}

// Config returns the tokenizer_config.json contents used to build the tokenizer, if any.
func (p *Tokenizer) Config() *api.Config {
	return p.config
}

// sliceMap executes the given function sequentially for every element on in, and returns a mapped slice.
func sliceMap[In, Out any](in []In, fn func(e In) Out) (out []Out) {
	out = make([]Out, len(in))
	for ii, e := range in {
		out[ii] = fn(e)
	}
	return
}
