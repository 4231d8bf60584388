package dataset

import (
	"github.com/gomlx/labeledtext/tokenizers/api"
	"github.com/pkg/errors"
	"github.com/sourcegraph/conc/iter"
)

// DefaultMaxLength is the default length of the encoded sequences.
const DefaultMaxLength = 256

// Example is one encoded text: InputIDs and AttentionMask always have the same length (the Encoder max length).
// Padding positions have mask 0 and the tokenizer pad id.
type Example struct {
	InputIDs      []int64
	AttentionMask []int64
}

// Encoder converts texts to fixed length Example values, framing the tokens with the tokenizer's
// beginning and end of sentence tokens (for BERT: "[CLS]" and "[SEP]"), truncating and padding.
//
// It is immutable and safe for concurrent use, as long as the tokenizer is.
type Encoder struct {
	tokenizer    api.Tokenizer
	maxLength    int
	padID        int64
	prefix       []int64
	suffix       []int64
	truncateLeft bool
}

// NewEncoder creates an Encoder for the tokenizer, which must define a pad token.
//
// A maxLength smaller than the number of special tokens is accepted: the special tokens are then
// clipped to maxLength. A negative maxLength returns ErrInvalidMaxLength.
//
// If the tokenizer implements api.Configured, its "truncation_side" is honored.
func NewEncoder(tokenizer api.Tokenizer, maxLength int) (*Encoder, error) {
	if maxLength < 0 {
		return nil, errors.Wrapf(ErrInvalidMaxLength, "max length must be >= 0, got %d", maxLength)
	}
	padID, err := tokenizer.SpecialTokenID(api.TokPad)
	if err != nil {
		return nil, errors.WithMessagef(err, "tokenizer has no padding token")
	}
	e := &Encoder{
		tokenizer: tokenizer,
		maxLength: maxLength,
		padID:     int64(padID),
	}
	if id, err := tokenizer.SpecialTokenID(api.TokBeginningOfSentence); err == nil {
		e.prefix = []int64{int64(id)}
	}
	if id, err := tokenizer.SpecialTokenID(api.TokEndOfSentence); err == nil {
		e.suffix = []int64{int64(id)}
	}
	if configured, ok := tokenizer.(api.Configured); ok {
		e.truncateLeft = configured.Config().TruncateLeft()
	}
	return e, nil
}

// MaxLength of the encoded examples.
func (e *Encoder) MaxLength() int { return e.maxLength }

// PadID used for the padding positions.
func (e *Encoder) PadID() int64 { return e.padID }

// NumSpecialTokens added to every sequence.
func (e *Encoder) NumSpecialTokens() int { return len(e.prefix) + len(e.suffix) }

// Encode text into an Example of exactly MaxLength tokens.
// It is deterministic: the same text always yields the same Example.
func (e *Encoder) Encode(text string) Example {
	ids := e.tokenizer.Encode(text)
	maxContent := max(e.maxLength-e.NumSpecialTokens(), 0)
	if len(ids) > maxContent {
		if e.truncateLeft {
			ids = ids[len(ids)-maxContent:]
		} else {
			ids = ids[:maxContent]
		}
	}

	example := Example{
		InputIDs:      make([]int64, e.maxLength),
		AttentionMask: make([]int64, e.maxLength),
	}
	pos := 0
	put := func(id int64) {
		if pos < e.maxLength {
			example.InputIDs[pos] = id
			example.AttentionMask[pos] = 1
			pos++
		}
	}
	for _, id := range e.prefix {
		put(id)
	}
	for _, id := range ids {
		put(int64(id))
	}
	for _, id := range e.suffix {
		put(id)
	}
	for ; pos < e.maxLength; pos++ {
		example.InputIDs[pos] = e.padID
	}
	return example
}

// EncodeAll encodes texts in order. If parallelism > 1, up to parallelism texts are encoded concurrently;
// the result order is always the order of texts.
//
// onDone, if not nil, is called once per encoded text, possibly concurrently.
func (e *Encoder) EncodeAll(texts []string, parallelism int, onDone func()) []Example {
	encode := func(text *string) Example {
		example := e.Encode(*text)
		if onDone != nil {
			onDone()
		}
		return example
	}
	if parallelism <= 1 {
		examples := make([]Example, len(texts))
		for ii := range texts {
			examples[ii] = encode(&texts[ii])
		}
		return examples
	}
	mapper := iter.Mapper[string, Example]{MaxGoroutines: parallelism}
	return mapper.Map(texts, encode)
}
