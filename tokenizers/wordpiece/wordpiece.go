// Package wordpiece implements a tokenizers.Tokenizer for BERT-like models, based on a WordPiece vocabulary.
//
// The normalization, pre-tokenization and WordPiece model are provided by github.com/sugarme/tokenizer.
package wordpiece

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"github.com/gomlx/labeledtext/hub"
	"github.com/gomlx/labeledtext/tokenizers/api"
	"github.com/pkg/errors"
	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/model"
	sugarwp "github.com/sugarme/tokenizer/model/wordpiece"
	"github.com/sugarme/tokenizer/normalizer"
	"github.com/sugarme/tokenizer/pretokenizer"
)

// VocabFile is the name of the WordPiece vocabulary file in HuggingFace repositories: one token per line,
// the line number (starting at 0) being the token id.
const VocabFile = "vocab.txt"

// Default special tokens of BERT vocabularies.
const (
	DefaultUnkToken  = "[UNK]"
	DefaultClsToken  = "[CLS]"
	DefaultSepToken  = "[SEP]"
	DefaultPadToken  = "[PAD]"
	DefaultMaskToken = "[MASK]"
)

// New creates a WordPiece tokenizer based on the "vocab.txt" file of the repo, configured by
// its tokenizer_config.json.
//
// It implements a tokenizer.TokenizerConstructor function signature.
func New(config *api.Config, repo *hub.Repo) (api.Tokenizer, error) {
	if !repo.HasFile(VocabFile) {
		return nil, errors.Errorf("%q file not found in repo %q", VocabFile, repo.ID)
	}
	vocabPath, err := repo.DownloadFile(VocabFile)
	if err != nil {
		return nil, errors.WithMessagef(err, "can't download %s file", VocabFile)
	}
	return NewFromVocab(vocabPath, config)
}

// NewFromVocab creates a WordPiece tokenizer from a local vocabulary file.
// config may be nil, in which case text is lower-cased and the default BERT special tokens are used.
func NewFromVocab(vocabPath string, config *api.Config) (*Tokenizer, error) {
	if config == nil {
		config = &api.Config{DoLowerCase: true}
	}
	idToToken, err := readVocab(vocabPath)
	if err != nil {
		return nil, err
	}
	t := &Tokenizer{
		config:     config,
		idToToken:  idToToken,
		tokenToID:  make(map[string]int, len(idToToken)),
		specialIDs: make(map[api.SpecialToken]int),
	}
	for id, token := range idToToken {
		if _, found := t.tokenToID[token]; !found {
			t.tokenToID[token] = id
		}
	}
	unkToken := orDefault(config.UnkToken, DefaultUnkToken)
	for _, special := range []struct {
		tokens []api.SpecialToken
		value  string
	}{
		{[]api.SpecialToken{api.TokUnknown}, unkToken},
		{[]api.SpecialToken{api.TokClassification, api.TokBeginningOfSentence}, orDefault(config.ClsToken, DefaultClsToken)},
		{[]api.SpecialToken{api.TokEndOfSentence}, orDefault(config.SepToken, DefaultSepToken)},
		{[]api.SpecialToken{api.TokPad}, orDefault(config.PadToken, DefaultPadToken)},
		{[]api.SpecialToken{api.TokMask}, orDefault(config.MaskToken, DefaultMaskToken)},
	} {
		id, found := t.tokenToID[special.value]
		if !found {
			continue
		}
		for _, token := range special.tokens {
			t.specialIDs[token] = id
		}
	}

	if _, found := t.specialIDs[api.TokUnknown]; !found {
		return nil, errors.Errorf("unknown token %q not found in vocabulary %q", unkToken, vocabPath)
	}

	vocab := make(model.Vocab, len(t.tokenToID))
	for token, id := range t.tokenToID {
		vocab[token] = id
	}
	t.model = sugarwp.NewWordPieceBuilder().Vocab(&vocab).UnkToken(unkToken).Build()
	t.pool.New = func() any { return t.newSugarTokenizer() }
	return t, nil
}

// Tokenizer implements tokenizers.Tokenizer interface for BERT WordPiece vocabularies.
type Tokenizer struct {
	config     *api.Config
	model      sugarwp.WordPiece
	idToToken  []string
	tokenToID  map[string]int
	specialIDs map[api.SpecialToken]int

	// pool of sugarme tokenizers sharing the same (read-only) model, one per concurrent Encode.
	pool sync.Pool
}

// Compile time assert that wordpiece.Tokenizer implements tokenizers.Tokenizer interface.
var (
	_ api.Tokenizer  = &Tokenizer{}
	_ api.Configured = &Tokenizer{}
)

func (t *Tokenizer) newSugarTokenizer() *tk.Tokenizer {
	sugar := tk.NewTokenizer(t.model)
	lowerCase := t.config.DoLowerCase
	stripAccents := lowerCase
	if v, ok := t.config.StripAccents.(bool); ok {
		stripAccents = v
	}
	handleChinese := true
	if t.config.TokenizeChineseChars != nil {
		handleChinese = *t.config.TokenizeChineseChars
	}
	var norm normalizer.Normalizer = normalizer.NewBertNormalizer(true, lowerCase, handleChinese, stripAccents)
	if stripAccents {
		// Accents are removed as combining marks, so precomposed characters must be decomposed first.
		norm = normalizer.NewSequence([]normalizer.Normalizer{normalizer.NewNFD(), norm})
	}
	sugar.WithNormalizer(norm)
	sugar.WithPreTokenizer(pretokenizer.NewBertPreTokenizer())
	return sugar
}

// Encode returns the text encoded into a sequence of ids, without special tokens.
// Words that can't be split into vocabulary pieces map to the unknown token.
func (t *Tokenizer) Encode(text string) []int {
	sugar := t.pool.Get().(*tk.Tokenizer)
	defer t.pool.Put(sugar)
	encoding, err := sugar.Encode(tk.NewSingleEncodeInput(tk.NewInputSequence(text)), false)
	if err != nil {
		// NewFromVocab checks the unknown token is in the vocabulary, the only cause of failure for a text input.
		panic(errors.Wrapf(err, "wordpiece failed to encode %q", text))
	}
	ids := encoding.GetIds()
	out := make([]int, len(ids))
	copy(out, ids)
	return out
}

// Decode returns the text from a sequence of ids, joining "##" word continuations.
// Unknown ids are decoded as the unknown token.
func (t *Tokenizer) Decode(ids []int) string {
	var sb strings.Builder
	for ii, id := range ids {
		token := orDefault(t.config.UnkToken, DefaultUnkToken)
		if id >= 0 && id < len(t.idToToken) {
			token = t.idToToken[id]
		}
		if rest, isContinuation := strings.CutPrefix(token, "##"); isContinuation && ii > 0 {
			sb.WriteString(rest)
			continue
		}
		if ii > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(token)
	}
	return sb.String()
}

// SpecialTokenID returns the token for the given symbol, or an error if not known.
func (t *Tokenizer) SpecialTokenID(token api.SpecialToken) (int, error) {
	id, found := t.specialIDs[token]
	if !found {
		return 0, errors.Errorf("unknown special token: %s (%d)", token, token)
	}
	return id, nil
}

// Config returns the tokenizer_config.json contents used to build the tokenizer.
func (t *Tokenizer) Config() *api.Config {
	return t.config
}

// VocabSize returns the number of entries in the vocabulary.
func (t *Tokenizer) VocabSize() int {
	return len(t.idToToken)
}

// readVocab reads one token per line. Empty lines are kept, since the line number is the id.
func readVocab(vocabPath string) ([]string, error) {
	f, err := os.Open(vocabPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open vocabulary %q", vocabPath)
	}
	defer func() { _ = f.Close() }()
	var tokens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tokens = append(tokens, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read vocabulary %q", vocabPath)
	}
	if len(tokens) == 0 {
		return nil, errors.Errorf("empty vocabulary in %q", vocabPath)
	}
	return tokens, nil
}

func orDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
