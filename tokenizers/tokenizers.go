// Package tokenizers creates tokenizers from HuggingFace models.
//
// Given a HuggingFace repository (see hub.New to create one), tokenizers will use its "tokenizer_config.json"
// and the vocabulary files it lists to instantiate a Tokenizer.
package tokenizers

import (
	"fmt"

	"github.com/gomlx/labeledtext/hub"
	"github.com/gomlx/labeledtext/tokenizers/api"
	"github.com/gomlx/labeledtext/tokenizers/sentencepiece"
	"github.com/gomlx/labeledtext/tokenizers/wordpiece"
	"github.com/pkg/errors"
)

// Tokenizer interface allows one convert text to "tokens" (integer ids) and back.
//
// It also allows mapping of special tokens: tokens with a common semantic (like padding) but that
// may map to different ids (int) for different tokenizers.
type Tokenizer = api.Tokenizer

// SpecialToken is an enum of commonly used special tokens.
type SpecialToken = api.SpecialToken

const (
	TokBeginningOfSentence = api.TokBeginningOfSentence
	TokEndOfSentence       = api.TokEndOfSentence
	TokUnknown             = api.TokUnknown
	TokPad                 = api.TokPad
	TokMask                = api.TokMask
	TokClassification      = api.TokClassification
	TokSpecialTokensCount  = api.TokSpecialTokensCount
)

// ConfigFile is the name of the tokenizer configuration file in HuggingFace repositories.
const ConfigFile = "tokenizer_config.json"

// DefaultClass is assumed for repositories whose tokenizer_config.json doesn't name a tokenizer_class
// but that ship a WordPiece vocabulary, like the google-bert checkpoints.
const DefaultClass = "BertTokenizer"

// LoadError is returned by New when the pretrained tokenizer can't be resolved: the repository info or files
// couldn't be downloaded, or the tokenizer couldn't be built from them.
type LoadError struct {
	RepoID string
	Err    error
}

// Error implements error.
func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load tokenizer from repo %q: %v", e.RepoID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// New creates a new tokenizer from the given HuggingFace repo (see hub.New).
//
// It downloads the repo file "tokenizer_config.json" and uses its "tokenizer_class" to select the constructor
// registered with RegisterTokenizerClass.
//
// Any failure is returned as a *LoadError.
func New(repo *hub.Repo) (Tokenizer, error) {
	tok, err := newTokenizer(repo)
	if err != nil {
		return nil, &LoadError{RepoID: repo.ID, Err: err}
	}
	return tok, nil
}

func newTokenizer(repo *hub.Repo) (Tokenizer, error) {
	config, err := GetConfig(repo)
	if err != nil {
		return nil, err
	}
	className := config.TokenizerClass
	if className == "" && repo.HasFile(wordpiece.VocabFile) {
		className = DefaultClass
	}
	constructor, found := registerOfClasses[className]
	if !found {
		return nil, errors.Errorf("unknown tokenizer class %q", className)
	}
	return constructor(config, repo)
}

// GetConfig returns the parsed "tokenizer_config.json" Config object for the repo.
func GetConfig(repo *hub.Repo) (*api.Config, error) {
	err := repo.DownloadInfo(false)
	if err != nil {
		return nil, err
	}
	localConfigFile, err := repo.DownloadFile(ConfigFile)
	if err != nil {
		return nil, err
	}
	return api.ParseConfigFile(localConfigFile)
}

// Config struct to hold HuggingFace's tokenizer_config.json contents.
// There is no formal schema for this file, but these are some common fields that may be of use.
// Specific tokenizer classes are free to implement additional features as they see fit.
//
// The extra field ConfigFile holds the path to the file with the full config.
type Config = api.Config

// TokenizerConstructor is used by Tokenizer implementations to provide implementations for different
// tokenizer classes.
type TokenizerConstructor func(config *api.Config, repo *hub.Repo) (api.Tokenizer, error)

// RegisterTokenizerClass used by Tokenizer implementations.
func RegisterTokenizerClass(name string, constructor TokenizerConstructor) {
	registerOfClasses[name] = constructor
}

var (
	registerOfClasses = make(map[string]TokenizerConstructor)
)

func init() {
	RegisterTokenizerClass("GemmaTokenizer", sentencepiece.New)
	for _, className := range []string{
		"BertTokenizer", "BertTokenizerFast", "DistilBertTokenizer", "DistilBertTokenizerFast"} {
		RegisterTokenizerClass(className, wordpiece.New)
	}
}
