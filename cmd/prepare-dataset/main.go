// prepare-dataset encodes a labeled corpus (CSV with the columns "text", "sentiment" and "emotion") with a
// pretrained HuggingFace tokenizer, and saves the resulting dataset to a file that can be read back with
// dataset.Load.
//
// Example:
//
//	prepare-dataset --max-length=128 train.csv train.bin
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/gomlx/labeledtext"
	"github.com/gomlx/labeledtext/dataset"
	"github.com/gomlx/labeledtext/hub"
	"github.com/gomlx/labeledtext/internal/config"
	"github.com/gomlx/labeledtext/tokenizers"
	"k8s.io/klog/v2"
)

type args struct {
	Input       string  `arg:"positional,required" help:"CSV file with the labeled corpus"`
	Output      string  `arg:"positional,required" help:"file where to save the encoded dataset"`
	Config      string  `arg:"-c,--config" help:"config file (yaml, toml or json); by default labeledtext.* is searched"`
	Tokenizer   *string `arg:"--tokenizer" help:"HuggingFace repository of the tokenizer"`
	Revision    *string `arg:"--revision" help:"revision of the tokenizer repository"`
	CacheDir    *string `arg:"--cache-dir" help:"HuggingFace cache directory"`
	MaxLength   *int    `arg:"--max-length" help:"number of tokens of each example"`
	Parallelism *int    `arg:"-p,--parallelism" help:"number of texts encoded concurrently"`
	ProgressBar *bool   `arg:"--progress" help:"display progress bars"`
	Verbosity   int     `arg:"-v,--verbosity" help:"log verbosity level"`
}

func (args) Description() string {
	return "Encodes a labeled text corpus with a pretrained tokenizer and saves it for training."
}

func (args) Version() string {
	return "prepare-dataset " + labeledtext.Version
}

// merge overrides the configuration with the flags that were set.
func (a *args) merge(cfg *config.Config) {
	if a.Tokenizer != nil {
		cfg.Tokenizer.Repo = *a.Tokenizer
	}
	if a.Revision != nil {
		cfg.Tokenizer.Revision = *a.Revision
	}
	if a.CacheDir != nil {
		cfg.Tokenizer.CacheDir = *a.CacheDir
	}
	if a.MaxLength != nil {
		cfg.Dataset.MaxLength = *a.MaxLength
	}
	if a.Parallelism != nil {
		cfg.Dataset.Parallelism = *a.Parallelism
	}
	if a.ProgressBar != nil {
		cfg.Dataset.ProgressBar = *a.ProgressBar
	}
}

func run(a *args) error {
	cfg, err := config.Load(a.Config)
	if err != nil {
		return err
	}
	a.merge(cfg)

	repo := hub.New(cfg.Tokenizer.Repo).
		WithRevision(cfg.Tokenizer.Revision).
		WithProgressBar(cfg.Dataset.ProgressBar)
	if cfg.Tokenizer.CacheDir != "" {
		repo = repo.WithCacheDir(cfg.Tokenizer.CacheDir)
	}
	if cfg.Tokenizer.AuthToken != "" {
		repo = repo.WithAuth(cfg.Tokenizer.AuthToken)
	}
	tok, err := tokenizers.New(repo)
	if err != nil {
		return err
	}

	start := time.Now()
	err = dataset.NewPipeline(tok).
		WithMaxLength(cfg.Dataset.MaxLength).
		WithParallelism(cfg.Dataset.Parallelism).
		WithProgressBar(cfg.Dataset.ProgressBar).
		Prepare(a.Input, a.Output)
	if err != nil {
		return err
	}
	klog.Infof("prepared %q from %q with tokenizer %q in %s", a.Output, a.Input, cfg.Tokenizer.Repo, time.Since(start))
	return nil
}

func main() {
	klog.InitFlags(nil)
	var a args
	arg.MustParse(&a)
	if err := flag.Set("v", strconv.Itoa(a.Verbosity)); err != nil {
		klog.Fatalf("failed to set verbosity: %v", err)
	}
	defer klog.Flush()

	if err := run(&a); err != nil {
		klog.Flush()
		fmt.Fprintf(os.Stderr, "prepare-dataset: %+v\n", err)
		os.Exit(1)
	}
}
