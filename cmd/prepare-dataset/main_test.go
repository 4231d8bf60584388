package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gomlx/labeledtext/dataset"
	"github.com/gomlx/labeledtext/hub"
	"github.com/gomlx/labeledtext/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	cfg := &config.Config{
		Tokenizer: config.TokenizerConfig{Repo: "bert-base-uncased", Revision: "main"},
		Dataset:   config.DatasetConfig{MaxLength: 256, Parallelism: 1},
	}
	repo, maxLength := "other/bert", 64
	a := &args{Tokenizer: &repo, MaxLength: &maxLength}
	a.merge(cfg)
	assert.Equal(t, "other/bert", cfg.Tokenizer.Repo)
	assert.Equal(t, "main", cfg.Tokenizer.Revision)
	assert.Equal(t, 64, cfg.Dataset.MaxLength)
	assert.Equal(t, 1, cfg.Dataset.Parallelism)
}

func TestRun(t *testing.T) {
	const commit = "feed"
	repoFiles := map[string]string{
		"tokenizer_config.json": `{"tokenizer_class": "BertTokenizer", "do_lower_case": true}`,
		"vocab.txt":             "[PAD]\n[UNK]\n[CLS]\n[SEP]\n[MASK]\ni\nlove\nhate\nthis\n",
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/models/test/bert/revision/main", func(w http.ResponseWriter, r *http.Request) {
		info := hub.RepoInfo{ID: "test/bert", CommitHash: commit}
		for name := range repoFiles {
			info.Siblings = append(info.Siblings, &hub.FileInfo{Name: name})
		}
		require.NoError(t, json.NewEncoder(w).Encode(info))
	})
	for name, content := range repoFiles {
		mux.HandleFunc("/test/bert/resolve/"+commit+"/"+name, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(content))
		})
	}
	server := httptest.NewServer(mux)
	defer server.Close()
	t.Setenv("HF_ENDPOINT", server.URL)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	dir := t.TempDir()
	input := filepath.Join(dir, "corpus.csv")
	require.NoError(t, os.WriteFile(input, []byte("text,sentiment,emotion\nI love this,1,0\nI hate this,0,1\n"), 0644))
	output := filepath.Join(dir, "corpus.bin")

	repo, cacheDir, maxLength := "test/bert", filepath.Join(dir, "cache"), 8
	require.NoError(t, run(&args{Input: input, Output: output, Tokenizer: &repo, CacheDir: &cacheDir, MaxLength: &maxLength}))
	ds, err := dataset.Load(output)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	item, err := ds.At(0)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 5, 6, 8, 3, 0, 0, 0}, item.InputIDs)

	missing := filepath.Join(dir, "missing.csv")
	assert.Error(t, run(&args{Input: missing, Output: output, Tokenizer: &repo, CacheDir: &cacheDir}))
}
