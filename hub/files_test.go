package hub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanRelativeFilePath(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"foo/bar", "foo/bar"},
		{"foo/../bar", "bar"},
		{"foo/./bar", "foo/bar"},
		{"/foo/bar", "foo/bar"},
		{"foo//bar", "foo/bar"},
		{"foo/bar/..", "foo"},
		{"../foo/bar", "foo/bar"},
		{"foo/../../../..", "."},
		{"foo/../../../bar", "bar"},
		{"", "."},
		{".", "."},
		{"..", "."},
	}

	for _, tc := range testCases {
		expected := filepath.FromSlash(tc.expected)
		got := cleanRelativeFilePath(tc.input)
		fmt.Printf("\tcleanRelativeFilePath(%q) = %q\n", tc.input, got)
		assert.Equal(t, expected, got)
	}
}

const testCommitHash = "0123456789abcdef"

// newFakeHub serves the info of a repo "owner/model" with the given files, and counts file downloads.
func newFakeHub(t *testing.T, repoFiles map[string]string, downloads *int32) *httptest.Server {
	info := RepoInfo{ID: "owner/model", CommitHash: testCommitHash}
	for name := range repoFiles {
		info.Siblings = append(info.Siblings, &FileInfo{Name: name})
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/models/owner/model/revision/main", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(info))
	})
	for name, content := range repoFiles {
		mux.HandleFunc("/owner/model/resolve/"+testCommitHash+"/"+name, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(downloads, 1)
			_, _ = w.Write([]byte(content))
		})
	}
	return httptest.NewServer(mux)
}

func TestDownloadFiles(t *testing.T) {
	var downloads int32
	server := newFakeHub(t, map[string]string{
		"vocab.txt":             "[PAD]\n[UNK]\n",
		"tokenizer_config.json": `{"do_lower_case": true}`,
	}, &downloads)
	defer server.Close()

	cacheDir := t.TempDir()
	repo := New("owner/model").WithEndpoint(server.URL + "/").WithCacheDir(cacheDir).WithAuth("")
	require.NoError(t, repo.DownloadInfo(false))
	assert.Equal(t, testCommitHash, repo.Info().CommitHash)
	assert.True(t, repo.HasFile("vocab.txt"))
	assert.False(t, repo.HasFile("tokenizer.model"))

	paths, err := repo.DownloadFiles("vocab.txt", "tokenizer_config.json")
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(cacheDir, "models--owner--model", "snapshots", testCommitHash, "vocab.txt"), paths[0])
	content, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "[PAD]\n[UNK]\n", string(content))
	assert.NoFileExists(t, paths[0]+".lock")
	assert.Equal(t, int32(2), atomic.LoadInt32(&downloads))

	// Second time it comes from the cache, also for a fresh Repo object.
	repo2 := New("owner/model").WithEndpoint(server.URL).WithCacheDir(cacheDir)
	path2, err := repo2.DownloadFile("vocab.txt")
	require.NoError(t, err)
	assert.Equal(t, paths[0], path2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&downloads))

	// Missing file.
	_, err = repo.DownloadFile("missing.bin")
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(cacheDir, "models--owner--model", "snapshots", testCommitHash, "missing.bin"))
}

func TestDownloadInfoFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	repo := New("owner/model").WithEndpoint(server.URL).WithCacheDir(t.TempDir())
	require.Error(t, repo.DownloadInfo(false))
	assert.Nil(t, repo.Info())
	assert.False(t, repo.HasFile("vocab.txt"))
}

func TestNewEndpoint(t *testing.T) {
	t.Setenv("HF_ENDPOINT", "")
	assert.Equal(t, "https://huggingface.co", New("owner/model").hfEndpoint)
	t.Setenv("HF_ENDPOINT", "http://localhost:8080/")
	assert.Equal(t, "http://localhost:8080", New("owner/model").hfEndpoint)
	assert.Equal(t, "http://other", New("owner/model").WithEndpoint("http://other").hfEndpoint)
}
