package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemaphore(t *testing.T) {
	s := NewSemaphore(2)
	var running, maxRunning int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Acquire()
			defer s.Release()
			n := atomic.AddInt32(&running, 1)
			for {
				m := atomic.LoadInt32(&maxRunning)
				if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&running, -1)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, maxRunning, int32(2))
	assert.Equal(t, 0, s.InUse())

	// Unlimited.
	s = NewSemaphore(0)
	for range 5 {
		s.Acquire()
	}
	assert.Equal(t, 5, s.InUse())
}

func TestDownload(t *testing.T) {
	var gotAuth, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("hello world"))
	}))
	defer server.Close()

	m := New().MaxParallel(1).WithAuthToken("secret").WithUserAgent("tests/1.0")
	target := filepath.Join(t.TempDir(), "file.txt")
	var lastDownloaded int64
	err := m.Download(context.Background(), server.URL+"/file", target, func(downloaded, total int64) {
		lastDownloaded = downloaded
	})
	require.NoError(t, err)
	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(content))
	assert.Equal(t, int64(len("hello world")), lastDownloaded)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "tests/1.0", gotAgent)

	err = m.Download(context.Background(), server.URL+"/missing", target+".2", nil)
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = m.Download(ctx, server.URL+"/file", target+".3", nil)
	require.ErrorIs(t, err, context.Canceled)
}
