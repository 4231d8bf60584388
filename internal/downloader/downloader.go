// Package downloader implements a download manager that limits the number of parallel HTTP downloads,
// and reports progress.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/pkg/errors"
)

// ProgressCallback is called while a file is being downloaded. totalBytes is 0 if the server didn't
// report the size. It is called synchronously from the downloading goroutine.
type ProgressCallback func(downloadedBytes, totalBytes int64)

// Manager handles downloads, limiting the number of simultaneous ones.
// Create it with New, and configure it with the With* methods before use.
type Manager struct {
	client    *http.Client
	semaphore *Semaphore
	authToken string
	userAgent string
}

// New creates a Manager with http.DefaultClient and at most 20 parallel downloads.
func New() *Manager {
	return &Manager{
		client:    http.DefaultClient,
		semaphore: NewSemaphore(20),
	}
}

// MaxParallel sets the maximum number of simultaneous downloads. If <= 0, there are no limits.
func (m *Manager) MaxParallel(n int) *Manager {
	m.semaphore.Resize(n)
	return m
}

// WithAuthToken sets the bearer token sent with every request. Empty disables authentication.
func (m *Manager) WithAuthToken(token string) *Manager {
	m.authToken = token
	return m
}

// WithUserAgent sets the "User-Agent" header sent with every request.
func (m *Manager) WithUserAgent(userAgent string) *Manager {
	m.userAgent = userAgent
	return m
}

// WithHTTPClient sets the client used for the requests.
func (m *Manager) WithHTTPClient(client *http.Client) *Manager {
	m.client = client
	return m
}

// Download url contents to filePath, which is created or truncated.
//
// It blocks while the maximum number of parallel downloads is reached.
// progressCallback can be nil.
func (m *Manager) Download(ctx context.Context, url, filePath string, progressCallback ProgressCallback) error {
	m.semaphore.Acquire()
	defer m.semaphore.Release()

	if err := ctx.Err(); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrapf(err, "failed creating request for %q", url)
	}
	if m.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+m.authToken)
	}
	if m.userAgent != "" {
		req.Header.Set("User-Agent", m.userAgent)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed request to %q", url)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("request to %q failed with status %s: %q", url, resp.Status, msg)
	}

	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed creating %q", filePath)
	}
	var r io.Reader = resp.Body
	if progressCallback != nil {
		total := resp.ContentLength
		if total < 0 {
			total = 0
		}
		progressCallback(0, total)
		r = &progressReader{reader: r, total: total, callback: progressCallback}
	}
	_, err = io.Copy(f, r)
	if errClose := f.Close(); err == nil && errClose != nil {
		err = errClose
	}
	if err != nil {
		return errors.Wrapf(err, "failed downloading %q to %q", url, filePath)
	}
	return nil
}

// String implements fmt.Stringer.
func (m *Manager) String() string {
	return fmt.Sprintf("downloader.Manager{inUse=%d}", m.semaphore.InUse())
}

type progressReader struct {
	reader     io.Reader
	downloaded int64
	total      int64
	callback   ProgressCallback
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.downloaded += int64(n)
		r.callback(r.downloaded, r.total)
	}
	return n, err
}
