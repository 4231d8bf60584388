package hub

import (
	"context"
	"iter"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// IterFileNames iterate over the file names stored in the repo.
// It doesn't trigger the downloading of the repo, only of the repo info.
func (r *Repo) IterFileNames() iter.Seq2[string, error] {
	err := r.DownloadInfo(false)
	if err != nil {
		return func(yield func(string, error) bool) {
			yield("", err)
		}
	}
	return func(yield func(string, error) bool) {
		for _, si := range r.info.Siblings {
			fileName := si.Name
			if path.IsAbs(fileName) || strings.Contains(fileName, "..") {
				yield("", errors.Errorf("model %q contains illegal file name %q -- it cannot be an absolute path, nor contain \"..\"",
					r.ID, fileName))
				return
			}
			if !yield(fileName, nil) {
				return
			}
		}
	}
}

// HasFile returns whether the repository lists the given file. It downloads the repository info if needed,
// and returns false if that fails.
func (r *Repo) HasFile(fileName string) bool {
	for name, err := range r.IterFileNames() {
		if err != nil {
			klog.Errorf("failed listing files of repo %q: %+v", r.ID, err)
			return false
		}
		if name == fileName {
			return true
		}
	}
	return false
}

// DownloadFiles downloads the repository files, and return the path to the downloaded files in the cache structure.
// Files already in the cache are not downloaded again.
//
// The returned downloadPaths can be read, but shouldn't be modified, since there may be other programs using the same
// files.
func (r *Repo) DownloadFiles(repoFiles ...string) (downloadedPaths []string, err error) {
	if len(repoFiles) == 0 {
		return
	}
	snapshotsDir, err := r.repoSnapshotsDir()
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	downloadedPaths = make([]string, 0, len(repoFiles))
	for _, fileName := range repoFiles {
		relativePath := cleanRelativeFilePath(fileName)
		if relativePath == "." {
			return nil, errors.Errorf("invalid file name %q for repo %q", fileName, r.ID)
		}
		filePath := filepath.Join(snapshotsDir, relativePath)
		url, err := r.FileURL(filepath.ToSlash(relativePath))
		if err != nil {
			return nil, err
		}
		err = r.lockedDownload(ctx, url, filePath, false, r.progressBarCallback(fileName))
		if err != nil {
			return nil, errors.WithMessagef(err, "while downloading %q from repo %q", fileName, r.ID)
		}
		if r.Verbosity >= 2 {
			klog.Infof("repo %q file %q available in %q", r.ID, fileName, filePath)
		}
		downloadedPaths = append(downloadedPaths, filePath)
	}
	return downloadedPaths, nil
}

// DownloadFile is a shortcut to DownloadFiles with only one file.
func (r *Repo) DownloadFile(file string) (downloadedPath string, err error) {
	res, err := r.DownloadFiles(file)
	if err != nil {
		return "", err
	}
	return res[0], nil
}
