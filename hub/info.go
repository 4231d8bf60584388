package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"

	"github.com/gomlx/labeledtext/internal/files"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// RepoInfo holds information about a HuggingFace repo, it is the json served when hitting the URL
// https://huggingface.co/api/<repo_type>/<model_id>
//
// Only the fields used by the library are listed.
type RepoInfo struct {
	ID         string      `json:"id"`
	ModelID    string      `json:"model_id"`
	Author     string      `json:"author"`
	CommitHash string      `json:"sha"`
	Tags       []string    `json:"tags"`
	Siblings   []*FileInfo `json:"siblings"`
}

// FileInfo represents one of the model file, in the Info structure.
type FileInfo struct {
	Name string `json:"rfilename"`
}

// Info returns the RepoInfo structure about the model.
// Most users don't need to call this directly, instead use the various iterators.
//
// If it hasn't been downloaded or loaded from the cache yet, it loads it first.
//
// It may return nil if there was an issue with the downloading of the RepoInfo json from HuggingFace.
// Try DownloadInfo to get an error.
func (r *Repo) Info() *RepoInfo {
	if r.info == nil {
		err := r.DownloadInfo(false)
		if err != nil {
			klog.Errorf("Error while downloading info about Repo: %+v", err)
		}
	}
	return r.info
}

// infoURL for the API that returns the info about a repository.
func (r *Repo) infoURL() string {
	return fmt.Sprintf("%s/api/%s/%s/revision/%s", r.hfEndpoint, r.repoType, r.ID, r.revision)
}

// DownloadInfo about the model, if it hasn't yet.
//
// It will attempt to use the "info/<revision>" file in the cache directory first.
//
// If forceDownload is set to true, it ignores the current info or the cached one, and download it again from HuggingFace.
func (r *Repo) DownloadInfo(forceDownload bool) error {
	if r.info != nil && !forceDownload {
		return nil
	}

	infoFilePath, err := r.repoCacheDir()
	if err != nil {
		return err
	}
	infoFilePath = path.Join(infoFilePath, "info")
	if err = os.MkdirAll(infoFilePath, DefaultDirCreationPerm); err != nil {
		return errors.Wrapf(err, "while creating info directory %q", infoFilePath)
	}
	infoFilePath = path.Join(infoFilePath, r.revision)

	if !files.Exists(infoFilePath) || forceDownload {
		err := r.lockedDownload(context.Background(), r.infoURL(), infoFilePath, forceDownload, nil)
		if err != nil {
			return errors.WithMessagef(err, "failed to download repository info")
		}
	}

	infoJson, err := os.ReadFile(infoFilePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read info for model from disk in %q -- remove the file if you want to have it re-downloaded",
			infoFilePath)
	}

	decoder := json.NewDecoder(bytes.NewReader(infoJson))
	newInfo := &RepoInfo{}
	if err = decoder.Decode(newInfo); err != nil {
		return errors.Wrapf(err, "failed to parse info for model in %q (downloaded from %q)",
			infoFilePath, r.infoURL())
	}
	r.info = newInfo
	return nil
}
