// Package hub can be used to download files from HuggingFace Hub, which may
// be models, tokenizers or anything.
//
// It shares the cache directory with the huggingface_hub python library (usually under "~/.cache/huggingface/hub"),
// using a simplified layout: files are stored directly under the snapshot of the commit they were downloaded from.
package hub

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gomlx/labeledtext"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// SessionId is unique and always created anew at the start of the program, and used during the life of the program.
var SessionId string

// panicf generates an error message and panics with it, in one function.
func panicf(format string, args ...any) {
	err := errors.Errorf(format, args...)
	panic(err)
}

func init() {
	sessionUUID, err := uuid.NewRandom()
	if err != nil {
		panicf("failed generating UUID for SessionId: %v", err)
	}
	SessionId = strings.Replace(sessionUUID.String(), "-", "", -1)
}

var (
	// DefaultDirCreationPerm is used when creating new cache subdirectories.
	DefaultDirCreationPerm = os.FileMode(0755)

	// DefaultFileCreationPerm is used when creating files inside the cache subdirectories.
	DefaultFileCreationPerm = os.FileMode(0644)
)

func getEnvOr(key, defaultValue string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	return v
}

// DefaultCacheDir for HuggingFace Hub, same used by the python library.
//
// Its prefix is either `${XDG_CACHE_HOME}` if set, or `~/.cache` otherwise. Followed by `/huggingface/hub/`.
// So typically: `~/.cache/huggingface/hub/`.
func DefaultCacheDir() string {
	cacheDir := getEnvOr("XDG_CACHE_HOME", path.Join(os.Getenv("HOME"), ".cache"))
	cacheDir = path.Join(cacheDir, "huggingface", "hub")
	return cacheDir
}

// DefaultHttpUserAgent returns a user agent to use with HuggingFace Hub API.
func DefaultHttpUserAgent() string {
	return fmt.Sprintf("labeledtext/%v; golang/%s; session_id/%s",
		labeledtext.Version, runtime.Version(), SessionId)
}

// RepoIdSeparator is used to separate repository/model names parts when mapping to file names.
// Likely only for internal use.
const RepoIdSeparator = "--"

// RepoType supported by HuggingFace-Hub
type RepoType string

const (
	RepoTypeDataset RepoType = "datasets"
	RepoTypeSpace   RepoType = "spaces"
	RepoTypeModel   RepoType = "models"
)

// cleanRelativeFilePath cleans a file name given by the repository, so that it is always relative and cannot
// escape the directory it is joined to. It uses the OS separator.
func cleanRelativeFilePath(fileName string) string {
	cleaned := path.Clean("/" + fileName) // Rooting it first swallows all leading "..".
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" {
		cleaned = "."
	}
	return filepath.FromSlash(cleaned)
}
