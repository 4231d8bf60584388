// Package files implements generic file tools missing from the standard library.
package files

import (
	"bufio"
	"io"
	"os"
	"os/user"
	"path"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Exists returns true if file or directory exists.
func Exists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}

// ReplaceTildeInDir by the user's home directory. Returns dir if it doesn't start with "~".
//
// It returns an error if `dir` has an unknown user (e.g: `~unknown/...`)
func ReplaceTildeInDir(dir string) (string, error) {
	if len(dir) == 0 || dir[0] != '~' {
		return dir, nil
	}
	var userName string
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		sepIdx := strings.IndexRune(dir, '/')
		if sepIdx == -1 {
			userName = dir[1:]
		} else {
			userName = dir[1:sepIdx]
		}
	}
	var usr *user.User
	var err error
	if userName == "" {
		usr, err = user.Current()
	} else {
		usr, err = user.Lookup(userName)
	}
	if err != nil {
		return dir, errors.Wrapf(err, "failed to lookup home directory for user in path %q", dir)
	}
	return path.Join(usr.HomeDir, dir[1+len(userName):]), nil
}

// WriteAtomic creates filePath+".tmp", passes a buffered writer to fn, and on success renames the temporary
// file over filePath. Readers never observe a partially written filePath.
//
// On failure the temporary file is removed and filePath is left untouched.
func WriteAtomic(filePath string, perm os.FileMode, fn func(w io.Writer) error) (err error) {
	tmpPath := filePath + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return errors.Wrapf(err, "failed to create %q", tmpPath)
	}
	var closed bool
	defer func() {
		if err == nil {
			return
		}
		if !closed {
			_ = f.Close()
		}
		if errRm := os.Remove(tmpPath); errRm != nil && !os.IsNotExist(errRm) {
			klog.Warningf("failed removing temporary file %q: %v", tmpPath, errRm)
		}
	}()

	buf := bufio.NewWriter(f)
	if err = fn(buf); err != nil {
		return err
	}
	if err = buf.Flush(); err != nil {
		return errors.Wrapf(err, "failed to write %q", tmpPath)
	}
	closed = true
	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %q", tmpPath)
	}
	if err = os.Rename(tmpPath, filePath); err != nil {
		return errors.Wrapf(err, "failed to move %q to %q", tmpPath, filePath)
	}
	return nil
}
