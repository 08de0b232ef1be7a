//go:build !windows

package ops

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/hpungsan/scribe/internal/errors"
)

// createNoFollow creates (or truncates) a post file for writing without following
// a symlink in the final path component.
func createNoFollow(path string) (*os.File, error) {
	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC | syscall.O_NOFOLLOW | syscall.O_CLOEXEC
	fd, err := syscall.Open(path, flag, 0600)
	if err != nil {
		if stderrors.Is(err, syscall.ELOOP) {
			return nil, errors.NewInvalidRequest("refusing to write through symlink: " + path)
		}
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}

// openNoFollow opens a post file for reading without following a symlink
// in the final path component.
func openNoFollow(path string) (*os.File, error) {
	fd, err := syscall.Open(path, syscall.O_RDONLY|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, 0)
	if err != nil {
		if stderrors.Is(err, syscall.ELOOP) {
			return nil, errors.NewInvalidRequest("refusing to read through symlink: " + path)
		}
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}
