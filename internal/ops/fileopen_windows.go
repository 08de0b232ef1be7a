//go:build windows

package ops

import (
	"os"
)

// createNoFollow creates (or truncates) a post file for writing.
// Windows has no O_NOFOLLOW; ValidateDir still rejects a symlinked directory.
func createNoFollow(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
}

// openNoFollow opens a post file for reading.
func openNoFollow(path string) (*os.File, error) {
	return os.Open(path)
}
