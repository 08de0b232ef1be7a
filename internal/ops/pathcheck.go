package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/scribe/internal/errors"
)

// PathCheckMode indicates whether the directory check is for reading or writing.
type PathCheckMode int

const (
	PathCheckRead  PathCheckMode = iota // import (directory must exist)
	PathCheckWrite                      // export (directory is created if missing)
)

// postFileExt is the extension of exported post files.
const postFileExt = ".md"

// ValidateDir checks an import/export directory and returns its absolute, cleaned form.
// It rejects empty paths, ".." traversal and symlinked directories.
func ValidateDir(dir string, mode PathCheckMode) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errors.NewInvalidRequest("directory is required")
	}

	if containsTraversal(dir) {
		return "", errors.NewInvalidRequest("directory must not contain directory traversal (..)")
	}

	absDir, err := filepath.Abs(filepath.Clean(dir))
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid directory: %v", err))
	}

	info, err := os.Lstat(absDir)
	switch {
	case err == nil && info.Mode()&os.ModeSymlink != 0:
		return "", errors.NewInvalidRequest("directory must not be a symlink")
	case err == nil && !info.IsDir():
		return "", errors.NewInvalidRequest("path is not a directory")
	case os.IsNotExist(err) && mode == PathCheckRead:
		return "", errors.NewInvalidRequest(fmt.Sprintf("directory not found: %s", dir))
	case err != nil && !os.IsNotExist(err):
		return "", errors.NewInternal(err)
	}

	return absDir, nil
}

// postFilePath returns the export file path for slug inside dir.
// Slugs are validated URL-safe, so they are also safe file names.
func postFilePath(dir, slug string) string {
	return filepath.Join(dir, slug+postFileExt)
}

// containsTraversal checks if path contains ".." directory traversal.
func containsTraversal(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	// Also check for forward slashes on all platforms (e.g., user input)
	if filepath.Separator != '/' {
		for _, part := range strings.Split(path, "/") {
			if part == ".." {
				return true
			}
		}
	}
	return false
}
