package ops

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/hpungsan/scribe/internal/errors"
	"github.com/hpungsan/scribe/internal/store"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Dir string // required; created if missing
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Dir        string   `json:"dir"`
	Count      int      `json:"count"`
	Files      []string `json:"files"`
	ExportedAt int64    `json:"exported_at"`
}

// Export writes every post to <dir>/<slug>.md with YAML front matter.
// Existing files for the same slug are replaced atomically.
func Export(ctx context.Context, st store.Store, input ExportInput) (*ExportOutput, error) {
	dir, err := ValidateDir(input.Dir, PathCheckWrite)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	listed, err := List(ctx, st)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(listed.Items))
	for _, p := range listed.Items {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelled("export")
		}

		data, err := encodePostFile(p)
		if err != nil {
			return nil, errors.NewInternal(err)
		}

		path := postFilePath(dir, p.Slug)
		if err := writeFileAtomic(path, data); err != nil {
			return nil, err
		}
		files = append(files, path)
	}

	return &ExportOutput{
		Dir:        dir,
		Count:      len(files),
		Files:      files,
		ExportedAt: time.Now().Unix(),
	}, nil
}

// writeFileAtomic writes data to a temp file next to path, then renames it into place.
// The previous file, if any, survives a failed write.
func writeFileAtomic(path string, data []byte) error {
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"

	file, err := createNoFollow(tempPath)
	if err != nil {
		return asInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink at the destination
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("export target is a symlink: " + path)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return nil
}

// asInternal keeps structured errors and wraps the rest as INTERNAL.
func asInternal(err error) error {
	var sErr *errors.ScribeError
	if stderrors.As(err, &sErr) {
		return sErr
	}
	return errors.NewInternal(err)
}
