package ops

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/hpungsan/scribe/internal/auth"
	"github.com/hpungsan/scribe/internal/errors"
	"github.com/hpungsan/scribe/internal/post"
	"github.com/hpungsan/scribe/internal/store"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError ImportMode = "error" // import nothing if any file is invalid or collides
	ImportModeSkip  ImportMode = "skip"  // import what can be imported, report the rest
)

// maxPostFileSize bounds a single import file.
const maxPostFileSize = 4 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Dir  string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes a file that was not imported.
type ImportError struct {
	File    string `json:"file"`
	Slug    string `json:"slug,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type importRecord struct {
	file   string
	fields post.Fields
}

// Import creates posts from <dir>/*.md files written by Export.
// Imported posts go through the same validation as the admin form, and the
// caller must be the admin.
func Import(ctx context.Context, st store.Store, az *auth.Authorizer, user *auth.User, input ImportInput) (*ImportOutput, error) {
	if err := az.Authorize(user); err != nil {
		return nil, err
	}

	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeSkip {
		return nil, errors.NewInvalidRequest("mode must be one of: error, skip")
	}

	dir, err := ValidateDir(input.Dir, PathCheckRead)
	if err != nil {
		return nil, err
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*"+postFileExt))
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	sort.Strings(paths)

	records, problems := parsePostFiles(paths)
	seen := make(map[string]string, len(records))
	valid := make([]importRecord, 0, len(records))
	for _, rec := range records {
		if first, dup := seen[rec.fields.Slug]; dup {
			problems = append(problems, ImportError{
				File: rec.file, Slug: rec.fields.Slug, Code: string(errors.ErrSlugConflict),
				Message: fmt.Sprintf("slug also used by %s", filepath.Base(first)),
			})
			continue
		}
		seen[rec.fields.Slug] = rec.file

		_, exists, err := st.GetPost(ctx, rec.fields.Slug)
		if err != nil {
			return nil, err
		}
		if exists {
			problems = append(problems, ImportError{
				File: rec.file, Slug: rec.fields.Slug, Code: string(errors.ErrSlugConflict),
				Message: post.MsgSlugTaken,
			})
			continue
		}
		valid = append(valid, rec)
	}

	out := &ImportOutput{Errors: []ImportError{}}
	if input.Mode == ImportModeError && len(problems) > 0 {
		out.Skipped = len(paths)
		out.Errors = problems
		return out, nil
	}
	out.Errors = append(out.Errors, problems...)
	out.Skipped = len(problems)

	for _, rec := range valid {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelled("import")
		}
		_, err := st.CreatePost(ctx, rec.fields)
		if errors.Is(err, errors.ErrSlugConflict) {
			// Lost a race with a concurrent writer since the pre-check
			out.Errors = append(out.Errors, ImportError{
				File: rec.file, Slug: rec.fields.Slug, Code: string(errors.ErrSlugConflict),
				Message: post.MsgSlugTaken,
			})
			out.Skipped++
			continue
		}
		if err != nil {
			return nil, err
		}
		out.Imported++
	}

	return out, nil
}

// parsePostFiles reads, decodes and validates each file.
func parsePostFiles(paths []string) ([]importRecord, []ImportError) {
	var (
		records  []importRecord
		problems []ImportError
	)

	for _, path := range paths {
		data, err := readPostFile(path)
		if err != nil {
			problems = append(problems, ImportError{File: path, Code: "READ_ERROR", Message: err.Error()})
			continue
		}

		fields, err := decodePostFile(data)
		if err != nil {
			problems = append(problems, ImportError{File: path, Code: "PARSE_ERROR", Message: err.Error()})
			continue
		}

		fields = post.Normalize(fields)
		if fe := post.Validate(fields); fe.HasErrors() {
			problems = append(problems, ImportError{
				File: path, Slug: fields.Slug, Code: string(errors.ErrValidationFailed),
				Message: fmt.Sprintf("%v", fe.Map()),
			})
			continue
		}

		records = append(records, importRecord{file: path, fields: fields})
	}

	return records, problems
}

func readPostFile(path string) ([]byte, error) {
	f, err := openNoFollow(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxPostFileSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxPostFileSize {
		return nil, fmt.Errorf("file exceeds %d bytes", maxPostFileSize)
	}
	return data, nil
}
