package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/scribe/internal/errors"
)

func TestValidateDir_TraversalRejected(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"parent traversal", "../backup"},
		{"deep traversal", "../../etc"},
		{"mid-path traversal", "/tmp/../etc"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateDir(tc.path, PathCheckWrite)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidateDir_Empty(t *testing.T) {
	_, err := ValidateDir("  ", PathCheckWrite)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestValidateDir_MissingReadMode(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")

	if _, err := ValidateDir(missing, PathCheckRead); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("read mode: expected ErrInvalidRequest, got: %v", err)
	}
	got, err := ValidateDir(missing, PathCheckWrite)
	if err != nil {
		t.Fatalf("write mode: unexpected error: %v", err)
	}
	if got != missing {
		t.Errorf("ValidateDir() = %q, want %q", got, missing)
	}
}

func TestValidateDir_SymlinkRejected(t *testing.T) {
	tmpDir := t.TempDir()
	real := filepath.Join(tmpDir, "real")
	if err := os.Mkdir(real, 0700); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(tmpDir, "link")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	if _, err := ValidateDir(link, PathCheckRead); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest for symlink, got: %v", err)
	}
}

func TestValidateDir_FileRejected(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.md")
	if err := os.WriteFile(file, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := ValidateDir(file, PathCheckRead); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest for file, got: %v", err)
	}
}

func TestContainsTraversal(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/safe/path", false},
		{"relative/dir", false},
		{"../up", true},
		{"a/../b", true},
		{"dots..in..name", false},
	}
	for _, tt := range tests {
		if got := containsTraversal(tt.path); got != tt.want {
			t.Errorf("containsTraversal(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
