package ops

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/scribe/internal/auth"
	"github.com/hpungsan/scribe/internal/errors"
)

func writePostFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
}

func TestImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)
	seedPost(t, src, "a", "A", "# A\n\n---\n\nbody a\n")
	seedPost(t, src, "b", "B: colon", "body b")
	seedPost(t, src, "c", "Typed in a browser", "line1\r\nline2\r\n")

	dir := t.TempDir()
	_, err := Export(ctx, src, ExportInput{Dir: dir})
	require.NoError(t, err)

	dst := newTestStore(t)
	out, err := Import(ctx, dst, newTestAuthorizer(t), adminUser(), ImportInput{Dir: dir})
	require.NoError(t, err)
	require.Equal(t, 3, out.Imported)
	require.Equal(t, 0, out.Skipped)
	require.Empty(t, out.Errors)

	for _, slug := range []string{"a", "b", "c"} {
		want, _, err := src.GetPost(ctx, slug)
		require.NoError(t, err)
		got, found, err := dst.GetPost(ctx, slug)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, want.Title, got.Title)
		require.Equal(t, want.Markdown, got.Markdown)
	}
}

func TestImport_ModeErrorIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedPost(t, st, "exists", "Exists", "original")

	dir := t.TempDir()
	writePostFile(t, dir, "fresh.md", "---\ntitle: Fresh\nslug: fresh\n---\nbody\n")
	writePostFile(t, dir, "exists.md", "---\ntitle: Clash\nslug: exists\n---\nclash\n")

	out, err := Import(ctx, st, newTestAuthorizer(t), adminUser(), ImportInput{Dir: dir, Mode: ImportModeError})
	require.NoError(t, err)
	require.Equal(t, 0, out.Imported)
	require.Len(t, out.Errors, 1)
	require.Equal(t, string(errors.ErrSlugConflict), out.Errors[0].Code)

	_, found, err := st.GetPost(ctx, "fresh")
	require.NoError(t, err)
	require.False(t, found, "mode error must not import anything when a file collides")

	p, _, err := st.GetPost(ctx, "exists")
	require.NoError(t, err)
	require.Equal(t, "original", p.Markdown)
}

func TestImport_ModeSkip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedPost(t, st, "exists", "Exists", "original")

	dir := t.TempDir()
	writePostFile(t, dir, "fresh.md", "---\ntitle: Fresh\nslug: fresh\n---\nbody\n")
	writePostFile(t, dir, "exists.md", "---\ntitle: Clash\nslug: exists\n---\nclash\n")
	writePostFile(t, dir, "invalid.md", "---\ntitle: \"\"\nslug: Bad Slug\n---\nbody\n")
	writePostFile(t, dir, "broken.md", "no front matter")
	writePostFile(t, dir, "notes.txt", "ignored")

	out, err := Import(ctx, st, newTestAuthorizer(t), adminUser(), ImportInput{Dir: dir, Mode: ImportModeSkip})
	require.NoError(t, err)
	require.Equal(t, 1, out.Imported)
	require.Equal(t, 3, out.Skipped)

	codes := map[string]string{}
	for _, e := range out.Errors {
		codes[filepath.Base(e.File)] = e.Code
	}
	require.Equal(t, map[string]string{
		"broken.md":  "PARSE_ERROR",
		"exists.md":  string(errors.ErrSlugConflict),
		"invalid.md": string(errors.ErrValidationFailed),
	}, codes)

	_, found, err := st.GetPost(ctx, "fresh")
	require.NoError(t, err)
	require.True(t, found)
}

func TestImport_DuplicateSlugAcrossFiles(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	dir := t.TempDir()
	writePostFile(t, dir, "a.md", "---\ntitle: One\nslug: same\n---\none\n")
	writePostFile(t, dir, "b.md", "---\ntitle: Two\nslug: same\n---\ntwo\n")

	out, err := Import(ctx, st, newTestAuthorizer(t), adminUser(), ImportInput{Dir: dir, Mode: ImportModeSkip})
	require.NoError(t, err)
	require.Equal(t, 1, out.Imported)
	require.Equal(t, 1, out.Skipped)

	p, _, err := st.GetPost(ctx, "same")
	require.NoError(t, err)
	require.Equal(t, "One", p.Title, "first file in name order wins")
}

func TestImport_RequiresAdmin(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	dir := t.TempDir()
	writePostFile(t, dir, "a.md", "---\ntitle: A\nslug: a\n---\nbody\n")

	_, err := Import(ctx, st, newTestAuthorizer(t), &auth.User{Email: "x@example.com"}, ImportInput{Dir: dir})
	require.True(t, errors.Is(err, errors.ErrForbidden), "got %v", err)

	posts, err := st.ListPosts(ctx)
	require.NoError(t, err)
	require.Empty(t, posts)
}

func TestImport_InvalidInput(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	az := newTestAuthorizer(t)

	_, err := Import(ctx, st, az, adminUser(), ImportInput{Dir: t.TempDir(), Mode: "replace"})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)

	_, err = Import(ctx, st, az, adminUser(), ImportInput{Dir: filepath.Join(t.TempDir(), "missing")})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
}

func TestImport_RejectsSymlinkedFile(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	dir := t.TempDir()
	target := filepath.Join(t.TempDir(), "real.md")
	require.NoError(t, os.WriteFile(target, []byte("---\ntitle: A\nslug: a\n---\nbody\n"), 0600))
	if err := os.Symlink(target, filepath.Join(dir, "a.md")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	out, err := Import(ctx, st, newTestAuthorizer(t), adminUser(), ImportInput{Dir: dir, Mode: ImportModeSkip})
	require.NoError(t, err)
	require.Equal(t, 0, out.Imported)
	require.Len(t, out.Errors, 1)
	require.Equal(t, "READ_ERROR", out.Errors[0].Code)
}
