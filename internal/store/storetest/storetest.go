// Package storetest is a contract test suite run against every store.Store backend.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/scribe/internal/errors"
	"github.com/hpungsan/scribe/internal/post"
	"github.com/hpungsan/scribe/internal/store"
)

// Factory opens a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Run exercises the full Post Store contract against newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateThenGet", func(t *testing.T) { testCreateThenGet(t, newStore(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("CreateDuplicate", func(t *testing.T) { testCreateDuplicate(t, newStore(t)) })
	t.Run("UpdateInPlace", func(t *testing.T) { testUpdateInPlace(t, newStore(t)) })
	t.Run("UpdateRename", func(t *testing.T) { testUpdateRename(t, newStore(t)) })
	t.Run("UpdateMissing", func(t *testing.T) { testUpdateMissing(t, newStore(t)) })
	t.Run("UpdateRenameConflict", func(t *testing.T) { testUpdateRenameConflict(t, newStore(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("DeleteMissing", func(t *testing.T) { testDeleteMissing(t, newStore(t)) })
	t.Run("ListIdempotent", func(t *testing.T) { testListIdempotent(t, newStore(t)) })
	t.Run("ConcurrentCreate", func(t *testing.T) { testConcurrentCreate(t, newStore(t)) })
	t.Run("ConcurrentRename", func(t *testing.T) { testConcurrentRename(t, newStore(t)) })
	t.Run("ConcurrentUpdateDelete", func(t *testing.T) { testConcurrentUpdateDelete(t, newStore(t)) })
	t.Run("ConcurrentRenameDelete", func(t *testing.T) { testConcurrentRenameDelete(t, newStore(t)) })
	t.Run("CancelledContext", func(t *testing.T) { testCancelledContext(t, newStore(t)) })
}

func fields(slug string) post.Fields {
	return post.Fields{Title: "Title " + slug, Slug: slug, Markdown: "# " + slug}
}

func mustCreate(t *testing.T, s store.Store, f post.Fields) *post.Post {
	t.Helper()
	p, err := s.CreatePost(context.Background(), f)
	require.NoError(t, err)
	return p
}

func slugs(posts []post.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Slug)
	}
	sort.Strings(out)
	return out
}

func testCreateThenGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	f := post.Fields{Title: "Hi", Slug: "hi", Markdown: "body"}

	created, err := s.CreatePost(ctx, f)
	require.NoError(t, err)
	require.Equal(t, f, created.Fields())
	require.NotZero(t, created.CreatedAt)
	require.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, found, err := s.GetPost(ctx, "hi")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, f, got.Fields())
}

func testGetMissing(t *testing.T, s store.Store) {
	for _, slug := range []string{"missing", "new", "a-b-c", ""} {
		got, found, err := s.GetPost(context.Background(), slug)
		require.NoError(t, err, "slug %q", slug)
		require.False(t, found, "slug %q", slug)
		require.Nil(t, got, "slug %q", slug)
	}
}

func testCreateDuplicate(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustCreate(t, s, post.Fields{Title: "First", Slug: "dup", Markdown: "one"})

	_, err := s.CreatePost(ctx, post.Fields{Title: "Second", Slug: "dup", Markdown: "two"})
	require.True(t, errors.Is(err, errors.ErrSlugConflict), "err = %v", err)

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "First", posts[0].Title)
}

func testUpdateInPlace(t *testing.T, s store.Store) {
	ctx := context.Background()
	created := mustCreate(t, s, fields("same"))

	updated, err := s.UpdatePost(ctx, "same", post.Fields{Title: "New", Slug: "same", Markdown: "changed"})
	require.NoError(t, err)
	require.Equal(t, "New", updated.Title)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)

	got, found, err := s.GetPost(ctx, "same")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "changed", got.Markdown)
}

func testUpdateRename(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustCreate(t, s, fields("old"))

	renamed, err := s.UpdatePost(ctx, "old", post.Fields{Title: "Renamed", Slug: "fresh", Markdown: "moved"})
	require.NoError(t, err)
	require.Equal(t, "fresh", renamed.Slug)

	_, found, err := s.GetPost(ctx, "old")
	require.NoError(t, err)
	require.False(t, found, "old slug should no longer resolve")

	got, found, err := s.GetPost(ctx, "fresh")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Renamed", got.Title)

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"fresh"}, slugs(posts))
}

func testUpdateMissing(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.UpdatePost(ctx, "ghost", fields("ghost"))
	require.True(t, errors.Is(err, errors.ErrNotFound), "err = %v", err)

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Empty(t, posts)
}

func testUpdateRenameConflict(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := mustCreate(t, s, fields("a"))
	b := mustCreate(t, s, fields("b"))

	_, err := s.UpdatePost(ctx, "a", post.Fields{Title: "Clobber", Slug: "b", Markdown: "lost"})
	require.True(t, errors.Is(err, errors.ErrSlugConflict), "err = %v", err)

	gotA, found, err := s.GetPost(ctx, "a")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, a.Fields(), gotA.Fields())

	gotB, found, err := s.GetPost(ctx, "b")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, b.Fields(), gotB.Fields())
}

func testDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustCreate(t, s, fields("bye"))

	require.NoError(t, s.DeletePost(ctx, "bye"))

	_, found, err := s.GetPost(ctx, "bye")
	require.NoError(t, err)
	require.False(t, found)

	// The slug is free again after a hard delete.
	mustCreate(t, s, fields("bye"))
}

func testDeleteMissing(t *testing.T, s store.Store) {
	err := s.DeletePost(context.Background(), "nope")
	require.True(t, errors.Is(err, errors.ErrNotFound), "err = %v", err)
}

func testListIdempotent(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, slug := range []string{"c", "a", "b"} {
		mustCreate(t, s, fields(slug))
	}

	first, err := s.ListPosts(ctx)
	require.NoError(t, err)
	second, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, first, second)
	require.Equal(t, []string{"a", "b", "c"}, slugs(first))

	g1, _, err := s.GetPost(ctx, "b")
	require.NoError(t, err)
	g2, _, err := s.GetPost(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, g1, g2)
}

func testConcurrentCreate(t *testing.T, s store.Store) {
	ctx := context.Background()
	const n = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
		others    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.CreatePost(ctx, post.Fields{Title: fmt.Sprintf("writer %d", i), Slug: "race", Markdown: "x"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, errors.ErrSlugConflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}(i)
	}
	wg.Wait()

	require.Empty(t, others)
	require.Equal(t, 1, wins)
	require.Equal(t, n-1, conflicts)

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
}

func testConcurrentRename(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustCreate(t, s, fields("left"))
	mustCreate(t, s, fields("right"))

	// Both posts race to take the same new slug; exactly one may win.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, from := range []string{"left", "right"} {
		wg.Add(1)
		go func(i int, from string) {
			defer wg.Done()
			_, errs[i] = s.UpdatePost(ctx, from, post.Fields{Title: from, Slug: "center", Markdown: from})
		}(i, from)
	}
	wg.Wait()

	okCount := 0
	for _, err := range errs {
		if err == nil {
			okCount++
			continue
		}
		require.True(t, errors.Is(err, errors.ErrSlugConflict), "err = %v", err)
	}
	require.Equal(t, 1, okCount)

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Contains(t, slugs(posts), "center")
}

func testConcurrentUpdateDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	const (
		rounds  = 10
		writers = 8
	)

	for round := 0; round < rounds; round++ {
		mustCreate(t, s, fields("contested"))

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			deleted  int
			notFound int
			others   []error
		)
		record := func(err error, isDelete bool) {
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				if isDelete {
					deleted++
				}
			case errors.Is(err, errors.ErrNotFound):
				notFound++
			default:
				others = append(others, err)
			}
		}
		for i := 0; i < writers; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				_, err := s.UpdatePost(ctx, "contested", post.Fields{
					Title: fmt.Sprintf("edit %d", i), Slug: "contested", Markdown: "edited",
				})
				record(err, false)
			}(i)
			go func() {
				defer wg.Done()
				record(s.DeletePost(ctx, "contested"), true)
			}()
		}
		wg.Wait()

		require.Empty(t, others, "round %d", round)
		require.Equal(t, 1, deleted, "round %d: exactly one delete may win", round)
		require.GreaterOrEqual(t, notFound, writers-1, "round %d", round)

		_, found, err := s.GetPost(ctx, "contested")
		require.NoError(t, err)
		require.False(t, found, "round %d: no update may resurrect a deleted post", round)
	}
}

func testConcurrentRenameDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	const rounds = 20

	for round := 0; round < rounds; round++ {
		mustCreate(t, s, fields("old"))

		var (
			wg        sync.WaitGroup
			renameErr error
			deleteErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, renameErr = s.UpdatePost(ctx, "old", fields("new-home"))
		}()
		go func() {
			defer wg.Done()
			deleteErr = s.DeletePost(ctx, "old")
		}()
		wg.Wait()

		_, atOld, err := s.GetPost(ctx, "old")
		require.NoError(t, err)
		require.False(t, atOld, "round %d", round)

		_, atNew, err := s.GetPost(ctx, "new-home")
		require.NoError(t, err)

		if renameErr == nil {
			// The rename landed first, so the delete found nothing at the old slug.
			require.True(t, errors.Is(deleteErr, errors.ErrNotFound), "round %d: delete err = %v", round, deleteErr)
			require.True(t, atNew, "round %d", round)
			require.NoError(t, s.DeletePost(ctx, "new-home"))
		} else {
			require.True(t, errors.Is(renameErr, errors.ErrNotFound), "round %d: rename err = %v", round, renameErr)
			require.NoError(t, deleteErr, "round %d", round)
			require.False(t, atNew, "round %d", round)
		}
	}
}

func testCancelledContext(t *testing.T, s store.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.CreatePost(ctx, fields("late"))
	require.Error(t, err)

	_, found, err := s.GetPost(context.Background(), "late")
	require.NoError(t, err)
	require.False(t, found)
}
