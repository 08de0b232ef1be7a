package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/scribe/internal/auth"
	"github.com/hpungsan/scribe/internal/db"
	"github.com/hpungsan/scribe/internal/post"
	"github.com/hpungsan/scribe/internal/store"
)

const testAdminEmail = "admin@example.com"

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := db.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func newTestAuthorizer(t *testing.T) *auth.Authorizer {
	t.Helper()
	az, err := auth.NewAuthorizer(testAdminEmail)
	require.NoError(t, err)
	return az
}

func adminUser() *auth.User { return &auth.User{Email: testAdminEmail} }

func seedPost(t *testing.T, st store.Store, slug, title, markdown string) *post.Post {
	t.Helper()
	p, err := st.CreatePost(context.Background(), post.Fields{Title: title, Slug: slug, Markdown: markdown})
	require.NoError(t, err)
	return p
}
