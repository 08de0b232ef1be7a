package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/scribe/internal/auth"
	"github.com/hpungsan/scribe/internal/db"
	"github.com/hpungsan/scribe/internal/post"
	"github.com/hpungsan/scribe/internal/store"
)

const (
	adminEmail = "admin@example.com"
	userHeader = "X-Forwarded-Email"
)

func setupTest(t *testing.T) (http.Handler, store.Store) {
	t.Helper()

	st, err := db.Open(t.TempDir())
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	az, err := auth.NewAuthorizer(adminEmail)
	if err != nil {
		t.Fatalf("NewAuthorizer: %v", err)
	}

	handler, err := NewHandler(Deps{
		Store:      st,
		Authorizer: az,
		Resolver:   auth.HeaderResolver{Header: userHeader},
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Version:    "test",
	})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	return handler, st
}

func seedPost(t *testing.T, st store.Store, slug, title, markdown string) {
	t.Helper()
	if _, err := st.CreatePost(context.Background(), post.Fields{Title: title, Slug: slug, Markdown: markdown}); err != nil {
		t.Fatalf("seed post %q: %v", slug, err)
	}
}

type reqOpt func(*http.Request)

func as(email string) reqOpt {
	return func(r *http.Request) { r.Header.Set(userHeader, email) }
}

func acceptJSON(r *http.Request) { r.Header.Set("Accept", "application/json") }

func htmx(r *http.Request) { r.Header.Set("HX-Request", "true") }

func do(h http.Handler, method, target string, form url.Values, opts ...reqOpt) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postForm(title, slug, markdown, intent string) url.Values {
	v := url.Values{"title": {title}, "slug": {slug}, "markdown": {markdown}}
	if intent != "" {
		v.Set("intent", intent)
	}
	return v
}

// --- public pages ---

func TestRootRedirectsToPosts(t *testing.T) {
	h, _ := setupTest(t)

	rec := do(h, "GET", "/", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/posts" {
		t.Errorf("Location = %q, want /posts", loc)
	}
}

func TestHandleList(t *testing.T) {
	h, st := setupTest(t)
	seedPost(t, st, "alpha", "Alpha post", "a")

	rec := do(h, "GET", "/posts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Alpha post") || !strings.Contains(body, `href="/posts/alpha"`) {
		t.Errorf("expected post link in list, got %s", body)
	}
	if strings.Contains(body, `href="/posts/admin"`) {
		t.Error("anonymous visitors should not see the admin link")
	}

	rec = do(h, "GET", "/posts", nil, as(adminEmail))
	if !strings.Contains(rec.Body.String(), `href="/posts/admin"`) {
		t.Error("admin should see the admin link")
	}
}

func TestHandleList_Empty(t *testing.T) {
	h, _ := setupTest(t)

	rec := do(h, "GET", "/posts", nil, acceptJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"items":[],"count":0}`, rec.Body.String())
}

func TestHandlePost_RendersMarkdown(t *testing.T) {
	h, st := setupTest(t)
	seedPost(t, st, "hello", "Hello", "# Big heading\n\nSome *emphasis*.\n\n<script>alert(1)</script>\n")

	rec := do(h, "GET", "/posts/hello", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Big heading</h1>") {
		t.Errorf("expected rendered heading, got %s", body)
	}
	if !strings.Contains(body, "<em>emphasis</em>") {
		t.Errorf("expected rendered emphasis, got %s", body)
	}
	if strings.Contains(body, "<script>alert") {
		t.Error("raw script should be sanitized out of rendered markdown")
	}
}

func TestHandlePost_NotFound(t *testing.T) {
	h, _ := setupTest(t)

	rec := do(h, "GET", "/posts/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	rec = do(h, "GET", "/posts/missing", nil, acceptJSON)
	var payload map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "NOT_FOUND", payload["error"]["code"])
}

// --- admin workflow ---

func TestSubmit_CreateRedirects(t *testing.T) {
	h, st := setupTest(t)

	rec := do(h, "POST", "/posts/admin/new", postForm("Hello", "hello", "# Hi", ""), as(adminEmail))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303; body %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/posts/admin" {
		t.Errorf("Location = %q, want /posts/admin", loc)
	}

	p, found, err := st.GetPost(context.Background(), "hello")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Hello", p.Title)

	rec = do(h, "GET", "/posts/hello", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmit_RedirectNegotiation(t *testing.T) {
	h, _ := setupTest(t)

	rec := do(h, "POST", "/posts/admin/new", postForm("A", "a", "a", "create"), as(adminEmail), htmx)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "/posts/admin", rec.Header().Get("HX-Redirect"))

	rec = do(h, "POST", "/posts/admin/new", postForm("B", "b", "b", "create"), as(adminEmail), acceptJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"redirect":"/posts/admin"}`, rec.Body.String())
}

func TestSubmit_EmptyTitleJSON(t *testing.T) {
	h, st := setupTest(t)

	rec := do(h, "POST", "/posts/admin/new", postForm("", "a", "b", ""), as(adminEmail), acceptJSON)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.JSONEq(t, `{"errors":{"title":"Title is required","slug":null,"markdown":null}}`, rec.Body.String())

	_, found, err := st.GetPost(context.Background(), "a")
	require.NoError(t, err)
	require.False(t, found)
}

func TestSubmit_FieldErrorsRerenderForm(t *testing.T) {
	h, _ := setupTest(t)

	rec := do(h, "POST", "/posts/admin/new", postForm("Kept title", "", "", ""), as(adminEmail))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Slug is required", "Markdown is required", `value="Kept title"`} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in re-rendered form", want)
		}
	}
	if strings.Contains(body, "Title is required") {
		t.Error("title is valid and should not show an error")
	}
}

func TestSubmit_SlugConflict(t *testing.T) {
	h, st := setupTest(t)
	seedPost(t, st, "taken", "Taken", "original")

	rec := do(h, "POST", "/posts/admin/new", postForm("Other", "taken", "other", ""), as(adminEmail), acceptJSON)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.JSONEq(t, `{"errors":{"title":null,"slug":"A post with this slug already exists","markdown":null}}`, rec.Body.String())
}

func TestSubmit_UpdateAndRename(t *testing.T) {
	h, st := setupTest(t)
	seedPost(t, st, "draft", "Draft", "body")

	rec := do(h, "POST", "/posts/admin/draft", postForm("Final", "final", "new body", "update"), as(adminEmail))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	ctx := context.Background()
	_, found, err := st.GetPost(ctx, "draft")
	require.NoError(t, err)
	require.False(t, found)
	p, found, err := st.GetPost(ctx, "final")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "new body", p.Markdown)
}

func TestSubmit_DeleteThenNotFound(t *testing.T) {
	h, st := setupTest(t)
	seedPost(t, st, "a", "A", "body")

	rec := do(h, "POST", "/posts/admin/a", url.Values{"intent": {"delete"}}, as(adminEmail))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/posts/admin", rec.Header().Get("Location"))

	rec = do(h, "GET", "/posts/a", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// deleting again is reported, not fatal
	rec = do(h, "POST", "/posts/admin/a", url.Values{"intent": {"delete"}}, as(adminEmail))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmit_UnknownIntent(t *testing.T) {
	h, st := setupTest(t)

	rec := do(h, "POST", "/posts/admin/new", postForm("T", "t", "m", "publish"), as(adminEmail))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	posts, err := st.ListPosts(context.Background())
	require.NoError(t, err)
	require.Empty(t, posts)
}

func TestAdminRoutes_Authorization(t *testing.T) {
	tests := []struct {
		name   string
		opts   []reqOpt
		status int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"non-admin", []reqOpt{as("reader@example.com")}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, st := setupTest(t)
			seedPost(t, st, "keep", "Keep", "body")

			requests := []struct {
				method, target string
				form           url.Values
			}{
				{"GET", "/posts/admin", nil},
				{"GET", "/posts/admin/new", nil},
				{"GET", "/posts/admin/keep", nil},
				{"POST", "/posts/admin/new", postForm("T", "t", "m", "")},
				{"POST", "/posts/admin/keep", postForm("Changed", "keep", "changed", "update")},
				{"POST", "/posts/admin/keep", url.Values{"intent": {"delete"}}},
			}
			for _, r := range requests {
				rec := do(h, r.method, r.target, r.form, tt.opts...)
				if rec.Code != tt.status {
					t.Errorf("%s %s: status = %d, want %d", r.method, r.target, rec.Code, tt.status)
				}
				if !strings.Contains(rec.Body.String(), "not authorized") {
					t.Errorf("%s %s: expected generic not authorized page", r.method, r.target)
				}
			}

			p, found, err := st.GetPost(context.Background(), "keep")
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, "body", p.Markdown)
			_, found, err = st.GetPost(context.Background(), "t")
			require.NoError(t, err)
			require.False(t, found)
		})
	}
}

func TestHandleAdminList(t *testing.T) {
	h, st := setupTest(t)
	seedPost(t, st, "alpha", "Alpha", "a")

	rec := do(h, "GET", "/posts/admin", nil, as("ADMIN@example.com"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `href="/posts/admin/alpha"`) {
		t.Error("expected edit link for alpha")
	}
	if !strings.Contains(body, `href="/posts/admin/new"`) {
		t.Error("expected new post link")
	}
}

func TestHandleEdit(t *testing.T) {
	h, st := setupTest(t)
	seedPost(t, st, "alpha", "Alpha", "alpha body")

	rec := do(h, "GET", "/posts/admin/new", nil, as(adminEmail))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `value="create"`)
	require.NotContains(t, rec.Body.String(), `value="delete"`)

	rec = do(h, "GET", "/posts/admin/alpha", nil, as(adminEmail))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `value="Alpha"`)
	require.Contains(t, body, "alpha body")
	require.Contains(t, body, `value="delete"`)
	require.Less(t, strings.Index(body, `value="update"`), strings.Index(body, `value="delete"`),
		"update must be the default submit button")

	rec = do(h, "GET", "/posts/admin/missing", nil, as(adminEmail))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTMXRendersContentOnly(t *testing.T) {
	h, _ := setupTest(t)

	rec := do(h, "GET", "/posts/admin/new", nil, as(adminEmail), htmx)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "<!DOCTYPE html>")
	require.Contains(t, rec.Body.String(), "<form")
}

// --- middleware and static ---

func TestResponseHeaders(t *testing.T) {
	h, _ := setupTest(t)

	rec := do(h, "GET", "/posts", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("expected X-Frame-Options: DENY")
	}
	if !strings.Contains(rec.Header().Get("Content-Security-Policy"), "default-src 'self'") {
		t.Error("expected Content-Security-Policy header")
	}

	other := do(h, "GET", "/posts", nil)
	if other.Header().Get("X-Request-ID") == rec.Header().Get("X-Request-ID") {
		t.Error("request ids should be unique per request")
	}
}

func TestStaticAssets(t *testing.T) {
	h, _ := setupTest(t)

	for _, path := range []string{"/static/style.css", "/static/app.js"} {
		rec := do(h, "GET", path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: status = %d, want 200", path, rec.Code)
		}
	}
}

func TestRenderMarkdown(t *testing.T) {
	got := string(renderMarkdown("| a | b |\n|---|---|\n| 1 | 2 |\n\n[link](javascript:alert(1))"))
	if !strings.Contains(got, "<table>") {
		t.Errorf("expected GFM table, got %s", got)
	}
	if strings.Contains(got, "javascript:") {
		t.Errorf("javascript: link should be stripped, got %s", got)
	}
}
