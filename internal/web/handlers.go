package web

import (
	"net/http"

	"github.com/hpungsan/scribe/internal/auth"
	"github.com/hpungsan/scribe/internal/errors"
	"github.com/hpungsan/scribe/internal/ops"
	"github.com/hpungsan/scribe/internal/post"
	"github.com/hpungsan/scribe/internal/store"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	store    store.Store
	az       *auth.Authorizer
	resolver auth.Resolver
	renderer *Renderer
}

// HandleList handles GET /posts, the public post list.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	result, err := ops.List(r.Context(), h.store)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: h.renderer.page("Posts", "posts", h.az.IsAdmin(h.resolver.CurrentUser(r))),
		Items:    result.Items,
	})
}

// HandlePost handles GET /posts/{slug}: one post rendered from markdown.
func (h *Handlers) HandlePost(w http.ResponseWriter, r *http.Request) {
	p, err := ops.Fetch(r.Context(), h.store, r.PathValue("slug"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, p)
		return
	}

	h.renderer.renderPage(w, r, "post", PostPageData{
		PageData:     h.renderer.page(p.Title, "posts", h.az.IsAdmin(h.resolver.CurrentUser(r))),
		Post:         p,
		RenderedHTML: renderMarkdown(p.Markdown),
	})
}

// HandleAdminList handles GET /posts/admin, the admin dashboard.
func (h *Handlers) HandleAdminList(w http.ResponseWriter, r *http.Request) {
	result, err := ops.AdminList(r.Context(), h.store, h.az, h.resolver.CurrentUser(r))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "admin", ListPageData{
		PageData: h.renderer.page("Admin", "admin", true),
		Items:    result.Items,
	})
}

// HandleEdit handles GET /posts/admin/{slug}: the editor for a new or existing post.
func (h *Handlers) HandleEdit(w http.ResponseWriter, r *http.Request) {
	target := r.PathValue("slug")

	result, err := ops.Edit(r.Context(), h.store, h.az, h.resolver.CurrentUser(r), target)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	data := FormPageData{
		PageData: h.renderer.page("New post", "admin", true),
		IsNew:    result.IsNew,
		Target:   target,
	}
	if result.Post != nil {
		data.Title = "Edit " + result.Post.Title
		data.Values = result.Post.Fields()
	}
	h.renderer.renderPage(w, r, "form", data)
}

// HandleSubmit handles POST /posts/admin/{slug}: create, update or delete,
// selected by the reserved "intent" form field.
func (h *Handlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	target := r.PathValue("slug")
	user := h.resolver.CurrentUser(r)

	// Reject before reading the body
	if err := h.az.Authorize(user); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	input := ops.SubmitInput{
		Target:   target,
		Intent:   r.PostFormValue("intent"),
		Title:    r.PostFormValue("title"),
		Slug:     r.PostFormValue("slug"),
		Markdown: r.PostFormValue("markdown"),
	}

	result, err := ops.Submit(r.Context(), h.store, h.az, user, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if result.Failed() {
		if wantsJSON(r) {
			renderJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": result.Errors})
			return
		}
		h.renderer.renderPageStatus(w, r, http.StatusUnprocessableEntity, "form", FormPageData{
			PageData: h.renderer.page(formTitle(target), "admin", true),
			IsNew:    ops.IsNewTarget(target),
			Target:   target,
			Values:   post.Fields{Title: input.Title, Slug: input.Slug, Markdown: input.Markdown},
			Errors:   *result.Errors,
		})
		return
	}

	redirect(w, r, result.Redirect)
}

func formTitle(target string) string {
	if ops.IsNewTarget(target) {
		return "New post"
	}
	return "Edit " + target
}
