package post

import (
	"strings"

	"github.com/gosimple/slug"
)

// Field error messages rendered next to the offending input.
const (
	MsgTitleRequired    = "Title is required"
	MsgSlugRequired     = "Slug is required"
	MsgMarkdownRequired = "Markdown is required"
	MsgSlugInvalid      = "Slug may only contain lowercase letters, numbers, hyphens and underscores"
	MsgSlugTaken        = "A post with this slug already exists"
	MsgSlugReserved     = "This slug is reserved"
)

// FieldErrors maps each form field to an error message, or nil when the field is valid.
// It serializes to {"title": ..., "slug": ..., "markdown": ...} with nulls for valid fields.
type FieldErrors struct {
	Title    *string `json:"title"`
	Slug     *string `json:"slug"`
	Markdown *string `json:"markdown"`
}

// HasErrors reports whether any field failed validation.
func (fe FieldErrors) HasErrors() bool {
	return fe.Title != nil || fe.Slug != nil || fe.Markdown != nil
}

// Map returns the failing fields keyed by form name.
func (fe FieldErrors) Map() map[string]string {
	m := make(map[string]string, 3)
	if fe.Title != nil {
		m["title"] = *fe.Title
	}
	if fe.Slug != nil {
		m["slug"] = *fe.Slug
	}
	if fe.Markdown != nil {
		m["markdown"] = *fe.Markdown
	}
	return m
}

// SlugError returns FieldErrors with only the slug field set.
func SlugError(msg string) FieldErrors {
	return FieldErrors{Slug: &msg}
}

// Normalize trims surrounding whitespace from the title and slug.
// Markdown is kept as submitted.
func Normalize(f Fields) Fields {
	return Fields{
		Title:    strings.TrimSpace(f.Title),
		Slug:     strings.TrimSpace(f.Slug),
		Markdown: f.Markdown,
	}
}

// Validate checks that all three fields are present and that the slug is URL-safe.
// It expects normalized fields.
func Validate(f Fields) FieldErrors {
	var fe FieldErrors

	if f.Title == "" {
		fe.Title = ptr(MsgTitleRequired)
	}

	switch {
	case f.Slug == "":
		fe.Slug = ptr(MsgSlugRequired)
	case reservedSlugs[f.Slug]:
		fe.Slug = ptr(MsgSlugReserved)
	case !IsValidSlug(f.Slug):
		fe.Slug = ptr(MsgSlugInvalid)
	}

	if strings.TrimSpace(f.Markdown) == "" {
		fe.Markdown = ptr(MsgMarkdownRequired)
	}

	return fe
}

// reservedSlugs collide with fixed admin routes.
var reservedSlugs = map[string]bool{
	NewSlug: true,
	"admin": true,
}

// IsValidSlug reports whether s is usable as a URL path segment and primary key.
func IsValidSlug(s string) bool {
	return slug.IsSlug(s)
}

// MakeSlug derives a slug from free text such as a title.
func MakeSlug(s string) string {
	return slug.Make(s)
}

func ptr(s string) *string { return &s }
