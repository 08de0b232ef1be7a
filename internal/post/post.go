// Package post defines the blog post entity and its field validation rules.
package post

// NewSlug is the path sentinel that addresses a post which does not exist yet.
const NewSlug = "new"

// Post represents a stored blog post. Slug is the primary key.
type Post struct {
	Slug      string `json:"slug" yaml:"slug"`
	Title     string `json:"title" yaml:"title"`
	Markdown  string `json:"markdown" yaml:"-"`
	CreatedAt int64  `json:"created_at" yaml:"-"`
	UpdatedAt int64  `json:"updated_at" yaml:"-"`
}

// Fields is the mutable field set submitted on create and update.
type Fields struct {
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Markdown string `json:"markdown"`
}

// Fields returns the mutable fields of p.
func (p *Post) Fields() Fields {
	return Fields{Title: p.Title, Slug: p.Slug, Markdown: p.Markdown}
}
