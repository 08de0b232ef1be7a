// Package store defines the Post Store contract shared by the storage backends.
package store

import (
	"context"

	"github.com/hpungsan/scribe/internal/post"
)

// Store is durable slug-keyed persistence of posts.
//
// Implementations must enforce slug uniqueness inside the storage engine:
// CreatePost and UpdatePost are single atomic conditional writes, so the
// losing side of a race observes a SLUG_CONFLICT or NOT_FOUND error.
type Store interface {
	// ListPosts returns all posts. Callers must not depend on the order.
	ListPosts(ctx context.Context) ([]post.Post, error)
	// GetPost returns the post for slug. A missing slug yields found=false and a nil error.
	GetPost(ctx context.Context, slug string) (p *post.Post, found bool, err error)
	// CreatePost inserts a new post. Fails with SLUG_CONFLICT if the slug exists.
	CreatePost(ctx context.Context, f post.Fields) (*post.Post, error)
	// UpdatePost replaces the post at currentSlug, renaming it to f.Slug if different.
	// Fails with NOT_FOUND if currentSlug is missing and SLUG_CONFLICT if f.Slug
	// addresses a different existing post.
	UpdatePost(ctx context.Context, currentSlug string, f post.Fields) (*post.Post, error)
	// DeletePost removes the post at slug. Fails with NOT_FOUND if slug is missing.
	DeletePost(ctx context.Context, slug string) error
	// Close releases the underlying storage.
	Close() error
}
