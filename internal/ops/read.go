package ops

import (
	"context"
	"sort"

	"github.com/hpungsan/scribe/internal/auth"
	"github.com/hpungsan/scribe/internal/errors"
	"github.com/hpungsan/scribe/internal/post"
	"github.com/hpungsan/scribe/internal/store"
)

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items []post.Post `json:"items"`
	Count int         `json:"count"`
}

// List returns every post, ordered by slug for stable display.
func List(ctx context.Context, st store.Store) (*ListOutput, error) {
	posts, err := st.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []post.Post{}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].Slug < posts[j].Slug })

	return &ListOutput{Items: posts, Count: len(posts)}, nil
}

// Fetch returns the post at slug, or NOT_FOUND.
func Fetch(ctx context.Context, st store.Store, slug string) (*post.Post, error) {
	if slug == "" {
		return nil, errors.NewInvalidRequest("slug is required")
	}
	p, found, err := st.GetPost(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NewNotFound(slug)
	}
	return p, nil
}

// EditOutput is the state the editor form starts from.
type EditOutput struct {
	IsNew bool       `json:"is_new"`
	Post  *post.Post `json:"post,omitempty"`
}

// Edit loads the editor for target after authorizing the caller.
// The post.NewSlug target yields an empty form.
func Edit(ctx context.Context, st store.Store, az *auth.Authorizer, user *auth.User, target string) (*EditOutput, error) {
	if err := az.Authorize(user); err != nil {
		return nil, err
	}
	if IsNewTarget(target) {
		return &EditOutput{IsNew: true}, nil
	}
	p, err := Fetch(ctx, st, target)
	if err != nil {
		return nil, err
	}
	return &EditOutput{Post: p}, nil
}

// AdminList is List for the admin dashboard; it requires the admin.
func AdminList(ctx context.Context, st store.Store, az *auth.Authorizer, user *auth.User) (*ListOutput, error) {
	if err := az.Authorize(user); err != nil {
		return nil, err
	}
	return List(ctx, st)
}
