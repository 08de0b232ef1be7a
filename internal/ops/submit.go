package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpungsan/scribe/internal/auth"
	"github.com/hpungsan/scribe/internal/errors"
	"github.com/hpungsan/scribe/internal/post"
	"github.com/hpungsan/scribe/internal/store"
)

// SubmitInput is one admin form submission.
type SubmitInput struct {
	Target   string // path parameter: post.NewSlug or the current slug of an existing post
	Intent   string // raw "intent" form value
	Title    string
	Slug     string
	Markdown string
}

// SubmitOutput is either a redirect (success) or per-field errors to render back.
type SubmitOutput struct {
	Redirect string            `json:"redirect,omitempty"`
	Post     *post.Post        `json:"post,omitempty"`
	Deleted  bool              `json:"deleted,omitempty"`
	Errors   *post.FieldErrors `json:"errors,omitempty"`
}

// Failed reports whether the submission was rejected with field errors.
func (o *SubmitOutput) Failed() bool {
	return o.Errors != nil
}

// Submit authorizes the caller, validates the submitted fields and applies the
// requested mutation to the store.
//
// Field errors (including a slug conflict) are returned in SubmitOutput.Errors with a
// nil error. Authorization failures, unknown intents, missing posts and store failures
// are returned as errors.
func Submit(ctx context.Context, st store.Store, az *auth.Authorizer, user *auth.User, input SubmitInput) (*SubmitOutput, error) {
	if err := az.Authorize(user); err != nil {
		return nil, err
	}

	target := strings.TrimSpace(input.Target)
	if target == "" {
		return nil, errors.NewInvalidRequest("post slug is required in the path")
	}

	intent, ok := ParseIntent(input.Intent)
	if !ok {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown intent %q (must be one of: create, update, delete)", input.Intent))
	}

	if intent == IntentDelete {
		return submitDelete(ctx, st, target)
	}

	fields := post.Normalize(post.Fields{
		Title:    input.Title,
		Slug:     input.Slug,
		Markdown: input.Markdown,
	})
	if fe := post.Validate(fields); fe.HasErrors() {
		return &SubmitOutput{Errors: &fe}, nil
	}

	var (
		p   *post.Post
		err error
	)
	if IsNewTarget(target) {
		p, err = st.CreatePost(ctx, fields)
	} else {
		p, err = st.UpdatePost(ctx, target, fields)
	}
	if errors.Is(err, errors.ErrSlugConflict) {
		fe := post.SlugError(post.MsgSlugTaken)
		return &SubmitOutput{Errors: &fe}, nil
	}
	if err != nil {
		return nil, err
	}

	return &SubmitOutput{Redirect: AdminListPath, Post: p}, nil
}

func submitDelete(ctx context.Context, st store.Store, target string) (*SubmitOutput, error) {
	if IsNewTarget(target) {
		return nil, errors.NewInvalidRequest("cannot delete a post that has not been created")
	}
	if err := st.DeletePost(ctx, target); err != nil {
		return nil, err
	}
	return &SubmitOutput{Redirect: AdminListPath, Deleted: true}, nil
}
