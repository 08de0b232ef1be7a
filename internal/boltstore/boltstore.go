// Package boltstore is a bbolt-backed implementation of store.Store.
package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/hpungsan/scribe/internal/errors"
	"github.com/hpungsan/scribe/internal/post"
)

const (
	// FileName is the bbolt file created inside the base directory.
	FileName    = "scribe.bolt"
	bucketPosts = "posts"
)

// BoltStore keeps posts in a single bucket keyed by slug.
// bbolt allows one read-write transaction at a time, so each mutation's
// existence and uniqueness checks are atomic with its write.
type BoltStore struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens (or creates) baseDir/scribe.bolt and ensures the posts bucket exists.
func Open(baseDir string) (*BoltStore, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(baseDir, FileName), 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketPosts))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create posts bucket: %w", err)
	}

	return &BoltStore{db: db, now: time.Now}, nil
}

// Close closes the bbolt database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// ListPosts returns all posts in key (slug) order.
func (s *BoltStore) ListPosts(ctx context.Context) ([]post.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelled("list posts")
	}

	posts := []post.Post{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketPosts)).ForEach(func(_, v []byte) error {
			p, err := decode(v)
			if err != nil {
				return err
			}
			posts = append(posts, *p)
			return nil
		})
	})
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return posts, nil
}

// GetPost retrieves a post by slug. A missing slug is reported by found=false.
func (s *BoltStore) GetPost(ctx context.Context, slug string) (*post.Post, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, errors.NewCancelled("get post")
	}
	if slug == "" {
		return nil, false, nil
	}

	var p *post.Post
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketPosts)).Get([]byte(slug))
		if v == nil {
			return nil
		}
		var err error
		p, err = decode(v)
		return err
	})
	if err != nil {
		return nil, false, errors.NewInternal(err)
	}
	return p, p != nil, nil
}

// CreatePost inserts a new post, failing if the slug is taken.
func (s *BoltStore) CreatePost(ctx context.Context, f post.Fields) (*post.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelled("create post")
	}

	now := s.now().Unix()
	p := &post.Post{
		Slug:      f.Slug,
		Title:     f.Title,
		Markdown:  f.Markdown,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketPosts))
		if b.Get([]byte(f.Slug)) != nil {
			return errors.NewSlugConflict(f.Slug)
		}
		return put(b, p)
	})
	if err != nil {
		return nil, asScribeError(err)
	}
	return p, nil
}

// UpdatePost replaces the post at currentSlug, moving it to f.Slug if different.
func (s *BoltStore) UpdatePost(ctx context.Context, currentSlug string, f post.Fields) (*post.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelled("update post")
	}

	var updated *post.Post
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketPosts))

		v := b.Get([]byte(currentSlug))
		if v == nil || currentSlug == "" {
			return errors.NewNotFound(currentSlug)
		}
		existing, err := decode(v)
		if err != nil {
			return err
		}

		if f.Slug != currentSlug {
			if b.Get([]byte(f.Slug)) != nil {
				return errors.NewSlugConflict(f.Slug)
			}
			if err := b.Delete([]byte(currentSlug)); err != nil {
				return err
			}
		}

		updated = &post.Post{
			Slug:      f.Slug,
			Title:     f.Title,
			Markdown:  f.Markdown,
			CreatedAt: existing.CreatedAt,
			UpdatedAt: s.now().Unix(),
		}
		return put(b, updated)
	})
	if err != nil {
		return nil, asScribeError(err)
	}
	return updated, nil
}

// DeletePost permanently removes the post at slug.
func (s *BoltStore) DeletePost(ctx context.Context, slug string) error {
	if err := ctx.Err(); err != nil {
		return errors.NewCancelled("delete post")
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketPosts))
		if slug == "" || b.Get([]byte(slug)) == nil {
			return errors.NewNotFound(slug)
		}
		return b.Delete([]byte(slug))
	})
	return asScribeError(err)
}

func put(b *bbolt.Bucket, p *post.Post) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to serialize post: %w", err)
	}
	return b.Put([]byte(p.Slug), data)
}

func decode(data []byte) (*post.Post, error) {
	var p post.Post
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to deserialize post: %w", err)
	}
	return &p, nil
}

// asScribeError passes structured errors through and wraps anything else as INTERNAL.
func asScribeError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*errors.ScribeError); ok {
		return err
	}
	return errors.NewInternal(err)
}
