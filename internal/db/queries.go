package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"github.com/hpungsan/scribe/internal/errors"
	"github.com/hpungsan/scribe/internal/post"
)

const postColumns = `slug, title, markdown, created_at, updated_at`

// PostStore is the SQLite implementation of store.Store.
// Slug uniqueness is enforced by the posts PRIMARY KEY; every mutation is one statement.
type PostStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostStore wraps an initialized database (see Init).
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db, now: time.Now}
}

// Open initializes the database in baseDir and returns a PostStore that owns it.
func Open(baseDir string) (*PostStore, error) {
	database, err := Init(baseDir)
	if err != nil {
		return nil, err
	}
	return NewPostStore(database), nil
}

// DB returns the underlying database handle.
func (s *PostStore) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database.
func (s *PostStore) Close() error {
	return s.db.Close()
}

// ListPosts returns all posts ordered by slug.
func (s *PostStore) ListPosts(ctx context.Context) ([]post.Post, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+postColumns+` FROM posts ORDER BY slug`)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	posts := []post.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}

	return posts, nil
}

// GetPost retrieves a post by slug. A missing slug is reported by found=false.
func (s *PostStore) GetPost(ctx context.Context, slug string) (*post.Post, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapErr(err)
	}
	return p, true, nil
}

// CreatePost inserts a new post.
func (s *PostStore) CreatePost(ctx context.Context, f post.Fields) (*post.Post, error) {
	now := s.now().Unix()

	query := `
		INSERT INTO posts (slug, title, markdown, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, f.Slug, f.Title, f.Markdown, now, now); err != nil {
		if isUniqueConstraintError(err) {
			return nil, errors.NewSlugConflict(f.Slug)
		}
		return nil, wrapErr(err)
	}

	return &post.Post{
		Slug:      f.Slug,
		Title:     f.Title,
		Markdown:  f.Markdown,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// UpdatePost replaces the post at currentSlug, re-keying it when f.Slug differs.
// The existence check and the uniqueness check happen in the same UPDATE statement.
func (s *PostStore) UpdatePost(ctx context.Context, currentSlug string, f post.Fields) (*post.Post, error) {
	now := s.now().Unix()

	query := `
		UPDATE posts
		SET slug = ?, title = ?, markdown = ?, updated_at = ?
		WHERE slug = ?
		RETURNING ` + postColumns

	row := s.db.QueryRowContext(ctx, query, f.Slug, f.Title, f.Markdown, now, currentSlug)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(currentSlug)
	}
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, errors.NewSlugConflict(f.Slug)
		}
		return nil, wrapErr(err)
	}

	return p, nil
}

// DeletePost permanently removes the post at slug.
func (s *PostStore) DeletePost(ctx context.Context, slug string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE slug = ?`, slug)
	if err != nil {
		return wrapErr(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(slug)
	}

	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite reports primary key collisions as "UNIQUE constraint failed: posts.slug"
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// wrapErr maps context errors to CANCELLED and everything else to INTERNAL.
func wrapErr(err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewCancelled("database operation")
	}
	return errors.NewInternal(err)
}

type scanner interface {
	Scan(dest ...any) error
}

// scanPost scans a single row into a Post.
func scanPost(row scanner) (*post.Post, error) {
	var p post.Post
	if err := row.Scan(&p.Slug, &p.Title, &p.Markdown, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
