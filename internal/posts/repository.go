package posts

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adminpanel/adminpanel/internal/shared"
)

const (
	liveFilter = `p.deleted_at IS NULL`

	selectLivePosts = `
SELECT p.id, p.status, p.author_id, u.name, COALESCE(u.photo, ''), p.created_at, p.updated_at, p.deleted_at
FROM posts p
JOIN users u ON u.id = p.author_id
WHERE ` + liveFilter

	countLivePosts = `SELECT COUNT(*) FROM posts p WHERE ` + liveFilter

	markDeleted = `UPDATE posts p SET deleted_at = NOW(), updated_at = NOW() WHERE p.id = $1 AND ` + liveFilter

	restoreDeleted = `UPDATE posts SET deleted_at = NULL, updated_at = NOW() WHERE id = $1 AND deleted_at IS NOT NULL AND author_id IS NOT NULL`

	purgeDeleted = `DELETE FROM posts WHERE deleted_at IS NOT NULL AND deleted_at < $1`
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns live posts, newest first.
func (r *Repository) List(ctx context.Context, page shared.Page) ([]Post, error) {
	rows, err := r.pool.Query(ctx, selectLivePosts+` ORDER BY p.created_at DESC, p.id DESC LIMIT $1 OFFSET $2`, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Count returns the number of live posts.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, countLivePosts).Scan(&n)
	return n, err
}

// Create inserts a post and returns it with the author joined.
func (r *Repository) Create(ctx context.Context, authorID int64, status string) (*Post, error) {
	var id int64
	if err := r.pool.QueryRow(ctx, `INSERT INTO posts (status, author_id) VALUES ($1, $2) RETURNING id`, status, authorID).Scan(&id); err != nil {
		return nil, err
	}
	return scanPost(r.pool.QueryRow(ctx, selectLivePosts+` AND p.id = $1`, id))
}

// MarkDeleted soft-deletes a live post.
func (r *Repository) MarkDeleted(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, markDeleted, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Restore brings a soft-deleted post back. Posts whose author is gone stay
// deleted.
func (r *Repository) Restore(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, restoreDeleted, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// PurgeDeleted hard-deletes posts soft-deleted before the cutoff.
func (r *Repository) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, purgeDeleted, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanPost(row pgx.Row) (*Post, error) {
	var p Post
	if err := row.Scan(&p.ID, &p.Status, &p.AuthorID, &p.AuthorName, &p.AuthorPhoto, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

var _ RepositoryPort = (*Repository)(nil)
