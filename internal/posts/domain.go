// Package posts implements the dashboard status feed with soft deletion.
package posts

import (
	"context"
	"time"

	"github.com/adminpanel/adminpanel/internal/shared"
)

// Post is a status update shown on the dashboard.
type Post struct {
	ID          int64
	Status      string
	AuthorID    int64
	AuthorName  string
	AuthorPhoto string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// RepositoryPort defines data access for posts. Every read excludes
// soft-deleted rows.
type RepositoryPort interface {
	List(ctx context.Context, page shared.Page) ([]Post, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, authorID int64, status string) (*Post, error)
	MarkDeleted(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
	PurgeDeleted(ctx context.Context, before time.Time) (int64, error)
}
