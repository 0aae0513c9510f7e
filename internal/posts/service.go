package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/adminpanel/adminpanel/internal/shared"
)

// ErrEmptyStatus indicates a post without text.
var ErrEmptyStatus = errors.New("posts: status required")

// Service handles post business logic.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Feed returns a page of live posts and their total.
func (s *Service) Feed(ctx context.Context, page shared.Page) ([]Post, int64, error) {
	var (
		items []Post
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.List(gctx, page)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("posts: feed: %w", err)
	}
	return items, total, nil
}

// Publish creates a post for the author.
func (s *Service) Publish(ctx context.Context, authorID int64, status string) (*Post, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, ErrEmptyStatus
	}
	return s.repo.Create(ctx, authorID, status)
}

// Remove soft-deletes a post.
func (s *Service) Remove(ctx context.Context, id int64) error {
	return s.repo.MarkDeleted(ctx, id)
}

// Restore undoes a soft delete.
func (s *Service) Restore(ctx context.Context, id int64) error {
	return s.repo.Restore(ctx, id)
}

// Purge hard-deletes posts soft-deleted longer than retention ago.
func (s *Service) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.PurgeDeleted(ctx, s.now().Add(-retention))
}
