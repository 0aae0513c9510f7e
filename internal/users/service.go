package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/adminpanel/adminpanel/internal/shared"
)

// ErrUnknownRole indicates the requested role does not exist.
var ErrUnknownRole = errors.New("users: unknown role")

// Service handles user business logic.
type Service struct {
	repo        RepositoryPort
	defaultRole string
	cost        int
}

// NewService builds Service instance. defaultRole is assigned to
// self-registered accounts.
func NewService(repo RepositoryPort, defaultRole string) *Service {
	if defaultRole == "" {
		defaultRole = shared.RoleUser
	}
	return &Service{repo: repo, defaultRole: defaultRole, cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost, used by tests.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

// FindByEmail looks up a user by address.
func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.FindByEmail(ctx, NormalizeEmail(email))
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a page of users and the total count, fetched concurrently.
func (s *Service) List(ctx context.Context, page shared.Page) ([]User, int64, error) {
	var (
		users []User
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.repo.List(gctx, page)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("users: list: %w", err)
	}
	return users, total, nil
}

// Create registers a user. An empty Role falls back to the default role.
func (s *Service) Create(ctx context.Context, in CreateInput) (*User, error) {
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = s.defaultRole
	}
	roleID, err := s.repo.RoleIDByName(ctx, role)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRole, role)
		}
		return nil, err
	}
	email := NormalizeEmail(in.Email)
	if err := s.ensureEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, CreateParams{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		RoleID:       roleID,
		Photo:        strings.TrimSpace(in.Photo),
	})
}

// Register creates a self-service account. The caller cannot pick a role.
func (s *Service) Register(ctx context.Context, in CreateInput) (*User, error) {
	in.Role = s.defaultRole
	return s.Create(ctx, in)
}

// Update changes name, email and optionally password of a user.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*User, error) {
	email := NormalizeEmail(in.Email)
	if err := s.ensureEmailFree(ctx, email, id); err != nil {
		return nil, err
	}
	params := UpdateParams{Name: strings.TrimSpace(in.Name), Email: email}
	if in.Password != "" {
		hash, err := s.hash(in.Password)
		if err != nil {
			return nil, err
		}
		params.PasswordHash = &hash
	}
	return s.repo.Update(ctx, id, params)
}

// Delete removes a user.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ensureEmailFree(ctx context.Context, email string, exceptID int64) error {
	taken, err := s.repo.EmailTaken(ctx, email, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return shared.ErrDuplicateEmail
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("users: hash password: %w", err)
	}
	return string(hashed), nil
}
