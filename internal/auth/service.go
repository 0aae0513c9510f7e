package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/adminpanel/adminpanel/internal/shared"
	"github.com/adminpanel/adminpanel/internal/token"
)

// Options tunes session lifetimes.
type Options struct {
	// MaxAge bounds how long a session stays valid after login.
	MaxAge time.Duration
	// RefreshInterval is the freshness window within which OnRefresh is a no-op.
	RefreshInterval time.Duration
	// HashCost is the bcrypt cost of the dummy hash compared for unknown emails.
	HashCost int
}

// Service wraps authentication business rules.
type Service struct {
	users     UserLookup
	roles     RoleResolver
	ids       IDCodec
	bearer    BearerIssuer
	opts      Options
	dummyHash []byte
	now       func() time.Time
}

// NewService constructs a new Service.
func NewService(users UserLookup, roles RoleResolver, ids IDCodec, bearer BearerIssuer, opts Options) (*Service, error) {
	if opts.MaxAge <= 0 {
		opts.MaxAge = 2 * time.Hour
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 5 * time.Minute
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), opts.HashCost)
	if err != nil {
		return nil, fmt.Errorf("auth: dummy hash: %w", err)
	}
	return &Service{
		users:     users,
		roles:     roles,
		ids:       ids,
		bearer:    bearer,
		opts:      opts,
		dummyHash: dummy,
		now:       time.Now,
	}, nil
}

// MaxAge returns the configured maximum session age.
func (s *Service) MaxAge() time.Duration {
	return s.opts.MaxAge
}

// Authenticate validates email/password credentials. Unknown email and wrong
// password both return shared.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Principal, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return principalFromUser(user), nil
}

// OnIssue materialises session claims for a freshly authenticated principal.
// The storage id never leaves this function in cleartext.
func (s *Service) OnIssue(_ context.Context, p Principal) (shared.SessionClaims, error) {
	sealed, err := s.ids.SealID(p.ID)
	if err != nil {
		return shared.SessionClaims{}, fmt.Errorf("auth: seal principal: %w", err)
	}
	now := s.now().UTC()
	return shared.SessionClaims{
		ID:          sealed,
		Name:        p.Name,
		Email:       p.Email,
		RoleID:      p.RoleID,
		RoleName:    p.RoleName,
		CreatedAt:   p.CreatedAt,
		IssuedAt:    now,
		RefreshedAt: now,
	}, nil
}

// NeedsRefresh reports whether claims are older than the freshness window.
func (s *Service) NeedsRefresh(claims shared.SessionClaims) bool {
	return s.now().Sub(claims.RefreshedAt) >= s.opts.RefreshInterval
}

// OnRefresh re-reads profile and role from the stores and remints claims.
// It is a no-op inside the freshness window.
func (s *Service) OnRefresh(ctx context.Context, claims shared.SessionClaims) (shared.SessionClaims, error) {
	now := s.now().UTC()
	if now.Sub(claims.IssuedAt) > s.opts.MaxAge {
		return shared.SessionClaims{}, ErrSessionExpired
	}
	if !s.NeedsRefresh(claims) {
		return claims, nil
	}
	id, err := s.ids.OpenID(claims.ID)
	if err != nil {
		return shared.SessionClaims{}, fmt.Errorf("%w: %w", ErrSessionRevoked, err)
	}
	user, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.SessionClaims{}, ErrSessionRevoked
		}
		return shared.SessionClaims{}, fmt.Errorf("auth: refresh user: %w", err)
	}
	roleName, err := s.roles.RoleName(ctx, user.RoleID)
	if err != nil {
		return shared.SessionClaims{}, fmt.Errorf("auth: refresh role: %w", err)
	}
	claims.Name = user.Name
	claims.Email = user.Email
	claims.RoleID = user.RoleID
	claims.RoleName = roleName
	claims.RefreshedAt = now
	return claims, nil
}

// IssueBearer mints a bearer token carrying the session identity.
func (s *Service) IssueBearer(claims shared.SessionClaims) (string, time.Time, error) {
	return s.bearer.Issue(token.Claims{
		RoleID:           claims.RoleID,
		RoleName:         claims.RoleName,
		Name:             claims.Name,
		Email:            claims.Email,
		RegisteredClaims: jwt.RegisteredClaims{Subject: claims.ID},
	})
}
