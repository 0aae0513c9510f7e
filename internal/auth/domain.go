package auth

import (
	"context"
	"errors"
	"time"

	"github.com/adminpanel/adminpanel/internal/token"
	"github.com/adminpanel/adminpanel/internal/users"
)

var (
	// ErrSessionRevoked indicates the principal behind a session no longer exists.
	ErrSessionRevoked = errors.New("auth: session revoked")
	// ErrSessionExpired indicates the session outlived its maximum age.
	ErrSessionExpired = errors.New("auth: session expired")
)

// Principal is the authenticated actor materialised at login.
type Principal struct {
	ID        int64
	Name      string
	Email     string
	RoleID    int64
	RoleName  string
	CreatedAt time.Time
}

// UserLookup reads credential and profile records from the identity store.
type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*users.User, error)
	Get(ctx context.Context, id int64) (*users.User, error)
}

// RoleResolver re-resolves the current name of a role.
type RoleResolver interface {
	RoleName(ctx context.Context, roleID int64) (string, error)
}

// IDCodec converts between storage ids and opaque identifiers.
type IDCodec interface {
	SealID(id int64) (string, error)
	OpenID(token string) (int64, error)
}

// BearerIssuer signs bearer tokens.
type BearerIssuer interface {
	Issue(claims token.Claims) (string, time.Time, error)
}

func principalFromUser(u *users.User) *Principal {
	return &Principal{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		RoleID:    u.RoleID,
		RoleName:  u.RoleName,
		CreatedAt: u.CreatedAt,
	}
}
