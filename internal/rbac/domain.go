package rbac

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrRoleNotFound indicates the referenced role does not exist.
	ErrRoleNotFound = errors.New("rbac: role not found")
	// ErrPermissionSchema indicates the role record carries no permission list.
	ErrPermissionSchema = errors.New("rbac: role has no permission list")
	// ErrNotAuthenticated indicates the request carries no usable identity.
	ErrNotAuthenticated = errors.New("rbac: not authenticated")
	// ErrForbidden indicates the caller lacks the requested permission.
	ErrForbidden = errors.New("rbac: forbidden")
)

// Role represents a named bundle of permissions.
//
// Permissions is nil when the stored record has no permission list at all;
// an empty slice is a legitimate role without grants.
type Role struct {
	ID          int64
	Name        string
	Permissions []Permission
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission represents an atomic capability.
type Permission struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Grants reports whether the role carries the named permission.
func (r Role) Grants(name string) bool {
	for _, p := range r.Permissions {
		if p.Name == name {
			return true
		}
	}
	return false
}

// PermissionNames returns the permission names in stored order.
func (r Role) PermissionNames() []string {
	names := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		names = append(names, p.Name)
	}
	return names
}

// Store is the persistence contract used by Service and Seeder.
type Store interface {
	GetRole(ctx context.Context, id int64) (Role, error)
	GetRoleByName(ctx context.Context, name string) (Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	EnsurePermission(ctx context.Context, name string) (Permission, error)
	// MutateRolePermissions creates the role when absent and replaces its
	// permission list with fn(current) atomically.
	MutateRolePermissions(ctx context.Context, roleName string, fn func([]Permission) []Permission) (Role, error)
}
