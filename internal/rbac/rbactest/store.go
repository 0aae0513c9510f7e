// Package rbactest provides fixed role stores for handler tests.
package rbactest

import (
	"context"

	"github.com/adminpanel/adminpanel/internal/rbac"
	"github.com/adminpanel/adminpanel/internal/shared"
)

// Store serves a single role regardless of the id asked for.
type Store struct {
	Role rbac.Role
}

// AllowAll returns a Store whose role holds the whole permission catalogue.
func AllowAll() Store {
	return WithPermissions(shared.RoleAdmin, shared.AllPermissions()...)
}

// WithPermissions returns a Store whose role holds exactly names.
func WithPermissions(role string, names ...string) Store {
	perms := make([]rbac.Permission, 0, len(names))
	for i, name := range names {
		perms = append(perms, rbac.Permission{ID: int64(i + 1), Name: name})
	}
	return Store{Role: rbac.Role{ID: 1, Name: role, Permissions: perms}}
}

// GetRole implements rbac.Store.
func (s Store) GetRole(context.Context, int64) (rbac.Role, error) { return s.Role, nil }

// GetRoleByName implements rbac.Store.
func (s Store) GetRoleByName(context.Context, string) (rbac.Role, error) { return s.Role, nil }

// ListRoles implements rbac.Store.
func (s Store) ListRoles(context.Context) ([]rbac.Role, error) { return []rbac.Role{s.Role}, nil }

// ListPermissions implements rbac.Store.
func (s Store) ListPermissions(context.Context) ([]rbac.Permission, error) {
	return s.Role.Permissions, nil
}

// EnsurePermission implements rbac.Store.
func (s Store) EnsurePermission(_ context.Context, name string) (rbac.Permission, error) {
	return rbac.Permission{Name: name}, nil
}

// MutateRolePermissions implements rbac.Store without persisting anything.
func (s Store) MutateRolePermissions(_ context.Context, _ string, fn func([]rbac.Permission) []rbac.Permission) (rbac.Role, error) {
	role := s.Role
	role.Permissions = fn(role.Permissions)
	return role, nil
}

var _ rbac.Store = Store{}
