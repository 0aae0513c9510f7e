package rbac

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/adminpanel/adminpanel/internal/shared"
)

// Service answers authorization queries against stored roles.
type Service struct {
	store Store
	loads singleflight.Group
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// ListRoles returns every role with its permissions.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.store.ListRoles(ctx)
}

// ListPermissions returns the permission catalogue.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.store.ListPermissions(ctx)
}

// RoleName resolves the current name of a role.
func (s *Service) RoleName(ctx context.Context, roleID int64) (string, error) {
	role, err := s.loadRole(ctx, roleID)
	if err != nil {
		return "", err
	}
	return role.Name, nil
}

// HasPermission loads the role and checks membership by exact name.
func (s *Service) HasPermission(ctx context.Context, roleID int64, name string) (bool, error) {
	role, err := s.loadRole(ctx, roleID)
	if err != nil {
		return false, err
	}
	if role.Permissions == nil {
		return false, fmt.Errorf("%w: role %d", ErrPermissionSchema, roleID)
	}
	return role.Grants(name), nil
}

// RequireAuthenticated returns the request identity or ErrNotAuthenticated.
func (s *Service) RequireAuthenticated(ctx context.Context) (shared.Identity, error) {
	id, ok := shared.IdentityFromContext(ctx)
	if !ok || id.PrincipalID == "" || id.RoleID <= 0 {
		return shared.Identity{}, ErrNotAuthenticated
	}
	return id, nil
}

// RequirePermission returns the request identity when its role grants name.
func (s *Service) RequirePermission(ctx context.Context, name string) (shared.Identity, error) {
	id, err := s.RequireAuthenticated(ctx)
	if err != nil {
		return shared.Identity{}, err
	}
	ok, err := s.HasPermission(ctx, id.RoleID, name)
	if err != nil {
		return shared.Identity{}, err
	}
	if !ok {
		return shared.Identity{}, ErrForbidden
	}
	return id, nil
}

func (s *Service) loadRole(ctx context.Context, roleID int64) (Role, error) {
	if roleID <= 0 {
		return Role{}, ErrRoleNotFound
	}
	// The shared load must not fail because the caller that started it left.
	ch := s.loads.DoChan(strconv.FormatInt(roleID, 10), func() (any, error) {
		return s.store.GetRole(context.WithoutCancel(ctx), roleID)
	})
	select {
	case <-ctx.Done():
		return Role{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Role{}, res.Err
		}
		return res.Val.(Role), nil
	}
}
