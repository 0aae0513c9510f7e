package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// Seeder performs the idempotent role and permission upserts used by the
// out-of-band seeding tooling. It is never mounted on an HTTP route.
type Seeder struct {
	store  Store
	logger *slog.Logger
}

// NewSeeder constructs a Seeder.
func NewSeeder(store Store, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{store: store, logger: logger}
}

// EnsurePermission creates the permission by name if absent.
func (s *Seeder) EnsurePermission(ctx context.Context, name string) (Permission, error) {
	if name == "" {
		return Permission{}, fmt.Errorf("rbac: permission name required")
	}
	return s.store.EnsurePermission(ctx, name)
}

// GrantPermissions attaches the named permissions to the named role, creating
// either when absent. Permissions already attached are left untouched.
func (s *Seeder) GrantPermissions(ctx context.Context, roleName string, names ...string) (Role, error) {
	if roleName == "" {
		return Role{}, fmt.Errorf("rbac: role name required")
	}
	wanted := make([]Permission, 0, len(names))
	for _, name := range names {
		p, err := s.EnsurePermission(ctx, name)
		if err != nil {
			return Role{}, err
		}
		wanted = append(wanted, p)
	}
	role, err := s.store.MutateRolePermissions(ctx, roleName, func(current []Permission) []Permission {
		return mergePermissions(current, wanted)
	})
	if err != nil {
		return Role{}, err
	}
	s.logger.Info("role permissions granted", slog.String("role", roleName), slog.Int("count", len(role.Permissions)))
	return role, nil
}

// SeedDefaults ensures the whole catalogue and the given role grants exist.
func (s *Seeder) SeedDefaults(ctx context.Context, catalogue []string, grants map[string][]string) error {
	for _, name := range catalogue {
		if _, err := s.EnsurePermission(ctx, name); err != nil {
			return err
		}
	}
	roles := make([]string, 0, len(grants))
	for role := range grants {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	for _, role := range roles {
		if _, err := s.GrantPermissions(ctx, role, grants[role]...); err != nil {
			return err
		}
	}
	return nil
}

func mergePermissions(current, add []Permission) []Permission {
	out := make([]Permission, 0, len(current)+len(add))
	seen := make(map[string]struct{}, len(current)+len(add))
	for _, group := range [][]Permission{current, add} {
		for _, p := range group {
			if _, ok := seen[p.Name]; ok {
				continue
			}
			seen[p.Name] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
