package rbac

import (
	"context"
	"sync"
)

type memStore struct {
	mu       sync.Mutex
	roles    map[int64]Role
	perms    map[string]Permission
	nextRole int64
	nextPerm int64
	getErr   error
}

func newMemStore() *memStore {
	return &memStore{roles: map[int64]Role{}, perms: map[string]Permission{}}
}

func (m *memStore) put(role Role) Role {
	m.mu.Lock()
	defer m.mu.Unlock()
	if role.ID == 0 {
		m.nextRole++
		role.ID = m.nextRole
	}
	m.roles[role.ID] = role
	return role
}

func (m *memStore) GetRole(_ context.Context, id int64) (Role, error) {
	if m.getErr != nil {
		return Role{}, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	role, ok := m.roles[id]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	return role, nil
}

func (m *memStore) GetRoleByName(_ context.Context, name string) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, role := range m.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return Role{}, ErrRoleNotFound
}

func (m *memStore) ListRoles(context.Context) ([]Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Role, 0, len(m.roles))
	for id := int64(1); id <= m.nextRole; id++ {
		if role, ok := m.roles[id]; ok {
			out = append(out, role)
		}
	}
	return out, nil
}

func (m *memStore) ListPermissions(context.Context) ([]Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Permission, 0, len(m.perms))
	for _, p := range m.perms {
		out = append(out, p)
	}
	return out, nil
}

func (m *memStore) EnsurePermission(_ context.Context, name string) (Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.perms[name]; ok {
		return p, nil
	}
	m.nextPerm++
	p := Permission{ID: m.nextPerm, Name: name}
	m.perms[name] = p
	return p, nil
}

func (m *memStore) MutateRolePermissions(_ context.Context, roleName string, fn func([]Permission) []Permission) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var role Role
	found := false
	for _, r := range m.roles {
		if r.Name == roleName {
			role, found = r, true
			break
		}
	}
	if !found {
		m.nextRole++
		role = Role{ID: m.nextRole, Name: roleName, Permissions: []Permission{}}
	}
	role.Permissions = fn(role.Permissions)
	m.roles[role.ID] = role
	return role, nil
}
