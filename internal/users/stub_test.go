package users

import (
	"context"
	"sync"

	"github.com/adminpanel/adminpanel/internal/shared"
)

type memRepo struct {
	mu     sync.Mutex
	users  map[int64]*User
	roles  map[string]int64
	nextID int64
	calls  int
}

func newMemRepo() *memRepo {
	return &memRepo{
		users: map[int64]*User{},
		roles: map[string]int64{shared.RoleAdmin: 1, shared.RoleUser: 2},
	}
}

func (m *memRepo) roleName(id int64) string {
	for name, rid := range m.roles {
		if rid == id {
			return name
		}
	}
	return ""
}

func (m *memRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, page shared.Page) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	var out []User
	for id := int64(1); id <= m.nextID; id++ {
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	if page.Offset >= len(out) {
		return nil, nil
	}
	out = out[page.Offset:]
	if len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out, nil
}

func (m *memRepo) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return int64(len(m.users)), nil
}

func (m *memRepo) EmailTaken(_ context.Context, email string, exceptID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for _, u := range m.users {
		if u.Email == email && u.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) RoleIDByName(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	id, ok := m.roles[name]
	if !ok {
		return 0, shared.ErrNotFound
	}
	return id, nil
}

func (m *memRepo) Create(_ context.Context, p CreateParams) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.nextID++
	u := &User{ID: m.nextID, Name: p.Name, Email: p.Email, PasswordHash: p.PasswordHash, RoleID: p.RoleID, RoleName: m.roleName(p.RoleID), Photo: p.Photo}
	m.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *memRepo) Update(_ context.Context, id int64, p UpdateParams) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	u.Name, u.Email = p.Name, p.Email
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if _, ok := m.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memRepo) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []shared.AuditLog
}

func (a *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, log)
	return nil
}
