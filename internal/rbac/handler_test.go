package rbac

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSealer struct{}

func (fakeSealer) SealID(int64) (string, error) {
	return "sealed", nil
}

func TestListRolesHandler(t *testing.T) {
	store := newMemStore()
	admin := store.put(Role{Name: "admin", Permissions: perms("get_role", "get_user")})
	store.put(Role{Name: "user", Permissions: []Permission{}})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(store)
	h := NewHandler(logger, svc, fakeSealer{}, Middleware{Service: svc, Logger: logger})
	router := chi.NewRouter()
	router.Route("/api/admin/roles", h.MountRoutes)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/roles", nil)
	req = req.WithContext(withIdentity(admin.ID))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"roles":[
		{"encrypted_id":"sealed","name":"admin","permissions":["get_role","get_user"]},
		{"encrypted_id":"sealed","name":"user","permissions":[]}
	]}`, res.Body.String())
}

func TestListPermissionsHandler(t *testing.T) {
	store := newMemStore()
	admin := store.put(Role{Name: "admin", Permissions: perms("get_role")})
	_, err := store.EnsurePermission(context.Background(), "get_role")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(store)
	h := NewHandler(logger, svc, fakeSealer{}, Middleware{Service: svc, Logger: logger})
	router := chi.NewRouter()
	router.Route("/api/admin/roles", h.MountRoutes)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/roles/permissions", nil)
	req = req.WithContext(withIdentity(admin.ID))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"permissions":[{"encrypted_id":"sealed","name":"get_role"}]}`, res.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/admin/roles/permissions", nil)
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}
