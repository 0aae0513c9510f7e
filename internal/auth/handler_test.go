package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/adminpanel/adminpanel/internal/auth"
	"github.com/adminpanel/adminpanel/internal/cipher"
	"github.com/adminpanel/adminpanel/internal/shared"
	"github.com/adminpanel/adminpanel/internal/token"
	"github.com/adminpanel/adminpanel/internal/users"
	_ "github.com/adminpanel/adminpanel/testing"
)

type stubLookup struct {
	user *users.User
}

func (s *stubLookup) FindByEmail(_ context.Context, email string) (*users.User, error) {
	if s.user == nil || users.NormalizeEmail(email) != s.user.Email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubLookup) Get(_ context.Context, id int64) (*users.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

type staticRoles map[int64]string

func (r staticRoles) RoleName(_ context.Context, id int64) (string, error) {
	return r[id], nil
}

type harness struct {
	router   chi.Router
	sessions *shared.SessionManager
	issuer   *token.Issuer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")

	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.MinCost)
	require.NoError(t, err)
	lookup := &stubLookup{user: &users.User{ID: 1, Name: "Admin", Email: "user@test.local", PasswordHash: string(hashed), RoleID: 1, RoleName: "admin"}}
	ids, err := cipher.NewService("auth-handler-secret")
	require.NoError(t, err)
	issuer, err := token.NewIssuer("jwt-secret", time.Hour)
	require.NoError(t, err)
	svc, err := auth.NewService(lookup, staticRoles{1: "admin"}, ids, issuer, auth.Options{HashCost: bcrypt.MinCost})
	require.NoError(t, err)

	handler := auth.NewHandler(nil, svc, sessionManager, csrfManager, 100)
	router := chi.NewRouter()
	router.Route("/auth", handler.MountRoutes)
	return &harness{router: router, sessions: sessionManager, issuer: issuer}
}

// do runs the request through session load and commit and returns the
// recorder plus the session id to send next time.
func (h *harness) do(t *testing.T, method, target, body, sessionID string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: h.sessions.CookieName(), Value: sessionID})
	}
	sess, err := h.sessions.Load(context.Background(), req)
	require.NoError(t, err)
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)

	res := httptest.NewRecorder()
	h.router.ServeHTTP(res, req)
	require.NoError(t, h.sessions.Commit(ctx, res, req, sess))
	return res, sess.ID
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := newHarness(t)

	res, _ := h.do(t, http.MethodPost, "/auth/login", `{"email":"user@test.local","password":"wrongpass"}`, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, res.Body.String())

	res, _ = h.do(t, http.MethodPost, "/auth/login", `{"email":"nobody@test.local","password":"wrongpass"}`, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, res.Body.String())
}

func TestLoginValidation(t *testing.T) {
	h := newHarness(t)
	res, _ := h.do(t, http.MethodPost, "/auth/login", `{"email":"not-an-email"}`, "")
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res, _ = h.do(t, http.MethodPost, "/auth/login", ``, "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestLoginSessionAndLogout(t *testing.T) {
	h := newHarness(t)

	anon, _ := h.do(t, http.MethodGet, "/auth/session", "", "")
	assert.Equal(t, http.StatusUnauthorized, anon.Code)

	res, sessionID := h.do(t, http.MethodPost, "/auth/login", `{"email":"USER@test.local","password":"correctpass"}`, "")
	require.Equal(t, http.StatusOK, res.Code)

	var login struct {
		Bearer   string `json:"bearer"`
		Redirect string `json:"redirect"`
		User     struct {
			EncryptedID string `json:"encrypted_id"`
			Role        string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &login))
	assert.Equal(t, "/admin/dashboard", login.Redirect)
	assert.Equal(t, "admin", login.User.Role)
	assert.NotEqual(t, "1", login.User.EncryptedID)

	claims, err := h.issuer.Verify(login.Bearer)
	require.NoError(t, err)
	assert.Equal(t, login.User.EncryptedID, claims.PrincipalID())

	res, _ = h.do(t, http.MethodGet, "/auth/session", "", sessionID)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"role":"admin"`)

	res, _ = h.do(t, http.MethodGet, "/auth/token", "", sessionID)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"bearer"`)

	res, _ = h.do(t, http.MethodPost, "/auth/logout", "", sessionID)
	require.Equal(t, http.StatusOK, res.Code)

	res, _ = h.do(t, http.MethodGet, "/auth/session", "", sessionID)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginRenewsSessionID(t *testing.T) {
	h := newHarness(t)
	_, before := h.do(t, http.MethodGet, "/auth/csrf", "", "")
	_, after := h.do(t, http.MethodPost, "/auth/login", `{"email":"user@test.local","password":"correctpass"}`, before)
	assert.NotEqual(t, before, after)

	res, _ := h.do(t, http.MethodGet, "/auth/session", "", before)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginRotatesCSRFToken(t *testing.T) {
	h := newHarness(t)
	res, sessionID := h.do(t, http.MethodGet, "/auth/csrf", "", "")
	var before struct {
		CSRFToken string `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &before))

	res, sessionID = h.do(t, http.MethodPost, "/auth/login", `{"email":"user@test.local","password":"correctpass"}`, sessionID)
	require.Equal(t, http.StatusOK, res.Code)
	var login struct {
		CSRFToken string `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &login))
	require.NotEmpty(t, login.CSRFToken)
	assert.NotEqual(t, before.CSRFToken, login.CSRFToken)

	res, _ = h.do(t, http.MethodGet, "/auth/csrf", "", sessionID)
	assert.JSONEq(t, `{"csrf_token":"`+login.CSRFToken+`"}`, res.Body.String())
}

func TestTokenRequiresSession(t *testing.T) {
	h := newHarness(t)
	res, _ := h.do(t, http.MethodGet, "/auth/token", "", "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, res.Body.String())
}

func TestCSRFTokenIsStable(t *testing.T) {
	h := newHarness(t)
	first, sessionID := h.do(t, http.MethodGet, "/auth/csrf", "", "")
	require.Equal(t, http.StatusOK, first.Code)
	second, _ := h.do(t, http.MethodGet, "/auth/csrf", "", sessionID)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}
