package gate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adminpanel/adminpanel/internal/auth"
	"github.com/adminpanel/adminpanel/internal/shared"
	"github.com/adminpanel/adminpanel/internal/token"
)

type stubRefresher struct {
	err      error
	roleName string
	calls    int
}

func (s *stubRefresher) OnRefresh(_ context.Context, c shared.SessionClaims) (shared.SessionClaims, error) {
	s.calls++
	if s.err != nil {
		return shared.SessionClaims{}, s.err
	}
	if s.roleName != "" {
		c.RoleName = s.roleName
		c.RefreshedAt = c.RefreshedAt.Add(time.Minute)
	}
	return c, nil
}

func sessionWithRole(role string) *shared.Session {
	sess := &shared.Session{ID: "test"}
	if role != "" {
		now := time.Now()
		sess.SetClaims(shared.SessionClaims{ID: "opaque", Name: "n", RoleID: 1, RoleName: role, IssuedAt: now, RefreshedAt: now})
	}
	return sess
}

func run(g *Gate, method, path string, sess *shared.Session, header string) (*httptest.ResponseRecorder, bool) {
	reached := false
	h := g.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(method, path, nil)
	if sess != nil {
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	}
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res, reached
}

func TestGateWebFlow(t *testing.T) {
	g := &Gate{Policy: DefaultPolicy()}

	res, reached := run(g, http.MethodGet, "/admin/users", sessionWithRole("admin"), "")
	assert.True(t, reached)
	assert.Equal(t, http.StatusNoContent, res.Code)

	res, reached = run(g, http.MethodGet, "/user/dashboard", sessionWithRole("admin"), "")
	assert.False(t, reached)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/", res.Header().Get("Location"))

	res, reached = run(g, http.MethodGet, "/admin/users", sessionWithRole(""), "")
	assert.False(t, reached)
	assert.Equal(t, "/", res.Header().Get("Location"))

	res, _ = run(g, http.MethodGet, "/", sessionWithRole("admin"), "")
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/admin/dashboard", res.Header().Get("Location"))
}

func TestGateAPIResponsesAreJSON(t *testing.T) {
	g := &Gate{Policy: DefaultPolicy()}

	res, _ := run(g, http.MethodGet, "/api/admin/users", nil, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, res.Body.String())

	res, _ = run(g, http.MethodGet, "/api/admin/users", sessionWithRole("user"), "")
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.JSONEq(t, `{"error":"Forbidden"}`, res.Body.String())

	res, _ = run(g, http.MethodGet, "/api/admin/users", sessionWithRole("auditor"), "")
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestGateBearerFallback(t *testing.T) {
	issuer, err := token.NewIssuer("gate-secret", time.Hour)
	require.NoError(t, err)
	signed, _, err := issuer.Issue(token.Claims{RoleID: 1, RoleName: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: "opaque"}})
	require.NoError(t, err)
	g := &Gate{Policy: DefaultPolicy(), Bearer: issuer}

	res, reached := run(g, http.MethodGet, "/api/admin/users", nil, "Bearer "+signed)
	assert.True(t, reached)
	assert.Equal(t, http.StatusNoContent, res.Code)

	res, reached = run(g, http.MethodGet, "/api/user/profile", nil, "Bearer "+signed)
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res, _ = run(g, http.MethodGet, "/api/admin/users", nil, "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.JSONEq(t, `{"error":"Invalid token"}`, res.Body.String())

	// Bearer tokens never open web paths.
	res, reached = run(g, http.MethodGet, "/admin/users", nil, "Bearer "+signed)
	assert.False(t, reached)
	assert.Equal(t, http.StatusSeeOther, res.Code)
}

func TestGateRefreshesSession(t *testing.T) {
	refresher := &stubRefresher{roleName: "user"}
	g := &Gate{Policy: DefaultPolicy(), Refresher: refresher}
	sess := sessionWithRole("admin")

	_, reached := run(g, http.MethodGet, "/admin/users", sess, "")
	assert.False(t, reached)
	assert.Equal(t, 1, refresher.calls)
	assert.Equal(t, "user", sess.Claims().RoleName)
}

func TestGateDropsRevokedSession(t *testing.T) {
	g := &Gate{Policy: DefaultPolicy(), Refresher: &stubRefresher{err: auth.ErrSessionRevoked}}
	sess := sessionWithRole("admin")

	res, reached := run(g, http.MethodGet, "/api/admin/users", sess, "")
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Nil(t, sess.Claims())
}

func TestGateFailsOnStoreError(t *testing.T) {
	g := &Gate{Policy: DefaultPolicy(), Refresher: &stubRefresher{err: errors.New("db down")}}
	res, reached := run(g, http.MethodGet, "/admin/users", sessionWithRole("admin"), "")
	assert.False(t, reached)
	assert.Equal(t, http.StatusInternalServerError, res.Code)
}

func TestGateRecordsDecisions(t *testing.T) {
	counts := map[string]int{}
	g := &Gate{Policy: DefaultPolicy(), Decisions: recorderFunc(func(component, outcome string) {
		counts[component+"/"+outcome]++
	})}
	run(g, http.MethodGet, "/admin", sessionWithRole("admin"), "")
	run(g, http.MethodGet, "/user", sessionWithRole("admin"), "")
	assert.Equal(t, 1, counts["gate/allowed"])
	assert.Equal(t, 1, counts["gate/forbidden"])
}

type recorderFunc func(component, outcome string)

func (f recorderFunc) RecordDecision(component, outcome string) { f(component, outcome) }

func TestGateDecidesOnBearerOverSession(t *testing.T) {
	issuer, err := token.NewIssuer("gate-secret", time.Hour)
	require.NoError(t, err)
	issue := func(role string) string {
		signed, _, err := issuer.Issue(token.Claims{RoleID: 1, RoleName: role, RegisteredClaims: jwt.RegisteredClaims{Subject: "opaque-" + role}})
		require.NoError(t, err)
		return "Bearer " + signed
	}
	g := &Gate{Policy: DefaultPolicy(), Bearer: issuer}

	var seen string
	chain := g.Handler(token.Middleware{Verifier: issuer}.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := shared.IdentityFromContext(r.Context())
		seen = id.RoleName
		w.WriteHeader(http.StatusNoContent)
	})))
	serve := func(path string, sess *shared.Session, header string) *httptest.ResponseRecorder {
		seen = ""
		req := httptest.NewRequest(http.MethodPut, path, nil)
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
		req.Header.Set("Authorization", header)
		res := httptest.NewRecorder()
		chain.ServeHTTP(res, req)
		return res
	}

	res := serve("/api/user/profile", sessionWithRole("user"), issue("admin"))
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Empty(t, seen)

	res = serve("/api/user/profile", sessionWithRole("admin"), issue("user"))
	assert.Equal(t, http.StatusNoContent, res.Code)
	assert.Equal(t, "user", seen)

	res = serve("/api/admin/users", sessionWithRole("admin"), "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.JSONEq(t, `{"error":"Invalid token"}`, res.Body.String())
}

func TestGateIgnoresBadBearerOnPublicPaths(t *testing.T) {
	issuer, err := token.NewIssuer("gate-secret", time.Hour)
	require.NoError(t, err)
	g := &Gate{Policy: DefaultPolicy(), Bearer: issuer}

	res, reached := run(g, http.MethodPost, "/api/guest/register", nil, "Bearer stale")
	assert.True(t, reached)
	assert.Equal(t, http.StatusNoContent, res.Code)
}
