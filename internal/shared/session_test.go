package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "sid", "secret", time.Hour, false), mr
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sid" {
			return c
		}
	}
	return nil
}

func sampleClaims() SessionClaims {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return SessionClaims{ID: "opaque", Name: "Ada", Email: "ada@example.com", RoleID: 1, RoleName: "admin", IssuedAt: now, RefreshedAt: now}
}

func TestSessionRoundTrip(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Set("k", "v")
	sess.SetClaims(sampleClaims())

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, nil, sess))
	cookie := sessionCookie(t, rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.True(t, mr.Exists("session:"+cookie.Value))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, cookie.Value, loaded.ID)
	assert.Equal(t, "v", loaded.Get("k"))
	require.NotNil(t, loaded.Claims())
	assert.Equal(t, "admin", loaded.Claims().RoleName)
	assert.True(t, loaded.Claims().IssuedAt.Equal(sampleClaims().IssuedAt))
}

func TestAnonymousSessionIsNotPersisted(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, nil, sess))
	assert.Nil(t, sessionCookie(t, rec))
	assert.Empty(t, mr.Keys())
}

func TestUnknownSessionIDIsNotAdopted(t *testing.T) {
	sm, _ := newTestManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "attacker-chosen"})
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, "attacker-chosen", sess.ID)
	assert.Nil(t, sess.Claims())
}

func TestInvalidStoredClaimsAreDropped(t *testing.T) {
	sm, mr := newTestManager(t)
	require.NoError(t, mr.Set("session:abc", `{"values":{"a":"b"},"claims":{"id":"","role_id":0}}`))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "abc"})
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "b", sess.Get("a"))
	assert.Nil(t, sess.Claims())
}

func TestRenewAndDestroy(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Set("k", "v")
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, nil, sess))
	oldID := sess.ID

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie(t, rec))
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.NoError(t, sm.Renew(ctx, loaded))
	assert.NotEqual(t, oldID, loaded.ID)
	assert.False(t, mr.Exists("session:"+oldID))
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), nil, loaded))
	assert.True(t, mr.Exists("session:"+loaded.ID))

	sm.Destroy(loaded)
	assert.Nil(t, loaded.Claims())
	rec = httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, nil, loaded))
	assert.False(t, mr.Exists("session:"+loaded.ID))
	cleared := sessionCookie(t, rec)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestSessionExpiresWithTTL(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()
	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetClaims(sampleClaims())
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), nil, sess))

	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists("session:"+sess.ID))
}

func TestCSRFTokenLifecycle(t *testing.T) {
	sm, _ := newTestManager(t)
	csrf := NewCSRFManager("csrf")
	ctx := context.Background()
	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	tok, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	again, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, tok, again)

	assert.NoError(t, csrf.VerifyToken(ctx, sess, tok))
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, tok+"x"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, ""), ErrCSRFTokenMissing)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, nil, tok), ErrCSRFTokenMissing)
}

func TestPageFromRequest(t *testing.T) {
	cases := map[string]Page{
		"/":                       {Limit: 10, Offset: 0},
		"/?limit=25&offset=50":    {Limit: 25, Offset: 50},
		"/?limit=1000":            {Limit: 100, Offset: 0},
		"/?limit=-3&offset=-1":    {Limit: 10, Offset: 0},
		"/?limit=abc&offset=zero": {Limit: 10, Offset: 0},
	}
	for target, want := range cases {
		assert.Equal(t, want, PageFromRequest(httptest.NewRequest(http.MethodGet, target, nil)), target)
	}
}

func TestCSRFTokenFollowsSessionID(t *testing.T) {
	sm, _ := newTestManager(t)
	csrf := NewCSRFManager("csrf")
	ctx := context.Background()
	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	before, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	require.NoError(t, sm.Renew(ctx, sess))
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, before), ErrCSRFTokenMismatch)

	after, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
	assert.NoError(t, csrf.VerifyToken(ctx, sess, after))

	rotated, err := csrf.Rotate(ctx, sess)
	require.NoError(t, err)
	assert.NotEqual(t, after, rotated)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, after), ErrCSRFTokenMismatch)
	assert.NoError(t, csrf.VerifyToken(ctx, sess, rotated))
}

func TestCSRFTokenNeedsServerSecret(t *testing.T) {
	sm, _ := newTestManager(t)
	ctx := context.Background()
	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	forged, err := NewCSRFManager("other").EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.ErrorIs(t, NewCSRFManager("csrf").VerifyToken(ctx, sess, forged), ErrCSRFTokenMismatch)
}
