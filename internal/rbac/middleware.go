package rbac

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/adminpanel/adminpanel/internal/platform/httpx"
	"github.com/adminpanel/adminpanel/internal/shared"
)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Service   *Service
	Logger    *slog.Logger
	Decisions shared.DecisionRecorder
}

// Require ensures the caller's role grants the named permission.
func (m Middleware) Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := m.Service.RequirePermission(r.Context(), perm); err != nil {
				m.deny(w, r, perm, err)
				return
			}
			m.record("allowed")
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAny ensures the caller holds at least one of the permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var lastErr error = ErrForbidden
			for _, perm := range perms {
				_, err := m.Service.RequirePermission(r.Context(), perm)
				if err == nil {
					m.record("allowed")
					next.ServeHTTP(w, r)
					return
				}
				if !errors.Is(err, ErrForbidden) {
					m.deny(w, r, perm, err)
					return
				}
				lastErr = err
			}
			m.deny(w, r, "", lastErr)
		})
	}
}

// Check runs a permission check inside a handler whose required permission
// depends on the request body. It writes the denial and returns false when
// the caller lacks perm.
func (m Middleware) Check(w http.ResponseWriter, r *http.Request, perm string) bool {
	if _, err := m.Service.RequirePermission(r.Context(), perm); err != nil {
		m.deny(w, r, perm, err)
		return false
	}
	return true
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, perm string, err error) {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		m.record("unauthenticated")
		httpx.Error(w, http.StatusUnauthorized, httpx.MsgUnauthorized)
	case errors.Is(err, ErrForbidden):
		m.record("forbidden")
		if m.Logger != nil {
			m.Logger.Info("permission denied", slog.String("path", r.URL.Path), slog.String("permission", perm))
		}
		httpx.Error(w, http.StatusForbidden, httpx.MsgForbidden)
	default:
		m.record("error")
		if m.Logger != nil {
			m.Logger.Error("rbac permission check", slog.String("permission", perm), slog.Any("error", err))
		}
		httpx.Internal(w)
	}
}

func (m Middleware) record(outcome string) {
	if m.Decisions != nil {
		m.Decisions.RecordDecision("rbac", outcome)
	}
}
