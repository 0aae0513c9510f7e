package token

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/adminpanel/adminpanel/internal/platform/httpx"
	"github.com/adminpanel/adminpanel/internal/shared"
)

const bearerPrefix = "Bearer "

// Verifier validates a signed bearer token.
type Verifier interface {
	Verify(signed string) (*Claims, error)
}

// Middleware rejects requests without a valid bearer token and attaches the
// verified identity to the request context.
type Middleware struct {
	Verifier  Verifier
	Logger    *slog.Logger
	Decisions shared.DecisionRecorder
}

// ExtractBearer returns the token from an "Authorization: Bearer <token>" header.
func ExtractBearer(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	raw := strings.TrimSpace(header[len(bearerPrefix):])
	if raw == "" || strings.ContainsAny(raw, " \t") {
		return "", false
	}
	return raw, true
}

// IdentityFromClaims converts verified claims into a request identity.
func IdentityFromClaims(c *Claims) shared.Identity {
	return shared.Identity{
		PrincipalID: c.PrincipalID(),
		RoleID:      c.RoleID,
		RoleName:    c.RoleName,
		Name:        c.Name,
		Email:       c.Email,
	}
}

// Require is the http middleware form.
func (m Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := ExtractBearer(r)
		if !ok {
			m.record("missing")
			httpx.Error(w, http.StatusUnauthorized, httpx.MsgUnauthorized)
			return
		}
		claims, err := m.Verifier.Verify(raw)
		if err != nil {
			m.record("invalid")
			if m.Logger != nil {
				m.Logger.Warn("bearer rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
			}
			httpx.Error(w, http.StatusUnauthorized, httpx.MsgInvalidToken)
			return
		}
		m.record("allowed")
		ctx := shared.ContextWithIdentity(r.Context(), IdentityFromClaims(claims))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m Middleware) record(outcome string) {
	if m.Decisions != nil {
		m.Decisions.RecordDecision("bearer", outcome)
	}
}
