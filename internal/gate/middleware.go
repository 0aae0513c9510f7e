package gate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/adminpanel/adminpanel/internal/auth"
	"github.com/adminpanel/adminpanel/internal/platform/httpx"
	"github.com/adminpanel/adminpanel/internal/shared"
	"github.com/adminpanel/adminpanel/internal/token"
)

// Refresher re-derives session claims on each refresh tick.
type Refresher interface {
	OnRefresh(ctx context.Context, claims shared.SessionClaims) (shared.SessionClaims, error)
}

// Gate applies a Policy to every inbound request.
type Gate struct {
	Policy    *Policy
	Refresher Refresher
	Bearer    token.Verifier
	Logger    *slog.Logger
	Decisions shared.DecisionRecorder
}

// Handler is the http middleware form.
func (g *Gate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api := g.Policy.IsAPI(r.URL.Path)

		// On API paths a sent bearer outranks the session.
		identity, ok, rejected := g.bearerIdentity(r, api)
		if rejected {
			g.record("invalid_token")
			httpx.Error(w, http.StatusUnauthorized, httpx.MsgInvalidToken)
			return
		}
		if !ok {
			var err error
			identity, ok, err = g.sessionIdentity(r)
			if err != nil {
				g.logger().Error("gate session refresh", slog.Any("error", err))
				g.record("error")
				httpx.Internal(w)
				return
			}
		}

		role := ""
		if ok {
			role = identity.RoleName
		}
		decision := g.Policy.Decide(r.URL.Path, role)
		g.record(decision.Outcome.String())

		switch decision.Outcome {
		case Allow:
			if ok {
				r = r.WithContext(shared.ContextWithIdentity(r.Context(), identity))
			}
			next.ServeHTTP(w, r)
		case RedirectHome:
			http.Redirect(w, r, decision.Location, http.StatusSeeOther)
		case Unauthenticated:
			if api {
				httpx.Error(w, http.StatusUnauthorized, httpx.MsgUnauthorized)
				return
			}
			http.Redirect(w, r, decision.Location, http.StatusSeeOther)
		default:
			if api {
				httpx.Error(w, http.StatusForbidden, httpx.MsgForbidden)
				return
			}
			http.Redirect(w, r, decision.Location, http.StatusSeeOther)
		}
	})
}

// bearerIdentity verifies the bearer sent on an API path. A bad bearer is
// rejected on protected paths and ignored on public ones.
func (g *Gate) bearerIdentity(r *http.Request, api bool) (shared.Identity, bool, bool) {
	if !api || g.Bearer == nil {
		return shared.Identity{}, false, false
	}
	raw, present := token.ExtractBearer(r)
	if !present {
		return shared.Identity{}, false, false
	}
	claims, err := g.Bearer.Verify(raw)
	if err != nil {
		if !g.Policy.IsProtected(r.URL.Path) {
			g.logger().Debug("gate ignored bearer on public path", slog.String("path", r.URL.Path), slog.Any("error", err))
			return shared.Identity{}, false, false
		}
		g.logger().Warn("gate bearer rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
		return shared.Identity{}, false, true
	}
	return token.IdentityFromClaims(claims), true, false
}

// sessionIdentity returns the identity held by the cookie session, refreshing
// the claims when due. Revoked or expired sessions are downgraded to anonymous.
func (g *Gate) sessionIdentity(r *http.Request) (shared.Identity, bool, error) {
	sess := shared.SessionFromContext(r.Context())
	claims := sess.Claims()
	if !claims.Valid() {
		return shared.Identity{}, false, nil
	}
	if g.Refresher != nil {
		refreshed, err := g.Refresher.OnRefresh(r.Context(), *claims)
		switch {
		case errors.Is(err, auth.ErrSessionRevoked), errors.Is(err, auth.ErrSessionExpired):
			g.logger().Info("session dropped", slog.Any("reason", err))
			sess.ClearClaims()
			return shared.Identity{}, false, nil
		case err != nil:
			return shared.Identity{}, false, err
		}
		if !refreshed.RefreshedAt.Equal(claims.RefreshedAt) {
			sess.SetClaims(refreshed)
		}
		claims = &refreshed
	}
	return shared.IdentityFromClaims(claims), true, nil
}

func (g *Gate) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

func (g *Gate) record(outcome string) {
	if g.Decisions != nil {
		g.Decisions.RecordDecision("gate", outcome)
	}
}
