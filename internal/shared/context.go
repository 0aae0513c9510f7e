package shared

import "context"

type sessionContextKey struct{}

type identityContextKey struct{}

// Identity is the verified principal attached to a request, from either the
// bearer token or the cookie session.
type Identity struct {
	PrincipalID string
	RoleID      int64
	RoleName    string
	Name        string
	Email       string
}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithIdentity stores the request identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the request identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

// IdentityFromClaims converts session claims into a request identity.
func IdentityFromClaims(c *SessionClaims) Identity {
	return Identity{
		PrincipalID: c.ID,
		RoleID:      c.RoleID,
		RoleName:    c.RoleName,
		Name:        c.Name,
		Email:       c.Email,
	}
}

// DecisionRecorder counts access-control outcomes per component.
type DecisionRecorder interface {
	RecordDecision(component, outcome string)
}
