// Package token issues and verifies the short-lived bearer tokens handed to
// API callers alongside the cookie session.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the bearer lifetime when none is configured.
const DefaultTTL = 2 * time.Hour

var (
	// ErrInvalidSignature indicates a bad signature or a disallowed algorithm.
	ErrInvalidSignature = errors.New("token: invalid signature")
	// ErrExpired indicates the token is past its expiry.
	ErrExpired = errors.New("token: expired")
	// ErrMalformedToken indicates the token or its claim set cannot be used.
	ErrMalformedToken = errors.New("token: malformed")
)

// Claims is the fixed claim record carried by a bearer token. Subject holds
// the opaque principal identifier, never the storage id.
type Claims struct {
	RoleID   int64  `json:"rid"`
	RoleName string `json:"rnm"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// PrincipalID returns the opaque principal identifier.
func (c *Claims) PrincipalID() string {
	return c.Subject
}

func (c *Claims) complete() bool {
	return c.Subject != "" && c.RoleID > 0 && c.RoleName != "" && c.IssuedAt != nil && c.ExpiresAt != nil
}

// Issuer signs and verifies HS256 bearer tokens with a server secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer. A non-positive ttl falls back to DefaultTTL.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("token: secret required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime applied to issued tokens.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue stamps iat/exp onto the claims and signs them.
func (i *Issuer) Issue(claims Claims) (string, time.Time, error) {
	now := i.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(i.ttl)
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	claims.NotBefore = nil
	if !claims.complete() {
		return "", time.Time{}, fmt.Errorf("%w: missing principal or role", ErrMalformedToken)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token: sign: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm and expiry and returns the claims.
func (i *Issuer) Verify(signed string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.now),
	)
	tok, err := parser.ParseWithClaims(signed, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !tok.Valid || !claims.complete() {
		return nil, ErrMalformedToken
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
}
