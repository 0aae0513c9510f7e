package shared

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	// CSRFSessionKey is the session value holding the issued token.
	CSRFSessionKey = "csrf_token"
	// CSRFHeader carries the token on cookie-authenticated mutations.
	CSRFHeader = "X-CSRF-Token"

	csrfNonceSize = 16
)

// CSRFManager issues the per-session token clients echo in CSRFHeader.
// A token is a random nonce MACed with the session id it was issued for, so
// it stops verifying once the session id is renewed.
type CSRFManager struct {
	secret []byte
}

// NewCSRFManager returns a CSRFManager keyed by secret.
func NewCSRFManager(secret string) *CSRFManager {
	return &CSRFManager{secret: []byte(secret)}
}

// EnsureToken returns the session's token, issuing one on first use or
// after the session id changed.
func (m *CSRFManager) EnsureToken(ctx context.Context, sess *Session) (string, error) {
	if sess == nil {
		return "", errors.New("csrf: session missing")
	}
	if token := sess.Get(CSRFSessionKey); token != "" && m.issuedFor(sess.ID, token) {
		return token, nil
	}
	return m.Rotate(ctx, sess)
}

// Rotate replaces the session's token with a fresh one.
func (m *CSRFManager) Rotate(_ context.Context, sess *Session) (string, error) {
	if sess == nil {
		return "", errors.New("csrf: session missing")
	}
	token, err := m.issue(sess.ID)
	if err != nil {
		return "", err
	}
	sess.Set(CSRFSessionKey, token)
	return token, nil
}

// VerifyToken compares the header value with the session's token, which must
// still belong to the current session id.
func (m *CSRFManager) VerifyToken(_ context.Context, sess *Session, token string) error {
	if sess == nil {
		return ErrCSRFTokenMissing
	}
	expected := sess.Get(CSRFSessionKey)
	if expected == "" || token == "" {
		return ErrCSRFTokenMissing
	}
	if !hmac.Equal([]byte(expected), []byte(token)) || !m.issuedFor(sess.ID, token) {
		return ErrCSRFTokenMismatch
	}
	return nil
}

func (m *CSRFManager) issue(sessionID string) (string, error) {
	nonce := make([]byte, csrfNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("csrf: read nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(append(nonce, m.mac(sessionID, nonce)...)), nil
}

func (m *CSRFManager) issuedFor(sessionID, token string) bool {
	raw, err := base64.RawURLEncoding.Strict().DecodeString(token)
	if err != nil || len(raw) != csrfNonceSize+sha256.Size {
		return false
	}
	return hmac.Equal(raw[csrfNonceSize:], m.mac(sessionID, raw[:csrfNonceSize]))
}

func (m *CSRFManager) mac(sessionID string, nonce []byte) []byte {
	h := hmac.New(sha256.New, m.secret)
	_, _ = h.Write([]byte(sessionID))
	_, _ = h.Write([]byte{'|'})
	_, _ = h.Write(nonce)
	return h.Sum(nil)
}
