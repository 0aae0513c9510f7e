// Package cipher turns internal identifiers into opaque tokens and back.
//
// Tokens have the form "<nonce>:<ciphertext>" where both parts are unpadded
// base64url. The key is the SHA-256 digest of a server secret, so every
// process sharing the secret produces compatible tokens.
package cipher

import (
	"crypto/aes"
	gocipher "crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const separator = ":"

// encoding rejects non-zero trailing bits so every id has exactly one token
// spelling.
var encoding = base64.RawURLEncoding.Strict()

var (
	// ErrMalformedToken indicates the token is not in nonce:ciphertext form.
	ErrMalformedToken = errors.New("cipher: malformed token")
	// ErrAuthenticationFailure indicates the authenticated decryption failed.
	ErrAuthenticationFailure = errors.New("cipher: authentication failure")
	// ErrInvalidID indicates a token did not carry a usable identifier.
	ErrInvalidID = errors.New("cipher: invalid id")
)

// Key is a 256-bit AES key.
type Key [sha256.Size]byte

// DeriveKey hashes the secret into a fixed-size key.
func DeriveKey(secret string) Key {
	return Key(sha256.Sum256([]byte(secret)))
}

// Service encrypts and decrypts opaque identifiers with a fixed key.
type Service struct {
	aead gocipher.AEAD
}

// NewService derives the key once and prepares the AEAD.
func NewService(secret string) (*Service, error) {
	if secret == "" {
		return nil, errors.New("cipher: secret required")
	}
	return NewServiceWithKey(DeriveKey(secret))
}

// NewServiceWithKey builds a Service from an already derived key.
func NewServiceWithKey(key Key) (*Service, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("cipher: new block: %w", err)
	}
	aead, err := gocipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher: new gcm: %w", err)
	}
	return &Service{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (s *Service) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("cipher: read nonce: %w", err)
	}
	sealed := s.aead.Seal(nil, nonce, []byte(plaintext), nil)
	return encoding.EncodeToString(nonce) + separator + encoding.EncodeToString(sealed), nil
}

// Decrypt opens a token produced by Encrypt.
func (s *Service) Decrypt(token string) (string, error) {
	rawNonce, rawSealed, ok := strings.Cut(token, separator)
	if !ok || rawNonce == "" || rawSealed == "" {
		return "", ErrMalformedToken
	}
	nonce, err := encoding.DecodeString(rawNonce)
	if err != nil || len(nonce) != s.aead.NonceSize() {
		return "", ErrMalformedToken
	}
	sealed, err := encoding.DecodeString(rawSealed)
	if err != nil || len(sealed) < s.aead.Overhead() {
		return "", ErrMalformedToken
	}
	plain, err := s.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrAuthenticationFailure
	}
	return string(plain), nil
}

// SealID encrypts a storage identifier.
func (s *Service) SealID(id int64) (string, error) {
	return s.Encrypt(strconv.FormatInt(id, 10))
}

// OpenID decrypts a token and parses the storage identifier it carries.
// Every failure wraps ErrInvalidID.
func (s *Service) OpenID(token string) (int64, error) {
	plain, err := s.Decrypt(strings.TrimSpace(token))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidID, err)
	}
	id, err := strconv.ParseInt(plain, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
