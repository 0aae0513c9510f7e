package users

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// User represents an account in the identity store.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	RoleID       int64
	RoleName     string
	Photo        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateParams carries the columns written on insert.
type CreateParams struct {
	Name         string
	Email        string
	PasswordHash string
	RoleID       int64
	Photo        string
}

// UpdateParams carries the columns written on update. A nil PasswordHash
// keeps the stored hash.
type UpdateParams struct {
	Name         string
	Email        string
	PasswordHash *string
}

// CreateInput is the service-level create request.
type CreateInput struct {
	Name     string
	Email    string
	Password string
	Photo    string
	Role     string
}

// UpdateInput is the service-level update request. An empty Password keeps
// the current one.
type UpdateInput struct {
	Name     string
	Email    string
	Password string
}

var emailFolder = cases.Fold()

// NormalizeEmail trims and case-folds an address for storage and lookup.
func NormalizeEmail(email string) string {
	return emailFolder.String(strings.TrimSpace(email))
}
