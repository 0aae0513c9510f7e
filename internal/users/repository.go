package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adminpanel/adminpanel/internal/platform/db"
	"github.com/adminpanel/adminpanel/internal/shared"
)

const (
	// retireAuthoredPosts soft-deletes the user's live posts so they leave
	// through the purge job instead of a cascading delete.
	retireAuthoredPosts = `UPDATE posts SET deleted_at = NOW(), updated_at = NOW() WHERE author_id = $1 AND deleted_at IS NULL`
	deleteUser          = `DELETE FROM users WHERE id = $1`
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context, page shared.Page) ([]User, error)
	Count(ctx context.Context) (int64, error)
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)
	RoleIDByName(ctx context.Context, name string) (int64, error)
	Create(ctx context.Context, params CreateParams) (*User, error)
	Update(ctx context.Context, id int64, params UpdateParams) (*User, error)
	Delete(ctx context.Context, id int64) error
}

const selectUser = `
SELECT u.id, u.name, u.email, u.password_hash, u.role_id, r.name, COALESCE(u.photo, ''), u.created_at, u.updated_at
FROM users u
JOIN roles r ON r.id = u.role_id`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByEmail fetches a user by normalised email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE u.email = $1`, email))
}

// GetByID fetches a user by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE u.id = $1`, id))
}

// List returns one page of users, newest first.
func (r *Repository) List(ctx context.Context, page shared.Page) ([]User, error) {
	rows, err := r.pool.Query(ctx, selectUser+` ORDER BY u.created_at DESC, u.id DESC LIMIT $1 OFFSET $2`, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the total number of users.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// EmailTaken reports whether another user already owns the email.
func (r *Repository) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`, email, exceptID).Scan(&taken)
	return taken, err
}

// RoleIDByName resolves a role id for new accounts.
func (r *Repository) RoleIDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("users: role %q: %w", name, shared.ErrNotFound)
	}
	return id, err
}

// Create inserts a user and returns it with the role name resolved.
func (r *Repository) Create(ctx context.Context, params CreateParams) (*User, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO users (name, email, password_hash, role_id, photo)
VALUES ($1, $2, $3, $4, NULLIF($5, ''))
RETURNING id`, params.Name, params.Email, params.PasswordHash, params.RoleID, params.Photo).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, shared.ErrDuplicateEmail
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Update rewrites name, email and optionally the password hash.
func (r *Repository) Update(ctx context.Context, id int64, params UpdateParams) (*User, error) {
	tag, err := r.pool.Exec(ctx, `
UPDATE users
SET name = $2, email = $3, password_hash = COALESCE($4, password_hash), updated_at = NOW()
WHERE id = $1`, id, params.Name, params.Email, params.PasswordHash)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, shared.ErrDuplicateEmail
		}
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, shared.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete soft-deletes the user's posts and removes the user in one transaction.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, retireAuthoredPosts, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, deleteUser, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.RoleID, &u.RoleName, &u.Photo, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

var _ RepositoryPort = (*Repository)(nil)
