package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adminpanel/adminpanel/internal/platform/db"
)

const roleColumns = `id, name, permissions, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetRole fetches a role by id.
func (r *Repository) GetRole(ctx context.Context, id int64) (Role, error) {
	return scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
}

// GetRoleByName fetches a role by its unique name.
func (r *Repository) GetRoleByName(ctx context.Context, name string) (Role, error) {
	return scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE name = $1`, name))
}

// ListRoles returns all roles ordered by id.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

// ListPermissions returns the permission catalogue ordered by name.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// EnsurePermission creates the permission if absent and returns it.
func (r *Repository) EnsurePermission(ctx context.Context, name string) (Permission, error) {
	var p Permission
	err := r.pool.QueryRow(ctx, `
INSERT INTO permissions (name) VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id, name`, name).Scan(&p.ID, &p.Name)
	if err != nil {
		return Permission{}, fmt.Errorf("rbac: ensure permission %q: %w", name, err)
	}
	return p, nil
}

// MutateRolePermissions upserts the role and rewrites its permission list
// under a row lock.
func (r *Repository) MutateRolePermissions(ctx context.Context, roleName string, fn func([]Permission) []Permission) (Role, error) {
	var role Role
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO roles (name, permissions) VALUES ($1, '[]'::jsonb) ON CONFLICT (name) DO NOTHING`, roleName); err != nil {
			return err
		}
		current, err := scanRole(tx.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE name = $1 FOR UPDATE`, roleName))
		if err != nil {
			return err
		}
		next := fn(current.Permissions)
		if next == nil {
			next = []Permission{}
		}
		payload, err := json.Marshal(next)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE roles SET permissions = $2::jsonb, updated_at = NOW() WHERE id = $1`, current.ID, string(payload)); err != nil {
			return err
		}
		current.Permissions = next
		role = current
		return nil
	})
	if err != nil {
		return Role{}, fmt.Errorf("rbac: update role %q: %w", roleName, err)
	}
	return role, nil
}

func scanRole(row pgx.Row) (Role, error) {
	var (
		role Role
		raw  []byte
	)
	if err := row.Scan(&role.ID, &role.Name, &raw, &role.CreatedAt, &role.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrRoleNotFound
		}
		return Role{}, err
	}
	if raw == nil {
		return role, nil
	}
	perms := []Permission{}
	if err := json.Unmarshal(raw, &perms); err != nil {
		return Role{}, fmt.Errorf("%w: %w", ErrPermissionSchema, err)
	}
	if perms == nil {
		// JSON null stored in the column.
		return role, nil
	}
	role.Permissions = perms
	return role, nil
}
