package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies pending schema migrations. The *sql.DB view shares the
// pool's connections and is left open for the pool to manage.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	return migrateDB(ctx, stdlib.OpenDBFromPool(pool), "up")
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, pool *pgxpool.Pool) error {
	return migrateDB(ctx, stdlib.OpenDBFromPool(pool), "down")
}

func migrateDB(ctx context.Context, sqlDB *sql.DB, direction string) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("platform/db: goose dialect: %w", err)
	}
	var err error
	switch direction {
	case "up":
		err = goose.UpContext(ctx, sqlDB, "migrations")
	case "down":
		err = goose.DownContext(ctx, sqlDB, "migrations")
	default:
		err = fmt.Errorf("unknown direction %q", direction)
	}
	if err != nil {
		return fmt.Errorf("platform/db: migrate %s: %w", direction, err)
	}
	return nil
}
