package training

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adminpanel/adminpanel/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertSample stores a labelled sample.
func (r *Repository) InsertSample(ctx context.Context, text, label string) (*Sample, error) {
	s := Sample{Text: text, Label: label}
	err := r.pool.QueryRow(ctx, `INSERT INTO training_data (text, label) VALUES ($1, $2) RETURNING id`, text, label).Scan(&s.ID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Labels returns the distinct labels in first-inserted order.
func (r *Repository) Labels(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT label FROM training_data GROUP BY label ORDER BY MIN(id)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		out = append(out, label)
	}
	return out, rows.Err()
}

const (
	claimResponses = `INSERT INTO training_responses (label, responses) VALUES ($1, '{}') ON CONFLICT (label) DO NOTHING`
	lockResponses  = `SELECT responses FROM training_responses WHERE label = $1 FOR UPDATE`
	writeResponses = `UPDATE training_responses SET responses = $2 WHERE label = $1 RETURNING id, label, responses`
)

// MutateResponses claims the label's row, locks it, applies fn and writes
// the result back. The claim makes the lock hold for a label's first writer.
func (r *Repository) MutateResponses(ctx context.Context, label string, fn func([]string) []string) (*ResponseSet, error) {
	var set ResponseSet
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, claimResponses, label); err != nil {
			return err
		}
		var current []string
		if err := tx.QueryRow(ctx, lockResponses, label).Scan(&current); err != nil {
			return err
		}
		next := fn(current)
		if next == nil {
			next = []string{}
		}
		return tx.QueryRow(ctx, writeResponses, label, next).Scan(&set.ID, &set.Label, &set.Responses)
	})
	if err != nil {
		return nil, err
	}
	return &set, nil
}

var _ RepositoryPort = (*Repository)(nil)
