package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lifeafter619/mail-gateway/internal/domain"
)

// SendboxRepo implements sendbox.Repository against PostgreSQL.
type SendboxRepo struct{ db *sql.DB }

// NewSendboxRepo creates a Postgres-backed sendbox repository.
func NewSendboxRepo(db *sql.DB) *SendboxRepo { return &SendboxRepo{db: db} }

func (r *SendboxRepo) Append(ctx context.Context, e *domain.SendboxEntry) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO sendbox (address, raw, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id
	`, e.Address, []byte(e.Raw)).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("append sendbox entry: %w", err)
	}
	return nil
}

func (r *SendboxRepo) List(ctx context.Context, address string, limit, offset int) ([]domain.SendboxEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, address, raw, created_at
		FROM sendbox
		WHERE address = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`, address, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sendbox: %w", err)
	}
	defer rows.Close()

	var entries []domain.SendboxEntry
	for rows.Next() {
		var e domain.SendboxEntry
		var raw []byte
		if err := rows.Scan(&e.ID, &e.Address, &raw, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sendbox entry: %w", err)
		}
		e.Raw = raw
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sendbox: %w", err)
	}
	return entries, nil
}

func (r *SendboxRepo) Count(ctx context.Context, address string) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sendbox WHERE address = $1`, address,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count sendbox: %w", err)
	}
	return total, nil
}
