// Package postgres implements the service repositories against
// PostgreSQL using database/sql.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/lifeafter619/mail-gateway/internal/domain"
	"github.com/lifeafter619/mail-gateway/internal/service/account"
)

// pq error code for unique-constraint violations.
const uniqueViolation = "23505"

// AccountRepo implements account.Repository against PostgreSQL.
type AccountRepo struct{ db *sql.DB }

// NewAccountRepo creates a Postgres-backed sender account repository.
func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{db: db} }

func (r *AccountRepo) Create(ctx context.Context, a *domain.SenderAccount) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sender_accounts (address, balance, enabled, created_at)
		VALUES ($1, $2, $3, NOW())
	`, a.Address, a.Balance, a.Enabled)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return account.ErrAlreadyEnrolled
		}
		return fmt.Errorf("create sender account: %w", err)
	}
	return nil
}

func (r *AccountRepo) Get(ctx context.Context, address string) (*domain.SenderAccount, error) {
	var a domain.SenderAccount
	err := r.db.QueryRowContext(ctx, `
		SELECT address, balance, enabled, created_at
		FROM sender_accounts WHERE address = $1
	`, address).Scan(&a.Address, &a.Balance, &a.Enabled, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sender account: %w", err)
	}
	return &a, nil
}

// DecrementBalance debits one send. The balance > 0 guard makes the
// debit atomic: two concurrent sends cannot drive the balance negative,
// the loser simply affects zero rows.
func (r *AccountRepo) DecrementBalance(ctx context.Context, address string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sender_accounts SET balance = balance - 1
		WHERE address = $1 AND balance > 0
	`, address)
	if err != nil {
		return false, fmt.Errorf("decrement balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("decrement balance rows: %w", err)
	}
	return n > 0, nil
}
