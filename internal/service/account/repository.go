package account

import (
	"context"

	"github.com/lifeafter619/mail-gateway/internal/domain"
)

// Repository defines the data access contract for sender accounts.
type Repository interface {
	// Create inserts a new account. Returns ErrAlreadyEnrolled if the
	// address already has one (unique-constraint violation).
	Create(ctx context.Context, a *domain.SenderAccount) error

	// Get returns the account for an address, or ErrNotFound.
	Get(ctx context.Context, address string) (*domain.SenderAccount, error)

	// DecrementBalance atomically debits one send from the balance,
	// guarded by balance > 0. Returns false when no row qualified, so
	// the balance can never go below zero under concurrent sends.
	DecrementBalance(ctx context.Context, address string) (bool, error)
}
