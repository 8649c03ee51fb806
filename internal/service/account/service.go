package account

import (
	"context"
	"strings"

	"github.com/lifeafter619/mail-gateway/internal/domain"
)

// Service implements enrollment business logic. It is safe for
// concurrent use.
type Service struct {
	repo           Repository
	defaultBalance int
}

// NewService creates an account service backed by the given repository.
// defaultBalance is the quota granted at enrollment; zero is valid and
// yields a disabled account.
func NewService(repo Repository, defaultBalance int) *Service {
	return &Service{repo: repo, defaultBalance: defaultBalance}
}

// Enroll registers an address for sending. Enabled is set iff the
// default balance is strictly positive. A second enrollment for the
// same address returns ErrAlreadyEnrolled and leaves the existing
// account untouched.
func (s *Service) Enroll(ctx context.Context, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return ErrNoAddress
	}

	return s.repo.Create(ctx, &domain.SenderAccount{
		Address: address,
		Balance: s.defaultBalance,
		Enabled: s.defaultBalance > 0,
	})
}

// Get returns the account for an address.
func (s *Service) Get(ctx context.Context, address string) (*domain.SenderAccount, error) {
	return s.repo.Get(ctx, address)
}
