package sendbox

import (
	"context"
	"encoding/json"

	"github.com/lifeafter619/mail-gateway/internal/domain"
)

// MaxPageSize caps how many records one listing may return.
const MaxPageSize = 100

// Service implements sendbox business logic.
type Service struct {
	repo Repository
}

// NewService creates a sendbox service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Append records one send attempt for an address.
func (s *Service) Append(ctx context.Context, address string, raw json.RawMessage) error {
	return s.repo.Append(ctx, &domain.SendboxEntry{Address: address, Raw: raw})
}

// List returns a page of the address's send history, newest-first.
//
// The total count is computed only for the first page (offset 0);
// later pages return 0 there, and callers reuse the count from the
// first response rather than re-querying it every page. A zero count
// with offset > 0 therefore does not mean "no records".
func (s *Service) List(ctx context.Context, address string, limit, offset int) ([]domain.SendboxEntry, int, error) {
	if address == "" {
		return nil, 0, ErrNoAddress
	}
	if limit < 1 || limit > MaxPageSize {
		return nil, 0, ErrInvalidLimit
	}
	if offset < 0 {
		return nil, 0, ErrInvalidOffset
	}

	results, err := s.repo.List(ctx, address, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	count := 0
	if offset == 0 {
		count, err = s.repo.Count(ctx, address)
		if err != nil {
			return nil, 0, err
		}
	}
	return results, count, nil
}
