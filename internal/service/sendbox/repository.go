package sendbox

import (
	"context"

	"github.com/lifeafter619/mail-gateway/internal/domain"
)

// Repository defines the data access contract for the sendbox log.
type Repository interface {
	// Append inserts one audit record. The store assigns the ID.
	Append(ctx context.Context, e *domain.SendboxEntry) error

	// List returns up to limit entries for an address, newest-first,
	// starting at offset.
	List(ctx context.Context, address string, limit, offset int) ([]domain.SendboxEntry, error)

	// Count returns the total number of entries for an address.
	Count(ctx context.Context, address string) (int, error)
}
