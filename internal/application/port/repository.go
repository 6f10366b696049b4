package port

import (
	"context"
	"errors"

	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
)

// ErrNotFound is returned by write operations addressing a missing record.
// Reads return (nil, nil) instead.
var ErrNotFound = errors.New("record not found")

// MerchantRepository defines persistence operations for merchant records
type MerchantRepository interface {
	// Create stores a new record, assigning ID and timestamps when unset
	Create(ctx context.Context, merchant *entity.Merchant) error
	GetByID(ctx context.Context, id string) (*entity.Merchant, error)
	// Patch replaces only the top-level sections named in patch
	Patch(ctx context.Context, id string, patch entity.MerchantPatch) (*entity.Merchant, error)
	UpdateStatus(ctx context.Context, id string, status entity.Status) error
	List(ctx context.Context, filter entity.MerchantFilter) ([]*entity.Merchant, error)
	CountByStatus(ctx context.Context) (map[entity.Status]int, error)
	Delete(ctx context.Context, id string) error
}

// StatusHistoryRepository defines persistence operations for status transitions
type StatusHistoryRepository interface {
	Create(ctx context.Context, history *entity.StatusHistory) error
	GetByMerchantID(ctx context.Context, merchantID string) ([]*entity.StatusHistory, error)
}

// LeadRepository defines persistence operations for leads and their notes
type LeadRepository interface {
	Create(ctx context.Context, lead *entity.Lead) error
	GetByID(ctx context.Context, id string) (*entity.Lead, error)
	List(ctx context.Context, search string) ([]*entity.Lead, error)
	Delete(ctx context.Context, id string) error
	AddNote(ctx context.Context, leadID string, note *entity.Note) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
