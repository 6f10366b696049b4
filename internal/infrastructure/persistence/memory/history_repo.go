package memory

import (
	"context"
	"sync"

	"github.com/garyjia/merchant-onboarding/internal/application/port"
	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
)

// StatusHistoryRepository keeps status transitions in insertion order
type StatusHistoryRepository struct {
	mu      sync.RWMutex
	entries []*entity.StatusHistory
}

// NewStatusHistoryRepository creates an empty history repository
func NewStatusHistoryRepository() *StatusHistoryRepository {
	return &StatusHistoryRepository{}
}

// Create appends a history entry
func (r *StatusHistoryRepository) Create(ctx context.Context, history *entity.StatusHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *history
	r.entries = append(r.entries, &copied)
	return nil
}

// GetByMerchantID returns the merchant's transitions, oldest first
func (r *StatusHistoryRepository) GetByMerchantID(ctx context.Context, merchantID string) ([]*entity.StatusHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entity.StatusHistory
	for _, h := range r.entries {
		if h.MerchantID == merchantID {
			copied := *h
			out = append(out, &copied)
		}
	}
	return out, nil
}

// TxManager runs fn directly. Memory repositories are individually
// consistent but offer no rollback.
type TxManager struct{}

// WithTransaction implements port.TransactionManager
func (TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var (
	_ port.StatusHistoryRepository = (*StatusHistoryRepository)(nil)
	_ port.TransactionManager      = TxManager{}
)
