// Package memory provides process-local repositories. They back the
// "memory" database driver and the application test suites.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/merchant-onboarding/internal/application/port"
	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
)

// MerchantRepository stores merchant records in a map. Returned records are
// copies, so callers never alias stored state.
type MerchantRepository struct {
	mu        sync.RWMutex
	merchants map[string]*entity.Merchant
	now       func() time.Time
}

// NewMerchantRepository creates an empty repository
func NewMerchantRepository() *MerchantRepository {
	return &MerchantRepository{
		merchants: make(map[string]*entity.Merchant),
		now:       time.Now,
	}
}

// Create stores a copy of merchant and assigns its identity
func (r *MerchantRepository) Create(ctx context.Context, merchant *entity.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if merchant.ID == "" {
		merchant.ID = uuid.NewString()
	}
	if merchant.Status == "" {
		merchant.Status = entity.StatusPending
	}
	now := r.now()
	merchant.CreatedAt = now
	merchant.UpdatedAt = now
	merchant.Draft.Normalize()

	r.merchants[merchant.ID] = merchant.Clone()
	return nil
}

// GetByID returns a copy of the record, or nil when missing
func (r *MerchantRepository) GetByID(ctx context.Context, id string) (*entity.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.merchants[id].Clone(), nil
}

// Patch replaces the sections named in patch
func (r *MerchantRepository) Patch(ctx context.Context, id string, patch entity.MerchantPatch) (*entity.Merchant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.merchants[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	patch.Apply(&m.Draft)
	m.UpdatedAt = r.now()
	return m.Clone(), nil
}

// UpdateStatus sets the review status
func (r *MerchantRepository) UpdateStatus(ctx context.Context, id string, status entity.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.merchants[id]
	if !ok {
		return port.ErrNotFound
	}
	m.Status = status
	m.UpdatedAt = r.now()
	return nil
}

// List returns matching records, newest first
func (r *MerchantRepository) List(ctx context.Context, filter entity.MerchantFilter) ([]*entity.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Merchant, 0, len(r.merchants))
	for _, m := range r.merchants {
		if filter.Matches(m) {
			out = append(out, m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CountByStatus counts records per status
func (r *MerchantRepository) CountByStatus(ctx context.Context) (map[entity.Status]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[entity.Status]int)
	for _, m := range r.merchants {
		counts[m.Status]++
	}
	return counts, nil
}

// Delete removes a record
func (r *MerchantRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.merchants[id]; !ok {
		return port.ErrNotFound
	}
	delete(r.merchants, id)
	return nil
}

var _ port.MerchantRepository = (*MerchantRepository)(nil)
