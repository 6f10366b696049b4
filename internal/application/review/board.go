// Package review keeps the reviewer's merchant list and applies status
// changes to it optimistically.
package review

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/garyjia/merchant-onboarding/internal/application/port"
	"github.com/garyjia/merchant-onboarding/internal/application/workflow"
	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
	domainwf "github.com/garyjia/merchant-onboarding/internal/domain/workflow"
	"github.com/garyjia/merchant-onboarding/pkg/optimistic"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Board is the in-memory review list. Status flips are visible to readers
// before persistence settles and revert if it fails.
type Board struct {
	mu       sync.RWMutex
	items    []*entity.Merchant
	index    map[string]*entity.Merchant
	inFlight map[string]int
	repo     port.MerchantRepository
	engine   workflow.StatusEngine
	logger   Logger
}

// NewBoard creates an empty board
func NewBoard(repo port.MerchantRepository, engine workflow.StatusEngine, logger Logger) *Board {
	return &Board{
		index:    make(map[string]*entity.Merchant),
		inFlight: make(map[string]int),
		repo:     repo,
		engine:   engine,
		logger:   logger,
	}
}

// Refresh reloads the list from the repository and returns a copy of it
func (b *Board) Refresh(ctx context.Context, filter entity.MerchantFilter) ([]*entity.Merchant, error) {
	merchants, err := b.repo.List(ctx, filter)
	if err != nil {
		b.logger.Error("Failed to load review list", "error", err)
		return nil, err
	}

	b.mu.Lock()
	b.items = merchants
	b.index = make(map[string]*entity.Merchant, len(merchants))
	for _, m := range merchants {
		b.index[m.ID] = m
	}
	b.mu.Unlock()

	return b.Items(), nil
}

// Items returns a copy of the current list
func (b *Board) Items() []*entity.Merchant {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*entity.Merchant, len(b.items))
	for i, m := range b.items {
		out[i] = m.Clone()
	}
	return out
}

// Get returns a copy of one listed merchant
func (b *Board) Get(id string) (*entity.Merchant, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	m, ok := b.index[id]
	return m.Clone(), ok
}

// ensure returns the board entry for id, loading it when not listed
func (b *Board) ensure(ctx context.Context, id string) (*entity.Merchant, error) {
	b.mu.RLock()
	m, ok := b.index[id]
	b.mu.RUnlock()
	if ok {
		return m, nil
	}

	loaded, err := b.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load merchant: %w", err)
	}
	if loaded == nil {
		return nil, fmt.Errorf("merchant %s: %w", id, port.ErrNotFound)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.index[id]; ok {
		return existing, nil
	}
	b.items = append(b.items, loaded)
	b.index[id] = loaded
	return loaded, nil
}

// Evict drops a merchant from the list
func (b *Board) Evict(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.index[id]; !ok {
		return
	}
	delete(b.index, id)
	for i, m := range b.items {
		if m.ID == id {
			b.items = append(b.items[:i], b.items[i+1:]...)
			break
		}
	}
}

// Options returns the statuses offered for a merchant. The persisted status
// is authoritative unless a transition for the merchant is still settling,
// in which case the listed status is used.
func (b *Board) Options(ctx context.Context, id string) ([]domainwf.State, error) {
	persisted, err := b.engine.GetCurrentState(ctx, id)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			b.Evict(id)
		}
		return nil, err
	}
	m, err := b.ensure(ctx, id)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	current := persisted
	if b.inFlight[id] > 0 {
		current = domainwf.FromStatus(m.Status)
	} else {
		m.Status = persisted.Status()
	}
	b.mu.Unlock()

	return domainwf.NextStates(current), nil
}

// UpdateStatus flips the listed status to target, persists it through the
// status engine and restores the previous status if persistence fails.
func (b *Board) UpdateStatus(ctx context.Context, id string, target domainwf.State, actor entity.Actor) (*entity.Merchant, error) {
	m, err := b.ensure(ctx, id)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	current := domainwf.FromStatus(m.Status)
	b.mu.RUnlock()

	if !allowed(current, target) {
		return nil, fmt.Errorf("%w: %s -> %s", domainwf.ErrInvalidTransition, current, target)
	}

	b.track(id, 1)
	defer b.track(id, -1)

	err = optimistic.Apply(ctx, &b.mu, &m.Status, target.Status(), func(ctx context.Context) error {
		_, err := b.engine.TransitionStatus(ctx, id, target, actor)
		return err
	})
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			b.Evict(id)
		}
		b.logger.Error("Failed to update merchant status, reverted",
			"error", err,
			"merchant_id", id,
			"from", current,
			"to", target,
		)
		return nil, err
	}

	b.logger.Info("Merchant status updated", "merchant_id", id, "from", current, "to", target)

	b.mu.RLock()
	defer b.mu.RUnlock()
	return m.Clone(), nil
}

func (b *Board) track(id string, delta int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.inFlight[id] += delta
	if b.inFlight[id] <= 0 {
		delete(b.inFlight, id)
	}
}

func allowed(current, target domainwf.State) bool {
	for _, s := range domainwf.NextStates(current) {
		if s == target {
			return true
		}
	}
	return false
}
