package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/merchant-onboarding/internal/application/dispatcher"
	"github.com/garyjia/merchant-onboarding/internal/application/port"
	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
	"github.com/garyjia/merchant-onboarding/internal/domain/event"
	domainwf "github.com/garyjia/merchant-onboarding/internal/domain/workflow"
)

type engineImpl struct {
	merchantRepo port.MerchantRepository
	historyRepo  port.StatusHistoryRepository
	txManager    port.TransactionManager
	dispatcher   dispatcher.Dispatcher
	now          func() time.Time
}

// EngineOption configures the status engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for emitting events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithClock overrides the time source used for history timestamps
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// NewEngine creates a new status engine
func NewEngine(
	merchantRepo port.MerchantRepository,
	historyRepo port.StatusHistoryRepository,
	txManager port.TransactionManager,
	opts ...EngineOption,
) StatusEngine {
	e := &engineImpl{
		merchantRepo: merchantRepo,
		historyRepo:  historyRepo,
		txManager:    txManager,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *engineImpl) load(ctx context.Context, merchantID string) (*entity.Merchant, error) {
	merchant, err := e.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch merchant: %w", err)
	}
	if merchant == nil {
		return nil, fmt.Errorf("merchant %s: %w", merchantID, port.ErrNotFound)
	}
	return merchant, nil
}

// TransitionStatus moves a merchant to the target status
func (e *engineImpl) TransitionStatus(ctx context.Context, merchantID string, target domainwf.State, actor entity.Actor) (*entity.Merchant, error) {
	var (
		updated  *entity.Merchant
		previous domainwf.State
	)

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		merchant, err := e.load(txCtx, merchantID)
		if err != nil {
			return err
		}

		machine, err := domainwf.NewMerchantStatusMachine(domainwf.FromStatus(merchant.Status))
		if err != nil {
			return err
		}
		previous = machine.State()

		if err := machine.TransitionTo(txCtx, target); err != nil {
			return err
		}

		if err := e.merchantRepo.UpdateStatus(txCtx, merchantID, machine.State().Status()); err != nil {
			return fmt.Errorf("failed to update merchant status: %w", err)
		}

		at := e.now()
		history := &entity.StatusHistory{
			ID:             uuid.NewString(),
			MerchantID:     merchantID,
			PreviousStatus: previous.Status(),
			NewStatus:      machine.State().Status(),
			ActorID:        actor.UserID,
			ActorEmail:     actor.Email,
			Timestamp:      at,
		}
		if err := e.historyRepo.Create(txCtx, history); err != nil {
			return fmt.Errorf("failed to create history record: %w", err)
		}

		merchant.Status = machine.State().Status()
		merchant.UpdatedAt = at
		updated = merchant
		return nil
	})
	if err != nil {
		return nil, err
	}

	if e.dispatcher != nil {
		e.dispatcher.DispatchAsync(ctx, event.NewEvent(
			event.TypeStatusChanged,
			merchantID,
			map[string]interface{}{
				"previous_status": previous.String(),
				"new_status":      target.String(),
				"actor_id":        actor.UserID,
			},
		))
	}

	return updated, nil
}

// StatusOptions returns the statuses reachable from the merchant's current status
func (e *engineImpl) StatusOptions(ctx context.Context, merchantID string) ([]domainwf.State, error) {
	state, err := e.GetCurrentState(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	return domainwf.NextStates(state), nil
}

// GetCurrentState returns the persisted status of a merchant
func (e *engineImpl) GetCurrentState(ctx context.Context, merchantID string) (domainwf.State, error) {
	merchant, err := e.load(ctx, merchantID)
	if err != nil {
		return "", err
	}
	return domainwf.FromStatus(merchant.Status), nil
}
