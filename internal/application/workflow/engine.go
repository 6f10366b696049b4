package workflow

import (
	"context"

	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
	domainwf "github.com/garyjia/merchant-onboarding/internal/domain/workflow"
)

// StatusEngine applies merchant review transitions
type StatusEngine interface {
	// TransitionStatus moves a merchant to target, recording history in the
	// same transaction as the status write.
	TransitionStatus(ctx context.Context, merchantID string, target domainwf.State, actor entity.Actor) (*entity.Merchant, error)

	// StatusOptions returns the statuses offered for the merchant's current status
	StatusOptions(ctx context.Context, merchantID string) ([]domainwf.State, error)

	// GetCurrentState returns the persisted status of a merchant
	GetCurrentState(ctx context.Context, merchantID string) (domainwf.State, error)
}
