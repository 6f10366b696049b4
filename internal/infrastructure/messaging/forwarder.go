package messaging

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/merchant-onboarding/internal/application/port"
	"github.com/garyjia/merchant-onboarding/internal/domain/event"
)

// Forwarder relays dispatched domain events to a broker exchange
type Forwarder struct {
	publisher port.EventPublisher
	exchange  string
	logger    *zap.Logger
}

// NewForwarder creates a forwarder publishing to exchange
func NewForwarder(publisher port.EventPublisher, exchange string, logger *zap.Logger) *Forwarder {
	return &Forwarder{
		publisher: publisher,
		exchange:  exchange,
		logger:    logger,
	}
}

// Handle publishes evt under its routing key. It has the dispatcher handler signature.
func (f *Forwarder) Handle(ctx context.Context, evt *event.Event) error {
	if err := f.publisher.Publish(ctx, f.exchange, evt.RoutingKey(), evt); err != nil {
		f.logger.Error("Failed to forward event",
			zap.String("event_id", evt.ID),
			zap.String("type", evt.Type.String()),
			zap.Error(err))
		return fmt.Errorf("failed to forward event %s: %w", evt.ID, err)
	}
	return nil
}
