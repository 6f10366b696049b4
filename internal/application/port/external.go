package port

import (
	"context"
	"errors"
	"time"

	"github.com/garyjia/merchant-onboarding/internal/domain/onboarding"
)

// ErrSessionNotFound is returned for an unknown or expired wizard session
var ErrSessionNotFound = errors.New("onboarding session not found")

// SessionStore keeps live wizard sessions. WithSession serializes all access
// to one session.
type SessionStore interface {
	Save(ctx context.Context, session *onboarding.Session) error
	WithSession(ctx context.Context, id string, fn func(session *onboarding.Session) error) error
	Delete(ctx context.Context, id string) error
	// Sweep drops sessions idle for longer than idle and returns how many were dropped
	Sweep(ctx context.Context, idle time.Duration) int
	Len() int
}

// EventPublisher forwards domain events to a message broker
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
	Close()
}

// RateLimiter decides whether a caller identified by key may proceed
type RateLimiter interface {
	// Allow consumes one unit for key. retryAfter is set when the call is refused.
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}
