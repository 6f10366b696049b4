// Package workflow holds the merchant review state machine: which status a
// record may move to from the one it is in.
package workflow

import (
	"context"
	"errors"
)

var (
	// ErrInvalidTransition rejects a move the adjacency does not allow
	ErrInvalidTransition = errors.New("status transition not allowed")

	// ErrInvalidState rejects a status outside the review lifecycle
	ErrInvalidState = errors.New("unknown merchant status")

	// ErrGuardFailed is returned when every matching transition's guard refused
	ErrGuardFailed = errors.New("transition guard refused")
)

// StateMachine tracks one record's state and the moves open to it
type StateMachine interface {
	State() State

	CanFire(trigger Trigger) bool
	CanTransitionTo(target State) bool

	// Fire moves along the first transition for trigger whose guard passes
	Fire(ctx context.Context, trigger Trigger) error

	// TransitionTo moves directly to target when one step away
	TransitionTo(ctx context.Context, target State) error

	PermittedTriggers() []Trigger

	// PermittedStates lists the next states in registration order
	PermittedStates() []State
}
