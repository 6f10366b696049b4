// Package optimistic applies a value change immediately and restores the
// previous value when the backing write fails. A rollback only restores the
// snapshot while the value still holds what the update assigned, so a later
// change that landed in the meantime is kept.
package optimistic

import (
	"context"
	"sync"
)

// Update is one in-flight optimistic change of a value guarded by mu
type Update[T comparable] struct {
	mu       sync.Locker
	target   *T
	previous T
	next     T
	done     bool
}

// Begin snapshots *target and assigns next under mu
func Begin[T comparable](mu sync.Locker, target *T, next T) *Update[T] {
	mu.Lock()
	defer mu.Unlock()

	u := &Update[T]{mu: mu, target: target, previous: *target, next: next}
	*target = next
	return u
}

// Previous returns the value seen before the update began
func (u *Update[T]) Previous() T {
	return u.previous
}

// Rollback restores the snapshot and reports whether it did. Calling it after
// Commit or a previous Rollback does nothing, as does a target that no longer
// holds the value this update assigned.
func (u *Update[T]) Rollback() bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.done {
		return false
	}
	u.done = true
	if *u.target != u.next {
		return false
	}
	*u.target = u.previous
	return true
}

// Commit marks the update as persisted
func (u *Update[T]) Commit() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.done = true
}

// Apply runs the whole cycle: assign next, call persist, restore the prior
// value if persist fails. The persist error is returned unchanged.
func Apply[T comparable](ctx context.Context, mu sync.Locker, target *T, next T, persist func(ctx context.Context) error) error {
	u := Begin(mu, target, next)
	if err := persist(ctx); err != nil {
		u.Rollback()
		return err
	}
	u.Commit()
	return nil
}
