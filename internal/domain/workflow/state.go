package workflow

import "github.com/garyjia/merchant-onboarding/internal/domain/entity"

// State represents a merchant status in the review lifecycle
type State string

const (
	StatePending    State = State(entity.StatusPending)
	StateProcessing State = State(entity.StatusProcessing)
	StateApproved   State = State(entity.StatusApproved)
	StateRejected   State = State(entity.StatusRejected)
	StateOnboarded  State = State(entity.StatusOnboarded)
)

// FromStatus converts a merchant status into a workflow state
func FromStatus(s entity.Status) State {
	return State(s)
}

// Status converts the state back into a merchant status
func (s State) Status() entity.Status {
	return entity.Status(s)
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return s == StateApproved || s == StateRejected
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid workflow state. It reads no
// package variables so builders may run during package initialization.
func (s State) IsValid() bool {
	switch s {
	case StatePending, StateProcessing, StateApproved, StateRejected, StateOnboarded:
		return true
	}
	return false
}
