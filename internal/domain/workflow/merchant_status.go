package workflow

import "sync"

// ConfigureMerchantStatus registers the merchant review adjacency. The graph
// never returns to an earlier stage; approved and rejected are terminal.
func ConfigureMerchantStatus(b StateMachineBuilder) StateMachineBuilder {
	b.Configure(StatePending).
		Permit(TriggerStartProcessing, StateProcessing).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerOnboard, StateOnboarded)

	b.Configure(StateProcessing).
		Permit(TriggerOnboard, StateOnboarded).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected)

	b.Configure(StateOnboarded).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected)

	b.Configure(StateApproved)
	b.Configure(StateRejected)

	return b
}

var merchantStatusBuilder = sync.OnceValue(func() StateMachineBuilder {
	return ConfigureMerchantStatus(NewBuilder())
})

// NewMerchantStatusMachine builds a review state machine positioned at initial
func NewMerchantStatusMachine(initial State) (StateMachine, error) {
	return merchantStatusBuilder().Build(initial)
}

// NextStates returns the statuses offered for a record in the given state.
// Unknown states offer nothing.
func NextStates(current State) []State {
	m, err := NewMerchantStatusMachine(current)
	if err != nil {
		return []State{}
	}
	return m.PermittedStates()
}
