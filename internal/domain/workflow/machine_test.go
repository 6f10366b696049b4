package workflow

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type ctxKey string

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StatePending, false},
		{StateProcessing, false},
		{StateOnboarded, false},
		{StateApproved, true},
		{StateRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"pending", StatePending, true},
		{"onboarded", StateOnboarded, true},
		{"upper case", State("PENDING"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTriggerFor(t *testing.T) {
	if _, ok := TriggerFor(StatePending); ok {
		t.Error("TriggerFor(pending) should not exist, pending is never a target")
	}
	if got, _ := TriggerFor(StateOnboarded); got != TriggerOnboard {
		t.Errorf("TriggerFor(onboarded) = %v, want %v", got, TriggerOnboard)
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	builder.Configure(State("INVALID"))
}

func TestBuilder_PermitPanicsOnSelfTransition(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic on self transition")
		}
	}()

	builder.Configure(StatePending).Permit(TriggerStartProcessing, StatePending)
}

func TestBuilder_BuildRejectsInvalidInitialState(t *testing.T) {
	_, err := NewBuilder().Build(State("archived"))
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("Build() error = %v, want %v", err, ErrInvalidState)
	}
}

func TestStateConfiguration_PermitIf_GuardFails(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StatePending).
		PermitIf(TriggerApprove, StateApproved, func(ctx context.Context) bool {
			return false
		})

	machine, err := builder.Build(StatePending)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	err = machine.Fire(context.Background(), TriggerApprove)
	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}
	if machine.State() != StatePending {
		t.Errorf("State should remain %v after failed Fire(), got %v", StatePending, machine.State())
	}
}

func TestStateConfiguration_PermitIf_GuardSelectsBranch(t *testing.T) {
	key := ctxKey("fastTrack")
	builder := NewBuilder()
	builder.Configure(StatePending).
		PermitIf(TriggerApprove, StateApproved, func(ctx context.Context) bool {
			return ctx.Value(key) == true
		}).
		PermitIf(TriggerApprove, StateProcessing, func(ctx context.Context) bool {
			return ctx.Value(key) != true
		})

	m1, _ := builder.Build(StatePending)
	if err := m1.Fire(context.WithValue(context.Background(), key, true), TriggerApprove); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if m1.State() != StateApproved {
		t.Errorf("State = %v, want %v", m1.State(), StateApproved)
	}

	m2, _ := builder.Build(StatePending)
	if err := m2.Fire(context.Background(), TriggerApprove); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if m2.State() != StateProcessing {
		t.Errorf("State = %v, want %v", m2.State(), StateProcessing)
	}
}

func TestMerchantStatus_NextStates(t *testing.T) {
	tests := []struct {
		current State
		want    []State
	}{
		{StatePending, []State{StateProcessing, StateApproved, StateRejected, StateOnboarded}},
		{StateProcessing, []State{StateOnboarded, StateApproved, StateRejected}},
		{StateOnboarded, []State{StateApproved, StateRejected}},
		{StateApproved, []State{}},
		{StateRejected, []State{}},
		{State("unknown"), []State{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.current), func(t *testing.T) {
			if got := NextStates(tt.current); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NextStates(%v) = %v, want %v", tt.current, got, tt.want)
			}
		})
	}
}

func TestMerchantStatus_NoBackwardOrSelfTransition(t *testing.T) {
	all := []State{StatePending, StateProcessing, StateApproved, StateRejected, StateOnboarded}
	rank := map[State]int{StatePending: 0, StateProcessing: 1, StateOnboarded: 2, StateApproved: 3, StateRejected: 3}

	for _, from := range all {
		for _, to := range all {
			m, err := NewMerchantStatusMachine(from)
			if err != nil {
				t.Fatalf("NewMerchantStatusMachine(%v) failed: %v", from, err)
			}
			legal := m.CanTransitionTo(to)
			if legal && rank[to] <= rank[from] {
				t.Errorf("%v -> %v should not be legal", from, to)
			}
		}
	}
}

func TestMerchantStatus_TransitionTo(t *testing.T) {
	m, _ := NewMerchantStatusMachine(StatePending)

	if err := m.TransitionTo(context.Background(), StateProcessing); err != nil {
		t.Fatalf("TransitionTo(processing) failed: %v", err)
	}
	if err := m.TransitionTo(context.Background(), StateOnboarded); err != nil {
		t.Fatalf("TransitionTo(onboarded) failed: %v", err)
	}

	err := m.TransitionTo(context.Background(), StateProcessing)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("TransitionTo(processing) error = %v, want %v", err, ErrInvalidTransition)
	}
	if m.State() != StateOnboarded {
		t.Errorf("State = %v, want %v", m.State(), StateOnboarded)
	}

	if err := m.TransitionTo(context.Background(), StateApproved); err != nil {
		t.Fatalf("TransitionTo(approved) failed: %v", err)
	}
	if got := m.PermittedTriggers(); len(got) != 0 {
		t.Errorf("PermittedTriggers() on terminal state = %v, want none", got)
	}
}

func TestStateMachine_Independence(t *testing.T) {
	m1, _ := NewMerchantStatusMachine(StatePending)
	m2, _ := NewMerchantStatusMachine(StatePending)

	if err := m1.Fire(context.Background(), TriggerReject); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}

	if m2.State() != StatePending {
		t.Errorf("m2 state = %v, want %v (machines should be independent)", m2.State(), StatePending)
	}
	if !m2.CanFire(TriggerStartProcessing) {
		t.Error("m2 should still permit START_PROCESSING")
	}
}

// configured while the package initializes, before any test runs
var initConfigured = ConfigureMerchantStatus(NewBuilder())

func TestMerchantStatus_ConfigurableDuringInit(t *testing.T) {
	m, err := initConfigured.Build(StatePending)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := []State{StateProcessing, StateApproved, StateRejected, StateOnboarded}
	if got := m.PermittedStates(); !reflect.DeepEqual(got, want) {
		t.Errorf("PermittedStates() = %v, want %v", got, want)
	}
	if got := NextStates(StatePending); !reflect.DeepEqual(got, want) {
		t.Errorf("NextStates(pending) = %v, want %v", got, want)
	}
}
