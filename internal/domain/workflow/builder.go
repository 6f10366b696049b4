package workflow

import (
	"context"
	"fmt"
)

// GuardFunc decides at fire time whether a transition may be taken
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder collects per-state transitions and stamps out machines
type StateMachineBuilder interface {
	Configure(state State) StateConfiguration

	// Build returns a machine positioned at initialState
	Build(initialState State) (StateMachine, error)
}

// StateConfiguration adds outgoing transitions to one state
type StateConfiguration interface {
	Permit(trigger Trigger, toState State) StateConfiguration
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration
}

type transition struct {
	trigger Trigger
	toState State
	guard   GuardFunc
}

// edges are ordered so PermittedStates is stable
type edges struct {
	from State
	out  []transition
}

type graph map[State]*edges

type stateMachineBuilder struct {
	graph graph
}

type stateMachine struct {
	state State
	graph graph
}

// NewBuilder creates an empty builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{graph: graph{}}
}

// Configure panics on an unknown state; configuration is static program data.
func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("workflow: configure unknown state %q", state))
	}
	if b.graph[state] == nil {
		b.graph[state] = &edges{from: state}
	}
	return b.graph[state]
}

// Build errors on an unknown initial state since persisted records may carry one.
func (b *stateMachineBuilder) Build(initialState State) (StateMachine, error) {
	if !initialState.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidState, initialState)
	}

	g := make(graph, len(b.graph))
	for state, e := range b.graph {
		g[state] = &edges{from: state, out: append([]transition(nil), e.out...)}
	}
	return &stateMachine{state: initialState, graph: g}, nil
}

func (e *edges) Permit(trigger Trigger, toState State) StateConfiguration {
	return e.PermitIf(trigger, toState, nil)
}

func (e *edges) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	switch {
	case !toState.IsValid():
		panic(fmt.Sprintf("workflow: unknown target state %q", toState))
	case toState == e.from:
		panic(fmt.Sprintf("workflow: self transition on %q", toState))
	}
	e.out = append(e.out, transition{trigger: trigger, toState: toState, guard: guard})
	return e
}

func (m *stateMachine) State() State {
	return m.state
}

func (m *stateMachine) current() []transition {
	if e := m.graph[m.state]; e != nil {
		return e.out
	}
	return nil
}

func (m *stateMachine) CanFire(trigger Trigger) bool {
	for _, t := range m.current() {
		if t.trigger == trigger {
			return true
		}
	}
	return false
}

func (m *stateMachine) CanTransitionTo(target State) bool {
	for _, t := range m.current() {
		if t.toState == target {
			return true
		}
	}
	return false
}

func (m *stateMachine) Fire(ctx context.Context, trigger Trigger) error {
	refused := false
	for _, t := range m.current() {
		if t.trigger != trigger {
			continue
		}
		if t.guard != nil && !t.guard(ctx) {
			refused = true
			continue
		}
		m.state = t.toState
		return nil
	}

	if refused {
		return fmt.Errorf("%w: %s in %s", ErrGuardFailed, trigger, m.state)
	}
	return fmt.Errorf("%w: %s in %s", ErrInvalidTransition, trigger, m.state)
}

// TransitionTo fires whichever trigger leads to target
func (m *stateMachine) TransitionTo(ctx context.Context, target State) error {
	trigger, ok := TriggerFor(target)
	if !ok || !m.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, target)
	}
	return m.Fire(ctx, trigger)
}

func (m *stateMachine) PermittedTriggers() []Trigger {
	transitions := m.current()
	triggers := make([]Trigger, 0, len(transitions))
	for _, t := range transitions {
		triggers = append(triggers, t.trigger)
	}
	return triggers
}

// PermittedStates returns the reachable target states in registration order
func (m *stateMachine) PermittedStates() []State {
	transitions := m.current()
	states := make([]State, 0, len(transitions))
	for _, t := range transitions {
		states = append(states, t.toState)
	}
	return states
}
