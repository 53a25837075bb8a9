package workflow

import (
	"context"
	"fmt"
	"sort"

	"github.com/bnrm/backoffice/internal/domain/entity"
)

// GuardFunc is a function that evaluates whether a transition should be allowed
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder builds a configured state machine
type StateMachineBuilder interface {
	// Configure returns a state configuration for the given state
	Configure(state State) StateConfiguration

	// Terminal declares a state without outgoing decisions
	Terminal(state State) StateMachineBuilder

	// Build creates a new state machine instance with the given initial state
	Build(initialState State) (StateMachine, error)
}

// StateConfiguration configures transitions for a specific state
type StateConfiguration interface {
	// Permit allows a decision to transition to the target state
	Permit(decision entity.Decision, toState State) StateConfiguration

	// PermitIf allows a decision to transition to the target state if the guard condition passes
	PermitIf(decision entity.Decision, toState State, guard GuardFunc) StateConfiguration
}

// transition represents a state transition with optional guard
type transition struct {
	toState State
	guard   GuardFunc
}

// stateConfig implements StateConfiguration
type stateConfig struct {
	builder     *stateMachineBuilder
	fromState   State
	transitions map[entity.Decision][]transition
}

// stateMachineBuilder implements StateMachineBuilder
type stateMachineBuilder struct {
	configurations map[State]*stateConfig
	known          map[State]bool
}

// stateMachine implements StateMachine
type stateMachine struct {
	currentState   State
	configurations map[State]*stateConfig
}

// NewBuilder creates a new state machine builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{
		configurations: make(map[State]*stateConfig),
		known:          make(map[State]bool),
	}
}

// Configure returns a state configuration for the given state
func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	config, exists := b.configurations[state]
	if !exists {
		config = &stateConfig{
			builder:     b,
			fromState:   state,
			transitions: make(map[entity.Decision][]transition),
		}
		b.configurations[state] = config
		b.known[state] = true
	}

	return config
}

// Terminal declares a state without outgoing decisions
func (b *stateMachineBuilder) Terminal(state State) StateMachineBuilder {
	if _, configured := b.configurations[state]; configured {
		panic(fmt.Sprintf("terminal state %s already has transitions", state))
	}
	b.known[state] = true
	return b
}

// Build creates a new state machine instance with the given initial state.
// The initial state must be configured, declared terminal, or a transition target.
func (b *stateMachineBuilder) Build(initialState State) (StateMachine, error) {
	if !b.known[initialState] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, initialState)
	}

	// Deep copy configurations to ensure immutability
	configsCopy := make(map[State]*stateConfig)
	for state, config := range b.configurations {
		transitionsCopy := make(map[entity.Decision][]transition)
		for decision, transitions := range config.transitions {
			transitionsCopy[decision] = append([]transition{}, transitions...)
		}
		configsCopy[state] = &stateConfig{
			fromState:   state,
			transitions: transitionsCopy,
		}
	}

	return &stateMachine{
		currentState:   initialState,
		configurations: configsCopy,
	}, nil
}

// Permit allows a decision to transition to the target state
func (c *stateConfig) Permit(decision entity.Decision, toState State) StateConfiguration {
	return c.PermitIf(decision, toState, nil)
}

// PermitIf allows a decision to transition to the target state if the guard condition passes
func (c *stateConfig) PermitIf(decision entity.Decision, toState State, guard GuardFunc) StateConfiguration {
	if toState == StateNotStarted {
		panic(fmt.Sprintf("invalid target state for %s: workflows cannot return to not started", decision))
	}

	c.transitions[decision] = append(c.transitions[decision], transition{
		toState: toState,
		guard:   guard,
	})
	c.builder.known[toState] = true

	return c
}

// State returns the current state
func (m *stateMachine) State() State {
	return m.currentState
}

// IsTerminal returns true if the current state has no outgoing decisions
func (m *stateMachine) IsTerminal() bool {
	config, exists := m.configurations[m.currentState]
	return !exists || len(config.transitions) == 0
}

// CanFire returns true if the decision is permitted in the current state.
// Guards are not evaluated.
func (m *stateMachine) CanFire(decision entity.Decision) bool {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return false
	}

	transitions, exists := config.transitions[decision]
	return exists && len(transitions) > 0
}

// Fire attempts to apply the decision, transitioning to the new state if allowed
func (m *stateMachine) Fire(ctx context.Context, decision entity.Decision) error {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return fmt.Errorf("%w: cannot apply %s from state %s (no configuration)", ErrInvalidTransition, decision, m.currentState)
	}

	transitions, exists := config.transitions[decision]
	if !exists || len(transitions) == 0 {
		return fmt.Errorf("%w: cannot apply %s from state %s", ErrInvalidTransition, decision, m.currentState)
	}

	// First transition whose guard passes wins
	for _, t := range transitions {
		if t.guard == nil || t.guard(ctx) {
			m.currentState = t.toState
			return nil
		}
	}

	return fmt.Errorf("%w: %s from state %s", ErrGuardFailed, decision, m.currentState)
}

// PermittedDecisions returns all decisions that can be fired in the current state, sorted
func (m *stateMachine) PermittedDecisions() []entity.Decision {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return []entity.Decision{}
	}

	decisions := make([]entity.Decision, 0, len(config.transitions))
	for decision := range config.transitions {
		decisions = append(decisions, decision)
	}
	sort.Slice(decisions, func(i, j int) bool { return decisions[i] < decisions[j] })

	return decisions
}
