package workflow

import (
	"context"

	"github.com/bnrm/backoffice/internal/domain/entity"
)

// StateMachine represents a state machine that tracks current state and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// IsTerminal returns true if the current state has no outgoing decisions
	IsTerminal() bool

	// CanFire returns true if the decision is permitted in the current state
	CanFire(decision entity.Decision) bool

	// Fire attempts to apply the decision, transitioning to the new state if allowed
	Fire(ctx context.Context, decision entity.Decision) error

	// PermittedDecisions returns all decisions that can be fired in the current state
	PermittedDecisions() []entity.Decision
}
