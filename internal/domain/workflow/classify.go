package workflow

import "github.com/bnrm/backoffice/internal/domain/entity"

// StepState is the display classification of a catalog step
type StepState string

const (
	StepCompleted StepState = "completed"
	StepCurrent   StepState = "current"
	StepPending   StepState = "pending"
)

// Classify places a step of the given order against the entity state.
// Exactly one classification is returned for every order; nothing is
// current before the workflow has started.
func Classify(order int, state entity.EntityWorkflowState) StepState {
	if state.NotStarted() {
		return StepPending
	}

	switch {
	case order < state.CurrentStepOrder:
		return StepCompleted
	case order == state.CurrentStepOrder:
		return StepCurrent
	default:
		return StepPending
	}
}
