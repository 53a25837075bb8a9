package event

import "github.com/bnrm/backoffice/internal/domain/entity"

// Type identifies the type of domain event
type Type string

const (
	TypeWorkflowStarted   Type = "workflow.started"
	TypeWorkflowAdvanced  Type = "workflow.advanced"
	TypeWorkflowCompleted Type = "workflow.completed"
	TypeWorkflowRejected  Type = "workflow.rejected"
)

// Progress lists the types emitted when a workflow moves forward
var Progress = []Type{TypeWorkflowStarted, TypeWorkflowAdvanced, TypeWorkflowCompleted}

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeWorkflowStarted,
		TypeWorkflowAdvanced,
		TypeWorkflowCompleted,
		TypeWorkflowRejected:
		return true
	default:
		return false
	}
}

// Classify picks the event type of an answered submission
func Classify(decision entity.Decision, accepted, completed bool) Type {
	switch {
	case !accepted:
		return TypeWorkflowRejected
	case completed:
		return TypeWorkflowCompleted
	case decision == entity.DecisionStart:
		return TypeWorkflowStarted
	default:
		return TypeWorkflowAdvanced
	}
}
