package entity

import "time"

// EntityWorkflowState is the server-owned position of an entity in its workflow.
// A nil CurrentStepCode means the workflow has not started.
type EntityWorkflowState struct {
	EntityID         string       `json:"entity_id"`
	Kind             WorkflowKind `json:"kind"`
	CurrentStepOrder int          `json:"current_step_order"`
	CurrentStepCode  *string      `json:"current_step_code"`
	Status           string       `json:"status"`
	Version          int64        `json:"version"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// NotStarted reports whether no transition has been accepted yet
func (s EntityWorkflowState) NotStarted() bool {
	return s.CurrentStepCode == nil
}

// StepCode returns the current step code, or "" when not started
func (s EntityWorkflowState) StepCode() string {
	if s.CurrentStepCode == nil {
		return ""
	}
	return *s.CurrentStepCode
}

// NewNotStartedState returns the implicit state of an entity without history
func NewNotStartedState(kind WorkflowKind, entityID string) EntityWorkflowState {
	return EntityWorkflowState{
		EntityID: entityID,
		Kind:     kind,
	}
}

// TransitionResult is the envelope returned by the transition procedure
type TransitionResult struct {
	Success           bool   `json:"success"`
	NextStepName      string `json:"next_step_name,omitempty"`
	WorkflowCompleted bool   `json:"workflow_completed"`
	ErrorMessage      string `json:"error_message,omitempty"`
}

// StatusCount is one bucket of the per-status counters
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}
