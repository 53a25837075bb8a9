package entity

import "time"

// TransitionRecord is the audit trail entry written for every accepted decision.
// Records are append-only.
type TransitionRecord struct {
	ID        int64             `json:"id"`
	Kind      WorkflowKind      `json:"kind"`
	EntityID  string            `json:"entity_id"`
	StepCode  string            `json:"step_code,omitempty"`
	StepName  string            `json:"step_name"`
	Decision  Decision          `json:"decision"`
	Comment   *string           `json:"comment"`
	Fields    map[string]string `json:"fields,omitempty"`
	Actor     string            `json:"actor"`
	Timestamp time.Time         `json:"timestamp"`
}
