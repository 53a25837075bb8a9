package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/bnrm/backoffice/internal/domain/entity"
)

// Transition is what a workflow event reports about the decision taken
type Transition struct {
	Decision entity.Decision `json:"decision"`
	Actor    string          `json:"actor"`
	Comment  string          `json:"comment,omitempty"`
	NextStep string          `json:"next_step,omitempty"`

	// Message is the refusal text of a rejected transition
	Message string `json:"message,omitempty"`
}

// Event is published once per answered submission
type Event struct {
	ID            string              `json:"id"`
	Type          Type                `json:"type"`
	Kind          entity.WorkflowKind `json:"kind"`
	EntityID      string              `json:"entity_id"`
	Transition    Transition          `json:"transition"`
	OccurredAt    time.Time           `json:"occurred_at"`
	CorrelationID string              `json:"correlation_id"`
}

// New creates an event with a fresh ID that starts its own correlation chain
func New(t Type, kind entity.WorkflowKind, entityID string, tr Transition) *Event {
	id := uuid.NewString()
	return &Event{
		ID:            id,
		Type:          t,
		Kind:          kind,
		EntityID:      entityID,
		Transition:    tr,
		OccurredAt:    time.Now().UTC(),
		CorrelationID: id,
	}
}

// WithCorrelation returns a copy of e linked to correlationID. Empty ids
// leave the event unchanged.
func (e *Event) WithCorrelation(correlationID string) *Event {
	if correlationID == "" {
		return e
	}
	copied := *e
	copied.CorrelationID = correlationID
	return &copied
}

// Key identifies the entity the event belongs to
func (e *Event) Key() string {
	return string(e.Kind) + "/" + e.EntityID
}
