package port

import (
	"context"

	"github.com/bnrm/backoffice/internal/domain/entity"
)

// StepCatalogSource reads the ordered step catalog of a workflow kind
type StepCatalogSource interface {
	LoadSteps(ctx context.Context, kind entity.WorkflowKind) ([]entity.Step, error)
}

// HistorySource reads the transitions of an entity, oldest first
type HistorySource interface {
	FetchHistory(ctx context.Context, kind entity.WorkflowKind, entityID string) ([]entity.TransitionRecord, error)
}

// TransitionRequest is a decision submitted for an entity
type TransitionRequest struct {
	Kind     entity.WorkflowKind `json:"kind"`
	EntityID string              `json:"entity_id"`
	Decision entity.Decision     `json:"decision"`
	Comment  *string             `json:"comment"`
	Fields   map[string]string   `json:"fields,omitempty"`
	Actor    string              `json:"actor"`
}

// TransitionSink applies a decision. Domain refusals come back as an
// envelope with Success false; the error is reserved for transport and
// infrastructure failures.
type TransitionSink interface {
	Advance(ctx context.Context, req TransitionRequest) (entity.TransitionResult, error)
}

// EntityStateReader reads entity workflow states for views, lists and counters
type EntityStateReader interface {
	GetState(ctx context.Context, kind entity.WorkflowKind, entityID string) (entity.EntityWorkflowState, error)
	ListStates(ctx context.Context, kind entity.WorkflowKind, status string, limit, offset int) ([]entity.EntityWorkflowState, error)
	CountByStatus(ctx context.Context, kind entity.WorkflowKind) ([]entity.StatusCount, error)
}

// Backend bundles every collaborator the workflow views consume
type Backend interface {
	StepCatalogSource
	HistorySource
	TransitionSink
	EntityStateReader
}
