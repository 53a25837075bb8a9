package port

import (
	"context"

	"github.com/bnrm/backoffice/internal/domain/entity"
)

// StepRepository defines persistence operations for step catalogs
type StepRepository interface {
	// ReplaceCatalog swaps the whole catalog of a kind
	ReplaceCatalog(ctx context.Context, kind entity.WorkflowKind, steps []entity.Step) error

	// ListByKind returns the catalog ordered by step order
	ListByKind(ctx context.Context, kind entity.WorkflowKind) ([]entity.Step, error)
}

// HistoryRepository defines append-only persistence for TransitionRecord
type HistoryRepository interface {
	Append(ctx context.Context, record *entity.TransitionRecord) error
	ListByEntity(ctx context.Context, kind entity.WorkflowKind, entityID string) ([]entity.TransitionRecord, error)
}

// StateRepository defines persistence operations for EntityWorkflowState
type StateRepository interface {
	// Get returns nil, nil when the entity has no state yet
	Get(ctx context.Context, kind entity.WorkflowKind, entityID string) (*entity.EntityWorkflowState, error)

	// Save inserts the state when expectedVersion is 0, otherwise updates it
	// only if the stored version still equals expectedVersion. state.Version
	// is set to the stored version on success.
	Save(ctx context.Context, state *entity.EntityWorkflowState, expectedVersion int64) error

	// List returns states of kind, newest first. An empty status matches all.
	List(ctx context.Context, kind entity.WorkflowKind, status string, limit, offset int) ([]entity.EntityWorkflowState, error)

	// CountByStatus returns one bucket per stored status
	CountByStatus(ctx context.Context, kind entity.WorkflowKind) ([]entity.StatusCount, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
