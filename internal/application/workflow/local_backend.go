package workflow

import (
	"context"
	"fmt"

	"github.com/bnrm/backoffice/internal/application/port"
	"github.com/bnrm/backoffice/internal/definition"
	"github.com/bnrm/backoffice/internal/domain/entity"
	domainwf "github.com/bnrm/backoffice/internal/domain/workflow"
)

// LocalBackend serves catalogs, history and states from the local store and
// routes decisions through the transition procedure
type LocalBackend struct {
	registry    *definition.Registry
	stepRepo    port.StepRepository
	historyRepo port.HistoryRepository
	stateRepo   port.StateRepository
	procedure   Procedure
}

var _ port.Backend = (*LocalBackend)(nil)

// NewLocalBackend creates a backend over the SQLite repositories
func NewLocalBackend(
	registry *definition.Registry,
	stepRepo port.StepRepository,
	historyRepo port.HistoryRepository,
	stateRepo port.StateRepository,
	procedure Procedure,
) *LocalBackend {
	return &LocalBackend{
		registry:    registry,
		stepRepo:    stepRepo,
		historyRepo: historyRepo,
		stateRepo:   stateRepo,
		procedure:   procedure,
	}
}

// LoadSteps returns the seeded catalog of kind
func (b *LocalBackend) LoadSteps(ctx context.Context, kind entity.WorkflowKind) ([]entity.Step, error) {
	if _, err := b.registry.Get(kind); err != nil {
		return nil, err
	}

	steps, err := b.stepRepo.ListByKind(ctx, kind)
	if err != nil {
		return nil, &domainwf.TransientFailure{Op: "load steps", Err: err}
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("catalog of %s not seeded: %w", kind, domainwf.ErrNotFound)
	}
	return steps, nil
}

// FetchHistory returns the transitions of an entity, oldest first
func (b *LocalBackend) FetchHistory(ctx context.Context, kind entity.WorkflowKind, entityID string) ([]entity.TransitionRecord, error) {
	if _, err := b.registry.Get(kind); err != nil {
		return nil, err
	}

	records, err := b.historyRepo.ListByEntity(ctx, kind, entityID)
	if err != nil {
		return nil, &domainwf.TransientFailure{Op: "fetch history", Err: err}
	}
	return records, nil
}

// Advance applies a decision through the procedure
func (b *LocalBackend) Advance(ctx context.Context, req port.TransitionRequest) (entity.TransitionResult, error) {
	result, err := b.procedure.Advance(ctx, req)
	if err != nil {
		return entity.TransitionResult{}, &domainwf.TransientFailure{Op: "advance", Err: err}
	}
	return result, nil
}

// GetState returns the state of an entity. Entities that never started are
// reported as ErrNotFound.
func (b *LocalBackend) GetState(ctx context.Context, kind entity.WorkflowKind, entityID string) (entity.EntityWorkflowState, error) {
	if _, err := b.registry.Get(kind); err != nil {
		return entity.EntityWorkflowState{}, err
	}

	state, err := b.stateRepo.Get(ctx, kind, entityID)
	if err != nil {
		return entity.EntityWorkflowState{}, &domainwf.TransientFailure{Op: "get state", Err: err}
	}
	if state == nil {
		return entity.EntityWorkflowState{}, fmt.Errorf("entity %s/%s: %w", kind, entityID, domainwf.ErrNotFound)
	}
	return *state, nil
}

// ListStates returns states of kind filtered by status
func (b *LocalBackend) ListStates(ctx context.Context, kind entity.WorkflowKind, status string, limit, offset int) ([]entity.EntityWorkflowState, error) {
	if _, err := b.registry.Get(kind); err != nil {
		return nil, err
	}

	states, err := b.stateRepo.List(ctx, kind, status, limit, offset)
	if err != nil {
		return nil, &domainwf.TransientFailure{Op: "list states", Err: err}
	}
	return states, nil
}

// CountByStatus returns the per-status counters of kind
func (b *LocalBackend) CountByStatus(ctx context.Context, kind entity.WorkflowKind) ([]entity.StatusCount, error) {
	if _, err := b.registry.Get(kind); err != nil {
		return nil, err
	}

	counts, err := b.stateRepo.CountByStatus(ctx, kind)
	if err != nil {
		return nil, &domainwf.TransientFailure{Op: "count by status", Err: err}
	}
	return counts, nil
}
