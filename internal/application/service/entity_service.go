package service

import (
	"context"

	"github.com/bnrm/backoffice/internal/application/port"
	"github.com/bnrm/backoffice/internal/domain/entity"
	"github.com/bnrm/backoffice/internal/domain/status"
)

// EntitySummary is one row of an entity list
type EntitySummary struct {
	entity.EntityWorkflowState
	StatusBadge status.Descriptor `json:"status_badge"`
}

// StatusStat is one per-status counter with its badge
type StatusStat struct {
	entity.StatusCount
	StatusBadge status.Descriptor `json:"status_badge"`
}

// EntityService backs the lists and counters repainted after transitions
type EntityService interface {
	GetState(ctx context.Context, kind entity.WorkflowKind, entityID string) (entity.EntityWorkflowState, error)
	List(ctx context.Context, kind entity.WorkflowKind, status string, limit, offset int) ([]EntitySummary, error)
	Stats(ctx context.Context, kind entity.WorkflowKind) ([]StatusStat, error)
}

type entityServiceImpl struct {
	states port.EntityStateReader
	badges *status.Registry
	logger Logger
}

// NewEntityService creates a new EntityService
func NewEntityService(states port.EntityStateReader, badges *status.Registry, logger Logger) EntityService {
	return &entityServiceImpl{
		states: states,
		badges: badges,
		logger: orNop(logger),
	}
}

// GetState returns the state of an entity; never-started entities are ErrNotFound
func (s *entityServiceImpl) GetState(ctx context.Context, kind entity.WorkflowKind, entityID string) (entity.EntityWorkflowState, error) {
	return s.states.GetState(ctx, kind, entityID)
}

// List returns the entities of kind, optionally filtered by status
func (s *entityServiceImpl) List(ctx context.Context, kind entity.WorkflowKind, statusCode string, limit, offset int) ([]EntitySummary, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	states, err := s.states.ListStates(ctx, kind, statusCode, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list entities", "kind", kind, "status", statusCode, "error", err)
		return nil, err
	}

	out := make([]EntitySummary, 0, len(states))
	for _, st := range states {
		out = append(out, EntitySummary{
			EntityWorkflowState: st,
			StatusBadge:         s.badge(kind, st.Status),
		})
	}
	return out, nil
}

// Stats returns one counter per status of kind
func (s *entityServiceImpl) Stats(ctx context.Context, kind entity.WorkflowKind) ([]StatusStat, error) {
	counts, err := s.states.CountByStatus(ctx, kind)
	if err != nil {
		s.logger.Error("Failed to count entities", "kind", kind, "error", err)
		return nil, err
	}

	out := make([]StatusStat, 0, len(counts))
	for _, c := range counts {
		out = append(out, StatusStat{StatusCount: c, StatusBadge: s.badge(kind, c.Status)})
	}
	return out, nil
}

func (s *entityServiceImpl) badge(kind entity.WorkflowKind, code string) status.Descriptor {
	d, err := s.badges.Resolve(string(kind), code)
	if err != nil {
		return status.Fallback(code)
	}
	return d
}
