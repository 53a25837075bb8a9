package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/bnrm/backoffice/internal/application/port"
	"github.com/bnrm/backoffice/internal/domain/entity"
	"github.com/bnrm/backoffice/internal/domain/workflow"
)

// StepCatalog serves the ordered step catalog of each workflow kind
type StepCatalog interface {
	// LoadSteps returns the catalog ordered by step order. Unknown kinds
	// return an error wrapping workflow.ErrNotFound.
	LoadSteps(ctx context.Context, kind entity.WorkflowKind) ([]entity.Step, error)

	// Invalidate drops the cached catalog of kind
	Invalidate(kind entity.WorkflowKind)
}

type catalogServiceImpl struct {
	source port.StepCatalogSource
	cache  *ttlcache.Cache[entity.WorkflowKind, []entity.Step]
	logger Logger
}

// NewStepCatalog creates a StepCatalog caching source per kind for ttl.
// A zero capacity leaves the cache unbounded.
func NewStepCatalog(source port.StepCatalogSource, ttl time.Duration, capacity int, logger Logger) StepCatalog {
	opts := []ttlcache.Option[entity.WorkflowKind, []entity.Step]{
		ttlcache.WithTTL[entity.WorkflowKind, []entity.Step](ttl),
	}
	if capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[entity.WorkflowKind, []entity.Step](uint64(capacity)))
	}

	return &catalogServiceImpl{
		source: source,
		cache:  ttlcache.New(opts...),
		logger: orNop(logger),
	}
}

// LoadSteps returns the cached catalog or loads it from the source
func (s *catalogServiceImpl) LoadSteps(ctx context.Context, kind entity.WorkflowKind) ([]entity.Step, error) {
	if item := s.cache.Get(kind); item != nil {
		return append([]entity.Step(nil), item.Value()...), nil
	}

	steps, err := s.source.LoadSteps(ctx, kind)
	if err != nil {
		s.logger.Error("Failed to load step catalog", "kind", kind, "error", err)
		return nil, err
	}

	steps = append([]entity.Step(nil), steps...)
	workflow.SortSteps(steps)
	if err := workflow.ValidateCatalog(steps); err != nil {
		s.logger.Error("Rejected step catalog", "kind", kind, "error", err)
		return nil, fmt.Errorf("catalog of %s: %w", kind, err)
	}

	s.cache.Set(kind, steps, ttlcache.DefaultTTL)
	s.logger.Info("Step catalog loaded", "kind", kind, "steps", len(steps))

	return append([]entity.Step(nil), steps...), nil
}

// Invalidate drops the cached catalog of kind
func (s *catalogServiceImpl) Invalidate(kind entity.WorkflowKind) {
	s.cache.Delete(kind)
}
