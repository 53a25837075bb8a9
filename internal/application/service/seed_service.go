package service

import (
	"context"
	"fmt"

	"github.com/bnrm/backoffice/internal/application/port"
	"github.com/bnrm/backoffice/internal/definition"
)

// SeedService writes the step catalogs of the loaded templates to the store
type SeedService interface {
	SeedCatalogs(ctx context.Context) (int, error)
}

type seedServiceImpl struct {
	registry  *definition.Registry
	stepRepo  port.StepRepository
	txManager port.TransactionManager
	catalog   StepCatalog
	logger    Logger
}

// NewSeedService creates a SeedService. catalog may be nil.
func NewSeedService(registry *definition.Registry, stepRepo port.StepRepository, txManager port.TransactionManager, catalog StepCatalog, logger Logger) SeedService {
	return &seedServiceImpl{
		registry:  registry,
		stepRepo:  stepRepo,
		txManager: txManager,
		catalog:   catalog,
		logger:    orNop(logger),
	}
}

// SeedCatalogs replaces every catalog in one transaction and returns the
// number of kinds written
func (s *seedServiceImpl) SeedCatalogs(ctx context.Context) (int, error) {
	kinds := s.registry.Kinds()

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, kind := range kinds {
			tpl, err := s.registry.Get(kind)
			if err != nil {
				return err
			}
			if err := s.stepRepo.ReplaceCatalog(txCtx, kind, tpl.CatalogSteps()); err != nil {
				return fmt.Errorf("seed %s: %w", kind, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to seed step catalogs", "error", err)
		return 0, err
	}

	if s.catalog != nil {
		for _, kind := range kinds {
			s.catalog.Invalidate(kind)
		}
	}

	s.logger.Info("Step catalogs seeded", "kinds", len(kinds))
	return len(kinds), nil
}
