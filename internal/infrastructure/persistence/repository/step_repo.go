package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/bnrm/backoffice/internal/application/port"
	"github.com/bnrm/backoffice/internal/domain/entity"
	"github.com/bnrm/backoffice/internal/infrastructure/persistence/sqlite"
)

// StepRepository implements port.StepRepository
type StepRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStepRepository creates a new step catalog repository
func NewStepRepository(db *sql.DB, logger *zap.Logger) port.StepRepository {
	return &StepRepository{
		db:     db,
		logger: logger,
	}
}

// ReplaceCatalog deletes the catalog of kind and inserts steps.
// Callers wanting atomicity run it inside WithTransaction.
func (r *StepRepository) ReplaceCatalog(ctx context.Context, kind entity.WorkflowKind, steps []entity.Step) error {
	exec := sqlite.ExecutorFor(ctx, r.db)

	if _, err := exec.ExecContext(ctx, `DELETE FROM workflow_steps WHERE workflow_kind = ?`, kind); err != nil {
		r.logger.Error("Failed to clear step catalog", zap.String("kind", kind.String()), zap.Error(err))
		return fmt.Errorf("failed to clear step catalog: %w", err)
	}

	query := `
		INSERT INTO workflow_steps (
			workflow_kind, step_order, code, name, responsible_role, description
		) VALUES (?, ?, ?, ?, ?, ?)
	`
	for _, step := range steps {
		_, err := exec.ExecContext(ctx, query,
			kind,
			step.Order,
			step.Code,
			step.Name,
			step.ResponsibleRole,
			step.Description,
		)
		if err != nil {
			r.logger.Error("Failed to insert step",
				zap.String("kind", kind.String()),
				zap.String("code", step.Code),
				zap.Error(err))
			return fmt.Errorf("failed to insert step %s: %w", step.Code, err)
		}
	}

	return nil
}

// ListByKind returns the catalog ordered by step order
func (r *StepRepository) ListByKind(ctx context.Context, kind entity.WorkflowKind) ([]entity.Step, error) {
	query := `
		SELECT step_order, code, name, responsible_role, description
		FROM workflow_steps
		WHERE workflow_kind = ?
		ORDER BY step_order ASC
	`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, kind)
	if err != nil {
		r.logger.Error("Failed to list steps", zap.String("kind", kind.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	defer rows.Close()

	steps := []entity.Step{}
	for rows.Next() {
		var step entity.Step
		if err := rows.Scan(
			&step.Order,
			&step.Code,
			&step.Name,
			&step.ResponsibleRole,
			&step.Description,
		); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		steps = append(steps, step)
	}

	return steps, rows.Err()
}

// Verify interface compliance
var _ port.StepRepository = (*StepRepository)(nil)
