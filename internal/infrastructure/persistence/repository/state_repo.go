package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bnrm/backoffice/internal/application/port"
	"github.com/bnrm/backoffice/internal/domain/entity"
	"github.com/bnrm/backoffice/internal/domain/workflow"
	"github.com/bnrm/backoffice/internal/infrastructure/persistence/sqlite"
)

// StateRepository implements port.StateRepository
type StateRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewStateRepository creates a new workflow state repository
func NewStateRepository(db *sql.DB, logger *zap.Logger) port.StateRepository {
	return &StateRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

const stateColumns = `
	workflow_kind, entity_id, current_step_order, current_step_code,
	status, version, updated_at
`

// Get retrieves the state of an entity, nil when it has never started
func (r *StateRepository) Get(ctx context.Context, kind entity.WorkflowKind, entityID string) (*entity.EntityWorkflowState, error) {
	query := `SELECT ` + stateColumns + ` FROM workflow_states WHERE workflow_kind = ? AND entity_id = ?`

	state, err := scanState(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, kind, entityID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get workflow state",
			zap.String("kind", kind.String()),
			zap.String("entity_id", entityID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get workflow state: %w", err)
	}

	return &state, nil
}

// Save inserts or conditionally updates a state
func (r *StateRepository) Save(ctx context.Context, state *entity.EntityWorkflowState, expectedVersion int64) error {
	exec := sqlite.ExecutorFor(ctx, r.db)
	now := r.now().UTC()

	if expectedVersion == 0 {
		query := `
			INSERT INTO workflow_states (
				workflow_kind, entity_id, current_step_order, current_step_code,
				status, version, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, 1, ?, ?)
			ON CONFLICT (workflow_kind, entity_id) DO NOTHING
		`
		result, err := exec.ExecContext(ctx, query,
			state.Kind, state.EntityID, state.CurrentStepOrder, state.CurrentStepCode,
			state.Status, now, now)
		if err != nil {
			r.logger.Error("Failed to insert workflow state", zap.String("entity_id", state.EntityID), zap.Error(err))
			return fmt.Errorf("failed to insert workflow state: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s/%s already started", workflow.ErrVersionConflict, state.Kind, state.EntityID)
		}

		state.Version = 1
		state.UpdatedAt = now
		return nil
	}

	query := `
		UPDATE workflow_states
		SET current_step_order = ?, current_step_code = ?, status = ?,
			version = version + 1, updated_at = ?
		WHERE workflow_kind = ? AND entity_id = ? AND version = ?
	`
	result, err := exec.ExecContext(ctx, query,
		state.CurrentStepOrder, state.CurrentStepCode, state.Status, now,
		state.Kind, state.EntityID, expectedVersion)
	if err != nil {
		r.logger.Error("Failed to update workflow state", zap.String("entity_id", state.EntityID), zap.Error(err))
		return fmt.Errorf("failed to update workflow state: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s expected version %d", workflow.ErrVersionConflict, state.Kind, state.EntityID, expectedVersion)
	}

	state.Version = expectedVersion + 1
	state.UpdatedAt = now
	return nil
}

// List retrieves states with pagination, most recently updated first
func (r *StateRepository) List(ctx context.Context, kind entity.WorkflowKind, status string, limit, offset int) ([]entity.EntityWorkflowState, error) {
	query := `SELECT ` + stateColumns + `
		FROM workflow_states
		WHERE workflow_kind = ? AND (? = '' OR status = ?)
		ORDER BY updated_at DESC, entity_id ASC
		LIMIT ? OFFSET ?
	`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, kind, status, status, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list workflow states", zap.String("kind", kind.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list workflow states: %w", err)
	}
	defer rows.Close()

	states := []entity.EntityWorkflowState{}
	for rows.Next() {
		state, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow state: %w", err)
		}
		states = append(states, state)
	}

	return states, rows.Err()
}

// CountByStatus groups the states of kind by status
func (r *StateRepository) CountByStatus(ctx context.Context, kind entity.WorkflowKind) ([]entity.StatusCount, error) {
	query := `
		SELECT status, COUNT(*)
		FROM workflow_states
		WHERE workflow_kind = ?
		GROUP BY status
		ORDER BY status ASC
	`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, kind)
	if err != nil {
		r.logger.Error("Failed to count workflow states", zap.String("kind", kind.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to count workflow states: %w", err)
	}
	defer rows.Close()

	counts := []entity.StatusCount{}
	for rows.Next() {
		var c entity.StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanState(row rowScanner) (entity.EntityWorkflowState, error) {
	var state entity.EntityWorkflowState
	var code sql.NullString

	err := row.Scan(
		&state.Kind,
		&state.EntityID,
		&state.CurrentStepOrder,
		&code,
		&state.Status,
		&state.Version,
		&state.UpdatedAt,
	)
	if err != nil {
		return entity.EntityWorkflowState{}, err
	}

	if code.Valid {
		c := code.String
		state.CurrentStepCode = &c
	}

	return state, nil
}

// Verify interface compliance
var _ port.StateRepository = (*StateRepository)(nil)
