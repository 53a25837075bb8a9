package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/bnrm/backoffice/internal/application/port"
	"github.com/bnrm/backoffice/internal/domain/entity"
	"github.com/bnrm/backoffice/internal/infrastructure/persistence/sqlite"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Append writes a new history record. Rows are never updated.
func (r *HistoryRepository) Append(ctx context.Context, record *entity.TransitionRecord) error {
	query := `
		INSERT INTO workflow_history (
			workflow_kind, entity_id, step_code, step_name,
			decision, comment, fields, actor, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var fields sql.NullString
	if len(record.Fields) > 0 {
		raw, err := json.Marshal(record.Fields)
		if err != nil {
			return fmt.Errorf("failed to encode fields: %w", err)
		}
		fields = sql.NullString{String: string(raw), Valid: true}
	}

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		record.Kind,
		record.EntityID,
		record.StepCode,
		record.StepName,
		record.Decision,
		record.Comment,
		fields,
		record.Actor,
		record.Timestamp.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to append history record",
			zap.String("kind", record.Kind.String()),
			zap.String("entity_id", record.EntityID),
			zap.Error(err))
		return fmt.Errorf("failed to append history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	record.ID = id
	return nil
}

// ListByEntity returns the records of an entity, oldest first.
// An entity without history yields an empty slice.
func (r *HistoryRepository) ListByEntity(ctx context.Context, kind entity.WorkflowKind, entityID string) ([]entity.TransitionRecord, error) {
	query := `
		SELECT id, workflow_kind, entity_id, step_code, step_name,
			decision, comment, fields, actor, created_at
		FROM workflow_history
		WHERE workflow_kind = ? AND entity_id = ?
		ORDER BY id ASC
	`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, kind, entityID)
	if err != nil {
		r.logger.Error("Failed to list history",
			zap.String("kind", kind.String()),
			zap.String("entity_id", entityID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	records := []entity.TransitionRecord{}
	for rows.Next() {
		var record entity.TransitionRecord
		var comment, fields sql.NullString

		if err := rows.Scan(
			&record.ID,
			&record.Kind,
			&record.EntityID,
			&record.StepCode,
			&record.StepName,
			&record.Decision,
			&comment,
			&fields,
			&record.Actor,
			&record.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}

		if comment.Valid {
			c := comment.String
			record.Comment = &c
		}
		if fields.Valid && fields.String != "" {
			if err := json.Unmarshal([]byte(fields.String), &record.Fields); err != nil {
				return nil, fmt.Errorf("failed to decode fields of record %d: %w", record.ID, err)
			}
		}

		records = append(records, record)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
