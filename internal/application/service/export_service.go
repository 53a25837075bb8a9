package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bnrm/backoffice/internal/application/port"
	"github.com/bnrm/backoffice/internal/domain/entity"
	"github.com/bnrm/backoffice/internal/domain/workflow"
)

// ExportService renders the history of an entity as a spreadsheet
type ExportService interface {
	// ExportHistory returns the workbook bytes and a suggested file name
	ExportHistory(ctx context.Context, kind entity.WorkflowKind, entityID string) ([]byte, string, error)

	// SaveHistory writes the workbook to storage and returns its full path
	SaveHistory(ctx context.Context, kind entity.WorkflowKind, entityID string) (string, error)
}

type exportServiceImpl struct {
	views    ViewService
	exporter port.HistoryExporter
	storage  port.FileStorage
	logger   Logger
	now      func() time.Time
}

// NewExportService creates a new ExportService. storage may be nil when only
// ExportHistory is used.
func NewExportService(views ViewService, exporter port.HistoryExporter, storage port.FileStorage, logger Logger) ExportService {
	return &exportServiceImpl{
		views:    views,
		exporter: exporter,
		storage:  storage,
		logger:   orNop(logger),
		now:      time.Now,
	}
}

// ExportHistory renders the stepper of an entity
func (s *exportServiceImpl) ExportHistory(ctx context.Context, kind entity.WorkflowKind, entityID string) ([]byte, string, error) {
	view, err := s.views.OpenView(ctx, kind, entityID, ViewCallbacks{})
	if err != nil {
		return nil, "", err
	}
	defer view.Close()

	if view.Placeholder() {
		return nil, "", fmt.Errorf("export %s/%s: catalog: %w", kind, entityID, workflow.ErrNotFound)
	}

	title := fmt.Sprintf("%s %s", kind, entityID)
	data, err := s.exporter.ExportHistory(title, view.Stepper())
	if err != nil {
		s.logger.Error("Failed to render history workbook", "kind", kind, "entity_id", entityID, "error", err)
		return nil, "", fmt.Errorf("render workbook: %w", err)
	}

	name := fmt.Sprintf("historique_%s_%s_%s.xlsx", kind, sanitizeName(entityID), s.now().Format("20060102"))
	return data, name, nil
}

// SaveHistory renders and stores the workbook under <kind>/
func (s *exportServiceImpl) SaveHistory(ctx context.Context, kind entity.WorkflowKind, entityID string) (string, error) {
	if s.storage == nil {
		return "", fmt.Errorf("export storage not configured")
	}

	data, name, err := s.ExportHistory(ctx, kind, entityID)
	if err != nil {
		return "", err
	}

	path := filepath.Join(string(kind), name)
	if err := s.storage.Save(ctx, path, data); err != nil {
		s.logger.Error("Failed to save history workbook", "path", path, "error", err)
		return "", fmt.Errorf("save workbook: %w", err)
	}

	full := s.storage.GetFullPath(path)
	s.logger.Info("History workbook saved", "kind", kind, "entity_id", entityID, "path", full, "bytes", len(data))
	return full, nil
}

func sanitizeName(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
