package service

import (
	"context"
	"sort"

	"github.com/bnrm/backoffice/internal/application/port"
	"github.com/bnrm/backoffice/internal/domain/entity"
)

// HistoryReader reads the transitions of an entity
type HistoryReader interface {
	// Fetch returns the records oldest first; an entity without history
	// yields an empty slice
	Fetch(ctx context.Context, kind entity.WorkflowKind, entityID string) ([]entity.TransitionRecord, error)
}

type historyServiceImpl struct {
	source port.HistorySource
	logger Logger
}

// NewHistoryReader creates a HistoryReader over source
func NewHistoryReader(source port.HistorySource, logger Logger) HistoryReader {
	return &historyServiceImpl{source: source, logger: orNop(logger)}
}

// Fetch returns the transition records of an entity, oldest first
func (s *historyServiceImpl) Fetch(ctx context.Context, kind entity.WorkflowKind, entityID string) ([]entity.TransitionRecord, error) {
	records, err := s.source.FetchHistory(ctx, kind, entityID)
	if err != nil {
		s.logger.Error("Failed to fetch history", "kind", kind, "entity_id", entityID, "error", err)
		return nil, err
	}

	out := make([]entity.TransitionRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	return out, nil
}
