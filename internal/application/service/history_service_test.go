package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnrm/backoffice/internal/domain/entity"
)

func TestHistoryReader_Fetch(t *testing.T) {
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	t.Run("orders oldest first", func(t *testing.T) {
		backend := &mockBackend{
			fetchHistoryFunc: func(ctx context.Context, kind entity.WorkflowKind, entityID string) ([]entity.TransitionRecord, error) {
				return []entity.TransitionRecord{
					{ID: 2, StepName: "Étude technique", Timestamp: base.Add(time.Hour)},
					{ID: 1, StepName: entity.StartStepName, Timestamp: base},
				}, nil
			},
		}

		records, err := NewHistoryReader(backend, nil).Fetch(context.Background(), entity.KindBooking, "b-1")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, int64(1), records[0].ID)
		assert.Equal(t, int64(2), records[1].ID)
	})

	t.Run("empty history is an empty slice", func(t *testing.T) {
		backend := &mockBackend{
			fetchHistoryFunc: func(ctx context.Context, kind entity.WorkflowKind, entityID string) ([]entity.TransitionRecord, error) {
				return nil, nil
			},
		}

		records, err := NewHistoryReader(backend, nil).Fetch(context.Background(), entity.KindBooking, "b-1")
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("propagates source errors", func(t *testing.T) {
		logger := &mockLogger{}
		backend := &mockBackend{
			fetchHistoryFunc: func(ctx context.Context, kind entity.WorkflowKind, entityID string) ([]entity.TransitionRecord, error) {
				return nil, errors.New("connection reset")
			},
		}

		_, err := NewHistoryReader(backend, logger).Fetch(context.Background(), entity.KindBooking, "b-1")
		assert.Error(t, err)
		assert.Equal(t, 1, logger.ErrorCount())
	})
}
