package container

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bnrm/backoffice/internal/application/service"
	"github.com/bnrm/backoffice/internal/domain/entity"
)

func newLocalConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "backoffice.db")
	cfg.Export.OutputDir = t.TempDir()
	return cfg
}

func TestNewContainer_Validation(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewContainer(DefaultConfig(), nil)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.Backend.Mode = BackendRemote
	_, err = NewContainer(cfg, zap.NewNop())
	assert.ErrorContains(t, err, "backend.base_url")
}

func TestContainer_LocalLifecycle(t *testing.T) {
	ctx := context.Background()

	c, err := NewContainer(newLocalConfig(t), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(ctx))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(ctx), "second start is refused")

	health := c.Health()
	assert.True(t, health.Overall)
	assert.Equal(t, "disabled", health.Components["notifications"].Message)

	svc := c.Services()
	assert.Nil(t, svc.Notification)
	require.NotNil(t, svc.Seed)

	steps, err := svc.Catalog.LoadSteps(ctx, entity.KindBooking)
	require.NoError(t, err)
	assert.Len(t, steps, 4)

	var succeeded []service.SubmitResult
	view, err := svc.Views.OpenView(ctx, entity.KindBooking, "b-1", service.ViewCallbacks{
		OnSuccess: func(r service.SubmitResult) { succeeded = append(succeeded, r) },
	})
	require.NoError(t, err)
	assert.True(t, view.Stepper().NotStarted)

	res, err := view.Submit(ctx, entity.DecisionStart, nil, nil, "agent@bnrm.ma")
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeAdvanced, res.Outcome)
	assert.Equal(t, "Réception de la demande", res.NextStepName)
	require.Len(t, succeeded, 1)

	current, ok := view.Stepper().Current()
	require.True(t, ok)
	assert.Equal(t, "e01", current.Code)

	stats, err := svc.Entities.Stats(ctx, entity.KindBooking)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "en_cours", stats[0].Status)

	path, err := svc.Export.SaveHistory(ctx, entity.KindBooking, "b-1")
	require.NoError(t, err)
	assert.Equal(t, "booking", filepath.Dir(path))

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close(), "second close is refused")
}

func TestContainer_ReopenKeepsState(t *testing.T) {
	ctx := context.Background()
	cfg := newLocalConfig(t)

	first, err := NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, first.Start(ctx))
	res, err := first.Services().Submitter.Submit(ctx, service.SubmitRequest{
		Kind:     entity.KindBooking,
		EntityID: "b-2",
		Decision: entity.DecisionStart,
		Actor:    "agent@bnrm.ma",
	})
	require.NoError(t, err)
	require.True(t, res.Succeeded())
	require.NoError(t, first.Close())

	second, err := NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, second.Start(ctx), "migrations and seeding are idempotent")
	defer second.Close()

	state, err := second.Services().Entities.GetState(ctx, entity.KindBooking, "b-2")
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentStepOrder)
}

func TestConvertToZapFields(t *testing.T) {
	fields := convertToZapFields("kind", "booking", 42, "skipped", "error", assert.AnError, "dangling")
	require.Len(t, fields, 2)
	assert.Equal(t, "kind", fields[0].Key)
	assert.Equal(t, "error", fields[1].Key)
}
