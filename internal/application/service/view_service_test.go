package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnrm/backoffice/internal/application/port"
	"github.com/bnrm/backoffice/internal/domain/entity"
	"github.com/bnrm/backoffice/internal/domain/status"
	"github.com/bnrm/backoffice/internal/domain/workflow"
)

// fakeStore is a minimal server: it holds one state and applies validate decisions
type fakeStore struct {
	mu      sync.Mutex
	state   *entity.EntityWorkflowState
	history []entity.TransitionRecord
}

func (f *fakeStore) backend(t *testing.T, steps []entity.Step) *mockBackend {
	return &mockBackend{
		loadStepsFunc: func(ctx context.Context, kind entity.WorkflowKind) ([]entity.Step, error) {
			return steps, nil
		},
		getStateFunc: func(ctx context.Context, kind entity.WorkflowKind, entityID string) (entity.EntityWorkflowState, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.state == nil {
				return entity.EntityWorkflowState{}, workflow.ErrNotFound
			}
			return *f.state, nil
		},
		fetchHistoryFunc: func(ctx context.Context, kind entity.WorkflowKind, entityID string) ([]entity.TransitionRecord, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			return append([]entity.TransitionRecord{}, f.history...), nil
		},
		advanceFunc: func(ctx context.Context, req port.TransitionRequest) (entity.TransitionResult, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			from := 0
			name := entity.StartStepName
			if f.state != nil {
				from = f.state.CurrentStepOrder
				name = steps[from-1].Name
			}
			if from >= len(steps) {
				return entity.TransitionResult{Success: true, NextStepName: "Dossier clôturé", WorkflowCompleted: true}, nil
			}
			next := steps[from]
			code := next.Code
			f.state = &entity.EntityWorkflowState{
				Kind: req.Kind, EntityID: req.EntityID,
				CurrentStepOrder: next.Order, CurrentStepCode: &code, Status: "en_cours",
			}
			f.history = append(f.history, entity.TransitionRecord{
				StepName: name, Decision: req.Decision, Actor: req.Actor, Timestamp: time.Now(),
			})
			return entity.TransitionResult{Success: true, NextStepName: next.Name}, nil
		},
	}
}

func newViewService(t *testing.T, backend *mockBackend) ViewService {
	t.Helper()
	actions := NewActionResolver(loadRegistry(t))
	return NewViewService(
		NewStepCatalog(backend, time.Minute, 0, nil),
		NewHistoryReader(backend, nil),
		backend,
		actions,
		NewTransitionSubmitter(actions, backend, nil),
		status.DefaultRegistry(),
		&mockLogger{},
	)
}

func bookingSteps(t *testing.T) []entity.Step {
	tpl, err := loadRegistry(t).Get(entity.KindBooking)
	require.NoError(t, err)
	return tpl.CatalogSteps()
}

func TestViewService_ClassifiesAgainstState(t *testing.T) {
	steps := []entity.Step{
		{Order: 1, Code: "e01", Name: "Réception"},
		{Order: 2, Code: "e02", Name: "Étude"},
		{Order: 3, Code: "e03", Name: "Validation"},
	}
	store := &fakeStore{state: &entity.EntityWorkflowState{
		Kind: entity.KindBooking, EntityID: "b-1",
		CurrentStepOrder: 2, CurrentStepCode: strPtr("e02"), Status: "en_etude",
	}}

	view, err := newViewService(t, store.backend(t, steps)).OpenView(context.Background(), entity.KindBooking, "b-1", ViewCallbacks{})
	require.NoError(t, err)
	defer view.Close()

	stepper := view.Stepper()
	require.Len(t, stepper.Steps, 3)
	assert.Equal(t, workflow.StepCompleted, stepper.Steps[0].State)
	assert.Equal(t, workflow.CompletedBadge, stepper.Steps[0].Badge)
	assert.Equal(t, workflow.StepCurrent, stepper.Steps[1].State)
	assert.Equal(t, workflow.StepPending, stepper.Steps[2].State)

	snap := view.Snapshot()
	assert.Equal(t, "en_etude", snap.Status)
	assert.NotEqual(t, "en_etude", snap.StatusBadge.Label, "known status has a label")
	for _, s := range snap.Stepper.Steps {
		assert.Nil(t, s.Record, "empty history adds no annotation")
	}
}

func TestViewService_NotStarted(t *testing.T) {
	store := &fakeStore{}
	view, err := newViewService(t, store.backend(t, bookingSteps(t))).OpenView(context.Background(), entity.KindBooking, "b-new", ViewCallbacks{})
	require.NoError(t, err)
	defer view.Close()

	stepper := view.Stepper()
	assert.True(t, stepper.NotStarted)
	_, hasCurrent := stepper.Current()
	assert.False(t, hasCurrent)

	actions := view.Actions()
	require.Len(t, actions, 1)
	assert.Equal(t, entity.DecisionStart, actions[0].Decision)
	assert.Equal(t, "Non démarré", view.Snapshot().StatusBadge.Label)
}

func TestViewService_SubmitRoundTrip(t *testing.T) {
	store := &fakeStore{}
	var successes []SubmitResult
	view, err := newViewService(t, store.backend(t, bookingSteps(t))).OpenView(context.Background(), entity.KindBooking, "b-1", ViewCallbacks{
		OnSuccess: func(r SubmitResult) { successes = append(successes, r) },
	})
	require.NoError(t, err)
	defer view.Close()

	res, err := view.Submit(context.Background(), entity.DecisionStart, nil, nil, "agent")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvanced, res.Outcome)

	res, err = view.Submit(context.Background(), entity.DecisionValidate, nil, nil, "agent")
	require.NoError(t, err)
	require.Equal(t, "Étude technique", res.NextStepName)

	current, ok := view.Stepper().Current()
	require.True(t, ok)
	assert.Equal(t, res.NextStepName, current.Name)
	assert.Len(t, successes, 2)

	first := view.Stepper().Steps[0]
	require.NotNil(t, first.Record)
	assert.Equal(t, entity.DecisionValidate, first.Record.Decision)
}

func TestViewService_RejectionLeavesStateUnchanged(t *testing.T) {
	store := &fakeStore{state: &entity.EntityWorkflowState{
		Kind: entity.KindBooking, EntityID: "b-1",
		CurrentStepOrder: 2, CurrentStepCode: strPtr("e02"), Status: "en_etude",
	}}
	backend := store.backend(t, bookingSteps(t))
	backend.advanceFunc = func(ctx context.Context, req port.TransitionRequest) (entity.TransitionResult, error) {
		return entity.TransitionResult{Success: false, ErrorMessage: "étape invalide"}, nil
	}
	var successCalls int
	view, err := newViewService(t, backend).OpenView(context.Background(), entity.KindBooking, "b-1", ViewCallbacks{
		OnSuccess: func(SubmitResult) { successCalls++ },
	})
	require.NoError(t, err)
	defer view.Close()

	res, err := view.Submit(context.Background(), entity.DecisionValidate, nil, nil, "agent")
	require.NoError(t, err)
	assert.Equal(t, "étape invalide", res.Notice)
	assert.Equal(t, 2, view.State().CurrentStepOrder)
	assert.False(t, view.Closed())
	assert.Zero(t, successCalls)
}

func TestViewService_CompletionClosesView(t *testing.T) {
	steps := bookingSteps(t)
	store := &fakeStore{state: &entity.EntityWorkflowState{
		Kind: entity.KindBooking, EntityID: "b-1",
		CurrentStepOrder: 3, CurrentStepCode: strPtr("e03"), Status: "en_validation",
	}}
	backend := store.backend(t, steps)
	backend.advanceFunc = func(ctx context.Context, req port.TransitionRequest) (entity.TransitionResult, error) {
		return entity.TransitionResult{Success: true, NextStepName: "Archivé sans suite", WorkflowCompleted: true}, nil
	}
	var closed int
	view, err := newViewService(t, backend).OpenView(context.Background(), entity.KindBooking, "b-1", ViewCallbacks{
		OnClose: func() { closed++ },
	})
	require.NoError(t, err)

	res, err := view.Submit(context.Background(), entity.DecisionReject, strPtr("budget"), nil, "directeur")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, res.Outcome)
	assert.True(t, view.Closed())

	view.Close()
	assert.Equal(t, 1, closed)
}

func TestViewService_LateResponseDiscarded(t *testing.T) {
	store := &fakeStore{state: &entity.EntityWorkflowState{
		Kind: entity.KindBooking, EntityID: "b-1",
		CurrentStepOrder: 1, CurrentStepCode: strPtr("e01"), Status: "en_cours",
	}}
	backend := store.backend(t, bookingSteps(t))
	entered := make(chan struct{})
	release := make(chan struct{})
	backend.advanceFunc = func(ctx context.Context, req port.TransitionRequest) (entity.TransitionResult, error) {
		close(entered)
		<-release
		return entity.TransitionResult{Success: true, NextStepName: "Étude technique"}, nil
	}

	var successCalls int
	view, err := newViewService(t, backend).OpenView(context.Background(), entity.KindBooking, "b-1", ViewCallbacks{
		OnSuccess: func(SubmitResult) { successCalls++ },
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := view.Submit(context.Background(), entity.DecisionValidate, nil, nil, "agent")
		done <- err
	}()

	<-entered
	view.Close()
	close(release)

	assert.ErrorIs(t, <-done, workflow.ErrViewClosed)
	assert.Zero(t, successCalls)
	assert.Equal(t, 1, view.State().CurrentStepOrder)

	_, err = view.Submit(context.Background(), entity.DecisionValidate, nil, nil, "agent")
	assert.ErrorIs(t, err, workflow.ErrViewClosed)
	assert.ErrorIs(t, view.Refresh(context.Background()), workflow.ErrViewClosed)
}

func TestViewService_Placeholder(t *testing.T) {
	backend := &mockBackend{}
	view, err := newViewService(t, backend).OpenView(context.Background(), entity.KindEditorial, "m-1", ViewCallbacks{})
	require.NoError(t, err)
	defer view.Close()

	assert.True(t, view.Placeholder())
	assert.Empty(t, view.Actions())
	assert.True(t, view.Snapshot().Placeholder)

	_, err = view.Submit(context.Background(), entity.DecisionStart, nil, nil, "agent")
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestViewService_TransientLoadFails(t *testing.T) {
	backend := &mockBackend{
		loadStepsFunc: func(ctx context.Context, kind entity.WorkflowKind) ([]entity.Step, error) {
			return nil, &workflow.TransientFailure{Op: "load steps", Err: errors.New("timeout")}
		},
	}
	_, err := newViewService(t, backend).OpenView(context.Background(), entity.KindBooking, "b-1", ViewCallbacks{})
	assert.True(t, workflow.IsTransient(err))
}

func TestViewService_RefreshIsIdempotent(t *testing.T) {
	store := &fakeStore{state: &entity.EntityWorkflowState{
		Kind: entity.KindBooking, EntityID: "b-1",
		CurrentStepOrder: 2, CurrentStepCode: strPtr("e02"), Status: "en_etude",
	}}
	view, err := newViewService(t, store.backend(t, bookingSteps(t))).OpenView(context.Background(), entity.KindBooking, "b-1", ViewCallbacks{})
	require.NoError(t, err)
	defer view.Close()

	require.NoError(t, view.Refresh(context.Background()))
	first := view.State()
	require.NoError(t, view.Refresh(context.Background()))
	second := view.State()

	assert.Equal(t, first.CurrentStepOrder, second.CurrentStepOrder)
	assert.Equal(t, first.CurrentStepCode, second.CurrentStepCode)
}
