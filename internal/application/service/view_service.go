package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bnrm/backoffice/internal/application/port"
	"github.com/bnrm/backoffice/internal/domain/entity"
	"github.com/bnrm/backoffice/internal/domain/status"
	"github.com/bnrm/backoffice/internal/domain/workflow"
)

// ViewCallbacks notify the host of a workflow view
type ViewCallbacks struct {
	OnClose   func()
	OnSuccess func(SubmitResult)
}

// ViewSnapshot is everything the host needs to paint a workflow view
type ViewSnapshot struct {
	Kind        entity.WorkflowKind        `json:"kind"`
	EntityID    string                     `json:"entity_id"`
	Placeholder bool                       `json:"placeholder"`
	Status      string                     `json:"status,omitempty"`
	StatusBadge status.Descriptor          `json:"status_badge"`
	Stepper     workflow.Stepper           `json:"stepper"`
	Actions     []workflow.Action          `json:"actions"`
	History     []entity.TransitionRecord  `json:"history"`
	State       entity.EntityWorkflowState `json:"state"`
}

// ViewService opens workflow views on entities
type ViewService interface {
	OpenView(ctx context.Context, kind entity.WorkflowKind, entityID string, cb ViewCallbacks) (*View, error)
}

type viewServiceImpl struct {
	catalog   StepCatalog
	history   HistoryReader
	states    port.EntityStateReader
	actions   ActionResolver
	submitter TransitionSubmitter
	badges    *status.Registry
	logger    Logger
}

// NewViewService creates a ViewService
func NewViewService(
	catalog StepCatalog,
	history HistoryReader,
	states port.EntityStateReader,
	actions ActionResolver,
	submitter TransitionSubmitter,
	badges *status.Registry,
	logger Logger,
) ViewService {
	return &viewServiceImpl{
		catalog:   catalog,
		history:   history,
		states:    states,
		actions:   actions,
		submitter: submitter,
		badges:    badges,
		logger:    orNop(logger),
	}
}

// OpenView loads catalog, state and history of an entity. A missing catalog
// yields a placeholder view; an entity without state is shown as not started.
func (s *viewServiceImpl) OpenView(ctx context.Context, kind entity.WorkflowKind, entityID string, cb ViewCallbacks) (*View, error) {
	v := &View{
		svc:      s,
		kind:     kind,
		entityID: entityID,
		cb:       cb,
		state:    entity.NewNotStartedState(kind, entityID),
		history:  []entity.TransitionRecord{},
	}

	steps, err := s.catalog.LoadSteps(ctx, kind)
	if err != nil {
		if errors.Is(err, workflow.ErrNotFound) {
			s.logger.Info("Opening placeholder view", "kind", kind, "entity_id", entityID)
			v.placeholder = true
			return v, nil
		}
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	v.steps = steps

	if err := v.Refresh(ctx); err != nil {
		return nil, err
	}

	return v, nil
}

// View is one open workflow view. Once closed, answers to calls still in
// flight are discarded.
type View struct {
	svc      *viewServiceImpl
	kind     entity.WorkflowKind
	entityID string
	cb       ViewCallbacks

	mu          sync.Mutex
	closed      bool
	placeholder bool
	steps       []entity.Step
	state       entity.EntityWorkflowState
	history     []entity.TransitionRecord
}

// Placeholder reports whether the workflow could not be found
func (v *View) Placeholder() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.placeholder
}

// Closed reports whether Close has been called
func (v *View) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// State returns the last fetched entity state
func (v *View) State() entity.EntityWorkflowState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Stepper renders the catalog against the current state and history
func (v *View) Stepper() workflow.Stepper {
	v.mu.Lock()
	defer v.mu.Unlock()
	return workflow.BuildStepper(v.steps, v.state, v.history, v.svc.badges.Decision)
}

// Actions returns the decisions offered at the current step
func (v *View) Actions() []workflow.Action {
	v.mu.Lock()
	placeholder, code := v.placeholder, v.state.CurrentStepCode
	v.mu.Unlock()

	if placeholder {
		return []workflow.Action{}
	}

	actions, err := v.svc.actions.AvailableActions(v.kind, code)
	if err != nil {
		v.svc.logger.Error("Failed to resolve actions", "kind", v.kind, "entity_id", v.entityID, "error", err)
		return []workflow.Action{}
	}
	return actions
}

// Snapshot returns the paintable state of the view
func (v *View) Snapshot() ViewSnapshot {
	actions := v.Actions()
	stepper := v.Stepper()

	v.mu.Lock()
	defer v.mu.Unlock()

	code := v.state.Status
	if v.state.NotStarted() {
		code = status.NotStartedCode
	}
	badge, err := v.svc.badges.Resolve(string(v.kind), code)
	if err != nil {
		badge = status.Fallback(code)
	}

	return ViewSnapshot{
		Kind:        v.kind,
		EntityID:    v.entityID,
		Placeholder: v.placeholder,
		Status:      v.state.Status,
		StatusBadge: badge,
		Stepper:     stepper,
		Actions:     actions,
		History:     append([]entity.TransitionRecord{}, v.history...),
		State:       v.state,
	}
}

// Refresh refetches entity state and history
func (v *View) Refresh(ctx context.Context) error {
	if v.Closed() {
		return workflow.ErrViewClosed
	}

	state, err := v.svc.states.GetState(ctx, v.kind, v.entityID)
	if err != nil {
		if !errors.Is(err, workflow.ErrNotFound) {
			return fmt.Errorf("load state: %w", err)
		}
		state = entity.NewNotStartedState(v.kind, v.entityID)
	}

	history, err := v.svc.history.Fetch(ctx, v.kind, v.entityID)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return workflow.ErrViewClosed
	}
	v.state = state
	v.history = history
	return nil
}

// Submit sends a decision. On success the view refreshes, OnSuccess fires and,
// when the workflow is finished, the view closes.
func (v *View) Submit(ctx context.Context, decision entity.Decision, comment *string, fields map[string]string, actor string) (SubmitResult, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return SubmitResult{}, workflow.ErrViewClosed
	}
	if v.placeholder {
		v.mu.Unlock()
		return SubmitResult{}, fmt.Errorf("workflow %s: %w", v.kind, workflow.ErrNotFound)
	}
	code := v.state.CurrentStepCode
	v.mu.Unlock()

	result, err := v.svc.submitter.Submit(ctx, SubmitRequest{
		Kind:            v.kind,
		EntityID:        v.entityID,
		CurrentStepCode: code,
		Decision:        decision,
		Comment:         comment,
		Fields:          fields,
		Actor:           actor,
	})
	if err != nil {
		return SubmitResult{}, err
	}

	if v.Closed() {
		return result, workflow.ErrViewClosed
	}

	if !result.Succeeded() {
		return result, nil
	}

	if err := v.Refresh(ctx); err != nil {
		if errors.Is(err, workflow.ErrViewClosed) {
			return result, err
		}
		v.svc.logger.Error("Failed to refresh view after transition",
			"kind", v.kind,
			"entity_id", v.entityID,
			"error", err,
		)
	}

	if v.cb.OnSuccess != nil {
		v.cb.OnSuccess(result)
	}

	if result.Outcome == OutcomeCompleted {
		v.Close()
	}

	return result, nil
}

// Close closes the view. OnClose runs once.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.mu.Unlock()

	if v.cb.OnClose != nil {
		v.cb.OnClose()
	}
}
