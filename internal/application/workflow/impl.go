package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnrm/backoffice/internal/application/port"
	"github.com/bnrm/backoffice/internal/definition"
	"github.com/bnrm/backoffice/internal/domain/entity"
	domainwf "github.com/bnrm/backoffice/internal/domain/workflow"
)

// procedureImpl is the concrete implementation of Procedure
type procedureImpl struct {
	registry    *definition.Registry
	stateRepo   port.StateRepository
	historyRepo port.HistoryRepository
	txManager   port.TransactionManager
	logger      Logger
	now         func() time.Time
}

// ProcedureOption configures the transition procedure
type ProcedureOption func(*procedureImpl)

// WithLogger sets a logger for the procedure
func WithLogger(logger Logger) ProcedureOption {
	return func(p *procedureImpl) {
		p.logger = logger
	}
}

// WithClock overrides the time source used for history timestamps
func WithClock(now func() time.Time) ProcedureOption {
	return func(p *procedureImpl) {
		p.now = now
	}
}

// NewProcedure creates the local transition procedure
func NewProcedure(
	registry *definition.Registry,
	stateRepo port.StateRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	opts ...ProcedureOption,
) Procedure {
	p := &procedureImpl{
		registry:    registry,
		stateRepo:   stateRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Advance applies one decision inside a single transaction
func (p *procedureImpl) Advance(ctx context.Context, req port.TransitionRequest) (entity.TransitionResult, error) {
	tpl, err := p.registry.Get(req.Kind)
	if err != nil {
		return reject(MsgUnknownKind), nil
	}

	var result entity.TransitionResult
	err = p.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		r, err := p.advance(txCtx, tpl, req)
		if err != nil {
			return err
		}
		result = r
		return nil
	})

	if err != nil {
		if errors.Is(err, domainwf.ErrVersionConflict) {
			p.info("Transition lost a concurrent update",
				"kind", req.Kind,
				"entity_id", req.EntityID,
				"decision", req.Decision,
			)
			return reject(MsgConflict), nil
		}

		p.error("Transition failed",
			"kind", req.Kind,
			"entity_id", req.EntityID,
			"decision", req.Decision,
			"error", err,
		)
		return entity.TransitionResult{}, err
	}

	if result.Success {
		p.info("Transition accepted",
			"kind", req.Kind,
			"entity_id", req.EntityID,
			"decision", req.Decision,
			"next_step", result.NextStepName,
			"completed", result.WorkflowCompleted,
			"actor", req.Actor,
		)
	} else {
		p.info("Transition refused",
			"kind", req.Kind,
			"entity_id", req.EntityID,
			"decision", req.Decision,
			"reason", result.ErrorMessage,
		)
	}

	return result, nil
}

func (p *procedureImpl) advance(ctx context.Context, tpl *definition.Template, req port.TransitionRequest) (entity.TransitionResult, error) {
	stored, err := p.stateRepo.Get(ctx, req.Kind, req.EntityID)
	if err != nil {
		return entity.TransitionResult{}, fmt.Errorf("failed to load state: %w", err)
	}

	current := entity.NewNotStartedState(req.Kind, req.EntityID)
	var expectedVersion int64
	if stored != nil {
		current = *stored
		expectedVersion = stored.Version
	}

	code := current.CurrentStepCode
	if code != nil {
		if tpl.IsTerminal(*code) {
			return reject(MsgFinished), nil
		}
		if _, ok := tpl.Step(*code); !ok {
			return reject(MsgInvalidStep), nil
		}
	}

	if _, ok := tpl.Action(code, req.Decision); !ok {
		return reject(refusalFor(tpl, code, req.Decision)), nil
	}

	if err := tpl.ActionTable().Validate(code, req.Decision, req.Comment, req.Fields); err != nil {
		var ve *domainwf.ValidationError
		if errors.As(err, &ve) {
			if ve.Field == "comment" {
				return reject(ve.Message), nil
			}
			return reject(ve.Error()), nil
		}
		return entity.TransitionResult{}, err
	}

	machine, err := BuildStateMachine(tpl, domainwf.FromStepCode(code))
	if err != nil {
		return entity.TransitionResult{}, fmt.Errorf("failed to build state machine: %w", err)
	}

	if err := machine.Fire(domainwf.WithComment(ctx, req.Comment), req.Decision); err != nil {
		if errors.Is(err, domainwf.ErrGuardFailed) {
			return reject("un commentaire est obligatoire pour cette décision"), nil
		}
		return reject(MsgInvalidStep), nil
	}

	target, ok := tpl.ResolveTarget(current.CurrentStepOrder, string(machine.State()))
	if !ok {
		return entity.TransitionResult{}, fmt.Errorf("%w: target %s of %s", domainwf.ErrInvalidState, machine.State(), tpl.Kind)
	}
	if target.Order < current.CurrentStepOrder {
		return reject(MsgBackward), nil
	}

	now := p.now().UTC()
	stepName := entity.StartStepName
	stepCode := ""
	if code != nil {
		step, _ := tpl.Step(*code)
		stepName = step.Name
		stepCode = step.Code
	}

	nextCode := target.Code
	next := &entity.EntityWorkflowState{
		EntityID:         req.EntityID,
		Kind:             req.Kind,
		CurrentStepOrder: target.Order,
		CurrentStepCode:  &nextCode,
		Status:           target.Status,
		UpdatedAt:        now,
	}
	if err := p.stateRepo.Save(ctx, next, expectedVersion); err != nil {
		return entity.TransitionResult{}, fmt.Errorf("failed to save state: %w", err)
	}

	record := &entity.TransitionRecord{
		Kind:      req.Kind,
		EntityID:  req.EntityID,
		StepCode:  stepCode,
		StepName:  stepName,
		Decision:  req.Decision,
		Comment:   normalizeComment(req.Comment),
		Fields:    req.Fields,
		Actor:     req.Actor,
		Timestamp: now,
	}
	if err := p.historyRepo.Append(ctx, record); err != nil {
		return entity.TransitionResult{}, fmt.Errorf("failed to append history: %w", err)
	}

	return entity.TransitionResult{
		Success:           true,
		NextStepName:      target.Name,
		WorkflowCompleted: target.Terminal,
	}, nil
}

// refusalFor explains why decision is not offered at code
func refusalFor(tpl *definition.Template, code *string, decision entity.Decision) string {
	if !templateOffers(tpl, decision) {
		return MsgUnknownDecision
	}

	_, isStart := tpl.Action(nil, decision)
	switch {
	case code == nil:
		return MsgNotStarted
	case isStart:
		return MsgAlreadyStarted
	default:
		return MsgInvalidStep
	}
}

func templateOffers(tpl *definition.Template, decision entity.Decision) bool {
	if _, ok := tpl.Action(nil, decision); ok {
		return true
	}
	for _, s := range tpl.Steps {
		code := s.Code
		if _, ok := tpl.Action(&code, decision); ok {
			return true
		}
	}
	return false
}

func normalizeComment(comment *string) *string {
	if !domainwf.HasComment(comment) {
		return nil
	}
	trimmed := strings.TrimSpace(*comment)
	return &trimmed
}

func (p *procedureImpl) info(msg string, kv ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, kv...)
	}
}

func (p *procedureImpl) error(msg string, kv ...interface{}) {
	if p.logger != nil {
		p.logger.Error(msg, kv...)
	}
}
