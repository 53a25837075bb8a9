package service

import (
	"github.com/bnrm/backoffice/internal/domain/entity"
	"github.com/bnrm/backoffice/internal/domain/workflow"
)

// ActionTableSource provides the decision table of a kind
type ActionTableSource interface {
	ActionTable(kind entity.WorkflowKind) (*workflow.ActionTable, error)
}

// ActionResolver exposes the decisions offered at a step and validates
// submissions before they are sent
type ActionResolver interface {
	AvailableActions(kind entity.WorkflowKind, currentStepCode *string) ([]workflow.Action, error)
	Validate(kind entity.WorkflowKind, currentStepCode *string, decision entity.Decision, comment *string, fields map[string]string) error
}

type actionServiceImpl struct {
	tables ActionTableSource
}

// NewActionResolver creates an ActionResolver backed by tables
func NewActionResolver(tables ActionTableSource) ActionResolver {
	return &actionServiceImpl{tables: tables}
}

// AvailableActions returns the decisions offered at currentStepCode. A nil code
// yields the start decisions; terminal and unknown codes yield none.
func (s *actionServiceImpl) AvailableActions(kind entity.WorkflowKind, currentStepCode *string) ([]workflow.Action, error) {
	table, err := s.tables.ActionTable(kind)
	if err != nil {
		return nil, err
	}
	return table.AvailableActions(currentStepCode), nil
}

// Validate returns a *workflow.ValidationError when the submission is refused locally
func (s *actionServiceImpl) Validate(kind entity.WorkflowKind, currentStepCode *string, decision entity.Decision, comment *string, fields map[string]string) error {
	table, err := s.tables.ActionTable(kind)
	if err != nil {
		return err
	}
	return table.Validate(currentStepCode, decision, comment, fields)
}
