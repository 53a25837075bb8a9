package workflow

import (
	"strconv"
	"strings"
	"time"

	"github.com/bnrm/backoffice/internal/domain/entity"
)

// FieldType is the input kind of a required field
type FieldType string

const (
	FieldText   FieldType = "text"
	FieldNumber FieldType = "number"
	FieldDate   FieldType = "date"
)

// DateLayout is the accepted format of date fields
const DateLayout = "2006-01-02"

// FieldSpec describes an input that must be supplied before a decision is submitted
type FieldSpec struct {
	Name  string    `json:"name" yaml:"name"`
	Label string    `json:"label" yaml:"label"`
	Type  FieldType `json:"type" yaml:"type"`
}

// Action is a decision offered at a step
type Action struct {
	Decision        entity.Decision `json:"decision"`
	Label           string          `json:"label"`
	RequiresComment bool            `json:"requires_comment"`
	RequiredFields  []FieldSpec     `json:"required_fields"`
}

// ActionTable is the static per-step lookup of offered decisions
type ActionTable struct {
	start  []Action
	byStep map[string][]Action
}

// NewActionTable creates a table from the start actions and the actions of each step code.
// Terminal codes must not appear in byStep.
func NewActionTable(start []Action, byStep map[string][]Action) *ActionTable {
	copied := make(map[string][]Action, len(byStep))
	for code, actions := range byStep {
		copied[code] = cloneActions(actions)
	}

	return &ActionTable{
		start:  cloneActions(start),
		byStep: copied,
	}
}

// AvailableActions returns the decisions offered at code. A nil code yields the
// start actions; terminal and unknown codes yield an empty set.
func (t *ActionTable) AvailableActions(code *string) []Action {
	if code == nil {
		return cloneActions(t.start)
	}
	return cloneActions(t.byStep[*code])
}

// Lookup returns the action for decision at code
func (t *ActionTable) Lookup(code *string, decision entity.Decision) (Action, bool) {
	actions := t.start
	if code != nil {
		actions = t.byStep[*code]
	}

	for _, a := range actions {
		if a.Decision == decision {
			return a, true
		}
	}
	return Action{}, false
}

// Validate checks a submission locally. It returns a *ValidationError when the
// decision is not offered, a required comment is blank, or a required field
// is missing or malformed.
func (t *ActionTable) Validate(code *string, decision entity.Decision, comment *string, fields map[string]string) error {
	action, ok := t.Lookup(code, decision)
	if !ok {
		return &ValidationError{Field: "decision", Message: "décision non disponible à cette étape"}
	}

	if action.RequiresComment && !HasComment(comment) {
		return &ValidationError{Field: "comment", Message: "un commentaire est obligatoire pour cette décision"}
	}

	for _, f := range action.RequiredFields {
		value := strings.TrimSpace(fields[f.Name])
		if value == "" {
			return &ValidationError{Field: f.Name, Message: "champ obligatoire"}
		}

		switch f.Type {
		case FieldNumber:
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				return &ValidationError{Field: f.Name, Message: "nombre attendu"}
			}
		case FieldDate:
			if _, err := time.Parse(DateLayout, value); err != nil {
				return &ValidationError{Field: f.Name, Message: "date attendue (AAAA-MM-JJ)"}
			}
		}
	}

	return nil
}

func cloneActions(actions []Action) []Action {
	out := make([]Action, len(actions))
	for i, a := range actions {
		a.RequiredFields = append([]FieldSpec{}, a.RequiredFields...)
		out[i] = a
	}
	return out
}
