package definition

import (
	"github.com/bnrm/backoffice/internal/domain/entity"
	"github.com/bnrm/backoffice/internal/domain/workflow"
)

// Template is the workflow definition of one kind: its catalog, the decisions
// offered at each step and where each decision leads.
type Template struct {
	Kind      entity.WorkflowKind `yaml:"kind"`
	Name      string              `yaml:"name"`
	Start     []ActionDef         `yaml:"start"`
	Steps     []StepDef           `yaml:"steps"`
	Terminals []TerminalDef       `yaml:"terminals"`

	// Set by the loader
	SourceFile string `yaml:"-"`
	Checksum   string `yaml:"-"`
}

// StepDef is a catalog step and the decisions it offers
type StepDef struct {
	Order           int         `yaml:"order"`
	Code            string      `yaml:"code"`
	Name            string      `yaml:"name"`
	ResponsibleRole string      `yaml:"responsible_role"`
	Description     string      `yaml:"description"`
	Status          string      `yaml:"status"`
	Actions         []ActionDef `yaml:"actions"`
}

// ActionDef is a decision and its target step or terminal code
type ActionDef struct {
	Decision        entity.Decision      `yaml:"decision"`
	Label           string               `yaml:"label"`
	RequiresComment bool                 `yaml:"requires_comment"`
	Fields          []workflow.FieldSpec `yaml:"fields"`
	Next            string               `yaml:"next"`
}

// TerminalDef is an end state. Complete terminals move the entity past the
// last step; the others leave the order where the workflow stopped.
type TerminalDef struct {
	Code     string `yaml:"code"`
	Name     string `yaml:"name"`
	Status   string `yaml:"status"`
	Complete bool   `yaml:"complete"`
}

// Target is the resolved destination of a decision
type Target struct {
	Code     string
	Name     string
	Status   string
	Order    int
	Terminal bool
	Complete bool
}

// CatalogSteps returns the ordered step catalog
func (t *Template) CatalogSteps() []entity.Step {
	steps := make([]entity.Step, 0, len(t.Steps))
	for _, s := range t.Steps {
		steps = append(steps, entity.Step{
			Order:           s.Order,
			Code:            s.Code,
			Name:            s.Name,
			ResponsibleRole: s.ResponsibleRole,
			Description:     s.Description,
		})
	}
	workflow.SortSteps(steps)
	return steps
}

// ActionTable returns the per-step decision lookup. Terminal codes get no entry.
func (t *Template) ActionTable() *workflow.ActionTable {
	byStep := make(map[string][]workflow.Action, len(t.Steps))
	for _, s := range t.Steps {
		byStep[s.Code] = toActions(s.Actions)
	}
	return workflow.NewActionTable(toActions(t.Start), byStep)
}

// Step returns the step definition with code
func (t *Template) Step(code string) (StepDef, bool) {
	for _, s := range t.Steps {
		if s.Code == code {
			return s, true
		}
	}
	return StepDef{}, false
}

// Terminal returns the terminal definition with code
func (t *Template) Terminal(code string) (TerminalDef, bool) {
	for _, term := range t.Terminals {
		if term.Code == code {
			return term, true
		}
	}
	return TerminalDef{}, false
}

// IsTerminal reports whether code is a terminal code of the template
func (t *Template) IsTerminal(code string) bool {
	_, ok := t.Terminal(code)
	return ok
}

// ResolveTarget computes where a decision taken at fromOrder lands
func (t *Template) ResolveTarget(fromOrder int, code string) (Target, bool) {
	if s, ok := t.Step(code); ok {
		return Target{Code: s.Code, Name: s.Name, Status: s.Status, Order: s.Order}, true
	}

	if term, ok := t.Terminal(code); ok {
		order := fromOrder
		if term.Complete {
			order = len(t.Steps) + 1
		}
		return Target{
			Code:     term.Code,
			Name:     term.Name,
			Status:   term.Status,
			Order:    order,
			Terminal: true,
			Complete: term.Complete,
		}, true
	}

	return Target{}, false
}

// Action returns the action definition of decision at code; nil code means start
func (t *Template) Action(code *string, decision entity.Decision) (ActionDef, bool) {
	actions := t.Start
	if code != nil {
		s, ok := t.Step(*code)
		if !ok {
			return ActionDef{}, false
		}
		actions = s.Actions
	}

	for _, a := range actions {
		if a.Decision == decision {
			return a, true
		}
	}
	return ActionDef{}, false
}

func toActions(defs []ActionDef) []workflow.Action {
	actions := make([]workflow.Action, 0, len(defs))
	for _, d := range defs {
		actions = append(actions, workflow.Action{
			Decision:        d.Decision,
			Label:           d.Label,
			RequiresComment: d.RequiresComment,
			RequiredFields:  append([]workflow.FieldSpec{}, d.Fields...),
		})
	}
	return actions
}
