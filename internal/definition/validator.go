package definition

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bnrm/backoffice/internal/domain/workflow"
)

// VError describes a single validation error in a template.
type VError struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e VError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// VErrors joins several validation errors into one error value
type VErrors []VError

func (errs VErrors) Error() string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return fmt.Sprintf("%d definition error(s): %s", len(errs), strings.Join(msgs, "; "))
}

// Validator checks templates structurally and referentially.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks all templates and returns every problem found
func (v *Validator) Validate(templates []Template) []VError {
	var errs []VError
	seen := make(map[string]string)

	for i, tpl := range templates {
		prefix := fmt.Sprintf("templates[%d]", i)
		if tpl.SourceFile != "" {
			prefix = tpl.SourceFile
		}

		if other, dup := seen[string(tpl.Kind)]; dup && tpl.Kind != "" {
			errs = append(errs, VError{Path: prefix + ".kind", Code: "DUPLICATE", Message: fmt.Sprintf("kind %q already defined by %s", tpl.Kind, other)})
		}
		seen[string(tpl.Kind)] = prefix

		errs = append(errs, v.validateTemplate(prefix, tpl)...)
	}

	return errs
}

func (v *Validator) validateTemplate(prefix string, tpl Template) []VError {
	var errs []VError

	if !tpl.Kind.IsValid() {
		errs = append(errs, VError{Path: prefix + ".kind", Code: "INVALID", Message: fmt.Sprintf("unknown workflow kind %q", tpl.Kind)})
	}
	if tpl.Name == "" {
		errs = append(errs, VError{Path: prefix + ".name", Code: "REQUIRED", Message: "name is required"})
	}
	if len(tpl.Steps) == 0 {
		errs = append(errs, VError{Path: prefix + ".steps", Code: "REQUIRED", Message: "at least one step is required"})
	}
	if len(tpl.Start) == 0 {
		errs = append(errs, VError{Path: prefix + ".start", Code: "REQUIRED", Message: "at least one start action is required"})
	}

	errs = append(errs, v.validateCatalog(prefix, tpl)...)

	stepCodes := make(map[string]bool, len(tpl.Steps))
	for _, s := range tpl.Steps {
		stepCodes[s.Code] = true
	}

	terminalCodes := make(map[string]bool, len(tpl.Terminals))
	for i, term := range tpl.Terminals {
		tp := fmt.Sprintf("%s.terminals[%d]", prefix, i)
		switch {
		case term.Code == "":
			errs = append(errs, VError{Path: tp + ".code", Code: "REQUIRED", Message: "code is required"})
		case stepCodes[term.Code]:
			errs = append(errs, VError{Path: tp + ".code", Code: "TERMINAL_IS_STEP", Message: fmt.Sprintf("terminal code %q is also a step with actions", term.Code)})
		case terminalCodes[term.Code]:
			errs = append(errs, VError{Path: tp + ".code", Code: "DUPLICATE", Message: fmt.Sprintf("terminal code %q defined twice", term.Code)})
		}
		terminalCodes[term.Code] = true

		if term.Name == "" {
			errs = append(errs, VError{Path: tp + ".name", Code: "REQUIRED", Message: "name is required"})
		}
		if term.Status == "" {
			errs = append(errs, VError{Path: tp + ".status", Code: "REQUIRED", Message: "status is required"})
		}
	}

	for i, a := range tpl.Start {
		ap := fmt.Sprintf("%s.start[%d]", prefix, i)
		errs = append(errs, v.validateAction(ap, tpl, 0, a)...)
		if a.Next != "" && !stepCodes[a.Next] {
			errs = append(errs, VError{Path: ap + ".next", Code: "INVALID_TARGET", Message: "start actions must lead to a step"})
		}
	}
	errs = append(errs, duplicateDecisions(prefix+".start", tpl.Start)...)

	for i, s := range tpl.Steps {
		sp := fmt.Sprintf("%s.steps[%d]", prefix, i)
		for j, a := range s.Actions {
			errs = append(errs, v.validateAction(fmt.Sprintf("%s.actions[%d]", sp, j), tpl, s.Order, a)...)
		}
		errs = append(errs, duplicateDecisions(sp+".actions", s.Actions)...)
	}

	return errs
}

func (v *Validator) validateCatalog(prefix string, tpl Template) []VError {
	var errs []VError

	steps := append([]StepDef{}, tpl.Steps...)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })

	codes := make(map[string]bool, len(steps))
	names := make(map[string]bool, len(steps))
	for i, s := range steps {
		sp := fmt.Sprintf("%s.steps[%s]", prefix, s.Code)

		if s.Order != i+1 {
			errs = append(errs, VError{Path: sp + ".order", Code: "NOT_CONTIGUOUS", Message: fmt.Sprintf("order %d, expected %d", s.Order, i+1)})
		}
		if s.Code == "" {
			errs = append(errs, VError{Path: sp + ".code", Code: "REQUIRED", Message: "code is required"})
		} else if codes[s.Code] {
			errs = append(errs, VError{Path: sp + ".code", Code: "DUPLICATE", Message: fmt.Sprintf("step code %q defined twice", s.Code)})
		}
		codes[s.Code] = true

		// History entries are matched to steps by name
		if s.Name == "" {
			errs = append(errs, VError{Path: sp + ".name", Code: "REQUIRED", Message: "name is required"})
		} else if names[s.Name] {
			errs = append(errs, VError{Path: sp + ".name", Code: "DUPLICATE", Message: fmt.Sprintf("step name %q defined twice", s.Name)})
		}
		names[s.Name] = true

		if s.Status == "" {
			errs = append(errs, VError{Path: sp + ".status", Code: "REQUIRED", Message: "status is required"})
		}
	}

	return errs
}

func (v *Validator) validateAction(ap string, tpl Template, fromOrder int, a ActionDef) []VError {
	var errs []VError

	if a.Decision == "" {
		errs = append(errs, VError{Path: ap + ".decision", Code: "REQUIRED", Message: "decision is required"})
	}
	if a.Label == "" {
		errs = append(errs, VError{Path: ap + ".label", Code: "REQUIRED", Message: "label is required"})
	}

	target, ok := tpl.ResolveTarget(fromOrder, a.Next)
	switch {
	case a.Next == "":
		errs = append(errs, VError{Path: ap + ".next", Code: "REQUIRED", Message: "next is required"})
	case !ok:
		errs = append(errs, VError{Path: ap + ".next", Code: "UNKNOWN_TARGET", Message: fmt.Sprintf("target %q is neither a step nor a terminal", a.Next)})
	case target.Order < fromOrder:
		errs = append(errs, VError{Path: ap + ".next", Code: "BACKWARD", Message: fmt.Sprintf("target %q (order %d) moves back from order %d", a.Next, target.Order, fromOrder)})
	}

	fieldNames := make(map[string]bool, len(a.Fields))
	for k, f := range a.Fields {
		fp := fmt.Sprintf("%s.fields[%d]", ap, k)
		if f.Name == "" {
			errs = append(errs, VError{Path: fp + ".name", Code: "REQUIRED", Message: "name is required"})
		} else if fieldNames[f.Name] || f.Name == "decision" || f.Name == "comment" {
			errs = append(errs, VError{Path: fp + ".name", Code: "DUPLICATE", Message: fmt.Sprintf("field name %q is already used", f.Name)})
		}
		fieldNames[f.Name] = true

		switch f.Type {
		case workflow.FieldText, workflow.FieldNumber, workflow.FieldDate:
		default:
			errs = append(errs, VError{Path: fp + ".type", Code: "INVALID", Message: fmt.Sprintf("unknown field type %q", f.Type)})
		}
	}

	return errs
}

func duplicateDecisions(path string, actions []ActionDef) []VError {
	var errs []VError
	seen := make(map[string]bool, len(actions))
	for _, a := range actions {
		if a.Decision != "" && seen[string(a.Decision)] {
			errs = append(errs, VError{Path: path, Code: "DUPLICATE", Message: fmt.Sprintf("decision %q offered twice", a.Decision)})
		}
		seen[string(a.Decision)] = true
	}
	return errs
}
