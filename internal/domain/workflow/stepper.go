package workflow

import (
	"strconv"
	"time"

	"github.com/bnrm/backoffice/internal/domain/entity"
	"github.com/bnrm/backoffice/internal/domain/status"
)

// CompletedBadge replaces the ordinal of completed steps
const CompletedBadge = "✓"

// DecisionRenderer resolves a decision code to its badge
type DecisionRenderer func(code string) status.Descriptor

// RecordView is the history entry inlined under a step
type RecordView struct {
	Decision       entity.Decision   `json:"decision"`
	DecisionStatus status.Descriptor `json:"decision_status"`
	Comment        *string           `json:"comment"`
	Actor          string            `json:"actor"`
	Timestamp      time.Time         `json:"timestamp"`
}

// StepView is one rendered row of the stepper
type StepView struct {
	Order           int         `json:"order"`
	Code            string      `json:"code"`
	Badge           string      `json:"badge"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	ResponsibleRole string      `json:"responsible_role"`
	State           StepState   `json:"state"`
	Record          *RecordView `json:"record,omitempty"`
}

// Stepper is the catalog rendered against an entity state
type Stepper struct {
	Steps            []StepView `json:"steps"`
	NotStarted       bool       `json:"not_started"`
	CurrentStepOrder int        `json:"current_step_order"`
	CurrentStepCode  *string    `json:"current_step_code"`
}

// Current returns the step classified as current, if any
func (s Stepper) Current() (StepView, bool) {
	for _, v := range s.Steps {
		if v.State == StepCurrent {
			return v, true
		}
	}
	return StepView{}, false
}

// BuildStepper classifies every step and attaches the latest history
// record whose step name matches. Records naming no step are ignored.
func BuildStepper(steps []entity.Step, state entity.EntityWorkflowState, history []entity.TransitionRecord, decisions DecisionRenderer) Stepper {
	if decisions == nil {
		decisions = status.Fallback
	}

	byName := make(map[string]entity.TransitionRecord, len(history))
	for _, rec := range history {
		byName[rec.StepName] = rec
	}

	views := make([]StepView, 0, len(steps))
	for _, step := range steps {
		view := StepView{
			Order:           step.Order,
			Code:            step.Code,
			Name:            step.Name,
			Description:     step.Description,
			ResponsibleRole: step.ResponsibleRole,
			State:           Classify(step.Order, state),
		}

		if view.State == StepCompleted {
			view.Badge = CompletedBadge
		} else {
			view.Badge = strconv.Itoa(step.Order)
		}

		if rec, ok := byName[step.Name]; ok {
			view.Record = &RecordView{
				Decision:       rec.Decision,
				DecisionStatus: decisions(string(rec.Decision)),
				Comment:        rec.Comment,
				Actor:          rec.Actor,
				Timestamp:      rec.Timestamp,
			}
		}

		views = append(views, view)
	}

	return Stepper{
		Steps:            views,
		NotStarted:       state.NotStarted(),
		CurrentStepOrder: state.CurrentStepOrder,
		CurrentStepCode:  state.CurrentStepCode,
	}
}
