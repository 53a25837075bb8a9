package workflow

import (
	"fmt"

	"github.com/bnrm/backoffice/internal/definition"
	domainwf "github.com/bnrm/backoffice/internal/domain/workflow"
)

// BuildStateMachine creates a state machine for a workflow template. The start
// actions hang off StateNotStarted, every step is configured with its actions,
// and terminal codes are declared without outgoing decisions.
func BuildStateMachine(tpl *definition.Template, initialState domainwf.State) (domainwf.StateMachine, error) {
	builder := domainwf.NewBuilder()

	if err := permitActions(builder.Configure(domainwf.StateNotStarted), tpl.Start); err != nil {
		return nil, fmt.Errorf("%s start: %w", tpl.Kind, err)
	}

	for _, step := range tpl.Steps {
		if err := permitActions(builder.Configure(domainwf.State(step.Code)), step.Actions); err != nil {
			return nil, fmt.Errorf("%s step %s: %w", tpl.Kind, step.Code, err)
		}
	}

	for _, term := range tpl.Terminals {
		if _, isStep := tpl.Step(term.Code); isStep {
			return nil, fmt.Errorf("%w: terminal %s is also a step of %s", domainwf.ErrInvalidState, term.Code, tpl.Kind)
		}
		builder.Terminal(domainwf.State(term.Code))
	}

	return builder.Build(initialState)
}

func permitActions(cfg domainwf.StateConfiguration, actions []definition.ActionDef) error {
	for _, a := range actions {
		if a.Next == "" {
			return fmt.Errorf("%w: decision %s has no target", domainwf.ErrInvalidState, a.Decision)
		}

		if a.RequiresComment {
			cfg.PermitIf(a.Decision, domainwf.State(a.Next), domainwf.RequireComment)
			continue
		}
		cfg.Permit(a.Decision, domainwf.State(a.Next))
	}
	return nil
}
