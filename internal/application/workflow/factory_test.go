package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnrm/backoffice/internal/definition"
	"github.com/bnrm/backoffice/internal/domain/entity"
	domainwf "github.com/bnrm/backoffice/internal/domain/workflow"
)

func loadRegistry(t *testing.T) *definition.Registry {
	t.Helper()
	reg, err := definition.Load("")
	require.NoError(t, err)
	return reg
}

func bookingTemplate(t *testing.T) *definition.Template {
	t.Helper()
	tpl, err := loadRegistry(t).Get(entity.KindBooking)
	require.NoError(t, err)
	return tpl
}

func TestBuildStateMachine(t *testing.T) {
	tpl := bookingTemplate(t)
	comment := "pièces manquantes"

	tests := []struct {
		name      string
		from      domainwf.State
		decision  entity.Decision
		comment   *string
		wantState domainwf.State
		wantErr   error
	}{
		{"start", domainwf.StateNotStarted, entity.DecisionStart, nil, "e01", nil},
		{"validate reception", "e01", entity.DecisionValidate, nil, "e02", nil},
		{"request changes stays", "e01", entity.DecisionRequestChanges, &comment, "e01", nil},
		{"reject with comment", "e02", entity.DecisionReject, &comment, "archivee_sans_suite", nil},
		{"reject without comment", "e02", entity.DecisionReject, nil, "e02", domainwf.ErrGuardFailed},
		{"close contract", "e04", entity.DecisionClose, nil, "cloturee", nil},
		{"validate before start", domainwf.StateNotStarted, entity.DecisionValidate, nil, domainwf.StateNotStarted, domainwf.ErrInvalidTransition},
		{"decision on terminal", "cloturee", entity.DecisionValidate, nil, "cloturee", domainwf.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine, err := BuildStateMachine(tpl, tt.from)
			require.NoError(t, err)

			err = machine.Fire(domainwf.WithComment(context.Background(), tt.comment), tt.decision)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantState, machine.State())
		})
	}
}

func TestBuildStateMachineTerminals(t *testing.T) {
	tpl := bookingTemplate(t)

	for _, code := range []string{"cloturee", "archivee_sans_suite"} {
		machine, err := BuildStateMachine(tpl, domainwf.State(code))
		require.NoError(t, err)
		assert.True(t, machine.IsTerminal(), code)
		assert.Empty(t, machine.PermittedDecisions(), code)
	}
}

func TestBuildStateMachineRejectsBadTemplates(t *testing.T) {
	t.Run("unknown initial state", func(t *testing.T) {
		_, err := BuildStateMachine(bookingTemplate(t), "zz")
		assert.ErrorIs(t, err, domainwf.ErrInvalidState)
	})

	t.Run("action without target", func(t *testing.T) {
		tpl := &definition.Template{
			Kind:  entity.KindBooking,
			Start: []definition.ActionDef{{Decision: entity.DecisionStart}},
		}
		_, err := BuildStateMachine(tpl, domainwf.StateNotStarted)
		assert.ErrorIs(t, err, domainwf.ErrInvalidState)
	})

	t.Run("terminal that is also a step", func(t *testing.T) {
		tpl := &definition.Template{
			Kind:      entity.KindBooking,
			Steps:     []definition.StepDef{{Order: 1, Code: "e01"}},
			Terminals: []definition.TerminalDef{{Code: "e01"}},
		}
		_, err := BuildStateMachine(tpl, domainwf.StateNotStarted)
		assert.ErrorIs(t, err, domainwf.ErrInvalidState)
	})
}
