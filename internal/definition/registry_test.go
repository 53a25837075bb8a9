package definition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnrm/backoffice/internal/domain/entity"
	"github.com/bnrm/backoffice/internal/domain/workflow"
)

func TestLoad_Defaults(t *testing.T) {
	reg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t,
		[]entity.WorkflowKind{entity.KindBooking, entity.KindContent, entity.KindEditorial, entity.KindLegalDeposit},
		reg.Kinds())
}

func TestRegistry_GetUnknownKind(t *testing.T) {
	reg := NewRegistry([]Template{validTemplate()})

	_, err := reg.Get(entity.KindEditorial)
	assert.ErrorIs(t, err, workflow.ErrNotFound)

	_, err = reg.ActionTable("finance")
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestRegistry_Replace(t *testing.T) {
	reg := NewRegistry(nil)
	assert.Empty(t, reg.Kinds())

	reg.Replace([]Template{validTemplate()})
	_, err := reg.Get(entity.KindBooking)
	assert.NoError(t, err)
}

func TestTemplate_ResolveTarget(t *testing.T) {
	tpl := validTemplate()

	tests := []struct {
		name      string
		fromOrder int
		code      string
		wantOrder int
		terminal  bool
		complete  bool
		found     bool
	}{
		{name: "step", fromOrder: 1, code: "e02", wantOrder: 2, found: true},
		{name: "complete terminal passes last step", fromOrder: 2, code: "cloturee", wantOrder: 3, terminal: true, complete: true, found: true},
		{name: "incomplete terminal keeps order", fromOrder: 1, code: "archivee_sans_suite", wantOrder: 1, terminal: true, found: true},
		{name: "unknown", fromOrder: 1, code: "zz", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tpl.ResolveTarget(tt.fromOrder, tt.code)
			require.Equal(t, tt.found, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantOrder, got.Order)
			assert.Equal(t, tt.terminal, got.Terminal)
			assert.Equal(t, tt.complete, got.Complete)
		})
	}
}

func TestTemplate_ActionTable(t *testing.T) {
	reg, err := Load("")
	require.NoError(t, err)

	booking, err := reg.Get(entity.KindBooking)
	require.NoError(t, err)
	table := booking.ActionTable()

	for _, term := range booking.Terminals {
		code := term.Code
		assert.Empty(t, table.AvailableActions(&code), "terminal %s offers actions", code)
	}

	start := table.AvailableActions(nil)
	require.Len(t, start, 1)
	assert.Equal(t, entity.DecisionStart, start[0].Decision)

	e01 := "e01"
	assert.Len(t, table.AvailableActions(&e01), 3)

	steps := booking.CatalogSteps()
	require.Len(t, steps, 4)
	assert.Equal(t, "e01", steps[0].Code)
	assert.Equal(t, "agent_accueil", steps[0].ResponsibleRole)
}

func TestTemplate_Action(t *testing.T) {
	tpl := validTemplate()

	a, ok := tpl.Action(nil, entity.DecisionStart)
	require.True(t, ok)
	assert.Equal(t, "e01", a.Next)

	e01 := "e01"
	_, ok = tpl.Action(&e01, entity.DecisionClose)
	assert.False(t, ok)

	term := "cloturee"
	_, ok = tpl.Action(&term, entity.DecisionValidate)
	assert.False(t, ok)
}
