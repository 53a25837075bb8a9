package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnrm/backoffice/internal/definition"
	"github.com/bnrm/backoffice/internal/domain/entity"
	"github.com/bnrm/backoffice/internal/domain/workflow"
)

func loadRegistry(t *testing.T) *definition.Registry {
	t.Helper()
	reg, err := definition.Load("")
	require.NoError(t, err)
	return reg
}

func TestActionResolver_AvailableActions(t *testing.T) {
	resolver := NewActionResolver(loadRegistry(t))

	tests := []struct {
		name string
		kind entity.WorkflowKind
		code *string
		want []entity.Decision
	}{
		{"not started", entity.KindBooking, nil, []entity.Decision{entity.DecisionStart}},
		{"reception", entity.KindBooking, strPtr("e01"), []entity.Decision{entity.DecisionValidate, entity.DecisionRequestChanges, entity.DecisionReject}},
		{"complete terminal", entity.KindBooking, strPtr("cloturee"), nil},
		{"incomplete terminal", entity.KindBooking, strPtr("archivee_sans_suite"), nil},
		{"legal deposit terminal", entity.KindLegalDeposit, strPtr("rejete"), nil},
		{"unknown code", entity.KindContent, strPtr("zz"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actions, err := resolver.AvailableActions(tt.kind, tt.code)
			require.NoError(t, err)
			require.NotNil(t, actions)

			got := make([]entity.Decision, 0, len(actions))
			for _, a := range actions {
				got = append(got, a.Decision)
			}
			if tt.want == nil {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestActionResolver_UnknownKind(t *testing.T) {
	resolver := NewActionResolver(loadRegistry(t))

	_, err := resolver.AvailableActions("bibliotheque", nil)
	assert.ErrorIs(t, err, workflow.ErrNotFound)

	err = resolver.Validate("bibliotheque", nil, entity.DecisionStart, nil, nil)
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestActionResolver_Validate(t *testing.T) {
	resolver := NewActionResolver(loadRegistry(t))

	err := resolver.Validate(entity.KindBooking, strPtr("e01"), entity.DecisionReject, strPtr(" "), nil)
	var ve *workflow.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "comment", ve.Field)

	assert.NoError(t, resolver.Validate(entity.KindBooking, strPtr("e01"), entity.DecisionReject, strPtr("incomplet"), nil))
}
