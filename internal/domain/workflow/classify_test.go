package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bnrm/backoffice/internal/domain/entity"
)

func strPtr(s string) *string { return &s }

func TestClassify_TotalAndExclusive(t *testing.T) {
	for current := 0; current <= 8; current++ {
		state := entity.EntityWorkflowState{CurrentStepOrder: current, CurrentStepCode: strPtr("x")}

		currents := 0
		for order := 1; order <= 6; order++ {
			got := Classify(order, state)

			switch got {
			case StepCompleted:
				assert.Less(t, order, current)
			case StepCurrent:
				assert.Equal(t, order, current)
				currents++
			case StepPending:
				assert.Greater(t, order, current)
			default:
				t.Fatalf("Classify(%d, %d) = %q", order, current, got)
			}
		}

		assert.LessOrEqual(t, currents, 1)
	}
}

func TestClassify_NotStartedHasNoCurrent(t *testing.T) {
	// Order is ignored when no step code is set
	for _, order := range []int{0, 1, 2} {
		state := entity.EntityWorkflowState{CurrentStepOrder: order}
		for step := 1; step <= 3; step++ {
			assert.Equal(t, StepPending, Classify(step, state))
		}
	}
}
