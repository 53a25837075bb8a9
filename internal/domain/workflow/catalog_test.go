package workflow

import (
	"errors"
	"testing"

	"github.com/bnrm/backoffice/internal/domain/entity"
)

func TestValidateCatalog(t *testing.T) {
	tests := []struct {
		name    string
		steps   []entity.Step
		wantErr bool
	}{
		{"valid", threeSteps(), false},
		{"empty", nil, false},
		{"gap", []entity.Step{{Order: 1, Code: "a"}, {Order: 3, Code: "c"}}, true},
		{"starts at zero", []entity.Step{{Order: 0, Code: "a"}}, true},
		{"duplicate code", []entity.Step{{Order: 1, Code: "a"}, {Order: 2, Code: "a"}}, true},
		{"empty code", []entity.Step{{Order: 1, Code: " "}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCatalog(tt.steps)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCatalog() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidState) {
				t.Errorf("ValidateCatalog() error = %v, want wrapped %v", err, ErrInvalidState)
			}
		})
	}
}

func TestSortSteps(t *testing.T) {
	steps := []entity.Step{{Order: 3, Code: "c"}, {Order: 1, Code: "a"}, {Order: 2, Code: "b"}}
	SortSteps(steps)

	for i, s := range steps {
		if s.Order != i+1 {
			t.Errorf("steps[%d].Order = %d", i, s.Order)
		}
	}

	if _, ok := FindStep(steps, "b"); !ok {
		t.Error("FindStep() did not find b")
	}
}
