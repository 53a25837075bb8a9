package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bnrm/backoffice/internal/domain/entity"
)

// SortSteps orders steps by ascending order in place
func SortSteps(steps []entity.Step) {
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
}

// ValidateCatalog checks that steps are ordered 1..n without gaps and that
// codes are unique and non-empty
func ValidateCatalog(steps []entity.Step) error {
	codes := make(map[string]bool, len(steps))

	for i, step := range steps {
		if step.Order != i+1 {
			return fmt.Errorf("%w: step %q has order %d, expected %d", ErrInvalidState, step.Code, step.Order, i+1)
		}
		if strings.TrimSpace(step.Code) == "" {
			return fmt.Errorf("%w: step %d has an empty code", ErrInvalidState, step.Order)
		}
		if codes[step.Code] {
			return fmt.Errorf("%w: duplicate step code %q", ErrInvalidState, step.Code)
		}
		codes[step.Code] = true
	}

	return nil
}

// FindStep returns the step with the given code
func FindStep(steps []entity.Step, code string) (entity.Step, bool) {
	for _, step := range steps {
		if step.Code == code {
			return step, true
		}
	}
	return entity.Step{}, false
}
