package cli

import (
	"errors"
	"fmt"
)

// ExitError carries the exit code of a failed command so RunE functions
// never call os.Exit themselves.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewExitError creates an ExitError with the given code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

// IsExitError extracts the exit code of err, if it carries one.
func IsExitError(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

var errLocalOnly = errors.New("command requires the local backend")
