package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a state transition is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not part of the machine
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when a guard condition fails
	ErrGuardFailed = errors.New("guard condition failed")

	// ErrNotFound is returned when a workflow kind, catalog or entity is missing
	ErrNotFound = errors.New("not found")

	// ErrSubmissionInFlight is returned when an entity already has a pending submission
	ErrSubmissionInFlight = errors.New("submission already in flight")

	// ErrViewClosed is returned by a workflow view used after Close
	ErrViewClosed = errors.New("workflow view closed")
)

// ValidationError is a local refusal raised before anything is sent
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// BusinessRejection is a transition refused by the server's domain rules.
// Message is shown to the user verbatim.
type BusinessRejection struct {
	Message string
}

func (e *BusinessRejection) Error() string {
	return e.Message
}

// TransientFailure wraps a transport or infrastructure error. The operation
// may be retried.
type TransientFailure struct {
	Op  string
	Err error
}

func (e *TransientFailure) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientFailure) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err carries a TransientFailure
func IsTransient(err error) bool {
	var tf *TransientFailure
	return errors.As(err, &tf)
}

// ErrVersionConflict is returned when a state was changed by a concurrent transition
var ErrVersionConflict = errors.New("workflow state version conflict")
