package entity

// WorkflowKind identifies the step catalog an entity is processed with
type WorkflowKind string

// Workflow kinds handled by the portal
const (
	KindBooking      WorkflowKind = "booking"       // réservation d'espaces culturels
	KindLegalDeposit WorkflowKind = "legal_deposit" // dépôt légal
	KindContent      WorkflowKind = "content"       // publication CMS
	KindEditorial    WorkflowKind = "editorial"     // veille éditoriale
)

// String returns the string representation of the kind
func (k WorkflowKind) String() string {
	return string(k)
}

// IsValid checks if the kind is one of the defined constants
func (k WorkflowKind) IsValid() bool {
	switch k {
	case KindBooking, KindLegalDeposit, KindContent, KindEditorial:
		return true
	default:
		return false
	}
}

// AllKinds returns every known workflow kind in display order
func AllKinds() []WorkflowKind {
	return []WorkflowKind{KindBooking, KindLegalDeposit, KindContent, KindEditorial}
}

// StartStepName is recorded as the step name of the start transition.
// It matches no catalog step so it never annotates the stepper.
const StartStepName = "Démarrage"
