package workflow

// State is the position of an entity in a workflow: a step code, a terminal
// code, or StateNotStarted
type State string

// StateNotStarted is the implicit initial state of every entity
const StateNotStarted State = ""

// String returns the string representation of the state
func (s State) String() string {
	if s == StateNotStarted {
		return "not_started"
	}
	return string(s)
}

// FromStepCode converts a nullable step code into a state
func FromStepCode(code *string) State {
	if code == nil {
		return StateNotStarted
	}
	return State(*code)
}
