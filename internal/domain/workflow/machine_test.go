package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/bnrm/backoffice/internal/domain/entity"
)

const (
	stateE01      State = "e01"
	stateE02      State = "e02"
	stateClosed   State = "cloturee"
	stateArchived State = "archivee_sans_suite"
)

func newBookingLikeBuilder() StateMachineBuilder {
	builder := NewBuilder()
	builder.Configure(StateNotStarted).
		Permit(entity.DecisionStart, stateE01)
	builder.Configure(stateE01).
		Permit(entity.DecisionValidate, stateE02).
		PermitIf(entity.DecisionReject, stateArchived, RequireComment)
	builder.Configure(stateE02).
		Permit(entity.DecisionClose, stateClosed)
	builder.Terminal(stateClosed).Terminal(stateArchived)
	return builder
}

func TestState_String(t *testing.T) {
	if got := StateNotStarted.String(); got != "not_started" {
		t.Errorf("State.String() = %v, want %v", got, "not_started")
	}
	if got := stateE01.String(); got != "e01" {
		t.Errorf("State.String() = %v, want %v", got, "e01")
	}
}

func TestFromStepCode(t *testing.T) {
	code := "e02"
	if got := FromStepCode(&code); got != stateE02 {
		t.Errorf("FromStepCode() = %v, want %v", got, stateE02)
	}
	if got := FromStepCode(nil); got != StateNotStarted {
		t.Errorf("FromStepCode(nil) = %v, want not started", got)
	}
}

func TestBuilder_Configure(t *testing.T) {
	builder := NewBuilder()

	config := builder.Configure(stateE01)
	if config == nil {
		t.Fatal("Configure() returned nil")
	}

	// Configure same state again should return same config
	config2 := builder.Configure(stateE01)
	if config != config2 {
		t.Error("Configure() should return same config for same state")
	}
}

func TestBuilder_BuildRejectsUnknownInitialState(t *testing.T) {
	_, err := newBookingLikeBuilder().Build(State("e99"))
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("Build() error = %v, want %v", err, ErrInvalidState)
	}
}

func TestBuilder_TerminalPanicsOnConfiguredState(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(stateE01).Permit(entity.DecisionValidate, stateE02)

	defer func() {
		if r := recover(); r == nil {
			t.Error("Terminal() should panic on a state with transitions")
		}
	}()

	builder.Terminal(stateE01)
}

func TestStateConfiguration_PermitPanicsOnNotStartedTarget(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic when targeting the not started state")
		}
	}()

	builder.Configure(stateE01).Permit(entity.DecisionReject, StateNotStarted)
}

func TestStateMachine_Fire(t *testing.T) {
	comment := "salle indisponible"
	blank := "   "

	tests := []struct {
		name     string
		initial  State
		decision entity.Decision
		ctx      context.Context
		want     State
		wantErr  error
	}{
		{
			name:     "start",
			initial:  StateNotStarted,
			decision: entity.DecisionStart,
			ctx:      context.Background(),
			want:     stateE01,
		},
		{
			name:     "advance",
			initial:  stateE01,
			decision: entity.DecisionValidate,
			ctx:      context.Background(),
			want:     stateE02,
		},
		{
			name:     "guarded with comment",
			initial:  stateE01,
			decision: entity.DecisionReject,
			ctx:      WithComment(context.Background(), &comment),
			want:     stateArchived,
		},
		{
			name:     "guarded with blank comment",
			initial:  stateE01,
			decision: entity.DecisionReject,
			ctx:      WithComment(context.Background(), &blank),
			want:     stateE01,
			wantErr:  ErrGuardFailed,
		},
		{
			name:     "decision not offered",
			initial:  stateE02,
			decision: entity.DecisionValidate,
			ctx:      context.Background(),
			want:     stateE02,
			wantErr:  ErrInvalidTransition,
		},
		{
			name:     "terminal state",
			initial:  stateClosed,
			decision: entity.DecisionValidate,
			ctx:      context.Background(),
			want:     stateClosed,
			wantErr:  ErrInvalidTransition,
		},
	}

	builder := newBookingLikeBuilder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine, err := builder.Build(tt.initial)
			if err != nil {
				t.Fatalf("Build() failed: %v", err)
			}

			err = machine.Fire(tt.ctx, tt.decision)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Fire() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Errorf("Fire() failed: %v", err)
			}

			if machine.State() != tt.want {
				t.Errorf("State after Fire() = %v, want %v", machine.State(), tt.want)
			}
		})
	}
}

func TestStateMachine_PermitIf_FirstPassingGuardWins(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(stateE01).
		PermitIf(entity.DecisionValidate, stateE02, RequireComment).
		Permit(entity.DecisionValidate, stateClosed)

	withComment := "ok"
	machine1, _ := builder.Build(stateE01)
	if err := machine1.Fire(WithComment(context.Background(), &withComment), entity.DecisionValidate); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if machine1.State() != stateE02 {
		t.Errorf("State after Fire() = %v, want %v", machine1.State(), stateE02)
	}

	machine2, _ := builder.Build(stateE01)
	if err := machine2.Fire(context.Background(), entity.DecisionValidate); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if machine2.State() != stateClosed {
		t.Errorf("State after Fire() = %v, want %v", machine2.State(), stateClosed)
	}
}

func TestStateMachine_CanFire(t *testing.T) {
	machine, _ := newBookingLikeBuilder().Build(stateE01)

	tests := []struct {
		decision entity.Decision
		expected bool
	}{
		{entity.DecisionValidate, true},
		{entity.DecisionReject, true},
		{entity.DecisionClose, false},
		{entity.DecisionStart, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.decision), func(t *testing.T) {
			if got := machine.CanFire(tt.decision); got != tt.expected {
				t.Errorf("CanFire(%v) = %v, want %v", tt.decision, got, tt.expected)
			}
		})
	}
}

func TestStateMachine_PermittedDecisions(t *testing.T) {
	builder := newBookingLikeBuilder()

	machine, _ := builder.Build(stateE01)
	got := machine.PermittedDecisions()
	want := []entity.Decision{entity.DecisionReject, entity.DecisionValidate}
	if len(got) != len(want) {
		t.Fatalf("PermittedDecisions() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PermittedDecisions()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	terminal, _ := builder.Build(stateArchived)
	if len(terminal.PermittedDecisions()) != 0 {
		t.Errorf("terminal state should permit nothing, got %v", terminal.PermittedDecisions())
	}
	if !terminal.IsTerminal() {
		t.Error("IsTerminal() = false for archived state")
	}
	if machine.IsTerminal() {
		t.Error("IsTerminal() = true for e01")
	}
}

func TestStateMachine_BuildIsolatesInstances(t *testing.T) {
	builder := newBookingLikeBuilder()

	m1, _ := builder.Build(stateE01)
	m2, _ := builder.Build(stateE01)

	if err := m1.Fire(context.Background(), entity.DecisionValidate); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}

	if m2.State() != stateE01 {
		t.Errorf("second machine moved to %v", m2.State())
	}

	// Configuring after Build must not leak into built machines
	builder.Configure(stateE01).Permit(entity.DecisionFollowUp, stateE01)
	if m2.CanFire(entity.DecisionFollowUp) {
		t.Error("built machine picked up a later configuration")
	}
}
