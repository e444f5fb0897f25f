package jobs

import (
	"testing"

	"batch-transcriber/internal/domain"
)

// TestManagerLifecycle verifies normal progression to succeeded state.
func TestManagerLifecycle(t *testing.T) {
	m := NewManager()
	if m.IsActive() {
		t.Fatal("new manager should be idle")
	}

	if err := m.Start("run-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !m.IsActive() {
		t.Fatal("expected active after start")
	}

	for _, state := range []domain.RunState{
		domain.RunStateConfirmingOverwrite,
		domain.RunStateResolvingDevice,
		domain.RunStateProbing,
		domain.RunStateRunning,
		domain.RunStateSucceeded,
	} {
		if err := m.Transition(state); err != nil {
			t.Fatalf("transition to %s: %v", state, err)
		}
	}

	current := m.Current()
	if current.State != domain.RunStateSucceeded {
		t.Fatalf("current state = %s, want succeeded", current.State)
	}
	if m.IsActive() {
		t.Fatal("terminal state should not be active")
	}
}

// TestManagerSkipsOptionalStates verifies CPU runs can skip probing and
// runs without existing outputs can skip the overwrite gate.
func TestManagerSkipsOptionalStates(t *testing.T) {
	m := NewManager()
	if err := m.Start("run-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	for _, state := range []domain.RunState{
		domain.RunStateResolvingDevice,
		domain.RunStateRunning,
		domain.RunStateSucceeded,
	} {
		if err := m.Transition(state); err != nil {
			t.Fatalf("transition to %s: %v", state, err)
		}
	}
}

// TestManagerRejectsInvalidTransition checks state machine constraints.
func TestManagerRejectsInvalidTransition(t *testing.T) {
	m := NewManager()
	if err := m.Start("run-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := m.Transition(domain.RunStateSucceeded); err == nil {
		t.Fatal("expected invalid transition error")
	}
}

// TestManagerFailableFromEveryActiveState checks Failed reachability.
func TestManagerFailableFromEveryActiveState(t *testing.T) {
	paths := [][]domain.RunState{
		{},
		{domain.RunStateConfirmingOverwrite},
		{domain.RunStateResolvingDevice},
		{domain.RunStateResolvingDevice, domain.RunStateProbing},
		{domain.RunStateResolvingDevice, domain.RunStateRunning},
	}

	for _, path := range paths {
		m := NewManager()
		if err := m.Start("run-1"); err != nil {
			t.Fatalf("start: %v", err)
		}
		for _, state := range path {
			if err := m.Transition(state); err != nil {
				t.Fatalf("transition to %s: %v", state, err)
			}
		}
		if err := m.Transition(domain.RunStateFailed); err != nil {
			t.Fatalf("fail from %s: %v", m.Current().State, err)
		}
	}
}

// TestManagerRejectsConcurrentRuns checks the single-run constraint.
func TestManagerRejectsConcurrentRuns(t *testing.T) {
	m := NewManager()
	if err := m.Start("run-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Start("run-2"); err != ErrRunAlreadyActive {
		t.Fatalf("second start error = %v, want %v", err, ErrRunAlreadyActive)
	}

	if err := m.Transition(domain.RunStateFailed); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if err := m.Start("run-2"); err != nil {
		t.Fatalf("start after terminal state: %v", err)
	}
}

// TestManagerReset checks reset returns to a fresh idle state.
func TestManagerReset(t *testing.T) {
	m := NewManager()
	if err := m.Start("run-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	m.Reset()
	current := m.Current()
	if current.State != domain.RunStateIdle || current.ID != "" {
		t.Fatalf("after reset: %+v", current)
	}
}
