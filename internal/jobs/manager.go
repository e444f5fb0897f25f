package jobs

import (
	"errors"
	"fmt"
	"sync"

	"batch-transcriber/internal/domain"
)

// ErrRunAlreadyActive is returned when starting a second active run.
var ErrRunAlreadyActive = errors.New("run already active")

// Manager tracks the single allowed active batch run and validates its
// state transitions.
type Manager struct {
	mu      sync.RWMutex
	current domain.Run
}

// NewManager creates a manager in idle state.
func NewManager() *Manager {
	return &Manager{
		current: domain.Run{
			State: domain.RunStateIdle,
		},
	}
}

// Start creates a new run and moves it to the input-checking state.
func (m *Manager) Start(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if isActive(m.current.State) {
		return ErrRunAlreadyActive
	}

	m.current = domain.Run{
		ID:    runID,
		State: domain.RunStateCheckingInputs,
	}
	return nil
}

// Transition validates and applies a state transition for the current run.
func (m *Manager) Transition(state domain.RunState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.ID == "" && state != domain.RunStateIdle {
		return fmt.Errorf("cannot transition without an active run")
	}
	if state == m.current.State {
		return nil
	}
	if !isValidTransition(m.current.State, state) {
		return fmt.Errorf("invalid transition: %s -> %s", m.current.State, state)
	}

	m.current.State = state
	return nil
}

// Current returns a snapshot of the current run.
func (m *Manager) Current() domain.Run {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Reset clears run metadata and returns the manager to idle.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = domain.Run{State: domain.RunStateIdle}
}

// IsActive reports whether the current state is a non-terminal run stage.
func (m *Manager) IsActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return isActive(m.current.State)
}

// isActive checks if a state represents an in-flight run.
func isActive(state domain.RunState) bool {
	switch state {
	case domain.RunStateCheckingInputs,
		domain.RunStateConfirmingOverwrite,
		domain.RunStateResolvingDevice,
		domain.RunStateProbing,
		domain.RunStateRunning:
		return true
	default:
		return false
	}
}

// isValidTransition enforces the allowed run state machine edges. Probing is
// skippable: a run resolved to CPU goes straight to Running. Failed is
// reachable from every active state (no files, declined overwrite, run
// error); Succeeded only from Running.
func isValidTransition(from, to domain.RunState) bool {
	switch from {
	case domain.RunStateIdle:
		return to == domain.RunStateCheckingInputs
	case domain.RunStateCheckingInputs:
		return to == domain.RunStateConfirmingOverwrite ||
			to == domain.RunStateResolvingDevice ||
			to == domain.RunStateFailed
	case domain.RunStateConfirmingOverwrite:
		return to == domain.RunStateResolvingDevice || to == domain.RunStateFailed
	case domain.RunStateResolvingDevice:
		return to == domain.RunStateProbing ||
			to == domain.RunStateRunning ||
			to == domain.RunStateFailed
	case domain.RunStateProbing:
		return to == domain.RunStateRunning || to == domain.RunStateFailed
	case domain.RunStateRunning:
		return to == domain.RunStateSucceeded || to == domain.RunStateFailed
	case domain.RunStateSucceeded, domain.RunStateFailed:
		return to == domain.RunStateCheckingInputs || to == domain.RunStateIdle
	default:
		return false
	}
}
