package domain

// RunState tracks the batch run state machine for a single transcription run.
type RunState string

const (
	RunStateIdle                RunState = "idle"
	RunStateCheckingInputs      RunState = "checking_inputs"
	RunStateConfirmingOverwrite RunState = "confirming_overwrite"
	RunStateResolvingDevice     RunState = "resolving_device"
	RunStateProbing             RunState = "probing"
	RunStateRunning             RunState = "running"
	RunStateSucceeded           RunState = "succeeded"
	RunStateFailed              RunState = "failed"
)

// ProgressKind classifies transcription progress events.
type ProgressKind string

const (
	ProgressFileStart ProgressKind = "file_start"
	ProgressSegment   ProgressKind = "segment"
	ProgressFileDone  ProgressKind = "file_done"
)

// ProgressEvent is one transcription progress notification.
// Overall is ((Index-1)+fileFraction)/Total and is monotonically
// non-decreasing within one run; a device-fallback retry restarts the
// sequence from zero.
type ProgressEvent struct {
	Kind    ProgressKind `json:"kind"`
	File    string       `json:"file"`
	Index   int          `json:"index"`
	Total   int          `json:"total"`
	Overall float64      `json:"overall"`
}

// RunReport is the terminal outcome of one batch run.
type RunReport struct {
	State       RunState `json:"state"`
	DeviceLabel string   `json:"deviceLabel"`
	RuntimeNote string   `json:"runtimeNote,omitempty"`
	Outputs     []string `json:"outputs,omitempty"`
	Error       string   `json:"error,omitempty"`
	Hint        string   `json:"hint,omitempty"`
}

// Run stores the current run identity and lifecycle state.
type Run struct {
	ID    string   `json:"id"`
	State RunState `json:"state"`
}
