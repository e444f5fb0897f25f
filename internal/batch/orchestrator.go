// Package batch sequences one transcription run: input checks, overwrite
// confirmation, device resolution, feasibility probing, pipeline execution,
// and the single CPU retry after an accelerator failure. It is the only
// component external callers invoke for batch runs.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"batch-transcriber/internal/domain"
	"batch-transcriber/internal/jobs"
	"batch-transcriber/internal/runlock"
	"batch-transcriber/internal/transcribe"
	"batch-transcriber/internal/whisper"
)

// DecisionProvider answers the overwrite confirmation. The call blocks the
// run until a decision is made; it is the run's only designed early-exit
// point.
type DecisionProvider interface {
	ConfirmOverwrite(files []string) bool
}

// AlwaysConfirm is a DecisionProvider that approves every overwrite.
type AlwaysConfirm struct{}

// ConfirmOverwrite approves unconditionally.
func (AlwaysConfirm) ConfirmOverwrite([]string) bool { return true }

// pipelineRunner isolates the transcription pipeline behind an interface.
type pipelineRunner interface {
	Run(ctx context.Context, req transcribe.Request) ([]string, error)
}

// Request describes one batch run.
type Request struct {
	RunID      string
	ModelDir   string
	InputDir   string
	OutputDir  string
	Preference domain.DevicePreference
	Capability domain.HardwareCapability
	OnState    func(domain.RunState)
	OnProgress func(domain.ProgressEvent)
}

// Orchestrator composes the probe, pipeline, and decision provider into the
// batch run state machine. It holds no run-to-run state: every Run starts
// fresh from idle.
type Orchestrator struct {
	pipeline   pipelineRunner
	probe      func(modelDir string, device whisper.Device, precision domain.Precision) (bool, string)
	decisions  DecisionProvider
	listInputs func(dir string) ([]string, error)
	lockDir    func(dir string) (runlock.Lock, error)
}

// New builds an orchestrator over an engine factory and decision provider.
func New(factory whisper.Factory, decisions DecisionProvider) *Orchestrator {
	return &Orchestrator{
		pipeline: transcribe.NewPipeline(factory),
		probe: func(modelDir string, device whisper.Device, precision domain.Precision) (bool, string) {
			return transcribe.Probe(factory, modelDir, device, precision)
		},
		decisions:  decisions,
		listInputs: transcribe.ListInputFiles,
		lockDir:    runlock.Acquire,
	}
}

// NewForTests builds an orchestrator with injectable dependencies.
func NewForTests(
	pipeline pipelineRunner,
	probe func(modelDir string, device whisper.Device, precision domain.Precision) (bool, string),
	decisions DecisionProvider,
	listInputs func(dir string) ([]string, error),
	lockDir func(dir string) (runlock.Lock, error),
) *Orchestrator {
	return &Orchestrator{
		pipeline:   pipeline,
		probe:      probe,
		decisions:  decisions,
		listInputs: listInputs,
		lockDir:    lockDir,
	}
}

// Run executes one batch and returns the terminal report. All failures are
// absorbed into the report; the caller's process never terminates from a run
// error.
func (o *Orchestrator) Run(ctx context.Context, req Request) (report domain.RunReport) {
	manager := jobs.NewManager()
	if err := manager.Start(req.RunID); err != nil {
		return domain.RunReport{State: domain.RunStateFailed, Error: err.Error()}
	}

	defer func() {
		if r := recover(); r != nil {
			report = o.fail(manager, req, fmt.Sprintf("unexpected failure: %v", r), "")
		}
	}()

	setState(manager, req.OnState, domain.RunStateCheckingInputs)

	files, err := o.listInputs(req.InputDir)
	if err != nil {
		return o.fail(manager, req, err.Error(), "Check that the input directory exists and is readable.")
	}
	if len(files) == 0 {
		return o.fail(manager, req, "no media files found in input directory", "Add audio or video files to the input directory and run again.")
	}

	if existing := existingOutputs(files, req.OutputDir); len(existing) > 0 {
		setState(manager, req.OnState, domain.RunStateConfirmingOverwrite)
		if !o.decisions.ConfirmOverwrite(existing) {
			return o.fail(manager, req, "run cancelled: existing transcripts kept", "")
		}
	}

	setState(manager, req.OnState, domain.RunStateResolvingDevice)
	device, precision := resolveDevice(req.Preference, req.Capability)

	note := ""
	if device == whisper.DeviceCUDA {
		setState(manager, req.OnState, domain.RunStateProbing)
		ok, detail := o.probe(req.ModelDir, whisper.DeviceCUDA, domain.PrecisionFloat16)
		if !ok {
			device = whisper.DeviceCPU
			precision = domain.PrecisionInt8
			note = "GPU probe failed, using CPU: " + detail
		}
	}

	setState(manager, req.OnState, domain.RunStateRunning)

	lock, err := o.lockDir(req.OutputDir)
	if err != nil {
		return o.fail(manager, req, err.Error(), "Another run may be writing to this output directory; wait for it to finish.")
	}
	defer func() {
		_ = lock.Release()
	}()

	outputs, runErr := o.pipeline.Run(ctx, transcribe.Request{
		ModelDir:   req.ModelDir,
		Inputs:     files,
		OutputDir:  req.OutputDir,
		Device:     device,
		Precision:  precision,
		OnProgress: req.OnProgress,
	})
	if runErr != nil && device == whisper.DeviceCUDA {
		// One whole-batch retry on CPU. Already-completed files are redone;
		// progress fractions restart from zero.
		device = whisper.DeviceCPU
		precision = domain.PrecisionInt8
		note = appendNote(note, "GPU run failed, retried whole batch on CPU: "+runErr.Error())
		outputs, runErr = o.pipeline.Run(ctx, transcribe.Request{
			ModelDir:   req.ModelDir,
			Inputs:     files,
			OutputDir:  req.OutputDir,
			Device:     device,
			Precision:  precision,
			OnProgress: req.OnProgress,
		})
	}
	if runErr != nil {
		failed := o.fail(manager, req, runErr.Error(), classifyHint(runErr))
		failed.DeviceLabel = deviceLabel(device, precision)
		failed.RuntimeNote = note
		return failed
	}

	setState(manager, req.OnState, domain.RunStateSucceeded)
	return domain.RunReport{
		State:       domain.RunStateSucceeded,
		DeviceLabel: deviceLabel(device, precision),
		RuntimeNote: note,
		Outputs:     outputs,
	}
}

// fail records the terminal failed state and builds the report.
func (o *Orchestrator) fail(manager *jobs.Manager, req Request, message, hint string) domain.RunReport {
	setState(manager, req.OnState, domain.RunStateFailed)
	return domain.RunReport{
		State: domain.RunStateFailed,
		Error: message,
		Hint:  hint,
	}
}

// setState applies a validated transition and notifies the caller.
func setState(manager *jobs.Manager, onState func(domain.RunState), state domain.RunState) {
	if err := manager.Transition(state); err != nil {
		return
	}
	if onState != nil {
		onState(state)
	}
}

// resolveDevice maps a preference and detected capability to a concrete
// device/precision pair.
func resolveDevice(preference domain.DevicePreference, capability domain.HardwareCapability) (whisper.Device, domain.Precision) {
	useGPU := preference == domain.DeviceGPU ||
		(preference == domain.DeviceAuto && capability.Accelerator == domain.AcceleratorGPU)
	if useGPU {
		return whisper.DeviceCUDA, domain.PrecisionFloat16
	}
	return whisper.DeviceCPU, domain.PrecisionInt8
}

// existingOutputs returns input names whose transcript artifact already
// exists in the output directory.
func existingOutputs(inputs []string, outputDir string) []string {
	var existing []string
	for _, input := range inputs {
		name := filepath.Base(input)
		if _, err := os.Stat(filepath.Join(outputDir, name+".txt")); err == nil {
			existing = append(existing, name)
		}
	}
	return existing
}

// classifyHint maps known failure shapes to a remediation string.
func classifyHint(err error) string {
	message := err.Error()
	switch {
	case strings.Contains(message, "snapshot is incomplete"), strings.Contains(message, "model"):
		return "Verify the model is fully downloaded, or download it again."
	case strings.Contains(message, "not found"):
		return "Install the missing tool and ensure it is on PATH."
	default:
		return ""
	}
}

// deviceLabel renders the device/precision pair for reports.
func deviceLabel(device whisper.Device, precision domain.Precision) string {
	if device == whisper.DeviceCUDA {
		return fmt.Sprintf("GPU (%s)", precision)
	}
	return fmt.Sprintf("CPU (%s)", precision)
}

// appendNote joins runtime notes with a separator.
func appendNote(existing, added string) string {
	if existing == "" {
		return added
	}
	return existing + "; " + added
}
