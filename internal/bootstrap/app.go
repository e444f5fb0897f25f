package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"batch-transcriber/internal/batch"
	"batch-transcriber/internal/config"
	"batch-transcriber/internal/diagnostics"
	"batch-transcriber/internal/domain"
	"batch-transcriber/internal/hardware"
	"batch-transcriber/internal/hub"
	"batch-transcriber/internal/jobs"
	"batch-transcriber/internal/models"
	"batch-transcriber/internal/whisper"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// App wires configuration, hardware detection, model acquisition, batch
// orchestration, and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Capability  domain.HardwareCapability
	Diagnostics domain.DiagnosticReport

	assets   fs.FS
	checker  *diagnostics.Checker
	factory  whisper.Factory
	acquirer *models.Acquirer
	runner   batchRunner

	mu             sync.Mutex
	activeRunID    string
	cancel         context.CancelFunc
	downloadActive bool
	events         *jobs.EventBus
	runtimeCtx     context.Context
}

// batchRunner isolates the orchestrator behind an interface.
type batchRunner interface {
	Run(ctx context.Context, req batch.Request) domain.RunReport
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}

	store := config.NewJSONStore(filepath.Join(homeDir, ".batch-transcriber", "settings.json"))
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if err := config.EnsureDirs(settings); err != nil {
		return nil, fmt.Errorf("prepare working directories: %w", err)
	}

	factory := whisper.NewCLIFactory()
	capability := hardware.NewProbe(factory.CUDADeviceCount, gpuNameViaSMI).Detect()

	checker := diagnostics.NewChecker()
	report := checker.Run(settings)

	return &App{
		Settings:    settings,
		Store:       store,
		Capability:  capability,
		Diagnostics: report,
		assets:      assets,
		checker:     checker,
		factory:     factory,
		acquirer:    models.NewAcquirer(hub.NewClient()),
		events:      jobs.NewEventBus(1000),
	}, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "Batch Transcriber",
		Width:       1180,
		Height:      780,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown: func(ctx context.Context) {
			a.mu.Lock()
			defer a.mu.Unlock()
			a.runtimeCtx = nil
		},
		Bind: []interface{}{a},
	})
}

// Startup stores Wails runtime context for push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// GetHardware returns the capability detected at startup.
func (a *App) GetHardware() domain.HardwareCapability {
	return a.Capability
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	return a.Diagnostics
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, then refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := config.Normalize(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = normalized
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(normalized)
	}
	a.mu.Unlock()

	return normalized, nil
}

// RefreshDiagnostics reloads settings and reruns dependency checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.Diagnostics = a.checker.Run(settings)
	report := a.Diagnostics
	a.mu.Unlock()
	return report, nil
}

// ListModelVariants returns the fixed catalog with on-disk readiness applied.
func (a *App) ListModelVariants() ([]domain.ModelVariant, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	variants := models.Variants()
	models.MarkReadiness(settings.ModelsDir, variants)
	return variants, nil
}

// StartModelDownload fetches one model snapshot in the background and streams
// progress through the event bus. Only one download may run at a time.
func (a *App) StartModelDownload(modelID string) error {
	variant, ok := models.VariantByID(modelID)
	if !ok {
		return fmt.Errorf("unknown model variant: %q", modelID)
	}

	settings, err := a.Store.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	if a.downloadActive {
		a.mu.Unlock()
		return fmt.Errorf("a model download is already running")
	}
	a.downloadActive = true
	a.mu.Unlock()

	runID := uuid.NewString()
	proxyURL := config.ResolveProxyURL(settings.Proxy)

	go a.runModelDownload(runID, settings.ModelsDir, variant, proxyURL)
	return nil
}

// runModelDownload drives one snapshot acquisition and maps its outcome to
// events.
func (a *App) runModelDownload(runID, modelsDir string, variant domain.ModelVariant, proxyURL string) {
	defer func() {
		a.mu.Lock()
		a.downloadActive = false
		a.mu.Unlock()
	}()

	a.publishEvent(jobs.Event{
		RunID:   runID,
		Type:    jobs.EventTypeState,
		Message: fmt.Sprintf("Downloading model %q", variant.ID),
	})

	ready, err := a.acquirer.Acquire(context.Background(), modelsDir, variant, proxyURL,
		func(sample domain.DownloadProgressSample) {
			a.publishEvent(jobs.Event{
				RunID:    runID,
				Type:     jobs.EventTypeDownload,
				Download: &sample,
			})
		})

	switch {
	case err != nil:
		a.publishEvent(jobs.Event{
			RunID:   runID,
			Type:    jobs.EventTypeError,
			Message: fmt.Sprintf("Model download failed: %v", err),
		})
	case !ready:
		a.publishEvent(jobs.Event{
			RunID:   runID,
			Type:    jobs.EventTypeError,
			Message: fmt.Sprintf("Model %q is still incomplete after download", variant.ID),
		})
	default:
		a.publishEvent(jobs.Event{
			RunID:   runID,
			Type:    jobs.EventTypeResult,
			Message: fmt.Sprintf("Model %q is ready", variant.ID),
		})
	}
}

// StartBatch launches a batch run in the background using the persisted
// settings and returns the run identity immediately.
func (a *App) StartBatch() (domain.Run, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Run{}, fmt.Errorf("load settings: %w", err)
	}

	variant, ok := models.VariantByID(settings.ModelID)
	if !ok {
		return domain.Run{}, fmt.Errorf("unknown model variant: %q", settings.ModelID)
	}

	a.mu.Lock()
	if a.activeRunID != "" {
		a.mu.Unlock()
		return domain.Run{}, jobs.ErrRunAlreadyActive
	}
	runID := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	a.activeRunID = runID
	a.cancel = cancel
	a.Settings = settings
	a.mu.Unlock()

	go a.runBatch(ctx, runID, settings, variant)

	return domain.Run{ID: runID, State: domain.RunStateCheckingInputs}, nil
}

// CancelBatch cancels the currently running batch, if any.
func (a *App) CancelBatch() error {
	a.mu.Lock()
	cancel := a.cancel
	a.mu.Unlock()

	if cancel == nil {
		return fmt.Errorf("no batch run is active")
	}
	cancel()
	return nil
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// runBatch executes the orchestrator and maps outcomes to events.
func (a *App) runBatch(ctx context.Context, runID string, settings domain.Settings, variant domain.ModelVariant) {
	runner := a.runner
	if runner == nil {
		runner = batch.New(a.factory, &dialogDecisions{app: a})
	}

	report := runner.Run(ctx, batch.Request{
		RunID:      runID,
		ModelDir:   models.PathFor(settings.ModelsDir, variant),
		InputDir:   settings.InputDir,
		OutputDir:  settings.OutputDir,
		Preference: settings.Device,
		Capability: a.Capability,
		OnState: func(state domain.RunState) {
			a.publishEvent(jobs.Event{
				RunID: runID,
				Type:  jobs.EventTypeState,
				State: state,
			})
		},
		OnProgress: func(event domain.ProgressEvent) {
			a.publishEvent(jobs.Event{
				RunID:    runID,
				Type:     jobs.EventTypeProgress,
				Progress: &event,
			})
		},
	})

	a.publishEvent(jobs.Event{
		RunID:   runID,
		Type:    jobs.EventTypeResult,
		State:   report.State,
		Message: report.Error,
		Report:  &report,
	})
	a.clearActiveRun(runID)
}

// OpenOutputFolder opens the given path (or configured output dir) in file manager.
func (a *App) OpenOutputFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		a.mu.Lock()
		target = a.Settings.OutputDir
		a.mu.Unlock()
	}
	if target == "" {
		return fmt.Errorf("output path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return openInFileManager(openPath)
}

// PickInputDirectory opens a native directory picker for the media source.
func (a *App) PickInputDirectory() (string, error) {
	return a.pickDirectory("Select input directory")
}

// PickOutputDirectory opens a native directory picker for transcript exports.
func (a *App) PickOutputDirectory() (string, error) {
	return a.pickDirectory("Select output directory")
}

// PickModelsDirectory opens a native directory picker for model storage.
func (a *App) PickModelsDirectory() (string, error) {
	return a.pickDirectory("Select models directory")
}

// pickDirectory opens a directory dialog with the given title.
func (a *App) pickDirectory(title string) (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenDirectoryDialog(ctx, wailsruntime.OpenDialogOptions{
		Title: title,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// publishEvent stores event history and emits runtime push notifications.
func (a *App) publishEvent(event jobs.Event) {
	published := a.events.Publish(event)

	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "run:event", published)
	}
}

// clearActiveRun clears cancellation handles for completed run IDs.
func (a *App) clearActiveRun(runID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.activeRunID == runID {
		a.activeRunID = ""
		a.cancel = nil
	}
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// dialogDecisions confirms transcript overwrites with a native dialog. When
// no UI runtime is attached the overwrite is approved, matching headless use.
type dialogDecisions struct {
	app *App
}

// ConfirmOverwrite asks the user whether existing transcripts may be replaced.
func (d *dialogDecisions) ConfirmOverwrite(files []string) bool {
	ctx, err := d.app.runtimeContext()
	if err != nil {
		return true
	}

	choice, err := wailsruntime.MessageDialog(ctx, wailsruntime.MessageDialogOptions{
		Type:    wailsruntime.QuestionDialog,
		Title:   "Overwrite transcripts?",
		Message: fmt.Sprintf("Transcripts already exist for %d files:\n%s\n\nOverwrite them?", len(files), strings.Join(files, "\n")),
		Buttons: []string{"Yes", "No"},
	})
	if err != nil {
		return false
	}
	return choice == "Yes"
}

// gpuNameViaSMI returns the first GPU name reported by nvidia-smi.
func gpuNameViaSMI() (string, error) {
	out, err := exec.Command("nvidia-smi", "--query-gpu=name", "--format=csv,noheader").Output()
	if err != nil {
		return "", err
	}
	name, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(name), nil
}

// openInFileManager launches the platform file explorer for the provided path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
