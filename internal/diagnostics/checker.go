package diagnostics

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"batch-transcriber/internal/domain"
	"batch-transcriber/internal/models"
)

// Checker validates external tools and required filesystem paths before a
// batch run.
type Checker struct {
	lookPath   func(string) (string, error)
	stat       func(string) (os.FileInfo, error)
	readDir    func(string) ([]os.DirEntry, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		stat:       os.Stat,
		readDir:    os.ReadDir,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkTool("whisper-ctranslate2"),
		c.checkTool("ffmpeg"),
		c.checkTool("ffprobe"),
		c.checkModel(settings.ModelsDir, settings.ModelID),
		c.checkInputDir(settings.InputDir),
		c.checkOutputDir(settings.OutputDir),
		c.checkProxy(settings.Proxy),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkTool verifies a required CLI executable is on PATH.
func (c *Checker) checkTool(name string) domain.DiagnosticItem {
	path, err := c.lookPath(name)
	if err != nil {
		return domain.DiagnosticItem{
			ID:      "tool_" + name,
			Name:    name,
			Status:  domain.DiagnosticStatusFail,
			Message: fmt.Sprintf("Tool not found in PATH: %s", name),
			Hint:    "Install it and ensure the binary is available on PATH before starting a batch.",
		}
	}

	return domain.DiagnosticItem{
		ID:      "tool_" + name,
		Name:    name,
		Status:  domain.DiagnosticStatusPass,
		Message: fmt.Sprintf("Found at %s", path),
	}
}

// checkModel validates the selected model variant has a complete snapshot.
func (c *Checker) checkModel(modelsDir, modelID string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "model_snapshot",
		Name: "Model snapshot",
	}

	variant, ok := models.VariantByID(modelID)
	if !ok {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Unknown model variant: %q", modelID)
		item.Hint = "Select one of the supported model sizes in settings."
		return item
	}

	if strings.TrimSpace(modelsDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Models directory is empty."
		item.Hint = "Set a directory where downloaded model snapshots are stored."
		return item
	}

	snapshotDir := models.PathFor(modelsDir, variant)
	var missing []string
	for _, name := range models.RequiredFiles {
		if _, err := c.stat(filepath.Join(snapshotDir, name)); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Model %q is missing files: %s", variant.ID, strings.Join(missing, ", "))
		item.Hint = "Download the model before starting a batch."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Model %q is ready at %s", variant.ID, snapshotDir)
	return item
}

// checkInputDir validates the input directory exists and is readable.
func (c *Checker) checkInputDir(inputDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "input_dir",
		Name: "Input directory",
	}

	if strings.TrimSpace(inputDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Input directory is empty."
		item.Hint = "Set the directory that holds the media files to transcribe."
		return item
	}

	entries, err := c.readDir(inputDir)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		if errors.Is(err, fs.ErrNotExist) {
			item.Message = fmt.Sprintf("Input directory does not exist: %s", inputDir)
		} else {
			item.Message = fmt.Sprintf("Cannot read input directory: %s", inputDir)
		}
		item.Hint = "Create the directory and place media files in it."
		return item
	}

	files := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			files++
		}
	}
	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Readable directory with %d files: %s", files, inputDir)
	return item
}

// checkOutputDir validates output directory existence and write access.
func (c *Checker) checkOutputDir(outputDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "output_dir",
		Name: "Output directory",
	}

	if strings.TrimSpace(outputDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Output directory is empty."
		item.Hint = "Set an output directory where transcript files can be written."
		return item
	}

	if err := c.mkdirAll(outputDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create output directory: %s", outputDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(outputDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Output directory is not writable: %s", outputDir)
		item.Hint = "Choose a writable directory for transcript export."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", outputDir)
	return item
}

// checkProxy validates that an enabled proxy has enough detail to build a URL.
func (c *Checker) checkProxy(proxy domain.ProxyConfig) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "proxy",
		Name: "Proxy",
	}

	if !proxy.Enabled {
		item.Status = domain.DiagnosticStatusPass
		item.Message = "Proxy is disabled."
		return item
	}

	if strings.TrimSpace(proxy.Host) == "" || strings.TrimSpace(proxy.Port) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Proxy is enabled but host or port is missing."
		item.Hint = "Fill in the proxy host and port, or disable the proxy."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Proxy configured: %s:%s", proxy.Host, proxy.Port)
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	stat func(string) (os.FileInfo, error),
	readDir func(string) ([]os.DirEntry, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		stat:       stat,
		readDir:    readDir,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
