package whisper

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"batch-transcriber/internal/domain"
)

// commandRunner abstracts short process executions for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// execRunner executes commands via os/exec and captures stdout.
type execRunner struct{}

// Run executes one command and returns its stdout.
func (execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return stdout.String(), err
	}
	return stdout.String(), nil
}

// CLIFactory builds engines that shell out to a whisper-ctranslate2 style
// binary and read timestamped segment lines from its stdout.
type CLIFactory struct {
	whisperPath string
	ffprobePath string
	smiPath     string
	runner      commandRunner
	lookPath    func(string) (string, error)
}

// NewCLIFactory creates the production factory with OS dependencies.
func NewCLIFactory() *CLIFactory {
	return &CLIFactory{
		whisperPath: "whisper-ctranslate2",
		ffprobePath: "ffprobe",
		smiPath:     "nvidia-smi",
		runner:      execRunner{},
		lookPath:    exec.LookPath,
	}
}

// NewCLIFactoryForTests creates a factory with injectable dependencies.
func NewCLIFactoryForTests(
	whisperPath string,
	ffprobePath string,
	smiPath string,
	runner commandRunner,
	lookPath func(string) (string, error),
) *CLIFactory {
	return &CLIFactory{
		whisperPath: whisperPath,
		ffprobePath: ffprobePath,
		smiPath:     smiPath,
		runner:      runner,
		lookPath:    lookPath,
	}
}

// New validates the binding and returns a CLI-backed engine. Construction
// fails when the transcriber binary is absent, the model directory is not a
// usable snapshot, or a CUDA device is requested without one present. The
// runtime probe relies on these checks as its feasibility gate.
func (f *CLIFactory) New(modelDir string, device Device, precision domain.Precision) (Engine, error) {
	if _, err := f.lookPath(f.whisperPath); err != nil {
		return nil, fmt.Errorf("transcriber binary not found: %s", f.whisperPath)
	}

	for _, name := range []string{"config.json", "vocabulary.txt", "model.bin"} {
		if _, err := os.Stat(filepath.Join(modelDir, name)); err != nil {
			return nil, fmt.Errorf("model snapshot is incomplete: missing %s in %s", name, modelDir)
		}
	}

	if device == DeviceCUDA {
		count, err := f.CUDADeviceCount()
		if err != nil {
			return nil, fmt.Errorf("query cuda devices: %w", err)
		}
		if count == 0 {
			return nil, fmt.Errorf("no cuda device available")
		}
	}

	return &cliEngine{
		factory:   f,
		modelDir:  modelDir,
		device:    device,
		precision: precision,
	}, nil
}

// CUDADeviceCount counts GPUs reported by nvidia-smi. A missing tool means
// zero devices, not an error.
func (f *CLIFactory) CUDADeviceCount() (int, error) {
	if _, err := f.lookPath(f.smiPath); err != nil {
		return 0, nil
	}

	out, err := f.runner.Run(context.Background(), f.smiPath, "--list-gpus")
	if err != nil {
		return 0, nil
	}

	count := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "GPU ") {
			count++
		}
	}
	return count, nil
}

// cliEngine runs one transcriber process per Transcribe call.
type cliEngine struct {
	factory   *CLIFactory
	modelDir  string
	device    Device
	precision domain.Precision
}

// Transcribe probes the media duration, starts the transcriber process, and
// returns a stream that parses segments from its stdout as they appear.
func (e *cliEngine) Transcribe(ctx context.Context, mediaPath string) (Transcription, error) {
	duration, err := e.probeDuration(ctx, mediaPath)
	if err != nil {
		return Transcription{}, err
	}

	args := buildTranscribeArgs(e.modelDir, mediaPath, e.device, e.precision)
	cmd := exec.CommandContext(ctx, e.factory.whisperPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Transcription{}, fmt.Errorf("open transcriber stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return Transcription{}, fmt.Errorf("start transcriber: %w", err)
	}

	return Transcription{
		Duration: duration,
		Segments: newLineStream(stdout, cmd.Wait),
	}, nil
}

// Close releases the engine. The CLI adapter holds no persistent process.
func (e *cliEngine) Close() error {
	return nil
}

// probeDuration reads the media duration in seconds via ffprobe.
func (e *cliEngine) probeDuration(ctx context.Context, mediaPath string) (float64, error) {
	out, err := e.factory.runner.Run(ctx, e.factory.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		mediaPath,
	)
	if err != nil {
		return 0, fmt.Errorf("probe media duration: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("parse media duration %q: %w", strings.TrimSpace(out), err)
	}
	return duration, nil
}

// buildTranscribeArgs builds transcriber CLI args with VAD filtering on.
func buildTranscribeArgs(modelDir, mediaPath string, device Device, precision domain.Precision) []string {
	return []string{
		mediaPath,
		"--model_directory", modelDir,
		"--device", string(device),
		"--compute_type", string(precision),
		"--vad_filter", "True",
		"--local_files_only", "True",
	}
}

// lineStream lazily parses timestamped segment lines from a reader.
type lineStream struct {
	scanner *bufio.Scanner
	closer  func() error
	err     error
	done    bool
}

// newLineStream wraps a transcriber stdout reader. closer is invoked once
// the stream is exhausted (normally cmd.Wait).
func newLineStream(r io.Reader, closer func() error) *lineStream {
	return &lineStream{
		scanner: bufio.NewScanner(r),
		closer:  closer,
	}
}

// Next returns the next parsed segment. Unparseable lines are skipped.
func (s *lineStream) Next() (Segment, bool) {
	if s.done {
		return Segment{}, false
	}

	for s.scanner.Scan() {
		segment, ok := parseSegmentLine(s.scanner.Text())
		if ok {
			return segment, true
		}
	}

	s.done = true
	if err := s.scanner.Err(); err != nil {
		s.err = err
	} else if s.closer != nil {
		if err := s.closer(); err != nil {
			s.err = fmt.Errorf("transcriber exited: %w", err)
		}
	}
	return Segment{}, false
}

// Err reports a stream failure after Next returned false.
func (s *lineStream) Err() error {
	return s.err
}

// parseSegmentLine parses "[mm:ss.mmm --> mm:ss.mmm] text" lines, with an
// optional hours part in either timestamp.
func parseSegmentLine(line string) (Segment, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "[") {
		return Segment{}, false
	}
	end := strings.Index(trimmed, "]")
	if end < 0 {
		return Segment{}, false
	}

	window := trimmed[1:end]
	parts := strings.Split(window, "-->")
	if len(parts) != 2 {
		return Segment{}, false
	}

	start, err := parseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return Segment{}, false
	}
	stop, err := parseTimestamp(strings.TrimSpace(parts[1]))
	if err != nil {
		return Segment{}, false
	}

	return Segment{
		Start: start,
		End:   stop,
		Text:  strings.TrimSpace(trimmed[end+1:]),
	}, true
}

// parseTimestamp converts "hh:mm:ss.mmm" or "mm:ss.mmm" to seconds.
func parseTimestamp(raw string) (float64, error) {
	fields := strings.Split(raw, ":")
	if len(fields) < 2 || len(fields) > 3 {
		return 0, fmt.Errorf("malformed timestamp: %q", raw)
	}

	var total float64
	for _, field := range fields {
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed timestamp: %q", raw)
		}
		total = total*60 + value
	}
	return total, nil
}
