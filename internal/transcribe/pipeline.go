package transcribe

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"batch-transcriber/internal/domain"
	"batch-transcriber/internal/whisper"
)

// durationFloor guards the per-segment progress division when an engine
// reports an unknown or zero media duration.
const durationFloor = 1e-6

// Request contains inputs and execution callbacks for one batch run.
type Request struct {
	ModelDir   string
	Inputs     []string
	OutputDir  string
	Device     whisper.Device
	Precision  domain.Precision
	OnProgress func(domain.ProgressEvent)
}

// Pipeline runs one inference engine instance across an ordered list of
// media files, writing one text artifact per input.
type Pipeline struct {
	factory whisper.Factory
}

// NewPipeline constructs a pipeline over the given engine factory.
func NewPipeline(factory whisper.Factory) *Pipeline {
	return &Pipeline{factory: factory}
}

// Run transcribes every input in order and returns the output paths.
// A single engine serves the whole batch to amortize model load cost. Any
// failure propagates to the caller unretried; device-fallback retry belongs
// to the orchestrator. Overall progress fractions are non-decreasing within
// one run and the final file_done of the last file is exactly 1.0.
func (p *Pipeline) Run(ctx context.Context, req Request) ([]string, error) {
	if len(req.Inputs) == 0 {
		return nil, fmt.Errorf("no input files")
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	engine, err := p.factory.New(req.ModelDir, req.Device, req.Precision)
	if err != nil {
		return nil, fmt.Errorf("construct engine: %w", err)
	}
	defer func() {
		_ = engine.Close()
	}()

	total := len(req.Inputs)
	outputs := make([]string, 0, total)

	for i, mediaPath := range req.Inputs {
		index := i + 1
		name := filepath.Base(mediaPath)

		emitProgress(req.OnProgress, domain.ProgressEvent{
			Kind:    domain.ProgressFileStart,
			File:    name,
			Index:   index,
			Total:   total,
			Overall: float64(index-1) / float64(total),
		})

		outPath, err := p.transcribeFile(ctx, engine, mediaPath, name, index, total, req)
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, outPath)

		emitProgress(req.OnProgress, domain.ProgressEvent{
			Kind:    domain.ProgressFileDone,
			File:    name,
			Index:   index,
			Total:   total,
			Overall: float64(index) / float64(total),
		})
	}

	return outputs, nil
}

// transcribeFile streams one file's segments into its output artifact.
func (p *Pipeline) transcribeFile(
	ctx context.Context,
	engine whisper.Engine,
	mediaPath string,
	name string,
	index int,
	total int,
	req Request,
) (string, error) {
	result, err := engine.Transcribe(ctx, mediaPath)
	if err != nil {
		return "", fmt.Errorf("transcribe %s: %w", name, err)
	}

	duration := result.Duration
	if duration < durationFloor {
		duration = durationFloor
	}

	outPath := filepath.Join(req.OutputDir, name+".txt")
	file, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create output file %s: %w", outPath, err)
	}

	writer := bufio.NewWriter(file)
	for {
		segment, ok := result.Segments.Next()
		if !ok {
			break
		}

		if _, err := fmt.Fprintf(writer, "[%ds] %s\n", int(segment.Start), strings.TrimSpace(segment.Text)); err != nil {
			_ = file.Close()
			return "", fmt.Errorf("write output file %s: %w", outPath, err)
		}

		fileProgress := segment.End / duration
		if fileProgress > 1 {
			fileProgress = 1
		}
		emitProgress(req.OnProgress, domain.ProgressEvent{
			Kind:    domain.ProgressSegment,
			File:    name,
			Index:   index,
			Total:   total,
			Overall: (float64(index-1) + fileProgress) / float64(total),
		})
	}

	if err := result.Segments.Err(); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("transcribe %s: %w", name, err)
	}

	if err := writer.Flush(); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("flush output file %s: %w", outPath, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close output file %s: %w", outPath, err)
	}

	return outPath, nil
}

// emitProgress forwards events when a callback is configured.
func emitProgress(cb func(domain.ProgressEvent), event domain.ProgressEvent) {
	if cb != nil {
		cb(event)
	}
}
