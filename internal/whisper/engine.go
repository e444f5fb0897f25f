// Package whisper defines the inference engine collaborator consumed by the
// transcription pipeline, plus a production adapter that drives a
// whisper-ctranslate2 style CLI. The pipeline and orchestrator depend only on
// the interfaces here.
package whisper

import (
	"context"

	"batch-transcriber/internal/domain"
)

// Device is the compute device an engine binds to.
type Device string

const (
	DeviceCPU  Device = "cpu"
	DeviceCUDA Device = "cuda"
)

// Segment is one recognized speech span with times in seconds.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// SegmentReader is a lazy, finite, non-restartable segment sequence.
// Next returns false after the final segment; Err then reports any stream
// failure encountered along the way.
type SegmentReader interface {
	Next() (Segment, bool)
	Err() error
}

// Transcription is one started transcription: a segment stream plus an
// audio-duration estimate in seconds.
type Transcription struct {
	Duration float64
	Segments SegmentReader
}

// Engine is one inference engine instance bound to a model directory and a
// device/precision pair.
type Engine interface {
	// Transcribe starts voice-activity-filtered transcription of one media
	// file. Consuming the returned segment stream drives the work.
	Transcribe(ctx context.Context, mediaPath string) (Transcription, error)
	Close() error
}

// Factory constructs engines and answers process-wide accelerator queries.
type Factory interface {
	New(modelDir string, device Device, precision domain.Precision) (Engine, error)
	CUDADeviceCount() (int, error)
}
