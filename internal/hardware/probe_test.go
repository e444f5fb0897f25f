package hardware

import (
	"errors"
	"testing"

	"batch-transcriber/internal/domain"
)

// TestDetectPrefersCUDACount checks the runtime device count wins first.
func TestDetectPrefersCUDACount(t *testing.T) {
	probe := NewProbe(
		func() (int, error) { return 2, nil },
		func() (string, error) { t.Fatal("gpu name query should not run"); return "", nil },
	)

	got := probe.Detect()
	if got.Accelerator != domain.AcceleratorGPU {
		t.Fatalf("accelerator = %q, want gpu", got.Accelerator)
	}
	if got.Precision != domain.PrecisionFloat16 {
		t.Fatalf("precision = %q, want float16", got.Precision)
	}
	if got.Label != "GPU (CUDA x2)" {
		t.Fatalf("label = %q", got.Label)
	}
}

// TestDetectFallsBackToDeviceName checks the secondary GPU query.
func TestDetectFallsBackToDeviceName(t *testing.T) {
	probe := NewProbe(
		func() (int, error) { return 0, errors.New("runtime missing") },
		func() (string, error) { return "RTX 4070", nil },
	)

	got := probe.Detect()
	if got.Accelerator != domain.AcceleratorGPU {
		t.Fatalf("accelerator = %q, want gpu", got.Accelerator)
	}
	if got.Label != "GPU (RTX 4070)" {
		t.Fatalf("label = %q", got.Label)
	}
}

// TestDetectDegradesToCPU checks detection never fails and reports CPU.
func TestDetectDegradesToCPU(t *testing.T) {
	probe := NewProbe(
		func() (int, error) { return 0, errors.New("no cuda") },
		func() (string, error) { return "", errors.New("no driver") },
	)

	got := probe.Detect()
	if got.Accelerator != domain.AcceleratorNone {
		t.Fatalf("accelerator = %q, want none", got.Accelerator)
	}
	if got.Precision != domain.PrecisionInt8 {
		t.Fatalf("precision = %q, want int8", got.Precision)
	}
	if got.Label != "CPU" {
		t.Fatalf("label = %q, want CPU", got.Label)
	}
}

// TestDetectNilQueriesReportCPU checks a probe without queries stays safe.
func TestDetectNilQueriesReportCPU(t *testing.T) {
	got := NewProbe(nil, nil).Detect()
	if got.Accelerator != domain.AcceleratorNone {
		t.Fatalf("accelerator = %q, want none", got.Accelerator)
	}
}
