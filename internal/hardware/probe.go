package hardware

import (
	"fmt"

	"batch-transcriber/internal/domain"
)

// Probe detects the best available accelerator and compute precision.
type Probe struct {
	cudaDeviceCount func() (int, error)
	gpuDeviceName   func() (string, error)
}

// NewProbe builds a probe backed by the given runtime queries. The first
// query is the inference runtime's CUDA device count; the second is a general
// GPU availability check returning a device name.
func NewProbe(cudaDeviceCount func() (int, error), gpuDeviceName func() (string, error)) *Probe {
	return &Probe{
		cudaDeviceCount: cudaDeviceCount,
		gpuDeviceName:   gpuDeviceName,
	}
}

// Detect reports the hardware capability for this process. Detection never
// fails: any query error (missing library, absent driver) is swallowed and
// the probe degrades to the next step, ending at CPU.
func (p *Probe) Detect() domain.HardwareCapability {
	if p.cudaDeviceCount != nil {
		if count, err := p.cudaDeviceCount(); err == nil && count > 0 {
			return domain.HardwareCapability{
				Accelerator: domain.AcceleratorGPU,
				Precision:   domain.PrecisionFloat16,
				Label:       fmt.Sprintf("GPU (CUDA x%d)", count),
			}
		}
	}

	if p.gpuDeviceName != nil {
		if name, err := p.gpuDeviceName(); err == nil && name != "" {
			return domain.HardwareCapability{
				Accelerator: domain.AcceleratorGPU,
				Precision:   domain.PrecisionFloat16,
				Label:       fmt.Sprintf("GPU (%s)", name),
			}
		}
	}

	return domain.HardwareCapability{
		Accelerator: domain.AcceleratorNone,
		Precision:   domain.PrecisionInt8,
		Label:       "CPU",
	}
}
