package domain

// Accelerator identifies the compute device class available to inference.
type Accelerator string

const (
	AcceleratorNone Accelerator = "none"
	AcceleratorGPU  Accelerator = "gpu"
)

// Precision is the compute type passed to the inference engine.
type Precision string

const (
	PrecisionInt8    Precision = "int8"
	PrecisionFloat16 Precision = "float16"
)

// DevicePreference is the user-selected device policy for one batch run.
type DevicePreference string

const (
	DeviceAuto DevicePreference = "auto"
	DeviceGPU  DevicePreference = "gpu"
	DeviceCPU  DevicePreference = "cpu"
)

// HardwareCapability is the detected accelerator and its native precision.
// Computed once per process and treated as read-only afterward; a per-run
// device preference may still override it.
type HardwareCapability struct {
	Accelerator Accelerator `json:"accelerator"`
	Precision   Precision   `json:"precision"`
	Label       string      `json:"label"`
}

// ProxyConfig describes an optional HTTP proxy for model downloads.
// The core only reads it; persistence belongs to the settings store.
type ProxyConfig struct {
	Enabled  bool   `json:"enabled"`
	Scheme   string `json:"scheme"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Settings contains user-selectable runtime configuration.
type Settings struct {
	ModelsDir string           `json:"modelsDir"`
	InputDir  string           `json:"inputDir"`
	OutputDir string           `json:"outputDir"`
	ModelID   string           `json:"modelId"`
	Device    DevicePreference `json:"device"`
	Proxy     ProxyConfig      `json:"proxy"`
}

// DownloadProgressSample is one observation of on-disk download growth.
// EstimatedFraction never exceeds 0.98: the estimate divides by a hard-coded
// approximate snapshot size, so true completion is only ever signaled by the
// terminal acquire result.
type DownloadProgressSample struct {
	DownloadedMB      float64 `json:"downloadedMb"`
	SpeedMBs          float64 `json:"speedMbs"`
	EstimatedFraction float64 `json:"estimatedFraction"`
}
