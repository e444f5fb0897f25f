package domain

// ModelVariant describes one downloadable faster-whisper snapshot preset.
// The variant set is fixed at process start; readiness is never stored here,
// it is recomputed from the filesystem on demand.
type ModelVariant struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	RemoteID    string  `json:"remoteId"`
	Description string  `json:"description,omitempty"`
	SizeMB      float64 `json:"sizeMb"`
	Ready       bool    `json:"ready"`
	LocalPath   string  `json:"localPath,omitempty"`
}
