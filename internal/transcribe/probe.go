package transcribe

import (
	"batch-transcriber/internal/domain"
	"batch-transcriber/internal/whisper"
)

// Probe attempts to construct an inference engine against a candidate
// device/precision pair and discards it immediately. It is a designed
// feasibility gate run before committing a batch, so construction failure is
// converted to a (false, detail) result instead of an error. It never
// performs inference.
func Probe(factory whisper.Factory, modelDir string, device whisper.Device, precision domain.Precision) (bool, string) {
	engine, err := factory.New(modelDir, device, precision)
	if err != nil {
		return false, err.Error()
	}

	_ = engine.Close()
	return true, ""
}
