// Package models holds the fixed catalog of faster-whisper model variants,
// the on-disk readiness check, and model snapshot acquisition.
package models

import (
	"os"
	"path/filepath"

	"batch-transcriber/internal/domain"
)

// RequiredFiles must all exist inside a variant directory for the snapshot
// to count as ready. Contents are never inspected.
var RequiredFiles = []string{"config.json", "vocabulary.txt", "model.bin"}

var variantCatalog = []domain.ModelVariant{
	{
		ID:          "tiny",
		Name:        "Tiny",
		RemoteID:    "Systran/faster-whisper-tiny",
		Description: "Fastest | Low Acc",
		SizeMB:      80,
	},
	{
		ID:          "base",
		Name:        "Base",
		RemoteID:    "Systran/faster-whisper-base",
		Description: "Very Fast | Med Acc",
		SizeMB:      160,
	},
	{
		ID:          "small",
		Name:        "Small",
		RemoteID:    "Systran/faster-whisper-small",
		Description: "Fast | High Acc",
		SizeMB:      520,
	},
	{
		ID:          "medium",
		Name:        "Medium",
		RemoteID:    "Systran/faster-whisper-medium",
		Description: "Slow | Best Acc",
		SizeMB:      1700,
	},
}

// Variants returns the fixed model catalog.
func Variants() []domain.ModelVariant {
	out := make([]domain.ModelVariant, len(variantCatalog))
	copy(out, variantCatalog)
	return out
}

// VariantByID looks up one catalog entry by canonical id.
func VariantByID(id string) (domain.ModelVariant, bool) {
	for _, variant := range variantCatalog {
		if variant.ID == id {
			return variant, true
		}
	}
	return domain.ModelVariant{}, false
}

// PathFor returns the local snapshot directory for a variant.
func PathFor(modelsRoot string, variant domain.ModelVariant) string {
	return filepath.Join(modelsRoot, variant.ID)
}

// IsReady reports whether all required snapshot files exist for a variant.
// The check is recomputed from the filesystem on every call so callers always
// see current disk state.
func IsReady(modelsRoot string, variant domain.ModelVariant) bool {
	dir := PathFor(modelsRoot, variant)
	for _, name := range RequiredFiles {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil || info.IsDir() {
			return false
		}
	}
	return true
}

// MarkReadiness fills Ready and LocalPath on a variant list from disk state.
func MarkReadiness(modelsRoot string, variants []domain.ModelVariant) {
	for i := range variants {
		variants[i].Ready = IsReady(modelsRoot, variants[i])
		if variants[i].Ready {
			variants[i].LocalPath = PathFor(modelsRoot, variants[i])
		}
	}
}
