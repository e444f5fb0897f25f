package models

import (
	"os"
	"path/filepath"
	"testing"
)

// writeSnapshotFiles creates the named files inside a variant directory.
func writeSnapshotFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

// TestVariantsAreFixedAndCopied checks the catalog shape and isolation.
func TestVariantsAreFixedAndCopied(t *testing.T) {
	variants := Variants()
	if len(variants) != 4 {
		t.Fatalf("variant count = %d, want 4", len(variants))
	}

	variants[0].ID = "mutated"
	if Variants()[0].ID == "mutated" {
		t.Fatal("Variants() must return a copy")
	}
}

// TestVariantByID checks lookup for known and unknown ids.
func TestVariantByID(t *testing.T) {
	variant, ok := VariantByID("small")
	if !ok {
		t.Fatal("small variant should exist")
	}
	if variant.RemoteID != "Systran/faster-whisper-small" {
		t.Fatalf("remote id = %q", variant.RemoteID)
	}
	if variant.SizeMB != 520 {
		t.Fatalf("size = %v, want 520", variant.SizeMB)
	}

	if _, ok := VariantByID("huge"); ok {
		t.Fatal("unknown id should not resolve")
	}
}

// TestIsReadyRequiresAllThreeFiles checks the readiness conjunction.
func TestIsReadyRequiresAllThreeFiles(t *testing.T) {
	root := t.TempDir()
	variant, _ := VariantByID("base")
	dir := PathFor(root, variant)

	if IsReady(root, variant) {
		t.Fatal("empty directory should not be ready")
	}

	writeSnapshotFiles(t, dir, "config.json", "vocabulary.txt")
	if IsReady(root, variant) {
		t.Fatal("two of three files should not be ready")
	}

	writeSnapshotFiles(t, dir, "model.bin")
	if !IsReady(root, variant) {
		t.Fatal("all three files should be ready")
	}

	if err := os.Remove(filepath.Join(dir, "vocabulary.txt")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if IsReady(root, variant) {
		t.Fatal("readiness must be recomputed from current disk state")
	}
}

// TestMarkReadiness checks Ready and LocalPath population.
func TestMarkReadiness(t *testing.T) {
	root := t.TempDir()
	tiny, _ := VariantByID("tiny")
	writeSnapshotFiles(t, PathFor(root, tiny), RequiredFiles...)

	variants := Variants()
	MarkReadiness(root, variants)

	for _, variant := range variants {
		if variant.ID == "tiny" {
			if !variant.Ready {
				t.Fatal("tiny should be ready")
			}
			if variant.LocalPath != PathFor(root, tiny) {
				t.Fatalf("local path = %q", variant.LocalPath)
			}
			continue
		}
		if variant.Ready {
			t.Fatalf("%s should not be ready", variant.ID)
		}
	}
}
