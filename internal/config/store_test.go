package config

import (
	"os"
	"path/filepath"
	"testing"

	"batch-transcriber/internal/domain"
)

// TestJSONStoreLoadMissingFileReturnsDefaults checks first-launch behavior.
func TestJSONStoreLoadMissingFileReturnsDefaults(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "settings.json"))

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ModelID != "base" {
		t.Fatalf("model id = %q, want base", cfg.ModelID)
	}
	if cfg.Device != domain.DeviceAuto {
		t.Fatalf("device = %q, want auto", cfg.Device)
	}
	if cfg.ModelsDir == "" || cfg.InputDir == "" || cfg.OutputDir == "" {
		t.Fatalf("expected default directories, got %+v", cfg)
	}
}

// TestJSONStoreSaveLoadRoundTrip checks persisted settings survive reload.
func TestJSONStoreSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	store := NewJSONStore(path)

	saved := domain.Settings{
		ModelsDir: "/data/models",
		InputDir:  "/data/in",
		OutputDir: "/data/out",
		ModelID:   "small",
		Device:    domain.DeviceGPU,
		Proxy: domain.ProxyConfig{
			Enabled: true,
			Scheme:  "http",
			Host:    "proxy.local",
			Port:    "3128",
		},
	}
	if err := store.Save(saved); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded != saved {
		t.Fatalf("loaded = %+v, want %+v", loaded, saved)
	}
}

// TestJSONStoreLoadCorruptFileFails checks malformed JSON is an error.
func TestJSONStoreLoadCorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := NewJSONStore(path).Load(); err == nil {
		t.Fatal("expected error for corrupt settings file")
	}
}

// TestNormalizeFillsEmptyFields checks defaults replace blank values.
func TestNormalizeFillsEmptyFields(t *testing.T) {
	cfg := Normalize(domain.Settings{
		ModelsDir: "  ",
		ModelID:   "",
		Device:    domain.DevicePreference("quantum"),
	})

	if cfg.ModelsDir == "" {
		t.Fatal("models dir should fall back to default")
	}
	if cfg.ModelID != "base" {
		t.Fatalf("model id = %q, want base", cfg.ModelID)
	}
	if cfg.Device != domain.DeviceAuto {
		t.Fatalf("device = %q, want auto", cfg.Device)
	}
	if cfg.Proxy.Scheme != "http" {
		t.Fatalf("proxy scheme = %q, want http", cfg.Proxy.Scheme)
	}
}
