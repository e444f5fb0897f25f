package config

import (
	"os"
	"path/filepath"
	"strings"

	"batch-transcriber/internal/domain"
)

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	base := filepath.Join(homeDir, ".batch-transcriber")
	return domain.Settings{
		ModelsDir: filepath.Join(base, "models"),
		InputDir:  filepath.Join(base, "input_files"),
		OutputDir: filepath.Join(base, "results"),
		ModelID:   "base",
		Device:    domain.DeviceAuto,
		Proxy: domain.ProxyConfig{
			Scheme: "http",
		},
	}
}

// Normalize trims user inputs and applies defaults for empty fields.
func Normalize(cfg domain.Settings) domain.Settings {
	defaults := DefaultSettings()

	cfg.ModelsDir = strings.TrimSpace(cfg.ModelsDir)
	cfg.InputDir = strings.TrimSpace(cfg.InputDir)
	cfg.OutputDir = strings.TrimSpace(cfg.OutputDir)
	cfg.ModelID = strings.TrimSpace(cfg.ModelID)

	if cfg.ModelsDir == "" {
		cfg.ModelsDir = defaults.ModelsDir
	}
	if cfg.InputDir == "" {
		cfg.InputDir = defaults.InputDir
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaults.OutputDir
	}
	if cfg.ModelID == "" {
		cfg.ModelID = defaults.ModelID
	}

	switch cfg.Device {
	case domain.DeviceAuto, domain.DeviceGPU, domain.DeviceCPU:
	default:
		cfg.Device = domain.DeviceAuto
	}

	cfg.Proxy.Scheme = strings.TrimSpace(cfg.Proxy.Scheme)
	cfg.Proxy.Host = strings.TrimSpace(cfg.Proxy.Host)
	cfg.Proxy.Port = strings.TrimSpace(cfg.Proxy.Port)
	if cfg.Proxy.Scheme == "" {
		cfg.Proxy.Scheme = "http"
	}

	return cfg
}

// EnsureDirs creates the models, input, and output directories.
func EnsureDirs(cfg domain.Settings) error {
	for _, dir := range []string{cfg.ModelsDir, cfg.InputDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
