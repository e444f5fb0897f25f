// Package cli exposes the batch transcriber over a cobra command tree for
// headless use.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"batch-transcriber/internal/config"
	"batch-transcriber/internal/domain"
	"batch-transcriber/internal/hardware"
	"batch-transcriber/internal/whisper"
)

// environment bundles the loaded settings with the runtime dependencies
// shared by all subcommands.
type environment struct {
	store      config.Store
	settings   domain.Settings
	factory    *whisper.CLIFactory
	capability domain.HardwareCapability
}

// loadEnvironment loads persisted settings and detects hardware.
func loadEnvironment() (*environment, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}

	store := config.NewJSONStore(filepath.Join(homeDir, ".batch-transcriber", "settings.json"))
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	factory := whisper.NewCLIFactory()
	capability := hardware.NewProbe(factory.CUDADeviceCount, nil).Detect()

	return &environment{
		store:      store,
		settings:   settings,
		factory:    factory,
		capability: capability,
	}, nil
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "transcriber",
		Short: "Batch speech transcription for local media files",
		Long: `transcriber turns a directory of audio and video files into plain-text
transcripts using a locally stored faster-whisper model. It detects the
available hardware, downloads models on demand, and falls back to CPU when
the GPU cannot run the model.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewModelsCmd())
	rootCmd.AddCommand(NewDetectCmd())
	rootCmd.AddCommand(NewDoctorCmd())

	return rootCmd
}

// NewDetectCmd creates the detect subcommand.
func NewDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Report the detected compute device",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			fmt.Printf("%s (compute type %s)\n", env.capability.Label, env.capability.Precision)
			return nil
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
