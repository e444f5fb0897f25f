package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"batch-transcriber/internal/batch"
	"batch-transcriber/internal/domain"
	"batch-transcriber/internal/models"
)

var (
	runInputFlag     string
	runOutputFlag    string
	runModelsDirFlag string
	runModelFlag     string
	runDeviceFlag    string
	runYesFlag       bool
)

// NewRunCmd creates the run subcommand.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Transcribe every media file in the input directory",
		RunE:  runBatch,
	}

	cmd.Flags().StringVarP(&runInputFlag, "input", "i", "", "Input directory (default from settings)")
	cmd.Flags().StringVarP(&runOutputFlag, "output", "o", "", "Output directory (default from settings)")
	cmd.Flags().StringVar(&runModelsDirFlag, "models-dir", "", "Model storage directory (default from settings)")
	cmd.Flags().StringVarP(&runModelFlag, "model", "m", "", "Model variant: tiny, base, small, medium")
	cmd.Flags().StringVarP(&runDeviceFlag, "device", "d", "", "Device preference: auto, gpu, cpu")
	cmd.Flags().BoolVarP(&runYesFlag, "yes", "y", false, "Overwrite existing transcripts without asking")

	return cmd
}

// stdinDecisions asks for overwrite confirmation on the terminal.
type stdinDecisions struct{}

// ConfirmOverwrite prints the colliding files and reads a yes/no answer.
func (stdinDecisions) ConfirmOverwrite(files []string) bool {
	fmt.Printf("Transcripts already exist for %d files:\n", len(files))
	for _, file := range files {
		fmt.Printf("  %s\n", file)
	}
	fmt.Print("Overwrite them? [y/N] ")

	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func runBatch(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}

	settings := applyRunFlags(env.settings)
	variant, ok := models.VariantByID(settings.ModelID)
	if !ok {
		return fmt.Errorf("unknown model variant: %q", settings.ModelID)
	}

	var decisions batch.DecisionProvider = stdinDecisions{}
	if runYesFlag {
		decisions = batch.AlwaysConfirm{}
	}

	orchestrator := batch.New(env.factory, decisions)
	report := orchestrator.Run(cmd.Context(), batch.Request{
		RunID:      uuid.NewString(),
		ModelDir:   models.PathFor(settings.ModelsDir, variant),
		InputDir:   settings.InputDir,
		OutputDir:  settings.OutputDir,
		Preference: settings.Device,
		Capability: env.capability,
		OnState: func(state domain.RunState) {
			fmt.Printf("-- %s\n", state)
		},
		OnProgress: printProgress,
	})

	return printReport(report)
}

// applyRunFlags overrides persisted settings with command-line flags.
func applyRunFlags(settings domain.Settings) domain.Settings {
	if runInputFlag != "" {
		settings.InputDir = runInputFlag
	}
	if runOutputFlag != "" {
		settings.OutputDir = runOutputFlag
	}
	if runModelsDirFlag != "" {
		settings.ModelsDir = runModelsDirFlag
	}
	if runModelFlag != "" {
		settings.ModelID = runModelFlag
	}
	if runDeviceFlag != "" {
		settings.Device = domain.DevicePreference(runDeviceFlag)
	}
	return settings
}

// printProgress renders one progress event on the terminal.
func printProgress(event domain.ProgressEvent) {
	switch event.Kind {
	case domain.ProgressFileStart:
		fmt.Printf("[%d/%d] %s\n", event.Index, event.Total, event.File)
	case domain.ProgressSegment:
		fmt.Printf("\r  overall %.0f%%", event.Overall*100)
	case domain.ProgressFileDone:
		fmt.Printf("\r  overall %.0f%%\n", event.Overall*100)
	}
}

// printReport renders the terminal run report and maps failure to an error.
func printReport(report domain.RunReport) error {
	if report.RuntimeNote != "" {
		fmt.Printf("note: %s\n", report.RuntimeNote)
	}

	if report.State != domain.RunStateSucceeded {
		if report.Hint != "" {
			fmt.Fprintf(os.Stderr, "hint: %s\n", report.Hint)
		}
		return fmt.Errorf("run failed: %s", report.Error)
	}

	fmt.Printf("Transcribed %d files on %s:\n", len(report.Outputs), report.DeviceLabel)
	for _, output := range report.Outputs {
		fmt.Printf("  %s\n", output)
	}
	return nil
}
