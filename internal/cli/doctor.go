package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"batch-transcriber/internal/diagnostics"
	"batch-transcriber/internal/domain"
)

// NewDoctorCmd creates the doctor subcommand.
func NewDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check tools, model files, and directories",
		RunE:  runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}

	report := diagnostics.NewChecker().Run(env.settings)
	for _, item := range report.Items {
		mark := "ok"
		if item.Status == domain.DiagnosticStatusFail {
			mark = "FAIL"
		}
		fmt.Printf("[%4s] %-20s %s\n", mark, item.Name, item.Message)
		if item.Hint != "" {
			fmt.Printf("       %s\n", item.Hint)
		}
	}

	if report.HasFailures {
		return fmt.Errorf("diagnostics reported failures")
	}
	fmt.Println("All checks passed")
	return nil
}
