package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"batch-transcriber/internal/config"
	"batch-transcriber/internal/domain"
	"batch-transcriber/internal/hub"
	"batch-transcriber/internal/models"
)

// NewModelsCmd creates the models subcommand.
func NewModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage faster-whisper models",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List model variants and their download state",
		RunE:  runModelsList,
	}

	downloadCmd := &cobra.Command{
		Use:   "download <model>",
		Short: "Download a model snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  runModelsDownload,
	}

	cmd.AddCommand(listCmd, downloadCmd)
	return cmd
}

func runModelsList(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}

	variants := models.Variants()
	models.MarkReadiness(env.settings.ModelsDir, variants)

	fmt.Println()
	fmt.Printf("  %-10s %-10s %-20s %s\n", "Model", "Size", "Description", "Status")
	fmt.Println("  " + strings.Repeat("-", 56))

	for _, variant := range variants {
		status := "not downloaded"
		if variant.Ready {
			status = "ready"
		}
		if variant.ID == env.settings.ModelID {
			status += " (selected)"
		}
		fmt.Printf("  %-10s %-10s %-20s %s\n", variant.ID, fmt.Sprintf("~%.0f MB", variant.SizeMB), variant.Description, status)
	}
	fmt.Println()

	return nil
}

func runModelsDownload(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}

	variant, ok := models.VariantByID(args[0])
	if !ok {
		return fmt.Errorf("unknown model variant: %q", args[0])
	}

	if models.IsReady(env.settings.ModelsDir, variant) {
		fmt.Printf("Model %q is already downloaded\n", variant.ID)
		return nil
	}

	proxyURL := config.ResolveProxyURL(env.settings.Proxy)
	if proxyURL != "" {
		fmt.Printf("Using proxy %s\n", env.settings.Proxy.Host)
	}

	fmt.Printf("Downloading model %q (~%.0f MB)...\n", variant.ID, variant.SizeMB)

	acquirer := models.NewAcquirer(hub.NewClient())
	ready, err := acquirer.Acquire(context.Background(), env.settings.ModelsDir, variant, proxyURL,
		func(sample domain.DownloadProgressSample) {
			fmt.Printf("\r%.1f MB at %.1f MB/s (~%.0f%%)   ", sample.DownloadedMB, sample.SpeedMBs, sample.EstimatedFraction*100)
		})
	fmt.Println()
	if err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("model %q is still incomplete after download", variant.ID)
	}

	fmt.Println("Model downloaded successfully")
	return nil
}
