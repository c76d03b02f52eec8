package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show record counts and scan state",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	a, release, err := requireApp(cmd)
	if err != nil {
		return err
	}
	defer release()

	ctx := cmd.Context()
	if err := a.Initialise(ctx); err != nil {
		return fmt.Errorf("failed to load existing records: %w", err)
	}

	stats, err := a.Ingest.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	cmd.Printf("Documents:       %d\n", stats.TotalDocuments)
	cmd.Printf("Images:          %d\n", stats.TotalImages)
	cmd.Printf("Processed files: %d\n", stats.ProcessedFileCount)
	cmd.Printf("Scanning:        %s\n", yesNo(stats.IsScanning))
	if !stats.LastScanStartedAt.IsZero() {
		cmd.Printf("Last scan:       %s\n", stats.LastScanStartedAt.Format(time.RFC3339))
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
