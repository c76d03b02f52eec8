package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/homenet/internal/core/domain"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan configured directories and ingest new files",
	Long: `Walks the configured document and image directories, plus the photo
library, and ingests every file that has not been ingested before.

Only one scan runs at a time; a second scan started while one is running
returns immediately.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	a, release, err := requireApp(cmd)
	if err != nil {
		return err
	}
	defer release()

	ctx := cmd.Context()
	if err := a.Initialise(ctx); err != nil {
		return fmt.Errorf("failed to load existing records: %w", err)
	}

	cmd.Println("Scanning...")
	result, err := a.Ingest.ScanAndIngestAll(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	printScanResult(cmd, result)
	return nil
}

func printScanResult(cmd *cobra.Command, result *domain.ScanResult) {
	if result.Skipped {
		cmd.Println("A scan is already running; nothing to do.")
		return
	}

	cmd.Printf("Scan complete in %s\n", result.Duration().Round(time.Millisecond))
	printScanRun(cmd, "Documents", &result.Documents)
	printScanRun(cmd, "Images", &result.Images)
	cmd.Printf("Total: %d new records, %d errors\n", result.Processed(), result.ErrorCount())
}

func printScanRun(cmd *cobra.Command, label string, run *domain.ScanRun) {
	cmd.Printf("[%s]\n", label)
	cmd.Printf("  Scanned:   %d\n", run.Scanned)
	cmd.Printf("  Processed: %d\n", run.Processed)
	if run.Empty > 0 {
		cmd.Printf("  Empty:     %d\n", run.Empty)
	}

	if len(run.Groups) > 0 {
		names := make([]string, 0, len(run.Groups))
		for name := range run.Groups {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			cmd.Printf("  %s: %d files\n", name, run.Groups[name])
		}
	}

	for _, e := range run.Errors {
		if e.Directory != "" {
			cmd.Printf("  error: directory %s: %s\n", e.Directory, e.Error)
		} else {
			cmd.Printf("  error: %s: %s\n", e.File, e.Error)
		}
	}
}
