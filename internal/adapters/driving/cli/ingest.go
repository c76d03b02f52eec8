package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/homenet/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest a single file or inline text",
	Long: `Ingests one file, or text given with --content.

Images are inspected and run through OCR when it is configured. Other
files are read directly or through the PDF text layer, with OCR as the
fallback for scanned PDFs.`,
	Example: `  homenet ingest ~/documents/lease.pdf
  homenet ingest --title "Wifi" --content "network: home, password: hunter2"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

// Flags for the ingest command.
var (
	ingestTitle    string
	ingestContent  string
	ingestFileType string
)

func init() {
	ingestCmd.Flags().StringVarP(&ingestTitle, "title", "t", "", "Title for the record (defaults to the file name)")
	ingestCmd.Flags().StringVarP(&ingestContent, "content", "c", "", "Inline text to store instead of a file")
	ingestCmd.Flags().StringVar(&ingestFileType, "type", "", "File type override, e.g. .txt")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) > 0 {
		abs, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolve path: %w", err)
		}
		path = abs
	}
	if path == "" && ingestContent == "" {
		return errors.New("provide a file path or --content")
	}

	a, release, err := requireApp(cmd)
	if err != nil {
		return err
	}
	defer release()

	ctx := cmd.Context()
	if err := a.Initialise(ctx); err != nil {
		return fmt.Errorf("failed to load existing records: %w", err)
	}

	var result *domain.IngestResult
	if path != "" && ingestContent == "" && domain.ExtensionKind(domain.ExtOf(path)) == domain.KindImage {
		result, err = a.Ingest.IngestImagePath(ctx, path)
	} else {
		result, err = a.Ingest.IngestOne(ctx, domain.IngestRequest{
			Title:    ingestTitle,
			Content:  ingestContent,
			FilePath: path,
			FileType: ingestFileType,
		})
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if !result.Success {
		cmd.Printf("Not ingested: %s\n", result.Reason)
		return nil
	}
	cmd.Printf("Ingested record %s (%d characters)\n", result.ID, len([]rune(result.Content)))
	return nil
}
