package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/homenet/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change scan directories, OCR credentials and storage options.

Settings live in config.toml under the config directory. The OCR endpoint
and key can also come from AZURE_COMPUTER_VISION_ENDPOINT and
AZURE_COMPUTER_VISION_KEY, which take precedence.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Change a single setting. Lists are comma separated.

Run "homenet settings keys" for the available keys.`,
	Example: `  homenet settings set scan.document_dirs ~/documents,~/scans
  homenet settings set scan.interval_minutes 120`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	a, release, err := requireApp(cmd)
	if err != nil {
		return err
	}
	defer release()

	settings, err := a.Settings.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Scan]")
	cmd.Printf("  Document dirs: %s\n", listOrNone(settings.Scan.DocumentDirs))
	cmd.Printf("  Image dirs: %s\n", listOrNone(settings.Scan.ImageDirs))
	cmd.Printf("  Photo library: %s\n", valueOrNone(settings.Scan.PhotoLibrary))
	cmd.Printf("  Skip hidden: %s\n", yesNo(settings.Scan.SkipHidden))
	cmd.Printf("  Workers: %d\n", settings.Scan.Workers)
	cmd.Printf("  Interval: %s\n", settings.Scan.Interval)
	cmd.Println()

	cmd.Println("[OCR]")
	cmd.Printf("  Endpoint: %s\n", valueOrNone(settings.OCR.Endpoint))
	if settings.OCR.APIKey != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(settings.OCR.APIKey))
	} else {
		cmd.Printf("  API Key: (not set)\n")
	}
	cmd.Printf("  Poll interval: %s\n", settings.OCR.PollInterval)
	cmd.Printf("  Max polls: %d\n", settings.OCR.MaxPolls)
	if settings.OCR.RequestsPerSecond > 0 {
		cmd.Printf("  Rate limit: %g requests/s\n", settings.OCR.RequestsPerSecond)
	}
	status := "configured"
	if !settings.OCR.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Store]")
	cmd.Printf("  Data dir: %s\n", valueOrDefault(settings.Store.DataDir, "~/.homenet/data"))
	cmd.Printf("  Ledger page size: %d\n", settings.Ledger.PageSize)

	if err := a.Settings.Validate(); err != nil {
		cmd.Println()
		cmd.Printf("Warning: %v\n", err)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	a, release, err := requireApp(cmd)
	if err != nil {
		return err
	}
	defer release()

	key, value := args[0], args[1]
	if err := a.Settings.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	if key == "ocr.api_key" {
		value = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", key, value)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	a, release, err := requireApp(cmd)
	if err != nil {
		return err
	}
	defer release()

	for _, key := range a.Settings.Keys() {
		cmd.Println(key)
	}
	return nil
}

// maskAPIKey masks an API key for display.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func listOrNone(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, ", ")
}

func valueOrNone(value string) string {
	return valueOrDefault(value, "(none)")
}

func valueOrDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// settingsSummary is a one-line description used by serve's startup log.
func settingsSummary(s *domain.AppSettings) string {
	ocr := "off"
	if s.OCR.IsConfigured() {
		ocr = "on"
	}
	return fmt.Sprintf("documents=%s images=%s photos=%s interval=%s ocr=%s",
		listOrNone(s.Scan.DocumentDirs), listOrNone(s.Scan.ImageDirs),
		valueOrNone(s.Scan.PhotoLibrary), s.Scan.Interval, ocr)
}
