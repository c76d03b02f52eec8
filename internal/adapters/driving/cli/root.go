// Package cli implements the homenet command line.
//
// Commands share one App per invocation. It is built from the config
// directory on first use, or injected with SetApp (tests, embedding).
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/homenet/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Global flags.
var (
	verbose   bool
	configDir string
	ephemeral bool
)

// app is the injected application, if any.
var app *App

// newApp builds the application for commands that need it.
var newApp = buildApp

var rootCmd = &cobra.Command{
	Use:   "homenet",
	Short: "Index documents and photos on this machine",
	Long: `homenet scans document and image directories, extracts text
(directly, from PDF text layers, or through OCR) and stores one record
per file. Files are ingested once; rescans only pick up new paths.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug and progress output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory holding config.toml (default ~/.homenet)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep records in memory instead of the SQLite store")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetApp injects a prebuilt application. Pass nil to build from config again.
func SetApp(a *App) {
	app = a
}

// requireApp returns the injected application or builds one.
// The release func closes a built application and is a no-op for an injected one.
func requireApp(cmd *cobra.Command) (*App, func(), error) {
	if app != nil {
		return app, func() {}, nil
	}

	a, err := newApp(cmd.Context(), AppOptions{
		ConfigDir: configDir,
		Ephemeral: ephemeral,
	})
	if err != nil {
		return nil, nil, err
	}
	if a == nil {
		return nil, nil, errors.New("application not configured")
	}

	return a, func() {
		if err := a.Close(); err != nil {
			logger.Warn("Failed to close application: %v", err)
		}
	}, nil
}
