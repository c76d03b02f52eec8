package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/homenet/internal/connectors/filesystem"
	"github.com/custodia-labs/homenet/internal/core/domain"
	"github.com/custodia-labs/homenet/internal/core/ports/driving"
	"github.com/custodia-labs/homenet/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run scheduled scans until interrupted",
	Long: `Creates the configured document and image directories, then runs a
library scan on startup and every scan.interval_minutes after that.

Unless --no-watch is given, the directories are also watched and a scan
runs shortly after files are added or changed. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveNoWatch bool

func init() {
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Only scan on the schedule")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, release, err := requireApp(cmd)
	if err != nil {
		return err
	}
	defer release()

	if a.NewScheduler == nil {
		return errors.New("scheduler not configured")
	}
	logger.SetTimestamps(true)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := createDirectories(a.Config.Scan.DocumentDirs, a.Config.Scan.ImageDirs); err != nil {
		return err
	}
	if err := a.Initialise(ctx); err != nil {
		return fmt.Errorf("failed to load existing records: %w", err)
	}

	logger.Info("Starting: %s", settingsSummary(a.Config))
	scheduler := a.NewScheduler()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ignoreCancel(scheduler.Start(gctx))
	})

	if !serveNoWatch {
		watcher, err := newDirectoryWatcher(a.Config)
		switch {
		case errors.Is(err, filesystem.ErrNoWatchRoots):
			logger.Warn("No directories to watch; relying on the schedule")
		case err != nil:
			logger.Warn("File watching disabled: %v", err)
		default:
			logger.Info("Watching %d directories", len(watcher.Roots()))
			g.Go(func() error {
				return ignoreCancel(scanOnChange(gctx, watcher, a.Ingest))
			})
		}
	}

	cmd.Println("homenet is running. Press Ctrl+C to stop.")
	<-gctx.Done()

	if err := scheduler.Stop(); err != nil {
		logger.Warn("Failed to stop scheduler: %v", err)
	}
	if err := g.Wait(); err != nil {
		return err
	}

	cmd.Println("Stopped.")
	return nil
}

// createDirectories makes sure every configured scan root exists.
func createDirectories(groups ...[]string) error {
	for _, dirs := range groups {
		for _, dir := range dirs {
			if dir == "" {
				continue
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", dir, err)
			}
			logger.Debug("Directory ready: %s", dir)
		}
	}
	return nil
}

func newDirectoryWatcher(cfg *domain.AppSettings) (*filesystem.Watcher, error) {
	roots := make([]string, 0, len(cfg.Scan.DocumentDirs)+len(cfg.Scan.ImageDirs))
	roots = append(roots, cfg.Scan.DocumentDirs...)
	roots = append(roots, cfg.Scan.ImageDirs...)

	exts := append(domain.DocumentExtensions(), domain.ImageExtensions()...)
	return filesystem.NewWatcher(filesystem.WatchConfig{
		Roots:      roots,
		Exts:       exts,
		SkipHidden: cfg.Scan.SkipHidden,
	})
}

// busyRetry is how long a change batch waits when it found a scan running.
var busyRetry = 30 * time.Second

// scanOnChange runs a bulk scan after each batch of changes.
func scanOnChange(ctx context.Context, w *filesystem.Watcher, ingest driving.IngestService) error {
	return scanBatches(ctx, w.Watch(ctx), ingest, busyRetry)
}

// scanBatches scans once per batch. A batch that finds a scan already
// running arms a single retry, since the running scan may have listed its
// directory before the new files appeared. Further skipped batches reuse
// that retry rather than queueing more.
func scanBatches(ctx context.Context, batches <-chan []string, ingest driving.IngestService, retry time.Duration) error {
	var retryC <-chan time.Time
	var retryTimer *time.Timer
	defer func() {
		if retryTimer != nil {
			retryTimer.Stop()
		}
	}()

	scan := func() {
		result, err := ingest.ScanAndIngestAll(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			logger.Error("Scan after change failed: %v", err)
		case err != nil:
		case result.Skipped:
			if retryC == nil {
				logger.Debug("Scan already running; retrying in %s", retry)
				retryTimer = time.NewTimer(retry)
				retryC = retryTimer.C
			}
		default:
			logger.Info("Scan complete: %d new records, %d errors", result.Processed(), result.ErrorCount())
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-batches:
			if !ok {
				return ctx.Err()
			}
			logger.Info("%d files changed; scanning", len(batch))
			scan()
		case <-retryC:
			retryC, retryTimer = nil, nil
			scan()
		}
	}
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
