package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/homenet/internal/adapters/driven/config/file"
	"github.com/custodia-labs/homenet/internal/adapters/driven/imageinfo"
	"github.com/custodia-labs/homenet/internal/adapters/driven/ocr"
	"github.com/custodia-labs/homenet/internal/adapters/driven/ocr/azure"
	"github.com/custodia-labs/homenet/internal/adapters/driven/pdf"
	"github.com/custodia-labs/homenet/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/homenet/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/homenet/internal/connectors/filesystem"
	"github.com/custodia-labs/homenet/internal/core/domain"
	"github.com/custodia-labs/homenet/internal/core/ports/driven"
	"github.com/custodia-labs/homenet/internal/core/ports/driving"
	"github.com/custodia-labs/homenet/internal/core/services"
	"github.com/custodia-labs/homenet/internal/logger"
)

// AppOptions selects where an App keeps its state.
type AppOptions struct {
	// ConfigDir holds config.toml. Empty uses ~/.homenet.
	ConfigDir string

	// Ephemeral keeps records and scheduler state in memory.
	Ephemeral bool
}

// App is the set of services one command invocation works with.
type App struct {
	Settings driving.SettingsService
	Ingest   driving.IngestService

	// Config is the settings snapshot the services were built from.
	Config *domain.AppSettings

	// NewScheduler builds the periodic scan scheduler for serve.
	NewScheduler func() driving.Scheduler

	initOnce sync.Once
	initErr  error
	closers  []func() error
}

// Initialise seeds the ingest service once per App.
func (a *App) Initialise(ctx context.Context) error {
	a.initOnce.Do(func() {
		a.initErr = a.Ingest.Initialise(ctx)
	})
	return a.initErr
}

// Close releases the stores in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// buildApp wires the adapters behind the core services.
func buildApp(_ context.Context, opts AppOptions) (*App, error) {
	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)

	cfg, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	a := &App{Settings: settingsService, Config: cfg}

	var records driven.RecordStore
	var schedulerStore driven.SchedulerStore
	if opts.Ephemeral {
		logger.Debug("Using in-memory stores")
		records = memory.NewRecordStore()
		schedulerStore = memory.NewSchedulerStore()
	} else {
		store, err := sqlite.NewStore(cfg.Store.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		logger.Debug("Using store %s", store.Path())
		a.closers = append(a.closers, store.Close)
		records = store.RecordStore()
		schedulerStore = store.SchedulerStore()
	}

	ocrService, err := newOCRService(cfg.OCR)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	scanner := filesystem.NewScanner(cfg.Scan.SkipHidden)
	ingest := services.NewIngestService(
		records,
		services.NewExtractor(pdf.NewExtractor(), ocrService),
		imageinfo.NewInspector(),
		scanner,
		filesystem.NewPhotoLibrary(cfg.Scan.PhotoLibrary, scanner),
		services.IngestConfigFrom(cfg),
	)
	a.Ingest = ingest

	a.NewScheduler = func() driving.Scheduler {
		schedulerConfig := domain.DefaultSchedulerConfig()
		schedulerConfig.TaskConfigs[domain.TaskIDLibraryScan] = domain.TaskConfig{
			Enabled:  true,
			Interval: cfg.Scan.Interval,
		}
		return services.NewScheduler(schedulerConfig, schedulerStore, ingest)
	}

	return a, nil
}

// newOCRService returns an Azure-backed service when credentials are set,
// otherwise one that reports itself unavailable.
func newOCRService(cfg domain.OCRSettings) (*ocr.Service, error) {
	serviceConfig := ocr.Config{
		PollInterval:      cfg.PollInterval,
		MaxPolls:          cfg.MaxPolls,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}
	if !cfg.IsConfigured() {
		logger.Debug("OCR not configured; scanned PDFs and images will have no text")
		return ocr.NewService(nil, serviceConfig), nil
	}

	client, err := azure.NewClient(azure.Config{
		Endpoint: cfg.Endpoint,
		APIKey:   cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create OCR client: %w", err)
	}
	return ocr.NewService(client, serviceConfig), nil
}
