package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/homenet/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/homenet/internal/core/domain"
	"github.com/custodia-labs/homenet/internal/core/ports/driving"
	"github.com/custodia-labs/homenet/internal/core/services"
)

var (
	_ driving.IngestService = (*mockIngestService)(nil)
	_ driving.Scheduler     = (*mockScheduler)(nil)
)

// mockIngestService records calls and returns canned results.
type mockIngestService struct {
	mu sync.Mutex

	initErr     error
	initCalls   int
	oneRequests []domain.IngestRequest
	imagePaths  []string

	result     *domain.IngestResult
	ingestErr  error
	scanResult *domain.ScanResult
	scanErr    error
	scanCalls  int
	busyScans  int
	stats      *domain.Stats
	statsErr   error
}

func (m *mockIngestService) Initialise(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initCalls++
	return m.initErr
}

func (m *mockIngestService) IngestOne(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.oneRequests = append(m.oneRequests, req)
	return m.ingestResult()
}

func (m *mockIngestService) IngestImage(_ context.Context, img domain.ImageData) (*domain.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imagePaths = append(m.imagePaths, img.Path)
	return m.ingestResult()
}

func (m *mockIngestService) IngestImagePath(_ context.Context, path string) (*domain.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imagePaths = append(m.imagePaths, path)
	return m.ingestResult()
}

func (m *mockIngestService) ingestResult() (*domain.IngestResult, error) {
	if m.ingestErr != nil {
		return nil, m.ingestErr
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.IngestResult{Success: true, ID: "rec-1", Content: "hello"}, nil
}

func (m *mockIngestService) ScanAndIngestAll(_ context.Context) (*domain.ScanResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanCalls++
	if m.scanCalls <= m.busyScans {
		return &domain.ScanResult{Skipped: true}, nil
	}
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	if m.scanResult != nil {
		return m.scanResult, nil
	}
	return &domain.ScanResult{}, nil
}

func (m *mockIngestService) Stats(_ context.Context) (*domain.Stats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	if m.stats != nil {
		return m.stats, nil
	}
	return &domain.Stats{}, nil
}

// mockScheduler blocks in Start until the context is done.
type mockScheduler struct {
	mu      sync.Mutex
	started bool
	stopped bool
}

func (m *mockScheduler) Start(ctx context.Context) error {
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	return nil
}

// setupApp injects an App backed by a mock ingest service and in-memory settings.
func setupApp(t *testing.T) (*App, *mockIngestService) {
	t.Helper()
	t.Setenv("AZURE_COMPUTER_VISION_ENDPOINT", "")
	t.Setenv("AZURE_COMPUTER_VISION_KEY", "")

	settings := services.NewSettingsService(memory.NewConfigStore())
	cfg, err := settings.Get()
	require.NoError(t, err)

	ingest := &mockIngestService{}
	a := &App{Settings: settings, Ingest: ingest, Config: cfg}
	SetApp(a)
	t.Cleanup(func() { SetApp(nil) })
	return a, ingest
}

// execute runs the root command with args and returns its output.
// Flag variables are reset first since cobra keeps them between runs.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	verbose, configDir, ephemeral = false, "", false
	ingestTitle, ingestContent, ingestFileType = "", "", ""
	serveNoWatch = false

	// Subcommands keep the first context they are given; reset them all.
	setContext(rootCmd, ctx)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

func setContext(cmd *cobra.Command, ctx context.Context) {
	cmd.SetContext(ctx)
	for _, sub := range cmd.Commands() {
		setContext(sub, ctx)
	}
}
