package domain

import "time"

// ScanSettings holds filesystem scanning configuration.
type ScanSettings struct {
	// DocumentDirs are scanned recursively for text, markdown and PDF files.
	DocumentDirs []string

	// ImageDirs are scanned recursively for image files.
	ImageDirs []string

	// PhotoLibrary is the root holding photo library bundles (e.g. ~/Pictures).
	// Empty disables photo library scanning.
	PhotoLibrary string

	// SkipHidden skips dot-files and dot-directories.
	SkipHidden bool

	// Workers bounds per-category parallelism. 1 processes files sequentially.
	Workers int

	// Interval is how often the scheduler runs a bulk scan.
	Interval time.Duration
}

// OCRSettings holds OCR provider configuration.
type OCRSettings struct {
	// Endpoint is the provider base URL.
	Endpoint string

	// APIKey authenticates against the provider.
	APIKey string

	// PollInterval is the wait between job status checks.
	PollInterval time.Duration

	// MaxPolls bounds how many status checks a job gets before timing out.
	MaxPolls int

	// RequestsPerSecond throttles provider calls. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if credentials are present.
func (o OCRSettings) IsConfigured() bool {
	return o.Endpoint != "" && o.APIKey != ""
}

// StoreSettings holds record store configuration.
type StoreSettings struct {
	// DataDir holds the SQLite database. Empty uses ~/.homenet/data.
	DataDir string
}

// LedgerSettings holds dedup ledger configuration.
type LedgerSettings struct {
	// PageSize is how many records are fetched per store page while seeding.
	PageSize int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Scan   ScanSettings
	OCR    OCRSettings
	Store  StoreSettings
	Ledger LedgerSettings
}

// Default values.
const (
	DefaultWorkers         = 1
	DefaultOCRPollInterval = time.Second
	DefaultOCRMaxPolls     = 120
	DefaultOCRRate         = 2.0
	DefaultLedgerPageSize  = 100
)

// DefaultAppSettings returns settings with the directory layout of a home install.
// OCR is left unconfigured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Scan: ScanSettings{
			DocumentDirs: []string{"documents"},
			ImageDirs:    []string{"images"},
			SkipHidden:   true,
			Workers:      DefaultWorkers,
			Interval:     DefaultScanInterval,
		},
		OCR: OCRSettings{
			PollInterval:      DefaultOCRPollInterval,
			MaxPolls:          DefaultOCRMaxPolls,
			RequestsPerSecond: DefaultOCRRate,
		},
		Ledger: LedgerSettings{
			PageSize: DefaultLedgerPageSize,
		},
	}
}
