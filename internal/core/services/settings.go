package services

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/homenet/internal/core/domain"
	"github.com/custodia-labs/homenet/internal/core/ports/driven"
	"github.com/custodia-labs/homenet/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDocumentDirs    = "scan.document_dirs"
	keyImageDirs       = "scan.image_dirs"
	keyPhotoLibrary    = "scan.photo_library"
	keySkipHidden      = "scan.skip_hidden"
	keyWorkers         = "scan.workers"
	keyIntervalMinutes = "scan.interval_minutes"
	keyOCREndpoint     = "ocr.endpoint"
	keyOCRAPIKey       = "ocr.api_key"
	keyOCRPollMillis   = "ocr.poll_interval_ms"
	keyOCRMaxPolls     = "ocr.max_polls"
	keyOCRRate         = "ocr.requests_per_second"
	keyDataDir         = "store.data_dir"
	keyLedgerPageSize  = "ledger.page_size"
)

// Environment variables that override the config file.
//
//nolint:gosec // G101: variable names, not credentials.
const (
	EnvOCREndpoint = "AZURE_COMPUTER_VISION_ENDPOINT"
	EnvOCRAPIKey   = "AZURE_COMPUTER_VISION_KEY"
)

// settingKind is how a key's string form is parsed by Set.
type settingKind int

const (
	kindString settingKind = iota
	kindStringList
	kindBool
	kindInt
	kindFloat
)

// settingKeys lists every settable key in display order.
var settingKeys = []struct {
	key  string
	kind settingKind
}{
	{keyDocumentDirs, kindStringList},
	{keyImageDirs, kindStringList},
	{keyPhotoLibrary, kindString},
	{keySkipHidden, kindBool},
	{keyWorkers, kindInt},
	{keyIntervalMinutes, kindInt},
	{keyOCREndpoint, kindString},
	{keyOCRAPIKey, kindString},
	{keyOCRPollMillis, kindInt},
	{keyOCRMaxPolls, kindInt},
	{keyOCRRate, kindFloat},
	{keyDataDir, kindString},
	{keyLedgerPageSize, kindInt},
}

type settingValue struct {
	key   string
	value any
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
// OCR credentials from the environment win over the config file.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := s.GetDefaults()

	settings := &domain.AppSettings{
		Scan: domain.ScanSettings{
			DocumentDirs: expandAll(s.getStringSlice(keyDocumentDirs, defaults.Scan.DocumentDirs)),
			ImageDirs:    expandAll(s.getStringSlice(keyImageDirs, defaults.Scan.ImageDirs)),
			PhotoLibrary: expandHome(s.getString(keyPhotoLibrary, defaults.Scan.PhotoLibrary)),
			SkipHidden:   s.getBool(keySkipHidden, defaults.Scan.SkipHidden),
			Workers:      s.getInt(keyWorkers, defaults.Scan.Workers),
			Interval:     time.Duration(s.getInt(keyIntervalMinutes, int(defaults.Scan.Interval/time.Minute))) * time.Minute,
		},
		OCR: domain.OCRSettings{
			Endpoint:          s.configStore.GetString(keyOCREndpoint),
			APIKey:            s.configStore.GetString(keyOCRAPIKey),
			PollInterval:      time.Duration(s.getInt(keyOCRPollMillis, int(defaults.OCR.PollInterval/time.Millisecond))) * time.Millisecond,
			MaxPolls:          s.getInt(keyOCRMaxPolls, defaults.OCR.MaxPolls),
			RequestsPerSecond: s.getFloat(keyOCRRate, defaults.OCR.RequestsPerSecond),
		},
		Store: domain.StoreSettings{
			DataDir: expandHome(s.configStore.GetString(keyDataDir)),
		},
		Ledger: domain.LedgerSettings{
			PageSize: s.getInt(keyLedgerPageSize, defaults.Ledger.PageSize),
		},
	}

	if v := os.Getenv(EnvOCREndpoint); v != "" {
		settings.OCR.Endpoint = v
	}
	if v := os.Getenv(EnvOCRAPIKey); v != "" {
		settings.OCR.APIKey = v
	}

	return settings, nil
}

// Save persists application settings.
// Empty OCR credentials are not written so environment-only setups stay that way.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []settingValue{
		{keyDocumentDirs, settings.Scan.DocumentDirs},
		{keyImageDirs, settings.Scan.ImageDirs},
		{keyPhotoLibrary, settings.Scan.PhotoLibrary},
		{keySkipHidden, settings.Scan.SkipHidden},
		{keyWorkers, settings.Scan.Workers},
		{keyIntervalMinutes, int(settings.Scan.Interval / time.Minute)},
		{keyOCRPollMillis, int(settings.OCR.PollInterval / time.Millisecond)},
		{keyOCRMaxPolls, settings.OCR.MaxPolls},
		{keyOCRRate, settings.OCR.RequestsPerSecond},
		{keyDataDir, settings.Store.DataDir},
		{keyLedgerPageSize, settings.Ledger.PageSize},
	}
	if settings.OCR.Endpoint != "" {
		values = append(values, settingValue{keyOCREndpoint, settings.OCR.Endpoint})
	}
	if settings.OCR.APIKey != "" {
		values = append(values, settingValue{keyOCRAPIKey, settings.OCR.APIKey})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Set updates a single setting from its string form.
// Lists are comma separated.
func (s *SettingsService) Set(key, value string) error {
	for _, k := range settingKeys {
		if k.key != key {
			continue
		}
		parsed, err := parseSetting(k.kind, value)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
		}
		if err := s.configStore.Set(key, parsed); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
}

func parseSetting(kind settingKind, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch kind {
	case kindStringList:
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	case kindBool:
		return strconv.ParseBool(value)
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("must not be negative")
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, err
		}
		if f < 0 {
			return nil, fmt.Errorf("must not be negative")
		}
		return f, nil
	default:
		return value, nil
	}
}

// Keys returns every settable key in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKeys))
	for _, k := range settingKeys {
		keys = append(keys, k.key)
	}
	return keys
}

// Validate checks the current settings for consistency.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if len(settings.Scan.DocumentDirs) == 0 && len(settings.Scan.ImageDirs) == 0 && settings.Scan.PhotoLibrary == "" {
		return fmt.Errorf("%w: no directories configured to scan", domain.ErrInvalidInput)
	}
	if settings.Scan.Workers < 1 {
		return fmt.Errorf("%w: scan.workers must be at least 1", domain.ErrInvalidInput)
	}
	if settings.Scan.Interval <= 0 {
		return fmt.Errorf("%w: scan.interval_minutes must be positive", domain.ErrInvalidInput)
	}
	if settings.OCR.MaxPolls < 1 {
		return fmt.Errorf("%w: ocr.max_polls must be at least 1", domain.ErrInvalidInput)
	}
	if settings.OCR.PollInterval <= 0 {
		return fmt.Errorf("%w: ocr.poll_interval_ms must be positive", domain.ErrInvalidInput)
	}
	if settings.Ledger.PageSize < 1 {
		return fmt.Errorf("%w: ledger.page_size must be at least 1", domain.ErrInvalidInput)
	}

	// Half-configured OCR is almost always a typo; report it rather than silently disabling OCR.
	if (settings.OCR.Endpoint == "") != (settings.OCR.APIKey == "") {
		return fmt.Errorf("%w: ocr.endpoint and ocr.api_key must be set together", domain.ErrInvalidInput)
	}
	if settings.OCR.Endpoint != "" {
		u, err := url.Parse(settings.OCR.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: ocr.endpoint must be an http(s) URL", domain.ErrInvalidInput)
		}
	}

	return nil
}

// GetDefaults returns default settings.
// The photo library defaults to ~/Pictures when a home directory is known.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	defaults := domain.DefaultAppSettings()
	if home, err := os.UserHomeDir(); err == nil {
		defaults.Scan.PhotoLibrary = filepath.Join(home, "Pictures")
	}
	return defaults
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetString(key)
}

func (s *SettingsService) getStringSlice(key string, defaultVal []string) []string {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetStringSlice(key)
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func expandAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, expandHome(p))
	}
	return out
}
