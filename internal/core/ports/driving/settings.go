package driving

import "github.com/custodia-labs/homenet/internal/core/domain"

// SettingsService reads and writes AppSettings through the config store.
type SettingsService interface {
	// Get merges file values over defaults, then applies the environment.
	Get() (*domain.AppSettings, error)
	Save(settings *domain.AppSettings) error

	// Set parses value according to key's type, e.g. "scan.workers" as an
	// int. Unknown keys and bad values wrap domain.ErrInvalidInput.
	Set(key, value string) error
	Keys() []string

	Validate() error
	GetDefaults() domain.AppSettings
}
