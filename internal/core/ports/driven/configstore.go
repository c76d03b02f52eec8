package driven

// ConfigStore is a flat view over the TOML config file. Keys are dotted
// paths into its tables, e.g. "ocr.endpoint".
//
// Typed getters return the zero value when the key is absent or holds
// another type; callers that need to tell the two apart use Get.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	// GetFloat also accepts integer values.
	GetFloat(key string) float64
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set writes through to disk before returning.
	Set(key string, value any) error
	Save() error
	// Load replaces the in-memory view with the file contents. A missing
	// file leaves it empty.
	Load() error

	// Path is where the file lives, or "" for stores with no backing file.
	Path() string
}
