package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/homenet/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// FileName is the config file created inside the config directory.
const FileName = "config.toml"

// ConfigStore keeps configuration in a TOML file.
// Values are held flat in memory and every Set rewrites the file.
type ConfigStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]any
}

// NewConfigStore opens configDir/config.toml, creating the directory with
// owner-only permissions. An empty configDir means ~/.homenet.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating home directory: %w", err)
		}
		configDir = filepath.Join(home, ".homenet")
	}
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating %s: %w", configDir, err)
	}

	s := &ConfigStore{path: filepath.Join(configDir, FileName)}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *ConfigStore) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// GetInt accepts the int64 that TOML decodes to as well as an int set in process.
func (s *ConfigStore) GetInt(key string) int {
	v, _ := s.Get(key)
	if n, ok := v.(int64); ok {
		return int(n)
	}
	n, _ := v.(int)
	return n
}

// GetFloat also reads integers, so "requests_per_second = 2" works.
func (s *ConfigStore) GetFloat(key string) float64 {
	v, _ := s.Get(key)
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func (s *ConfigStore) GetBool(key string) bool {
	v, _ := s.Get(key)
	b, _ := v.(bool)
	return b
}

// GetStringSlice skips non-string elements of a decoded TOML array.
func (s *ConfigStore) GetStringSlice(key string) []string {
	v, _ := s.Get(key)
	if strs, ok := v.([]string); ok {
		return strs
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	strs := make([]string, 0, len(items))
	for _, item := range items {
		if str, ok := item.(string); ok {
			strs = append(strs, str)
		}
	}
	return strs
}

// Set writes the file before returning. If the write fails the previous
// value is restored.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.values[key]
	s.values[key] = value
	err := s.writeLocked()
	switch {
	case err == nil:
	case had:
		s.values[key] = prev
	default:
		delete(s.values, key)
	}
	return err
}

func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked()
}

func (s *ConfigStore) writeLocked() error {
	encoded, err := toml.Marshal(unflatten(s.values))
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(s.path, encoded, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	return nil
}

// Load reads the config file. A missing file loads as empty.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.values = map[string]any{}
		return nil
	case err != nil:
		return fmt.Errorf("reading %s: %w", s.path, err)
	}

	var tree map[string]any
	if err := toml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("parsing %s: %w", s.path, err)
	}
	s.values = map[string]any{}
	flatten(s.values, "", tree)
	return nil
}

func (s *ConfigStore) Path() string {
	return s.path
}

// flatten copies tree into dst with table names joined by dots,
// so {"a": {"b": 1}} becomes {"a.b": 1}.
func flatten(dst map[string]any, prefix string, tree map[string]any) {
	for k, v := range tree {
		if prefix != "" {
			k = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(dst, k, sub)
		} else {
			dst[k] = v
		}
	}
}

// unflatten rebuilds TOML tables from dotted keys. Where a key names both
// a scalar and a table, the table wins.
func unflatten(flat map[string]any) map[string]any {
	tree := map[string]any{}
	for key, v := range flat {
		path := strings.Split(key, ".")
		last := len(path) - 1
		node := tree
		for _, name := range path[:last] {
			sub, ok := node[name].(map[string]any)
			if !ok {
				sub = map[string]any{}
				node[name] = sub
			}
			node = sub
		}
		if _, ok := node[path[last]].(map[string]any); !ok {
			node[path[last]] = v
		}
	}
	return tree
}
