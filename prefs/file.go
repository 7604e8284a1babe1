package prefs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	toml "github.com/pelletier/go-toml/v2"
)

const DefaultPath = "~/.config/headlamp/prefs.toml"

// FileStore keeps preferences in a TOML file. A missing or unreadable file yields empty preferences.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]interface{}
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	resolved, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve prefs path: %w", err)
	}
	return &FileStore{path: resolved, values: load(resolved)}, nil
}

func load(path string) map[string]interface{} {
	values := map[string]interface{}{}
	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.L().Warning("cannot read preferences, using defaults", helpers.Error(err), helpers.String("path", path))
		}
		return values
	}
	if err := toml.Unmarshal(b, &values); err != nil {
		logger.L().Warning("cannot parse preferences, using defaults", helpers.Error(err), helpers.String("path", path))
		return map[string]interface{}{}
	}
	return values
}

// Path returns the resolved file location.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) GetBool(_ context.Context, key string) (bool, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return false, false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, true, wrongType(key, v)
	}
	return b, true, nil
}

func (f *FileStore) SetBool(_ context.Context, key string, value bool) error {
	return f.set(key, value)
}

func (f *FileStore) GetString(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", true, wrongType(key, v)
	}
	return s, true, nil
}

func (f *FileStore) SetString(_ context.Context, key string, value string) error {
	return f.set(key, value)
}

func (f *FileStore) Close() error {
	return nil
}

func (f *FileStore) set(key string, value interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return f.save()
}

func (f *FileStore) save() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	b, err := toml.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
