package prefs

import (
	"context"
	"fmt"

	"github.com/CloudEngineHub/headlamp/config"
)

// New opens the preference store selected in the configuration.
func New(ctx context.Context, cfg config.Prefs) (Store, error) {
	switch cfg.Backend {
	case "", config.PrefsBackendMemory:
		return NewMemoryStore(), nil
	case config.PrefsBackendFile:
		return NewFileStore(cfg.Path)
	case config.PrefsBackendPostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown prefs backend %q", cfg.Backend)
	}
}
