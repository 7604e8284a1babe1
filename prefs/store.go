// Package prefs persists the few user preferences the dashboard keeps across sessions.
package prefs

import (
	"context"
	"errors"
	"fmt"
)

const (
	// SidebarKey holds true when the user shrunk the sidebar.
	SidebarKey = "sidebar"
	// ThemeKey holds the name of the selected theme.
	ThemeKey = "theme"
)

var ErrWrongType = errors.New("preference has a different type")

// Store is a small key-value store for user preferences.
type Store interface {
	GetBool(ctx context.Context, key string) (value bool, found bool, err error)
	SetBool(ctx context.Context, key string, value bool) error
	GetString(ctx context.Context, key string) (value string, found bool, err error)
	SetString(ctx context.Context, key string, value string) error
	Close() error
}

func wrongType(key string, value interface{}) error {
	return fmt.Errorf("%w: %s is %T", ErrWrongType, key, value)
}
