package prefs

import (
	"context"

	"github.com/goradd/maps"
)

// MemoryStore keeps preferences for the lifetime of the process.
type MemoryStore struct {
	values maps.SafeMap[string, interface{}]
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) GetBool(_ context.Context, key string) (bool, bool, error) {
	v, ok := m.values.Load(key)
	if !ok {
		return false, false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, true, wrongType(key, v)
	}
	return b, true, nil
}

func (m *MemoryStore) SetBool(_ context.Context, key string, value bool) error {
	m.values.Set(key, value)
	return nil
}

func (m *MemoryStore) GetString(_ context.Context, key string) (string, bool, error) {
	v, ok := m.values.Load(key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", true, wrongType(key, v)
	}
	return s, true, nil
}

func (m *MemoryStore) SetString(_ context.Context, key string, value string) error {
	m.values.Set(key, value)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
