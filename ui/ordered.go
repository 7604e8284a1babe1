package ui

import (
	"maps"
	"slices"
)

// orderedMap is a persistent insertion-ordered map. Writers return a new value and never touch
// the receiver, so older snapshots stay valid.
type orderedMap[V any] struct {
	keys   []string
	index  map[string]int
	values []V
}

// with upserts key. Overwriting keeps the key position and shares keys and index with the receiver.
func (m orderedMap[V]) with(key string, value V) orderedMap[V] {
	if i, ok := m.index[key]; ok {
		values := slices.Clone(m.values)
		values[i] = value
		return orderedMap[V]{keys: m.keys, index: m.index, values: values}
	}
	index := maps.Clone(m.index)
	if index == nil {
		index = make(map[string]int, 1)
	}
	index[key] = len(m.keys)
	return orderedMap[V]{
		keys:   append(slices.Clip(m.keys), key),
		index:  index,
		values: append(slices.Clip(m.values), value),
	}
}

func (m orderedMap[V]) get(key string) (V, bool) {
	i, ok := m.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	return m.values[i], true
}

func (m orderedMap[V]) list() []V {
	return slices.Clone(m.values)
}

func (m orderedMap[V]) len() int {
	return len(m.keys)
}
