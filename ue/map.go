package ue

import (
	"io"

	"github.com/pkg/errors"
)

type MapEntry[K, V any] struct {
	Key   K
	Value V
}

// Map keeps entries exactly as they were read. Duplicate keys are not
// merged; every occurrence stays at its original position.
type Map[K, V any] struct {
	Entries []MapEntry[K, V]
}

func (m Map[K, V]) Len() int {
	return len(m.Entries)
}

// Find returns the value of the first entry whose key matches.
func (m Map[K, V]) Find(match func(K) bool) (V, bool) {
	for _, entry := range m.Entries {
		if match(entry.Key) {
			return entry.Value, true
		}
	}
	var zero V
	return zero, false
}

func (m Map[K, V]) Keys() []K {
	keys := make([]K, len(m.Entries))
	for i, entry := range m.Entries {
		keys[i] = entry.Key
	}
	return keys
}

// Get is Find by equality for comparable keys.
func Get[K comparable, V any](m Map[K, V], key K) (V, bool) {
	return m.Find(func(k K) bool { return k == key })
}

// ReadMap reads an int32 count followed by that many key/value pairs.
func ReadMap[K, V any](r io.Reader, readKey ElementReader[K], readValue ElementReader[V]) (Map[K, V], error) {
	count, err := ReadCount[int32](r)
	if err != nil {
		return Map[K, V]{}, err
	}

	entries := make([]MapEntry[K, V], 0, min(count, 1024))
	for i := 0; i < count; i++ {
		key, err := readKey(r)
		if err != nil {
			return Map[K, V]{}, errors.Wrapf(err, "key %d of %d", i, count)
		}
		value, err := readValue(r)
		if err != nil {
			return Map[K, V]{}, errors.Wrapf(err, "value %d of %d", i, count)
		}
		entries = append(entries, MapEntry[K, V]{Key: key, Value: value})
	}

	return Map[K, V]{Entries: entries}, nil
}
