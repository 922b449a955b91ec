package storage

import (
	"encoding/json"
	"fmt"
)

// Store is the key-value surface a Slot persists through
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Slot persists one JSON-encoded value of type T under a fixed key
type Slot[T any] struct {
	store Store
	key   string
}

// NewSlot creates a slot for key in store
func NewSlot[T any](store Store, key string) *Slot[T] {
	return &Slot[T]{store: store, key: key}
}

// Load returns the stored value. The boolean is false when nothing has been
// saved yet.
func (s *Slot[T]) Load() (T, bool, error) {
	var v T
	raw, ok, err := s.store.Get(s.key)
	if err != nil || !ok {
		return v, false, err
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, false, fmt.Errorf("failed to decode %s: %w", s.key, err)
	}
	return v, true, nil
}

// Save replaces the stored value
func (s *Slot[T]) Save(v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.key, err)
	}
	return s.store.Set(s.key, string(data))
}

// Clear removes the stored value
func (s *Slot[T]) Clear() error {
	return s.store.Delete(s.key)
}
