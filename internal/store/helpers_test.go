package store

import (
	"errors"
	"sync"

	"github.com/findosh/moneymanager/internal/models"
)

var errDiskFull = errors.New("disk full")

// memorySlot is an in-memory Snapshotter that counts writes
type memorySlot[T any] struct {
	mu      sync.Mutex
	value   T
	ok      bool
	saves   int
	clears  int
	saveErr error
	loadErr error
}

func (m *memorySlot[T]) Load() (T, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		var zero T
		return zero, false, m.loadErr
	}
	return m.value, m.ok, nil
}

func (m *memorySlot[T]) Save(v T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.value, m.ok = v, true
	m.saves++
	return nil
}

func (m *memorySlot[T]) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	m.value, m.ok = zero, false
	m.clears++
	return nil
}

// recordingSurface counts theme applications
type recordingSurface struct {
	applied []models.Theme
}

func (r *recordingSurface) ApplyTheme(t models.Theme) {
	r.applied = append(r.applied, t)
}
