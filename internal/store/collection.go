// Package store holds the client-side domain state: the session, the cached
// expense and category collections, and display preferences
package store

import (
	"sync"

	"github.com/findosh/moneymanager/internal/models"
)

// Record is an entity with a canonical identifier
type Record interface {
	RecordID() string
}

// Patch transforms a record. Implementations are shallow merges.
type Patch[T any] interface {
	Apply(T) T
}

// Replace is a Patch that swaps in a server-confirmed record wholesale
type Replace[T any] struct {
	Value T
}

// Apply returns the replacement value
func (r Replace[T]) Apply(T) T {
	return r.Value
}

// InsertOrder decides where Insert places a new item
type InsertOrder int

const (
	Prepend InsertOrder = iota
	Append
)

// Collection is an in-memory cache of records mirrored from the API.
// Every operation is total: no I/O, no validation, no deduplication.
type Collection[T Record] struct {
	mu    sync.RWMutex
	items []T
	order InsertOrder
	subs  subscribers[[]T]
}

// NewCollection creates an empty collection
func NewCollection[T Record](order InsertOrder) *Collection[T] {
	return &Collection[T]{order: order}
}

// NewExpenses creates the expense cache; newest confirmed expenses go first
func NewExpenses() *Collection[models.Expense] {
	return NewCollection[models.Expense](Prepend)
}

// NewCategories creates the category cache
func NewCategories() *Collection[models.Category] {
	return NewCollection[models.Category](Append)
}

// ReplaceAll discards the current contents in favour of items
func (c *Collection[T]) ReplaceAll(items []T) {
	c.mu.Lock()
	c.items = append([]T(nil), items...)
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.subs.notify(snapshot)
}

// Insert adds a confirmed new item
func (c *Collection[T]) Insert(item T) {
	c.mu.Lock()
	if c.order == Prepend {
		c.items = append([]T{item}, c.items...)
	} else {
		c.items = append(c.items, item)
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.subs.notify(snapshot)
}

// Update applies patch to every item with the given id. Absent ids are a no-op.
func (c *Collection[T]) Update(id string, patch Patch[T]) {
	c.mu.Lock()
	changed := false
	for i := range c.items {
		if c.items[i].RecordID() == id {
			c.items[i] = patch.Apply(c.items[i])
			changed = true
		}
	}
	var snapshot []T
	if changed {
		snapshot = c.snapshotLocked()
	}
	c.mu.Unlock()
	if changed {
		c.subs.notify(snapshot)
	}
}

// Remove drops every item with the given id. Absent ids are a no-op.
func (c *Collection[T]) Remove(id string) {
	c.mu.Lock()
	kept := c.items[:0:0]
	for _, item := range c.items {
		if item.RecordID() != id {
			kept = append(kept, item)
		}
	}
	changed := len(kept) != len(c.items)
	c.items = kept
	var snapshot []T
	if changed {
		snapshot = c.snapshotLocked()
	}
	c.mu.Unlock()
	if changed {
		c.subs.notify(snapshot)
	}
}

// Items returns a copy of the current contents
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Find returns the first item with the given id
func (c *Collection[T]) Find(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if item.RecordID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Len returns the number of cached items
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Subscribe registers fn to receive the contents after every change
func (c *Collection[T]) Subscribe(fn func([]T)) (unsubscribe func()) {
	return c.subs.add(fn)
}

func (c *Collection[T]) snapshotLocked() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}
