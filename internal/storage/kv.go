package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Namespaces used by the client. Clearing one never touches the other.
const (
	NamespaceSession     = "session"
	NamespacePreferences = "preferences"
)

// Namespace is an isolated key-value area of the state database
type Namespace struct {
	db   *DB
	name string
}

// Namespace returns the key-value area with the given name
func (db *DB) Namespace(name string) *Namespace {
	return &Namespace{db: db, name: name}
}

// Name returns the namespace name
func (n *Namespace) Name() string {
	return n.name
}

// Get returns the value stored under key. The boolean is false when the key
// is absent.
func (n *Namespace) Get(key string) (string, bool, error) {
	var value string
	err := n.db.QueryRow(
		"SELECT value FROM kv WHERE namespace = ? AND key = ?",
		n.name, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s/%s: %w", n.name, key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value
func (n *Namespace) Set(key, value string) error {
	_, err := n.db.Exec(`
		INSERT INTO kv (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, n.name, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", n.name, key, err)
	}
	return nil
}

// Delete removes key; deleting an absent key is not an error
func (n *Namespace) Delete(key string) error {
	if _, err := n.db.Exec("DELETE FROM kv WHERE namespace = ? AND key = ?", n.name, key); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", n.name, key, err)
	}
	return nil
}

// Clear removes every key in the namespace
func (n *Namespace) Clear() error {
	if _, err := n.db.Exec("DELETE FROM kv WHERE namespace = ?", n.name); err != nil {
		return fmt.Errorf("failed to clear %s: %w", n.name, err)
	}
	return nil
}
