package store

import (
	"io"
	"log"
)

// Snapshotter persists one value across process restarts. Load reports
// false when nothing has been saved yet.
type Snapshotter[T any] interface {
	Load() (T, bool, error)
	Save(T) error
	Clear() error
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
