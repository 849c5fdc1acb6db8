package backend

import (
	"context"

	"tally/internal/blob"
	"tally/internal/expense"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the storage, the optional change notifier and a
// cleanup function releasing both.
type BackendResult struct {
	Storage  blob.Storage
	Notifier expense.Notifier
	Cleanup  CleanupFunc
}

// Close runs Cleanup when present.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// File backend
	DataDirectory string

	// SQLite backend
	SQLiteDBPath string

	// Change notifications, optional for every backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// IsValid checks if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

func (bt BackendType) String() string {
	return string(bt)
}
