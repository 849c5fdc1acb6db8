package backend

import (
	"context"
	"errors"
	"fmt"

	"tally/internal/amqp"
	"tally/internal/blob"
	"tally/internal/blob/file"
	"tally/internal/blob/memory"
	"tally/internal/blob/sqlite"
	"tally/internal/expense"
	"tally/internal/log"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger

	// dialNotifier is replaced in tests.
	dialNotifier func(url, exchange, queue string) (notifier, error)
}

type notifier interface {
	expense.Notifier
	Close() error
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
		dialNotifier: func(url, exchange, queue string) (notifier, error) {
			c, err := amqp.NewClient(url, exchange, queue)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		storage blob.Storage
		closers []func() error
	)

	switch config.Type {
	case FileBackend:
		store, err := file.New(config.DataDirectory)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file storage: %w", err)
		}
		storage = store
		f.logger.Info("Initialized file backend", "data_directory", config.DataDirectory)
	case SQLiteBackend:
		store, err := sqlite.New(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
		}
		storage = store
		closers = append(closers, store.Close)
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		storage = memory.New()
		f.logger.Info("Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	result := &BackendResult{Storage: storage}

	// AMQP is optional; a broker that cannot be reached disables notifications.
	if config.AMQPURL != "" {
		n, err := f.dialNotifier(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without notifications", "error", err)
		} else {
			result.Notifier = n
			closers = append(closers, n.Close)
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	if len(closers) > 0 {
		result.Cleanup = func() error {
			var errs []error
			for i := len(closers) - 1; i >= 0; i-- {
				errs = append(errs, closers[i]())
			}
			return errors.Join(errs...)
		}
	}

	return result, nil
}
