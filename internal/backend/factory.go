package backend

import (
	"context"
	"errors"
	"fmt"

	"sumator/internal/amqp"
	"sumator/internal/log"
	"sumator/internal/storage"
	"sumator/internal/storage/memory"
	"sumator/internal/storage/sqlite"
	"sumator/internal/store"
)

// NotifierConn is a notifier holding a broker connection.
type NotifierConn interface {
	store.Notifier
	Close() error
}

// Dialer opens the change-event notifier.
type Dialer func(url, exchange, queue string, logger *log.Logger) (NotifierConn, error)

func dialAMQP(url, exchange, queue string, logger *log.Logger) (NotifierConn, error) {
	return amqp.NewClient(url, exchange, queue, logger)
}

var _ Factory = (*DefaultFactory)(nil)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
	dial   Dialer
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
		dial:   dialAMQP,
	}
}

// WithDialer replaces the AMQP dialer.
func (f *DefaultFactory) WithDialer(d Dialer) *DefaultFactory {
	f.dial = d
	return f
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		backend storage.Backend
		closer  func() error
	)
	switch config.Type {
	case SQLiteBackend:
		db, err := sqlite.Open(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite backend: %w", err)
		}
		if err := db.Ping(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to reach SQLite backend: %w", err)
		}
		backend, closer = db, db.Close
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		mem := memory.New()
		backend, closer = mem, mem.Close
		f.logger.Info("Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	result := &BackendResult{Backend: backend}
	var notifier NotifierConn
	if config.AMQPURL != "" {
		n, err := f.dial(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			notifier = n
			result.Notifier = n
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	result.Cleanup = func() error {
		var errs []error
		if notifier != nil {
			errs = append(errs, notifier.Close())
		}
		errs = append(errs, closer())
		return errors.Join(errs...)
	}
	return result, nil
}
