package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budget/internal/amqp"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/storage"
	"budget/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger   *log.Logger
	cacheTTL time.Duration
}

// NewFactory creates a new backend factory. cacheTTL bounds how long a
// derived summary is reused.
func NewFactory(logger *log.Logger, cacheTTL time.Duration) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger:   logger.WithComponent(log.ComponentBackend),
		cacheTTL: cacheTTL,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.StorageKey == "" {
		config.StorageKey = storage.DefaultKey
	}

	var (
		store storage.DocumentStore
		err   error
	)
	switch config.Type {
	case SQLiteBackend:
		store, err = storage.NewSQLiteRepository(config.SQLiteDBPath, config.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		store, err = memory.NewFromFile(config.MemorySeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize memory store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized memory backend", "seed_file", config.MemorySeedFile)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	opts := []services.Option{services.WithLogger(f.logger)}
	if f.cacheTTL > 0 {
		opts = append(opts, services.WithSummaryCache(64, f.cacheTTL))
	}

	// AMQP is optional; a broker that is down must not block bookkeeping
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
			amqpClient = nil
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			opts = append(opts, services.WithPublisher(amqpClient))
		}
	}

	svc := services.NewLedgerService(store, opts...)
	return &BackendResult{
		Store:   store,
		Service: svc,
		Cleanup: func() error {
			var errs []error
			if amqpClient != nil {
				errs = append(errs, amqpClient.Close())
			}
			errs = append(errs, svc.Close())
			return errors.Join(errs...)
		},
	}, nil
}
