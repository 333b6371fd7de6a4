package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"insights/internal/amqp"
	"insights/internal/metrics/memory"
	"insights/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend. The store is opened while
// the broker is dialed, so a slow broker does not add to store startup.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		g      errgroup.Group
		result *BackendResult
		client *amqp.Client
	)
	g.Go(func() (err error) {
		switch config.Type {
		case SQLiteBackend:
			result, err = f.createSQLiteBackend(config)
		case MemoryBackend:
			result, err = f.createMemoryBackend(config)
		default:
			err = fmt.Errorf("unsupported backend type: %s", config.Type)
		}
		return err
	})
	if config.AMQPURL != "" {
		g.Go(func() error {
			client = f.dialPublisher(config)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if client != nil {
			_ = client.Close()
		}
		return nil, err
	}

	if client != nil {
		attachPublisher(result, client)
	}
	f.logger.DebugContext(ctx, "Backend ready", "type", config.Type, "audit", result.Publisher != nil)
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store, err := memory.NewFromCSV(config.CSVPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "csv_path", config.CSVPath, "transactions", store.Len())

	return &BackendResult{Store: store}, nil
}

// dialPublisher connects the audit publisher. A broker that is down at
// startup only disables auditing.
func (f *DefaultFactory) dialPublisher(config Config) *amqp.Client {
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without query audit", "error", err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}

func attachPublisher(result *BackendResult, client *amqp.Client) {
	result.Publisher = client
	storeCleanup := result.Cleanup
	result.Cleanup = func() error {
		var errs []error
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
		if storeCleanup != nil {
			if err := storeCleanup(); err != nil {
				errs = append(errs, fmt.Errorf("storage: %w", err))
			}
		}
		return errors.Join(errs...)
	}
}
