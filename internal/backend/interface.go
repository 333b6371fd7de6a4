// Package backend builds the metrics store and the optional audit
// publisher selected by configuration.
package backend

import (
	"context"

	"insights/internal/metrics"
	"insights/internal/services"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult holds the store and the optional audit publisher. Publisher
// is nil when auditing is disabled or the broker was unreachable at startup.
type BackendResult struct {
	Store     metrics.Store
	Publisher services.AuditPublisher
	Cleanup   CleanupFunc
}

// Ready reports whether the store is reachable.
func (r *BackendResult) Ready(ctx context.Context) error {
	if p, ok := r.Store.(metrics.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory specific
	CSVPath string

	// Query audit; empty URL disables publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
