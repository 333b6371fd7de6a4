package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"insights/internal/core"
)

const DefaultBatchSize = 2000

type (
	// Source yields the full set of transactions to load.
	Source interface {
		ReadTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	// Writer is the write side of a persistent store. Only the loader uses it.
	Writer interface {
		ResetTransactions(ctx context.Context) error
		InsertTransactions(ctx context.Context, txs []core.Transaction) error
	}
)

// Loader replaces the contents of a Writer with everything read from a Source.
type Loader struct {
	source    Source
	writer    Writer
	batchSize int
	logger    *slog.Logger
}

func NewLoader(source Source, writer Writer, batchSize int, logger *slog.Logger) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{source: source, writer: writer, batchSize: batchSize, logger: logger}
}

// Run reads the source before touching the writer, so a malformed export
// leaves the previous dataset in place. It returns the number of rows written.
func (l *Loader) Run(ctx context.Context) (int, error) {
	txs, err := l.source.ReadTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("read source: %w", err)
	}
	l.logger.InfoContext(ctx, "Source read", "rows", len(txs))

	if err := l.writer.ResetTransactions(ctx); err != nil {
		return 0, fmt.Errorf("reset transactions: %w", err)
	}

	total := 0
	for start := 0; start < len(txs); start += l.batchSize {
		end := min(start+l.batchSize, len(txs))
		if err := l.writer.InsertTransactions(ctx, txs[start:end]); err != nil {
			return total, fmt.Errorf("insert batch at row %d: %w", start, err)
		}
		total += end - start
		l.logger.InfoContext(ctx, "Inserted rows", "total", total)
	}
	return total, nil
}
