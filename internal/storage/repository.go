package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"insights/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the persistent metrics store. The query path only
// reads; writes are reserved for the loader and the query log.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return NewSQLiteRepositoryFromDB(db), nil
}

// NewSQLiteRepositoryFromDB wraps an already migrated database.
func NewSQLiteRepositoryFromDB(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, queries: New(db)}
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// rangeArgs renders rng as the bound arguments of dateFilter. Stored
// timestamps have minute resolution, so the last minute closes the day.
func rangeArgs(rng *core.DateRange) []any {
	if rng == nil {
		return []any{"", "", "", ""}
	}
	from := rng.From.Format(core.DateLayout) + " 00:00"
	to := rng.To.Format(core.DateLayout) + " 23:59"
	return []any{from, from, to, to}
}

// withSnapshot runs fn inside one transaction. SQLite holds the shared lock
// from the first read until commit, so a lookup's rows and totals see the
// same state even while the loader is writing.
func (r *SQLiteRepository) withSnapshot(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin read transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(r.queries.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit()
}

func parseStamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(core.TransactionTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", s, err)
	}
	return t, nil
}

func toTransactions(rows []TransactionRow) ([]core.Transaction, error) {
	out := make([]core.Transaction, len(rows))
	for i, row := range rows {
		when, err := parseStamp(row.TransactionDate)
		if err != nil {
			return nil, err
		}
		out[i] = core.Transaction{
			ID:              row.ID,
			CustomerID:      row.CustomerID,
			ProductID:       row.ProductID,
			Quantity:        row.Quantity,
			Price:           row.Price,
			TransactionDate: when,
			PaymentMethod:   row.PaymentMethod,
			StoreLocation:   row.StoreLocation,
			ProductCategory: row.ProductCategory,
			DiscountPct:     row.DiscountAppliedPct,
			TotalAmount:     row.TotalAmount,
		}
	}
	return out, nil
}

// CustomerLookup implements metrics.CustomerReader
func (r *SQLiteRepository) CustomerLookup(ctx context.Context, customerID int64, rng *core.DateRange) (core.Lookup[core.CustomerReport], error) {
	window := rangeArgs(rng)
	var (
		rows   []TransactionRow
		totals CustomerTotalsRow
	)
	err := r.withSnapshot(ctx, func(q *Queries) (err error) {
		if rows, err = q.ListCustomerTransactions(ctx, customerID, window); err != nil {
			return err
		}
		totals, err = q.GetCustomerTotals(ctx, customerID, window)
		return err
	})
	if err != nil {
		return core.NotFound[core.CustomerReport](), fmt.Errorf("get customer %d: %w", customerID, err)
	}
	if totals.TransactionCount == 0 {
		return core.NotFound[core.CustomerReport](), nil
	}

	txs, err := toTransactions(rows)
	if err != nil {
		return core.NotFound[core.CustomerReport](), err
	}
	first, err := parseStamp(totals.FirstTransaction)
	if err != nil {
		return core.NotFound[core.CustomerReport](), err
	}
	last, err := parseStamp(totals.LastTransaction)
	if err != nil {
		return core.NotFound[core.CustomerReport](), err
	}

	slog.DebugContext(ctx, "Customer lookup", "customer_id", customerID, "transactions", totals.TransactionCount, "range", rng.String())
	return core.Found(core.CustomerReport{
		CustomerID:       customerID,
		Transactions:     txs,
		TransactionCount: int(totals.TransactionCount),
		TotalSpent:       core.Cents(totals.TotalSpent).Amount(),
		FirstTransaction: first,
		LastTransaction:  last,
		Filters:          rng.Filters(),
	}), nil
}

// ProductLookup implements metrics.ProductReader
func (r *SQLiteRepository) ProductLookup(ctx context.Context, productID string, rng *core.DateRange) (core.Lookup[core.ProductReport], error) {
	window := rangeArgs(rng)
	var (
		rows   []TransactionRow
		totals ProductTotalsRow
		stores []string
	)
	err := r.withSnapshot(ctx, func(q *Queries) (err error) {
		if rows, err = q.ListProductTransactions(ctx, productID, window); err != nil {
			return err
		}
		if totals, err = q.GetProductTotals(ctx, productID, window); err != nil {
			return err
		}
		stores, err = q.ListProductStores(ctx, productID, window)
		return err
	})
	if err != nil {
		return core.NotFound[core.ProductReport](), fmt.Errorf("get product %s: %w", productID, err)
	}
	if totals.TransactionCount == 0 {
		return core.NotFound[core.ProductReport](), nil
	}

	txs, err := toTransactions(rows)
	if err != nil {
		return core.NotFound[core.ProductReport](), err
	}
	if stores == nil {
		stores = []string{}
	}

	slog.DebugContext(ctx, "Product lookup", "product_id", productID, "transactions", totals.TransactionCount, "range", rng.String())
	return core.Found(core.ProductReport{
		ProductID:          productID,
		Transactions:       txs,
		TransactionCount:   int(totals.TransactionCount),
		TotalQuantity:      totals.TotalQuantity,
		TotalRevenue:       core.Cents(totals.TotalRevenue).Amount(),
		UniqueCustomers:    int(totals.UniqueCustomers),
		AverageDiscountPct: totals.AverageDiscountPct,
		Stores:             stores,
		StoreCount:         len(stores),
		Filters:            rng.Filters(),
	}), nil
}

// Summary implements metrics.BusinessReader
func (r *SQLiteRepository) Summary(ctx context.Context, rng *core.DateRange) (core.Lookup[core.MetricsSummary], error) {
	row, err := r.queries.GetSummary(ctx, rangeArgs(rng))
	if err != nil {
		return core.NotFound[core.MetricsSummary](), fmt.Errorf("get summary: %w", err)
	}
	if row.TransactionCount == 0 {
		return core.NotFound[core.MetricsSummary](), nil
	}
	first, err := parseStamp(row.FirstTransaction)
	if err != nil {
		return core.NotFound[core.MetricsSummary](), err
	}
	last, err := parseStamp(row.LastTransaction)
	if err != nil {
		return core.NotFound[core.MetricsSummary](), err
	}
	return core.Found(core.MetricsSummary{
		TotalRevenue:     core.Cents(row.TotalRevenue).Amount(),
		TransactionCount: int(row.TransactionCount),
		UniqueCustomers:  int(row.UniqueCustomers),
		UniqueProducts:   int(row.UniqueProducts),
		FirstTransaction: first,
		LastTransaction:  last,
		Filters:          rng.Filters(),
	}), nil
}

// ByCategory implements metrics.BusinessReader
func (r *SQLiteRepository) ByCategory(ctx context.Context, rng *core.DateRange) (core.Lookup[core.GroupedMetrics], error) {
	rows, err := r.queries.ListMetricsByCategory(ctx, rangeArgs(rng))
	if err != nil {
		return core.NotFound[core.GroupedMetrics](), fmt.Errorf("get metrics by category: %w", err)
	}
	return grouped(core.DimensionCategory, rows, rng), nil
}

// ByPayment implements metrics.BusinessReader
func (r *SQLiteRepository) ByPayment(ctx context.Context, rng *core.DateRange) (core.Lookup[core.GroupedMetrics], error) {
	rows, err := r.queries.ListMetricsByPayment(ctx, rangeArgs(rng))
	if err != nil {
		return core.NotFound[core.GroupedMetrics](), fmt.Errorf("get metrics by payment: %w", err)
	}
	return grouped(core.DimensionPayment, rows, rng), nil
}

func grouped(dimension string, rows []GroupRow, rng *core.DateRange) core.Lookup[core.GroupedMetrics] {
	if len(rows) == 0 {
		return core.NotFound[core.GroupedMetrics]()
	}
	groups := make([]core.GroupMetric, len(rows))
	for i, row := range rows {
		groups[i] = core.GroupMetric{
			Key:              row.Key,
			TransactionCount: int(row.TransactionCount),
			TotalQuantity:    row.TotalQuantity,
			TotalRevenue:     core.Cents(row.TotalRevenue).Amount(),
		}
	}
	return core.Found(core.GroupedMetrics{Dimension: dimension, Groups: groups, Filters: rng.Filters()})
}

// TopCustomers implements metrics.BusinessReader
func (r *SQLiteRepository) TopCustomers(ctx context.Context, rng *core.DateRange, limit int) (core.Lookup[core.TopCustomers], error) {
	rows, err := r.queries.ListTopCustomers(ctx, rangeArgs(rng), int64(core.NormalizeLimit(limit)))
	if err != nil {
		return core.NotFound[core.TopCustomers](), fmt.Errorf("get top customers: %w", err)
	}
	if len(rows) == 0 {
		return core.NotFound[core.TopCustomers](), nil
	}
	ranks := make([]core.CustomerRank, len(rows))
	for i, row := range rows {
		ranks[i] = core.CustomerRank{
			CustomerID:       row.CustomerID,
			TransactionCount: int(row.TransactionCount),
			TotalSpent:       core.Cents(row.TotalSpent).Amount(),
		}
	}
	return core.Found(core.NewTopCustomers(ranks, limit, rng)), nil
}

// TopProducts implements metrics.BusinessReader
func (r *SQLiteRepository) TopProducts(ctx context.Context, rng *core.DateRange, limit int) (core.Lookup[core.TopProducts], error) {
	rows, err := r.queries.ListTopProducts(ctx, rangeArgs(rng), int64(core.NormalizeLimit(limit)))
	if err != nil {
		return core.NotFound[core.TopProducts](), fmt.Errorf("get top products: %w", err)
	}
	if len(rows) == 0 {
		return core.NotFound[core.TopProducts](), nil
	}
	ranks := make([]core.ProductRank, len(rows))
	for i, row := range rows {
		ranks[i] = core.ProductRank{
			ProductID:        row.ProductID,
			TransactionCount: int(row.TransactionCount),
			QuantitySold:     row.QuantitySold,
			TotalRevenue:     core.Cents(row.TotalRevenue).Amount(),
		}
	}
	return core.Found(core.NewTopProducts(ranks, limit, rng)), nil
}

// ResetTransactions implements ingest.Writer
func (r *SQLiteRepository) ResetTransactions(ctx context.Context) error {
	if err := r.queries.DeleteTransactions(ctx); err != nil {
		return fmt.Errorf("delete transactions: %w", err)
	}
	slog.InfoContext(ctx, "Transactions table cleared")
	return nil
}

// InsertTransactions implements ingest.Writer. The batch is written in a
// single transaction.
func (r *SQLiteRepository) InsertTransactions(ctx context.Context, txs []core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertTransaction)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txs {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			t.CustomerID,
			t.ProductID,
			t.Quantity,
			t.Price,
			core.FormatTimestamp(t.TransactionDate),
			t.PaymentMethod,
			t.StoreLocation,
			t.ProductCategory,
			t.DiscountPct,
			t.TotalAmount,
			int64(core.CentsOf(t.TotalAmount)),
		); err != nil {
			return fmt.Errorf("insert transaction for customer %d: %w", t.CustomerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RecordQuery stores an audit entry. Redelivered entries are ignored.
func (r *SQLiteRepository) RecordQuery(ctx context.Context, a core.QueryAudit) error {
	n, err := r.queries.InsertQueryLog(ctx, InsertQueryLogParams{
		ID:         a.ID,
		Kind:       string(a.Kind),
		Metric:     a.Metric,
		DateRange:  a.DateRange,
		Status:     string(a.Status),
		Code:       a.Code,
		Error:      a.Error,
		DurationMs: a.DurationMs,
		OccurredAt: a.OccurredAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("insert query log: %w", err)
	}
	if n == 0 {
		slog.DebugContext(ctx, "Query already recorded", "id", a.ID)
		return nil
	}
	slog.InfoContext(ctx, "Query recorded", "id", a.ID, "kind", a.Kind, "status", a.Status)
	return nil
}

// CountQueries returns the number of recorded audit entries.
func (r *SQLiteRepository) CountQueries(ctx context.Context) (int64, error) {
	n, err := r.queries.CountQueryLog(ctx)
	if err != nil {
		return 0, fmt.Errorf("count query log: %w", err)
	}
	return n, nil
}
