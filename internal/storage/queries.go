package storage

import (
	"context"
	"database/sql"
	"slices"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the parameterized statements of the repository. Every
// statement filtering on time takes the four arguments of rangeArgs.
// Revenue columns are sums of TotalCents.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const dateFilter = `(? = '' OR TransactionDate >= ?) AND (? = '' OR TransactionDate <= ?)`

const transactionColumns = `id, CustomerID, ProductID, Quantity, Price, TransactionDate,
       PaymentMethod, StoreLocation, ProductCategory, DiscountAppliedPct, TotalAmount`

type TransactionRow struct {
	ID                 int64
	CustomerID         int64
	ProductID          string
	Quantity           int64
	Price              float64
	TransactionDate    string
	PaymentMethod      string
	StoreLocation      string
	ProductCategory    string
	DiscountAppliedPct float64
	TotalAmount        float64
}

func scanTransactions(rows *sql.Rows) ([]TransactionRow, error) {
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(
			&i.ID,
			&i.CustomerID,
			&i.ProductID,
			&i.Quantity,
			&i.Price,
			&i.TransactionDate,
			&i.PaymentMethod,
			&i.StoreLocation,
			&i.ProductCategory,
			&i.DiscountAppliedPct,
			&i.TotalAmount,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listCustomerTransactions = `SELECT ` + transactionColumns + `
FROM transactions
WHERE CustomerID = ? AND ` + dateFilter + `
ORDER BY TransactionDate, id`

func (q *Queries) ListCustomerTransactions(ctx context.Context, customerID int64, window []any) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listCustomerTransactions, append([]any{customerID}, window...)...)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

const getCustomerTotals = `SELECT COUNT(*), COALESCE(SUM(TotalCents), 0),
       COALESCE(MIN(TransactionDate), ''), COALESCE(MAX(TransactionDate), '')
FROM transactions
WHERE CustomerID = ? AND ` + dateFilter

type CustomerTotalsRow struct {
	TransactionCount int64
	TotalSpent       int64
	FirstTransaction string
	LastTransaction  string
}

func (q *Queries) GetCustomerTotals(ctx context.Context, customerID int64, window []any) (CustomerTotalsRow, error) {
	row := q.db.QueryRowContext(ctx, getCustomerTotals, append([]any{customerID}, window...)...)
	var i CustomerTotalsRow
	err := row.Scan(&i.TransactionCount, &i.TotalSpent, &i.FirstTransaction, &i.LastTransaction)
	return i, err
}

const listProductTransactions = `SELECT ` + transactionColumns + `
FROM transactions
WHERE ProductID = ? AND ` + dateFilter + `
ORDER BY TransactionDate, id`

func (q *Queries) ListProductTransactions(ctx context.Context, productID string, window []any) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listProductTransactions, append([]any{productID}, window...)...)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

const getProductTotals = `SELECT COUNT(*), COALESCE(SUM(Quantity), 0), COALESCE(SUM(TotalCents), 0),
       COUNT(DISTINCT CustomerID), COALESCE(AVG(DiscountAppliedPct), 0)
FROM transactions
WHERE ProductID = ? AND ` + dateFilter

type ProductTotalsRow struct {
	TransactionCount   int64
	TotalQuantity      int64
	TotalRevenue       int64
	UniqueCustomers    int64
	AverageDiscountPct float64
}

func (q *Queries) GetProductTotals(ctx context.Context, productID string, window []any) (ProductTotalsRow, error) {
	row := q.db.QueryRowContext(ctx, getProductTotals, append([]any{productID}, window...)...)
	var i ProductTotalsRow
	err := row.Scan(&i.TransactionCount, &i.TotalQuantity, &i.TotalRevenue, &i.UniqueCustomers, &i.AverageDiscountPct)
	return i, err
}

const listProductStores = `SELECT DISTINCT StoreLocation
FROM transactions
WHERE ProductID = ? AND ` + dateFilter + `
ORDER BY StoreLocation`

func (q *Queries) ListProductStores(ctx context.Context, productID string, window []any) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listProductStores, append([]any{productID}, window...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const getSummary = `SELECT COUNT(*), COALESCE(SUM(TotalCents), 0),
       COUNT(DISTINCT CustomerID), COUNT(DISTINCT ProductID),
       COALESCE(MIN(TransactionDate), ''), COALESCE(MAX(TransactionDate), '')
FROM transactions
WHERE ` + dateFilter

type SummaryRow struct {
	TransactionCount int64
	TotalRevenue     int64
	UniqueCustomers  int64
	UniqueProducts   int64
	FirstTransaction string
	LastTransaction  string
}

func (q *Queries) GetSummary(ctx context.Context, window []any) (SummaryRow, error) {
	row := q.db.QueryRowContext(ctx, getSummary, window...)
	var i SummaryRow
	err := row.Scan(&i.TransactionCount, &i.TotalRevenue, &i.UniqueCustomers, &i.UniqueProducts, &i.FirstTransaction, &i.LastTransaction)
	return i, err
}

const listMetricsByCategory = `SELECT ProductCategory, COUNT(*), COALESCE(SUM(Quantity), 0), COALESCE(SUM(TotalCents), 0) AS revenue
FROM transactions
WHERE ` + dateFilter + `
GROUP BY ProductCategory
ORDER BY revenue DESC, ProductCategory ASC`

const listMetricsByPayment = `SELECT PaymentMethod, COUNT(*), COALESCE(SUM(Quantity), 0), COALESCE(SUM(TotalCents), 0) AS revenue
FROM transactions
WHERE ` + dateFilter + `
GROUP BY PaymentMethod
ORDER BY revenue DESC, PaymentMethod ASC`

type GroupRow struct {
	Key              string
	TransactionCount int64
	TotalQuantity    int64
	TotalRevenue     int64
}

func (q *Queries) listGroups(ctx context.Context, query string, window []any) ([]GroupRow, error) {
	rows, err := q.db.QueryContext(ctx, query, window...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GroupRow
	for rows.Next() {
		var i GroupRow
		if err := rows.Scan(&i.Key, &i.TransactionCount, &i.TotalQuantity, &i.TotalRevenue); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (q *Queries) ListMetricsByCategory(ctx context.Context, window []any) ([]GroupRow, error) {
	return q.listGroups(ctx, listMetricsByCategory, window)
}

func (q *Queries) ListMetricsByPayment(ctx context.Context, window []any) ([]GroupRow, error) {
	return q.listGroups(ctx, listMetricsByPayment, window)
}

const listTopCustomers = `SELECT CustomerID, COUNT(*), SUM(TotalCents) AS spent
FROM transactions
WHERE ` + dateFilter + `
GROUP BY CustomerID
ORDER BY spent DESC, CustomerID ASC
LIMIT ?`

type CustomerRankRow struct {
	CustomerID       int64
	TransactionCount int64
	TotalSpent       int64
}

func (q *Queries) ListTopCustomers(ctx context.Context, window []any, limit int64) ([]CustomerRankRow, error) {
	rows, err := q.db.QueryContext(ctx, listTopCustomers, append(slices.Clone(window), limit)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CustomerRankRow
	for rows.Next() {
		var i CustomerRankRow
		if err := rows.Scan(&i.CustomerID, &i.TransactionCount, &i.TotalSpent); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listTopProducts = `SELECT ProductID, COUNT(*), SUM(Quantity) AS qty, SUM(TotalCents) AS revenue
FROM transactions
WHERE ` + dateFilter + `
GROUP BY ProductID
ORDER BY revenue DESC, qty DESC, ProductID ASC
LIMIT ?`

type ProductRankRow struct {
	ProductID        string
	TransactionCount int64
	QuantitySold     int64
	TotalRevenue     int64
}

func (q *Queries) ListTopProducts(ctx context.Context, window []any, limit int64) ([]ProductRankRow, error) {
	rows, err := q.db.QueryContext(ctx, listTopProducts, append(slices.Clone(window), limit)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ProductRankRow
	for rows.Next() {
		var i ProductRankRow
		if err := rows.Scan(&i.ProductID, &i.TransactionCount, &i.QuantitySold, &i.TotalRevenue); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteTransactions = `DELETE FROM transactions`

const resetTransactionSequence = `DELETE FROM sqlite_sequence WHERE name = 'transactions'`

func (q *Queries) DeleteTransactions(ctx context.Context) error {
	if _, err := q.db.ExecContext(ctx, deleteTransactions); err != nil {
		return err
	}
	_, err := q.db.ExecContext(ctx, resetTransactionSequence)
	return err
}

const insertTransaction = `INSERT INTO transactions (
    CustomerID, ProductID, Quantity, Price, TransactionDate,
    PaymentMethod, StoreLocation, ProductCategory, DiscountAppliedPct, TotalAmount, TotalCents
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertQueryLog = `INSERT OR IGNORE INTO query_log (
    id, kind, metric, date_range, status, code, error, duration_ms, occurred_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

type InsertQueryLogParams struct {
	ID         string
	Kind       string
	Metric     string
	DateRange  string
	Status     string
	Code       string
	Error      string
	DurationMs int64
	OccurredAt string
}

func (q *Queries) InsertQueryLog(ctx context.Context, arg InsertQueryLogParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertQueryLog,
		arg.ID,
		arg.Kind,
		arg.Metric,
		arg.DateRange,
		arg.Status,
		arg.Code,
		arg.Error,
		arg.DurationMs,
		arg.OccurredAt,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countQueryLog = `SELECT COUNT(*) FROM query_log`

func (q *Queries) CountQueryLog(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countQueryLog).Scan(&n)
	return n, err
}
