// Package memory provides an immutable, in-process metrics store. All
// aggregation happens on a private copy of the transactions taken at
// construction, so concurrent reads need no locking. Revenue is summed in
// cents; payload totals are converted back only after summing.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"slices"

	"insights/internal/core"
	"insights/internal/ingest"
)

type Store struct {
	txs []core.Transaction
}

// New copies txs, orders them by timestamp and assigns sequential ids to
// records loaded without one.
func New(txs []core.Transaction) *Store {
	own := make([]core.Transaction, len(txs))
	copy(own, txs)
	for i := range own {
		if own[i].ID == 0 {
			own[i].ID = int64(i + 1)
		}
	}
	slices.SortStableFunc(own, func(a, b core.Transaction) int {
		if c := a.TransactionDate.Compare(b.TransactionDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return &Store{txs: own}
}

// NewFromCSV loads the retail CSV export at path.
func NewFromCSV(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	txs, err := ingest.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	return New(txs), nil
}

// Len reports the number of loaded transactions.
func (s *Store) Len() int { return len(s.txs) }

// Ping always succeeds; the store has no backing connection.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) filter(rng *core.DateRange, keep func(core.Transaction) bool) []core.Transaction {
	var out []core.Transaction
	for _, tx := range s.txs {
		if !rng.Contains(tx.TransactionDate) {
			continue
		}
		if keep != nil && !keep(tx) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func (s *Store) CustomerLookup(ctx context.Context, customerID int64, rng *core.DateRange) (core.Lookup[core.CustomerReport], error) {
	if err := ctx.Err(); err != nil {
		return core.NotFound[core.CustomerReport](), err
	}
	rows := s.filter(rng, func(tx core.Transaction) bool { return tx.CustomerID == customerID })
	if len(rows) == 0 {
		return core.NotFound[core.CustomerReport](), nil
	}

	report := core.CustomerReport{
		CustomerID:       customerID,
		Transactions:     rows,
		TransactionCount: len(rows),
		FirstTransaction: rows[0].TransactionDate,
		LastTransaction:  rows[len(rows)-1].TransactionDate,
		Filters:          rng.Filters(),
	}
	var spent core.Cents
	for _, tx := range rows {
		spent += core.CentsOf(tx.TotalAmount)
	}
	report.TotalSpent = spent.Amount()
	return core.Found(report), nil
}

func (s *Store) ProductLookup(ctx context.Context, productID string, rng *core.DateRange) (core.Lookup[core.ProductReport], error) {
	if err := ctx.Err(); err != nil {
		return core.NotFound[core.ProductReport](), err
	}
	rows := s.filter(rng, func(tx core.Transaction) bool { return tx.ProductID == productID })
	if len(rows) == 0 {
		return core.NotFound[core.ProductReport](), nil
	}

	customers := map[int64]struct{}{}
	stores := map[string]struct{}{}
	var (
		discount float64
		revenue  core.Cents
	)
	report := core.ProductReport{
		ProductID:        productID,
		Transactions:     rows,
		TransactionCount: len(rows),
		Filters:          rng.Filters(),
	}
	for _, tx := range rows {
		report.TotalQuantity += tx.Quantity
		revenue += core.CentsOf(tx.TotalAmount)
		discount += tx.DiscountPct
		customers[tx.CustomerID] = struct{}{}
		stores[tx.StoreLocation] = struct{}{}
	}
	report.TotalRevenue = revenue.Amount()
	report.UniqueCustomers = len(customers)
	report.AverageDiscountPct = discount / float64(len(rows))
	report.Stores = make([]string, 0, len(stores))
	for store := range stores {
		report.Stores = append(report.Stores, store)
	}
	slices.Sort(report.Stores)
	report.StoreCount = len(report.Stores)
	return core.Found(report), nil
}

func (s *Store) Summary(ctx context.Context, rng *core.DateRange) (core.Lookup[core.MetricsSummary], error) {
	if err := ctx.Err(); err != nil {
		return core.NotFound[core.MetricsSummary](), err
	}
	rows := s.filter(rng, nil)
	if len(rows) == 0 {
		return core.NotFound[core.MetricsSummary](), nil
	}

	customers := map[int64]struct{}{}
	products := map[string]struct{}{}
	sum := core.MetricsSummary{
		TransactionCount: len(rows),
		FirstTransaction: rows[0].TransactionDate,
		LastTransaction:  rows[len(rows)-1].TransactionDate,
		Filters:          rng.Filters(),
	}
	var revenue core.Cents
	for _, tx := range rows {
		revenue += core.CentsOf(tx.TotalAmount)
		customers[tx.CustomerID] = struct{}{}
		products[tx.ProductID] = struct{}{}
	}
	sum.TotalRevenue = revenue.Amount()
	sum.UniqueCustomers = len(customers)
	sum.UniqueProducts = len(products)
	return core.Found(sum), nil
}

func (s *Store) ByCategory(ctx context.Context, rng *core.DateRange) (core.Lookup[core.GroupedMetrics], error) {
	return s.groupBy(ctx, rng, core.DimensionCategory, func(tx core.Transaction) string { return tx.ProductCategory })
}

func (s *Store) ByPayment(ctx context.Context, rng *core.DateRange) (core.Lookup[core.GroupedMetrics], error) {
	return s.groupBy(ctx, rng, core.DimensionPayment, func(tx core.Transaction) string { return tx.PaymentMethod })
}

func (s *Store) groupBy(ctx context.Context, rng *core.DateRange, dimension string, key func(core.Transaction) string) (core.Lookup[core.GroupedMetrics], error) {
	if err := ctx.Err(); err != nil {
		return core.NotFound[core.GroupedMetrics](), err
	}
	rows := s.filter(rng, nil)
	if len(rows) == 0 {
		return core.NotFound[core.GroupedMetrics](), nil
	}

	index := map[string]int{}
	var (
		groups  []core.GroupMetric
		revenue []core.Cents
	)
	for _, tx := range rows {
		k := key(tx)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, core.GroupMetric{Key: k})
			revenue = append(revenue, 0)
		}
		groups[i].TransactionCount++
		groups[i].TotalQuantity += tx.Quantity
		revenue[i] += core.CentsOf(tx.TotalAmount)
	}
	for i := range groups {
		groups[i].TotalRevenue = revenue[i].Amount()
	}
	slices.SortFunc(groups, func(a, b core.GroupMetric) int {
		if c := cmp.Compare(b.TotalRevenue, a.TotalRevenue); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return core.Found(core.GroupedMetrics{Dimension: dimension, Groups: groups, Filters: rng.Filters()}), nil
}

func (s *Store) TopCustomers(ctx context.Context, rng *core.DateRange, limit int) (core.Lookup[core.TopCustomers], error) {
	if err := ctx.Err(); err != nil {
		return core.NotFound[core.TopCustomers](), err
	}
	rows := s.filter(rng, nil)
	if len(rows) == 0 {
		return core.NotFound[core.TopCustomers](), nil
	}

	index := map[int64]int{}
	var (
		ranks []core.CustomerRank
		spent []core.Cents
	)
	for _, tx := range rows {
		i, ok := index[tx.CustomerID]
		if !ok {
			i = len(ranks)
			index[tx.CustomerID] = i
			ranks = append(ranks, core.CustomerRank{CustomerID: tx.CustomerID})
			spent = append(spent, 0)
		}
		ranks[i].TransactionCount++
		spent[i] += core.CentsOf(tx.TotalAmount)
	}
	for i := range ranks {
		ranks[i].TotalSpent = spent[i].Amount()
	}
	slices.SortFunc(ranks, func(a, b core.CustomerRank) int {
		if c := cmp.Compare(b.TotalSpent, a.TotalSpent); c != 0 {
			return c
		}
		return cmp.Compare(a.CustomerID, b.CustomerID)
	})
	ranks = ranks[:min(len(ranks), core.NormalizeLimit(limit))]
	return core.Found(core.NewTopCustomers(ranks, limit, rng)), nil
}

func (s *Store) TopProducts(ctx context.Context, rng *core.DateRange, limit int) (core.Lookup[core.TopProducts], error) {
	if err := ctx.Err(); err != nil {
		return core.NotFound[core.TopProducts](), err
	}
	rows := s.filter(rng, nil)
	if len(rows) == 0 {
		return core.NotFound[core.TopProducts](), nil
	}

	index := map[string]int{}
	var (
		ranks   []core.ProductRank
		revenue []core.Cents
	)
	for _, tx := range rows {
		i, ok := index[tx.ProductID]
		if !ok {
			i = len(ranks)
			index[tx.ProductID] = i
			ranks = append(ranks, core.ProductRank{ProductID: tx.ProductID})
			revenue = append(revenue, 0)
		}
		ranks[i].TransactionCount++
		ranks[i].QuantitySold += tx.Quantity
		revenue[i] += core.CentsOf(tx.TotalAmount)
	}
	for i := range ranks {
		ranks[i].TotalRevenue = revenue[i].Amount()
	}
	slices.SortFunc(ranks, func(a, b core.ProductRank) int {
		if c := cmp.Compare(b.TotalRevenue, a.TotalRevenue); c != 0 {
			return c
		}
		if c := cmp.Compare(b.QuantitySold, a.QuantitySold); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	ranks = ranks[:min(len(ranks), core.NormalizeLimit(limit))]
	return core.Found(core.NewTopProducts(ranks, limit, rng)), nil
}
