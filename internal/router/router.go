// Package router maps a structured intent to exactly one metrics store call
// and shapes the outcome as a core.RoutedResult.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"insights/internal/core"
	"insights/internal/metrics"
)

const (
	// StoresLimit caps the store list of product payloads.
	StoresLimit = 20
	// TransactionsLimit caps the transaction list of customer and product payloads.
	TransactionsLimit = 15
)

// Router is stateless; one instance may serve concurrent requests.
type Router struct {
	store metrics.Store
}

func New(store metrics.Store) *Router {
	return &Router{store: store}
}

// Route resolves intent. Business outcomes (missing ids, unknown metrics,
// empty results) come back as status results. Only a malformed date range
// (core.ErrInvalidDateRange) and store failures (core.ErrStoreUnavailable)
// are returned as errors.
func (r *Router) Route(ctx context.Context, intent core.Intent) (core.RoutedResult, error) {
	metric := core.NormalizeMetric(intent.Metric)

	switch intent.Kind {
	case core.KindCustomer:
		if !intent.HasCustomerID() {
			return core.AmbiguousIntent(core.CodeCustomerIDMissing, "customer question without a customer id"), nil
		}
		if metric == "" {
			metric = core.MetricSummary
		}
		if !intent.Kind.Supports(metric) {
			return core.UnsupportedMetric(intent.Kind, intent.Metric), nil
		}
		rng, err := core.ParseDateRange(intent.DateRange)
		if err != nil {
			return core.RoutedResult{}, err
		}
		return r.customer(ctx, int64(*intent.CustomerID), rng)

	case core.KindProduct:
		if !intent.HasProductID() {
			return core.AmbiguousIntent(core.CodeProductIDMissing, "product question without a product id"), nil
		}
		if metric == "" {
			metric = core.MetricSummary
		}
		if !intent.Kind.Supports(metric) {
			return core.UnsupportedMetric(intent.Kind, intent.Metric), nil
		}
		rng, err := core.ParseDateRange(intent.DateRange)
		if err != nil {
			return core.RoutedResult{}, err
		}
		return r.product(ctx, *intent.ProductID, rng)

	case core.KindBusinessMetric:
		if !intent.Kind.Supports(metric) {
			return core.UnsupportedMetric(intent.Kind, intent.Metric), nil
		}
		rng, err := core.ParseDateRange(intent.DateRange)
		if err != nil {
			return core.RoutedResult{}, err
		}
		limit := 0
		if intent.TopN != nil {
			limit = *intent.TopN
		}
		return r.business(ctx, metric, rng, limit)

	default:
		return core.AmbiguousIntent(core.CodeUnknownKind, fmt.Sprintf("cannot tell what %q question is about", intent.Kind)), nil
	}
}

func (r *Router) customer(ctx context.Context, id int64, rng *core.DateRange) (core.RoutedResult, error) {
	res, err := r.store.CustomerLookup(ctx, id, rng)
	if err != nil {
		return core.RoutedResult{}, storeError(ctx, "customer lookup", err)
	}
	if !res.Found {
		return core.NoData(core.CodeNoCustomerData, fmt.Sprintf("no transactions for customer %d%s", id, rangeSuffix(rng))), nil
	}

	report := res.Value
	report.Transactions, report.TransactionsTruncated = trim(report.Transactions, TransactionsLimit)
	report.TransactionsLimit = TransactionsLimit
	return core.OK(report), nil
}

func (r *Router) product(ctx context.Context, id string, rng *core.DateRange) (core.RoutedResult, error) {
	res, err := r.store.ProductLookup(ctx, id, rng)
	if err != nil {
		return core.RoutedResult{}, storeError(ctx, "product lookup", err)
	}
	if !res.Found {
		return core.NoData(core.CodeNoProductData, fmt.Sprintf("no transactions for product %q%s", id, rangeSuffix(rng))), nil
	}

	report := res.Value
	report.Transactions, report.TransactionsTruncated = trim(report.Transactions, TransactionsLimit)
	report.TransactionsLimit = TransactionsLimit
	report.StoreCount = len(res.Value.Stores)
	report.Stores, report.StoresTruncated = trim(report.Stores, StoresLimit)
	report.StoresLimit = StoresLimit
	return core.OK(report), nil
}

func (r *Router) business(ctx context.Context, metric core.Metric, rng *core.DateRange, limit int) (core.RoutedResult, error) {
	var (
		data  core.Payload
		found bool
		err   error
	)

	switch metric {
	case core.MetricSummary:
		data, found, err = unwrap(r.store.Summary(ctx, rng))
	case core.MetricByCategory:
		data, found, err = unwrap(r.store.ByCategory(ctx, rng))
	case core.MetricByPayment:
		data, found, err = unwrap(r.store.ByPayment(ctx, rng))
	case core.MetricTopCustomers:
		data, found, err = unwrap(r.store.TopCustomers(ctx, rng, limit))
	case core.MetricTopProducts:
		data, found, err = unwrap(r.store.TopProducts(ctx, rng, limit))
	default:
		return core.UnsupportedMetric(core.KindBusinessMetric, string(metric)), nil
	}

	if err != nil {
		return core.RoutedResult{}, storeError(ctx, string(metric), err)
	}
	if !found {
		return core.NoData(core.CodeNoMetricData, "no transactions"+rangeSuffix(rng)), nil
	}
	return core.OK(data), nil
}

func unwrap[T core.Payload](res core.Lookup[T], err error) (core.Payload, bool, error) {
	if err != nil || !res.Found {
		return nil, false, err
	}
	return res.Value, true, nil
}

// trim returns at most limit leading items as a fresh slice.
func trim[T any](items []T, limit int) ([]T, bool) {
	if len(items) <= limit {
		return items, false
	}
	return slices.Clone(items[:limit]), true
}

func storeError(ctx context.Context, op string, err error) error {
	slog.ErrorContext(ctx, "Metrics store call failed", "op", op, "error", err)
	return fmt.Errorf("%w: %s: %w", core.ErrStoreUnavailable, op, err)
}

func rangeSuffix(rng *core.DateRange) string {
	if rng == nil {
		return ""
	}
	return " between " + rng.From.Format(core.DateLayout) + " and " + rng.To.Format(core.DateLayout)
}
