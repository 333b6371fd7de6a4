// Package metrics declares the read contract every transaction store
// implements. Stores report "no rows" through core.Lookup and reserve errors
// for infrastructure failures.
package metrics

import (
	"context"

	"insights/internal/core"
)

type (
	// CustomerReader serves per-customer lookups.
	CustomerReader interface {
		CustomerLookup(ctx context.Context, customerID int64, rng *core.DateRange) (core.Lookup[core.CustomerReport], error)
	}

	// ProductReader serves per-product lookups.
	ProductReader interface {
		ProductLookup(ctx context.Context, productID string, rng *core.DateRange) (core.Lookup[core.ProductReport], error)
	}

	// BusinessReader serves dataset-wide aggregates. Limits are normalized
	// with core.NormalizeLimit by the implementation.
	BusinessReader interface {
		Summary(ctx context.Context, rng *core.DateRange) (core.Lookup[core.MetricsSummary], error)
		ByCategory(ctx context.Context, rng *core.DateRange) (core.Lookup[core.GroupedMetrics], error)
		ByPayment(ctx context.Context, rng *core.DateRange) (core.Lookup[core.GroupedMetrics], error)
		TopCustomers(ctx context.Context, rng *core.DateRange, limit int) (core.Lookup[core.TopCustomers], error)
		TopProducts(ctx context.Context, rng *core.DateRange, limit int) (core.Lookup[core.TopProducts], error)
	}

	// Store is the full read surface the router depends on.
	Store interface {
		CustomerReader
		ProductReader
		BusinessReader
	}

	// Pinger is implemented by stores backed by a connection that can go away.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
