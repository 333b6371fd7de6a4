package core

import "time"

const (
	DefaultTopLimit = 5
	MaxTopLimit     = 15
)

type (
	// Lookup is the explicit found / not-found result of a store query.
	// A not-found lookup is a normal outcome, never an error.
	Lookup[T any] struct {
		Value T
		Found bool
	}

	// Filters echoes the date filter applied to a payload.
	Filters struct {
		From string `json:"from,omitempty"`
		To   string `json:"to,omitempty"`
	}

	CustomerReport struct {
		CustomerID            int64         `json:"customerId"`
		Transactions          []Transaction `json:"transactions"`
		TransactionCount      int           `json:"transactionCount"`
		TransactionsLimit     int           `json:"transactionsLimit,omitempty"`
		TransactionsTruncated bool          `json:"transactionsTruncated"`
		TotalSpent            float64       `json:"totalSpent"`
		FirstTransaction      time.Time     `json:"firstTransaction"`
		LastTransaction       time.Time     `json:"lastTransaction"`
		Filters               Filters       `json:"filters"`
	}

	ProductReport struct {
		ProductID             string        `json:"productId"`
		Transactions          []Transaction `json:"transactions"`
		TransactionCount      int           `json:"transactionCount"`
		TransactionsLimit     int           `json:"transactionsLimit,omitempty"`
		TransactionsTruncated bool          `json:"transactionsTruncated"`
		TotalQuantity         int64         `json:"totalQuantity"`
		TotalRevenue          float64       `json:"totalRevenue"`
		UniqueCustomers       int           `json:"uniqueCustomers"`
		StoreCount            int           `json:"storeCount"`
		AverageDiscountPct    float64       `json:"averageDiscountPct"`
		Stores                []string      `json:"stores"`
		StoresLimit           int           `json:"storesLimit,omitempty"`
		StoresTruncated       bool          `json:"storesTruncated"`
		Filters               Filters       `json:"filters"`
	}

	MetricsSummary struct {
		TotalRevenue     float64   `json:"totalRevenue"`
		TransactionCount int       `json:"transactionCount"`
		UniqueCustomers  int       `json:"uniqueCustomers"`
		UniqueProducts   int       `json:"uniqueProducts"`
		FirstTransaction time.Time `json:"firstTransaction"`
		LastTransaction  time.Time `json:"lastTransaction"`
		Filters          Filters   `json:"filters"`
	}

	// GroupMetric aggregates the transactions sharing one grouping key.
	GroupMetric struct {
		Key              string  `json:"key"`
		TransactionCount int     `json:"transactionCount"`
		TotalQuantity    int64   `json:"totalQuantity"`
		TotalRevenue     float64 `json:"totalRevenue"`
	}

	// GroupedMetrics is a by-category or by-payment breakdown.
	GroupedMetrics struct {
		Dimension string        `json:"dimension"`
		Groups    []GroupMetric `json:"metrics"`
		Filters   Filters       `json:"filters"`
	}

	CustomerRank struct {
		CustomerID       int64   `json:"customerId"`
		TransactionCount int     `json:"transactionCount"`
		TotalSpent       float64 `json:"totalSpent"`
	}

	TopCustomers struct {
		Customers      []CustomerRank `json:"metrics"`
		Limit          int            `json:"limit"`
		LimitRequested int            `json:"limitRequested,omitempty"`
		Filters        Filters        `json:"filters"`
	}

	ProductRank struct {
		ProductID        string  `json:"productId"`
		TransactionCount int     `json:"transactionCount"`
		QuantitySold     int64   `json:"quantitySold"`
		TotalRevenue     float64 `json:"totalRevenue"`
	}

	TopProducts struct {
		Products       []ProductRank `json:"metrics"`
		Limit          int           `json:"limit"`
		LimitRequested int           `json:"limitRequested,omitempty"`
		Filters        Filters       `json:"filters"`
	}
)

const (
	DimensionCategory = "product_category"
	DimensionPayment  = "payment_method"
)

// Found wraps v as a successful lookup.
func Found[T any](v T) Lookup[T] {
	return Lookup[T]{Value: v, Found: true}
}

// NotFound is the empty lookup for T.
func NotFound[T any]() Lookup[T] {
	return Lookup[T]{}
}

// NormalizeLimit applies the top-N policy: non-positive values fall back to
// DefaultTopLimit and values above MaxTopLimit are clamped.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultTopLimit
	case limit > MaxTopLimit:
		return MaxTopLimit
	default:
		return limit
	}
}

// requestedLimit reports the caller's limit when clamping changed it.
func requestedLimit(limit int) int {
	if limit > MaxTopLimit {
		return limit
	}
	return 0
}

// NewTopCustomers builds the payload for an already ranked slice.
func NewTopCustomers(ranks []CustomerRank, limit int, rng *DateRange) TopCustomers {
	return TopCustomers{
		Customers:      ranks,
		Limit:          NormalizeLimit(limit),
		LimitRequested: requestedLimit(limit),
		Filters:        rng.Filters(),
	}
}

// NewTopProducts builds the payload for an already ranked slice.
func NewTopProducts(ranks []ProductRank, limit int, rng *DateRange) TopProducts {
	return TopProducts{
		Products:       ranks,
		Limit:          NormalizeLimit(limit),
		LimitRequested: requestedLimit(limit),
		Filters:        rng.Filters(),
	}
}
