package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	KindCustomer       IntentKind = "customer"
	KindProduct        IntentKind = "product"
	KindBusinessMetric IntentKind = "business_metric"
)

const (
	MetricSummary            Metric = "summary"
	MetricTransactionHistory Metric = "transaction_history"
	MetricStoresList         Metric = "stores_list"
	MetricTopCustomers       Metric = "top_customers"
	MetricTopProducts        Metric = "top_products"
	MetricByCategory         Metric = "metrics_by_category"
	MetricByPayment          Metric = "metrics_by_payment"
)

type (
	// IntentKind is the high-level subject of a question.
	IntentKind string

	// Metric is the canonical label of the aggregation a question asks for.
	Metric string

	// Intent is the structured form of a user's question.
	Intent struct {
		Kind       IntentKind   `json:"kind"`
		CustomerID *CustomerRef `json:"customer_id,omitempty"`
		ProductID  *string      `json:"product_id,omitempty"`
		Metric     string       `json:"metric,omitempty"`
		TopN       *int         `json:"top_n,omitempty"`
		DateRange  string       `json:"date_range,omitempty"`
	}

	// CustomerRef is the customer identifier of an intent. It decodes from a
	// JSON number or a numeric string and encodes as a number.
	CustomerRef int64
)

// CustomerIDOf returns a reference to id for building intents.
func CustomerIDOf(id int64) *CustomerRef {
	ref := CustomerRef(id)
	return &ref
}

func (c *CustomerRef) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		raw = []byte(strings.TrimSpace(s))
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: customer_id %s is not an integer", ErrInvalidIntent, data)
	}
	*c = CustomerRef(id)
	return nil
}

var supportedMetrics = map[IntentKind][]Metric{
	KindCustomer:       {MetricSummary, MetricTransactionHistory},
	KindProduct:        {MetricSummary, MetricTransactionHistory, MetricStoresList},
	KindBusinessMetric: {MetricSummary, MetricTopCustomers, MetricTopProducts, MetricByCategory, MetricByPayment},
}

func (k IntentKind) IsValid() bool {
	_, ok := supportedMetrics[k]
	return ok
}

// SupportedMetrics returns the canonical metrics accepted for kind, in a
// stable order. Unknown kinds have none.
func SupportedMetrics(kind IntentKind) []Metric {
	return append([]Metric(nil), supportedMetrics[kind]...)
}

// SupportedMetricNames is SupportedMetrics rendered as plain strings.
func SupportedMetricNames(kind IntentKind) []string {
	metrics := supportedMetrics[kind]
	out := make([]string, len(metrics))
	for i, m := range metrics {
		out[i] = string(m)
	}
	return out
}

// NormalizeMetric trims and lower-cases a raw metric label.
func NormalizeMetric(raw string) Metric {
	return Metric(strings.ToLower(strings.TrimSpace(raw)))
}

// Supports reports whether m is one of the canonical metrics for kind.
func (k IntentKind) Supports(m Metric) bool {
	for _, candidate := range supportedMetrics[k] {
		if candidate == m {
			return true
		}
	}
	return false
}

// HasCustomerID reports whether the intent carries a customer identifier.
func (i Intent) HasCustomerID() bool {
	return i.CustomerID != nil
}

// HasProductID reports whether the intent carries a non-blank product identifier.
func (i Intent) HasProductID() bool {
	return i.ProductID != nil && strings.TrimSpace(*i.ProductID) != ""
}

// Validate checks the shape an intent parser must produce: a known kind and,
// when present, a well-formed date range. Missing identifiers and unknown
// metrics are left to the router, which answers them with status payloads;
// out-of-range top_n values are left to NormalizeLimit.
func (i Intent) Validate() error {
	if !i.Kind.IsValid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidIntent, i.Kind)
	}
	if _, err := ParseDateRange(i.DateRange); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidIntent, err)
	}
	return nil
}
