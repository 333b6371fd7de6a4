package core

import (
	"errors"
	"fmt"
)

// Status is the discriminant of a RoutedResult.
type Status string

const (
	StatusOK                Status = "ok"
	StatusNoData            Status = "no_data"
	StatusAmbiguousIntent   Status = "ambiguous_intent"
	StatusUnsupportedMetric Status = "unsupported_metric"
)

// Machine-readable reason codes carried by status payloads.
const (
	CodeCustomerIDMissing   = "customer_id_missing"
	CodeProductIDMissing    = "product_id_missing"
	CodeUnknownKind         = "intent_kind_unknown"
	CodeNoCustomerData      = "no_customer_transactions"
	CodeNoProductData       = "no_product_transactions"
	CodeNoMetricData        = "no_transactions_in_range"
	CodeMetricUnspecified   = "business_metric_unspecified"
	CodeMetricNotRecognized = "metric_not_recognized"
)

// Payload is implemented only by the report types of this package.
type Payload interface {
	payload()
}

func (CustomerReport) payload() {}
func (ProductReport) payload()  {}
func (MetricsSummary) payload() {}
func (GroupedMetrics) payload() {}
func (TopCustomers) payload()   {}
func (TopProducts) payload()    {}

// RoutedResult is the outcome of routing one intent: either data with
// StatusOK, or one of the status payloads with a reason.
type RoutedResult struct {
	Status           Status   `json:"status"`
	Data             Payload  `json:"data,omitempty"`
	Code             string   `json:"code,omitempty"`
	Reason           string   `json:"reason,omitempty"`
	RequestedMetric  string   `json:"requestedMetric,omitempty"`
	SupportedMetrics []string `json:"supportedMetrics,omitempty"`
}

var ErrInvalidResult = errors.New("invalid routed result")

func OK(data Payload) RoutedResult {
	return RoutedResult{Status: StatusOK, Data: data}
}

func NoData(code, reason string) RoutedResult {
	return RoutedResult{Status: StatusNoData, Code: code, Reason: reason}
}

func AmbiguousIntent(code, reason string) RoutedResult {
	return RoutedResult{Status: StatusAmbiguousIntent, Code: code, Reason: reason}
}

// UnsupportedMetric echoes the offending metric together with the metrics
// that kind accepts.
func UnsupportedMetric(kind IntentKind, requested string) RoutedResult {
	code := CodeMetricNotRecognized
	reason := fmt.Sprintf("metric %q is not supported for %s questions", requested, kind)
	if requested == "" {
		code = CodeMetricUnspecified
		reason = fmt.Sprintf("no metric given for %s question", kind)
	}
	return RoutedResult{
		Status:           StatusUnsupportedMetric,
		Code:             code,
		Reason:           reason,
		RequestedMetric:  requested,
		SupportedMetrics: SupportedMetricNames(kind),
	}
}

func (r RoutedResult) IsOK() bool {
	return r.Status == StatusOK
}

// Validate enforces the union invariants: data is present exactly when the
// status is ok, and status payloads always explain themselves.
func (r RoutedResult) Validate() error {
	switch r.Status {
	case StatusOK:
		if r.Data == nil {
			return fmt.Errorf("%w: ok result without data", ErrInvalidResult)
		}
	case StatusNoData, StatusAmbiguousIntent, StatusUnsupportedMetric:
		if r.Data != nil {
			return fmt.Errorf("%w: %s result carries data", ErrInvalidResult, r.Status)
		}
		if r.Reason == "" {
			return fmt.Errorf("%w: %s result without reason", ErrInvalidResult, r.Status)
		}
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidResult, r.Status)
	}
	return nil
}
