package core

import "time"

// QueryAudit describes one routed request for the query log. It is written
// asynchronously and never feeds back into routing.
type QueryAudit struct {
	ID         string     `json:"id"`
	Kind       IntentKind `json:"kind"`
	Metric     string     `json:"metric,omitempty"`
	DateRange  string     `json:"dateRange,omitempty"`
	Status     Status     `json:"status,omitempty"`
	Code       string     `json:"code,omitempty"`
	Error      string     `json:"error,omitempty"`
	DurationMs int64      `json:"durationMs"`
	OccurredAt time.Time  `json:"occurredAt"`
}

// NewQueryAudit summarizes the outcome of routing intent.
func NewQueryAudit(id string, intent Intent, res RoutedResult, err error, took time.Duration, at time.Time) QueryAudit {
	a := QueryAudit{
		ID:         id,
		Kind:       intent.Kind,
		Metric:     intent.Metric,
		DateRange:  intent.DateRange,
		Status:     res.Status,
		Code:       res.Code,
		DurationMs: took.Milliseconds(),
		OccurredAt: at.UTC(),
	}
	if err != nil {
		a.Error = err.Error()
	}
	return a
}
