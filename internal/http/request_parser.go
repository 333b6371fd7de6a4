package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"insights/internal/core"
)

const maxBodyBytes = 64 << 10

// ParseRangeParams turns the from/to query parameters into a date range
// token. Both or neither must be present; validation of the dates is left
// to the router.
func ParseRangeParams(query url.Values) (string, error) {
	from := strings.TrimSpace(query.Get("from"))
	to := strings.TrimSpace(query.Get("to"))
	switch {
	case from == "" && to == "":
		return "", nil
	case from == "" || to == "":
		return "", fmt.Errorf("%w: 'from' and 'to' must be given together", core.ErrInvalidDateRange)
	}
	return from + core.RangeSeparator + to, nil
}

// ParseLimitParam reads the optional limit parameter. Missing, malformed
// or non-positive values mean "use the default".
func ParseLimitParam(query url.Values) *int {
	v := strings.TrimSpace(query.Get("limit"))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

// ParseCustomerID parses the {id} path segment of a customer route.
func ParseCustomerID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid customer id %q", raw)
	}
	return id, nil
}

// decodeJSON decodes a bounded request body into v, rejecting unknown
// fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("invalid JSON body: unexpected trailing data")
	}
	return nil
}
