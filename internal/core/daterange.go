package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the ISO calendar date layout used by range tokens.
	DateLayout = "2006-01-02"
	// RangeSeparator splits the two halves of a range token.
	RangeSeparator = ".."
)

// DateRange is a closed interval of calendar dates. Both bounds are stored as
// UTC midnight and are inclusive.
type DateRange struct {
	From time.Time
	To   time.Time
}

// ParseDateRange turns a "YYYY-MM-DD..YYYY-MM-DD" token into a DateRange.
// A blank token means "all time" and yields nil without error. Any other
// malformed token yields an error wrapping ErrInvalidDateRange.
func ParseDateRange(token string) (*DateRange, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}

	parts := strings.Split(token, RangeSeparator)
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: %q must be two dates separated by %q", ErrInvalidDateRange, token, RangeSeparator)
	}

	from, err := ParseDate(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: start of %q: %v", ErrInvalidDateRange, token, err)
	}
	to, err := ParseDate(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: end of %q: %v", ErrInvalidDateRange, token, err)
	}

	return NewDateRange(from, to)
}

// NewDateRange builds a range from two dates, rejecting inverted bounds.
func NewDateRange(from, to time.Time) (*DateRange, error) {
	from, to = truncateDay(from), truncateDay(to)
	if from.After(to) {
		return nil, fmt.Errorf("%w: start %s is after end %s", ErrInvalidDateRange, from.Format(DateLayout), to.Format(DateLayout))
	}
	return &DateRange{From: from, To: to}, nil
}

// ParseDate parses a single ISO calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// Contains reports whether t falls on a calendar day within the range.
// A nil range contains every instant.
func (r *DateRange) Contains(t time.Time) bool {
	if r == nil {
		return true
	}
	return !t.Before(r.From) && t.Before(r.To.AddDate(0, 0, 1))
}

// String renders the canonical range token.
func (r *DateRange) String() string {
	if r == nil {
		return ""
	}
	return r.From.Format(DateLayout) + RangeSeparator + r.To.Format(DateLayout)
}

// Filters echoes the applied range back in payloads.
func (r *DateRange) Filters() Filters {
	if r == nil {
		return Filters{}
	}
	return Filters{From: r.From.Format(DateLayout), To: r.To.Format(DateLayout)}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
