package core

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Cents is a currency amount in hundredths. Revenue is always summed and
// compared in Cents so equal money totals compare equal.
type Cents int64

// ParseCents converts a non-negative decimal string to cents, accepting a
// dot or comma separator and rounding half up on the third decimal.
//
//	ParseCents("12.34")  -> 1234
//	ParseCents("12,345") -> 1235
//	ParseCents("0.004")  -> 0
func ParseCents(s string) (Cents, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	if strings.Contains(fracPart, ".") {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv >= maxSafeInt64 {
		return 0, ErrInvalidAmount
	}

	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
	}
	if len(fracPart) > 1 {
		frac += int64(fracPart[1] - '0')
	}
	if len(fracPart) > 2 && fracPart[2] >= '5' {
		frac++
	}
	return Cents(iv*100 + frac), nil
}

// CentsOf rounds a stored amount to cents using its shortest decimal
// rendering, so 0.285 becomes 29 rather than 28.
func CentsOf(amount float64) Cents {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	if amount < 0 {
		return -CentsOf(-amount)
	}
	c, err := ParseCents(strconv.FormatFloat(amount, 'f', -1, 64))
	if err != nil {
		return Cents(math.Round(amount * 100))
	}
	return c
}

// Amount returns c in currency units for payloads.
func (c Cents) Amount() float64 {
	return float64(c) / 100
}

func (c Cents) String() string {
	return strconv.FormatFloat(c.Amount(), 'f', 2, 64)
}
