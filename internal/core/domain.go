package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// TransactionTimeLayout is the canonical minute-resolution timestamp layout
// used when transactions are persisted or echoed back to callers.
const TransactionTimeLayout = "2006-01-02 15:04"

type (
	// Transaction is a single immutable retail fact. TotalAmount is
	// authoritative for revenue; it is not recomputed from price and discount.
	Transaction struct {
		ID              int64     `json:"id"`
		CustomerID      int64     `json:"customerId"`
		ProductID       string    `json:"productId"`
		Quantity        int64     `json:"quantity"`
		Price           float64   `json:"price"`
		TransactionDate time.Time `json:"transactionDate"`
		PaymentMethod   string    `json:"paymentMethod"`
		StoreLocation   string    `json:"storeLocation"`
		ProductCategory string    `json:"productCategory"`
		DiscountPct     float64   `json:"discountAppliedPct"`
		TotalAmount     float64   `json:"totalAmount"`
	}
)

var (
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidDateRange   = errors.New("invalid date range")
	ErrInvalidIntent      = errors.New("invalid intent")
	// ErrStoreUnavailable marks infrastructure failures of the metrics store so
	// callers can tell "could not fetch data" apart from "no data".
	ErrStoreUnavailable = errors.New("metrics store unavailable")
)

func (t Transaction) Validate() error {
	switch {
	case strings.TrimSpace(t.ProductID) == "":
		return errors.Join(ErrInvalidTransaction, errors.New("empty product id"))
	case t.Quantity <= 0:
		return errors.Join(ErrInvalidTransaction, errors.New("quantity must be positive"))
	case t.Price < 0:
		return errors.Join(ErrInvalidTransaction, errors.New("price must not be negative"))
	case t.TransactionDate.IsZero():
		return errors.Join(ErrInvalidTransaction, errors.New("missing transaction date"))
	case t.DiscountPct < 0 || t.DiscountPct > 100:
		return errors.Join(ErrInvalidTransaction, errors.New("discount must be between 0 and 100"))
	case math.IsNaN(t.TotalAmount) || math.IsInf(t.TotalAmount, 0):
		return errors.Join(ErrInvalidTransaction, errors.New("total amount must be finite"))
	case t.TotalAmount < 0:
		return errors.Join(ErrInvalidTransaction, errors.New("total amount must not be negative"))
	}
	return nil
}

// FormatTimestamp renders t with TransactionTimeLayout, or "" for the zero time.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TransactionTimeLayout)
}
