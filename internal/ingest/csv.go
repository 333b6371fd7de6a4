// Package ingest turns retail exports into core.Transaction records and
// copies them into a writable store.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"insights/internal/core"
)

// SourceTimeLayout is the month/day/year 24h layout of exported timestamps,
// e.g. "12/26/2023 12:32" or "8/5/2023 0:00".
const SourceTimeLayout = "1/2/2006 15:04"

// Column names of the retail export.
const (
	ColCustomerID      = "CustomerID"
	ColProductID       = "ProductID"
	ColQuantity        = "Quantity"
	ColPrice           = "Price"
	ColTransactionDate = "TransactionDate"
	ColPaymentMethod   = "PaymentMethod"
	ColStoreLocation   = "StoreLocation"
	ColProductCategory = "ProductCategory"
	ColDiscount        = "DiscountApplied(%)"
	ColTotalAmount     = "TotalAmount"
)

var RequiredColumns = []string{
	ColCustomerID, ColProductID, ColQuantity, ColPrice, ColTransactionDate,
	ColPaymentMethod, ColStoreLocation, ColProductCategory, ColDiscount, ColTotalAmount,
}

var ErrMissingColumns = errors.New("missing expected columns")

// Header maps column names to their position in a row.
type Header map[string]int

// NewHeader indexes names and reports every required column that is absent.
func NewHeader(names []string) (Header, error) {
	h := make(Header, len(names))
	for i, name := range names {
		h[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := h[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return h, nil
}

func (h Header) get(values []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(values) {
		return ""
	}
	return strings.TrimSpace(values[i])
}

// ParseTransactionDate parses an export timestamp at minute resolution.
func ParseTransactionDate(raw string) (time.Time, error) {
	t, err := time.Parse(SourceTimeLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse transaction date %q: %w", raw, err)
	}
	return t, nil
}

// ParseRecord converts one row into a validated transaction.
func ParseRecord(h Header, values []string) (core.Transaction, error) {
	var (
		tx  core.Transaction
		err error
	)
	if tx.CustomerID, err = strconv.ParseInt(h.get(values, ColCustomerID), 10, 64); err != nil {
		return tx, fmt.Errorf("%s: %w", ColCustomerID, err)
	}
	tx.ProductID = h.get(values, ColProductID)
	if tx.Quantity, err = strconv.ParseInt(h.get(values, ColQuantity), 10, 64); err != nil {
		return tx, fmt.Errorf("%s: %w", ColQuantity, err)
	}
	if tx.Price, err = strconv.ParseFloat(h.get(values, ColPrice), 64); err != nil {
		return tx, fmt.Errorf("%s: %w", ColPrice, err)
	}
	if tx.TransactionDate, err = ParseTransactionDate(h.get(values, ColTransactionDate)); err != nil {
		return tx, err
	}
	tx.PaymentMethod = h.get(values, ColPaymentMethod)
	tx.StoreLocation = h.get(values, ColStoreLocation)
	tx.ProductCategory = h.get(values, ColProductCategory)
	if tx.DiscountPct, err = strconv.ParseFloat(h.get(values, ColDiscount), 64); err != nil {
		return tx, fmt.Errorf("%s: %w", ColDiscount, err)
	}
	if tx.TotalAmount, err = strconv.ParseFloat(h.get(values, ColTotalAmount), 64); err != nil {
		return tx, fmt.Errorf("%s: %w", ColTotalAmount, err)
	}
	if err := tx.Validate(); err != nil {
		return tx, err
	}
	return tx, nil
}

// ReadCSV parses a full export. Quoted fields may span several lines.
func ReadCSV(r io.Reader) ([]core.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	names, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h, err := NewHeader(names)
	if err != nil {
		return nil, err
	}

	var out []core.Transaction
	for {
		values, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := cr.FieldPos(0)
		tx, err := ParseRecord(h, values)
		if err != nil {
			return nil, fmt.Errorf("row at line %d: %w", line, err)
		}
		out = append(out, tx)
	}
	return out, nil
}

// CSVSource reads transactions from a file on disk.
type CSVSource struct {
	Path string
}

func (s CSVSource) ReadTransactions(_ context.Context) ([]core.Transaction, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}
