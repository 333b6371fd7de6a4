package ingest

import (
	"errors"
	"strings"
	"testing"
	"time"

	"insights/internal/core"
)

const sampleCSV = `CustomerID,ProductID,Quantity,Price,TransactionDate,PaymentMethod,StoreLocation,ProductCategory,DiscountApplied(%),TotalAmount
109318,C,7,80.07984415,12/26/2023 12:32,Cash,"176 Andrew Cliffs
Baileyfort, HI 93354",Books,18.6770995,455.8627638
993229,C,4,75.19522942,8/5/2023 0:00,Cash,"11635 William Well Suite 809
East Kara, MT 19483",Home Decor,14.12175102,258.3065464
`

func TestParseTransactionDate(t *testing.T) {
	cases := map[string]time.Time{
		"12/26/2023 12:32": time.Date(2023, 12, 26, 12, 32, 0, 0, time.UTC),
		"8/5/2023 0:00":    time.Date(2023, 8, 5, 0, 0, 0, 0, time.UTC),
		" 1/1/2024 23:59 ": time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC),
	}
	for raw, want := range cases {
		got, err := ParseTransactionDate(raw)
		if err != nil {
			t.Fatalf("%q: %v", raw, err)
		}
		if !got.Equal(want) {
			t.Errorf("%q: got %v, want %v", raw, got, want)
		}
	}

	if _, err := ParseTransactionDate("2023-12-26 12:32"); err == nil {
		t.Fatal("expected error for ISO timestamp")
	}
}

func TestReadCSVHandlesMultilineFields(t *testing.T) {
	txs, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(txs))
	}
	first := txs[0]
	if first.CustomerID != 109318 || first.ProductID != "C" || first.Quantity != 7 {
		t.Fatalf("unexpected first row %+v", first)
	}
	if !strings.Contains(first.StoreLocation, "\n") {
		t.Fatalf("store location should keep its line break, got %q", first.StoreLocation)
	}
	if txs[1].ProductCategory != "Home Decor" || txs[1].PaymentMethod != "Cash" {
		t.Fatalf("unexpected second row %+v", txs[1])
	}
}

func TestReadCSVReportsMissingColumns(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("CustomerID,ProductID,Quantity\n1,A,2\n"))
	if !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
	for _, col := range []string{"Price", "TotalAmount", "DiscountApplied(%)"} {
		if !strings.Contains(err.Error(), col) {
			t.Errorf("error %q does not name %s", err, col)
		}
	}
}

func TestReadCSVRejectsInvalidRows(t *testing.T) {
	bad := strings.Replace(sampleCSV, "109318,C,7", "109318,C,0", 1)
	_, err := ReadCSV(strings.NewReader(bad))
	if !errors.Is(err, core.ErrInvalidTransaction) {
		t.Fatalf("expected ErrInvalidTransaction, got %v", err)
	}

	bad = strings.Replace(sampleCSV, "12/26/2023 12:32", "yesterday", 1)
	if _, err := ReadCSV(strings.NewReader(bad)); err == nil {
		t.Fatal("expected date parse error")
	}
}

func TestParseRecordIgnoresColumnOrder(t *testing.T) {
	names := []string{"TotalAmount", "DiscountApplied(%)", "ProductCategory", "StoreLocation", "PaymentMethod", "TransactionDate", "Price", "Quantity", "ProductID", "CustomerID", "Extra"}
	h, err := NewHeader(names)
	if err != nil {
		t.Fatal(err)
	}
	tx, err := ParseRecord(h, []string{"10.5", "0", "Toys", "Store 1", "Credit Card", "3/4/2023 9:15", "10.5", "1", " D ", "42", "ignored"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.CustomerID != 42 || tx.ProductID != "D" || tx.TotalAmount != 10.5 {
		t.Fatalf("unexpected transaction %+v", tx)
	}
}
