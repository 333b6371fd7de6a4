package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"insights/internal/core"
)

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func tx(customer int64, product string, qty int64, total float64, when time.Time, category, payment, store string) core.Transaction {
	return core.Transaction{
		CustomerID:      customer,
		ProductID:       product,
		Quantity:        qty,
		Price:           total / float64(qty),
		TransactionDate: when,
		PaymentMethod:   payment,
		StoreLocation:   store,
		ProductCategory: category,
		DiscountPct:     10,
		TotalAmount:     total,
	}
}

func fixture() *Store {
	return New([]core.Transaction{
		tx(1, "P1", 5, 100, at(2023, 3, 1, 10, 0), "Books", "Cash", "North"),
		tx(2, "P2", 8, 100, at(2023, 3, 2, 11, 0), "Books", "Credit Card", "South"),
		tx(1, "P3", 1, 20, at(2023, 1, 15, 9, 30), "Toys", "Cash", "North"),
		tx(3, "P3", 2, 40, at(2023, 12, 31, 23, 59), "Toys", "PayPal", "East"),
		tx(4, "P1", 1, 5, at(2022, 12, 31, 8, 0), "Books", "Cash", "West"),
	})
}

func rangeOf(t *testing.T, token string) *core.DateRange {
	t.Helper()
	rng, err := core.ParseDateRange(token)
	if err != nil {
		t.Fatal(err)
	}
	return rng
}

func TestCustomerLookup(t *testing.T) {
	s := fixture()
	got, err := s.CustomerLookup(context.Background(), 1, nil)
	if err != nil || !got.Found {
		t.Fatalf("found=%v err=%v", got.Found, err)
	}
	r := got.Value
	if r.TransactionCount != 2 || r.TotalSpent != 120 {
		t.Fatalf("unexpected report %+v", r)
	}
	if !r.FirstTransaction.Equal(at(2023, 1, 15, 9, 30)) || !r.LastTransaction.Equal(at(2023, 3, 1, 10, 0)) {
		t.Fatalf("unexpected bounds %v..%v", r.FirstTransaction, r.LastTransaction)
	}
	if r.Transactions[0].ProductID != "P3" {
		t.Fatal("transactions must be in date order")
	}

	missing, err := s.CustomerLookup(context.Background(), 99, nil)
	if err != nil || missing.Found {
		t.Fatalf("expected not found, got found=%v err=%v", missing.Found, err)
	}

	outside, err := s.CustomerLookup(context.Background(), 4, rangeOf(t, "2023-01-01..2023-12-31"))
	if err != nil || outside.Found {
		t.Fatal("customer with no transactions in range must be not found")
	}
}

func TestProductLookup(t *testing.T) {
	s := fixture()
	got, err := s.ProductLookup(context.Background(), "P1", nil)
	if err != nil || !got.Found {
		t.Fatalf("found=%v err=%v", got.Found, err)
	}
	r := got.Value
	if r.TransactionCount != 2 || r.TotalQuantity != 6 || r.TotalRevenue != 105 {
		t.Fatalf("unexpected report %+v", r)
	}
	if r.UniqueCustomers != 2 || r.StoreCount != 2 || r.AverageDiscountPct != 10 {
		t.Fatalf("unexpected distinct counts %+v", r)
	}
	if len(r.Stores) != 2 || r.Stores[0] != "North" || r.Stores[1] != "West" {
		t.Fatalf("stores must be distinct and sorted, got %v", r.Stores)
	}

	none, err := s.ProductLookup(context.Background(), "P1", rangeOf(t, "2024-01-01..2024-12-31"))
	if err != nil || none.Found {
		t.Fatal("product without transactions in range must be not found")
	}
}

func TestSummaryRespectsInclusiveRange(t *testing.T) {
	s := fixture()
	got, err := s.Summary(context.Background(), rangeOf(t, "2023-01-01..2023-12-31"))
	if err != nil || !got.Found {
		t.Fatalf("found=%v err=%v", got.Found, err)
	}
	sum := got.Value
	if sum.TransactionCount != 4 || sum.TotalRevenue != 260 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if sum.UniqueCustomers != 3 || sum.UniqueProducts != 3 {
		t.Fatalf("unexpected distinct counts %+v", sum)
	}
	if sum.Filters.From != "2023-01-01" || sum.Filters.To != "2023-12-31" {
		t.Fatalf("filters not echoed: %+v", sum.Filters)
	}
	if !sum.LastTransaction.Equal(at(2023, 12, 31, 23, 59)) {
		t.Fatal("last day of the range must be included")
	}
}

func TestGroupCountsSumToTotal(t *testing.T) {
	s := fixture()
	ctx := context.Background()
	for _, token := range []string{"", "2023-01-01..2023-12-31", "2023-03-01..2023-03-02"} {
		rng := rangeOf(t, token)
		sum, err := s.Summary(ctx, rng)
		if err != nil || !sum.Found {
			t.Fatalf("%q: summary found=%v err=%v", token, sum.Found, err)
		}
		for name, fn := range map[string]func(context.Context, *core.DateRange) (core.Lookup[core.GroupedMetrics], error){
			"category": s.ByCategory,
			"payment":  s.ByPayment,
		} {
			groups, err := fn(ctx, rng)
			if err != nil || !groups.Found {
				t.Fatalf("%q %s: found=%v err=%v", token, name, groups.Found, err)
			}
			total := 0
			for _, g := range groups.Value.Groups {
				total += g.TransactionCount
			}
			if total != sum.Value.TransactionCount {
				t.Errorf("%q %s: groups sum to %d, summary says %d", token, name, total, sum.Value.TransactionCount)
			}
		}
	}
}

func TestByCategoryOrdering(t *testing.T) {
	got, err := fixture().ByCategory(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	g := got.Value
	if g.Dimension != core.DimensionCategory || len(g.Groups) != 2 {
		t.Fatalf("unexpected groups %+v", g)
	}
	if g.Groups[0].Key != "Books" || g.Groups[0].TotalRevenue != 205 || g.Groups[0].TotalQuantity != 14 {
		t.Fatalf("unexpected leading group %+v", g.Groups[0])
	}
}

func TestTopProductsBreaksRevenueTieByQuantity(t *testing.T) {
	got, err := fixture().TopProducts(context.Background(), rangeOf(t, "2023-03-01..2023-03-31"), 0)
	if err != nil || !got.Found {
		t.Fatalf("found=%v err=%v", got.Found, err)
	}
	ps := got.Value.Products
	if len(ps) != 2 || ps[0].ProductID != "P2" || ps[1].ProductID != "P1" {
		t.Fatalf("expected [P2 P1], got %+v", ps)
	}
	if ps[0].QuantitySold != 8 || ps[0].TotalRevenue != 100 {
		t.Fatalf("unexpected rank %+v", ps[0])
	}
}

func TestTopCustomersLimitPolicy(t *testing.T) {
	var txs []core.Transaction
	for i := int64(1); i <= 30; i++ {
		txs = append(txs, tx(i, "A", 1, float64(i), at(2023, 6, 1, 12, 0), "Books", "Cash", "North"))
	}
	s := New(txs)
	ctx := context.Background()

	cases := []struct {
		limit, want, requested int
	}{
		{50, 15, 50},
		{0, 5, 0},
		{-4, 5, 0},
		{3, 3, 0},
	}
	for _, tc := range cases {
		got, err := s.TopCustomers(ctx, nil, tc.limit)
		if err != nil || !got.Found {
			t.Fatalf("limit %d: found=%v err=%v", tc.limit, got.Found, err)
		}
		if n := len(got.Value.Customers); n != tc.want {
			t.Errorf("limit %d: got %d customers, want %d", tc.limit, n, tc.want)
		}
		if got.Value.LimitRequested != tc.requested {
			t.Errorf("limit %d: requested=%d, want %d", tc.limit, got.Value.LimitRequested, tc.requested)
		}
		if got.Value.Customers[0].CustomerID != 30 {
			t.Errorf("limit %d: highest spender should lead, got %+v", tc.limit, got.Value.Customers[0])
		}
	}
}

func TestTopCustomersTieBreaksByID(t *testing.T) {
	s := New([]core.Transaction{
		tx(9, "A", 1, 50, at(2023, 1, 1, 0, 0), "Books", "Cash", "N"),
		tx(3, "A", 1, 50, at(2023, 1, 2, 0, 0), "Books", "Cash", "N"),
		tx(5, "A", 1, 50, at(2023, 1, 3, 0, 0), "Books", "Cash", "N"),
	})
	got, err := s.TopCustomers(context.Background(), nil, 5)
	if err != nil {
		t.Fatal(err)
	}
	ids := []int64{}
	for _, c := range got.Value.Customers {
		ids = append(ids, c.CustomerID)
	}
	if len(ids) != 3 || ids[0] != 3 || ids[1] != 5 || ids[2] != 9 {
		t.Fatalf("expected ids ascending on equal revenue, got %v", ids)
	}
}

func TestFractionalRevenueTiesUseTieBreaks(t *testing.T) {
	s := New([]core.Transaction{
		tx(1, "P1", 2, 0.10, at(2023, 5, 1, 9, 0), "Books", "Cash", "N"),
		tx(1, "P1", 3, 0.20, at(2023, 5, 2, 9, 0), "Books", "Cash", "N"),
		tx(2, "P2", 8, 0.30, at(2023, 5, 3, 9, 0), "Toys", "Cash", "N"),
	})
	ctx := context.Background()

	products, err := s.TopProducts(ctx, nil, 0)
	if err != nil || !products.Found {
		t.Fatalf("found=%v err=%v", products.Found, err)
	}
	ps := products.Value.Products
	if len(ps) != 2 || ps[0].ProductID != "P2" || ps[1].ProductID != "P1" {
		t.Fatalf("equal revenue must rank by quantity, got %+v", ps)
	}
	if ps[0].TotalRevenue != ps[1].TotalRevenue || ps[1].TotalRevenue != 0.3 {
		t.Fatalf("expected both revenues to be 0.3, got %v and %v", ps[0].TotalRevenue, ps[1].TotalRevenue)
	}

	customers, err := s.TopCustomers(ctx, nil, 0)
	if err != nil || !customers.Found {
		t.Fatalf("found=%v err=%v", customers.Found, err)
	}
	cs := customers.Value.Customers
	if len(cs) != 2 || cs[0].CustomerID != 1 || cs[1].CustomerID != 2 {
		t.Fatalf("equal spend must rank by id, got %+v", cs)
	}

	groups, err := s.ByCategory(ctx, nil)
	if err != nil || !groups.Found {
		t.Fatalf("found=%v err=%v", groups.Found, err)
	}
	if g := groups.Value.Groups; g[0].Key != "Books" || g[0].TotalRevenue != g[1].TotalRevenue {
		t.Fatalf("equal category revenue must rank by key, got %+v", g)
	}
}

func TestEmptyRangeIsNotFound(t *testing.T) {
	s := fixture()
	rng := rangeOf(t, "2030-01-01..2030-12-31")
	ctx := context.Background()
	if got, _ := s.Summary(ctx, rng); got.Found {
		t.Error("summary")
	}
	if got, _ := s.ByPayment(ctx, rng); got.Found {
		t.Error("by payment")
	}
	if got, _ := s.TopProducts(ctx, rng, 5); got.Found {
		t.Error("top products")
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := fixture().Summary(ctx, nil); err == nil {
		t.Fatal("expected context error")
	}
}

func TestNewDoesNotAliasInput(t *testing.T) {
	in := []core.Transaction{tx(1, "A", 1, 10, at(2023, 1, 1, 0, 0), "Books", "Cash", "N")}
	s := New(in)
	in[0].TotalAmount = 999
	got, _ := s.Summary(context.Background(), nil)
	if got.Value.TotalRevenue != 10 {
		t.Fatal("store must own its copy of the transactions")
	}
}

func TestNewFromCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retail.csv")
	content := "CustomerID,ProductID,Quantity,Price,TransactionDate,PaymentMethod,StoreLocation,ProductCategory,DiscountApplied(%),TotalAmount\n" +
		"1,A,2,5,1/2/2023 10:00,Cash,North,Books,0,10\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewFromCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 transaction, got %d", s.Len())
	}

	if _, err := NewFromCSV(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
