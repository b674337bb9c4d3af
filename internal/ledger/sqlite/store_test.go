package sqlite

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStoreAppendAndList(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	s, err := db.Open(ctx, "session-a")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	if err := s.AppendIncome(ctx, core.IncomeEntry{Date: core.NewDate(2024, 1, 1), Source: "Salary", Amount: core.Money{Cents: 100000}}); err != nil {
		t.Fatalf("append income: %v", err)
	}
	if err := s.AppendIncome(ctx, core.IncomeEntry{Date: core.NewDate(2024, 1, 2), Source: "Bonus", Amount: core.Money{Cents: 25050}}); err != nil {
		t.Fatalf("append income: %v", err)
	}
	if err := s.AppendExpense(ctx, core.ExpenseEntry{Date: core.NewDate(2024, 1, 3), Category: core.Food, Amount: core.Money{Cents: 2000}}); err != nil {
		t.Fatalf("append expense: %v", err)
	}

	inc, err := s.Income(ctx)
	if err != nil {
		t.Fatalf("income: %v", err)
	}
	if len(inc) != 2 || inc[0].Source != "Salary" || inc[1].Amount.Cents != 25050 || inc[1].Date != core.NewDate(2024, 1, 2) {
		t.Fatalf("unexpected income: %+v", inc)
	}

	exp, err := s.Expenses(ctx)
	if err != nil {
		t.Fatalf("expenses: %v", err)
	}
	if len(exp) != 1 || exp[0].Category != core.Food || exp[0].Amount.Cents != 2000 {
		t.Fatalf("unexpected expenses: %+v", exp)
	}
}

func TestStoreSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	a, _ := db.Open(ctx, "a")
	b, _ := db.Open(ctx, "b")
	_ = a.AppendExpense(ctx, core.ExpenseEntry{Date: core.NewDate(2024, 1, 1), Category: core.Food, Amount: core.Money{Cents: 100}})

	if exp, _ := b.Expenses(ctx); len(exp) != 0 {
		t.Fatalf("session b sees %d entries of session a", len(exp))
	}

	if err := a.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if exp, _ := a.Expenses(ctx); len(exp) != 0 {
		t.Fatalf("expected rows deleted on close, got %d", len(exp))
	}
}

func TestOpenRejectsEmptySession(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Open(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty session id")
	}
}

func TestIsMemoryDSN(t *testing.T) {
	cases := []struct {
		dsn  string
		want bool
	}{
		{DefaultDSN, true},
		{"file:x?mode=memory", false},
		{"./data/fintrack.db", false},
		{"file:y?cache=shared&mode=memory", true},
	}
	for _, tc := range cases {
		if got := IsMemoryDSN(tc.dsn); got != tc.want {
			t.Fatalf("%q expected %v, got %v", tc.dsn, tc.want, got)
		}
	}
}
