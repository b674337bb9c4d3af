package memory

import (
	"context"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// Store keeps a session's entries in two slices.
type Store struct {
	mu       sync.Mutex
	income   []core.IncomeEntry
	expenses []core.ExpenseEntry
}

func New() *Store {
	return &Store{}
}

// AppendIncome implements ledger.Store.
func (s *Store) AppendIncome(_ context.Context, e core.IncomeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.income = append(s.income, e)
	return nil
}

// AppendExpense implements ledger.Store.
func (s *Store) AppendExpense(_ context.Context, e core.ExpenseEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, e)
	return nil
}

// Income implements ledger.Store.
func (s *Store) Income(_ context.Context) ([]core.IncomeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.IncomeEntry(nil), s.income...), nil
}

// Expenses implements ledger.Store.
func (s *Store) Expenses(_ context.Context) ([]core.ExpenseEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ExpenseEntry(nil), s.expenses...), nil
}

// Close drops the entries.
func (s *Store) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.income, s.expenses = nil, nil
	return nil
}

// Factory hands out a fresh Store per session.
type Factory struct{}

// Open implements ledger.StoreFactory.
func (Factory) Open(_ context.Context, _ string) (ledger.Store, error) {
	return New(), nil
}

var (
	_ ledger.Store        = (*Store)(nil)
	_ ledger.StoreFactory = Factory{}
)
