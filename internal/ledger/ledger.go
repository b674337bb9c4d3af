// Package ledger holds the append-only record of a session's income and
// expense entries.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

// Ports for ledger storage backends.
type (
	// Store keeps the entries of a single session. It trusts its input:
	// validation happens in Ledger before anything reaches a Store.
	Store interface {
		AppendIncome(ctx context.Context, e core.IncomeEntry) error
		AppendExpense(ctx context.Context, e core.ExpenseEntry) error
		// Income returns all income entries in insertion order.
		Income(ctx context.Context) ([]core.IncomeEntry, error)
		// Expenses returns all expense entries in insertion order.
		Expenses(ctx context.Context) ([]core.ExpenseEntry, error)
		// Close releases everything held for the session.
		Close(ctx context.Context) error
	}

	// StoreFactory opens an empty Store for a new session.
	StoreFactory interface {
		Open(ctx context.Context, sessionID string) (Store, error)
	}
)

// ErrFull is returned once a sequence holds core.MaxEntries entries.
var ErrFull = errors.New("ledger is full")

// Ledger is the append-only income/expense record of one session. The
// store starts empty, so the counts below track it exactly.
type Ledger struct {
	store    Store
	income   int
	expenses int
}

// New wraps store in a Ledger.
func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// AppendIncome stores e unless its source is blank or its amount is not
// positive, in which case the validation error is returned and the ledger
// is unchanged.
func (l *Ledger) AppendIncome(ctx context.Context, e core.IncomeEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if l.income >= core.MaxEntries {
		return ErrFull
	}
	if err := l.store.AppendIncome(ctx, e); err != nil {
		return fmt.Errorf("append income: %w", err)
	}
	l.income++
	return nil
}

// AppendExpense stores e unless its amount is not positive. Category
// membership is checked by the caller.
func (l *Ledger) AppendExpense(ctx context.Context, e core.ExpenseEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if l.expenses >= core.MaxEntries {
		return ErrFull
	}
	if err := l.store.AppendExpense(ctx, e); err != nil {
		return fmt.Errorf("append expense: %w", err)
	}
	l.expenses++
	return nil
}

// AllIncome returns a copy of the income sequence.
func (l *Ledger) AllIncome(ctx context.Context) ([]core.IncomeEntry, error) {
	items, err := l.store.Income(ctx)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	return items, nil
}

// AllExpenses returns a copy of the expense sequence.
func (l *Ledger) AllExpenses(ctx context.Context) ([]core.ExpenseEntry, error) {
	items, err := l.store.Expenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return items, nil
}

// Close tears down the underlying store. The ledger must not be used
// afterwards.
func (l *Ledger) Close(ctx context.Context) error {
	if err := l.store.Close(ctx); err != nil {
		return fmt.Errorf("close ledger: %w", err)
	}
	return nil
}
