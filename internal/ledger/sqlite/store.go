// Package sqlite keeps session ledgers in a shared in-memory SQLite
// database. Rows are keyed by session ID and deleted when the session ends;
// nothing survives a restart.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ledger"

	_ "modernc.org/sqlite"
)

// DefaultDSN names a shared-cache in-memory database.
const DefaultDSN = "file:fintrack?mode=memory&cache=shared"

// DB owns the connection pool and opens per-session stores.
type DB struct {
	db *sql.DB
}

// Open connects to dsn and applies migrations.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One long-lived connection keeps the in-memory database alive and
	// serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &DB{db: db}, nil
}

// IsMemoryDSN reports whether dsn names a shared in-memory database.
func IsMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, "mode=memory") && strings.Contains(dsn, "cache=shared")
}

// Open implements ledger.StoreFactory.
func (d *DB) Open(ctx context.Context, sessionID string) (ledger.Store, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("open store: empty session id")
	}
	// Leftovers would only exist after an unclean teardown.
	if err := deleteSession(ctx, d.db, sessionID); err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Store{db: d.db, sessionID: sessionID}, nil
}

// Ping checks the connection.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// Store is the ledger.Store of one session.
type Store struct {
	db        *sql.DB
	sessionID string
}

// AppendIncome implements ledger.Store.
func (s *Store) AppendIncome(ctx context.Context, e core.IncomeEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO income_entries (session_id, entry_date, source, amount_cents) VALUES (?, ?, ?, ?)`,
		s.sessionID, e.Date.String(), e.Source, e.Amount.Cents)
	if err != nil {
		return fmt.Errorf("insert income: %w", err)
	}
	return nil
}

// AppendExpense implements ledger.Store.
func (s *Store) AppendExpense(ctx context.Context, e core.ExpenseEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expense_entries (session_id, entry_date, category, amount_cents) VALUES (?, ?, ?, ?)`,
		s.sessionID, e.Date.String(), string(e.Category), e.Amount.Cents)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

// Income implements ledger.Store.
func (s *Store) Income(ctx context.Context) ([]core.IncomeEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entry_date, source, amount_cents FROM income_entries WHERE session_id = ? ORDER BY id`,
		s.sessionID)
	if err != nil {
		return nil, fmt.Errorf("query income: %w", err)
	}
	defer rows.Close()

	var out []core.IncomeEntry
	for rows.Next() {
		var (
			date, source string
			cents        int64
		)
		if err := rows.Scan(&date, &source, &cents); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("scan income date %q: %w", date, err)
		}
		out = append(out, core.IncomeEntry{Date: d, Source: source, Amount: core.Money{Cents: cents}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate income: %w", err)
	}
	return out, nil
}

// Expenses implements ledger.Store.
func (s *Store) Expenses(ctx context.Context) ([]core.ExpenseEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entry_date, category, amount_cents FROM expense_entries WHERE session_id = ? ORDER BY id`,
		s.sessionID)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.ExpenseEntry
	for rows.Next() {
		var (
			date, category string
			cents          int64
		)
		if err := rows.Scan(&date, &category, &cents); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("scan expense date %q: %w", date, err)
		}
		out = append(out, core.ExpenseEntry{Date: d, Category: core.Category(category), Amount: core.Money{Cents: cents}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

// Close deletes the session's rows.
func (s *Store) Close(ctx context.Context) error {
	if err := deleteSession(ctx, s.db, s.sessionID); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Session rows deleted", "component", "storage", "session_id", s.sessionID)
	return nil
}

func deleteSession(ctx context.Context, db *sql.DB, sessionID string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM income_entries WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM expense_entries WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete expenses: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

var (
	_ ledger.Store        = (*Store)(nil)
	_ ledger.StoreFactory = (*DB)(nil)
)
