// Package events defines the notification emitted after an entry is
// logged and the Publisher port that delivers it.
package events

import (
	"context"
	"encoding/json"
	"time"

	"fintrack/internal/core"
)

type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// EntryLogged announces that an entry was appended to a session's ledger.
// Label is the income source or the expense category.
type EntryLogged struct {
	Kind        Kind      `json:"kind"`
	SessionID   string    `json:"session_id"`
	Date        string    `json:"date"`
	Label       string    `json:"label"`
	AmountCents int64     `json:"amount_cents"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func IncomeLogged(sessionID string, e core.IncomeEntry, at time.Time) EntryLogged {
	return EntryLogged{
		Kind:        KindIncome,
		SessionID:   sessionID,
		Date:        e.Date.String(),
		Label:       e.Source,
		AmountCents: e.Amount.Cents,
		OccurredAt:  at.UTC(),
	}
}

func ExpenseLogged(sessionID string, e core.ExpenseEntry, at time.Time) EntryLogged {
	return EntryLogged{
		Kind:        KindExpense,
		SessionID:   sessionID,
		Date:        e.Date.String(),
		Label:       e.Category.String(),
		AmountCents: e.Amount.Cents,
		OccurredAt:  at.UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e EntryLogged) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EntryLoggedFromJSON decodes an event produced by ToJSON.
func EntryLoggedFromJSON(data []byte) (EntryLogged, error) {
	var e EntryLogged
	if err := json.Unmarshal(data, &e); err != nil {
		return EntryLogged{}, err
	}
	return e, nil
}

// Publisher delivers EntryLogged events. Callers treat delivery as
// best effort: a failed Publish never fails the operation that produced
// the event.
type Publisher interface {
	Publish(ctx context.Context, e EntryLogged) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, EntryLogged) error { return nil }
func (Nop) Close() error                               { return nil }

var _ Publisher = Nop{}
