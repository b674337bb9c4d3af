// Package http provides HTTP server and handler implementations.
//
// This file turns submitted forms into validated ledger entries.

package http

import (
	"errors"
	"net/http"
	"net/url"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// maxFormBytes caps request bodies; the forms carry three short fields.
const maxFormBytes = 16 << 10

// parseEntryDate reads a YYYY-MM-DD date, defaulting to today when blank.
func parseEntryDate(v string, today core.Date) (core.Date, error) {
	if v = sanitizeInput(v); v == "" {
		return today, nil
	}
	return core.ParseDate(v)
}

// ParseIncomeForm builds an income entry from the date, source and amount
// fields.
func ParseIncomeForm(form url.Values, today core.Date) (core.IncomeEntry, error) {
	date, err := parseEntryDate(form.Get("date"), today)
	if err != nil {
		return core.IncomeEntry{}, err
	}
	source := sanitizeInput(form.Get("source"))
	if source == "" {
		return core.IncomeEntry{}, core.ErrEmptySource
	}
	amount, err := core.ParseMoney(form.Get("amount"))
	if err != nil {
		return core.IncomeEntry{}, err
	}
	return core.NewIncomeEntry(date, source, amount)
}

// ParseExpenseForm builds an expense entry from the date, category and
// amount fields. Unknown categories are rejected here, before the ledger.
func ParseExpenseForm(form url.Values, today core.Date) (core.ExpenseEntry, error) {
	date, err := parseEntryDate(form.Get("date"), today)
	if err != nil {
		return core.ExpenseEntry{}, err
	}
	category, err := core.ParseCategory(sanitizeInput(form.Get("category")))
	if err != nil {
		return core.ExpenseEntry{}, err
	}
	amount, err := core.ParseMoney(form.Get("amount"))
	if err != nil {
		return core.ExpenseEntry{}, err
	}
	return core.NewExpenseEntry(date, category, amount)
}

// isValidationError reports whether err is one of the entry validation
// errors, which map to 422. A full ledger is reported the same way.
func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, ledger.ErrFull) ||
		errors.Is(err, core.ErrEmptySource) ||
		errors.Is(err, core.ErrInvalidCategory) ||
		errors.Is(err, core.ErrInvalidDate)
}

// validationMessage is the user-facing text for a validation error.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "Amount must be a number greater than zero and at most 100000000000.00."
	case errors.Is(err, ledger.ErrFull):
		return "This session has reached its entry limit. Clear the session to start over."
	case errors.Is(err, core.ErrEmptySource):
		return "Income source is required."
	case errors.Is(err, core.ErrInvalidCategory):
		return "Choose one of the listed categories."
	case errors.Is(err, core.ErrInvalidDate):
		return "Date must be in YYYY-MM-DD format."
	default:
		return "Invalid input."
	}
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(w http.ResponseWriter, r *http.Request) *HTMXResponseBuilder {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format.")
	}
	return nil
}
