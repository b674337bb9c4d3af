package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the textual form of a Date in forms and CSV files.
const DateLayout = "2006-01-02"

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Entertainment Category = "Entertainment"
	Utilities     Category = "Utilities"
	Others        Category = "Others"
)

type (
	Category string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	IncomeEntry struct {
		Date   Date
		Source string
		Amount Money
	}

	ExpenseEntry struct {
		Date     Date
		Category Category
		Amount   Money
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptySource     = errors.New("empty income source")
	ErrInvalidCategory = errors.New("invalid category")
)

// Categories returns the fixed category set in display order.
func Categories() []Category {
	return []Category{Food, Transport, Entertainment, Utilities, Others}
}

// ParseCategory matches s against the category set, ignoring case and
// surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories() {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

// Valid reports whether c belongs to the category set.
func (c Category) Valid() bool {
	return c.Index() < len(Categories())
}

// Index is the position of c in Categories, or len(Categories()) if unknown.
func (c Category) Index() int {
	for i, v := range Categories() {
		if v == c {
			return i
		}
	}
	return len(Categories())
}

func (c Category) String() string {
	return string(c)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses a date in DateLayout.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > MaxCents {
		return ErrInvalidAmount
	}
	return nil
}

func (e IncomeEntry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Source) == "" {
		return ErrEmptySource
	}
	return e.Amount.Validate()
}

func (e ExpenseEntry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	return e.Amount.Validate()
}

// NewIncomeEntry builds a validated income entry.
func NewIncomeEntry(d Date, source string, amount Money) (IncomeEntry, error) {
	e := IncomeEntry{Date: d, Source: strings.TrimSpace(source), Amount: amount}
	if err := e.Validate(); err != nil {
		return IncomeEntry{}, err
	}
	return e, nil
}

// NewExpenseEntry builds a validated expense entry. Unlike the ledger, it
// also checks category membership since it sits at the input boundary.
func NewExpenseEntry(d Date, c Category, amount Money) (ExpenseEntry, error) {
	if !c.Valid() {
		return ExpenseEntry{}, ErrInvalidCategory
	}
	e := ExpenseEntry{Date: d, Category: c, Amount: amount}
	if err := e.Validate(); err != nil {
		return ExpenseEntry{}, err
	}
	return e, nil
}
