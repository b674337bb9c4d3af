package http

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

func TestParseIncomeForm(t *testing.T) {
	today := core.NewDate(2024, 6, 1)

	tests := []struct {
		name    string
		form    url.Values
		want    core.IncomeEntry
		wantErr error
	}{
		{
			name: "valid",
			form: url.Values{"date": {"2024-05-31"}, "source": {" Salary "}, "amount": {"2500.5"}},
			want: core.IncomeEntry{Date: core.NewDate(2024, 5, 31), Source: "Salary", Amount: core.Money{Cents: 250050}},
		},
		{
			name: "default date",
			form: url.Values{"source": {"Gift"}, "amount": {"10"}},
			want: core.IncomeEntry{Date: today, Source: "Gift", Amount: core.Money{Cents: 1000}},
		},
		{
			name: "control characters stripped",
			form: url.Values{"source": {"Free\x00lance"}, "amount": {"1"}},
			want: core.IncomeEntry{Date: today, Source: "Freelance", Amount: core.Money{Cents: 100}},
		},
		{
			name: "line breaks flattened",
			form: url.Values{"source": {"Side\r\njob\n"}, "amount": {"1"}},
			want: core.IncomeEntry{Date: today, Source: "Side  job", Amount: core.Money{Cents: 100}},
		},
		{name: "amount above limit", form: url.Values{"source": {"Gift"}, "amount": {"90071992547409.92"}}, wantErr: core.ErrInvalidAmount},
		{name: "missing source", form: url.Values{"amount": {"10"}}, wantErr: core.ErrEmptySource},
		{name: "zero amount", form: url.Values{"source": {"Gift"}, "amount": {"0"}}, wantErr: core.ErrInvalidAmount},
		{name: "missing amount", form: url.Values{"source": {"Gift"}}, wantErr: core.ErrInvalidAmount},
		{name: "bad date", form: url.Values{"date": {"2024-13-01"}, "source": {"Gift"}, "amount": {"1"}}, wantErr: core.ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIncomeForm(tt.form, today)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if !isValidationError(err) {
					t.Errorf("%v not classified as validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseExpenseForm(t *testing.T) {
	today := core.NewDate(2024, 6, 1)

	tests := []struct {
		name    string
		form    url.Values
		want    core.ExpenseEntry
		wantErr error
	}{
		{
			name: "valid",
			form: url.Values{"date": {"2024-06-01"}, "category": {"Entertainment"}, "amount": {"19.99"}},
			want: core.ExpenseEntry{Date: today, Category: core.Entertainment, Amount: core.Money{Cents: 1999}},
		},
		{
			name: "category case insensitive",
			form: url.Values{"category": {"UTILITIES"}, "amount": {"60"}},
			want: core.ExpenseEntry{Date: today, Category: core.Utilities, Amount: core.Money{Cents: 6000}},
		},
		{name: "unknown category", form: url.Values{"category": {"Rent"}, "amount": {"1"}}, wantErr: core.ErrInvalidCategory},
		{name: "missing category", form: url.Values{"amount": {"1"}}, wantErr: core.ErrInvalidCategory},
		{name: "negative amount", form: url.Values{"category": {"Food"}, "amount": {"-1"}}, wantErr: core.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExpenseForm(tt.form, today)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := map[string]string{
		"  Salary  ":      "Salary",
		"a\r\nb":          "a  b",
		"tab\there":       "tab here",
		"nul\x00byte\x7f": "nulbyte",
		"\n\n":            "",
	}
	for in, want := range tests {
		if got := sanitizeInput(in); got != want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidationMessageLedgerFull(t *testing.T) {
	err := fmt.Errorf("append: %w", ledger.ErrFull)
	if !isValidationError(err) {
		t.Fatal("ErrFull should map to 422")
	}
	if got := validationMessage(err); !strings.Contains(got, "entry limit") {
		t.Errorf("message = %q", got)
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		symbol string
		cents  int64
		want   string
	}{
		{"$", 0, "$0.00"},
		{"$", 1234, "$12.34"},
		{"$", -300, "-$3.00"},
		{"€", 5, "€0.05"},
	}
	for _, tt := range tests {
		if got := formatMoney(tt.symbol, core.Money{Cents: tt.cents}); got != tt.want {
			t.Errorf("formatMoney(%q, %d) = %q, want %q", tt.symbol, tt.cents, got, tt.want)
		}
	}
}
