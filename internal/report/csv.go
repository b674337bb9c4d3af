package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"fintrack/internal/core"
)

// Export file names offered for download.
const (
	IncomeFileName  = "income_data.csv"
	ExpenseFileName = "expense_data.csv"
)

var (
	incomeHeader  = []string{"Date", "Source", "Amount"}
	expenseHeader = []string{"Date", "Category", "Amount"}

	ErrBadHeader   = errors.New("unexpected csv header")
	ErrTooManyRows = errors.New("too many rows")
)

// WriteIncomeCSV writes entries as Date,Source,Amount rows.
func WriteIncomeCSV(w io.Writer, entries []core.IncomeEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(incomeHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, e := range entries {
		if err := cw.Write([]string{e.Date.String(), e.Source, e.Amount.Fixed()}); err != nil {
			return fmt.Errorf("write income row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteExpenseCSV writes entries as Date,Category,Amount rows.
func WriteExpenseCSV(w io.Writer, entries []core.ExpenseEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(expenseHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, e := range entries {
		if err := cw.Write([]string{e.Date.String(), string(e.Category), e.Amount.Fixed()}); err != nil {
			return fmt.Errorf("write expense row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadIncomeCSV parses the output of WriteIncomeCSV.
func ReadIncomeCSV(r io.Reader) ([]core.IncomeEntry, error) {
	var out []core.IncomeEntry
	err := readRows(r, incomeHeader, func(line int, rec []string) error {
		if len(out) >= core.MaxEntries {
			return fmt.Errorf("line %d: %w", line, ErrTooManyRows)
		}
		d, err := core.ParseDate(rec[0])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		m, err := core.ParseMoney(rec[2])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		e, err := core.NewIncomeEntry(d, rec[1], m)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, e)
		return nil
	})
	return out, err
}

// ReadExpenseCSV parses the output of WriteExpenseCSV.
func ReadExpenseCSV(r io.Reader) ([]core.ExpenseEntry, error) {
	var out []core.ExpenseEntry
	err := readRows(r, expenseHeader, func(line int, rec []string) error {
		if len(out) >= core.MaxEntries {
			return fmt.Errorf("line %d: %w", line, ErrTooManyRows)
		}
		d, err := core.ParseDate(rec[0])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		c, err := core.ParseCategory(rec[1])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		m, err := core.ParseMoney(rec[2])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		e, err := core.NewExpenseEntry(d, c, m)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, e)
		return nil
	})
	return out, err
}

func readRows(r io.Reader, header []string, row func(line int, rec []string) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)

	first, err := cr.Read()
	if err == io.EOF {
		return fmt.Errorf("%w: empty input", ErrBadHeader)
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(first) > 0 {
		first[0] = strings.TrimPrefix(first[0], "\ufeff")
	}
	for i := range header {
		if strings.TrimSpace(first[i]) != header[i] {
			return fmt.Errorf("%w: got %v, want %v", ErrBadHeader, first, header)
		}
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := row(line, rec); err != nil {
			return err
		}
	}
}
