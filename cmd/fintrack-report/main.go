// Command fintrack-report prints totals and per-category sums from CSV
// files exported by the dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/report"
)

func main() {
	incomePath := flag.String("income", report.IncomeFileName, "income CSV exported by fintrack (empty to skip)")
	expensePath := flag.String("expenses", report.ExpenseFileName, "expense CSV exported by fintrack (empty to skip)")
	currency := flag.String("currency", "$", "currency symbol used in the output")
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn, error")
	flag.Parse()

	logger := cli.SetupLogger(*logLevel).WithComponent(log.ComponentExport)

	income, expenses, err := load(context.Background(), *incomePath, *expensePath)
	if err != nil {
		logger.Error("Failed to read exports", log.FieldError, err,
			log.FieldOperation, log.OpParse)
		os.Exit(1)
	}
	logger.Info("Exports loaded", "income", len(income), "expenses", len(expenses))

	printReport(os.Stdout, *currency, income, expenses)
}

// load parses both files concurrently. A blank path yields no entries.
func load(ctx context.Context, incomePath, expensePath string) ([]core.IncomeEntry, []core.ExpenseEntry, error) {
	var (
		income   []core.IncomeEntry
		expenses []core.ExpenseEntry
	)
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		if incomePath == "" {
			return nil
		}
		f, err := os.Open(incomePath)
		if err != nil {
			return err
		}
		defer f.Close()
		if income, err = report.ReadIncomeCSV(f); err != nil {
			return fmt.Errorf("%s: %w", incomePath, err)
		}
		return nil
	})

	g.Go(func() error {
		if expensePath == "" {
			return nil
		}
		f, err := os.Open(expensePath)
		if err != nil {
			return err
		}
		defer f.Close()
		if expenses, err = report.ReadExpenseCSV(f); err != nil {
			return fmt.Errorf("%s: %w", expensePath, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return income, expenses, nil
}

func printReport(w io.Writer, currency string, income []core.IncomeEntry, expenses []core.ExpenseEntry) {
	money := func(m core.Money) string {
		if m.Cents < 0 {
			return "-" + currency + core.Money{Cents: -m.Cents}.Fixed()
		}
		return currency + m.Fixed()
	}

	s := report.BuildSummary(income, expenses)
	fmt.Fprintf(w, "Income entries:   %d\n", len(income))
	fmt.Fprintf(w, "Expense entries:  %d\n", len(expenses))
	fmt.Fprintf(w, "Total Income:     %s\n", money(s.TotalIncome))
	fmt.Fprintf(w, "Total Expenses:   %s\n", money(s.TotalExpenses))
	fmt.Fprintf(w, "Balance:          %s\n", money(s.Balance))

	rows := report.SortedCategories(report.ExpensesByCategory(expenses))
	if len(rows) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Expenses by category:")
	for _, r := range rows {
		pct := float64(r.Amount.Cents) * 100 / float64(s.TotalExpenses.Cents)
		fmt.Fprintf(w, "  %-14s %12s  %5.1f%%\n", r.Category, money(r.Amount), pct)
	}
}
