// Package report derives totals, category breakdowns, charts and CSV
// exports from ledger contents. Every function recomputes from the slices
// it is given; nothing is cached.
package report

import (
	"sort"

	"fintrack/internal/core"
)

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category core.Category
	Amount   core.Money
}

// TotalIncome sums the income amounts; zero for no entries.
func TotalIncome(entries []core.IncomeEntry) core.Money {
	var total core.Money
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}

// TotalExpenses sums the expense amounts; zero for no entries.
func TotalExpenses(entries []core.ExpenseEntry) core.Money {
	var total core.Money
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}

// ExpensesByCategory groups expenses by category. Categories without
// entries are absent from the result.
func ExpensesByCategory(entries []core.ExpenseEntry) map[core.Category]core.Money {
	out := make(map[core.Category]core.Money)
	for _, e := range entries {
		out[e.Category] = out[e.Category].Add(e.Amount)
	}
	return out
}

// SortedCategories flattens a by-category map for display: largest amount
// first, ties in category order.
func SortedCategories(byCat map[core.Category]core.Money) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(byCat))
	for c, m := range byCat {
		out = append(out, CategoryAmount{Category: c, Amount: m})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		if out[i].Category.Index() != out[j].Category.Index() {
			return out[i].Category.Index() < out[j].Category.Index()
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Summary is the totals block of the dashboard.
type Summary struct {
	TotalIncome   core.Money
	TotalExpenses core.Money
	Balance       core.Money
	// Visible is false until both income and expenses have entries.
	Visible bool
}

// BuildSummary computes the totals block.
func BuildSummary(income []core.IncomeEntry, expenses []core.ExpenseEntry) Summary {
	ti := TotalIncome(income)
	te := TotalExpenses(expenses)
	return Summary{
		TotalIncome:   ti,
		TotalExpenses: te,
		Balance:       ti.Sub(te),
		Visible:       len(income) > 0 && len(expenses) > 0,
	}
}
