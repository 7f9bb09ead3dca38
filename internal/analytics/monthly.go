package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"sgfcp/internal/core"
)

// MonthTotal is one "YYYY-MM" bucket.
type MonthTotal struct {
	Month string
	Total decimal.Decimal
}

// Series aligns revenue and expense totals on the union of their months.
type Series struct {
	Labels   []string
	Revenue  []decimal.Decimal
	Expenses []decimal.Decimal
}

// GroupByMonth sums value per calendar month of date. Items without a
// parseable date are skipped. Buckets come back sorted by month key.
func GroupByMonth[T any](items []T, date func(T) core.Date, value func(T) decimal.Decimal) []MonthTotal {
	totals := make(map[string]decimal.Decimal)
	for _, item := range items {
		key := date(item).MonthKey()
		if key == "" {
			continue
		}
		totals[key] = totals[key].Add(value(item))
	}

	out := make([]MonthTotal, 0, len(totals))
	for month, total := range totals {
		out = append(out, MonthTotal{Month: month, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// RevenueByMonth groups trips by start date.
func RevenueByMonth(trips []core.Trip) []MonthTotal {
	return GroupByMonth(trips, core.Trip.Start, Revenue)
}

// ExpensesByMonth groups expenses by date.
func ExpensesByMonth(expenses []core.Expense) []MonthTotal {
	return GroupByMonth(expenses, core.Expense.When, func(e core.Expense) decimal.Decimal { return e.Amount })
}

// RevenueExpenseSeries merges both monthly groupings; months present on only
// one side get a zero on the other.
func RevenueExpenseSeries(trips []core.Trip, expenses []core.Expense) Series {
	revenue := RevenueByMonth(trips)
	spent := ExpensesByMonth(expenses)

	byMonth := make(map[string][2]decimal.Decimal)
	for _, m := range revenue {
		v := byMonth[m.Month]
		v[0] = m.Total
		byMonth[m.Month] = v
	}
	for _, m := range spent {
		v := byMonth[m.Month]
		v[1] = m.Total
		byMonth[m.Month] = v
	}

	s := Series{Labels: make([]string, 0, len(byMonth))}
	for month := range byMonth {
		s.Labels = append(s.Labels, month)
	}
	sort.Strings(s.Labels)
	for _, month := range s.Labels {
		v := byMonth[month]
		s.Revenue = append(s.Revenue, v[0])
		s.Expenses = append(s.Expenses, v[1])
	}
	return s
}
