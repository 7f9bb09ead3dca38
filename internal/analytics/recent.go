package analytics

import (
	"slices"

	"sgfcp/internal/core"
)

// Recency table sizes.
const (
	RecentTripsN    = 10
	RecentExpensesN = 12
	RecentAdvancesN = 12
)

// RecentTrips returns the n trips with the latest start date.
func RecentTrips(trips []core.Trip, n int) []core.Trip {
	return newestFirst(trips, core.Trip.Start, n)
}

// RecentExpenses returns the n latest expenses.
func RecentExpenses(expenses []core.Expense, n int) []core.Expense {
	return newestFirst(expenses, core.Expense.When, n)
}

// RecentAdvances returns the n latest advances.
func RecentAdvances(advances []core.AdvancePayment, n int) []core.AdvancePayment {
	return newestFirst(advances, core.AdvancePayment.When, n)
}

// newestFirst sorts by date descending; undated items sink to the end.
func newestFirst[T any](items []T, date func(T) core.Date, n int) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		da, db := date(a), date(b)
		switch {
		case da.IsZero() && db.IsZero():
			return 0
		case da.IsZero():
			return 1
		case db.IsZero():
			return -1
		}
		return db.Compare(da.Time)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
