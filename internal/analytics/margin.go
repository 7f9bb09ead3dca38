package analytics

import (
	"slices"

	"github.com/shopspring/decimal"

	"sgfcp/internal/core"
)

// WorstMarginsN is the size of the worst-performers table.
const WorstMarginsN = 5

// TripMargin pairs a trip with revenue minus its linked expenses.
type TripMargin struct {
	Trip   core.Trip
	Margin decimal.Decimal
}

// ExpensesByTrip sums expenses per referenced trip. Expenses without a
// trip reference are ignored.
func ExpensesByTrip(expenses []core.Expense) map[int64]decimal.Decimal {
	out := make(map[int64]decimal.Decimal)
	for _, e := range expenses {
		if e.TripID == nil || *e.TripID == 0 {
			continue
		}
		out[*e.TripID] = out[*e.TripID].Add(e.Amount)
	}
	return out
}

// WorstMargins returns the n trips with the lowest margin, most negative
// first, keeping input order on ties.
func WorstMargins(trips []core.Trip, expenses []core.Expense, n int) []TripMargin {
	cost := ExpensesByTrip(expenses)
	out := make([]TripMargin, 0, len(trips))
	for _, t := range trips {
		out = append(out, TripMargin{Trip: t, Margin: Revenue(t).Sub(cost[t.ID])})
	}
	slices.SortStableFunc(out, func(a, b TripMargin) int {
		return a.Margin.Cmp(b.Margin)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
