// Package analytics derives KPIs, monthly series, breakdowns and rankings
// from a filtered snapshot. Every function here is pure.
package analytics

import (
	"github.com/shopspring/decimal"

	"sgfcp/internal/core"
)

// Revenue is rate × estimated_kms for per-km trips with kilometers, the
// flat rate otherwise. Missing numbers decode as zero.
func Revenue(t core.Trip) decimal.Decimal {
	if t.CalculatedPerKm && t.EstimatedKms.IsPositive() {
		return t.Rate.Mul(t.EstimatedKms)
	}
	return t.Rate
}

// TotalRevenue sums Revenue over trips.
func TotalRevenue(trips []core.Trip) decimal.Decimal {
	total := decimal.Zero
	for _, t := range trips {
		total = total.Add(Revenue(t))
	}
	return total
}

// TotalExpenses sums expense amounts.
func TotalExpenses(expenses []core.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// TotalAdvances sums advance amounts.
func TotalAdvances(advances []core.AdvancePayment) decimal.Decimal {
	total := decimal.Zero
	for _, a := range advances {
		total = total.Add(a.Amount)
	}
	return total
}

// TotalKms sums estimated kilometers regardless of how the trip is billed.
func TotalKms(trips []core.Trip) decimal.Decimal {
	total := decimal.Zero
	for _, t := range trips {
		total = total.Add(t.EstimatedKms)
	}
	return total
}
