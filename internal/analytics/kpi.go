package analytics

import (
	"github.com/shopspring/decimal"

	"sgfcp/internal/core"
)

var hundred = decimal.NewFromInt(100)

// KPIs is the headline metric set for a filtered view.
type KPIs struct {
	Revenue           decimal.Decimal
	Expenses          decimal.Decimal
	Margin            decimal.Decimal
	AvgRevenuePerTrip decimal.Decimal
	Kms               decimal.Decimal
	Advances          decimal.Decimal

	TripCount    int
	ExpenseCount int
	AdvanceCount int

	ActiveDrivers     int
	TotalDrivers      int
	OperationalTrucks int
	TotalTrucks       int

	// LastMonth is the newest revenue bucket, "" when there is none.
	LastMonth string
	// RevenueDelta is the month-over-month change of the last two revenue
	// buckets in percent.
	RevenueDelta float64
}

// ComputeKPIs aggregates f. Driver and truck counts always come from the
// full snapshot.
func ComputeKPIs(f core.Filtered, s core.Snapshot) KPIs {
	k := KPIs{
		Revenue:      TotalRevenue(f.Trips),
		Expenses:     TotalExpenses(f.Expenses),
		Kms:          TotalKms(f.Trips),
		Advances:     TotalAdvances(f.Advances),
		TripCount:    len(f.Trips),
		ExpenseCount: len(f.Expenses),
		AdvanceCount: len(f.Advances),
		TotalDrivers: len(s.Drivers),
		TotalTrucks:  len(s.Trucks),
	}
	k.Margin = k.Revenue.Sub(k.Expenses)
	k.AvgRevenuePerTrip = decimal.Zero
	if k.TripCount > 0 {
		k.AvgRevenuePerTrip = k.Revenue.Div(decimal.NewFromInt(int64(k.TripCount)))
	}
	k.ActiveDrivers = ActiveDrivers(s.Drivers)
	k.OperationalTrucks = OperationalTrucks(s.Trucks)

	months := RevenueByMonth(f.Trips)
	if n := len(months); n > 0 {
		k.LastMonth = months[n-1].Month
	}
	k.RevenueDelta = MonthOverMonth(months)
	return k
}

// MonthOverMonth returns the percent change between the last two buckets,
// or 0 when there are fewer than two or the previous one is zero.
func MonthOverMonth(months []MonthTotal) float64 {
	n := len(months)
	if n < 2 {
		return 0
	}
	prev, last := months[n-2].Total, months[n-1].Total
	if prev.IsZero() {
		return 0
	}
	return last.Sub(prev).Div(prev).Mul(hundred).InexactFloat64()
}

func ActiveDrivers(drivers []core.Driver) int {
	n := 0
	for _, d := range drivers {
		if d.Active {
			n++
		}
	}
	return n
}

func OperationalTrucks(trucks []core.Truck) int {
	n := 0
	for _, t := range trucks {
		if t.Operational {
			n++
		}
	}
	return n
}
