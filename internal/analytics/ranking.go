package analytics

import (
	"slices"

	"github.com/shopspring/decimal"

	"sgfcp/internal/core"
)

// Ranking sizes used by the dashboard.
const (
	ChartTopN = 8
	TableTopN = 10
)

// ClientRow is one line of the clients table.
type ClientRow struct {
	Name    string
	Trips   int
	Revenue decimal.Decimal
}

// Active reports whether the client produced any revenue.
func (r ClientRow) Active() bool {
	return r.Revenue.IsPositive()
}

// TopN sorts buckets by total, highest first, keeping encounter order on
// ties, and truncates to n. The input slice is not modified.
func TopN(buckets []Bucket, n int) []Bucket {
	out := slices.Clone(buckets)
	slices.SortStableFunc(out, func(a, b Bucket) int {
		return b.Total.Cmp(a.Total)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// RevenueByClient groups trip revenue by resolved client name.
func RevenueByClient(trips []core.Trip, ix *core.Index) []Bucket {
	rows := clientRows(trips, ix)
	out := make([]Bucket, len(rows))
	for i, r := range rows {
		out[i] = Bucket{Label: r.Name, Total: r.Revenue}
	}
	return out
}

// TopClients ranks clients by revenue.
func TopClients(trips []core.Trip, ix *core.Index, n int) []Bucket {
	return TopN(RevenueByClient(trips, ix), n)
}

// AdvancesByDriver groups advance amounts by resolved driver name.
func AdvancesByDriver(advances []core.AdvancePayment, ix *core.Index) []Bucket {
	var out []Bucket
	pos := make(map[string]int)
	for _, a := range advances {
		name := ix.DriverName(a.DriverID)
		i, ok := pos[name]
		if !ok {
			i = len(out)
			pos[name] = i
			out = append(out, Bucket{Label: name, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(a.Amount)
	}
	return out
}

// TopDriverAdvances ranks drivers by advance total.
func TopDriverAdvances(advances []core.AdvancePayment, ix *core.Index, n int) []Bucket {
	return TopN(AdvancesByDriver(advances, ix), n)
}

// ClientTable ranks clients by revenue keeping their trip counts.
func ClientTable(trips []core.Trip, ix *core.Index, n int) []ClientRow {
	rows := clientRows(trips, ix)
	slices.SortStableFunc(rows, func(a, b ClientRow) int {
		return b.Revenue.Cmp(a.Revenue)
	})
	if n >= 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// DistinctClients counts the client names present in trips.
func DistinctClients(trips []core.Trip, ix *core.Index) int {
	return len(clientRows(trips, ix))
}

func clientRows(trips []core.Trip, ix *core.Index) []ClientRow {
	var out []ClientRow
	pos := make(map[string]int)
	for _, t := range trips {
		name := ix.ClientName(t)
		i, ok := pos[name]
		if !ok {
			i = len(out)
			pos[name] = i
			out = append(out, ClientRow{Name: name, Revenue: decimal.Zero})
		}
		out[i].Trips++
		out[i].Revenue = out[i].Revenue.Add(Revenue(t))
	}
	return out
}
