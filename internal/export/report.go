package export

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"sgfcp/internal/analytics"
	"sgfcp/internal/core"
)

// Report is the headline summary of a filtered snapshot.
type Report struct {
	GeneratedAt time.Time
	Range       core.DateRange
	KPIs        analytics.KPIs
	Series      analytics.Series
}

// BuildReport aggregates f with the same engine the dashboard uses.
func BuildReport(snap core.Snapshot, r core.DateRange, now time.Time) Report {
	f := snap.Filter(r)
	return Report{
		GeneratedAt: now.UTC(),
		Range:       r,
		KPIs:        analytics.ComputeKPIs(f, snap),
		Series:      analytics.RevenueExpenseSeries(f.Trips, f.Expenses),
	}
}

func rangeBound(d core.Date) string {
	if d.IsZero() {
		return "-"
	}
	return d.ISO()
}

// Rows lays the report out as a grid: a header block, the KPI table and
// the monthly series.
func (r Report) Rows() [][]string {
	k := r.KPIs
	rows := [][]string{
		{"SGFCP resumen", r.GeneratedAt.Format(time.RFC3339)},
		{"Desde", rangeBound(r.Range.From)},
		{"Hasta", rangeBound(r.Range.To)},
		{},
		{"Indicador", "Valor"},
		{"Ingresos", money(k.Revenue)},
		{"Gastos", money(k.Expenses)},
		{"Margen", money(k.Margin)},
		{"Viajes", fmt.Sprint(k.TripCount)},
		{"Ingreso por viaje", money(k.AvgRevenuePerTrip)},
		{"Km", k.Kms.String()},
		{"Anticipos", money(k.Advances)},
		{"Adelantos", fmt.Sprint(k.AdvanceCount)},
		{"Choferes activos", fmt.Sprintf("%d/%d", k.ActiveDrivers, k.TotalDrivers)},
		{"Flota operativa", fmt.Sprintf("%d/%d", k.OperationalTrucks, k.TotalTrucks)},
	}
	if k.LastMonth != "" {
		rows = append(rows, []string{"Variacion " + k.LastMonth, fmt.Sprintf("%.1f%%", k.RevenueDelta)})
	}
	rows = append(rows, []string{}, []string{"Mes", "Ingresos", "Gastos"})
	for i, month := range r.Series.Labels {
		rows = append(rows, []string{month, money(at(r.Series.Revenue, i)), money(at(r.Series.Expenses, i))})
	}
	return rows
}

func at(values []decimal.Decimal, i int) decimal.Decimal {
	if i < len(values) {
		return values[i]
	}
	return decimal.Zero
}

// WriteText prints the report as aligned columns.
func (r Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, row := range r.Rows() {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
