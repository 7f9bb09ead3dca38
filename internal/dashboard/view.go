package dashboard

import (
	"fmt"
	"strings"
	"time"

	"sgfcp/internal/analytics"
	"sgfcp/internal/core"
)

// EmptyTableText is shown in place of a table without rows.
const EmptyTableText = "Sin datos"

// KPICard is one headline metric.
type KPICard struct {
	Label string
	Value string
	Sub   string
}

// Pill is one small labelled counter.
type Pill struct {
	Label string
	Value string
}

// Table is a rendered ranking or recency table.
type Table struct {
	ID      string
	Title   string
	Headers []string
	Rows    [][]string
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// View is everything the dashboard template needs.
type View struct {
	Status   Status
	Stale    bool
	Loaded   bool
	Loading  bool
	LoadedAt string
	Dark     bool

	FilterFrom string
	FilterTo   string

	KPIs     []KPICard
	Charts   []Chart
	Expanded *Chart
	Tables   []Table
	Fleet    []Pill
	Clients  []Pill

	// Errors lists charts that failed to render.
	Errors []string
}

// ViewOptions carries the inputs of BuildView that are not part of State.
type ViewOptions struct {
	Dark              bool
	Now               time.Time
	MaintenanceWindow time.Duration
}

// BuildView derives the full view from s. It has no side effects; the
// same state and options always produce the same view.
func BuildView(s State, opts ViewOptions) View {
	if opts.MaintenanceWindow <= 0 {
		opts.MaintenanceWindow = analytics.DefaultMaintenanceWindow
	}
	v := View{
		Status:     s.Status,
		Stale:      s.Stale,
		Loaded:     s.Loaded,
		Loading:    s.Loading,
		Dark:       opts.Dark,
		FilterFrom: s.FilterFrom,
		FilterTo:   s.FilterTo,
	}
	if !s.Snapshot.LoadedAt.IsZero() {
		v.LoadedAt = s.Snapshot.LoadedAt.Format("02/01/2006 15:04")
	}

	snap := s.Snapshot
	f := s.Filtered()
	ix := snap.Index

	v.KPIs = kpiCards(analytics.ComputeKPIs(f, snap))

	in := chartInputs{
		series:     analytics.RevenueExpenseSeries(f.Trips, f.Expenses),
		byType:     analytics.ExpensesByType(f.Expenses),
		byState:    analytics.TripsByState(f.Trips),
		topClients: analytics.TopClients(f.Trips, ix, analytics.ChartTopN),
		topDrivers: analytics.TopDriverAdvances(f.Advances, ix, analytics.ChartTopN),
	}
	palette := PaletteFor(opts.Dark)
	for _, id := range ChartIDs {
		c, err := renderChart(id, in, palette)
		if err != nil {
			c.Empty = true
			v.Errors = append(v.Errors, fmt.Sprintf("%s: %v", id, err))
		}
		if id == s.Expanded {
			c.Expanded = true
			expanded := c
			v.Expanded = &expanded
		}
		v.Charts = append(v.Charts, c)
	}

	v.Tables = []Table{
		tripTable(f.Trips, ix),
		marginTable(f.Trips, f.Expenses, ix),
		expenseTable(f.Expenses, ix),
		serviceTable(analytics.UpcomingMaintenance(snap.Trucks, opts.Now, opts.MaintenanceWindow, analytics.MaintenanceLimit)),
		advanceTable(f.Advances, ix),
		clientTable(analytics.ClientTable(f.Trips, ix, analytics.TableTopN)),
	}

	fleet := analytics.FleetSummary(snap)
	v.Fleet = []Pill{
		{Label: "Operativos", Value: Count(fleet.Operational)},
		{Label: "Total", Value: Count(fleet.Total)},
		{Label: "Choferes activos", Value: Count(fleet.ActiveDrivers)},
	}
	clients := analytics.ClientSummary(f, snap)
	v.Clients = []Pill{
		{Label: "Clientes activos", Value: Count(clients.Active)},
		{Label: "Total clientes", Value: Count(clients.Total)},
	}
	return v
}

func kpiCards(k analytics.KPIs) []KPICard {
	revenueSub := "N/A"
	if k.LastMonth != "" {
		revenueSub = k.LastMonth + " " + Percent(k.RevenueDelta)
	}
	marginSub := "N/A"
	if k.TripCount > 0 {
		marginSub = Count(k.TripCount) + " viajes"
	}
	return []KPICard{
		{Label: "Ingresos", Value: Currency(k.Revenue), Sub: revenueSub},
		{Label: "Gastos", Value: Currency(k.Expenses), Sub: fmt.Sprintf("%d registros", k.ExpenseCount)},
		{Label: "Margen", Value: Currency(k.Margin), Sub: marginSub},
		{Label: "Ingreso por viaje", Value: Currency(k.AvgRevenuePerTrip), Sub: Amount(k.Kms) + " km"},
		{Label: "Anticipos", Value: Currency(k.Advances), Sub: fmt.Sprintf("%d adelantos", k.AdvanceCount)},
		{Label: "Choferes activos", Value: Count(k.ActiveDrivers), Sub: Count(k.TotalDrivers) + " total"},
		{Label: "Flota operativa", Value: Count(k.OperationalTrucks), Sub: Count(k.TotalTrucks) + " camiones"},
	}
}

// dateCell shows a parsed date as YYYY-MM-DD and anything else verbatim.
func dateCell(raw string) string {
	if d := core.ParseDate(raw); !d.IsZero() {
		return d.ISO()
	}
	return textCell(raw)
}

func textCell(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "-"
	}
	return s
}

func tripTable(trips []core.Trip, ix *core.Index) Table {
	t := Table{ID: "trips", Title: "Ultimos viajes", Headers: []string{"Fecha", "Cliente", "Ruta", "Ingreso"}}
	for _, trip := range analytics.RecentTrips(trips, analytics.RecentTripsN) {
		t.Rows = append(t.Rows, []string{
			dateCell(trip.StartDate),
			ix.ClientName(trip),
			trip.Route(),
			Currency(analytics.Revenue(trip)),
		})
	}
	return t
}

func marginTable(trips []core.Trip, expenses []core.Expense, ix *core.Index) Table {
	t := Table{ID: "margins", Title: "Peores margenes", Headers: []string{"Viaje", "Chofer", "Margen", "Estado"}}
	for _, m := range analytics.WorstMargins(trips, expenses, analytics.WorstMarginsN) {
		t.Rows = append(t.Rows, []string{
			fmt.Sprintf("#%d", m.Trip.ID),
			ix.DriverName(m.Trip.DriverID),
			Currency(m.Margin),
			textCell(m.Trip.StateID.String()),
		})
	}
	return t
}

func expenseTable(expenses []core.Expense, ix *core.Index) Table {
	t := Table{ID: "expenses", Title: "Gastos recientes", Headers: []string{"Fecha", "Tipo", "Monto", "Chofer"}}
	for _, e := range analytics.RecentExpenses(expenses, analytics.RecentExpensesN) {
		t.Rows = append(t.Rows, []string{
			dateCell(e.Date),
			textCell(e.ExpenseType.String()),
			Currency(e.Amount),
			ix.DriverName(e.DriverID),
		})
	}
	return t
}

func serviceTable(items []analytics.MaintenanceItem) Table {
	t := Table{ID: "services", Title: "Vencimientos proximos", Headers: []string{"Camion", "Tipo", "Vence", "Operativo"}}
	for _, it := range items {
		operational := "No"
		if it.Truck.Operational {
			operational = "OK"
		}
		t.Rows = append(t.Rows, []string{textCell(it.Truck.Plate), it.Check, it.Due.ISO(), operational})
	}
	return t
}

func advanceTable(advances []core.AdvancePayment, ix *core.Index) Table {
	t := Table{ID: "advances", Title: "Anticipos recientes", Headers: []string{"Fecha", "Chofer", "Monto"}}
	for _, a := range analytics.RecentAdvances(advances, analytics.RecentAdvancesN) {
		t.Rows = append(t.Rows, []string{dateCell(a.Date), ix.DriverName(a.DriverID), Currency(a.Amount)})
	}
	return t
}

func clientTable(rows []analytics.ClientRow) Table {
	t := Table{ID: "clients", Title: "Clientes", Headers: []string{"Cliente", "Viajes", "Ingreso", "Estado"}}
	for _, r := range rows {
		status := "-"
		if r.Active() {
			status = "Activo"
		}
		t.Rows = append(t.Rows, []string{r.Name, Count(r.Trips), Currency(r.Revenue), status})
	}
	return t
}
