package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sgfcp/internal/core"
)

func ptr(v int64) *int64 { return &v }

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func loadedState() State {
	snap := core.NewSnapshot(core.Collections{
		Trips: []core.Trip{
			{ID: 1, ClientID: ptr(1), DriverID: ptr(1), Origin: "Rosario", Destination: "Cordoba",
				StartDate: "2024-01-05", Rate: decimal.NewFromInt(100000), StateID: "Finalizado"},
			{ID: 2, ClientID: ptr(2), DriverID: ptr(9), Origin: "Salta", Destination: "Jujuy",
				StartDate: "2024-02-10", Rate: decimal.NewFromInt(1000), EstimatedKms: decimal.NewFromInt(150),
				CalculatedPerKm: true},
		},
		Expenses: []core.Expense{
			{ID: 1, TripID: ptr(2), DriverID: ptr(1), Date: "2024-02-11", Amount: decimal.NewFromInt(200000), ExpenseType: "Combustible"},
			{ID: 2, Date: "2024-01-20", Amount: decimal.NewFromInt(50000), ExpenseType: "undefined"},
		},
		Advances: []core.AdvancePayment{{ID: 1, DriverID: ptr(1), Date: "2024-02-01", Amount: decimal.NewFromInt(30000)}},
		Drivers:  []core.Driver{{ID: 1, Name: "Ana", Surname: "Paz", Active: true}, {ID: 2, Name: "Luis"}},
		Trucks: []core.Truck{
			{ID: 1, Plate: "AB123CD", Operational: true, ServiceDueDate: "2024-03-11", VTVDueDate: "2024-04-10"},
			{ID: 2, Plate: "AE456FG", PlateDueDate: "2024-02-01"},
		},
		Clients: []core.Client{{ID: 1, Name: "Acme"}, {ID: 3, Name: "Dormido"}},
	}, now)
	s := Update(State{}, LoadStarted{})
	return Update(s, SnapshotLoaded{Seq: s.IssuedSeq, Snapshot: snap})
}

func table(v View, id string) Table {
	for _, t := range v.Tables {
		if t.ID == id {
			return t
		}
	}
	return Table{}
}

func TestBuildViewShape(t *testing.T) {
	v := BuildView(loadedState(), ViewOptions{Now: now})

	require.Len(t, v.KPIs, 7)
	require.Len(t, v.Charts, 5)
	require.Len(t, v.Tables, 6)
	assert.Len(t, v.Fleet, 3)
	assert.Len(t, v.Clients, 2)
	assert.Empty(t, v.Errors)
	assert.Nil(t, v.Expanded)

	labels := make([]string, len(v.KPIs))
	for i, k := range v.KPIs {
		labels[i] = k.Label
	}
	assert.Equal(t, []string{"Ingresos", "Gastos", "Margen", "Ingreso por viaje", "Anticipos", "Choferes activos", "Flota operativa"}, labels)

	for i, c := range v.Charts {
		assert.Equal(t, ChartIDs[i], c.ID, "layout order is fixed")
		assert.False(t, c.Empty, "chart %s", c.ID)
		assert.True(t, strings.HasPrefix(string(c.SVG), "<svg"), "chart %s", c.ID)
	}
}

func TestBuildViewKPIs(t *testing.T) {
	v := BuildView(loadedState(), ViewOptions{Now: now})

	// revenue 100000 + 1000*150 = 250000
	assert.Equal(t, "$ 250.000", v.KPIs[0].Value)
	assert.Equal(t, "2024-02 50.0%", v.KPIs[0].Sub)
	assert.Equal(t, "2 registros", v.KPIs[1].Sub)
	assert.Equal(t, "2 viajes", v.KPIs[2].Sub)
	assert.Equal(t, "1 adelantos", v.KPIs[4].Sub)
	assert.Equal(t, "1", v.KPIs[5].Value)
	assert.Equal(t, "2 total", v.KPIs[5].Sub)
	assert.Equal(t, "1", v.KPIs[6].Value)
	assert.Equal(t, "2 camiones", v.KPIs[6].Sub)
}

func TestBuildViewTables(t *testing.T) {
	v := BuildView(loadedState(), ViewOptions{Now: now})

	trips := table(v, "trips")
	require.Len(t, trips.Rows, 2)
	assert.Equal(t, []string{"2024-02-10", "Sin cliente", "Salta - Jujuy", "$ 150.000"}, trips.Rows[0])
	assert.Equal(t, "Acme", trips.Rows[1][1])

	margins := table(v, "margins")
	require.Len(t, margins.Rows, 2)
	assert.Equal(t, []string{"#2", "Chofer 9", "-$ 50.000", "-"}, margins.Rows[0])
	assert.Equal(t, "Ana Paz", margins.Rows[1][1])

	services := table(v, "services")
	require.Len(t, services.Rows, 2, "VTV 40 days out is not flagged")
	assert.Equal(t, []string{"AB123CD", "Service", "2024-03-11", "OK"}, services.Rows[0])
	assert.Equal(t, []string{"AE456FG", "Patente", "2024-02-01", "No"}, services.Rows[1])

	clients := table(v, "clients")
	require.Len(t, clients.Rows, 2)
	assert.Equal(t, []string{"Sin cliente", "1", "$ 150.000", "Activo"}, clients.Rows[0])

	assert.Equal(t, "2", v.Clients[0].Value, "distinct client names billed")
	assert.Equal(t, "2", v.Clients[1].Value)
}

func TestBuildViewFilterAndEmptyTables(t *testing.T) {
	s := Update(loadedState(), FilterApplied{From: "2023-01-01", To: "2023-12-31"})
	v := BuildView(s, ViewOptions{Now: now})

	for _, id := range []string{"trips", "margins", "expenses", "advances", "clients"} {
		assert.True(t, table(v, id).Empty(), "table %s", id)
	}
	assert.False(t, table(v, "services").Empty(), "trucks are never date filtered")
	for _, c := range v.Charts {
		assert.True(t, c.Empty, "chart %s", c.ID)
	}
	assert.Equal(t, "$ 0", v.KPIs[0].Value)
	assert.Equal(t, "N/A", v.KPIs[0].Sub)
	assert.Equal(t, "N/A", v.KPIs[2].Sub)
	assert.Equal(t, "2023-01-01", v.FilterFrom)
}

func TestBuildViewExpandedChart(t *testing.T) {
	s := Update(loadedState(), ChartExpanded{ID: ChartTripState})
	v := BuildView(s, ViewOptions{Now: now, Dark: true})

	require.NotNil(t, v.Expanded)
	assert.Equal(t, ChartTripState, v.Expanded.ID)
	assert.Equal(t, "Viajes por estado", v.Expanded.Title)
	assert.True(t, v.Charts[2].Expanded)
	assert.Equal(t, ChartTripState, v.Charts[2].ID, "grid position is unchanged")
	assert.Contains(t, string(v.Expanded.SVG), "Sin estado")
}

func TestBuildViewIsDeterministic(t *testing.T) {
	s := loadedState()
	a := BuildView(s, ViewOptions{Now: now})
	b := BuildView(s, ViewOptions{Now: now})
	assert.Equal(t, a, b)
}

func TestBuildViewThemePalette(t *testing.T) {
	s := loadedState()
	light := BuildView(s, ViewOptions{Now: now})
	dark := BuildView(s, ViewOptions{Now: now, Dark: true})

	assert.Contains(t, string(light.Charts[0].SVG), "#000a24")
	assert.Contains(t, string(dark.Charts[0].SVG), "#6b9bd1")
}

func TestBuildViewBeforeFirstLoad(t *testing.T) {
	v := BuildView(State{}, ViewOptions{Now: now})
	assert.False(t, v.Loaded)
	require.Len(t, v.Tables, 6)
	for _, tb := range v.Tables {
		assert.True(t, tb.Empty())
	}
	assert.Equal(t, "0", v.Fleet[1].Value)
}
