package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func id(v int64) *int64 { return &v }

func sampleSnapshot() Snapshot {
	return NewSnapshot(Collections{
		Trips: []Trip{
			{ID: 1, ClientID: id(1), StartDate: "2024-01-05", Rate: decimal.NewFromInt(1000)},
			{ID: 2, ClientID: id(2), StartDate: "2024-02-10", Rate: decimal.NewFromInt(500)},
			{ID: 3, StartDate: "", Rate: decimal.NewFromInt(10)},
		},
		Expenses: []Expense{
			{ID: 1, Date: "2024-01-10", Amount: decimal.NewFromInt(100)},
			{ID: 2, Date: "2024-03-01", Amount: decimal.NewFromInt(50)},
		},
		Advances: []AdvancePayment{
			{ID: 1, DriverID: id(7), Date: "2024-02-01", Amount: decimal.NewFromInt(20)},
		},
		Drivers: []Driver{{ID: 7, Name: "Ana", Surname: "Paz", Active: true}},
		Clients: []Client{{ID: 1, Name: "Acme"}},
	}, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
}

func TestSnapshotFilter(t *testing.T) {
	s := sampleSnapshot()

	all := s.Filter(DateRange{})
	assert.Len(t, all.Trips, 2, "trips without a start date are never in range")
	assert.Len(t, all.Expenses, 2)
	assert.Len(t, all.Advances, 1)

	jan := s.Filter(NewDateRange("2024-01-01", "2024-01-31"))
	require.Len(t, jan.Trips, 1)
	assert.Equal(t, int64(1), jan.Trips[0].ID)
	require.Len(t, jan.Expenses, 1)
	assert.Empty(t, jan.Advances)
}

func TestSnapshotFilterIsIdempotent(t *testing.T) {
	s := sampleSnapshot()
	r := NewDateRange("2024-01-01", "2024-02-28")

	first := s.Filter(r)
	second := s.Filter(r)
	assert.Equal(t, first, second)

	again := NewSnapshot(Collections{Trips: first.Trips, Expenses: first.Expenses, Advances: first.Advances}, s.LoadedAt).Filter(r)
	assert.Equal(t, first, again)
}

func TestIndexNames(t *testing.T) {
	s := sampleSnapshot()

	assert.Equal(t, "Acme", s.Index.ClientName(s.Trips[0]))
	assert.Equal(t, NoClientName, s.Index.ClientName(s.Trips[1]), "dangling client id")
	assert.Equal(t, NoClientName, s.Index.ClientName(s.Trips[2]), "missing client id")

	embedded := Trip{ClientID: id(1), Client: &ClientRef{Name: "Embebido"}}
	assert.Equal(t, "Embebido", s.Index.ClientName(embedded))

	assert.Equal(t, "Ana Paz", s.Index.DriverName(id(7)))
	assert.Equal(t, "Chofer 99", s.Index.DriverName(id(99)))
	assert.Equal(t, NoDriverName, s.Index.DriverName(nil))

	var nilIndex *Index
	assert.Equal(t, "Chofer 7", nilIndex.DriverName(id(7)))
}

func TestDecodeEntities(t *testing.T) {
	payload := `[
		{"id": 1, "client_id": null, "driver_id": 3, "origin": "Rosario", "destination": "Cordoba",
		 "start_date": "2024-01-05", "rate": "1500.50", "estimated_kms": null, "calculated_per_km": false,
		 "state_id": "En curso"},
		{"id": 2, "rate": 200, "state_id": 5, "client": {"id": 4, "name": "Logistica Sur"}}
	]`
	var trips []Trip
	require.NoError(t, json.Unmarshal([]byte(payload), &trips))
	require.Len(t, trips, 2)

	assert.Nil(t, trips[0].ClientID)
	assert.True(t, trips[0].Rate.Equal(decimal.RequireFromString("1500.50")))
	assert.True(t, trips[0].EstimatedKms.IsZero())
	assert.Equal(t, "En curso", trips[0].StateID.String())
	assert.Equal(t, "Rosario - Cordoba", trips[0].Route())

	assert.Equal(t, "", trips[1].StateID.String(), "non-string state decodes empty")
	assert.Equal(t, "Logistica Sur", trips[1].Client.Name)

	var expenses []Expense
	require.NoError(t, json.Unmarshal([]byte(`[{"id":1,"amount":null,"expense_type":null},{"id":2,"amount":12.5,"expense_type":{"x":1}}]`), &expenses))
	assert.True(t, expenses[0].Amount.IsZero())
	assert.Equal(t, Text(""), expenses[0].ExpenseType)
	assert.Equal(t, Text(""), expenses[1].ExpenseType)
}
