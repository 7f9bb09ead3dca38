package core

import (
	"fmt"
	"time"
)

// Display fallbacks for dangling references.
const (
	NoClientName = "Sin cliente"
	NoDriverName = "Sin chofer"
)

// Collections groups the six resources fetched on every load.
type Collections struct {
	Trips    []Trip
	Expenses []Expense
	Advances []AdvancePayment
	Drivers  []Driver
	Trucks   []Truck
	Clients  []Client
}

// Snapshot is the last successfully loaded set of collections. It is
// replaced wholesale on every load and never mutated afterwards.
type Snapshot struct {
	Collections
	Index    *Index
	LoadedAt time.Time
}

// Filtered holds the date-bounded subsets of a snapshot.
type Filtered struct {
	Trips    []Trip
	Expenses []Expense
	Advances []AdvancePayment
}

// NewSnapshot freezes c and builds the id lookups used for name resolution.
func NewSnapshot(c Collections, loadedAt time.Time) Snapshot {
	return Snapshot{
		Collections: c,
		Index:       NewIndex(c.Clients, c.Drivers),
		LoadedAt:    loadedAt,
	}
}

// Filter returns the subsets of s inside r. Trips use start_date, expenses
// and advances use date. Items without a parseable date are dropped even
// when r is open.
func (s Snapshot) Filter(r DateRange) Filtered {
	var f Filtered
	for _, t := range s.Trips {
		if WithinRange(t.Start(), r) {
			f.Trips = append(f.Trips, t)
		}
	}
	for _, e := range s.Expenses {
		if WithinRange(e.When(), r) {
			f.Expenses = append(f.Expenses, e)
		}
	}
	for _, a := range s.Advances {
		if WithinRange(a.When(), r) {
			f.Advances = append(f.Advances, a)
		}
	}
	return f
}

// Index resolves client and driver references against the full
// collections.
type Index struct {
	clients map[int64]Client
	drivers map[int64]Driver
}

func NewIndex(clients []Client, drivers []Driver) *Index {
	ix := &Index{
		clients: make(map[int64]Client, len(clients)),
		drivers: make(map[int64]Driver, len(drivers)),
	}
	for _, c := range clients {
		ix.clients[c.ID] = c
	}
	for _, d := range drivers {
		ix.drivers[d.ID] = d
	}
	return ix
}

// ClientName prefers the embedded client, then the lookup, then the
// "Sin cliente" placeholder.
func (ix *Index) ClientName(t Trip) string {
	if t.Client != nil && t.Client.Name != "" {
		return t.Client.Name
	}
	if t.ClientID == nil || ix == nil {
		return NoClientName
	}
	if c, ok := ix.clients[*t.ClientID]; ok && c.Name != "" {
		return c.Name
	}
	return NoClientName
}

// DriverName resolves id to "name surname", "Chofer {id}" when the driver
// is unknown and "Sin chofer" when there is no reference at all.
func (ix *Index) DriverName(id *int64) string {
	if id == nil {
		return NoDriverName
	}
	if ix != nil {
		if d, ok := ix.drivers[*id]; ok {
			return d.FullName()
		}
	}
	return fmt.Sprintf("Chofer %d", *id)
}

// Client returns the client with id, if known.
func (ix *Index) Client(id int64) (Client, bool) {
	if ix == nil {
		return Client{}, false
	}
	c, ok := ix.clients[id]
	return c, ok
}
