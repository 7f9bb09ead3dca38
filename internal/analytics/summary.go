package analytics

import "sgfcp/internal/core"

// Fleet is the fleet pill group.
type Fleet struct {
	Operational   int
	Total         int
	ActiveDrivers int
}

// Clients is the clients pill group.
type Clients struct {
	Active int
	Total  int
}

// FleetSummary counts over the full snapshot; the date filter never
// applies to trucks or drivers.
func FleetSummary(s core.Snapshot) Fleet {
	return Fleet{
		Operational:   OperationalTrucks(s.Trucks),
		Total:         len(s.Trucks),
		ActiveDrivers: ActiveDrivers(s.Drivers),
	}
}

// ClientSummary counts the distinct clients billed in the filtered trips
// against every known client.
func ClientSummary(f core.Filtered, s core.Snapshot) Clients {
	return Clients{
		Active: DistinctClients(f.Trips, s.Index),
		Total:  len(s.Clients),
	}
}
