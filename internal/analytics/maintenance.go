package analytics

import (
	"time"

	"sgfcp/internal/core"
)

// Maintenance defaults.
const (
	DefaultMaintenanceWindow = 30 * 24 * time.Hour
	MaintenanceLimit         = 8
)

// Check labels shown in the services table.
const (
	CheckService = "Service"
	CheckVTV     = "VTV"
	CheckPlate   = "Patente"
)

// MaintenanceItem is one due-soon check of a truck.
type MaintenanceItem struct {
	Truck core.Truck
	Check string
	Due   core.Date
}

// UpcomingMaintenance flags every service, VTV and registration date of
// every truck that falls on or before now+window, overdue ones included.
// Missing or unparseable dates are never flagged. Items keep truck order,
// then check order, and are capped at limit.
func UpcomingMaintenance(trucks []core.Truck, now time.Time, window time.Duration, limit int) []MaintenanceItem {
	threshold := now.Add(window)
	var out []MaintenanceItem
	for _, truck := range trucks {
		checks := [...]struct {
			label string
			raw   string
		}{
			{CheckService, truck.ServiceDueDate},
			{CheckVTV, truck.VTVDueDate},
			{CheckPlate, truck.PlateDueDate},
		}
		for _, c := range checks {
			due := core.ParseDate(c.raw)
			if due.IsZero() || due.After(threshold) {
				continue
			}
			out = append(out, MaintenanceItem{Truck: truck, Check: c.label, Due: due})
		}
	}
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
