package models

import "time"

// MaintenanceReport is a read-only snapshot of an open machine issue.
// Maintenance has no computed due date; an open report is always "now".
type MaintenanceReport struct {
	ID          string    `json:"id" db:"id"`
	MachineID   string    `json:"machine_id" db:"machine_id"`
	LocationID  *string   `json:"location_id,omitempty" db:"location_id"`
	Status      string    `json:"status" db:"status"` // open | in_progress | resolved
	Description string    `json:"description" db:"description"`
	ReportedAt  time.Time `json:"reported_at" db:"reported_at"`
}
