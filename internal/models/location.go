package models

import "time"

// Location is a read-only snapshot of a vending location as the scheduling
// core sees it. Locations are owned and mutated by the location editor,
// which is outside this service's write path.
type Location struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	// IsActive gates scheduling; inactive locations never produce tasks.
	IsActive bool `json:"is_active" db:"is_active"`
	// CollectionFrequencyDays is the restock recurrence period. Locations
	// without one carry no restock schedule.
	CollectionFrequencyDays *int `json:"collection_frequency_days,omitempty" db:"collection_frequency_days"`
	// RestockDayOfWeek is an optional weekday anchor, 0 (Sunday) through 6.
	RestockDayOfWeek   *int       `json:"restock_day_of_week,omitempty" db:"restock_day_of_week"`
	LastCollectionDate *time.Time `json:"last_collection_date,omitempty" db:"last_collection_date"`
}
