package models

// RouteStop is one leg of a route. A stop references either a known
// location or a free-text custom name, never both.
type RouteStop struct {
	LocationID         *string `json:"location_id,omitempty"`
	CustomLocationName *string `json:"custom_location_name,omitempty"`
	MilesFromPrevious  float64 `json:"miles_from_previous"`
}

// Route is a read-only snapshot of a saved route. A route that carries a
// recurrence makes every location referenced by its stops exempt from
// independent restock scheduling.
type Route struct {
	ID          string      `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	Stops       []RouteStop `json:"stops"`
	IsRoundTrip bool        `json:"is_round_trip" db:"is_round_trip"`
	// ScheduleFrequencyDays and ScheduleDayOfWeek form the optional recurrence.
	ScheduleFrequencyDays *int `json:"schedule_frequency_days,omitempty" db:"schedule_frequency_days"`
	ScheduleDayOfWeek     *int `json:"schedule_day_of_week,omitempty" db:"schedule_day_of_week"`
}

// HasSchedule reports whether the route carries a recurrence.
func (r *Route) HasSchedule() bool {
	return r.ScheduleFrequencyDays != nil
}
