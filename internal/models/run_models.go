package models

import "time"

// RunStatus is the lifecycle state of a route run. Completed and discarded
// are terminal.
type RunStatus string

const (
	RunInProgress RunStatus = "in_progress"
	RunCompleted  RunStatus = "completed"
	RunDiscarded  RunStatus = "discarded"
)

// TrackingMode selects how the final trip distance is derived.
type TrackingMode string

const (
	TrackingGPS      TrackingMode = "gps"
	TrackingOdometer TrackingMode = "odometer"
)

// MetersPerMile converts accumulated GPS distance to miles.
const MetersPerMile = 1609.344

// RunStop is one resolved stop on a run's itinerary: either a known
// location or a custom label, snapshotted when the run starts so a resumed
// run keeps the itinerary it began with.
type RunStop struct {
	LocationID        *string `json:"location_id,omitempty"`
	Label             string  `json:"label"`
	MilesFromPrevious float64 `json:"miles_from_previous"`
}

// MachineCollection is the per-machine take recorded at a stop.
type MachineCollection struct {
	MachineID     string `json:"machine_id" validate:"required"`
	CoinsInserted int    `json:"coins_inserted" validate:"min=0"`
	PrizesWon     int    `json:"prizes_won" validate:"min=0"`
}

// StopResult is the immutable record of one visited stop.
type StopResult struct {
	StopIndex      int                 `json:"stop_index"`
	LocationID     *string             `json:"location_id,omitempty"`
	LocationName   string              `json:"location_name"`
	Machines       []MachineCollection `json:"machines,omitempty"`
	Notes          string              `json:"notes,omitempty"`
	CommissionPaid bool                `json:"commission_paid"`
	CommissionID   *string             `json:"commission_id,omitempty"`
	CompletedAt    time.Time           `json:"completed_at"`
	GPSLat         *float64            `json:"gps_lat,omitempty"`
	GPSLng         *float64            `json:"gps_lng,omitempty"`
}

// RouteRun is the durable, resumable state of one field trip.
//
// Cursor and StopData are deliberately separate: StopData is append-only and
// its length is the completed-stop count, while Cursor is free navigation.
// During normal forward progress Cursor == len(StopData); a cursor jump
// breaks that equality on purpose.
type RouteRun struct {
	ID             string       `json:"id"`
	OperatorID     string       `json:"operator_id"`
	RouteID        string       `json:"route_id"`
	RouteName      string       `json:"route_name"`
	MileageEntryID string       `json:"mileage_entry_id"`
	VehicleID      string       `json:"vehicle_id"`
	TrackingMode   TrackingMode `json:"tracking_mode"`
	Status         RunStatus    `json:"status"`
	Cursor         int          `json:"cursor"`
	Stops          []RunStop    `json:"stops"`
	StopData       []StopResult `json:"stop_data"`
	StartedAt      time.Time    `json:"started_at"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
}

// CompletedCount is the number of stops with a recorded result.
func (r *RouteRun) CompletedCount() int { return len(r.StopData) }

// Finished reports whether the run is in a terminal state.
func (r *RouteRun) Finished() bool { return r.Status != RunInProgress }

// MileageEntry is the trip record linked to a run. Created when the run
// starts, closed out with the derived distance when it completes.
type MileageEntry struct {
	ID                string       `json:"id"`
	VehicleID         string       `json:"vehicle_id"`
	RouteID           string       `json:"route_id"`
	StartLocation     string       `json:"start_location"`
	EndLocation       string       `json:"end_location"`
	OdometerStart     *float64     `json:"odometer_start,omitempty"`
	OdometerEnd       *float64     `json:"odometer_end,omitempty"`
	Miles             float64      `json:"miles"`
	Status            RunStatus    `json:"status"`
	TrackingMode      TrackingMode `json:"tracking_mode"`
	GPSDistanceMeters *float64     `json:"gps_distance_meters,omitempty"`
	GPSEndLat         *float64     `json:"gps_end_lat,omitempty"`
	GPSEndLng         *float64     `json:"gps_end_lng,omitempty"`
	StartedAt         time.Time    `json:"started_at"`
	CompletedAt       *time.Time   `json:"completed_at,omitempty"`
}

// CollectionRecord is the fire-and-forget per-machine write emitted when a
// stop is completed. RunID+StopIndex+MachineID is the dedup key that makes
// retrying a stop safe.
type CollectionRecord struct {
	RunID          string    `json:"run_id"`
	StopIndex      int       `json:"stop_index"`
	LocationID     *string   `json:"location_id,omitempty"`
	MachineID      string    `json:"machine_id"`
	CollectionDate time.Time `json:"collection_date"`
	CoinsInserted  int       `json:"coins_inserted"`
	PrizesWon      int       `json:"prizes_won"`
}

// --- Request / response DTOs ---

// CustomStop lets the operator override a route's stop list for one run.
type CustomStop struct {
	LocationID         *string `json:"location_id,omitempty"`
	CustomLocationName *string `json:"custom_location_name,omitempty"`
	MilesFromPrevious  float64 `json:"miles_from_previous" validate:"min=0"`
}

type StartRunRequest struct {
	RouteID       string       `json:"route_id" validate:"required"`
	VehicleID     string       `json:"vehicle_id" validate:"required"`
	TrackingMode  TrackingMode `json:"tracking_mode" validate:"required,oneof=gps odometer"`
	OdometerStart *float64     `json:"odometer_start,omitempty"`
	CustomStops   []CustomStop `json:"custom_stops,omitempty" validate:"omitempty,min=1,dive"`
}

type CompleteStopRequest struct {
	Machines       []MachineCollection `json:"machines,omitempty" validate:"omitempty,dive"`
	Notes          string              `json:"notes,omitempty"`
	CommissionPaid bool                `json:"commission_paid"`
	CommissionID   *string             `json:"commission_id,omitempty"`
	GPSLat         *float64            `json:"gps_lat,omitempty"`
	GPSLng         *float64            `json:"gps_lng,omitempty"`
}

type CompleteRunRequest struct {
	OdometerEnd       *float64 `json:"odometer_end,omitempty"`
	GPSDistanceMeters *float64 `json:"gps_distance_meters,omitempty" validate:"omitempty,min=0"`
	GPSEndLat         *float64 `json:"gps_end_lat,omitempty"`
	GPSEndLng         *float64 `json:"gps_end_lng,omitempty"`
}

type GoToStopRequest struct {
	StopIndex int `json:"stop_index" validate:"min=0"`
}

// CompleteStopOutcome carries the updated run plus any warnings from the
// best-effort downstream writes (collections, commission). The run advance
// itself succeeded whenever this is returned.
type CompleteStopOutcome struct {
	Run      *RouteRun `json:"run"`
	Warnings []string  `json:"warnings,omitempty"`
}
