package models

import "errors"

var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned when a create would violate a uniqueness rule,
	// e.g. signing up with an email that is already registered.
	ErrConflict = errors.New("resource already exists")

	// ErrInvalidCredentials is returned on a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken is returned when an auth or reset token is unknown or expired.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrNoActiveRun is returned when a run transition is attempted while no
	// route run is in progress. Distinct from persistence failures so the UI
	// can tell "nothing to do" from "something broke".
	ErrNoActiveRun = errors.New("no active route run")

	// ErrRunAlreadyActive is returned when an operator tries to start a second
	// run while one is still in progress.
	ErrRunAlreadyActive = errors.New("a route run is already in progress")

	// ErrRunFinished is returned when a transition is attempted against a run
	// that has already been completed or discarded.
	ErrRunFinished = errors.New("route run is already finished")

	// ErrInvalidStopIndex is returned when a cursor jump targets a stop that
	// does not exist on the run's itinerary.
	ErrInvalidStopIndex = errors.New("stop index out of range")

	// ErrEmptyItinerary is returned when a run is started from a route (or
	// custom stop list) with no stops.
	ErrEmptyItinerary = errors.New("run has no stops")

	// ErrInvalidRecurrence is returned for malformed recurrence parameters
	// (non-positive frequency or a weekday outside 0..6).
	ErrInvalidRecurrence = errors.New("invalid recurrence parameters")

	// ErrMissingOdometerEnd is returned when an odometer-tracked run is
	// completed without a final odometer reading.
	ErrMissingOdometerEnd = errors.New("odometer end reading is required")

	// ErrMissingGPSDistance is returned when a GPS-tracked run is completed
	// without an accumulated distance.
	ErrMissingGPSDistance = errors.New("gps distance is required")
)

// ErrorResponse is the JSON body returned for any failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}
