package runs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"route-ops/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface declares the persistence operations the route-run
// state machine depends on. The store's per-statement atomicity is the only
// locking the core relies on.
//
// Schema notes: route_runs carries a partial unique index
//
//	CREATE UNIQUE INDEX route_runs_one_active
//	    ON route_runs (operator_id) WHERE status = 'in_progress';
//
// so the check-then-create in Start cannot race into two active runs, and
// collections carries
//
//	UNIQUE (run_id, stop_index, machine_id)
//
// which makes retried stop completions idempotent.
type RepositoryInterface interface {
	// FindRouteByID returns the saved route a run is started from.
	FindRouteByID(ctx context.Context, routeID string) (*models.Route, error)
	// LocationNames resolves location ids to display names.
	LocationNames(ctx context.Context, ids []string) (map[string]string, error)

	// CreateMileageEntry inserts the trip record and fills its ID.
	CreateMileageEntry(ctx context.Context, entry *models.MileageEntry) error
	// FindMileageEntryByID returns a trip record, ErrNotFound when missing.
	FindMileageEntryByID(ctx context.Context, id string) (*models.MileageEntry, error)
	// CompleteMileageEntry closes the trip with the derived distance.
	CompleteMileageEntry(ctx context.Context, entry *models.MileageEntry) error
	// DeleteMileageEntry hard-deletes a trip record.
	DeleteMileageEntry(ctx context.Context, id string) error

	// CreateRun inserts the run record and fills its ID.
	CreateRun(ctx context.Context, run *models.RouteRun) error
	// FindActiveRun returns the operator's single in_progress run,
	// ErrNotFound when there is none.
	FindActiveRun(ctx context.Context, operatorID string) (*models.RouteRun, error)
	// UpdateRunProgress persists the cursor and the append-only stop data.
	UpdateRunProgress(ctx context.Context, runID string, cursor int, stopData []models.StopResult) error
	// UpdateRunCursor persists a cursor jump without touching stop data.
	UpdateRunCursor(ctx context.Context, runID string, cursor int) error
	// CompleteRun marks the run completed.
	CompleteRun(ctx context.Context, runID string, completedAt time.Time) error
	// DeleteRun hard-deletes a run record.
	DeleteRun(ctx context.Context, runID string) error

	// InsertCollection writes one per-machine collection record. Duplicate
	// (run, stop, machine) keys are silently ignored.
	InsertCollection(ctx context.Context, rec models.CollectionRecord) error
	// MarkCommissionPaid flags a commission summary as paid.
	MarkCommissionPaid(ctx context.Context, commissionID string, paidAt time.Time) error
}

// Repository implements RepositoryInterface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new run repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

// FindRouteByID fetches a route with its JSONB stop list.
func (r *Repository) FindRouteByID(ctx context.Context, routeID string) (*models.Route, error) {
	query := `
        SELECT id, name, stops, is_round_trip, schedule_frequency_days, schedule_day_of_week
        FROM routes
        WHERE id = $1`
	rt := &models.Route{}
	var stopsJSON []byte
	err := r.db.QueryRow(ctx, query, routeID).
		Scan(&rt.ID, &rt.Name, &stopsJSON, &rt.IsRoundTrip, &rt.ScheduleFrequencyDays, &rt.ScheduleDayOfWeek)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindRouteByID: %w", err)
	}
	if len(stopsJSON) > 0 {
		if err := json.Unmarshal(stopsJSON, &rt.Stops); err != nil {
			return nil, fmt.Errorf("repository.FindRouteByID stops: %w", err)
		}
	}
	return rt, nil
}

// LocationNames resolves the given ids to names. Unknown ids are absent
// from the result rather than an error.
func (r *Repository) LocationNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	rows, err := r.db.Query(ctx, `SELECT id, name FROM locations WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("repository.LocationNames: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("repository.LocationNames scan: %w", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.LocationNames rows: %w", err)
	}
	return names, nil
}

// CreateMileageEntry inserts a new trip record.
func (r *Repository) CreateMileageEntry(ctx context.Context, entry *models.MileageEntry) error {
	entry.ID = uuid.New().String()
	query := `
        INSERT INTO mileage_entries
            (id, vehicle_id, route_id, start_location, end_location, odometer_start, miles, status, tracking_mode, started_at)
        VALUES ($1, $2, $3, $4, $5, $6, 0, 'in_progress', $7, $8)`
	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.VehicleID, entry.RouteID, entry.StartLocation, entry.EndLocation,
		entry.OdometerStart, entry.TrackingMode, entry.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("repository.CreateMileageEntry: %w", err)
	}
	return nil
}

// FindMileageEntryByID retrieves a single trip record.
func (r *Repository) FindMileageEntryByID(ctx context.Context, id string) (*models.MileageEntry, error) {
	query := `
        SELECT id, vehicle_id, route_id, start_location, end_location,
               odometer_start, odometer_end, miles, status, tracking_mode,
               gps_distance_meters, gps_end_lat, gps_end_lng, started_at, completed_at
        FROM mileage_entries
        WHERE id = $1`
	entry := &models.MileageEntry{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&entry.ID, &entry.VehicleID, &entry.RouteID, &entry.StartLocation, &entry.EndLocation,
		&entry.OdometerStart, &entry.OdometerEnd, &entry.Miles, &entry.Status, &entry.TrackingMode,
		&entry.GPSDistanceMeters, &entry.GPSEndLat, &entry.GPSEndLng, &entry.StartedAt, &entry.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindMileageEntryByID: %w", err)
	}
	return entry, nil
}

// CompleteMileageEntry closes out a trip with its final distance and any
// end-of-run readings.
func (r *Repository) CompleteMileageEntry(ctx context.Context, entry *models.MileageEntry) error {
	query := `
        UPDATE mileage_entries
        SET status = 'completed',
            miles = $2,
            odometer_end = $3,
            gps_distance_meters = $4,
            gps_end_lat = $5,
            gps_end_lng = $6,
            completed_at = $7
        WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query,
		entry.ID, entry.Miles, entry.OdometerEnd,
		entry.GPSDistanceMeters, entry.GPSEndLat, entry.GPSEndLng, entry.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("repository.CompleteMileageEntry: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteMileageEntry removes a trip record. No soft delete, no undo.
func (r *Repository) DeleteMileageEntry(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM mileage_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository.DeleteMileageEntry: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CreateRun inserts a new run record. Stops and stop data are JSONB.
func (r *Repository) CreateRun(ctx context.Context, run *models.RouteRun) error {
	stopsJSON, err := json.Marshal(run.Stops)
	if err != nil {
		return fmt.Errorf("repository.CreateRun marshal stops: %w", err)
	}
	stopDataJSON, err := json.Marshal(run.StopData)
	if err != nil {
		return fmt.Errorf("repository.CreateRun marshal stop data: %w", err)
	}
	run.ID = uuid.New().String()
	query := `
        INSERT INTO route_runs
            (id, operator_id, route_id, route_name, mileage_entry_id, vehicle_id,
             tracking_mode, status, cursor, stops, stop_data, started_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, 'in_progress', $8, $9, $10, $11)`
	_, err = r.db.Exec(ctx, query,
		run.ID, run.OperatorID, run.RouteID, run.RouteName, run.MileageEntryID, run.VehicleID,
		run.TrackingMode, run.Cursor, stopsJSON, stopDataJSON, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("repository.CreateRun: %w", err)
	}
	return nil
}

// scanRun is a helper to scan a route_runs row.
func scanRun(row pgx.Row) (*models.RouteRun, error) {
	run := &models.RouteRun{}
	var stopsJSON, stopDataJSON []byte
	err := row.Scan(
		&run.ID, &run.OperatorID, &run.RouteID, &run.RouteName, &run.MileageEntryID,
		&run.VehicleID, &run.TrackingMode, &run.Status, &run.Cursor,
		&stopsJSON, &stopDataJSON, &run.StartedAt, &run.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan route run: %w", err)
	}
	if len(stopsJSON) > 0 {
		if err := json.Unmarshal(stopsJSON, &run.Stops); err != nil {
			return nil, fmt.Errorf("failed to decode run stops: %w", err)
		}
	}
	if len(stopDataJSON) > 0 {
		if err := json.Unmarshal(stopDataJSON, &run.StopData); err != nil {
			return nil, fmt.Errorf("failed to decode run stop data: %w", err)
		}
	}
	return run, nil
}

// FindActiveRun returns the operator's in_progress run. The partial unique
// index guarantees at most one row.
func (r *Repository) FindActiveRun(ctx context.Context, operatorID string) (*models.RouteRun, error) {
	query := `
        SELECT id, operator_id, route_id, route_name, mileage_entry_id,
               vehicle_id, tracking_mode, status, cursor, stops, stop_data,
               started_at, completed_at
        FROM route_runs
        WHERE operator_id = $1 AND status = 'in_progress'`
	run, err := scanRun(r.db.QueryRow(ctx, query, operatorID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindActiveRun: %w", err)
	}
	return run, nil
}

// UpdateRunProgress persists a completed stop: new cursor plus the grown
// stop data array.
func (r *Repository) UpdateRunProgress(ctx context.Context, runID string, cursor int, stopData []models.StopResult) error {
	stopDataJSON, err := json.Marshal(stopData)
	if err != nil {
		return fmt.Errorf("repository.UpdateRunProgress marshal: %w", err)
	}
	query := `
        UPDATE route_runs
        SET cursor = $2, stop_data = $3
        WHERE id = $1 AND status = 'in_progress'`
	cmd, err := r.db.Exec(ctx, query, runID, cursor, stopDataJSON)
	if err != nil {
		return fmt.Errorf("repository.UpdateRunProgress: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateRunCursor persists a free-navigation jump.
func (r *Repository) UpdateRunCursor(ctx context.Context, runID string, cursor int) error {
	query := `
        UPDATE route_runs
        SET cursor = $2
        WHERE id = $1 AND status = 'in_progress'`
	cmd, err := r.db.Exec(ctx, query, runID, cursor)
	if err != nil {
		return fmt.Errorf("repository.UpdateRunCursor: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CompleteRun marks the run record completed. Idempotent: a retry after a
// failed trip close-out re-stamps the same terminal state.
func (r *Repository) CompleteRun(ctx context.Context, runID string, completedAt time.Time) error {
	query := `
        UPDATE route_runs
        SET status = 'completed', completed_at = $2
        WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, runID, completedAt)
	if err != nil {
		return fmt.Errorf("repository.CompleteRun: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteRun removes a run record. Used only by discard.
func (r *Repository) DeleteRun(ctx context.Context, runID string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM route_runs WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("repository.DeleteRun: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// InsertCollection writes one collection record. ON CONFLICT DO NOTHING on
// the (run_id, stop_index, machine_id) key makes retries of the same stop
// no-ops.
func (r *Repository) InsertCollection(ctx context.Context, rec models.CollectionRecord) error {
	query := `
        INSERT INTO collections
            (run_id, stop_index, location_id, machine_id, collection_date, coins_inserted, prizes_won)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (run_id, stop_index, machine_id) DO NOTHING`
	_, err := r.db.Exec(ctx, query,
		rec.RunID, rec.StopIndex, rec.LocationID, rec.MachineID,
		rec.CollectionDate, rec.CoinsInserted, rec.PrizesWon,
	)
	if err != nil {
		return fmt.Errorf("repository.InsertCollection: %w", err)
	}
	return nil
}

// MarkCommissionPaid stamps a commission summary as paid.
func (r *Repository) MarkCommissionPaid(ctx context.Context, commissionID string, paidAt time.Time) error {
	query := `
        UPDATE commission_summaries
        SET commission_paid = TRUE, commission_paid_at = $2
        WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, commissionID, paidAt)
	if err != nil {
		return fmt.Errorf("repository.MarkCommissionPaid: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
