package schedule

import (
	"context"
	"encoding/json"
	"fmt"

	"route-ops/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface declares the read-only snapshot queries the
// aggregator needs. The tables are owned by the CRUD editors; this service
// never writes them.
type RepositoryInterface interface {
	// ListLocations returns every location, active or not.
	ListLocations(ctx context.Context) ([]models.Location, error)
	// ListRoutes returns all saved routes with their stop lists.
	ListRoutes(ctx context.Context) ([]models.Route, error)
	// ListOpenMaintenanceReports returns reports still open or in progress.
	ListOpenMaintenanceReports(ctx context.Context) ([]models.MaintenanceReport, error)
	// ListOpenLeads returns leads that are neither won nor lost.
	ListOpenLeads(ctx context.Context) ([]models.Lead, error)
}

// Repository implements RepositoryInterface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a Repository instance.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

// ListLocations retrieves all location snapshots.
func (r *Repository) ListLocations(ctx context.Context) ([]models.Location, error) {
	query := `
        SELECT id, name, is_active, collection_frequency_days, restock_day_of_week, last_collection_date
        FROM locations
        ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository.ListLocations: %w", err)
	}
	defer rows.Close()

	var locations []models.Location
	for rows.Next() {
		var loc models.Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.IsActive, &loc.CollectionFrequencyDays, &loc.RestockDayOfWeek, &loc.LastCollectionDate); err != nil {
			return nil, fmt.Errorf("repository.ListLocations scan: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListLocations rows: %w", err)
	}
	return locations, nil
}

// ListRoutes retrieves all routes. Stops are stored as a JSONB array in
// stop order.
func (r *Repository) ListRoutes(ctx context.Context) ([]models.Route, error) {
	query := `
        SELECT id, name, stops, is_round_trip, schedule_frequency_days, schedule_day_of_week
        FROM routes
        ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository.ListRoutes: %w", err)
	}
	defer rows.Close()

	var routes []models.Route
	for rows.Next() {
		var rt models.Route
		var stopsJSON []byte
		if err := rows.Scan(&rt.ID, &rt.Name, &stopsJSON, &rt.IsRoundTrip, &rt.ScheduleFrequencyDays, &rt.ScheduleDayOfWeek); err != nil {
			return nil, fmt.Errorf("repository.ListRoutes scan: %w", err)
		}
		if len(stopsJSON) > 0 {
			if err := json.Unmarshal(stopsJSON, &rt.Stops); err != nil {
				return nil, fmt.Errorf("repository.ListRoutes stops for %s: %w", rt.ID, err)
			}
		}
		routes = append(routes, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListRoutes rows: %w", err)
	}
	return routes, nil
}

// ListOpenMaintenanceReports retrieves reports with status open or in_progress.
func (r *Repository) ListOpenMaintenanceReports(ctx context.Context) ([]models.MaintenanceReport, error) {
	query := `
        SELECT id, machine_id, location_id, status, description, reported_at
        FROM maintenance_reports
        WHERE status IN ('open', 'in_progress')
        ORDER BY reported_at`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository.ListOpenMaintenanceReports: %w", err)
	}
	defer rows.Close()

	var reports []models.MaintenanceReport
	for rows.Next() {
		var rep models.MaintenanceReport
		if err := rows.Scan(&rep.ID, &rep.MachineID, &rep.LocationID, &rep.Status, &rep.Description, &rep.ReportedAt); err != nil {
			return nil, fmt.Errorf("repository.ListOpenMaintenanceReports scan: %w", err)
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListOpenMaintenanceReports rows: %w", err)
	}
	return reports, nil
}

// ListOpenLeads retrieves leads that still need follow-up.
func (r *Repository) ListOpenLeads(ctx context.Context) ([]models.Lead, error) {
	query := `
        SELECT id, business_name, next_follow_up, status, priority
        FROM leads
        WHERE status NOT IN ('won', 'lost')
        ORDER BY next_follow_up NULLS LAST`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository.ListOpenLeads: %w", err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		var lead models.Lead
		if err := rows.Scan(&lead.ID, &lead.BusinessName, &lead.NextFollowUp, &lead.Status, &lead.Priority); err != nil {
			return nil, fmt.Errorf("repository.ListOpenLeads scan: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListOpenLeads rows: %w", err)
	}
	return leads, nil
}
