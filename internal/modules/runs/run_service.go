// Package runs owns the lifecycle of one field trip: start, per-stop data
// capture, completion with a derived mileage figure, or discard. Progress
// is persisted on every transition so an interrupted run can be resumed.
package runs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"route-ops/internal/models"
)

// ServiceInterface defines the route-run state machine operations. Every
// operation is scoped to the calling operator.
type ServiceInterface interface {
	Start(ctx context.Context, operatorID string, req models.StartRunRequest) (*models.RouteRun, error)
	Active(ctx context.Context, operatorID string) (*models.RouteRun, error)
	CompleteStop(ctx context.Context, operatorID string, req models.CompleteStopRequest) (*models.CompleteStopOutcome, error)
	Complete(ctx context.Context, operatorID string, req models.CompleteRunRequest) (*models.RouteRun, error)
	Discard(ctx context.Context, operatorID string) error
	GoToStop(ctx context.Context, operatorID string, index int) (*models.RouteRun, error)
}

// Service implements the state machine. Each operator has at most one run
// in progress: the per-operator in-memory slot plus the store's partial
// unique index are the whole concurrency story. In-memory state is only
// ever updated after the corresponding write succeeds, so a failed
// transition can be retried safely.
type Service struct {
	repo RepositoryInterface

	mu     sync.Mutex
	active map[string]*models.RouteRun // operator id → in-progress run

	// now is injected for tests; defaults to time.Now.
	now func() time.Time
}

// NewService creates a new run service.
func NewService(repo RepositoryInterface) *Service {
	return &Service{
		repo:   repo,
		active: make(map[string]*models.RouteRun),
		now:    time.Now,
	}
}

// resolveStops turns the effective stop list (custom override or the
// route's own stops) into labeled run stops.
func (s *Service) resolveStops(ctx context.Context, route *models.Route, custom []models.CustomStop) ([]models.RunStop, error) {
	var raw []models.RouteStop
	if len(custom) > 0 {
		raw = make([]models.RouteStop, len(custom))
		for i, cs := range custom {
			raw[i] = models.RouteStop{
				LocationID:         cs.LocationID,
				CustomLocationName: cs.CustomLocationName,
				MilesFromPrevious:  cs.MilesFromPrevious,
			}
		}
	} else {
		raw = route.Stops
	}
	if len(raw) == 0 {
		return nil, models.ErrEmptyItinerary
	}

	var ids []string
	for _, stop := range raw {
		if stop.LocationID != nil {
			ids = append(ids, *stop.LocationID)
		}
	}
	names, err := s.repo.LocationNames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("service.resolveStops: %w", err)
	}

	stops := make([]models.RunStop, len(raw))
	for i, stop := range raw {
		label := "Unnamed stop"
		switch {
		case stop.LocationID != nil:
			if name, ok := names[*stop.LocationID]; ok {
				label = name
			} else {
				label = *stop.LocationID
			}
		case stop.CustomLocationName != nil:
			label = *stop.CustomLocationName
		}
		stops[i] = models.RunStop{
			LocationID:        stop.LocationID,
			Label:             label,
			MilesFromPrevious: stop.MilesFromPrevious,
		}
	}
	return stops, nil
}

// Start begins a new run: creates the trip record, then the linked run
// record, and only then exposes the run in memory. Fails with
// ErrRunAlreadyActive while another run is in progress.
func (s *Service) Start(ctx context.Context, operatorID string, req models.StartRunRequest) (*models.RouteRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active[operatorID] != nil {
		return nil, models.ErrRunAlreadyActive
	}
	// The store is the source of truth across restarts; the unique index on
	// (operator_id) WHERE status='in_progress' backs this check.
	if existing, err := s.repo.FindActiveRun(ctx, operatorID); err == nil {
		s.active[operatorID] = existing
		return nil, models.ErrRunAlreadyActive
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("service.Start: %w", err)
	}

	route, err := s.repo.FindRouteByID(ctx, req.RouteID)
	if err != nil {
		return nil, fmt.Errorf("service.Start: %w", err)
	}

	stops, err := s.resolveStops(ctx, route, req.CustomStops)
	if err != nil {
		return nil, err
	}

	startLabel := stops[0].Label
	endLabel := stops[len(stops)-1].Label
	if route.IsRoundTrip {
		endLabel = startLabel
	}

	startedAt := s.now()
	entry := &models.MileageEntry{
		VehicleID:     req.VehicleID,
		RouteID:       route.ID,
		StartLocation: startLabel,
		EndLocation:   endLabel,
		OdometerStart: req.OdometerStart,
		Miles:         0,
		Status:        models.RunInProgress,
		TrackingMode:  req.TrackingMode,
		StartedAt:     startedAt,
	}
	if err := s.repo.CreateMileageEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("service.Start: %w", err)
	}

	run := &models.RouteRun{
		OperatorID:     operatorID,
		RouteID:        route.ID,
		RouteName:      route.Name,
		MileageEntryID: entry.ID,
		VehicleID:      req.VehicleID,
		TrackingMode:   req.TrackingMode,
		Status:         models.RunInProgress,
		Cursor:         0,
		Stops:          stops,
		StopData:       []models.StopResult{},
		StartedAt:      startedAt,
	}
	if err := s.repo.CreateRun(ctx, run); err != nil {
		// Orphaned trip record; reclaim it so a retry starts clean.
		if delErr := s.repo.DeleteMileageEntry(ctx, entry.ID); delErr != nil {
			log.Printf("WARN: failed to clean up mileage entry %s after run create failure: %v", entry.ID, delErr)
		}
		return nil, fmt.Errorf("service.Start: %w", err)
	}

	s.active[operatorID] = run
	return run, nil
}

// Active returns the operator's current run, reloading it from the store
// when the in-memory slot is empty so an interrupted run can be resumed.
func (s *Service) Active(ctx context.Context, operatorID string) (*models.RouteRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requireActive(ctx, operatorID)
}

// requireActive returns the operator's active run, falling back to the
// store when the slot is empty, or the precondition error. Caller must
// hold s.mu.
func (s *Service) requireActive(ctx context.Context, operatorID string) (*models.RouteRun, error) {
	run := s.active[operatorID]
	if run == nil {
		loaded, err := s.repo.FindActiveRun(ctx, operatorID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, models.ErrNoActiveRun
			}
			return nil, fmt.Errorf("service.requireActive: %w", err)
		}
		s.active[operatorID] = loaded
		run = loaded
	}
	if run.Finished() {
		return nil, models.ErrRunFinished
	}
	return run, nil
}

// CompleteStop records the result for the stop under the cursor, advances
// the run, then fires the best-effort downstream writes (collection records
// and commission payment). The downstream writes are independent of the run
// update: failures are reported as warnings, never rolled back, and a retry
// of the same stop cannot duplicate them thanks to the
// (run, stop, machine) dedup key.
func (s *Service) CompleteStop(ctx context.Context, operatorID string, req models.CompleteStopRequest) (*models.CompleteStopOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.requireActive(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	if run.Cursor < 0 || run.Cursor >= len(run.Stops) {
		return nil, models.ErrInvalidStopIndex
	}

	stop := run.Stops[run.Cursor]
	result := models.StopResult{
		StopIndex:      run.Cursor,
		LocationID:     stop.LocationID,
		LocationName:   stop.Label,
		Machines:       req.Machines,
		Notes:          req.Notes,
		CommissionPaid: req.CommissionPaid,
		CommissionID:   req.CommissionID,
		CompletedAt:    s.now(),
		GPSLat:         req.GPSLat,
		GPSLng:         req.GPSLng,
	}

	// Build the advanced state on a copy; commit to memory only after the
	// run-record write succeeds.
	newStopData := make([]models.StopResult, len(run.StopData), len(run.StopData)+1)
	copy(newStopData, run.StopData)
	newStopData = append(newStopData, result)
	newCursor := run.Cursor + 1

	if err := s.repo.UpdateRunProgress(ctx, run.ID, newCursor, newStopData); err != nil {
		return nil, fmt.Errorf("service.CompleteStop: %w", err)
	}
	run.StopData = newStopData
	run.Cursor = newCursor

	// Downstream side effects, issued after the run update with no defined
	// ordering between them and no rollback of the run advance.
	var warnings []string
	for _, m := range result.Machines {
		if m.CoinsInserted == 0 && m.PrizesWon == 0 {
			continue
		}
		rec := models.CollectionRecord{
			RunID:          run.ID,
			StopIndex:      result.StopIndex,
			LocationID:     result.LocationID,
			MachineID:      m.MachineID,
			CollectionDate: result.CompletedAt,
			CoinsInserted:  m.CoinsInserted,
			PrizesWon:      m.PrizesWon,
		}
		if err := s.repo.InsertCollection(ctx, rec); err != nil {
			log.Printf("ERROR: collection write failed for run %s stop %d machine %s: %v", run.ID, result.StopIndex, m.MachineID, err)
			warnings = append(warnings, fmt.Sprintf("collection record for machine %s was not saved", m.MachineID))
		}
	}
	if result.CommissionPaid && result.CommissionID != nil {
		if err := s.repo.MarkCommissionPaid(ctx, *result.CommissionID, result.CompletedAt); err != nil {
			log.Printf("ERROR: commission update failed for run %s commission %s: %v", run.ID, *result.CommissionID, err)
			warnings = append(warnings, "commission was not marked paid")
		}
	}

	return &models.CompleteStopOutcome{Run: run, Warnings: warnings}, nil
}

// Complete closes out the run: derives the final distance, completes the
// run record, then the trip record, and clears the in-memory slot.
func (s *Service) Complete(ctx context.Context, operatorID string, req models.CompleteRunRequest) (*models.RouteRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.requireActive(ctx, operatorID)
	if err != nil {
		return nil, err
	}

	entry, err := s.repo.FindMileageEntryByID(ctx, run.MileageEntryID)
	if err != nil {
		return nil, fmt.Errorf("service.Complete: %w", err)
	}

	var miles float64
	switch run.TrackingMode {
	case models.TrackingOdometer:
		if req.OdometerEnd == nil || entry.OdometerStart == nil {
			return nil, models.ErrMissingOdometerEnd
		}
		miles = *req.OdometerEnd - *entry.OdometerStart
		if miles < 0 {
			miles = 0
		}
		entry.OdometerEnd = req.OdometerEnd
	case models.TrackingGPS:
		if req.GPSDistanceMeters == nil {
			return nil, models.ErrMissingGPSDistance
		}
		miles = *req.GPSDistanceMeters / models.MetersPerMile
		entry.GPSDistanceMeters = req.GPSDistanceMeters
	default:
		return nil, fmt.Errorf("service.Complete: unknown tracking mode %q", run.TrackingMode)
	}

	completedAt := s.now()
	if err := s.repo.CompleteRun(ctx, run.ID, completedAt); err != nil {
		return nil, fmt.Errorf("service.Complete: %w", err)
	}

	entry.Miles = miles
	entry.Status = models.RunCompleted
	entry.CompletedAt = &completedAt
	entry.GPSEndLat = req.GPSEndLat
	entry.GPSEndLng = req.GPSEndLng
	if err := s.repo.CompleteMileageEntry(ctx, entry); err != nil {
		// The run row is already terminal; leave the slot intact so the
		// operator can retry the trip close-out.
		return nil, fmt.Errorf("service.Complete: %w", err)
	}

	run.Status = models.RunCompleted
	run.CompletedAt = &completedAt
	delete(s.active, operatorID)
	return run, nil
}

// Discard abandons the run: hard-deletes the run record and its linked
// trip record, then clears the slot. Destructive and unconditional;
// confirmation is a UI concern.
func (s *Service) Discard(ctx context.Context, operatorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.requireActive(ctx, operatorID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteRun(ctx, run.ID); err != nil {
		return fmt.Errorf("service.Discard: %w", err)
	}
	if err := s.repo.DeleteMileageEntry(ctx, run.MileageEntryID); err != nil {
		return fmt.Errorf("service.Discard: %w", err)
	}

	delete(s.active, operatorID)
	return nil
}

// GoToStop moves only the navigation cursor. The append-only stop data is
// untouched, so after a jump Cursor and CompletedCount may legitimately
// disagree.
func (s *Service) GoToStop(ctx context.Context, operatorID string, index int) (*models.RouteRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.requireActive(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(run.Stops) {
		return nil, models.ErrInvalidStopIndex
	}

	if err := s.repo.UpdateRunCursor(ctx, run.ID, index); err != nil {
		return nil, fmt.Errorf("service.GoToStop: %w", err)
	}
	run.Cursor = index
	return run, nil
}
