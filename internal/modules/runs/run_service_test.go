package runs

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"route-ops/internal/models"
)

var fixedNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func strPtr(s string) *string   { return &s }
func f64Ptr(v float64) *float64 { return &v }

// fakeRunRepo is an in-memory stand-in for the PostgreSQL repository. It
// stores copies, so the service's in-memory run and the "persisted" run are
// distinct like they are in production.
type fakeRunRepo struct {
	routes      map[string]*models.Route
	names       map[string]string
	entries     map[string]*models.MileageEntry
	runs        map[string]*models.RouteRun
	collections map[string]models.CollectionRecord
	commissions map[string]time.Time

	failCreateRun        bool
	failUpdateProgress   bool
	failInsertCollection bool
	nextID               int
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{
		routes:      make(map[string]*models.Route),
		names:       make(map[string]string),
		entries:     make(map[string]*models.MileageEntry),
		runs:        make(map[string]*models.RouteRun),
		collections: make(map[string]models.CollectionRecord),
		commissions: make(map[string]time.Time),
	}
}

func (f *fakeRunRepo) FindRouteByID(_ context.Context, routeID string) (*models.Route, error) {
	route, ok := f.routes[routeID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return route, nil
}

func (f *fakeRunRepo) LocationNames(_ context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, id := range ids {
		if name, ok := f.names[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

func (f *fakeRunRepo) CreateMileageEntry(_ context.Context, entry *models.MileageEntry) error {
	f.nextID++
	entry.ID = fmt.Sprintf("entry-%d", f.nextID)
	cp := *entry
	f.entries[entry.ID] = &cp
	return nil
}

func (f *fakeRunRepo) FindMileageEntryByID(_ context.Context, id string) (*models.MileageEntry, error) {
	entry, ok := f.entries[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *entry
	return &cp, nil
}

func (f *fakeRunRepo) CompleteMileageEntry(_ context.Context, entry *models.MileageEntry) error {
	if _, ok := f.entries[entry.ID]; !ok {
		return models.ErrNotFound
	}
	cp := *entry
	f.entries[entry.ID] = &cp
	return nil
}

func (f *fakeRunRepo) DeleteMileageEntry(_ context.Context, id string) error {
	if _, ok := f.entries[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.entries, id)
	return nil
}

func (f *fakeRunRepo) CreateRun(_ context.Context, run *models.RouteRun) error {
	if f.failCreateRun {
		return errors.New("insert failed")
	}
	f.nextID++
	run.ID = fmt.Sprintf("run-%d", f.nextID)
	cp := *run
	cp.StopData = append([]models.StopResult(nil), run.StopData...)
	f.runs[run.ID] = &cp
	return nil
}

func (f *fakeRunRepo) FindActiveRun(_ context.Context, operatorID string) (*models.RouteRun, error) {
	for _, run := range f.runs {
		if run.OperatorID == operatorID && run.Status == models.RunInProgress {
			cp := *run
			cp.StopData = append([]models.StopResult(nil), run.StopData...)
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeRunRepo) UpdateRunProgress(_ context.Context, runID string, cursor int, stopData []models.StopResult) error {
	if f.failUpdateProgress {
		return errors.New("update failed")
	}
	run, ok := f.runs[runID]
	if !ok {
		return models.ErrNotFound
	}
	run.Cursor = cursor
	run.StopData = append([]models.StopResult(nil), stopData...)
	return nil
}

func (f *fakeRunRepo) UpdateRunCursor(_ context.Context, runID string, cursor int) error {
	run, ok := f.runs[runID]
	if !ok {
		return models.ErrNotFound
	}
	run.Cursor = cursor
	return nil
}

func (f *fakeRunRepo) CompleteRun(_ context.Context, runID string, completedAt time.Time) error {
	run, ok := f.runs[runID]
	if !ok {
		return models.ErrNotFound
	}
	run.Status = models.RunCompleted
	run.CompletedAt = &completedAt
	return nil
}

func (f *fakeRunRepo) DeleteRun(_ context.Context, runID string) error {
	if _, ok := f.runs[runID]; !ok {
		return models.ErrNotFound
	}
	delete(f.runs, runID)
	return nil
}

func (f *fakeRunRepo) InsertCollection(_ context.Context, rec models.CollectionRecord) error {
	if f.failInsertCollection {
		return errors.New("insert failed")
	}
	key := fmt.Sprintf("%s|%d|%s", rec.RunID, rec.StopIndex, rec.MachineID)
	if _, exists := f.collections[key]; exists {
		// Mirrors ON CONFLICT DO NOTHING.
		return nil
	}
	f.collections[key] = rec
	return nil
}

func (f *fakeRunRepo) MarkCommissionPaid(_ context.Context, commissionID string, paidAt time.Time) error {
	f.commissions[commissionID] = paidAt
	return nil
}

func newTestService() (*Service, *fakeRunRepo) {
	repo := newFakeRunRepo()
	repo.routes["rt-1"] = &models.Route{
		ID:   "rt-1",
		Name: "North Loop",
		Stops: []models.RouteStop{
			{LocationID: strPtr("loc-a"), MilesFromPrevious: 0},
			{CustomLocationName: strPtr("Warehouse"), MilesFromPrevious: 12},
		},
	}
	repo.names["loc-a"] = "Corner Mart"

	svc := NewService(repo)
	svc.now = func() time.Time { return fixedNow }
	return svc, repo
}

func startOdometerRun(t *testing.T, svc *Service) *models.RouteRun {
	t.Helper()
	run, err := svc.Start(context.Background(), "op-1", models.StartRunRequest{
		RouteID:       "rt-1",
		VehicleID:     "veh-1",
		TrackingMode:  models.TrackingOdometer,
		OdometerStart: f64Ptr(1000),
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return run
}

func TestStartRun(t *testing.T) {
	svc, repo := newTestService()
	run := startOdometerRun(t, svc)

	if run.Cursor != 0 || len(run.StopData) != 0 {
		t.Fatalf("fresh run cursor %d, stop data %d; want 0/0", run.Cursor, len(run.StopData))
	}
	if len(run.Stops) != 2 || run.Stops[0].Label != "Corner Mart" || run.Stops[1].Label != "Warehouse" {
		t.Fatalf("stops not resolved: %+v", run.Stops)
	}
	entry, ok := repo.entries[run.MileageEntryID]
	if !ok {
		t.Fatalf("trip record not created")
	}
	if entry.OdometerStart == nil || *entry.OdometerStart != 1000 {
		t.Errorf("trip odometer start = %v, want 1000", entry.OdometerStart)
	}
	if entry.StartLocation != "Corner Mart" || entry.EndLocation != "Warehouse" {
		t.Errorf("trip endpoints %q → %q", entry.StartLocation, entry.EndLocation)
	}
	if run.Status != models.RunInProgress {
		t.Errorf("status = %q, want in_progress", run.Status)
	}
}

func TestStartRunRoundTripEndsAtStart(t *testing.T) {
	svc, repo := newTestService()
	repo.routes["rt-1"].IsRoundTrip = true

	run := startOdometerRun(t, svc)
	entry := repo.entries[run.MileageEntryID]
	if entry.EndLocation != "Corner Mart" {
		t.Fatalf("round trip end = %q, want start label", entry.EndLocation)
	}
}

func TestStartRunOnlyOneActive(t *testing.T) {
	svc, repo := newTestService()
	startOdometerRun(t, svc)

	_, err := svc.Start(context.Background(), "op-1", models.StartRunRequest{
		RouteID: "rt-1", VehicleID: "veh-1", TrackingMode: models.TrackingOdometer, OdometerStart: f64Ptr(1000),
	})
	if !errors.Is(err, models.ErrRunAlreadyActive) {
		t.Fatalf("second Start: err = %v, want ErrRunAlreadyActive", err)
	}

	// A fresh service instance (process restart) hits the store-backed guard.
	svc2 := NewService(repo)
	svc2.now = func() time.Time { return fixedNow }
	_, err = svc2.Start(context.Background(), "op-1", models.StartRunRequest{
		RouteID: "rt-1", VehicleID: "veh-1", TrackingMode: models.TrackingOdometer, OdometerStart: f64Ptr(1000),
	})
	if !errors.Is(err, models.ErrRunAlreadyActive) {
		t.Fatalf("restarted Start: err = %v, want ErrRunAlreadyActive", err)
	}
}

func TestStartRunEmptyItinerary(t *testing.T) {
	svc, repo := newTestService()
	repo.routes["rt-1"].Stops = nil

	_, err := svc.Start(context.Background(), "op-1", models.StartRunRequest{
		RouteID: "rt-1", VehicleID: "veh-1", TrackingMode: models.TrackingGPS,
	})
	if !errors.Is(err, models.ErrEmptyItinerary) {
		t.Fatalf("err = %v, want ErrEmptyItinerary", err)
	}
	if len(repo.entries) != 0 {
		t.Fatalf("trip record created for rejected start")
	}
}

func TestStartRunCreateFailureCleansUpTrip(t *testing.T) {
	svc, repo := newTestService()
	repo.failCreateRun = true

	_, err := svc.Start(context.Background(), "op-1", models.StartRunRequest{
		RouteID: "rt-1", VehicleID: "veh-1", TrackingMode: models.TrackingOdometer, OdometerStart: f64Ptr(1000),
	})
	if err == nil {
		t.Fatalf("Start succeeded with failing run insert")
	}
	if len(repo.entries) != 0 {
		t.Fatalf("orphaned trip record left behind")
	}

	// The slot stays empty, so a retry works once the store recovers.
	repo.failCreateRun = false
	startOdometerRun(t, svc)
}

func TestCompleteStopAdvancesAndRecordsCollections(t *testing.T) {
	svc, repo := newTestService()
	run := startOdometerRun(t, svc)

	out, err := svc.CompleteStop(context.Background(), "op-1", models.CompleteStopRequest{
		Machines: []models.MachineCollection{
			{MachineID: "m-1", CoinsInserted: 48, PrizesWon: 5},
			{MachineID: "m-2", CoinsInserted: 0, PrizesWon: 0},
		},
		CommissionPaid: true,
		CommissionID:   strPtr("com-1"),
	})
	if err != nil {
		t.Fatalf("CompleteStop: %v", err)
	}
	if len(out.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", out.Warnings)
	}
	if out.Run.Cursor != 1 || out.Run.CompletedCount() != 1 {
		t.Fatalf("cursor %d, completed %d; want 1/1", out.Run.Cursor, out.Run.CompletedCount())
	}
	result := out.Run.StopData[0]
	if result.StopIndex != 0 || result.LocationName != "Corner Mart" {
		t.Errorf("stop result = %+v", result)
	}
	// Only the machine with actual figures gets a collection record.
	if len(repo.collections) != 1 {
		t.Fatalf("got %d collection records, want 1", len(repo.collections))
	}
	rec := repo.collections[fmt.Sprintf("%s|0|m-1", run.ID)]
	if rec.CoinsInserted != 48 || rec.PrizesWon != 5 {
		t.Errorf("collection record = %+v", rec)
	}
	if _, ok := repo.commissions["com-1"]; !ok {
		t.Errorf("commission not marked paid")
	}

	// Forward progress keeps cursor and completed count in lockstep.
	out, err = svc.CompleteStop(context.Background(), "op-1", models.CompleteStopRequest{})
	if err != nil {
		t.Fatalf("CompleteStop: %v", err)
	}
	if out.Run.Cursor != 2 || out.Run.CompletedCount() != 2 {
		t.Fatalf("cursor %d, completed %d; want 2/2", out.Run.Cursor, out.Run.CompletedCount())
	}

	// Past the last stop the cursor is out of range.
	if _, err := svc.CompleteStop(context.Background(), "op-1", models.CompleteStopRequest{}); !errors.Is(err, models.ErrInvalidStopIndex) {
		t.Fatalf("err = %v, want ErrInvalidStopIndex", err)
	}
}

func TestCompleteStopPersistFailureLeavesMemoryUntouched(t *testing.T) {
	svc, repo := newTestService()
	startOdometerRun(t, svc)
	repo.failUpdateProgress = true

	_, err := svc.CompleteStop(context.Background(), "op-1", models.CompleteStopRequest{Notes: "dropped"})
	if err == nil {
		t.Fatalf("CompleteStop succeeded with failing progress write")
	}
	run, err := svc.Active(context.Background(), "op-1")
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if run.Cursor != 0 || run.CompletedCount() != 0 {
		t.Fatalf("failed transition mutated memory: cursor %d, completed %d", run.Cursor, run.CompletedCount())
	}

	// Retrying the same stop after recovery succeeds.
	repo.failUpdateProgress = false
	out, err := svc.CompleteStop(context.Background(), "op-1", models.CompleteStopRequest{Notes: "retried"})
	if err != nil {
		t.Fatalf("retry CompleteStop: %v", err)
	}
	if out.Run.Cursor != 1 || out.Run.StopData[0].Notes != "retried" {
		t.Fatalf("retry result = %+v", out.Run)
	}
}

func TestCompleteStopCollectionFailureWarnsButAdvances(t *testing.T) {
	svc, repo := newTestService()
	startOdometerRun(t, svc)
	repo.failInsertCollection = true

	out, err := svc.CompleteStop(context.Background(), "op-1", models.CompleteStopRequest{
		Machines: []models.MachineCollection{{MachineID: "m-1", CoinsInserted: 10}},
	})
	if err != nil {
		t.Fatalf("CompleteStop: %v", err)
	}
	if out.Run.Cursor != 1 {
		t.Fatalf("run did not advance past downstream failure")
	}
	if len(out.Warnings) != 1 {
		t.Fatalf("warnings = %v, want one entry", out.Warnings)
	}
}

func TestCompleteStopRedoDoesNotDuplicateCollections(t *testing.T) {
	svc, repo := newTestService()
	startOdometerRun(t, svc)

	req := models.CompleteStopRequest{
		Machines: []models.MachineCollection{{MachineID: "m-1", CoinsInserted: 20}},
	}
	if _, err := svc.CompleteStop(context.Background(), "op-1", req); err != nil {
		t.Fatalf("CompleteStop: %v", err)
	}
	// Jump back and redo the stop: stop data is append-only, but the
	// (run, stop, machine) key keeps the collection write idempotent.
	if _, err := svc.GoToStop(context.Background(), "op-1", 0); err != nil {
		t.Fatalf("GoToStop: %v", err)
	}
	out, err := svc.CompleteStop(context.Background(), "op-1", req)
	if err != nil {
		t.Fatalf("redo CompleteStop: %v", err)
	}
	if out.Run.CompletedCount() != 2 {
		t.Fatalf("completed count = %d, want 2 (append-only)", out.Run.CompletedCount())
	}
	if len(repo.collections) != 1 {
		t.Fatalf("got %d collection records, want 1", len(repo.collections))
	}
}

func TestGoToStop(t *testing.T) {
	svc, _ := newTestService()
	startOdometerRun(t, svc)

	run, err := svc.GoToStop(context.Background(), "op-1", 1)
	if err != nil {
		t.Fatalf("GoToStop: %v", err)
	}
	if run.Cursor != 1 || run.CompletedCount() != 0 {
		t.Fatalf("cursor jump touched stop data: cursor %d, completed %d", run.Cursor, run.CompletedCount())
	}
	if _, err := svc.GoToStop(context.Background(), "op-1", 5); !errors.Is(err, models.ErrInvalidStopIndex) {
		t.Fatalf("err = %v, want ErrInvalidStopIndex", err)
	}
	if _, err := svc.GoToStop(context.Background(), "op-1", -1); !errors.Is(err, models.ErrInvalidStopIndex) {
		t.Fatalf("err = %v, want ErrInvalidStopIndex", err)
	}
}

func TestCompleteRunOdometer(t *testing.T) {
	svc, repo := newTestService()
	run := startOdometerRun(t, svc)

	for i := 0; i < 2; i++ {
		if _, err := svc.CompleteStop(context.Background(), "op-1", models.CompleteStopRequest{}); err != nil {
			t.Fatalf("CompleteStop %d: %v", i, err)
		}
	}

	finished, err := svc.Complete(context.Background(), "op-1", models.CompleteRunRequest{OdometerEnd: f64Ptr(1042)})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if finished.Status != models.RunCompleted || finished.CompletedAt == nil {
		t.Fatalf("finished run = %+v", finished)
	}
	entry := repo.entries[run.MileageEntryID]
	if entry.Miles != 42 {
		t.Errorf("trip miles = %v, want 42", entry.Miles)
	}
	if entry.Status != models.RunCompleted || entry.CompletedAt == nil {
		t.Errorf("trip record not closed: %+v", entry)
	}

	// The slot is clear and the store holds no in_progress run.
	if _, err := svc.Active(context.Background(), "op-1"); !errors.Is(err, models.ErrNoActiveRun) {
		t.Fatalf("Active after complete: err = %v, want ErrNoActiveRun", err)
	}
}

func TestCompleteRunOdometerValidation(t *testing.T) {
	svc, _ := newTestService()
	startOdometerRun(t, svc)

	if _, err := svc.Complete(context.Background(), "op-1", models.CompleteRunRequest{}); !errors.Is(err, models.ErrMissingOdometerEnd) {
		t.Fatalf("err = %v, want ErrMissingOdometerEnd", err)
	}
	// The failed completion must not have finished the run.
	if _, err := svc.Active(context.Background(), "op-1"); err != nil {
		t.Fatalf("run lost after rejected completion: %v", err)
	}
}

func TestCompleteRunOdometerNegativeDeltaFloored(t *testing.T) {
	svc, repo := newTestService()
	run := startOdometerRun(t, svc)

	if _, err := svc.Complete(context.Background(), "op-1", models.CompleteRunRequest{OdometerEnd: f64Ptr(990)}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if miles := repo.entries[run.MileageEntryID].Miles; miles != 0 {
		t.Fatalf("trip miles = %v, want 0", miles)
	}
}

func TestCompleteRunGPS(t *testing.T) {
	svc, repo := newTestService()
	run, err := svc.Start(context.Background(), "op-1", models.StartRunRequest{
		RouteID: "rt-1", VehicleID: "veh-1", TrackingMode: models.TrackingGPS,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := svc.Complete(context.Background(), "op-1", models.CompleteRunRequest{}); !errors.Is(err, models.ErrMissingGPSDistance) {
		t.Fatalf("err = %v, want ErrMissingGPSDistance", err)
	}

	if _, err := svc.Complete(context.Background(), "op-1", models.CompleteRunRequest{
		GPSDistanceMeters: f64Ptr(3218.688), // exactly two miles
	}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if miles := repo.entries[run.MileageEntryID].Miles; miles != 2 {
		t.Fatalf("trip miles = %v, want 2", miles)
	}
}

func TestDiscardRemovesRunAndTrip(t *testing.T) {
	svc, repo := newTestService()
	run := startOdometerRun(t, svc)

	if err := svc.Discard(context.Background(), "op-1"); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, ok := repo.runs[run.ID]; ok {
		t.Fatalf("run record still present")
	}
	if _, ok := repo.entries[run.MileageEntryID]; ok {
		t.Fatalf("trip record still present")
	}
	if _, err := svc.Active(context.Background(), "op-1"); !errors.Is(err, models.ErrNoActiveRun) {
		t.Fatalf("Active after discard: err = %v, want ErrNoActiveRun", err)
	}
}

func TestTransitionsRequireActiveRun(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.CompleteStop(ctx, "op-1", models.CompleteStopRequest{}); !errors.Is(err, models.ErrNoActiveRun) {
		t.Errorf("CompleteStop: err = %v, want ErrNoActiveRun", err)
	}
	if _, err := svc.Complete(ctx, "op-1", models.CompleteRunRequest{}); !errors.Is(err, models.ErrNoActiveRun) {
		t.Errorf("Complete: err = %v, want ErrNoActiveRun", err)
	}
	if err := svc.Discard(ctx, "op-1"); !errors.Is(err, models.ErrNoActiveRun) {
		t.Errorf("Discard: err = %v, want ErrNoActiveRun", err)
	}
	if _, err := svc.GoToStop(ctx, "op-1", 0); !errors.Is(err, models.ErrNoActiveRun) {
		t.Errorf("GoToStop: err = %v, want ErrNoActiveRun", err)
	}
	if _, err := svc.Active(ctx, "op-1"); !errors.Is(err, models.ErrNoActiveRun) {
		t.Errorf("Active: err = %v, want ErrNoActiveRun", err)
	}
}

func TestResumeInterruptedRun(t *testing.T) {
	svc1, repo := newTestService()
	startOdometerRun(t, svc1)
	if _, err := svc1.CompleteStop(context.Background(), "op-1", models.CompleteStopRequest{Notes: "first stop"}); err != nil {
		t.Fatalf("CompleteStop: %v", err)
	}

	// Simulate an app restart: a new service over the same store.
	svc2 := NewService(repo)
	svc2.now = func() time.Time { return fixedNow }

	run, err := svc2.Active(context.Background(), "op-1")
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if run.Cursor != 1 || run.CompletedCount() != 1 || run.StopData[0].Notes != "first stop" {
		t.Fatalf("resumed run lost progress: %+v", run)
	}

	// The resumed run keeps moving through the remaining stops.
	out, err := svc2.CompleteStop(context.Background(), "op-1", models.CompleteStopRequest{})
	if err != nil {
		t.Fatalf("CompleteStop after resume: %v", err)
	}
	if out.Run.Cursor != 2 || out.Run.CompletedCount() != 2 {
		t.Fatalf("cursor %d, completed %d; want 2/2", out.Run.Cursor, out.Run.CompletedCount())
	}
}

func TestRunsAreScopedToTheirOperator(t *testing.T) {
	svc, _ := newTestService()
	run1 := startOdometerRun(t, svc) // op-1
	ctx := context.Background()

	// Another operator neither sees nor moves op-1's run.
	if _, err := svc.Active(ctx, "op-2"); !errors.Is(err, models.ErrNoActiveRun) {
		t.Fatalf("Active for op-2: err = %v, want ErrNoActiveRun", err)
	}
	if _, err := svc.CompleteStop(ctx, "op-2", models.CompleteStopRequest{}); !errors.Is(err, models.ErrNoActiveRun) {
		t.Fatalf("CompleteStop for op-2: err = %v, want ErrNoActiveRun", err)
	}
	if err := svc.Discard(ctx, "op-2"); !errors.Is(err, models.ErrNoActiveRun) {
		t.Fatalf("Discard for op-2: err = %v, want ErrNoActiveRun", err)
	}

	// The one-active-run rule is per operator, so op-2 starts their own.
	run2, err := svc.Start(ctx, "op-2", models.StartRunRequest{
		RouteID: "rt-1", VehicleID: "veh-2", TrackingMode: models.TrackingGPS,
	})
	if err != nil {
		t.Fatalf("Start for op-2: %v", err)
	}
	if run2.ID == run1.ID {
		t.Fatalf("op-2 was handed op-1's run")
	}
	if _, err := svc.CompleteStop(ctx, "op-2", models.CompleteStopRequest{}); err != nil {
		t.Fatalf("CompleteStop for op-2: %v", err)
	}

	// op-1's run is untouched by op-2's activity.
	got, err := svc.Active(ctx, "op-1")
	if err != nil {
		t.Fatalf("Active for op-1: %v", err)
	}
	if got.ID != run1.ID || got.Cursor != 0 || got.CompletedCount() != 0 {
		t.Fatalf("op-1 run changed: %+v", got)
	}
}
