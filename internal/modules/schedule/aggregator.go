package schedule

import (
	"fmt"
	"sort"
	"time"

	"route-ops/internal/models"
)

// Default horizons used by the weekly widget and the monthly agenda view.
// Callers pass the horizon explicitly; these are just the two the UI uses.
const (
	HorizonWeek  = 7
	HorizonMonth = 30
)

// SnapshotSet is everything the aggregator derives tasks from, fetched in
// one pass by the repository.
type SnapshotSet struct {
	Locations          []models.Location
	Routes             []models.Route
	MaintenanceReports []models.MaintenanceReport
	Leads              []models.Lead
}

var priorityRank = map[models.TaskPriority]int{
	models.PriorityHigh:   0,
	models.PriorityMedium: 1,
	models.PriorityLow:    2,
}

// ComputeSchedule combines per-location restock recurrences, per-route
// recurrences, open maintenance reports and lead follow-ups into one
// ordered task list plus a per-day grouping over the horizon.
//
// A location referenced by any route that itself carries a recurrence is
// route-bound and never independently scheduled for restock. Recurring
// items emit one task per occurrence inside the horizon, not just the next
// one. Recomputing with identical inputs and the same today yields an
// identical result.
func ComputeSchedule(in SnapshotSet, today time.Time, horizonDays int) (*models.Schedule, error) {
	if horizonDays <= 0 {
		return nil, fmt.Errorf("schedule.ComputeSchedule: horizon must be positive, got %d", horizonDays)
	}
	today = DateOnly(today)

	locationNames := make(map[string]string, len(in.Locations))
	for _, loc := range in.Locations {
		locationNames[loc.ID] = loc.Name
	}

	// Step 1: locations covered by a scheduled route are exempt from
	// independent restock scheduling.
	routeBound := make(map[string]bool)
	for _, rt := range in.Routes {
		if !rt.HasSchedule() {
			continue
		}
		for _, stop := range rt.Stops {
			if stop.LocationID != nil {
				routeBound[*stop.LocationID] = true
			}
		}
	}

	sched := &models.Schedule{TasksByDate: make(map[string][]models.ScheduledTask)}
	var tasks []models.ScheduledTask

	// Step 2: restock statuses for active, non-route-bound locations.
	for _, loc := range in.Locations {
		if !loc.IsActive || routeBound[loc.ID] || loc.CollectionFrequencyDays == nil {
			// No frequency means no_schedule; dropped from the output.
			continue
		}
		anchor, err := weekdayAnchor(loc.RestockDayOfWeek)
		if err != nil {
			return nil, fmt.Errorf("schedule.ComputeSchedule: location %s: %w", loc.ID, err)
		}
		due, err := NextDueDate(loc.LastCollectionDate, *loc.CollectionFrequencyDays, anchor, today)
		if err != nil {
			return nil, fmt.Errorf("schedule.ComputeSchedule: location %s: %w", loc.ID, err)
		}

		status := ClassifyDueDate(due, today)
		overdueDays := 0
		if status == models.StatusOverdue {
			overdueDays = DaysBetween(due, today)
		}
		sched.RestockStatuses = append(sched.RestockStatuses, models.RestockStatus{
			LocationID:   loc.ID,
			LocationName: loc.Name,
			NextDueDate:  due,
			DaysOverdue:  overdueDays,
			Status:       status,
		})

		// Step 4: one task per occurrence inside the horizon.
		for d := due; DaysBetween(today, d) <= horizonDays; d = d.AddDate(0, 0, *loc.CollectionFrequencyDays) {
			st := ClassifyDueDate(d, today)
			tasks = append(tasks, models.ScheduledTask{
				Kind:     models.TaskRestock,
				Title:    loc.Name,
				Subtitle: "Restock collection due",
				DueDate:  d,
				Status:   st,
				Priority: PriorityFor(st),
				Link:     "/locations/" + loc.ID,
				Restock:  &models.RestockTaskRef{LocationID: loc.ID},
			})
		}
	}

	// Step 3: route schedules are evaluated forward from today, not from a
	// last-run date, since runs are ad hoc.
	for _, rt := range in.Routes {
		if !rt.HasSchedule() {
			continue
		}
		anchor, err := weekdayAnchor(rt.ScheduleDayOfWeek)
		if err != nil {
			return nil, fmt.Errorf("schedule.ComputeSchedule: route %s: %w", rt.ID, err)
		}
		due, err := NextDueDate(nil, *rt.ScheduleFrequencyDays, anchor, today)
		if err != nil {
			return nil, fmt.Errorf("schedule.ComputeSchedule: route %s: %w", rt.ID, err)
		}

		stopNames := make([]string, 0, len(rt.Stops))
		for _, stop := range rt.Stops {
			switch {
			case stop.LocationID != nil:
				if name, ok := locationNames[*stop.LocationID]; ok {
					stopNames = append(stopNames, name)
				} else {
					stopNames = append(stopNames, *stop.LocationID)
				}
			case stop.CustomLocationName != nil:
				stopNames = append(stopNames, *stop.CustomLocationName)
			}
		}

		status := ClassifyDueDate(due, today)
		sched.RouteStatuses = append(sched.RouteStatuses, models.RouteScheduleStatus{
			RouteID:           rt.ID,
			RouteName:         rt.Name,
			NextScheduledDate: due,
			Status:            status,
			StopNames:         stopNames,
		})

		for d := due; DaysBetween(today, d) <= horizonDays; d = d.AddDate(0, 0, *rt.ScheduleFrequencyDays) {
			st := ClassifyDueDate(d, today)
			tasks = append(tasks, models.ScheduledTask{
				Kind:       models.TaskRouteVisit,
				Title:      rt.Name,
				Subtitle:   fmt.Sprintf("Route run, %d stops", len(rt.Stops)),
				DueDate:    d,
				Status:     st,
				Priority:   PriorityFor(st),
				Link:       "/routes/" + rt.ID,
				RouteVisit: &models.RouteTaskRef{RouteID: rt.ID},
			})
		}
	}

	// Step 5: open maintenance is always "now".
	for _, rep := range in.MaintenanceReports {
		if rep.Status != "open" && rep.Status != "in_progress" {
			continue
		}
		tasks = append(tasks, models.ScheduledTask{
			Kind:        models.TaskMaintenance,
			Title:       "Machine " + rep.MachineID,
			Subtitle:    rep.Description,
			DueDate:     today,
			Status:      models.StatusDueToday,
			Priority:    models.PriorityMedium,
			Link:        "/maintenance/" + rep.ID,
			Maintenance: &models.MaintenanceTaskRef{ReportID: rep.ID, MachineID: rep.MachineID},
		})
	}

	// Step 6: lead follow-ups inside the horizon, unless won or lost.
	for _, lead := range in.Leads {
		if lead.NextFollowUp == nil || lead.Status == models.LeadStatusWon || lead.Status == models.LeadStatusLost {
			continue
		}
		due := DateOnly(*lead.NextFollowUp)
		if DaysBetween(today, due) > horizonDays {
			continue
		}
		priority := models.PriorityMedium
		if lead.Priority != nil && *lead.Priority == models.LeadPriorityHot {
			priority = models.PriorityHigh
		}
		tasks = append(tasks, models.ScheduledTask{
			Kind:     models.TaskFollowUp,
			Title:    lead.BusinessName,
			Subtitle: "Lead follow-up",
			DueDate:  due,
			Status:   ClassifyDueDate(due, today),
			Priority: priority,
			Link:     "/leads/" + lead.ID,
			FollowUp: &models.FollowUpTaskRef{LeadID: lead.ID},
		})
	}

	// Step 7: due date ascending, priority breaking ties.
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].DueDate.Equal(tasks[j].DueDate) {
			return tasks[i].DueDate.Before(tasks[j].DueDate)
		}
		return priorityRank[tasks[i].Priority] < priorityRank[tasks[j].Priority]
	})
	sched.Tasks = tasks

	// Step 8: day grouping and the urgent filter.
	for _, task := range tasks {
		key := task.DueDate.Format("2006-01-02")
		sched.TasksByDate[key] = append(sched.TasksByDate[key], task)
		if task.Status == models.StatusOverdue || task.Status == models.StatusDueToday {
			sched.UrgentTasks = append(sched.UrgentTasks, task)
		}
	}

	return sched, nil
}
