package models

import "time"

// TaskStatus is the urgency tier of a due date relative to "today".
// Exactly one tier holds for any due date.
type TaskStatus string

const (
	StatusNoSchedule TaskStatus = "no_schedule"
	StatusOverdue    TaskStatus = "overdue"
	StatusDueToday   TaskStatus = "due_today"
	StatusDueSoon    TaskStatus = "due_soon"
	StatusUpcoming   TaskStatus = "upcoming"
)

// TaskPriority orders tasks that share a due date.
type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

// TaskKind tags which source entity a scheduled task was derived from.
type TaskKind string

const (
	TaskRestock     TaskKind = "restock"
	TaskRouteVisit  TaskKind = "route"
	TaskMaintenance TaskKind = "maintenance"
	TaskFollowUp    TaskKind = "follow_up"
)

// RestockStatus is the derived restock schedule for one eligible location.
// Never persisted; recomputed on demand.
type RestockStatus struct {
	LocationID   string     `json:"location_id"`
	LocationName string     `json:"location_name"`
	NextDueDate  time.Time  `json:"next_due_date"`
	DaysOverdue  int        `json:"days_overdue"`
	Status       TaskStatus `json:"status"`
}

// RouteScheduleStatus is the derived schedule for one recurring route.
type RouteScheduleStatus struct {
	RouteID           string     `json:"route_id"`
	RouteName         string     `json:"route_name"`
	NextScheduledDate time.Time  `json:"next_scheduled_date"`
	Status            TaskStatus `json:"status"`
	StopNames         []string   `json:"stop_names"`
}

// Per-kind task references. A ScheduledTask carries exactly one of these,
// matching its Kind, instead of a shared optional-everything metadata bag.
type (
	RestockTaskRef struct {
		LocationID string `json:"location_id"`
	}
	RouteTaskRef struct {
		RouteID string `json:"route_id"`
	}
	MaintenanceTaskRef struct {
		ReportID  string `json:"report_id"`
		MachineID string `json:"machine_id"`
	}
	FollowUpTaskRef struct {
		LeadID string `json:"lead_id"`
	}
)

// ScheduledTask unifies restock, route, maintenance and follow-up items for
// calendar and list rendering. Ephemeral: never persisted.
type ScheduledTask struct {
	Kind     TaskKind     `json:"kind"`
	Title    string       `json:"title"`
	Subtitle string       `json:"subtitle,omitempty"`
	DueDate  time.Time    `json:"due_date"`
	Status   TaskStatus   `json:"status"`
	Priority TaskPriority `json:"priority"`
	Link     string       `json:"link"`

	Restock     *RestockTaskRef     `json:"restock,omitempty"`
	RouteVisit  *RouteTaskRef       `json:"route_visit,omitempty"`
	Maintenance *MaintenanceTaskRef `json:"maintenance,omitempty"`
	FollowUp    *FollowUpTaskRef    `json:"follow_up,omitempty"`
}

// Schedule is the aggregator's full output for one horizon.
type Schedule struct {
	RestockStatuses []RestockStatus       `json:"restock_statuses"`
	RouteStatuses   []RouteScheduleStatus `json:"route_statuses"`
	Tasks           []ScheduledTask       `json:"tasks"`
	// TasksByDate groups tasks by day ("2006-01-02" keys) across the horizon.
	TasksByDate map[string][]ScheduledTask `json:"tasks_by_date"`
	// UrgentTasks is the overdue plus due_today convenience filter.
	UrgentTasks []ScheduledTask `json:"urgent_tasks"`
}
