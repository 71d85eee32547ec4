package schedule

import (
	"time"

	"route-ops/internal/models"
)

// ClassifyDueDate maps a due date to its urgency tier relative to today.
// Day-granular: overdue strictly before today, due_soon within the next
// two days, everything past that is upcoming. Total and mutually
// exclusive over all inputs.
func ClassifyDueDate(due, today time.Time) models.TaskStatus {
	switch d := DaysBetween(today, due); {
	case d < 0:
		return models.StatusOverdue
	case d == 0:
		return models.StatusDueToday
	case d <= 2:
		return models.StatusDueSoon
	default:
		return models.StatusUpcoming
	}
}

// PriorityFor is the fixed status → priority lookup. No tie-break logic of
// its own.
func PriorityFor(status models.TaskStatus) models.TaskPriority {
	switch status {
	case models.StatusOverdue, models.StatusDueToday:
		return models.PriorityHigh
	case models.StatusDueSoon:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}
