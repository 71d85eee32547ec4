// Package schedule derives recurring operational tasks (restocks, route
// runs, maintenance, lead follow-ups) from heterogeneous recurrence rules
// and classifies their urgency. Everything in this package is pure
// computation: deterministic given an injected "today", no I/O.
package schedule

import (
	"time"

	"route-ops/internal/models"
)

// DateOnly truncates t to midnight UTC. All scheduling math is
// day-granular; time of day is ignored throughout.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole-day difference to - from.
func DaysBetween(from, to time.Time) int {
	return int(DateOnly(to).Sub(DateOnly(from)).Hours() / 24)
}

// snapToWeekday returns the first date on or after d whose weekday is dow.
func snapToWeekday(d time.Time, dow time.Weekday) time.Time {
	offset := (int(dow) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset)
}

// NextDueDate computes the next occurrence of a recurrence rule.
//
// With no last occurrence the rule is anchored at today: the next date on
// or after today matching the weekday anchor, or today itself when
// unanchored. With a last occurrence the candidate is last + frequency,
// snapped forward to the anchor weekday; if that snap lands on today's
// weekday but the snapped date already slipped past, it moves a further
// week out rather than reporting a date that silently expired.
func NextDueDate(last *time.Time, frequencyDays int, dayOfWeek *time.Weekday, today time.Time) (time.Time, error) {
	if frequencyDays <= 0 {
		return time.Time{}, models.ErrInvalidRecurrence
	}
	if dayOfWeek != nil && (*dayOfWeek < time.Sunday || *dayOfWeek > time.Saturday) {
		return time.Time{}, models.ErrInvalidRecurrence
	}
	today = DateOnly(today)

	if last == nil {
		if dayOfWeek != nil {
			return snapToWeekday(today, *dayOfWeek), nil
		}
		return today, nil
	}

	candidate := DateOnly(*last).AddDate(0, 0, frequencyDays)
	if dayOfWeek == nil {
		return candidate, nil
	}

	snapped := snapToWeekday(candidate, *dayOfWeek)
	if snapped.Before(today) && snapped.Weekday() == today.Weekday() {
		snapped = snapped.AddDate(0, 0, 7)
	}
	return snapped, nil
}

// weekdayAnchor converts an optional 0..6 column value to a *time.Weekday,
// rejecting out-of-range values.
func weekdayAnchor(dow *int) (*time.Weekday, error) {
	if dow == nil {
		return nil, nil
	}
	if *dow < 0 || *dow > 6 {
		return nil, models.ErrInvalidRecurrence
	}
	wd := time.Weekday(*dow)
	return &wd, nil
}
