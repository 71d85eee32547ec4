package models

import "time"

// Lead statuses that no longer need follow-up.
const (
	LeadStatusWon  = "won"
	LeadStatusLost = "lost"
)

// LeadPriorityHot marks a lead whose follow-up outranks the usual medium tier.
const LeadPriorityHot = "hot"

// Lead is a read-only snapshot of a sales lead for a prospective location.
type Lead struct {
	ID           string     `json:"id" db:"id"`
	BusinessName string     `json:"business_name" db:"business_name"`
	NextFollowUp *time.Time `json:"next_follow_up,omitempty" db:"next_follow_up"`
	Status       string     `json:"status" db:"status"`
	Priority     *string    `json:"priority,omitempty" db:"priority"`
}
