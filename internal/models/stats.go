package models

import (
	"time"
)

// TeacherStats is a derived cache, never authoritative. It is replaced
// wholesale on every recompute and may be transiently stale between a state
// change and the next recompute.
type TeacherStats struct {
	TeacherID   string    `json:"teacher_id" db:"teacher_id"`
	Completed   int       `json:"completed" db:"completed"`
	Pending     int       `json:"pending" db:"pending"`
	Overdue     int       `json:"overdue" db:"overdue"`
	Total       int       `json:"total" db:"total"`
	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
}
