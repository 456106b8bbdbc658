package models

import (
	"time"
)

type AssignmentStatus string

const (
	AssignmentStatusScheduled        AssignmentStatus = "scheduled"
	AssignmentStatusPublishing       AssignmentStatus = "publishing"
	AssignmentStatusActive           AssignmentStatus = "active"
	AssignmentStatusCompleted        AssignmentStatus = "completed"
	AssignmentStatusCancelled        AssignmentStatus = "cancelled"
	AssignmentStatusPublicationError AssignmentStatus = "publication_error"
)

func (s AssignmentStatus) String() string {
	return string(s)
}

func IsValidAssignmentStatus(status string) bool {
	switch AssignmentStatus(status) {
	case AssignmentStatusScheduled, AssignmentStatusPublishing, AssignmentStatusActive,
		AssignmentStatusCompleted, AssignmentStatusCancelled, AssignmentStatusPublicationError:
		return true
	default:
		return false
	}
}

// Assignment carries two independent notions of status: the coarse Status
// field set by administrators and the scheduler, and the live per-teacher
// status resolved from dates and responses. Neither overwrites the other.
type Assignment struct {
	ID                   string           `json:"id" db:"id"`
	Title                string           `json:"title" db:"title"`
	Description          string           `json:"description" db:"description"`
	Attachments          []string         `json:"attachments" db:"attachments"`
	PublishDate          *time.Time       `json:"publish_date,omitempty" db:"publish_date"`
	DueDate              time.Time        `json:"due_date" db:"due_date"`
	CloseDate            time.Time        `json:"close_date" db:"close_date"`
	IsGeneral            bool             `json:"is_general" db:"is_general"`
	Status               AssignmentStatus `json:"status" db:"status"`
	OriginalAssignmentID *string          `json:"original_assignment_id,omitempty" db:"original_assignment_id"`
	PublishError         *string          `json:"publish_error,omitempty" db:"publish_error"`
	PublishedAt          *time.Time       `json:"published_at,omitempty" db:"published_at"`
	CreatedBy            string           `json:"created_by" db:"created_by"`
	CompletedAt          *time.Time       `json:"completed_at,omitempty" db:"completed_at"`
	CompletedBy          *string          `json:"completed_by,omitempty" db:"completed_by"`
	CancelledAt          *time.Time       `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancelledBy          *string          `json:"cancelled_by,omitempty" db:"cancelled_by"`
	UpdatedBy            *string          `json:"updated_by,omitempty" db:"updated_by"`
	CreatedAt            time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at" db:"updated_at"`
	Version              int              `json:"version" db:"version"`

	// AssignedTo is the recipient snapshot. For general assignments it is
	// captured at creation, or at publication for scheduled ones; it never
	// tracks the live roster.
	AssignedTo []string `json:"assigned_to" db:"-"`
}

func (a *Assignment) IsAssignedTo(teacherID string) bool {
	for _, id := range a.AssignedTo {
		if id == teacherID {
			return true
		}
	}
	return false
}

// IsOpen reports whether the assignment still accepts the grace window
// between due date and close date.
func (a *Assignment) IsOpen() bool {
	switch a.Status {
	case AssignmentStatusScheduled, AssignmentStatusPublishing, AssignmentStatusActive:
		return true
	default:
		return false
	}
}
