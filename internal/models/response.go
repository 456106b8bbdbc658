package models

import (
	"time"
)

type SubmissionStatus string

const (
	SubmissionOnTime SubmissionStatus = "on_time"
	SubmissionLate   SubmissionStatus = "late"
	SubmissionClosed SubmissionStatus = "closed"
)

type ReviewStatus string

const (
	ReviewSubmitted ReviewStatus = "submitted"
	ReviewReviewed  ReviewStatus = "reviewed"
)

// Response is the single per-teacher answer slot of an assignment. A missing
// row is a valid state of its own ("no answer yet") and is distinct from any
// explicit status. The (assignment, teacher) pair is unique in storage, so a
// teacher can never hold more than one response per assignment.
type Response struct {
	ID               string            `json:"id" db:"id"`
	AssignmentID     string            `json:"assignment_id" db:"assignment_id"`
	TeacherID        string            `json:"teacher_id" db:"teacher_id"`
	Files            []string          `json:"files" db:"files"`
	SubmittedAt      *time.Time        `json:"submitted_at,omitempty" db:"submitted_at"`
	SubmissionStatus *SubmissionStatus `json:"submission_status,omitempty" db:"submission_status"`
	ReviewStatus     *ReviewStatus     `json:"review_status,omitempty" db:"review_status"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
}

// NewSubmittedResponse builds the state a real submission produces:
// on-time or late, review pending.
func NewSubmittedResponse(id, assignmentID, teacherID string, files []string, submittedAt time.Time, late bool) *Response {
	submission := SubmissionOnTime
	if late {
		submission = SubmissionLate
	}
	review := ReviewSubmitted
	return &Response{
		ID:               id,
		AssignmentID:     assignmentID,
		TeacherID:        teacherID,
		Files:            files,
		SubmittedAt:      &submittedAt,
		SubmissionStatus: &submission,
		ReviewStatus:     &review,
		CreatedAt:        submittedAt,
		UpdatedAt:        submittedAt,
	}
}

// NewClosedResponse builds the administrator-recorded "did not deliver"
// state: closed, reviewed, no submission timestamp.
func NewClosedResponse(id, assignmentID, teacherID string, recordedAt time.Time) *Response {
	submission := SubmissionClosed
	review := ReviewReviewed
	return &Response{
		ID:               id,
		AssignmentID:     assignmentID,
		TeacherID:        teacherID,
		Files:            []string{},
		SubmissionStatus: &submission,
		ReviewStatus:     &review,
		CreatedAt:        recordedAt,
		UpdatedAt:        recordedAt,
	}
}

// TeacherStatus is the target of a direct administrator status record.
type TeacherStatus string

const (
	TeacherStatusDelivered     TeacherStatus = "delivered"
	TeacherStatusDeliveredLate TeacherStatus = "delivered_late"
	TeacherStatusNotDelivered  TeacherStatus = "not_delivered"
	TeacherStatusPending       TeacherStatus = "pending"
)

func IsValidTeacherStatus(status string) bool {
	switch TeacherStatus(status) {
	case TeacherStatusDelivered, TeacherStatusDeliveredLate,
		TeacherStatusNotDelivered, TeacherStatusPending:
		return true
	default:
		return false
	}
}
