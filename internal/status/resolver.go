// Package status holds the single canonical mapping from assignment dates
// and a teacher's response to that teacher's live status. Every read path
// (listings, dashboards, per-assignment views, stats) resolves through this
// function; nothing re-derives the mapping inline.
package status

import (
	"time"

	"github.com/classward/compliance/assignment-service/internal/models"
)

type Status string

const (
	Pending       Status = "pending"
	Completed     Status = "completed"
	CompletedLate Status = "completed_late"
	NotDelivered  Status = "not_delivered"
	Overdue       Status = "overdue"
)

func (s Status) String() string {
	return string(s)
}

func IsValid(status string) bool {
	switch Status(status) {
	case Pending, Completed, CompletedLate, NotDelivered, Overdue:
		return true
	default:
		return false
	}
}

// Resolve is pure and deterministic: identical inputs always produce the
// same status. First matching rule wins:
//
//  1. submitted + on-time            -> completed
//  2. submitted + late               -> completed_late
//  3. closed, or reviewed without a
//     submission timestamp           -> not_delivered
//  4. any other response             -> pending
//  5. no response, past close date   -> overdue
//  6. no response, before due date   -> pending
//  7. no response, in the grace
//     window between due and close   -> pending while the assignment is
//     still open, overdue otherwise
func Resolve(now time.Time, dueDate, closeDate time.Time, base models.AssignmentStatus, resp *models.Response) Status {
	if resp != nil {
		submitted := resp.ReviewStatus != nil && *resp.ReviewStatus == models.ReviewSubmitted
		reviewed := resp.ReviewStatus != nil && *resp.ReviewStatus == models.ReviewReviewed
		closed := resp.SubmissionStatus != nil && *resp.SubmissionStatus == models.SubmissionClosed

		switch {
		case submitted && resp.SubmissionStatus != nil && *resp.SubmissionStatus == models.SubmissionOnTime:
			return Completed
		case submitted && resp.SubmissionStatus != nil && *resp.SubmissionStatus == models.SubmissionLate:
			return CompletedLate
		case closed || (reviewed && resp.SubmittedAt == nil):
			return NotDelivered
		default:
			return Pending
		}
	}

	if now.After(closeDate) {
		return Overdue
	}
	if !now.After(dueDate) {
		return Pending
	}

	// Grace window: the due date has passed but the close date has not.
	open := base == models.AssignmentStatusScheduled ||
		base == models.AssignmentStatusPublishing ||
		base == models.AssignmentStatusActive
	if open {
		return Pending
	}
	return Overdue
}
