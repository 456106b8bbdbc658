package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classward/compliance/assignment-service/internal/models"
)

func responseWith(submission models.SubmissionStatus, review models.ReviewStatus, submittedAt *time.Time) *models.Response {
	return &models.Response{
		ID:               "resp-1",
		AssignmentID:     "assignment-1",
		TeacherID:        "teacher-1",
		SubmissionStatus: &submission,
		ReviewStatus:     &review,
		SubmittedAt:      submittedAt,
	}
}

func TestResolve(t *testing.T) {
	due := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	closeAt := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	beforeDue := due.Add(-24 * time.Hour)
	betweenDueAndClose := due.Add(48 * time.Hour)
	afterClose := closeAt.Add(time.Hour)
	submittedAt := beforeDue

	tests := []struct {
		name string
		now  time.Time
		base models.AssignmentStatus
		resp *models.Response
		want Status
	}{
		{
			name: "submitted on time",
			now:  betweenDueAndClose,
			base: models.AssignmentStatusActive,
			resp: responseWith(models.SubmissionOnTime, models.ReviewSubmitted, &submittedAt),
			want: Completed,
		},
		{
			name: "submitted late",
			now:  betweenDueAndClose,
			base: models.AssignmentStatusActive,
			resp: responseWith(models.SubmissionLate, models.ReviewSubmitted, &betweenDueAndClose),
			want: CompletedLate,
		},
		{
			name: "closed by administrator",
			now:  betweenDueAndClose,
			base: models.AssignmentStatusActive,
			resp: responseWith(models.SubmissionClosed, models.ReviewReviewed, nil),
			want: NotDelivered,
		},
		{
			name: "reviewed without submission timestamp",
			now:  beforeDue,
			base: models.AssignmentStatusActive,
			resp: responseWith(models.SubmissionOnTime, models.ReviewReviewed, nil),
			want: NotDelivered,
		},
		{
			name: "reviewed with submission timestamp stays pending",
			now:  beforeDue,
			base: models.AssignmentStatusActive,
			resp: responseWith(models.SubmissionLate, models.ReviewReviewed, &submittedAt),
			want: Pending,
		},
		{
			name: "no response before due date",
			now:  beforeDue,
			base: models.AssignmentStatusActive,
			resp: nil,
			want: Pending,
		},
		{
			name: "no response exactly at due date",
			now:  due,
			base: models.AssignmentStatusActive,
			resp: nil,
			want: Pending,
		},
		{
			name: "no response past close date",
			now:  afterClose,
			base: models.AssignmentStatusActive,
			resp: nil,
			want: Overdue,
		},
		{
			name: "no response past close date on completed assignment",
			now:  afterClose,
			base: models.AssignmentStatusCompleted,
			resp: nil,
			want: Overdue,
		},
		{
			name: "grace window on active assignment",
			now:  betweenDueAndClose,
			base: models.AssignmentStatusActive,
			resp: nil,
			want: Pending,
		},
		{
			name: "grace window on completed assignment",
			now:  betweenDueAndClose,
			base: models.AssignmentStatusCompleted,
			resp: nil,
			want: Overdue,
		},
		{
			name: "grace window on cancelled assignment",
			now:  betweenDueAndClose,
			base: models.AssignmentStatusCancelled,
			resp: nil,
			want: Overdue,
		},
		{
			name: "closed response wins over passed close date",
			now:  afterClose,
			base: models.AssignmentStatusCompleted,
			resp: responseWith(models.SubmissionClosed, models.ReviewReviewed, nil),
			want: NotDelivered,
		},
		{
			name: "on-time submission survives close date",
			now:  afterClose,
			base: models.AssignmentStatusCompleted,
			resp: responseWith(models.SubmissionOnTime, models.ReviewSubmitted, &submittedAt),
			want: Completed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.now, due, closeAt, tt.base, tt.resp)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	due := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	closeAt := due.Add(72 * time.Hour)
	now := due.Add(time.Hour)
	resp := responseWith(models.SubmissionLate, models.ReviewSubmitted, &now)

	first := Resolve(now, due, closeAt, models.AssignmentStatusActive, resp)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Resolve(now, due, closeAt, models.AssignmentStatusActive, resp))
	}
}

func TestIsValid(t *testing.T) {
	for _, valid := range []string{"pending", "completed", "completed_late", "not_delivered", "overdue"} {
		require.True(t, IsValid(valid), valid)
	}
	for _, invalid := range []string{"", "done", "active", "PENDING"} {
		require.False(t, IsValid(invalid), invalid)
	}
}
