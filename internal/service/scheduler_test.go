package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classward/compliance/assignment-service/internal/apperrors"
	"github.com/classward/compliance/assignment-service/internal/models"
)

func scheduledAssignment(id string, publishAt, due, closeAt time.Time, general bool) *models.Assignment {
	created := publishAt.Add(-24 * time.Hour)
	return &models.Assignment{
		ID:          id,
		Title:       "Scheduled checklist",
		Attachments: []string{},
		PublishDate: &publishAt,
		DueDate:     due,
		CloseDate:   closeAt,
		IsGeneral:   general,
		Status:      models.AssignmentStatusScheduled,
		CreatedBy:   "admin-1",
		CreatedAt:   created,
		UpdatedAt:   created,
		Version:     1,
		AssignedTo:  []string{},
	}
}

func newSchedulerFixture(t *testing.T, now time.Time, teacherIDs ...string) (*fakeAssignmentRepo, *fakeTeacherRepo, *fixedClock, *SchedulePublisher) {
	t.Helper()
	assignmentRepo := newFakeAssignmentRepo()
	teacherRepo := newFakeTeacherRepo(teacherIDs...)
	clock := newFixedClock(now)
	publisher := NewSchedulePublisher(assignmentRepo, teacherRepo, testNotifier(), time.Minute, clock, testLogger())
	return assignmentRepo, teacherRepo, clock, publisher
}

func TestRunOnce(t *testing.T) {
	ctx := context.Background()
	publishAt := time.Date(2026, 3, 20, 8, 0, 0, 0, time.UTC)
	due := publishAt.Add(7 * 24 * time.Hour)
	closeAt := due.Add(72 * time.Hour)

	t.Run("publishes due scheduled assignments", func(t *testing.T) {
		assignmentRepo, _, _, publisher := newSchedulerFixture(t, publishAt.Add(time.Minute), "t-1")
		require.NoError(t, assignmentRepo.Create(ctx, scheduledAssignment("a-1", publishAt, due, closeAt, false)))

		require.Equal(t, 1, publisher.RunOnce(ctx))

		stored, err := assignmentRepo.GetByID(ctx, "a-1")
		require.NoError(t, err)
		require.Equal(t, models.AssignmentStatusActive, stored.Status)
		require.NotNil(t, stored.PublishedAt)
		require.Nil(t, stored.PublishError)
	})

	t.Run("not yet due items are left alone", func(t *testing.T) {
		assignmentRepo, _, _, publisher := newSchedulerFixture(t, publishAt.Add(-time.Minute), "t-1")
		require.NoError(t, assignmentRepo.Create(ctx, scheduledAssignment("a-1", publishAt, due, closeAt, false)))

		require.Equal(t, 0, publisher.RunOnce(ctx))

		stored, err := assignmentRepo.GetByID(ctx, "a-1")
		require.NoError(t, err)
		require.Equal(t, models.AssignmentStatusScheduled, stored.Status)
	})

	t.Run("general assignment snapshots the roster at publication", func(t *testing.T) {
		assignmentRepo, teacherRepo, _, publisher := newSchedulerFixture(t, publishAt.Add(time.Minute), "t-1", "t-2", "t-3")
		require.NoError(t, assignmentRepo.Create(ctx, scheduledAssignment("a-1", publishAt, due, closeAt, true)))

		// The roster grew after the assignment was scheduled.
		require.NoError(t, teacherRepo.Create(ctx, &models.Teacher{ID: "t-4", Active: true}))
		require.NoError(t, teacherRepo.Create(ctx, &models.Teacher{ID: "t-5", Active: true}))

		require.Equal(t, 1, publisher.RunOnce(ctx))

		stored, err := assignmentRepo.GetByID(ctx, "a-1")
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"t-1", "t-2", "t-3", "t-4", "t-5"}, stored.AssignedTo)

		// Teachers added after publication are not picked up.
		require.NoError(t, teacherRepo.Create(ctx, &models.Teacher{ID: "t-6", Active: true}))
		stored, err = assignmentRepo.GetByID(ctx, "a-1")
		require.NoError(t, err)
		require.Len(t, stored.AssignedTo, 5)
	})

	t.Run("a failing item is marked and does not block the batch", func(t *testing.T) {
		assignmentRepo, _, _, publisher := newSchedulerFixture(t, publishAt.Add(time.Minute), "t-1")
		require.NoError(t, assignmentRepo.Create(ctx, scheduledAssignment("a-1", publishAt, due, closeAt, false)))
		require.NoError(t, assignmentRepo.Create(ctx, scheduledAssignment("a-2", publishAt, due, closeAt, false)))
		assignmentRepo.publishErrs["a-1"] = errors.New("storage unavailable")

		require.Equal(t, 1, publisher.RunOnce(ctx))

		failed, err := assignmentRepo.GetByID(ctx, "a-1")
		require.NoError(t, err)
		require.Equal(t, models.AssignmentStatusPublicationError, failed.Status)
		require.Contains(t, *failed.PublishError, "storage unavailable")

		ok, err := assignmentRepo.GetByID(ctx, "a-2")
		require.NoError(t, err)
		require.Equal(t, models.AssignmentStatusActive, ok.Status)
	})

	t.Run("roster snapshot failure marks the item", func(t *testing.T) {
		assignmentRepo, teacherRepo, _, publisher := newSchedulerFixture(t, publishAt.Add(time.Minute), "t-1")
		require.NoError(t, assignmentRepo.Create(ctx, scheduledAssignment("a-1", publishAt, due, closeAt, true)))
		teacherRepo.listErr = errors.New("roster service down")

		require.Equal(t, 0, publisher.RunOnce(ctx))

		stored, err := assignmentRepo.GetByID(ctx, "a-1")
		require.NoError(t, err)
		require.Equal(t, models.AssignmentStatusPublicationError, stored.Status)
	})

	t.Run("claimed items are not picked up twice", func(t *testing.T) {
		assignmentRepo, _, _, publisher := newSchedulerFixture(t, publishAt.Add(time.Minute), "t-1")
		require.NoError(t, assignmentRepo.Create(ctx, scheduledAssignment("a-1", publishAt, due, closeAt, false)))

		require.Equal(t, 1, publisher.RunOnce(ctx))
		require.Equal(t, 0, publisher.RunOnce(ctx))
	})

	t.Run("claiming invalidates reads taken before the claim", func(t *testing.T) {
		assignmentRepo, _, _, publisher := newSchedulerFixture(t, publishAt.Add(time.Minute), "t-1")
		require.NoError(t, assignmentRepo.Create(ctx, scheduledAssignment("a-1", publishAt, due, closeAt, false)))

		stale, err := assignmentRepo.GetByID(ctx, "a-1")
		require.NoError(t, err)

		require.Equal(t, 1, publisher.RunOnce(ctx))

		// A write based on the pre-claim read must lose the swap.
		title := "Edited from a stale copy"
		stale.Title = title
		require.ErrorIs(t, assignmentRepo.Update(ctx, stale), apperrors.ErrVersionConflict)

		stored, err := assignmentRepo.GetByID(ctx, "a-1")
		require.NoError(t, err)
		require.Equal(t, models.AssignmentStatusActive, stored.Status)
		require.NotEqual(t, title, stored.Title)
	})

	t.Run("claim failure publishes nothing", func(t *testing.T) {
		assignmentRepo, _, _, publisher := newSchedulerFixture(t, publishAt.Add(time.Minute), "t-1")
		require.NoError(t, assignmentRepo.Create(ctx, scheduledAssignment("a-1", publishAt, due, closeAt, false)))
		assignmentRepo.claimErr = errors.New("connection refused")

		require.Equal(t, 0, publisher.RunOnce(ctx))

		stored, err := assignmentRepo.GetByID(ctx, "a-1")
		require.NoError(t, err)
		require.Equal(t, models.AssignmentStatusScheduled, stored.Status)
	})
}

func TestStartStop(t *testing.T) {
	assignmentRepo := newFakeAssignmentRepo()
	teacherRepo := newFakeTeacherRepo("t-1")
	clock := newFixedClock(time.Date(2026, 3, 20, 8, 0, 0, 0, time.UTC))
	publisher := NewSchedulePublisher(assignmentRepo, teacherRepo, testNotifier(), 5*time.Millisecond, clock, testLogger())

	publisher.Start()
	time.Sleep(25 * time.Millisecond)
	publisher.Stop()
}
