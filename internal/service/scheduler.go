package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/classward/compliance/assignment-service/internal/models"
	"github.com/classward/compliance/assignment-service/internal/repository"
)

// SchedulePublisher promotes due scheduled assignments to active on a fixed
// interval. Each due item is handled independently: a failure marks that
// item publication_error (terminal until manually reset) and never blocks
// the rest of the batch.
type SchedulePublisher struct {
	assignmentRepo repository.AssignmentRepository
	teacherRepo    repository.TeacherRepository
	notifier       *Notifier
	interval       time.Duration
	clock          Clock
	logger         zerolog.Logger

	stop chan struct{}
	done chan struct{}
}

func NewSchedulePublisher(
	assignmentRepo repository.AssignmentRepository,
	teacherRepo repository.TeacherRepository,
	notifier *Notifier,
	interval time.Duration,
	clock Clock,
	logger zerolog.Logger,
) *SchedulePublisher {
	return &SchedulePublisher{
		assignmentRepo: assignmentRepo,
		teacherRepo:    teacherRepo,
		notifier:       notifier,
		interval:       interval,
		clock:          clock,
		logger:         logger,
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

func (p *SchedulePublisher) Start() {
	p.logger.Info().Dur("interval", p.interval).Msg("Starting schedule publisher")

	go func() {
		defer close(p.done)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-p.stop:
				return
			case <-ticker.C:
				p.RunOnce(context.Background())
			}
		}
	}()
}

func (p *SchedulePublisher) Stop() {
	close(p.stop)
	<-p.done
	p.logger.Info().Msg("Schedule publisher stopped")
}

// RunOnce claims every due scheduled assignment and publishes each one.
// The claim is an atomic scheduled -> publishing transition, so a second
// run overlapping this one finds nothing left to take.
func (p *SchedulePublisher) RunOnce(ctx context.Context) int {
	now := p.clock.Now()

	claimed, err := p.assignmentRepo.ClaimScheduled(ctx, now)
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to claim scheduled assignments")
		return 0
	}
	if len(claimed) == 0 {
		return 0
	}

	published := 0
	for i := range claimed {
		if err := p.publishOne(ctx, &claimed[i], now); err != nil {
			p.logger.Error().
				Err(err).
				Str("assignment_id", claimed[i].ID).
				Msg("Failed to publish assignment")

			if markErr := p.assignmentRepo.MarkPublicationError(ctx, claimed[i].ID, err.Error(), now); markErr != nil {
				p.logger.Error().Err(markErr).Str("assignment_id", claimed[i].ID).Msg("Failed to record publication error")
			}
			continue
		}
		published++
	}

	p.logger.Info().
		Int("claimed", len(claimed)).
		Int("published", published).
		Msg("Schedule publisher run finished")

	return published
}

func (p *SchedulePublisher) publishOne(ctx context.Context, assignment *models.Assignment, now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during publication: %v", r)
		}
	}()

	if assignment.IsGeneral {
		// The roster snapshot happens now, at publication, so teachers
		// added after the assignment was scheduled are included.
		roster, rosterErr := p.teacherRepo.ListActiveIDs(ctx)
		if rosterErr != nil {
			return fmt.Errorf("failed to snapshot roster: %w", rosterErr)
		}
		if replaceErr := p.assignmentRepo.ReplaceRecipients(ctx, assignment.ID, roster); replaceErr != nil {
			return fmt.Errorf("failed to store recipient snapshot: %w", replaceErr)
		}
		assignment.AssignedTo = roster
	}

	if markErr := p.assignmentRepo.MarkPublished(ctx, assignment.ID, now); markErr != nil {
		return fmt.Errorf("failed to mark assignment published: %w", markErr)
	}

	p.logger.Info().
		Str("assignment_id", assignment.ID).
		Int("recipients", len(assignment.AssignedTo)).
		Msg("Assignment published")

	assignment.Status = models.AssignmentStatusActive
	assignment.PublishedAt = &now
	p.notifier.AssignmentPublished(ctx, assignment, assignment.AssignedTo, now.Unix())

	return nil
}
