package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/classward/compliance/assignment-service/internal/apperrors"
	"github.com/classward/compliance/assignment-service/internal/models"
	"github.com/classward/compliance/assignment-service/internal/repository"
)

// OverrideService is the administrator's out-of-band mutation surface:
// completion, bulk completion, forking a teacher out of a general
// assignment, and content updates.
type OverrideService interface {
	MarkCompleted(ctx context.Context, assignmentID, adminID string) error
	BulkMarkCompleted(ctx context.Context, assignmentIDs []string, adminID string) (int, error)
	Fork(ctx context.Context, assignmentID, adminID string, req *models.ForkAssignmentRequest) (*models.Assignment, error)
	UpdateContent(ctx context.Context, assignmentID, adminID string, req *models.UpdateAssignmentRequest) (*models.Assignment, error)
}

type overrideService struct {
	assignmentRepo repository.AssignmentRepository
	teacherRepo    repository.TeacherRepository
	statsService   StatsService
	notifier       *Notifier
	clock          Clock
	logger         zerolog.Logger
}

func NewOverrideService(
	assignmentRepo repository.AssignmentRepository,
	teacherRepo repository.TeacherRepository,
	statsService StatsService,
	notifier *Notifier,
	clock Clock,
	logger zerolog.Logger,
) OverrideService {
	return &overrideService{
		assignmentRepo: assignmentRepo,
		teacherRepo:    teacherRepo,
		statsService:   statsService,
		notifier:       notifier,
		clock:          clock,
		logger:         logger,
	}
}

func (s *overrideService) MarkCompleted(ctx context.Context, assignmentID, adminID string) error {
	assignment, err := s.markCompletedOne(ctx, assignmentID, adminID)
	if err != nil {
		return err
	}

	for _, teacherID := range assignment.AssignedTo {
		if _, err := s.statsService.Recompute(ctx, teacherID); err != nil {
			s.logger.Error().Err(err).Str("teacher_id", teacherID).Msg("Failed to recompute teacher stats")
		}
	}

	s.notifier.AssignmentCompleted(ctx, assignment, adminID, s.clock.Now().Unix())
	return nil
}

func (s *overrideService) markCompletedOne(ctx context.Context, assignmentID, adminID string) (*models.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return nil, apperrors.ErrAssignmentNotFound
	}

	if assignment.Status == models.AssignmentStatusCompleted {
		return nil, apperrors.ErrAlreadyCompleted
	}

	now := s.clock.Now()
	if now.After(assignment.CloseDate) {
		return nil, apperrors.ErrCompletionClosed
	}

	assignment.Status = models.AssignmentStatusCompleted
	assignment.CompletedAt = &now
	assignment.CompletedBy = &adminID
	assignment.UpdatedBy = &adminID
	assignment.UpdatedAt = now

	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to complete assignment: %w", err)
	}

	s.logger.Info().
		Str("assignment_id", assignmentID).
		Str("completed_by", adminID).
		Msg("Assignment marked completed")

	return assignment, nil
}

// BulkMarkCompleted applies the completion transition to every id that is
// not already completed and reports how many actually changed. Stats are
// recomputed once per distinct affected teacher, not once per assignment.
func (s *overrideService) BulkMarkCompleted(ctx context.Context, assignmentIDs []string, adminID string) (int, error) {
	changed := 0
	affected := make(map[string]struct{})

	for _, id := range assignmentIDs {
		assignment, err := s.markCompletedOne(ctx, id, adminID)
		if err != nil {
			if apperrors.KindOf(err) != apperrors.KindInternal {
				s.logger.Warn().Err(err).Str("assignment_id", id).Msg("Skipping assignment in bulk completion")
				continue
			}
			return changed, err
		}

		changed++
		for _, teacherID := range assignment.AssignedTo {
			affected[teacherID] = struct{}{}
		}
		s.notifier.AssignmentCompleted(ctx, assignment, adminID, s.clock.Now().Unix())
	}

	for teacherID := range affected {
		if _, err := s.statsService.Recompute(ctx, teacherID); err != nil {
			s.logger.Error().Err(err).Str("teacher_id", teacherID).Msg("Failed to recompute teacher stats")
		}
	}

	return changed, nil
}

// Fork splits one teacher out of a general assignment into an independent
// assignment of their own. A structural split, not a shared-identity copy:
// from here on the two items have fully separate lifecycles.
func (s *overrideService) Fork(ctx context.Context, assignmentID, adminID string, req *models.ForkAssignmentRequest) (*models.Assignment, error) {
	original, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if original == nil {
		return nil, apperrors.ErrAssignmentNotFound
	}

	if !original.IsGeneral {
		return nil, apperrors.ErrNotGeneral
	}
	if !original.IsAssignedTo(req.TeacherID) {
		return nil, apperrors.ErrNotOnAssignment
	}

	now := s.clock.Now()

	fork := &models.Assignment{
		ID:                   uuid.New().String(),
		Title:                original.Title,
		Description:          original.Description,
		Attachments:          append([]string{}, original.Attachments...),
		DueDate:              original.DueDate,
		CloseDate:            original.CloseDate,
		IsGeneral:            false,
		Status:               models.AssignmentStatusActive,
		OriginalAssignmentID: &original.ID,
		PublishedAt:          &now,
		CreatedBy:            adminID,
		CreatedAt:            now,
		UpdatedAt:            now,
		Version:              1,
		AssignedTo:           []string{req.TeacherID},
	}

	if req.Title != nil {
		fork.Title = *req.Title
	}
	if req.Description != nil {
		fork.Description = *req.Description
	}
	if req.DueDate != nil {
		fork.DueDate = *req.DueDate
	}
	if req.CloseDate != nil {
		fork.CloseDate = *req.CloseDate
	}
	if fork.DueDate.After(fork.CloseDate) {
		return nil, apperrors.Validation("due date must not be after close date")
	}

	original.UpdatedBy = &adminID
	original.UpdatedAt = now
	if err := s.assignmentRepo.Fork(ctx, fork, original, req.TeacherID); err != nil {
		if errors.Is(err, apperrors.ErrVersionConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fork assignment: %w", err)
	}

	s.logger.Info().
		Str("original_id", original.ID).
		Str("fork_id", fork.ID).
		Str("teacher_id", req.TeacherID).
		Msg("Assignment forked")

	if _, err := s.statsService.Recompute(ctx, req.TeacherID); err != nil {
		s.logger.Error().Err(err).Str("teacher_id", req.TeacherID).Msg("Failed to recompute teacher stats")
	}

	return fork, nil
}

func (s *overrideService) UpdateContent(ctx context.Context, assignmentID, adminID string, req *models.UpdateAssignmentRequest) (*models.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return nil, apperrors.ErrAssignmentNotFound
	}

	dueDate := assignment.DueDate
	closeDate := assignment.CloseDate
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}
	if req.CloseDate != nil {
		closeDate = *req.CloseDate
	}
	if dueDate.After(closeDate) {
		// Rejected before any mutation; prior state stays untouched.
		return nil, apperrors.Validation("due date must not be after close date")
	}

	if req.Title != nil {
		assignment.Title = *req.Title
	}
	if req.Description != nil {
		assignment.Description = *req.Description
	}
	if req.Attachments != nil {
		assignment.Attachments = req.Attachments
	}
	assignment.DueDate = dueDate
	assignment.CloseDate = closeDate

	previousRecipients := assignment.AssignedTo
	recipientsChanged := req.AssignedTo != nil && !sameRecipients(previousRecipients, req.AssignedTo)
	if recipientsChanged {
		for _, teacherID := range req.AssignedTo {
			exists, err := s.teacherRepo.Exists(ctx, teacherID)
			if err != nil {
				return nil, fmt.Errorf("failed to check teacher existence: %w", err)
			}
			if !exists {
				return nil, apperrors.ErrTeacherNotFound
			}
		}
	}

	now := s.clock.Now()
	assignment.UpdatedBy = &adminID
	assignment.UpdatedAt = now

	// The compare-and-swap goes first: a lost race must reject the whole
	// update, recipient change included.
	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		if errors.Is(err, apperrors.ErrVersionConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	if recipientsChanged {
		if err := s.assignmentRepo.ReplaceRecipients(ctx, assignment.ID, req.AssignedTo); err != nil {
			return nil, fmt.Errorf("failed to replace recipients: %w", err)
		}
		assignment.AssignedTo = req.AssignedTo
	}

	s.logger.Info().
		Str("assignment_id", assignment.ID).
		Bool("recipients_changed", recipientsChanged).
		Msg("Assignment updated")

	if recipientsChanged {
		for teacherID := range unionRecipients(previousRecipients, assignment.AssignedTo) {
			if _, err := s.statsService.Recompute(ctx, teacherID); err != nil {
				s.logger.Error().Err(err).Str("teacher_id", teacherID).Msg("Failed to recompute teacher stats")
			}
		}
	}

	return assignment, nil
}

func sameRecipients(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]struct{}, len(a))
	for _, id := range a {
		seen[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := seen[id]; !ok {
			return false
		}
	}
	return true
}

func unionRecipients(a, b []string) map[string]struct{} {
	union := make(map[string]struct{}, len(a)+len(b))
	for _, id := range a {
		union[id] = struct{}{}
	}
	for _, id := range b {
		union[id] = struct{}{}
	}
	return union
}
