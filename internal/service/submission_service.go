package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/classward/compliance/assignment-service/internal/apperrors"
	"github.com/classward/compliance/assignment-service/internal/models"
	"github.com/classward/compliance/assignment-service/internal/repository"
	"github.com/classward/compliance/assignment-service/internal/service/integration"
)

// SubmissionService owns the per-teacher response slots of an assignment.
type SubmissionService interface {
	Submit(ctx context.Context, assignmentID, teacherID string, files []string) (*models.Response, error)
	// RecordTeacherStatus injects a status for one teacher on behalf of an
	// administrator. The assignment's coarse status is deliberately left
	// untouched: per-teacher truth must not overwrite a separately-set
	// administrator status.
	RecordTeacherStatus(ctx context.Context, assignmentID, teacherID string, target models.TeacherStatus) error
}

type submissionService struct {
	assignmentRepo repository.AssignmentRepository
	responseRepo   repository.ResponseRepository
	statsService   StatsService
	fileClient     integration.FileClient
	clock          Clock
	logger         zerolog.Logger
}

func NewSubmissionService(
	assignmentRepo repository.AssignmentRepository,
	responseRepo repository.ResponseRepository,
	statsService StatsService,
	fileClient integration.FileClient,
	clock Clock,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		assignmentRepo: assignmentRepo,
		responseRepo:   responseRepo,
		statsService:   statsService,
		fileClient:     fileClient,
		clock:          clock,
		logger:         logger,
	}
}

func (s *submissionService) Submit(ctx context.Context, assignmentID, teacherID string, files []string) (*models.Response, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return nil, apperrors.ErrAssignmentNotFound
	}

	if !assignment.IsAssignedTo(teacherID) {
		return nil, apperrors.ErrNotAssigned
	}

	now := s.clock.Now()
	if now.After(assignment.CloseDate) {
		// The staged artifacts were already uploaded; nothing will ever
		// reference them, so clean them up before rejecting.
		s.fileClient.Discard(ctx, files)
		return nil, apperrors.ErrSubmissionClosed
	}

	late := now.After(assignment.DueDate)
	response := models.NewSubmittedResponse(uuid.New().String(), assignmentID, teacherID, files, now, late)

	if err := s.responseRepo.Upsert(ctx, response); err != nil {
		return nil, fmt.Errorf("failed to store response: %w", err)
	}

	s.logger.Info().
		Str("assignment_id", assignmentID).
		Str("teacher_id", teacherID).
		Bool("late", late).
		Msg("Response submitted")

	if _, err := s.statsService.Recompute(ctx, teacherID); err != nil {
		s.logger.Error().Err(err).Str("teacher_id", teacherID).Msg("Failed to recompute teacher stats")
	}

	return response, nil
}

func (s *submissionService) RecordTeacherStatus(ctx context.Context, assignmentID, teacherID string, target models.TeacherStatus) error {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return apperrors.ErrAssignmentNotFound
	}

	if !assignment.IsAssignedTo(teacherID) {
		return apperrors.ErrNotAssigned
	}

	now := s.clock.Now()

	switch target {
	case models.TeacherStatusDelivered, models.TeacherStatusDeliveredLate:
		existing, err := s.responseRepo.GetByAssignmentAndTeacher(ctx, assignmentID, teacherID)
		if err != nil {
			return fmt.Errorf("failed to get existing response: %w", err)
		}

		files := []string{}
		submittedAt := now
		if existing != nil {
			files = existing.Files
			if existing.SubmittedAt != nil {
				submittedAt = *existing.SubmittedAt
			}
		}

		late := target == models.TeacherStatusDeliveredLate
		response := models.NewSubmittedResponse(uuid.New().String(), assignmentID, teacherID, files, submittedAt, late)
		response.UpdatedAt = now
		if err := s.responseRepo.Upsert(ctx, response); err != nil {
			return fmt.Errorf("failed to store response: %w", err)
		}

	case models.TeacherStatusNotDelivered:
		response := models.NewClosedResponse(uuid.New().String(), assignmentID, teacherID, now)
		if err := s.responseRepo.Upsert(ctx, response); err != nil {
			return fmt.Errorf("failed to store response: %w", err)
		}

	case models.TeacherStatusPending:
		// Back to "no answer yet": the slot is removed entirely.
		if err := s.responseRepo.Delete(ctx, assignmentID, teacherID); err != nil {
			return fmt.Errorf("failed to delete response: %w", err)
		}

	default:
		return apperrors.Validation(fmt.Sprintf("unknown teacher status %q", target))
	}

	s.logger.Info().
		Str("assignment_id", assignmentID).
		Str("teacher_id", teacherID).
		Str("target", string(target)).
		Msg("Teacher status recorded")

	if _, err := s.statsService.Recompute(ctx, teacherID); err != nil {
		s.logger.Error().Err(err).Str("teacher_id", teacherID).Msg("Failed to recompute teacher stats")
	}

	return nil
}
