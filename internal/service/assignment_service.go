package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/classward/compliance/assignment-service/internal/apperrors"
	"github.com/classward/compliance/assignment-service/internal/models"
	"github.com/classward/compliance/assignment-service/internal/repository"
	"github.com/classward/compliance/assignment-service/internal/status"
)

type AssignmentService interface {
	Create(ctx context.Context, adminID string, req *models.CreateAssignmentRequest) (*models.Assignment, error)
	GetByID(ctx context.Context, id string) (*models.Assignment, error)
	List(ctx context.Context, filter repository.AssignmentFilter) (*models.AssignmentsResponse, error)
	ListForTeacher(ctx context.Context, teacherID, statusFilter, search string) (*models.TeacherAssignmentsResponse, error)
	ListStatuses(ctx context.Context, assignmentID string) ([]models.TeacherStatusEntry, error)
	Cancel(ctx context.Context, assignmentID, adminID string) error
}

type assignmentService struct {
	assignmentRepo repository.AssignmentRepository
	responseRepo   repository.ResponseRepository
	teacherRepo    repository.TeacherRepository
	statsService   StatsService
	notifier       *Notifier
	clock          Clock
	logger         zerolog.Logger
}

func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	responseRepo repository.ResponseRepository,
	teacherRepo repository.TeacherRepository,
	statsService StatsService,
	notifier *Notifier,
	clock Clock,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		assignmentRepo: assignmentRepo,
		responseRepo:   responseRepo,
		teacherRepo:    teacherRepo,
		statsService:   statsService,
		notifier:       notifier,
		clock:          clock,
		logger:         logger,
	}
}

func (s *assignmentService) Create(ctx context.Context, adminID string, req *models.CreateAssignmentRequest) (*models.Assignment, error) {
	if req.DueDate.After(req.CloseDate) {
		return nil, apperrors.Validation("due date must not be after close date")
	}
	if req.PublishDate != nil && !req.PublishDate.Before(req.DueDate) {
		return nil, apperrors.Validation("publish date must be before due date")
	}

	now := s.clock.Now()
	attachments := req.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	assignment := &models.Assignment{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Attachments: attachments,
		PublishDate: req.PublishDate,
		DueDate:     req.DueDate,
		CloseDate:   req.CloseDate,
		IsGeneral:   req.IsGeneral,
		CreatedBy:   adminID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}

	scheduled := req.PublishDate != nil && req.PublishDate.After(now)

	switch {
	case req.IsGeneral && scheduled:
		// Scheduled general assignments snapshot the roster at publication,
		// not at creation; the recipient set stays empty until the
		// publisher picks the item up.
		assignment.AssignedTo = []string{}
	case req.IsGeneral:
		roster, err := s.teacherRepo.ListActiveIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot roster: %w", err)
		}
		assignment.AssignedTo = roster
	default:
		if len(req.AssignedTo) == 0 {
			return nil, apperrors.Validation("assigned_to is required for a targeted assignment")
		}
		for _, teacherID := range req.AssignedTo {
			exists, err := s.teacherRepo.Exists(ctx, teacherID)
			if err != nil {
				return nil, fmt.Errorf("failed to check teacher existence: %w", err)
			}
			if !exists {
				return nil, apperrors.ErrTeacherNotFound
			}
		}
		assignment.AssignedTo = req.AssignedTo
	}

	if scheduled {
		assignment.Status = models.AssignmentStatusScheduled
	} else {
		assignment.Status = models.AssignmentStatusActive
		assignment.PublishedAt = &now
	}

	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	s.logger.Info().
		Str("assignment_id", assignment.ID).
		Str("title", assignment.Title).
		Str("status", assignment.Status.String()).
		Bool("is_general", assignment.IsGeneral).
		Int("recipients", len(assignment.AssignedTo)).
		Msg("Assignment created")

	if assignment.Status == models.AssignmentStatusActive {
		s.notifier.AssignmentPublished(ctx, assignment, assignment.AssignedTo, now.Unix())
	}

	return assignment, nil
}

func (s *assignmentService) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return nil, apperrors.ErrAssignmentNotFound
	}

	return assignment, nil
}

func (s *assignmentService) List(ctx context.Context, filter repository.AssignmentFilter) (*models.AssignmentsResponse, error) {
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	assignments, total, err := s.assignmentRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	return &models.AssignmentsResponse{
		Assignments: assignments,
		Total:       total,
		Page:        filter.Offset/filter.Limit + 1,
		Limit:       filter.Limit,
	}, nil
}

// ListForTeacher renders the recipient view: every visible assignment the
// teacher is on, with the status resolved live instead of read from any
// stored field.
func (s *assignmentService) ListForTeacher(ctx context.Context, teacherID, statusFilter, search string) (*models.TeacherAssignmentsResponse, error) {
	if statusFilter != "" && !status.IsValid(statusFilter) {
		return nil, apperrors.Validation(fmt.Sprintf("unknown status filter %q", statusFilter))
	}

	assignments, err := s.assignmentRepo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments for teacher: %w", err)
	}

	responses, err := s.responseRepo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses for teacher: %w", err)
	}
	byAssignment := make(map[string]*models.Response, len(responses))
	for i := range responses {
		byAssignment[responses[i].AssignmentID] = &responses[i]
	}

	now := s.clock.Now()
	views := []models.TeacherAssignmentView{}
	for i := range assignments {
		a := assignments[i]

		// Scheduled items are not recipient-visible until published.
		if a.Status == models.AssignmentStatusScheduled || a.Status == models.AssignmentStatusPublishing {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(a.Title), strings.ToLower(search)) {
			continue
		}

		resp := byAssignment[a.ID]
		resolved := status.Resolve(now, a.DueDate, a.CloseDate, a.Status, resp)
		if statusFilter != "" && resolved.String() != statusFilter {
			continue
		}

		views = append(views, models.TeacherAssignmentView{
			Assignment:     a,
			ResolvedStatus: resolved.String(),
			Response:       resp,
		})
	}

	return &models.TeacherAssignmentsResponse{
		Assignments: views,
		Total:       len(views),
	}, nil
}

func (s *assignmentService) ListStatuses(ctx context.Context, assignmentID string) ([]models.TeacherStatusEntry, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return nil, apperrors.ErrAssignmentNotFound
	}

	responses, err := s.responseRepo.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	byTeacher := make(map[string]*models.Response, len(responses))
	for i := range responses {
		byTeacher[responses[i].TeacherID] = &responses[i]
	}

	now := s.clock.Now()
	entries := make([]models.TeacherStatusEntry, 0, len(assignment.AssignedTo))
	for _, teacherID := range assignment.AssignedTo {
		resp := byTeacher[teacherID]
		resolved := status.Resolve(now, assignment.DueDate, assignment.CloseDate, assignment.Status, resp)
		entries = append(entries, models.TeacherStatusEntry{
			TeacherID:      teacherID,
			ResolvedStatus: resolved.String(),
			Response:       resp,
		})
	}

	return entries, nil
}

func (s *assignmentService) Cancel(ctx context.Context, assignmentID, adminID string) error {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return apperrors.ErrAssignmentNotFound
	}

	if assignment.Status == models.AssignmentStatusCompleted {
		return apperrors.ErrAlreadyCompleted
	}
	if assignment.Status == models.AssignmentStatusCancelled {
		return apperrors.Conflict("assignment is already cancelled")
	}

	now := s.clock.Now()
	assignment.Status = models.AssignmentStatusCancelled
	assignment.CancelledAt = &now
	assignment.CancelledBy = &adminID
	assignment.UpdatedBy = &adminID
	assignment.UpdatedAt = now

	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		return fmt.Errorf("failed to cancel assignment: %w", err)
	}

	s.logger.Info().
		Str("assignment_id", assignmentID).
		Str("cancelled_by", adminID).
		Msg("Assignment cancelled")

	for _, teacherID := range assignment.AssignedTo {
		if _, err := s.statsService.Recompute(ctx, teacherID); err != nil {
			s.logger.Error().Err(err).Str("teacher_id", teacherID).Msg("Failed to recompute teacher stats")
		}
	}

	return nil
}
