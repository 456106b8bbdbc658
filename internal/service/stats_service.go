package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/classward/compliance/assignment-service/internal/models"
	"github.com/classward/compliance/assignment-service/internal/repository"
	"github.com/classward/compliance/assignment-service/internal/status"
)

type StatsService interface {
	// Recompute scans every assignment the teacher is on, resolves each
	// through the canonical resolver and replaces the cached record
	// wholesale. Idempotent; safe to call concurrently and redundantly.
	Recompute(ctx context.Context, teacherID string) (*models.TeacherStats, error)
	// GetStats returns the cached counters, computing them lazily when no
	// record exists yet.
	GetStats(ctx context.Context, teacherID string) (*models.TeacherStats, error)
}

type statsService struct {
	assignmentRepo repository.AssignmentRepository
	responseRepo   repository.ResponseRepository
	statsRepo      repository.StatsRepository
	clock          Clock
	logger         zerolog.Logger
}

func NewStatsService(
	assignmentRepo repository.AssignmentRepository,
	responseRepo repository.ResponseRepository,
	statsRepo repository.StatsRepository,
	clock Clock,
	logger zerolog.Logger,
) StatsService {
	return &statsService{
		assignmentRepo: assignmentRepo,
		responseRepo:   responseRepo,
		statsRepo:      statsRepo,
		clock:          clock,
		logger:         logger,
	}
}

func (s *statsService) Recompute(ctx context.Context, teacherID string) (*models.TeacherStats, error) {
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
	stats := &models.TeacherStats{
		TeacherID:   teacherID,
		LastUpdated: now,
	}

	for i := range assignments {
		a := &assignments[i]
		resolved := status.Resolve(now, a.DueDate, a.CloseDate, a.Status, byAssignment[a.ID])

		switch resolved {
		case status.Completed, status.CompletedLate:
			stats.Completed++
		case status.Pending:
			stats.Pending++
		case status.Overdue, status.NotDelivered:
			stats.Overdue++
		}
		stats.Total++
	}

	if err := s.statsRepo.Upsert(ctx, stats); err != nil {
		return nil, fmt.Errorf("failed to store teacher stats: %w", err)
	}

	s.logger.Debug().
		Str("teacher_id", teacherID).
		Int("completed", stats.Completed).
		Int("pending", stats.Pending).
		Int("overdue", stats.Overdue).
		Int("total", stats.Total).
		Msg("Teacher stats recomputed")

	return stats, nil
}

func (s *statsService) GetStats(ctx context.Context, teacherID string) (*models.TeacherStats, error) {
	stats, err := s.statsRepo.GetByTeacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher stats: %w", err)
	}
	if stats != nil {
		return stats, nil
	}

	return s.Recompute(ctx, teacherID)
}
