package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/classward/compliance/assignment-service/internal/apperrors"
	"github.com/classward/compliance/assignment-service/internal/models"
	"github.com/classward/compliance/assignment-service/internal/repository"
)

type TeacherService interface {
	CreateTeacher(ctx context.Context, req *models.CreateTeacherRequest) (*models.Teacher, error)
	GetTeacherByID(ctx context.Context, id string) (*models.Teacher, error)
	GetAllTeachers(ctx context.Context, page, limit int) ([]models.Teacher, int, error)
}

type teacherService struct {
	teacherRepo repository.TeacherRepository
	clock       Clock
	logger      zerolog.Logger
}

func NewTeacherService(teacherRepo repository.TeacherRepository, clock Clock, logger zerolog.Logger) TeacherService {
	return &teacherService{
		teacherRepo: teacherRepo,
		clock:       clock,
		logger:      logger,
	}
}

func (s *teacherService) CreateTeacher(ctx context.Context, req *models.CreateTeacherRequest) (*models.Teacher, error) {
	existing, err := s.teacherRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing teacher: %w", err)
	}
	if existing != nil {
		return nil, apperrors.Conflict("teacher with this email already exists")
	}

	now := s.clock.Now()
	teacher := &models.Teacher{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.teacherRepo.Create(ctx, teacher); err != nil {
		return nil, fmt.Errorf("failed to create teacher: %w", err)
	}

	s.logger.Info().
		Str("teacher_id", teacher.ID).
		Str("email", teacher.Email).
		Msg("Teacher created")

	return teacher, nil
}

func (s *teacherService) GetTeacherByID(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.teacherRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher: %w", err)
	}
	if teacher == nil {
		return nil, apperrors.ErrTeacherNotFound
	}

	return teacher, nil
}

func (s *teacherService) GetAllTeachers(ctx context.Context, page, limit int) ([]models.Teacher, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	offset := (page - 1) * limit

	teachers, total, err := s.teacherRepo.GetAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get teachers: %w", err)
	}

	return teachers, total, nil
}
