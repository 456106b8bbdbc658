package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/classward/compliance/assignment-service/internal/apperrors"
	"github.com/classward/compliance/assignment-service/internal/models"
)

type TeacherRepository interface {
	Create(ctx context.Context, teacher *models.Teacher) error
	GetByID(ctx context.Context, id string) (*models.Teacher, error)
	GetByEmail(ctx context.Context, email string) (*models.Teacher, error)
	GetAll(ctx context.Context, limit, offset int) ([]models.Teacher, int, error)
	Exists(ctx context.Context, id string) (bool, error)
	ListActiveIDs(ctx context.Context) ([]string, error)
}

type teacherRepository struct {
	*PostgresRepository
}

func NewTeacherRepository(db *sql.DB, logger zerolog.Logger) TeacherRepository {
	return &teacherRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *teacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	query := `
		INSERT INTO teachers (id, name, email, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		teacher.ID,
		teacher.Name,
		teacher.Email,
		teacher.Active,
		teacher.CreatedAt,
		teacher.UpdatedAt,
	)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return apperrors.Conflict("teacher with this email already exists")
	}

	return err
}

func (r *teacherRepository) GetByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := `
		SELECT id, name, email, active, created_at, updated_at
		FROM teachers
		WHERE id = $1
	`

	teacher := &models.Teacher{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&teacher.ID,
		&teacher.Name,
		&teacher.Email,
		&teacher.Active,
		&teacher.CreatedAt,
		&teacher.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return teacher, err
}

func (r *teacherRepository) GetByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	query := `
		SELECT id, name, email, active, created_at, updated_at
		FROM teachers
		WHERE email = $1
	`

	teacher := &models.Teacher{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&teacher.ID,
		&teacher.Name,
		&teacher.Email,
		&teacher.Active,
		&teacher.CreatedAt,
		&teacher.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return teacher, err
}

func (r *teacherRepository) GetAll(ctx context.Context, limit, offset int) ([]models.Teacher, int, error) {
	countQuery := `SELECT COUNT(*) FROM teachers`
	var total int
	err := r.db.QueryRowContext(ctx, countQuery).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, name, email, active, created_at, updated_at
		FROM teachers
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var teachers []models.Teacher
	for rows.Next() {
		var teacher models.Teacher
		err := rows.Scan(
			&teacher.ID,
			&teacher.Name,
			&teacher.Email,
			&teacher.Active,
			&teacher.CreatedAt,
			&teacher.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		teachers = append(teachers, teacher)
	}

	return teachers, total, nil
}

func (r *teacherRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM teachers WHERE id = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, id).Scan(&exists)
	return exists, err
}

func (r *teacherRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	query := `SELECT id FROM teachers WHERE active = TRUE ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
