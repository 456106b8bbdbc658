package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/classward/compliance/assignment-service/internal/models"
)

type ResponseRepository interface {
	// Upsert replaces any existing response for the same (assignment,
	// teacher) pair. Resubmission before the close date is overwrite, not
	// append.
	Upsert(ctx context.Context, response *models.Response) error
	GetByAssignmentAndTeacher(ctx context.Context, assignmentID, teacherID string) (*models.Response, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.Response, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Response, error)
	Delete(ctx context.Context, assignmentID, teacherID string) error
}

type responseRepository struct {
	*PostgresRepository
}

func NewResponseRepository(db *sql.DB, logger zerolog.Logger) ResponseRepository {
	return &responseRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const responseColumns = `
	id, assignment_id, teacher_id, files, submitted_at,
	submission_status, review_status, created_at, updated_at
`

func scanResponse(row rowScanner) (*models.Response, error) {
	resp := &models.Response{}
	var files []byte

	err := row.Scan(
		&resp.ID,
		&resp.AssignmentID,
		&resp.TeacherID,
		&files,
		&resp.SubmittedAt,
		&resp.SubmissionStatus,
		&resp.ReviewStatus,
		&resp.CreatedAt,
		&resp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(files, &resp.Files); err != nil {
		return nil, fmt.Errorf("failed to decode files: %w", err)
	}

	return resp, nil
}

func (r *responseRepository) Upsert(ctx context.Context, response *models.Response) error {
	files, err := json.Marshal(response.Files)
	if err != nil {
		return fmt.Errorf("failed to encode files: %w", err)
	}

	query := `
		INSERT INTO responses (
			id, assignment_id, teacher_id, files, submitted_at,
			submission_status, review_status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (assignment_id, teacher_id) DO UPDATE
		SET files = EXCLUDED.files,
			submitted_at = EXCLUDED.submitted_at,
			submission_status = EXCLUDED.submission_status,
			review_status = EXCLUDED.review_status,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		response.ID,
		response.AssignmentID,
		response.TeacherID,
		files,
		response.SubmittedAt,
		response.SubmissionStatus,
		response.ReviewStatus,
		response.CreatedAt,
		response.UpdatedAt,
	)

	return err
}

func (r *responseRepository) GetByAssignmentAndTeacher(ctx context.Context, assignmentID, teacherID string) (*models.Response, error) {
	query := `SELECT ` + responseColumns + `
		FROM responses
		WHERE assignment_id = $1 AND teacher_id = $2
	`

	response, err := scanResponse(r.db.QueryRowContext(ctx, query, assignmentID, teacherID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return response, err
}

func (r *responseRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.Response, error) {
	query := `SELECT ` + responseColumns + `
		FROM responses
		WHERE assignment_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []models.Response
	for rows.Next() {
		response, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *response)
	}

	return responses, rows.Err()
}

func (r *responseRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Response, error) {
	query := `SELECT ` + responseColumns + `
		FROM responses
		WHERE teacher_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []models.Response
	for rows.Next() {
		response, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *response)
	}

	return responses, rows.Err()
}

func (r *responseRepository) Delete(ctx context.Context, assignmentID, teacherID string) error {
	query := `DELETE FROM responses WHERE assignment_id = $1 AND teacher_id = $2`
	_, err := r.db.ExecContext(ctx, query, assignmentID, teacherID)
	return err
}
