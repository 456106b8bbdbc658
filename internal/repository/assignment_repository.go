package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/classward/compliance/assignment-service/internal/apperrors"
	"github.com/classward/compliance/assignment-service/internal/models"
)

type AssignmentFilter struct {
	Status    string
	Search    string
	TeacherID string
	Limit     int
	Offset    int
}

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id string) (*models.Assignment, error)
	List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, int, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Assignment, error)
	Update(ctx context.Context, assignment *models.Assignment) error
	ReplaceRecipients(ctx context.Context, assignmentID string, teacherIDs []string) error
	// Fork persists a structural split in one transaction: the new
	// assignment is inserted, the teacher leaves the original's recipient
	// set and the original's version is bumped under the usual
	// compare-and-swap. A failure rolls the whole split back.
	Fork(ctx context.Context, fork, original *models.Assignment, teacherID string) error
	ClaimScheduled(ctx context.Context, now time.Time) ([]models.Assignment, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	MarkPublicationError(ctx context.Context, id, message string, at time.Time) error
	Exists(ctx context.Context, id string) (bool, error)
}

type assignmentRepository struct {
	*PostgresRepository
}

func NewAssignmentRepository(db *sql.DB, logger zerolog.Logger) AssignmentRepository {
	return &assignmentRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const assignmentColumns = `
	id, title, description, attachments, publish_date, due_date, close_date,
	is_general, status, original_assignment_id, publish_error, published_at,
	created_by, completed_at, completed_by, cancelled_at, cancelled_by,
	updated_by, created_at, updated_at, version
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAssignment(row rowScanner) (*models.Assignment, error) {
	a := &models.Assignment{}
	var attachments []byte

	err := row.Scan(
		&a.ID,
		&a.Title,
		&a.Description,
		&attachments,
		&a.PublishDate,
		&a.DueDate,
		&a.CloseDate,
		&a.IsGeneral,
		&a.Status,
		&a.OriginalAssignmentID,
		&a.PublishError,
		&a.PublishedAt,
		&a.CreatedBy,
		&a.CompletedAt,
		&a.CompletedBy,
		&a.CancelledAt,
		&a.CancelledBy,
		&a.UpdatedBy,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.Version,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(attachments, &a.Attachments); err != nil {
		return nil, fmt.Errorf("failed to decode attachments: %w", err)
	}

	return a, nil
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertAssignment(ctx, tx, assignment); err != nil {
		return err
	}

	if err := insertRecipients(ctx, tx, assignment.ID, assignment.AssignedTo); err != nil {
		return err
	}

	return tx.Commit()
}

func insertAssignment(ctx context.Context, tx *sql.Tx, assignment *models.Assignment) error {
	attachments, err := json.Marshal(assignment.Attachments)
	if err != nil {
		return fmt.Errorf("failed to encode attachments: %w", err)
	}

	query := `
		INSERT INTO assignments (
			id, title, description, attachments, publish_date, due_date,
			close_date, is_general, status, original_assignment_id,
			created_by, published_at, created_at, updated_at, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = tx.ExecContext(ctx, query,
		assignment.ID,
		assignment.Title,
		assignment.Description,
		attachments,
		assignment.PublishDate,
		assignment.DueDate,
		assignment.CloseDate,
		assignment.IsGeneral,
		assignment.Status,
		assignment.OriginalAssignmentID,
		assignment.CreatedBy,
		assignment.PublishedAt,
		assignment.CreatedAt,
		assignment.UpdatedAt,
		assignment.Version,
	)
	return err
}

func insertRecipients(ctx context.Context, tx *sql.Tx, assignmentID string, teacherIDs []string) error {
	query := `
		INSERT INTO assignment_recipients (assignment_id, teacher_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	for _, teacherID := range teacherIDs {
		if _, err := tx.ExecContext(ctx, query, assignmentID, teacherID); err != nil {
			return err
		}
	}
	return nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`

	assignment, err := scanAssignment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	recipients, err := r.loadRecipients(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	assignment.AssignedTo = recipients[id]

	return assignment, nil
}

func (r *assignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(a.title ILIKE $%d OR a.description ILIKE $%d)", len(args), len(args)))
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM assignment_recipients ar WHERE ar.assignment_id = a.id AND ar.teacher_id = $%d)",
			len(args)))
	}

	where := strings.Join(conditions, " AND ")

	countQuery := `SELECT COUNT(*) FROM assignments a WHERE ` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT %s FROM assignments a
		WHERE %s
		ORDER BY a.created_at DESC
		LIMIT $%d OFFSET $%d
	`, qualifyColumns("a"), where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	assignments, err := r.collect(ctx, rows)
	if err != nil {
		return nil, 0, err
	}

	return assignments, total, nil
}

func qualifyColumns(alias string) string {
	cols := strings.Split(assignmentColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func (r *assignmentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Assignment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM assignments a
		JOIN assignment_recipients ar ON ar.assignment_id = a.id
		WHERE ar.teacher_id = $1
		ORDER BY a.due_date
	`, qualifyColumns("a"))

	rows, err := r.db.QueryContext(ctx, query, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collect(ctx, rows)
}

func (r *assignmentRepository) collect(ctx context.Context, rows *sql.Rows) ([]models.Assignment, error) {
	var assignments []models.Assignment
	var ids []string

	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *assignment)
		ids = append(ids, assignment.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return assignments, nil
	}

	recipients, err := r.loadRecipients(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range assignments {
		assignments[i].AssignedTo = recipients[assignments[i].ID]
	}

	return assignments, nil
}

func (r *assignmentRepository) loadRecipients(ctx context.Context, assignmentIDs []string) (map[string][]string, error) {
	query := `
		SELECT assignment_id, teacher_id
		FROM assignment_recipients
		WHERE assignment_id = ANY($1)
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(assignmentIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipients := make(map[string][]string)
	for rows.Next() {
		var assignmentID, teacherID string
		if err := rows.Scan(&assignmentID, &teacherID); err != nil {
			return nil, err
		}
		recipients[assignmentID] = append(recipients[assignmentID], teacherID)
	}

	return recipients, rows.Err()
}

// Update performs a compare-and-swap on the version column. A concurrent
// writer that got there first makes this call fail with ErrVersionConflict
// instead of silently losing their update.
func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	attachments, err := json.Marshal(assignment.Attachments)
	if err != nil {
		return fmt.Errorf("failed to encode attachments: %w", err)
	}

	query := `
		UPDATE assignments
		SET title = $1, description = $2, attachments = $3, publish_date = $4,
			due_date = $5, close_date = $6, is_general = $7, status = $8,
			publish_error = $9, published_at = $10, completed_at = $11,
			completed_by = $12, cancelled_at = $13, cancelled_by = $14,
			updated_by = $15, updated_at = $16, version = version + 1
		WHERE id = $17 AND version = $18
	`

	result, err := r.db.ExecContext(ctx, query,
		assignment.Title,
		assignment.Description,
		attachments,
		assignment.PublishDate,
		assignment.DueDate,
		assignment.CloseDate,
		assignment.IsGeneral,
		assignment.Status,
		assignment.PublishError,
		assignment.PublishedAt,
		assignment.CompletedAt,
		assignment.CompletedBy,
		assignment.CancelledAt,
		assignment.CancelledBy,
		assignment.UpdatedBy,
		assignment.UpdatedAt,
		assignment.ID,
		assignment.Version,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrVersionConflict
	}

	assignment.Version++
	return nil
}

func (r *assignmentRepository) ReplaceRecipients(ctx context.Context, assignmentID string, teacherIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM assignment_recipients WHERE assignment_id = $1`, assignmentID); err != nil {
		return err
	}

	if err := insertRecipients(ctx, tx, assignmentID, teacherIDs); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *assignmentRepository) Fork(ctx context.Context, fork, original *models.Assignment, teacherID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertAssignment(ctx, tx, fork); err != nil {
		return err
	}
	if err := insertRecipients(ctx, tx, fork.ID, fork.AssignedTo); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM assignment_recipients WHERE assignment_id = $1 AND teacher_id = $2`,
		original.ID, teacherID); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE assignments
		SET updated_by = $1, updated_at = $2, version = version + 1
		WHERE id = $3 AND version = $4
	`,
		original.UpdatedBy,
		original.UpdatedAt,
		original.ID,
		original.Version,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrVersionConflict
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	original.Version++
	return nil
}

// ClaimScheduled atomically flips due scheduled assignments to publishing
// and returns them. Two overlapping scheduler runs can never both claim the
// same row. The version bump also invalidates any pre-claim read held by a
// concurrent writer, so a stale update cannot overwrite the lease.
func (r *assignmentRepository) ClaimScheduled(ctx context.Context, now time.Time) ([]models.Assignment, error) {
	query := `
		UPDATE assignments
		SET status = $1, updated_at = $2, version = version + 1
		WHERE status = $3 AND publish_date IS NOT NULL AND publish_date <= $2
		RETURNING ` + assignmentColumns

	rows, err := r.db.QueryContext(ctx, query,
		models.AssignmentStatusPublishing,
		now,
		models.AssignmentStatusScheduled,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collect(ctx, rows)
}

func (r *assignmentRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	query := `
		UPDATE assignments
		SET status = $1, published_at = $2, publish_error = NULL,
			updated_at = $2, version = version + 1
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, models.AssignmentStatusActive, publishedAt, id)
	return err
}

func (r *assignmentRepository) MarkPublicationError(ctx context.Context, id, message string, at time.Time) error {
	query := `
		UPDATE assignments
		SET status = $1, publish_error = $2, updated_at = $3, version = version + 1
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.AssignmentStatusPublicationError, message, at, id)
	return err
}

func (r *assignmentRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM assignments WHERE id = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, id).Scan(&exists)
	return exists, err
}
