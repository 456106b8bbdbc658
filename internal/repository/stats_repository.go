package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/classward/compliance/assignment-service/internal/models"
)

type StatsRepository interface {
	// Upsert replaces the whole cached record. There is no incremental
	// update path, which keeps redundant and concurrent recomputes safe.
	Upsert(ctx context.Context, stats *models.TeacherStats) error
	GetByTeacher(ctx context.Context, teacherID string) (*models.TeacherStats, error)
}

type statsRepository struct {
	*PostgresRepository
}

func NewStatsRepository(db *sql.DB, logger zerolog.Logger) StatsRepository {
	return &statsRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *statsRepository) Upsert(ctx context.Context, stats *models.TeacherStats) error {
	query := `
		INSERT INTO teacher_stats (teacher_id, completed, pending, overdue, total, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (teacher_id) DO UPDATE
		SET completed = EXCLUDED.completed,
			pending = EXCLUDED.pending,
			overdue = EXCLUDED.overdue,
			total = EXCLUDED.total,
			last_updated = EXCLUDED.last_updated
	`

	_, err := r.db.ExecContext(ctx, query,
		stats.TeacherID,
		stats.Completed,
		stats.Pending,
		stats.Overdue,
		stats.Total,
		stats.LastUpdated,
	)

	return err
}

func (r *statsRepository) GetByTeacher(ctx context.Context, teacherID string) (*models.TeacherStats, error) {
	query := `
		SELECT teacher_id, completed, pending, overdue, total, last_updated
		FROM teacher_stats
		WHERE teacher_id = $1
	`

	stats := &models.TeacherStats{}
	err := r.db.QueryRowContext(ctx, query, teacherID).Scan(
		&stats.TeacherID,
		&stats.Completed,
		&stats.Pending,
		&stats.Overdue,
		&stats.Total,
		&stats.LastUpdated,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return stats, err
}
