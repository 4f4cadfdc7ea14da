package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coursehub/backend/internal/models"
)

type progressRepository struct {
	db *sql.DB
}

// NewProgressRepository creates a new lesson progress repository
func NewProgressRepository(db *sql.DB) *progressRepository {
	return &progressRepository{
		db: db,
	}
}

const progressColumns = "id, user_id, course_id, chapter_id, lesson_id, percent, completed, completed_at, updated_at"

func scanProgress(row interface{ Scan(...any) error }) (*models.LessonProgress, error) {
	var (
		progress    models.LessonProgress
		completedAt sql.NullTime
	)
	err := row.Scan(
		&progress.ID,
		&progress.UserID,
		&progress.CourseID,
		&progress.ChapterID,
		&progress.LessonID,
		&progress.Percent,
		&progress.Completed,
		&completedAt,
		&progress.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		progress.CompletedAt = &completedAt.Time
	}
	return &progress, nil
}

// Get retrieves the progress record of a user on a lesson
func (r *progressRepository) Get(ctx context.Context, userID, lessonID int) (*models.LessonProgress, error) {
	query := "SELECT " + progressColumns + " FROM lesson_progress WHERE user_id = ? AND lesson_id = ? LIMIT 1"

	progress, err := scanProgress(r.db.QueryRowContext(ctx, query, userID, lessonID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("lesson progress %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson progress: %w", err)
	}

	return progress, nil
}

// Upsert creates or overwrites the progress record of a user on a lesson
func (r *progressRepository) Upsert(ctx context.Context, progress *models.LessonProgress) error {
	query := `
		INSERT INTO lesson_progress (user_id, course_id, chapter_id, lesson_id, percent, completed, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			chapter_id = VALUES(chapter_id),
			percent = VALUES(percent),
			completed = VALUES(completed),
			completed_at = VALUES(completed_at),
			updated_at = CURRENT_TIMESTAMP(3)
	`

	_, err := r.db.ExecContext(ctx, query,
		progress.UserID,
		progress.CourseID,
		progress.ChapterID,
		progress.LessonID,
		progress.Percent,
		progress.Completed,
		progress.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert lesson progress: %w", err)
	}

	return nil
}

// ListByUserAndCourse retrieves all lesson progress of a user in a course
func (r *progressRepository) ListByUserAndCourse(ctx context.Context, userID, courseID int) ([]models.LessonProgress, error) {
	query := "SELECT " + progressColumns + " FROM lesson_progress WHERE user_id = ? AND course_id = ?"

	rows, err := r.db.QueryContext(ctx, query, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lesson progress: %w", err)
	}
	defer rows.Close()

	records := []models.LessonProgress{}
	for rows.Next() {
		progress, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lesson progress: %w", err)
		}
		records = append(records, *progress)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}
