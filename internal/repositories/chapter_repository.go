package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coursehub/backend/internal/models"
)

type chapterRepository struct {
	db *sql.DB
}

// NewChapterRepository creates a new chapter repository
func NewChapterRepository(db *sql.DB) *chapterRepository {
	return &chapterRepository{
		db: db,
	}
}

// Create appends a chapter to the end of its course and sets its ID and position
func (r *chapterRepository) Create(ctx context.Context, chapter *models.Chapter) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	position, err := nextPosition(ctx, tx, "chapters", "course_id", chapter.CourseID)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		"INSERT INTO chapters (course_id, title, position) VALUES (?, ?, ?)",
		chapter.CourseID, chapter.Title, position,
	)
	if err != nil {
		return fmt.Errorf("failed to create chapter: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	chapter.ID = int(id)
	chapter.Position = position
	return nil
}

// GetByID retrieves a chapter by its ID
func (r *chapterRepository) GetByID(ctx context.Context, id int) (*models.Chapter, error) {
	query := "SELECT id, course_id, title, position FROM chapters WHERE id = ? LIMIT 1"

	var chapter models.Chapter
	err := r.db.QueryRowContext(ctx, query, id).Scan(&chapter.ID, &chapter.CourseID, &chapter.Title, &chapter.Position)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("chapter %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chapter by id: %w", err)
	}

	return &chapter, nil
}

// ListByCourse retrieves the chapters of a course in position order
func (r *chapterRepository) ListByCourse(ctx context.Context, courseID int) ([]models.Chapter, error) {
	query := "SELECT id, course_id, title, position FROM chapters WHERE course_id = ? ORDER BY position"

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chapters: %w", err)
	}
	defer rows.Close()

	chapters := []models.Chapter{}
	for rows.Next() {
		var chapter models.Chapter
		if err := rows.Scan(&chapter.ID, &chapter.CourseID, &chapter.Title, &chapter.Position); err != nil {
			return nil, fmt.Errorf("failed to scan chapter: %w", err)
		}
		chapters = append(chapters, chapter)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return chapters, nil
}

// UpdateTitle renames a chapter
func (r *chapterRepository) UpdateTitle(ctx context.Context, id int, title string) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE chapters SET title = ? WHERE id = ?", title, id); err != nil {
		return fmt.Errorf("failed to update chapter: %w", err)
	}
	return nil
}

// Delete removes a chapter with its lessons and closes the position gap
func (r *chapterRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var courseID, position int
	err = tx.QueryRowContext(ctx, "SELECT course_id, position FROM chapters WHERE id = ? FOR UPDATE", id).Scan(&courseID, &position)
	if err == sql.ErrNoRows {
		return fmt.Errorf("chapter %w", models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get chapter: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM chapters WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete chapter: %w", err)
	}

	if err := closeGap(ctx, tx, "chapters", "course_id", courseID, position); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Reorder sets chapter positions of a course to follow ids
func (r *chapterRepository) Reorder(ctx context.Context, courseID int, ids []int) error {
	return reorder(ctx, r.db, "chapters", "course_id", courseID, ids)
}
