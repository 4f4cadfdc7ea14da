package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coursehub/backend/internal/models"
)

type lessonRepository struct {
	db *sql.DB
}

// NewLessonRepository creates a new lesson repository
func NewLessonRepository(db *sql.DB) *lessonRepository {
	return &lessonRepository{
		db: db,
	}
}

const lessonColumns = "l.id, l.chapter_id, l.course_id, l.slug, l.title, l.kind, l.content, l.video_url, l.duration_seconds, l.position, l.is_preview"

func scanLesson(row interface{ Scan(...any) error }) (*models.Lesson, error) {
	var lesson models.Lesson
	err := row.Scan(
		&lesson.ID,
		&lesson.ChapterID,
		&lesson.CourseID,
		&lesson.Slug,
		&lesson.Title,
		&lesson.Kind,
		&lesson.Content,
		&lesson.VideoURL,
		&lesson.DurationSeconds,
		&lesson.Position,
		&lesson.IsPreview,
	)
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

// Create appends a lesson to the end of its chapter and sets its ID and position
func (r *lessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	position, err := nextPosition(ctx, tx, "lessons", "chapter_id", lesson.ChapterID)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO lessons (chapter_id, course_id, slug, title, kind, content, video_url, duration_seconds, position, is_preview)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query,
		lesson.ChapterID,
		lesson.CourseID,
		lesson.Slug,
		lesson.Title,
		lesson.Kind,
		lesson.Content,
		lesson.VideoURL,
		lesson.DurationSeconds,
		position,
		lesson.IsPreview,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("lesson slug %q already exists in course: %w", lesson.Slug, models.ErrConflict)
		}
		return fmt.Errorf("failed to create lesson: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	lesson.ID = int(id)
	lesson.Position = position
	return nil
}

// GetByID retrieves a lesson by its ID
func (r *lessonRepository) GetByID(ctx context.Context, id int) (*models.Lesson, error) {
	query := "SELECT " + lessonColumns + " FROM lessons l WHERE l.id = ? LIMIT 1"

	lesson, err := scanLesson(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("lesson %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson by id: %w", err)
	}

	return lesson, nil
}

// ExistsBySlugInCourse checks if a lesson slug is taken within a course
func (r *lessonRepository) ExistsBySlugInCourse(ctx context.Context, courseID int, slug string) (bool, error) {
	query := "SELECT EXISTS(SELECT 1 FROM lessons WHERE course_id = ? AND slug = ?)"

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, courseID, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check lesson slug: %w", err)
	}

	return exists, nil
}

// ListByCourse retrieves all lessons of a course ordered by chapter then lesson position
func (r *lessonRepository) ListByCourse(ctx context.Context, courseID int) ([]models.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons l
		JOIN chapters ch ON ch.id = l.chapter_id
		WHERE l.course_id = ?
		ORDER BY ch.position, l.position
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	lessons := []models.Lesson{}
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, *lesson)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return lessons, nil
}

// ListRefsByCourse retrieves lightweight lesson references in course order
func (r *lessonRepository) ListRefsByCourse(ctx context.Context, courseID int) ([]models.LessonRef, error) {
	query := `
		SELECT l.id, l.chapter_id, ch.position, l.position, l.title, l.slug, l.kind
		FROM lessons l
		JOIN chapters ch ON ch.id = l.chapter_id
		WHERE l.course_id = ?
		ORDER BY ch.position, l.position
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lesson refs: %w", err)
	}
	defer rows.Close()

	refs := []models.LessonRef{}
	for rows.Next() {
		var ref models.LessonRef
		if err := rows.Scan(&ref.LessonID, &ref.ChapterID, &ref.ChapterPosition, &ref.Position, &ref.Title, &ref.Slug, &ref.Kind); err != nil {
			return nil, fmt.Errorf("failed to scan lesson ref: %w", err)
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return refs, nil
}

// Update writes all editable columns of a lesson
func (r *lessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	query := `
		UPDATE lessons
		SET slug = ?, title = ?, kind = ?, content = ?, video_url = ?, duration_seconds = ?, is_preview = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		lesson.Slug,
		lesson.Title,
		lesson.Kind,
		lesson.Content,
		lesson.VideoURL,
		lesson.DurationSeconds,
		lesson.IsPreview,
		lesson.ID,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("lesson slug %q already exists in course: %w", lesson.Slug, models.ErrConflict)
		}
		return fmt.Errorf("failed to update lesson: %w", err)
	}

	return nil
}

// Delete removes a lesson and closes the position gap in its chapter
func (r *lessonRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var chapterID, position int
	err = tx.QueryRowContext(ctx, "SELECT chapter_id, position FROM lessons WHERE id = ? FOR UPDATE", id).Scan(&chapterID, &position)
	if err == sql.ErrNoRows {
		return fmt.Errorf("lesson %w", models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get lesson: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM lessons WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}

	if err := closeGap(ctx, tx, "lessons", "chapter_id", chapterID, position); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Reorder sets lesson positions of a chapter to follow ids
func (r *lessonRepository) Reorder(ctx context.Context, chapterID int, ids []int) error {
	return reorder(ctx, r.db, "lessons", "chapter_id", chapterID, ids)
}
