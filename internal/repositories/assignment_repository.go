package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coursehub/backend/internal/models"
)

type assignmentRepository struct {
	db *sql.DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *sql.DB) *assignmentRepository {
	return &assignmentRepository{
		db: db,
	}
}

const assignmentColumns = "id, course_id, lesson_id, title, instructions, max_score, due_at, created_at"

func scanAssignment(row interface{ Scan(...any) error }) (*models.Assignment, error) {
	var (
		assignment models.Assignment
		lessonID   sql.NullInt64
		dueAt      sql.NullTime
	)
	err := row.Scan(
		&assignment.ID,
		&assignment.CourseID,
		&lessonID,
		&assignment.Title,
		&assignment.Instructions,
		&assignment.MaxScore,
		&dueAt,
		&assignment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lessonID.Valid {
		id := int(lessonID.Int64)
		assignment.LessonID = &id
	}
	if dueAt.Valid {
		assignment.DueAt = &dueAt.Time
	}
	return &assignment, nil
}

// Create inserts a new assignment and sets its ID
func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	query := `
		INSERT INTO assignments (course_id, lesson_id, title, instructions, max_score, due_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		assignment.CourseID,
		assignment.LessonID,
		assignment.Title,
		assignment.Instructions,
		assignment.MaxScore,
		assignment.DueAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	assignment.ID = int(id)

	return nil
}

// GetByID retrieves an assignment by ID
func (r *assignmentRepository) GetByID(ctx context.Context, id int) (*models.Assignment, error) {
	query := "SELECT " + assignmentColumns + " FROM assignments WHERE id = ? LIMIT 1"

	assignment, err := scanAssignment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("assignment %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	return assignment, nil
}

// ListByCourse retrieves the assignments of a course, soonest due first
func (r *assignmentRepository) ListByCourse(ctx context.Context, courseID int) ([]models.Assignment, error) {
	query := "SELECT " + assignmentColumns + ` FROM assignments WHERE course_id = ?
		ORDER BY due_at IS NULL, due_at, id`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	assignments := []models.Assignment{}
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, *assignment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return assignments, nil
}

// Update writes the editable fields of an assignment
func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	query := `
		UPDATE assignments
		SET title = ?, instructions = ?, max_score = ?, due_at = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		assignment.Title,
		assignment.Instructions,
		assignment.MaxScore,
		assignment.DueAt,
		assignment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}

	return nil
}

// Delete removes an assignment and, through the foreign key, its submissions
func (r *assignmentRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM assignments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("assignment %w", models.ErrNotFound)
	}

	return nil
}
