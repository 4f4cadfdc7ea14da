package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/coursehub/backend/internal/models"
)

type submissionRepository struct {
	db *sql.DB
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *sql.DB) *submissionRepository {
	return &submissionRepository{
		db: db,
	}
}

const submissionColumns = `s.id, s.assignment_id, s.user_id, u.name, s.content, s.attachment_url, s.status,
	s.score, s.feedback, s.late, s.submitted_at, s.graded_at, s.graded_by`

const submissionFrom = " FROM submissions s JOIN users u ON u.id = s.user_id"

func scanSubmission(row interface{ Scan(...any) error }) (*models.Submission, error) {
	var (
		submission models.Submission
		score      sql.NullInt64
		gradedAt   sql.NullTime
		gradedBy   sql.NullInt64
	)
	err := row.Scan(
		&submission.ID,
		&submission.AssignmentID,
		&submission.UserID,
		&submission.UserName,
		&submission.Content,
		&submission.AttachmentURL,
		&submission.Status,
		&score,
		&submission.Feedback,
		&submission.Late,
		&submission.SubmittedAt,
		&gradedAt,
		&gradedBy,
	)
	if err != nil {
		return nil, err
	}
	if score.Valid {
		v := int(score.Int64)
		submission.Score = &v
	}
	if gradedAt.Valid {
		submission.GradedAt = &gradedAt.Time
	}
	if gradedBy.Valid {
		v := int(gradedBy.Int64)
		submission.GradedBy = &v
	}
	return &submission, nil
}

// Create inserts a first submission and sets its ID
func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	query := `
		INSERT INTO submissions (assignment_id, user_id, content, attachment_url, status, feedback, late, submitted_at)
		VALUES (?, ?, ?, ?, ?, '', ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		submission.AssignmentID,
		submission.UserID,
		submission.Content,
		submission.AttachmentURL,
		models.SubmissionStatusSubmitted,
		submission.Late,
		submission.SubmittedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("submission already exists: %w", models.ErrConflict)
		}
		return fmt.Errorf("failed to create submission: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	submission.ID = int(id)
	submission.Status = models.SubmissionStatusSubmitted

	return nil
}

// GetByID retrieves a submission by ID
func (r *submissionRepository) GetByID(ctx context.Context, id int) (*models.Submission, error) {
	query := "SELECT " + submissionColumns + submissionFrom + " WHERE s.id = ? LIMIT 1"

	submission, err := scanSubmission(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("submission %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return submission, nil
}

// GetByAssignmentAndUser retrieves the submission of a user for an assignment
func (r *submissionRepository) GetByAssignmentAndUser(ctx context.Context, assignmentID, userID int) (*models.Submission, error) {
	query := "SELECT " + submissionColumns + submissionFrom + " WHERE s.assignment_id = ? AND s.user_id = ? LIMIT 1"

	submission, err := scanSubmission(r.db.QueryRowContext(ctx, query, assignmentID, userID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("submission %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return submission, nil
}

// Resubmit replaces the content of a submission and puts it back in the grading queue
func (r *submissionRepository) Resubmit(ctx context.Context, submission *models.Submission) error {
	query := `
		UPDATE submissions
		SET content = ?, attachment_url = ?, status = ?, late = ?, submitted_at = ?,
			score = NULL, graded_at = NULL, graded_by = NULL
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		submission.Content,
		submission.AttachmentURL,
		models.SubmissionStatusSubmitted,
		submission.Late,
		submission.SubmittedAt,
		submission.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to resubmit: %w", err)
	}

	submission.Status = models.SubmissionStatusSubmitted
	submission.Score = nil
	submission.GradedAt = nil
	submission.GradedBy = nil
	return nil
}

// ListByAssignment retrieves the submissions of an assignment, optionally filtered by status
func (r *submissionRepository) ListByAssignment(ctx context.Context, assignmentID int, status models.SubmissionStatus) ([]models.Submission, error) {
	query := "SELECT " + submissionColumns + submissionFrom + " WHERE s.assignment_id = ?"
	args := []any{assignmentID}
	if status != "" {
		query += " AND s.status = ?"
		args = append(args, status)
	}
	query += " ORDER BY s.submitted_at, s.id"

	return r.list(ctx, query, args...)
}

// ListByUserAndCourse retrieves a user's submissions for every assignment of a course
func (r *submissionRepository) ListByUserAndCourse(ctx context.Context, userID, courseID int) ([]models.Submission, error) {
	query := "SELECT " + submissionColumns + submissionFrom + `
		JOIN assignments a ON a.id = s.assignment_id
		WHERE s.user_id = ? AND a.course_id = ?
		ORDER BY s.id`

	return r.list(ctx, query, userID, courseID)
}

func (r *submissionRepository) list(ctx context.Context, query string, args ...any) ([]models.Submission, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	submissions := []models.Submission{}
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		submissions = append(submissions, *submission)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return submissions, nil
}

// Grade records a score and feedback for a submission
func (r *submissionRepository) Grade(ctx context.Context, id, score int, feedback string, graderID int, gradedAt time.Time) error {
	query := `
		UPDATE submissions
		SET status = ?, score = ?, feedback = ?, graded_by = ?, graded_at = ?
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, models.SubmissionStatusGraded, score, feedback, graderID, gradedAt, id); err != nil {
		return fmt.Errorf("failed to grade submission: %w", err)
	}
	return nil
}

// Return sends a submission back to the student with feedback and no score
func (r *submissionRepository) Return(ctx context.Context, id int, feedback string, graderID int, returnedAt time.Time) error {
	query := `
		UPDATE submissions
		SET status = ?, score = NULL, feedback = ?, graded_by = ?, graded_at = ?
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, models.SubmissionStatusReturned, feedback, graderID, returnedAt, id); err != nil {
		return fmt.Errorf("failed to return submission: %w", err)
	}
	return nil
}
