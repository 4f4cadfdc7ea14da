package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/coursehub/backend/internal/models"
)

type quizAttemptRepository struct {
	db *sql.DB
}

// NewQuizAttemptRepository creates a new quiz attempt repository
func NewQuizAttemptRepository(db *sql.DB) *quizAttemptRepository {
	return &quizAttemptRepository{
		db: db,
	}
}

const attemptColumns = "id, quiz_id, lesson_id, user_id, mode, answers, results, score, max_score, percent, passed, created_at"

func scanAttempt(row interface{ Scan(...any) error }) (*models.QuizAttempt, error) {
	var (
		attempt models.QuizAttempt
		answers []byte
		results []byte
	)
	err := row.Scan(
		&attempt.ID,
		&attempt.QuizID,
		&attempt.LessonID,
		&attempt.UserID,
		&attempt.Mode,
		&answers,
		&results,
		&attempt.Score,
		&attempt.MaxScore,
		&attempt.Percent,
		&attempt.Passed,
		&attempt.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &attempt.Answers); err != nil {
		return nil, fmt.Errorf("failed to decode attempt answers: %w", err)
	}
	if err := json.Unmarshal(results, &attempt.Results); err != nil {
		return nil, fmt.Errorf("failed to decode attempt results: %w", err)
	}
	return &attempt, nil
}

// Create stores a scored attempt and sets its ID
// The schema allows a single graded attempt per user and quiz, a second one is a conflict
func (r *quizAttemptRepository) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	answers, err := json.Marshal(attempt.Answers)
	if err != nil {
		return fmt.Errorf("failed to encode attempt answers: %w", err)
	}
	results, err := json.Marshal(attempt.Results)
	if err != nil {
		return fmt.Errorf("failed to encode attempt results: %w", err)
	}

	query := `
		INSERT INTO quiz_attempts (quiz_id, lesson_id, user_id, mode, answers, results, score, max_score, percent, passed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		attempt.QuizID,
		attempt.LessonID,
		attempt.UserID,
		attempt.Mode,
		answers,
		results,
		attempt.Score,
		attempt.MaxScore,
		attempt.Percent,
		attempt.Passed,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("graded attempt already submitted: %w", models.ErrConflict)
		}
		return fmt.Errorf("failed to create quiz attempt: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	attempt.ID = int(id)

	return nil
}

// ListByUserAndLesson retrieves the attempts of a user on a lesson quiz, newest first
func (r *quizAttemptRepository) ListByUserAndLesson(ctx context.Context, userID, lessonID int) ([]models.QuizAttempt, error) {
	query := "SELECT " + attemptColumns + " FROM quiz_attempts WHERE user_id = ? AND lesson_id = ? ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, userID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quiz attempts: %w", err)
	}
	defer rows.Close()

	attempts := []models.QuizAttempt{}
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quiz attempt: %w", err)
		}
		attempts = append(attempts, *attempt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return attempts, nil
}

// GetGraded retrieves the graded attempt of a user on a quiz
func (r *quizAttemptRepository) GetGraded(ctx context.Context, userID, quizID int) (*models.QuizAttempt, error) {
	query := "SELECT " + attemptColumns + " FROM quiz_attempts WHERE user_id = ? AND quiz_id = ? AND mode = ? LIMIT 1"

	attempt, err := scanAttempt(r.db.QueryRowContext(ctx, query, userID, quizID, models.AttemptModeGraded))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("graded attempt %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get graded attempt: %w", err)
	}

	return attempt, nil
}

// DeleteGraded removes the graded attempt of a user on a quiz
func (r *quizAttemptRepository) DeleteGraded(ctx context.Context, userID, quizID int) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM quiz_attempts WHERE user_id = ? AND quiz_id = ? AND mode = ?",
		userID, quizID, models.AttemptModeGraded,
	)
	if err != nil {
		return fmt.Errorf("failed to delete graded attempt: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("graded attempt %w", models.ErrNotFound)
	}

	return nil
}
