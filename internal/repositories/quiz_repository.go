package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/coursehub/backend/internal/models"
)

type quizRepository struct {
	db *sql.DB
}

// NewQuizRepository creates a new quiz repository
func NewQuizRepository(db *sql.DB) *quizRepository {
	return &quizRepository{
		db: db,
	}
}

// Upsert creates or replaces the quiz of a lesson and sets its ID
func (r *quizRepository) Upsert(ctx context.Context, quiz *models.Quiz) error {
	questions, err := json.Marshal(quiz.Questions)
	if err != nil {
		return fmt.Errorf("failed to encode quiz questions: %w", err)
	}

	// id = LAST_INSERT_ID(id) makes LastInsertId return the existing row on update
	query := `
		INSERT INTO quizzes (lesson_id, title, passing_score, time_limit_seconds, shuffle, questions)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			id = LAST_INSERT_ID(id),
			title = VALUES(title),
			passing_score = VALUES(passing_score),
			time_limit_seconds = VALUES(time_limit_seconds),
			shuffle = VALUES(shuffle),
			questions = VALUES(questions)
	`

	result, err := r.db.ExecContext(ctx, query,
		quiz.LessonID,
		quiz.Title,
		quiz.PassingScore,
		quiz.TimeLimitSeconds,
		quiz.Shuffle,
		questions,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert quiz: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	quiz.ID = int(id)

	return nil
}

// GetByLessonID retrieves the quiz of a lesson
func (r *quizRepository) GetByLessonID(ctx context.Context, lessonID int) (*models.Quiz, error) {
	query := `
		SELECT id, lesson_id, title, passing_score, time_limit_seconds, shuffle, questions, updated_at
		FROM quizzes
		WHERE lesson_id = ?
		LIMIT 1
	`

	var (
		quiz      models.Quiz
		questions []byte
	)
	err := r.db.QueryRowContext(ctx, query, lessonID).Scan(
		&quiz.ID,
		&quiz.LessonID,
		&quiz.Title,
		&quiz.PassingScore,
		&quiz.TimeLimitSeconds,
		&quiz.Shuffle,
		&questions,
		&quiz.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("quiz %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if err := json.Unmarshal(questions, &quiz.Questions); err != nil {
		return nil, fmt.Errorf("failed to decode quiz questions: %w", err)
	}

	return &quiz, nil
}
