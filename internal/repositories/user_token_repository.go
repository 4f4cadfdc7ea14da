package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/coursehub/backend/internal/models"
)

type userTokenRepository struct {
	db *sql.DB
}

// NewUserTokenRepository creates a new user token repository
func NewUserTokenRepository(db *sql.DB) *userTokenRepository {
	return &userTokenRepository{
		db: db,
	}
}

// Create stores a refresh token for a user
func (r *userTokenRepository) Create(ctx context.Context, userID int, token string) error {
	query := "INSERT INTO user_tokens (user_id, token) VALUES (?, ?)"

	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("failed to create user token: %w", err)
	}

	return nil
}

// GetUserIDByToken resolves a stored refresh token to its user
func (r *userTokenRepository) GetUserIDByToken(ctx context.Context, token string) (int, error) {
	query := "SELECT user_id FROM user_tokens WHERE token = ? LIMIT 1"

	var userID int
	err := r.db.QueryRowContext(ctx, query, token).Scan(&userID)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("refresh token %w", models.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get user token: %w", err)
	}

	return userID, nil
}

// Delete removes a refresh token; it reports not found when the token was not stored
func (r *userTokenRepository) Delete(ctx context.Context, token string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM user_tokens WHERE token = ?", token)
	if err != nil {
		return fmt.Errorf("failed to delete user token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("refresh token %w", models.ErrNotFound)
	}

	return nil
}

// DeleteByUserID removes all refresh tokens of a user
func (r *userTokenRepository) DeleteByUserID(ctx context.Context, userID int) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM user_tokens WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete user tokens: %w", err)
	}
	return nil
}

// DeleteOlderThan removes tokens created before the cutoff and returns how many were removed
func (r *userTokenRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM user_tokens WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
