package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/coursehub/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUserTestRepository(t *testing.T) (*userRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, cleanup := setupMockDB(t)
	return NewUserRepository(db), mock, cleanup
}

func userRow(mock sqlmock.Sqlmock) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}).
		AddRow(7, "Rahim", "rahim@example.com", "hash", 2, true, now, now)
}

func TestNewUserRepository(t *testing.T) {
	db := &sql.DB{}

	repo := NewUserRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestUserRepository_Create(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
		errorContains string
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs("Rahim", "rahim@example.com", "hash", models.RoleStudent, true).
					WillReturnResult(sqlmock.NewResult(11, 1))
			},
		},
		{
			name: "duplicate email",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users`).WillReturnError(duplicateEntryError())
			},
			expectedError: models.ErrConflict,
			errorContains: "email already registered",
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users`).WillReturnError(errors.New("connection lost"))
			},
			errorContains: "failed to create user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()
			tt.setupMock(mock)

			user := &models.User{Name: "Rahim", Email: "rahim@example.com", PasswordHash: "hash", Role: models.RoleStudent, IsActive: true}
			err := repo.Create(context.Background(), user)

			if tt.errorContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				if tt.expectedError != nil {
					assert.ErrorIs(t, err, tt.expectedError)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, 11, user.ID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock, cleanup := setupUserTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \?`).
			WithArgs("rahim@example.com").
			WillReturnRows(userRow(mock))

		user, err := repo.GetByEmail(context.Background(), "rahim@example.com")

		require.NoError(t, err)
		assert.Equal(t, 7, user.ID)
		assert.Equal(t, models.RoleInstructor, user.Role)
		assert.True(t, user.IsActive)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, cleanup := setupUserTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \?`).
			WithArgs("ghost@example.com").
			WillReturnError(sql.ErrNoRows)

		user, err := repo.GetByEmail(context.Background(), "ghost@example.com")

		assert.Nil(t, user)
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_List(t *testing.T) {
	role := models.RoleInstructor
	tests := []struct {
		name      string
		role      *models.Role
		search    string
		setupMock func(sqlmock.Sqlmock)
	}{
		{
			name: "no filters",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, name, email, role, is_active, created_at FROM users ORDER BY id DESC LIMIT \? OFFSET \?`).
					WithArgs(20, 20).
					WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "role", "is_active", "created_at"}).
						AddRow(1, "A", "a@example.com", 1, true, time.Now()))
			},
		},
		{
			name:   "role and search",
			role:   &role,
			search: "kar",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM users WHERE role = \? AND \(name LIKE \? ESCAPE '!' OR email LIKE \? ESCAPE '!'\)`).
					WithArgs(models.RoleInstructor, "%kar%", "%kar%", 20, 20).
					WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "role", "is_active", "created_at"}).
						AddRow(2, "Karim", "karim@example.com", 2, false, time.Now()))
			},
		},
		{
			name:   "search wildcards match literally",
			search: "a_b%",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM users WHERE \(name LIKE \? ESCAPE '!' OR email LIKE \? ESCAPE '!'\)`).
					WithArgs("%a!_b!%%", "%a!_b!%%", 20, 20).
					WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "role", "is_active", "created_at"}).
						AddRow(3, "a_b%", "ab@example.com", 1, true, time.Now()))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()
			tt.setupMock(mock)

			users, err := repo.List(context.Background(), tt.role, tt.search, 2, 20)

			require.NoError(t, err)
			assert.Len(t, users, 1)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_UpdateRole(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
	}{
		{
			name: "updated",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE users SET role = \? WHERE id = \?`).
					WithArgs(models.RoleAdmin, 7).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "unchanged value on existing user",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE users SET role`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \?`).WithArgs(7).WillReturnRows(userRow(mock))
			},
		},
		{
			name: "missing user",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE users SET role`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \?`).WithArgs(7).WillReturnError(sql.ErrNoRows)
			},
			expectedError: models.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()
			tt.setupMock(mock)

			err := repo.UpdateRole(context.Background(), 7, models.RoleAdmin)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserTokenRepository(t *testing.T) {
	t.Run("resolve stored token", func(t *testing.T) {
		db, mock, cleanup := setupMockDB(t)
		defer cleanup()
		repo := NewUserTokenRepository(db)

		mock.ExpectQuery(`SELECT user_id FROM user_tokens WHERE token = \?`).
			WithArgs("tok").
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(3))

		userID, err := repo.GetUserIDByToken(context.Background(), "tok")

		require.NoError(t, err)
		assert.Equal(t, 3, userID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete unknown token", func(t *testing.T) {
		db, mock, cleanup := setupMockDB(t)
		defer cleanup()
		repo := NewUserTokenRepository(db)

		mock.ExpectExec(`DELETE FROM user_tokens WHERE token = \?`).
			WithArgs("tok").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), "tok")

		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete older than cutoff", func(t *testing.T) {
		db, mock, cleanup := setupMockDB(t)
		defer cleanup()
		repo := NewUserTokenRepository(db)
		cutoff := time.Now().Add(-7 * 24 * time.Hour)

		mock.ExpectExec(`DELETE FROM user_tokens WHERE created_at < \?`).
			WithArgs(cutoff).
			WillReturnResult(sqlmock.NewResult(0, 4))

		removed, err := repo.DeleteOlderThan(context.Background(), cutoff)

		require.NoError(t, err)
		assert.Equal(t, int64(4), removed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
