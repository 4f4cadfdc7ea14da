package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coursehub/backend/internal/models"
	"github.com/coursehub/backend/internal/validation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// StatsRepository is the interface that wraps the admin dashboard queries
type StatsRepository interface {
	// Method Dashboard counts users, courses, enrollments, reviews and submissions.
	//
	// "since" parameter is the start of the recent enrollments window.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	Dashboard(ctx context.Context, since time.Time) (*models.DashboardStats, error)
}

const recentWindow = 30 * 24 * time.Hour

// adminService implements user administration and the dashboard
type adminService struct {
	userRepo      UserRepository
	userTokenRepo UserTokenRepository
	statsRepo     StatsRepository
	logger        *zap.Logger
	now           func() time.Time
}

// NewAdminService creates a new admin service
func NewAdminService(
	userRepo UserRepository,
	userTokenRepo UserTokenRepository,
	statsRepo StatsRepository,
	logger *zap.Logger,
) *adminService {
	return &adminService{
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		statsRepo:     statsRepo,
		logger:        logger,
		now:           time.Now,
	}
}

// Dashboard returns the admin overview; recent enrollments cover the last 30 days
func (s *adminService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	return s.statsRepo.Dashboard(ctx, s.now().Add(-recentWindow))
}

// ListUsers retrieves a page of users filtered by role name and search text
func (s *adminService) ListUsers(ctx context.Context, role, search string, page, count int) ([]models.UserListItem, error) {
	page, count = models.NormalizePage(page, count, 20, 100)

	var rolePtr *models.Role
	if role != "" {
		r, ok := models.RoleNames[role]
		if !ok {
			return nil, models.NewValidationError("role", "role must be one of student, instructor, admin")
		}
		rolePtr = &r
	}

	return s.userRepo.List(ctx, rolePtr, strings.TrimSpace(search), page, count)
}

// UpdateUserRole changes the role of a user. Admins cannot change their own role.
func (s *adminService) UpdateUserRole(ctx context.Context, adminID, userID int, role string) error {
	r, ok := models.RoleNames[role]
	if !ok {
		return models.NewValidationError("role", "role must be one of student, instructor, admin")
	}
	if adminID == userID {
		return fmt.Errorf("cannot change own role: %w", models.ErrForbidden)
	}

	if err := s.userRepo.UpdateRole(ctx, userID, r); err != nil {
		return err
	}

	s.logger.Info("user role changed", zap.Int("userId", userID), zap.String("role", role), zap.Int("adminId", adminID))
	return nil
}

// SetUserActive activates or deactivates a user. Deactivation signs the user out everywhere.
func (s *adminService) SetUserActive(ctx context.Context, adminID, userID int, active bool) error {
	if adminID == userID && !active {
		return fmt.Errorf("cannot deactivate own account: %w", models.ErrForbidden)
	}

	if err := s.userRepo.SetActive(ctx, userID, active); err != nil {
		return err
	}

	if !active {
		if err := s.userTokenRepo.DeleteByUserID(ctx, userID); err != nil {
			s.logger.Error("failed to delete tokens of deactivated user", zap.Int("userId", userID), zap.Error(err))
			return err
		}
	}

	s.logger.Info("user activation changed", zap.Int("userId", userID), zap.Bool("active", active), zap.Int("adminId", adminID))
	return nil
}

// CreateAdmin creates an admin account, or promotes an existing account with the same email
func (s *adminService) CreateAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if !validation.ValidPassword(password) {
		return nil, models.NewValidationError("password", passwordPolicyMessage)
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		if err := s.userRepo.UpdateRole(ctx, existing.ID, models.RoleAdmin); err != nil {
			return nil, err
		}
		if err := s.setPassword(ctx, existing.ID, password); err != nil {
			return nil, err
		}
		existing.Role = models.RoleAdmin
		return existing, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ResetPassword sets a new password and revokes all refresh tokens of the user
func (s *adminService) ResetPassword(ctx context.Context, email, password string) error {
	if !validation.ValidPassword(password) {
		return models.NewValidationError("password", passwordPolicyMessage)
	}

	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}

	if err := s.setPassword(ctx, user.ID, password); err != nil {
		return err
	}
	return s.userTokenRepo.DeleteByUserID(ctx, user.ID)
}

func (s *adminService) setPassword(ctx context.Context, userID int, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.userRepo.UpdatePassword(ctx, userID, string(hash))
}
