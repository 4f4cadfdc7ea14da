package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coursehub/backend/internal/auth/service"
	"github.com/coursehub/backend/internal/models"
	"github.com/coursehub/backend/internal/validation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is the interface that wraps methods for User table data access
type UserRepository interface {
	// Method Create inserts a new user into the database.
	//
	// "user" parameter is used to create a new user. Its ID is set on success.
	//
	// If the email is already registered, an error wrapping models.ErrConflict will be returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByID retrieves a user by ID.
	//
	// "id" parameter is used to retrieve a user by ID.
	//
	// If user with such ID does not exist, the error will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.User, error)
	// Method GetByEmail retrieves a user by email.
	//
	// "email" parameter is used to retrieve a user by lower-cased email.
	//
	// If user with such email does not exist, the error will be returned together with "nil" value.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Method List retrieves a page of users.
	//
	// "role" parameter filters by role when not nil.
	// "search" parameter matches name or email.
	// "page" and "count" parameters are used for pagination.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	List(ctx context.Context, role *models.Role, search string, page, count int) ([]models.UserListItem, error)
	// Method UpdateRole changes the role of a user.
	//
	// If user with such ID does not exist, the error will be returned.
	UpdateRole(ctx context.Context, id int, role models.Role) error
	// Method SetActive activates or deactivates a user.
	//
	// If user with such ID does not exist, the error will be returned.
	SetActive(ctx context.Context, id int, active bool) error
	// Method UpdatePassword replaces the password hash of a user.
	//
	// If user with such ID does not exist, the error will be returned.
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
}

// UserTokenRepository is the interface that wraps methods for UserToken table data access
type UserTokenRepository interface {
	// Method Create stores a refresh token of a user.
	//
	// "userID" parameter is the owner of the token.
	// "token" parameter is the refresh token string.
	//
	// If some error occurs during token creation, the error will be returned.
	Create(ctx context.Context, userID int, token string) error
	// Method GetUserIDByToken retrieves the owner of a stored refresh token.
	//
	// "token" parameter is the refresh token string.
	//
	// If the token is not stored, an error wrapping models.ErrNotFound will be returned together with "0" value.
	GetUserIDByToken(ctx context.Context, token string) (int, error)
	// Method Delete removes a stored refresh token.
	//
	// If the token is not stored, an error wrapping models.ErrNotFound will be returned.
	Delete(ctx context.Context, token string) error
	// Method DeleteByUserID removes all refresh tokens of a user.
	DeleteByUserID(ctx context.Context, userID int) error
}

const passwordPolicyMessage = "password must be at least 8 characters, contain no spaces and not be only digits"

// authService implements registration, login and refresh token rotation
type authService struct {
	userRepo       UserRepository
	userTokenRepo  UserTokenRepository
	tokenGenerator *service.TokenGenerator
	logger         *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo UserRepository,
	userTokenRepo UserTokenRepository,
	tokenGenerator *service.TokenGenerator,
	logger *zap.Logger,
) *authService {
	return &authService{
		userRepo:       userRepo,
		userTokenRepo:  userTokenRepo,
		tokenGenerator: tokenGenerator,
		logger:         logger,
	}
}

// Register creates a student account and signs it in
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.TokenPair, error) {
	email := normalizeEmail(req.Email)
	if !validation.ValidPassword(req.Password) {
		return nil, models.NewValidationError("password", passwordPolicyMessage)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(passwordHash),
		Role:         models.RoleStudent,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Int("userId", user.ID))
	return generateAndSaveTokens(ctx, s.tokenGenerator, s.userTokenRepo, user.ID, user.Role)
}

// Login authenticates a user by email and password
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", models.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", models.ErrUnauthorized)
	}

	if !user.IsActive {
		return nil, fmt.Errorf("account is deactivated: %w", models.ErrForbidden)
	}

	return generateAndSaveTokens(ctx, s.tokenGenerator, s.userTokenRepo, user.ID, user.Role)
}

// Refresh rotates a stored refresh token and issues a new token pair
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)

	if err := s.tokenGenerator.ValidateRefreshToken(refreshToken); err != nil {
		// Expired tokens are dropped so they do not pile up until the cleanup job runs
		if delErr := s.userTokenRepo.Delete(ctx, refreshToken); delErr != nil && !errors.Is(delErr, models.ErrNotFound) {
			s.logger.Warn("failed to delete invalid refresh token", zap.Error(delErr))
		}
		return nil, fmt.Errorf("invalid or expired refresh token: %w", models.ErrUnauthorized)
	}

	userID, err := s.userTokenRepo.GetUserIDByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("refresh token is not recognized: %w", models.ErrUnauthorized)
		}
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("account is deactivated: %w", models.ErrForbidden)
	}

	if err := s.userTokenRepo.Delete(ctx, refreshToken); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Another request rotated the same token first
			return nil, fmt.Errorf("refresh token is not recognized: %w", models.ErrUnauthorized)
		}
		return nil, err
	}

	return generateAndSaveTokens(ctx, s.tokenGenerator, s.userTokenRepo, user.ID, user.Role)
}

// Logout forgets a refresh token; unknown tokens are ignored
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	err := s.userTokenRepo.Delete(ctx, strings.TrimSpace(refreshToken))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}
	return nil
}

// Me returns the profile of the signed in user
func (s *authService) Me(ctx context.Context, userID int) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// generateAndSaveTokens issues a token pair and persists the refresh token
func generateAndSaveTokens(ctx context.Context, tokenGenerator *service.TokenGenerator,
	userTokenRepo UserTokenRepository, userID int, role models.Role) (*models.TokenPair, error) {
	accessToken, refreshToken, err := tokenGenerator.GenerateTokens(userID, int(role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	if err := userTokenRepo.Create(ctx, userID, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &models.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
