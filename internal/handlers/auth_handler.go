package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coursehub/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps methods for authentication business logic.
type AuthService interface {
	// Method Register creates a student account and returns access and refresh tokens.
	//
	// If the email is taken, an error wrapping models.ErrConflict is returned.
	Register(ctx context.Context, req *models.RegisterRequest) (*models.TokenPair, error)
	// Method Login checks the credentials of an active user and returns access and refresh tokens.
	//
	// Wrong credentials and inactive accounts return an error wrapping models.ErrUnauthorized.
	Login(ctx context.Context, req *models.LoginRequest) (*models.TokenPair, error)
	// Method Refresh rotates a stored refresh token and returns a new pair.
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	// Method Logout forgets the refresh token.
	Logout(ctx context.Context, refreshToken string) error
	// Method Me returns the profile of the user.
	Me(ctx context.Context, userID int) (*models.User, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService   AuthService
	accessMaxAge  time.Duration
	refreshMaxAge time.Duration
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, logger *zap.Logger, accessMaxAge, refreshMaxAge time.Duration) *AuthHandler {
	return &AuthHandler{
		BaseHandler:   BaseHandler{Logger: logger},
		authService:   authService,
		accessMaxAge:  accessMaxAge,
		refreshMaxAge: refreshMaxAge,
	}
}

// RegisterRoutes registers all auth handler routes.
// Credential endpoints get a stricter per-IP limit than the rest of the API.
func (h *AuthHandler) RegisterRoutes(r chi.Router, mw Middlewares) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(10, time.Minute))
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})
		r.Post("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)
		r.With(mw.Auth).Get("/me", h.Me)
	})
}

// Register handles POST /auth/register
// @Summary Register a new student
// @Description Create a student account. Tokens are returned in the body and as HTTP-only cookies.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration request"
// @Success 201 {object} models.TokenPair
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Failure 409 {object} ErrorResponse "Email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	tokens, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "register user")
		return
	}

	h.setTokenCookies(w, tokens)
	h.RespondJSON(w, http.StatusCreated, tokens)
}

// Login handles POST /auth/login
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} models.TokenPair
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	tokens, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "login user")
		return
	}

	h.setTokenCookies(w, tokens)
	h.RespondJSON(w, http.StatusOK, tokens)
}

// Refresh handles POST /auth/refresh
// @Summary Refresh tokens
// @Description The refresh token is read from the body or from the refresh_token cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RefreshRequest false "Refresh token (optional if using cookie)"
// @Success 200 {object} models.TokenPair
// @Failure 400 {object} ErrorResponse "Refresh token required"
// @Failure 401 {object} ErrorResponse "Invalid refresh token"
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken, ok := h.refreshToken(w, r)
	if !ok {
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), refreshToken)
	if err != nil {
		h.RespondServiceError(w, r, err, "refresh tokens")
		return
	}

	h.setTokenCookies(w, tokens)
	h.RespondJSON(w, http.StatusOK, tokens)
}

// Logout handles POST /auth/logout
// @Summary Logout
// @Tags auth
// @Accept json
// @Param request body models.RefreshRequest false "Refresh token (optional if using cookie)"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse "Refresh token required"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	refreshToken, ok := h.refreshToken(w, r)
	if !ok {
		return
	}

	if err := h.authService.Logout(r.Context(), refreshToken); err != nil {
		h.RespondServiceError(w, r, err, "logout user")
		return
	}

	h.clearTokenCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /auth/me
// @Summary Current user profile
// @Tags auth
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}

	user, err := h.authService.Me(r.Context(), v.UserID)
	if err != nil {
		h.RespondServiceError(w, r, err, "load profile")
		return
	}

	h.RespondJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) refreshToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken, true
	}

	cookie, err := r.Cookie("refresh_token")
	if err != nil || cookie.Value == "" {
		h.RespondError(w, http.StatusBadRequest, "refresh token required")
		return "", false
	}
	return cookie.Value, true
}

// setTokenCookies sets access and refresh tokens as HTTP-only cookies
func (h *AuthHandler) setTokenCookies(w http.ResponseWriter, tokens *models.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    tokens.AccessToken,
		Path:     "/",
		MaxAge:   int(h.accessMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    tokens.RefreshToken,
		Path:     "/",
		MaxAge:   int(h.refreshMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{"access_token", "refresh_token"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
