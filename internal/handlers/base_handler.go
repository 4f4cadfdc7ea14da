// Package handlers exposes the services over HTTP with chi
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	authMiddleware "github.com/coursehub/backend/internal/auth/middleware"
	"github.com/coursehub/backend/internal/models"
	"github.com/coursehub/backend/internal/validation"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Middlewares are the access guards handlers attach to their routes
type Middlewares struct {
	Auth         func(http.Handler) http.Handler
	OptionalAuth func(http.Handler) http.Handler
	Instructor   func(http.Handler) http.Handler
	Admin        func(http.Handler) http.Handler
	APIKey       func(http.Handler) http.Handler
}

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, ErrorResponse{Error: message})
}

// RespondServiceError maps a service error to its HTTP status.
// Unexpected errors are logged and answered with a generic 500.
func (h *BaseHandler) RespondServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.RespondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation failed", Fields: validationErr.Fields})
	case errors.Is(err, models.ErrNotFound):
		h.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrConflict):
		h.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrNotEnrolled), errors.Is(err, models.ErrForbidden):
		h.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrUnauthorized):
		h.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, models.ErrPaymentRequired):
		h.RespondError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrNothingChanged):
		h.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		h.Logger.Error("failed to "+action, zap.String("path", r.URL.Path), zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decode reads a JSON body into dst and validates it, writing the 400 response itself
func (h *BaseHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validation.Struct(dst); err != nil {
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			h.RespondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation failed", Fields: validationErr.Fields})
			return false
		}
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// pathID parses a positive integer URL parameter
func (h *BaseHandler) pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// viewer returns the authenticated caller, or an anonymous viewer on public routes
func viewer(r *http.Request) models.Viewer {
	userID, ok := authMiddleware.GetUserID(r.Context())
	if !ok {
		return models.Viewer{}
	}
	role, _ := authMiddleware.GetRole(r.Context())
	return models.Viewer{UserID: userID, Role: models.Role(role)}
}

// requireViewer returns the authenticated caller or writes 401
func (h *BaseHandler) requireViewer(w http.ResponseWriter, r *http.Request) (models.Viewer, bool) {
	v := viewer(r)
	if !v.Authenticated() {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return v, false
	}
	return v, true
}

// queryInt reads an optional integer query parameter, returning def when absent
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.NewValidationError(name, name+" must be an integer")
	}
	return n, nil
}

// queryIntPtr reads an optional integer query parameter, nil when absent
func queryIntPtr(r *http.Request, name string) (*int, error) {
	if r.URL.Query().Get(name) == "" {
		return nil, nil
	}
	n, err := queryInt(r, name, 0)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// queryBoolPtr reads an optional boolean query parameter, nil when absent
func queryBoolPtr(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, models.NewValidationError(name, name+" must be true or false")
	}
	return &b, nil
}

// pagination reads page and count query parameters; zero values let services apply their defaults
func pagination(r *http.Request) (int, int, error) {
	page, err := queryInt(r, "page", 0)
	if err != nil {
		return 0, 0, err
	}
	count, err := queryInt(r, "count", 0)
	if err != nil {
		return 0, 0, err
	}
	return page, count, nil
}
