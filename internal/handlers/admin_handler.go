package handlers

import (
	"context"
	"net/http"

	"github.com/coursehub/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AdminService is the interface that wraps methods for user administration
type AdminService interface {
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
	// Method ListUsers retrieves a page of users. "role" is a role name or empty for all roles.
	ListUsers(ctx context.Context, role, search string, page, count int) ([]models.UserListItem, error)
	UpdateUserRole(ctx context.Context, adminID, userID int, role string) error
	// Method SetUserActive activates or deactivates an account. Deactivated users lose their refresh tokens.
	SetUserActive(ctx context.Context, adminID, userID int, active bool) error
}

// AdminHandler handles HTTP requests for the admin panel
type AdminHandler struct {
	BaseHandler
	service AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(svc AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     svc,
	}
}

// RegisterRoutes registers all admin handler routes
func (h *AdminHandler) RegisterRoutes(r chi.Router, mw Middlewares) {
	r.Group(func(r chi.Router) {
		r.Use(mw.Admin)
		r.Get("/admin/dashboard", h.Dashboard)
		r.Get("/admin/users", h.ListUsers)
		r.Patch("/admin/users/{id}/role", h.UpdateUserRole)
		r.Patch("/admin/users/{id}/active", h.SetUserActive)
	})
}

// Dashboard handles GET /admin/dashboard
// @Summary Platform overview
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} models.DashboardStats
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err, "load dashboard")
		return
	}

	h.RespondJSON(w, http.StatusOK, stats)
}

// ListUsers handles GET /admin/users
// @Summary List users
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param role query string false "student, instructor or admin"
// @Param search query string false "Text in name or email"
// @Param page query int false "Page number (default: 1)"
// @Param count query int false "Items per page (default: 20, max: 100)"
// @Success 200 {array} models.UserListItem
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, count, err := pagination(r)
	if err != nil {
		h.RespondServiceError(w, r, err, "parse pagination")
		return
	}

	users, err := h.service.ListUsers(r.Context(), r.URL.Query().Get("role"), r.URL.Query().Get("search"), page, count)
	if err != nil {
		h.RespondServiceError(w, r, err, "list users")
		return
	}

	h.RespondJSON(w, http.StatusOK, users)
}

// UpdateUserRole handles PATCH /admin/users/{id}/role
// @Summary Change the role of a user
// @Tags admin
// @Accept json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Param request body models.UpdateUserRoleRequest true "Role"
// @Success 204 "No Content"
// @Failure 403 {object} ErrorResponse "Own role"
// @Router /admin/users/{id}/role [patch]
func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.UpdateUserRoleRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.UpdateUserRole(r.Context(), v.UserID, id, req.Role); err != nil {
		h.RespondServiceError(w, r, err, "update user role")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetUserActive handles PATCH /admin/users/{id}/active
// @Summary Activate or deactivate a user
// @Tags admin
// @Accept json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Param request body models.SetUserActiveRequest true "Active flag"
// @Success 204 "No Content"
// @Router /admin/users/{id}/active [patch]
func (h *AdminHandler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.SetUserActiveRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.SetUserActive(r.Context(), v.UserID, id, *req.IsActive); err != nil {
		h.RespondServiceError(w, r, err, "set user active")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
