package handlers

import (
	"context"
	"net/http"

	"github.com/coursehub/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// EnrollmentService is the interface that wraps methods for course access
type EnrollmentService interface {
	// Method EnrollFree enrolls the user in a published free course.
	//
	// The boolean is false when the user was already enrolled; paid courses return models.ErrPaymentRequired.
	EnrollFree(ctx context.Context, userID int, courseSlug string) (*models.Enrollment, bool, error)
	// Method ConfirmPayment activates an enrollment after a successful charge. Repeated callbacks are idempotent.
	ConfirmPayment(ctx context.Context, req *models.ConfirmPaymentRequest) (*models.Enrollment, bool, error)
	Grant(ctx context.Context, req *models.GrantEnrollmentRequest) (*models.Enrollment, bool, error)
	Revoke(ctx context.Context, userID, courseID int) error
	ListMyEnrollments(ctx context.Context, userID int) ([]models.EnrollmentListItem, error)
}

// EnrollmentHandler handles HTTP requests for enrollments
type EnrollmentHandler struct {
	BaseHandler
	service EnrollmentService
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(svc EnrollmentService, logger *zap.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     svc,
	}
}

// RegisterRoutes registers all enrollment handler routes
func (h *EnrollmentHandler) RegisterRoutes(r chi.Router, mw Middlewares) {
	r.With(mw.Auth).Post("/courses/{slug}/enroll", h.Enroll)
	r.With(mw.Auth).Get("/me/enrollments", h.ListMyEnrollments)
	r.With(mw.APIKey).Post("/payments/confirm", h.ConfirmPayment)

	r.Group(func(r chi.Router) {
		r.Use(mw.Admin)
		r.Post("/admin/enrollments", h.Grant)
		r.Delete("/admin/users/{userId}/enrollments/{courseId}", h.Revoke)
	})
}

// enrollmentStatus answers 201 for a new enrollment and 200 when it already existed
func enrollmentStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}

// Enroll handles POST /courses/{slug}/enroll
// @Summary Enroll in a free course
// @Tags enrollments
// @Produce json
// @Security ApiKeyAuth
// @Param slug path string true "Course slug"
// @Success 201 {object} models.Enrollment "Enrolled"
// @Success 200 {object} models.Enrollment "Already enrolled"
// @Failure 402 {object} ErrorResponse "Course is paid"
// @Failure 404 {object} ErrorResponse "Course not found"
// @Router /courses/{slug}/enroll [post]
func (h *EnrollmentHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}

	enrollment, created, err := h.service.EnrollFree(r.Context(), v.UserID, chi.URLParam(r, "slug"))
	if err != nil {
		h.RespondServiceError(w, r, err, "enroll")
		return
	}

	h.RespondJSON(w, enrollmentStatus(created), enrollment)
}

// ListMyEnrollments handles GET /me/enrollments
// @Summary Courses the user is enrolled in with progress
// @Tags enrollments
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.EnrollmentListItem
// @Router /me/enrollments [get]
func (h *EnrollmentHandler) ListMyEnrollments(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}

	items, err := h.service.ListMyEnrollments(r.Context(), v.UserID)
	if err != nil {
		h.RespondServiceError(w, r, err, "list enrollments")
		return
	}

	h.RespondJSON(w, http.StatusOK, items)
}

// ConfirmPayment handles POST /payments/confirm
// @Summary Payment callback activating a paid enrollment
// @Tags enrollments
// @Accept json
// @Produce json
// @Security ApiKeyHeader
// @Param request body models.ConfirmPaymentRequest true "Payment"
// @Success 201 {object} models.Enrollment
// @Success 200 {object} models.Enrollment "Already confirmed"
// @Failure 400 {object} ErrorResponse "Amount mismatch"
// @Router /payments/confirm [post]
func (h *EnrollmentHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req models.ConfirmPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	enrollment, created, err := h.service.ConfirmPayment(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "confirm payment")
		return
	}

	h.RespondJSON(w, enrollmentStatus(created), enrollment)
}

// Grant handles POST /admin/enrollments
// @Summary Grant a user access to a course
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.GrantEnrollmentRequest true "Grant"
// @Success 201 {object} models.Enrollment
// @Success 200 {object} models.Enrollment "Already enrolled"
// @Router /admin/enrollments [post]
func (h *EnrollmentHandler) Grant(w http.ResponseWriter, r *http.Request) {
	var req models.GrantEnrollmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	enrollment, created, err := h.service.Grant(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "grant enrollment")
		return
	}

	h.RespondJSON(w, enrollmentStatus(created), enrollment)
}

// Revoke handles DELETE /admin/users/{userId}/enrollments/{courseId}
// @Summary Revoke a user's access to a course
// @Tags admin
// @Security ApiKeyAuth
// @Param userId path int true "User ID"
// @Param courseId path int true "Course ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse "No active enrollment"
// @Router /admin/users/{userId}/enrollments/{courseId} [delete]
func (h *EnrollmentHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userId")
	if !ok {
		return
	}
	courseID, ok := h.pathID(w, r, "courseId")
	if !ok {
		return
	}

	if err := h.service.Revoke(r.Context(), userID, courseID); err != nil {
		h.RespondServiceError(w, r, err, "revoke enrollment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
