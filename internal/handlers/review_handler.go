package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/coursehub/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ReviewService is the interface that wraps methods for course reviews and their moderation
type ReviewService interface {
	// Method CreateReview stores the viewer's review of a course they are enrolled in.
	//
	// One review per user and course; a second one returns an error wrapping models.ErrConflict.
	CreateReview(ctx context.Context, viewer models.Viewer, courseSlug string, req *models.CreateReviewRequest) (*models.CourseReview, error)
	// Method UpdateMyReview edits the review and sends it back to moderation.
	UpdateMyReview(ctx context.Context, viewer models.Viewer, courseSlug string, req *models.UpdateReviewRequest) (*models.CourseReview, error)
	DeleteMyReview(ctx context.Context, viewer models.Viewer, courseSlug string) error
	GetMyReview(ctx context.Context, viewer models.Viewer, courseSlug string) (*models.CourseReview, error)
	ListCourseReviews(ctx context.Context, courseSlug string, rating *int, page, count int) (*models.Page[models.PublicReview], error)
	// Method ReportReview records a report. Enough reports hide the review until an admin acts.
	ReportReview(ctx context.Context, viewer models.Viewer, reviewID int, req *models.ReportReviewRequest) (*models.ReportReviewResult, error)

	ListReviews(ctx context.Context, filter models.ReviewFilter) (*models.Page[models.CourseReview], error)
	GetReview(ctx context.Context, reviewID int) (*models.ReviewDetail, error)
	// Method Moderate applies one action. The delete action returns a nil review.
	Moderate(ctx context.Context, adminID, reviewID int, action models.ModerationAction, note string) (*models.CourseReview, error)
	BulkModerate(ctx context.Context, adminID int, req *models.BulkModerateRequest) (*models.BulkModerateResult, error)
}

// ReviewHandler handles HTTP requests for reviews
type ReviewHandler struct {
	BaseHandler
	service ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(svc ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     svc,
	}
}

var validReviewStatuses = map[models.ReviewStatus]bool{
	models.ReviewStatusPending:  true,
	models.ReviewStatusApproved: true,
	models.ReviewStatusRejected: true,
}

// RegisterRoutes registers all review handler routes
func (h *ReviewHandler) RegisterRoutes(r chi.Router, mw Middlewares) {
	r.Get("/courses/{slug}/reviews", h.ListCourseReviews)

	r.Group(func(r chi.Router) {
		r.Use(mw.Auth)
		r.Post("/courses/{slug}/reviews", h.CreateReview)
		r.Get("/courses/{slug}/reviews/me", h.GetMyReview)
		r.Patch("/courses/{slug}/reviews/me", h.UpdateMyReview)
		r.Delete("/courses/{slug}/reviews/me", h.DeleteMyReview)
		r.Post("/reviews/{id}/report", h.ReportReview)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.Admin)
		r.Get("/admin/course-reviews", h.ListReviews)
		r.Post("/admin/course-reviews/bulk", h.BulkModerate)
		r.Get("/admin/course-reviews/{id}", h.GetReview)
		r.Post("/admin/course-reviews/{id}/{action}", h.Moderate)
		r.Delete("/admin/course-reviews/{id}", h.DeleteReview)
	})
}

// ListCourseReviews handles GET /courses/{slug}/reviews
// @Summary Approved reviews of a course
// @Tags reviews
// @Produce json
// @Param slug path string true "Course slug"
// @Param rating query int false "Only reviews with this many stars"
// @Param page query int false "Page number (default: 1)"
// @Param count query int false "Items per page (default: 10, max: 50)"
// @Success 200 {object} models.Page[models.PublicReview]
// @Router /courses/{slug}/reviews [get]
func (h *ReviewHandler) ListCourseReviews(w http.ResponseWriter, r *http.Request) {
	rating, err := queryIntPtr(r, "rating")
	if err != nil {
		h.RespondServiceError(w, r, err, "parse rating")
		return
	}
	page, count, err := pagination(r)
	if err != nil {
		h.RespondServiceError(w, r, err, "parse pagination")
		return
	}

	reviews, err := h.service.ListCourseReviews(r.Context(), chi.URLParam(r, "slug"), rating, page, count)
	if err != nil {
		h.RespondServiceError(w, r, err, "list course reviews")
		return
	}

	h.RespondJSON(w, http.StatusOK, reviews)
}

// CreateReview handles POST /courses/{slug}/reviews
// @Summary Review a course
// @Tags reviews
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param slug path string true "Course slug"
// @Param request body models.CreateReviewRequest true "Review"
// @Success 201 {object} models.CourseReview
// @Failure 403 {object} ErrorResponse "Not enrolled"
// @Failure 409 {object} ErrorResponse "Already reviewed"
// @Router /courses/{slug}/reviews [post]
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	var req models.CreateReviewRequest
	if !h.decode(w, r, &req) {
		return
	}

	review, err := h.service.CreateReview(r.Context(), v, chi.URLParam(r, "slug"), &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "create review")
		return
	}

	h.RespondJSON(w, http.StatusCreated, review)
}

// GetMyReview handles GET /courses/{slug}/reviews/me
// @Summary The user's review of a course
// @Tags reviews
// @Produce json
// @Security ApiKeyAuth
// @Param slug path string true "Course slug"
// @Success 200 {object} models.CourseReview
// @Failure 404 {object} ErrorResponse "No review yet"
// @Router /courses/{slug}/reviews/me [get]
func (h *ReviewHandler) GetMyReview(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}

	review, err := h.service.GetMyReview(r.Context(), v, chi.URLParam(r, "slug"))
	if err != nil {
		h.RespondServiceError(w, r, err, "get review")
		return
	}

	h.RespondJSON(w, http.StatusOK, review)
}

// UpdateMyReview handles PATCH /courses/{slug}/reviews/me
// @Summary Edit the user's review
// @Tags reviews
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param slug path string true "Course slug"
// @Param request body models.UpdateReviewRequest true "Changed fields"
// @Success 200 {object} models.CourseReview
// @Router /courses/{slug}/reviews/me [patch]
func (h *ReviewHandler) UpdateMyReview(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	var req models.UpdateReviewRequest
	if !h.decode(w, r, &req) {
		return
	}

	review, err := h.service.UpdateMyReview(r.Context(), v, chi.URLParam(r, "slug"), &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "update review")
		return
	}

	h.RespondJSON(w, http.StatusOK, review)
}

// DeleteMyReview handles DELETE /courses/{slug}/reviews/me
// @Summary Delete the user's review
// @Tags reviews
// @Security ApiKeyAuth
// @Param slug path string true "Course slug"
// @Success 204 "No Content"
// @Router /courses/{slug}/reviews/me [delete]
func (h *ReviewHandler) DeleteMyReview(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteMyReview(r.Context(), v, chi.URLParam(r, "slug")); err != nil {
		h.RespondServiceError(w, r, err, "delete review")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReportReview handles POST /reviews/{id}/report
// @Summary Report an abusive review
// @Tags reviews
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Review ID"
// @Param request body models.ReportReviewRequest true "Reason"
// @Success 200 {object} models.ReportReviewResult
// @Failure 409 {object} ErrorResponse "Already reported"
// @Router /reviews/{id}/report [post]
func (h *ReviewHandler) ReportReview(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.ReportReviewRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.ReportReview(r.Context(), v, id, &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "report review")
		return
	}

	h.RespondJSON(w, http.StatusOK, result)
}

// reviewFilter parses admin review listing parameters
func reviewFilter(r *http.Request) (models.ReviewFilter, error) {
	q := r.URL.Query()
	filter := models.ReviewFilter{
		Status: models.ReviewStatus(q.Get("status")),
		Search: q.Get("search"),
	}
	if filter.Status != "" && !validReviewStatuses[filter.Status] {
		return filter, models.NewValidationError("status", "status must be one of pending, approved, rejected")
	}

	var err error
	if filter.Visible, err = queryBoolPtr(r, "visible"); err != nil {
		return filter, err
	}
	if reported := q.Get("reported"); reported != "" {
		if filter.Reported, err = strconv.ParseBool(reported); err != nil {
			return filter, models.NewValidationError("reported", "reported must be true or false")
		}
	}
	if filter.CourseID, err = queryIntPtr(r, "courseId"); err != nil {
		return filter, err
	}
	if filter.Rating, err = queryIntPtr(r, "rating"); err != nil {
		return filter, err
	}
	if filter.Page, filter.Count, err = pagination(r); err != nil {
		return filter, err
	}
	return filter, nil
}

// ListReviews handles GET /admin/course-reviews
// @Summary Reviews for moderation
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "pending, approved or rejected"
// @Param visible query bool false "Visibility"
// @Param reported query bool false "Only reviews with reports"
// @Param courseId query int false "Course ID"
// @Param rating query int false "Stars"
// @Param search query string false "Text in comment, author or course"
// @Param page query int false "Page number (default: 1)"
// @Param count query int false "Items per page (default: 20)"
// @Success 200 {object} models.Page[models.CourseReview]
// @Router /admin/course-reviews [get]
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	filter, err := reviewFilter(r)
	if err != nil {
		h.RespondServiceError(w, r, err, "parse review filter")
		return
	}

	reviews, err := h.service.ListReviews(r.Context(), filter)
	if err != nil {
		h.RespondServiceError(w, r, err, "list reviews")
		return
	}

	h.RespondJSON(w, http.StatusOK, reviews)
}

// GetReview handles GET /admin/course-reviews/{id}
// @Summary A review with its reports
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Review ID"
// @Success 200 {object} models.ReviewDetail
// @Router /admin/course-reviews/{id} [get]
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.service.GetReview(r.Context(), id)
	if err != nil {
		h.RespondServiceError(w, r, err, "get review")
		return
	}

	h.RespondJSON(w, http.StatusOK, detail)
}

// Moderate handles POST /admin/course-reviews/{id}/{action}
// @Summary Apply a moderation action
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Review ID"
// @Param action path string true "approve, reject, hide, unhide or clear_reports"
// @Param request body models.ModerateReviewRequest false "Moderation note"
// @Success 200 {object} models.CourseReview
// @Router /admin/course-reviews/{id}/{action} [post]
func (h *ReviewHandler) Moderate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	action := models.ModerationAction(chi.URLParam(r, "action"))
	if action == models.ModerationDelete {
		h.RespondError(w, http.StatusMethodNotAllowed, "use DELETE to remove a review")
		return
	}

	var req models.ModerateReviewRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}

	review, err := h.service.Moderate(r.Context(), viewer(r).UserID, id, action, req.Note)
	if err != nil {
		h.RespondServiceError(w, r, err, "moderate review")
		return
	}

	h.RespondJSON(w, http.StatusOK, review)
}

// DeleteReview handles DELETE /admin/course-reviews/{id}
// @Summary Remove a review
// @Tags admin
// @Security ApiKeyAuth
// @Param id path int true "Review ID"
// @Success 204 "No Content"
// @Router /admin/course-reviews/{id} [delete]
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if _, err := h.service.Moderate(r.Context(), viewer(r).UserID, id, models.ModerationDelete, ""); err != nil {
		h.RespondServiceError(w, r, err, "delete review")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BulkModerate handles POST /admin/course-reviews/bulk
// @Summary Apply one action to many reviews
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.BulkModerateRequest true "Reviews and action"
// @Success 200 {object} models.BulkModerateResult
// @Router /admin/course-reviews/bulk [post]
func (h *ReviewHandler) BulkModerate(w http.ResponseWriter, r *http.Request) {
	var req models.BulkModerateRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.BulkModerate(r.Context(), viewer(r).UserID, &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "bulk moderate reviews")
		return
	}

	h.RespondJSON(w, http.StatusOK, result)
}
