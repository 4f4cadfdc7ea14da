package handlers

import (
	"context"
	"net/http"

	"github.com/coursehub/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProgressService is the interface that wraps methods for lesson progress tracking
type ProgressService interface {
	// Method UpdateLessonProgress records a watch or read percentage. The stored value never decreases and
	// the lesson completes once it reaches the completion threshold.
	UpdateLessonProgress(ctx context.Context, userID, lessonID, percent int) (*models.CourseProgress, error)
	CompleteLesson(ctx context.Context, userID, lessonID int) (*models.CourseProgress, error)
	ResetLesson(ctx context.Context, userID, lessonID int) (*models.CourseProgress, error)
	GetCourseProgress(ctx context.Context, userID int, courseSlug string) (*models.CourseProgress, error)
}

// ProgressHandler handles HTTP requests for learning progress
type ProgressHandler struct {
	BaseHandler
	service ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(svc ProgressService, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     svc,
	}
}

// RegisterRoutes registers all progress handler routes
func (h *ProgressHandler) RegisterRoutes(r chi.Router, mw Middlewares) {
	r.Group(func(r chi.Router) {
		r.Use(mw.Auth)
		r.Put("/lessons/{id}/progress", h.UpdateLessonProgress)
		r.Post("/lessons/{id}/complete", h.CompleteLesson)
		r.Post("/lessons/{id}/reset", h.ResetLesson)
		r.Get("/courses/{slug}/progress", h.GetCourseProgress)
	})
}

// UpdateLessonProgress handles PUT /lessons/{id}/progress
// @Summary Report lesson progress
// @Tags progress
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Lesson ID"
// @Param request body models.UpdateProgressRequest true "Percent consumed"
// @Success 200 {object} models.CourseProgress
// @Failure 403 {object} ErrorResponse "Not enrolled"
// @Router /lessons/{id}/progress [put]
func (h *ProgressHandler) UpdateLessonProgress(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	lessonID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.UpdateProgressRequest
	if !h.decode(w, r, &req) {
		return
	}

	progress, err := h.service.UpdateLessonProgress(r.Context(), v.UserID, lessonID, req.Percent)
	if err != nil {
		h.RespondServiceError(w, r, err, "update lesson progress")
		return
	}

	h.RespondJSON(w, http.StatusOK, progress)
}

// CompleteLesson handles POST /lessons/{id}/complete
// @Summary Mark a lesson as completed
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Lesson ID"
// @Success 200 {object} models.CourseProgress
// @Failure 400 {object} ErrorResponse "Quiz lessons complete by passing the quiz"
// @Router /lessons/{id}/complete [post]
func (h *ProgressHandler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	h.lessonAction(w, r, h.service.CompleteLesson, "complete lesson")
}

// ResetLesson handles POST /lessons/{id}/reset
// @Summary Clear progress of a lesson
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Lesson ID"
// @Success 200 {object} models.CourseProgress
// @Router /lessons/{id}/reset [post]
func (h *ProgressHandler) ResetLesson(w http.ResponseWriter, r *http.Request) {
	h.lessonAction(w, r, h.service.ResetLesson, "reset lesson")
}

func (h *ProgressHandler) lessonAction(
	w http.ResponseWriter,
	r *http.Request,
	action func(context.Context, int, int) (*models.CourseProgress, error),
	name string,
) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	lessonID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	progress, err := action(r.Context(), v.UserID, lessonID)
	if err != nil {
		h.RespondServiceError(w, r, err, name)
		return
	}

	h.RespondJSON(w, http.StatusOK, progress)
}

// GetCourseProgress handles GET /courses/{slug}/progress
// @Summary Progress of the user in a course
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Param slug path string true "Course slug"
// @Success 200 {object} models.CourseProgress
// @Router /courses/{slug}/progress [get]
func (h *ProgressHandler) GetCourseProgress(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}

	progress, err := h.service.GetCourseProgress(r.Context(), v.UserID, chi.URLParam(r, "slug"))
	if err != nil {
		h.RespondServiceError(w, r, err, "get course progress")
		return
	}

	h.RespondJSON(w, http.StatusOK, progress)
}
