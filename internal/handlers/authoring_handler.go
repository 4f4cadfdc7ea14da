package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/coursehub/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AuthoringService is the interface that wraps methods for course authoring.
// Every method checks that the viewer is the course instructor or an admin
// and returns an error wrapping models.ErrForbidden otherwise.
type AuthoringService interface {
	// Method CreateCourse creates a draft course owned by the viewer.
	//
	// A slug is derived from the title when the request has none.
	CreateCourse(ctx context.Context, viewer models.Viewer, req *models.CreateCourseRequest) (*models.Course, error)
	// Method UpdateCourse applies the non-empty fields of the request.
	UpdateCourse(ctx context.Context, viewer models.Viewer, courseID int, req *models.UpdateCourseRequest) (*models.Course, error)
	// Method DeleteCourse removes a course without enrollments. Admins may force the deletion.
	DeleteCourse(ctx context.Context, viewer models.Viewer, courseID int, force bool) error
	PublishCourse(ctx context.Context, viewer models.Viewer, courseID int) (*models.Course, error)
	ArchiveCourse(ctx context.Context, viewer models.Viewer, courseID int) (*models.Course, error)
	ListMyCourses(ctx context.Context, viewer models.Viewer, page, count int) (*models.Page[models.CourseCard], error)

	CreateChapter(ctx context.Context, viewer models.Viewer, req *models.CreateChapterRequest) (*models.Chapter, error)
	UpdateChapter(ctx context.Context, viewer models.Viewer, chapterID int, req *models.UpdateChapterRequest) (*models.Chapter, error)
	DeleteChapter(ctx context.Context, viewer models.Viewer, chapterID int) error
	// Method ReorderChapters sets positions 1..n in the given order.
	//
	// The ID list must contain exactly the chapters of the course.
	ReorderChapters(ctx context.Context, viewer models.Viewer, courseID int, ids []int) ([]models.Chapter, error)

	CreateLesson(ctx context.Context, viewer models.Viewer, req *models.CreateLessonRequest) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, viewer models.Viewer, lessonID int, req *models.UpdateLessonRequest) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, viewer models.Viewer, lessonID int) error
	ReorderLessons(ctx context.Context, viewer models.Viewer, chapterID int, ids []int) ([]models.Lesson, error)
}

// AuthoringHandler handles HTTP requests of instructors editing their courses
type AuthoringHandler struct {
	BaseHandler
	service AuthoringService
}

// NewAuthoringHandler creates a new authoring handler
func NewAuthoringHandler(svc AuthoringService, logger *zap.Logger) *AuthoringHandler {
	return &AuthoringHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     svc,
	}
}

// RegisterRoutes registers all authoring handler routes
func (h *AuthoringHandler) RegisterRoutes(r chi.Router, mw Middlewares) {
	r.Group(func(r chi.Router) {
		r.Use(mw.Instructor)
		r.Get("/instructor/courses", h.ListMyCourses)
		r.Post("/instructor/courses", h.CreateCourse)
		r.Patch("/instructor/courses/{id}", h.UpdateCourse)
		r.Delete("/instructor/courses/{id}", h.DeleteCourse)
		r.Post("/instructor/courses/{id}/publish", h.PublishCourse)
		r.Post("/instructor/courses/{id}/archive", h.ArchiveCourse)
		r.Put("/instructor/courses/{id}/chapters/order", h.ReorderChapters)

		r.Post("/instructor/chapters", h.CreateChapter)
		r.Patch("/instructor/chapters/{id}", h.UpdateChapter)
		r.Delete("/instructor/chapters/{id}", h.DeleteChapter)
		r.Put("/instructor/chapters/{id}/lessons/order", h.ReorderLessons)

		r.Post("/instructor/lessons", h.CreateLesson)
		r.Patch("/instructor/lessons/{id}", h.UpdateLesson)
		r.Delete("/instructor/lessons/{id}", h.DeleteLesson)
	})
}

// ListMyCourses handles GET /instructor/courses
// @Summary Courses of the instructor in any status
// @Tags instructor
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "Page number (default: 1)"
// @Param count query int false "Items per page (default: 12)"
// @Success 200 {object} models.Page[models.CourseCard]
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Not an instructor"
// @Router /instructor/courses [get]
func (h *AuthoringHandler) ListMyCourses(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	page, count, err := pagination(r)
	if err != nil {
		h.RespondServiceError(w, r, err, "parse pagination")
		return
	}

	courses, err := h.service.ListMyCourses(r.Context(), v, page, count)
	if err != nil {
		h.RespondServiceError(w, r, err, "list instructor courses")
		return
	}

	h.RespondJSON(w, http.StatusOK, courses)
}

// CreateCourse handles POST /instructor/courses
// @Summary Create a draft course
// @Tags instructor
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreateCourseRequest true "Course"
// @Success 201 {object} models.Course
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Failure 409 {object} ErrorResponse "Slug taken"
// @Router /instructor/courses [post]
func (h *AuthoringHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	var req models.CreateCourseRequest
	if !h.decode(w, r, &req) {
		return
	}

	course, err := h.service.CreateCourse(r.Context(), v, &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "create course")
		return
	}

	h.RespondJSON(w, http.StatusCreated, course)
}

// UpdateCourse handles PATCH /instructor/courses/{id}
// @Summary Update a course (partial update)
// @Tags instructor
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Param request body models.UpdateCourseRequest true "Changed fields"
// @Success 200 {object} models.Course
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Failure 403 {object} ErrorResponse "Not the course owner"
// @Failure 404 {object} ErrorResponse "Course not found"
// @Router /instructor/courses/{id} [patch]
func (h *AuthoringHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.UpdateCourseRequest
	if !h.decode(w, r, &req) {
		return
	}

	course, err := h.service.UpdateCourse(r.Context(), v, id, &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "update course")
		return
	}

	h.RespondJSON(w, http.StatusOK, course)
}

// DeleteCourse handles DELETE /instructor/courses/{id}
// @Summary Delete a course
// @Tags instructor
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Param force query bool false "Delete even with enrollments (admin only)"
// @Success 204 "No Content"
// @Failure 403 {object} ErrorResponse "Not the course owner"
// @Failure 409 {object} ErrorResponse "Course has enrollments"
// @Router /instructor/courses/{id} [delete]
func (h *AuthoringHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	if err := h.service.DeleteCourse(r.Context(), v, id, force); err != nil {
		h.RespondServiceError(w, r, err, "delete course")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PublishCourse handles POST /instructor/courses/{id}/publish
// @Summary Publish a course
// @Tags instructor
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Success 200 {object} models.Course
// @Failure 400 {object} ErrorResponse "Course has no lessons"
// @Router /instructor/courses/{id}/publish [post]
func (h *AuthoringHandler) PublishCourse(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.service.PublishCourse, "publish course")
}

// ArchiveCourse handles POST /instructor/courses/{id}/archive
// @Summary Archive a course
// @Tags instructor
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Success 200 {object} models.Course
// @Router /instructor/courses/{id}/archive [post]
func (h *AuthoringHandler) ArchiveCourse(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.service.ArchiveCourse, "archive course")
}

func (h *AuthoringHandler) changeStatus(
	w http.ResponseWriter,
	r *http.Request,
	change func(context.Context, models.Viewer, int) (*models.Course, error),
	action string,
) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	course, err := change(r.Context(), v, id)
	if err != nil {
		h.RespondServiceError(w, r, err, action)
		return
	}

	h.RespondJSON(w, http.StatusOK, course)
}

// ReorderChapters handles PUT /instructor/courses/{id}/chapters/order
// @Summary Reorder the chapters of a course
// @Tags instructor
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Param request body models.ReorderRequest true "All chapter IDs in the new order"
// @Success 200 {array} models.Chapter
// @Failure 400 {object} ErrorResponse "IDs do not match the course chapters"
// @Router /instructor/courses/{id}/chapters/order [put]
func (h *AuthoringHandler) ReorderChapters(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.ReorderRequest
	if !h.decode(w, r, &req) {
		return
	}

	chapters, err := h.service.ReorderChapters(r.Context(), v, id, req.IDs)
	if err != nil {
		h.RespondServiceError(w, r, err, "reorder chapters")
		return
	}

	h.RespondJSON(w, http.StatusOK, chapters)
}

// CreateChapter handles POST /instructor/chapters
// @Summary Add a chapter at the end of a course
// @Tags instructor
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreateChapterRequest true "Chapter"
// @Success 201 {object} models.Chapter
// @Router /instructor/chapters [post]
func (h *AuthoringHandler) CreateChapter(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	var req models.CreateChapterRequest
	if !h.decode(w, r, &req) {
		return
	}

	chapter, err := h.service.CreateChapter(r.Context(), v, &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "create chapter")
		return
	}

	h.RespondJSON(w, http.StatusCreated, chapter)
}

// UpdateChapter handles PATCH /instructor/chapters/{id}
// @Summary Rename a chapter
// @Tags instructor
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Chapter ID"
// @Param request body models.UpdateChapterRequest true "Chapter title"
// @Success 200 {object} models.Chapter
// @Router /instructor/chapters/{id} [patch]
func (h *AuthoringHandler) UpdateChapter(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.UpdateChapterRequest
	if !h.decode(w, r, &req) {
		return
	}

	chapter, err := h.service.UpdateChapter(r.Context(), v, id, &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "update chapter")
		return
	}

	h.RespondJSON(w, http.StatusOK, chapter)
}

// DeleteChapter handles DELETE /instructor/chapters/{id}
// @Summary Delete a chapter with its lessons
// @Tags instructor
// @Security ApiKeyAuth
// @Param id path int true "Chapter ID"
// @Success 204 "No Content"
// @Router /instructor/chapters/{id} [delete]
func (h *AuthoringHandler) DeleteChapter(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteChapter(r.Context(), v, id); err != nil {
		h.RespondServiceError(w, r, err, "delete chapter")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReorderLessons handles PUT /instructor/chapters/{id}/lessons/order
// @Summary Reorder the lessons of a chapter
// @Tags instructor
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Chapter ID"
// @Param request body models.ReorderRequest true "All lesson IDs in the new order"
// @Success 200 {array} models.Lesson
// @Router /instructor/chapters/{id}/lessons/order [put]
func (h *AuthoringHandler) ReorderLessons(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.ReorderRequest
	if !h.decode(w, r, &req) {
		return
	}

	lessons, err := h.service.ReorderLessons(r.Context(), v, id, req.IDs)
	if err != nil {
		h.RespondServiceError(w, r, err, "reorder lessons")
		return
	}

	h.RespondJSON(w, http.StatusOK, lessons)
}

// CreateLesson handles POST /instructor/lessons
// @Summary Add a lesson at the end of a chapter
// @Tags instructor
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreateLessonRequest true "Lesson"
// @Success 201 {object} models.Lesson
// @Router /instructor/lessons [post]
func (h *AuthoringHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	var req models.CreateLessonRequest
	if !h.decode(w, r, &req) {
		return
	}

	lesson, err := h.service.CreateLesson(r.Context(), v, &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "create lesson")
		return
	}

	h.RespondJSON(w, http.StatusCreated, lesson)
}

// UpdateLesson handles PATCH /instructor/lessons/{id}
// @Summary Update a lesson (partial update)
// @Tags instructor
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Lesson ID"
// @Param request body models.UpdateLessonRequest true "Changed fields"
// @Success 200 {object} models.Lesson
// @Router /instructor/lessons/{id} [patch]
func (h *AuthoringHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.UpdateLessonRequest
	if !h.decode(w, r, &req) {
		return
	}

	lesson, err := h.service.UpdateLesson(r.Context(), v, id, &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "update lesson")
		return
	}

	h.RespondJSON(w, http.StatusOK, lesson)
}

// DeleteLesson handles DELETE /instructor/lessons/{id}
// @Summary Delete a lesson
// @Tags instructor
// @Security ApiKeyAuth
// @Param id path int true "Lesson ID"
// @Success 204 "No Content"
// @Router /instructor/lessons/{id} [delete]
func (h *AuthoringHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteLesson(r.Context(), v, id); err != nil {
		h.RespondServiceError(w, r, err, "delete lesson")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
