package handlers

import (
	"context"
	"net/http"

	"github.com/coursehub/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// QuizService is the interface that wraps methods for lesson quizzes
type QuizService interface {
	// Method UpsertQuiz creates or replaces the quiz of a quiz lesson. Question and option IDs are assigned when missing.
	UpsertQuiz(ctx context.Context, viewer models.Viewer, lessonID int, req *models.UpsertQuizRequest) (*models.Quiz, error)
	// Method GetQuiz returns the quiz without correct answers unless the viewer can edit the course.
	GetQuiz(ctx context.Context, viewer models.Viewer, lessonID int) (*models.Quiz, error)
	// Method SubmitQuiz scores an attempt. A user has at most one graded attempt per quiz,
	// a second one returns an error wrapping models.ErrConflict.
	SubmitQuiz(ctx context.Context, viewer models.Viewer, lessonID int, req *models.SubmitQuizRequest) (*models.QuizAttempt, error)
	ListAttempts(ctx context.Context, viewer models.Viewer, lessonID int) (*models.AttemptHistory, error)
	ResetGradedAttempt(ctx context.Context, userID, lessonID int) error
}

// QuizHandler handles HTTP requests for quizzes and attempts
type QuizHandler struct {
	BaseHandler
	service QuizService
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(svc QuizService, logger *zap.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     svc,
	}
}

// RegisterRoutes registers all quiz handler routes
func (h *QuizHandler) RegisterRoutes(r chi.Router, mw Middlewares) {
	r.With(mw.Instructor).Put("/instructor/lessons/{id}/quiz", h.UpsertQuiz)

	r.Group(func(r chi.Router) {
		r.Use(mw.Auth)
		r.Get("/lessons/{id}/quiz", h.GetQuiz)
		r.Post("/lessons/{id}/quiz/attempts", h.SubmitQuiz)
		r.Get("/lessons/{id}/quiz/attempts", h.ListAttempts)
	})

	r.With(mw.Admin).Delete("/admin/users/{userId}/lessons/{id}/quiz-attempt", h.ResetGradedAttempt)
}

// UpsertQuiz handles PUT /instructor/lessons/{id}/quiz
// @Summary Create or replace the quiz of a lesson
// @Tags instructor
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Lesson ID"
// @Param request body models.UpsertQuizRequest true "Quiz"
// @Success 200 {object} models.Quiz
// @Failure 400 {object} ErrorResponse "Invalid questions or lesson is not a quiz"
// @Router /instructor/lessons/{id}/quiz [put]
func (h *QuizHandler) UpsertQuiz(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	lessonID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.UpsertQuizRequest
	if !h.decode(w, r, &req) {
		return
	}

	quiz, err := h.service.UpsertQuiz(r.Context(), v, lessonID, &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "save quiz")
		return
	}

	h.RespondJSON(w, http.StatusOK, quiz)
}

// GetQuiz handles GET /lessons/{id}/quiz
// @Summary Quiz of a lesson
// @Tags quizzes
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Lesson ID"
// @Success 200 {object} models.Quiz
// @Failure 403 {object} ErrorResponse "Not enrolled"
// @Router /lessons/{id}/quiz [get]
func (h *QuizHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	lessonID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	quiz, err := h.service.GetQuiz(r.Context(), v, lessonID)
	if err != nil {
		h.RespondServiceError(w, r, err, "get quiz")
		return
	}

	h.RespondJSON(w, http.StatusOK, quiz)
}

// SubmitQuiz handles POST /lessons/{id}/quiz/attempts
// @Summary Submit a practice or graded attempt
// @Tags quizzes
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Lesson ID"
// @Param request body models.SubmitQuizRequest true "Answers"
// @Success 201 {object} models.QuizAttempt
// @Failure 409 {object} ErrorResponse "Graded attempt already used"
// @Router /lessons/{id}/quiz/attempts [post]
func (h *QuizHandler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	lessonID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.SubmitQuizRequest
	if !h.decode(w, r, &req) {
		return
	}

	attempt, err := h.service.SubmitQuiz(r.Context(), v, lessonID, &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "submit quiz")
		return
	}

	h.RespondJSON(w, http.StatusCreated, attempt)
}

// ListAttempts handles GET /lessons/{id}/quiz/attempts
// @Summary Attempt history of the user
// @Tags quizzes
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Lesson ID"
// @Success 200 {object} models.AttemptHistory
// @Router /lessons/{id}/quiz/attempts [get]
func (h *QuizHandler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	lessonID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	history, err := h.service.ListAttempts(r.Context(), v, lessonID)
	if err != nil {
		h.RespondServiceError(w, r, err, "list quiz attempts")
		return
	}

	h.RespondJSON(w, http.StatusOK, history)
}

// ResetGradedAttempt handles DELETE /admin/users/{userId}/lessons/{id}/quiz-attempt
// @Summary Allow a user to retake the graded attempt
// @Tags admin
// @Security ApiKeyAuth
// @Param userId path int true "User ID"
// @Param id path int true "Lesson ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse "No graded attempt"
// @Router /admin/users/{userId}/lessons/{id}/quiz-attempt [delete]
func (h *QuizHandler) ResetGradedAttempt(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userId")
	if !ok {
		return
	}
	lessonID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.ResetGradedAttempt(r.Context(), userID, lessonID); err != nil {
		h.RespondServiceError(w, r, err, "reset graded attempt")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
