package handlers

import (
	"context"
	"net/http"

	"github.com/coursehub/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AssignmentService is the interface that wraps methods for assignments and their grading
type AssignmentService interface {
	CreateAssignment(ctx context.Context, viewer models.Viewer, req *models.CreateAssignmentRequest) (*models.Assignment, error)
	UpdateAssignment(ctx context.Context, viewer models.Viewer, id int, req *models.UpdateAssignmentRequest) (*models.Assignment, error)
	DeleteAssignment(ctx context.Context, viewer models.Viewer, id int) error
	ListSubmissions(ctx context.Context, viewer models.Viewer, assignmentID int, status string) ([]models.Submission, error)
	// Method GradeSubmission scores a pending submission. The score must not exceed the assignment maximum.
	GradeSubmission(ctx context.Context, viewer models.Viewer, submissionID int, req *models.GradeSubmissionRequest) (*models.Submission, error)
	ReturnSubmission(ctx context.Context, viewer models.Viewer, submissionID int, req *models.ReturnSubmissionRequest) (*models.Submission, error)

	ListAssignments(ctx context.Context, viewer models.Viewer, courseSlug string) ([]models.AssignmentWithSubmission, error)
	// Method Submit creates or replaces the viewer's submission. Graded submissions are final.
	Submit(ctx context.Context, viewer models.Viewer, assignmentID int, req *models.SubmitAssignmentRequest) (*models.Submission, error)
	GetMySubmission(ctx context.Context, viewer models.Viewer, assignmentID int) (*models.Submission, error)
}

// AssignmentHandler handles HTTP requests for assignments
type AssignmentHandler struct {
	BaseHandler
	service AssignmentService
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(svc AssignmentService, logger *zap.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     svc,
	}
}

var validSubmissionStatuses = map[models.SubmissionStatus]bool{
	models.SubmissionStatusSubmitted: true,
	models.SubmissionStatusGraded:    true,
	models.SubmissionStatusReturned:  true,
}

// RegisterRoutes registers all assignment handler routes
func (h *AssignmentHandler) RegisterRoutes(r chi.Router, mw Middlewares) {
	r.Group(func(r chi.Router) {
		r.Use(mw.Instructor)
		r.Post("/instructor/assignments", h.CreateAssignment)
		r.Patch("/instructor/assignments/{id}", h.UpdateAssignment)
		r.Delete("/instructor/assignments/{id}", h.DeleteAssignment)
		r.Get("/instructor/assignments/{id}/submissions", h.ListSubmissions)
		r.Post("/instructor/submissions/{id}/grade", h.GradeSubmission)
		r.Post("/instructor/submissions/{id}/return", h.ReturnSubmission)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.Auth)
		r.Get("/courses/{slug}/assignments", h.ListAssignments)
		r.Put("/assignments/{id}/submission", h.Submit)
		r.Get("/assignments/{id}/submission", h.GetMySubmission)
	})
}

// CreateAssignment handles POST /instructor/assignments
// @Summary Create an assignment
// @Tags instructor
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreateAssignmentRequest true "Assignment"
// @Success 201 {object} models.Assignment
// @Router /instructor/assignments [post]
func (h *AssignmentHandler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	var req models.CreateAssignmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	assignment, err := h.service.CreateAssignment(r.Context(), v, &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "create assignment")
		return
	}

	h.RespondJSON(w, http.StatusCreated, assignment)
}

// UpdateAssignment handles PATCH /instructor/assignments/{id}
// @Summary Update an assignment (partial update)
// @Tags instructor
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Assignment ID"
// @Param request body models.UpdateAssignmentRequest true "Changed fields"
// @Success 200 {object} models.Assignment
// @Router /instructor/assignments/{id} [patch]
func (h *AssignmentHandler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.UpdateAssignmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	assignment, err := h.service.UpdateAssignment(r.Context(), v, id, &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "update assignment")
		return
	}

	h.RespondJSON(w, http.StatusOK, assignment)
}

// DeleteAssignment handles DELETE /instructor/assignments/{id}
// @Summary Delete an assignment
// @Tags instructor
// @Security ApiKeyAuth
// @Param id path int true "Assignment ID"
// @Success 204 "No Content"
// @Router /instructor/assignments/{id} [delete]
func (h *AssignmentHandler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteAssignment(r.Context(), v, id); err != nil {
		h.RespondServiceError(w, r, err, "delete assignment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListSubmissions handles GET /instructor/assignments/{id}/submissions
// @Summary Submissions of an assignment
// @Tags instructor
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Assignment ID"
// @Param status query string false "submitted, graded or returned"
// @Success 200 {array} models.Submission
// @Router /instructor/assignments/{id}/submissions [get]
func (h *AssignmentHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	status := r.URL.Query().Get("status")
	if status != "" && !validSubmissionStatuses[models.SubmissionStatus(status)] {
		h.RespondServiceError(w, r, models.NewValidationError("status", "status must be one of submitted, graded, returned"), "list submissions")
		return
	}

	submissions, err := h.service.ListSubmissions(r.Context(), v, id, status)
	if err != nil {
		h.RespondServiceError(w, r, err, "list submissions")
		return
	}

	h.RespondJSON(w, http.StatusOK, submissions)
}

// GradeSubmission handles POST /instructor/submissions/{id}/grade
// @Summary Grade a submission
// @Tags instructor
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Submission ID"
// @Param request body models.GradeSubmissionRequest true "Grade"
// @Success 200 {object} models.Submission
// @Failure 409 {object} ErrorResponse "Submission is not awaiting a grade"
// @Router /instructor/submissions/{id}/grade [post]
func (h *AssignmentHandler) GradeSubmission(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.GradeSubmissionRequest
	if !h.decode(w, r, &req) {
		return
	}

	submission, err := h.service.GradeSubmission(r.Context(), v, id, &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "grade submission")
		return
	}

	h.RespondJSON(w, http.StatusOK, submission)
}

// ReturnSubmission handles POST /instructor/submissions/{id}/return
// @Summary Return a submission for rework
// @Tags instructor
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Submission ID"
// @Param request body models.ReturnSubmissionRequest true "Feedback"
// @Success 200 {object} models.Submission
// @Router /instructor/submissions/{id}/return [post]
func (h *AssignmentHandler) ReturnSubmission(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.ReturnSubmissionRequest
	if !h.decode(w, r, &req) {
		return
	}

	submission, err := h.service.ReturnSubmission(r.Context(), v, id, &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "return submission")
		return
	}

	h.RespondJSON(w, http.StatusOK, submission)
}

// ListAssignments handles GET /courses/{slug}/assignments
// @Summary Assignments of a course with the user's submissions
// @Tags assignments
// @Produce json
// @Security ApiKeyAuth
// @Param slug path string true "Course slug"
// @Success 200 {array} models.AssignmentWithSubmission
// @Router /courses/{slug}/assignments [get]
func (h *AssignmentHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}

	assignments, err := h.service.ListAssignments(r.Context(), v, chi.URLParam(r, "slug"))
	if err != nil {
		h.RespondServiceError(w, r, err, "list assignments")
		return
	}

	h.RespondJSON(w, http.StatusOK, assignments)
}

// Submit handles PUT /assignments/{id}/submission
// @Summary Submit or resubmit an assignment
// @Tags assignments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Assignment ID"
// @Param request body models.SubmitAssignmentRequest true "Submission"
// @Success 200 {object} models.Submission
// @Failure 409 {object} ErrorResponse "Already graded"
// @Router /assignments/{id}/submission [put]
func (h *AssignmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.SubmitAssignmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	submission, err := h.service.Submit(r.Context(), v, id, &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "submit assignment")
		return
	}

	h.RespondJSON(w, http.StatusOK, submission)
}

// GetMySubmission handles GET /assignments/{id}/submission
// @Summary The user's submission of an assignment
// @Tags assignments
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Assignment ID"
// @Success 200 {object} models.Submission
// @Failure 404 {object} ErrorResponse "Nothing submitted yet"
// @Router /assignments/{id}/submission [get]
func (h *AssignmentHandler) GetMySubmission(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	submission, err := h.service.GetMySubmission(r.Context(), v, id)
	if err != nil {
		h.RespondServiceError(w, r, err, "get submission")
		return
	}

	h.RespondJSON(w, http.StatusOK, submission)
}
