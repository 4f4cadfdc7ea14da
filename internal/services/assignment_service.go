package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coursehub/backend/internal/models"
	"github.com/coursehub/backend/internal/tasks"
	"go.uber.org/zap"
)

// AssignmentRepository is the interface that wraps methods for Assignment table data access
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id int) (*models.Assignment, error)
	// Method ListByCourse retrieves assignments of a course ordered by due date, undated last.
	ListByCourse(ctx context.Context, courseID int) ([]models.Assignment, error)
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id int) error
}

// SubmissionRepository is the interface that wraps methods for Submission table data access
type SubmissionRepository interface {
	// Method Create stores the first submission of a student; a second one is a conflict.
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id int) (*models.Submission, error)
	GetByAssignmentAndUser(ctx context.Context, assignmentID, userID int) (*models.Submission, error)
	// Method Resubmit replaces content and clears the previous grade.
	Resubmit(ctx context.Context, submission *models.Submission) error
	// Method ListByAssignment retrieves submissions, filtered by status when it is not empty.
	ListByAssignment(ctx context.Context, assignmentID int, status models.SubmissionStatus) ([]models.Submission, error)
	ListByUserAndCourse(ctx context.Context, userID, courseID int) ([]models.Submission, error)
	Grade(ctx context.Context, id, score int, feedback string, graderID int, gradedAt time.Time) error
	Return(ctx context.Context, id int, feedback string, graderID int, returnedAt time.Time) error
}

// assignmentService implements assignments, submissions and grading
type assignmentService struct {
	assignmentRepo AssignmentRepository
	submissionRepo SubmissionRepository
	courseRepo     CourseRepository
	lessonRepo     LessonRepository
	enrollmentRepo EnrollmentRepository
	tasks          TaskEnqueuer
	logger         *zap.Logger
	now            func() time.Time
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(
	assignmentRepo AssignmentRepository,
	submissionRepo SubmissionRepository,
	courseRepo CourseRepository,
	lessonRepo LessonRepository,
	enrollmentRepo EnrollmentRepository,
	enqueuer TaskEnqueuer,
	logger *zap.Logger,
) *assignmentService {
	return &assignmentService{
		assignmentRepo: assignmentRepo,
		submissionRepo: submissionRepo,
		courseRepo:     courseRepo,
		lessonRepo:     lessonRepo,
		enrollmentRepo: enrollmentRepo,
		tasks:          enqueuer,
		logger:         logger,
		now:            time.Now,
	}
}

// CreateAssignment adds an assignment to a course, optionally attached to one of its lessons
func (s *assignmentService) CreateAssignment(ctx context.Context, viewer models.Viewer, req *models.CreateAssignmentRequest) (*models.Assignment, error) {
	course, err := s.courseRepo.GetByID(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if err := requireEditor(viewer, course); err != nil {
		return nil, err
	}

	if req.LessonID != nil {
		lesson, err := s.lessonRepo.GetByID(ctx, *req.LessonID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, models.NewValidationError("lessonId", "lesson does not exist")
			}
			return nil, err
		}
		if lesson.CourseID != course.ID {
			return nil, models.NewValidationError("lessonId", "lesson belongs to another course")
		}
	}

	assignment := &models.Assignment{
		CourseID:     course.ID,
		LessonID:     req.LessonID,
		Title:        strings.TrimSpace(req.Title),
		Instructions: req.Instructions,
		MaxScore:     req.MaxScore,
		DueAt:        req.DueAt,
	}
	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, err
	}

	return assignment, nil
}

// UpdateAssignment applies a partial update
func (s *assignmentService) UpdateAssignment(ctx context.Context, viewer models.Viewer, id int, req *models.UpdateAssignmentRequest) (*models.Assignment, error) {
	assignment, _, err := s.editableAssignment(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	changed := false
	if req.Title != "" {
		assignment.Title = strings.TrimSpace(req.Title)
		changed = true
	}
	if req.Instructions != nil {
		assignment.Instructions = *req.Instructions
		changed = true
	}
	if req.MaxScore != nil {
		assignment.MaxScore = *req.MaxScore
		changed = true
	}
	if req.DueAt != nil {
		assignment.DueAt = req.DueAt
		changed = true
	}
	if !changed {
		return nil, models.ErrNothingChanged
	}

	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

// DeleteAssignment removes an assignment with its submissions
func (s *assignmentService) DeleteAssignment(ctx context.Context, viewer models.Viewer, id int) error {
	assignment, _, err := s.editableAssignment(ctx, viewer, id)
	if err != nil {
		return err
	}
	return s.assignmentRepo.Delete(ctx, assignment.ID)
}

// ListSubmissions lists submissions of an assignment for grading
func (s *assignmentService) ListSubmissions(ctx context.Context, viewer models.Viewer, assignmentID int, status string) ([]models.Submission, error) {
	assignment, _, err := s.editableAssignment(ctx, viewer, assignmentID)
	if err != nil {
		return nil, err
	}

	st := models.SubmissionStatus(status)
	switch st {
	case "", models.SubmissionStatusSubmitted, models.SubmissionStatusGraded, models.SubmissionStatusReturned:
	default:
		return nil, models.NewValidationError("status", "status must be one of submitted, graded, returned")
	}

	submissions, err := s.submissionRepo.ListByAssignment(ctx, assignment.ID, st)
	if err != nil {
		return nil, err
	}
	if submissions == nil {
		submissions = []models.Submission{}
	}
	return submissions, nil
}

// GradeSubmission scores a submission. Returned submissions wait for a resubmission first.
func (s *assignmentService) GradeSubmission(ctx context.Context, viewer models.Viewer, submissionID int, req *models.GradeSubmissionRequest) (*models.Submission, error) {
	submission, assignment, err := s.editableSubmission(ctx, viewer, submissionID)
	if err != nil {
		return nil, err
	}

	if submission.Status == models.SubmissionStatusReturned {
		return nil, fmt.Errorf("submission was returned for rework: %w", models.ErrConflict)
	}
	if req.Score == nil || *req.Score < 0 || *req.Score > assignment.MaxScore {
		return nil, models.NewValidationError("score", fmt.Sprintf("score must be between 0 and %d", assignment.MaxScore))
	}

	if err := s.submissionRepo.Grade(ctx, submission.ID, *req.Score, req.Feedback, viewer.UserID, s.now()); err != nil {
		return nil, err
	}

	s.logger.Info("submission graded", zap.Int("submissionId", submission.ID), zap.Int("score", *req.Score), zap.Int("graderId", viewer.UserID))
	notify(ctx, s.tasks, s.logger, tasks.TypeSubmissionGradedEmail, tasks.SubmissionGradedPayload{SubmissionID: submission.ID})

	return s.submissionRepo.GetByID(ctx, submission.ID)
}

// ReturnSubmission sends a submission back to the student for rework
func (s *assignmentService) ReturnSubmission(ctx context.Context, viewer models.Viewer, submissionID int, req *models.ReturnSubmissionRequest) (*models.Submission, error) {
	submission, _, err := s.editableSubmission(ctx, viewer, submissionID)
	if err != nil {
		return nil, err
	}
	if submission.Status == models.SubmissionStatusReturned {
		return submission, nil
	}

	if err := s.submissionRepo.Return(ctx, submission.ID, req.Feedback, viewer.UserID, s.now()); err != nil {
		return nil, err
	}

	notify(ctx, s.tasks, s.logger, tasks.TypeSubmissionGradedEmail, tasks.SubmissionGradedPayload{SubmissionID: submission.ID})
	return s.submissionRepo.GetByID(ctx, submission.ID)
}

// ListAssignments lists assignments of a course. Students also get their own submission of each.
func (s *assignmentService) ListAssignments(ctx context.Context, viewer models.Viewer, courseSlug string) ([]models.AssignmentWithSubmission, error) {
	course, err := s.courseRepo.GetBySlug(ctx, courseSlug)
	if err != nil {
		return nil, err
	}
	if err := requireCourseAccess(ctx, s.enrollmentRepo, viewer, course); err != nil {
		return nil, err
	}

	assignments, err := s.assignmentRepo.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}

	mine := map[int]*models.Submission{}
	if !viewer.CanEdit(course) {
		submissions, err := s.submissionRepo.ListByUserAndCourse(ctx, viewer.UserID, course.ID)
		if err != nil {
			return nil, err
		}
		for i := range submissions {
			mine[submissions[i].AssignmentID] = &submissions[i]
		}
	}

	out := make([]models.AssignmentWithSubmission, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, models.AssignmentWithSubmission{Assignment: a, Submission: mine[a.ID]})
	}
	return out, nil
}

// Submit stores the viewer's answer. A submission can be replaced until it is graded,
// and again after it was returned.
func (s *assignmentService) Submit(ctx context.Context, viewer models.Viewer, assignmentID int, req *models.SubmitAssignmentRequest) (*models.Submission, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if _, err := activeEnrollment(ctx, s.enrollmentRepo, viewer.UserID, assignment.CourseID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Content) == "" && strings.TrimSpace(req.AttachmentURL) == "" {
		return nil, models.NewValidationError("content", "content or attachmentUrl is required")
	}

	now := s.now()
	late := assignment.DueAt != nil && now.After(*assignment.DueAt)

	existing, err := s.submissionRepo.GetByAssignmentAndUser(ctx, assignment.ID, viewer.UserID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	if existing == nil {
		submission := &models.Submission{
			AssignmentID:  assignment.ID,
			UserID:        viewer.UserID,
			Content:       req.Content,
			AttachmentURL: req.AttachmentURL,
			Status:        models.SubmissionStatusSubmitted,
			Late:          late,
			SubmittedAt:   now,
		}
		if err := s.submissionRepo.Create(ctx, submission); err != nil {
			return nil, err
		}
		return submission, nil
	}

	if existing.Status == models.SubmissionStatusGraded {
		return nil, fmt.Errorf("submission already graded: %w", models.ErrConflict)
	}

	existing.Content = req.Content
	existing.AttachmentURL = req.AttachmentURL
	existing.Late = late
	existing.SubmittedAt = now
	if err := s.submissionRepo.Resubmit(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// GetMySubmission returns the viewer's submission of an assignment
func (s *assignmentService) GetMySubmission(ctx context.Context, viewer models.Viewer, assignmentID int) (*models.Submission, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if _, err := activeEnrollment(ctx, s.enrollmentRepo, viewer.UserID, assignment.CourseID); err != nil {
		return nil, err
	}
	return s.submissionRepo.GetByAssignmentAndUser(ctx, assignment.ID, viewer.UserID)
}

func (s *assignmentService) editableAssignment(ctx context.Context, viewer models.Viewer, id int) (*models.Assignment, *models.Course, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	course, err := s.courseRepo.GetByID(ctx, assignment.CourseID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireEditor(viewer, course); err != nil {
		return nil, nil, err
	}
	return assignment, course, nil
}

func (s *assignmentService) editableSubmission(ctx context.Context, viewer models.Viewer, id int) (*models.Submission, *models.Assignment, error) {
	submission, err := s.submissionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	assignment, _, err := s.editableAssignment(ctx, viewer, submission.AssignmentID)
	if err != nil {
		return nil, nil, err
	}
	return submission, assignment, nil
}
