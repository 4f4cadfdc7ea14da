// Package worker processes background tasks: notification emails and catalog/progress maintenance
package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coursehub/backend/internal/models"
	"github.com/coursehub/backend/internal/tasks"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// UserRepository resolves notification recipients
type UserRepository interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
}

// CourseRepository resolves course titles and links
type CourseRepository interface {
	GetByID(ctx context.Context, id int) (*models.Course, error)
}

// SubmissionRepository resolves graded submissions
type SubmissionRepository interface {
	GetByID(ctx context.Context, id int) (*models.Submission, error)
}

// AssignmentRepository resolves the assignment of a submission
type AssignmentRepository interface {
	GetByID(ctx context.Context, id int) (*models.Assignment, error)
}

// ReviewRepository resolves moderated reviews
type ReviewRepository interface {
	GetByID(ctx context.Context, id int) (*models.CourseReview, error)
}

// UserTokenRepository prunes refresh tokens
type UserTokenRepository interface {
	// DeleteOlderThan removes tokens created before the cutoff and returns how many were removed
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CatalogMaintainer is the part of the catalog service used by maintenance tasks
type CatalogMaintainer interface {
	WarmCache(ctx context.Context) error
	SnapshotRatings(ctx context.Context) (int, error)
}

// ProgressRecomputer rebuilds enrollment percentages
type ProgressRecomputer interface {
	RecomputeCourse(ctx context.Context, courseID *int) (int, error)
}

// Mailer delivers a rendered email
type Mailer interface {
	Send(to, subject, body string) error
}

// Repositories groups the lookups used to render emails
type Repositories struct {
	Users       UserRepository
	Courses     CourseRepository
	Submissions SubmissionRepository
	Assignments AssignmentRepository
	Reviews     ReviewRepository
	Tokens      UserTokenRepository
}

// Worker handles task processing
type Worker struct {
	logger    *zap.Logger
	repos     Repositories
	catalog   CatalogMaintainer
	progress  ProgressRecomputer
	mailer    Mailer
	publicURL string
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewWorker creates a new worker instance.
// tokenTTL is the refresh token lifetime; older stored tokens are removed by the cleanup task.
func NewWorker(
	logger *zap.Logger,
	repos Repositories,
	catalog CatalogMaintainer,
	progress ProgressRecomputer,
	mailer Mailer,
	publicURL string,
	tokenTTL time.Duration,
) *Worker {
	return &Worker{
		logger:    logger,
		repos:     repos,
		catalog:   catalog,
		progress:  progress,
		mailer:    mailer,
		publicURL: strings.TrimRight(publicURL, "/"),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// Register binds every task type to its handler
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(tasks.TypeEnrollmentEmail, w.HandleEnrollmentEmail)
	mux.HandleFunc(tasks.TypeCourseCompletedEmail, w.HandleCourseCompletedEmail)
	mux.HandleFunc(tasks.TypeSubmissionGradedEmail, w.HandleSubmissionGradedEmail)
	mux.HandleFunc(tasks.TypeReviewModeratedEmail, w.HandleReviewModeratedEmail)
	mux.HandleFunc(tasks.TypeRatingSnapshot, w.HandleRatingSnapshot)
	mux.HandleFunc(tasks.TypeCatalogWarmup, w.HandleCatalogWarmup)
	mux.HandleFunc(tasks.TypeProgressRecompute, w.HandleProgressRecompute)
	mux.HandleFunc(tasks.TypeTokenCleanup, w.HandleTokenCleanup)
}

// decode unmarshals the payload. A malformed payload will never succeed, so it skips retries.
func decode(t *asynq.Task, v any) error {
	if err := tasks.Decode(t, v); err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return nil
}

// gone reports whether a lookup failed because the record was deleted after the task was enqueued
func (w *Worker) gone(taskType string, err error) bool {
	if errors.Is(err, models.ErrNotFound) {
		w.logger.Info("task target no longer exists, skipping", zap.String("type", taskType), zap.Error(err))
		return true
	}
	return false
}

func (w *Worker) courseURL(course *models.Course) string {
	return w.publicURL + "/courses/" + course.Slug
}

// recipient loads the user and course of an email, reporting false when either is gone
func (w *Worker) recipient(ctx context.Context, taskType string, userID, courseID int) (*models.User, *models.Course, bool, error) {
	user, err := w.repos.Users.GetByID(ctx, userID)
	if err != nil {
		if w.gone(taskType, err) {
			return nil, nil, false, nil
		}
		return nil, nil, false, err
	}
	if !user.IsActive {
		w.logger.Info("recipient is inactive, skipping", zap.String("type", taskType), zap.Int("userId", userID))
		return nil, nil, false, nil
	}

	course, err := w.repos.Courses.GetByID(ctx, courseID)
	if err != nil {
		if w.gone(taskType, err) {
			return nil, nil, false, nil
		}
		return nil, nil, false, err
	}
	return user, course, true, nil
}

func (w *Worker) send(taskType string, user *models.User, tmpl emailTemplate, title string, data any) error {
	subject, body, err := tmpl.render(title, data)
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	if err := w.mailer.Send(user.Email, subject, body); err != nil {
		return err
	}
	w.logger.Info("email sent", zap.String("type", taskType), zap.Int("userId", user.ID))
	return nil
}

// HandleEnrollmentEmail welcomes a student to a course
func (w *Worker) HandleEnrollmentEmail(ctx context.Context, t *asynq.Task) error {
	var p tasks.EnrollmentPayload
	if err := decode(t, &p); err != nil {
		return err
	}

	user, course, ok, err := w.recipient(ctx, t.Type(), p.UserID, p.CourseID)
	if !ok {
		return err
	}

	return w.send(t.Type(), user, enrollmentEmail, course.Title, map[string]any{
		"Name":        user.Name,
		"CourseTitle": course.Title,
		"CourseURL":   w.courseURL(course),
	})
}

// HandleCourseCompletedEmail congratulates a student on finishing a course
func (w *Worker) HandleCourseCompletedEmail(ctx context.Context, t *asynq.Task) error {
	var p tasks.CourseCompletedPayload
	if err := decode(t, &p); err != nil {
		return err
	}

	user, course, ok, err := w.recipient(ctx, t.Type(), p.UserID, p.CourseID)
	if !ok {
		return err
	}

	return w.send(t.Type(), user, courseCompletedEmail, course.Title, map[string]any{
		"Name":        user.Name,
		"CourseTitle": course.Title,
		"CourseURL":   w.courseURL(course),
	})
}

// HandleSubmissionGradedEmail tells a student their submission was graded or returned
func (w *Worker) HandleSubmissionGradedEmail(ctx context.Context, t *asynq.Task) error {
	var p tasks.SubmissionGradedPayload
	if err := decode(t, &p); err != nil {
		return err
	}

	submission, err := w.repos.Submissions.GetByID(ctx, p.SubmissionID)
	if err != nil {
		if w.gone(t.Type(), err) {
			return nil
		}
		return err
	}
	if submission.Status == models.SubmissionStatusSubmitted {
		// resubmitted before the worker got to it
		return nil
	}

	assignment, err := w.repos.Assignments.GetByID(ctx, submission.AssignmentID)
	if err != nil {
		if w.gone(t.Type(), err) {
			return nil
		}
		return err
	}

	user, course, ok, err := w.recipient(ctx, t.Type(), submission.UserID, assignment.CourseID)
	if !ok {
		return err
	}

	score := 0
	if submission.Score != nil {
		score = *submission.Score
	}
	return w.send(t.Type(), user, submissionGradedEmail, assignment.Title, map[string]any{
		"Name":            user.Name,
		"AssignmentTitle": assignment.Title,
		"Returned":        submission.Status == models.SubmissionStatusReturned,
		"Score":           score,
		"MaxScore":        assignment.MaxScore,
		"Feedback":        submission.Feedback,
		"CourseURL":       w.courseURL(course),
	})
}

// HandleReviewModeratedEmail tells the author whether their review was published
func (w *Worker) HandleReviewModeratedEmail(ctx context.Context, t *asynq.Task) error {
	var p tasks.ReviewModeratedPayload
	if err := decode(t, &p); err != nil {
		return err
	}

	review, err := w.repos.Reviews.GetByID(ctx, p.ReviewID)
	if err != nil {
		if w.gone(t.Type(), err) {
			return nil
		}
		return err
	}

	user, course, ok, err := w.recipient(ctx, t.Type(), review.UserID, review.CourseID)
	if !ok {
		return err
	}

	return w.send(t.Type(), user, reviewModeratedEmail, course.Title, map[string]any{
		"Name":        user.Name,
		"CourseTitle": course.Title,
		"Approved":    p.Action == string(models.ModerationApprove),
		"Note":        review.ModerationNote,
	})
}

// HandleRatingSnapshot caches the rating summary of every course
func (w *Worker) HandleRatingSnapshot(ctx context.Context, t *asynq.Task) error {
	written, err := w.catalog.SnapshotRatings(ctx)
	if err != nil {
		return fmt.Errorf("rating snapshot failed after %d courses: %w", written, err)
	}
	w.logger.Info("rating snapshot stored", zap.Int("courses", written))
	return nil
}

// HandleCatalogWarmup rebuilds the cached catalog pages
func (w *Worker) HandleCatalogWarmup(ctx context.Context, t *asynq.Task) error {
	if err := w.catalog.WarmCache(ctx); err != nil {
		return err
	}
	w.logger.Info("catalog cache warmed")
	return nil
}

// HandleProgressRecompute rebuilds enrollment percentages of one course or of all courses
func (w *Worker) HandleProgressRecompute(ctx context.Context, t *asynq.Task) error {
	var p tasks.ProgressRecomputePayload
	if len(t.Payload()) > 0 {
		if err := decode(t, &p); err != nil {
			return err
		}
	}

	changed, err := w.progress.RecomputeCourse(ctx, p.CourseID)
	if err != nil {
		return err
	}

	fields := []zap.Field{zap.Int("changed", changed)}
	if p.CourseID != nil {
		fields = append(fields, zap.Int("courseId", *p.CourseID))
	}
	w.logger.Info("progress recomputed", fields...)
	return nil
}

// HandleTokenCleanup removes refresh tokens past their lifetime
func (w *Worker) HandleTokenCleanup(ctx context.Context, t *asynq.Task) error {
	removed, err := w.repos.Tokens.DeleteOlderThan(ctx, w.now().Add(-w.tokenTTL))
	if err != nil {
		return err
	}
	w.logger.Info("expired refresh tokens removed", zap.Int64("count", removed))
	return nil
}
