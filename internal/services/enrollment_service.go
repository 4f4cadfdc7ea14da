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

// EnrollmentRepository is the interface that wraps methods for Enrollment table data access
type EnrollmentRepository interface {
	// Method Create inserts an enrollment and sets its ID.
	//
	// If the user is already enrolled or the payment reference was used, an error wrapping models.ErrConflict will be returned.
	Create(ctx context.Context, enrollment *models.Enrollment) error
	// Method GetByUserAndCourse retrieves the enrollment of a user in a course regardless of its status.
	//
	// If there is no such enrollment, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByUserAndCourse(ctx context.Context, userID, courseID int) (*models.Enrollment, error)
	// Method GetByPaymentRef retrieves the enrollment created for a payment reference.
	GetByPaymentRef(ctx context.Context, paymentRef string) (*models.Enrollment, error)
	// Method Reactivate restores a revoked enrollment with a new source and payment.
	Reactivate(ctx context.Context, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, id int, status models.EnrollmentStatus) error
	// Method UpdateProgress stores the roll-up of an enrollment.
	UpdateProgress(ctx context.Context, id, percent int, lastLessonID *int, completedAt *time.Time) error
	ListByUser(ctx context.Context, userID int) ([]models.EnrollmentListItem, error)
	// Method CountByCourse counts enrollments of a course in any status.
	CountByCourse(ctx context.Context, courseID int) (int, error)
	CountActiveByCourse(ctx context.Context, courseID int) (int, error)
	// Method ListActive retrieves active enrollments, of one course when courseID is not nil.
	ListActive(ctx context.Context, courseID *int) ([]models.Enrollment, error)
}

// enrollmentService implements free and paid enrollment, grants and revocation
type enrollmentService struct {
	enrollmentRepo EnrollmentRepository
	courseRepo     CourseRepository
	userRepo       UserRepository
	tasks          TaskEnqueuer
	logger         *zap.Logger
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(
	enrollmentRepo EnrollmentRepository,
	courseRepo CourseRepository,
	userRepo UserRepository,
	enqueuer TaskEnqueuer,
	logger *zap.Logger,
) *enrollmentService {
	return &enrollmentService{
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		userRepo:       userRepo,
		tasks:          enqueuer,
		logger:         logger,
	}
}

// EnrollFree enrolls a student in a free published course. Enrolling twice returns the existing enrollment.
// The boolean result reports whether a new enrollment was created.
func (s *enrollmentService) EnrollFree(ctx context.Context, userID int, courseSlug string) (*models.Enrollment, bool, error) {
	course, err := s.courseRepo.GetBySlug(ctx, courseSlug)
	if err != nil {
		return nil, false, err
	}
	if course.Status != models.CourseStatusPublished {
		return nil, false, fmt.Errorf("course %w", models.ErrNotFound)
	}
	if !course.IsFree() {
		return nil, false, fmt.Errorf("course costs %d: %w", course.Price, models.ErrPaymentRequired)
	}

	existing, err := s.enrollmentRepo.GetByUserAndCourse(ctx, userID, course.ID)
	if err == nil {
		if existing.Status == models.EnrollmentStatusRevoked {
			return nil, false, fmt.Errorf("enrollment was revoked: %w", models.ErrForbidden)
		}
		return existing, false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, false, err
	}

	enrollment := &models.Enrollment{
		UserID:   userID,
		CourseID: course.ID,
		Source:   models.EnrollmentSourceFree,
		Status:   models.EnrollmentStatusActive,
	}
	if err := s.enrollmentRepo.Create(ctx, enrollment); err != nil {
		if errors.Is(err, models.ErrConflict) {
			// A concurrent request enrolled first
			existing, getErr := s.enrollmentRepo.GetByUserAndCourse(ctx, userID, course.ID)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	s.logger.Info("free enrollment created", zap.Int("userId", userID), zap.Int("courseId", course.ID))
	notify(ctx, s.tasks, s.logger, tasks.TypeEnrollmentEmail, tasks.EnrollmentPayload{UserID: userID, CourseID: course.ID})
	return enrollment, true, nil
}

// ConfirmPayment records a paid enrollment reported by the payment callback.
// Repeating a confirmation with the same payment reference returns the same enrollment.
func (s *enrollmentService) ConfirmPayment(ctx context.Context, req *models.ConfirmPaymentRequest) (*models.Enrollment, bool, error) {
	paymentRef := strings.TrimSpace(req.PaymentRef)

	byRef, err := s.enrollmentRepo.GetByPaymentRef(ctx, paymentRef)
	if err == nil {
		if byRef.UserID != req.UserID || byRef.CourseID != req.CourseID {
			return nil, false, fmt.Errorf("payment reference belongs to another enrollment: %w", models.ErrConflict)
		}
		return byRef, false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, false, err
	}

	course, err := s.courseRepo.GetByID(ctx, req.CourseID)
	if err != nil {
		return nil, false, err
	}
	if course.Status != models.CourseStatusPublished {
		return nil, false, models.NewValidationError("courseId", "course is not published")
	}
	if course.IsFree() {
		return nil, false, models.NewValidationError("courseId", "course is free")
	}
	if req.Amount != course.Price {
		return nil, false, models.NewValidationError("amount", fmt.Sprintf("amount must equal the course price %d", course.Price))
	}

	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		return nil, false, err
	}

	enrollment := &models.Enrollment{
		UserID:     req.UserID,
		CourseID:   course.ID,
		Source:     models.EnrollmentSourcePayment,
		PaymentRef: paymentRef,
		AmountPaid: req.Amount,
		Status:     models.EnrollmentStatusActive,
	}
	if err := s.createOrReactivate(ctx, enrollment); err != nil {
		return nil, false, err
	}

	s.logger.Info("paid enrollment created",
		zap.Int("userId", req.UserID),
		zap.Int("courseId", course.ID),
		zap.String("paymentRef", paymentRef),
		zap.Int("amount", req.Amount),
	)
	notify(ctx, s.tasks, s.logger, tasks.TypeEnrollmentEmail, tasks.EnrollmentPayload{UserID: req.UserID, CourseID: course.ID})
	return enrollment, true, nil
}

// Grant gives a user access to a course in any status without payment
func (s *enrollmentService) Grant(ctx context.Context, req *models.GrantEnrollmentRequest) (*models.Enrollment, bool, error) {
	course, err := s.courseRepo.GetByID(ctx, req.CourseID)
	if err != nil {
		return nil, false, err
	}
	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		return nil, false, err
	}

	existing, err := s.enrollmentRepo.GetByUserAndCourse(ctx, req.UserID, course.ID)
	if err == nil && existing.Status == models.EnrollmentStatusActive {
		return existing, false, nil
	}
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, false, err
	}

	enrollment := &models.Enrollment{
		UserID:   req.UserID,
		CourseID: course.ID,
		Source:   models.EnrollmentSourceAdmin,
		Status:   models.EnrollmentStatusActive,
	}
	if err := s.createOrReactivate(ctx, enrollment); err != nil {
		return nil, false, err
	}

	notify(ctx, s.tasks, s.logger, tasks.TypeEnrollmentEmail, tasks.EnrollmentPayload{UserID: req.UserID, CourseID: course.ID})
	return enrollment, true, nil
}

// createOrReactivate inserts the enrollment or restores a revoked one.
// An active enrollment that already exists is a conflict.
func (s *enrollmentService) createOrReactivate(ctx context.Context, enrollment *models.Enrollment) error {
	existing, err := s.enrollmentRepo.GetByUserAndCourse(ctx, enrollment.UserID, enrollment.CourseID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return err
		}
		return s.enrollmentRepo.Create(ctx, enrollment)
	}

	if existing.Status == models.EnrollmentStatusActive {
		return fmt.Errorf("user is already enrolled: %w", models.ErrConflict)
	}

	enrollment.ID = existing.ID
	if err := s.enrollmentRepo.Reactivate(ctx, enrollment); err != nil {
		return err
	}
	enrollment.AmountPaid += existing.AmountPaid
	enrollment.ProgressPercent = existing.ProgressPercent
	enrollment.CompletedAt = existing.CompletedAt
	enrollment.LastLessonID = existing.LastLessonID
	enrollment.CreatedAt = existing.CreatedAt
	return nil
}

// Revoke removes access without deleting the enrollment or its progress
func (s *enrollmentService) Revoke(ctx context.Context, userID, courseID int) error {
	enrollment, err := s.enrollmentRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return err
	}
	if enrollment.Status == models.EnrollmentStatusRevoked {
		return nil
	}

	if err := s.enrollmentRepo.UpdateStatus(ctx, enrollment.ID, models.EnrollmentStatusRevoked); err != nil {
		return err
	}

	s.logger.Info("enrollment revoked", zap.Int("userId", userID), zap.Int("courseId", courseID))
	return nil
}

// ListMyEnrollments lists active enrollments of a user with course cards and progress
func (s *enrollmentService) ListMyEnrollments(ctx context.Context, userID int) ([]models.EnrollmentListItem, error) {
	items, err := s.enrollmentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.EnrollmentListItem{}
	}
	return items, nil
}

// IsEnrolled reports whether the viewer may study the course: an active enrollment,
// the course instructor or an admin
func (s *enrollmentService) IsEnrolled(ctx context.Context, viewer models.Viewer, courseID int) (bool, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return false, err
	}

	err = requireCourseAccess(ctx, s.enrollmentRepo, viewer, course)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, models.ErrNotEnrolled), errors.Is(err, models.ErrUnauthorized):
		return false, nil
	default:
		return false, err
	}
}
