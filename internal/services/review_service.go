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

// ReviewRepository is the interface that wraps methods for CourseReview and ReviewReport table data access
type ReviewRepository interface {
	ReviewAggregates
	// Method Create inserts a review and sets its ID.
	//
	// A second review of the same course by the same user is rejected with an error wrapping models.ErrConflict.
	Create(ctx context.Context, review *models.CourseReview) error
	GetByID(ctx context.Context, id int) (*models.CourseReview, error)
	GetByCourseAndUser(ctx context.Context, courseID, userID int) (*models.CourseReview, error)
	// Method Save overwrites rating, comment and moderation fields. The report count is never written.
	Save(ctx context.Context, review *models.CourseReview) error
	Delete(ctx context.Context, id int) error
	// Method ListPublic retrieves approved and visible reviews of a course with their total.
	ListPublic(ctx context.Context, courseID int, rating *int, page, count int) ([]models.PublicReview, int, error)
	// Method ListAdmin retrieves reviews matching the moderation filter with their total.
	ListAdmin(ctx context.Context, filter models.ReviewFilter) ([]models.CourseReview, int, error)
	// Method AddReport records a report and increments the report count. The review is hidden
	// once the count reaches hideThreshold. It returns the new count and visibility.
	//
	// A second report by the same user is rejected with an error wrapping models.ErrConflict.
	AddReport(ctx context.Context, report *models.ReviewReport, hideThreshold int) (int, bool, error)
	ListReports(ctx context.Context, reviewID int) ([]models.ReviewReport, error)
	ClearReports(ctx context.Context, reviewID int) error
}

// reviewService implements student reviews, reports and admin moderation
type reviewService struct {
	reviewRepo     ReviewRepository
	courseRepo     CourseRepository
	enrollmentRepo EnrollmentRepository
	cache          CatalogCache
	tasks          TaskEnqueuer
	logger         *zap.Logger
	autoApprove    bool
	hideThreshold  int
	now            func() time.Time
}

// NewReviewService creates a new review service
func NewReviewService(
	reviewRepo ReviewRepository,
	courseRepo CourseRepository,
	enrollmentRepo EnrollmentRepository,
	cache CatalogCache,
	enqueuer TaskEnqueuer,
	logger *zap.Logger,
	autoApprove bool,
	hideThreshold int,
) *reviewService {
	return &reviewService{
		reviewRepo:     reviewRepo,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		cache:          cache,
		tasks:          enqueuer,
		logger:         logger,
		autoApprove:    autoApprove,
		hideThreshold:  hideThreshold,
		now:            time.Now,
	}
}

// CreateReview stores the viewer's review of a course they are enrolled in.
// New reviews wait for moderation unless auto-approval is on.
func (s *reviewService) CreateReview(ctx context.Context, viewer models.Viewer, courseSlug string, req *models.CreateReviewRequest) (*models.CourseReview, error) {
	course, err := s.courseRepo.GetBySlug(ctx, courseSlug)
	if err != nil {
		return nil, err
	}
	if _, err := activeEnrollment(ctx, s.enrollmentRepo, viewer.UserID, course.ID); err != nil {
		return nil, err
	}

	now := s.now()
	review := &models.CourseReview{
		CourseID:    course.ID,
		CourseTitle: course.Title,
		UserID:      viewer.UserID,
		Rating:      req.Rating,
		Comment:     strings.TrimSpace(req.Comment),
		IsApproved:  s.autoApprove,
		IsVisible:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	if review.IsApproved {
		invalidateCatalog(ctx, s.cache, s.logger)
	}
	return review, nil
}

// UpdateMyReview edits the viewer's review. An edited review goes back to pending
// unless auto-approval is on; a rejected review becomes visible again for moderation.
func (s *reviewService) UpdateMyReview(ctx context.Context, viewer models.Viewer, courseSlug string, req *models.UpdateReviewRequest) (*models.CourseReview, error) {
	review, err := s.myReview(ctx, viewer, courseSlug)
	if err != nil {
		return nil, err
	}
	if req.Rating == nil && req.Comment == nil {
		return nil, models.ErrNothingChanged
	}

	wasListed := review.PubliclyListed()
	if review.Status() == models.ReviewStatusRejected {
		review.IsVisible = true
	}
	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	if req.Comment != nil {
		review.Comment = strings.TrimSpace(*req.Comment)
	}
	review.IsApproved = s.autoApprove
	review.ModeratedAt = nil
	review.ModeratedBy = nil
	review.UpdatedAt = s.now()

	if err := s.reviewRepo.Save(ctx, review); err != nil {
		return nil, err
	}

	if wasListed || review.PubliclyListed() {
		invalidateCatalog(ctx, s.cache, s.logger)
	}
	return review, nil
}

// DeleteMyReview removes the viewer's review
func (s *reviewService) DeleteMyReview(ctx context.Context, viewer models.Viewer, courseSlug string) error {
	review, err := s.myReview(ctx, viewer, courseSlug)
	if err != nil {
		return err
	}
	if err := s.reviewRepo.Delete(ctx, review.ID); err != nil {
		return err
	}
	if review.PubliclyListed() {
		invalidateCatalog(ctx, s.cache, s.logger)
	}
	return nil
}

// GetMyReview returns the viewer's review of a course with its moderation state
func (s *reviewService) GetMyReview(ctx context.Context, viewer models.Viewer, courseSlug string) (*models.CourseReview, error) {
	return s.myReview(ctx, viewer, courseSlug)
}

func (s *reviewService) myReview(ctx context.Context, viewer models.Viewer, courseSlug string) (*models.CourseReview, error) {
	course, err := s.courseRepo.GetBySlug(ctx, courseSlug)
	if err != nil {
		return nil, err
	}
	return s.reviewRepo.GetByCourseAndUser(ctx, course.ID, viewer.UserID)
}

// ListCourseReviews lists approved and visible reviews of a published course
func (s *reviewService) ListCourseReviews(ctx context.Context, courseSlug string, rating *int, page, count int) (*models.Page[models.PublicReview], error) {
	course, err := s.courseRepo.GetBySlug(ctx, courseSlug)
	if err != nil {
		return nil, err
	}
	if course.Status != models.CourseStatusPublished {
		return nil, fmt.Errorf("course %w", models.ErrNotFound)
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, models.NewValidationError("rating", "rating must be between 1 and 5")
	}

	page, count = models.NormalizePage(page, count, 10, 50)
	reviews, total, err := s.reviewRepo.ListPublic(ctx, course.ID, rating, page, count)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []models.PublicReview{}
	}

	return &models.Page[models.PublicReview]{Items: reviews, Total: total, Page: page, Count: count}, nil
}

// ReportReview records the viewer's report of a public review.
// Authors cannot report their own review and each user reports a review once.
func (s *reviewService) ReportReview(ctx context.Context, viewer models.Viewer, reviewID int, req *models.ReportReviewRequest) (*models.ReportReviewResult, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if !review.PubliclyListed() {
		return nil, fmt.Errorf("review %w", models.ErrNotFound)
	}
	if review.UserID == viewer.UserID {
		return nil, fmt.Errorf("cannot report own review: %w", models.ErrForbidden)
	}

	report := &models.ReviewReport{
		ReviewID: review.ID,
		UserID:   viewer.UserID,
		Reason:   strings.TrimSpace(req.Reason),
	}
	count, visible, err := s.reviewRepo.AddReport(ctx, report, s.hideThreshold)
	if err != nil {
		return nil, err
	}

	if !visible {
		s.logger.Info("review hidden by reports", zap.Int("reviewId", review.ID), zap.Int("reportCount", count))
		invalidateCatalog(ctx, s.cache, s.logger)
	}
	return &models.ReportReviewResult{ReportCount: count, IsVisible: visible}, nil
}

// ListReviews lists reviews for moderation
func (s *reviewService) ListReviews(ctx context.Context, filter models.ReviewFilter) (*models.Page[models.CourseReview], error) {
	switch filter.Status {
	case "", models.ReviewStatusPending, models.ReviewStatusApproved, models.ReviewStatusRejected:
	default:
		return nil, models.NewValidationError("status", "status must be one of pending, approved, rejected")
	}
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Page, filter.Count = models.NormalizePage(filter.Page, filter.Count, 20, 100)

	reviews, total, err := s.reviewRepo.ListAdmin(ctx, filter)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []models.CourseReview{}
	}

	return &models.Page[models.CourseReview]{Items: reviews, Total: total, Page: filter.Page, Count: filter.Count}, nil
}

// GetReview returns a review with its reports
func (s *reviewService) GetReview(ctx context.Context, reviewID int) (*models.ReviewDetail, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	reports, err := s.reviewRepo.ListReports(ctx, review.ID)
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []models.ReviewReport{}
	}
	return &models.ReviewDetail{Review: *review, Status: review.Status(), Reports: reports}, nil
}

// Moderate applies a moderation action. The deleted review is returned as nil.
func (s *reviewService) Moderate(ctx context.Context, adminID, reviewID int, action models.ModerationAction, note string) (*models.CourseReview, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	note = strings.TrimSpace(note)
	now := s.now()

	switch action {
	case models.ModerationApprove:
		review.IsApproved = true
		review.IsVisible = true
		review.ModeratedAt = &now
		review.ModeratedBy = &adminID
		review.ModerationNote = note
	case models.ModerationReject:
		review.IsApproved = false
		review.IsVisible = false
		review.ModeratedAt = &now
		review.ModeratedBy = &adminID
		review.ModerationNote = note
	case models.ModerationHide, models.ModerationUnhide:
		review.IsVisible = action == models.ModerationUnhide
		if note != "" {
			review.ModerationNote = note
		}
	case models.ModerationClearReports:
		if err := s.reviewRepo.ClearReports(ctx, review.ID); err != nil {
			return nil, err
		}
		review.ReportCount = 0
		s.logModeration(adminID, review.ID, action)
		return review, nil
	case models.ModerationDelete:
		if err := s.reviewRepo.Delete(ctx, review.ID); err != nil {
			return nil, err
		}
		s.logModeration(adminID, review.ID, action)
		invalidateCatalog(ctx, s.cache, s.logger)
		return nil, nil
	default:
		return nil, models.NewValidationError("action", "unknown moderation action")
	}

	review.UpdatedAt = now
	if err := s.reviewRepo.Save(ctx, review); err != nil {
		return nil, err
	}

	s.logModeration(adminID, review.ID, action)
	invalidateCatalog(ctx, s.cache, s.logger)
	if action == models.ModerationApprove || action == models.ModerationReject {
		notify(ctx, s.tasks, s.logger, tasks.TypeReviewModeratedEmail, tasks.ReviewModeratedPayload{
			ReviewID: review.ID,
			Action:   string(action),
		})
	}
	return review, nil
}

func (s *reviewService) logModeration(adminID, reviewID int, action models.ModerationAction) {
	s.logger.Info("review moderated",
		zap.Int("reviewId", reviewID),
		zap.String("action", string(action)),
		zap.Int("adminId", adminID),
	)
}

// BulkModerate applies one action to many reviews and reports failures per review
func (s *reviewService) BulkModerate(ctx context.Context, adminID int, req *models.BulkModerateRequest) (*models.BulkModerateResult, error) {
	result := &models.BulkModerateResult{Succeeded: []int{}, Failed: map[int]string{}}

	seen := make(map[int]bool, len(req.IDs))
	for _, id := range req.IDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		if _, err := s.Moderate(ctx, adminID, id, req.Action, req.Note); err != nil {
			var validationErr *models.ValidationError
			if errors.As(err, &validationErr) {
				return nil, err
			}
			result.Failed[id] = err.Error()
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}

	if len(result.Failed) == 0 {
		result.Failed = nil
	}
	return result, nil
}
