package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/coursehub/backend/internal/models"
	"github.com/coursehub/backend/internal/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type reviewFixture struct {
	reviews     *mockReviewRepository
	courses     *mockCourseRepository
	enrollments *mockEnrollmentRepository
	cache       *mockCatalogCache
	tasks       *mockTaskEnqueuer
}

func newReviewFixture(review *models.CourseReview) *reviewFixture {
	return &reviewFixture{
		reviews:     &mockReviewRepository{review: review},
		courses:     &mockCourseRepository{course: &models.Course{ID: 10, Slug: "go", Title: "Go", InstructorID: 5, Status: models.CourseStatusPublished}},
		enrollments: &mockEnrollmentRepository{enrollment: &models.Enrollment{ID: 40, UserID: 7, CourseID: 10, Status: models.EnrollmentStatusActive}},
		cache:       newMockCatalogCache(),
		tasks:       &mockTaskEnqueuer{},
	}
}

func (f *reviewFixture) service(autoApprove bool) *reviewService {
	svc := NewReviewService(f.reviews, f.courses, f.enrollments, f.cache, f.tasks, zap.NewNop(), autoApprove, 3)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func approvedReview() *models.CourseReview {
	return &models.CourseReview{ID: 90, CourseID: 10, UserID: 7, Rating: 4, IsApproved: true, IsVisible: true}
}

func rejectedReview() *models.CourseReview {
	moderatedAt := fixedNow.Add(-time.Hour)
	admin := 1
	return &models.CourseReview{ID: 90, CourseID: 10, UserID: 7, Rating: 1, ModeratedAt: &moderatedAt, ModeratedBy: &admin}
}

func TestNewReviewService(t *testing.T) {
	f := newReviewFixture(nil)

	svc := NewReviewService(f.reviews, f.courses, f.enrollments, f.cache, f.tasks, zap.NewNop(), true, 5)

	assert.NotNil(t, svc)
	assert.Equal(t, f.reviews, svc.reviewRepo)
	assert.Equal(t, f.cache, svc.cache)
	assert.True(t, svc.autoApprove)
	assert.Equal(t, 5, svc.hideThreshold)
	assert.NotNil(t, svc.now)
}

func TestReviewService_CreateReview(t *testing.T) {
	tests := []struct {
		name               string
		autoApprove        bool
		setup              func(f *reviewFixture)
		expectedError      error
		expectApproved     bool
		expectInvalidation int
	}{
		{name: "pending review"},
		{name: "auto-approved review", autoApprove: true, expectApproved: true, expectInvalidation: 1},
		{
			name:          "not enrolled",
			setup:         func(f *reviewFixture) { f.enrollments.enrollment = nil },
			expectedError: models.ErrNotEnrolled,
		},
		{
			name:          "second review",
			setup:         func(f *reviewFixture) { f.reviews.createErr = fmt.Errorf("review %w", models.ErrConflict) },
			expectedError: models.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReviewFixture(nil)
			if tt.setup != nil {
				tt.setup(f)
			}
			svc := f.service(tt.autoApprove)

			review, err := svc.CreateReview(context.Background(), studentViewer, "go", &models.CreateReviewRequest{Rating: 5, Comment: " Great "})

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 90, review.ID)
			assert.Equal(t, "Great", review.Comment)
			assert.Equal(t, "Go", review.CourseTitle)
			assert.True(t, review.IsVisible)
			assert.Equal(t, tt.expectApproved, review.IsApproved)
			assert.Equal(t, tt.expectInvalidation, f.cache.invalidations)
		})
	}
}

func TestReviewService_UpdateMyReview(t *testing.T) {
	t.Run("edit sends an approved review back to pending", func(t *testing.T) {
		f := newReviewFixture(approvedReview())
		svc := f.service(false)

		review, err := svc.UpdateMyReview(context.Background(), studentViewer, "go", &models.UpdateReviewRequest{Rating: intPtr(2)})

		require.NoError(t, err)
		assert.Equal(t, 2, review.Rating)
		assert.False(t, review.IsApproved)
		assert.Equal(t, models.ReviewStatusPending, review.Status())
		assert.Equal(t, review, f.reviews.saved)
		assert.Equal(t, 1, f.cache.invalidations)
	})

	t.Run("rejected review becomes visible and pending", func(t *testing.T) {
		f := newReviewFixture(rejectedReview())
		svc := f.service(false)

		review, err := svc.UpdateMyReview(context.Background(), studentViewer, "go", &models.UpdateReviewRequest{Comment: strPtr("edited")})

		require.NoError(t, err)
		assert.True(t, review.IsVisible)
		assert.Nil(t, review.ModeratedAt)
		assert.Nil(t, review.ModeratedBy)
		assert.Equal(t, models.ReviewStatusPending, review.Status())
		assert.Zero(t, f.cache.invalidations)
	})

	t.Run("auto-approve keeps the edit listed", func(t *testing.T) {
		f := newReviewFixture(approvedReview())
		svc := f.service(true)

		review, err := svc.UpdateMyReview(context.Background(), studentViewer, "go", &models.UpdateReviewRequest{Comment: strPtr("still good")})

		require.NoError(t, err)
		assert.True(t, review.PubliclyListed())
	})

	t.Run("nothing to change", func(t *testing.T) {
		f := newReviewFixture(approvedReview())
		svc := f.service(false)

		_, err := svc.UpdateMyReview(context.Background(), studentViewer, "go", &models.UpdateReviewRequest{})

		assert.ErrorIs(t, err, models.ErrNothingChanged)
	})

	t.Run("no review yet", func(t *testing.T) {
		f := newReviewFixture(nil)
		svc := f.service(false)

		_, err := svc.UpdateMyReview(context.Background(), studentViewer, "go", &models.UpdateReviewRequest{Rating: intPtr(3)})

		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestReviewService_DeleteMyReview(t *testing.T) {
	f := newReviewFixture(approvedReview())
	svc := f.service(false)

	require.NoError(t, svc.DeleteMyReview(context.Background(), studentViewer, "go"))
	assert.True(t, f.reviews.deleted)
	assert.Equal(t, 1, f.cache.invalidations)

	review, err := svc.GetMyReview(context.Background(), studentViewer, "go")
	require.NoError(t, err)
	assert.Equal(t, 90, review.ID)
}

func TestReviewService_ListCourseReviews(t *testing.T) {
	tests := []struct {
		name          string
		course        *models.Course
		rating        *int
		expectedError error
	}{
		{name: "published course", course: &models.Course{ID: 10, Status: models.CourseStatusPublished}},
		{name: "rating filter", course: &models.Course{ID: 10, Status: models.CourseStatusPublished}, rating: intPtr(5)},
		{name: "invalid rating", course: &models.Course{ID: 10, Status: models.CourseStatusPublished}, rating: intPtr(6), expectedError: models.ErrInvalidInput},
		{name: "draft course", course: &models.Course{ID: 10, Status: models.CourseStatusDraft}, expectedError: models.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReviewFixture(nil)
			f.courses.course = tt.course
			f.reviews.total = 0
			svc := f.service(false)

			page, err := svc.ListCourseReviews(context.Background(), "go", tt.rating, 0, 100)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, page.Items)
			assert.Equal(t, 1, page.Page)
			assert.Equal(t, 50, page.Count)
		})
	}
}

func TestReviewService_ReportReview(t *testing.T) {
	tests := []struct {
		name               string
		review             *models.CourseReview
		viewer             models.Viewer
		setup              func(f *reviewFixture)
		expectedError      error
		expectInvalidation int
	}{
		{
			name:   "report below the threshold",
			review: approvedReview(),
			viewer: models.Viewer{UserID: 8, Role: models.RoleStudent},
			setup: func(f *reviewFixture) {
				f.reviews.reportCount = 1
				f.reviews.reportVisible = true
			},
		},
		{
			name:   "report hides the review",
			review: approvedReview(),
			viewer: models.Viewer{UserID: 8, Role: models.RoleStudent},
			setup: func(f *reviewFixture) {
				f.reviews.reportCount = 3
				f.reviews.reportVisible = false
			},
			expectInvalidation: 1,
		},
		{
			name:          "own review",
			review:        approvedReview(),
			viewer:        studentViewer,
			expectedError: models.ErrForbidden,
		},
		{
			name:          "pending review is not public",
			review:        &models.CourseReview{ID: 90, UserID: 7, IsVisible: true},
			viewer:        models.Viewer{UserID: 8, Role: models.RoleStudent},
			expectedError: models.ErrNotFound,
		},
		{
			name:   "reported twice",
			review: approvedReview(),
			viewer: models.Viewer{UserID: 8, Role: models.RoleStudent},
			setup: func(f *reviewFixture) {
				f.reviews.reportErr = fmt.Errorf("review already reported: %w", models.ErrConflict)
			},
			expectedError: models.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReviewFixture(tt.review)
			if tt.setup != nil {
				tt.setup(f)
			}
			svc := f.service(false)

			result, err := svc.ReportReview(context.Background(), tt.viewer, 90, &models.ReportReviewRequest{Reason: " spam "})

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, f.reviews.reportCount, result.ReportCount)
			assert.Equal(t, f.reviews.reportVisible, result.IsVisible)
			assert.Equal(t, 3, f.reviews.threshold)
			assert.Equal(t, tt.expectInvalidation, f.cache.invalidations)
		})
	}
}

func TestReviewService_ListReviews(t *testing.T) {
	f := newReviewFixture(nil)
	svc := f.service(false)

	page, err := svc.ListReviews(context.Background(), models.ReviewFilter{Status: models.ReviewStatusPending, Search: " spam ", Reported: true})

	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 20, page.Count)
	assert.Equal(t, "spam", f.reviews.lastFilter.Search)
	assert.True(t, f.reviews.lastFilter.Reported)

	_, err = svc.ListReviews(context.Background(), models.ReviewFilter{Status: "deleted"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestReviewService_GetReview(t *testing.T) {
	f := newReviewFixture(rejectedReview())
	svc := f.service(false)

	detail, err := svc.GetReview(context.Background(), 90)

	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusRejected, detail.Status)
	assert.NotNil(t, detail.Reports)
}

func TestReviewService_Moderate(t *testing.T) {
	tests := []struct {
		name               string
		review             *models.CourseReview
		action             models.ModerationAction
		expectedStatus     models.ReviewStatus
		expectVisible      bool
		expectDeleted      bool
		expectCleared      bool
		expectTask         bool
		expectInvalidation int
		expectedError      error
	}{
		{
			name: "approve", review: &models.CourseReview{ID: 90, UserID: 7, IsVisible: true}, action: models.ModerationApprove,
			expectedStatus: models.ReviewStatusApproved, expectVisible: true, expectTask: true, expectInvalidation: 1,
		},
		{
			name: "reject", review: approvedReview(), action: models.ModerationReject,
			expectedStatus: models.ReviewStatusRejected, expectTask: true, expectInvalidation: 1,
		},
		{
			name: "hide", review: approvedReview(), action: models.ModerationHide,
			expectedStatus: models.ReviewStatusApproved, expectInvalidation: 1,
		},
		{
			name: "unhide", review: &models.CourseReview{ID: 90, IsApproved: true}, action: models.ModerationUnhide,
			expectedStatus: models.ReviewStatusApproved, expectVisible: true, expectInvalidation: 1,
		},
		{
			name: "clear reports", review: &models.CourseReview{ID: 90, IsApproved: true, IsVisible: true, ReportCount: 4}, action: models.ModerationClearReports,
			expectedStatus: models.ReviewStatusApproved, expectVisible: true, expectCleared: true,
		},
		{
			name: "delete", review: approvedReview(), action: models.ModerationDelete,
			expectDeleted: true, expectInvalidation: 1,
		},
		{
			name: "unknown action", review: approvedReview(), action: "ban",
			expectedError: models.ErrInvalidInput,
		},
		{
			name: "unknown review", action: models.ModerationApprove,
			expectedError: models.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReviewFixture(tt.review)
			svc := f.service(false)

			review, err := svc.Moderate(context.Background(), 1, 90, tt.action, " looks fine ")

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, f.reviews.saved)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectDeleted, f.reviews.deleted)
			assert.Equal(t, tt.expectCleared, f.reviews.cleared)
			assert.Equal(t, tt.expectInvalidation, f.cache.invalidations)

			if tt.expectTask {
				assert.Equal(t, []string{tasks.TypeReviewModeratedEmail}, f.tasks.types())
				assert.Equal(t, tasks.ReviewModeratedPayload{ReviewID: 90, Action: string(tt.action)}, f.tasks.tasks[0].payload)
			} else {
				assert.Empty(t, f.tasks.tasks)
			}

			if tt.expectDeleted {
				assert.Nil(t, review)
				return
			}
			assert.Equal(t, tt.expectedStatus, review.Status())
			assert.Equal(t, tt.expectVisible, review.IsVisible)
			if tt.action == models.ModerationApprove || tt.action == models.ModerationReject {
				require.NotNil(t, review.ModeratedBy)
				assert.Equal(t, 1, *review.ModeratedBy)
				assert.Equal(t, fixedNow, *review.ModeratedAt)
				assert.Equal(t, "looks fine", review.ModerationNote)
			}
			if tt.expectCleared {
				assert.Zero(t, review.ReportCount)
				assert.Nil(t, f.reviews.saved)
			}
		})
	}
}

func TestReviewService_BulkModerate(t *testing.T) {
	t.Run("collects failures per review", func(t *testing.T) {
		f := newReviewFixture(approvedReview())
		f.reviews.saveErr = errors.New("db down")
		svc := f.service(false)

		result, err := svc.BulkModerate(context.Background(), 1, &models.BulkModerateRequest{IDs: []int{90, 91, 90}, Action: models.ModerationHide})

		require.NoError(t, err)
		assert.Empty(t, result.Succeeded)
		assert.Len(t, result.Failed, 2)
		assert.Equal(t, "db down", result.Failed[90])
	})

	t.Run("all succeed", func(t *testing.T) {
		f := newReviewFixture(approvedReview())
		svc := f.service(false)

		result, err := svc.BulkModerate(context.Background(), 1, &models.BulkModerateRequest{IDs: []int{90, 91}, Action: models.ModerationApprove})

		require.NoError(t, err)
		assert.Equal(t, []int{90, 91}, result.Succeeded)
		assert.Nil(t, result.Failed)
		assert.Len(t, f.tasks.tasks, 2)
	})

	t.Run("invalid action aborts", func(t *testing.T) {
		f := newReviewFixture(approvedReview())
		svc := f.service(false)

		_, err := svc.BulkModerate(context.Background(), 1, &models.BulkModerateRequest{IDs: []int{90}, Action: "ban"})

		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}
