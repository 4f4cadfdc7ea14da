package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/coursehub/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewHandler_StudentRoutes(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		target         string
		body           string
		err            error
		expectedStatus int
		expectedCall   string
	}{
		{
			name:           "create review",
			method:         http.MethodPost,
			target:         "/courses/go/reviews",
			body:           `{"rating":5,"comment":"great"}`,
			expectedStatus: http.StatusCreated,
			expectedCall:   "CreateReview",
		},
		{
			name:           "create review with rating 0",
			method:         http.MethodPost,
			target:         "/courses/go/reviews",
			body:           `{"rating":0}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "second review",
			method:         http.MethodPost,
			target:         "/courses/go/reviews",
			body:           `{"rating":4}`,
			err:            fmt.Errorf("review already exists: %w", models.ErrConflict),
			expectedStatus: http.StatusConflict,
			expectedCall:   "CreateReview",
		},
		{
			name:           "review without enrollment",
			method:         http.MethodPost,
			target:         "/courses/go/reviews",
			body:           `{"rating":4}`,
			err:            models.ErrNotEnrolled,
			expectedStatus: http.StatusForbidden,
			expectedCall:   "CreateReview",
		},
		{
			name:           "get my review",
			method:         http.MethodGet,
			target:         "/courses/go/reviews/me",
			expectedStatus: http.StatusOK,
			expectedCall:   "GetMyReview",
		},
		{
			name:           "update my review",
			method:         http.MethodPatch,
			target:         "/courses/go/reviews/me",
			body:           `{"comment":"even better"}`,
			expectedStatus: http.StatusOK,
			expectedCall:   "UpdateMyReview",
		},
		{
			name:           "update with rating 6",
			method:         http.MethodPatch,
			target:         "/courses/go/reviews/me",
			body:           `{"rating":6}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "delete my review",
			method:         http.MethodDelete,
			target:         "/courses/go/reviews/me",
			expectedStatus: http.StatusNoContent,
			expectedCall:   "DeleteMyReview",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockReviewService{review: &models.CourseReview{ID: 1, Rating: 5}, err: tt.err}
			router := newTestRouter(NewReviewHandler(svc, testLogger), openMiddlewares())

			w := serve(router, request(tt.method, tt.target, tt.body, student))

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.expectedCall, svc.call)
			if tt.expectedCall != "" {
				assert.Equal(t, "go", svc.slug)
				assert.Equal(t, student, svc.viewer)
			}
		})
	}
}

func TestReviewHandler_ListCourseReviews(t *testing.T) {
	t.Run("public with rating filter", func(t *testing.T) {
		svc := &mockReviewService{public: &models.Page[models.PublicReview]{Items: []models.PublicReview{{ID: 1, Rating: 5}}, Total: 1}}
		router := newTestRouter(NewReviewHandler(svc, testLogger), openMiddlewares())

		w := serve(router, request(http.MethodGet, "/courses/go/reviews?rating=5", "", anonymous))

		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, svc.rating)
		assert.Equal(t, 5, *svc.rating)
		assert.Equal(t, 1, decodeBody[models.Page[models.PublicReview]](t, w).Total)
	})

	t.Run("bad rating", func(t *testing.T) {
		svc := &mockReviewService{}
		router := newTestRouter(NewReviewHandler(svc, testLogger), openMiddlewares())

		w := serve(router, request(http.MethodGet, "/courses/go/reviews?rating=five", "", anonymous))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, svc.call)
	})
}

func TestReviewHandler_ReportReview(t *testing.T) {
	svc := &mockReviewService{report: &models.ReportReviewResult{ReportCount: 3, IsVisible: false}}
	router := newTestRouter(NewReviewHandler(svc, testLogger), openMiddlewares())

	w := serve(router, request(http.MethodPost, "/reviews/12/report", `{"reason":"spam"}`, student))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 12, svc.id)
	result := decodeBody[models.ReportReviewResult](t, w)
	assert.Equal(t, 3, result.ReportCount)
	assert.False(t, result.IsVisible)
}

func TestReviewHandler_ListReviews(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectedStatus int
		validate       func(*testing.T, models.ReviewFilter)
	}{
		{
			name:           "defaults",
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, f models.ReviewFilter) {
				assert.Equal(t, models.ReviewFilter{}, f)
			},
		},
		{
			name:           "all filters",
			query:          "?status=pending&visible=false&reported=true&courseId=10&rating=1&search=scam&page=2&count=50",
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, f models.ReviewFilter) {
				assert.Equal(t, models.ReviewStatusPending, f.Status)
				require.NotNil(t, f.Visible)
				assert.False(t, *f.Visible)
				assert.True(t, f.Reported)
				require.NotNil(t, f.CourseID)
				assert.Equal(t, 10, *f.CourseID)
				require.NotNil(t, f.Rating)
				assert.Equal(t, 1, *f.Rating)
				assert.Equal(t, "scam", f.Search)
				assert.Equal(t, 2, f.Page)
				assert.Equal(t, 50, f.Count)
			},
		},
		{name: "unknown status", query: "?status=spam", expectedStatus: http.StatusBadRequest},
		{name: "bad visible", query: "?visible=sometimes", expectedStatus: http.StatusBadRequest},
		{name: "bad reported", query: "?reported=x", expectedStatus: http.StatusBadRequest},
		{name: "bad course id", query: "?courseId=go", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockReviewService{list: &models.Page[models.CourseReview]{}}
			router := newTestRouter(NewReviewHandler(svc, testLogger), openMiddlewares())

			w := serve(router, request(http.MethodGet, "/admin/course-reviews"+tt.query, "", admin))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validate != nil {
				tt.validate(t, svc.filter)
			}
		})
	}
}

func TestReviewHandler_GetReview(t *testing.T) {
	svc := &mockReviewService{detail: &models.ReviewDetail{Status: models.ReviewStatusApproved, Reports: []models.ReviewReport{{ID: 1}}}}
	router := newTestRouter(NewReviewHandler(svc, testLogger), openMiddlewares())

	w := serve(router, request(http.MethodGet, "/admin/course-reviews/12", "", admin))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 12, svc.id)
	assert.Len(t, decodeBody[models.ReviewDetail](t, w).Reports, 1)
}

func TestReviewHandler_Moderate(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		body           string
		err            error
		expectedStatus int
		expectedAction models.ModerationAction
		expectedNote   string
	}{
		{
			name:           "approve without body",
			target:         "/admin/course-reviews/12/approve",
			expectedStatus: http.StatusOK,
			expectedAction: models.ModerationApprove,
		},
		{
			name:           "reject with note",
			target:         "/admin/course-reviews/12/reject",
			body:           `{"note":"off topic"}`,
			expectedStatus: http.StatusOK,
			expectedAction: models.ModerationReject,
			expectedNote:   "off topic",
		},
		{
			name:           "clear reports",
			target:         "/admin/course-reviews/12/clear_reports",
			expectedStatus: http.StatusOK,
			expectedAction: models.ModerationClearReports,
		},
		{
			name:           "unknown action",
			target:         "/admin/course-reviews/12/promote",
			err:            models.NewValidationError("action", "unknown moderation action"),
			expectedStatus: http.StatusBadRequest,
			expectedAction: models.ModerationAction("promote"),
		},
		{
			name:           "delete through post",
			target:         "/admin/course-reviews/12/delete",
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockReviewService{review: &models.CourseReview{ID: 12}, err: tt.err}
			router := newTestRouter(NewReviewHandler(svc, testLogger), openMiddlewares())

			w := serve(router, request(http.MethodPost, tt.target, tt.body, admin))

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.expectedAction, svc.action)
			assert.Equal(t, tt.expectedNote, svc.note)
			if tt.expectedAction != "" {
				assert.Equal(t, admin.UserID, svc.adminID)
				assert.Equal(t, 12, svc.id)
			}
		})
	}
}

func TestReviewHandler_DeleteReview(t *testing.T) {
	svc := &mockReviewService{}
	router := newTestRouter(NewReviewHandler(svc, testLogger), openMiddlewares())

	w := serve(router, request(http.MethodDelete, "/admin/course-reviews/12", "", admin))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, models.ModerationDelete, svc.action)
	assert.Equal(t, 12, svc.id)
}

func TestReviewHandler_BulkModerate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &mockReviewService{bulk: &models.BulkModerateResult{Succeeded: []int{1, 2}, Failed: map[int]string{3: "review not found"}}}
		router := newTestRouter(NewReviewHandler(svc, testLogger), openMiddlewares())

		w := serve(router, request(http.MethodPost, "/admin/course-reviews/bulk", `{"ids":[1,2,3],"action":"hide"}`, admin))

		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, svc.bulkReq)
		assert.Equal(t, models.ModerationHide, svc.bulkReq.Action)
		result := decodeBody[models.BulkModerateResult](t, w)
		assert.Equal(t, []int{1, 2}, result.Succeeded)
		assert.Equal(t, "review not found", result.Failed[3])
	})

	t.Run("bulk is not a review id", func(t *testing.T) {
		svc := &mockReviewService{}
		router := newTestRouter(NewReviewHandler(svc, testLogger), openMiddlewares())

		w := serve(router, request(http.MethodPost, "/admin/course-reviews/bulk", `{"ids":[],"action":"hide"}`, admin))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, svc.call)
	})

	t.Run("unknown action", func(t *testing.T) {
		svc := &mockReviewService{}
		router := newTestRouter(NewReviewHandler(svc, testLogger), openMiddlewares())

		w := serve(router, request(http.MethodPost, "/admin/course-reviews/bulk", `{"ids":[1],"action":"burn"}`, admin))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReviewHandler_AdminGuard(t *testing.T) {
	mw := openMiddlewares()
	mw.Admin = denyWith(http.StatusForbidden)
	svc := &mockReviewService{}
	router := newTestRouter(NewReviewHandler(svc, testLogger), mw)

	for _, target := range []string{"/admin/course-reviews", "/admin/course-reviews/1"} {
		w := serve(router, request(http.MethodGet, target, "", student))
		assert.Equal(t, http.StatusForbidden, w.Code, target)
	}
	assert.Empty(t, svc.call)
}
