package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/coursehub/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuthoringHandler(t *testing.T) {
	svc := &mockAuthoringService{}
	h := NewAuthoringHandler(svc, testLogger)

	assert.NotNil(t, h)
	assert.Equal(t, svc, h.service)
	assert.Equal(t, testLogger, h.Logger)
}

func TestAuthoringHandler_Routes(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		target         string
		body           string
		expectedStatus int
		expectedCall   string
		expectedID     int
	}{
		{
			name:           "list my courses",
			method:         http.MethodGet,
			target:         "/instructor/courses?page=2",
			expectedStatus: http.StatusOK,
			expectedCall:   "ListMyCourses",
		},
		{
			name:           "create course",
			method:         http.MethodPost,
			target:         "/instructor/courses",
			body:           `{"title":"Go Basics","category":"programming","level":"beginner"}`,
			expectedStatus: http.StatusCreated,
			expectedCall:   "CreateCourse",
		},
		{
			name:           "update course",
			method:         http.MethodPatch,
			target:         "/instructor/courses/10",
			body:           `{"title":"Go Basics 2"}`,
			expectedStatus: http.StatusOK,
			expectedCall:   "UpdateCourse",
			expectedID:     10,
		},
		{
			name:           "delete course",
			method:         http.MethodDelete,
			target:         "/instructor/courses/10",
			expectedStatus: http.StatusNoContent,
			expectedCall:   "DeleteCourse",
			expectedID:     10,
		},
		{
			name:           "publish course",
			method:         http.MethodPost,
			target:         "/instructor/courses/10/publish",
			expectedStatus: http.StatusOK,
			expectedCall:   "PublishCourse",
			expectedID:     10,
		},
		{
			name:           "archive course",
			method:         http.MethodPost,
			target:         "/instructor/courses/10/archive",
			expectedStatus: http.StatusOK,
			expectedCall:   "ArchiveCourse",
			expectedID:     10,
		},
		{
			name:           "create chapter",
			method:         http.MethodPost,
			target:         "/instructor/chapters",
			body:           `{"courseId":10,"title":"Intro"}`,
			expectedStatus: http.StatusCreated,
			expectedCall:   "CreateChapter",
			expectedID:     10,
		},
		{
			name:           "update chapter",
			method:         http.MethodPatch,
			target:         "/instructor/chapters/3",
			body:           `{"title":"Setup"}`,
			expectedStatus: http.StatusOK,
			expectedCall:   "UpdateChapter",
			expectedID:     3,
		},
		{
			name:           "delete chapter",
			method:         http.MethodDelete,
			target:         "/instructor/chapters/3",
			expectedStatus: http.StatusNoContent,
			expectedCall:   "DeleteChapter",
			expectedID:     3,
		},
		{
			name:           "create lesson",
			method:         http.MethodPost,
			target:         "/instructor/lessons",
			body:           `{"chapterId":3,"title":"Hello","kind":"article"}`,
			expectedStatus: http.StatusCreated,
			expectedCall:   "CreateLesson",
			expectedID:     3,
		},
		{
			name:           "update lesson",
			method:         http.MethodPatch,
			target:         "/instructor/lessons/21",
			body:           `{"isPreview":true}`,
			expectedStatus: http.StatusOK,
			expectedCall:   "UpdateLesson",
			expectedID:     21,
		},
		{
			name:           "delete lesson",
			method:         http.MethodDelete,
			target:         "/instructor/lessons/21",
			expectedStatus: http.StatusNoContent,
			expectedCall:   "DeleteLesson",
			expectedID:     21,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthoringService{
				course:  &models.Course{ID: 10},
				chapter: &models.Chapter{ID: 3},
				lesson:  &models.Lesson{ID: 21},
				courses: &models.Page[models.CourseCard]{},
			}
			router := newTestRouter(NewAuthoringHandler(svc, testLogger), openMiddlewares())

			w := serve(router, request(tt.method, tt.target, tt.body, instructor))

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.expectedCall, svc.call)
			assert.Equal(t, instructor, svc.viewer)
			assert.Equal(t, tt.expectedID, svc.id)
		})
	}
}

func TestAuthoringHandler_CreateCourse_Validation(t *testing.T) {
	svc := &mockAuthoringService{}
	router := newTestRouter(NewAuthoringHandler(svc, testLogger), openMiddlewares())

	w := serve(router, request(http.MethodPost, "/instructor/courses", `{"title":"","level":"expert","slug":"Bad Slug"}`, instructor))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody[ErrorResponse](t, w)
	assert.Contains(t, body.Fields, "title")
	assert.Contains(t, body.Fields, "level")
	assert.Contains(t, body.Fields, "slug")
	assert.Contains(t, body.Fields, "category")
	assert.Empty(t, svc.call)
}

func TestAuthoringHandler_DeleteCourse_Force(t *testing.T) {
	tests := []struct {
		query         string
		expectedForce bool
	}{
		{query: "", expectedForce: false},
		{query: "?force=true", expectedForce: true},
		{query: "?force=1", expectedForce: true},
		{query: "?force=nope", expectedForce: false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			svc := &mockAuthoringService{}
			router := newTestRouter(NewAuthoringHandler(svc, testLogger), openMiddlewares())

			w := serve(router, request(http.MethodDelete, "/instructor/courses/10"+tt.query, "", admin))

			assert.Equal(t, http.StatusNoContent, w.Code)
			assert.Equal(t, tt.expectedForce, svc.force)
		})
	}
}

func TestAuthoringHandler_DeleteCourse_HasEnrollments(t *testing.T) {
	svc := &mockAuthoringService{err: fmt.Errorf("course has enrollments: %w", models.ErrConflict)}
	router := newTestRouter(NewAuthoringHandler(svc, testLogger), openMiddlewares())

	w := serve(router, request(http.MethodDelete, "/instructor/courses/10", "", instructor))

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthoringHandler_Reorder(t *testing.T) {
	t.Run("chapters", func(t *testing.T) {
		svc := &mockAuthoringService{chapters: []models.Chapter{{ID: 2, Position: 1}, {ID: 1, Position: 2}}}
		router := newTestRouter(NewAuthoringHandler(svc, testLogger), openMiddlewares())

		w := serve(router, request(http.MethodPut, "/instructor/courses/10/chapters/order", `{"ids":[2,1]}`, instructor))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ReorderChapters", svc.call)
		assert.Equal(t, 10, svc.id)
		assert.Equal(t, []int{2, 1}, svc.ids)
		assert.Len(t, decodeBody[[]models.Chapter](t, w), 2)
	})

	t.Run("lessons", func(t *testing.T) {
		svc := &mockAuthoringService{lessons: []models.Lesson{{ID: 5}}}
		router := newTestRouter(NewAuthoringHandler(svc, testLogger), openMiddlewares())

		w := serve(router, request(http.MethodPut, "/instructor/chapters/3/lessons/order", `{"ids":[5]}`, instructor))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ReorderLessons", svc.call)
		assert.Equal(t, 3, svc.id)
	})

	t.Run("duplicate ids", func(t *testing.T) {
		svc := &mockAuthoringService{}
		router := newTestRouter(NewAuthoringHandler(svc, testLogger), openMiddlewares())

		w := serve(router, request(http.MethodPut, "/instructor/chapters/3/lessons/order", `{"ids":[5,5]}`, instructor))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, svc.call)
	})
}

func TestAuthoringHandler_InvalidPathID(t *testing.T) {
	svc := &mockAuthoringService{}
	router := newTestRouter(NewAuthoringHandler(svc, testLogger), openMiddlewares())

	for _, target := range []string{"/instructor/courses/abc/publish", "/instructor/courses/0/publish", "/instructor/courses/-4/publish"} {
		w := serve(router, request(http.MethodPost, target, "", instructor))
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
	assert.Empty(t, svc.call)
}

func TestAuthoringHandler_Forbidden(t *testing.T) {
	svc := &mockAuthoringService{err: fmt.Errorf("not the course instructor: %w", models.ErrForbidden)}
	router := newTestRouter(NewAuthoringHandler(svc, testLogger), openMiddlewares())

	w := serve(router, request(http.MethodPost, "/instructor/courses/10/publish", "", instructor))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthoringHandler_GuardedByInstructorMiddleware(t *testing.T) {
	mw := openMiddlewares()
	mw.Instructor = denyWith(http.StatusForbidden)
	svc := &mockAuthoringService{}
	router := newTestRouter(NewAuthoringHandler(svc, testLogger), mw)

	w := serve(router, request(http.MethodGet, "/instructor/courses", "", student))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, svc.call)
}
