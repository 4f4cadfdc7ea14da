package handlers

import (
	"context"

	"github.com/coursehub/backend/internal/models"
)

var (
	_ AuthService       = (*mockAuthService)(nil)
	_ CatalogService    = (*mockCatalogService)(nil)
	_ AuthoringService  = (*mockAuthoringService)(nil)
	_ EnrollmentService = (*mockEnrollmentService)(nil)
	_ ProgressService   = (*mockProgressService)(nil)
	_ QuizService       = (*mockQuizService)(nil)
	_ AssignmentService = (*mockAssignmentService)(nil)
	_ ReviewService     = (*mockReviewService)(nil)
	_ AdminService      = (*mockAdminService)(nil)
)

// mockAuthService is a mock implementation of AuthService
type mockAuthService struct {
	tokens *models.TokenPair
	user   *models.User
	err    error

	registered   *models.RegisterRequest
	refreshToken string
	loggedOut    string
	meUserID     int
}

func (m *mockAuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.TokenPair, error) {
	m.registered = req
	return m.tokens, m.err
}

func (m *mockAuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenPair, error) {
	return m.tokens, m.err
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	m.refreshToken = refreshToken
	return m.tokens, m.err
}

func (m *mockAuthService) Logout(ctx context.Context, refreshToken string) error {
	m.loggedOut = refreshToken
	return m.err
}

func (m *mockAuthService) Me(ctx context.Context, userID int) (*models.User, error) {
	m.meUserID = userID
	return m.user, m.err
}

// mockCatalogService is a mock implementation of CatalogService
type mockCatalogService struct {
	page       *models.Page[models.CourseCard]
	detail     *models.CourseDetailResponse
	categories []models.CategoryCount
	err        error

	filter models.CourseFilter
	slug   string
	viewer models.Viewer
}

func (m *mockCatalogService) ListCourses(ctx context.Context, filter models.CourseFilter) (*models.Page[models.CourseCard], error) {
	m.filter = filter
	return m.page, m.err
}

func (m *mockCatalogService) GetCourse(ctx context.Context, slug string, viewer models.Viewer) (*models.CourseDetailResponse, error) {
	m.slug, m.viewer = slug, viewer
	return m.detail, m.err
}

func (m *mockCatalogService) ListCategories(ctx context.Context) ([]models.CategoryCount, error) {
	return m.categories, m.err
}

// mockAuthoringService is a mock implementation of AuthoringService
type mockAuthoringService struct {
	course   *models.Course
	chapter  *models.Chapter
	lesson   *models.Lesson
	courses  *models.Page[models.CourseCard]
	chapters []models.Chapter
	lessons  []models.Lesson
	err      error

	viewer   models.Viewer
	id       int
	force    bool
	ids      []int
	call     string
	courseIn *models.CreateCourseRequest
}

func (m *mockAuthoringService) record(call string, v models.Viewer, id int) {
	m.call, m.viewer, m.id = call, v, id
}

func (m *mockAuthoringService) CreateCourse(ctx context.Context, v models.Viewer, req *models.CreateCourseRequest) (*models.Course, error) {
	m.record("CreateCourse", v, 0)
	m.courseIn = req
	return m.course, m.err
}

func (m *mockAuthoringService) UpdateCourse(ctx context.Context, v models.Viewer, id int, req *models.UpdateCourseRequest) (*models.Course, error) {
	m.record("UpdateCourse", v, id)
	return m.course, m.err
}

func (m *mockAuthoringService) DeleteCourse(ctx context.Context, v models.Viewer, id int, force bool) error {
	m.record("DeleteCourse", v, id)
	m.force = force
	return m.err
}

func (m *mockAuthoringService) PublishCourse(ctx context.Context, v models.Viewer, id int) (*models.Course, error) {
	m.record("PublishCourse", v, id)
	return m.course, m.err
}

func (m *mockAuthoringService) ArchiveCourse(ctx context.Context, v models.Viewer, id int) (*models.Course, error) {
	m.record("ArchiveCourse", v, id)
	return m.course, m.err
}

func (m *mockAuthoringService) ListMyCourses(ctx context.Context, v models.Viewer, page, count int) (*models.Page[models.CourseCard], error) {
	m.record("ListMyCourses", v, 0)
	return m.courses, m.err
}

func (m *mockAuthoringService) CreateChapter(ctx context.Context, v models.Viewer, req *models.CreateChapterRequest) (*models.Chapter, error) {
	m.record("CreateChapter", v, req.CourseID)
	return m.chapter, m.err
}

func (m *mockAuthoringService) UpdateChapter(ctx context.Context, v models.Viewer, id int, req *models.UpdateChapterRequest) (*models.Chapter, error) {
	m.record("UpdateChapter", v, id)
	return m.chapter, m.err
}

func (m *mockAuthoringService) DeleteChapter(ctx context.Context, v models.Viewer, id int) error {
	m.record("DeleteChapter", v, id)
	return m.err
}

func (m *mockAuthoringService) ReorderChapters(ctx context.Context, v models.Viewer, courseID int, ids []int) ([]models.Chapter, error) {
	m.record("ReorderChapters", v, courseID)
	m.ids = ids
	return m.chapters, m.err
}

func (m *mockAuthoringService) CreateLesson(ctx context.Context, v models.Viewer, req *models.CreateLessonRequest) (*models.Lesson, error) {
	m.record("CreateLesson", v, req.ChapterID)
	return m.lesson, m.err
}

func (m *mockAuthoringService) UpdateLesson(ctx context.Context, v models.Viewer, id int, req *models.UpdateLessonRequest) (*models.Lesson, error) {
	m.record("UpdateLesson", v, id)
	return m.lesson, m.err
}

func (m *mockAuthoringService) DeleteLesson(ctx context.Context, v models.Viewer, id int) error {
	m.record("DeleteLesson", v, id)
	return m.err
}

func (m *mockAuthoringService) ReorderLessons(ctx context.Context, v models.Viewer, chapterID int, ids []int) ([]models.Lesson, error) {
	m.record("ReorderLessons", v, chapterID)
	m.ids = ids
	return m.lessons, m.err
}

// mockEnrollmentService is a mock implementation of EnrollmentService
type mockEnrollmentService struct {
	enrollment *models.Enrollment
	created    bool
	items      []models.EnrollmentListItem
	err        error

	userID   int
	courseID int
	slug     string
	payment  *models.ConfirmPaymentRequest
}

func (m *mockEnrollmentService) EnrollFree(ctx context.Context, userID int, slug string) (*models.Enrollment, bool, error) {
	m.userID, m.slug = userID, slug
	return m.enrollment, m.created, m.err
}

func (m *mockEnrollmentService) ConfirmPayment(ctx context.Context, req *models.ConfirmPaymentRequest) (*models.Enrollment, bool, error) {
	m.payment = req
	return m.enrollment, m.created, m.err
}

func (m *mockEnrollmentService) Grant(ctx context.Context, req *models.GrantEnrollmentRequest) (*models.Enrollment, bool, error) {
	m.userID, m.courseID = req.UserID, req.CourseID
	return m.enrollment, m.created, m.err
}

func (m *mockEnrollmentService) Revoke(ctx context.Context, userID, courseID int) error {
	m.userID, m.courseID = userID, courseID
	return m.err
}

func (m *mockEnrollmentService) ListMyEnrollments(ctx context.Context, userID int) ([]models.EnrollmentListItem, error) {
	m.userID = userID
	return m.items, m.err
}

// mockProgressService is a mock implementation of ProgressService
type mockProgressService struct {
	progress *models.CourseProgress
	err      error

	call     string
	userID   int
	lessonID int
	percent  int
	slug     string
}

func (m *mockProgressService) UpdateLessonProgress(ctx context.Context, userID, lessonID, percent int) (*models.CourseProgress, error) {
	m.call, m.userID, m.lessonID, m.percent = "Update", userID, lessonID, percent
	return m.progress, m.err
}

func (m *mockProgressService) CompleteLesson(ctx context.Context, userID, lessonID int) (*models.CourseProgress, error) {
	m.call, m.userID, m.lessonID = "Complete", userID, lessonID
	return m.progress, m.err
}

func (m *mockProgressService) ResetLesson(ctx context.Context, userID, lessonID int) (*models.CourseProgress, error) {
	m.call, m.userID, m.lessonID = "Reset", userID, lessonID
	return m.progress, m.err
}

func (m *mockProgressService) GetCourseProgress(ctx context.Context, userID int, slug string) (*models.CourseProgress, error) {
	m.call, m.userID, m.slug = "Get", userID, slug
	return m.progress, m.err
}

// mockQuizService is a mock implementation of QuizService
type mockQuizService struct {
	quiz    *models.Quiz
	attempt *models.QuizAttempt
	history *models.AttemptHistory
	err     error

	viewer    models.Viewer
	userID    int
	lessonID  int
	submitted *models.SubmitQuizRequest
}

func (m *mockQuizService) UpsertQuiz(ctx context.Context, v models.Viewer, lessonID int, req *models.UpsertQuizRequest) (*models.Quiz, error) {
	m.viewer, m.lessonID = v, lessonID
	return m.quiz, m.err
}

func (m *mockQuizService) GetQuiz(ctx context.Context, v models.Viewer, lessonID int) (*models.Quiz, error) {
	m.viewer, m.lessonID = v, lessonID
	return m.quiz, m.err
}

func (m *mockQuizService) SubmitQuiz(ctx context.Context, v models.Viewer, lessonID int, req *models.SubmitQuizRequest) (*models.QuizAttempt, error) {
	m.viewer, m.lessonID, m.submitted = v, lessonID, req
	return m.attempt, m.err
}

func (m *mockQuizService) ListAttempts(ctx context.Context, v models.Viewer, lessonID int) (*models.AttemptHistory, error) {
	m.viewer, m.lessonID = v, lessonID
	return m.history, m.err
}

func (m *mockQuizService) ResetGradedAttempt(ctx context.Context, userID, lessonID int) error {
	m.userID, m.lessonID = userID, lessonID
	return m.err
}

// mockAssignmentService is a mock implementation of AssignmentService
type mockAssignmentService struct {
	assignment  *models.Assignment
	submission  *models.Submission
	submissions []models.Submission
	assignments []models.AssignmentWithSubmission
	err         error

	call   string
	viewer models.Viewer
	id     int
	status string
	slug   string
	grade  *models.GradeSubmissionRequest
}

func (m *mockAssignmentService) record(call string, v models.Viewer, id int) {
	m.call, m.viewer, m.id = call, v, id
}

func (m *mockAssignmentService) CreateAssignment(ctx context.Context, v models.Viewer, req *models.CreateAssignmentRequest) (*models.Assignment, error) {
	m.record("CreateAssignment", v, req.CourseID)
	return m.assignment, m.err
}

func (m *mockAssignmentService) UpdateAssignment(ctx context.Context, v models.Viewer, id int, req *models.UpdateAssignmentRequest) (*models.Assignment, error) {
	m.record("UpdateAssignment", v, id)
	return m.assignment, m.err
}

func (m *mockAssignmentService) DeleteAssignment(ctx context.Context, v models.Viewer, id int) error {
	m.record("DeleteAssignment", v, id)
	return m.err
}

func (m *mockAssignmentService) ListSubmissions(ctx context.Context, v models.Viewer, id int, status string) ([]models.Submission, error) {
	m.record("ListSubmissions", v, id)
	m.status = status
	return m.submissions, m.err
}

func (m *mockAssignmentService) GradeSubmission(ctx context.Context, v models.Viewer, id int, req *models.GradeSubmissionRequest) (*models.Submission, error) {
	m.record("GradeSubmission", v, id)
	m.grade = req
	return m.submission, m.err
}

func (m *mockAssignmentService) ReturnSubmission(ctx context.Context, v models.Viewer, id int, req *models.ReturnSubmissionRequest) (*models.Submission, error) {
	m.record("ReturnSubmission", v, id)
	return m.submission, m.err
}

func (m *mockAssignmentService) ListAssignments(ctx context.Context, v models.Viewer, slug string) ([]models.AssignmentWithSubmission, error) {
	m.record("ListAssignments", v, 0)
	m.slug = slug
	return m.assignments, m.err
}

func (m *mockAssignmentService) Submit(ctx context.Context, v models.Viewer, id int, req *models.SubmitAssignmentRequest) (*models.Submission, error) {
	m.record("Submit", v, id)
	return m.submission, m.err
}

func (m *mockAssignmentService) GetMySubmission(ctx context.Context, v models.Viewer, id int) (*models.Submission, error) {
	m.record("GetMySubmission", v, id)
	return m.submission, m.err
}

// mockReviewService is a mock implementation of ReviewService
type mockReviewService struct {
	review *models.CourseReview
	public *models.Page[models.PublicReview]
	list   *models.Page[models.CourseReview]
	detail *models.ReviewDetail
	report *models.ReportReviewResult
	bulk   *models.BulkModerateResult
	err    error

	call    string
	viewer  models.Viewer
	slug    string
	id      int
	adminID int
	action  models.ModerationAction
	note    string
	rating  *int
	filter  models.ReviewFilter
	bulkReq *models.BulkModerateRequest
}

func (m *mockReviewService) CreateReview(ctx context.Context, v models.Viewer, slug string, req *models.CreateReviewRequest) (*models.CourseReview, error) {
	m.call, m.viewer, m.slug = "CreateReview", v, slug
	return m.review, m.err
}

func (m *mockReviewService) UpdateMyReview(ctx context.Context, v models.Viewer, slug string, req *models.UpdateReviewRequest) (*models.CourseReview, error) {
	m.call, m.viewer, m.slug = "UpdateMyReview", v, slug
	return m.review, m.err
}

func (m *mockReviewService) DeleteMyReview(ctx context.Context, v models.Viewer, slug string) error {
	m.call, m.viewer, m.slug = "DeleteMyReview", v, slug
	return m.err
}

func (m *mockReviewService) GetMyReview(ctx context.Context, v models.Viewer, slug string) (*models.CourseReview, error) {
	m.call, m.viewer, m.slug = "GetMyReview", v, slug
	return m.review, m.err
}

func (m *mockReviewService) ListCourseReviews(ctx context.Context, slug string, rating *int, page, count int) (*models.Page[models.PublicReview], error) {
	m.call, m.slug, m.rating = "ListCourseReviews", slug, rating
	return m.public, m.err
}

func (m *mockReviewService) ReportReview(ctx context.Context, v models.Viewer, id int, req *models.ReportReviewRequest) (*models.ReportReviewResult, error) {
	m.call, m.viewer, m.id = "ReportReview", v, id
	return m.report, m.err
}

func (m *mockReviewService) ListReviews(ctx context.Context, filter models.ReviewFilter) (*models.Page[models.CourseReview], error) {
	m.call, m.filter = "ListReviews", filter
	return m.list, m.err
}

func (m *mockReviewService) GetReview(ctx context.Context, id int) (*models.ReviewDetail, error) {
	m.call, m.id = "GetReview", id
	return m.detail, m.err
}

func (m *mockReviewService) Moderate(ctx context.Context, adminID, id int, action models.ModerationAction, note string) (*models.CourseReview, error) {
	m.call, m.adminID, m.id, m.action, m.note = "Moderate", adminID, id, action, note
	if action == models.ModerationDelete {
		return nil, m.err
	}
	return m.review, m.err
}

func (m *mockReviewService) BulkModerate(ctx context.Context, adminID int, req *models.BulkModerateRequest) (*models.BulkModerateResult, error) {
	m.call, m.adminID, m.bulkReq = "BulkModerate", adminID, req
	return m.bulk, m.err
}

// mockAdminService is a mock implementation of AdminService
type mockAdminService struct {
	stats *models.DashboardStats
	users []models.UserListItem
	err   error

	adminID int
	userID  int
	role    string
	search  string
	active  *bool
}

func (m *mockAdminService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	return m.stats, m.err
}

func (m *mockAdminService) ListUsers(ctx context.Context, role, search string, page, count int) ([]models.UserListItem, error) {
	m.role, m.search = role, search
	return m.users, m.err
}

func (m *mockAdminService) UpdateUserRole(ctx context.Context, adminID, userID int, role string) error {
	m.adminID, m.userID, m.role = adminID, userID, role
	return m.err
}

func (m *mockAdminService) SetUserActive(ctx context.Context, adminID, userID int, active bool) error {
	m.adminID, m.userID, m.active = adminID, userID, &active
	return m.err
}
