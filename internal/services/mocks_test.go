package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coursehub/backend/internal/models"
)

var (
	_ UserRepository        = (*mockUserRepository)(nil)
	_ UserTokenRepository   = (*mockUserTokenRepository)(nil)
	_ StatsRepository       = (*mockStatsRepository)(nil)
	_ CourseRepository      = (*mockCourseRepository)(nil)
	_ ChapterRepository     = (*mockChapterRepository)(nil)
	_ LessonRepository      = (*mockLessonRepository)(nil)
	_ EnrollmentRepository  = (*mockEnrollmentRepository)(nil)
	_ ProgressRepository    = (*mockProgressRepository)(nil)
	_ QuizRepository        = (*mockQuizRepository)(nil)
	_ QuizAttemptRepository = (*mockQuizAttemptRepository)(nil)
	_ AssignmentRepository  = (*mockAssignmentRepository)(nil)
	_ SubmissionRepository  = (*mockSubmissionRepository)(nil)
	_ ReviewRepository      = (*mockReviewRepository)(nil)
	_ CatalogCache          = (*mockCatalogCache)(nil)
	_ TaskEnqueuer          = (*mockTaskEnqueuer)(nil)
	_ LessonCompleter       = (*mockLessonCompleter)(nil)
)

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, models.ErrNotFound)
}

// mockUserRepository is a mock implementation of UserRepository
type mockUserRepository struct {
	user      *models.User
	users     []models.UserListItem
	err       error
	createErr error
	updateErr error

	created      *models.User
	updatedRole  *models.Role
	activeSet    *bool
	passwordHash string
	listRole     *models.Role
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = 1
	m.created = user
	return nil
}

func (m *mockUserRepository) get() (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.user == nil {
		return nil, notFound("user")
	}
	u := *m.user
	return &u, nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	return m.get()
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.get()
}

func (m *mockUserRepository) List(ctx context.Context, role *models.Role, search string, page, count int) ([]models.UserListItem, error) {
	m.listRole = role
	if m.err != nil {
		return nil, m.err
	}
	return m.users, nil
}

func (m *mockUserRepository) UpdateRole(ctx context.Context, id int, role models.Role) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updatedRole = &role
	return nil
}

func (m *mockUserRepository) SetActive(ctx context.Context, id int, active bool) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.activeSet = &active
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.passwordHash = passwordHash
	return nil
}

// mockUserTokenRepository is a mock implementation of UserTokenRepository keeping tokens in memory
type mockUserTokenRepository struct {
	tokens    map[string]int
	createErr error
	getErr    error
	deleteErr error

	deletedForUser []int
}

func newMockUserTokenRepository() *mockUserTokenRepository {
	return &mockUserTokenRepository{tokens: map[string]int{}}
}

func (m *mockUserTokenRepository) Create(ctx context.Context, userID int, token string) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.tokens[token] = userID
	return nil
}

func (m *mockUserTokenRepository) GetUserIDByToken(ctx context.Context, token string) (int, error) {
	if m.getErr != nil {
		return 0, m.getErr
	}
	userID, ok := m.tokens[token]
	if !ok {
		return 0, notFound("token")
	}
	return userID, nil
}

func (m *mockUserTokenRepository) Delete(ctx context.Context, token string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.tokens[token]; !ok {
		return notFound("token")
	}
	delete(m.tokens, token)
	return nil
}

func (m *mockUserTokenRepository) DeleteByUserID(ctx context.Context, userID int) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedForUser = append(m.deletedForUser, userID)
	for token, id := range m.tokens {
		if id == userID {
			delete(m.tokens, token)
		}
	}
	return nil
}

// mockStatsRepository is a mock implementation of StatsRepository
type mockStatsRepository struct {
	stats *models.DashboardStats
	err   error
	since time.Time
}

func (m *mockStatsRepository) Dashboard(ctx context.Context, since time.Time) (*models.DashboardStats, error) {
	m.since = since
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

// mockCourseRepository is a mock implementation of CourseRepository
type mockCourseRepository struct {
	course        *models.Course
	err           error
	existingSlugs map[string]bool
	existsErr     error
	createErr     error
	updateErr     error
	deleteErr     error
	cards         []models.CourseCard
	total         int
	listErr       error
	categories    []models.CategoryCount

	created    *models.Course
	updated    *models.Course
	status     models.CourseStatus
	deleted    bool
	listCalls  int
	lastFilter models.CourseFilter
}

func (m *mockCourseRepository) Create(ctx context.Context, course *models.Course) error {
	if m.createErr != nil {
		return m.createErr
	}
	course.ID = 10
	m.created = course
	return nil
}

func (m *mockCourseRepository) get() (*models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.course == nil {
		return nil, notFound("course")
	}
	c := *m.course
	return &c, nil
}

func (m *mockCourseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	return m.get()
}

func (m *mockCourseRepository) GetBySlug(ctx context.Context, slug string) (*models.Course, error) {
	return m.get()
}

func (m *mockCourseRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.existingSlugs[slug], nil
}

func (m *mockCourseRepository) Update(ctx context.Context, course *models.Course) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = course
	return nil
}

func (m *mockCourseRepository) UpdateStatus(ctx context.Context, id int, status models.CourseStatus) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.status = status
	return nil
}

func (m *mockCourseRepository) Delete(ctx context.Context, id int) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = true
	return nil
}

func (m *mockCourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseCard, error) {
	m.listCalls++
	m.lastFilter = filter
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.cards, nil
}

func (m *mockCourseRepository) Count(ctx context.Context, filter models.CourseFilter) (int, error) {
	if m.listErr != nil {
		return 0, m.listErr
	}
	return m.total, nil
}

func (m *mockCourseRepository) ListCategories(ctx context.Context) ([]models.CategoryCount, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.categories, nil
}

// mockChapterRepository is a mock implementation of ChapterRepository
type mockChapterRepository struct {
	chapter    *models.Chapter
	chapters   []models.Chapter
	err        error
	createErr  error
	reorderErr error

	created      *models.Chapter
	updatedTitle string
	deleted      bool
	reordered    []int
}

func (m *mockChapterRepository) Create(ctx context.Context, chapter *models.Chapter) error {
	if m.createErr != nil {
		return m.createErr
	}
	chapter.ID = 20
	chapter.Position = len(m.chapters) + 1
	m.created = chapter
	return nil
}

func (m *mockChapterRepository) GetByID(ctx context.Context, id int) (*models.Chapter, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.chapter == nil {
		return nil, notFound("chapter")
	}
	c := *m.chapter
	return &c, nil
}

func (m *mockChapterRepository) ListByCourse(ctx context.Context, courseID int) ([]models.Chapter, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.chapters, nil
}

func (m *mockChapterRepository) UpdateTitle(ctx context.Context, id int, title string) error {
	if m.err != nil {
		return m.err
	}
	m.updatedTitle = title
	return nil
}

func (m *mockChapterRepository) Delete(ctx context.Context, id int) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = true
	return nil
}

func (m *mockChapterRepository) Reorder(ctx context.Context, courseID int, ids []int) error {
	if m.reorderErr != nil {
		return m.reorderErr
	}
	m.reordered = ids
	return nil
}

// mockLessonRepository is a mock implementation of LessonRepository
type mockLessonRepository struct {
	lesson        *models.Lesson
	lessons       []models.Lesson
	refs          []models.LessonRef
	err           error
	existingSlugs map[string]bool
	createErr     error
	reorderErr    error

	created   *models.Lesson
	updated   *models.Lesson
	deleted   bool
	reordered []int
}

func (m *mockLessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	if m.createErr != nil {
		return m.createErr
	}
	lesson.ID = 30
	lesson.Position = 1
	m.created = lesson
	return nil
}

func (m *mockLessonRepository) GetByID(ctx context.Context, id int) (*models.Lesson, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.lesson == nil {
		return nil, notFound("lesson")
	}
	l := *m.lesson
	return &l, nil
}

func (m *mockLessonRepository) ExistsBySlugInCourse(ctx context.Context, courseID int, slug string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.existingSlugs[slug], nil
}

func (m *mockLessonRepository) ListByCourse(ctx context.Context, courseID int) ([]models.Lesson, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.lessons, nil
}

func (m *mockLessonRepository) ListRefsByCourse(ctx context.Context, courseID int) ([]models.LessonRef, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.refs, nil
}

func (m *mockLessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	if m.err != nil {
		return m.err
	}
	m.updated = lesson
	return nil
}

func (m *mockLessonRepository) Delete(ctx context.Context, id int) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = true
	return nil
}

func (m *mockLessonRepository) Reorder(ctx context.Context, chapterID int, ids []int) error {
	if m.reorderErr != nil {
		return m.reorderErr
	}
	m.reordered = ids
	return nil
}

// mockEnrollmentRepository is a mock implementation of EnrollmentRepository
type mockEnrollmentRepository struct {
	enrollment    *models.Enrollment
	byPaymentRef  *models.Enrollment
	afterConflict *models.Enrollment
	items         []models.EnrollmentListItem
	active        []models.Enrollment
	count         int
	activeCount   int
	err           error
	createErr     error
	updateErr     error

	created        *models.Enrollment
	reactivated    *models.Enrollment
	statusUpdated  models.EnrollmentStatus
	progressCalls  int
	percent        int
	lastLessonID   *int
	completedAt    *time.Time
	activeCourseID *int
}

func (m *mockEnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.createErr != nil {
		if m.afterConflict != nil {
			m.enrollment = m.afterConflict
		}
		return m.createErr
	}
	enrollment.ID = 40
	m.created = enrollment
	return nil
}

func (m *mockEnrollmentRepository) GetByUserAndCourse(ctx context.Context, userID, courseID int) (*models.Enrollment, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.enrollment == nil {
		return nil, notFound("enrollment")
	}
	e := *m.enrollment
	return &e, nil
}

func (m *mockEnrollmentRepository) GetByPaymentRef(ctx context.Context, paymentRef string) (*models.Enrollment, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.byPaymentRef == nil {
		return nil, notFound("enrollment")
	}
	e := *m.byPaymentRef
	return &e, nil
}

func (m *mockEnrollmentRepository) Reactivate(ctx context.Context, enrollment *models.Enrollment) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	enrollment.Status = models.EnrollmentStatusActive
	m.reactivated = enrollment
	return nil
}

func (m *mockEnrollmentRepository) UpdateStatus(ctx context.Context, id int, status models.EnrollmentStatus) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.statusUpdated = status
	return nil
}

func (m *mockEnrollmentRepository) UpdateProgress(ctx context.Context, id, percent int, lastLessonID *int, completedAt *time.Time) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.progressCalls++
	m.percent = percent
	m.lastLessonID = lastLessonID
	m.completedAt = completedAt
	return nil
}

func (m *mockEnrollmentRepository) ListByUser(ctx context.Context, userID int) ([]models.EnrollmentListItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

func (m *mockEnrollmentRepository) CountByCourse(ctx context.Context, courseID int) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.count, nil
}

func (m *mockEnrollmentRepository) CountActiveByCourse(ctx context.Context, courseID int) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.activeCount, nil
}

func (m *mockEnrollmentRepository) ListActive(ctx context.Context, courseID *int) ([]models.Enrollment, error) {
	m.activeCourseID = courseID
	if m.err != nil {
		return nil, m.err
	}
	return m.active, nil
}

// mockProgressRepository is a mock implementation of ProgressRepository keeping records in memory.
// Every upsert gets a later UpdatedAt than the previous one.
type mockProgressRepository struct {
	records   map[int]models.LessonProgress
	err       error
	upsertErr error

	upserts int
	clock   time.Time
}

func newMockProgressRepository(records ...models.LessonProgress) *mockProgressRepository {
	m := &mockProgressRepository{
		records: map[int]models.LessonProgress{},
		clock:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, r := range records {
		m.records[r.LessonID] = r
	}
	return m
}

func (m *mockProgressRepository) Get(ctx context.Context, userID, lessonID int) (*models.LessonProgress, error) {
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.records[lessonID]
	if !ok {
		return nil, notFound("lesson progress")
	}
	return &r, nil
}

func (m *mockProgressRepository) Upsert(ctx context.Context, progress *models.LessonProgress) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts++
	m.clock = m.clock.Add(time.Minute)
	r := *progress
	r.UpdatedAt = m.clock
	m.records[r.LessonID] = r
	return nil
}

func (m *mockProgressRepository) ListByUserAndCourse(ctx context.Context, userID, courseID int) ([]models.LessonProgress, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.LessonProgress, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	return out, nil
}

// mockQuizRepository is a mock implementation of QuizRepository
type mockQuizRepository struct {
	quiz      *models.Quiz
	err       error
	upsertErr error

	upserted *models.Quiz
}

func (m *mockQuizRepository) Upsert(ctx context.Context, quiz *models.Quiz) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	quiz.ID = 50
	m.upserted = quiz
	return nil
}

func (m *mockQuizRepository) GetByLessonID(ctx context.Context, lessonID int) (*models.Quiz, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.quiz == nil {
		return nil, notFound("quiz")
	}
	q := *m.quiz
	return &q, nil
}

// mockQuizAttemptRepository is a mock implementation of QuizAttemptRepository
type mockQuizAttemptRepository struct {
	graded    *models.QuizAttempt
	attempts  []models.QuizAttempt
	err       error
	createErr error
	deleteErr error

	created *models.QuizAttempt
	deleted bool
}

func (m *mockQuizAttemptRepository) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	if m.createErr != nil {
		return m.createErr
	}
	attempt.ID = 60
	m.created = attempt
	return nil
}

func (m *mockQuizAttemptRepository) ListByUserAndLesson(ctx context.Context, userID, lessonID int) ([]models.QuizAttempt, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.attempts, nil
}

func (m *mockQuizAttemptRepository) GetGraded(ctx context.Context, userID, quizID int) (*models.QuizAttempt, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.graded == nil {
		return nil, notFound("graded attempt")
	}
	return m.graded, nil
}

func (m *mockQuizAttemptRepository) DeleteGraded(ctx context.Context, userID, quizID int) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = true
	return nil
}

// mockLessonCompleter is a mock implementation of LessonCompleter
type mockLessonCompleter struct {
	err   error
	calls int
}

func (m *mockLessonCompleter) CompleteQuizLesson(ctx context.Context, userID int, lesson *models.Lesson) (*models.CourseProgress, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &models.CourseProgress{CourseID: lesson.CourseID}, nil
}

// mockAssignmentRepository is a mock implementation of AssignmentRepository
type mockAssignmentRepository struct {
	assignment  *models.Assignment
	assignments []models.Assignment
	err         error

	created *models.Assignment
	updated *models.Assignment
	deleted bool
}

func (m *mockAssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if m.err != nil {
		return m.err
	}
	assignment.ID = 70
	m.created = assignment
	return nil
}

func (m *mockAssignmentRepository) GetByID(ctx context.Context, id int) (*models.Assignment, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.assignment == nil {
		return nil, notFound("assignment")
	}
	a := *m.assignment
	return &a, nil
}

func (m *mockAssignmentRepository) ListByCourse(ctx context.Context, courseID int) ([]models.Assignment, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.assignments, nil
}

func (m *mockAssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	if m.err != nil {
		return m.err
	}
	m.updated = assignment
	return nil
}

func (m *mockAssignmentRepository) Delete(ctx context.Context, id int) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = true
	return nil
}

// mockSubmissionRepository is a mock implementation of SubmissionRepository
type mockSubmissionRepository struct {
	submission  *models.Submission
	submissions []models.Submission
	err         error
	createErr   error
	updateErr   error

	created     *models.Submission
	resubmitted *models.Submission
	gradedScore *int
	returned    bool
	listStatus  models.SubmissionStatus
}

func (m *mockSubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	if m.createErr != nil {
		return m.createErr
	}
	submission.ID = 80
	m.created = submission
	return nil
}

func (m *mockSubmissionRepository) GetByID(ctx context.Context, id int) (*models.Submission, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.submission == nil {
		return nil, notFound("submission")
	}
	s := *m.submission
	return &s, nil
}

func (m *mockSubmissionRepository) GetByAssignmentAndUser(ctx context.Context, assignmentID, userID int) (*models.Submission, error) {
	return m.GetByID(ctx, 0)
}

func (m *mockSubmissionRepository) Resubmit(ctx context.Context, submission *models.Submission) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	submission.Status = models.SubmissionStatusSubmitted
	submission.Score = nil
	m.resubmitted = submission
	return nil
}

func (m *mockSubmissionRepository) ListByAssignment(ctx context.Context, assignmentID int, status models.SubmissionStatus) ([]models.Submission, error) {
	m.listStatus = status
	if m.err != nil {
		return nil, m.err
	}
	return m.submissions, nil
}

func (m *mockSubmissionRepository) ListByUserAndCourse(ctx context.Context, userID, courseID int) ([]models.Submission, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.submissions, nil
}

func (m *mockSubmissionRepository) Grade(ctx context.Context, id, score int, feedback string, graderID int, gradedAt time.Time) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.gradedScore = &score
	m.submission.Status = models.SubmissionStatusGraded
	m.submission.Score = &score
	m.submission.Feedback = feedback
	return nil
}

func (m *mockSubmissionRepository) Return(ctx context.Context, id int, feedback string, graderID int, returnedAt time.Time) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.returned = true
	m.submission.Status = models.SubmissionStatusReturned
	m.submission.Score = nil
	m.submission.Feedback = feedback
	return nil
}

// mockReviewRepository is a mock implementation of ReviewRepository
type mockReviewRepository struct {
	review        *models.CourseReview
	public        []models.PublicReview
	admin         []models.CourseReview
	total         int
	reports       []models.ReviewReport
	summary       *models.RatingSummary
	summaries     map[int]*models.RatingSummary
	reportCount   int
	reportVisible bool
	err           error
	createErr     error
	saveErr       error
	reportErr     error

	created     *models.CourseReview
	saved       *models.CourseReview
	deleted     bool
	cleared     bool
	lastFilter  models.ReviewFilter
	threshold   int
	summaryHits int
}

func (m *mockReviewRepository) Create(ctx context.Context, review *models.CourseReview) error {
	if m.createErr != nil {
		return m.createErr
	}
	review.ID = 90
	m.created = review
	return nil
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id int) (*models.CourseReview, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.review == nil {
		return nil, notFound("review")
	}
	r := *m.review
	return &r, nil
}

func (m *mockReviewRepository) GetByCourseAndUser(ctx context.Context, courseID, userID int) (*models.CourseReview, error) {
	return m.GetByID(ctx, 0)
}

func (m *mockReviewRepository) Save(ctx context.Context, review *models.CourseReview) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = review
	return nil
}

func (m *mockReviewRepository) Delete(ctx context.Context, id int) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = true
	return nil
}

func (m *mockReviewRepository) ListPublic(ctx context.Context, courseID int, rating *int, page, count int) ([]models.PublicReview, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.public, m.total, nil
}

func (m *mockReviewRepository) ListAdmin(ctx context.Context, filter models.ReviewFilter) ([]models.CourseReview, int, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.admin, m.total, nil
}

func (m *mockReviewRepository) RatingSummary(ctx context.Context, courseID int) (*models.RatingSummary, error) {
	m.summaryHits++
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

func (m *mockReviewRepository) RatingSummaries(ctx context.Context) (map[int]*models.RatingSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.summaries, nil
}

func (m *mockReviewRepository) AddReport(ctx context.Context, report *models.ReviewReport, hideThreshold int) (int, bool, error) {
	m.threshold = hideThreshold
	if m.reportErr != nil {
		return 0, false, m.reportErr
	}
	return m.reportCount, m.reportVisible, nil
}

func (m *mockReviewRepository) ListReports(ctx context.Context, reviewID int) ([]models.ReviewReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.reports, nil
}

func (m *mockReviewRepository) ClearReports(ctx context.Context, reviewID int) error {
	if m.err != nil {
		return m.err
	}
	m.cleared = true
	return nil
}

// mockCatalogCache is an in-memory CatalogCache storing JSON like the Redis cache does
type mockCatalogCache struct {
	data          map[string][]byte
	getErr        error
	setErr        error
	invalidateErr error

	invalidations int
}

func newMockCatalogCache() *mockCatalogCache {
	return &mockCatalogCache{data: map[string][]byte{}}
}

func (m *mockCatalogCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if m.getErr != nil {
		return false, m.getErr
	}
	data, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (m *mockCatalogCache) Set(ctx context.Context, key string, value any) error {
	if m.setErr != nil {
		return m.setErr
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = data
	return nil
}

func (m *mockCatalogCache) Invalidate(ctx context.Context) error {
	m.invalidations++
	if m.invalidateErr != nil {
		return m.invalidateErr
	}
	m.data = map[string][]byte{}
	return nil
}

type enqueuedTask struct {
	taskType string
	payload  any
}

// mockTaskEnqueuer is a mock implementation of TaskEnqueuer
type mockTaskEnqueuer struct {
	err   error
	tasks []enqueuedTask
}

func (m *mockTaskEnqueuer) Enqueue(ctx context.Context, taskType string, payload any) error {
	if m.err != nil {
		return m.err
	}
	m.tasks = append(m.tasks, enqueuedTask{taskType: taskType, payload: payload})
	return nil
}

func (m *mockTaskEnqueuer) types() []string {
	out := make([]string, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t.taskType)
	}
	return out
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}
