package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/coursehub/backend/internal/models"
	"github.com/coursehub/backend/internal/tasks"
	"go.uber.org/zap"
)

// ProgressRepository is the interface that wraps methods for LessonProgress table data access
type ProgressRepository interface {
	// Method Get retrieves the progress of a user on a lesson.
	//
	// If there is no record yet, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	Get(ctx context.Context, userID, lessonID int) (*models.LessonProgress, error)
	// Method Upsert creates or overwrites the progress record of a user on a lesson.
	Upsert(ctx context.Context, progress *models.LessonProgress) error
	// Method ListByUserAndCourse retrieves all lesson progress of a user in a course.
	ListByUserAndCourse(ctx context.Context, userID, courseID int) ([]models.LessonProgress, error)
}

// progressService implements lesson progress tracking and the course roll-up
type progressService struct {
	progressRepo   ProgressRepository
	courseRepo     CourseRepository
	chapterRepo    ChapterRepository
	lessonRepo     LessonRepository
	enrollmentRepo EnrollmentRepository
	tasks          TaskEnqueuer
	logger         *zap.Logger
	threshold      int
	now            func() time.Time
}

// NewProgressService creates a new progress service.
// "completionThreshold" is the percentage at which video and article lessons complete.
func NewProgressService(
	progressRepo ProgressRepository,
	courseRepo CourseRepository,
	chapterRepo ChapterRepository,
	lessonRepo LessonRepository,
	enrollmentRepo EnrollmentRepository,
	enqueuer TaskEnqueuer,
	logger *zap.Logger,
	completionThreshold int,
) *progressService {
	return &progressService{
		progressRepo:   progressRepo,
		courseRepo:     courseRepo,
		chapterRepo:    chapterRepo,
		lessonRepo:     lessonRepo,
		enrollmentRepo: enrollmentRepo,
		tasks:          enqueuer,
		logger:         logger,
		threshold:      completionThreshold,
		now:            time.Now,
	}
}

// lessonContext is everything a progress change needs
type lessonContext struct {
	lesson     *models.Lesson
	course     *models.Course
	enrollment *models.Enrollment
	progress   *models.LessonProgress
}

func (s *progressService) load(ctx context.Context, userID, lessonID int) (*lessonContext, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	enrollment, err := activeEnrollment(ctx, s.enrollmentRepo, userID, lesson.CourseID)
	if err != nil {
		return nil, err
	}
	course, err := s.courseRepo.GetByID(ctx, lesson.CourseID)
	if err != nil {
		return nil, err
	}

	progress, err := s.progressRepo.Get(ctx, userID, lessonID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		progress = &models.LessonProgress{
			UserID:   userID,
			CourseID: lesson.CourseID,
			LessonID: lesson.ID,
		}
	}
	// The lesson may have moved to another chapter since the record was written
	progress.ChapterID = lesson.ChapterID

	return &lessonContext{lesson: lesson, course: course, enrollment: enrollment, progress: progress}, nil
}

// UpdateLessonProgress stores the highest percentage reported for a lesson.
// Video and article lessons complete once the completion threshold is reached.
func (s *progressService) UpdateLessonProgress(ctx context.Context, userID, lessonID, percent int) (*models.CourseProgress, error) {
	if percent < 0 || percent > 100 {
		return nil, models.NewValidationError("percent", "percent must be between 0 and 100")
	}

	lc, err := s.load(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}

	if percent > lc.progress.Percent {
		lc.progress.Percent = percent
	}
	if !lc.progress.Completed && lc.lesson.Kind != models.LessonKindQuiz && lc.progress.Percent >= s.threshold {
		s.markCompleted(lc.progress)
	}

	return s.save(ctx, lc)
}

// CompleteLesson marks a video or article lesson completed. Quiz lessons complete through a passing graded attempt.
func (s *progressService) CompleteLesson(ctx context.Context, userID, lessonID int) (*models.CourseProgress, error) {
	lc, err := s.load(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}
	if lc.lesson.Kind == models.LessonKindQuiz {
		return nil, models.NewValidationError("lessonId", "quiz lessons are completed by passing the graded attempt")
	}

	if !lc.progress.Completed {
		s.markCompleted(lc.progress)
	}
	lc.progress.Percent = 100

	return s.save(ctx, lc)
}

// ResetLesson marks a video or article lesson incomplete with 0%
func (s *progressService) ResetLesson(ctx context.Context, userID, lessonID int) (*models.CourseProgress, error) {
	lc, err := s.load(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}
	if lc.lesson.Kind == models.LessonKindQuiz {
		return nil, models.NewValidationError("lessonId", "quiz lesson results are reset by an admin")
	}

	lc.progress.Percent = 0
	lc.progress.Completed = false
	lc.progress.CompletedAt = nil

	return s.save(ctx, lc)
}

// CompleteQuizLesson completes a quiz lesson after a passing graded attempt
func (s *progressService) CompleteQuizLesson(ctx context.Context, userID int, lesson *models.Lesson) (*models.CourseProgress, error) {
	lc, err := s.load(ctx, userID, lesson.ID)
	if err != nil {
		return nil, err
	}
	if lc.progress.Completed && lc.progress.Percent == 100 {
		return s.refresh(ctx, lc.enrollment, lc.course, true)
	}

	if !lc.progress.Completed {
		s.markCompleted(lc.progress)
	}
	lc.progress.Percent = 100

	return s.save(ctx, lc)
}

func (s *progressService) markCompleted(progress *models.LessonProgress) {
	now := s.now()
	progress.Completed = true
	progress.CompletedAt = &now
}

func (s *progressService) save(ctx context.Context, lc *lessonContext) (*models.CourseProgress, error) {
	if err := s.progressRepo.Upsert(ctx, lc.progress); err != nil {
		return nil, err
	}
	return s.refresh(ctx, lc.enrollment, lc.course, true)
}

// GetCourseProgress returns the roll-up of a user's progress in a course
func (s *progressService) GetCourseProgress(ctx context.Context, userID int, courseSlug string) (*models.CourseProgress, error) {
	course, err := s.courseRepo.GetBySlug(ctx, courseSlug)
	if err != nil {
		return nil, err
	}
	enrollment, err := activeEnrollment(ctx, s.enrollmentRepo, userID, course.ID)
	if err != nil {
		return nil, err
	}

	progress, err := s.rollUp(ctx, userID, course)
	if err != nil {
		return nil, err
	}
	progress.CompletedAt = enrollment.CompletedAt
	return progress, nil
}

// RecomputeCourse rebuilds the stored percentage of active enrollments, of one course when courseID is set.
// It returns the number of enrollments whose stored roll-up changed.
func (s *progressService) RecomputeCourse(ctx context.Context, courseID *int) (int, error) {
	enrollments, err := s.enrollmentRepo.ListActive(ctx, courseID)
	if err != nil {
		return 0, err
	}

	courses := make(map[int]*models.Course)
	changed := 0
	for i := range enrollments {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		enrollment := &enrollments[i]

		course, ok := courses[enrollment.CourseID]
		if !ok {
			course, err = s.courseRepo.GetByID(ctx, enrollment.CourseID)
			if err != nil {
				return changed, err
			}
			courses[course.ID] = course
		}

		before := *enrollment
		if _, err := s.refresh(ctx, enrollment, course, false); err != nil {
			return changed, fmt.Errorf("failed to recompute enrollment %d: %w", enrollment.ID, err)
		}
		if before.ProgressPercent != enrollment.ProgressPercent || (before.CompletedAt == nil) != (enrollment.CompletedAt == nil) {
			changed++
		}
	}

	s.logger.Info("progress recomputed", zap.Int("enrollments", len(enrollments)), zap.Int("changed", changed))
	return changed, nil
}

// refresh rolls up a course and stores the result on the enrollment.
// Reaching 100% stamps completedAt once; dropping below clears it.
func (s *progressService) refresh(ctx context.Context, enrollment *models.Enrollment, course *models.Course, notifyCompletion bool) (*models.CourseProgress, error) {
	progress, err := s.rollUp(ctx, enrollment.UserID, course)
	if err != nil {
		return nil, err
	}

	completedAt := enrollment.CompletedAt
	newlyCompleted := false
	if progress.Completed {
		if completedAt == nil {
			now := s.now()
			completedAt = &now
			newlyCompleted = true
		}
	} else {
		completedAt = nil
	}

	lastLessonID := progress.LastLessonID
	if lastLessonID == nil {
		lastLessonID = enrollment.LastLessonID
	}

	if err := s.enrollmentRepo.UpdateProgress(ctx, enrollment.ID, progress.Percent, lastLessonID, completedAt); err != nil {
		return nil, err
	}
	enrollment.ProgressPercent = progress.Percent
	enrollment.LastLessonID = lastLessonID
	enrollment.CompletedAt = completedAt
	progress.CompletedAt = completedAt

	if newlyCompleted {
		s.logger.Info("course completed", zap.Int("userId", enrollment.UserID), zap.Int("courseId", course.ID))
		if notifyCompletion {
			notify(ctx, s.tasks, s.logger, tasks.TypeCourseCompletedEmail, tasks.CourseCompletedPayload{
				UserID:   enrollment.UserID,
				CourseID: course.ID,
			})
		}
	}

	return progress, nil
}

func (s *progressService) rollUp(ctx context.Context, userID int, course *models.Course) (*models.CourseProgress, error) {
	chapters, err := s.chapterRepo.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	refs, err := s.lessonRepo.ListRefsByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	records, err := s.progressRepo.ListByUserAndCourse(ctx, userID, course.ID)
	if err != nil {
		return nil, err
	}

	progress := BuildCourseProgress(chapters, refs, records)
	progress.CourseID = course.ID
	progress.CourseSlug = course.Slug
	return progress, nil
}

// BuildCourseProgress aggregates lesson records into chapter and course roll-ups.
// Records of lessons that no longer exist are ignored.
func BuildCourseProgress(chapters []models.Chapter, refs []models.LessonRef, records []models.LessonProgress) *models.CourseProgress {
	byLesson := make(map[int]models.LessonProgress, len(records))
	for _, r := range records {
		byLesson[r.LessonID] = r
	}

	ordered := make([]models.Chapter, len(chapters))
	copy(ordered, chapters)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	lessonsByChapter := make(map[int][]models.LessonRef, len(ordered))
	for _, ref := range refs {
		lessonsByChapter[ref.ChapterID] = append(lessonsByChapter[ref.ChapterID], ref)
	}

	result := &models.CourseProgress{Chapters: make([]models.ChapterProgress, 0, len(ordered))}
	var lastTouched *models.LessonProgress

	for _, ch := range ordered {
		lessons := lessonsByChapter[ch.ID]
		sort.SliceStable(lessons, func(i, j int) bool { return lessons[i].Position < lessons[j].Position })

		cp := models.ChapterProgress{
			ChapterID:    ch.ID,
			Title:        ch.Title,
			Position:     ch.Position,
			TotalLessons: len(lessons),
			Lessons:      make([]models.LessonProgressItem, 0, len(lessons)),
		}
		for _, ref := range lessons {
			item := models.LessonProgressItem{
				LessonID: ref.LessonID,
				Slug:     ref.Slug,
				Title:    ref.Title,
				Kind:     ref.Kind,
				Position: ref.Position,
			}
			if rec, ok := byLesson[ref.LessonID]; ok {
				item.Percent = rec.Percent
				item.Completed = rec.Completed
				if lastTouched == nil || rec.UpdatedAt.After(lastTouched.UpdatedAt) {
					r := rec
					lastTouched = &r
				}
			}
			if item.Completed {
				cp.CompletedLessons++
			} else if result.NextLessonID == nil {
				id := ref.LessonID
				result.NextLessonID = &id
			}
			cp.Lessons = append(cp.Lessons, item)
		}
		cp.Percent = percentOf(cp.CompletedLessons, cp.TotalLessons)
		cp.Completed = cp.TotalLessons > 0 && cp.CompletedLessons == cp.TotalLessons

		result.CompletedLessons += cp.CompletedLessons
		result.TotalLessons += cp.TotalLessons
		result.Chapters = append(result.Chapters, cp)
	}

	result.Percent = percentOf(result.CompletedLessons, result.TotalLessons)
	result.Completed = result.TotalLessons > 0 && result.CompletedLessons == result.TotalLessons
	if lastTouched != nil {
		id := lastTouched.LessonID
		result.LastLessonID = &id
	}
	return result
}

func percentOf(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(total)))
}
