package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/coursehub/backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CourseRepository is the interface that wraps methods for Course table data access
type CourseRepository interface {
	// Method Create inserts a course and sets its ID.
	//
	// If the slug is taken, an error wrapping models.ErrConflict will be returned.
	Create(ctx context.Context, course *models.Course) error
	// Method GetByID retrieves a course by ID.
	//
	// If course with such ID does not exist, the error will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Course, error)
	// Method GetBySlug retrieves a course by slug regardless of its status.
	//
	// If course with such slug does not exist, the error will be returned together with "nil" value.
	GetBySlug(ctx context.Context, slug string) (*models.Course, error)
	// Method ExistsBySlug checks if a course with such slug exists.
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	// Method Update overwrites editable course fields.
	Update(ctx context.Context, course *models.Course) error
	// Method UpdateStatus changes the publication status of a course.
	UpdateStatus(ctx context.Context, id int, status models.CourseStatus) error
	// Method Delete removes a course with its chapters and lessons.
	Delete(ctx context.Context, id int) error
	// Method List retrieves course cards matching the filter.
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseCard, error)
	// Method Count counts courses matching the filter.
	Count(ctx context.Context, filter models.CourseFilter) (int, error)
	// Method ListCategories lists categories of published courses with course counts.
	ListCategories(ctx context.Context) ([]models.CategoryCount, error)
}

// ChapterRepository is the interface that wraps methods for Chapter table data access
type ChapterRepository interface {
	Create(ctx context.Context, chapter *models.Chapter) error
	GetByID(ctx context.Context, id int) (*models.Chapter, error)
	ListByCourse(ctx context.Context, courseID int) ([]models.Chapter, error)
	UpdateTitle(ctx context.Context, id int, title string) error
	Delete(ctx context.Context, id int) error
	// Method Reorder assigns positions 1..n following ids, which must be exactly the course's chapters.
	Reorder(ctx context.Context, courseID int, ids []int) error
}

// LessonRepository is the interface that wraps methods for Lesson table data access
type LessonRepository interface {
	Create(ctx context.Context, lesson *models.Lesson) error
	GetByID(ctx context.Context, id int) (*models.Lesson, error)
	ExistsBySlugInCourse(ctx context.Context, courseID int, slug string) (bool, error)
	// Method ListByCourse retrieves lessons in (chapter position, lesson position) order.
	ListByCourse(ctx context.Context, courseID int) ([]models.Lesson, error)
	// Method ListRefsByCourse retrieves lesson locations in course order.
	ListRefsByCourse(ctx context.Context, courseID int) ([]models.LessonRef, error)
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id int) error
	// Method Reorder assigns positions 1..n following ids, which must be exactly the chapter's lessons.
	Reorder(ctx context.Context, chapterID int, ids []int) error
}

const (
	defaultCourseLanguage = "bn"
	maxSlugLength         = 100
)

// authoringService implements course, chapter and lesson editing for instructors and admins
type authoringService struct {
	courseRepo     CourseRepository
	chapterRepo    ChapterRepository
	lessonRepo     LessonRepository
	userRepo       UserRepository
	enrollmentRepo EnrollmentRepository
	cache          CatalogCache
	logger         *zap.Logger
}

// NewAuthoringService creates a new authoring service
func NewAuthoringService(
	courseRepo CourseRepository,
	chapterRepo ChapterRepository,
	lessonRepo LessonRepository,
	userRepo UserRepository,
	enrollmentRepo EnrollmentRepository,
	cache CatalogCache,
	logger *zap.Logger,
) *authoringService {
	return &authoringService{
		courseRepo:     courseRepo,
		chapterRepo:    chapterRepo,
		lessonRepo:     lessonRepo,
		userRepo:       userRepo,
		enrollmentRepo: enrollmentRepo,
		cache:          cache,
		logger:         logger,
	}
}

// CreateCourse creates a draft course owned by the viewer, or by req.InstructorID when an admin creates it
func (s *authoringService) CreateCourse(ctx context.Context, viewer models.Viewer, req *models.CreateCourseRequest) (*models.Course, error) {
	if viewer.Role < models.RoleInstructor {
		return nil, fmt.Errorf("only instructors can create courses: %w", models.ErrForbidden)
	}

	instructorID := viewer.UserID
	if req.InstructorID > 0 && req.InstructorID != viewer.UserID {
		if !viewer.IsAdmin() {
			return nil, fmt.Errorf("only admins can assign another instructor: %w", models.ErrForbidden)
		}
		instructor, err := s.userRepo.GetByID(ctx, req.InstructorID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, models.NewValidationError("instructorId", "instructor does not exist")
			}
			return nil, err
		}
		if instructor.Role < models.RoleInstructor {
			return nil, models.NewValidationError("instructorId", "user is not an instructor")
		}
		instructorID = instructor.ID
	}

	slug, err := s.courseSlug(ctx, req.Slug, req.Title)
	if err != nil {
		return nil, err
	}

	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = defaultCourseLanguage
	}

	course := &models.Course{
		Slug:         slug,
		Title:        strings.TrimSpace(req.Title),
		Subtitle:     req.Subtitle,
		Description:  req.Description,
		Category:     strings.TrimSpace(req.Category),
		Level:        req.Level,
		Language:     language,
		Price:        req.Price,
		ThumbnailURL: req.ThumbnailURL,
		InstructorID: instructorID,
		Status:       models.CourseStatusDraft,
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}

	s.logger.Info("course created", zap.Int("courseId", course.ID), zap.Int("instructorId", instructorID))
	return course, nil
}

// UpdateCourse applies a partial update
func (s *authoringService) UpdateCourse(ctx context.Context, viewer models.Viewer, courseID int, req *models.UpdateCourseRequest) (*models.Course, error) {
	course, err := s.editableCourse(ctx, viewer, courseID)
	if err != nil {
		return nil, err
	}

	changed := false
	if req.Slug != "" && req.Slug != course.Slug {
		exists, err := s.courseRepo.ExistsBySlug(ctx, req.Slug)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("course slug %q already exists: %w", req.Slug, models.ErrConflict)
		}
		course.Slug = req.Slug
		changed = true
	}
	if req.Title != "" {
		course.Title = strings.TrimSpace(req.Title)
		changed = true
	}
	if req.Subtitle != nil {
		course.Subtitle = *req.Subtitle
		changed = true
	}
	if req.Description != nil {
		course.Description = *req.Description
		changed = true
	}
	if req.Category != "" {
		course.Category = strings.TrimSpace(req.Category)
		changed = true
	}
	if req.Level != "" {
		course.Level = req.Level
		changed = true
	}
	if req.Language != "" {
		course.Language = req.Language
		changed = true
	}
	if req.Price != nil {
		course.Price = *req.Price
		changed = true
	}
	if req.ThumbnailURL != nil {
		course.ThumbnailURL = *req.ThumbnailURL
		changed = true
	}
	if !changed {
		return nil, models.ErrNothingChanged
	}

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, err
	}

	s.invalidate(ctx, course)
	return course, nil
}

// DeleteCourse removes a course. Courses with enrollments can only be force-deleted by an admin.
func (s *authoringService) DeleteCourse(ctx context.Context, viewer models.Viewer, courseID int, force bool) error {
	course, err := s.editableCourse(ctx, viewer, courseID)
	if err != nil {
		return err
	}

	enrollments, err := s.enrollmentRepo.CountByCourse(ctx, course.ID)
	if err != nil {
		return err
	}
	if enrollments > 0 && !(force && viewer.IsAdmin()) {
		return fmt.Errorf("course has %d enrollments: %w", enrollments, models.ErrConflict)
	}

	if err := s.courseRepo.Delete(ctx, course.ID); err != nil {
		return err
	}

	s.logger.Info("course deleted", zap.Int("courseId", course.ID), zap.Int("byUserId", viewer.UserID), zap.Int("enrollments", enrollments))
	s.invalidate(ctx, course)
	return nil
}

// PublishCourse makes a course visible in the catalog. It needs at least one lesson.
func (s *authoringService) PublishCourse(ctx context.Context, viewer models.Viewer, courseID int) (*models.Course, error) {
	course, err := s.editableCourse(ctx, viewer, courseID)
	if err != nil {
		return nil, err
	}

	refs, err := s.lessonRepo.ListRefsByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, models.NewValidationError("status", "course needs at least one chapter with a lesson to be published")
	}

	return s.setStatus(ctx, course, models.CourseStatusPublished)
}

// ArchiveCourse hides a course from the catalog; enrolled students keep access
func (s *authoringService) ArchiveCourse(ctx context.Context, viewer models.Viewer, courseID int) (*models.Course, error) {
	course, err := s.editableCourse(ctx, viewer, courseID)
	if err != nil {
		return nil, err
	}
	return s.setStatus(ctx, course, models.CourseStatusArchived)
}

func (s *authoringService) setStatus(ctx context.Context, course *models.Course, status models.CourseStatus) (*models.Course, error) {
	if course.Status == status {
		return course, nil
	}
	if err := s.courseRepo.UpdateStatus(ctx, course.ID, status); err != nil {
		return nil, err
	}
	course.Status = status

	s.logger.Info("course status changed", zap.Int("courseId", course.ID), zap.String("status", string(status)))
	invalidateCatalog(ctx, s.cache, s.logger)
	return course, nil
}

// ListMyCourses lists courses of the viewer in any status
func (s *authoringService) ListMyCourses(ctx context.Context, viewer models.Viewer, page, count int) (*models.Page[models.CourseCard], error) {
	instructorID := viewer.UserID
	filter := models.CourseFilter{
		InstructorID: &instructorID,
		AnyStatus:    true,
		Sort:         models.CourseSortNewest,
	}
	filter.Page, filter.Count = models.NormalizePage(page, count, 20, 100)

	items, err := s.courseRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.courseRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.CourseCard{}
	}

	return &models.Page[models.CourseCard]{Items: items, Total: total, Page: filter.Page, Count: filter.Count}, nil
}

// CreateChapter appends a chapter to a course
func (s *authoringService) CreateChapter(ctx context.Context, viewer models.Viewer, req *models.CreateChapterRequest) (*models.Chapter, error) {
	course, err := s.editableCourse(ctx, viewer, req.CourseID)
	if err != nil {
		return nil, err
	}

	chapter := &models.Chapter{CourseID: course.ID, Title: strings.TrimSpace(req.Title)}
	if err := s.chapterRepo.Create(ctx, chapter); err != nil {
		return nil, err
	}

	s.invalidate(ctx, course)
	return chapter, nil
}

// UpdateChapter renames a chapter
func (s *authoringService) UpdateChapter(ctx context.Context, viewer models.Viewer, chapterID int, req *models.UpdateChapterRequest) (*models.Chapter, error) {
	chapter, course, err := s.editableChapter(ctx, viewer, chapterID)
	if err != nil {
		return nil, err
	}

	chapter.Title = strings.TrimSpace(req.Title)
	if err := s.chapterRepo.UpdateTitle(ctx, chapter.ID, chapter.Title); err != nil {
		return nil, err
	}

	s.invalidate(ctx, course)
	return chapter, nil
}

// DeleteChapter removes a chapter with its lessons and closes the position gap
func (s *authoringService) DeleteChapter(ctx context.Context, viewer models.Viewer, chapterID int) error {
	chapter, course, err := s.editableChapter(ctx, viewer, chapterID)
	if err != nil {
		return err
	}

	if err := s.chapterRepo.Delete(ctx, chapter.ID); err != nil {
		return err
	}

	s.invalidate(ctx, course)
	return nil
}

// ReorderChapters sets chapter positions following ids and returns the chapters in their new order
func (s *authoringService) ReorderChapters(ctx context.Context, viewer models.Viewer, courseID int, ids []int) ([]models.Chapter, error) {
	course, err := s.editableCourse(ctx, viewer, courseID)
	if err != nil {
		return nil, err
	}

	if err := s.chapterRepo.Reorder(ctx, course.ID, ids); err != nil {
		return nil, err
	}

	s.invalidate(ctx, course)
	return s.chapterRepo.ListByCourse(ctx, course.ID)
}

// CreateLesson appends a lesson to a chapter
func (s *authoringService) CreateLesson(ctx context.Context, viewer models.Viewer, req *models.CreateLessonRequest) (*models.Lesson, error) {
	chapter, course, err := s.editableChapter(ctx, viewer, req.ChapterID)
	if err != nil {
		return nil, err
	}

	slug, err := s.lessonSlug(ctx, course.ID, req.Slug, req.Title)
	if err != nil {
		return nil, err
	}

	lesson := &models.Lesson{
		ChapterID:       chapter.ID,
		CourseID:        course.ID,
		Slug:            slug,
		Title:           strings.TrimSpace(req.Title),
		Kind:            req.Kind,
		Content:         req.Content,
		VideoURL:        req.VideoURL,
		DurationSeconds: req.DurationSeconds,
		IsPreview:       req.IsPreview,
	}
	if err := s.lessonRepo.Create(ctx, lesson); err != nil {
		return nil, err
	}

	s.invalidate(ctx, course)
	return lesson, nil
}

// UpdateLesson applies a partial update
func (s *authoringService) UpdateLesson(ctx context.Context, viewer models.Viewer, lessonID int, req *models.UpdateLessonRequest) (*models.Lesson, error) {
	lesson, course, err := s.editableLesson(ctx, viewer, lessonID)
	if err != nil {
		return nil, err
	}

	changed := false
	if req.Slug != "" && req.Slug != lesson.Slug {
		exists, err := s.lessonRepo.ExistsBySlugInCourse(ctx, course.ID, req.Slug)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("lesson slug %q already exists in course: %w", req.Slug, models.ErrConflict)
		}
		lesson.Slug = req.Slug
		changed = true
	}
	if req.Title != "" {
		lesson.Title = strings.TrimSpace(req.Title)
		changed = true
	}
	if req.Kind != "" {
		lesson.Kind = req.Kind
		changed = true
	}
	if req.Content != nil {
		lesson.Content = *req.Content
		changed = true
	}
	if req.VideoURL != nil {
		lesson.VideoURL = *req.VideoURL
		changed = true
	}
	if req.DurationSeconds != nil {
		lesson.DurationSeconds = *req.DurationSeconds
		changed = true
	}
	if req.IsPreview != nil {
		lesson.IsPreview = *req.IsPreview
		changed = true
	}
	if !changed {
		return nil, models.ErrNothingChanged
	}

	if err := s.lessonRepo.Update(ctx, lesson); err != nil {
		return nil, err
	}

	s.invalidate(ctx, course)
	return lesson, nil
}

// DeleteLesson removes a lesson and closes the position gap in its chapter
func (s *authoringService) DeleteLesson(ctx context.Context, viewer models.Viewer, lessonID int) error {
	lesson, course, err := s.editableLesson(ctx, viewer, lessonID)
	if err != nil {
		return err
	}

	if err := s.lessonRepo.Delete(ctx, lesson.ID); err != nil {
		return err
	}

	s.invalidate(ctx, course)
	return nil
}

// ReorderLessons sets lesson positions inside one chapter and returns that chapter's lessons in order
func (s *authoringService) ReorderLessons(ctx context.Context, viewer models.Viewer, chapterID int, ids []int) ([]models.Lesson, error) {
	chapter, course, err := s.editableChapter(ctx, viewer, chapterID)
	if err != nil {
		return nil, err
	}

	if err := s.lessonRepo.Reorder(ctx, chapter.ID, ids); err != nil {
		return nil, err
	}
	s.invalidate(ctx, course)

	lessons, err := s.lessonRepo.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	ordered := make([]models.Lesson, 0, len(ids))
	for _, l := range lessons {
		if l.ChapterID == chapter.ID {
			ordered = append(ordered, l)
		}
	}
	return ordered, nil
}

func (s *authoringService) editableCourse(ctx context.Context, viewer models.Viewer, courseID int) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := requireEditor(viewer, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *authoringService) editableChapter(ctx context.Context, viewer models.Viewer, chapterID int) (*models.Chapter, *models.Course, error) {
	chapter, err := s.chapterRepo.GetByID(ctx, chapterID)
	if err != nil {
		return nil, nil, err
	}
	course, err := s.editableCourse(ctx, viewer, chapter.CourseID)
	if err != nil {
		return nil, nil, err
	}
	return chapter, course, nil
}

func (s *authoringService) editableLesson(ctx context.Context, viewer models.Viewer, lessonID int) (*models.Lesson, *models.Course, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, nil, err
	}
	course, err := s.editableCourse(ctx, viewer, lesson.CourseID)
	if err != nil {
		return nil, nil, err
	}
	return lesson, course, nil
}

// invalidate drops the catalog cache when the change is visible in it
func (s *authoringService) invalidate(ctx context.Context, course *models.Course) {
	if course.Status == models.CourseStatusPublished {
		invalidateCatalog(ctx, s.cache, s.logger)
	}
}

// courseSlug checks an explicit slug, or derives a free one from the title
func (s *authoringService) courseSlug(ctx context.Context, explicit, title string) (string, error) {
	if explicit != "" {
		exists, err := s.courseRepo.ExistsBySlug(ctx, explicit)
		if err != nil {
			return "", err
		}
		if exists {
			return "", fmt.Errorf("course slug %q already exists: %w", explicit, models.ErrConflict)
		}
		return explicit, nil
	}
	return uniqueSlug(ctx, Slugify(title, "course"), func(ctx context.Context, slug string) (bool, error) {
		return s.courseRepo.ExistsBySlug(ctx, slug)
	})
}

// lessonSlug checks an explicit slug, or derives one unique within the course
func (s *authoringService) lessonSlug(ctx context.Context, courseID int, explicit, title string) (string, error) {
	exists := func(ctx context.Context, slug string) (bool, error) {
		return s.lessonRepo.ExistsBySlugInCourse(ctx, courseID, slug)
	}
	if explicit != "" {
		taken, err := exists(ctx, explicit)
		if err != nil {
			return "", err
		}
		if taken {
			return "", fmt.Errorf("lesson slug %q already exists in course: %w", explicit, models.ErrConflict)
		}
		return explicit, nil
	}
	return uniqueSlug(ctx, Slugify(title, "lesson"), exists)
}

// uniqueSlug appends a random suffix while the slug is taken
func uniqueSlug(ctx context.Context, base string, exists func(context.Context, string) (bool, error)) (string, error) {
	slug := base
	for range 5 {
		taken, err := exists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = base + "-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
	}
	return "", fmt.Errorf("could not find a free slug for %q: %w", base, models.ErrConflict)
}

// Slugify lower-cases a title and joins its ASCII letters and digits with dashes.
// Titles without any ASCII letters or digits fall back to the given word.
func Slugify(title, fallback string) string {
	// chained transformers keep state, so each call builds its own
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
		default:
			dash = true
		}
	}

	slug := b.String()
	if len(slug) > maxSlugLength {
		// cut on a word boundary
		if slug[maxSlugLength] == '-' {
			slug = slug[:maxSlugLength]
		} else if i := strings.LastIndexByte(slug[:maxSlugLength], '-'); i > 0 {
			slug = slug[:i]
		} else {
			slug = slug[:maxSlugLength]
		}
	}
	if slug == "" {
		return fallback
	}
	return slug
}
