package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/coursehub/backend/internal/models"
	"go.uber.org/zap"
)

// CatalogCache is the interface that wraps the catalog read cache
type CatalogCache interface {
	// Method Get loads a cached value into dest.
	//
	// It reports false when the key is missing or expired.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Method Set stores a value under the key with the catalog TTL.
	Set(ctx context.Context, key string, value any) error
	// Method Invalidate drops every catalog entry.
	Invalidate(ctx context.Context) error
}

// Catalog cache keys
const (
	catalogListKeyPrefix = "catalog:list:"
	catalogCategoriesKey = "catalog:categories"
	catalogRatingPrefix  = "catalog:rating:"
)

const (
	catalogDefaultCount = 12
	catalogMaxCount     = 50
)

// ReviewAggregates is the rating part of the review repository used by the catalog
type ReviewAggregates interface {
	// Method RatingSummary aggregates approved and visible reviews of a course.
	RatingSummary(ctx context.Context, courseID int) (*models.RatingSummary, error)
	// Method RatingSummaries aggregates approved and visible reviews of all published courses.
	RatingSummaries(ctx context.Context) (map[int]*models.RatingSummary, error)
}

// catalogService implements the public catalog
type catalogService struct {
	courseRepo     CourseRepository
	chapterRepo    ChapterRepository
	lessonRepo     LessonRepository
	userRepo       UserRepository
	enrollmentRepo EnrollmentRepository
	reviews        ReviewAggregates
	cache          CatalogCache
	logger         *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	courseRepo CourseRepository,
	chapterRepo ChapterRepository,
	lessonRepo LessonRepository,
	userRepo UserRepository,
	enrollmentRepo EnrollmentRepository,
	reviews ReviewAggregates,
	cache CatalogCache,
	logger *zap.Logger,
) *catalogService {
	return &catalogService{
		courseRepo:     courseRepo,
		chapterRepo:    chapterRepo,
		lessonRepo:     lessonRepo,
		userRepo:       userRepo,
		enrollmentRepo: enrollmentRepo,
		reviews:        reviews,
		cache:          cache,
		logger:         logger,
	}
}

// ListCourses returns a page of published courses. Results are served from the cache when possible.
func (s *catalogService) ListCourses(ctx context.Context, filter models.CourseFilter) (*models.Page[models.CourseCard], error) {
	filter.Status = ""
	filter.AnyStatus = false
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Page, filter.Count = models.NormalizePage(filter.Page, filter.Count, catalogDefaultCount, catalogMaxCount)
	if filter.Sort == "" {
		filter.Sort = models.CourseSortNewest
	}

	key, err := listCacheKey(filter)
	if err != nil {
		return nil, err
	}

	var cached models.Page[models.CourseCard]
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	page, err := s.listCourses(ctx, filter)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, key, page)
	return page, nil
}

func (s *catalogService) listCourses(ctx context.Context, filter models.CourseFilter) (*models.Page[models.CourseCard], error) {
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

	return &models.Page[models.CourseCard]{
		Items: items,
		Total: total,
		Page:  filter.Page,
		Count: filter.Count,
	}, nil
}

// GetCourse builds the course page. Drafts and archived courses are visible to their editors only.
// Lesson content is included for preview lessons and for viewers with access to the course.
func (s *catalogService) GetCourse(ctx context.Context, slug string, viewer models.Viewer) (*models.CourseDetailResponse, error) {
	course, err := s.courseRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	canEdit := viewer.CanEdit(course)
	if course.Status != models.CourseStatusPublished && !canEdit {
		return nil, fmt.Errorf("course %w", models.ErrNotFound)
	}

	isEnrolled := false
	if viewer.Authenticated() {
		if _, err := activeEnrollment(ctx, s.enrollmentRepo, viewer.UserID, course.ID); err == nil {
			isEnrolled = true
		} else if !errors.Is(err, models.ErrNotEnrolled) {
			return nil, err
		}
	}

	chapters, err := s.chapterRepo.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.lessonRepo.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}

	instructorName := ""
	if instructor, err := s.userRepo.GetByID(ctx, course.InstructorID); err == nil {
		instructorName = instructor.Name
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	enrollmentCount, err := s.enrollmentRepo.CountActiveByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}

	rating, err := s.ratingSummary(ctx, course.ID)
	if err != nil {
		return nil, err
	}

	detail := &models.CourseDetailResponse{
		Course:          *course,
		InstructorName:  instructorName,
		Rating:          *rating,
		EnrollmentCount: enrollmentCount,
		IsEnrolled:      isEnrolled,
	}
	detail.Chapters, detail.TotalLessons, detail.TotalDuration = buildOutline(chapters, lessons, isEnrolled || canEdit)

	return detail, nil
}

// buildOutline groups ordered lessons under ordered chapters
func buildOutline(chapters []models.Chapter, lessons []models.Lesson, fullAccess bool) ([]models.CourseOutlineChapter, int, int) {
	outline := make([]models.CourseOutlineChapter, 0, len(chapters))
	index := make(map[int]int, len(chapters))
	for _, ch := range chapters {
		index[ch.ID] = len(outline)
		outline = append(outline, models.CourseOutlineChapter{
			ID:       ch.ID,
			Title:    ch.Title,
			Position: ch.Position,
			Lessons:  []models.CourseOutlineLesson{},
		})
	}

	totalLessons, totalDuration := 0, 0
	for _, l := range lessons {
		i, ok := index[l.ChapterID]
		if !ok {
			continue
		}
		item := models.CourseOutlineLesson{
			ID:              l.ID,
			Slug:            l.Slug,
			Title:           l.Title,
			Kind:            l.Kind,
			DurationSeconds: l.DurationSeconds,
			Position:        l.Position,
			IsPreview:       l.IsPreview,
		}
		if fullAccess || l.IsPreview {
			item.Content = l.Content
			item.VideoURL = l.VideoURL
		}
		outline[i].Lessons = append(outline[i].Lessons, item)
		totalLessons++
		totalDuration += l.DurationSeconds
	}

	return outline, totalLessons, totalDuration
}

// ListCategories returns categories of published courses with their course counts
func (s *catalogService) ListCategories(ctx context.Context) ([]models.CategoryCount, error) {
	var cached []models.CategoryCount
	if s.cacheGet(ctx, catalogCategoriesKey, &cached) {
		return cached, nil
	}

	categories, err := s.courseRepo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []models.CategoryCount{}
	}

	s.cacheSet(ctx, catalogCategoriesKey, categories)
	return categories, nil
}

// WarmCache rebuilds the first catalog page for every sort order and the category list
func (s *catalogService) WarmCache(ctx context.Context) error {
	if err := s.cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("failed to invalidate catalog cache: %w", err)
	}

	sorts := []models.CourseSort{
		models.CourseSortNewest,
		models.CourseSortPopular,
		models.CourseSortRating,
		models.CourseSortPriceAsc,
		models.CourseSortPriceDesc,
	}
	for _, sort := range sorts {
		if _, err := s.ListCourses(ctx, models.CourseFilter{Sort: sort}); err != nil {
			return fmt.Errorf("failed to warm %s listing: %w", sort, err)
		}
	}

	if _, err := s.ListCategories(ctx); err != nil {
		return fmt.Errorf("failed to warm categories: %w", err)
	}
	return nil
}

// SnapshotRatings stores the rating summary of every published course in the cache
// and returns the number of courses written
func (s *catalogService) SnapshotRatings(ctx context.Context) (int, error) {
	summaries, err := s.reviews.RatingSummaries(ctx)
	if err != nil {
		return 0, err
	}

	written := 0
	for courseID, summary := range summaries {
		if err := s.cache.Set(ctx, ratingKey(courseID), summary); err != nil {
			return written, fmt.Errorf("failed to cache rating of course %d: %w", courseID, err)
		}
		written++
	}
	return written, nil
}

// ratingSummary reads the rating of a course from the cache, falling back to the database
func (s *catalogService) ratingSummary(ctx context.Context, courseID int) (*models.RatingSummary, error) {
	var cached models.RatingSummary
	if s.cacheGet(ctx, ratingKey(courseID), &cached) {
		return &cached, nil
	}

	summary, err := s.reviews.RatingSummary(ctx, courseID)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, ratingKey(courseID), summary)
	return summary, nil
}

// cacheGet treats cache errors as misses; the database stays the source of truth
func (s *catalogService) cacheGet(ctx context.Context, key string, dest any) bool {
	ok, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

func (s *catalogService) cacheSet(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func listCacheKey(filter models.CourseFilter) (string, error) {
	data, err := json.Marshal(filter)
	if err != nil {
		return "", fmt.Errorf("failed to build cache key: %w", err)
	}
	return catalogListKeyPrefix + string(data), nil
}

func ratingKey(courseID int) string {
	return fmt.Sprintf("%s%d", catalogRatingPrefix, courseID)
}

// invalidateCatalog drops cached listings after a write; failures only expire later through the TTL
func invalidateCatalog(ctx context.Context, cache CatalogCache, logger *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		logger.Warn("failed to invalidate catalog cache", zap.Error(err))
	}
}
