package handlers

import (
	"context"
	"net/http"

	"github.com/coursehub/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogService is the interface that wraps methods for the public course catalog
type CatalogService interface {
	// Method ListCourses lists published courses matching the filter with their rating and enrollment counts.
	ListCourses(ctx context.Context, filter models.CourseFilter) (*models.Page[models.CourseCard], error)
	// Method GetCourse builds the course page for the viewer.
	//
	// Unpublished courses are only visible to their editors; others get an error wrapping models.ErrNotFound.
	GetCourse(ctx context.Context, slug string, viewer models.Viewer) (*models.CourseDetailResponse, error)
	ListCategories(ctx context.Context) ([]models.CategoryCount, error)
}

// CatalogHandler handles HTTP requests for browsing courses
type CatalogHandler struct {
	BaseHandler
	service CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(svc CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     svc,
	}
}

// RegisterRoutes registers all catalog handler routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router, mw Middlewares) {
	r.Get("/courses", h.ListCourses)
	r.Get("/categories", h.ListCategories)
	r.With(mw.OptionalAuth).Get("/courses/{slug}", h.GetCourse)
}

var (
	validLevels = map[models.CourseLevel]bool{
		models.CourseLevelBeginner:     true,
		models.CourseLevelIntermediate: true,
		models.CourseLevelAdvanced:     true,
		models.CourseLevelAllLevels:    true,
	}
	validSorts = map[models.CourseSort]bool{
		models.CourseSortNewest:    true,
		models.CourseSortPopular:   true,
		models.CourseSortRating:    true,
		models.CourseSortPriceAsc:  true,
		models.CourseSortPriceDesc: true,
	}
)

// courseFilter parses catalog query parameters
func courseFilter(r *http.Request) (models.CourseFilter, error) {
	q := r.URL.Query()
	filter := models.CourseFilter{
		Category: q.Get("category"),
		Level:    models.CourseLevel(q.Get("level")),
		Search:   q.Get("search"),
		Price:    models.PriceFilter(q.Get("price")),
		Sort:     models.CourseSort(q.Get("sort")),
	}

	fields := map[string]string{}
	if filter.Level != "" && !validLevels[filter.Level] {
		fields["level"] = "level must be one of beginner, intermediate, advanced, all"
	}
	if filter.Sort != "" && !validSorts[filter.Sort] {
		fields["sort"] = "sort must be one of newest, popular, rating, price_asc, price_desc"
	}
	switch filter.Price {
	case models.PriceFilterAny, models.PriceFilterFree, models.PriceFilterPaid:
	default:
		fields["price"] = "price must be free or paid"
	}
	if len(fields) > 0 {
		return filter, &models.ValidationError{Fields: fields}
	}

	var err error
	if filter.InstructorID, err = queryIntPtr(r, "instructorId"); err != nil {
		return filter, err
	}
	if filter.Page, filter.Count, err = pagination(r); err != nil {
		return filter, err
	}
	return filter, nil
}

// ListCourses handles GET /courses
// @Summary List published courses
// @Tags catalog
// @Produce json
// @Param category query string false "Category"
// @Param level query string false "beginner, intermediate, advanced or all"
// @Param search query string false "Title search"
// @Param price query string false "free or paid"
// @Param instructorId query int false "Instructor ID"
// @Param sort query string false "newest (default), popular, rating, price_asc, price_desc"
// @Param page query int false "Page number (default: 1)"
// @Param count query int false "Items per page (default: 12, max: 50)"
// @Success 200 {object} models.Page[models.CourseCard]
// @Failure 400 {object} ErrorResponse "Invalid filter"
// @Router /courses [get]
func (h *CatalogHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	filter, err := courseFilter(r)
	if err != nil {
		h.RespondServiceError(w, r, err, "parse course filter")
		return
	}

	page, err := h.service.ListCourses(r.Context(), filter)
	if err != nil {
		h.RespondServiceError(w, r, err, "list courses")
		return
	}

	h.RespondJSON(w, http.StatusOK, page)
}

// GetCourse handles GET /courses/{slug}
// @Summary Course page
// @Description Course with its outline and rating. Lesson content is included for preview lessons and enrolled viewers.
// @Tags catalog
// @Produce json
// @Param slug path string true "Course slug"
// @Success 200 {object} models.CourseDetailResponse
// @Failure 404 {object} ErrorResponse "Course not found"
// @Router /courses/{slug} [get]
func (h *CatalogHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := h.service.GetCourse(r.Context(), chi.URLParam(r, "slug"), viewer(r))
	if err != nil {
		h.RespondServiceError(w, r, err, "get course")
		return
	}

	h.RespondJSON(w, http.StatusOK, course)
}

// ListCategories handles GET /categories
// @Summary Categories of published courses with counts
// @Tags catalog
// @Produce json
// @Success 200 {array} models.CategoryCount
// @Router /categories [get]
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err, "list categories")
		return
	}

	h.RespondJSON(w, http.StatusOK, categories)
}
