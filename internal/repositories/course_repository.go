package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/coursehub/backend/internal/models"
)

type courseRepository struct {
	db *sql.DB
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *sql.DB) *courseRepository {
	return &courseRepository{
		db: db,
	}
}

const courseColumns = `id, slug, title, subtitle, description, category, level, language, price,
	thumbnail_url, instructor_id, status, created_at, updated_at`

func scanCourse(row interface{ Scan(...any) error }) (*models.Course, error) {
	var course models.Course
	err := row.Scan(
		&course.ID,
		&course.Slug,
		&course.Title,
		&course.Subtitle,
		&course.Description,
		&course.Category,
		&course.Level,
		&course.Language,
		&course.Price,
		&course.ThumbnailURL,
		&course.InstructorID,
		&course.Status,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// Create inserts a new course and sets its ID
func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	query := `
		INSERT INTO courses (slug, title, subtitle, description, category, level, language, price,
			thumbnail_url, instructor_id, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		course.Slug,
		course.Title,
		course.Subtitle,
		course.Description,
		course.Category,
		course.Level,
		course.Language,
		course.Price,
		course.ThumbnailURL,
		course.InstructorID,
		course.Status,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("course slug %q already exists: %w", course.Slug, models.ErrConflict)
		}
		return fmt.Errorf("failed to create course: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	course.ID = int(id)

	return nil
}

// GetByID retrieves a course by its ID
func (r *courseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	query := "SELECT " + courseColumns + " FROM courses WHERE id = ? LIMIT 1"

	course, err := scanCourse(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("course %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course by id: %w", err)
	}

	return course, nil
}

// GetBySlug retrieves a course by its slug
func (r *courseRepository) GetBySlug(ctx context.Context, slug string) (*models.Course, error) {
	query := "SELECT " + courseColumns + " FROM courses WHERE slug = ? LIMIT 1"

	course, err := scanCourse(r.db.QueryRowContext(ctx, query, slug))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("course %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course by slug: %w", err)
	}

	return course, nil
}

// ExistsBySlug checks if a course with the given slug exists
func (r *courseRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	query := "SELECT EXISTS(SELECT 1 FROM courses WHERE slug = ?)"

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check course slug: %w", err)
	}

	return exists, nil
}

// Update writes all editable columns of a course
func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	query := `
		UPDATE courses
		SET slug = ?, title = ?, subtitle = ?, description = ?, category = ?, level = ?,
			language = ?, price = ?, thumbnail_url = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		course.Slug,
		course.Title,
		course.Subtitle,
		course.Description,
		course.Category,
		course.Level,
		course.Language,
		course.Price,
		course.ThumbnailURL,
		course.ID,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("course slug %q already exists: %w", course.Slug, models.ErrConflict)
		}
		return fmt.Errorf("failed to update course: %w", err)
	}

	return nil
}

// UpdateStatus changes the publication status of a course
func (r *courseRepository) UpdateStatus(ctx context.Context, id int, status models.CourseStatus) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE courses SET status = ? WHERE id = ?", status, id); err != nil {
		return fmt.Errorf("failed to update course status: %w", err)
	}
	return nil
}

// Delete removes a course with its chapters and lessons
func (r *courseRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM courses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("course %w", models.ErrNotFound)
	}

	return nil
}

// buildCourseFilter turns a filter into a WHERE clause over alias c
func buildCourseFilter(filter models.CourseFilter) (string, []any) {
	var whereClauses []string
	args := []any{}

	switch {
	case filter.Status != "":
		whereClauses = append(whereClauses, "c.status = ?")
		args = append(args, filter.Status)
	case !filter.AnyStatus:
		whereClauses = append(whereClauses, "c.status = ?")
		args = append(args, models.CourseStatusPublished)
	}

	if filter.Category != "" {
		whereClauses = append(whereClauses, "c.category = ?")
		args = append(args, filter.Category)
	}
	if filter.Level != "" {
		whereClauses = append(whereClauses, "c.level = ?")
		args = append(args, filter.Level)
	}
	if filter.Search != "" {
		whereClauses = append(whereClauses, "c.title"+likeClause)
		args = append(args, containsPattern(filter.Search))
	}
	switch filter.Price {
	case models.PriceFilterFree:
		whereClauses = append(whereClauses, "c.price = 0")
	case models.PriceFilterPaid:
		whereClauses = append(whereClauses, "c.price > 0")
	}
	if filter.InstructorID != nil {
		whereClauses = append(whereClauses, "c.instructor_id = ?")
		args = append(args, *filter.InstructorID)
	}

	if len(whereClauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(whereClauses, " AND "), args
}

var courseSortOrder = map[models.CourseSort]string{
	models.CourseSortNewest:    "c.created_at DESC, c.id DESC",
	models.CourseSortPopular:   "enrollment_count DESC, c.id DESC",
	models.CourseSortRating:    "rating_average DESC, rating_count DESC, c.id DESC",
	models.CourseSortPriceAsc:  "c.price ASC, c.id ASC",
	models.CourseSortPriceDesc: "c.price DESC, c.id DESC",
}

// List retrieves course cards with rating and enrollment aggregates
func (r *courseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseCard, error) {
	whereClause, args := buildCourseFilter(filter)

	orderBy, ok := courseSortOrder[filter.Sort]
	if !ok {
		orderBy = courseSortOrder[models.CourseSortNewest]
	}

	query := fmt.Sprintf(`
		SELECT
			c.id,
			c.slug,
			c.title,
			c.subtitle,
			c.category,
			c.level,
			c.price,
			c.thumbnail_url,
			c.instructor_id,
			u.name,
			COALESCE(rs.rating_average, 0) AS rating_average,
			COALESCE(rs.rating_count, 0) AS rating_count,
			COALESCE(ec.enrollment_count, 0) AS enrollment_count,
			c.status
		FROM courses c
		JOIN users u ON u.id = c.instructor_id
		LEFT JOIN (
			SELECT course_id, ROUND(AVG(rating), 1) AS rating_average, COUNT(*) AS rating_count
			FROM course_reviews
			WHERE is_approved = TRUE AND is_visible = TRUE
			GROUP BY course_id
		) rs ON rs.course_id = c.id
		LEFT JOIN (
			SELECT course_id, COUNT(*) AS enrollment_count
			FROM enrollments
			WHERE status = 'active'
			GROUP BY course_id
		) ec ON ec.course_id = c.id
		%s
		ORDER BY %s
		LIMIT ? OFFSET ?
	`, whereClause, orderBy)
	args = append(args, filter.Count, offset(filter.Page, filter.Count))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	courses := []models.CourseCard{}
	for rows.Next() {
		var card models.CourseCard
		err := rows.Scan(
			&card.ID,
			&card.Slug,
			&card.Title,
			&card.Subtitle,
			&card.Category,
			&card.Level,
			&card.Price,
			&card.ThumbnailURL,
			&card.InstructorID,
			&card.InstructorName,
			&card.RatingAverage,
			&card.RatingCount,
			&card.EnrollmentCount,
			&card.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return courses, nil
}

// Count returns the number of courses matching a filter, ignoring pagination
func (r *courseRepository) Count(ctx context.Context, filter models.CourseFilter) (int, error) {
	whereClause, args := buildCourseFilter(filter)
	query := fmt.Sprintf("SELECT COUNT(*) FROM courses c %s", whereClause)

	var total int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}

	return total, nil
}

// ListCategories returns the categories of published courses with their course counts
func (r *courseRepository) ListCategories(ctx context.Context) ([]models.CategoryCount, error) {
	query := `
		SELECT category, COUNT(*) AS course_count
		FROM courses
		WHERE status = ?
		GROUP BY category
		ORDER BY course_count DESC, category ASC
	`

	rows, err := r.db.QueryContext(ctx, query, models.CourseStatusPublished)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []models.CategoryCount{}
	for rows.Next() {
		var category models.CategoryCount
		if err := rows.Scan(&category.Category, &category.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return categories, nil
}
