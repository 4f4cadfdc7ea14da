package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/coursehub/backend/internal/models"
)

type reviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *sql.DB) *reviewRepository {
	return &reviewRepository{
		db: db,
	}
}

const reviewColumns = `r.id, r.course_id, c.title, r.user_id, u.name, r.rating, r.comment, r.is_approved,
	r.is_visible, r.report_count, r.moderation_note, r.moderated_at, r.moderated_by, r.created_at, r.updated_at`

const reviewFrom = `
	FROM course_reviews r
	JOIN courses c ON c.id = r.course_id
	JOIN users u ON u.id = r.user_id`

func scanReview(row interface{ Scan(...any) error }) (*models.CourseReview, error) {
	var (
		review      models.CourseReview
		moderatedAt sql.NullTime
		moderatedBy sql.NullInt64
	)
	err := row.Scan(
		&review.ID,
		&review.CourseID,
		&review.CourseTitle,
		&review.UserID,
		&review.UserName,
		&review.Rating,
		&review.Comment,
		&review.IsApproved,
		&review.IsVisible,
		&review.ReportCount,
		&review.ModerationNote,
		&moderatedAt,
		&moderatedBy,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if moderatedAt.Valid {
		review.ModeratedAt = &moderatedAt.Time
	}
	if moderatedBy.Valid {
		id := int(moderatedBy.Int64)
		review.ModeratedBy = &id
	}
	return &review, nil
}

// Create inserts a new review and sets its ID
func (r *reviewRepository) Create(ctx context.Context, review *models.CourseReview) error {
	query := `
		INSERT INTO course_reviews (course_id, user_id, rating, comment, is_approved, is_visible)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		review.CourseID,
		review.UserID,
		review.Rating,
		review.Comment,
		review.IsApproved,
		review.IsVisible,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("course already reviewed: %w", models.ErrConflict)
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	review.ID = int(id)

	return nil
}

// GetByID retrieves a review by ID
func (r *reviewRepository) GetByID(ctx context.Context, id int) (*models.CourseReview, error) {
	query := "SELECT " + reviewColumns + reviewFrom + " WHERE r.id = ? LIMIT 1"

	review, err := scanReview(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("review %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return review, nil
}

// GetByCourseAndUser retrieves the review a user wrote for a course
func (r *reviewRepository) GetByCourseAndUser(ctx context.Context, courseID, userID int) (*models.CourseReview, error) {
	query := "SELECT " + reviewColumns + reviewFrom + " WHERE r.course_id = ? AND r.user_id = ? LIMIT 1"

	review, err := scanReview(r.db.QueryRowContext(ctx, query, courseID, userID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("review %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return review, nil
}

// Save writes the content and moderation state of a review.
// report_count is left alone, it only changes through AddReport and ClearReports.
func (r *reviewRepository) Save(ctx context.Context, review *models.CourseReview) error {
	query := `
		UPDATE course_reviews
		SET rating = ?, comment = ?, is_approved = ?, is_visible = ?,
			moderation_note = ?, moderated_at = ?, moderated_by = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		review.Rating,
		review.Comment,
		review.IsApproved,
		review.IsVisible,
		review.ModerationNote,
		review.ModeratedAt,
		review.ModeratedBy,
		review.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to save review: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// MySQL reports 0 for an unchanged row, so confirm the review still exists
		if _, err := r.GetByID(ctx, review.ID); err != nil {
			return err
		}
	}

	return nil
}

// Delete removes a review and its reports
func (r *reviewRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM course_reviews WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("review %w", models.ErrNotFound)
	}

	return nil
}

// ListPublic retrieves approved and visible reviews of a course, newest first,
// with the total number of matching reviews
func (r *reviewRepository) ListPublic(ctx context.Context, courseID int, rating *int, page, count int) ([]models.PublicReview, int, error) {
	where := "r.course_id = ? AND r.is_approved = TRUE AND r.is_visible = TRUE"
	args := []any{courseID}
	if rating != nil {
		where += " AND r.rating = ?"
		args = append(args, *rating)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM course_reviews r WHERE " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT r.id, u.name, r.rating, r.comment, r.created_at
		FROM course_reviews r
		JOIN users u ON u.id = r.user_id
		WHERE %s
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT ? OFFSET ?
	`, where)
	args = append(args, count, offset(page, count))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.PublicReview{}
	for rows.Next() {
		var review models.PublicReview
		if err := rows.Scan(&review.ID, &review.UserName, &review.Rating, &review.Comment, &review.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return reviews, total, nil
}

func buildReviewFilter(filter models.ReviewFilter) (string, []any) {
	conditions := []string{"1 = 1"}
	args := []any{}

	switch filter.Status {
	case models.ReviewStatusPending:
		conditions = append(conditions, "r.is_approved = FALSE AND r.moderated_at IS NULL")
	case models.ReviewStatusApproved:
		conditions = append(conditions, "r.is_approved = TRUE")
	case models.ReviewStatusRejected:
		conditions = append(conditions, "r.is_approved = FALSE AND r.moderated_at IS NOT NULL")
	}
	if filter.Visible != nil {
		conditions = append(conditions, "r.is_visible = ?")
		args = append(args, *filter.Visible)
	}
	if filter.Reported {
		conditions = append(conditions, "r.report_count > 0")
	}
	if filter.CourseID != nil {
		conditions = append(conditions, "r.course_id = ?")
		args = append(args, *filter.CourseID)
	}
	if filter.Rating != nil {
		conditions = append(conditions, "r.rating = ?")
		args = append(args, *filter.Rating)
	}
	if filter.Search != "" {
		conditions = append(conditions, "(r.comment"+likeClause+" OR u.name"+likeClause+" OR c.title"+likeClause+")")
		pattern := containsPattern(filter.Search)
		args = append(args, pattern, pattern, pattern)
	}

	return strings.Join(conditions, " AND "), args
}

// ListAdmin retrieves reviews for moderation with the total number of matches.
// Reported reviews come first, then the newest.
func (r *reviewRepository) ListAdmin(ctx context.Context, filter models.ReviewFilter) ([]models.CourseReview, int, error) {
	where, args := buildReviewFilter(filter)

	var total int
	countQuery := "SELECT COUNT(*)" + reviewFrom + " WHERE " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	query := fmt.Sprintf("SELECT %s%s WHERE %s ORDER BY r.report_count DESC, r.created_at DESC, r.id DESC LIMIT ? OFFSET ?",
		reviewColumns, reviewFrom, where)
	args = append(args, filter.Count, offset(filter.Page, filter.Count))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.CourseReview{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, *review)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return reviews, total, nil
}

// RatingSummary aggregates the approved and visible reviews of a course
func (r *reviewRepository) RatingSummary(ctx context.Context, courseID int) (*models.RatingSummary, error) {
	query := `
		SELECT rating, COUNT(*)
		FROM course_reviews
		WHERE course_id = ? AND is_approved = TRUE AND is_visible = TRUE
		GROUP BY rating
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating summary: %w", err)
	}
	defer rows.Close()

	histogram := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		histogram[rating] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return summarize(histogram), nil
}

// RatingSummaries aggregates approved and visible reviews of every published course
func (r *reviewRepository) RatingSummaries(ctx context.Context) (map[int]*models.RatingSummary, error) {
	query := `
		SELECT r.course_id, r.rating, COUNT(*)
		FROM course_reviews r
		JOIN courses c ON c.id = r.course_id
		WHERE c.status = ? AND r.is_approved = TRUE AND r.is_visible = TRUE
		GROUP BY r.course_id, r.rating
	`

	rows, err := r.db.QueryContext(ctx, query, models.CourseStatusPublished)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating summaries: %w", err)
	}
	defer rows.Close()

	histograms := map[int]map[int]int{}
	for rows.Next() {
		var courseID, rating, count int
		if err := rows.Scan(&courseID, &rating, &count); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		if histograms[courseID] == nil {
			histograms[courseID] = map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
		}
		histograms[courseID][rating] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	summaries := make(map[int]*models.RatingSummary, len(histograms))
	for courseID, histogram := range histograms {
		summaries[courseID] = summarize(histogram)
	}
	return summaries, nil
}

// summarize computes the average rounded to one decimal
func summarize(histogram map[int]int) *models.RatingSummary {
	summary := &models.RatingSummary{Histogram: histogram}
	sum := 0
	for rating, count := range histogram {
		summary.Count += count
		sum += rating * count
	}
	if summary.Count > 0 {
		summary.Average = math.Round(float64(sum)/float64(summary.Count)*10) / 10
	}
	return summary
}

// AddReport records a user's report and bumps the report counter in one transaction.
// The review is hidden once the counter reaches hideThreshold.
// Returns the new report count and visibility.
func (r *reviewRepository) AddReport(ctx context.Context, report *models.ReviewReport, hideThreshold int) (int, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"INSERT INTO review_reports (review_id, user_id, reason) VALUES (?, ?, ?)",
		report.ReviewID, report.UserID, report.Reason,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, false, fmt.Errorf("review already reported: %w", models.ErrConflict)
		}
		return 0, false, fmt.Errorf("failed to create review report: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get last insert id: %w", err)
	}
	report.ID = int(id)

	// MySQL evaluates SET left to right, so is_visible sees the incremented count
	_, err = tx.ExecContext(ctx, `
		UPDATE course_reviews
		SET report_count = report_count + 1,
			is_visible = IF(report_count >= ?, FALSE, is_visible)
		WHERE id = ?
	`, hideThreshold, report.ReviewID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to update report count: %w", err)
	}

	var (
		count   int
		visible bool
	)
	err = tx.QueryRowContext(ctx, "SELECT report_count, is_visible FROM course_reviews WHERE id = ?", report.ReviewID).
		Scan(&count, &visible)
	if err == sql.ErrNoRows {
		return 0, false, fmt.Errorf("review %w", models.ErrNotFound)
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read report count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return count, visible, nil
}

// ListReports retrieves the reports of a review, oldest first
func (r *reviewRepository) ListReports(ctx context.Context, reviewID int) ([]models.ReviewReport, error) {
	query := "SELECT id, review_id, user_id, reason, created_at FROM review_reports WHERE review_id = ? ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to query review reports: %w", err)
	}
	defer rows.Close()

	reports := []models.ReviewReport{}
	for rows.Next() {
		var report models.ReviewReport
		if err := rows.Scan(&report.ID, &report.ReviewID, &report.UserID, &report.Reason, &report.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review report: %w", err)
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return reports, nil
}

// ClearReports deletes the reports of a review and resets its counter
func (r *reviewRepository) ClearReports(ctx context.Context, reviewID int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM review_reports WHERE review_id = ?", reviewID); err != nil {
		return fmt.Errorf("failed to delete review reports: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE course_reviews SET report_count = 0 WHERE id = ?", reviewID); err != nil {
		return fmt.Errorf("failed to reset report count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
