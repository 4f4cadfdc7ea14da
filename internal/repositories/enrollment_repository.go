package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/coursehub/backend/internal/models"
)

type enrollmentRepository struct {
	db *sql.DB
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db *sql.DB) *enrollmentRepository {
	return &enrollmentRepository{
		db: db,
	}
}

const enrollmentColumns = `id, user_id, course_id, source, payment_ref, amount_paid, status,
	progress_percent, completed_at, last_lesson_id, created_at`

func scanEnrollment(row interface{ Scan(...any) error }) (*models.Enrollment, error) {
	var (
		enrollment   models.Enrollment
		paymentRef   sql.NullString
		completedAt  sql.NullTime
		lastLessonID sql.NullInt64
	)
	err := row.Scan(
		&enrollment.ID,
		&enrollment.UserID,
		&enrollment.CourseID,
		&enrollment.Source,
		&paymentRef,
		&enrollment.AmountPaid,
		&enrollment.Status,
		&enrollment.ProgressPercent,
		&completedAt,
		&lastLessonID,
		&enrollment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	enrollment.PaymentRef = paymentRef.String
	if completedAt.Valid {
		enrollment.CompletedAt = &completedAt.Time
	}
	if lastLessonID.Valid {
		id := int(lastLessonID.Int64)
		enrollment.LastLessonID = &id
	}
	return &enrollment, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a new enrollment and sets its ID
// A second enrollment for the same user and course, or a reused payment reference, is a conflict
func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	query := `
		INSERT INTO enrollments (user_id, course_id, source, payment_ref, amount_paid, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		enrollment.UserID,
		enrollment.CourseID,
		enrollment.Source,
		nullString(enrollment.PaymentRef),
		enrollment.AmountPaid,
		enrollment.Status,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("enrollment already exists: %w", models.ErrConflict)
		}
		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	enrollment.ID = int(id)

	return nil
}

// GetByUserAndCourse retrieves the enrollment of a user in a course regardless of status
func (r *enrollmentRepository) GetByUserAndCourse(ctx context.Context, userID, courseID int) (*models.Enrollment, error) {
	query := "SELECT " + enrollmentColumns + " FROM enrollments WHERE user_id = ? AND course_id = ? LIMIT 1"

	enrollment, err := scanEnrollment(r.db.QueryRowContext(ctx, query, userID, courseID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("enrollment %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	return enrollment, nil
}

// GetByPaymentRef retrieves the enrollment created for a payment reference
func (r *enrollmentRepository) GetByPaymentRef(ctx context.Context, paymentRef string) (*models.Enrollment, error) {
	query := "SELECT " + enrollmentColumns + " FROM enrollments WHERE payment_ref = ? LIMIT 1"

	enrollment, err := scanEnrollment(r.db.QueryRowContext(ctx, query, paymentRef))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("enrollment %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment by payment ref: %w", err)
	}

	return enrollment, nil
}

// Reactivate restores a revoked enrollment with a new source and payment details
func (r *enrollmentRepository) Reactivate(ctx context.Context, enrollment *models.Enrollment) error {
	query := `
		UPDATE enrollments
		SET status = ?, source = ?, payment_ref = COALESCE(?, payment_ref), amount_paid = amount_paid + ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		models.EnrollmentStatusActive,
		enrollment.Source,
		nullString(enrollment.PaymentRef),
		enrollment.AmountPaid,
		enrollment.ID,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("payment reference already used: %w", models.ErrConflict)
		}
		return fmt.Errorf("failed to reactivate enrollment: %w", err)
	}

	enrollment.Status = models.EnrollmentStatusActive
	return nil
}

// UpdateStatus changes the status of an enrollment
func (r *enrollmentRepository) UpdateStatus(ctx context.Context, id int, status models.EnrollmentStatus) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE enrollments SET status = ? WHERE id = ?", status, id); err != nil {
		return fmt.Errorf("failed to update enrollment status: %w", err)
	}
	return nil
}

// UpdateProgress stores the rolled-up course progress of an enrollment
func (r *enrollmentRepository) UpdateProgress(ctx context.Context, id, percent int, lastLessonID *int, completedAt *time.Time) error {
	query := `
		UPDATE enrollments
		SET progress_percent = ?, last_lesson_id = ?, completed_at = ?
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, percent, lastLessonID, completedAt, id); err != nil {
		return fmt.Errorf("failed to update enrollment progress: %w", err)
	}
	return nil
}

// ListByUser retrieves the active enrollments of a user with course cards, most recent first
func (r *enrollmentRepository) ListByUser(ctx context.Context, userID int) ([]models.EnrollmentListItem, error) {
	query := `
		SELECT e.id, c.id, c.slug, c.title, c.thumbnail_url, e.progress_percent, e.completed_at, e.last_lesson_id, e.created_at
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = ? AND e.status = ?
		ORDER BY e.created_at DESC, e.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, models.EnrollmentStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	items := []models.EnrollmentListItem{}
	for rows.Next() {
		var (
			item         models.EnrollmentListItem
			completedAt  sql.NullTime
			lastLessonID sql.NullInt64
		)
		err := rows.Scan(
			&item.EnrollmentID,
			&item.CourseID,
			&item.CourseSlug,
			&item.CourseTitle,
			&item.ThumbnailURL,
			&item.ProgressPercent,
			&completedAt,
			&lastLessonID,
			&item.EnrolledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		if completedAt.Valid {
			item.CompletedAt = &completedAt.Time
		}
		if lastLessonID.Valid {
			id := int(lastLessonID.Int64)
			item.LastLessonID = &id
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, nil
}

// CountByCourse returns the number of enrollments of a course in any status
func (r *enrollmentRepository) CountByCourse(ctx context.Context, courseID int) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM enrollments WHERE course_id = ?", courseID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count enrollments: %w", err)
	}
	return total, nil
}

// CountActiveByCourse returns the number of active enrollments of a course
func (r *enrollmentRepository) CountActiveByCourse(ctx context.Context, courseID int) (int, error) {
	var total int
	query := "SELECT COUNT(*) FROM enrollments WHERE course_id = ? AND status = ?"
	if err := r.db.QueryRowContext(ctx, query, courseID, models.EnrollmentStatusActive).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count enrollments: %w", err)
	}
	return total, nil
}

// ListActive retrieves active enrollments, restricted to one course when courseID is set
func (r *enrollmentRepository) ListActive(ctx context.Context, courseID *int) ([]models.Enrollment, error) {
	query := "SELECT " + enrollmentColumns + " FROM enrollments WHERE status = ?"
	args := []any{models.EnrollmentStatusActive}
	if courseID != nil {
		query += " AND course_id = ?"
		args = append(args, *courseID)
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := []models.Enrollment{}
	for rows.Next() {
		enrollment, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, *enrollment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return enrollments, nil
}
