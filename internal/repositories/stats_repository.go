package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/coursehub/backend/internal/models"
)

type statsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new repository for admin dashboard counters
func NewStatsRepository(db *sql.DB) *statsRepository {
	return &statsRepository{
		db: db,
	}
}

// Dashboard collects the admin overview counters.
// since is the start of the recent enrollments window.
func (r *statsRepository) Dashboard(ctx context.Context, since time.Time) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{
		UsersByRole:     map[string]int{},
		CoursesByStatus: map[string]int{},
	}

	rows, err := r.db.QueryContext(ctx, "SELECT role, COUNT(*) FROM users GROUP BY role")
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	for rows.Next() {
		var (
			role  models.Role
			count int
		)
		if err := rows.Scan(&role, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan user count: %w", err)
		}
		stats.UsersByRole[role.String()] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM courses GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count courses: %w", err)
	}
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan course count: %w", err)
		}
		stats.CoursesByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	rows.Close()

	counters := []struct {
		name  string
		query string
		args  []any
		dest  *int
	}{
		{"enrollments", "SELECT COUNT(*) FROM enrollments", nil, &stats.TotalEnrollments},
		{"recent enrollments", "SELECT COUNT(*) FROM enrollments WHERE created_at >= ?", []any{since}, &stats.RecentEnrollments},
		{"pending reviews", "SELECT COUNT(*) FROM course_reviews WHERE is_approved = FALSE AND moderated_at IS NULL", nil, &stats.PendingReviews},
		{"reported reviews", "SELECT COUNT(*) FROM course_reviews WHERE report_count > 0", nil, &stats.ReportedReviews},
		{"ungraded submissions", "SELECT COUNT(*) FROM submissions WHERE status = ?", []any{models.SubmissionStatusSubmitted}, &stats.UngradedSubmissions},
	}
	for _, c := range counters {
		if err := r.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.name, err)
		}
	}

	return stats, nil
}
