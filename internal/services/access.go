package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/coursehub/backend/internal/models"
)

// activeEnrollment returns the enrollment granting the user access to the course
func activeEnrollment(ctx context.Context, repo EnrollmentRepository, userID, courseID int) (*models.Enrollment, error) {
	enrollment, err := repo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotEnrolled
		}
		return nil, err
	}
	if enrollment.Status != models.EnrollmentStatusActive {
		return nil, fmt.Errorf("enrollment revoked: %w", models.ErrNotEnrolled)
	}
	return enrollment, nil
}

// requireCourseAccess allows course editors and actively enrolled students
func requireCourseAccess(ctx context.Context, repo EnrollmentRepository, viewer models.Viewer, course *models.Course) error {
	if viewer.CanEdit(course) {
		return nil
	}
	if !viewer.Authenticated() {
		return models.ErrUnauthorized
	}
	_, err := activeEnrollment(ctx, repo, viewer.UserID, course.ID)
	return err
}

// requireEditor allows the course instructor and admins
func requireEditor(viewer models.Viewer, course *models.Course) error {
	if !viewer.CanEdit(course) {
		return fmt.Errorf("course belongs to another instructor: %w", models.ErrForbidden)
	}
	return nil
}
