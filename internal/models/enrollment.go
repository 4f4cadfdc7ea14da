package models

import "time"

// EnrollmentSource tells how an enrollment was created
type EnrollmentSource string

const (
	EnrollmentSourceFree    EnrollmentSource = "free"
	EnrollmentSourcePayment EnrollmentSource = "payment"
	EnrollmentSourceAdmin   EnrollmentSource = "admin"
)

// EnrollmentStatus represents whether an enrollment grants access
type EnrollmentStatus string

const (
	EnrollmentStatusActive  EnrollmentStatus = "active"
	EnrollmentStatusRevoked EnrollmentStatus = "revoked"
)

// Enrollment links a student to a course
type Enrollment struct {
	ID              int              `json:"id"`
	UserID          int              `json:"userId"`
	CourseID        int              `json:"courseId"`
	Source          EnrollmentSource `json:"source"`
	PaymentRef      string           `json:"paymentRef,omitempty"`
	AmountPaid      int              `json:"amountPaid"`
	Status          EnrollmentStatus `json:"status"`
	ProgressPercent int              `json:"progressPercent"`
	CompletedAt     *time.Time       `json:"completedAt,omitempty"`
	LastLessonID    *int             `json:"lastLessonId,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// EnrollmentListItem represents an enrollment with its course card in "my courses"
type EnrollmentListItem struct {
	EnrollmentID    int        `json:"enrollmentId"`
	CourseID        int        `json:"courseId"`
	CourseSlug      string     `json:"courseSlug"`
	CourseTitle     string     `json:"courseTitle"`
	ThumbnailURL    string     `json:"thumbnailUrl"`
	ProgressPercent int        `json:"progressPercent"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	LastLessonID    *int       `json:"lastLessonId,omitempty"`
	EnrolledAt      time.Time  `json:"enrolledAt"`
}

// ConfirmPaymentRequest is sent by the payment callback once a charge succeeded
type ConfirmPaymentRequest struct {
	UserID     int    `json:"userId" validate:"required,gt=0"`
	CourseID   int    `json:"courseId" validate:"required,gt=0"`
	PaymentRef string `json:"paymentRef" validate:"required,max=128"`
	Amount     int    `json:"amount" validate:"gte=0"`
}

// GrantEnrollmentRequest represents an admin enrollment grant
type GrantEnrollmentRequest struct {
	UserID   int `json:"userId" validate:"required,gt=0"`
	CourseID int `json:"courseId" validate:"required,gt=0"`
}
