package models

import "time"

// ReviewStatus is the derived moderation state of a review
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// ModerationAction is an admin action on a review
type ModerationAction string

const (
	ModerationApprove      ModerationAction = "approve"
	ModerationReject       ModerationAction = "reject"
	ModerationHide         ModerationAction = "hide"
	ModerationUnhide       ModerationAction = "unhide"
	ModerationClearReports ModerationAction = "clear_reports"
	ModerationDelete       ModerationAction = "delete"
)

// CourseReview is a student-authored review of a course
type CourseReview struct {
	ID             int        `json:"id"`
	CourseID       int        `json:"courseId"`
	CourseTitle    string     `json:"courseTitle,omitempty"`
	UserID         int        `json:"userId"`
	UserName       string     `json:"userName,omitempty"`
	Rating         int        `json:"rating"`
	Comment        string     `json:"comment"`
	IsApproved     bool       `json:"isApproved"`
	IsVisible      bool       `json:"isVisible"`
	ReportCount    int        `json:"reportCount"`
	ModerationNote string     `json:"moderationNote,omitempty"`
	ModeratedAt    *time.Time `json:"moderatedAt,omitempty"`
	ModeratedBy    *int       `json:"moderatedBy,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Status derives the moderation state. Only approve and reject stamp ModeratedAt,
// so an unapproved review with a moderation timestamp has been rejected.
func (r *CourseReview) Status() ReviewStatus {
	switch {
	case r.IsApproved:
		return ReviewStatusApproved
	case r.ModeratedAt != nil:
		return ReviewStatusRejected
	default:
		return ReviewStatusPending
	}
}

// PubliclyListed reports whether the review appears on the course page and in ratings
func (r *CourseReview) PubliclyListed() bool {
	return r.IsApproved && r.IsVisible
}

// ReviewReport is one user's report of a review
type ReviewReport struct {
	ID        int       `json:"id"`
	ReviewID  int       `json:"reviewId"`
	UserID    int       `json:"userId"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// PublicReview is a review as shown on the course page
type PublicReview struct {
	ID        int       `json:"id"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReviewFilter holds admin review listing parameters
type ReviewFilter struct {
	Status   ReviewStatus
	Visible  *bool
	Reported bool
	CourseID *int
	Rating   *int
	Search   string
	Page     int
	Count    int
}

// ReviewDetail is an admin view of a review with its reports
type ReviewDetail struct {
	Review  CourseReview   `json:"review"`
	Status  ReviewStatus   `json:"status"`
	Reports []ReviewReport `json:"reports"`
}

// CreateReviewRequest represents a student review
type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// UpdateReviewRequest represents an edit of the student's own review
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

// ReportReviewRequest represents a report of an abusive review
type ReportReviewRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ModerateReviewRequest carries an optional moderation note
type ModerateReviewRequest struct {
	Note string `json:"note" validate:"max=500"`
}

// BulkModerateRequest applies one action to many reviews
type BulkModerateRequest struct {
	IDs    []int            `json:"ids" validate:"required,min=1,max=100,dive,gt=0"`
	Action ModerationAction `json:"action" validate:"required,oneof=approve reject hide unhide clear_reports delete"`
	Note   string           `json:"note" validate:"max=500"`
}

// BulkModerateResult reports per-review outcomes of a bulk action
type BulkModerateResult struct {
	Succeeded []int          `json:"succeeded"`
	Failed    map[int]string `json:"failed,omitempty"`
}

// ReportReviewResult is returned after a report was recorded
type ReportReviewResult struct {
	ReportCount int  `json:"reportCount"`
	IsVisible   bool `json:"isVisible"`
}
