package models

import "time"

// SubmissionStatus represents the grading state of a submission
type SubmissionStatus string

const (
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	SubmissionStatusGraded    SubmissionStatus = "graded"
	SubmissionStatusReturned  SubmissionStatus = "returned"
)

// Assignment is a graded task attached to a course
type Assignment struct {
	ID           int        `json:"id"`
	CourseID     int        `json:"courseId"`
	LessonID     *int       `json:"lessonId,omitempty"`
	Title        string     `json:"title"`
	Instructions string     `json:"instructions"`
	MaxScore     int        `json:"maxScore"`
	DueAt        *time.Time `json:"dueAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Submission is a student's answer to an assignment
type Submission struct {
	ID            int              `json:"id"`
	AssignmentID  int              `json:"assignmentId"`
	UserID        int              `json:"userId"`
	UserName      string           `json:"userName,omitempty"`
	Content       string           `json:"content"`
	AttachmentURL string           `json:"attachmentUrl,omitempty"`
	Status        SubmissionStatus `json:"status"`
	Score         *int             `json:"score,omitempty"`
	Feedback      string           `json:"feedback,omitempty"`
	Late          bool             `json:"late"`
	SubmittedAt   time.Time        `json:"submittedAt"`
	GradedAt      *time.Time       `json:"gradedAt,omitempty"`
	GradedBy      *int             `json:"gradedBy,omitempty"`
}

// AssignmentWithSubmission is a student's view of an assignment
type AssignmentWithSubmission struct {
	Assignment
	Submission *Submission `json:"submission,omitempty"`
}

// CreateAssignmentRequest represents a request to create an assignment
type CreateAssignmentRequest struct {
	CourseID     int        `json:"courseId" validate:"required,gt=0"`
	LessonID     *int       `json:"lessonId,omitempty" validate:"omitempty,gt=0"`
	Title        string     `json:"title" validate:"required,max=200"`
	Instructions string     `json:"instructions"`
	MaxScore     int        `json:"maxScore" validate:"required,gt=0"`
	DueAt        *time.Time `json:"dueAt,omitempty"`
}

// UpdateAssignmentRequest represents a request to update an assignment (partial update)
type UpdateAssignmentRequest struct {
	Title        string     `json:"title,omitempty" validate:"omitempty,max=200"`
	Instructions *string    `json:"instructions,omitempty"`
	MaxScore     *int       `json:"maxScore,omitempty" validate:"omitempty,gt=0"`
	DueAt        *time.Time `json:"dueAt,omitempty"`
}

// SubmitAssignmentRequest represents a student submission
type SubmitAssignmentRequest struct {
	Content       string `json:"content" validate:"required_without=AttachmentURL"`
	AttachmentURL string `json:"attachmentUrl" validate:"omitempty,url"`
}

// GradeSubmissionRequest represents an instructor grade
type GradeSubmissionRequest struct {
	Score    *int   `json:"score" validate:"required,gte=0"`
	Feedback string `json:"feedback"`
}

// ReturnSubmissionRequest sends a submission back for rework
type ReturnSubmissionRequest struct {
	Feedback string `json:"feedback" validate:"required"`
}
