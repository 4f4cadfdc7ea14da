package models

// LessonKind represents the content type of a lesson
type LessonKind string

const (
	LessonKindVideo   LessonKind = "video"
	LessonKindArticle LessonKind = "article"
	LessonKindQuiz    LessonKind = "quiz"
)

// Lesson represents an ordered lesson inside a chapter
type Lesson struct {
	ID              int        `json:"id"`
	ChapterID       int        `json:"chapterId"`
	CourseID        int        `json:"courseId"`
	Slug            string     `json:"slug"`
	Title           string     `json:"title"`
	Kind            LessonKind `json:"kind"`
	Content         string     `json:"content"`
	VideoURL        string     `json:"videoUrl"`
	DurationSeconds int        `json:"durationSeconds"`
	Position        int        `json:"position"`
	IsPreview       bool       `json:"isPreview"`
}

// LessonRef locates a lesson in course order; used by progress roll-ups
type LessonRef struct {
	LessonID        int
	ChapterID       int
	ChapterPosition int
	Position        int
	Title           string
	Slug            string
	Kind            LessonKind
}

// CreateLessonRequest represents a request to create a lesson
type CreateLessonRequest struct {
	ChapterID       int        `json:"chapterId" validate:"required,gt=0"`
	Slug            string     `json:"slug" validate:"omitempty,slug,max=120"`
	Title           string     `json:"title" validate:"required,max=200"`
	Kind            LessonKind `json:"kind" validate:"required,oneof=video article quiz"`
	Content         string     `json:"content"`
	VideoURL        string     `json:"videoUrl" validate:"omitempty,url"`
	DurationSeconds int        `json:"durationSeconds" validate:"gte=0"`
	IsPreview       bool       `json:"isPreview"`
}

// UpdateLessonRequest represents a request to update a lesson (partial update)
type UpdateLessonRequest struct {
	Slug            string     `json:"slug,omitempty" validate:"omitempty,slug,max=120"`
	Title           string     `json:"title,omitempty" validate:"omitempty,max=200"`
	Kind            LessonKind `json:"kind,omitempty" validate:"omitempty,oneof=video article quiz"`
	Content         *string    `json:"content,omitempty"`
	VideoURL        *string    `json:"videoUrl,omitempty" validate:"omitempty,url"`
	DurationSeconds *int       `json:"durationSeconds,omitempty" validate:"omitempty,gte=0"`
	IsPreview       *bool      `json:"isPreview,omitempty"`
}
