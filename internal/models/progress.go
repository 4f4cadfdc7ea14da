package models

import "time"

// LessonProgress is the per-student, per-lesson completion record
type LessonProgress struct {
	ID          int        `json:"id"`
	UserID      int        `json:"userId"`
	CourseID    int        `json:"courseId"`
	ChapterID   int        `json:"chapterId"`
	LessonID    int        `json:"lessonId"`
	Percent     int        `json:"percent"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// LessonProgressItem is a lesson inside a course progress roll-up
type LessonProgressItem struct {
	LessonID  int        `json:"lessonId"`
	Slug      string     `json:"slug"`
	Title     string     `json:"title"`
	Kind      LessonKind `json:"kind"`
	Position  int        `json:"position"`
	Percent   int        `json:"percent"`
	Completed bool       `json:"completed"`
}

// ChapterProgress aggregates lesson progress of a chapter
type ChapterProgress struct {
	ChapterID        int                  `json:"chapterId"`
	Title            string               `json:"title"`
	Position         int                  `json:"position"`
	CompletedLessons int                  `json:"completedLessons"`
	TotalLessons     int                  `json:"totalLessons"`
	Percent          int                  `json:"percent"`
	Completed        bool                 `json:"completed"`
	Lessons          []LessonProgressItem `json:"lessons"`
}

// CourseProgress aggregates lesson progress of a whole course
type CourseProgress struct {
	CourseID         int               `json:"courseId"`
	CourseSlug       string            `json:"courseSlug"`
	CompletedLessons int               `json:"completedLessons"`
	TotalLessons     int               `json:"totalLessons"`
	Percent          int               `json:"percent"`
	Completed        bool              `json:"completed"`
	CompletedAt      *time.Time        `json:"completedAt,omitempty"`
	NextLessonID     *int              `json:"nextLessonId,omitempty"`
	LastLessonID     *int              `json:"lastLessonId,omitempty"`
	Chapters         []ChapterProgress `json:"chapters"`
}

// UpdateProgressRequest reports how much of a lesson was consumed
type UpdateProgressRequest struct {
	Percent int `json:"percent" validate:"gte=0,lte=100"`
}
