package models

// Chapter represents an ordered section of a course
type Chapter struct {
	ID       int    `json:"id"`
	CourseID int    `json:"courseId"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

// CreateChapterRequest represents a request to create a chapter
type CreateChapterRequest struct {
	CourseID int    `json:"courseId" validate:"required,gt=0"`
	Title    string `json:"title" validate:"required,max=200"`
}

// UpdateChapterRequest represents a request to rename a chapter
type UpdateChapterRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// ReorderRequest carries the full ordered list of child IDs
type ReorderRequest struct {
	IDs []int `json:"ids" validate:"required,min=1,unique,dive,gt=0"`
}
