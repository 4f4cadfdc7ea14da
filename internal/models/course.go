package models

import "time"

// CourseLevel represents the difficulty of a course
type CourseLevel string

const (
	CourseLevelBeginner     CourseLevel = "beginner"
	CourseLevelIntermediate CourseLevel = "intermediate"
	CourseLevelAdvanced     CourseLevel = "advanced"
	CourseLevelAllLevels    CourseLevel = "all"
)

// CourseStatus represents the publication state of a course
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "draft"
	CourseStatusPublished CourseStatus = "published"
	CourseStatusArchived  CourseStatus = "archived"
)

// Course represents a course in the catalog
type Course struct {
	ID           int          `json:"id"`
	Slug         string       `json:"slug"`
	Title        string       `json:"title"`
	Subtitle     string       `json:"subtitle"`
	Description  string       `json:"description"`
	Category     string       `json:"category"`
	Level        CourseLevel  `json:"level"`
	Language     string       `json:"language"`
	Price        int          `json:"price"` // minor currency units
	ThumbnailURL string       `json:"thumbnailUrl"`
	InstructorID int          `json:"instructorId"`
	Status       CourseStatus `json:"status"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// IsFree reports whether the course can be enrolled in without payment
func (c *Course) IsFree() bool {
	return c.Price == 0
}

// RatingSummary aggregates approved and visible reviews of a course
type RatingSummary struct {
	Average   float64     `json:"average"`
	Count     int         `json:"count"`
	Histogram map[int]int `json:"histogram,omitempty"` // stars -> count
}

// CourseCard represents a course in catalog list responses
type CourseCard struct {
	ID              int          `json:"id"`
	Slug            string       `json:"slug"`
	Title           string       `json:"title"`
	Subtitle        string       `json:"subtitle"`
	Category        string       `json:"category"`
	Level           CourseLevel  `json:"level"`
	Price           int          `json:"price"`
	ThumbnailURL    string       `json:"thumbnailUrl"`
	InstructorID    int          `json:"instructorId"`
	InstructorName  string       `json:"instructorName"`
	RatingAverage   float64      `json:"ratingAverage"`
	RatingCount     int          `json:"ratingCount"`
	EnrollmentCount int          `json:"enrollmentCount"`
	Status          CourseStatus `json:"status,omitempty"`
}

// CourseSort is the ordering of catalog listings
type CourseSort string

const (
	CourseSortNewest    CourseSort = "newest"
	CourseSortPopular   CourseSort = "popular"
	CourseSortRating    CourseSort = "rating"
	CourseSortPriceAsc  CourseSort = "price_asc"
	CourseSortPriceDesc CourseSort = "price_desc"
)

// PriceFilter restricts catalog listings to free or paid courses
type PriceFilter string

const (
	PriceFilterAny  PriceFilter = ""
	PriceFilterFree PriceFilter = "free"
	PriceFilterPaid PriceFilter = "paid"
)

// CourseFilter holds catalog listing parameters
type CourseFilter struct {
	Category     string
	Level        CourseLevel
	Search       string
	Price        PriceFilter
	InstructorID *int
	Status       CourseStatus // empty means published only, unless AnyStatus is set
	AnyStatus    bool
	Sort         CourseSort
	Page         int
	Count        int
}

// CourseOutlineLesson represents a lesson inside a course detail outline
type CourseOutlineLesson struct {
	ID              int        `json:"id"`
	Slug            string     `json:"slug"`
	Title           string     `json:"title"`
	Kind            LessonKind `json:"kind"`
	DurationSeconds int        `json:"durationSeconds"`
	Position        int        `json:"position"`
	IsPreview       bool       `json:"isPreview"`
	Content         string     `json:"content,omitempty"`
	VideoURL        string     `json:"videoUrl,omitempty"`
}

// CourseOutlineChapter represents a chapter with its lessons in a course detail
type CourseOutlineChapter struct {
	ID       int                   `json:"id"`
	Title    string                `json:"title"`
	Position int                   `json:"position"`
	Lessons  []CourseOutlineLesson `json:"lessons"`
}

// CourseDetailResponse is the public course page payload
type CourseDetailResponse struct {
	Course          Course                 `json:"course"`
	InstructorName  string                 `json:"instructorName"`
	Chapters        []CourseOutlineChapter `json:"chapters"`
	Rating          RatingSummary          `json:"rating"`
	EnrollmentCount int                    `json:"enrollmentCount"`
	TotalLessons    int                    `json:"totalLessons"`
	TotalDuration   int                    `json:"totalDurationSeconds"`
	IsEnrolled      bool                   `json:"isEnrolled"`
}

// CategoryCount represents a catalog category with its course count
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// CreateCourseRequest represents a request to create a course
type CreateCourseRequest struct {
	Slug         string      `json:"slug" validate:"omitempty,slug,max=120"`
	Title        string      `json:"title" validate:"required,max=200"`
	Subtitle     string      `json:"subtitle" validate:"max=255"`
	Description  string      `json:"description"`
	Category     string      `json:"category" validate:"required,max=80"`
	Level        CourseLevel `json:"level" validate:"required,oneof=beginner intermediate advanced all"`
	Language     string      `json:"language" validate:"omitempty,max=16"`
	Price        int         `json:"price" validate:"gte=0"`
	ThumbnailURL string      `json:"thumbnailUrl" validate:"omitempty,url"`
	InstructorID int         `json:"instructorId" validate:"gte=0"` // admin only
}

// UpdateCourseRequest represents a request to update a course (partial update)
type UpdateCourseRequest struct {
	Slug         string      `json:"slug,omitempty" validate:"omitempty,slug,max=120"`
	Title        string      `json:"title,omitempty" validate:"omitempty,max=200"`
	Subtitle     *string     `json:"subtitle,omitempty" validate:"omitempty,max=255"`
	Description  *string     `json:"description,omitempty"`
	Category     string      `json:"category,omitempty" validate:"omitempty,max=80"`
	Level        CourseLevel `json:"level,omitempty" validate:"omitempty,oneof=beginner intermediate advanced all"`
	Language     string      `json:"language,omitempty" validate:"omitempty,max=16"`
	Price        *int        `json:"price,omitempty" validate:"omitempty,gte=0"`
	ThumbnailURL *string     `json:"thumbnailUrl,omitempty" validate:"omitempty,url"`
}
