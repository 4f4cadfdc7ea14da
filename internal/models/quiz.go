package models

import "time"

// QuestionKind represents how a question is answered
type QuestionKind string

const (
	QuestionKindSingle    QuestionKind = "single"
	QuestionKindMultiple  QuestionKind = "multiple"
	QuestionKindTrueFalse QuestionKind = "true_false"
)

// AttemptMode distinguishes repeatable practice runs from the graded attempt
type AttemptMode string

const (
	AttemptModePractice AttemptMode = "practice"
	AttemptModeGraded   AttemptMode = "graded"
)

// DefaultPassingScore is used when a quiz does not set one
const DefaultPassingScore = 70

// QuestionOption is a selectable answer of a question
type QuestionOption struct {
	ID      string `json:"id"`
	Text    string `json:"text" validate:"required"`
	Correct bool   `json:"correct,omitempty"`
}

// Question is a quiz question stored inside the quiz document
type Question struct {
	ID          string           `json:"id"`
	Prompt      string           `json:"prompt" validate:"required"`
	Kind        QuestionKind     `json:"kind" validate:"required,oneof=single multiple true_false"`
	Options     []QuestionOption `json:"options" validate:"required,min=2,dive"`
	Points      int              `json:"points" validate:"gte=0"`
	Explanation string           `json:"explanation,omitempty"`
}

// Quiz belongs to a lesson of kind quiz
type Quiz struct {
	ID               int        `json:"id"`
	LessonID         int        `json:"lessonId"`
	Title            string     `json:"title"`
	PassingScore     int        `json:"passingScore"`
	TimeLimitSeconds int        `json:"timeLimitSeconds"`
	Shuffle          bool       `json:"shuffle"`
	Questions        []Question `json:"questions"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// MaxScore sums question points
func (q *Quiz) MaxScore() int {
	total := 0
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}

// UpsertQuizRequest represents a request to create or replace a lesson quiz
type UpsertQuizRequest struct {
	Title            string     `json:"title" validate:"required,max=200"`
	PassingScore     int        `json:"passingScore" validate:"gte=0,lte=100"`
	TimeLimitSeconds int        `json:"timeLimitSeconds" validate:"gte=0"`
	Shuffle          bool       `json:"shuffle"`
	Questions        []Question `json:"questions" validate:"required,min=1,dive"`
}

// Answer holds the options chosen for one question
type Answer struct {
	QuestionID string   `json:"questionId" validate:"required"`
	OptionIDs  []string `json:"optionIds"`
}

// SubmitQuizRequest represents a quiz submission
type SubmitQuizRequest struct {
	Mode    AttemptMode `json:"mode" validate:"required,oneof=practice graded"`
	Answers []Answer    `json:"answers" validate:"dive"`
}

// QuestionResult is the per-question outcome of an attempt
type QuestionResult struct {
	QuestionID       string   `json:"questionId"`
	Correct          bool     `json:"correct"`
	EarnedPoints     int      `json:"earnedPoints"`
	Points           int      `json:"points"`
	CorrectOptionIDs []string `json:"correctOptionIds"`
	Explanation      string   `json:"explanation,omitempty"`
}

// QuizAttempt is a scored submission of a quiz
type QuizAttempt struct {
	ID        int              `json:"id"`
	QuizID    int              `json:"quizId"`
	LessonID  int              `json:"lessonId"`
	UserID    int              `json:"userId"`
	Mode      AttemptMode      `json:"mode"`
	Answers   []Answer         `json:"answers"`
	Results   []QuestionResult `json:"results,omitempty"`
	Score     int              `json:"score"`
	MaxScore  int              `json:"maxScore"`
	Percent   int              `json:"percent"`
	Passed    bool             `json:"passed"`
	CreatedAt time.Time        `json:"createdAt"`
}

// AttemptHistory summarises attempts of a user on one quiz
type AttemptHistory struct {
	Attempts            []QuizAttempt `json:"attempts"`
	PracticeCount       int           `json:"practiceCount"`
	BestPracticePercent int           `json:"bestPracticePercent"`
	Graded              *QuizAttempt  `json:"graded,omitempty"`
}
