package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/coursehub/backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuizRepository is the interface that wraps methods for Quiz table data access
type QuizRepository interface {
	// Method Upsert creates or replaces the quiz of a lesson and sets its ID.
	Upsert(ctx context.Context, quiz *models.Quiz) error
	// Method GetByLessonID retrieves the quiz of a lesson.
	//
	// If the lesson has no quiz, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByLessonID(ctx context.Context, lessonID int) (*models.Quiz, error)
}

// QuizAttemptRepository is the interface that wraps methods for QuizAttempt table data access
type QuizAttemptRepository interface {
	// Method Create stores an attempt and sets its ID.
	//
	// A second graded attempt of a user on a quiz is rejected with an error wrapping models.ErrConflict.
	Create(ctx context.Context, attempt *models.QuizAttempt) error
	// Method ListByUserAndLesson retrieves attempts newest first.
	ListByUserAndLesson(ctx context.Context, userID, lessonID int) ([]models.QuizAttempt, error)
	GetGraded(ctx context.Context, userID, quizID int) (*models.QuizAttempt, error)
	DeleteGraded(ctx context.Context, userID, quizID int) error
}

// LessonCompleter completes quiz lessons on a passing graded attempt
type LessonCompleter interface {
	CompleteQuizLesson(ctx context.Context, userID int, lesson *models.Lesson) (*models.CourseProgress, error)
}

// quizService implements quiz authoring, delivery and scoring
type quizService struct {
	quizRepo       QuizRepository
	attemptRepo    QuizAttemptRepository
	lessonRepo     LessonRepository
	courseRepo     CourseRepository
	enrollmentRepo EnrollmentRepository
	progress       LessonCompleter
	logger         *zap.Logger
	shuffle        func(n int, swap func(i, j int))
}

// NewQuizService creates a new quiz service
func NewQuizService(
	quizRepo QuizRepository,
	attemptRepo QuizAttemptRepository,
	lessonRepo LessonRepository,
	courseRepo CourseRepository,
	enrollmentRepo EnrollmentRepository,
	progress LessonCompleter,
	logger *zap.Logger,
) *quizService {
	return &quizService{
		quizRepo:       quizRepo,
		attemptRepo:    attemptRepo,
		lessonRepo:     lessonRepo,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		progress:       progress,
		logger:         logger,
		shuffle:        rand.Shuffle,
	}
}

func (s *quizService) lessonWithCourse(ctx context.Context, lessonID int) (*models.Lesson, *models.Course, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, nil, err
	}
	if lesson.Kind != models.LessonKindQuiz {
		return nil, nil, fmt.Errorf("lesson has no quiz: %w", models.ErrNotFound)
	}
	course, err := s.courseRepo.GetByID(ctx, lesson.CourseID)
	if err != nil {
		return nil, nil, err
	}
	return lesson, course, nil
}

// UpsertQuiz creates or replaces the quiz of a quiz lesson. Missing question and option IDs are generated.
func (s *quizService) UpsertQuiz(ctx context.Context, viewer models.Viewer, lessonID int, req *models.UpsertQuizRequest) (*models.Quiz, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	course, err := s.courseRepo.GetByID(ctx, lesson.CourseID)
	if err != nil {
		return nil, err
	}
	if err := requireEditor(viewer, course); err != nil {
		return nil, err
	}
	if lesson.Kind != models.LessonKindQuiz {
		return nil, models.NewValidationError("lessonId", "lesson kind must be quiz")
	}

	questions, err := normalizeQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	passingScore := req.PassingScore
	if passingScore == 0 {
		passingScore = models.DefaultPassingScore
	}

	quiz := &models.Quiz{
		LessonID:         lesson.ID,
		Title:            strings.TrimSpace(req.Title),
		PassingScore:     passingScore,
		TimeLimitSeconds: req.TimeLimitSeconds,
		Shuffle:          req.Shuffle,
		Questions:        questions,
	}
	if err := s.quizRepo.Upsert(ctx, quiz); err != nil {
		return nil, err
	}

	s.logger.Info("quiz saved", zap.Int("lessonId", lesson.ID), zap.Int("quizId", quiz.ID), zap.Int("questions", len(questions)))
	return quiz, nil
}

// normalizeQuestions assigns IDs and default points, and checks the option rules of each question kind
func normalizeQuestions(in []models.Question) ([]models.Question, error) {
	if len(in) == 0 {
		return nil, models.NewValidationError("questions", "quiz needs at least one question")
	}

	out := make([]models.Question, len(in))
	questionIDs := make(map[string]bool, len(in))
	for i, q := range in {
		field := fmt.Sprintf("questions[%d]", i)

		if q.ID == "" {
			q.ID = newShortID()
		}
		if questionIDs[q.ID] {
			return nil, models.NewValidationError(field+".id", "question ids must be unique")
		}
		questionIDs[q.ID] = true

		if q.Points == 0 {
			q.Points = 1
		}

		options := make([]models.QuestionOption, len(q.Options))
		optionIDs := make(map[string]bool, len(q.Options))
		correct := 0
		for j, o := range q.Options {
			if o.ID == "" {
				o.ID = newShortID()
			}
			if optionIDs[o.ID] {
				return nil, models.NewValidationError(fmt.Sprintf("%s.options[%d].id", field, j), "option ids must be unique within a question")
			}
			optionIDs[o.ID] = true
			if o.Correct {
				correct++
			}
			options[j] = o
		}
		q.Options = options

		switch q.Kind {
		case models.QuestionKindTrueFalse:
			if len(q.Options) != 2 {
				return nil, models.NewValidationError(field+".options", "true/false questions need exactly 2 options")
			}
			if correct != 1 {
				return nil, models.NewValidationError(field+".options", "exactly one option must be correct")
			}
		case models.QuestionKindSingle:
			if len(q.Options) < 2 {
				return nil, models.NewValidationError(field+".options", "questions need at least 2 options")
			}
			if correct != 1 {
				return nil, models.NewValidationError(field+".options", "exactly one option must be correct")
			}
		case models.QuestionKindMultiple:
			if len(q.Options) < 2 {
				return nil, models.NewValidationError(field+".options", "questions need at least 2 options")
			}
			if correct < 1 {
				return nil, models.NewValidationError(field+".options", "at least one option must be correct")
			}
		default:
			return nil, models.NewValidationError(field+".kind", "kind must be one of single, multiple, true_false")
		}

		out[i] = q
	}
	return out, nil
}

func newShortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// GetQuiz returns the quiz of a lesson. Students get it without correct flags and explanations,
// shuffled when the quiz asks for it; editors get the full quiz.
func (s *quizService) GetQuiz(ctx context.Context, viewer models.Viewer, lessonID int) (*models.Quiz, error) {
	lesson, course, err := s.lessonWithCourse(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if err := requireCourseAccess(ctx, s.enrollmentRepo, viewer, course); err != nil {
		return nil, err
	}

	quiz, err := s.quizRepo.GetByLessonID(ctx, lesson.ID)
	if err != nil {
		return nil, err
	}
	if viewer.CanEdit(course) {
		return quiz, nil
	}

	return s.studentView(quiz), nil
}

func (s *quizService) studentView(quiz *models.Quiz) *models.Quiz {
	view := *quiz
	view.Questions = make([]models.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		q.Explanation = ""
		options := make([]models.QuestionOption, len(q.Options))
		for j, o := range q.Options {
			options[j] = models.QuestionOption{ID: o.ID, Text: o.Text}
		}
		if quiz.Shuffle {
			s.shuffle(len(options), func(a, b int) { options[a], options[b] = options[b], options[a] })
		}
		q.Options = options
		view.Questions[i] = q
	}
	if quiz.Shuffle {
		s.shuffle(len(view.Questions), func(a, b int) {
			view.Questions[a], view.Questions[b] = view.Questions[b], view.Questions[a]
		})
	}
	return &view
}

// SubmitQuiz scores an attempt. Practice attempts are unlimited and never touch progress;
// a student gets one graded attempt, and passing it completes the lesson.
func (s *quizService) SubmitQuiz(ctx context.Context, viewer models.Viewer, lessonID int, req *models.SubmitQuizRequest) (*models.QuizAttempt, error) {
	lesson, course, err := s.lessonWithCourse(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	switch req.Mode {
	case models.AttemptModePractice:
		if err := requireCourseAccess(ctx, s.enrollmentRepo, viewer, course); err != nil {
			return nil, err
		}
	case models.AttemptModeGraded:
		if _, err := activeEnrollment(ctx, s.enrollmentRepo, viewer.UserID, course.ID); err != nil {
			return nil, err
		}
	default:
		return nil, models.NewValidationError("mode", "mode must be practice or graded")
	}

	quiz, err := s.quizRepo.GetByLessonID(ctx, lesson.ID)
	if err != nil {
		return nil, err
	}

	if req.Mode == models.AttemptModeGraded {
		graded, err := s.attemptRepo.GetGraded(ctx, viewer.UserID, quiz.ID)
		if err == nil {
			// A passed attempt whose completion failed earlier completes the lesson now
			if graded.Passed {
				if _, err := s.progress.CompleteQuizLesson(ctx, viewer.UserID, lesson); err != nil {
					return nil, fmt.Errorf("failed to complete quiz lesson: %w", err)
				}
			}
			return nil, fmt.Errorf("graded attempt already submitted: %w", models.ErrConflict)
		}
		if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
	}

	results, score, err := ScoreAttempt(quiz, req.Answers)
	if err != nil {
		return nil, err
	}

	maxScore := quiz.MaxScore()
	percent := percentOf(score, maxScore)

	attempt := &models.QuizAttempt{
		QuizID:   quiz.ID,
		LessonID: lesson.ID,
		UserID:   viewer.UserID,
		Mode:     req.Mode,
		Answers:  req.Answers,
		Results:  results,
		Score:    score,
		MaxScore: maxScore,
		Percent:  percent,
		Passed:   percent >= quiz.PassingScore,
	}
	if attempt.Answers == nil {
		attempt.Answers = []models.Answer{}
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		return nil, err
	}

	if attempt.Mode == models.AttemptModeGraded {
		s.logger.Info("graded quiz attempt",
			zap.Int("userId", viewer.UserID),
			zap.Int("quizId", quiz.ID),
			zap.Int("percent", percent),
			zap.Bool("passed", attempt.Passed),
		)
		if attempt.Passed {
			if _, err := s.progress.CompleteQuizLesson(ctx, viewer.UserID, lesson); err != nil {
				return nil, fmt.Errorf("failed to complete quiz lesson: %w", err)
			}
		}
	}

	return attempt, nil
}

// ScoreAttempt grades answers against a quiz. Unanswered questions score zero.
// Single and true/false questions are correct when exactly the correct option is chosen,
// multiple choice questions when the chosen set equals the correct set.
func ScoreAttempt(quiz *models.Quiz, answers []models.Answer) ([]models.QuestionResult, int, error) {
	chosen := make(map[string][]string, len(answers))
	questions := make(map[string]*models.Question, len(quiz.Questions))
	for i := range quiz.Questions {
		questions[quiz.Questions[i].ID] = &quiz.Questions[i]
	}

	for i, a := range answers {
		q, ok := questions[a.QuestionID]
		if !ok {
			return nil, 0, models.NewValidationError(fmt.Sprintf("answers[%d].questionId", i), "unknown question")
		}
		if _, dup := chosen[a.QuestionID]; dup {
			return nil, 0, models.NewValidationError(fmt.Sprintf("answers[%d].questionId", i), "question answered twice")
		}
		for _, optionID := range a.OptionIDs {
			if !slices.ContainsFunc(q.Options, func(o models.QuestionOption) bool { return o.ID == optionID }) {
				return nil, 0, models.NewValidationError(fmt.Sprintf("answers[%d].optionIds", i), "unknown option")
			}
		}
		chosen[a.QuestionID] = a.OptionIDs
	}

	results := make([]models.QuestionResult, 0, len(quiz.Questions))
	score := 0
	for _, q := range quiz.Questions {
		correctIDs := make([]string, 0, 1)
		for _, o := range q.Options {
			if o.Correct {
				correctIDs = append(correctIDs, o.ID)
			}
		}

		picked := uniqueSorted(chosen[q.ID])
		var correct bool
		switch q.Kind {
		case models.QuestionKindMultiple:
			correct = len(picked) > 0 && slices.Equal(picked, uniqueSorted(correctIDs))
		default:
			correct = len(picked) == 1 && len(correctIDs) == 1 && picked[0] == correctIDs[0]
		}

		result := models.QuestionResult{
			QuestionID:       q.ID,
			Correct:          correct,
			Points:           q.Points,
			CorrectOptionIDs: correctIDs,
			Explanation:      q.Explanation,
		}
		if correct {
			result.EarnedPoints = q.Points
			score += q.Points
		}
		results = append(results, result)
	}

	return results, score, nil
}

func uniqueSorted(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// ListAttempts returns the attempt history of the viewer on a quiz lesson
func (s *quizService) ListAttempts(ctx context.Context, viewer models.Viewer, lessonID int) (*models.AttemptHistory, error) {
	lesson, course, err := s.lessonWithCourse(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if err := requireCourseAccess(ctx, s.enrollmentRepo, viewer, course); err != nil {
		return nil, err
	}

	attempts, err := s.attemptRepo.ListByUserAndLesson(ctx, viewer.UserID, lesson.ID)
	if err != nil {
		return nil, err
	}

	return BuildAttemptHistory(attempts), nil
}

// BuildAttemptHistory summarises attempts that are ordered newest first
func BuildAttemptHistory(attempts []models.QuizAttempt) *models.AttemptHistory {
	history := &models.AttemptHistory{Attempts: attempts}
	if history.Attempts == nil {
		history.Attempts = []models.QuizAttempt{}
	}
	for i := range history.Attempts {
		a := &history.Attempts[i]
		switch a.Mode {
		case models.AttemptModePractice:
			history.PracticeCount++
			if a.Percent > history.BestPracticePercent {
				history.BestPracticePercent = a.Percent
			}
		case models.AttemptModeGraded:
			if history.Graded == nil {
				history.Graded = a
			}
		}
	}
	return history
}

// ResetGradedAttempt removes the graded attempt of a student so it can be retaken.
// Lesson completion already earned is kept.
func (s *quizService) ResetGradedAttempt(ctx context.Context, userID, lessonID int) error {
	quiz, err := s.quizRepo.GetByLessonID(ctx, lessonID)
	if err != nil {
		return err
	}
	if err := s.attemptRepo.DeleteGraded(ctx, userID, quiz.ID); err != nil {
		return err
	}

	s.logger.Info("graded quiz attempt reset", zap.Int("userId", userID), zap.Int("quizId", quiz.ID))
	return nil
}
