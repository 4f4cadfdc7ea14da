// Package tasks defines background task types, their payloads and the asynq enqueuer
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Task types processed by the worker
const (
	TypeEnrollmentEmail       = "email:enrollment"
	TypeCourseCompletedEmail  = "email:course_completed"
	TypeSubmissionGradedEmail = "email:submission_graded"
	TypeReviewModeratedEmail  = "email:review_moderated"

	TypeRatingSnapshot    = "maintenance:rating_snapshot"
	TypeCatalogWarmup     = "maintenance:catalog_warmup"
	TypeProgressRecompute = "maintenance:progress_recompute"
	TypeTokenCleanup      = "maintenance:token_cleanup"
)

// Queue names. Emails go to the immediate queue, periodic jobs to the default one.
const (
	QueueImmediate = "immediate"
	QueueDefault   = "default"
)

// Queues returns the queue priorities for the worker server
func Queues() map[string]int {
	return map[string]int{
		QueueImmediate: 5,
		QueueDefault:   1,
	}
}

// EnrollmentPayload is sent when a student gets access to a course
type EnrollmentPayload struct {
	UserID   int `json:"userId"`
	CourseID int `json:"courseId"`
}

// CourseCompletedPayload is sent when an enrollment reaches 100%
type CourseCompletedPayload struct {
	UserID   int `json:"userId"`
	CourseID int `json:"courseId"`
}

// SubmissionGradedPayload is sent when an instructor grades or returns a submission
type SubmissionGradedPayload struct {
	SubmissionID int `json:"submissionId"`
}

// ReviewModeratedPayload is sent to the review author after a moderation action
type ReviewModeratedPayload struct {
	ReviewID int    `json:"reviewId"`
	Action   string `json:"action"`
}

// ProgressRecomputePayload limits a recompute to one course when CourseID is set
type ProgressRecomputePayload struct {
	CourseID *int `json:"courseId,omitempty"`
}

// NewTask builds an asynq task with a JSON payload and the queue matching its type
func NewTask(taskType string, payload any) (*asynq.Task, []asynq.Option, error) {
	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal %s payload: %w", taskType, err)
		}
	}

	queue := QueueDefault
	if strings.HasPrefix(taskType, "email:") {
		queue = QueueImmediate
	}

	return asynq.NewTask(taskType, data), []asynq.Option{asynq.Queue(queue), asynq.MaxRetry(5)}, nil
}

// Decode unmarshals the payload of a task
func Decode(t *asynq.Task, v any) error {
	if err := json.Unmarshal(t.Payload(), v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", t.Type(), err)
	}
	return nil
}

// Enqueuer puts tasks on asynq queues
type Enqueuer struct {
	client *asynq.Client
	logger *zap.Logger
}

// NewEnqueuer creates a new enqueuer
func NewEnqueuer(client *asynq.Client, logger *zap.Logger) *Enqueuer {
	return &Enqueuer{
		client: client,
		logger: logger,
	}
}

// Enqueue marshals the payload and enqueues a task of the given type
func (e *Enqueuer) Enqueue(ctx context.Context, taskType string, payload any) error {
	task, opts, err := NewTask(taskType, payload)
	if err != nil {
		return err
	}

	info, err := e.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", taskType, err)
	}

	e.logger.Debug("task enqueued",
		zap.String("type", taskType),
		zap.String("id", info.ID),
		zap.String("queue", info.Queue),
	)
	return nil
}
