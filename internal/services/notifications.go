package services

import (
	"context"

	"go.uber.org/zap"
)

// TaskEnqueuer is the interface that wraps background task scheduling
type TaskEnqueuer interface {
	// Method Enqueue schedules a background task.
	//
	// "taskType" parameter is one of the task type constants of the tasks package.
	// "payload" parameter is marshalled to JSON as the task payload.
	//
	// If the task cannot be enqueued, the error will be returned.
	Enqueue(ctx context.Context, taskType string, payload any) error
}

// notify enqueues a task and only logs a failure; a notification never fails the request that caused it
func notify(ctx context.Context, enqueuer TaskEnqueuer, logger *zap.Logger, taskType string, payload any) {
	if enqueuer == nil {
		return
	}
	if err := enqueuer.Enqueue(ctx, taskType, payload); err != nil {
		logger.Warn("failed to enqueue task", zap.String("type", taskType), zap.Error(err))
	}
}
