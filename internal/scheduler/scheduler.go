// Package scheduler enqueues periodic maintenance tasks on cron specs
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/coursehub/backend/internal/tasks"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TaskEnqueuer puts a task on the queue
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, taskType string, payload any) error
}

// Job is a task enqueued on a cron spec
type Job struct {
	Spec     string
	TaskType string
	// RunOnStart enqueues the task once when the scheduler starts
	RunOnStart bool
}

// Scheduler manages periodic task enqueueing
type Scheduler struct {
	cron     *cron.Cron
	enqueuer TaskEnqueuer
	logger   *zap.Logger
	jobs     []Job
	timeout  time.Duration
}

// NewScheduler validates the job specs and creates a scheduler
func NewScheduler(enqueuer TaskEnqueuer, logger *zap.Logger, jobs []Job) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(),
		enqueuer: enqueuer,
		logger:   logger,
		jobs:     jobs,
		timeout:  10 * time.Second,
	}

	for _, job := range jobs {
		schedule, err := cron.ParseStandard(job.Spec)
		if err != nil {
			return nil, fmt.Errorf("invalid cron spec %q for %s: %w", job.Spec, job.TaskType, err)
		}
		s.cron.Schedule(schedule, cron.FuncJob(func() {
			s.enqueue(job.TaskType)
		}))
	}

	return s, nil
}

// Start enqueues the run-on-start jobs and starts the cron loop
func (s *Scheduler) Start() {
	for _, job := range s.jobs {
		if job.RunOnStart {
			s.enqueue(job.TaskType)
		}
	}

	s.cron.Start()
	for _, entry := range s.cron.Entries() {
		s.logger.Debug("job scheduled", zap.Int("entry", int(entry.ID)), zap.Time("next_run", entry.Next))
	}
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop stops the cron loop and waits for running jobs to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) enqueue(taskType string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.enqueuer.Enqueue(ctx, taskType, nil); err != nil {
		s.logger.Error("Failed to enqueue periodic task", zap.String("type", taskType), zap.Error(err))
		return
	}
	s.logger.Info("Enqueued periodic task", zap.String("type", taskType))
}

// DefaultJobs builds the maintenance job list from cron specs
func DefaultJobs(catalogWarmup, progressRecompute, ratingSnapshot, tokenCleanup string) []Job {
	return []Job{
		{Spec: catalogWarmup, TaskType: tasks.TypeCatalogWarmup, RunOnStart: true},
		{Spec: ratingSnapshot, TaskType: tasks.TypeRatingSnapshot, RunOnStart: true},
		{Spec: progressRecompute, TaskType: tasks.TypeProgressRecompute},
		{Spec: tokenCleanup, TaskType: tasks.TypeTokenCleanup},
	}
}
