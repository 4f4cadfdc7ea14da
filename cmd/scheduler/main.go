package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/coursehub/backend/internal/config"
	"github.com/coursehub/backend/internal/logger"
	"github.com/coursehub/backend/internal/scheduler"
	"github.com/coursehub/backend/internal/tasks"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting CourseHub scheduler")

	// Create Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	jobs := scheduler.DefaultJobs(
		cfg.Cron.CatalogWarmup,
		cfg.Cron.ProgressRecompute,
		cfg.Cron.RatingSnapshot,
		cfg.Cron.TokenCleanup,
	)
	s, err := scheduler.NewScheduler(tasks.NewEnqueuer(asynqClient, logger.Logger), logger.Logger, jobs)
	if err != nil {
		logger.Logger.Fatal("Invalid cron configuration", zap.Error(err))
	}

	s.Start()
	logger.Logger.Info("Scheduler started", zap.Int("jobs", len(jobs)))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down scheduler...")
	s.Stop()
	logger.Logger.Info("Scheduler exited")
}
