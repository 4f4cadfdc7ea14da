package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/coursehub/backend/internal/cache"
	"github.com/coursehub/backend/internal/config"
	"github.com/coursehub/backend/internal/database"
	"github.com/coursehub/backend/internal/logger"
	"github.com/coursehub/backend/internal/repositories"
	"github.com/coursehub/backend/internal/services"
	"github.com/coursehub/backend/internal/tasks"
	"github.com/coursehub/backend/internal/worker"
	"github.com/go-redis/redis/v8"
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

	logger.Logger.Info("Starting CourseHub worker")

	// Connect to database
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	// Progress recompute may enqueue follow-up tasks
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()
	enqueuer := tasks.NewEnqueuer(asynqClient, logger.Logger)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	userTokenRepo := repositories.NewUserTokenRepository(db)
	courseRepo := repositories.NewCourseRepository(db)
	chapterRepo := repositories.NewChapterRepository(db)
	lessonRepo := repositories.NewLessonRepository(db)
	enrollmentRepo := repositories.NewEnrollmentRepository(db)
	progressRepo := repositories.NewProgressRepository(db)
	assignmentRepo := repositories.NewAssignmentRepository(db)
	submissionRepo := repositories.NewSubmissionRepository(db)
	reviewRepo := repositories.NewReviewRepository(db)

	// Initialize maintenance services
	catalogService := services.NewCatalogService(
		courseRepo, chapterRepo, lessonRepo, userRepo, enrollmentRepo, reviewRepo,
		cache.NewCatalogCache(rdb, cfg.Cache.CatalogTTL), logger.Logger,
	)
	progressService := services.NewProgressService(
		progressRepo, courseRepo, chapterRepo, lessonRepo, enrollmentRepo, enqueuer, logger.Logger,
		cfg.Learning.CompletionThreshold,
	)

	// Create Asynq server
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Queues: tasks.Queues(),
		Logger: logger.Logger.Sugar(),
	})

	// Create worker instance
	w := worker.NewWorker(
		logger.Logger,
		worker.Repositories{
			Users:       userRepo,
			Courses:     courseRepo,
			Submissions: submissionRepo,
			Assignments: assignmentRepo,
			Reviews:     reviewRepo,
			Tokens:      userTokenRepo,
		},
		catalogService,
		progressService,
		worker.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From),
		cfg.PublicURL,
		cfg.JWT.RefreshTokenExpiry,
	)

	// Register task handlers
	mux := asynq.NewServeMux()
	w.Register(mux)

	// Start worker
	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Logger.Fatal("Failed to start worker", zap.Error(err))
		}
	}()

	logger.Logger.Info("Worker started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down worker...")
	srv.Shutdown()
	logger.Logger.Info("Worker exited")
}
