package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/coursehub/backend/docs"
	"github.com/coursehub/backend/internal/auth/middleware"
	"github.com/coursehub/backend/internal/auth/service"
	"github.com/coursehub/backend/internal/cache"
	"github.com/coursehub/backend/internal/config"
	"github.com/coursehub/backend/internal/database"
	"github.com/coursehub/backend/internal/handlers"
	"github.com/coursehub/backend/internal/logger"
	loggerMiddleware "github.com/coursehub/backend/internal/logger/middleware"
	"github.com/coursehub/backend/internal/middlewares"
	"github.com/coursehub/backend/internal/models"
	"github.com/coursehub/backend/internal/repositories"
	"github.com/coursehub/backend/internal/services"
	"github.com/coursehub/backend/internal/tasks"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title CourseHub API
// @version 1.0
// @description Course marketplace: catalog, enrollments, learning progress, quizzes, assignments and reviews

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token
// @securityDefinitions.apikey ApiKeyHeader
// @in header
// @name X-API-Key
// @description Shared key of the payment provider callback
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

	logger.Logger.Info("Starting CourseHub API")

	// Connect to database
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := database.MigrateUp(db, database.MigrationsPath()); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

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

	// Create Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	enqueuer := tasks.NewEnqueuer(asynqClient, logger.Logger)
	catalogCache := cache.NewCatalogCache(rdb, cfg.Cache.CatalogTTL)

	// Initialize JWT token generator
	tokenGenerator := service.NewTokenGenerator(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	userTokenRepo := repositories.NewUserTokenRepository(db)
	statsRepo := repositories.NewStatsRepository(db)
	courseRepo := repositories.NewCourseRepository(db)
	chapterRepo := repositories.NewChapterRepository(db)
	lessonRepo := repositories.NewLessonRepository(db)
	enrollmentRepo := repositories.NewEnrollmentRepository(db)
	progressRepo := repositories.NewProgressRepository(db)
	quizRepo := repositories.NewQuizRepository(db)
	attemptRepo := repositories.NewQuizAttemptRepository(db)
	assignmentRepo := repositories.NewAssignmentRepository(db)
	submissionRepo := repositories.NewSubmissionRepository(db)
	reviewRepo := repositories.NewReviewRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, userTokenRepo, tokenGenerator, logger.Logger)
	adminService := services.NewAdminService(userRepo, userTokenRepo, statsRepo, logger.Logger)
	catalogService := services.NewCatalogService(courseRepo, chapterRepo, lessonRepo, userRepo, enrollmentRepo, reviewRepo, catalogCache, logger.Logger)
	authoringService := services.NewAuthoringService(courseRepo, chapterRepo, lessonRepo, userRepo, enrollmentRepo, catalogCache, logger.Logger)
	enrollmentService := services.NewEnrollmentService(enrollmentRepo, courseRepo, userRepo, enqueuer, logger.Logger)
	progressService := services.NewProgressService(
		progressRepo, courseRepo, chapterRepo, lessonRepo, enrollmentRepo, enqueuer, logger.Logger,
		cfg.Learning.CompletionThreshold,
	)
	quizService := services.NewQuizService(quizRepo, attemptRepo, lessonRepo, courseRepo, enrollmentRepo, progressService, logger.Logger)
	assignmentService := services.NewAssignmentService(assignmentRepo, submissionRepo, courseRepo, lessonRepo, enrollmentRepo, enqueuer, logger.Logger)
	reviewService := services.NewReviewService(
		reviewRepo, courseRepo, enrollmentRepo, catalogCache, enqueuer, logger.Logger,
		cfg.Reviews.AutoApprove, cfg.Reviews.ReportHideThreshold,
	)

	// Initialize handlers
	routes := []interface {
		RegisterRoutes(r chi.Router, mw handlers.Middlewares)
	}{
		handlers.NewAuthHandler(authService, logger.Logger, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry),
		handlers.NewCatalogHandler(catalogService, logger.Logger),
		handlers.NewAuthoringHandler(authoringService, logger.Logger),
		handlers.NewEnrollmentHandler(enrollmentService, logger.Logger),
		handlers.NewProgressHandler(progressService, logger.Logger),
		handlers.NewQuizHandler(quizService, logger.Logger),
		handlers.NewAssignmentHandler(assignmentService, logger.Logger),
		handlers.NewReviewHandler(reviewService, logger.Logger),
		handlers.NewAdminHandler(adminService, logger.Logger),
	}

	// Initialize auth middleware
	mw := handlers.Middlewares{
		Auth:         middleware.AuthMiddleware(tokenGenerator),
		OptionalAuth: middleware.OptionalAuthMiddleware(tokenGenerator),
		Instructor:   middleware.RoleMiddleware(tokenGenerator, int(models.RoleInstructor)),
		Admin:        middleware.RoleMiddleware(tokenGenerator, int(models.RoleAdmin)),
		APIKey:       middleware.APIKeyMiddleware(cfg.APIKey),
	}

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middlewares.RequestIDMiddleware)
	r.Use(loggerMiddleware.LoggerMiddleware(logger.Logger))
	r.Use(middlewares.RecoveryMiddleware(logger.Logger))
	r.Use(middlewares.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middlewares.RequestSizeLimitMiddleware(1 << 20)) // 1MB

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))
	r.Get("/healthz", healthHandler(db, rdb))

	// Scope router to /api/v1
	r.Route("/api/v1", func(r chi.Router) {
		for _, h := range routes {
			h.RegisterRoutes(r, mw)
		}
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// healthHandler reports whether MySQL and Redis answer
func healthHandler(db *sql.DB, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := `{"status":"ok"}`
		if err := db.PingContext(ctx); err != nil {
			status, body = http.StatusServiceUnavailable, `{"status":"database unavailable"}`
		} else if err := rdb.Ping(ctx).Err(); err != nil {
			status, body = http.StatusServiceUnavailable, `{"status":"redis unavailable"}`
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}
