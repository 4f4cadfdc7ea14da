package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/coursehub/backend/internal/config"
	"github.com/coursehub/backend/internal/database"
	"github.com/coursehub/backend/internal/logger"
	"github.com/coursehub/backend/internal/repositories"
	"github.com/coursehub/backend/internal/services"
	"github.com/coursehub/backend/internal/tasks"
	"github.com/hibiken/asynq"
	"golang.org/x/term"
)

func main() {
	c := &cli{
		readPassword: term.ReadPassword,
		stdinFD:      int(os.Stdin.Fd()),
		connect:      connect,
	}

	if err := newRootCmd(c).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// connect wires the command dependencies from the environment configuration
func connect(c *cli) (func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(cfg.Logging.Level); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return nil, err
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	userRepo := repositories.NewUserRepository(db)
	c.accounts = services.NewAdminService(
		userRepo,
		repositories.NewUserTokenRepository(db),
		repositories.NewStatsRepository(db),
		logger.Logger,
	)
	c.progress = services.NewProgressService(
		repositories.NewProgressRepository(db),
		repositories.NewCourseRepository(db),
		repositories.NewChapterRepository(db),
		repositories.NewLessonRepository(db),
		repositories.NewEnrollmentRepository(db),
		tasks.NewEnqueuer(asynqClient, logger.Logger),
		logger.Logger,
		cfg.Learning.CompletionThreshold,
	)
	c.migrations = dbMigrator{db: db, source: database.MigrationsPath()}

	return func() {
		asynqClient.Close()
		db.Close()
		logger.Sync()
	}, nil
}

// dbMigrator runs migrations against the configured database
type dbMigrator struct {
	db     *sql.DB
	source string
}

func (m dbMigrator) Up() error {
	return database.MigrateUp(m.db, m.source)
}

func (m dbMigrator) Down(steps int) error {
	return database.MigrateDown(m.db, m.source, steps)
}

func (m dbMigrator) Version() (uint, bool, error) {
	return database.MigrationVersion(m.db, m.source)
}
