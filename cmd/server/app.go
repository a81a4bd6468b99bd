package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/vocabweave-api/internal/config"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/domain/srs"
	"github.com/phrazzld/vocabweave-api/internal/events"
	"github.com/phrazzld/vocabweave-api/internal/platform/gemini"
	"github.com/phrazzld/vocabweave-api/internal/platform/metrics"
	"github.com/phrazzld/vocabweave-api/internal/platform/postgres"
	"github.com/phrazzld/vocabweave-api/internal/service"
	"github.com/phrazzld/vocabweave-api/internal/service/auth"
	"github.com/phrazzld/vocabweave-api/internal/service/progress"
	"github.com/phrazzld/vocabweave-api/internal/service/review"
	"github.com/phrazzld/vocabweave-api/internal/task"
)

// application holds the shared dependencies so they can be wired once and
// cleaned up together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	metrics *metrics.Metrics

	jwtService        auth.JWTService
	userService       service.UserService
	vocabularyService service.VocabularyService
	generationService service.GenerationService
	reviewService     review.ReviewService
	progressService   progress.ProgressService

	eventEmitter *events.InMemoryEventEmitter
	taskRunner   *task.TaskRunner
}

// newApplication wires stores, services and the background task runner.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		db:      db,
		metrics: metrics.New(),
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	userStore := postgres.NewPostgresUserStore(db, cfg.Auth.BCryptCost, logger)
	itemStore := postgres.NewPostgresItemStore(db, logger)
	stateStore := postgres.NewPostgresItemStateStore(db, logger)
	reviewLogStore := postgres.NewPostgresReviewLogStore(db, logger)
	requestStore := postgres.NewPostgresGenerationRequestStore(db, logger)
	taskStore := postgres.NewPostgresTaskStore(db, logger)

	params, err := srs.NewParams(srs.ParamsConfig{MasteryThreshold: cfg.SRS.MasteryThreshold})
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler parameters: %w", err)
	}
	scheduler, err := srs.NewServiceWithParams(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create SRS service: %w", err)
	}

	app.userService = service.NewUserService(userStore, auth.NewBcryptVerifier(), db, logger)

	app.vocabularyService, err = service.NewVocabularyService(db, itemStore, stateStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create vocabulary service: %w", err)
	}

	app.reviewService = review.NewReviewService(db, itemStore, stateStore, reviewLogStore, scheduler, logger,
		review.WithRecorder(app.metrics))
	app.progressService = progress.NewProgressService(itemStore, stateStore, scheduler, time.Now, logger)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.generationService, err = service.NewGenerationService(db, requestStore, app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation service: %w", err)
	}

	generator, err := gemini.NewGeminiGenerator(ctx, logger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
	}
	logger.Info("LLM generator initialized", "model", cfg.LLM.ModelName)

	factory := task.NewVocabularyGenerationTaskFactory(
		app.generationService,
		&countingGenerator{next: generator, metrics: app.metrics},
		app.vocabularyService,
		logger,
	)

	app.taskRunner = task.NewTaskRunner(taskStore, factory, task.TaskRunnerConfig{
		WorkerCount:  cfg.Task.WorkerCount,
		QueueSize:    cfg.Task.QueueSize,
		StuckTaskAge: time.Duration(cfg.Task.StuckTaskAgeMinutes) * time.Minute,
	}, logger)
	app.taskRunner.SetObserver(app.metrics)
	app.taskRunner.SetErrorHandler(func(t task.Task, err error) {
		logger.Error("background task failed",
			"task_id", t.ID(),
			"task_type", t.Type(),
			"error", err)
	})

	app.eventEmitter.Subscribe(events.TypeVocabularyGeneration,
		task.NewTaskFactoryEventHandler(factory, app.taskRunner, logger))

	if err := app.taskRunner.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

// Run serves HTTP until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops background work and closes the database.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		if err := app.taskRunner.Stop(); err != nil {
			app.logger.Warn("task runner stop", "error", err)
		}
	}

	if app.db != nil {
		closeDatabase(app.db, app.logger)
	}

	app.logger.Info("application shutdown completed")
}

// countingGenerator reports how many items each generation produced.
type countingGenerator struct {
	next    task.Generator
	metrics *metrics.Metrics
}

func (g *countingGenerator) GenerateItems(
	ctx context.Context,
	theme string,
	category domain.Category,
) ([]*domain.VocabularyItem, error) {
	items, err := g.next.GenerateItems(ctx, theme, category)
	if err != nil {
		return nil, err
	}
	g.metrics.ItemsGenerated(len(items))
	return items, nil
}
