package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tempo/internal/api"
	"github.com/phrazzld/tempo/internal/config"
	"github.com/phrazzld/tempo/internal/domain/schedule"
	"github.com/phrazzld/tempo/internal/events"
	"github.com/phrazzld/tempo/internal/onboarding"
	"github.com/phrazzld/tempo/internal/oracle"
	"github.com/phrazzld/tempo/internal/platform/gemini"
	"github.com/phrazzld/tempo/internal/platform/postgres"
	"github.com/phrazzld/tempo/internal/scheduling"
	"github.com/phrazzld/tempo/internal/service"
	"github.com/phrazzld/tempo/internal/service/auth"
	"github.com/phrazzld/tempo/internal/store"
	"github.com/spf13/afero"
)

// backends are the stateful dependencies of the application. serve builds
// them from Postgres and Gemini; tests substitute in-memory versions.
type backends struct {
	tasks    store.TaskStore
	profiles store.ProfileStore
	uow      service.UnitOfWork
	client   oracle.Client
	db       api.Pinger
	fs       afero.Fs
	closer   func() error
}

// application holds the wired services behind the HTTP server.
type application struct {
	config   *config.Config
	logger   *slog.Logger
	tasks    service.TaskService
	profiles service.ProfileService
	jwt      auth.JWTService
	db       api.Pinger
	closer   func() error
}

// newApplication wires the scheduling engine, oracle and services on top of
// the given backends.
func newApplication(
	cfg *config.Config,
	logger *slog.Logger,
	b backends,
	opts ...service.TaskServiceOption,
) (*application, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if b.fs == nil {
		b.fs = afero.NewOsFs()
	}

	prompts, err := oracle.LoadPrompts(b.fs, cfg.LLM.PromptDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}
	adapter, err := oracle.NewAdapter(b.client, logger,
		oracle.WithPrompts(prompts),
		oracle.WithTimeout(cfg.LLM.Timeout()))
	if err != nil {
		return nil, fmt.Errorf("failed to create oracle adapter: %w", err)
	}

	engine := schedule.NewServiceWithParams(schedule.NewParams(schedule.ParamsConfig{
		HorizonDays:  cfg.Scheduling.HorizonDays,
		GraceMinutes: cfg.Scheduling.GraceMinutes,
	}))

	planner, err := scheduling.NewController(engine, adapter, logger,
		scheduling.WithPeriodSuggestion(cfg.Scheduling.SuggestPeriod))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduling controller: %w", err)
	}

	loc, err := cfg.Scheduling.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid scheduling timezone: %w", err)
	}
	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(events.NewLogHandler(logger))

	opts = append([]service.TaskServiceOption{
		service.WithLocation(loc),
		service.WithEventEmitter(emitter),
	}, opts...)

	tasks, err := service.NewTaskService(b.tasks, b.profiles, b.uow, planner, engine, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	catalogue, err := onboarding.Load(b.fs, cfg.Scheduling.QuestionsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load onboarding questions: %w", err)
	}

	profiles, err := service.NewProfileService(b.profiles, adapter, engine, catalogue, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile service: %w", err)
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	return &application{
		config:   cfg,
		logger:   logger,
		tasks:    tasks,
		profiles: profiles,
		jwt:      jwtService,
		db:       b.db,
		closer:   b.closer,
	}, nil
}

// postgresBackends opens the database and the Gemini client.
func postgresBackends(ctx context.Context, cfg *config.Config, logger *slog.Logger) (backends, error) {
	db, err := postgres.Open(ctx, cfg.Database.URL, logger)
	if err != nil {
		return backends{}, err
	}

	client, err := gemini.NewClient(ctx, logger, cfg.LLM)
	if err != nil {
		_ = db.Close()
		return backends{}, fmt.Errorf("failed to create gemini client: %w", err)
	}

	tasks := postgres.NewPostgresTaskStore(db, logger)
	profiles := postgres.NewPostgresProfileStore(db, logger)

	return backends{
		tasks:    tasks,
		profiles: profiles,
		uow:      service.NewSQLUnitOfWork(db, tasks, profiles),
		client:   client,
		db:       db,
		fs:       afero.NewOsFs(),
		closer:   closeDB(db),
	}, nil
}

func closeDB(db *sql.DB) func() error {
	return func() error { return db.Close() }
}

// cleanup releases the backends.
func (app *application) cleanup() {
	if app.closer == nil {
		return
	}
	if err := app.closer(); err != nil {
		app.logger.Error("failed to release resources", slog.String("error", err.Error()))
	}
}
