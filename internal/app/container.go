// Package app wires configuration, storage, and handlers into a running
// application. Waypoint runs either against PostgreSQL with Redis and
// RabbitMQ, or in local mode against a single SQLite file with in-process
// substitutes.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	calendarApp "github.com/waypointhq/waypoint/internal/calendar/application"
	"github.com/waypointhq/waypoint/internal/calendar/infrastructure/caldav"
	googleCalendar "github.com/waypointhq/waypoint/internal/calendar/infrastructure/google"
	identityOAuth "github.com/waypointhq/waypoint/internal/identity/application/oauth"
	identitySettings "github.com/waypointhq/waypoint/internal/identity/application/settings"
	identityDomain "github.com/waypointhq/waypoint/internal/identity/domain"
	identityPersistence "github.com/waypointhq/waypoint/internal/identity/infrastructure/persistence"
	"github.com/waypointhq/waypoint/internal/planning/application/commands"
	"github.com/waypointhq/waypoint/internal/planning/application/queries"
	"github.com/waypointhq/waypoint/internal/planning/application/services"
	planningDomain "github.com/waypointhq/waypoint/internal/planning/domain"
	planningPersistence "github.com/waypointhq/waypoint/internal/planning/infrastructure/persistence"
	sharedApplication "github.com/waypointhq/waypoint/internal/shared/application"
	"github.com/waypointhq/waypoint/internal/shared/infrastructure/crypto"
	"github.com/waypointhq/waypoint/internal/shared/infrastructure/eventbus"
	"github.com/waypointhq/waypoint/internal/shared/infrastructure/locks"
	"github.com/waypointhq/waypoint/internal/shared/infrastructure/migrations"
	"github.com/waypointhq/waypoint/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/waypointhq/waypoint/internal/shared/infrastructure/persistence"
	"github.com/waypointhq/waypoint/pkg/config"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	UserID uuid.UUID

	// Storage
	DB          *pgxpool.Pool
	SQLiteDB    *sql.DB
	RedisClient *redis.Client

	// Repositories
	PlanRepo     planningDomain.PlanRepository
	TaskRepo     planningDomain.TaskRepository
	ScheduleRepo planningDomain.ScheduleRepository
	HistoryRepo  planningDomain.RescheduleHistoryRepository
	SettingsRepo identityDomain.SettingsRepository
	TokenRepo    identityDomain.TokenRepository
	OutboxRepo   outbox.Repository

	// Shared infrastructure
	UnitOfWork     sharedApplication.UnitOfWork
	PlanLocker     locks.PlanLocker
	EventPublisher eventbus.Publisher

	// Services
	Scheduler       *services.TimeBlockScheduler
	Analyzer        *services.RescheduleAnalyzer
	BusySource      services.BusySlotSource
	SettingsService *identitySettings.Service
	OAuthService    *identityOAuth.Service

	// Command handlers
	CreatePlanHandler        *commands.CreatePlanHandler
	GenerateScheduleHandler  *commands.GenerateScheduleHandler
	AnalyzeMissedDayHandler  *commands.AnalyzeMissedDayHandler
	ApplyRescheduleHandler   *commands.ApplyRescheduleHandler
	CompletePlacementHandler *commands.CompletePlacementHandler
	SweepMissedDaysHandler   *commands.SweepMissedDaysHandler

	// Query handlers
	GetScheduleHandler           *queries.GetScheduleHandler
	ListRescheduleHistoryHandler *queries.ListRescheduleHistoryHandler

	// Outbox Processor
	OutboxProcessor *outbox.Processor
}

// NewContainer creates and wires all dependencies. The storage backend is
// chosen from configuration: DATABASE_URL selects PostgreSQL, otherwise
// Waypoint runs in local mode against SQLite.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	userID, err := uuid.Parse(cfg.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid WAYPOINT_USER_ID: %w", err)
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
		UserID: userID,
	}

	if cfg.IsLocalMode() {
		if err := c.initSQLite(ctx); err != nil {
			return nil, err
		}
	} else {
		if err := c.initPostgres(ctx); err != nil {
			return nil, err
		}
	}

	if err := c.initEventPublisher(); err != nil {
		c.Close()
		return nil, err
	}
	c.initPlanLocker(ctx)

	if err := c.initServices(ctx); err != nil {
		c.Close()
		return nil, err
	}
	c.initHandlers()

	processorCfg := outbox.DefaultProcessorConfig()
	processorCfg.PollInterval = cfg.OutboxPollInterval
	processorCfg.BatchSize = cfg.OutboxBatchSize
	processorCfg.MaxRetries = cfg.OutboxMaxRetries
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, processorCfg, logger)

	return c, nil
}

func (c *Container) initPostgres(ctx context.Context) error {
	pool, err := pgxpool.New(ctx, c.Config.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	c.DB = pool
	c.Logger.Info("connected to database")

	c.PlanRepo = planningPersistence.NewPostgresPlanRepository(pool)
	c.TaskRepo = planningPersistence.NewPostgresTaskRepository(pool)
	c.ScheduleRepo = planningPersistence.NewPostgresScheduleRepository(pool)
	c.HistoryRepo = planningPersistence.NewPostgresHistoryRepository(pool)
	c.SettingsRepo = identityPersistence.NewPostgresSettingsRepository(pool)
	c.TokenRepo = identityPersistence.NewPostgresTokenRepository(pool)
	c.OutboxRepo = outbox.NewPostgresRepository(pool)
	c.UnitOfWork = sharedPersistence.NewPostgresUnitOfWork(pool)
	return nil
}

func (c *Container) initSQLite(ctx context.Context) error {
	path := c.Config.SQLitePath
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	c.SQLiteDB = db
	c.Logger.Info("local mode: using sqlite", slog.String("path", path))

	c.PlanRepo = planningPersistence.NewSQLitePlanRepository(db)
	c.TaskRepo = planningPersistence.NewSQLiteTaskRepository(db)
	c.ScheduleRepo = planningPersistence.NewSQLiteScheduleRepository(db)
	c.HistoryRepo = planningPersistence.NewSQLiteHistoryRepository(db)
	c.SettingsRepo = identityPersistence.NewSQLiteSettingsRepository(db)
	c.TokenRepo = identityPersistence.NewSQLiteTokenRepository(db)
	c.OutboxRepo = outbox.NewSQLiteRepository(db)
	c.UnitOfWork = sharedPersistence.NewSQLiteUnitOfWork(db)
	return nil
}

func (c *Container) initEventPublisher() error {
	if c.Config.RabbitMQURL == "" {
		c.EventPublisher = eventbus.NopPublisher{}
		return nil
	}
	publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
	if err != nil {
		if c.Config.IsLocalMode() {
			c.Logger.Warn("rabbitmq not available, events stay in the outbox unpublished", "error", err)
			c.EventPublisher = eventbus.NopPublisher{}
			return nil
		}
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	c.EventPublisher = publisher
	return nil
}

func (c *Container) initPlanLocker(ctx context.Context) {
	if c.Config.RedisURL == "" {
		c.PlanLocker = locks.NewLocalPlanLocker()
		return
	}
	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		c.Logger.Warn("invalid redis URL, using in-process plan locks", "error", err)
		c.PlanLocker = locks.NewLocalPlanLocker()
		return
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		c.Logger.Warn("redis not available, using in-process plan locks", "error", err)
		c.PlanLocker = locks.NewLocalPlanLocker()
		return
	}
	c.RedisClient = client
	c.PlanLocker = locks.NewRedisPlanLocker(client, locks.DefaultLockTTL)
	c.Logger.Info("connected to redis")
}

func (c *Container) initServices(ctx context.Context) error {
	c.SettingsService = identitySettings.NewService(c.SettingsRepo, c.Logger)

	if c.Config.EncryptionKey != "" {
		encrypter, err := crypto.NewAESGCMFromBase64Key(c.Config.EncryptionKey)
		if err != nil {
			return fmt.Errorf("invalid encryption key: %w", err)
		}
		oauthService, err := identityOAuth.NewService(
			"google",
			c.Config.GoogleClientID,
			c.Config.GoogleClientSecret,
			"https://oauth2.googleapis.com/token",
			c.TokenRepo,
			encrypter,
			c.Logger,
		)
		if err != nil {
			return err
		}
		c.OAuthService = oauthService
	}

	providers, err := c.calendarProviders(ctx)
	if err != nil {
		return err
	}
	c.BusySource = calendarApp.NewAggregator(providers, c.Logger)

	c.Scheduler = services.NewTimeBlockScheduler()
	c.Analyzer = services.NewRescheduleAnalyzer(
		c.PlanRepo,
		c.TaskRepo,
		c.ScheduleRepo,
		c.BusySource,
		c.Scheduler,
		c.Config.MaxExtensionDays,
	)
	return nil
}

func (c *Container) calendarProviders(ctx context.Context) ([]calendarApp.Provider, error) {
	var providers []calendarApp.Provider

	if c.Config.CalDAVURL != "" {
		provider := caldav.NewProvider(
			c.Config.CalDAVURL,
			c.Config.CalDAVUsername,
			c.Config.CalDAVPassword,
			c.Logger,
		)
		if c.Config.CalDAVCalendar != "" {
			provider = provider.WithCalendarPath(c.Config.CalDAVCalendar)
		}
		providers = append(providers, provider)
		c.Logger.Info("caldav calendar connected", slog.String("url", c.Config.CalDAVURL))
	}

	if c.OAuthService != nil {
		// Only attach Google when a token has been imported; an empty token
		// store would fail every scheduling request.
		_, err := c.TokenRepo.Get(ctx, c.UserID, "google")
		switch {
		case err == nil:
			provider := googleCalendar.NewProvider(c.OAuthService, c.UserID, c.Logger).
				WithCalendarID(c.Config.GoogleCalendarID)
			providers = append(providers, provider)
			c.Logger.Info("google calendar connected")
		case errors.Is(err, identityDomain.ErrTokenNotFound):
			c.Logger.Debug("no google token stored, skipping google calendar")
		default:
			return nil, err
		}
	}

	return providers, nil
}

func (c *Container) initHandlers() {
	c.CreatePlanHandler = commands.NewCreatePlanHandler(c.PlanRepo, c.TaskRepo, c.UnitOfWork, c.Logger)
	c.GenerateScheduleHandler = commands.NewGenerateScheduleHandler(
		c.PlanRepo,
		c.TaskRepo,
		c.ScheduleRepo,
		c.BusySource,
		c.SettingsService,
		c.Scheduler,
		c.OutboxRepo,
		c.UnitOfWork,
		c.PlanLocker,
		c.Logger,
	)
	c.AnalyzeMissedDayHandler = commands.NewAnalyzeMissedDayHandler(c.PlanRepo, c.SettingsService, c.Analyzer, c.Logger)
	c.ApplyRescheduleHandler = commands.NewApplyRescheduleHandler(
		c.PlanRepo,
		c.ScheduleRepo,
		c.HistoryRepo,
		c.OutboxRepo,
		c.UnitOfWork,
		c.PlanLocker,
		c.Logger,
	)
	c.CompletePlacementHandler = commands.NewCompletePlacementHandler(c.ScheduleRepo, c.OutboxRepo, c.UnitOfWork, c.Logger)
	c.SweepMissedDaysHandler = commands.NewSweepMissedDaysHandler(
		c.PlanRepo,
		c.ScheduleRepo,
		c.AnalyzeMissedDayHandler,
		c.ApplyRescheduleHandler,
		c.OutboxRepo,
		c.UnitOfWork,
		c.Logger,
	)

	c.GetScheduleHandler = queries.NewGetScheduleHandler(c.PlanRepo, c.TaskRepo, c.ScheduleRepo)
	c.ListRescheduleHistoryHandler = queries.NewListRescheduleHistoryHandler(c.HistoryRepo)
}

// StartOutboxProcessor begins publishing outbox messages in the background.
func (c *Container) StartOutboxProcessor(ctx context.Context) {
	if c.Config.OutboxProcessorEnabled {
		c.OutboxProcessor.Start(ctx)
	}
}

// Close releases all held connections.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing redis connection", "error", err)
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}

	if c.SQLiteDB != nil {
		if err := c.SQLiteDB.Close(); err != nil {
			c.Logger.Warn("error closing sqlite database", "error", err)
		}
	}
}
