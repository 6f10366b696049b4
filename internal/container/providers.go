package container

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/garyjia/merchant-onboarding/internal/application/dispatcher"
	"github.com/garyjia/merchant-onboarding/internal/application/port"
	"github.com/garyjia/merchant-onboarding/internal/application/review"
	"github.com/garyjia/merchant-onboarding/internal/application/service"
	"github.com/garyjia/merchant-onboarding/internal/application/workflow"
	"github.com/garyjia/merchant-onboarding/internal/domain/onboarding"
	"github.com/garyjia/merchant-onboarding/internal/infrastructure/auth"
	"github.com/garyjia/merchant-onboarding/internal/infrastructure/export"
	"github.com/garyjia/merchant-onboarding/internal/infrastructure/messaging"
	"github.com/garyjia/merchant-onboarding/internal/infrastructure/persistence/memory"
	"github.com/garyjia/merchant-onboarding/internal/infrastructure/persistence/repository"
	"github.com/garyjia/merchant-onboarding/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/merchant-onboarding/internal/infrastructure/ratelimit"
	"github.com/garyjia/merchant-onboarding/internal/infrastructure/session"
	"github.com/garyjia/merchant-onboarding/internal/infrastructure/storage"
	"github.com/garyjia/merchant-onboarding/internal/infrastructure/worker"
	httpapi "github.com/garyjia/merchant-onboarding/internal/interfaces/http"
	"github.com/garyjia/merchant-onboarding/pkg/database"
)

const (
	// forwarderName identifies the broker forwarder among dispatcher handlers
	forwarderName = "amqp-forwarder"

	healthTimeout = 2 * time.Second
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	// DB is nil for the memory driver
	DB        *database.DB
	TxManager port.TransactionManager
	Repos     *RepositoryBundle
}

// LimiterBundle holds the rate limiter and the backend it owns.
type LimiterBundle struct {
	Limiter port.RateLimiter
	// Memory is set when limits are kept in process and need sweeping
	Memory *ratelimit.MemoryLimiter
	Redis  redis.UniversalClient
}

// StorageBundle holds storage-related components.
type StorageBundle struct {
	Objects   *storage.DiskStore
	Presigner *storage.LocalPresigner
	Transport *storage.HTTPTransport
}

// ProvideDatabase opens the configured store, runs pending migrations and
// builds the repositories on top of it.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if cfg.Driver == DriverMemory {
		return &DatabaseBundle{
			TxManager: memory.TxManager{},
			Repos: &RepositoryBundle{
				Merchant: memory.NewMerchantRepository(),
				History:  memory.NewStatusHistoryRepository(),
				Lead:     memory.NewLeadRepository(),
			},
		}, nil
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(sqlite.Migrations, sqlite.MigrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	txManager := sqlite.NewDB(db.DB, logger)
	return &DatabaseBundle{
		DB:        db,
		TxManager: txManager,
		Repos: &RepositoryBundle{
			Merchant: repository.NewMerchantRepository(txManager, logger),
			History:  repository.NewStatusHistoryRepository(txManager, logger),
			Lead:     repository.NewLeadRepository(txManager, logger),
		},
	}, nil
}

// ProvidePublisher connects to the broker, or logs events when none is configured.
func ProvidePublisher(cfg *MessagingConfig, logger *zap.Logger) (port.EventPublisher, error) {
	if cfg.URL == "" {
		logger.Info("No message broker configured, domain events will be logged only")
		return messaging.NewFallbackProducer(logger), nil
	}

	producer, err := messaging.NewProducer(cfg.URL, cfg.DialTimeout, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to message broker: %w", err)
	}
	return producer, nil
}

// ProvideRateLimiter returns a redis-backed limiter when redis is configured
// and an in-process one otherwise. A disabled limiter yields a nil Limiter.
func ProvideRateLimiter(cfg *RateLimitConfig, redisCfg *RedisConfig, logger *zap.Logger) (*LimiterBundle, error) {
	if !cfg.Enabled {
		logger.Info("Rate limiting disabled")
		return &LimiterBundle{}, nil
	}

	if redisCfg.Addr == "" {
		limiter := ratelimit.NewMemoryLimiter(cfg.Requests, cfg.Window)
		return &LimiterBundle{Limiter: limiter, Memory: limiter}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Rate limiting backed by redis", zap.String("addr", redisCfg.Addr))
	return &LimiterBundle{
		Limiter: ratelimit.NewRedisLimiter(client, redisCfg.KeyPrefix, cfg.Requests, cfg.Window),
		Redis:   client,
	}, nil
}

// ProvideStorage creates the object store, presigner and upload transport.
func ProvideStorage(cfg *StorageConfig, logger *zap.Logger) (*StorageBundle, error) {
	presigner, err := storage.NewLocalPresigner(storage.PresignerConfig{
		PublicBaseURL: cfg.PublicBaseURL,
		Secret:        cfg.UploadSecret,
		Expiry:        cfg.PresignExpiry,
	}, logger)
	if err != nil {
		return nil, err
	}

	return &StorageBundle{
		Objects:   storage.NewDiskStore(cfg.BaseDir, logger),
		Presigner: presigner,
		Transport: storage.NewHTTPTransport(cfg.PutTimeout, logger),
	}, nil
}

// ProvideTokenManager creates the bearer token issuer and verifier.
func ProvideTokenManager(cfg *AuthConfig) (*auth.TokenManager, error) {
	return auth.NewTokenManager(cfg.JWTSecret, cfg.Issuer, cfg.TokenExpiry)
}

// ProvideDispatcher creates the event dispatcher and forwards every event to
// the broker.
func ProvideDispatcher(publisher port.EventPublisher, exchange string, logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	disp := dispatcher.NewDispatcher(
		dispatcher.WithLogger(&zapLoggerAdapter{logger: logger}),
	)

	forwarder := messaging.NewForwarder(publisher, exchange, logger)
	disp.SubscribeNamed(dispatcher.AllEvents, forwarderName, forwarder.Handle)

	return disp, nil
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Storage    *StorageBundle
	Sessions   *session.MemoryStore
	Dispatcher dispatcher.Dispatcher
	Onboarding *OnboardingConfig
	Logger     *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil || deps.Storage == nil || deps.Sessions == nil {
		return nil, fmt.Errorf("repositories, storage and sessions are required")
	}

	logger := &zapLoggerAdapter{logger: deps.Logger}

	policy := onboarding.ResumeKYCResetsToStart
	if deps.Onboarding != nil && deps.Onboarding.ResumeKYCAtFinalStep {
		policy = onboarding.ResumeKYCAtFinalStep
	}

	engine := workflow.NewEngine(
		deps.Repos.Merchant,
		deps.Repos.History,
		deps.TxManager,
		workflow.WithDispatcher(deps.Dispatcher),
	)

	uploads := service.NewUploadService(deps.Storage.Presigner, logger)

	return &ServiceBundle{
		Onboarding: service.NewOnboardingService(
			deps.Repos.Merchant,
			deps.Sessions,
			uploads,
			deps.Storage.Transport,
			deps.Dispatcher,
			policy,
			logger,
		),
		Merchant: service.NewMerchantService(
			deps.Repos.Merchant,
			deps.Repos.History,
			export.NewXLSXExporter(deps.Logger),
			deps.Dispatcher,
			logger,
		),
		Lead:   service.NewLeadService(deps.Repos.Lead, deps.Dispatcher, logger),
		Upload: uploads,
		Engine: engine,
		Board:  review.NewBoard(deps.Repos.Merchant, engine, logger),
	}, nil
}

// WorkerDeps holds dependencies for creating workers.
type WorkerDeps struct {
	Sessions  *session.MemoryStore
	Limiter   *ratelimit.MemoryLimiter
	Scheduler *SchedulerConfig
	Logger    *zap.Logger
}

// ProvideWorkers creates the worker manager with the sweep jobs registered.
func ProvideWorkers(deps *WorkerDeps) (*worker.Manager, error) {
	if deps == nil || deps.Scheduler == nil {
		return nil, fmt.Errorf("worker dependencies are required")
	}

	jobs := []worker.SweepJob{{
		Name:     "onboarding-sessions",
		Schedule: deps.Scheduler.SessionSweepSchedule,
		Idle:     deps.Scheduler.SessionIdleTimeout,
		Sweep:    deps.Sessions.Sweep,
	}}

	if deps.Limiter != nil && deps.Scheduler.LimiterSweepSchedule != "" {
		limiter := deps.Limiter
		jobs = append(jobs, worker.SweepJob{
			Name:     "rate-limit-buckets",
			Schedule: deps.Scheduler.LimiterSweepSchedule,
			Idle:     deps.Scheduler.LimiterIdleTimeout,
			Sweep: func(_ context.Context, idle time.Duration) int {
				return limiter.Sweep(idle)
			},
		})
	}

	manager := worker.NewManager(deps.Logger)
	manager.Register(worker.NewSweeper(deps.Logger, jobs...))
	return manager, nil
}

// HTTPDeps holds dependencies for creating the HTTP server.
type HTTPDeps struct {
	Config   *ServerConfig
	Services *ServiceBundle
	Storage  *StorageBundle
	Tokens   *auth.TokenManager
	Limiter  port.RateLimiter
	Logger   *zap.Logger
}

// ProvideHTTPServer creates the HTTP server with every route wired.
func ProvideHTTPServer(deps *HTTPDeps) (*httpapi.Server, error) {
	if deps == nil || deps.Services == nil || deps.Storage == nil {
		return nil, fmt.Errorf("http dependencies are required")
	}

	httpDeps := httpapi.Dependencies{
		Onboarding: deps.Services.Onboarding,
		Merchants:  deps.Services.Merchant,
		Leads:      deps.Services.Lead,
		Uploads:    deps.Services.Upload,
		Board:      deps.Services.Board,
		Objects:    deps.Storage.Objects,
		Verifier:   deps.Storage.Presigner,
		Limiter:    deps.Limiter,
	}
	// A nil *TokenManager must not become a non-nil Authenticator
	if deps.Tokens != nil {
		httpDeps.Auth = deps.Tokens
	}

	return httpapi.NewServer(httpapi.ServerConfig{
		Host:           deps.Config.Host,
		Port:           deps.Config.Port,
		ReadTimeout:    deps.Config.ReadTimeout,
		WriteTimeout:   deps.Config.WriteTimeout,
		MaxUploadBytes: deps.Config.MaxUploadBytes,
	}, httpDeps, &zapLoggerAdapter{logger: deps.Logger}), nil
}
