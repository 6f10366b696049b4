package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/garyjia/merchant-onboarding/internal/application/dispatcher"
	"github.com/garyjia/merchant-onboarding/internal/application/port"
	"github.com/garyjia/merchant-onboarding/internal/application/review"
	"github.com/garyjia/merchant-onboarding/internal/application/service"
	"github.com/garyjia/merchant-onboarding/internal/application/workflow"
	"github.com/garyjia/merchant-onboarding/internal/infrastructure/auth"
	"github.com/garyjia/merchant-onboarding/internal/infrastructure/ratelimit"
	"github.com/garyjia/merchant-onboarding/internal/infrastructure/session"
	"github.com/garyjia/merchant-onboarding/internal/infrastructure/worker"
	httpapi "github.com/garyjia/merchant-onboarding/internal/interfaces/http"
	"github.com/garyjia/merchant-onboarding/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	db           *database.DB
	txManager    port.TransactionManager
	repositories *RepositoryBundle
	sessions     *session.MemoryStore

	// Infrastructure - External
	publisher     port.EventPublisher
	redisClient   redis.UniversalClient
	limiter       port.RateLimiter
	memoryLimiter *ratelimit.MemoryLimiter
	tokens        *auth.TokenManager

	// Infrastructure - Storage
	storage *StorageBundle

	// Application
	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle
	server     *httpapi.Server

	// Workers
	workers *worker.Manager

	// Lifecycle
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Merchant port.MerchantRepository
	History  port.StatusHistoryRepository
	Lead     port.LeadRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Onboarding service.OnboardingService
	Merchant   service.MerchantService
	Lead       service.LeadService
	Upload     service.UploadService
	Engine     workflow.StatusEngine
	Board      *review.Board
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components and begins processing.
// Components are initialized in dependency order:
// 1. Database and repositories
// 2. External clients (broker, redis, tokens)
// 3. Storage
// 4. Event dispatcher
// 5. Application services and HTTP server
// 6. Workers
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container is closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	steps := []struct {
		name string
		fn   func() error
	}{
		{"database", c.initDatabase},
		{"external clients", c.initExternalClients},
		{"storage", c.initStorage},
		{"dispatcher", c.initDispatcher},
		{"services", c.initServices},
		{"workers", c.initWorkers},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			c.logger.Error("Container start failed", zap.String("step", step.name), zap.Error(err))
			c.cancel()
			return fmt.Errorf("failed to initialize %s: %w", step.name, err)
		}
	}

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Cancel context to signal all goroutines
	if c.cancel != nil {
		c.cancel()
	}

	// Step 1: Stop workers (reverse of step 6)
	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			c.logger.Error("Failed to stop workers", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		} else {
			c.logger.Info("Workers stopped")
		}
	}

	// Step 2: Services hold no resources (reverse of step 5)

	// Step 3: Close dispatcher (reverse of step 4)
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	// Step 4: Storage holds no resources (reverse of step 3)

	// Step 5: Close external clients (reverse of step 2)
	if c.publisher != nil {
		c.publisher.Close()
		c.logger.Info("Event publisher closed")
	}
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			c.logger.Error("Failed to close redis client", zap.Error(err))
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		} else {
			c.logger.Info("Redis client closed")
		}
	}

	// Step 6: Close database (reverse of step 1)
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	set := func(name string, health ComponentHealth) {
		status.Components[name] = health
		if !health.Healthy {
			status.Overall = false
		}
	}

	// Check database
	switch {
	case c.db != nil:
		if err := c.db.Ping(); err != nil {
			set("database", ComponentHealth{Message: fmt.Sprintf("ping failed: %v", err)})
		} else {
			set("database", ComponentHealth{Healthy: true})
		}
	case c.repositories != nil:
		set("database", ComponentHealth{Healthy: true, Message: "in-memory"})
	default:
		set("database", ComponentHealth{Message: "not initialized"})
	}

	// Check redis
	if c.redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
		err := c.redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			set("redis", ComponentHealth{Message: fmt.Sprintf("ping failed: %v", err)})
		} else {
			set("redis", ComponentHealth{Healthy: true})
		}
	}

	// Check workers
	if c.workers != nil {
		set("workers", ComponentHealth{
			Healthy: c.workers.IsRunning(),
			Message: fmt.Sprintf("worker count: %d", c.workers.Count()),
		})
		for _, w := range c.workers.Statuses() {
			set("worker:"+w.Name, ComponentHealth{Healthy: w.Running, Message: w.Error})
		}
	} else {
		set("workers", ComponentHealth{Message: "not initialized"})
	}

	// Check dispatcher
	if c.dispatcher != nil {
		stats := c.dispatcher.Stats()
		set("dispatcher", ComponentHealth{
			Healthy: true,
			Message: fmt.Sprintf("delivered: %d, failed: %d", stats.Delivered, stats.Failed),
		})
	} else {
		set("dispatcher", ComponentHealth{Message: "not initialized"})
	}

	return status
}

// initDatabase initializes the database and all repositories using providers.
func (c *Container) initDatabase() error {
	bundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.db = bundle.DB
	c.txManager = bundle.TxManager
	c.repositories = bundle.Repos
	c.sessions = session.NewMemoryStore()

	c.logger.Info("Database initialized", zap.String("driver", c.config.Database.Driver))
	return nil
}

// initExternalClients connects the broker, the limiter backend and the token manager.
func (c *Container) initExternalClients() error {
	publisher, err := ProvidePublisher(&c.config.Messaging, c.logger)
	if err != nil {
		return err
	}
	c.publisher = publisher

	limiters, err := ProvideRateLimiter(&c.config.RateLimit, &c.config.Redis, c.logger)
	if err != nil {
		return err
	}
	c.limiter = limiters.Limiter
	c.memoryLimiter = limiters.Memory
	c.redisClient = limiters.Redis

	tokens, err := ProvideTokenManager(&c.config.Auth)
	if err != nil {
		return err
	}
	c.tokens = tokens

	c.logger.Info("External clients initialized")
	return nil
}

// initStorage initializes the object store and presigner.
func (c *Container) initStorage() error {
	bundle, err := ProvideStorage(&c.config.Storage, c.logger)
	if err != nil {
		return err
	}
	c.storage = bundle

	c.logger.Info("Storage initialized", zap.String("base_dir", c.config.Storage.BaseDir))
	return nil
}

// initDispatcher creates the event dispatcher.
func (c *Container) initDispatcher() error {
	disp, err := ProvideDispatcher(c.publisher, c.config.Messaging.Exchange, c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = disp

	c.logger.Info("Dispatcher initialized")
	return nil
}

// initServices initializes application services and the HTTP server.
func (c *Container) initServices() error {
	services, err := ProvideServices(&ServiceDeps{
		Repos:      c.repositories,
		TxManager:  c.txManager,
		Storage:    c.storage,
		Sessions:   c.sessions,
		Dispatcher: c.dispatcher,
		Onboarding: &c.config.Onboarding,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}
	c.services = services

	server, err := ProvideHTTPServer(&HTTPDeps{
		Config:   &c.config.Server,
		Services: services,
		Storage:  c.storage,
		Tokens:   c.tokens,
		Limiter:  c.limiter,
		Logger:   c.logger,
	})
	if err != nil {
		return err
	}
	c.server = server

	c.logger.Info("Services initialized")
	return nil
}

// initWorkers initializes and starts the background workers.
func (c *Container) initWorkers() error {
	manager, err := ProvideWorkers(&WorkerDeps{
		Sessions:  c.sessions,
		Limiter:   c.memoryLimiter,
		Scheduler: &c.config.Scheduler,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}

	if err := manager.StartAll(c.ctx); err != nil {
		return err
	}
	c.workers = manager

	c.logger.Info("Workers initialized", zap.Int("count", manager.Count()))
	return nil
}

// Repositories returns the repository bundle.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Sessions returns the onboarding session store.
func (c *Container) Sessions() *session.MemoryStore {
	return c.sessions
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Services returns the service bundle.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// HTTPServer returns the HTTP server.
func (c *Container) HTTPServer() *httpapi.Server {
	return c.server
}

// Tokens returns the bearer token manager.
func (c *Container) Tokens() *auth.TokenManager {
	return c.tokens
}

// Workers returns the worker manager.
func (c *Container) Workers() *worker.Manager {
	return c.workers
}

// Logger returns the logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the configuration.
func (c *Container) Config() *Config {
	return c.config
}

// zapLoggerAdapter adapts zap.Logger to the key/value Logger interfaces of
// the application and interface layers.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	fields := convertToZapFields(keysAndValues...)
	a.logger.Info(msg, fields...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	fields := convertToZapFields(keysAndValues...)
	a.logger.Error(msg, fields...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
