package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/bnrm/backoffice/internal/application/dispatcher"
	"github.com/bnrm/backoffice/internal/application/port"
	"github.com/bnrm/backoffice/internal/application/service"
	"github.com/bnrm/backoffice/internal/definition"
	"github.com/bnrm/backoffice/internal/domain/status"
	"github.com/bnrm/backoffice/internal/infrastructure/persistence/sqlite"
	"github.com/bnrm/backoffice/pkg/database"
)

// Container holds every wired component and manages their lifecycle.
type Container struct {
	config *Config
	logger *zap.Logger

	registry *definition.Registry
	badges   *status.Registry

	sqlDB        *database.DB
	db           *sqlite.DB
	repositories *RepositoryBundle

	backend port.Backend
	lark    *LarkBundle
	storage *StorageBundle

	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle

	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups the local store repositories.
type RepositoryBundle struct {
	Step    port.StepRepository
	History port.HistoryRepository
	State   port.StateRepository
}

// ServiceBundle groups the application services.
type ServiceBundle struct {
	Catalog      service.StepCatalog
	History      service.HistoryReader
	Actions      service.ActionResolver
	Submitter    service.TransitionSubmitter
	Views        service.ViewService
	Entities     service.EntityService
	Export       service.ExportService
	Seed         service.SeedService         // nil in remote mode
	Notification service.NotificationService // nil without Lark credentials
}

// HealthStatus reports the health of each component.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth is the health of one component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer validates cfg and returns an unstarted container.
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
		badges: status.DefaultRegistry(),
	}, nil
}

// Start initializes every component in dependency order.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization", zap.String("backend_mode", c.config.Backend.Mode))

	registry, err := ProvideDefinitions(&c.config.Workflows, c.logger)
	if err != nil {
		return err
	}
	c.registry = registry

	if err := c.initBackend(); err != nil {
		return fmt.Errorf("failed to initialize backend: %w", err)
	}
	c.logger.Info("Backend initialized")

	if c.lark, err = ProvideLarkClients(&c.config.Lark, c.logger.Named("lark")); err != nil {
		return fmt.Errorf("failed to initialize external clients: %w", err)
	}

	if c.storage, err = ProvideStorage(&c.config.Export, c.logger.Named("export")); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	if c.dispatcher, err = ProvideDispatcher(c.logger); err != nil {
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}

	if err := c.initServices(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized")

	if c.services.Seed != nil && c.config.Workflows.SeedOnStart {
		n, err := c.services.Seed.SeedCatalogs(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed step catalogs: %w", err)
		}
		c.logger.Info("Step catalogs seeded", zap.Int("kinds", n))
	}

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

func (c *Container) initBackend() error {
	if c.config.Backend.Mode == BackendRemote {
		b, err := ProvideRemoteBackend(&c.config.Backend, c.logger)
		if err != nil {
			return err
		}
		c.backend = b
		return nil
	}

	dbBundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.sqlDB = dbBundle.SqlDB
	c.db = dbBundle.TransactionMgr

	repos, err := ProvideRepositories(c.sqlDB, c.logger)
	if err != nil {
		c.sqlDB.Close()
		return err
	}
	c.repositories = repos

	local, err := ProvideLocalBackend(&LocalBackendDeps{
		Registry:  c.registry,
		Repos:     repos,
		TxManager: c.db,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}
	c.backend = local
	return nil
}

func (c *Container) initServices() error {
	deps := &ServiceDeps{
		Config:     c.config,
		Registry:   c.registry,
		Badges:     c.badges,
		Backend:    c.backend,
		Repos:      c.repositories,
		Dispatcher: c.dispatcher,
		Storage:    c.storage,
		Messenger:  c.lark.Messenger,
		Logger:     c.logger,
	}
	if c.db != nil {
		deps.TxManager = c.db
	}

	services, err := ProvideServices(deps)
	if err != nil {
		return err
	}
	c.services = services
	return nil
}

// Close releases every component. Safe to call after a failed Start.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		}
	}

	if c.sqlDB != nil {
		if err := c.sqlDB.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
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

// Ready reports whether Start completed.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health pings the database and reports component status.
func (c *Container) Health() *HealthStatus {
	health := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	switch {
	case c.config.Backend.Mode == BackendRemote:
		health.Components["backend"] = ComponentHealth{Healthy: c.backend != nil, Message: c.config.Backend.BaseURL}
	case c.sqlDB == nil:
		health.Components["database"] = ComponentHealth{Healthy: false, Message: "not initialized"}
	default:
		if err := c.sqlDB.Ping(); err != nil {
			health.Components["database"] = ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)}
		} else {
			health.Components["database"] = ComponentHealth{Healthy: true}
		}
	}

	health.Components["dispatcher"] = ComponentHealth{Healthy: c.dispatcher != nil}
	notifications := ComponentHealth{Healthy: true, Message: "disabled"}
	if c.lark != nil && c.lark.Messenger != nil {
		notifications.Message = "enabled"
	}
	health.Components["notifications"] = notifications

	for _, comp := range health.Components {
		if !comp.Healthy {
			health.Overall = false
		}
	}
	return health
}

// Registry returns the workflow template registry.
func (c *Container) Registry() *definition.Registry {
	return c.registry
}

// Badges returns the status badge registry.
func (c *Container) Badges() *status.Registry {
	return c.badges
}

// Backend returns the active workflow backend.
func (c *Container) Backend() port.Backend {
	return c.backend
}

// DB returns the local transaction manager, nil in remote mode.
func (c *Container) DB() port.TransactionManager {
	if c.db == nil {
		return nil
	}
	return c.db
}

// Repositories returns the local repositories, nil in remote mode.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Services returns the application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Logger returns the root logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// ServiceLogger adapts the root logger to the services' Logger interface.
func (c *Container) ServiceLogger() service.Logger {
	return &zapLoggerAdapter{logger: c.logger}
}

// Config returns the container configuration.
func (c *Container) Config() *Config {
	return c.config
}

// zapLoggerAdapter adapts *zap.Logger to the key/value Logger interfaces
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, ok := keysAndValues[i+1].(error); ok {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
