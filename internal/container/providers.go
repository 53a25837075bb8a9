package container

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/bnrm/backoffice/internal/application/dispatcher"
	"github.com/bnrm/backoffice/internal/application/port"
	"github.com/bnrm/backoffice/internal/application/service"
	"github.com/bnrm/backoffice/internal/application/workflow"
	"github.com/bnrm/backoffice/internal/definition"
	"github.com/bnrm/backoffice/internal/domain/status"
	"github.com/bnrm/backoffice/internal/infrastructure/export"
	"github.com/bnrm/backoffice/internal/infrastructure/external/backend"
	infraLark "github.com/bnrm/backoffice/internal/infrastructure/external/lark"
	"github.com/bnrm/backoffice/internal/infrastructure/persistence/repository"
	"github.com/bnrm/backoffice/internal/infrastructure/persistence/sqlite"
	"github.com/bnrm/backoffice/internal/infrastructure/storage"
	"github.com/bnrm/backoffice/migrations"
	"github.com/bnrm/backoffice/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	SqlDB          *database.DB
	TransactionMgr *sqlite.DB
}

// LarkBundle holds the Lark client and its messenger.
type LarkBundle struct {
	Client    *infraLark.SDKClient
	Messenger port.MessageSender
}

// ProvideDatabase opens the SQLite store and applies the embedded migrations
// when AutoMigrate is set.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
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

	if cfg.AutoMigrate {
		if err := database.NewMigrator(db, logger).RunMigrations(migrations.FS); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &DatabaseBundle{
		SqlDB:          db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(db *database.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Step:    repository.NewStepRepository(db.DB, logger),
		History: repository.NewHistoryRepository(db.DB, logger),
		State:   repository.NewStateRepository(db.DB, logger),
	}, nil
}

// ProvideDefinitions loads and validates the workflow templates.
func ProvideDefinitions(cfg *WorkflowsConfig, logger *zap.Logger) (*definition.Registry, error) {
	registry, err := definition.Load(cfg.DefinitionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow definitions: %w", err)
	}

	logger.Info("Workflow definitions loaded",
		zap.Int("kinds", len(registry.Kinds())),
		zap.String("overrides_dir", cfg.DefinitionsDir))
	return registry, nil
}

// LocalBackendDeps holds dependencies of the local backend.
type LocalBackendDeps struct {
	Registry  *definition.Registry
	Repos     *RepositoryBundle
	TxManager port.TransactionManager
	Logger    *zap.Logger
}

// ProvideLocalBackend creates the transition procedure and the backend
// serving the local store.
func ProvideLocalBackend(deps *LocalBackendDeps) (*workflow.LocalBackend, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}

	procedure := workflow.NewProcedure(
		deps.Registry,
		deps.Repos.State,
		deps.Repos.History,
		deps.TxManager,
		workflow.WithLogger(&zapLoggerAdapter{logger: deps.Logger.Named("procedure")}),
	)

	return workflow.NewLocalBackend(
		deps.Registry,
		deps.Repos.Step,
		deps.Repos.History,
		deps.Repos.State,
		procedure,
	), nil
}

// ProvideRemoteBackend creates the REST/RPC backend client.
func ProvideRemoteBackend(cfg *BackendConfig, logger *zap.Logger) (port.Backend, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}

	return backend.NewClient(backend.Config{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		MaxElapsed: cfg.MaxElapsed,
	}, logger.Named("backend"), backend.WithTracerProvider(otel.GetTracerProvider())), nil
}

// ProvideLarkClients creates the Lark client and messenger. Both are nil
// when credentials are not configured.
func ProvideLarkClients(cfg *LarkConfig, logger *zap.Logger) (*LarkBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("lark config is required")
	}

	larkCfg := infraLark.Config{
		AppID:     cfg.AppID,
		AppSecret: cfg.AppSecret,
		BaseURL:   cfg.BaseURL,
		Debug:     logger.Core().Enabled(zap.DebugLevel),
	}
	if !larkCfg.Enabled() {
		logger.Info("Lark notifications disabled: no credentials configured")
		return &LarkBundle{}, nil
	}

	client := infraLark.NewSDKClient(larkCfg, logger)
	return &LarkBundle{
		Client:    client,
		Messenger: infraLark.NewMessenger(client, logger),
	}, nil
}

// StorageBundle holds export storage components.
type StorageBundle struct {
	FileStorage port.FileStorage
	Exporter    port.HistoryExporter
}

// ProvideStorage creates the export file storage and workbook renderer.
func ProvideStorage(cfg *ExportConfig, logger *zap.Logger) (*StorageBundle, error) {
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("export output directory is required")
	}

	return &StorageBundle{
		FileStorage: storage.NewLocalFileStorage(cfg.OutputDir, logger),
		Exporter:    export.NewXLSXExporter(logger),
	}, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(&zapLoggerAdapter{logger: logger.Named("dispatcher")}),
	), nil
}

// ServiceDeps holds dependencies required for creating application services.
type ServiceDeps struct {
	Config     *Config
	Registry   *definition.Registry
	Badges     *status.Registry
	Backend    port.Backend
	Repos      *RepositoryBundle // nil in remote mode
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Storage    *StorageBundle
	Messenger  port.MessageSender // nil when notifications are off
	Logger     *zap.Logger
}

// ProvideServices creates the application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Backend == nil {
		return nil, fmt.Errorf("backend is required")
	}

	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}
	wf := deps.Config.Workflows

	catalog := service.NewStepCatalog(deps.Backend, wf.CacheTTL, wf.CacheCapacity, serviceLogger)
	history := service.NewHistoryReader(deps.Backend, serviceLogger)
	actions := service.NewActionResolver(deps.Registry)
	submitter := service.NewTransitionSubmitter(actions, deps.Backend, serviceLogger,
		service.WithEventDispatcher(deps.Dispatcher),
		service.WithTracerProvider(otel.GetTracerProvider()),
	)
	views := service.NewViewService(catalog, history, deps.Backend, actions, submitter, deps.Badges, serviceLogger)

	bundle := &ServiceBundle{
		Catalog:   catalog,
		History:   history,
		Actions:   actions,
		Submitter: submitter,
		Views:     views,
		Entities:  service.NewEntityService(deps.Backend, deps.Badges, serviceLogger),
		Export:    service.NewExportService(views, deps.Storage.Exporter, deps.Storage.FileStorage, serviceLogger),
	}

	if deps.Repos != nil {
		bundle.Seed = service.NewSeedService(deps.Registry, deps.Repos.Step, deps.TxManager, catalog, serviceLogger)
	}

	if deps.Messenger != nil {
		bundle.Notification = service.NewNotificationService(deps.Messenger, deps.Config.Lark.ChatID, deps.Badges, serviceLogger)
		bundle.Notification.Register(deps.Dispatcher)
	}

	return bundle, nil
}
