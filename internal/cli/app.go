// Package cli implements the portalctl command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bnrm/backoffice/internal/config"
	"github.com/bnrm/backoffice/internal/container"
	httpapi "github.com/bnrm/backoffice/internal/interfaces/http"
	"github.com/bnrm/backoffice/internal/interfaces/terminal"
	"github.com/bnrm/backoffice/pkg/utils"
)

// DefaultConfigPath is read when --config is not given and the file exists
const DefaultConfigPath = "configs/config.yaml"

// App holds state shared by every command
type App struct {
	ConfigPath string
	Renderer   *terminal.Renderer

	// tweak adjusts the container config before start; used by migrate and seed
	tweak func(*container.Config)
}

// NewApp creates an App with the default renderer
func NewApp() *App {
	return &App{Renderer: terminal.NewRenderer()}
}

// loadConfig reads the config file, falling back to defaults when the
// default path is absent
func (a *App) loadConfig() (*config.Config, error) {
	path := a.ConfigPath
	if path == "" {
		if _, err := os.Stat(DefaultConfigPath); err == nil {
			path = DefaultConfigPath
		}
	}
	return config.Load(path)
}

// newLogger builds the logger; command output owns stdout unless serving
func newLogger(cfg *config.Config, serving bool) (*zap.Logger, error) {
	lc := cfg.ToLoggerConfig()
	if !serving && (lc.OutputPath == "" || lc.OutputPath == "stdout") {
		lc.OutputPath = "stderr"
		lc.Level = "warn"
	}
	return utils.NewLogger(lc)
}

// withContainer starts a container for the duration of fn
func (a *App) withContainer(ctx context.Context, fn func(c *container.Container) error) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, false)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	cc := cfg.ToContainerConfig()
	if a.tweak != nil {
		a.tweak(cc)
	}

	c, err := container.NewContainer(cc, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Start(ctx); err != nil {
		return err
	}
	return fn(c)
}

// RunServer wires the HTTP API over a started container and serves until
// ctx is cancelled
func RunServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Start(ctx); err != nil {
		return err
	}

	svc := c.Services()
	cc := c.Config()
	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cc.Server.Host,
		Port:         cc.Server.Port,
		ReadTimeout:  cc.Server.ReadTimeout,
		WriteTimeout: cc.Server.WriteTimeout,
		JWTSecret:    cc.Server.JWTSecret,
	}, httpapi.Services{
		Catalog:  svc.Catalog,
		History:  svc.History,
		Actions:  svc.Actions,
		Views:    svc.Views,
		Entities: svc.Entities,
		Export:   svc.Export,
		Badges:   c.Badges(),
		Health: func() (bool, interface{}) {
			h := c.Health()
			return h.Overall, h.Components
		},
	}, c.ServiceLogger())

	return server.Start(ctx)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// NewRootCommand builds the portalctl command tree
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "portalctl",
		Short:         "Back-office workflow portal",
		Long:          "Operate the back-office workflows: serve the API, seed catalogs, inspect and advance entities.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&app.ConfigPath, "config", "c", "", "config file (default "+DefaultConfigPath+" when present)")

	root.AddCommand(
		newServeCommand(app),
		newMigrateCommand(app),
		newSeedCommand(app),
		newStepsCommand(app),
		newViewCommand(app),
		newSubmitCommand(app),
		newExportCommand(app),
		newStatusCommand(app),
	)

	return root
}

// Execute runs portalctl with os.Args and returns the process exit code
func Execute() int {
	ctx, stop := SignalContext()
	defer stop()

	root := NewRootCommand(NewApp())
	if err := root.ExecuteContext(ctx); err != nil {
		if code, ok := IsExitError(err); ok {
			return code
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
