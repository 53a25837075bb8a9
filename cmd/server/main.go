package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/bnrm/backoffice/internal/cli"
	"github.com/bnrm/backoffice/internal/config"
	"github.com/bnrm/backoffice/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(cfg.ToLoggerConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting back-office workflow service",
		zap.String("version", "1.0.0"),
		zap.String("backend", cfg.Backend.Mode),
		zap.Int("port", cfg.Server.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	ctx, stop := cli.SignalContext()
	defer stop()

	if err := cli.RunServer(ctx, cfg, logger); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("Server exited successfully")
}
