package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newServeCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the workflow HTTP API",
		Long:  "Start the container and serve the workflow API until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}

			logger, err := newLogger(cfg, true)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer logger.Sync()

			return RunServer(cmd.Context(), cfg, logger)
		},
	}
}
