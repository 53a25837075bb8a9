package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnrm/backoffice/internal/container"
	"github.com/bnrm/backoffice/migrations"
	"github.com/bnrm/backoffice/pkg/database"
)

func newMigrateCommand(app *App) *cobra.Command {
	var showStatus bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  "Apply the embedded schema migrations to the local store, or list them with --status.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, false)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer logger.Sync()

			db, err := database.New(database.Config{Path: cfg.Database.Path}, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			migrator := database.NewMigrator(db, logger)
			out := cmd.OutOrStdout()

			if showStatus {
				status, err := migrator.Status(cmd.Context(), migrations.FS)
				if err != nil {
					return err
				}
				for _, s := range status {
					state := "pending"
					if s.AppliedAt != nil {
						state = "applied " + s.AppliedAt.Format(time.RFC3339)
					}
					fmt.Fprintf(out, "%s\t%s\n", s.Label(), state)
				}
				return nil
			}

			ran, err := migrator.Apply(cmd.Context(), migrations.FS)
			for _, m := range ran {
				fmt.Fprintf(out, "Applied %s\n", m.Label())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Database %s is up to date\n", db.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&showStatus, "status", false, "list migrations without applying them")
	return cmd
}

func newSeedCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write the template step catalogs to the local store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.tweak = func(cfg *container.Config) {
				cfg.Database.AutoMigrate = true
				cfg.Workflows.SeedOnStart = false
			}
			return app.withContainer(cmd.Context(), func(c *container.Container) error {
				return seed(cmd, c)
			})
		},
	}
}

func seed(cmd *cobra.Command, c *container.Container) error {
	seeder := c.Services().Seed
	if seeder == nil {
		return errLocalOnly
	}

	n, err := seeder.SeedCatalogs(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d workflow catalogs\n", n)
	return nil
}
