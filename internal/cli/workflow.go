package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnrm/backoffice/internal/application/service"
	"github.com/bnrm/backoffice/internal/container"
	"github.com/bnrm/backoffice/internal/domain/entity"
	"github.com/bnrm/backoffice/internal/infrastructure/storage"
	"github.com/bnrm/backoffice/pkg/utils"
)

func newStepsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "steps <kind>",
		Short: "List the step catalog of a workflow kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withContainer(cmd.Context(), func(c *container.Container) error {
				steps, err := c.Services().Catalog.LoadSteps(cmd.Context(), entity.WorkflowKind(args[0]))
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), app.Renderer.Steps(steps))
				return nil
			})
		},
	}
}

func newViewCommand(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "view <kind> <entity-id>",
		Short: "Show the stepper, history and actions of an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withContainer(cmd.Context(), func(c *container.Container) error {
				view, err := c.Services().Views.OpenView(cmd.Context(), entity.WorkflowKind(args[0]), args[1], service.ViewCallbacks{})
				if err != nil {
					return err
				}
				defer view.Close()

				snap := view.Snapshot()
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(snap)
				}
				fmt.Fprintln(cmd.OutOrStdout(), app.Renderer.View(snap))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the view as JSON")
	return cmd
}

func newSubmitCommand(app *App) *cobra.Command {
	var (
		comment string
		fields  []string
		actor   string
	)

	cmd := &cobra.Command{
		Use:   "submit <kind> <entity-id> <decision>",
		Short: "Submit a decision on an entity",
		Long: `Submit a decision on the current step of an entity.

Use "demarrer" on an entity that has not started yet. Extra fields are
passed as --field key=value and may be repeated.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := utils.ValidateActor(actor); err != nil {
				return err
			}
			values, err := parseFields(fields)
			if err != nil {
				return err
			}

			var commentPtr *string
			if cmd.Flags().Changed("comment") {
				commentPtr = &comment
			}

			return app.withContainer(cmd.Context(), func(c *container.Container) error {
				view, err := c.Services().Views.OpenView(cmd.Context(), entity.WorkflowKind(args[0]), args[1], service.ViewCallbacks{})
				if err != nil {
					return err
				}
				defer view.Close()

				result, err := view.Submit(cmd.Context(), entity.Decision(args[2]), commentPtr, values, actor)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), app.Renderer.Result(result))
				if !result.Succeeded() {
					return NewExitError(1)
				}
				fmt.Fprintln(cmd.OutOrStdout(), app.Renderer.View(view.Snapshot()))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&comment, "comment", "", "comment attached to the decision")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "extra field as key=value")
	cmd.Flags().StringVar(&actor, "actor", defaultActor(), "actor recorded in the history")
	return cmd
}

func newExportCommand(app *App) *cobra.Command {
	var (
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "export <kind> <entity-id>",
		Short: "Export the history of an entity as an xlsx workbook",
		Long:  "Write the workbook to --output, or to the configured export directory when omitted.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, id := entity.WorkflowKind(args[0]), args[1]

			return app.withContainer(cmd.Context(), func(c *container.Container) error {
				export := c.Services().Export

				if output == "" {
					path, err := export.SaveHistory(cmd.Context(), kind, id)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "History saved to %s\n", path)
					return nil
				}

				dest := storage.NewLocalFileStorage(filepath.Dir(output), c.Logger())
				name := filepath.Base(output)
				if !force && dest.Exists(cmd.Context(), name) {
					return fmt.Errorf("%s already exists, use --force to overwrite", output)
				}

				data, _, err := export.ExportHistory(cmd.Context(), kind, id)
				if err != nil {
					return err
				}
				if err := dest.Save(cmd.Context(), name, data); err != nil {
					return fmt.Errorf("failed to write %s: %w", output, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "History written to %s\n", dest.GetFullPath(name))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing destination file")
	return cmd
}

func parseFields(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	fields := make(map[string]string, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q, expected key=value", kv)
		}
		fields[key] = value
	}
	return fields, nil
}

func defaultActor() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "portalctl"
}
