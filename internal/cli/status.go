package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnrm/backoffice/internal/domain/status"
)

func newStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status <domain> [code]",
		Short: "Resolve a status code to its badge",
		Long:  "Print the badge of code in domain, or every known badge of the domain when code is omitted.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := status.DefaultRegistry()
			out := cmd.OutOrStdout()

			if len(args) == 2 {
				d, err := registry.Resolve(args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\t%s\n", args[1], app.Renderer.Badge(d))
				return nil
			}

			r, err := registry.Get(args[0])
			if err != nil {
				return err
			}
			for _, code := range r.Codes() {
				fmt.Fprintf(out, "%s\t%s\n", code, app.Renderer.Badge(r.Resolve(code)))
			}
			return nil
		},
	}
}
